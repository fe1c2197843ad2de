// pkg/pom/input.go
package pom

import (
	"context"
	"fmt"

	"github.com/xkilldash9x/pagecomp/pkg/driver"
)

// Input is the interaction Bound.Set performs on the resolved element.
type Input interface {
	Input(ctx context.Context, el driver.Element, value any) error
}

// InputFunc adapts a function to Input.
type InputFunc func(ctx context.Context, el driver.Element, value any) error

func (f InputFunc) Input(ctx context.Context, el driver.Element, value any) error {
	return f(ctx, el, value)
}

// Built-in inputs.
var (
	// TextInput types the value into the element.
	TextInput Input = InputFunc(func(ctx context.Context, el driver.Element, value any) error {
		return el.SendKeys(ctx, fmt.Sprint(value))
	})

	// SelectByValue clicks the <option> whose value attribute equals the value.
	SelectByValue Input = InputFunc(func(ctx context.Context, el driver.Element, value any) error {
		return selectOption(ctx, el, driver.CSS("option[value="+driver.QuoteCSS(fmt.Sprint(value))+"]"))
	})

	// SelectByText clicks the <option> whose visible text equals the value.
	SelectByText Input = InputFunc(func(ctx context.Context, el driver.Element, value any) error {
		return selectOption(ctx, el, driver.XPath(".//option[normalize-space(.)="+driver.QuoteXPath(fmt.Sprint(value))+"]"))
	})
)

func selectOption(ctx context.Context, el driver.Element, loc driver.Locator) error {
	opt, err := el.FindElement(ctx, loc)
	if err != nil {
		return fmt.Errorf("select option %s: %w", loc.Value, err)
	}
	return opt.Click(ctx)
}
