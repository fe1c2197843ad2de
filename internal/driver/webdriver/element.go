// internal/driver/webdriver/element.go
package webdriver

import (
	"context"
	"fmt"

	"github.com/tebeka/selenium"

	"github.com/xkilldash9x/pagecomp/pkg/driver"
)

// propertyScript reads a DOM property as a string, "" when unset.
const propertyScript = `var v = arguments[0][arguments[1]]; return v === undefined || v === null ? "" : String(v);`

// Element wraps a remote WebElement. wd is the owning session, used for calls
// the element API lacks.
type Element struct {
	we selenium.WebElement
	wd selenium.WebDriver
}

var _ driver.Element = (*Element)(nil)

// WebElement returns the underlying client handle.
func (e *Element) WebElement() selenium.WebElement { return e.we }

func (e *Element) FindElement(ctx context.Context, loc driver.Locator) (driver.Element, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	by, value, err := wireLocator(loc)
	if err != nil {
		return nil, err
	}
	we, err := e.we.FindElement(by, value)
	if err != nil {
		return nil, translate("find", loc, err)
	}
	return &Element{we: we, wd: e.wd}, nil
}

func (e *Element) FindElements(ctx context.Context, loc driver.Locator) ([]driver.Element, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	by, value, err := wireLocator(loc)
	if err != nil {
		return nil, err
	}
	wes, err := e.we.FindElements(by, value)
	if err != nil {
		if isNoSuchElement(err) {
			return nil, nil
		}
		return nil, translate("find all", loc, err)
	}
	return wrapAll(e.wd, wes), nil
}

// call guards a client call with the context and labels its error.
func call[T any](ctx context.Context, op string, fn func() (T, error)) (T, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, err
	}
	v, err := fn()
	if err != nil {
		return zero, fmt.Errorf("%s: %w", op, err)
	}
	return v, nil
}

func act(ctx context.Context, op string, fn func() error) error {
	_, err := call(ctx, op, func() (struct{}, error) { return struct{}{}, fn() })
	return err
}

func (e *Element) Text(ctx context.Context) (string, error) {
	return call(ctx, "text", e.we.Text)
}

func (e *Element) TagName(ctx context.Context) (string, error) {
	return call(ctx, "tag name", e.we.TagName)
}

func (e *Element) Attribute(ctx context.Context, name string) (string, error) {
	v, err := call(ctx, "attribute "+name, func() (string, error) { return e.we.GetAttribute(name) })
	// The client reports an absent attribute as an error.
	if err != nil && ctx.Err() == nil && isNoSuchAttribute(err) {
		return "", nil
	}
	return v, err
}

func (e *Element) Property(ctx context.Context, name string) (string, error) {
	return call(ctx, "property "+name, func() (string, error) {
		v, err := e.wd.ExecuteScript(propertyScript, []any{e.we, name})
		if err != nil {
			return "", err
		}
		if s, ok := v.(string); ok {
			return s, nil
		}
		return fmt.Sprint(v), nil
	})
}

func (e *Element) CSSValue(ctx context.Context, property string) (string, error) {
	return call(ctx, "css value "+property, func() (string, error) { return e.we.CSSProperty(property) })
}

func (e *Element) IsDisplayed(ctx context.Context) (bool, error) {
	return call(ctx, "is displayed", e.we.IsDisplayed)
}

func (e *Element) IsEnabled(ctx context.Context) (bool, error) {
	return call(ctx, "is enabled", e.we.IsEnabled)
}

func (e *Element) IsSelected(ctx context.Context) (bool, error) {
	return call(ctx, "is selected", e.we.IsSelected)
}

func (e *Element) Click(ctx context.Context) error { return act(ctx, "click", e.we.Click) }

func (e *Element) SendKeys(ctx context.Context, keys string) error {
	return act(ctx, "send keys", func() error { return e.we.SendKeys(keys) })
}

func (e *Element) Clear(ctx context.Context) error { return act(ctx, "clear", e.we.Clear) }
