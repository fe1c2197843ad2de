// internal/driver/pwdriver/element.go
package pwdriver

import (
	"context"
	"fmt"

	"github.com/playwright-community/playwright-go"

	"github.com/xkilldash9x/pagecomp/pkg/driver"
)

// Element wraps a Playwright element handle.
type Element struct {
	h playwright.ElementHandle
}

var _ driver.Element = (*Element)(nil)

// Handle returns the underlying element handle.
func (e *Element) Handle() playwright.ElementHandle { return e.h }

func (e *Element) FindElement(ctx context.Context, loc driver.Locator) (driver.Element, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	sel, err := selector(loc)
	if err != nil {
		return nil, err
	}
	h, err := e.h.QuerySelector(sel)
	return wrapFound(loc, h, err)
}

func (e *Element) FindElements(ctx context.Context, loc driver.Locator) ([]driver.Element, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	sel, err := selector(loc)
	if err != nil {
		return nil, err
	}
	hs, err := e.h.QuerySelectorAll(sel)
	if err != nil {
		return nil, fmt.Errorf("find all %s: %w", loc, err)
	}
	return wrapAll(hs), nil
}

// eval evaluates fn with the element as its first argument.
func (e *Element) eval(ctx context.Context, op, fn string, arg ...any) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	v, err := e.h.Evaluate(fn, arg...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return v, nil
}

func (e *Element) evalString(ctx context.Context, op, fn string, arg ...any) (string, error) {
	v, err := e.eval(ctx, op, fn, arg...)
	if err != nil {
		return "", err
	}
	s, _ := v.(string)
	return s, nil
}

func (e *Element) Text(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	text, err := e.h.InnerText()
	if err != nil {
		return "", fmt.Errorf("text: %w", err)
	}
	return text, nil
}

func (e *Element) TagName(ctx context.Context) (string, error) {
	return e.evalString(ctx, "tag name", `(el) => el.tagName.toLowerCase()`)
}

func (e *Element) Attribute(ctx context.Context, name string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	v, err := e.h.GetAttribute(name)
	if err != nil {
		return "", fmt.Errorf("attribute %s: %w", name, err)
	}
	return v, nil
}

func (e *Element) Property(ctx context.Context, name string) (string, error) {
	return e.evalString(ctx, "property "+name,
		`(el, name) => { const v = el[name]; return v === undefined || v === null ? "" : String(v); }`, name)
}

func (e *Element) CSSValue(ctx context.Context, property string) (string, error) {
	return e.evalString(ctx, "css value "+property,
		`(el, prop) => (el.ownerDocument.defaultView || window).getComputedStyle(el).getPropertyValue(prop)`, property)
}

func (e *Element) IsDisplayed(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	v, err := e.h.IsVisible()
	if err != nil {
		return false, fmt.Errorf("is displayed: %w", err)
	}
	return v, nil
}

func (e *Element) IsEnabled(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	v, err := e.h.IsEnabled()
	if err != nil {
		return false, fmt.Errorf("is enabled: %w", err)
	}
	return v, nil
}

func (e *Element) IsSelected(ctx context.Context) (bool, error) {
	v, err := e.eval(ctx, "is selected", `(el) => !!(el.checked || el.selected)`)
	if err != nil {
		return false, err
	}
	b, _ := v.(bool)
	return b, nil
}

func (e *Element) Click(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := e.h.Click(); err != nil {
		return fmt.Errorf("click: %w", err)
	}
	return nil
}

func (e *Element) SendKeys(ctx context.Context, keys string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := e.h.Type(keys); err != nil {
		return fmt.Errorf("send keys: %w", err)
	}
	return nil
}

func (e *Element) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := e.h.Fill(""); err != nil {
		return fmt.Errorf("clear: %w", err)
	}
	return nil
}
