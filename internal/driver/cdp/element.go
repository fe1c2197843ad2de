// internal/driver/cdp/element.go
package cdp

import (
	"context"
	"fmt"

	"github.com/chromedp/cdproto/dom"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"

	"github.com/xkilldash9x/pagecomp/pkg/driver"
)

const (
	textFn     = `function() { return this.innerText !== undefined ? this.innerText : this.textContent; }`
	tagNameFn  = `function() { return this.tagName.toLowerCase(); }`
	attrFn     = `function(name) { var v = this.getAttribute(name); return v === null ? "" : v; }`
	propFn     = `function(name) { var v = this[name]; return v === undefined || v === null ? "" : String(v); }`
	cssValueFn = `function(prop) { return (this.ownerDocument.defaultView || window).getComputedStyle(this).getPropertyValue(prop); }`
	enabledFn  = `function() { return !this.matches(":disabled"); }`
	selectedFn = `function() { return !!(this.checked || this.selected); }`
	clickFn    = `function() { this.click(); }`

	displayedFn = `function() {
	if (!this.isConnected) { return false; }
	var style = (this.ownerDocument.defaultView || window).getComputedStyle(this);
	if (style.display === "none" || style.visibility === "hidden" || style.visibility === "collapse") { return false; }
	return this.getClientRects().length > 0;
}`

	clearFn = `function() {
	this.focus();
	if ("value" in this) { this.value = ""; } else if (this.isContentEditable) { this.textContent = ""; }
	this.dispatchEvent(new Event("input", { bubbles: true }));
	this.dispatchEvent(new Event("change", { bubbles: true }));
}`
)

// Element is a remote DOM node of a Session.
type Element struct {
	s  *Session
	id runtime.RemoteObjectID
}

var _ driver.Element = (*Element)(nil)

// ObjectID returns the remote object id of the node.
func (e *Element) ObjectID() runtime.RemoteObjectID { return e.id }

func (e *Element) String() string { return fmt.Sprintf("cdp.Element(%s)", e.id) }

func (e *Element) FindElement(ctx context.Context, loc driver.Locator) (driver.Element, error) {
	return e.s.find(ctx, e.id, loc)
}

func (e *Element) FindElements(ctx context.Context, loc driver.Locator) ([]driver.Element, error) {
	return e.s.findAll(ctx, e.id, loc)
}

// call runs fn on the node and decodes the by-value result into out.
func (e *Element) call(ctx context.Context, op, fn string, out any, args ...any) error {
	callArgs := make([]*runtime.CallArgument, len(args))
	for i, a := range args {
		callArgs[i] = mustArg(a)
	}
	obj, err := e.s.exec.CallFunctionOn(ctx, e.id, fn, true, callArgs...)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if out == nil {
		return nil
	}
	if err := decode(obj, out); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (e *Element) str(ctx context.Context, op, fn string, args ...any) (string, error) {
	var v string
	err := e.call(ctx, op, fn, &v, args...)
	return v, err
}

func (e *Element) flag(ctx context.Context, op, fn string) (bool, error) {
	var v bool
	err := e.call(ctx, op, fn, &v)
	return v, err
}

func (e *Element) Text(ctx context.Context) (string, error) {
	return e.str(ctx, "text", textFn)
}

func (e *Element) TagName(ctx context.Context) (string, error) {
	return e.str(ctx, "tag name", tagNameFn)
}

func (e *Element) Attribute(ctx context.Context, name string) (string, error) {
	return e.str(ctx, "attribute "+name, attrFn, name)
}

func (e *Element) Property(ctx context.Context, name string) (string, error) {
	return e.str(ctx, "property "+name, propFn, name)
}

func (e *Element) CSSValue(ctx context.Context, property string) (string, error) {
	return e.str(ctx, "css value "+property, cssValueFn, property)
}

func (e *Element) IsDisplayed(ctx context.Context) (bool, error) {
	return e.flag(ctx, "is displayed", displayedFn)
}

func (e *Element) IsEnabled(ctx context.Context) (bool, error) {
	return e.flag(ctx, "is enabled", enabledFn)
}

func (e *Element) IsSelected(ctx context.Context) (bool, error) {
	return e.flag(ctx, "is selected", selectedFn)
}

func (e *Element) Click(ctx context.Context) error {
	if err := e.s.exec.Run(ctx, dom.ScrollIntoViewIfNeeded().WithObjectID(e.id)); err != nil {
		return fmt.Errorf("click: scroll into view: %w", err)
	}
	return e.call(ctx, "click", clickFn, nil)
}

func (e *Element) SendKeys(ctx context.Context, keys string) error {
	err := e.s.exec.Run(ctx,
		dom.Focus().WithObjectID(e.id),
		chromedp.KeyEvent(keys),
	)
	if err != nil {
		return fmt.Errorf("send keys: %w", err)
	}
	return nil
}

func (e *Element) Clear(ctx context.Context) error {
	return e.call(ctx, "clear", clearFn, nil)
}
