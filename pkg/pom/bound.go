// pkg/pom/bound.go
package pom

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/xkilldash9x/pagecomp/pkg/driver"
)

const removeFromDOMScript = `arguments[0].parentElement.removeChild(arguments[0])`

// Parent is anything a component can be bound under: a *Page, a *Bound, or a
// user type embedding either of them.
type Parent interface {
	Session() driver.Session
	environment() *environment
}

// boundNode is implemented by *Bound and promoted to types embedding it, which
// lets parent traversal see through user wrapper types.
type boundNode interface {
	boundNode() *Bound
}

// Bound is a component template bound to a parent for a single access path.
// It holds no live element. Each interaction resolves the element again.
//
// A Bound is cheap to create and is not safe for concurrent use; create one
// per goroutine by binding the template again.
type Bound struct {
	tmpl   *Component
	parent Parent
	env    *environment
	frame  frameCache
}

// frameCache memoizes the nearest iframe ancestor. The resolved flag
// distinguishes "not looked up yet" from "looked up, there is none".
type frameCache struct {
	resolved bool
	ancestor *Bound
}

func (b *Bound) boundNode() *Bound { return b }
func (b *Bound) environment() *environment { return b.env }
func (b *Bound) Session() driver.Session { return b.env.session }
func (b *Bound) Template() *Component { return b.tmpl }
func (b *Bound) Parent() Parent { return b.parent }
func (b *Bound) Name() string { return b.tmpl.name }
func (b *Bound) logger() *zap.Logger { return b.env.logger }

// TypeName is the component name used in state reports.
func (b *Bound) TypeName() string { return b.tmpl.name }

// String implements fmt.Stringer.
func (b *Bound) String() string {
	if b.tmpl.locator.IsZero() {
		return b.tmpl.name
	}
	return fmt.Sprintf("%s(%s)", b.tmpl.name, b.tmpl.locator)
}

// parentBound returns the parent as a binding, or false when the parent is a
// page root.
func (b *Bound) parentBound() (*Bound, bool) {
	if n, ok := b.parent.(boundNode); ok {
		return n.boundNode(), true
	}
	return nil, false
}

// Child binds the declared sub-component registered under key.
func (b *Bound) Child(key string) (*Bound, error) {
	c, ok := b.tmpl.children[key]
	if !ok {
		return nil, &MissingAttributeError{Component: b.tmpl.name, Name: key}
	}
	return c.Bind(b), nil
}

// Resolve locates the live element without touching frame focus. Callers
// outside the package normally want Do instead.
func (b *Bound) Resolve(ctx context.Context) (driver.Element, error) {
	loc := b.tmpl.locator
	if loc.IsZero() {
		return nil, &NotLocatableError{Component: b.tmpl.name}
	}
	scope, err := b.searchContext(ctx)
	if err != nil {
		return nil, err
	}

	b.logger().Debug("Resolving component.",
		zap.String("component", b.tmpl.name),
		zap.Stringer("locator", loc),
		zap.Bool("from_parent", b.tmpl.findFromParent))

	el, err := scope.FindElement(ctx, loc)
	if err != nil {
		if IsNotFound(err) {
			return nil, &ElementNotFoundError{Component: b.tmpl.name, Locator: loc, Err: err}
		}
		return nil, fmt.Errorf("%s: locate %s: %w", b.tmpl.name, loc, err)
	}
	return el, nil
}

// searchContext picks where the lookup runs: the parent's element for
// components declared FromParent, otherwise the focused document. An iframe
// parent is never searched as an element; its children live in the frame's
// document, which is the focused document inside the frame context.
func (b *Bound) searchContext(ctx context.Context) (driver.SearchContext, error) {
	if b.env == nil || b.env.session == nil {
		return nil, fmt.Errorf("%s: component is not bound to a session", b.tmpl.name)
	}
	if !b.tmpl.findFromParent {
		return b.env.session, nil
	}
	pb, ok := b.parentBound()
	if !ok || pb.tmpl.iframe {
		return b.env.session, nil
	}
	return pb.Resolve(ctx)
}

// Do resolves the element inside the component's frame context and runs fn
// against it. Frame focus is restored before Do returns.
func (b *Bound) Do(ctx context.Context, fn func(el driver.Element) error) error {
	return b.frameContext(ctx, func() error {
		el, err := b.Resolve(ctx)
		if err != nil {
			return err
		}
		return fn(el)
	})
}

func read[T any](ctx context.Context, b *Bound, get func(driver.Element) (T, error)) (T, error) {
	var out T
	err := b.Do(ctx, func(el driver.Element) error {
		v, err := get(el)
		if err != nil {
			return err
		}
		out = v
		return nil
	})
	return out, err
}

func (b *Bound) Text(ctx context.Context) (string, error) {
	return read(ctx, b, func(el driver.Element) (string, error) { return el.Text(ctx) })
}

func (b *Bound) TagName(ctx context.Context) (string, error) {
	return read(ctx, b, func(el driver.Element) (string, error) { return el.TagName(ctx) })
}

// Attribute returns the named attribute, or "" when the element lacks it.
func (b *Bound) Attribute(ctx context.Context, name string) (string, error) {
	return read(ctx, b, func(el driver.Element) (string, error) { return el.Attribute(ctx, name) })
}

func (b *Bound) Property(ctx context.Context, name string) (string, error) {
	return read(ctx, b, func(el driver.Element) (string, error) { return el.Property(ctx, name) })
}

func (b *Bound) CSSValue(ctx context.Context, property string) (string, error) {
	return read(ctx, b, func(el driver.Element) (string, error) { return el.CSSValue(ctx, property) })
}

func (b *Bound) IsDisplayed(ctx context.Context) (bool, error) {
	return read(ctx, b, func(el driver.Element) (bool, error) { return el.IsDisplayed(ctx) })
}

func (b *Bound) IsEnabled(ctx context.Context) (bool, error) {
	return read(ctx, b, func(el driver.Element) (bool, error) { return el.IsEnabled(ctx) })
}

func (b *Bound) IsSelected(ctx context.Context) (bool, error) {
	return read(ctx, b, func(el driver.Element) (bool, error) { return el.IsSelected(ctx) })
}

func (b *Bound) Click(ctx context.Context) error {
	return b.Do(ctx, func(el driver.Element) error { return el.Click(ctx) })
}

func (b *Bound) SendKeys(ctx context.Context, keys string) error {
	return b.Do(ctx, func(el driver.Element) error { return el.SendKeys(ctx, keys) })
}

func (b *Bound) Clear(ctx context.Context) error {
	return b.Do(ctx, func(el driver.Element) error { return el.Clear(ctx) })
}

// FindAll returns every element under the component's element matching loc.
func (b *Bound) FindAll(ctx context.Context, loc driver.Locator) ([]driver.Element, error) {
	return read(ctx, b, func(el driver.Element) ([]driver.Element, error) { return el.FindElements(ctx, loc) })
}

// Set performs the component's input interaction with value. Text input is
// the default; see WithInput.
func (b *Bound) Set(ctx context.Context, value any) error {
	if b.tmpl.locator.IsZero() {
		return &NotLocatableError{Component: b.tmpl.name}
	}
	in := b.tmpl.input
	if in == nil {
		in = TextInput
	}
	return b.Do(ctx, func(el driver.Element) error {
		return in.Input(ctx, el, value)
	})
}

// IsPresent reports whether the element can be located. Only a failed lookup
// counts as absent; any other error is returned as is. A lookup failure that
// left the session inside a frame is still an error.
func (b *Bound) IsPresent(ctx context.Context) (bool, error) {
	if _, err := b.IsDisplayed(ctx); err != nil {
		if IsNotFound(err) && !errors.Is(err, ErrRestoreContext) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// RemoveFromDOM detaches the element from its parent node.
func (b *Bound) RemoveFromDOM(ctx context.Context) error {
	return b.Do(ctx, func(el driver.Element) error {
		_, err := b.env.session.ExecuteScript(ctx, removeFromDOMScript, el)
		return err
	})
}

// Invoke looks up name on the component. Declared children come first, then
// declared members, then the built-in component operations, and finally the
// capabilities of the live element. Names are matched on the element in
// either snake_case or camelCase.
func (b *Bound) Invoke(ctx context.Context, name string, args ...any) (any, error) {
	if _, ok := b.tmpl.children[name]; ok {
		return b.Child(name)
	}
	if m, ok := b.tmpl.members[name]; ok {
		return m(ctx, b, args...)
	}

	key := normalizeMember(name)
	switch key {
	case "ispresent":
		return b.IsPresent(ctx)
	case "removefromdom":
		return nil, b.RemoveFromDOM(ctx)
	}

	var out any
	err := b.Do(ctx, func(el driver.Element) error {
		call, ok := elementMembers[key]
		if !ok {
			return &MissingAttributeError{Component: b.tmpl.name, Name: name}
		}
		v, err := call(ctx, el, args)
		if err != nil {
			return err
		}
		out = v
		return nil
	})
	return out, err
}

func normalizeMember(name string) string {
	return strings.ToLower(strings.ReplaceAll(name, "_", ""))
}

type elementMember func(ctx context.Context, el driver.Element, args []any) (any, error)

var elementMembers = map[string]elementMember{
	"text": func(ctx context.Context, el driver.Element, _ []any) (any, error) { return el.Text(ctx) },
	"tagname": func(ctx context.Context, el driver.Element, _ []any) (any, error) {
		return el.TagName(ctx)
	},
	"getattribute": func(ctx context.Context, el driver.Element, args []any) (any, error) {
		name, err := stringArg("get_attribute", args)
		if err != nil {
			return nil, err
		}
		return el.Attribute(ctx, name)
	},
	"getproperty": func(ctx context.Context, el driver.Element, args []any) (any, error) {
		name, err := stringArg("get_property", args)
		if err != nil {
			return nil, err
		}
		return el.Property(ctx, name)
	},
	"valueofcssproperty": func(ctx context.Context, el driver.Element, args []any) (any, error) {
		name, err := stringArg("value_of_css_property", args)
		if err != nil {
			return nil, err
		}
		return el.CSSValue(ctx, name)
	},
	"isdisplayed": func(ctx context.Context, el driver.Element, _ []any) (any, error) { return el.IsDisplayed(ctx) },
	"isenabled":   func(ctx context.Context, el driver.Element, _ []any) (any, error) { return el.IsEnabled(ctx) },
	"isselected":  func(ctx context.Context, el driver.Element, _ []any) (any, error) { return el.IsSelected(ctx) },
	"click":       func(ctx context.Context, el driver.Element, _ []any) (any, error) { return nil, el.Click(ctx) },
	"sendkeys": func(ctx context.Context, el driver.Element, args []any) (any, error) {
		var sb strings.Builder
		for _, a := range args {
			sb.WriteString(fmt.Sprint(a))
		}
		return nil, el.SendKeys(ctx, sb.String())
	},
	"clear": func(ctx context.Context, el driver.Element, _ []any) (any, error) { return nil, el.Clear(ctx) },
}

var errArgument = errors.New("invalid argument")

func stringArg(op string, args []any) (string, error) {
	if len(args) != 1 {
		return "", fmt.Errorf("%s takes exactly 1 argument (%d given): %w", op, len(args), errArgument)
	}
	s, ok := args[0].(string)
	if !ok {
		return "", fmt.Errorf("%s expects a string, got %T: %w", op, args[0], errArgument)
	}
	return s, nil
}
