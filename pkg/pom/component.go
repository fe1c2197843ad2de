// pkg/pom/component.go
// Package pom implements the page-component model: declared, reusable
// descriptions of page structure that resolve to live elements only when an
// interaction needs one.
//
// A Component is an immutable template. It is declared once, usually as a
// package-level variable, and bound to a parent on every access:
//
//	var (
//		loginForm = pom.Define("LoginForm", pom.Locate(driver.CSS("#login")))
//		username  = pom.Define("Username", pom.Locate(driver.Name("username")), pom.FromParent())
//	)
//
//	type LoginPage struct{ *pom.Page }
//
//	func (p LoginPage) Form() LoginForm { return LoginForm{loginForm.Bind(p)} }
//
//	type LoginForm struct{ *pom.Bound }
//
//	func (f LoginForm) Username() *pom.Bound { return username.Bind(f) }
//
// Binding is cheap and carries no live element. Every interaction on a Bound
// re-resolves the element, switching into enclosing iframes first, so handles
// never go stale between calls.
package pom

import (
	"context"
	"strings"

	"github.com/xkilldash9x/pagecomp/pkg/driver"
)

// Member is a declared method or property of a component, reachable through
// Bound.Invoke by name.
type Member func(ctx context.Context, b *Bound, args ...any) (any, error)

// Component is the declared template of one logical UI element or grouping.
// It is never mutated after Define returns, so one template may be shared by
// any number of pages, sessions and goroutines.
type Component struct {
	name           string
	locator        driver.Locator
	findFromParent bool
	iframe         bool
	input          Input
	conditions     map[string]ConditionFactory
	members        map[string]Member
	children       map[string]*Component
}

// Option configures a Component at declaration time.
type Option func(*Component)

// Define declares a component template. The name is what errors and state
// reports call the component, so it usually matches the Go type wrapping it.
func Define(name string, opts ...Option) *Component {
	c := &Component{
		name:       name,
		conditions: map[string]ConditionFactory{},
		members:    map[string]Member{},
		children:   map[string]*Component{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// DefineIframe declares a component that is an iframe. Descendants of an iframe
// component are located inside the frame's document.
func DefineIframe(name string, opts ...Option) *Component {
	return Define(name, append([]Option{AsIframe()}, opts...)...)
}

// Locate sets the locator used to resolve the component.
func Locate(loc driver.Locator) Option {
	return func(c *Component) { c.locator = loc }
}

// FromParent scopes the lookup to the parent component's element rather than
// the whole document.
func FromParent() Option {
	return func(c *Component) { c.findFromParent = true }
}

// AsIframe tags the component as an iframe.
func AsIframe() Option {
	return func(c *Component) { c.iframe = true }
}

// WithInput replaces the default interaction performed by Bound.Set.
func WithInput(in Input) Option {
	return func(c *Component) { c.input = in }
}

// WithCondition declares a component-local wait condition. Local conditions
// take precedence over global ones of the same name; names are case-insensitive.
func WithCondition(name string, f ConditionFactory) Option {
	return func(c *Component) { c.conditions[strings.ToLower(name)] = f }
}

// WithMember declares a named member reachable through Bound.Invoke.
func WithMember(name string, m Member) Option {
	return func(c *Component) { c.members[name] = m }
}

// WithChild declares a sub-component under key, reachable through Bound.Child
// and Bound.Invoke.
func WithChild(key string, child *Component) Option {
	return func(c *Component) { c.children[key] = child }
}

// Name returns the declared name.
func (c *Component) Name() string { return c.name }

// Locator returns the declared locator, which is zero when none was set.
func (c *Component) Locator() driver.Locator { return c.locator }

// IsIframe reports whether the template is tagged as an iframe.
func (c *Component) IsIframe() bool { return c.iframe }

// WithLocator derives a new template that differs only in its locator. This is
// how indexed items (table rows, list entries) are declared from one template.
func (c *Component) WithLocator(loc driver.Locator) *Component {
	cp := *c
	cp.locator = loc
	return &cp
}

// Bind attaches the template to a parent for one access path. The result
// shares the parent's session, logger and wait defaults.
func (c *Component) Bind(parent Parent) *Bound {
	return &Bound{
		tmpl:   c,
		parent: parent,
		env:    parent.environment(),
	}
}
