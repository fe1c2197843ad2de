// internal/pagedef/compile.go
package pagedef

import (
	"fmt"
	"strings"

	"github.com/xkilldash9x/pagecomp/pkg/driver"
	"github.com/xkilldash9x/pagecomp/pkg/pom"
)

func (d *Definition) compile() error {
	d.templates = make(map[string]*pom.Component, len(d.Components))
	for _, c := range d.Components {
		tmpl, err := c.Template()
		if err != nil {
			return err
		}
		d.templates[c.Key] = tmpl
	}
	return nil
}

// Template compiles the declaration, and its sub-components, into a template.
func (c ComponentDef) Template() (*pom.Component, error) {
	var opts []pom.Option
	if c.Locator != nil {
		loc, err := c.Locator.locator()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", c.Name, err)
		}
		opts = append(opts, pom.Locate(loc))
	}
	if c.FromParent {
		opts = append(opts, pom.FromParent())
	}
	if c.Iframe {
		opts = append(opts, pom.AsIframe())
	}
	in, ok := inputs[c.Input]
	if !ok {
		return nil, fmt.Errorf("%s: unknown input %q", c.Name, c.Input)
	}
	if in != nil {
		opts = append(opts, pom.WithInput(in))
	}
	for _, child := range c.Components {
		tmpl, err := child.Template()
		if err != nil {
			return nil, err
		}
		opts = append(opts, pom.WithChild(child.Key, tmpl))
	}
	return pom.Define(c.Name, opts...), nil
}

// Templates returns the compiled top-level templates keyed by component key.
func (d *Definition) Templates() map[string]*pom.Component {
	return d.templates
}

// Page creates a page root for the definition over session.
func (d *Definition) Page(session driver.Session, opts ...pom.PageOption) *pom.Page {
	return pom.NewPage(session, opts...)
}

// Resolve binds the component at a dotted path, such as "form.username",
// under page.
func (d *Definition) Resolve(page *pom.Page, path string) (*pom.Bound, error) {
	keys := strings.Split(path, ".")
	tmpl, ok := d.templates[keys[0]]
	if !ok {
		return nil, &pom.MissingAttributeError{Component: d.Name, Name: keys[0]}
	}
	b := tmpl.Bind(page)
	for _, key := range keys[1:] {
		next, err := b.Child(key)
		if err != nil {
			return nil, err
		}
		b = next
	}
	return b, nil
}
