// internal/pagedef/definition.go
// Package pagedef loads page-component trees and their checks from YAML files
// and compiles them into pom templates.
package pagedef

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"

	"github.com/xkilldash9x/pagecomp/pkg/driver"
	"github.com/xkilldash9x/pagecomp/pkg/pom"
)

// Definition is one page file: the component tree and the checks run against it.
type Definition struct {
	Name       string         `yaml:"name"`
	URL        string         `yaml:"url"`
	Components []ComponentDef `yaml:"components"`
	Checks     []CheckDef     `yaml:"checks"`

	// Source is the file the definition was loaded from, if any.
	Source string `yaml:"-"`

	templates map[string]*pom.Component
}

// ComponentDef declares one component and its sub-components.
type ComponentDef struct {
	Name       string         `yaml:"name"`
	Key        string         `yaml:"key"`
	Locator    *LocatorDef    `yaml:"locator"`
	FromParent bool           `yaml:"from_parent"`
	Iframe     bool           `yaml:"iframe"`
	Input      string         `yaml:"input"`
	Components []ComponentDef `yaml:"components"`
}

// LocatorDef is a locator strategy and value. The strategy accepts the
// WebDriver names and the aliases driver.ParseBy knows.
type LocatorDef struct {
	By    string `yaml:"by"`
	Value string `yaml:"value"`
}

// CheckDef is one step against a component path: an optional wait, an
// optional input and the expected state.
type CheckDef struct {
	Path   string       `yaml:"path"`
	Wait   *WaitDef     `yaml:"wait"`
	Set    *string      `yaml:"set"`
	Expect Expectations `yaml:"expect"`
}

// WaitDef waits on a named condition before the check runs.
type WaitDef struct {
	Condition    string         `yaml:"condition"`
	Not          bool           `yaml:"not"`
	Timeout      time.Duration  `yaml:"timeout"`
	PollInterval time.Duration  `yaml:"poll_interval"`
	Args         map[string]any `yaml:"args"`
}

// Options converts the wait settings into pom wait options.
func (w *WaitDef) Options() []pom.WaitOption {
	opts := []pom.WaitOption{pom.Timeout(w.Timeout), pom.PollInterval(w.PollInterval)}
	if len(w.Args) > 0 {
		opts = append(opts, pom.WithArgs(pom.Args(w.Args)))
	}
	return opts
}

var inputs = map[string]pom.Input{
	"":             nil,
	"text":         pom.TextInput,
	"select_value": pom.SelectByValue,
	"select_text":  pom.SelectByText,
}

// Load reads and parses the page file at path.
func Load(path string) (*Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read page definition: %w", err)
	}
	def, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	def.Source = path
	return def, nil
}

// Parse decodes a single page definition, validates it and compiles the
// component templates. Unknown fields are rejected.
func Parse(data []byte) (*Definition, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var def Definition
	if err := dec.Decode(&def); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("page definition is empty")
		}
		return nil, fmt.Errorf("failed to decode page definition: %w", err)
	}
	if err := def.Validate(); err != nil {
		return nil, err
	}
	if err := def.compile(); err != nil {
		return nil, err
	}
	return &def, nil
}

// Validate checks the whole definition and reports every problem it finds.
func (d *Definition) Validate() error {
	var errs error
	if strings.TrimSpace(d.Name) == "" {
		errs = multierr.Append(errs, errors.New("name is required"))
	}
	errs = multierr.Append(errs, validateComponents(d.Name, d.Components))

	for i, c := range d.Checks {
		where := fmt.Sprintf("checks[%d]", i)
		if c.Path == "" {
			errs = multierr.Append(errs, fmt.Errorf("%s: path is required", where))
		} else if !d.hasPath(c.Path) {
			errs = multierr.Append(errs, fmt.Errorf("%s: unknown component path %q", where, c.Path))
		}
		if c.Wait != nil {
			if c.Wait.Condition == "" {
				errs = multierr.Append(errs, fmt.Errorf("%s: wait.condition is required", where))
			}
			if c.Wait.Timeout < 0 || c.Wait.PollInterval < 0 {
				errs = multierr.Append(errs, fmt.Errorf("%s: wait durations must not be negative", where))
			}
		}
		if c.Wait == nil && c.Set == nil && len(c.Expect) == 0 {
			errs = multierr.Append(errs, fmt.Errorf("%s: nothing to do, want at least one of wait, set or expect", where))
		}
	}
	if errs != nil {
		return fmt.Errorf("invalid page definition %q: %w", d.Name, errs)
	}
	return nil
}

func validateComponents(parent string, defs []ComponentDef) error {
	var errs error
	seen := make(map[string]struct{}, len(defs))
	for i, c := range defs {
		where := fmt.Sprintf("%s.components[%d]", parent, i)
		if c.Key != "" {
			where = parent + "." + c.Key
		}
		switch {
		case c.Key == "":
			errs = multierr.Append(errs, fmt.Errorf("%s: key is required", where))
		case strings.Contains(c.Key, "."):
			errs = multierr.Append(errs, fmt.Errorf("%s: key must not contain '.'", where))
		default:
			if _, dup := seen[c.Key]; dup {
				errs = multierr.Append(errs, fmt.Errorf("%s: duplicate key", where))
			}
			seen[c.Key] = struct{}{}
		}
		if c.Name == "" {
			errs = multierr.Append(errs, fmt.Errorf("%s: name is required", where))
		}
		if c.Locator != nil {
			if _, err := c.Locator.locator(); err != nil {
				errs = multierr.Append(errs, fmt.Errorf("%s: %w", where, err))
			}
		} else if c.Iframe {
			errs = multierr.Append(errs, fmt.Errorf("%s: an iframe needs a locator", where))
		}
		if _, ok := inputs[c.Input]; !ok {
			errs = multierr.Append(errs, fmt.Errorf("%s: unknown input %q (want text, select_value or select_text)", where, c.Input))
		}
		errs = multierr.Append(errs, validateComponents(where, c.Components))
	}
	return errs
}

func (l *LocatorDef) locator() (driver.Locator, error) {
	by, err := driver.ParseBy(l.By)
	if err != nil {
		return driver.Locator{}, err
	}
	if l.Value == "" {
		return driver.Locator{}, errors.New("locator value is required")
	}
	return driver.Locator{By: by, Value: l.Value}, nil
}

// hasPath reports whether the dotted path names a declared component.
func (d *Definition) hasPath(path string) bool {
	defs := d.Components
	for _, key := range strings.Split(path, ".") {
		var next *ComponentDef
		for i := range defs {
			if defs[i].Key == key {
				next = &defs[i]
				break
			}
		}
		if next == nil {
			return false
		}
		defs = next.Components
	}
	return true
}
