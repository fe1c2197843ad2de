// internal/pagedef/expect.go
package pagedef

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/xkilldash9x/pagecomp/pkg/state"
)

// Expectation is one expected attribute as written in the file.
type Expectation struct {
	Key string
	// Attr is the attribute name for entries under "attributes".
	Attr string
	Bool bool
	Str  string
}

// Expectations keeps the order the file lists them in, which is the order
// they are compared and reported.
type Expectations []Expectation

var boolKeys = map[string]func(bool) state.ExpectedAttribute{
	"present":   func(v bool) state.ExpectedAttribute { return state.IsPresent(v) },
	"displayed": func(v bool) state.ExpectedAttribute { return state.IsDisplayed(v) },
	"enabled":   func(v bool) state.ExpectedAttribute { return state.IsEnabled(v) },
}

var stringKeys = map[string]func(string) state.ExpectedAttribute{
	"tag_name":    func(v string) state.ExpectedAttribute { return state.TagName(v) },
	"text":        func(v string) state.ExpectedAttribute { return state.Text(v) },
	"href":        func(v string) state.ExpectedAttribute { return state.Href(v) },
	"placeholder": func(v string) state.ExpectedAttribute { return state.Placeholder(v) },
	"type":        func(v string) state.ExpectedAttribute { return state.Type(v) },
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (e *Expectations) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: expect must be a mapping", node.Line)
	}
	out := make(Expectations, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		k, v := node.Content[i], node.Content[i+1]
		switch {
		case k.Value == "attributes":
			if v.Kind != yaml.MappingNode {
				return fmt.Errorf("line %d: attributes must be a mapping", v.Line)
			}
			for j := 0; j+1 < len(v.Content); j += 2 {
				var want string
				if err := v.Content[j+1].Decode(&want); err != nil {
					return fmt.Errorf("line %d: attribute %s: %w", v.Content[j].Line, v.Content[j].Value, err)
				}
				out = append(out, Expectation{Key: "attributes", Attr: v.Content[j].Value, Str: want})
			}
		case boolKeys[k.Value] != nil:
			var want bool
			if err := v.Decode(&want); err != nil {
				return fmt.Errorf("line %d: %s: %w", v.Line, k.Value, err)
			}
			out = append(out, Expectation{Key: k.Value, Bool: want})
		case stringKeys[k.Value] != nil:
			var want string
			if err := v.Decode(&want); err != nil {
				return fmt.Errorf("line %d: %s: %w", v.Line, k.Value, err)
			}
			out = append(out, Expectation{Key: k.Value, Str: want})
		default:
			return fmt.Errorf("line %d: unknown expectation %q", k.Line, k.Value)
		}
	}
	*e = out
	return nil
}

// attribute builds a fresh expected attribute for one comparison.
func (x Expectation) attribute() state.ExpectedAttribute {
	if x.Key == "attributes" {
		return state.Attribute(x.Attr, x.Str)
	}
	if f, ok := boolKeys[x.Key]; ok {
		return f(x.Bool)
	}
	return stringKeys[x.Key](x.Str)
}

// State builds a new State from the expectations. A State records the
// problems of one comparison, so callers build one per check run.
func (e Expectations) State() *state.State {
	attrs := make([]state.ExpectedAttribute, len(e))
	for i, x := range e {
		attrs[i] = x.attribute()
	}
	return state.New(attrs...)
}
