// pkg/state/variants.go
package state

import (
	"context"
	"fmt"
)

// Narrow capabilities the built-in attributes read from a subject. A bound
// component provides all of them; a raw driver.Element lacks IsPresent.
type (
	presenceSubject interface {
		IsPresent(ctx context.Context) (bool, error)
	}
	displaySubject interface {
		IsDisplayed(ctx context.Context) (bool, error)
	}
	enabledSubject interface {
		IsEnabled(ctx context.Context) (bool, error)
	}
	tagSubject interface {
		TagName(ctx context.Context) (string, error)
	}
	textSubject interface {
		Text(ctx context.Context) (string, error)
	}
	attributeSubject interface {
		Attribute(ctx context.Context, name string) (string, error)
	}
)

func unsupported(attr string, subject any) error {
	return fmt.Errorf("%s: %T: %w", attr, subject, ErrUnsupportedSubject)
}

// Flag checks a boolean property of the subject.
type Flag struct {
	Base
	want  bool
	noun  string
	probe func(ctx context.Context, subject any) (bool, error)
}

// Expected returns the expected value.
func (f *Flag) Expected() bool { return f.want }

func (f *Flag) Compare(ctx context.Context, subject any) error {
	got, err := f.probe(ctx, subject)
	if err != nil {
		return err
	}
	if got == f.want {
		return nil
	}
	if f.want {
		return Failf("Element is not %s when it should be", f.noun)
	}
	return Failf("Element is %s when it shouldn't be", f.noun)
}

// IsPresent expects the subject to be locatable, or not.
func IsPresent(want bool) *Flag {
	return &Flag{Base: NewBase("IsPresent"), want: want, noun: "present",
		probe: func(ctx context.Context, subject any) (bool, error) {
			s, ok := subject.(presenceSubject)
			if !ok {
				return false, unsupported("IsPresent", subject)
			}
			return s.IsPresent(ctx)
		}}
}

// IsDisplayed expects the subject to be rendered visibly, or not.
func IsDisplayed(want bool) *Flag {
	return &Flag{Base: NewBase("IsDisplayed"), want: want, noun: "displayed",
		probe: func(ctx context.Context, subject any) (bool, error) {
			s, ok := subject.(displaySubject)
			if !ok {
				return false, unsupported("IsDisplayed", subject)
			}
			return s.IsDisplayed(ctx)
		}}
}

// IsEnabled expects the subject to be enabled, or not.
func IsEnabled(want bool) *Flag {
	return &Flag{Base: NewBase("IsEnabled"), want: want, noun: "enabled",
		probe: func(ctx context.Context, subject any) (bool, error) {
			s, ok := subject.(enabledSubject)
			if !ok {
				return false, unsupported("IsEnabled", subject)
			}
			return s.IsEnabled(ctx)
		}}
}

// Equals checks a string property of the subject for exact equality.
type Equals struct {
	Base
	want string
	read func(ctx context.Context, subject any) (string, error)
}

// Expected returns the expected value.
func (e *Equals) Expected() string { return e.want }

func (e *Equals) Compare(ctx context.Context, subject any) error {
	got, err := e.read(ctx, subject)
	if err != nil {
		return err
	}
	if got != e.want {
		return Failf("'%s' is not '%s'", got, e.want)
	}
	return nil
}

// TagName expects the subject's tag name.
func TagName(want string) *Equals {
	return &Equals{Base: NewBase("TagName"), want: want,
		read: func(ctx context.Context, subject any) (string, error) {
			s, ok := subject.(tagSubject)
			if !ok {
				return "", unsupported("TagName", subject)
			}
			return s.TagName(ctx)
		}}
}

// Text expects the subject's rendered text.
func Text(want string) *Equals {
	return &Equals{Base: NewBase("Text"), want: want,
		read: func(ctx context.Context, subject any) (string, error) {
			s, ok := subject.(textSubject)
			if !ok {
				return "", unsupported("Text", subject)
			}
			return s.Text(ctx)
		}}
}

// Href expects the subject's href attribute.
func Href(want string) *Equals { return attributeEquals("Href", "href", want) }

// Placeholder expects the subject's placeholder attribute.
func Placeholder(want string) *Equals { return attributeEquals("Placeholder", "placeholder", want) }

// Type expects the subject's type attribute.
func Type(want string) *Equals { return attributeEquals("Type", "type", want) }

// Attribute expects an arbitrary attribute. An absent attribute reads as "".
func Attribute(name, want string) *Equals {
	return attributeEquals(fmt.Sprintf("Attribute[%s]", name), name, want)
}

func attributeEquals(label, attr, want string) *Equals {
	return &Equals{Base: NewBase(label), want: want,
		read: func(ctx context.Context, subject any) (string, error) {
			s, ok := subject.(attributeSubject)
			if !ok {
				return "", unsupported(label, subject)
			}
			return s.Attribute(ctx, attr)
		}}
}
