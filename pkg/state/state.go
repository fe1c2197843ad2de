// pkg/state/state.go
package state

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
)

// State is an ordered set of expected attributes checked together against one
// subject. A State and its attributes are used for a single comparison.
type State struct {
	attrs    []ExpectedAttribute
	problems []ExpectedAttribute
	subject  string
}

// New builds a State from attrs, checked in the given order.
func New(attrs ...ExpectedAttribute) *State {
	return &State{attrs: attrs}
}

// Attributes returns the attributes in declaration order.
func (s *State) Attributes() []ExpectedAttribute { return s.attrs }

// Compare checks every attribute against subject. It reports false when any
// attribute recorded a problem. Errors other than mismatches stop the
// comparison and are returned.
func (s *State) Compare(ctx context.Context, subject any) (bool, error) {
	s.subject = TypeName(subject)
	s.problems = s.problems[:0]

	for _, attr := range s.attrs {
		if err := attr.Compare(ctx, subject); err != nil {
			var mm *Mismatch
			if !errors.As(err, &mm) {
				return false, fmt.Errorf("comparing %s state: %s: %w", s.subject, attr.Name(), err)
			}
			attr.AddProblem(err)
		}
		if len(attr.Problems()) > 0 {
			s.problems = append(s.problems, attr)
		}
	}
	return len(s.problems) == 0, nil
}

// Problems returns the attributes that recorded problems in the last Compare.
func (s *State) Problems() []ExpectedAttribute { return s.problems }

// SubjectType is the type name captured by the last Compare.
func (s *State) SubjectType() string { return s.subject }

// Report renders the header and one line per problem. It is empty when the
// last comparison found nothing wrong.
func (s *State) Report() []string {
	if len(s.problems) == 0 {
		return nil
	}
	report := []string{fmt.Sprintf("Comparing %s State:", s.subject)}
	for _, attr := range s.problems {
		report = append(report, ReportMessages(attr)...)
	}
	return report
}

func (s *State) String() string { return strings.Join(s.Report(), "\n") }

// TypeName returns the name a report uses for subject: its TypeName method
// when it has one, else the name of its Go type.
func TypeName(subject any) string {
	if n, ok := subject.(interface{ TypeName() string }); ok {
		return n.TypeName()
	}
	t := reflect.TypeOf(subject)
	if t == nil {
		return "<nil>"
	}
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Name() == "" {
		return t.String()
	}
	return t.Name()
}
