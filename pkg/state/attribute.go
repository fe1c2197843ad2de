// pkg/state/attribute.go
// Package state compares a subject, usually a bound page component, against a
// set of expected attributes and renders every mismatch in one report:
//
//	s := state.New(
//		state.IsPresent(true),
//		state.IsDisplayed(true),
//		state.TagName("input"),
//		state.Type("text"),
//	)
//	state.Assert(t, ctx, page.Form().Username(), s)
//
// All attributes are checked, even after one fails, so the report lists
// everything that is wrong with the subject at once.
package state

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrUnsupportedSubject is returned when an attribute cannot read what it
// checks from the subject.
var ErrUnsupportedSubject = errors.New("subject does not support the check")

// Mismatch is an assertion failure. Compare implementations return one when
// the subject differs from the expectation; State records it as a problem
// instead of aborting the comparison.
type Mismatch struct {
	Message string
}

func (m *Mismatch) Error() string { return m.Message }

// Failf builds a Mismatch.
func Failf(format string, args ...any) *Mismatch {
	return &Mismatch{Message: fmt.Sprintf(format, args...)}
}

// ExpectedAttribute is one criterion of a State.
type ExpectedAttribute interface {
	// Name labels the attribute's lines in the report.
	Name() string
	// Compare checks subject. A returned *Mismatch becomes a problem; any other
	// error aborts the comparison.
	Compare(ctx context.Context, subject any) error
	// AddProblem records a problem without failing Compare.
	AddProblem(problem error)
	// Problems returns the recorded problems in insertion order.
	Problems() []error
}

// Reporter is implemented by attributes that render their own report lines.
type Reporter interface {
	ReportMessages() []string
}

// ProblemReporter is implemented by problems that render their own full
// report line.
type ProblemReporter interface {
	ReportMessage() string
}

// Base carries the name and problems of an attribute. Custom attributes embed
// it and implement Compare.
type Base struct {
	name     string
	problems []error
}

// NewBase returns a Base labelled name.
func NewBase(name string) Base { return Base{name: name} }

func (b *Base) Name() string { return b.name }

func (b *Base) AddProblem(problem error) { b.problems = append(b.problems, problem) }

func (b *Base) Problems() []error { return b.problems }

type named struct {
	ExpectedAttribute
	name string
}

func (n named) Name() string { return n.name }

// ReportMessages keeps the wrapped attribute's own rendering, if it has one.
func (n named) ReportMessages() []string {
	if r, ok := n.ExpectedAttribute.(Reporter); ok {
		return r.ReportMessages()
	}
	return problemLines(n.name, n.Problems())
}

// Named relabels attr in the report.
func Named(name string, attr ExpectedAttribute) ExpectedAttribute {
	return named{ExpectedAttribute: attr, name: name}
}

// ReportMessages renders the report lines of attr, one per problem.
func ReportMessages(attr ExpectedAttribute) []string {
	if r, ok := attr.(Reporter); ok {
		return r.ReportMessages()
	}
	return problemLines(attr.Name(), attr.Problems())
}

func problemLines(name string, problems []error) []string {
	lines := make([]string, 0, len(problems))
	for _, p := range problems {
		if pr, ok := p.(ProblemReporter); ok {
			lines = append(lines, pr.ReportMessage())
			continue
		}
		lines = append(lines, fmt.Sprintf("    %s: %s", name, problemMessage(p)))
	}
	return lines
}

// problemMessage is the first line of the problem's text.
func problemMessage(p error) string {
	msg, _, _ := strings.Cut(p.Error(), "\n")
	return msg
}
