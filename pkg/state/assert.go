// pkg/state/assert.go
package state

import (
	"context"
	"fmt"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type tHelper interface{ Helper() }

// Assert compares subject against s and fails t with the state report when
// they differ.
func Assert(t assert.TestingT, ctx context.Context, subject any, s *State, msgAndArgs ...any) bool {
	if h, ok := t.(tHelper); ok {
		h.Helper()
	}
	ok, err := s.Compare(ctx, subject)
	if err != nil {
		return assert.Fail(t, fmt.Sprintf("Error: %v", err), msgAndArgs...)
	}
	if !ok {
		return assert.Fail(t, s.String(), msgAndArgs...)
	}
	return true
}

// Require is Assert followed by t.FailNow on failure.
func Require(t require.TestingT, ctx context.Context, subject any, s *State, msgAndArgs ...any) {
	if h, ok := t.(tHelper); ok {
		h.Helper()
	}
	if !Assert(t, ctx, subject, s, msgAndArgs...) {
		t.FailNow()
	}
}
