// pkg/pom/helpers_test.go
package pom

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"

	"github.com/xkilldash9x/pagecomp/pkg/driver"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// -- Test Fixture --

const (
	testTimeout = 150 * time.Millisecond
	testPoll    = 5 * time.Millisecond
)

func newTestPage(t *testing.T, s driver.Session, opts ...PageOption) *Page {
	t.Helper()
	base := []PageOption{
		WithLogger(zaptest.NewLogger(t)),
		WithWaitDefaults(testTimeout, testPoll),
	}
	return NewPage(s, append(base, opts...)...)
}

func notFound(loc driver.Locator) error {
	return fmt.Errorf("mock: %s: %w", loc, driver.ErrNoSuchElement)
}

// onFind wires session or element lookups of loc to return el.
func onFind(m *mock.Mock, loc driver.Locator, el driver.Element) *mock.Call {
	return m.On("FindElement", mock.Anything, loc).Return(el, nil)
}

func onMissing(m *mock.Mock, loc driver.Locator) *mock.Call {
	return m.On("FindElement", mock.Anything, loc).Return(nil, notFound(loc))
}

// methodNames lists the recorded calls of m in order.
func methodNames(m *mock.Mock) []string {
	names := make([]string, 0, len(m.Calls))
	for _, c := range m.Calls {
		names = append(names, c.Method)
	}
	return names
}
