// File: internal/mocks/mocks.go
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/xkilldash9x/pagecomp/pkg/driver"
)

// -- Session Mock --

// MockSession mocks driver.Session and driver.Navigator.
type MockSession struct {
	mock.Mock
}

func NewMockSession() *MockSession { return &MockSession{} }

func (m *MockSession) FindElement(ctx context.Context, loc driver.Locator) (driver.Element, error) {
	args := m.Called(ctx, loc)
	return element(args, 0), args.Error(1)
}

func (m *MockSession) FindElements(ctx context.Context, loc driver.Locator) ([]driver.Element, error) {
	args := m.Called(ctx, loc)
	return elements(args, 0), args.Error(1)
}

func (m *MockSession) SwitchToDefaultContent(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockSession) SwitchToFrame(ctx context.Context, frame driver.Element) error {
	return m.Called(ctx, frame).Error(0)
}

// ExecuteScript records the script arguments as a single []any.
func (m *MockSession) ExecuteScript(ctx context.Context, script string, scriptArgs ...any) (any, error) {
	args := m.Called(ctx, script, scriptArgs)
	return args.Get(0), args.Error(1)
}

func (m *MockSession) Navigate(ctx context.Context, url string) error {
	return m.Called(ctx, url).Error(0)
}

func (m *MockSession) CurrentURL(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

func (m *MockSession) Close(ctx context.Context) error { return m.Called(ctx).Error(0) }

// -- Element Mock --

// MockElement mocks driver.Element. Name is only used to tell elements apart
// in failure output.
type MockElement struct {
	mock.Mock
	Name string
}

func NewMockElement(name string) *MockElement { return &MockElement{Name: name} }

func (m *MockElement) String() string { return "MockElement(" + m.Name + ")" }

func (m *MockElement) FindElement(ctx context.Context, loc driver.Locator) (driver.Element, error) {
	args := m.Called(ctx, loc)
	return element(args, 0), args.Error(1)
}

func (m *MockElement) FindElements(ctx context.Context, loc driver.Locator) ([]driver.Element, error) {
	args := m.Called(ctx, loc)
	return elements(args, 0), args.Error(1)
}

func (m *MockElement) Text(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

func (m *MockElement) TagName(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

func (m *MockElement) Attribute(ctx context.Context, name string) (string, error) {
	args := m.Called(ctx, name)
	return args.String(0), args.Error(1)
}

func (m *MockElement) Property(ctx context.Context, name string) (string, error) {
	args := m.Called(ctx, name)
	return args.String(0), args.Error(1)
}

func (m *MockElement) CSSValue(ctx context.Context, property string) (string, error) {
	args := m.Called(ctx, property)
	return args.String(0), args.Error(1)
}

func (m *MockElement) IsDisplayed(ctx context.Context) (bool, error) {
	args := m.Called(ctx)
	return args.Bool(0), args.Error(1)
}

func (m *MockElement) IsEnabled(ctx context.Context) (bool, error) {
	args := m.Called(ctx)
	return args.Bool(0), args.Error(1)
}

func (m *MockElement) IsSelected(ctx context.Context) (bool, error) {
	args := m.Called(ctx)
	return args.Bool(0), args.Error(1)
}

func (m *MockElement) Click(ctx context.Context) error { return m.Called(ctx).Error(0) }

func (m *MockElement) SendKeys(ctx context.Context, keys string) error {
	return m.Called(ctx, keys).Error(0)
}

func (m *MockElement) Clear(ctx context.Context) error { return m.Called(ctx).Error(0) }

func element(args mock.Arguments, i int) driver.Element {
	if v := args.Get(i); v != nil {
		return v.(driver.Element)
	}
	return nil
}

func elements(args mock.Arguments, i int) []driver.Element {
	if v := args.Get(i); v != nil {
		return v.([]driver.Element)
	}
	return nil
}

var (
	_ driver.Session   = (*MockSession)(nil)
	_ driver.Navigator = (*MockSession)(nil)
	_ driver.Closer    = (*MockSession)(nil)
	_ driver.Element   = (*MockElement)(nil)
)
