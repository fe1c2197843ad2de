// pkg/driver/driver.go
// Package driver defines the narrow capability surface the page-component model
// consumes from a browser automation backend. Concrete backends (CDP, WebDriver,
// Playwright) live under internal/driver and adapt their native handles to these
// interfaces.
//
// A live Element is only valid until the next navigation or re-render of the
// document it belongs to. Callers are expected to re-resolve elements instead of
// holding on to them.
package driver

import (
	"context"
	"errors"
)

// ErrNoSuchElement is returned (possibly wrapped) by FindElement when no element
// matches the locator. Backends must translate their native "not found"
// condition into this sentinel so callers can rely on errors.Is.
var ErrNoSuchElement = errors.New("no such element")

// SearchContext is anything elements can be located from: the session (the
// currently focused document) or an element (its subtree).
type SearchContext interface {
	// FindElement returns the first element matching the locator, or an error
	// wrapping ErrNoSuchElement.
	FindElement(ctx context.Context, loc Locator) (Element, error)
	// FindElements returns every matching element. An empty result is not an error.
	FindElements(ctx context.Context, loc Locator) ([]Element, error)
}

// Element is a handle to a rendered element.
type Element interface {
	SearchContext

	Text(ctx context.Context) (string, error)
	TagName(ctx context.Context) (string, error)
	// Attribute returns the value of the named attribute, or "" when it is absent.
	Attribute(ctx context.Context, name string) (string, error)
	Property(ctx context.Context, name string) (string, error)
	CSSValue(ctx context.Context, property string) (string, error)

	IsDisplayed(ctx context.Context) (bool, error)
	IsEnabled(ctx context.Context) (bool, error)
	IsSelected(ctx context.Context) (bool, error)

	Click(ctx context.Context) error
	SendKeys(ctx context.Context, keys string) error
	Clear(ctx context.Context) error
}

// Session is a single browser session (a tab or a WebDriver session). All
// element lookups on the session run against the currently focused document,
// which is changed by SwitchToFrame and reset by SwitchToDefaultContent.
type Session interface {
	SearchContext

	// SwitchToDefaultContent moves focus back to the top-level document.
	SwitchToDefaultContent(ctx context.Context) error
	// SwitchToFrame moves focus into the document of the given frame element.
	// The frame must be a child of the currently focused document.
	SwitchToFrame(ctx context.Context, frame Element) error
	// ExecuteScript runs script as the body of a function. Arguments are
	// available to the script as arguments[i]; Element arguments are passed as
	// live DOM references.
	ExecuteScript(ctx context.Context, script string, args ...any) (any, error)
}

// Navigator is implemented by sessions that can load a URL.
type Navigator interface {
	Navigate(ctx context.Context, url string) error
	CurrentURL(ctx context.Context) (string, error)
}

// Closer is implemented by sessions that hold backend resources.
type Closer interface {
	Close(ctx context.Context) error
}
