// internal/driver/webdriver/session.go
// Package webdriver adapts a W3C WebDriver session, through tebeka/selenium, to
// the driver.Session interface. The WebDriver client has no context support,
// so contexts are checked before each call.
package webdriver

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	json "github.com/json-iterator/go"
	"github.com/tebeka/selenium"
	"go.uber.org/zap"

	"github.com/xkilldash9x/pagecomp/pkg/driver"
)

// W3C and legacy keys of a serialized element reference.
const (
	elementKey       = "element-6066-11e4-a52e-4f735466cecf"
	legacyElementKey = "ELEMENT"
)

// ErrForeignElement is returned when an element from another backend is passed in.
var ErrForeignElement = errors.New("element is not a webdriver element")

// Session is a driver.Session over a WebDriver session.
type Session struct {
	wd     selenium.WebDriver
	logger *zap.Logger

	closeOnce sync.Once
	closeErr  error
	onClose   func()
}

var (
	_ driver.Session   = (*Session)(nil)
	_ driver.Navigator = (*Session)(nil)
	_ driver.Closer    = (*Session)(nil)
)

// NewSession wraps wd. onClose, if set, runs after the remote session quits.
func NewSession(wd selenium.WebDriver, logger *zap.Logger, onClose func()) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Session{wd: wd, logger: logger, onClose: onClose}
}

// translate maps the remote end's "no such element" to driver.ErrNoSuchElement.
func translate(op string, loc driver.Locator, err error) error {
	if isNoSuchElement(err) {
		return fmt.Errorf("%s: %w", loc, driver.ErrNoSuchElement)
	}
	return fmt.Errorf("%s %s: %w", op, loc, err)
}

func isNoSuchElement(err error) bool {
	var se *selenium.Error
	if errors.As(err, &se) {
		return se.Err == "no such element"
	}
	return strings.Contains(err.Error(), "no such element")
}

// isNoSuchAttribute reports the client's error for a null attribute value.
func isNoSuchAttribute(err error) bool {
	return strings.Contains(err.Error(), "nil return value")
}

// wireLocator maps loc to the strategy and value sent on the wire. In W3C mode
// the client rewrites id and name into narrower CSS of its own, and class name
// is not a W3C strategy, so those go out already translated to the attribute
// selectors the other backends use.
func wireLocator(loc driver.Locator) (string, string, error) {
	switch loc.By {
	case driver.ByID, driver.ByName, driver.ByClassName:
		q, err := loc.Query()
		if err != nil {
			return "", "", err
		}
		if q.XPath {
			return string(driver.ByXPath), q.Expr, nil
		}
		return string(driver.ByCSSSelector), q.Expr, nil
	}
	return string(loc.By), loc.Value, nil
}

func (s *Session) FindElement(ctx context.Context, loc driver.Locator) (driver.Element, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	by, value, err := wireLocator(loc)
	if err != nil {
		return nil, err
	}
	we, err := s.wd.FindElement(by, value)
	if err != nil {
		return nil, translate("find", loc, err)
	}
	return &Element{we: we, wd: s.wd}, nil
}

func (s *Session) FindElements(ctx context.Context, loc driver.Locator) ([]driver.Element, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	by, value, err := wireLocator(loc)
	if err != nil {
		return nil, err
	}
	wes, err := s.wd.FindElements(by, value)
	if err != nil {
		if isNoSuchElement(err) {
			return nil, nil
		}
		return nil, translate("find all", loc, err)
	}
	return wrapAll(s.wd, wes), nil
}

func (s *Session) SwitchToDefaultContent(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.wd.SwitchFrame(nil)
}

func (s *Session) SwitchToFrame(ctx context.Context, frame driver.Element) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	el, ok := frame.(*Element)
	if !ok {
		return ErrForeignElement
	}
	if err := s.wd.SwitchFrame(el.we); err != nil {
		return fmt.Errorf("switch to frame: %w", err)
	}
	return nil
}

func (s *Session) ExecuteScript(ctx context.Context, script string, args ...any) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	wireArgs := make([]any, len(args))
	for i, a := range args {
		if el, ok := a.(driver.Element); ok {
			own, ok := el.(*Element)
			if !ok {
				return nil, fmt.Errorf("argument %d: %w", i, ErrForeignElement)
			}
			wireArgs[i] = own.we
			continue
		}
		wireArgs[i] = a
	}
	res, err := s.wd.ExecuteScript(script, wireArgs)
	if err != nil {
		return nil, fmt.Errorf("execute script: %w", err)
	}
	return s.decodeResult(res)
}

// decodeResult turns serialized element references back into elements.
func (s *Session) decodeResult(v any) (any, error) {
	switch t := v.(type) {
	case map[string]any:
		if !isElementRef(t) {
			return t, nil
		}
		// DecodeElement reads the reference from a reply envelope.
		raw, err := json.Marshal(map[string]any{"value": t})
		if err != nil {
			return nil, err
		}
		we, err := s.wd.DecodeElement(raw)
		if err != nil {
			return nil, fmt.Errorf("decode element: %w", err)
		}
		return &Element{we: we, wd: s.wd}, nil
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			decoded, err := s.decodeResult(item)
			if err != nil {
				return nil, err
			}
			out[i] = decoded
		}
		return out, nil
	}
	return v, nil
}

func isElementRef(m map[string]any) bool {
	if len(m) != 1 {
		return false
	}
	_, w3c := m[elementKey]
	_, legacy := m[legacyElementKey]
	return w3c || legacy
}

func (s *Session) Navigate(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.wd.Get(url); err != nil {
		return fmt.Errorf("navigate to %s: %w", url, err)
	}
	return nil
}

func (s *Session) CurrentURL(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return s.wd.CurrentURL()
}

// Close quits the remote session. Calling it more than once is safe.
func (s *Session) Close(context.Context) error {
	s.closeOnce.Do(func() {
		s.closeErr = s.wd.Quit()
		if s.onClose != nil {
			s.onClose()
		}
	})
	return s.closeErr
}

func wrapAll(wd selenium.WebDriver, wes []selenium.WebElement) []driver.Element {
	out := make([]driver.Element, len(wes))
	for i, we := range wes {
		out[i] = &Element{we: we, wd: wd}
	}
	return out
}
