// internal/driver/pwdriver/session.go
// Package pwdriver adapts a Playwright page to the driver.Session interface.
// Lookups run on the focused frame; locators become Playwright "css=" or
// "xpath=" selectors.
package pwdriver

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/playwright-community/playwright-go"
	"go.uber.org/zap"

	"github.com/xkilldash9x/pagecomp/pkg/driver"
)

// ErrForeignElement is returned when an element from another backend is passed in.
var ErrForeignElement = errors.New("element is not a playwright element")

// scriptWrapper runs a function body with WebDriver-style arguments.
const scriptWrapper = `(args) => (function() {
%s
}).apply(null, args)`

// selector converts loc into a Playwright selector.
func selector(loc driver.Locator) (string, error) {
	q, err := loc.Query()
	if err != nil {
		return "", err
	}
	if q.XPath {
		return "xpath=" + q.Expr, nil
	}
	return "css=" + q.Expr, nil
}

// Session is a driver.Session over one Playwright page.
type Session struct {
	id     string
	page   playwright.Page
	logger *zap.Logger

	mu    sync.Mutex
	frame playwright.Frame

	closeOnce sync.Once
	closeErr  error
	onClose   func()
}

var (
	_ driver.Session   = (*Session)(nil)
	_ driver.Navigator = (*Session)(nil)
	_ driver.Closer    = (*Session)(nil)
)

// NewSession wraps page. onClose, if set, runs after the page closes.
func NewSession(id string, page playwright.Page, logger *zap.Logger, onClose func()) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Session{
		id:      id,
		page:    page,
		logger:  logger.With(zap.String("session_id", id)),
		frame:   page.MainFrame(),
		onClose: onClose,
	}
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

func (s *Session) current() playwright.Frame {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frame
}

func (s *Session) FindElement(ctx context.Context, loc driver.Locator) (driver.Element, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	sel, err := selector(loc)
	if err != nil {
		return nil, err
	}
	h, err := s.current().QuerySelector(sel)
	return wrapFound(loc, h, err)
}

func (s *Session) FindElements(ctx context.Context, loc driver.Locator) ([]driver.Element, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	sel, err := selector(loc)
	if err != nil {
		return nil, err
	}
	hs, err := s.current().QuerySelectorAll(sel)
	if err != nil {
		return nil, fmt.Errorf("find all %s: %w", loc, err)
	}
	return wrapAll(hs), nil
}

func (s *Session) SwitchToDefaultContent(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	s.frame = s.page.MainFrame()
	s.mu.Unlock()
	return nil
}

func (s *Session) SwitchToFrame(ctx context.Context, frame driver.Element) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	el, ok := frame.(*Element)
	if !ok {
		return ErrForeignElement
	}
	f, err := el.h.ContentFrame()
	if err != nil {
		return fmt.Errorf("switch to frame: %w", err)
	}
	if f == nil {
		return errors.New("switch to frame: element is not a frame")
	}
	s.mu.Lock()
	s.frame = f
	s.mu.Unlock()
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
			wireArgs[i] = own.h
			continue
		}
		wireArgs[i] = a
	}

	h, err := s.current().EvaluateHandle(fmt.Sprintf(scriptWrapper, script), wireArgs)
	if err != nil {
		return nil, fmt.Errorf("execute script: %w", err)
	}
	if el := h.AsElement(); el != nil {
		return &Element{h: el}, nil
	}
	defer func() { _ = h.Dispose() }()
	v, err := h.JSONValue()
	if err != nil {
		return nil, fmt.Errorf("execute script: %w", err)
	}
	return v, nil
}

func (s *Session) Navigate(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	opts := playwright.PageGotoOptions{}
	if deadline, ok := ctx.Deadline(); ok {
		opts.Timeout = playwright.Float(float64(time.Until(deadline).Milliseconds()))
	}
	if _, err := s.page.Goto(url, opts); err != nil {
		return fmt.Errorf("navigate to %s: %w", url, err)
	}
	return s.SwitchToDefaultContent(ctx)
}

func (s *Session) CurrentURL(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return s.page.URL(), nil
}

// Close closes the page. Calling it more than once is safe.
func (s *Session) Close(context.Context) error {
	s.closeOnce.Do(func() {
		s.closeErr = s.page.Close()
		if s.onClose != nil {
			s.onClose()
		}
		s.logger.Debug("Session closed.")
	})
	return s.closeErr
}

func wrapFound(loc driver.Locator, h playwright.ElementHandle, err error) (driver.Element, error) {
	if err != nil {
		return nil, fmt.Errorf("find %s: %w", loc, err)
	}
	if h == nil {
		return nil, fmt.Errorf("%s: %w", loc, driver.ErrNoSuchElement)
	}
	return &Element{h: h}, nil
}

func wrapAll(hs []playwright.ElementHandle) []driver.Element {
	out := make([]driver.Element, len(hs))
	for i, h := range hs {
		out[i] = &Element{h: h}
	}
	return out
}
