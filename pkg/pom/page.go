// pkg/pom/page.go
package pom

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/xkilldash9x/pagecomp/pkg/driver"
)

// ErrNavigationUnsupported is returned by Page.Navigate when the session
// cannot load URLs.
var ErrNavigationUnsupported = errors.New("session does not support navigation")

// environment is shared by a page and everything bound beneath it.
type environment struct {
	session    driver.Session
	logger     *zap.Logger
	timeout    time.Duration
	poll       time.Duration
	conditions *Registry
}

// Page is the root of a component tree. Page types embed *Page and bind their
// top-level components to it.
type Page struct {
	env *environment
}

// PageOption configures a Page.
type PageOption func(*environment)

// WithLogger sets the logger used by the page and its components.
func WithLogger(l *zap.Logger) PageOption {
	return func(e *environment) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithWaitDefaults overrides the wait timeout and poll interval used when a
// wait does not set its own. Non-positive values are ignored.
func WithWaitDefaults(timeout, poll time.Duration) PageOption {
	return func(e *environment) {
		if timeout > 0 {
			e.timeout = timeout
		}
		if poll > 0 {
			e.poll = poll
		}
	}
}

// WithConditions replaces the global condition registry for this page.
func WithConditions(r *Registry) PageOption {
	return func(e *environment) {
		if r != nil {
			e.conditions = r
		}
	}
}

// NewPage creates a page root over session.
func NewPage(session driver.Session, opts ...PageOption) *Page {
	env := &environment{
		session:    session,
		logger:     zap.NewNop(),
		timeout:    DefaultTimeout,
		poll:       DefaultPollInterval,
		conditions: DefaultConditions,
	}
	for _, opt := range opts {
		opt(env)
	}
	return &Page{env: env}
}

func (p *Page) environment() *environment { return p.env }

// Session returns the session shared by the page's components.
func (p *Page) Session() driver.Session { return p.env.session }

// Logger returns the page logger.
func (p *Page) Logger() *zap.Logger { return p.env.logger }

// Navigate loads url in the page's session.
func (p *Page) Navigate(ctx context.Context, url string) error {
	nav, ok := p.env.session.(driver.Navigator)
	if !ok {
		return ErrNavigationUnsupported
	}
	p.env.logger.Debug("Navigating.", zap.String("url", url))
	return nav.Navigate(ctx, url)
}

// CurrentURL returns the URL of the top-level document.
func (p *Page) CurrentURL(ctx context.Context) (string, error) {
	nav, ok := p.env.session.(driver.Navigator)
	if !ok {
		return "", ErrNavigationUnsupported
	}
	return nav.CurrentURL(ctx)
}
