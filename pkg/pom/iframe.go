// pkg/pom/iframe.go
package pom

import (
	"context"
	"fmt"
	"slices"

	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// IsIframe reports whether the bound template is an iframe.
func (b *Bound) IsIframe() bool { return b.tmpl.iframe }

// IframeAncestor returns the nearest enclosing iframe component, or nil when
// the component lives in the top-level document. The lookup is done once per
// binding.
func (b *Bound) IframeAncestor() *Bound {
	if b.frame.resolved {
		return b.frame.ancestor
	}
	var found *Bound
	for p, ok := b.parentBound(); ok; p, ok = p.parentBound() {
		if p.tmpl.iframe {
			found = p
			break
		}
	}
	b.frame = frameCache{resolved: true, ancestor: found}
	return found
}

// frameChain lists the iframe ancestors of b, outermost first.
func (b *Bound) frameChain() []*Bound {
	var chain []*Bound
	for f := b.IframeAncestor(); f != nil; f = f.IframeAncestor() {
		chain = append(chain, f)
	}
	slices.Reverse(chain)
	return chain
}

// enterFrames resets focus to the top-level document and descends through
// chain. Frame focus is only reachable by sequential descent, so every frame
// element is resolved in the document of the frame before it.
func (b *Bound) enterFrames(ctx context.Context, chain []*Bound) error {
	s := b.env.session
	if err := s.SwitchToDefaultContent(ctx); err != nil {
		return fmt.Errorf("%s: switch to default content: %w", b.tmpl.name, err)
	}
	for _, f := range chain {
		el, err := f.Resolve(ctx)
		if err != nil {
			return err
		}
		b.logger().Debug("Switching into frame.",
			zap.String("component", b.tmpl.name),
			zap.String("frame", f.tmpl.name))
		if err := s.SwitchToFrame(ctx, el); err != nil {
			return fmt.Errorf("%s: switch to frame %s: %w", b.tmpl.name, f.tmpl.name, err)
		}
	}
	return nil
}

// frameContext runs fn with the session focused on the document that holds
// b's element. Without an iframe ancestor it just calls fn. Otherwise focus is
// reset to the top-level document afterwards, whether or not fn succeeds.
func (b *Bound) frameContext(ctx context.Context, fn func() error) (err error) {
	chain := b.frameChain()
	if len(chain) == 0 {
		return fn()
	}
	defer func() {
		// Restore even when ctx was cancelled by the action.
		if rerr := b.env.session.SwitchToDefaultContent(context.WithoutCancel(ctx)); rerr != nil {
			b.logger().Warn("Failed to restore default content.",
				zap.String("component", b.tmpl.name), zap.Error(rerr))
			err = multierr.Append(err, fmt.Errorf("%s: %w: %w", b.tmpl.name, ErrRestoreContext, rerr))
		}
	}()
	if err := b.enterFrames(ctx, chain); err != nil {
		return err
	}
	return fn()
}

// SwitchTo moves session focus into this iframe's document, passing through
// any enclosing iframes. Focus stays there until SwitchToDefaultContent.
func (b *Bound) SwitchTo(ctx context.Context) error {
	if !b.tmpl.iframe {
		return fmt.Errorf("%s: component is not an iframe", b.tmpl.name)
	}
	return b.enterFrames(ctx, append(b.frameChain(), b))
}

// SwitchToDefaultContent moves session focus back to the top-level document.
func (b *Bound) SwitchToDefaultContent(ctx context.Context) error {
	return b.env.session.SwitchToDefaultContent(ctx)
}
