// internal/driver/cdp/session.go
package cdp

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	json "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/xkilldash9x/pagecomp/pkg/driver"
)

// ErrForeignElement is returned when an element from another session is passed in.
var ErrForeignElement = errors.New("element does not belong to this session")

const (
	findCSS = `function(expr) { return this.querySelector(expr); }`

	findXPath = `function(expr) {
	var doc = this.ownerDocument || this;
	return doc.evaluate(expr, this, null, XPathResult.FIRST_ORDERED_NODE_TYPE, null).singleNodeValue;
}`

	// A negative index returns the match count.
	findAllCSS = `function(expr, i) {
	var list = this.querySelectorAll(expr);
	return i < 0 ? list.length : list[i];
}`

	findAllXPath = `function(expr, i) {
	var doc = this.ownerDocument || this;
	var r = doc.evaluate(expr, this, null, XPathResult.ORDERED_NODE_SNAPSHOT_TYPE, null);
	return i < 0 ? r.snapshotLength : r.snapshotItem(i);
}`

	frameDocument = `function() {
	if (!this.contentDocument) { throw new Error("frame document is not accessible"); }
	return this.contentDocument;
}`

	identity = `function() { return this; }`
)

// Session is a driver.Session over one CDP tab.
type Session struct {
	id     string
	exec   Executor
	logger *zap.Logger

	mu sync.Mutex
	// frames holds the document objects of entered frames, innermost last.
	frames []runtime.RemoteObjectID

	closeOnce sync.Once
	closer    func() error
}

var (
	_ driver.Session   = (*Session)(nil)
	_ driver.Navigator = (*Session)(nil)
	_ driver.Closer    = (*Session)(nil)
)

// NewSession wraps exec. closer, if set, runs once on Close.
func NewSession(id string, exec Executor, logger *zap.Logger, closer func() error) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Session{
		id:     id,
		exec:   exec,
		logger: logger.With(zap.String("session_id", id)),
		closer: closer,
	}
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// document returns the currently focused document.
func (s *Session) document(ctx context.Context) (runtime.RemoteObjectID, error) {
	s.mu.Lock()
	if n := len(s.frames); n > 0 {
		doc := s.frames[n-1]
		s.mu.Unlock()
		return doc, nil
	}
	s.mu.Unlock()

	obj, err := s.exec.Evaluate(ctx, "document")
	if err != nil {
		return "", fmt.Errorf("resolve document: %w", err)
	}
	if obj == nil || obj.ObjectID == "" {
		return "", errors.New("resolve document: no object returned")
	}
	return obj.ObjectID, nil
}

func (s *Session) FindElement(ctx context.Context, loc driver.Locator) (driver.Element, error) {
	doc, err := s.document(ctx)
	if err != nil {
		return nil, err
	}
	return s.find(ctx, doc, loc)
}

func (s *Session) FindElements(ctx context.Context, loc driver.Locator) ([]driver.Element, error) {
	doc, err := s.document(ctx)
	if err != nil {
		return nil, err
	}
	return s.findAll(ctx, doc, loc)
}

func (s *Session) find(ctx context.Context, root runtime.RemoteObjectID, loc driver.Locator) (driver.Element, error) {
	q, err := loc.Query()
	if err != nil {
		return nil, err
	}
	fn := findCSS
	if q.XPath {
		fn = findXPath
	}
	obj, err := s.exec.CallFunctionOn(ctx, root, fn, false, mustArg(q.Expr))
	if err != nil {
		return nil, fmt.Errorf("find %s: %w", loc, err)
	}
	if !isNode(obj) {
		return nil, fmt.Errorf("%s: %w", loc, driver.ErrNoSuchElement)
	}
	return &Element{s: s, id: obj.ObjectID}, nil
}

func (s *Session) findAll(ctx context.Context, root runtime.RemoteObjectID, loc driver.Locator) ([]driver.Element, error) {
	q, err := loc.Query()
	if err != nil {
		return nil, err
	}
	fn := findAllCSS
	if q.XPath {
		fn = findAllXPath
	}
	expr := mustArg(q.Expr)

	countObj, err := s.exec.CallFunctionOn(ctx, root, fn, true, expr, mustArg(-1))
	if err != nil {
		return nil, fmt.Errorf("find all %s: %w", loc, err)
	}
	var count int
	if err := decode(countObj, &count); err != nil {
		return nil, fmt.Errorf("find all %s: %w", loc, err)
	}

	elements := make([]driver.Element, 0, count)
	for i := range count {
		obj, err := s.exec.CallFunctionOn(ctx, root, fn, false, expr, mustArg(i))
		if err != nil {
			return nil, fmt.Errorf("find all %s [%d]: %w", loc, i, err)
		}
		// The document may have changed between calls.
		if !isNode(obj) {
			break
		}
		elements = append(elements, &Element{s: s, id: obj.ObjectID})
	}
	return elements, nil
}

func (s *Session) SwitchToDefaultContent(context.Context) error {
	s.mu.Lock()
	s.frames = s.frames[:0]
	s.mu.Unlock()
	return nil
}

func (s *Session) SwitchToFrame(ctx context.Context, frame driver.Element) error {
	el, err := s.own(frame)
	if err != nil {
		return err
	}
	obj, err := s.exec.CallFunctionOn(ctx, el.id, frameDocument, false)
	if err != nil {
		return fmt.Errorf("switch to frame: %w", err)
	}
	if obj == nil || obj.ObjectID == "" {
		return errors.New("switch to frame: no document returned")
	}
	s.mu.Lock()
	s.frames = append(s.frames, obj.ObjectID)
	depth := len(s.frames)
	s.mu.Unlock()
	s.logger.Debug("Entered frame.", zap.Int("depth", depth))
	return nil
}

// ExecuteScript runs script as a function body with this bound to the focused
// document. Returned nodes come back as elements; other values are decoded
// from JSON.
func (s *Session) ExecuteScript(ctx context.Context, script string, args ...any) (any, error) {
	doc, err := s.document(ctx)
	if err != nil {
		return nil, err
	}
	callArgs, err := s.callArguments(args)
	if err != nil {
		return nil, err
	}
	obj, err := s.exec.CallFunctionOn(ctx, doc, "function() {\n"+script+"\n}", false, callArgs...)
	if err != nil {
		return nil, err
	}
	return s.result(ctx, obj)
}

func (s *Session) callArguments(args []any) ([]*runtime.CallArgument, error) {
	out := make([]*runtime.CallArgument, len(args))
	for i, a := range args {
		if el, ok := a.(driver.Element); ok {
			own, err := s.own(el)
			if err != nil {
				return nil, fmt.Errorf("argument %d: %w", i, err)
			}
			out[i] = &runtime.CallArgument{ObjectID: own.id}
			continue
		}
		raw, err := json.Marshal(a)
		if err != nil {
			return nil, fmt.Errorf("argument %d: %w", i, err)
		}
		out[i] = &runtime.CallArgument{Value: raw}
	}
	return out, nil
}

func (s *Session) result(ctx context.Context, obj *runtime.RemoteObject) (any, error) {
	switch {
	case obj == nil || obj.Type == runtime.TypeUndefined || obj.Subtype == runtime.SubtypeNull:
		return nil, nil
	case isNode(obj):
		return &Element{s: s, id: obj.ObjectID}, nil
	case len(obj.Value) > 0:
		var v any
		err := decode(obj, &v)
		return v, err
	case obj.ObjectID != "":
		byValue, err := s.exec.CallFunctionOn(ctx, obj.ObjectID, identity, true)
		if err != nil {
			return nil, err
		}
		var v any
		err = decode(byValue, &v)
		return v, err
	}
	return nil, nil
}

func (s *Session) own(el driver.Element) (*Element, error) {
	e, ok := el.(*Element)
	if !ok || e.s != s {
		return nil, ErrForeignElement
	}
	return e, nil
}

func (s *Session) Navigate(ctx context.Context, url string) error {
	if err := s.exec.Run(ctx, chromedp.Navigate(url)); err != nil {
		return fmt.Errorf("navigate to %s: %w", url, err)
	}
	return s.SwitchToDefaultContent(ctx)
}

func (s *Session) CurrentURL(ctx context.Context) (string, error) {
	var url string
	if err := s.exec.Run(ctx, chromedp.Location(&url)); err != nil {
		return "", err
	}
	return url, nil
}

// Close releases the tab. Calling it more than once is safe.
func (s *Session) Close(context.Context) error {
	var err error
	s.closeOnce.Do(func() {
		if s.closer != nil {
			err = s.closer()
		}
		s.logger.Debug("Session closed.")
	})
	return err
}

func isNode(obj *runtime.RemoteObject) bool {
	return obj != nil && obj.ObjectID != "" && obj.Subtype == runtime.SubtypeNode
}

func mustArg(v any) *runtime.CallArgument {
	raw, err := json.Marshal(v)
	if err != nil {
		panic(fmt.Sprintf("cdp: marshal argument: %v", err))
	}
	return &runtime.CallArgument{Value: raw}
}

func decode(obj *runtime.RemoteObject, out any) error {
	if obj == nil || len(obj.Value) == 0 {
		return nil
	}
	if err := json.Unmarshal(obj.Value, out); err != nil {
		return fmt.Errorf("decode result: %w", err)
	}
	return nil
}
