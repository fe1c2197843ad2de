// internal/driver/pwdriver/session_test.go
package pwdriver

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/playwright-community/playwright-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/xkilldash9x/pagecomp/internal/config"
	"github.com/xkilldash9x/pagecomp/pkg/driver"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// The fakes implement only what the adapter calls; anything else panics on
// the nil embedded interface.

type fakeFrame struct {
	playwright.Frame

	name      string
	handles   map[string]*fakeHandle
	evaluated []string
	evalArgs  []any
	result    playwright.JSHandle
}

func (f *fakeFrame) QuerySelector(sel string, _ ...playwright.FrameQuerySelectorOptions) (playwright.ElementHandle, error) {
	if h, ok := f.handles[sel]; ok {
		return h, nil
	}
	return nil, nil
}

func (f *fakeFrame) QuerySelectorAll(sel string) ([]playwright.ElementHandle, error) {
	if h, ok := f.handles[sel]; ok {
		return []playwright.ElementHandle{h}, nil
	}
	return nil, nil
}

func (f *fakeFrame) EvaluateHandle(expr string, arg ...any) (playwright.JSHandle, error) {
	f.evaluated = append(f.evaluated, expr)
	f.evalArgs = arg
	return f.result, nil
}

type fakeHandle struct {
	playwright.ElementHandle

	text    string
	attrs   map[string]string
	content playwright.Frame
	eval    any
	typed   string
	filled  bool
}

func (h *fakeHandle) InnerText() (string, error) { return h.text, nil }

func (h *fakeHandle) GetAttribute(name string) (string, error) { return h.attrs[name], nil }

func (h *fakeHandle) ContentFrame() (playwright.Frame, error) { return h.content, nil }

func (h *fakeHandle) Evaluate(string, ...any) (any, error) { return h.eval, nil }

func (h *fakeHandle) IsVisible() (bool, error) { return true, nil }

func (h *fakeHandle) Type(text string, _ ...playwright.ElementHandleTypeOptions) error {
	h.typed += text
	return nil
}

func (h *fakeHandle) Fill(value string, _ ...playwright.ElementHandleFillOptions) error {
	h.filled = value == ""
	return nil
}

func (h *fakeHandle) QuerySelector(string) (playwright.ElementHandle, error) {
	return nil, errors.New("Target closed")
}

type fakeJS struct {
	playwright.JSHandle

	element  playwright.ElementHandle
	value    any
	disposed bool
}

func (j *fakeJS) AsElement() playwright.ElementHandle { return j.element }
func (j *fakeJS) JSONValue() (any, error) { return j.value, nil }
func (j *fakeJS) Dispose() error { j.disposed = true; return nil }

type fakePage struct {
	playwright.Page

	main   *fakeFrame
	url    string
	closes int
	gotoTO *float64
}

func (p *fakePage) MainFrame() playwright.Frame { return p.main }

func (p *fakePage) Goto(url string, opts ...playwright.PageGotoOptions) (playwright.Response, error) {
	p.url = url
	if len(opts) > 0 {
		p.gotoTO = opts[0].Timeout
	}
	return nil, nil
}

func (p *fakePage) URL() string { return p.url }

func (p *fakePage) Close(...playwright.PageCloseOptions) error { p.closes++; return nil }

func TestSelector(t *testing.T) {
	cases := []struct {
		loc  driver.Locator
		want string
	}{
		{driver.CSS("#login"), "css=#login"},
		{driver.ID("user"), `css=[id="user"]`},
		{driver.XPath("//button"), "xpath=//button"},
		{driver.Locator{By: driver.ByLinkText, Value: "Home"}, `xpath=.//a[normalize-space(.)="Home"]`},
	}
	for _, tc := range cases {
		got, err := selector(tc.loc)
		require.NoError(t, err)
		assert.Equal(t, tc.want, got)
	}

	_, err := selector(driver.Locator{By: "carrier pigeon", Value: "x"})
	assert.Error(t, err)
}

func TestFindAndFrames(t *testing.T) {
	ctx := context.Background()
	inner := &fakeFrame{name: "inner", handles: map[string]*fakeHandle{"css=button": {text: "Pay"}}}
	main := &fakeFrame{name: "main", handles: map[string]*fakeHandle{
		"css=iframe": {content: inner},
		"css=h1":     {text: "Checkout"},
	}}
	s := NewSession("s1", &fakePage{main: main}, nil, nil)

	_, err := s.FindElement(ctx, driver.CSS("button"))
	require.ErrorIs(t, err, driver.ErrNoSuchElement)

	frame, err := s.FindElement(ctx, driver.CSS("iframe"))
	require.NoError(t, err)
	require.NoError(t, s.SwitchToFrame(ctx, frame))

	button, err := s.FindElement(ctx, driver.CSS("button"))
	require.NoError(t, err)
	text, err := button.Text(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Pay", text)

	require.NoError(t, s.SwitchToDefaultContent(ctx))
	all, err := s.FindElements(ctx, driver.CSS("h1"))
	require.NoError(t, err)
	assert.Len(t, all, 1)

	// Backend failures are not reported as not found.
	_, err = button.FindElement(ctx, driver.CSS("span"))
	require.Error(t, err)
	assert.NotErrorIs(t, err, driver.ErrNoSuchElement)

	notAFrame, err := s.FindElement(ctx, driver.CSS("h1"))
	require.NoError(t, err)
	assert.Error(t, s.SwitchToFrame(ctx, notAFrame))
}

func TestExecuteScript(t *testing.T) {
	ctx := context.Background()
	el := &fakeHandle{}
	main := &fakeFrame{}
	s := NewSession("s1", &fakePage{main: main}, nil, nil)

	js := &fakeJS{value: 3.0}
	main.result = js
	got, err := s.ExecuteScript(ctx, "return arguments[1] + 1;", &Element{h: el}, 2)
	require.NoError(t, err)
	assert.Equal(t, 3.0, got)
	assert.True(t, js.disposed)
	require.Len(t, main.evaluated, 1)
	assert.Contains(t, main.evaluated[0], "return arguments[1] + 1;")
	require.Len(t, main.evalArgs, 1)
	assert.Equal(t, []any{el, 2}, main.evalArgs[0])

	main.result = &fakeJS{element: el}
	got, err = s.ExecuteScript(ctx, "return document.body;")
	require.NoError(t, err)
	require.IsType(t, &Element{}, got)
	assert.Same(t, el, got.(*Element).Handle())
}

func TestElementMethods(t *testing.T) {
	ctx := context.Background()
	h := &fakeHandle{attrs: map[string]string{"type": "email"}, eval: "input"}
	el := &Element{h: h}

	tag, err := el.TagName(ctx)
	require.NoError(t, err)
	assert.Equal(t, "input", tag)

	typ, err := el.Attribute(ctx, "type")
	require.NoError(t, err)
	assert.Equal(t, "email", typ)

	visible, err := el.IsDisplayed(ctx)
	require.NoError(t, err)
	assert.True(t, visible)

	require.NoError(t, el.SendKeys(ctx, "ab"))
	require.NoError(t, el.SendKeys(ctx, "c"))
	assert.Equal(t, "abc", h.typed)
	require.NoError(t, el.Clear(ctx))
	assert.True(t, h.filled)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	assert.ErrorIs(t, el.SendKeys(cancelled, "d"), context.Canceled)
	assert.Equal(t, "abc", h.typed)
}

func TestNavigateAndClose(t *testing.T) {
	page := &fakePage{main: &fakeFrame{}}
	closed := 0
	s := NewSession("s1", page, nil, func() { closed++ })

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	require.NoError(t, s.Navigate(ctx, "https://example.test/"))
	url, err := s.CurrentURL(ctx)
	require.NoError(t, err)
	assert.Equal(t, "https://example.test/", url)
	require.NotNil(t, page.gotoTO)
	assert.InDelta(t, 60000, *page.gotoTO, 1000)

	require.NoError(t, s.Close(ctx))
	require.NoError(t, s.Close(ctx))
	assert.Equal(t, 1, page.closes)
	assert.Equal(t, 1, closed)
}

func TestManagerOptions(t *testing.T) {
	cfg := config.NewDefaultConfig().Browser()
	cfg.Args = []string{"--lang=de"}
	cfg.ExecPath = "/opt/chromium/chrome"
	cfg.IgnoreTLSErrors = true
	m := &Manager{cfg: cfg}

	launch := m.LaunchOptions()
	require.NotNil(t, launch.Headless)
	assert.True(t, *launch.Headless)
	assert.Equal(t, []string{"--lang=de"}, launch.Args)
	assert.Equal(t, "/opt/chromium/chrome", *launch.ExecutablePath)
	assert.Equal(t, float64(30000), *launch.Timeout)

	bctx := m.ContextOptions()
	assert.True(t, *bctx.IgnoreHttpsErrors)
	assert.Equal(t, &playwright.Size{Width: 1280, Height: 800}, bctx.Viewport)
}
