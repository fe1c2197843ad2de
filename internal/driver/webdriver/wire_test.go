// internal/driver/webdriver/wire_test.go
package webdriver

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	json "github.com/json-iterator/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tebeka/selenium"
	"go.uber.org/zap/zaptest"

	"github.com/xkilldash9x/pagecomp/pkg/driver"
)

type wireRequest struct {
	Method string
	Path   string
	Body   map[string]any
}

// w3cRemote is a minimal W3C remote end. It records every command the client
// sends and answers finds with fixed element ids.
type w3cRemote struct {
	mu     sync.Mutex
	reqs   []wireRequest
	result any
}

func (r *w3cRemote) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	var body map[string]any
	_ = json.NewDecoder(req.Body).Decode(&body)

	r.mu.Lock()
	r.reqs = append(r.reqs, wireRequest{Method: req.Method, Path: req.URL.Path, Body: body})
	result := r.result
	r.mu.Unlock()

	var value any
	switch p := req.URL.Path; {
	case req.Method == http.MethodPost && p == "/session":
		value = map[string]any{"sessionId": "s1", "capabilities": map[string]any{"browserName": "chrome"}}
	case strings.HasSuffix(p, "/elements"):
		value = []any{map[string]any{elementKey: "e2"}}
	case strings.HasSuffix(p, "/element"):
		value = map[string]any{elementKey: "e1"}
	case strings.HasSuffix(p, "/execute/sync"):
		value = result
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"value": value})
}

func (r *w3cRemote) last() wireRequest {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.reqs[len(r.reqs)-1]
}

func (r *w3cRemote) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.reqs)
}

func newRemoteSession(t *testing.T) (*w3cRemote, *Session) {
	t.Helper()
	remote := &w3cRemote{}
	srv := httptest.NewServer(remote)
	t.Cleanup(func() {
		http.DefaultClient.CloseIdleConnections()
		srv.Close()
	})
	wd, err := selenium.NewRemote(selenium.Capabilities{"browserName": "chrome"}, srv.URL)
	require.NoError(t, err)
	s := NewSession(wd, zaptest.NewLogger(t), nil)
	t.Cleanup(func() { _ = s.Close(context.Background()) })
	return remote, s
}

func TestLocatorsOnTheWire(t *testing.T) {
	remote, s := newRemoteSession(t)
	ctx := context.Background()

	tests := []struct {
		loc   driver.Locator
		using string
		value string
	}{
		{driver.Name("country"), "css selector", `[name="country"]`},
		{driver.ID("1st.item"), "css selector", `[id="1st.item"]`},
		{driver.Locator{By: driver.ByClassName, Value: "btn"}, "css selector", `[class~="btn"]`},
		{driver.CSS("select#country"), "css selector", "select#country"},
		{driver.XPath("//select"), "xpath", "//select"},
		{driver.Locator{By: driver.ByTagName, Value: "textarea"}, "tag name", "textarea"},
		{driver.Locator{By: driver.ByLinkText, Value: "Sign in"}, "link text", "Sign in"},
	}
	for _, tt := range tests {
		t.Run(tt.loc.String(), func(t *testing.T) {
			_, err := s.FindElement(ctx, tt.loc)
			require.NoError(t, err)
			req := remote.last()
			assert.Equal(t, "/session/s1/element", req.Path)
			assert.Equal(t, tt.using, req.Body["using"])
			assert.Equal(t, tt.value, req.Body["value"])
		})
	}
}

func TestScopedLocatorsOnTheWire(t *testing.T) {
	remote, s := newRemoteSession(t)
	ctx := context.Background()

	form, err := s.FindElement(ctx, driver.ID("login"))
	require.NoError(t, err)
	_, err = form.FindElement(ctx, driver.Name("country"))
	require.NoError(t, err)
	req := remote.last()
	assert.Equal(t, "/session/s1/element/e1/element", req.Path)
	assert.Equal(t, `[name="country"]`, req.Body["value"])

	all, err := s.FindElements(ctx, driver.Name("option"))
	require.NoError(t, err)
	assert.Len(t, all, 1)
	req = remote.last()
	assert.Equal(t, "/session/s1/elements", req.Path)
	assert.Equal(t, "css selector", req.Body["using"])
	assert.Equal(t, `[name="option"]`, req.Body["value"])

	sent := remote.count()
	_, err = s.FindElement(ctx, driver.Locator{By: driver.ByClassName, Value: "btn primary"})
	assert.ErrorContains(t, err, "compound class names")
	assert.Equal(t, sent, remote.count())
}

func TestPropertyAndElementResultsOnTheWire(t *testing.T) {
	remote, s := newRemoteSession(t)
	ctx := context.Background()

	link, err := s.FindElement(ctx, driver.CSS("a"))
	require.NoError(t, err)
	remote.mu.Lock()
	remote.result = "https://example.test/about"
	remote.mu.Unlock()
	href, err := link.Property(ctx, "href")
	require.NoError(t, err)
	assert.Equal(t, "https://example.test/about", href)

	req := remote.last()
	assert.Equal(t, "/session/s1/execute/sync", req.Path)
	assert.Equal(t, propertyScript, req.Body["script"])
	args, ok := req.Body["args"].([]any)
	require.True(t, ok)
	require.Len(t, args, 2)
	assert.Equal(t, "e1", args[0].(map[string]any)[elementKey])
	assert.Equal(t, "href", args[1])

	remote.mu.Lock()
	remote.result = map[string]any{elementKey: "e9"}
	remote.mu.Unlock()
	got, err := s.ExecuteScript(ctx, "return document.body;")
	require.NoError(t, err)
	body, ok := got.(*Element)
	require.True(t, ok)
	_, err = body.FindElement(ctx, driver.CSS("p"))
	require.NoError(t, err)
	assert.Equal(t, "/session/s1/element/e9/element", remote.last().Path)
}
