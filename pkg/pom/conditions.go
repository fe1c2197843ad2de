// pkg/pom/conditions.go
package pom

import (
	"context"
	"strings"
	"sync"

	"github.com/xkilldash9x/pagecomp/pkg/driver"
)

// Args carries the keyword arguments of a wait to its condition factory.
type Args map[string]any

// Int returns the integer argument under key. Float values whose fraction is
// zero are accepted, since YAML and JSON sources decode numbers loosely.
func (a Args) Int(key string) (int, bool) {
	switch v := a[key].(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		if v == float64(int(v)) {
			return int(v), true
		}
	}
	return 0, false
}

// String returns the string argument under key.
func (a Args) String(key string) (string, bool) {
	s, ok := a[key].(string)
	return s, ok
}

// Predicate is polled by a wait until it reports the wanted outcome. An error
// wrapping driver.ErrNoSuchElement counts as an ordinary "false"; any other
// error ends the wait.
type Predicate func(ctx context.Context, s driver.Session) (bool, error)

// ConditionFactory builds the predicate for one wait on component b.
type ConditionFactory func(b *Bound, args Args) Predicate

// Condition is accepted by WaitUntil and WaitUntilNot. It is either a
// ConditionName, looked up in the component's local table and then the global
// registry, or a ConditionFactory used directly.
type Condition interface {
	lookup(b *Bound) (string, ConditionFactory, error)
}

// ConditionName names a registered condition. Names are case-insensitive.
type ConditionName string

// Built-in conditions of the default registry.
const (
	Visible   ConditionName = "visible"
	Present   ConditionName = "present"
	Clickable ConditionName = "clickable"
	Animating ConditionName = "animating"
	Stale     ConditionName = "stale"
)

func (n ConditionName) lookup(b *Bound) (string, ConditionFactory, error) {
	key := strings.ToLower(string(n))
	if f, ok := b.tmpl.conditions[key]; ok {
		return key, f, nil
	}
	if f, ok := b.env.conditions.Lookup(key); ok {
		return key, f, nil
	}
	return "", nil, &UnsupportedConditionError{Name: string(n)}
}

func (f ConditionFactory) lookup(*Bound) (string, ConditionFactory, error) {
	return "custom", f, nil
}

// Registry is a concurrency-safe table of named condition factories.
type Registry struct {
	mu sync.RWMutex
	m  map[string]ConditionFactory
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{m: make(map[string]ConditionFactory)}
}

// Register adds or replaces the factory under name and returns a func that
// puts back whatever was registered before.
func (r *Registry) Register(name string, f ConditionFactory) (restore func()) {
	key := strings.ToLower(name)
	r.mu.Lock()
	prev, had := r.m[key]
	r.m[key] = f
	r.mu.Unlock()

	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		if had {
			r.m[key] = prev
		} else {
			delete(r.m, key)
		}
	}
}

// Lookup finds the factory registered under name.
func (r *Registry) Lookup(name string) (ConditionFactory, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.m[strings.ToLower(name)]
	return f, ok
}

// Names lists the registered names in no particular order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.m))
	for n := range r.m {
		names = append(names, n)
	}
	return names
}

// DefaultConditions is the global registry pages use unless configured with
// WithConditions.
var DefaultConditions = NewBuiltinRegistry()

// RegisterCondition registers f in DefaultConditions.
func RegisterCondition(name string, f ConditionFactory) (restore func()) {
	return DefaultConditions.Register(name, f)
}

// NewBuiltinRegistry returns a registry holding only the built-in conditions.
func NewBuiltinRegistry() *Registry {
	r := NewRegistry()
	r.Register(string(Visible), visibleCondition)
	r.Register(string(Present), presentCondition)
	r.Register(string(Clickable), clickableCondition)
	r.Register(string(Animating), animatingCondition)
	r.Register(string(Stale), staleCondition)
	return r
}

func visibleCondition(b *Bound, _ Args) Predicate {
	return func(ctx context.Context, _ driver.Session) (bool, error) {
		el, err := b.Resolve(ctx)
		if err != nil {
			return false, err
		}
		return el.IsDisplayed(ctx)
	}
}

func presentCondition(b *Bound, _ Args) Predicate {
	return func(ctx context.Context, _ driver.Session) (bool, error) {
		if _, err := b.Resolve(ctx); err != nil {
			return false, err
		}
		return true, nil
	}
}

func clickableCondition(b *Bound, _ Args) Predicate {
	return func(ctx context.Context, _ driver.Session) (bool, error) {
		el, err := b.Resolve(ctx)
		if err != nil {
			return false, err
		}
		shown, err := el.IsDisplayed(ctx)
		if err != nil || !shown {
			return false, err
		}
		return el.IsEnabled(ctx)
	}
}

const animatingScript = `return arguments[0].getAnimations().some(function(a) { return a.playState === "running"; })`

func animatingCondition(b *Bound, _ Args) Predicate {
	return func(ctx context.Context, s driver.Session) (bool, error) {
		el, err := b.Resolve(ctx)
		if err != nil {
			return false, err
		}
		v, err := s.ExecuteScript(ctx, animatingScript, el)
		if err != nil {
			return false, err
		}
		return truthy(v), nil
	}
}

// staleCondition holds once the element can no longer be located, which is
// the state a removed or re-rendered element leaves behind.
func staleCondition(b *Bound, _ Args) Predicate {
	return func(ctx context.Context, _ driver.Session) (bool, error) {
		_, err := b.Resolve(ctx)
		if IsNotFound(err) {
			return true, nil
		}
		return false, err
	}
}

// truthy converts a script result into a boolean the way a browser would.
func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	case float64:
		return t != 0
	case int:
		return t != 0
	case int64:
		return t != 0
	}
	return true
}
