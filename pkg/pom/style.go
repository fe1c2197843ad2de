// pkg/pom/style.go
package pom

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

// Style reads computed CSS properties of a component.
type Style struct {
	b *Bound
}

// Style returns the computed-style accessor for the component.
func (b *Bound) Style() Style { return Style{b: b} }

// Get returns the computed value of a CSS property, such as "font-size".
func (s Style) Get(ctx context.Context, property string) (string, error) {
	return s.b.CSSValue(ctx, property)
}

// Color returns the parsed computed "color".
func (s Style) Color(ctx context.Context) (Color, error) {
	return s.color(ctx, "color")
}

// BackgroundColor returns the parsed computed "background-color".
func (s Style) BackgroundColor(ctx context.Context) (Color, error) {
	return s.color(ctx, "background-color")
}

func (s Style) color(ctx context.Context, property string) (Color, error) {
	v, err := s.Get(ctx, property)
	if err != nil {
		return Color{}, err
	}
	c, err := ParseColor(v)
	if err != nil {
		return Color{}, fmt.Errorf("%s: %s: %w", s.b.tmpl.name, property, err)
	}
	return c, nil
}

// Color is an sRGB colour with alpha in [0, 1].
type Color struct {
	R, G, B uint8
	A       float64
}

// Hex renders the colour as #rrggbb, dropping alpha.
func (c Color) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// String renders the colour the way browsers serialize computed colours.
func (c Color) String() string {
	if c.A == 1 {
		return fmt.Sprintf("rgb(%d, %d, %d)", c.R, c.G, c.B)
	}
	return fmt.Sprintf("rgba(%d, %d, %d, %s)", c.R, c.G, c.B, strconv.FormatFloat(c.A, 'f', -1, 64))
}

var namedColors = map[string]Color{
	"transparent": {0, 0, 0, 0},
	"black":       {0, 0, 0, 1},
	"white":       {255, 255, 255, 1},
	"red":         {255, 0, 0, 1},
	"lime":        {0, 255, 0, 1},
	"green":       {0, 128, 0, 1},
	"blue":        {0, 0, 255, 1},
	"yellow":      {255, 255, 0, 1},
	"gray":        {128, 128, 128, 1},
	"grey":        {128, 128, 128, 1},
	"orange":      {255, 165, 0, 1},
	"purple":      {128, 0, 128, 1},
}

// ParseColor parses the colour forms computed styles produce: rgb(), rgba(),
// #rgb, #rrggbb, #rrggbbaa and a handful of keywords.
func ParseColor(s string) (Color, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	if c, ok := namedColors[v]; ok {
		return c, nil
	}
	if strings.HasPrefix(v, "#") {
		return parseHexColor(v[1:])
	}
	for _, fn := range []string{"rgba(", "rgb("} {
		if strings.HasPrefix(v, fn) && strings.HasSuffix(v, ")") {
			return parseRGBFunc(v[len(fn) : len(v)-1])
		}
	}
	return Color{}, fmt.Errorf("unrecognized color %q", s)
}

func parseHexColor(h string) (Color, error) {
	if len(h) == 3 {
		h = string([]byte{h[0], h[0], h[1], h[1], h[2], h[2]})
	}
	if len(h) != 6 && len(h) != 8 {
		return Color{}, fmt.Errorf("unrecognized color %q", "#"+h)
	}
	n, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return Color{}, fmt.Errorf("unrecognized color %q: %w", "#"+h, err)
	}
	if len(h) == 6 {
		return Color{R: uint8(n >> 16), G: uint8(n >> 8), B: uint8(n), A: 1}, nil
	}
	return Color{R: uint8(n >> 24), G: uint8(n >> 16), B: uint8(n >> 8), A: float64(uint8(n)) / 255}, nil
}

func parseRGBFunc(body string) (Color, error) {
	// Both the legacy comma form and the space form with "/ alpha".
	body = strings.NewReplacer(",", " ", "/", " ").Replace(body)
	parts := strings.Fields(body)
	if len(parts) != 3 && len(parts) != 4 {
		return Color{}, fmt.Errorf("unrecognized color arguments %q", body)
	}
	var ch [3]uint8
	for i := range 3 {
		f, err := parseChannel(parts[i])
		if err != nil {
			return Color{}, err
		}
		ch[i] = uint8(f + 0.5)
	}
	c := Color{R: ch[0], G: ch[1], B: ch[2], A: 1}
	if len(parts) == 4 {
		a, err := parseAlpha(parts[3])
		if err != nil {
			return Color{}, err
		}
		c.A = a
	}
	return c, nil
}

func parseChannel(s string) (float64, error) {
	pct := strings.HasSuffix(s, "%")
	f, err := strconv.ParseFloat(strings.TrimSuffix(s, "%"), 64)
	if err != nil {
		return 0, fmt.Errorf("bad color channel %q: %w", s, err)
	}
	if pct {
		f = f * 255 / 100
	}
	return clamp(f, 0, 255), nil
}

func parseAlpha(s string) (float64, error) {
	pct := strings.HasSuffix(s, "%")
	f, err := strconv.ParseFloat(strings.TrimSuffix(s, "%"), 64)
	if err != nil {
		return 0, fmt.Errorf("bad alpha %q: %w", s, err)
	}
	if pct {
		f /= 100
	}
	return clamp(f, 0, 1), nil
}

func clamp(f, lo, hi float64) float64 {
	return max(lo, min(hi, f))
}
