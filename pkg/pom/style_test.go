// pkg/pom/style_test.go
package pom

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/pagecomp/internal/mocks"
	"github.com/xkilldash9x/pagecomp/pkg/driver"
)

func TestParseColor(t *testing.T) {
	cases := map[string]Color{
		"rgb(255, 0, 0)":          {255, 0, 0, 1},
		"rgba(0, 128, 255, 0.5)":  {0, 128, 255, 0.5},
		"rgb(0 0 0 / 25%)":        {0, 0, 0, 0.25},
		"rgb(100%, 50%, 0%)":      {255, 128, 0, 1},
		"#0f0":                    {0, 255, 0, 1},
		"#1A2B3C":                 {0x1a, 0x2b, 0x3c, 1},
		"#ffffff80":               {255, 255, 255, float64(0x80) / 255},
		"transparent":             {0, 0, 0, 0},
		"  White ":                {255, 255, 255, 1},
		"rgba(300, -5, 10, 2)":    {255, 0, 10, 1},
	}
	for in, want := range cases {
		got, err := ParseColor(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	for _, bad := range []string{"", "hsl(0, 100%, 50%)", "#12", "rgb(1, 2)", "rgb(a, b, c)", "#ggg"} {
		_, err := ParseColor(bad)
		assert.Error(t, err, bad)
	}
}

func TestColorString(t *testing.T) {
	assert.Equal(t, "rgb(1, 2, 3)", Color{1, 2, 3, 1}.String())
	assert.Equal(t, "rgba(1, 2, 3, 0.5)", Color{1, 2, 3, 0.5}.String())
	assert.Equal(t, "#010203", Color{1, 2, 3, 0.5}.Hex())
}

func TestStyleAccessor(t *testing.T) {
	ctx := context.Background()
	loc := driver.CSS(".alert")
	sess := mocks.NewMockSession()
	el := mocks.NewMockElement("alert")
	onFind(&sess.Mock, loc, el)
	el.On("CSSValue", mock.Anything, "color").Return("rgba(255, 255, 255, 1)", nil)
	el.On("CSSValue", mock.Anything, "background-color").Return("rgb(220, 53, 69)", nil)
	el.On("CSSValue", mock.Anything, "font-size").Return("14px", nil)
	el.On("CSSValue", mock.Anything, "border-color").Return("currentcolor", nil)

	style := Define("Alert", Locate(loc)).Bind(newTestPage(t, sess)).Style()

	fg, err := style.Color(ctx)
	require.NoError(t, err)
	assert.Equal(t, "#ffffff", fg.Hex())

	bg, err := style.BackgroundColor(ctx)
	require.NoError(t, err)
	assert.Equal(t, Color{220, 53, 69, 1}, bg)

	size, err := style.Get(ctx, "font-size")
	require.NoError(t, err)
	assert.Equal(t, "14px", size)

	_, err = style.color(ctx, "border-color")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Alert: border-color")
}
