// pkg/driver/locator_test.go
package driver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBy(t *testing.T) {
	cases := map[string]By{
		"css selector":      ByCSSSelector,
		"CSS":               ByCSSSelector,
		"xpath":             ByXPath,
		"id":                ByID,
		"link_text":         ByLinkText,
		"partial link text": ByPartialLinkText,
		" class ":           ByClassName,
		"tag":               ByTagName,
	}
	for in, want := range cases {
		got, err := ParseBy(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseBy("shadow")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "shadow")
}

func TestLocatorQuery(t *testing.T) {
	t.Run("css passes through", func(t *testing.T) {
		q, err := CSS("#login input").Query()
		require.NoError(t, err)
		assert.Equal(t, Query{Expr: "#login input"}, q)
	})

	t.Run("id and name become attribute selectors", func(t *testing.T) {
		q, err := ID(`we"ird`).Query()
		require.NoError(t, err)
		assert.Equal(t, `[id="we\"ird"]`, q.Expr)

		q, err = Name("username").Query()
		require.NoError(t, err)
		assert.Equal(t, `[name="username"]`, q.Expr)
	})

	t.Run("link text becomes xpath", func(t *testing.T) {
		q, err := Locator{By: ByLinkText, Value: "About Us"}.Query()
		require.NoError(t, err)
		assert.True(t, q.XPath)
		assert.Equal(t, `.//a[normalize-space(.)="About Us"]`, q.Expr)
	})

	t.Run("xpath literal with both quote kinds", func(t *testing.T) {
		q, err := Locator{By: ByPartialLinkText, Value: `it's "here"`}.Query()
		require.NoError(t, err)
		assert.Equal(t, `.//a[contains(., concat("it's ", '"', "here", '"'))]`, q.Expr)
	})

	t.Run("compound class is rejected", func(t *testing.T) {
		_, err := Locator{By: ByClassName, Value: "btn primary"}.Query()
		require.Error(t, err)
	})

	t.Run("unknown strategy", func(t *testing.T) {
		_, err := Locator{By: "shadow", Value: "x"}.Query()
		require.Error(t, err)
	})
}

func TestLocatorIsZero(t *testing.T) {
	assert.True(t, Locator{}.IsZero())
	assert.False(t, CSS("a").IsZero())
	assert.Equal(t, "css selector=a", CSS("a").String())
}
