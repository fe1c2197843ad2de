// pkg/driver/locator.go
package driver

import (
	"fmt"
	"strings"
)

// By names a locator strategy. Values match the WebDriver wire names so the
// WebDriver backend can pass them through untouched.
type By string

const (
	ByCSSSelector     By = "css selector"
	ByXPath           By = "xpath"
	ByID              By = "id"
	ByName            By = "name"
	ByTagName         By = "tag name"
	ByClassName       By = "class name"
	ByLinkText        By = "link text"
	ByPartialLinkText By = "partial link text"
)

var strategies = map[By]struct{}{
	ByCSSSelector:     {},
	ByXPath:           {},
	ByID:              {},
	ByName:            {},
	ByTagName:         {},
	ByClassName:       {},
	ByLinkText:        {},
	ByPartialLinkText: {},
}

// ParseBy accepts the WebDriver name of a strategy and a few common aliases
// ("css", "link_text", ...).
func ParseBy(s string) (By, error) {
	norm := strings.ToLower(strings.TrimSpace(s))
	norm = strings.ReplaceAll(norm, "_", " ")
	switch norm {
	case "css", "selector":
		return ByCSSSelector, nil
	case "class":
		return ByClassName, nil
	case "tag":
		return ByTagName, nil
	}
	by := By(norm)
	if _, ok := strategies[by]; !ok {
		return "", fmt.Errorf("unknown locator strategy %q", s)
	}
	return by, nil
}

// Locator pairs a strategy with its selector value.
type Locator struct {
	By    By
	Value string
}

// CSS builds a css selector locator.
func CSS(selector string) Locator { return Locator{By: ByCSSSelector, Value: selector} }

// XPath builds an xpath locator.
func XPath(expr string) Locator { return Locator{By: ByXPath, Value: expr} }

// ID builds an id locator.
func ID(id string) Locator { return Locator{By: ByID, Value: id} }

// Name builds a name-attribute locator.
func Name(name string) Locator { return Locator{By: ByName, Value: name} }

// IsZero reports whether the locator is unset.
func (l Locator) IsZero() bool { return l.By == "" && l.Value == "" }

func (l Locator) String() string {
	return fmt.Sprintf("%s=%s", l.By, l.Value)
}

// Query is a locator expressed in one of the two query languages every DOM
// exposes natively.
type Query struct {
	XPath bool
	Expr  string
}

// Query translates the locator into CSS or XPath, for backends that do not
// understand WebDriver strategies directly.
func (l Locator) Query() (Query, error) {
	switch l.By {
	case ByCSSSelector:
		return Query{Expr: l.Value}, nil
	case ByXPath:
		return Query{XPath: true, Expr: l.Value}, nil
	case ByID:
		return Query{Expr: fmt.Sprintf("[id=%s]", QuoteCSS(l.Value))}, nil
	case ByName:
		return Query{Expr: fmt.Sprintf("[name=%s]", QuoteCSS(l.Value))}, nil
	case ByTagName:
		return Query{Expr: l.Value}, nil
	case ByClassName:
		if strings.ContainsAny(strings.TrimSpace(l.Value), " \t\n") {
			return Query{}, fmt.Errorf("compound class names are not permitted: %q", l.Value)
		}
		return Query{Expr: fmt.Sprintf("[class~=%s]", QuoteCSS(l.Value))}, nil
	case ByLinkText:
		return Query{XPath: true, Expr: fmt.Sprintf(".//a[normalize-space(.)=%s]", QuoteXPath(l.Value))}, nil
	case ByPartialLinkText:
		return Query{XPath: true, Expr: fmt.Sprintf(".//a[contains(., %s)]", QuoteXPath(l.Value))}, nil
	}
	return Query{}, fmt.Errorf("unknown locator strategy %q", l.By)
}

// QuoteCSS quotes s as a CSS string literal.
func QuoteCSS(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\a `)
	return `"` + r.Replace(s) + `"`
}

// QuoteXPath quotes s as an XPath 1.0 literal. XPath has no escape sequences,
// so strings holding both quote kinds are built with concat().
func QuoteXPath(s string) string {
	if !strings.Contains(s, `"`) {
		return `"` + s + `"`
	}
	if !strings.Contains(s, "'") {
		return "'" + s + "'"
	}
	parts := strings.Split(s, `"`)
	quoted := make([]string, 0, len(parts)*2)
	for i, p := range parts {
		if i > 0 {
			quoted = append(quoted, `'"'`)
		}
		if p != "" {
			quoted = append(quoted, `"`+p+`"`)
		}
	}
	return "concat(" + strings.Join(quoted, ", ") + ")"
}
