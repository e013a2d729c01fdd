package selector

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestParseSimpleCompound(t *testing.T) {
	sel, err := Parse("div.box#main[data-x~=y i]")
	require.NoError(t, err)
	require.Len(t, sel.Components, 1)
	comp := sel.Components[0]
	require.Equal(t, Descendant, comp.Combinator)

	want := []SimpleExpr{
		LocalNameExpr{Name: "div"},
		ClassExpr{Class: "box", Case: CaseSensitive},
		IDExpr{ID: "main", Case: CaseSensitive},
		AttrIncludesExpr{Name: "data-x", Value: "y", Case: AsciiCaseInsensitive},
	}
	if diff := cmp.Diff(want, comp.Exprs); diff != "" {
		t.Fatalf("unexpected exprs (-want +got):\n%s", diff)
	}
}

func TestParseCombinators(t *testing.T) {
	sel, err := Parse("ul > li.item p")
	require.NoError(t, err)
	require.Len(t, sel.Components, 3)
	require.Equal(t, Descendant, sel.Components[0].Combinator)
	require.Equal(t, Child, sel.Components[1].Combinator)
	require.Equal(t, Descendant, sel.Components[2].Combinator)
}

func TestParseNot(t *testing.T) {
	sel, err := Parse("a:not(.x.y)")
	require.NoError(t, err)
	require.Len(t, sel.Components, 1)
	require.Len(t, sel.Components[0].Exprs, 2)

	notExpr, ok := sel.Components[0].Exprs[1].(NotExpr)
	require.True(t, ok)
	require.ElementsMatch(t, []SimpleExpr{
		ClassExpr{Class: "x", Case: CaseSensitive},
		ClassExpr{Class: "y", Case: CaseSensitive},
	}, notExpr.Exprs)
}

func TestParseAttrOperators(t *testing.T) {
	cases := map[string]SimpleExpr{
		`[href]`:            AttrExistsExpr{Name: "href"},
		`[href=foo]`:        AttrEqExpr{Name: "href", Value: "foo", Case: CaseSensitive},
		`[href="foo bar"]`:  AttrEqExpr{Name: "href", Value: "foo bar", Case: CaseSensitive},
		`[class~=foo]`:      AttrIncludesExpr{Name: "class", Value: "foo", Case: CaseSensitive},
		`[lang|=en]`:        AttrDashMatchExpr{Name: "lang", Value: "en", Case: CaseSensitive},
		`[href^=http]`:      AttrPrefixExpr{Name: "href", Value: "http", Case: CaseSensitive},
		`[href$=.html]`:     AttrSuffixExpr{Name: "href", Value: ".html", Case: CaseSensitive},
		`[href*=example]`:   AttrSubstringExpr{Name: "href", Value: "example", Case: CaseSensitive},
		`[href=foo s]`:      AttrEqExpr{Name: "href", Value: "foo", Case: ExplicitCaseSensitive},
	}
	for src, want := range cases {
		sel, err := Parse(src)
		require.NoErrorf(t, err, "parsing %q", src)
		require.Lenf(t, sel.Components[0].Exprs, 1, "parsing %q", src)
		if diff := cmp.Diff(want, sel.Components[0].Exprs[0]); diff != "" {
			t.Fatalf("parsing %q: unexpected expr (-want +got):\n%s", src, diff)
		}
	}
}

func TestParseRejectsUnsupportedConstructs(t *testing.T) {
	cases := []string{
		"a + b",
		"a ~ b",
		"svg|rect",
		"a::before",
		"a:hover",
		"a:not(:not(.x))",
		"a:not()",
		"",
		"   ",
	}
	for _, src := range cases {
		_, err := Parse(src)
		require.Errorf(t, err, "expected parse error for %q", src)
		var parseErr *ParseError
		require.ErrorAs(t, err, &parseErr)
	}
}

func TestParseUniversal(t *testing.T) {
	sel, err := Parse("*")
	require.NoError(t, err)
	require.Equal(t, []SimpleExpr{AnyExpr{}}, sel.Components[0].Exprs)
}
