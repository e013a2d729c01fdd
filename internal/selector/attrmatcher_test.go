package selector

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAttributeMatcherBasics(t *testing.T) {
	m := NewAttributeMatcher([]Attr{
		{Name: "id", Value: "Main"},
		{Name: "class", Value: "box  primary\tactive"},
		{Name: "href", Value: "https://example.com/path"},
		{Name: "lang", Value: "EN-us"},
	}, true)

	require.True(t, m.IDMatches("Main", CaseSensitive))
	require.False(t, m.IDMatches("main", CaseSensitive))

	require.True(t, m.HasClass("box", CaseSensitive))
	require.True(t, m.HasClass("active", CaseSensitive))
	require.False(t, m.HasClass("boxes", CaseSensitive))

	require.True(t, m.HasAttribute("href"))
	require.False(t, m.HasAttribute("missing"))

	require.True(t, m.HasPrefix("href", "https://", CaseSensitive))
	require.True(t, m.HasSuffix("href", "/path", CaseSensitive))
	require.True(t, m.HasSubstring("href", "example", CaseSensitive))
	require.False(t, m.HasSubstring("href", "EXAMPLE", CaseSensitive))
	require.True(t, m.HasSubstring("href", "EXAMPLE", AsciiCaseInsensitive))

	// lang is always ASCII case-insensitive on HTML elements, even when
	// the caller asks for CaseSensitive.
	require.True(t, m.AttrEq("lang", "en-US", CaseSensitive))
}

func TestAttributeMatcherDashMatch(t *testing.T) {
	m := NewAttributeMatcher([]Attr{{Name: "lang", Value: "en-US"}}, false)
	require.True(t, m.DashMatch("lang", "en", CaseSensitive))
	require.True(t, m.DashMatch("lang", "en-US", CaseSensitive))
	require.False(t, m.DashMatch("lang", "en-us", CaseSensitive))
	require.False(t, m.DashMatch("lang", "english", CaseSensitive))
}

func TestAttributeMatcherIncludes(t *testing.T) {
	m := NewAttributeMatcher([]Attr{{Name: "rel", Value: "nofollow noopener"}}, false)
	require.True(t, m.MatchesSplitBy("rel", "nofollow", CaseSensitive))
	require.True(t, m.MatchesSplitBy("rel", "noopener", CaseSensitive))
	require.False(t, m.MatchesSplitBy("rel", "no", CaseSensitive))
}

func TestAttributeMatcherEmptyValueOperators(t *testing.T) {
	m := NewAttributeMatcher([]Attr{{Name: "href", Value: "x"}}, false)
	require.False(t, m.HasPrefix("href", "", CaseSensitive))
	require.False(t, m.HasSuffix("href", "", CaseSensitive))
	require.False(t, m.HasSubstring("href", "", CaseSensitive))
}
