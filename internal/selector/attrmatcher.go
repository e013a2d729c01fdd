package selector

import "strings"

// Attr is one already-decoded attribute name/value pair as seen by the
// matcher. Byte-range resolution against the raw lexeme happens one layer
// up, in the dispatcher; the VM only ever sees decoded strings.
type Attr struct {
	Name  string
	Value string
}

// AttributeMatcher lazily evaluates attribute-dependent simple expressions
// against a fixed attribute list. Constructed once per start tag, on demand,
// the first time an AttrOnly or Mixed instruction needs it (spec.md §4.5).
type AttributeMatcher struct {
	attrs   []Attr
	isHTML  bool // the `lang` attribute is always case-insensitive on HTML elements
}

// NewAttributeMatcher builds a matcher over attrs. isHTML should be true
// when the element is in the HTML namespace (spec.md §4.5).
func NewAttributeMatcher(attrs []Attr, isHTML bool) *AttributeMatcher {
	return &AttributeMatcher{attrs: attrs, isHTML: isHTML}
}

func (m *AttributeMatcher) find(name string) (string, bool) {
	for _, a := range m.attrs {
		if strings.EqualFold(a.Name, name) {
			return a.Value, true
		}
	}
	return "", false
}

func (m *AttributeMatcher) caseSensitivityFor(name string, cs CaseSensitivity) CaseSensitivity {
	if m.isHTML && strings.EqualFold(name, "lang") {
		return AsciiCaseInsensitive
	}
	return cs
}

func (m *AttributeMatcher) equalValues(a, b string, cs CaseSensitivity) bool {
	if cs == AsciiCaseInsensitive {
		return strings.EqualFold(a, b)
	}
	return a == b
}

// IDMatches reports whether the `id` attribute equals id.
func (m *AttributeMatcher) IDMatches(id string, cs CaseSensitivity) bool {
	v, ok := m.find("id")
	if !ok {
		return false
	}
	return m.equalValues(v, id, m.caseSensitivityFor("id", cs))
}

// HasClass reports whether the `class` attribute contains class as one of
// its ASCII-whitespace-separated tokens.
func (m *AttributeMatcher) HasClass(class string, cs CaseSensitivity) bool {
	v, ok := m.find("class")
	if !ok {
		return false
	}
	cs = m.caseSensitivityFor("class", cs)
	for _, tok := range splitASCIIWhitespace(v) {
		if m.equalValues(tok, class, cs) {
			return true
		}
	}
	return false
}

// HasAttribute reports whether name is present at all.
func (m *AttributeMatcher) HasAttribute(name string) bool {
	_, ok := m.find(name)
	return ok
}

// AttrEq reports whether name's value equals value.
func (m *AttributeMatcher) AttrEq(name, value string, cs CaseSensitivity) bool {
	v, ok := m.find(name)
	if !ok {
		return false
	}
	return m.equalValues(v, value, m.caseSensitivityFor(name, cs))
}

// MatchesSplitBy reports whether value is one whitespace-split token of
// name's attribute value (the `~=` operator).
func (m *AttributeMatcher) MatchesSplitBy(name, value string, cs CaseSensitivity) bool {
	v, ok := m.find(name)
	if !ok {
		return false
	}
	cs = m.caseSensitivityFor(name, cs)
	for _, tok := range splitASCIIWhitespace(v) {
		if m.equalValues(tok, value, cs) {
			return true
		}
	}
	return false
}

// DashMatch implements `[attr|=value]`: value equals the attribute, or the
// attribute starts with value immediately followed by '-'.
func (m *AttributeMatcher) DashMatch(name, value string, cs CaseSensitivity) bool {
	v, ok := m.find(name)
	if !ok {
		return false
	}
	cs = m.caseSensitivityFor(name, cs)
	if m.equalValues(v, value, cs) {
		return true
	}
	prefix := value + "-"
	if len(v) < len(prefix) {
		return false
	}
	return m.equalValues(v[:len(prefix)], prefix, cs)
}

// HasPrefix implements `[attr^=value]`.
func (m *AttributeMatcher) HasPrefix(name, value string, cs CaseSensitivity) bool {
	v, ok := m.find(name)
	if !ok || value == "" {
		return false
	}
	cs = m.caseSensitivityFor(name, cs)
	if len(v) < len(value) {
		return false
	}
	return m.equalValues(v[:len(value)], value, cs)
}

// HasSuffix implements `[attr$=value]`.
func (m *AttributeMatcher) HasSuffix(name, value string, cs CaseSensitivity) bool {
	v, ok := m.find(name)
	if !ok || value == "" {
		return false
	}
	cs = m.caseSensitivityFor(name, cs)
	if len(v) < len(value) {
		return false
	}
	return m.equalValues(v[len(v)-len(value):], value, cs)
}

// HasSubstring implements `[attr*=value]`.
func (m *AttributeMatcher) HasSubstring(name, value string, cs CaseSensitivity) bool {
	v, ok := m.find(name)
	if !ok || value == "" {
		return false
	}
	cs = m.caseSensitivityFor(name, cs)
	if cs == AsciiCaseInsensitive {
		return strings.Contains(strings.ToLower(v), strings.ToLower(value))
	}
	return strings.Contains(v, value)
}

// splitASCIIWhitespace splits on space, tab, LF, CR, FF (spec.md §4.5).
func splitASCIIWhitespace(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		switch r {
		case ' ', '\t', '\n', '\r', '\f':
			return true
		}
		return false
	})
}
