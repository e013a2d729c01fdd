package htmlrewriter

import (
	"strings"

	"github.com/dpotapov/htmlrewriter/encoding"
)

// Attribute is one name/value pair on a start tag, fully decoded (the
// byte-range view lives one layer down, in internal/lexer.AttrOutline;
// by the time a handler sees it, names/values are plain strings).
type Attribute struct {
	Name  string
	Value string
}

func forbiddenNameByte(b byte) bool {
	switch b {
	case ' ', '\n', '\r', '\t', '\f', '/', '>':
		return true
	default:
		return false
	}
}

func isASCIIAlpha(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

// checkEncodable reports whether s round-trips through enc without loss.
// nil or UTF-8 encodings always accept (spec.md §4.7's "must be
// representable in the document encoding without character references").
func checkEncodable(enc *encoding.Encoding, s string) error {
	if enc == nil || enc.Name() == "utf-8" {
		return nil
	}
	if _, err := enc.EncodeString(s); err != nil {
		for _, r := range s {
			if r > 0x7f {
				return &ValidationError{Kind: UnencodableCharacter, Ch: r}
			}
		}
		return &ValidationError{Kind: UnencodableCharacter}
	}
	return nil
}

func validateTagName(enc *encoding.Encoding, name string) error {
	if name == "" {
		return &ValidationError{Kind: Empty}
	}
	if !isASCIIAlpha(name[0]) {
		return &ValidationError{Kind: InvalidFirstCharacter}
	}
	for _, r := range name {
		if r < 0x80 && forbiddenNameByte(byte(r)) {
			return &ValidationError{Kind: ForbiddenCharacter, Ch: r}
		}
	}
	return checkEncodable(enc, name)
}

func validateAttributeName(enc *encoding.Encoding, name string) error {
	if name == "" {
		return &ValidationError{Kind: Empty}
	}
	for _, r := range name {
		if r < 0x80 && (forbiddenNameByte(byte(r)) || r == '=') {
			return &ValidationError{Kind: ForbiddenCharacter, Ch: r}
		}
	}
	return checkEncodable(enc, name)
}

func validateCommentText(enc *encoding.Encoding, text string) error {
	if strings.Contains(text, "-->") {
		return &ValidationError{Kind: CommentClosingSequence}
	}
	return checkEncodable(enc, text)
}

// voidElements is the fixed HTML void-element set: these never have an
// end tag or children (spec.md §9's can_have_content note).
var voidElements = map[string]bool{
	"area": true, "base": true, "br": true, "col": true, "embed": true,
	"hr": true, "img": true, "input": true, "link": true, "meta": true,
	"param": true, "source": true, "track": true, "wbr": true,
}

// StartTag is the mutable façade for a captured start-tag lexeme
// (spec.md §4.7). Element embeds one.
type StartTag struct {
	mutations

	enc *encoding.Encoding

	name        string
	renamedTo   string
	renamed     bool
	attrs       []Attribute
	selfClosing bool
	namespace   string // "" (html), "svg", "math"
}

// Name returns the tag's current name, reflecting any SetName call.
func (t *StartTag) Name() string {
	if t.renamed {
		return t.renamedTo
	}
	return t.name
}

// SetName renames the tag. Per spec.md §8's law, renaming an Element's
// start tag also renames its matching end tag; Element.SetTagName threads
// this through to both its StartTag and its EndTag.
func (t *StartTag) SetName(name string) error {
	if err := validateTagName(t.enc, name); err != nil {
		return err
	}
	t.renamedTo = name
	t.renamed = true
	return nil
}

// Attributes returns a copy of the tag's current attribute list, in
// document order.
func (t *StartTag) Attributes() []Attribute {
	return append([]Attribute(nil), t.attrs...)
}

// GetAttribute returns name's value, ASCII-case-insensitively.
func (t *StartTag) GetAttribute(name string) (string, bool) {
	for _, a := range t.attrs {
		if strings.EqualFold(a.Name, name) {
			return a.Value, true
		}
	}
	return "", false
}

// HasAttribute reports whether name is present.
func (t *StartTag) HasAttribute(name string) bool {
	_, ok := t.GetAttribute(name)
	return ok
}

// SetAttribute sets name's value, appending a new attribute if name is
// not already present.
func (t *StartTag) SetAttribute(name, value string) error {
	if err := validateAttributeName(t.enc, name); err != nil {
		return err
	}
	if err := checkEncodable(t.enc, value); err != nil {
		return err
	}
	for i := range t.attrs {
		if strings.EqualFold(t.attrs[i].Name, name) {
			t.attrs[i].Value = value
			return nil
		}
	}
	t.attrs = append(t.attrs, Attribute{Name: name, Value: value})
	return nil
}

// RemoveAttribute removes name if present; a no-op otherwise.
func (t *StartTag) RemoveAttribute(name string) {
	for i := range t.attrs {
		if strings.EqualFold(t.attrs[i].Name, name) {
			t.attrs = append(t.attrs[:i], t.attrs[i+1:]...)
			return
		}
	}
}

// SelfClosing reports whether the tag was written with a trailing `/>`.
func (t *StartTag) SelfClosing() bool { return t.selfClosing }

// Namespace reports the content namespace the tag was parsed in ("",
// "svg", or "math").
func (t *StartTag) Namespace() string { return t.namespace }

// CanHaveContent reports the parsed syntactic shape only - self-closing
// flag union the HTML void-element list - never a semantic "may contain
// children in foreign content" assertion (spec.md §9 open question).
func (t *StartTag) CanHaveContent() bool {
	if t.selfClosing {
		return false
	}
	return !voidElements[strings.ToLower(t.name)]
}

// EndTag is the mutable façade for a captured (or synthesized) end-tag
// lexeme.
type EndTag struct {
	mutations

	enc       *encoding.Encoding
	name      string
	renamedTo string
	renamed   bool
}

func (t *EndTag) Name() string {
	if t.renamed {
		return t.renamedTo
	}
	return t.name
}

func (t *EndTag) SetName(name string) error {
	if err := validateTagName(t.enc, name); err != nil {
		return err
	}
	t.renamedTo = name
	t.renamed = true
	return nil
}

// Comment is the mutable façade for a captured comment lexeme.
type Comment struct {
	mutations

	enc  *encoding.Encoding
	text string
	esi  bool
}

func (c *Comment) Text() string { return c.text }

// IsESI reports whether this comment is shaped like an Edge Side Include
// directive (`<!--esi ...-->`) and Settings.EnableESITags was on. This is
// a narrow tag-shape approximation, not a full ESI grammar.
func (c *Comment) IsESI() bool { return c.esi }

func (c *Comment) SetText(text string) error {
	if err := validateCommentText(c.enc, text); err != nil {
		return err
	}
	c.text = text
	return nil
}

// TextChunk is one decoded slice of a text node, with last_in_text_node
// tracking (spec.md §4.6).
type TextChunk struct {
	mutations

	text string
	last bool
}

func (c *TextChunk) Text() string       { return c.text }
func (c *TextChunk) LastInTextNode() bool { return c.last }

// Doctype is the mutable façade for a captured doctype lexeme. Doctypes
// carry no replace/remove semantics in the HTML grammar beyond the
// generic before/after list (there is exactly one doctype per document,
// emitted once, and the HTML parsing algorithm gives it no content to
// remove).
type Doctype struct {
	mutations

	name     string
	hasName  bool
	publicID string
	hasPublicID bool
	systemID string
	hasSystemID bool
}

func (d *Doctype) Name() (string, bool)     { return d.name, d.hasName }
func (d *Doctype) PublicID() (string, bool) { return d.publicID, d.hasPublicID }
func (d *Doctype) SystemID() (string, bool) { return d.systemID, d.hasSystemID }

// DocumentEnd is handed to the document-level end handler at end(); it
// only supports appending content (there is no "replace the end of the
// document" concept - spec.md §4.7).
type DocumentEnd struct {
	mutations
}

// Element wraps a StartTag and carries the end-tag mutation buffer, an
// end-tag-handler list, and the element-wide remove/replace/set-inner-
// content operations (spec.md §4.7: "Element wraps a StartTag and
// carries a mutations buffer for the end tag plus an optional modified
// tag name and end-tag-handler list").
//
// Element's own mutations (embedded here) wrap the whole element - start
// tag through end tag - distinctly from StartTag's before/after, which
// wrap only the start tag's own bytes.
type Element struct {
	mutations

	tag *StartTag

	endTag          EndTag
	endTagHandlers  []EndTagHandler
	hasEndTag       bool

	removed          bool
	keepContentOnly  bool
	innerContent     contentPiece
	hasInnerContent  bool
}

func newElement(tag *StartTag, hasEndTag bool) *Element {
	e := &Element{tag: tag, hasEndTag: hasEndTag}
	e.endTag = EndTag{enc: tag.enc, name: tag.name}
	return e
}

func (e *Element) StartTag() *StartTag { return e.tag }

func (e *Element) Name() string    { return e.tag.Name() }
func (e *Element) Attributes() []Attribute { return e.tag.Attributes() }
func (e *Element) GetAttribute(name string) (string, bool) { return e.tag.GetAttribute(name) }
func (e *Element) HasAttribute(name string) bool           { return e.tag.HasAttribute(name) }
func (e *Element) SetAttribute(name, value string) error   { return e.tag.SetAttribute(name, value) }
func (e *Element) RemoveAttribute(name string)              { e.tag.RemoveAttribute(name) }
func (e *Element) SelfClosing() bool                         { return e.tag.SelfClosing() }
func (e *Element) Namespace() string                         { return e.tag.Namespace() }
func (e *Element) CanHaveContent() bool                       { return e.tag.CanHaveContent() && e.hasEndTag }

// SetTagName renames both the start tag and, if present, the matching end
// tag (spec.md §8 law: "set_tag_name(t) on a start tag causes the
// matching end tag ... to be renamed to t").
func (e *Element) SetTagName(name string) error {
	if err := e.tag.SetName(name); err != nil {
		return err
	}
	if e.hasEndTag {
		e.endTag.renamedTo = name
		e.endTag.renamed = true
	}
	return nil
}

// OnEndTag registers h to fire when this element's matching end tag is
// observed. Fails with ErrNoEndTag if the element is void or was
// self-closed in foreign content (spec.md §4.7).
func (e *Element) OnEndTag(h EndTagHandler) error {
	if !e.hasEndTag {
		return ErrNoEndTag
	}
	e.endTagHandlers = append(e.endTagHandlers, h)
	return nil
}

// Remove drops the element and its children from the output; its own
// before/after mutations still emit (spec.md §4.7).
func (e *Element) Remove() { e.removed = true }

// IsRemoved reports whether Remove was called.
func (e *Element) IsRemoved() bool { return e.removed }

// RemoveAndKeepContent drops the start and end tag markup only, keeping
// any content between them.
func (e *Element) RemoveAndKeepContent() { e.keepContentOnly = true }

// SetInnerContent replaces everything between the start and end tags.
func (e *Element) SetInnerContent(content string, ctype ContentType) {
	e.innerContent = staticPiece(content, ctype)
	e.hasInnerContent = true
}

// StreamingSetInnerContent is the streaming_set_inner_content variant.
func (e *Element) StreamingSetInnerContent(fn func(StreamingSink) error) {
	e.innerContent = streamingPiece(fn)
	e.hasInnerContent = true
}
