package htmlrewriter

// ContentType controls whether mutation content is HTML-escaped before
// being written to the output (spec.md §4.7: "Text content is
// HTML-escaped ... Html content is emitted verbatim").
type ContentType int

const (
	Text ContentType = iota
	HTML
)

// StreamingSink is handed to a streaming_* mutation's callback so it can
// produce bytes lazily during serialization, rather than building the
// whole replacement string up front (spec.md §4.7, minus the C-ABI
// thread-local-error plumbing of §6's StreamingHandlerSink, which belongs
// to that external boundary, not this Go API).
type StreamingSink interface {
	WriteString(s string, ctype ContentType) error
}

type streamingFunc func(StreamingSink) error

// contentPiece is one entry of a before/after list, or the sole entry of
// a replace/inner-content payload: either static content (escaped per
// ctype at serialization time) or a streaming_* callback invoked lazily.
type contentPiece struct {
	static string
	stream streamingFunc
	ctype  ContentType
}

func staticPiece(content string, ctype ContentType) contentPiece {
	return contentPiece{static: content, ctype: ctype}
}

func streamingPiece(fn streamingFunc) contentPiece {
	return contentPiece{stream: fn}
}

// emitter is how a contentPiece reaches the output: emitContent escapes
// (or doesn't) and re-encodes static content, emitStream hands the
// StreamingSink straight to the user callback.
type emitter interface {
	emitContent(s string, ctype ContentType) error
	emitStream(fn streamingFunc) error
}

func (p contentPiece) emit(e emitter) error {
	if p.stream != nil {
		return e.emitStream(p.stream)
	}
	return e.emitContent(p.static, p.ctype)
}

func emitAll(e emitter, pieces []contentPiece) error {
	for _, p := range pieces {
		if err := p.emit(e); err != nil {
			return err
		}
	}
	return nil
}

// mutations is embedded by every rewritable unit façade (spec.md §4.7):
// a before/after list plus a replace flag+content. Remove is tracked
// separately per unit type since its meaning differs (Element.Remove
// drops descendant content too; the other units have none).
type mutations struct {
	before []contentPiece
	after  []contentPiece

	replaced    bool
	replacement contentPiece
}

// Before appends content to the list emitted immediately before this
// unit; repeated calls concatenate in order (spec.md §8 law).
func (m *mutations) Before(content string, ctype ContentType) {
	m.before = append(m.before, staticPiece(content, ctype))
}

// StreamingBefore is the streaming_before_content variant.
func (m *mutations) StreamingBefore(fn func(StreamingSink) error) {
	m.before = append(m.before, streamingPiece(fn))
}

// After appends content to the list emitted immediately after this unit;
// repeated calls concatenate in order (spec.md §8 law).
func (m *mutations) After(content string, ctype ContentType) {
	m.after = append(m.after, staticPiece(content, ctype))
}

// StreamingAfter is the streaming_after_content variant.
func (m *mutations) StreamingAfter(fn func(StreamingSink) error) {
	m.after = append(m.after, streamingPiece(fn))
}

// Replace sets the replace flag and discards any prior replacement
// content: "replace(x); replace(y) emits exactly y" (spec.md §8 law).
// Replace implies the unit's own bytes are suppressed the same way
// Remove does.
func (m *mutations) Replace(content string, ctype ContentType) {
	m.replaced = true
	m.replacement = staticPiece(content, ctype)
}

// StreamingReplace is the streaming_replace variant.
func (m *mutations) StreamingReplace(fn func(StreamingSink) error) {
	m.replaced = true
	m.replacement = streamingPiece(fn)
}

func (m *mutations) isReplaced() bool { return m.replaced }

func (m *mutations) emitBefore(e emitter) error { return emitAll(e, m.before) }
func (m *mutations) emitAfter(e emitter) error  { return emitAll(e, m.after) }
func (m *mutations) emitReplacement(e emitter) error {
	if !m.replaced {
		return nil
	}
	return m.replacement.emit(e)
}
