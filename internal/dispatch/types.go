// Package dispatch implements spec.md §4.6: it tracks which handler slots
// are currently active (selector-matched elements, document-level
// handlers, per-element end-tag handlers), computes the TokenCaptureFlags
// bitset that tells the parser whether it can stay in tag-scan mode or
// must lex fully, and owns the streaming text decoder that turns raw
// Text lexemes in the document's encoding into UTF-8 TextChunk tokens.
//
// Grounded directly on the teacher's incremental-state bookkeeping style
// (chtml/parse.go's insertion-mode functions track "what's expected next"
// the same way HandlerVec tracks "is anything still listening"), and on
// original_source/src/rewriter/content_handlers.rs's HandlerVec<H> /
// ContentHandlersDispatcher, which this package ports near line-for-line
// into a generic Go type plus a companion text capturer.
package dispatch

// CaptureFlags is the bitset the parser consults to decide between tag
// scanning and full lexing, and which lexeme kinds to upgrade to tokens
// (spec.md §4.6's TokenCaptureFlags).
type CaptureFlags uint8

const (
	CaptureText CaptureFlags = 1 << iota
	CaptureComments
	CaptureStartTags
	CaptureEndTags
	CaptureDoctypes
)

// Has reports whether every bit in want is set in f.
func (f CaptureFlags) Has(want CaptureFlags) bool {
	return f&want == want
}

// Any reports whether any bit in want is set in f.
func (f CaptureFlags) Any(want CaptureFlags) bool {
	return f&want != 0
}

// ActionOnCall is the handler-slot lifecycle policy from spec.md §4.6.
type ActionOnCall int

const (
	// ActionNone leaves the slot active after it fires (document-level
	// handlers: user-count is pinned to 1 at registration).
	ActionNone ActionOnCall = iota
	// ActionDeactivate zeroes the slot's user-count after it fires,
	// without removing it (element start-tag handlers - the selector
	// can still match again on a later element).
	ActionDeactivate
	// ActionRemove drops the slot entirely after it fires (end-tag
	// handlers attached dynamically via element.on_end_tag).
	ActionRemove
)

// SelectorHandlersLocator records, for one compiled selector, which slot
// index (if any) it registered in each of the element/comment/text
// handler vectors. nil fields mean "this selector has no handler of that
// kind". Mirrors content_handlers.rs's SelectorHandlersLocator.
type SelectorHandlersLocator struct {
	ElementHandlerIdx *int
	CommentHandlerIdx *int
	TextHandlerIdx    *int
}
