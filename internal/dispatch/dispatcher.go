package dispatch

import "github.com/dpotapov/htmlrewriter/internal/lexer"

// ShouldCapture reports whether a lexeme of the given kind should be
// promoted to a rewritable unit under the current flags, direct port of
// capturer.rs's handle_non_textual_content match arms (Text is handled
// separately by TextCapturer, which always decodes whenever
// CaptureText is set).
func ShouldCapture(kind lexer.TokenKind, flags CaptureFlags) bool {
	switch kind {
	case lexer.TokenComment:
		return flags.Has(CaptureComments)
	case lexer.TokenStartTag:
		return flags.Has(CaptureStartTags)
	case lexer.TokenEndTag:
		return flags.Has(CaptureEndTags)
	case lexer.TokenDoctype:
		return flags.Has(CaptureDoctypes)
	case lexer.TokenText:
		return flags.Has(CaptureText)
	default:
		return false
	}
}

// Counters tracks the five activity totals (doctype, comment, text,
// end-tag and element handlers) the parser's capture-flags decision
// needs, without owning the handlers themselves (the root package keeps
// those in its own slices, indexed by selector payload). The root package
// calls the Note* methods whenever a handler becomes active or inactive,
// and calls Flags to get the bitset to hand the parser - splitting the
// generic "is anything active" bookkeeping from the concretely-typed
// handler storage.
type Counters struct {
	doctypeActive int
	commentActive int
	textActive    int
	endTagActive  int
	elementActive int
	documentFlags CaptureFlags
}

// NewCounters seeds the bitset with the document-level handlers, which
// are active for the lifetime of the rewriter (spec.md §4.6).
func NewCounters(documentFlags CaptureFlags) *Counters {
	return &Counters{documentFlags: documentFlags}
}

func (c *Counters) NoteDoctypeActive(delta int) { c.doctypeActive += delta }
func (c *Counters) NoteCommentActive(delta int) { c.commentActive += delta }
func (c *Counters) NoteTextActive(delta int)    { c.textActive += delta }
func (c *Counters) NoteEndTagActive(delta int)  { c.endTagActive += delta }
func (c *Counters) NoteElementActive(delta int) { c.elementActive += delta }

// Flags computes the current TokenCaptureFlags bitset by ORing
// "has active" across every vector, same as
// content_handlers.rs's get_token_capture_flags.
func (c *Counters) Flags() CaptureFlags {
	flags := c.documentFlags
	if c.doctypeActive > 0 {
		flags |= CaptureDoctypes
	}
	if c.commentActive > 0 {
		flags |= CaptureComments
	}
	if c.textActive > 0 {
		flags |= CaptureText
	}
	if c.endTagActive > 0 {
		flags |= CaptureEndTags
	}
	if c.elementActive > 0 {
		flags |= CaptureStartTags
	}
	return flags
}

// RemovedContentTracker counts how many currently-open elements have had
// their content suppressed by a remove() mutation, mirroring
// handlers_dispatcher.rs's matched_elements_with_removed_content: while
// positive, every start tag's own mutations are force-removed too (a
// start tag nested inside removed content can't reappear on its own).
type RemovedContentTracker struct {
	count int
}

func (t *RemovedContentTracker) Mark()        { t.count++ }
func (t *RemovedContentTracker) Unmark()      { t.count-- }
func (t *RemovedContentTracker) Active() bool { return t.count > 0 }
