// Package rewritestream implements spec.md §4.8: the component that owns
// the parser, drives it chunk by chunk, and emits bytes to an output sink
// in strict source order while a shared memory limiter bounds cross-chunk
// buffering. Grounded on original_source/src/transform_stream/mod.rs (the
// write/end lifecycle, the has_buffered_data/finished bookkeeping) and
// src/transform_stream/dispatcher.rs (the per-lexeme passthrough-vs-token
// accounting), restated around this module's two-mode Scanner instead of
// a single resumable tokenizer instance.
package rewritestream

import (
	"github.com/dpotapov/htmlrewriter/internal/dispatch"
	"github.com/dpotapov/htmlrewriter/internal/lexer"
	"github.com/dpotapov/htmlrewriter/internal/treebuilder"
)

// OutputSink receives emitted byte chunks in strict source order (spec.md
// §4.8, §6). Chunks are not guaranteed to align with lexeme boundaries.
type OutputSink interface {
	HandleChunk(chunk []byte)
}

// OutputSinkFunc adapts a plain func([]byte) to OutputSink, mirroring
// dispatcher.rs's blanket impl for FnMut(&[u8]).
type OutputSinkFunc func([]byte)

func (f OutputSinkFunc) HandleChunk(chunk []byte) { f(chunk) }

// Controller is implemented by the root package's rewriter core. It owns
// selector matching, handler dispatch, and mutation application; this
// package owns only parser-mode bookkeeping and strict-source-order byte
// emission. Rust's TransformController trait (writer.rs) is split in two
// here only where Go's lack of trait objects forces it: everything else
// - the tag-hint/promote-to-lex-mode decision, the per-lexeme handling,
// text decoding - keeps the same shape.
type Controller interface {
	// InitialCaptureFlags seeds the parser's starting mode before any tag
	// has been seen; document-level handlers are always active.
	InitialCaptureFlags() dispatch.CaptureFlags

	// CaptureFlags reports the live flags, consulted before every lexeme
	// boundary so newly (de)activated selector matches take effect
	// promptly (content_handlers.rs's has_active()).
	CaptureFlags() dispatch.CaptureFlags

	// TagHint is consulted once per tag before attribute data is
	// available (writer.rs's get_token_capture_flags_for_tag_preview).
	// needsAttributes requests that this same tag be re-parsed in Lex
	// mode before Lexeme is called (writer.rs's
	// RequestElementModifiersInfo case) - always false for end tags,
	// which carry no meaningful attributes.
	TagHint(hint lexer.TagHint, buf []byte) (flags dispatch.CaptureFlags, needsAttributes bool)

	// Lexeme is called once a non-text lexeme has been fully captured.
	// emit is invoked with replacement bytes; if never invoked, the
	// dispatcher falls back to the lexeme's untouched raw bytes.
	Lexeme(lex lexer.Lexeme, buf []byte, emit func([]byte)) error

	// Text is called only while CaptureText is active; chunk.Last marks
	// the terminating empty-payload flush (spec.md §4.6).
	Text(chunk dispatch.DecodedChunk, emit func([]byte)) error

	// TextTypeFeedback reports the tree-builder simulator's current
	// decision after the most recently handled start/end tag, so the
	// dispatcher can reconfigure its scanners before the next Step
	// (spec.md §4.3's Feedback/Fulfill* protocol; applied between
	// lexemes only, never mid-tag).
	TextTypeFeedback() (textType treebuilder.TextType, allowCData bool)

	// EndDocument is invoked once, after the final chunk has produced EOF
	// and the text decoder has flushed, giving a DocumentEnd handler (if
	// any) a chance to emit trailing bytes.
	EndDocument(emit func([]byte)) error
}
