package htmlrewriter

import (
	"errors"
	"sync/atomic"

	"golang.org/x/text/transform"

	"github.com/dpotapov/htmlrewriter/encoding"
	"github.com/dpotapov/htmlrewriter/internal/dispatch"
	"github.com/dpotapov/htmlrewriter/internal/memlimit"
	"github.com/dpotapov/htmlrewriter/internal/rewritestream"
	"github.com/dpotapov/htmlrewriter/internal/selector"
)

// MemorySettings bounds the parser's cross-chunk retention buffer
// (spec.md §6's memory_settings).
type MemorySettings struct {
	// PreallocatedParsingBufferSize is charged up front, the way
	// internal/memlimit.NewBuffer's preallocate argument works. Defaults
	// to 1024 bytes when zero.
	PreallocatedParsingBufferSize uint64
	// MaxAllowedMemoryUsage caps aggregate buffered bytes; 0 means
	// unbounded (internal/memlimit.Limiter's contract).
	MaxAllowedMemoryUsage uint64
}

func (m MemorySettings) preallocOrDefault() int {
	if m.PreallocatedParsingBufferSize == 0 {
		return 1024
	}
	return int(m.PreallocatedParsingBufferSize)
}

// Settings configures a Rewriter (spec.md §6's construction inputs).
type Settings struct {
	// Encoding is a charset label (e.g. "utf-8", "windows-1252"). Empty
	// resolves to UTF-8.
	Encoding string
	// MemorySettings bounds cross-chunk buffering.
	MemorySettings MemorySettings
	// EnableESITags marks comments shaped like `<!--esi ... -->` so
	// document/element comment handlers can recognize them via
	// Comment.IsESI - this is a narrow approximation, not full ESI
	// grammar support.
	EnableESITags bool
	// Strict turns a tree-builder ambiguity (spec.md §4.3, §7) into a
	// fatal stream error instead of a best-effort fallback.
	Strict bool
	// AdjustCharsetOnMetaTag rewrites a <meta charset> (or
	// http-equiv="Content-Type") tag's declared value to match Encoding.
	AdjustCharsetOnMetaTag bool
}

// Builder accumulates selector-scoped and document-scoped handler
// registrations before Build compiles them into a Rewriter, the way the
// teacher's pages.Handler accumulates fields before ServeHTTP's
// sync.Once-guarded first-use initialization (SPEC_FULL.md §6).
type Builder struct {
	selectors []*selector.Selector
	handlers  []ElementContentHandlers
	doc       DocumentContentHandlers

	guard atomic.Bool
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// AddElementContentHandlers parses selectorString and registers handlers
// to fire for every element it matches. Returns ErrInvalidSelector
// (wrapping the parser's detail) if selectorString doesn't parse.
func (b *Builder) AddElementContentHandlers(selectorString string, handlers ElementContentHandlers) error {
	sel, err := selector.Parse(selectorString)
	if err != nil {
		return &RewriterError{Cause: errors.Join(ErrInvalidSelector, err)}
	}
	b.selectors = append(b.selectors, sel)
	b.handlers = append(b.handlers, handlers)
	return nil
}

// AddDocumentContentHandlers registers handlers that run for the whole
// document regardless of any selector (spec.md §6).
func (b *Builder) AddDocumentContentHandlers(handlers DocumentContentHandlers) {
	b.doc = handlers
}

// Build compiles every registered selector and constructs a Rewriter that
// writes output chunks to sink as it parses.
func (b *Builder) Build(settings Settings, sink func([]byte)) (*Rewriter, error) {
	enc, ok := encoding.Lookup(settings.Encoding)
	if !ok {
		return nil, &EncodingError{Kind: UnknownEncoding, Label: settings.Encoding}
	}
	if !enc.IsASCIICompatible() {
		return nil, &EncodingError{Kind: NonAsciiCompatibleEncoding, Label: enc.Name()}
	}

	prog, err := selector.Compile(b.selectors)
	if err != nil {
		return nil, &RewriterError{Cause: errors.Join(ErrInvalidSelector, err)}
	}

	documentFlags := dispatch.CaptureFlags(0)
	if b.doc.Doctype != nil {
		documentFlags |= dispatch.CaptureDoctypes
	}
	if b.doc.Comments != nil {
		documentFlags |= dispatch.CaptureComments
	}
	if b.doc.Text != nil {
		documentFlags |= dispatch.CaptureText
	}

	r := newRewriter(prog, b.handlers, b.doc, enc, documentFlags, settings, &b.guard)

	limiter := memlimit.New(settings.MemorySettings.MaxAllowedMemoryUsage)
	stream, err := rewritestream.New(
		r,
		rewritestream.OutputSinkFunc(sink),
		limiter,
		settings.MemorySettings.preallocOrDefault(),
		func() transform.Transformer { return enc.NewDecoder() },
	)
	if err != nil {
		return nil, &RewriterError{Cause: err}
	}
	r.stream = stream
	return r, nil
}
