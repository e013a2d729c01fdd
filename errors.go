package htmlrewriter

import (
	"errors"
	"fmt"
)

// Construction-time sentinels: no payload, so these follow chtml/err.go's
// ErrComponentNotFound/ErrImportNotAllowed style (package-level errors.New
// vars) rather than typed structs.
var (
	ErrUnknownEncoding            = errors.New("htmlrewriter: unknown encoding label")
	ErrNonASCIICompatibleEncoding = errors.New("htmlrewriter: encoding is not ASCII-compatible")
	ErrInvalidSelector            = errors.New("htmlrewriter: invalid selector")
	ErrNoEndTag                   = errors.New("htmlrewriter: element cannot have an end tag")
	ErrConcurrencyAmbiguity       = errors.New("htmlrewriter: write or end called re-entrantly from a handler of another stream built from the same builder")
)

// EncodingErrorKind discriminates the two ways a requested encoding label
// can fail to resolve (spec.md §6).
type EncodingErrorKind int

const (
	UnknownEncoding EncodingErrorKind = iota
	NonAsciiCompatibleEncoding
)

// EncodingError reports a construction-time failure to resolve the
// requested document encoding.
type EncodingError struct {
	Kind  EncodingErrorKind
	Label string
}

func (e *EncodingError) Error() string {
	switch e.Kind {
	case NonAsciiCompatibleEncoding:
		return fmt.Sprintf("htmlrewriter: encoding %q is not ASCII-compatible", e.Label)
	default:
		return fmt.Sprintf("htmlrewriter: unknown encoding %q", e.Label)
	}
}

func (e *EncodingError) Unwrap() error {
	if e.Kind == NonAsciiCompatibleEncoding {
		return ErrNonASCIICompatibleEncoding
	}
	return ErrUnknownEncoding
}

// ValidationErrorKind enumerates the reasons a user-supplied tag name,
// attribute name, or comment text can be rejected (spec.md §4.7).
type ValidationErrorKind int

const (
	Empty ValidationErrorKind = iota
	InvalidFirstCharacter
	ForbiddenCharacter
	UnencodableCharacter
	CommentClosingSequence
)

// ValidationError is returned to the caller of a mutation method (e.g.
// StartTag.SetName, Element.SetAttribute) and leaves the rewritable unit
// unchanged (spec.md §7: "non-fatal to stream").
type ValidationError struct {
	Kind ValidationErrorKind
	// Ch is set for ForbiddenCharacter and UnencodableCharacter.
	Ch rune
}

func (e *ValidationError) Error() string {
	switch e.Kind {
	case Empty:
		return "htmlrewriter: value must not be empty"
	case InvalidFirstCharacter:
		return "htmlrewriter: first character must be an ASCII letter"
	case ForbiddenCharacter:
		return fmt.Sprintf("htmlrewriter: forbidden character %q", e.Ch)
	case UnencodableCharacter:
		return fmt.Sprintf("htmlrewriter: character %q is not representable in the document encoding", e.Ch)
	case CommentClosingSequence:
		return `htmlrewriter: comment text must not contain "-->"`
	default:
		return "htmlrewriter: validation error"
	}
}

func (e *ValidationError) Is(target error) bool {
	var ve *ValidationError
	if errors.As(target, &ve) {
		return e.Kind == ve.Kind
	}
	return false
}

// MemoryLimitExceeded reports that a buffer growth or allocation would
// have pushed the shared limiter's usage above its configured maximum
// (spec.md §7: "runtime, fatal to stream"). No code path in this package
// returns it: Build, Write and End report a memory-limit failure through
// an error that wraps internal/memlimit's ExceededError.
type MemoryLimitExceeded struct {
	Current, Max uint64
}

func (e *MemoryLimitExceeded) Error() string {
	return fmt.Sprintf("htmlrewriter: memory limit exceeded: current %d, max %d", e.Current, e.Max)
}

// TextParsingAmbiguity reports an ambiguity-guard violation observed while
// strict mode is on (spec.md §4.3, §8 scenario 5: "parsing-ambiguity error
// citing script"). No code path in this package returns it: in strict
// mode an ambiguity comes back from Write or End as a *RewriterError
// whose Cause is the tree builder's AmbiguityError.
type TextParsingAmbiguity struct {
	Tag string
}

func (e *TextParsingAmbiguity) Error() string {
	return fmt.Sprintf("htmlrewriter: parsing ambiguity near <%s>: ambiguous insertion-mode state under strict mode", e.Tag)
}

// HandlerStopped wraps the error a content handler returned to request
// that the current write/end call abort (spec.md §5: "a stop return
// aborts the current write/end with an error").
type HandlerStopped struct {
	Err error
}

func (e *HandlerStopped) Error() string {
	if e.Err == nil {
		return "htmlrewriter: handler requested stop"
	}
	return fmt.Sprintf("htmlrewriter: handler requested stop: %s", e.Err)
}

func (e *HandlerStopped) Unwrap() error { return e.Err }

// RewriterError wraps the errors Build returns and, in strict mode, the
// parsing-ambiguity error with which Write or End poison the stream.
// Write and End return other failures without this wrapper: a handler
// stop as *HandlerStopped, and a buffer or memory-limit failure as the
// stream's own buffer error.
type RewriterError struct {
	Cause error
}

func (e *RewriterError) Error() string {
	return fmt.Sprintf("htmlrewriter: %s", e.Cause)
}

func (e *RewriterError) Unwrap() error { return e.Cause }
