package rewritestream

import (
	"errors"
	"fmt"
)

// ErrWriteAfterEnd and ErrEndAfterEnd mirror original_source's
// TransformStreamError enum (transform_stream/mod.rs), restated as
// sentinel errors in the teacher's style (chtml/err.go favors
// errors.New sentinels for payload-less conditions).
var (
	ErrWriteAfterEnd = errors.New("htmlrewriter: write called after the stream has ended")
	ErrEndAfterEnd   = errors.New("htmlrewriter: end called on a stream that has already ended")
)

// bufferErrorContext explains a MemoryLimitExceeded error surfaced while
// retaining blocked bytes across a write boundary - same rationale as
// transform_stream.rs's BUFFER_ERROR_CONTEXT constant.
const bufferErrorContext = "caused by the parser encountering an extremely long tag or comment that a selector has captured"

// bufferError wraps an underlying memlimit error with the context above,
// following chtml/err.go's wrap-with-Unwrap pattern.
type bufferError struct {
	err error
}

func (e *bufferError) Error() string {
	return fmt.Sprintf("%s: %s", bufferErrorContext, e.err)
}

func (e *bufferError) Unwrap() error { return e.err }

// PoisonedError reports that a prior write or end call failed and the
// stream can no longer make progress (spec.md §5: "after any error, the
// stream is poisoned").
type PoisonedError struct {
	Cause error
}

func (e *PoisonedError) Error() string {
	return fmt.Sprintf("htmlrewriter: stream is poisoned by a prior error: %s", e.Cause)
}

func (e *PoisonedError) Unwrap() error { return e.Cause }
