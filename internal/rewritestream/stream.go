package rewritestream

import (
	"github.com/dpotapov/htmlrewriter/internal/memlimit"
	"golang.org/x/text/transform"
)

// Stream is the root package's §4.8 transform stream: it owns the
// dispatcher, the cross-chunk retention buffer, and the
// finished/poisoned lifecycle flags. Grounded on
// original_source/src/transform_stream/mod.rs's TransformStream, with
// Rust's assert!/panic-on-misuse replaced by Go-idiomatic sentinel
// errors for the two programmer-error cases spec.md §4.8 calls out
// ("write after end", "end called twice") and an explicit panic only for
// "write after poisoned" (spec.md §5: "further write panics as a
// programmer error").
type Stream struct {
	dispatcher *dispatcher
	buffer     *memlimit.Buffer

	hasBufferedData bool
	finished        bool
	poisoned        error
}

// New constructs a Stream. bufferCapacity is the preallocated parsing
// buffer size (spec.md §6's memory_settings.preallocated_parsing_buffer_size).
func New(controller Controller, sink OutputSink, limiter *memlimit.Limiter, bufferCapacity int, newDecoder func() transform.Transformer) (*Stream, error) {
	buf, err := memlimit.NewBuffer(limiter, bufferCapacity)
	if err != nil {
		return nil, &bufferError{err: err}
	}
	return &Stream{
		dispatcher: newDispatcher(controller, sink, newDecoder),
		buffer:     buf,
	}, nil
}

// Poisoned reports the error that poisoned the stream, if any.
func (s *Stream) Poisoned() error {
	if s.poisoned == nil {
		return nil
	}
	return &PoisonedError{Cause: s.poisoned}
}

func (s *Stream) bufferBlockedBytes(data []byte, blockedFrom int) error {
	blockedByteCount := len(data) - blockedFrom
	if s.hasBufferedData {
		s.buffer.ShrinkToLast(blockedByteCount)
	} else {
		if err := s.buffer.InitWith(data[blockedFrom:]); err != nil {
			return &bufferError{err: err}
		}
		s.hasBufferedData = true
	}
	return nil
}

// Write feeds one chunk of input bytes through the parser. It panics if
// called on a poisoned stream (a programmer error per spec.md §5), and
// returns ErrWriteAfterEnd if called after End.
func (s *Stream) Write(data []byte) error {
	if s.poisoned != nil {
		panic("htmlrewriter: write called on a poisoned stream")
	}
	if s.finished {
		return ErrWriteAfterEnd
	}

	chunk := data
	if s.hasBufferedData {
		if err := s.buffer.Append(data); err != nil {
			err = &bufferError{err: err}
			s.poisoned = err
			return err
		}
		chunk = s.buffer.Bytes()
	}

	blockedFrom, err := s.dispatcher.run(chunk)
	if err != nil {
		s.poisoned = err
		return err
	}

	if blockedFrom < len(chunk) {
		if err := s.bufferBlockedBytes(chunk, blockedFrom); err != nil {
			s.poisoned = err
			return err
		}
	} else {
		s.hasBufferedData = false
	}

	// Whatever chunk the next Write/End call passes starts fresh at
	// index 0, with only the bytes from blockedFrom onward retained (see
	// internal/memlimit.Buffer.ShrinkToLast) - rebase every scanner
	// offset to match, the same contract internal/lexer.Scanner.Rebase
	// documents.
	s.dispatcher.rebase(blockedFrom)

	return nil
}

// End signals end of input: it feeds a final (possibly empty) chunk so
// the parser produces EOF and the text decoder flushes, then invokes the
// document-end handler. It returns ErrEndAfterEnd if called twice. On a
// poisoned stream it does nothing and returns the *PoisonedError.
func (s *Stream) End() error {
	if s.poisoned != nil {
		return s.Poisoned()
	}
	if s.finished {
		return ErrEndAfterEnd
	}
	s.finished = true

	var last []byte
	if s.hasBufferedData {
		last = s.buffer.Bytes()
	}

	if err := s.dispatcher.finish(last); err != nil {
		s.poisoned = err
		return err
	}
	return nil
}
