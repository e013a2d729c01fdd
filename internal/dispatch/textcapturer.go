package dispatch

import (
	"github.com/dpotapov/htmlrewriter/internal/treebuilder"
	"golang.org/x/text/transform"
)

// DecodedChunk is one decoded slice of a text node: spec.md §4.6's
// TextChunk before the root package wraps it in a mutable façade.
type DecodedChunk struct {
	Text     string
	TextType treebuilder.TextType
	// Last is true for the terminating, possibly-empty chunk that closes
	// out a text node (spec.md §3's last_in_text_node).
	Last bool
}

// TextCapturer owns the streaming decoder and reusable UTF-8 buffer
// spec.md §4.6 assigns to the dispatcher. Consecutive raw Text lexemes of
// the same TextType are fed to it; it decodes incrementally and reuses
// its buffer across calls, growing it whenever the decoder reports that
// the buffer is too short.
//
// Grounded on original_source/src/token/capturer.rs's emit_text/
// flush_pending_text loop: encoding_rs's Decoder::decode_to_str has the
// same "decode as far as the buffer allows, emit, repeat until input
// exhausted" shape as golang.org/x/text/transform.Transformer.Transform.
type TextCapturer struct {
	newDecoder func() transform.Transformer
	decoder    transform.Transformer
	buf        []byte
	lastType   treebuilder.TextType
	pending    bool // a decoder is open: a Last chunk is still owed
	// carry holds the tail of a multi-byte sequence split across two Feed
	// calls by a chunk boundary; src is ephemeral (borrowed from the
	// caller's lexeme) so it must be copied out, not just re-sliced.
	carry []byte
}

// NewTextCapturer returns a TextCapturer that builds a fresh decoder (via
// newDecoder) each time text resumes after a flush. newDecoder is a
// factory rather than a single shared Transformer because
// transform.Transformer instances are generally stateful and must be
// reset between independent text runs.
func NewTextCapturer(newDecoder func() transform.Transformer) *TextCapturer {
	return &TextCapturer{
		newDecoder: newDecoder,
		buf:        make([]byte, 1024),
	}
}

// Feed decodes one raw Text lexeme's bytes of the given text type,
// calling emit for every chunk produced. If textType differs from the
// type of text currently being accumulated, the prior run is flushed
// (emit gets its Last chunk) before decoding resumes under the new type.
func (c *TextCapturer) Feed(raw []byte, textType treebuilder.TextType, emit func(DecodedChunk)) {
	if c.pending && textType != c.lastType {
		c.Flush(emit)
	}
	c.lastType = textType
	if c.decoder == nil {
		c.decoder = c.newDecoder()
		c.pending = true
	}
	c.decode(raw, false, emit)
}

// Flush emits the terminating Last chunk for the text node currently
// being accumulated, if any, and resets the decoder so the next Feed
// starts a fresh run. Called when the text type changes or a non-text
// token arrives (spec.md §4.6).
func (c *TextCapturer) Flush(emit func(DecodedChunk)) {
	if !c.pending {
		return
	}
	c.decode(nil, true, emit)
	c.decoder = nil
	c.pending = false
}

func (c *TextCapturer) decode(raw []byte, atEOF bool, emit func(DecodedChunk)) {
	src := raw
	if len(c.carry) > 0 {
		src = append(c.carry, raw...)
		c.carry = nil
	}

	consumed := 0
	for {
		nDst, nSrc, err := c.decoder.Transform(c.buf, src[consumed:], atEOF)
		consumed += nSrc

		if nDst > 0 || (atEOF && err == nil) {
			emit(DecodedChunk{
				Text:     string(c.buf[:nDst]),
				TextType: c.lastType,
				Last:     atEOF && err == nil,
			})
		}

		switch err {
		case transform.ErrShortDst:
			c.growBuf()
			continue
		case transform.ErrShortSrc:
			// A multi-byte sequence straddles this chunk's end; carry
			// the unconsumed tail over to the next Feed call for this
			// text run (atEOF never sets ErrShortSrc - the decoder
			// treats a truncated tail as an error or replacement then).
			c.carry = append([]byte{}, src[consumed:]...)
			return
		default:
			return
		}
	}
}

func (c *TextCapturer) growBuf() {
	c.buf = make([]byte, len(c.buf)*2)
}
