package rewritestream

import (
	"github.com/dpotapov/htmlrewriter/internal/dispatch"
	"github.com/dpotapov/htmlrewriter/internal/lexer"
	"golang.org/x/text/transform"
)

// dispatcher drives a pair of Scanners (one in hint mode, one in Lex
// mode) over successive Write buffers, decides per-tag whether attribute
// data is needed, and emits bytes to sink in strict source order. It
// never buffers bytes itself - Stream owns the cross-chunk retention
// buffer and only ever calls feed with a single contiguous slice.
type dispatcher struct {
	controller Controller
	sink       OutputSink

	hint *lexer.Scanner
	lex  *lexer.Scanner

	textCap        *dispatch.TextCapturer
	textCapPending bool

	lastConsumedEnd int
}

func newDispatcher(controller Controller, sink OutputSink, newDecoder func() transform.Transformer) *dispatcher {
	hint := lexer.New()
	hint.Mode = lexer.WherePossibleScanForTagsOnly

	lex := lexer.New()
	lex.Mode = lexer.Lex

	return &dispatcher{
		controller: controller,
		sink:       sink,
		hint:       hint,
		lex:        lex,
		textCap:    dispatch.NewTextCapturer(newDecoder),
	}
}

func (d *dispatcher) emit(b []byte) {
	if len(b) > 0 {
		d.sink.HandleChunk(b)
	}
}

// passthrough flushes buf[lastConsumedEnd:upTo) untouched, then advances
// lastConsumedEnd to upTo. Used both for the gap before a lexeme/hint and
// for the lexeme/hint's own bytes when nothing captured it.
func (d *dispatcher) passthrough(buf []byte, upTo int) {
	if upTo > d.lastConsumedEnd {
		d.emit(buf[d.lastConsumedEnd:upTo])
		d.lastConsumedEnd = upTo
	}
}

func (d *dispatcher) flushTextIfPending() error {
	if !d.textCapPending {
		return nil
	}
	d.textCapPending = false
	var err error
	d.textCap.Flush(func(chunk dispatch.DecodedChunk) {
		if e := d.controller.Text(chunk, d.emit); e != nil && err == nil {
			err = e
		}
	})
	return err
}

func (d *dispatcher) syncScanners() {
	textType, allowCData := d.controller.TextTypeFeedback()
	for _, s := range [...]*lexer.Scanner{d.hint, d.lex} {
		s.SetTextType(textType)
		s.SetAllowCData(allowCData)
	}
}

// rebase shifts both scanners' internal offsets after Stream retains only
// the trailing N bytes of the current buffer (mirrors
// internal/memlimit.Buffer.ShrinkToLast's contract).
func (d *dispatcher) rebase(by int) {
	d.hint.Rebase(by)
	d.lex.Rebase(by)
	d.lastConsumedEnd -= by
	if d.lastConsumedEnd < 0 {
		d.lastConsumedEnd = 0
	}
}

// run drives both scanners over buf starting at 0 and returns the byte
// offset (relative to buf) from which bytes must be retained for the next
// chunk - len(buf) means nothing is blocked.
func (d *dispatcher) run(buf []byte) (blockedFrom int, err error) {
	d.lastConsumedEnd = 0
	pos := 0

	for {
		cp := d.hint.Checkpoint()
		start := pos
		res, next := d.hint.Step(buf, pos)

		switch res.Kind {
		case lexer.StepNone:
			d.passthrough(buf, res.BlockedFrom)
			return res.BlockedFrom, nil

		case lexer.StepLexeme:
			// Only comments, doctypes, and text ever surface directly from
			// the hint scanner - tags always come back as StepTagHint while
			// its Mode is WherePossibleScanForTagsOnly (see scanner.go).
			if err := d.handleLexeme(buf, res.Lexeme); err != nil {
				return 0, err
			}
			pos = next

		case lexer.StepTagHint:
			flags, needsAttrs := d.controller.TagHint(res.Hint, buf)

			switch {
			case !res.Hint.IsEndTag && (needsAttrs || flags.Has(dispatch.CaptureStartTags)):
				d.lex.Restore(cp)
				lres, lnext := d.lex.Step(buf, start)
				if lres.Kind == lexer.StepNone {
					d.passthrough(buf, lres.BlockedFrom)
					return lres.BlockedFrom, nil
				}
				if err := d.handleLexeme(buf, lres.Lexeme); err != nil {
					return 0, err
				}
				pos = lnext

			case res.Hint.IsEndTag && flags.Has(dispatch.CaptureEndTags):
				if err := d.handleLexeme(buf, hintToEndTagLexeme(res.Hint)); err != nil {
					return 0, err
				}
				pos = next

			default:
				if err := d.flushTextIfPending(); err != nil {
					return 0, err
				}
				d.passthrough(buf, res.Hint.Raw.End)
				pos = next
			}

			d.syncScanners()
		}
	}
}

func hintToEndTagLexeme(hint lexer.TagHint) lexer.Lexeme {
	return lexer.Lexeme{
		Token: lexer.TokenOutline{
			Kind:        lexer.TokenEndTag,
			NameRange:   hint.NameRange,
			NameHash:    hint.NameHash,
			HasNameHash: hint.HasNameHash,
			SelfClosing: hint.SelfClosing,
		},
		Raw: hint.Raw,
	}
}

func (d *dispatcher) handleLexeme(buf []byte, lex lexer.Lexeme) error {
	if lex.Token.Kind == lexer.TokenText {
		return d.handleText(buf, lex)
	}

	if err := d.flushTextIfPending(); err != nil {
		return err
	}

	// Tags only arrive here once run has decided, from TagHint's answer,
	// to capture them; comments and doctypes follow the live flags.
	flags := d.controller.CaptureFlags()
	isTag := lex.Token.Kind == lexer.TokenStartTag || lex.Token.Kind == lexer.TokenEndTag
	if !isTag && !dispatch.ShouldCapture(lex.Token.Kind, flags) {
		d.passthrough(buf, lex.Raw.Start)
		d.passthrough(buf, lex.Raw.End)
		return nil
	}

	d.passthrough(buf, lex.Raw.Start)
	var callErr error
	produced := false
	if err := d.controller.Lexeme(lex, buf, func(b []byte) {
		produced = true
		d.emit(b)
	}); err != nil {
		callErr = err
	}
	if !produced {
		d.emit(buf[lex.Raw.Start:lex.Raw.End])
	}
	d.lastConsumedEnd = lex.Raw.End

	return callErr
}

func (d *dispatcher) handleText(buf []byte, lex lexer.Lexeme) error {
	flags := d.controller.CaptureFlags()
	if !flags.Has(dispatch.CaptureText) {
		if err := d.flushTextIfPending(); err != nil {
			return err
		}
		d.passthrough(buf, lex.Raw.Start)
		d.passthrough(buf, lex.Raw.End)
		return nil
	}

	d.passthrough(buf, lex.Raw.Start)
	d.textCapPending = true
	var err error
	d.textCap.Feed(buf[lex.Raw.Start:lex.Raw.End], lex.Token.TextType, func(chunk dispatch.DecodedChunk) {
		if e := d.controller.Text(chunk, d.emit); e != nil && err == nil {
			err = e
		}
	})
	d.lastConsumedEnd = lex.Raw.End
	return err
}

// finish feeds a final (possibly empty) chunk so the scanners produce
// whatever trailing lexeme the buffered bytes complete, handles any bytes
// still blocked at end of input as text, flushes any pending text decode,
// and invokes Controller.EndDocument.
func (d *dispatcher) finish(buf []byte) error {
	blockedFrom, err := d.run(buf)
	if err != nil {
		return err
	}
	if blockedFrom < len(buf) {
		tail := lexer.Lexeme{
			Token: lexer.TokenOutline{Kind: lexer.TokenText, TextType: d.hint.Checkpoint().TextType},
			Raw:   lexer.ByteRange{Start: blockedFrom, End: len(buf)},
		}
		if err := d.handleLexeme(buf, tail); err != nil {
			return err
		}
	}
	if err := d.flushTextIfPending(); err != nil {
		return err
	}
	return d.controller.EndDocument(d.emit)
}
