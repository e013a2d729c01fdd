package htmlrewriter

import (
	"strings"
	"sync/atomic"

	nethtml "golang.org/x/net/html"

	"github.com/dpotapov/htmlrewriter/encoding"
	"github.com/dpotapov/htmlrewriter/internal/dispatch"
	"github.com/dpotapov/htmlrewriter/internal/lexer"
	"github.com/dpotapov/htmlrewriter/internal/rewritestream"
	"github.com/dpotapov/htmlrewriter/internal/selector"
	"github.com/dpotapov/htmlrewriter/internal/treebuilder"
)

// pendingStartTagRequest records a tree-builder simulator request that
// can only be resolved once attribute data is available (spec.md §4.3's
// Feedback/Fulfill protocol - the font-exit and annotation-xml checks).
type pendingStartTagRequest struct {
	reason treebuilder.StartTagRequestReason
}

// Rewriter drives the parser/selector/tree-builder machinery behind one
// rewritestream.Stream and implements rewritestream.Controller. Build it
// with Builder.Build; construct directly is not exported since a
// Rewriter is only ever meaningful paired with the Stream Build wires up.
type Rewriter struct {
	stream *rewritestream.Stream
	guard  *atomic.Bool

	enc           *encoding.Encoding
	strict        bool
	enableESI     bool
	adjustCharset bool

	vm        *selector.VM
	simulator *treebuilder.Simulator
	counters  *dispatch.Counters

	handlers []ElementContentHandlers // indexed by selector.PayloadID
	doc      DocumentContentHandlers

	activeComment []int // refcount per PayloadID
	activeText    []int // refcount per PayloadID

	// openElements mirrors selector.VM's internal stack one-for-one:
	// every non-void MatchStartTagWithAttributes push gets exactly one
	// entry here (nil for an unmatched element), so VM.PopEndTag's onPop
	// callbacks - which only hand back payloads, not the façade - can be
	// correlated to the right *Element (DESIGN.md's grounding note).
	openElements []*Element

	innerContentDepth int

	doctypeFired bool

	currentTextType   treebuilder.TextType
	currentAllowCData bool

	pendingRequest *pendingStartTagRequest

	// pendingClosed is stashed by the end-tag half of TagHint for the
	// Lexeme call the dispatcher makes immediately afterward for the
	// same tag (single-threaded, no overlap possible).
	pendingClosed []*Element

	fatalErr error
}

func newRewriter(
	prog *selector.Program,
	handlers []ElementContentHandlers,
	doc DocumentContentHandlers,
	enc *encoding.Encoding,
	documentFlags dispatch.CaptureFlags,
	settings Settings,
	guard *atomic.Bool,
) *Rewriter {
	return &Rewriter{
		guard:         guard,
		enc:           enc,
		strict:        settings.Strict,
		enableESI:     settings.EnableESITags,
		adjustCharset: settings.AdjustCharsetOnMetaTag,
		vm:            selector.New(prog),
		simulator:     treebuilder.New(),
		counters:      dispatch.NewCounters(documentFlags),
		handlers:      handlers,
		doc:           doc,
		activeComment: make([]int, len(handlers)),
		activeText:    make([]int, len(handlers)),
	}
}

// Write feeds data through the stream. See internal/rewritestream.Stream.Write.
func (r *Rewriter) Write(data []byte) error {
	if !r.guard.CompareAndSwap(false, true) {
		return ErrConcurrencyAmbiguity
	}
	defer r.guard.Store(false)
	return r.stream.Write(data)
}

// End signals end of input. See internal/rewritestream.Stream.End.
func (r *Rewriter) End() error {
	if !r.guard.CompareAndSwap(false, true) {
		return ErrConcurrencyAmbiguity
	}
	defer r.guard.Store(false)
	return r.stream.End()
}

// ---- rewritestream.Controller ----

func (r *Rewriter) InitialCaptureFlags() dispatch.CaptureFlags { return r.counters.Flags() }

// CaptureFlags also captures text and comments while content is
// suppressed, so those bytes reach Text/Lexeme and are dropped there.
func (r *Rewriter) CaptureFlags() dispatch.CaptureFlags {
	flags := r.counters.Flags()
	if r.contentSuppressed() {
		flags |= dispatch.CaptureText | dispatch.CaptureComments
	}
	return flags
}

func (r *Rewriter) TextTypeFeedback() (treebuilder.TextType, bool) {
	return r.currentTextType, r.currentAllowCData
}

func (r *Rewriter) applyFeedback(fb treebuilder.Feedback) {
	switch fb.Kind {
	case treebuilder.FeedbackSwitchTextType:
		r.currentTextType = fb.TextType
	case treebuilder.FeedbackSetAllowCData:
		r.currentAllowCData = fb.AllowCData
	}
}

func (r *Rewriter) contentSuppressed() bool {
	return r.vm.ContentRemoved() || r.innerContentDepth > 0
}

func (r *Rewriter) isVoidPush(name string, selfClosing bool) bool {
	if voidElements[strings.ToLower(name)] {
		return true
	}
	return selfClosing && r.simulator.CurrentNamespace() != treebuilder.HTML
}

// adjustMetaCharset rewrites a <meta charset> or <meta http-equiv=
// Content-Type content="...charset=..."> tag's declared value to the
// document's real encoding label (spec.md §6's AdjustCharsetOnMetaTag).
func (r *Rewriter) adjustMetaCharset(tag *StartTag) {
	if !strings.EqualFold(tag.name, "meta") {
		return
	}
	if v, _ := tag.GetAttribute("charset"); v != "" {
		_ = tag.SetAttribute("charset", r.enc.Name())
		return
	}
	httpEquiv, _ := tag.GetAttribute("http-equiv")
	if !strings.EqualFold(httpEquiv, "content-type") {
		return
	}
	content, ok := tag.GetAttribute("content")
	if !ok {
		return
	}
	idx := strings.Index(strings.ToLower(content), "charset=")
	if idx < 0 {
		return
	}
	_ = tag.SetAttribute("content", content[:idx+len("charset=")]+r.enc.Name())
}

func (r *Rewriter) activeCommentPayloads() []selector.PayloadID {
	var out []selector.PayloadID
	for pid, n := range r.activeComment {
		if n > 0 {
			out = append(out, selector.PayloadID(pid))
		}
	}
	return out
}

func (r *Rewriter) activeTextPayloads() []selector.PayloadID {
	var out []selector.PayloadID
	for pid, n := range r.activeText {
		if n > 0 {
			out = append(out, selector.PayloadID(pid))
		}
	}
	return out
}

func (r *Rewriter) pushOpenElement(el *Element, payloads []selector.PayloadID, void bool) {
	if void {
		return
	}
	r.openElements = append(r.openElements, el)
	for _, pid := range payloads {
		h := r.handlers[pid]
		if h.Comments != nil {
			r.activeComment[pid]++
			r.counters.NoteCommentActive(1)
		}
		if h.Text != nil {
			r.activeText[pid]++
			r.counters.NoteTextActive(1)
		}
	}
	if el != nil {
		r.counters.NoteEndTagActive(1)
		if el.hasInnerContent {
			r.innerContentDepth++
		}
	}
}

func (r *Rewriter) popOpenElement() *Element {
	n := len(r.openElements)
	el := r.openElements[n-1]
	r.openElements = r.openElements[:n-1]
	return el
}

func (r *Rewriter) deactivatePayloads(payloads []selector.PayloadID) {
	for _, pid := range payloads {
		h := r.handlers[pid]
		if h.Comments != nil {
			r.activeComment[pid]--
			r.counters.NoteCommentActive(-1)
		}
		if h.Text != nil {
			r.activeText[pid]--
			r.counters.NoteTextActive(-1)
		}
	}
}

func checkStop(res HandlerResult, err error) error {
	if err != nil {
		return err
	}
	if res == Stop {
		return &HandlerStopped{Err: err}
	}
	return nil
}

func buildAttributes(outlines []lexer.AttrOutline, buf []byte) []Attribute {
	if len(outlines) == 0 {
		return nil
	}
	attrs := make([]Attribute, len(outlines))
	for i, a := range outlines {
		attrs[i] = Attribute{
			Name:  string(buf[a.Name.Start:a.Name.End]),
			Value: string(buf[a.Value.Start:a.Value.End]),
		}
	}
	return attrs
}

func getAttrValue(attrs []Attribute, name string) string {
	for _, a := range attrs {
		if strings.EqualFold(a.Name, name) {
			return a.Value
		}
	}
	return ""
}

// TagHint decides, for one tag, whether the dispatcher needs to re-parse
// it with attribute data before Lexeme is called (spec.md §4.5/§4.6), and
// threads tag sightings through the tree-builder simulator regardless of
// capture decisions (the simulator, and selector.VM's open-element stack,
// must see every tag - matched or not - to stay correctly synchronized).
func (r *Rewriter) TagHint(hint lexer.TagHint, buf []byte) (dispatch.CaptureFlags, bool) {
	name := string(buf[hint.NameRange.Start:hint.NameRange.End])
	if hint.IsEndTag {
		return r.tagHintEndTag(name, hint), false
	}
	return r.tagHintStartTag(name, hint)
}

func (r *Rewriter) tagHintEndTag(name string, hint lexer.TagHint) dispatch.CaptureFlags {
	fb := r.simulator.FeedbackForEndTag(name, true)
	r.applyFeedback(fb)

	ancestorSuppressed := r.contentSuppressed()

	var closed []*Element
	hasTrackedClosure := false
	if hint.HasNameHash {
		hash := selector.NameHash(hint.NameHash)
		r.vm.PopEndTag(hash, func(payloads []selector.PayloadID, removeContent bool) {
			el := r.popOpenElement()
			r.deactivatePayloads(payloads)
			if el != nil {
				r.counters.NoteEndTagActive(-1)
				hasTrackedClosure = true
			}
			closed = append(closed, el)
		})
	}
	r.pendingClosed = closed

	flags := r.counters.Flags()
	if hasTrackedClosure || ancestorSuppressed {
		flags |= dispatch.CaptureEndTags
	}
	return flags
}

func (r *Rewriter) tagHintStartTag(name string, hint lexer.TagHint) (dispatch.CaptureFlags, bool) {
	fb, err := r.simulator.FeedbackForStartTag(name, true)
	if err != nil {
		if r.strict {
			r.fatalErr = &RewriterError{Cause: err}
			return r.counters.Flags(), true
		}
	} else {
		switch fb.Kind {
		case treebuilder.FeedbackRequestSelfClosingFlag:
			r.applyFeedback(r.simulator.FulfillSelfClosingFlagRequest(hint.SelfClosing))
		case treebuilder.FeedbackRequestStartTag:
			r.pendingRequest = &pendingStartTagRequest{reason: fb.RequestReason}
		default:
			r.applyFeedback(fb)
		}
	}

	namespace := r.simulator.CurrentNamespace().String()
	var hash selector.NameHash
	if hint.HasNameHash {
		hash = selector.NameHash(hint.NameHash)
	}
	tagInfo := selector.TagInfo{LocalName: name, Namespace: namespace, NameHash: hash}

	preview := r.vm.MatchStartTag(tagInfo)
	needsAttrs := r.contentSuppressed() || preview.NeedsAttributes || len(preview.Payloads) > 0 || r.pendingRequest != nil

	if !needsAttrs {
		void := r.isVoidPush(name, hint.SelfClosing)
		result := r.vm.MatchStartTagWithAttributes(tagInfo, nil, void)
		r.pushOpenElement(nil, result.Payloads, void)
	}

	return r.counters.Flags(), needsAttrs
}

// Lexeme handles every captured non-text lexeme kind.
func (r *Rewriter) Lexeme(lex lexer.Lexeme, buf []byte, emit func([]byte)) error {
	if r.fatalErr != nil {
		return r.fatalErr
	}
	switch lex.Token.Kind {
	case lexer.TokenStartTag:
		return r.lexemeStartTag(lex, buf, emit)
	case lexer.TokenEndTag:
		return r.lexemeEndTag(lex, buf, emit)
	case lexer.TokenComment:
		return r.lexemeComment(lex, buf, emit)
	case lexer.TokenDoctype:
		return r.lexemeDoctype(lex, buf, emit)
	}
	return nil
}

func (r *Rewriter) lexemeStartTag(lex lexer.Lexeme, buf []byte, emit func([]byte)) error {
	name := string(buf[lex.Token.NameRange.Start:lex.Token.NameRange.End])
	attrs := buildAttributes(lex.Token.Attrs, buf)

	if req := r.pendingRequest; req != nil {
		r.pendingRequest = nil
		switch req.reason {
		case treebuilder.ForeignContentExitCheck:
			hasColorSizeOrFace := getAttrValue(attrs, "color") != "" ||
				getAttrValue(attrs, "size") != "" || getAttrValue(attrs, "face") != ""
			r.applyFeedback(r.simulator.FulfillFontExitRequest(hasColorSizeOrFace))
		case treebuilder.IntegrationPointCheck:
			fb2 := r.simulator.FulfillAnnotationXMLIntegrationPointRequest(getAttrValue(attrs, "encoding"))
			if fb2.Kind == treebuilder.FeedbackRequestSelfClosingFlag {
				fb2 = r.simulator.FulfillSelfClosingFlagRequest(lex.Token.SelfClosing)
			}
			r.applyFeedback(fb2)
		}
	}

	namespace := r.simulator.CurrentNamespace().String()
	var hash selector.NameHash
	if lex.Token.HasNameHash {
		hash = selector.NameHash(lex.Token.NameHash)
	}
	tagInfo := selector.TagInfo{LocalName: name, Namespace: namespace, NameHash: hash}

	selAttrs := make([]selector.Attr, len(attrs))
	for i, a := range attrs {
		selAttrs[i] = selector.Attr{Name: a.Name, Value: a.Value}
	}
	matcher := selector.NewAttributeMatcher(selAttrs, namespace == "")

	void := r.isVoidPush(name, lex.Token.SelfClosing)

	ancestorSuppressed := r.vm.ContentRemoved() || r.innerContentDepth > 0
	result := r.vm.MatchStartTagWithAttributes(tagInfo, matcher, void)

	tag := &StartTag{enc: r.enc, name: name, attrs: attrs, selfClosing: lex.Token.SelfClosing, namespace: namespace}

	if r.adjustCharset && !ancestorSuppressed {
		r.adjustMetaCharset(tag)
	}

	var el *Element
	if len(result.Payloads) > 0 {
		el = newElement(tag, !void)
		if !ancestorSuppressed {
			for _, pid := range result.Payloads {
				h := r.handlers[pid]
				if h.Element == nil {
					continue
				}
				if cerr := checkStop(h.Element(el)); cerr != nil {
					r.pushOpenElement(el, result.Payloads, void)
					return cerr
				}
			}
		}
	}

	r.pushOpenElement(el, result.Payloads, void)

	em := &unitEmitter{enc: r.enc, emit: emit}

	if ancestorSuppressed || el == nil {
		if ancestorSuppressed {
			emit(nil)
		}
		return nil
	}

	if err := el.emitBefore(em); err != nil {
		return err
	}

	// A void element has no frame of its own, so only a pushed element
	// marks its content removed.
	switch {
	case el.removed:
		if !void {
			r.vm.MarkRemoveContent()
		}
	case el.isReplaced():
		if err := el.emitReplacement(em); err != nil {
			return err
		}
		if !void {
			r.vm.MarkRemoveContent()
		}
	case el.keepContentOnly:
		// tag markup suppressed, content kept: nothing to emit for the tag
	default:
		if err := tag.emitBefore(em); err != nil {
			return err
		}
		if tag.isReplaced() {
			if err := tag.emitReplacement(em); err != nil {
				return err
			}
		} else if err := r.serializeStartTag(tag, em); err != nil {
			return err
		}
		if err := tag.emitAfter(em); err != nil {
			return err
		}
		if el.hasInnerContent {
			if err := el.innerContent.emit(em); err != nil {
				return err
			}
		}
	}

	if void {
		if err := el.emitAfter(em); err != nil {
			return err
		}
	}

	emit(nil)
	return nil
}

func (r *Rewriter) lexemeEndTag(lex lexer.Lexeme, buf []byte, emit func([]byte)) error {
	name := string(buf[lex.Token.NameRange.Start:lex.Token.NameRange.End])
	closed := r.pendingClosed
	r.pendingClosed = nil

	em := &unitEmitter{enc: r.enc, emit: emit}

	for i, el := range closed {
		if el == nil {
			continue
		}
		isMatch := i == len(closed)-1
		var et *EndTag
		if isMatch {
			et = &el.endTag
			et.name = name
		}
		if err := r.finishElement(el, isMatch, et, em); err != nil {
			return err
		}
	}
	// An end tag that closes no tracked element keeps its raw bytes unless
	// content is currently suppressed. Otherwise signal at least once, so
	// the dispatcher's "controller never called emit" fallback does not
	// leak the raw end-tag bytes through.
	if last := len(closed) - 1; (last < 0 || closed[last] == nil) && !r.contentSuppressed() {
		emit(buf[lex.Raw.Start:lex.Raw.End])
		return nil
	}
	emit(nil)
	return nil
}

func (r *Rewriter) finishElement(el *Element, hasRealEndTag bool, et *EndTag, em *unitEmitter) error {
	if el.hasInnerContent {
		r.innerContentDepth--
	}

	if r.contentSuppressed() {
		return nil
	}

	// Element-level after() content follows the end tag (when one is
	// written), not precedes it.
	if !hasRealEndTag || el.removed || el.isReplaced() || el.keepContentOnly {
		return el.emitAfter(em)
	}

	for _, h := range el.endTagHandlers {
		if cerr := checkStop(h(et)); cerr != nil {
			return cerr
		}
	}

	if err := et.emitBefore(em); err != nil {
		return err
	}
	if et.isReplaced() {
		if err := et.emitReplacement(em); err != nil {
			return err
		}
	} else {
		if err := r.serializeEndTag(et, em); err != nil {
			return err
		}
	}
	if err := et.emitAfter(em); err != nil {
		return err
	}
	return el.emitAfter(em)
}

func (r *Rewriter) lexemeComment(lex lexer.Lexeme, buf []byte, emit func([]byte)) error {
	if r.contentSuppressed() {
		emit(nil)
		return nil
	}

	text := string(buf[lex.Token.TextRange.Start:lex.Token.TextRange.End])
	c := &Comment{enc: r.enc, text: text}
	if r.enableESI && strings.HasPrefix(strings.TrimSpace(text), "esi") {
		c.esi = true
	}

	ran := false
	for _, pid := range r.activeCommentPayloads() {
		h := r.handlers[pid].Comments
		ran = true
		if cerr := checkStop(h(c)); cerr != nil {
			return cerr
		}
	}
	if r.doc.Comments != nil {
		ran = true
		if cerr := checkStop(r.doc.Comments(c)); cerr != nil {
			return cerr
		}
	}
	if !ran {
		return nil
	}

	em := &unitEmitter{enc: r.enc, emit: emit}
	if err := c.emitBefore(em); err != nil {
		return err
	}
	if c.isReplaced() {
		if err := c.emitReplacement(em); err != nil {
			return err
		}
	} else {
		em.raw([]byte("<!--"))
		if err := em.writeRawEncoded(c.text, false); err != nil {
			return err
		}
		em.raw([]byte("-->"))
	}
	return c.emitAfter(em)
}

func (r *Rewriter) lexemeDoctype(lex lexer.Lexeme, buf []byte, emit func([]byte)) error {
	if r.doctypeFired || r.doc.Doctype == nil {
		return nil
	}
	r.doctypeFired = true

	dt := &Doctype{}
	if lex.Token.HasDoctypeName {
		dt.name = string(buf[lex.Token.DoctypeNameRange.Start:lex.Token.DoctypeNameRange.End])
		dt.hasName = true
	}
	if lex.Token.HasPublicID {
		dt.publicID = string(buf[lex.Token.PublicIDRange.Start:lex.Token.PublicIDRange.End])
		dt.hasPublicID = true
	}
	if lex.Token.HasSystemID {
		dt.systemID = string(buf[lex.Token.SystemIDRange.Start:lex.Token.SystemIDRange.End])
		dt.hasSystemID = true
	}

	if cerr := checkStop(r.doc.Doctype(dt)); cerr != nil {
		return cerr
	}

	if len(dt.before) == 0 && len(dt.after) == 0 {
		return nil
	}
	em := &unitEmitter{enc: r.enc, emit: emit}
	if err := dt.emitBefore(em); err != nil {
		return err
	}
	em.raw(buf[lex.Raw.Start:lex.Raw.End])
	return dt.emitAfter(em)
}

// Text is called for every decoded text chunk while CaptureText is active
// (spec.md §4.6). Unlike other lexeme kinds, the dispatcher has no raw-
// bytes fallback for text: unchanged chunks must be explicitly re-emitted.
func (r *Rewriter) Text(chunk dispatch.DecodedChunk, emit func([]byte)) error {
	if r.fatalErr != nil {
		return r.fatalErr
	}
	if r.contentSuppressed() {
		emit(nil)
		return nil
	}

	tc := &TextChunk{text: chunk.Text, last: chunk.Last}

	for _, pid := range r.activeTextPayloads() {
		h := r.handlers[pid].Text
		if cerr := checkStop(h(tc)); cerr != nil {
			return cerr
		}
	}
	if r.doc.Text != nil {
		if cerr := checkStop(r.doc.Text(tc)); cerr != nil {
			return cerr
		}
	}

	em := &unitEmitter{enc: r.enc, emit: emit}
	if err := tc.emitBefore(em); err != nil {
		return err
	}
	if tc.isReplaced() {
		if err := tc.emitReplacement(em); err != nil {
			return err
		}
	} else if tc.text != "" {
		if err := em.writeRawEncoded(tc.text, false); err != nil {
			return err
		}
	}
	return tc.emitAfter(em)
}

// EndDocument fires the document-end handler, if any. It implements
// rewritestream.Controller; the public write/end lifecycle is End() above.
func (r *Rewriter) EndDocument(emit func([]byte)) error {
	if r.fatalErr != nil {
		return r.fatalErr
	}
	if r.doc.End == nil {
		return nil
	}
	de := &DocumentEnd{}
	if cerr := checkStop(r.doc.End(de)); cerr != nil {
		return cerr
	}
	em := &unitEmitter{enc: r.enc, emit: emit}
	if err := de.emitBefore(em); err != nil {
		return err
	}
	return de.emitAfter(em)
}

// ---- serialization ----

func (r *Rewriter) serializeStartTag(tag *StartTag, em *unitEmitter) error {
	em.raw([]byte("<"))
	if err := em.writeRawEncoded(tag.Name(), false); err != nil {
		return err
	}
	for _, a := range tag.attrs {
		em.raw([]byte(" "))
		if err := em.writeRawEncoded(a.Name, false); err != nil {
			return err
		}
		em.raw([]byte(`="`))
		if err := em.writeRawEncoded(a.Value, true); err != nil {
			return err
		}
		em.raw([]byte(`"`))
	}
	if tag.selfClosing {
		em.raw([]byte("/>"))
	} else {
		em.raw([]byte(">"))
	}
	return nil
}

func (r *Rewriter) serializeEndTag(et *EndTag, em *unitEmitter) error {
	em.raw([]byte("</"))
	if err := em.writeRawEncoded(et.Name(), false); err != nil {
		return err
	}
	em.raw([]byte(">"))
	return nil
}

// unitEmitter adapts a dispatcher emit func to mutation.go's emitter
// interface and handlers.go's StreamingSink, re-encoding UTF-8 content
// into the document's encoding (spec.md §4.7: mutation content "must be
// representable in the document encoding").
type unitEmitter struct {
	enc  *encoding.Encoding
	emit func([]byte)
}

func (u *unitEmitter) emitContent(s string, ctype ContentType) error {
	if ctype == Text {
		s = nethtml.EscapeString(s)
	}
	return u.writeRawEncoded(s, false)
}

func (u *unitEmitter) emitStream(fn streamingFunc) error { return fn(u) }

func (u *unitEmitter) WriteString(s string, ctype ContentType) error {
	return u.emitContent(s, ctype)
}

// raw emits ASCII tag punctuation directly, without re-encoding - safe
// because the document encoding is guaranteed ASCII-compatible (spec.md
// §6's construction check).
func (u *unitEmitter) raw(b []byte) { u.emit(b) }

// writeRawEncoded re-encodes s into the document's byte encoding,
// HTML-attribute-escaping it first when escape is true.
func (u *unitEmitter) writeRawEncoded(s string, escape bool) error {
	if escape {
		s = nethtml.EscapeString(s)
	}
	b, err := u.enc.EncodeString(s)
	if err != nil {
		return err
	}
	u.emit(b)
	return nil
}
