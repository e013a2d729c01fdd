package lexer

import "github.com/dpotapov/htmlrewriter/internal/treebuilder"

type state int

const (
	stData state = iota
	stTagOpen
	stEndTagOpen
	stTagName
	stBeforeAttrName
	stAttrName
	stAfterAttrName
	stBeforeAttrValue
	stAttrValueDQ
	stAttrValueSQ
	stAttrValueUnquoted
	stAfterAttrValueQuoted
	stSelfClosingStartTag
	stBogusComment
	stMarkupDeclOpen
	stCommentStart
	stComment
	stCommentEndDash
	stCommentEnd
	stDoctype
	stBeforeDoctypeName
	stDoctypeName
	stAfterDoctypeName
	stText         // RCData / RawText / ScriptData / PlainText body
	stTextLessThan // saw '<' inside a non-Data text type
	stTextEndTagOpen
	stTextEndTagName
	stCDataSection
	stCDataBracket
	stCDataBracketBracket
)

// Scanner is the shared bytewise DFA behind both the tag scanner and the
// full lexer (spec.md §4.2): the same state machine, with attribute
// range bookkeeping only performed when Mode == Lex.
type Scanner struct {
	Mode ParserDirective

	st       state
	textType treebuilder.TextType

	lastStartTagHash    uint64
	hasLastStartTagHash bool

	allowCData bool

	// Positions, relative to the buffer passed to the current Step call.
	lexemeStart   int
	tagNameStart  int
	quote         byte
	attrNameStart int
	attrValStart  int
	attrs         []AttrOutline
	curAttr       AttrOutline
	curHasName    bool

	textStart       int // start of the current run of text bytes
	endTagNameStart int

	doctypeNameStart, publicIDStart, systemIDStart   int
	hasDoctypeName, hasPublicID, hasSystemID         bool
	forceQuirks                                      bool
	commentStart int
}

// New returns a Scanner positioned at the start of a Data-mode document.
func New() *Scanner {
	return &Scanner{Mode: WherePossibleScanForTagsOnly, st: stData}
}

// SetTextType switches the text-parsing mode (driven by tree-builder
// feedback). Switching always happens between lexemes, never mid-tag.
func (s *Scanner) SetTextType(t treebuilder.TextType) {
	s.textType = t
	switch t {
	case treebuilder.CDataSection:
		s.st = stCDataSection
	case treebuilder.Data:
		s.st = stData
	default:
		s.st = stText
	}
	s.textStart = 0
}

func (s *Scanner) SetAllowCData(allow bool) { s.allowCData = allow }

func (s *Scanner) LastStartTagHash() (uint64, bool) { return s.lastStartTagHash, s.hasLastStartTagHash }

// rebase shifts every stored offset by -by, matching the bytes that the
// caller is about to shift to the front of the next chunk (spec.md §4.1's
// shrink_to_last contract).
func (s *Scanner) rebase(by int) {
	s.lexemeStart -= by
	s.tagNameStart -= by
	s.attrNameStart -= by
	s.attrValStart -= by
	s.textStart -= by
	s.endTagNameStart -= by
	s.doctypeNameStart -= by
	s.publicIDStart -= by
	s.systemIDStart -= by
	s.commentStart -= by
}

func isAsciiAlpha(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

func isAsciiSpace(b byte) bool {
	switch b {
	case ' ', '\t', '\n', '\r', '\f':
		return true
	}
	return false
}

// Step advances the DFA over buf starting at pos, until it either
// completes a lexeme/hint or exhausts the buffer. pos is where the
// previous Step call on the same buf stopped (0 for a fresh buffer); Step
// updates the scanner's state as it goes. When buf ends inside a tag,
// comment, doctype or text end-tag candidate, the scanner returns to its
// text state and BlockedFrom marks where that construct (or the pending
// text run) starts, so the next buffer is rescanned from there.
func (s *Scanner) Step(buf []byte, pos int) (StepResult, int) {
	i := pos
	n := len(buf)
	if s.textStart < pos {
		// Bytes before pos were already returned by an earlier Step.
		s.textStart = pos
	}

	for i < n {
		c := buf[i]
		switch s.st {
		case stData:
			if c == '<' {
				if s.textStart < i {
					res := s.emitTextRange(buf, s.textStart, i, treebuilder.Data)
					s.lexemeStart = i
					s.st = stTagOpen
					return res, i
				}
				s.lexemeStart = i
				s.st = stTagOpen
			}
			i++

		case stTagOpen:
			switch {
			case c == '/':
				s.st = stEndTagOpen
				i++
			case isAsciiAlpha(c):
				s.tagNameStart = i
				s.attrs = nil
				s.st = stTagName
			case c == '!':
				s.st = stMarkupDeclOpen
				i++
			case c == '?':
				s.st = stBogusComment
				s.commentStart = i
				i++
			default:
				// Not a tag; treat '<' as ordinary data and resume scanning.
				s.st = stData
			}

		case stEndTagOpen:
			if isAsciiAlpha(c) {
				s.tagNameStart = i
				s.st = stTagName
			} else {
				s.st = stBogusComment
				s.commentStart = i
			}

		case stTagName:
			isEnd := buf[s.lexemeStart+1] == '/'
			switch {
			case isAsciiSpace(c):
				if s.Mode == Lex {
					s.curAttr = AttrOutline{}
					s.attrs = nil
				}
				s.st = stBeforeAttrName
				i++
			case c == '/':
				s.st = stSelfClosingStartTag
				i++
			case c == '>':
				return s.finishTag(buf, i+1, isEnd, false), i + 1
			default:
				i++
			}

		case stBeforeAttrName:
			switch {
			case isAsciiSpace(c):
				i++
			case c == '/':
				s.st = stSelfClosingStartTag
				i++
			case c == '>':
				isEnd := buf[s.lexemeStart+1] == '/'
				return s.finishTag(buf, i+1, isEnd, false), i + 1
			default:
				s.attrNameStart = i
				s.st = stAttrName
			}

		case stAttrName:
			switch {
			case isAsciiSpace(c) || c == '/' || c == '>':
				s.finishAttrName(buf, i)
				if s.Mode == Lex && s.curHasName {
					// Valueless attribute: record it with an empty value.
					s.curAttr.Value = ByteRange{i, i}
					s.curAttr.Raw = s.curAttr.Name
					s.attrs = append(s.attrs, s.curAttr)
					s.curHasName = false
				}
				if c == '>' {
					isEnd := buf[s.lexemeStart+1] == '/'
					return s.finishTag(buf, i+1, isEnd, false), i + 1
				}
				if c == '/' {
					s.st = stSelfClosingStartTag
				} else {
					s.st = stBeforeAttrName
				}
				i++
			case c == '=':
				s.finishAttrName(buf, i)
				s.st = stBeforeAttrValue
				i++
			default:
				i++
			}

		case stAfterAttrName:
			i++ // unreachable: folded into stAttrName above

		case stBeforeAttrValue:
			switch {
			case isAsciiSpace(c):
				i++
			case c == '"':
				s.quote = '"'
				s.attrValStart = i + 1
				s.st = stAttrValueDQ
				i++
			case c == '\'':
				s.quote = '\''
				s.attrValStart = i + 1
				s.st = stAttrValueSQ
				i++
			case c == '>':
				isEnd := buf[s.lexemeStart+1] == '/'
				return s.finishTag(buf, i+1, isEnd, false), i + 1
			default:
				s.attrValStart = i
				s.st = stAttrValueUnquoted
			}

		case stAttrValueDQ, stAttrValueSQ:
			if c == s.quote {
				s.finishAttrValue(buf, i)
				s.st = stAfterAttrValueQuoted
			}
			i++

		case stAttrValueUnquoted:
			if isAsciiSpace(c) {
				s.finishAttrValue(buf, i)
				s.st = stBeforeAttrName
			} else if c == '>' {
				s.finishAttrValue(buf, i)
				isEnd := buf[s.lexemeStart+1] == '/'
				return s.finishTag(buf, i+1, isEnd, false), i + 1
			} else {
				i++
			}

		case stAfterAttrValueQuoted:
			switch {
			case isAsciiSpace(c):
				s.st = stBeforeAttrName
				i++
			case c == '/':
				s.st = stSelfClosingStartTag
				i++
			case c == '>':
				isEnd := buf[s.lexemeStart+1] == '/'
				return s.finishTag(buf, i+1, isEnd, false), i + 1
			default:
				s.st = stBeforeAttrName
			}

		case stSelfClosingStartTag:
			if c == '>' {
				isEnd := buf[s.lexemeStart+1] == '/'
				return s.finishTag(buf, i+1, isEnd, true), i + 1
			}
			s.st = stBeforeAttrName

		case stBogusComment:
			if c == '>' {
				return s.finishComment(buf, i), i + 1
			}
			i++

		case stMarkupDeclOpen:
			if hasPrefixFold(buf[i:], "--") {
				s.st = stCommentStart
				s.commentStart = i + 2
				i += 2
			} else if hasPrefixFold(buf[i:], "doctype") {
				s.st = stDoctype
				i += 7
			} else if hasPrefixFold(buf[i:], "[CDATA[") && s.allowCData {
				s.st = stCDataSection
				s.textStart = i + 7
				i += 7
			} else {
				s.st = stBogusComment
				s.commentStart = i
			}

		case stCommentStart, stComment:
			if c == '-' {
				s.st = stCommentEndDash
			}
			i++

		case stCommentEndDash:
			if c == '-' {
				s.st = stCommentEnd
			} else {
				s.st = stComment
			}
			i++

		case stCommentEnd:
			if c == '>' {
				return s.finishComment(buf, i-2), i + 1
			} else if c != '-' {
				s.st = stComment
			}
			i++

		case stDoctype:
			switch {
			case isAsciiSpace(c):
				i++
			case c == '>':
				return s.finishDoctype(buf, i+1), i + 1
			default:
				s.doctypeNameStart = i
				s.hasDoctypeName = true
				s.st = stBeforeDoctypeName
			}

		case stBeforeDoctypeName:
			if c == '>' {
				s.forceQuirks = true
				return s.finishDoctype(buf, i+1), i + 1
			}
			i++

		case stDoctypeName, stAfterDoctypeName:
			if c == '>' {
				return s.finishDoctype(buf, i+1), i + 1
			}
			i++

		case stText:
			if c == '<' {
				s.lexemeStart = i
				s.st = stTextLessThan
			}
			i++

		case stTextLessThan:
			if c == '/' {
				s.endTagNameStart = i + 1
				s.st = stTextEndTagOpen
				i++
			} else {
				s.st = stText
			}

		case stTextEndTagOpen:
			if isAsciiAlpha(c) {
				s.st = stTextEndTagName
				i++
			} else {
				s.st = stText
			}

		case stTextEndTagName:
			if c == '>' || isAsciiSpace(c) || c == '/' {
				if s.isAppropriateEndTag(buf[s.endTagNameStart:i]) {
					if s.textStart < s.lexemeStart {
						// Flush the buffered text first; re-entry at the '<' must
						// re-derive lexemeStart/endTagNameStart from scratch, not
						// resume mid-end-tag-name with stale offsets.
						s.st = stText
						return s.emitText(buf, s.lexemeStart), s.lexemeStart
					}
					s.st = stTagName
					// Reinterpret starting at the '/' already consumed into an
					// end-tag parse by resetting to stEndTagOpen logic inline.
					s.tagNameStart = s.endTagNameStart
					for c != '>' {
						i++
						if i >= n {
							return s.blockedResult(s.lexemeStart), s.lexemeStart
						}
						c = buf[i]
					}
					return s.finishTag(buf, i+1, true, false), i + 1
				}
				s.st = stText
			} else {
				i++
			}

		case stCDataSection:
			if c == ']' {
				s.st = stCDataBracket
			}
			i++

		case stCDataBracket:
			if c == ']' {
				s.st = stCDataBracketBracket
			} else {
				s.st = stCDataSection
			}
			i++

		case stCDataBracketBracket:
			if c == '>' {
				end := i - 2
				res := s.emitTextRange(buf, s.textStart, end, treebuilder.CDataSection)
				s.textStart = i + 1
				s.st = stData
				return res, i + 1
			} else if c != ']' {
				s.st = stCDataSection
			}
			i++
		}
	}

	from := s.currentLexemeOrTextStart()
	switch s.st {
	case stData, stText, stCDataSection:
	case stTextLessThan, stTextEndTagOpen, stTextEndTagName:
		s.st, from = stText, s.textStart
	case stCDataBracket, stCDataBracketBracket:
		s.st, from = stCDataSection, s.textStart
	default:
		// Unfinished tag, comment or doctype: rescan it whole next time.
		s.st = stData
		s.textStart = s.lexemeStart
	}
	return s.blockedResult(from), n
}

func (s *Scanner) currentLexemeOrTextStart() int {
	switch s.st {
	case stData, stText, stCDataSection:
		return s.textStart
	default:
		return s.lexemeStart
	}
}

func (s *Scanner) blockedResult(blockedFrom int) StepResult {
	if blockedFrom < 0 {
		blockedFrom = 0
	}
	return StepResult{Kind: StepNone, Reason: BreakEndOfInput, BlockedFrom: blockedFrom}
}

func (s *Scanner) finishAttrName(buf []byte, end int) {
	if s.Mode != Lex {
		return
	}
	s.curAttr = AttrOutline{Name: ByteRange{s.attrNameStart, end}}
	s.curHasName = true
}

func (s *Scanner) finishAttrValue(buf []byte, end int) {
	if s.Mode != Lex || !s.curHasName {
		s.curHasName = false
		return
	}
	s.curAttr.Value = ByteRange{s.attrValStart, end}
	s.curAttr.Raw = ByteRange{s.curAttr.Name.Start, end}
	s.attrs = append(s.attrs, s.curAttr)
	s.curHasName = false
}

func (s *Scanner) isAppropriateEndTag(name []byte) bool {
	if !s.hasLastStartTagHash {
		return false
	}
	h, ok := hashBytes(name)
	return ok && h == s.lastStartTagHash
}

// emitText flushes the accumulated text run [s.textStart, upto) as a
// TextChunk lexeme, per the current text type.
func (s *Scanner) emitText(buf []byte, upto int) StepResult {
	return s.emitTextRange(buf, s.textStart, upto, s.textType)
}

func (s *Scanner) emitTextRange(buf []byte, from, upto int, tt treebuilder.TextType) StepResult {
	if from >= upto {
		s.textStart = upto
		return StepResult{Kind: StepNone}
	}
	tok := TokenOutline{Kind: TokenText, TextType: tt}
	lex := Lexeme{Token: tok, Raw: ByteRange{from, upto}}
	s.textStart = upto
	return StepResult{Kind: StepLexeme, Lexeme: lex}
}

func (s *Scanner) finishTag(buf []byte, end int, isEnd, selfClosing bool) StepResult {
	nameEnd := s.tagNameEnd(buf)
	name := buf[s.tagNameStart:nameEnd]
	hash, hashOK := hashBytes(name)

	if !isEnd && hashOK {
		s.lastStartTagHash = hash
		s.hasLastStartTagHash = true
	}

	raw := ByteRange{s.lexemeStart, end}
	s.st = stData
	s.lexemeStart = end
	s.textStart = end

	if s.Mode != Lex {
		hint := TagHint{
			NameRange:   ByteRange{s.tagNameStart, nameEnd},
			NameHash:    hash,
			HasNameHash: hashOK,
			IsEndTag:    isEnd,
			SelfClosing: selfClosing,
			Raw:         raw,
		}
		s.attrs = nil
		return StepResult{Kind: StepTagHint, Hint: hint}
	}

	kind := TokenStartTag
	if isEnd {
		kind = TokenEndTag
	}
	tok := TokenOutline{
		Kind:        kind,
		NameRange:   ByteRange{s.tagNameStart, nameEnd},
		NameHash:    hash,
		HasNameHash: hashOK,
		SelfClosing: selfClosing,
		Attrs:       s.attrs,
	}
	s.attrs = nil
	return StepResult{Kind: StepLexeme, Lexeme: Lexeme{Token: tok, Raw: raw}}
}

// tagNameEnd finds where the tag name run stops by scanning forward from
// tagNameStart for the first non-name byte; used because finishTag is
// invoked from several different trailing states.
func (s *Scanner) tagNameEnd(buf []byte) int {
	i := s.tagNameStart
	for i < len(buf) {
		c := buf[i]
		if isAsciiSpace(c) || c == '/' || c == '>' {
			break
		}
		i++
	}
	return i
}

func (s *Scanner) finishComment(buf []byte, textEnd int) StepResult {
	start := s.commentStart
	if textEnd < start {
		textEnd = start
	}
	tok := TokenOutline{Kind: TokenComment, TextRange: ByteRange{start, textEnd}}
	end := textEnd
	for end < len(buf) && buf[end] != '>' {
		end++
	}
	end++
	raw := ByteRange{s.lexemeStart, end}
	s.st = stData
	s.lexemeStart = end
	s.textStart = end
	return StepResult{Kind: StepLexeme, Lexeme: Lexeme{Token: tok, Raw: raw}}
}

func (s *Scanner) finishDoctype(buf []byte, end int) StepResult {
	tok := TokenOutline{
		Kind:           TokenDoctype,
		ForceQuirks:    s.forceQuirks,
		HasDoctypeName: s.hasDoctypeName,
	}
	if s.hasDoctypeName {
		tok.DoctypeNameRange = ByteRange{s.doctypeNameStart, end - 1}
	}
	raw := ByteRange{s.lexemeStart, end}
	s.st = stData
	s.lexemeStart = end
	s.textStart = end
	s.hasDoctypeName = false
	s.forceQuirks = false
	return StepResult{Kind: StepLexeme, Lexeme: Lexeme{Token: tok, Raw: raw}}
}

func hasPrefixFold(b []byte, prefix string) bool {
	if len(b) < len(prefix) {
		return false
	}
	for i := 0; i < len(prefix); i++ {
		c := b[i]
		if c >= 'A' && c <= 'Z' {
			c += 'a' - 'A'
		}
		p := prefix[i]
		if p >= 'A' && p <= 'Z' {
			p += 'a' - 'A'
		}
		if c != p {
			return false
		}
	}
	return true
}
