// Package lexer implements spec.md §4.2's dual-mode HTML parser: a cheap
// tag scanner and a full lexer sharing one bytewise DFA skeleton, with
// bookmark/checkpoint support for resuming across input-chunk boundaries.
//
// Grounded on the teacher's tokenizer-driving loop shape (chtml/parse.go's
// parse()/parseCurrentToken()) generalized from "drive golang.org/x/net/html's
// tokenizer and build a Node tree" to "drive a hand-rolled byte DFA and
// emit TagHints or full Lexemes, resumable across writes" - x/net/html's
// Tokenizer is built for a single uninterrupted io.Reader and cannot
// resume mid-token after a short read, which this system requires.
package lexer

import "github.com/dpotapov/htmlrewriter/internal/treebuilder"

// ParserDirective selects which machine is active, re-evaluated whenever
// capture requirements change (spec.md §4.2).
type ParserDirective int

const (
	WherePossibleScanForTagsOnly ParserDirective = iota
	Lex
)

// TokenKind discriminates the TokenOutline union.
type TokenKind int

const (
	TokenStartTag TokenKind = iota
	TokenEndTag
	TokenDoctype
	TokenComment
	TokenText
	TokenEOF
)

// ByteRange is a half-open [Start, End) byte range into the buffer a
// Lexeme borrows from.
type ByteRange struct {
	Start, End int
}

func (r ByteRange) Len() int { return r.End - r.Start }

// AttrOutline is one attribute's name/value/raw ranges (spec.md §3).
type AttrOutline struct {
	Name  ByteRange
	Value ByteRange
	Raw   ByteRange
}

// TokenOutline is a compact descriptor carrying only byte ranges and
// scalar flags - never owns memory (spec.md §3).
type TokenOutline struct {
	Kind Kind

	// StartTag / EndTag
	NameRange   ByteRange
	NameHash    uint64
	HasNameHash bool
	Namespace   string // "" (html), "svg", "math" - set by the caller, not the DFA
	SelfClosing bool
	Attrs       []AttrOutline // populated only when captured in Lex mode

	// Doctype
	DoctypeNameRange, PublicIDRange, SystemIDRange ByteRange
	HasDoctypeName, HasPublicID, HasSystemID       bool
	ForceQuirks                                    bool

	// Comment
	TextRange ByteRange

	// Text
	TextType treebuilder.TextType
}

// Kind renames TokenKind for embedding brevity in TokenOutline.
type Kind = TokenKind

// Lexeme is a TokenOutline plus the exact raw byte range it spans.
// Lexemes are ephemeral: they borrow from the chunk passed to Step and
// must not be retained past the call that produced them.
type Lexeme struct {
	Token TokenOutline
	Raw   ByteRange
}

// TagHint is the tag scanner's minimal preview: just enough to drive
// selector matching without attribute data (spec.md's glossary).
type TagHint struct {
	NameRange   ByteRange
	NameHash    uint64
	HasNameHash bool
	IsEndTag    bool
	SelfClosing bool
	Raw         ByteRange
}

// BreakReason explains why Step returned before producing output.
type BreakReason int

const (
	BreakNone BreakReason = iota
	BreakEndOfInput
	BreakDirectiveChange
	BreakLexemeRequired
)

// StepResult is returned by every call to Step.
type StepResult struct {
	// Kind is StepLexeme, StepTagHint, or StepNone (need more input / a
	// break occurred - see Reason).
	Kind   StepKind
	Lexeme Lexeme
	Hint   TagHint
	Reason BreakReason
	// BlockedFrom is set on BreakEndOfInput / BreakLexemeRequired: the
	// byte offset (relative to the buffer passed to Step) from which
	// bytes must be retained for the next chunk.
	BlockedFrom int
}

type StepKind int

const (
	StepNone StepKind = iota
	StepLexeme
	StepTagHint
)
