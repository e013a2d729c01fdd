package lexer

import "github.com/dpotapov/htmlrewriter/internal/treebuilder"

// Bookmark is the {text type, last-start-tag hash, cdata_allowed flag}
// checkpoint for switching between the tag scanner and the full lexer at
// a known-safe boundary. It holds no cursor position: the caller passes
// the position to Step.
type Bookmark struct {
	TextType            treebuilder.TextType
	LastStartTagHash    uint64
	HasLastStartTagHash bool
	AllowCData          bool
}

// Checkpoint captures the scanner's cross-machine state. It must only be
// taken between lexemes (i.e. when Step just returned StepLexeme or
// StepTagHint, or at the very start).
func (s *Scanner) Checkpoint() Bookmark {
	return Bookmark{
		TextType:            s.textType,
		LastStartTagHash:    s.lastStartTagHash,
		HasLastStartTagHash: s.hasLastStartTagHash,
		AllowCData:          s.allowCData,
	}
}

// Restore brings a freshly constructed Scanner (in the opposite mode) up
// to date from a Bookmark taken from its sibling.
func (s *Scanner) Restore(b Bookmark) {
	s.SetTextType(b.TextType)
	s.lastStartTagHash = b.LastStartTagHash
	s.hasLastStartTagHash = b.HasLastStartTagHash
	s.allowCData = b.AllowCData
}

// Rebase exposes the internal offset-shift used when the caller retains
// only the trailing N bytes of the current buffer for the next chunk
// (internal/memlimit.Buffer.ShrinkToLast mirrors this shift).
func (s *Scanner) Rebase(by int) {
	s.rebase(by)
}
