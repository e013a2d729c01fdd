package selector

// PayloadID identifies a single registered selector (handler slot) within a
// compiled Program.
type PayloadID int

// InstrID is the index of an Instruction within a Program's Instructions
// slice.
type InstrID int

// InstrKind determines what data an instruction needs before it can run,
// per spec.md §4.4's three instruction shapes.
type InstrKind int

const (
	// NonAttrOnly instructions execute immediately against the tag name
	// (LocalNameExpr/AnyExpr/UnmatchableExpr only).
	NonAttrOnly InstrKind = iota
	// AttrOnly instructions need the attribute matcher before they can run.
	AttrOnly
	// Mixed instructions check NonAttrExprs first; only request attributes
	// if those pass.
	Mixed
)

// Instruction is one compiled predicate node: a conjunction (AND) of simple
// expressions, plus the child instructions reachable via a direct-child
// combinator (Jumps) or a descendant combinator (HereditaryJumps).
//
// Unlike the Rust original, which points Jumps/HereditaryJumps at
// contiguous ranges of a single instruction array for cache locality, this
// implementation stores explicit index lists - Go's GC and slice-of-pointer
// instruction array make the range-packing optimization unnecessary for
// correctness, and explicit lists are simpler to build and verify.
type Instruction struct {
	Kind InstrKind

	NonAttrExprs []SimpleExpr // evaluated first; for NonAttrOnly and Mixed
	AttrExprs    []SimpleExpr // evaluated only if NonAttrExprs passed (Mixed) or always (AttrOnly)

	// Payloads lists the selectors (handler slots) that terminate at this
	// exact compound-selector path. Empty if this node is an intermediate
	// step shared by longer selectors.
	Payloads []PayloadID

	Jumps           []InstrID // tried against direct children of a matching element
	HereditaryJumps []InstrID // tried against every descendant of a matching element
}

// Program is a compiled set of selectors ready for VM execution.
type Program struct {
	Instructions []*Instruction
	// EntryPoints lists every instruction with no incoming edge: the set
	// tried against every new top-level start tag.
	EntryPoints []InstrID
}
