package selector

// NameHash mirrors internal/tagname.Hash's underlying representation
// without importing that package (the VM only needs an opaque comparable
// key to recognize an "appropriate" end tag; avoids a dependency edge
// between two otherwise-independent leaf packages - convert with a plain
// numeric cast at the call site).
type NameHash uint64

// TagInfo is everything the VM needs about a start tag before it decides
// whether to request attributes.
type TagInfo struct {
	LocalName string
	Namespace string // "" (HTML), "svg", or "math"
	NameHash  NameHash
}

// frame is the open-element descriptor from spec.md §3: the set of active
// selector-match payloads for this element, the jump sets its children
// must additionally be tested against, and whether content inside it is
// being removed.
//
// Modeled on the teacher's nodeStack (chtml/node.go): a plain slice-backed
// stack with push/pop/top, generalized here to carry match bookkeeping
// instead of a *Node.
type frame struct {
	nameHash      NameHash
	payloads      []PayloadID
	childJumps    []InstrID // tried only against this element's direct children
	hereditary    []InstrID // tried against every descendant (this element's own + inherited)
	removeContent bool
}

// MatchResult reports what a start tag matched.
type MatchResult struct {
	// Payloads lists every selector (handler slot) that matched this start
	// tag. While NeedsAttributes is true it holds only the matches decided
	// without attribute data; MatchStartTagWithAttributes returns the full
	// list (and NeedsAttributes is always false after it).
	Payloads []PayloadID
	// NeedsAttributes is true when at least one candidate instruction
	// could not be decided without attribute data; the caller must obtain
	// an *AttributeMatcher (promoting the parser to lex mode if necessary)
	// and call MatchStartTagWithAttributes.
	NeedsAttributes bool
}

// VM executes a compiled Program against a stack of open elements.
type VM struct {
	prog  *Program
	stack []*frame
}

// New returns a VM for prog.
func New(prog *Program) *VM {
	return &VM{prog: prog}
}

// Depth returns the number of currently open (pushed) elements.
func (vm *VM) Depth() int {
	return len(vm.stack)
}

// candidates returns every instruction that must be evaluated for a start
// tag about to become a child of the current top-of-stack element (or a
// top-level element, if the stack is empty): every entry point, plus the
// parent's direct-child jumps, plus the parent's accumulated hereditary
// jumps (spec.md §4.5 steps 1-3).
func (vm *VM) candidates() []InstrID {
	ids := append([]InstrID{}, vm.prog.EntryPoints...)
	if len(vm.stack) > 0 {
		top := vm.stack[len(vm.stack)-1]
		ids = append(ids, top.childJumps...)
		ids = append(ids, top.hereditary...)
	}
	return dedupInstrIDs(ids)
}

type outcome struct {
	payloads        []PayloadID
	childJumps      []InstrID
	hereditary      []InstrID
	needsAttributes bool
}

func (vm *VM) evaluate(tag TagInfo, attrs *AttributeMatcher) outcome {
	var o outcome
	for _, id := range vm.candidates() {
		instr := vm.prog.Instructions[id]
		matched, needsAttrs := vm.evalInstruction(instr, tag, attrs)
		if needsAttrs {
			o.needsAttributes = true
			continue
		}
		if !matched {
			continue
		}
		o.payloads = append(o.payloads, instr.Payloads...)
		o.childJumps = append(o.childJumps, instr.Jumps...)
		o.hereditary = append(o.hereditary, instr.HereditaryJumps...)
	}
	return o
}

// MatchStartTag evaluates every candidate instruction that can be decided
// from the tag name alone. It does not push a stack frame - follow up with
// MatchStartTagWithAttributes (attrs may be nil if NeedsAttributes was
// false) to push the element and finalize matching.
func (vm *VM) MatchStartTag(tag TagInfo) MatchResult {
	o := vm.evaluate(tag, nil)
	return MatchResult{Payloads: o.payloads, NeedsAttributes: o.needsAttributes}
}

// MatchStartTagWithAttributes runs (or re-runs, now with attribute data)
// every candidate instruction and pushes the resulting frame unless void
// is true (void elements and self-closed foreign elements never push,
// per spec.md §4.5).
func (vm *VM) MatchStartTagWithAttributes(tag TagInfo, attrs *AttributeMatcher, void bool) MatchResult {
	o := vm.evaluate(tag, attrs)
	if !void {
		f := &frame{nameHash: tag.NameHash, payloads: o.payloads, childJumps: o.childJumps}
		if len(vm.stack) > 0 {
			f.hereditary = append(f.hereditary, vm.stack[len(vm.stack)-1].hereditary...)
		}
		f.hereditary = append(f.hereditary, o.hereditary...)
		vm.stack = append(vm.stack, f)
	}
	return MatchResult{Payloads: o.payloads}
}

func (vm *VM) evalInstruction(instr *Instruction, tag TagInfo, attrs *AttributeMatcher) (matched bool, needsAttrs bool) {
	if instr.Kind != AttrOnly {
		if !evalAll(instr.NonAttrExprs, tag, nil) {
			return false, false
		}
	}
	if instr.Kind == NonAttrOnly {
		return true, false
	}
	if attrs == nil {
		return false, true
	}
	return evalAll(instr.AttrExprs, tag, attrs), false
}

func evalAll(exprs []SimpleExpr, tag TagInfo, attrs *AttributeMatcher) bool {
	for _, e := range exprs {
		if !evalExpr(e, tag, attrs) {
			return false
		}
	}
	return true
}

func evalExpr(e SimpleExpr, tag TagInfo, attrs *AttributeMatcher) bool {
	switch v := e.(type) {
	case AnyExpr:
		return true
	case UnmatchableExpr:
		return false
	case LocalNameExpr:
		return v.Name == tag.LocalName
	case IDExpr:
		return attrs != nil && attrs.IDMatches(v.ID, v.Case)
	case ClassExpr:
		return attrs != nil && attrs.HasClass(v.Class, v.Case)
	case AttrExistsExpr:
		return attrs != nil && attrs.HasAttribute(v.Name)
	case AttrEqExpr:
		return attrs != nil && attrs.AttrEq(v.Name, v.Value, v.Case)
	case AttrIncludesExpr:
		return attrs != nil && attrs.MatchesSplitBy(v.Name, v.Value, v.Case)
	case AttrDashMatchExpr:
		return attrs != nil && attrs.DashMatch(v.Name, v.Value, v.Case)
	case AttrPrefixExpr:
		return attrs != nil && attrs.HasPrefix(v.Name, v.Value, v.Case)
	case AttrSuffixExpr:
		return attrs != nil && attrs.HasSuffix(v.Name, v.Value, v.Case)
	case AttrSubstringExpr:
		return attrs != nil && attrs.HasSubstring(v.Name, v.Value, v.Case)
	case NotExpr:
		for _, inner := range v.Exprs {
			if evalExpr(inner, tag, attrs) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// PopEndTag pops the stack until a frame with the matching name hash is
// found, invoking onPop for every popped frame (including the matched
// one) so the dispatcher can deactivate handlers and run stop-matching
// callbacks. Void elements are never pushed, so they never need popping.
func (vm *VM) PopEndTag(hash NameHash, onPop func(payloads []PayloadID, removeContent bool)) {
	idx := -1
	for i := len(vm.stack) - 1; i >= 0; i-- {
		if vm.stack[i].nameHash == hash {
			idx = i
			break
		}
	}
	if idx == -1 {
		return
	}
	for i := len(vm.stack) - 1; i >= idx; i-- {
		f := vm.stack[i]
		onPop(f.payloads, f.removeContent)
	}
	vm.stack = vm.stack[:idx]
}

// MarkRemoveContent sets the remove-content flag on the current
// top-of-stack element (spec.md §4.8: "when an element's matched handler
// calls remove(), the dispatcher sets remove-content on the open-element
// descriptor").
func (vm *VM) MarkRemoveContent() {
	if len(vm.stack) == 0 {
		return
	}
	vm.stack[len(vm.stack)-1].removeContent = true
}

// ContentRemoved reports whether any currently open element has had its
// content suppressed - i.e. whether byte emission should be suppressed
// right now.
func (vm *VM) ContentRemoved() bool {
	for _, f := range vm.stack {
		if f.removeContent {
			return true
		}
	}
	return false
}

func dedupInstrIDs(ids []InstrID) []InstrID {
	if len(ids) < 2 {
		return ids
	}
	seen := make(map[InstrID]struct{}, len(ids))
	out := ids[:0]
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
