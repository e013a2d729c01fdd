package selector

import (
	"fmt"
	"sort"
	"strings"
)

// Compile compiles selectors into a Program. The returned Program's
// PayloadID i corresponds to selectors[i] - callers use this identity to
// map a firing payload back to a registered handler.
//
// Construction merges equivalent predicate nodes so that selectors sharing
// a prefix (e.g. ".c1 > .c2 .c3" and ".c1 > .c2 #bar") share the ".c1 > .c2"
// node, per spec.md §4.4.
func Compile(selectors []*Selector) (*Program, error) {
	root := &buildNode{children: map[string]*buildNode{}}

	for i, sel := range selectors {
		if sel == nil || len(sel.Components) == 0 {
			return nil, fmt.Errorf("selector %d has no components", i)
		}
		cur := root
		for _, comp := range sel.Components {
			key := compoundKey(comp)
			child, ok := cur.children[key]
			if !ok {
				child = &buildNode{
					children: map[string]*buildNode{},
					combinator: comp.Combinator,
					exprs:      comp.Exprs,
				}
				cur.children[key] = child
			}
			cur = child
		}
		cur.payloads = append(cur.payloads, PayloadID(i))
	}

	c := &compilerState{ids: map[*buildNode]InstrID{}}
	var entry []InstrID
	// Deterministic ordering over the root's children for reproducible
	// compilation output (map iteration order is otherwise random).
	for _, key := range sortedKeys(root.children) {
		child := root.children[key]
		id := c.assign(child)
		entry = append(entry, id)
	}

	prog := &Program{
		Instructions: make([]*Instruction, len(c.order)),
		EntryPoints:  entry,
	}
	for i, n := range c.order {
		prog.Instructions[i] = buildInstruction(n, c)
	}
	return prog, nil
}

type buildNode struct {
	combinator Combinator
	exprs      []SimpleExpr
	children   map[string]*buildNode
	payloads   []PayloadID
}

type compilerState struct {
	ids   map[*buildNode]InstrID
	order []*buildNode
}

// assign walks n and its descendants depth-first, assigning each a stable
// InstrID in visitation order. Nodes already visited (shared via merging)
// are not revisited.
func (c *compilerState) assign(n *buildNode) InstrID {
	if id, ok := c.ids[n]; ok {
		return id
	}
	id := InstrID(len(c.order))
	c.ids[n] = id
	c.order = append(c.order, n)
	for _, key := range sortedKeys(n.children) {
		c.assign(n.children[key])
	}
	return id
}

func buildInstruction(n *buildNode, c *compilerState) *Instruction {
	instr := &Instruction{Payloads: n.payloads}

	nonAttr, attr := splitExprs(n.exprs)
	instr.NonAttrExprs = nonAttr
	instr.AttrExprs = attr
	switch {
	case len(attr) == 0:
		instr.Kind = NonAttrOnly
	case len(nonAttr) == 0:
		instr.Kind = AttrOnly
	default:
		instr.Kind = Mixed
	}

	for _, key := range sortedKeys(n.children) {
		child := n.children[key]
		id := c.ids[child]
		if child.combinator == Child {
			instr.Jumps = append(instr.Jumps, id)
		} else {
			instr.HereditaryJumps = append(instr.HereditaryJumps, id)
		}
	}
	return instr
}

// splitExprs partitions a compound's simple expressions into those that
// need only the tag name and those that need attribute data.
func splitExprs(exprs []SimpleExpr) (nonAttr, attr []SimpleExpr) {
	for _, e := range exprs {
		if NeedsAttributes(e) {
			attr = append(attr, e)
		} else {
			nonAttr = append(nonAttr, e)
		}
	}
	return
}

func sortedKeys(m map[string]*buildNode) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// compoundKey returns a canonical string identifying a Compound for trie
// merging: same combinator and same set of simple expressions (order
// independent, since ANDing is commutative) map to the same key.
func compoundKey(c Compound) string {
	parts := make([]string, len(c.Exprs))
	for i, e := range c.Exprs {
		parts[i] = exprKey(e)
	}
	sort.Strings(parts)
	comb := "D"
	if c.Combinator == Child {
		comb = "C"
	}
	return comb + "|" + strings.Join(parts, ",")
}

func exprKey(e SimpleExpr) string {
	switch v := e.(type) {
	case AnyExpr:
		return "*"
	case UnmatchableExpr:
		return "!"
	case LocalNameExpr:
		return "tag:" + v.Name
	case IDExpr:
		return fmt.Sprintf("id:%s:%d", v.ID, v.Case)
	case ClassExpr:
		return fmt.Sprintf("class:%s:%d", v.Class, v.Case)
	case AttrExistsExpr:
		return "attr:" + v.Name
	case AttrEqExpr:
		return fmt.Sprintf("attr=:%s:%s:%d", v.Name, v.Value, v.Case)
	case AttrIncludesExpr:
		return fmt.Sprintf("attr~=:%s:%s:%d", v.Name, v.Value, v.Case)
	case AttrDashMatchExpr:
		return fmt.Sprintf("attr|=:%s:%s:%d", v.Name, v.Value, v.Case)
	case AttrPrefixExpr:
		return fmt.Sprintf("attr^=:%s:%s:%d", v.Name, v.Value, v.Case)
	case AttrSuffixExpr:
		return fmt.Sprintf("attr$=:%s:%s:%d", v.Name, v.Value, v.Case)
	case AttrSubstringExpr:
		return fmt.Sprintf("attr*=:%s:%s:%d", v.Name, v.Value, v.Case)
	case NotExpr:
		parts := make([]string, len(v.Exprs))
		for i, inner := range v.Exprs {
			parts[i] = exprKey(inner)
		}
		sort.Strings(parts)
		return "not(" + strings.Join(parts, ",") + ")"
	default:
		return fmt.Sprintf("%T", e)
	}
}
