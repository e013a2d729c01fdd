package selector

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func mustParse(t *testing.T, src string) *Selector {
	t.Helper()
	sel, err := Parse(src)
	require.NoError(t, err)
	return sel
}

func TestCompileSharesCommonPrefix(t *testing.T) {
	selectors := []*Selector{
		mustParse(t, ".c1 > .c2 .c3"),
		mustParse(t, ".c1 > .c2 #bar"),
	}
	prog, err := Compile(selectors)
	require.NoError(t, err)

	// The shared ".c1 > .c2" prefix must compile to one ".c1" instruction
	// whose single child jump leads to one ".c2" instruction with two
	// hereditary children (for .c3 and #bar), not two duplicated chains.
	// Class selectors need attribute data, so ".c1" is AttrOnly.
	require.Len(t, prog.EntryPoints, 1)
	root := prog.Instructions[prog.EntryPoints[0]]
	require.Equal(t, AttrOnly, root.Kind)
	require.Empty(t, root.Payloads)
	require.Len(t, root.Jumps, 1)
	require.Empty(t, root.HereditaryJumps)

	c2 := prog.Instructions[root.Jumps[0]]
	require.Empty(t, c2.Payloads)
	require.Len(t, c2.HereditaryJumps, 2)
}

func TestCompilePayloadIDsMatchInputOrder(t *testing.T) {
	selectors := []*Selector{
		mustParse(t, "div"),
		mustParse(t, "span"),
	}
	prog, err := Compile(selectors)
	require.NoError(t, err)
	require.Len(t, prog.EntryPoints, 2)

	seen := map[PayloadID]bool{}
	for _, id := range prog.EntryPoints {
		instr := prog.Instructions[id]
		require.Len(t, instr.Payloads, 1)
		seen[instr.Payloads[0]] = true
	}
	require.True(t, seen[0])
	require.True(t, seen[1])
}

func TestCompileInstructionKinds(t *testing.T) {
	selectors := []*Selector{
		mustParse(t, "div"),                 // NonAttrOnly
		mustParse(t, "[data-x]"),            // AttrOnly
		mustParse(t, "div[data-x]"),         // Mixed
	}
	prog, err := Compile(selectors)
	require.NoError(t, err)

	kinds := map[InstrKind]int{}
	for _, instr := range prog.Instructions {
		kinds[instr.Kind]++
	}
	require.Equal(t, 1, kinds[NonAttrOnly])
	require.Equal(t, 1, kinds[AttrOnly])
	require.Equal(t, 1, kinds[Mixed])
}

func TestCompileRejectsEmptySelector(t *testing.T) {
	_, err := Compile([]*Selector{{Source: "", Components: nil}})
	require.Error(t, err)
}

func TestCompileChildVsDescendant(t *testing.T) {
	selectors := []*Selector{
		mustParse(t, "ul > li"),
		mustParse(t, "ul li"),
	}
	prog, err := Compile(selectors)
	require.NoError(t, err)
	require.Len(t, prog.EntryPoints, 1)

	ul := prog.Instructions[prog.EntryPoints[0]]
	require.Len(t, ul.Jumps, 1)
	require.Len(t, ul.HereditaryJumps, 1)
}
