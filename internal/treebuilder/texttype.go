// Package treebuilder is a lightweight substitute for full HTML5 tree
// construction: it tracks just enough state (a namespace stack and a
// text-parsing ambiguity guard) to tell the parser when to switch text
// modes and when foreign content begins or ends, per spec.md §4.3.
//
// Modeled on the teacher's insertion-mode functions in chtml/parse.go
// (inBodyIM, textIM) - generalized here from "build a Node tree" to
// "emit feedback the parser can act on", and grounded in the original
// Rust tree_builder_simulator this spec was distilled from.
package treebuilder

// TextType is the tokenizer text-parsing mode. Transitions are driven by
// start tags observed in the HTML namespace (spec.md §4.3).
type TextType int

const (
	Data TextType = iota
	RCData
	RawText
	ScriptData
	PlainText
	CDataSection
)

func (t TextType) String() string {
	switch t {
	case Data:
		return "Data"
	case RCData:
		return "RCData"
	case RawText:
		return "RawText"
	case ScriptData:
		return "ScriptData"
	case PlainText:
		return "PlainText"
	case CDataSection:
		return "CDataSection"
	default:
		return "Unknown"
	}
}
