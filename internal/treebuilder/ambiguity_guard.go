package treebuilder

import "fmt"

// AmbiguityError reports a context where the simulator cannot safely
// decide whether a text-parsing-mode-switching tag should be honored
// (spec.md §4.3, §7). It is fatal to the stream when strict mode is on.
type AmbiguityError struct {
	// Kind distinguishes the two failure shapes so callers can match on
	// it without parsing the message.
	Kind AmbiguityErrorKind
	// Tag is set for TextParsingAmbiguity.
	Tag string
	// DepthLimit is set for MaxTemplateNestingReached.
	DepthLimit int
}

type AmbiguityErrorKind int

const (
	TextParsingAmbiguity AmbiguityErrorKind = iota
	MaxTemplateNestingReached
)

func (e *AmbiguityError) Error() string {
	switch e.Kind {
	case TextParsingAmbiguity:
		return fmt.Sprintf("ambiguous text-parsing-mode-switching tag %q in a context the tree-builder simulator cannot safely resolve", e.Tag)
	case MaxTemplateNestingReached:
		return fmt.Sprintf("exceeded maximum supported <template> nesting depth of %d", e.DepthLimit)
	default:
		return "tree-builder ambiguity"
	}
}

const templateDepthLimit = 255

var textParsingModeSwitchTags = map[string]bool{
	"textarea": true, "title": true, "plaintext": true, "script": true,
	"style": true, "iframe": true, "xmp": true, "noembed": true,
	"noframes": true, "noscript": true,
}

type ambiguityState int

const (
	stateDefault ambiguityState = iota
	stateInSelect
	stateInTemplateInSelect
	stateInOrAfterFrameset
)

// ambiguityGuard bails out, rather than guesses, when a text-parsing-mode
// switching start tag appears somewhere the simulator cannot tell whether
// tree construction would actually honor it (inside <select>, or in/after
// <frameset>) - see original_source ambiguity_guard.rs for the security
// rationale (XSS gadgets via HTML sanitizers misparsing ignored tags).
type ambiguityGuard struct {
	state         ambiguityState
	templateDepth int
}

func (g *ambiguityGuard) trackStartTag(name string) error {
	switch g.state {
	case stateDefault:
		switch name {
		case "select":
			g.state = stateInSelect
		case "frameset":
			g.state = stateInOrAfterFrameset
		}
	case stateInSelect:
		switch name {
		case "select", "textarea", "input", "keygen":
			g.state = stateDefault
		case "template":
			g.state = stateInTemplateInSelect
			g.templateDepth = 1
		case "script":
			// allowed inside <select>
		default:
			if textParsingModeSwitchTags[name] {
				return &AmbiguityError{Kind: TextParsingAmbiguity, Tag: name}
			}
		}
	case stateInTemplateInSelect:
		if name == "template" {
			if g.templateDepth == templateDepthLimit {
				return &AmbiguityError{Kind: MaxTemplateNestingReached, DepthLimit: templateDepthLimit}
			}
			g.templateDepth++
		} else if textParsingModeSwitchTags[name] {
			return &AmbiguityError{Kind: TextParsingAmbiguity, Tag: name}
		}
	case stateInOrAfterFrameset:
		if name != "noframes" && textParsingModeSwitchTags[name] {
			return &AmbiguityError{Kind: TextParsingAmbiguity, Tag: name}
		}
	}
	return nil
}

func (g *ambiguityGuard) trackEndTag(name string) {
	switch g.state {
	case stateInSelect:
		if name == "select" {
			g.state = stateDefault
		}
	case stateInTemplateInSelect:
		if name == "template" {
			g.templateDepth--
			if g.templateDepth == 0 {
				g.state = stateInSelect
			}
		}
	}
}
