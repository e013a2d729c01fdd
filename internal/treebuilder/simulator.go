package treebuilder

import "golang.org/x/net/html/atom"

// Namespace is one of the three content namespaces the simulator tracks.
type Namespace int

const (
	HTML Namespace = iota
	SVG
	MathML
)

func (n Namespace) String() string {
	switch n {
	case SVG:
		return "svg"
	case MathML:
		return "math"
	default:
		return ""
	}
}

// tagAtom resolves a tag name the way chtml/html/parse.go does throughout
// (a.Lookup([]byte(name))) so every tag-set membership test below is an
// integer compare rather than a string compare. Unknown/custom tag names
// (custom elements, typos) all resolve to the same atom.Atom zero value,
// which is fine here: none of the sets below contains it.
func tagAtom(name string) atom.Atom {
	return atom.Lookup([]byte(name))
}

func atomSet(names ...string) map[atom.Atom]bool {
	m := make(map[atom.Atom]bool, len(names))
	for _, n := range names {
		m[tagAtom(n)] = true
	}
	return m
}

// foreignContentExitTags is the fixed list of HTML-breaking start tags
// that end foreign content wherever they appear (spec.md §4.3), grounded
// on original_source's tree_builder_simulator - <font> is handled
// separately below since it only breaks out conditionally.
var foreignContentExitTags = atomSet(
	"b", "big", "blockquote", "body", "br",
	"center", "code", "dd", "div", "dl",
	"dt", "em", "embed", "h1", "h2", "h3",
	"h4", "h5", "h6", "head", "hr", "i",
	"img", "li", "listing", "menu", "meta",
	"nobr", "ol", "p", "pre", "ruby", "s",
	"small", "span", "strong", "strike", "sub",
	"sup", "table", "tt", "u", "ul", "var",
)

var mathMLTextIntegrationPoints = atomSet("mi", "mo", "mn", "ms", "mtext")

var svgHTMLIntegrationPoints = atomSet("desc", "title", "foreignObject")

var textModeByTag = map[atom.Atom]TextType{
	tagAtom("textarea"): RCData, tagAtom("title"): RCData,
	tagAtom("plaintext"): PlainText,
	tagAtom("script"):    ScriptData,
	tagAtom("style"):     RawText, tagAtom("iframe"): RawText, tagAtom("xmp"): RawText,
	tagAtom("noembed"): RawText, tagAtom("noframes"): RawText, tagAtom("noscript"): RawText,
}

// Simulator tracks the current namespace and the ambiguity guard; it
// never builds a node tree (spec.md §4.3 - "without maintaining a real
// stack of open elements").
type Simulator struct {
	nsStack []Namespace
	guard   ambiguityGuard
}

// New returns a Simulator starting in the HTML namespace.
func New() *Simulator {
	return &Simulator{nsStack: []Namespace{HTML}}
}

func (s *Simulator) currentNS() Namespace {
	return s.nsStack[len(s.nsStack)-1]
}

func (s *Simulator) enterNS(ns Namespace) Feedback {
	s.nsStack = append(s.nsStack, ns)
	return setAllowCData(ns != HTML)
}

func (s *Simulator) leaveNS() Feedback {
	if len(s.nsStack) > 1 {
		s.nsStack = s.nsStack[:len(s.nsStack)-1]
	}
	return setAllowCData(s.currentNS() != HTML)
}

func (s *Simulator) isIntegrationPointEnter(name string) bool {
	switch s.currentNS() {
	case SVG:
		return svgHTMLIntegrationPoints[tagAtom(name)]
	case MathML:
		return mathMLTextIntegrationPoints[tagAtom(name)]
	default:
		return false
	}
}

// checkIntegrationPointExit handles an end tag observed while in the HTML
// namespace: if the element just below on the namespace stack is a
// foreign integration point of the matching kind, leave HTML and resume
// the foreign namespace. nameKnown == false models an end tag with no
// decodable name (the <annotation-xml> case, which needs the full lexeme).
func (s *Simulator) checkIntegrationPointExit(name string, nameKnown bool) Feedback {
	if len(s.nsStack) < 2 {
		return none()
	}
	prevNS := s.nsStack[len(s.nsStack)-2]
	switch {
	case nameKnown && prevNS == MathML && mathMLTextIntegrationPoints[tagAtom(name)]:
		return s.leaveNS()
	case nameKnown && prevNS == SVG && svgHTMLIntegrationPoints[tagAtom(name)]:
		return s.leaveNS()
	case !nameKnown && prevNS == MathML:
		return Feedback{Kind: FeedbackRequestEndTag}
	default:
		return none()
	}
}

func (s *Simulator) feedbackForStartTagInForeignContent(name string, nameKnown bool) Feedback {
	switch {
	case nameKnown && foreignContentExitTags[tagAtom(name)]:
		return s.leaveNS()
	case nameKnown && name == "font":
		return requestStartTag(ForeignContentExitCheck)
	case nameKnown && s.isIntegrationPointEnter(name):
		return Feedback{Kind: FeedbackRequestSelfClosingFlag}
	case !nameKnown && s.currentNS() == MathML:
		return requestStartTag(IntegrationPointCheck)
	default:
		return none()
	}
}

// FeedbackForStartTag is called for every start tag, decodable or not
// (an undecodable tag name hash still participates in foreign-content and
// integration-point checks via the nameKnown=false path).
func (s *Simulator) FeedbackForStartTag(name string, nameKnown bool) (Feedback, error) {
	if nameKnown {
		if err := s.guard.trackStartTag(name); err != nil {
			return Feedback{}, err
		}
	}

	switch {
	case nameKnown && name == "svg":
		return s.enterNS(SVG), nil
	case nameKnown && name == "math":
		return s.enterNS(MathML), nil
	case nameKnown && s.currentNS() == HTML:
		if t, ok := textModeByTag[tagAtom(name)]; ok {
			return switchTextType(t), nil
		}
		return none(), nil
	case s.currentNS() != HTML:
		return s.feedbackForStartTagInForeignContent(name, nameKnown), nil
	default:
		return none(), nil
	}
}

// FeedbackForEndTag is called for every end tag.
func (s *Simulator) FeedbackForEndTag(name string, nameKnown bool) Feedback {
	if nameKnown {
		s.guard.trackEndTag(name)
	}

	switch {
	case nameKnown && s.currentNS() == SVG && name == "svg":
		return s.leaveNS()
	case nameKnown && s.currentNS() == MathML && name == "math":
		return s.leaveNS()
	case s.currentNS() == HTML:
		return s.checkIntegrationPointExit(name, nameKnown)
	default:
		return none()
	}
}

// FulfillSelfClosingFlagRequest resolves a FeedbackRequestSelfClosingFlag:
// entering an HTML/MathML-text integration point only actually switches
// to the HTML namespace when the tag was NOT self-closed.
func (s *Simulator) FulfillSelfClosingFlagRequest(selfClosing bool) Feedback {
	if selfClosing {
		return none()
	}
	return s.enterNS(HTML)
}

// FulfillEndTagNameRequest resolves a FeedbackRequestEndTag: only
// "annotation-xml" (case-insensitive) triggers a namespace exit.
func (s *Simulator) FulfillEndTagNameRequest(name string) Feedback {
	if asciiLower(name) == "annotation-xml" {
		return s.leaveNS()
	}
	return none()
}

// FulfillFontExitRequest resolves a FeedbackRequestStartTag of kind
// ForeignContentExitCheck for <font>: it exits foreign content only if it
// carries color, size, or face attributes.
func (s *Simulator) FulfillFontExitRequest(hasColorSizeOrFace bool) Feedback {
	if hasColorSizeOrFace {
		return s.leaveNS()
	}
	return none()
}

// FulfillAnnotationXMLIntegrationPointRequest resolves a
// FeedbackRequestStartTag of kind IntegrationPointCheck for
// <annotation-xml encoding=...>.
func (s *Simulator) FulfillAnnotationXMLIntegrationPointRequest(encoding string) Feedback {
	switch asciiLower(encoding) {
	case "text/html", "application/xhtml+xml":
		return Feedback{Kind: FeedbackRequestSelfClosingFlag}
	default:
		return none()
	}
}

func asciiLower(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}

// Depth returns the current namespace nesting depth (1 == HTML only).
func (s *Simulator) Depth() int {
	return len(s.nsStack)
}

// CurrentNamespace reports the namespace the simulator believes is active.
func (s *Simulator) CurrentNamespace() Namespace {
	return s.currentNS()
}
