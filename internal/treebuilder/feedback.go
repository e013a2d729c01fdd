package treebuilder

// StartTagRequestReason explains why the simulator needs the full start
// tag lexeme before it can decide on feedback.
type StartTagRequestReason int

const (
	ForeignContentExitCheck StartTagRequestReason = iota
	IntegrationPointCheck
)

// FeedbackKind discriminates the Feedback union (spec.md §4.3).
type FeedbackKind int

const (
	FeedbackNone FeedbackKind = iota
	FeedbackSwitchTextType
	FeedbackSetAllowCData
	FeedbackRequestStartTag
	FeedbackRequestEndTag
	FeedbackRequestSelfClosingFlag
)

// Feedback is the tagged-variant response the simulator returns for every
// start/end tag it observes. Only the field matching Kind is meaningful;
// this is the "coroutine-shaped feedback" spec.md §9 describes - a plain
// returned value stands in for a suspension, since Go has no continuations.
type Feedback struct {
	Kind FeedbackKind

	TextType        TextType
	AllowCData      bool
	RequestReason   StartTagRequestReason
}

func none() Feedback { return Feedback{Kind: FeedbackNone} }

func switchTextType(t TextType) Feedback {
	return Feedback{Kind: FeedbackSwitchTextType, TextType: t}
}

func setAllowCData(allow bool) Feedback {
	return Feedback{Kind: FeedbackSetAllowCData, AllowCData: allow}
}

func requestStartTag(reason StartTagRequestReason) Feedback {
	return Feedback{Kind: FeedbackRequestStartTag, RequestReason: reason}
}
