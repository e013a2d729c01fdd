package treebuilder

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTextModeAssignment(t *testing.T) {
	sim := New()
	fb, err := sim.FeedbackForStartTag("script", true)
	require.NoError(t, err)
	require.Equal(t, FeedbackSwitchTextType, fb.Kind)
	require.Equal(t, ScriptData, fb.TextType)
}

func TestSVGEntryAndExit(t *testing.T) {
	sim := New()
	fb, err := sim.FeedbackForStartTag("svg", true)
	require.NoError(t, err)
	require.Equal(t, FeedbackSetAllowCData, fb.Kind)
	require.True(t, fb.AllowCData)
	require.Equal(t, SVG, sim.CurrentNamespace())

	fb = sim.FeedbackForEndTag("svg", true)
	require.Equal(t, FeedbackSetAllowCData, fb.Kind)
	require.False(t, fb.AllowCData)
	require.Equal(t, HTML, sim.CurrentNamespace())
}

func TestHTMLIntegrationPointInSVG(t *testing.T) {
	sim := New()
	_, err := sim.FeedbackForStartTag("svg", true)
	require.NoError(t, err)

	fb, err := sim.FeedbackForStartTag("desc", true)
	require.NoError(t, err)
	require.Equal(t, FeedbackRequestSelfClosingFlag, fb.Kind)

	fb = sim.FulfillSelfClosingFlagRequest(false)
	require.Equal(t, HTML, sim.CurrentNamespace())

	fb = sim.FeedbackForEndTag("desc", true)
	require.Equal(t, FeedbackSetAllowCData, fb.Kind)
	require.Equal(t, SVG, sim.CurrentNamespace())
}

func TestForeignContentExitOnHTMLBreakingTag(t *testing.T) {
	sim := New()
	_, err := sim.FeedbackForStartTag("svg", true)
	require.NoError(t, err)

	fb, err := sim.FeedbackForStartTag("div", true)
	require.NoError(t, err)
	require.Equal(t, FeedbackSetAllowCData, fb.Kind)
	require.Equal(t, HTML, sim.CurrentNamespace())
}

func TestFontRequiresAttributesToExitForeignContent(t *testing.T) {
	sim := New()
	_, err := sim.FeedbackForStartTag("svg", true)
	require.NoError(t, err)

	fb, err := sim.FeedbackForStartTag("font", true)
	require.NoError(t, err)
	require.Equal(t, FeedbackRequestStartTag, fb.Kind)
	require.Equal(t, ForeignContentExitCheck, fb.RequestReason)

	fb = sim.FulfillFontExitRequest(true)
	require.Equal(t, HTML, sim.CurrentNamespace())
}

func TestAmbiguityGuardRejectsTextModeSwitchInSelect(t *testing.T) {
	sim := New()
	_, err := sim.FeedbackForStartTag("select", true)
	require.NoError(t, err)

	_, err = sim.FeedbackForStartTag("script", true)
	require.NoError(t, err, "script is explicitly allowed inside <select>")

	_, err = sim.FeedbackForStartTag("textarea", true)
	require.NoError(t, err, "textarea exits InSelect before the ambiguity check runs")

	_, err = sim.FeedbackForStartTag("select", true)
	require.NoError(t, err)
	_, err = sim.FeedbackForStartTag("style", true)
	var ambErr *AmbiguityError
	require.ErrorAs(t, err, &ambErr)
	require.Equal(t, TextParsingAmbiguity, ambErr.Kind)
	require.Equal(t, "style", ambErr.Tag)
}

func TestAmbiguityGuardTemplateNestingInSelect(t *testing.T) {
	sim := New()
	_, err := sim.FeedbackForStartTag("select", true)
	require.NoError(t, err)
	_, err = sim.FeedbackForStartTag("template", true)
	require.NoError(t, err)

	for i := 0; i < 254; i++ {
		_, err = sim.FeedbackForStartTag("template", true)
		require.NoError(t, err)
	}
	_, err = sim.FeedbackForStartTag("template", true)
	var ambErr *AmbiguityError
	require.ErrorAs(t, err, &ambErr)
	require.Equal(t, MaxTemplateNestingReached, ambErr.Kind)
}

func TestAmbiguityGuardFrameset(t *testing.T) {
	sim := New()
	_, err := sim.FeedbackForStartTag("frameset", true)
	require.NoError(t, err)

	_, err = sim.FeedbackForStartTag("noframes", true)
	require.NoError(t, err)

	_, err = sim.FeedbackForStartTag("iframe", true)
	var ambErr *AmbiguityError
	require.ErrorAs(t, err, &ambErr)
	require.Equal(t, TextParsingAmbiguity, ambErr.Kind)
}

func TestAnnotationXMLEncodingDeterminesIntegrationPoint(t *testing.T) {
	sim := New()
	_, err := sim.FeedbackForStartTag("math", true)
	require.NoError(t, err)

	fb := sim.FulfillAnnotationXMLIntegrationPointRequest("text/html")
	require.Equal(t, FeedbackRequestSelfClosingFlag, fb.Kind)

	fb = sim.FulfillAnnotationXMLIntegrationPointRequest("application/octet-stream")
	require.Equal(t, FeedbackNone, fb.Kind)
}
