package dispatch

import (
	"testing"

	"github.com/dpotapov/htmlrewriter/internal/lexer"
	"github.com/stretchr/testify/require"
)

func TestShouldCaptureGatesByFlag(t *testing.T) {
	require.True(t, ShouldCapture(lexer.TokenComment, CaptureComments))
	require.False(t, ShouldCapture(lexer.TokenComment, CaptureText))
	require.True(t, ShouldCapture(lexer.TokenDoctype, CaptureDoctypes|CaptureText))
	require.False(t, ShouldCapture(lexer.TokenEOF, CaptureText|CaptureComments|CaptureStartTags|CaptureEndTags|CaptureDoctypes))
}

func TestCountersDocumentFlagsAlwaysSet(t *testing.T) {
	c := NewCounters(CaptureDoctypes | CaptureText)
	require.Equal(t, CaptureDoctypes|CaptureText, c.Flags())
}

func TestCountersReflectActiveSelectorMatches(t *testing.T) {
	c := NewCounters(0)
	require.Equal(t, CaptureFlags(0), c.Flags())

	c.NoteElementActive(1)
	require.True(t, c.Flags().Has(CaptureStartTags))
	require.False(t, c.Flags().Has(CaptureText))

	c.NoteTextActive(1)
	c.NoteCommentActive(1)
	c.NoteEndTagActive(1)
	flags := c.Flags()
	require.True(t, flags.Has(CaptureText))
	require.True(t, flags.Has(CaptureComments))
	require.True(t, flags.Has(CaptureEndTags))

	c.NoteElementActive(-1)
	require.False(t, c.Flags().Has(CaptureStartTags))
}

func TestRemovedContentTrackerNesting(t *testing.T) {
	var tr RemovedContentTracker
	require.False(t, tr.Active())

	tr.Mark()
	tr.Mark()
	require.True(t, tr.Active())

	tr.Unmark()
	require.True(t, tr.Active(), "still one nested removed element open")

	tr.Unmark()
	require.False(t, tr.Active())
}
