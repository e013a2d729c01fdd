package htmlrewriter

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func rewriteAll(t *testing.T, b *Builder, settings Settings, input string) string {
	t.Helper()
	var out strings.Builder
	rw, err := b.Build(settings, func(chunk []byte) { out.Write(chunk) })
	require.NoError(t, err)
	require.NoError(t, rw.Write([]byte(input)))
	require.NoError(t, rw.End())
	return out.String()
}

func TestRewriterPassesThroughUnmatchedDocument(t *testing.T) {
	b := NewBuilder()
	got := rewriteAll(t, b, Settings{}, "<html><body><p>hello</p></body></html>")
	require.Equal(t, "<html><body><p>hello</p></body></html>", got)
}

func TestRewriterSetAttributeOnMatchedElement(t *testing.T) {
	b := NewBuilder()
	err := b.AddElementContentHandlers("a", ElementContentHandlers{
		Element: func(el *Element) (HandlerResult, error) {
			require.NoError(t, el.SetAttribute("rel", "nofollow"))
			return Continue, nil
		},
	})
	require.NoError(t, err)

	got := rewriteAll(t, b, Settings{}, `<a href="/x">link</a>`)
	require.Equal(t, `<a href="/x" rel="nofollow">link</a>`, got)
}

func TestRewriterRemoveDropsDescendantsAndOwnEndTag(t *testing.T) {
	b := NewBuilder()
	err := b.AddElementContentHandlers("div.ad", ElementContentHandlers{
		Element: func(el *Element) (HandlerResult, error) {
			el.Remove()
			return Continue, nil
		},
	})
	require.NoError(t, err)

	got := rewriteAll(t, b, Settings{}, `<div class="ad"><span>buy now</span></div><p>keep</p>`)
	require.Equal(t, `<p>keep</p>`, got)
}

func TestRewriterRemoveAndKeepContent(t *testing.T) {
	b := NewBuilder()
	err := b.AddElementContentHandlers("div.wrap", ElementContentHandlers{
		Element: func(el *Element) (HandlerResult, error) {
			el.RemoveAndKeepContent()
			return Continue, nil
		},
	})
	require.NoError(t, err)

	got := rewriteAll(t, b, Settings{}, `<div class="wrap"><em>text</em></div>`)
	require.Equal(t, `<em>text</em>`, got)
}

func TestRewriterBeforeAfterOnElement(t *testing.T) {
	b := NewBuilder()
	err := b.AddElementContentHandlers("h1", ElementContentHandlers{
		Element: func(el *Element) (HandlerResult, error) {
			el.Before("<!--start-->", HTML)
			el.After("<!--end-->", HTML)
			return Continue, nil
		},
	})
	require.NoError(t, err)

	got := rewriteAll(t, b, Settings{}, `<h1>Title</h1>`)
	require.Equal(t, `<!--start--><h1>Title</h1><!--end-->`, got)
}

func TestRewriterRemovedElementOwnBeforeAfterStillEmit(t *testing.T) {
	// spec.md §4.7: an element's own before/after mutations still emit even
	// though Remove() was called on it; its descendants' handlers, however,
	// never fire at all once an ancestor has removed content - there is no
	// surviving output for them to mutate.
	b := NewBuilder()
	err := b.AddElementContentHandlers("div.outer", ElementContentHandlers{
		Element: func(el *Element) (HandlerResult, error) {
			el.Before("<!--before-->", HTML)
			el.After("<!--after-->", HTML)
			el.Remove()
			return Continue, nil
		},
	})
	require.NoError(t, err)
	spanFired := false
	err = b.AddElementContentHandlers("span.inner", ElementContentHandlers{
		Element: func(el *Element) (HandlerResult, error) {
			spanFired = true
			return Continue, nil
		},
	})
	require.NoError(t, err)

	got := rewriteAll(t, b, Settings{}, `<div class="outer"><span class="inner">x</span></div>`)
	require.Equal(t, `<!--before--><!--after-->`, got)
	require.False(t, spanFired, "descendant handlers must not fire while an ancestor has removed content")
}

func TestRewriterSetTextContentEscapesByDefault(t *testing.T) {
	b := NewBuilder()
	err := b.AddElementContentHandlers("p", ElementContentHandlers{
		Text: func(tc *TextChunk) (HandlerResult, error) {
			tc.Replace("<b>bold</b>", Text)
			return Continue, nil
		},
	})
	require.NoError(t, err)

	got := rewriteAll(t, b, Settings{}, `<p>hi</p>`)
	require.Equal(t, `<p>&lt;b&gt;bold&lt;/b&gt;</p>`, got)
}

func TestRewriterSetInnerContentHTML(t *testing.T) {
	b := NewBuilder()
	err := b.AddElementContentHandlers("div", ElementContentHandlers{
		Element: func(el *Element) (HandlerResult, error) {
			el.SetInnerContent("<b>new</b>", HTML)
			return Continue, nil
		},
	})
	require.NoError(t, err)

	got := rewriteAll(t, b, Settings{}, `<div><span>old</span></div>`)
	require.Equal(t, `<div><b>new</b></div>`, got)
}

func TestRewriterOnEndTagFiresForMatchingElement(t *testing.T) {
	b := NewBuilder()
	var seen string
	err := b.AddElementContentHandlers("p", ElementContentHandlers{
		Element: func(el *Element) (HandlerResult, error) {
			return Continue, el.OnEndTag(func(et *EndTag) (HandlerResult, error) {
				seen = et.Name()
				return Continue, nil
			})
		},
	})
	require.NoError(t, err)

	rewriteAll(t, b, Settings{}, `<p>hi</p>`)
	require.Equal(t, "p", seen)
}

func TestRewriterDoctypeHandlerFiresOnce(t *testing.T) {
	b := NewBuilder()
	var calls int
	var name string
	b.AddDocumentContentHandlers(DocumentContentHandlers{
		Doctype: func(dt *Doctype) (HandlerResult, error) {
			calls++
			name, _ = dt.Name()
			return Continue, nil
		},
	})

	rewriteAll(t, b, Settings{}, `<!DOCTYPE html><html></html>`)
	require.Equal(t, 1, calls)
	require.Equal(t, "html", name)
}

func TestRewriterCommentHandlerCanReplace(t *testing.T) {
	b := NewBuilder()
	err := b.AddElementContentHandlers("div", ElementContentHandlers{
		Comments: func(c *Comment) (HandlerResult, error) {
			c.Replace("censored", Text)
			return Continue, nil
		},
	})
	require.NoError(t, err)

	got := rewriteAll(t, b, Settings{}, `<div><!-- secret --></div>`)
	require.Equal(t, `<div>censored</div>`, got)
}

func TestRewriterHandlerStopAbortsWrite(t *testing.T) {
	b := NewBuilder()
	err := b.AddElementContentHandlers("p", ElementContentHandlers{
		Element: func(el *Element) (HandlerResult, error) { return Stop, nil },
	})
	require.NoError(t, err)

	rw, err := b.Build(Settings{}, func([]byte) {})
	require.NoError(t, err)
	err = rw.Write([]byte(`<p>hi</p>`))
	require.Error(t, err)
	var stopped *HandlerStopped
	require.ErrorAs(t, err, &stopped)
}

func TestRewriterAdjustsMetaCharset(t *testing.T) {
	b := NewBuilder()
	got := rewriteAll(t, b, Settings{Encoding: "windows-1252", AdjustCharsetOnMetaTag: true},
		`<meta charset="utf-8">`)
	require.Equal(t, `<meta charset="windows-1252">`, got)
}

func TestRewriterConcurrencyGuardRejectsReentrantWrite(t *testing.T) {
	b := NewBuilder()
	var inner *Rewriter
	err := b.AddElementContentHandlers("p", ElementContentHandlers{
		Element: func(el *Element) (HandlerResult, error) {
			err := inner.Write([]byte("<span></span>"))
			require.ErrorIs(t, err, ErrConcurrencyAmbiguity)
			return Continue, nil
		},
	})
	require.NoError(t, err)

	rw, err := b.Build(Settings{}, func([]byte) {})
	require.NoError(t, err)
	inner = rw
	require.NoError(t, rw.Write([]byte(`<p>hi</p>`)))
}

func TestRewriterUnknownEncodingRejectedAtBuild(t *testing.T) {
	b := NewBuilder()
	_, err := b.Build(Settings{Encoding: "not-a-real-encoding"}, func([]byte) {})
	require.Error(t, err)
	var encErr *EncodingError
	require.ErrorAs(t, err, &encErr)
	require.Equal(t, UnknownEncoding, encErr.Kind)
}

func TestRewriterInvalidSelectorRejectedAtRegistration(t *testing.T) {
	b := NewBuilder()
	err := b.AddElementContentHandlers("::not-a-thing(", ElementContentHandlers{})
	require.Error(t, err)
	require.ErrorIs(t, err, ErrInvalidSelector)
}
