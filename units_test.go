package htmlrewriter

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dpotapov/htmlrewriter/encoding"
)

func TestValidateTagNameRejectsEmpty(t *testing.T) {
	err := validateTagName(nil, "")
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	require.Equal(t, Empty, ve.Kind)
}

func TestValidateTagNameRejectsNonAlphaFirstChar(t *testing.T) {
	err := validateTagName(nil, "1div")
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	require.Equal(t, InvalidFirstCharacter, ve.Kind)
}

func TestValidateTagNameRejectsForbiddenByte(t *testing.T) {
	err := validateTagName(nil, "di v")
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	require.Equal(t, ForbiddenCharacter, ve.Kind)
}

func TestValidateTagNameAcceptsOrdinaryName(t *testing.T) {
	require.NoError(t, validateTagName(nil, "custom-element"))
}

func TestValidateAttributeNameRejectsEquals(t *testing.T) {
	err := validateAttributeName(nil, "a=b")
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	require.Equal(t, ForbiddenCharacter, ve.Kind)
}

func TestValidateCommentTextRejectsClosingSequence(t *testing.T) {
	err := validateCommentText(nil, "oops --> injected")
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	require.Equal(t, CommentClosingSequence, ve.Kind)
}

func TestCheckEncodableRejectsOutOfRangeCharacter(t *testing.T) {
	enc, ok := encoding.Lookup("windows-1252")
	require.True(t, ok)

	err := checkEncodable(enc, "café 中文") // "café 中文" - CJK isn't in windows-1252
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	require.Equal(t, UnencodableCharacter, ve.Kind)
}

func TestCheckEncodableAcceptsUTF8Unconditionally(t *testing.T) {
	enc, ok := encoding.Lookup("utf-8")
	require.True(t, ok)
	require.NoError(t, checkEncodable(enc, "中文 anything goes"))
}

func TestStartTagSetNameRenamesAndValidates(t *testing.T) {
	tag := &StartTag{name: "div"}
	require.Equal(t, "div", tag.Name())

	require.NoError(t, tag.SetName("section"))
	require.Equal(t, "section", tag.Name())

	err := tag.SetName("")
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	require.Equal(t, "section", tag.Name(), "a rejected rename must not change the current name")
}

func TestStartTagAttributeAccessorsAreCaseInsensitive(t *testing.T) {
	tag := &StartTag{attrs: []Attribute{{Name: "Class", Value: "x"}}}

	v, ok := tag.GetAttribute("class")
	require.True(t, ok)
	require.Equal(t, "x", v)
	require.True(t, tag.HasAttribute("CLASS"))

	require.NoError(t, tag.SetAttribute("class", "y"))
	require.Len(t, tag.Attributes(), 1, "SetAttribute on an existing name must update in place, not append")

	require.NoError(t, tag.SetAttribute("id", "main"))
	require.Len(t, tag.Attributes(), 2)

	tag.RemoveAttribute("CLASS")
	require.False(t, tag.HasAttribute("class"))
	require.Len(t, tag.Attributes(), 1)
}

func TestStartTagCanHaveContent(t *testing.T) {
	require.False(t, (&StartTag{name: "br"}).CanHaveContent())
	require.False(t, (&StartTag{name: "div", selfClosing: true}).CanHaveContent())
	require.True(t, (&StartTag{name: "div"}).CanHaveContent())
}

func TestElementSetTagNameRenamesMatchingEndTag(t *testing.T) {
	el := newElement(&StartTag{name: "div"}, true)
	require.NoError(t, el.SetTagName("section"))
	require.Equal(t, "section", el.Name())
	require.Equal(t, "section", el.endTag.Name())
}

func TestElementOnEndTagFailsWithoutAnEndTag(t *testing.T) {
	el := newElement(&StartTag{name: "br"}, false)
	err := el.OnEndTag(func(*EndTag) (HandlerResult, error) { return Continue, nil })
	require.ErrorIs(t, err, ErrNoEndTag)
}

func TestElementRemoveSetsIsRemoved(t *testing.T) {
	el := newElement(&StartTag{name: "div"}, true)
	require.False(t, el.IsRemoved())
	el.Remove()
	require.True(t, el.IsRemoved())
}
