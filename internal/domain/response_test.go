package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParsedOutput_StringField(t *testing.T) {
	obj := ParsedOutput{Kind: ParsedObject, Object: map[string]any{
		"reply":   "  hi there ",
		"blank":   "   ",
		"count":   3,
		"message": "ok",
	}}

	s, ok := obj.StringField("reply")
	assert.True(t, ok)
	assert.Equal(t, "hi there", s)

	_, ok = obj.StringField("blank")
	assert.False(t, ok)
	_, ok = obj.StringField("count")
	assert.False(t, ok)
	_, ok = obj.StringField("missing")
	assert.False(t, ok)

	assert.True(t, obj.Has("message"))
	assert.False(t, obj.Has("blank"))

	text := ParsedOutput{Kind: ParsedText, Text: "reply"}
	assert.False(t, text.Has("reply"))
}

func TestParsedOutput_Value(t *testing.T) {
	obj := map[string]any{"a": "b"}
	arr := []any{"x", 1.0}

	assert.Equal(t, obj, ParsedOutput{Kind: ParsedObject, Object: obj}.Value())
	assert.Equal(t, "hello", ParsedOutput{Kind: ParsedText, Text: "hello"}.Value())
	assert.Equal(t, arr, ParsedOutput{Kind: ParsedArray, Array: arr}.Value())
	assert.Nil(t, ParsedOutput{}.Value())
}

func TestStringValue(t *testing.T) {
	_, ok := StringValue(nil, "x")
	assert.False(t, ok)

	s, ok := StringValue(map[string]any{"x": " y "}, "x")
	assert.True(t, ok)
	assert.Equal(t, "y", s)
}

func TestButtonState(t *testing.T) {
	b := NewButtonState("Add to Cart")

	b.SetBusy("Adding...")
	assert.Equal(t, "Adding...", b.Label)
	assert.True(t, b.Disabled)

	// a second SetBusy keeps the original label
	b.SetBusy("Still adding...")
	b.Restore()
	assert.Equal(t, "Add to Cart", b.Label)
	assert.False(t, b.Disabled)

	// Restore without SetBusy only re-enables
	b.Disabled = true
	b.Restore()
	assert.Equal(t, "Add to Cart", b.Label)
	assert.False(t, b.Disabled)
}
