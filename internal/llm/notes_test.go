package llm

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTranslateWithNotes(t *testing.T) {
	s := MustSchema(
		StringField("introduction", "An introduction extracted from the document"),
		IntegerField("count", ""),
		EnumListField("communication_protocols", "", "gRPC", "https", "REST/JSON"),
		EnumField("tone", "Overall tone.", "formal", "casual"),
		ListField("tags", ""),
	)

	outline, notes := TranslateWithNotes(s)

	b, err := json.Marshal(outline)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"introduction": "string",
		"count": "integer",
		"communication_protocols": ["gRPC", "https", "REST/JSON"],
		"tone": ["formal", "casual"],
		"tags": "array"
	}`, string(b))

	intro, ok := notes.Get("introduction")
	require.True(t, ok)
	assert.Equal(t, "An introduction extracted from the document", intro)

	protocols, ok := notes.Get("communication_protocols")
	require.True(t, ok)
	assert.Equal(t, "Choose one or more from: gRPC, https, REST/JSON.", protocols)

	tone, _ := notes.Get("tone")
	assert.Equal(t, "Overall tone. Choose one or more from: formal, casual.", tone)

	_, ok = notes.Get("count")
	assert.False(t, ok, "fields without description or choices get no note")
	_, ok = notes.Get("tags")
	assert.False(t, ok)
}

func TestBuildLegacyPrompt_EmbedsOutlineTwice(t *testing.T) {
	s := MustSchema(StringField("title", "The title"))
	outline, notes := TranslateWithNotes(s)

	p := BuildLegacyPrompt("DOC TEXT", outline, notes)

	assert.Contains(t, p, "Data:\nDOC TEXT\n")
	assert.Contains(t, p, "Instructions:\n")
	assert.Contains(t, p, `"The title"`)
	assert.Equal(t, 2, strings.Count(p, `"title": "string"`))
}

