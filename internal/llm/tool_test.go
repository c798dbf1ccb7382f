package llm

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTranslate_KindsAndOrder(t *testing.T) {
	s := MustSchema(
		StringField("title", "Document title"),
		IntegerField("pages", ""),
		FloatField("score", ""),
		BooleanField("signed", ""),
		EnumField("lang", "", "en", "fr"),
		EnumListField("protocols", "", "gRPC", "https"),
		ListField("authors", "People named as authors"),
	)

	tool := Translate(s, Task{Name: "Report"})

	assert.Equal(t, "function", tool.Type)
	assert.Equal(t, "report", tool.Function.Name)
	assert.Equal(t, "object", tool.Function.Parameters.Type)
	assert.Equal(t, []string{"title", "pages", "score", "signed", "lang", "protocols", "authors"},
		tool.Function.Parameters.Required)

	props := tool.Function.Parameters.Properties
	require.Len(t, props, 7)
	for i, name := range s.Names() {
		assert.Equal(t, name, props[i].Name)
	}

	title, _ := props.Get("title")
	assert.Equal(t, Property{Type: "string", Description: "Document title"}, title)

	pages, _ := props.Get("pages")
	assert.Equal(t, "integer", pages.Type)
	assert.Empty(t, pages.Description)

	score, _ := props.Get("score")
	assert.Equal(t, "number", score.Type)

	signed, _ := props.Get("signed")
	assert.Equal(t, "boolean", signed.Type)

	lang, _ := props.Get("lang")
	assert.Equal(t, Property{Type: "string", Enum: []string{"en", "fr"}}, lang)

	protocols, _ := props.Get("protocols")
	assert.Equal(t, "array", protocols.Type)
	require.NotNil(t, protocols.Items)
	assert.Equal(t, Property{Type: "string", Enum: []string{"gRPC", "https"}}, *protocols.Items)

	authors, _ := props.Get("authors")
	assert.Equal(t, "array", authors.Type)
	assert.Equal(t, "People named as authors", authors.Description)
	require.NotNil(t, authors.Items)
	assert.Equal(t, "string", authors.Items.Type)
	assert.Nil(t, authors.Items.Enum)
}

func TestTranslate_DefaultDescription(t *testing.T) {
	s := MustSchema(StringField("a", ""))

	assert.Equal(t, "Extract structured invoice data from document text.",
		Translate(s, Task{Name: "Invoice"}).Function.Description)
	assert.Equal(t, "Pull totals.",
		Translate(s, Task{Name: "Invoice", Description: "Pull totals."}).Function.Description)
}

func TestTranslate_OpaqueBecomesString(t *testing.T) {
	s := MustSchema(OpaqueField("blob", "Anything"))

	p, ok := TranslateParameters(s).Properties.Get("blob")
	require.True(t, ok)
	assert.Equal(t, Property{Type: "string", Description: "Anything"}, p)
}

func TestTranslate_WireOrderMatchesDeclaration(t *testing.T) {
	s := MustSchema(
		StringField("zeta", ""),
		StringField("alpha", ""),
		StringField("mid", ""),
	)

	b, err := json.Marshal(Translate(s, Task{Name: "T"}))
	require.NoError(t, err)

	assert.Contains(t, string(b), `"properties":{"zeta":{"type":"string"},"alpha":{"type":"string"},"mid":{"type":"string"}}`)
	assert.Contains(t, string(b), `"required":["zeta","alpha","mid"]`)
}

func TestTranslate_IsPure(t *testing.T) {
	s := MustSchema(EnumField("e", "", "x", "y"))

	a := Translate(s, Task{Name: "T"})
	a.Function.Parameters.Properties[0].Property.Enum[0] = "mutated"

	b := Translate(s, Task{Name: "T"})
	p, _ := b.Function.Parameters.Properties.Get("e")
	assert.Equal(t, []string{"x", "y"}, p.Enum)
}
