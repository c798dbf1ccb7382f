package llm

import (
	"encoding/json"
	"strings"
)

// SystemPrompt is the persona sent as the system message on every extraction.
const SystemPrompt = "You are an Expert Document Extractor"

// BuildLegacyPrompt composes the prompt-mode user message: the outline, the document,
// the outline again for reference, and the per-field notes. The model is expected to
// answer with bare JSON in the message content.
func BuildLegacyPrompt(data string, outline Outline, notes Notes) string {
	schema := mustJSON(outline)
	instructions := mustJSON(notes)

	var b strings.Builder
	b.WriteString("Extract the following fields from the data to match the following schema:\n")
	b.WriteString(schema)
	b.WriteString("\n\nData:\n")
	b.WriteString(data)
	b.WriteString("\n\nReturn the response as JSON following the Fields schema above and nothing else, here's the schema again for reference:\n")
	b.WriteString("Schema:\n")
	b.WriteString(schema)
	b.WriteString("\n\nInstructions:\n")
	b.WriteString(instructions)
	return b.String()
}

func mustJSON(v any) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}
