package llm

import (
	"bytes"
	"encoding/json"
	"strings"
)

// Outline is the compact field→type form of a schema used by prompt-mode extraction.
// Values are a type name ("string", "integer", "float", "boolean", "array") or the
// list of allowed choices for enumerated fields.
type Outline []OutlineEntry

type OutlineEntry struct {
	Name string
	Type any
}

func (o Outline) MarshalJSON() ([]byte, error) {
	kv := make([]keyValue, len(o))
	for i, e := range o {
		kv[i] = keyValue{e.Name, e.Type}
	}
	return marshalOrdered(kv)
}

// Notes holds per-field instructions keyed by field name, in declaration order.
type Notes []Note

type Note struct {
	Name string
	Text string
}

func (n Notes) MarshalJSON() ([]byte, error) {
	kv := make([]keyValue, len(n))
	for i, e := range n {
		kv[i] = keyValue{e.Name, e.Text}
	}
	return marshalOrdered(kv)
}

// Get returns the note for a field.
func (n Notes) Get(name string) (string, bool) {
	for _, e := range n {
		if e.Name == name {
			return e.Text, true
		}
	}
	return "", false
}

// TranslateWithNotes is the prompt-mode translation: a compact outline plus a note per
// field. Enumerated fields always get a "Choose one or more from" hint, appended to the
// description when there is one.
func TranslateWithNotes(s *Schema) (Outline, Notes) {
	outline := make(Outline, 0, len(s.fields))
	notes := make(Notes, 0, len(s.fields))
	for _, f := range s.fields {
		var typ any
		switch f.Kind {
		case KindEnum, KindEnumList:
			typ = append([]string(nil), f.Choices...)
		case KindString:
			typ = "string"
		case KindInteger:
			typ = "integer"
		case KindFloat:
			typ = "float"
		case KindBoolean:
			typ = "boolean"
		case KindList:
			typ = "array"
		default:
			typ = "string"
		}
		outline = append(outline, OutlineEntry{Name: f.Name, Type: typ})

		hasChoices := f.Kind == KindEnum || f.Kind == KindEnumList
		switch {
		case f.Description != "" && hasChoices:
			notes = append(notes, Note{f.Name, f.Description + " " + chooseFrom(f.Choices)})
		case f.Description != "":
			notes = append(notes, Note{f.Name, f.Description})
		case hasChoices:
			notes = append(notes, Note{f.Name, chooseFrom(f.Choices)})
		}
	}
	return outline, notes
}

func chooseFrom(choices []string) string {
	return "Choose one or more from: " + strings.Join(choices, ", ") + "."
}

type keyValue struct {
	Key   string
	Value any
}

func marshalOrdered(kv []keyValue) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, e := range kv {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(e.Key)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(e.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
