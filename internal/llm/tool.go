package llm

import "strings"

// Tool is the chat-completions "tools" entry for one extraction task.
type Tool struct {
	Type     string   `json:"type"`
	Function Function `json:"function"`
}

type Function struct {
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Parameters  Parameters `json:"parameters"`
}

// Parameters is the JSON-schema object describing the function arguments.
type Parameters struct {
	Type       string     `json:"type"`
	Properties Properties `json:"properties"`
	Required   []string   `json:"required"`
}

type Property struct {
	Type        string    `json:"type"`
	Description string    `json:"description,omitempty"`
	Enum        []string  `json:"enum,omitempty"`
	Items       *Property `json:"items,omitempty"`
}

// NamedProperty pairs a property with its field name.
type NamedProperty struct {
	Name     string
	Property Property
}

// Properties keeps declaration order on the wire; a map would sort keys.
type Properties []NamedProperty

func (p Properties) MarshalJSON() ([]byte, error) {
	kv := make([]keyValue, len(p))
	for i, np := range p {
		kv[i] = keyValue{np.Name, np.Property}
	}
	return marshalOrdered(kv)
}

// Get looks a property up by field name.
func (p Properties) Get(name string) (Property, bool) {
	for _, np := range p {
		if np.Name == name {
			return np.Property, true
		}
	}
	return Property{}, false
}

// Translate converts an extraction schema into a function tool. It never fails:
// kinds it does not recognise are emitted as plain strings.
func Translate(s *Schema, task Task) Tool {
	name := strings.ToLower(strings.TrimSpace(task.Name))
	desc := strings.TrimSpace(task.Description)
	if desc == "" {
		desc = "Extract structured " + name + " data from document text."
	}
	return Tool{
		Type: "function",
		Function: Function{
			Name:        name,
			Description: desc,
			Parameters:  TranslateParameters(s),
		},
	}
}

// TranslateParameters builds only the parameters object of the tool.
func TranslateParameters(s *Schema) Parameters {
	props := make(Properties, 0, len(s.fields))
	required := make([]string, 0, len(s.fields))
	for _, f := range s.fields {
		props = append(props, NamedProperty{Name: f.Name, Property: propertyFor(f)})
		required = append(required, f.Name)
	}
	return Parameters{Type: "object", Properties: props, Required: required}
}

func propertyFor(f Field) Property {
	var p Property
	switch f.Kind {
	case KindString:
		p = Property{Type: "string"}
	case KindInteger:
		p = Property{Type: "integer"}
	case KindFloat:
		p = Property{Type: "number"}
	case KindBoolean:
		p = Property{Type: "boolean"}
	case KindEnum:
		p = Property{Type: "string", Enum: append([]string(nil), f.Choices...)}
	case KindEnumList:
		p = Property{Type: "array", Items: &Property{Type: "string", Enum: append([]string(nil), f.Choices...)}}
	case KindList:
		p = Property{Type: "array", Items: &Property{Type: "string"}}
	default:
		p = Property{Type: "string"}
	}
	if f.Description != "" {
		p.Description = f.Description
	}
	return p
}
