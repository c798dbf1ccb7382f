package llm

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// ValidateAgainstSchema validates a decoded document (numbers as json.Number) against
// a JSON schema.
func ValidateAgainstSchema(schemaJSON []byte, doc any) error {
	schema, err := compileSchema(schemaJSON)
	if err != nil {
		return err
	}
	if err := schema.Validate(doc); err != nil {
		return fmt.Errorf("json does not match schema: %w", err)
	}
	return nil
}

func compileSchema(schemaJSON []byte) (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("schema.json", bytes.NewReader(schemaJSON)); err != nil {
		return nil, fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile("schema.json")
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return schema, nil
}

// validator compiles the translated parameters once per Schema.
func (s *Schema) validator() (*jsonschema.Schema, error) {
	s.compileOnce.Do(func() {
		params, err := json.Marshal(TranslateParameters(s))
		if err != nil {
			s.compileErr = fmt.Errorf("marshal schema: %w", err)
			return
		}
		s.compiled, s.compileErr = compileSchema(params)
	})
	return s.compiled, s.compileErr
}
