// Package schemafile loads extraction schemas from YAML (or JSON) documents:
//
//	name: DocumentExtraction
//	description: Pull the overview sections out of a design document.
//	fields:
//	  - name: introduction
//	    type: string
//	    description: An introduction extracted from the document
//	  - name: communication_protocols
//	    type: enum_list
//	    choices: [gRPC, https, REST/JSON]
package schemafile

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/joseph-ayodele/docextract/internal/llm"
)

type document struct {
	Name        string      `yaml:"name"`
	Description string      `yaml:"description"`
	Fields      []fieldSpec `yaml:"fields"`
}

type fieldSpec struct {
	Name        string   `yaml:"name"`
	Type        string   `yaml:"type"`
	Choices     []string `yaml:"choices"`
	Description string   `yaml:"description"`
}

var kinds = map[string]llm.Kind{
	"string":    llm.KindString,
	"str":       llm.KindString,
	"integer":   llm.KindInteger,
	"int":       llm.KindInteger,
	"float":     llm.KindFloat,
	"number":    llm.KindFloat,
	"boolean":   llm.KindBoolean,
	"bool":      llm.KindBoolean,
	"enum":      llm.KindEnum,
	"enum_list": llm.KindEnumList,
	"list":      llm.KindList,
	"opaque":    llm.KindOpaque,
	"object":    llm.KindObject,
}

// Load reads and parses a schema file.
func Load(path string, logger *slog.Logger) (*llm.Schema, llm.Task, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, llm.Task{}, fmt.Errorf("read schema file: %w", err)
	}
	return Parse(b, logger)
}

// Parse builds a schema from YAML bytes. Unknown type names are treated as opaque.
func Parse(b []byte, logger *slog.Logger) (*llm.Schema, llm.Task, error) {
	if logger == nil {
		logger = slog.Default()
	}
	var doc document
	if err := yaml.Unmarshal(b, &doc); err != nil {
		return nil, llm.Task{}, fmt.Errorf("parse schema file: %w", err)
	}
	if strings.TrimSpace(doc.Name) == "" {
		return nil, llm.Task{}, fmt.Errorf("%w: schema file has no name", llm.ErrInvalidSchema)
	}

	fields := make([]llm.Field, 0, len(doc.Fields))
	for _, fs := range doc.Fields {
		kind, ok := kinds[strings.ToLower(strings.TrimSpace(fs.Type))]
		if !ok {
			logger.Warn("schemafile.unknown_type", "field", fs.Name, "type", fs.Type)
			kind = llm.KindOpaque
		}
		fields = append(fields, llm.Field{
			Name:        fs.Name,
			Kind:        kind,
			Choices:     fs.Choices,
			Description: fs.Description,
		})
	}

	s, err := llm.NewSchema(logger, fields...)
	if err != nil {
		return nil, llm.Task{}, err
	}
	return s, llm.Task{Name: doc.Name, Description: doc.Description}, nil
}
