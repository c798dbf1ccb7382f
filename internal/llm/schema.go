package llm

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Kind is the base type of a declared extraction field.
type Kind int

const (
	KindString Kind = iota
	KindInteger
	KindFloat
	KindBoolean
	KindEnum     // one of Field.Choices
	KindEnumList // zero or more of Field.Choices
	KindList     // list of free strings; item precision is lost
	KindOpaque   // anything else, carried as a string
	KindObject   // nested objects are not supported
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindInteger:
		return "integer"
	case KindFloat:
		return "float"
	case KindBoolean:
		return "boolean"
	case KindEnum:
		return "enum"
	case KindEnumList:
		return "enum_list"
	case KindList:
		return "list"
	case KindOpaque:
		return "opaque"
	case KindObject:
		return "object"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

var (
	ErrInvalidSchema   = errors.New("invalid extraction schema")
	ErrUnsupportedKind = errors.New("unsupported field kind")
)

// Field declares one extracted value.
type Field struct {
	Name        string
	Kind        Kind
	Choices     []string // KindEnum and KindEnumList only
	Description string
}

func StringField(name, description string) Field {
	return Field{Name: name, Kind: KindString, Description: description}
}

func IntegerField(name, description string) Field {
	return Field{Name: name, Kind: KindInteger, Description: description}
}

func FloatField(name, description string) Field {
	return Field{Name: name, Kind: KindFloat, Description: description}
}

func BooleanField(name, description string) Field {
	return Field{Name: name, Kind: KindBoolean, Description: description}
}

func EnumField(name, description string, choices ...string) Field {
	return Field{Name: name, Kind: KindEnum, Choices: choices, Description: description}
}

func EnumListField(name, description string, choices ...string) Field {
	return Field{Name: name, Kind: KindEnumList, Choices: choices, Description: description}
}

func ListField(name, description string) Field {
	return Field{Name: name, Kind: KindList, Description: description}
}

func OpaqueField(name, description string) Field {
	return Field{Name: name, Kind: KindOpaque, Description: description}
}

// Schema is an ordered, immutable set of fields. Every field is required.
type Schema struct {
	fields []Field
	index  map[string]int

	compileOnce sync.Once
	compiled    *jsonschema.Schema
	compileErr  error
}

// NewSchema validates the declarations and freezes them in declaration order.
// Opaque fields are accepted but logged, since they silently become strings.
func NewSchema(logger *slog.Logger, fields ...Field) (*Schema, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if len(fields) == 0 {
		return nil, fmt.Errorf("%w: no fields declared", ErrInvalidSchema)
	}

	s := &Schema{
		fields: make([]Field, 0, len(fields)),
		index:  make(map[string]int, len(fields)),
	}
	for _, f := range fields {
		name := strings.TrimSpace(f.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: field with empty name", ErrInvalidSchema)
		}
		if _, dup := s.index[name]; dup {
			return nil, fmt.Errorf("%w: duplicate field %q", ErrInvalidSchema, name)
		}
		switch f.Kind {
		case KindEnum, KindEnumList:
			if len(f.Choices) == 0 {
				return nil, fmt.Errorf("%w: field %q declares no choices", ErrInvalidSchema, name)
			}
		case KindObject:
			return nil, fmt.Errorf("%w: field %q is a nested object", ErrUnsupportedKind, name)
		case KindOpaque:
			logger.Warn("llm.schema.opaque_field", "field", name, "translated_as", "string")
		case KindString, KindInteger, KindFloat, KindBoolean, KindList:
		default:
			logger.Warn("llm.schema.unknown_kind", "field", name, "kind", f.Kind.String(), "translated_as", "string")
			f.Kind = KindOpaque
		}

		f.Name = name
		f.Choices = append([]string(nil), f.Choices...)
		s.index[name] = len(s.fields)
		s.fields = append(s.fields, f)
	}
	return s, nil
}

// MustSchema is NewSchema for package-level task declarations.
func MustSchema(fields ...Field) *Schema {
	s, err := NewSchema(nil, fields...)
	if err != nil {
		panic(err)
	}
	return s
}

// Fields returns a copy of the declarations in order.
func (s *Schema) Fields() []Field {
	out := make([]Field, len(s.fields))
	for i, f := range s.fields {
		f.Choices = append([]string(nil), f.Choices...)
		out[i] = f
	}
	return out
}

// Names returns field names in declaration order.
func (s *Schema) Names() []string {
	out := make([]string, len(s.fields))
	for i, f := range s.fields {
		out[i] = f.Name
	}
	return out
}

func (s *Schema) Field(name string) (Field, bool) {
	i, ok := s.index[name]
	if !ok {
		return Field{}, false
	}
	return s.fields[i], true
}

func (s *Schema) Len() int { return len(s.fields) }

// Task names one extraction job; it becomes the tool's function name and description.
type Task struct {
	Name        string
	Description string
}
