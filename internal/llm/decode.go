package llm

import (
	"encoding/json"
	"fmt"
	"regexp"
	"slices"
	"strings"

	"github.com/tidwall/gjson"
)

var reFence = regexp.MustCompile("(?s)^\\s*```(?:json\\n)?(.*?)\\s*```\\s*$")

// StripFences removes a surrounding Markdown code fence (optionally tagged json).
// Input without a fence is returned unchanged.
func StripFences(data string) string {
	m := reFence.FindStringSubmatch(data)
	if m == nil {
		return data
	}
	return strings.TrimSpace(m[1])
}

// ToolArguments pulls choices[0].message.tool_calls[0].function.arguments out of a
// chat-completions response body.
func ToolArguments(body []byte) (string, error) {
	msg, err := firstMessage(body)
	if err != nil {
		return "", err
	}
	calls := msg.Get("tool_calls")
	if !calls.IsArray() || len(calls.Array()) == 0 {
		return "", &NoToolCallError{Content: msg.Get("content").String()}
	}
	args := calls.Get("0.function.arguments")
	if args.Type != gjson.String {
		return "", decodeErrorf("tool call carries no string arguments")
	}
	return args.String(), nil
}

// MessageContent pulls choices[0].message.content, used when no tool was offered.
func MessageContent(body []byte) (string, error) {
	msg, err := firstMessage(body)
	if err != nil {
		return "", err
	}
	content := msg.Get("content")
	if content.Type != gjson.String || strings.TrimSpace(content.String()) == "" {
		return "", decodeErrorf("response message has no content")
	}
	return content.String(), nil
}

func firstMessage(body []byte) (gjson.Result, error) {
	if !gjson.ValidBytes(body) {
		return gjson.Result{}, decodeErrorf("provider response is not valid JSON")
	}
	msg := gjson.GetBytes(body, "choices.0.message")
	if !msg.Exists() {
		return gjson.Result{}, decodeErrorf("provider response has no choices")
	}
	return msg, nil
}

// Decode parses tool-call arguments against the schema. Every field must be present
// with a value of its declared kind; enum values must be among the declared choices.
// Keys not in the schema are ignored. All failures are *DecodeError.
func Decode(arguments string, s *Schema) (*Result, error) {
	raw := strings.TrimSpace(StripFences(arguments))
	if raw == "" {
		return nil, decodeErrorf("empty arguments")
	}

	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, &DecodeError{Cause: fmt.Errorf("parse json: %w", err)}
	}
	if dec.More() {
		return nil, decodeErrorf("trailing data after JSON object")
	}
	obj, ok := doc.(map[string]any)
	if !ok {
		return nil, decodeErrorf("arguments are %T, want a JSON object", doc)
	}

	schema, err := s.validator()
	if err != nil {
		return nil, &DecodeError{Cause: err}
	}
	if err := schema.Validate(doc); err != nil {
		return nil, &DecodeError{Cause: fmt.Errorf("json does not match schema: %w", err)}
	}

	values := make(map[string]any, len(s.fields))
	for _, f := range s.fields {
		v, present := obj[f.Name]
		if !present {
			return nil, decodeErrorf("missing field %q", f.Name)
		}
		tv, err := convert(f, v)
		if err != nil {
			return nil, &DecodeError{Cause: fmt.Errorf("field %q: %w", f.Name, err)}
		}
		values[f.Name] = tv
	}
	return &Result{schema: s, values: values}, nil
}

func convert(f Field, v any) (any, error) {
	switch f.Kind {
	case KindInteger:
		n, ok := v.(json.Number)
		if !ok {
			return nil, fmt.Errorf("want integer, got %T", v)
		}
		if i, err := n.Int64(); err == nil {
			return i, nil
		}
		fl, err := n.Float64()
		if err != nil || fl != float64(int64(fl)) {
			return nil, fmt.Errorf("want integer, got %s", n)
		}
		return int64(fl), nil
	case KindFloat:
		n, ok := v.(json.Number)
		if !ok {
			return nil, fmt.Errorf("want number, got %T", v)
		}
		return n.Float64()
	case KindBoolean:
		b, ok := v.(bool)
		if !ok {
			return nil, fmt.Errorf("want boolean, got %T", v)
		}
		return b, nil
	case KindEnum:
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("want string, got %T", v)
		}
		if !slices.Contains(f.Choices, s) {
			return nil, fmt.Errorf("value %q is not one of %v", s, f.Choices)
		}
		return s, nil
	case KindEnumList, KindList:
		items, ok := v.([]any)
		if !ok {
			return nil, fmt.Errorf("want array, got %T", v)
		}
		out := make([]string, 0, len(items))
		for i, it := range items {
			s, ok := it.(string)
			if !ok {
				return nil, fmt.Errorf("item %d: want string, got %T", i, it)
			}
			if f.Kind == KindEnumList && !slices.Contains(f.Choices, s) {
				return nil, fmt.Errorf("item %d: value %q is not one of %v", i, s, f.Choices)
			}
			out = append(out, s)
		}
		return out, nil
	default:
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("want string, got %T", v)
		}
		return s, nil
	}
}
