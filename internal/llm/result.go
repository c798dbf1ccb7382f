package llm

// Result is a decoded extraction: one typed value per declared field.
// Value types: string (string, enum, opaque), int64, float64, bool, []string (lists).
type Result struct {
	schema *Schema
	values map[string]any
}

func (r *Result) Value(name string) (any, bool) {
	v, ok := r.values[name]
	return v, ok
}

func (r *Result) String(name string) string {
	s, _ := r.values[name].(string)
	return s
}

func (r *Result) Strings(name string) []string {
	s, _ := r.values[name].([]string)
	return append([]string(nil), s...)
}

func (r *Result) Int(name string) int64 {
	i, _ := r.values[name].(int64)
	return i
}

func (r *Result) Float(name string) float64 {
	f, _ := r.values[name].(float64)
	return f
}

func (r *Result) Bool(name string) bool {
	b, _ := r.values[name].(bool)
	return b
}

// MarshalJSON writes fields in declaration order.
func (r *Result) MarshalJSON() ([]byte, error) {
	kv := make([]keyValue, 0, len(r.schema.fields))
	for _, f := range r.schema.fields {
		kv = append(kv, keyValue{f.Name, r.values[f.Name]})
	}
	return marshalOrdered(kv)
}
