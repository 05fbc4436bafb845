package parse

import (
	"github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"
)

// objectFields is a JSON object decoded one field at a time, so a single
// mistyped field does not hide the rest of the object.
type objectFields map[string]jsontext.Value

func decodeFields(raw jsontext.Value) (objectFields, bool) {
	var m objectFields
	if err := json.Unmarshal(raw, &m, decodeOptions); err != nil {
		return nil, false
	}
	return m, true
}

// str returns the named field when it is a JSON string, "" otherwise.
func (m objectFields) str(key string) string {
	raw, ok := m[key]
	if !ok || raw.Kind() != '"' {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s, decodeOptions); err != nil {
		return ""
	}
	return s
}

// args returns tool call arguments as JSON text. Most CLI versions send a
// string holding serialized JSON; some send the object itself.
func (m objectFields) args(key string) string {
	raw, ok := m[key]
	if !ok {
		return ""
	}
	switch raw.Kind() {
	case '"':
		return m.str(key)
	case '{':
		return string(raw)
	}
	return ""
}

// parts decodes a list of content parts, skipping and counting bad entries.
func (m objectFields) parts(key string) ([]codexPart, int) {
	raw, ok := m[key]
	if !ok || raw.Kind() != '[' {
		return nil, 0
	}
	var items []jsontext.Value
	if err := json.Unmarshal(raw, &items, decodeOptions); err != nil {
		return nil, 1
	}
	out := make([]codexPart, 0, len(items))
	dropped := 0
	for _, item := range items {
		var p codexPart
		if err := json.Unmarshal(item, &p, decodeOptions); err != nil {
			dropped++
			continue
		}
		out = append(out, p)
	}
	return out, dropped
}
