package structured

// OutputJSONSchema returns the JSON Schema (draft 2020-12 subset) for the
// standardized output shape, as a generic map. It is compiled once for local
// validation of raw model responses.
func OutputJSONSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"title":   map[string]any{"type": "string", "minLength": 1},
			"summary": map[string]any{"type": "string", "minLength": 1},
			"key_points": map[string]any{
				"type":     "array",
				"items":    map[string]any{"type": "string"},
				"minItems": 1,
			},
			"quotes": map[string]any{
				"type":  "array",
				"items": map[string]any{"type": "string"},
			},
		},
		"required": []string{"title", "summary", "key_points", "quotes"},
	}
}
