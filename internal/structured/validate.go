package structured

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"docstructgo/internal/models"
)

var compileOnce = sync.OnceValue(func() *jsonschema.Schema {
	b, err := json.Marshal(OutputJSONSchema())
	if err != nil {
		panic(fmt.Sprintf("marshal output schema: %v", err))
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("structured-output.json", bytes.NewReader(b)); err != nil {
		panic(fmt.Sprintf("add output schema: %v", err))
	}
	schema, err := compiler.Compile("structured-output.json")
	if err != nil {
		panic(fmt.Sprintf("compile output schema: %v", err))
	}
	return schema
})

// Validate checks a decoded JSON value against the standardized output shape.
// On success it returns the typed output; on failure it returns per-field
// error descriptions and leaves the input untouched. The value must be
// generic decoded JSON (map[string]any, []any, string, float64, ...).
func Validate(raw any) (*models.StructuredOutput, []string) {
	if err := compileOnce().Validate(raw); err != nil {
		if ve, ok := err.(*jsonschema.ValidationError); ok {
			return nil, flatten(ve)
		}
		return nil, []string{err.Error()}
	}

	out, err := decode(raw)
	if err != nil {
		return nil, []string{err.Error()}
	}
	return out, nil
}

// Sanitize repairs a malformed decoded JSON value into a structurally valid
// output. It is total and idempotent: every field is present afterwards,
// though arrays may be empty.
func Sanitize(raw any) *models.StructuredOutput {
	m, _ := raw.(map[string]any)

	out := &models.StructuredOutput{
		Title:     stringOr(m["title"], "Untitled Document"),
		Summary:   stringOr(m["summary"], "No summary available"),
		KeyPoints: stringSlice(m["key_points"]),
		Quotes:    stringSlice(m["quotes"]),
	}
	return out
}

func decode(raw any) (*models.StructuredOutput, error) {
	b, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("encode validated output: %w", err)
	}
	var out models.StructuredOutput
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, fmt.Errorf("decode validated output: %w", err)
	}
	if out.Quotes == nil {
		out.Quotes = make([]string, 0)
	}
	return &out, nil
}

func stringOr(v any, fallback string) string {
	if s, ok := v.(string); ok && strings.TrimSpace(s) != "" {
		return s
	}
	return fallback
}

func stringSlice(v any) []string {
	out := make([]string, 0)
	switch t := v.(type) {
	case []any:
		for _, e := range t {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
	case []string:
		out = append(out, t...)
	}
	return out
}

// flatten walks a validation error tree and reports each leaf as
// "field path: reason".
func flatten(ve *jsonschema.ValidationError) []string {
	var out []string
	var walk func(e *jsonschema.ValidationError)
	walk = func(e *jsonschema.ValidationError) {
		if len(e.Causes) == 0 {
			out = append(out, fmt.Sprintf("%s: %s", fieldPath(e.InstanceLocation), e.Message))
			return
		}
		for _, c := range e.Causes {
			walk(c)
		}
	}
	walk(ve)
	return out
}

func fieldPath(instanceLocation string) string {
	p := strings.TrimPrefix(instanceLocation, "/")
	if p == "" {
		return "(root)"
	}
	return strings.ReplaceAll(p, "/", ".")
}
