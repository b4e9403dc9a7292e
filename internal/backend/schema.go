package backend

import "github.com/prasetyadi/faktur-review/constants"

// BuildProcessResponseSchema returns a JSON-Schema (draft 2020-12 subset) as a
// generic map. We validate the extraction endpoint's response against it at
// the boundary instead of trusting the shape throughout.
func BuildProcessResponseSchema() map[string]any {
	result := map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"klasifikasi": map[string]any{
				"type": "string",
				"enum": constants.ClassificationStrings(),
			},
			"data": map[string]any{
				"type": "object",
				"additionalProperties": map[string]any{
					"type": []any{"string", "number", "null"},
				},
			},
			"preview_filename": map[string]any{"type": "string"},
			"halaman":          map[string]any{"type": "integer", "minimum": 1},
		},
		"required": []string{"klasifikasi", "data"},
	}

	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"success": map[string]any{"type": "boolean"},
			"results": map[string]any{
				"type":  "array",
				"items": result,
			},
		},
		"required": []string{"results"},
	}
}
