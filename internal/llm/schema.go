package llm

// BuildMatrixJSONSchema returns the JSON Schema for MatrixProposal as a generic map.
// Items tolerate extra properties; decoding drops them.
func BuildMatrixJSONSchema() map[string]any {
	str := map[string]any{"type": "string"}
	code := map[string]any{"type": "string", "minLength": 1}

	zone := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"code":           code,
			"name":           str,
			"detector_range": str,
			"building":       str,
			"floor":          str,
			"access_point":   str,
			"is_manual":      map[string]any{"type": "boolean"},
		},
		"required": []string{"code"},
	}
	equipment := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"code":     code,
			"name":     str,
			"type":     str,
			"location": str,
		},
		"required": []string{"code"},
	}
	link := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"zone_code":      code,
			"equipment_code": code,
			"alarm_level":    map[string]any{"type": "integer", "enum": []int{1, 2}},
		},
		"required": []string{"zone_code", "equipment_code"},
	}

	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"zones":     map[string]any{"type": "array", "items": zone},
			"equipment": map[string]any{"type": "array", "items": equipment},
			"links":     map[string]any{"type": "array", "items": link},
		},
	}
}
