package llm

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/joseph-ayodele/interlock-tracker/constants"
)

// BuildSystemPrompt instructs the model to return only the matrix JSON shape.
func BuildSystemPrompt() string {
	parts := []string{
		"You read fire-alarm cause and effect matrices (French or English vendor documents).",
		"Return ONLY a JSON object with three arrays: zones, equipment and links.",
		"A zone is a detection group: code, name, detector_range (e.g. \"20001-20005,20009\"), building, floor, access_point, is_manual (true for manual call points).",
		"Equipment is a device driven by the fire alarm: code, name, type, location.",
		"Allowed equipment types: " + strings.Join(constants.EquipmentTypesAsStrings(), ", ") + ".",
		"A link says that a zone alarm drives an equipment item: zone_code, equipment_code, alarm_level (1 for local/first alarm, 2 for general/second alarm).",
		"Only use codes that appear in the text. Never invent zones or equipment.",
		"Never output null. If a field is not present, omit it.",
		"JSON Schema:\n" + mustJSON(BuildMatrixJSONSchema()),
	}
	return strings.Join(parts, "\n")
}

// BuildUserPrompt wraps one chunk of text.
func BuildUserPrompt(c Chunk, total int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Document excerpt %d of %d (pages %d-%d):\n\n", c.Index+1, total, c.FirstPage, c.LastPage)
	b.WriteString(c.Text)
	b.WriteString("\n\nReturn ONLY JSON that matches the provided schema.")
	return b.String()
}

func mustJSON(v any) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}
