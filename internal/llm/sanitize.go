package llm

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"

	"github.com/joseph-ayodele/interlock-tracker/constants"
	"github.com/joseph-ayodele/interlock-tracker/internal/matrix"
)

var (
	zoneFields      = []string{"code", "name", "detector_range", "building", "floor", "access_point"}
	equipmentFields = []string{"code", "name", "type", "location"}
)

// SanitizeProposal repairs model output so it can validate:
//   - non-array sections become empty arrays
//   - items without a usable code are dropped
//   - scalars are coerced to strings, is_manual to a boolean
//   - alarm_level accepts 1, "1", "AL2"; missing defaults to 1, anything else drops the link
//   - unknown keys are removed
//
// It returns the repaired document and a list of what was dropped.
func SanitizeProposal(raw []byte, logger *slog.Logger) ([]byte, []string, error) {
	if logger == nil {
		logger = slog.Default()
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, nil, fmt.Errorf("sanitize: decode: %w", err)
	}

	var dropped []string
	out := map[string]any{
		"zones":     sanitizeItems(m["zones"], "zones", zoneFields, sanitizeZone, &dropped),
		"equipment": sanitizeItems(m["equipment"], "equipment", equipmentFields, sanitizeEquipment, &dropped),
		"links":     sanitizeItems(m["links"], "links", []string{"zone_code", "equipment_code"}, sanitizeLink, &dropped),
	}
	for k := range m {
		if _, ok := out[k]; !ok {
			dropped = append(dropped, k+"(unknown)")
		}
	}

	b, err := json.Marshal(out)
	if err != nil {
		return nil, dropped, fmt.Errorf("sanitize: encode: %w", err)
	}
	if len(dropped) > 0 {
		logger.Warn("llm.enrich.sanitize", "dropped", dropped)
	}
	return b, dropped, nil
}

type itemFixer func(in, out map[string]any) (ok bool, reason string)

func sanitizeItems(v any, section string, stringFields []string, fix itemFixer, dropped *[]string) []any {
	items, ok := v.([]any)
	if !ok {
		if v != nil {
			*dropped = append(*dropped, section+"(not an array)")
		}
		return []any{}
	}
	kept := make([]any, 0, len(items))
	for i, it := range items {
		in, ok := it.(map[string]any)
		if !ok {
			*dropped = append(*dropped, fmt.Sprintf("%s[%d](not an object)", section, i))
			continue
		}
		out := make(map[string]any, len(stringFields)+1)
		for _, f := range stringFields {
			if s, ok := coerceString(in[f]); ok && s != "" {
				out[f] = s
			}
		}
		if ok, reason := fix(in, out); !ok {
			*dropped = append(*dropped, fmt.Sprintf("%s[%d](%s)", section, i, reason))
			continue
		}
		kept = append(kept, out)
	}
	return kept
}

func sanitizeZone(in, out map[string]any) (bool, string) {
	if out["code"] == nil {
		return false, "missing code"
	}
	if b, ok := coerceBool(in["is_manual"]); ok {
		out["is_manual"] = b
	}
	return true, ""
}

func sanitizeEquipment(in, out map[string]any) (bool, string) {
	if out["code"] == nil {
		return false, "missing code"
	}
	if t, ok := out["type"].(string); ok {
		canon, _ := constants.CanonicalizeEquipmentType(t)
		out["type"] = string(canon)
	}
	return true, ""
}

func sanitizeLink(in, out map[string]any) (bool, string) {
	if out["zone_code"] == nil || out["equipment_code"] == nil {
		return false, "missing endpoint"
	}
	v, present := in["alarm_level"]
	if !present || v == nil {
		out["alarm_level"] = 1
		return true, ""
	}
	lvl, ok := ParseAlarmLevel(v)
	if !ok {
		return false, "bad alarm_level"
	}
	out["alarm_level"] = int(lvl)
	return true, ""
}

// ParseAlarmLevel accepts 1, 2.0, "2", "AL1", "al 2", "Alarme 2".
func ParseAlarmLevel(v any) (constants.AlarmLevel, bool) {
	switch t := v.(type) {
	case float64:
		if t == math.Trunc(t) {
			lvl := constants.AlarmLevel(int(t))
			return lvl, lvl.Valid()
		}
	case int:
		lvl := constants.AlarmLevel(t)
		return lvl, lvl.Valid()
	case string:
		s := strings.TrimSpace(t)
		if n, err := strconv.Atoi(s); err == nil {
			lvl := constants.AlarmLevel(n)
			return lvl, lvl.Valid()
		}
		return matrix.AlarmLevelOf(s)
	}
	return 0, false
}

func coerceString(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t), true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case bool:
		return strconv.FormatBool(t), true
	}
	return "", false
}

func coerceBool(v any) (bool, bool) {
	switch t := v.(type) {
	case bool:
		return t, true
	case float64:
		return t != 0, true
	case string:
		switch strings.ToLower(strings.TrimSpace(t)) {
		case "true", "yes", "oui", "1", "manual", "manuel":
			return true, true
		case "false", "no", "non", "0", "":
			return false, true
		}
	}
	return false, false
}
