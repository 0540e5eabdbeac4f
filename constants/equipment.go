package constants

import (
	"strings"
)

// EquipmentType is the closed set of interlock targets.
type EquipmentType string

const (
	EquipmentFireDoor        EquipmentType = "pcf"
	EquipmentInterlockedDoor EquipmentType = "interlocked_door"
	EquipmentRollupCurtain   EquipmentType = "rollup_curtain"
	EquipmentDamper          EquipmentType = "damper"
	EquipmentSmokeExtraction EquipmentType = "smoke_extraction"
	EquipmentHVAC            EquipmentType = "hvac"
	EquipmentElevator        EquipmentType = "elevator"
	EquipmentEvacuation      EquipmentType = "evacuation"
	EquipmentAlarm           EquipmentType = "alarm"
	EquipmentAccessControl   EquipmentType = "access_control"
	EquipmentOther           EquipmentType = "other"
)

var allEquipmentTypes = []EquipmentType{
	EquipmentFireDoor,
	EquipmentInterlockedDoor,
	EquipmentRollupCurtain,
	EquipmentDamper,
	EquipmentSmokeExtraction,
	EquipmentHVAC,
	EquipmentElevator,
	EquipmentEvacuation,
	EquipmentAlarm,
	EquipmentAccessControl,
	EquipmentOther,
}

var equipmentPrefixes = map[EquipmentType]string{
	EquipmentFireDoor:        "PCF",
	EquipmentInterlockedDoor: "PA",
	EquipmentRollupCurtain:   "RID",
	EquipmentDamper:          "CLP",
	EquipmentSmokeExtraction: "DSF",
	EquipmentHVAC:            "CVC",
	EquipmentElevator:        "ASC",
	EquipmentEvacuation:      "EVAC",
	EquipmentAlarm:           "ALR",
	EquipmentAccessControl:   "CA",
	EquipmentOther:           "EQ",
}

func EquipmentTypesAsStrings() []string {
	result := make([]string, len(allEquipmentTypes))
	for i, t := range allEquipmentTypes {
		result[i] = string(t)
	}
	return result
}

// Prefix is used to synthesize codes when a document carries none.
func (t EquipmentType) Prefix() string {
	if p, ok := equipmentPrefixes[t]; ok {
		return p
	}
	return equipmentPrefixes[EquipmentOther]
}

// CanonicalizeEquipmentType maps free-form labels (including model output) onto
// the closed set. Unknown labels fall back to EquipmentOther with ok=false.
func CanonicalizeEquipmentType(input string) (EquipmentType, bool) {
	normalized := strings.ToLower(strings.TrimSpace(input))
	if normalized == "" {
		return EquipmentOther, false
	}

	synonyms := map[string]EquipmentType{
		"fire door":          EquipmentFireDoor,
		"fire_door":          EquipmentFireDoor,
		"porte coupe-feu":    EquipmentFireDoor,
		"door":               EquipmentInterlockedDoor,
		"porte asservie":     EquipmentInterlockedDoor,
		"curtain":            EquipmentRollupCurtain,
		"rideau":             EquipmentRollupCurtain,
		"clapet":             EquipmentDamper,
		"fire damper":        EquipmentDamper,
		"desenfumage":        EquipmentSmokeExtraction,
		"smoke extraction":   EquipmentSmokeExtraction,
		"ventilation":        EquipmentHVAC,
		"cvc":                EquipmentHVAC,
		"cta":                EquipmentHVAC,
		"ascenseur":          EquipmentElevator,
		"lift":               EquipmentElevator,
		"evacuation command": EquipmentEvacuation,
		"siren":              EquipmentAlarm,
		"sirene":             EquipmentAlarm,
		"controle d'acces":   EquipmentAccessControl,
	}
	if t, ok := synonyms[normalized]; ok {
		return t, true
	}
	for _, t := range allEquipmentTypes {
		if normalized == string(t) {
			return t, true
		}
	}
	return EquipmentOther, false
}
