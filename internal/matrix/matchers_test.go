package matrix

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/joseph-ayodele/interlock-tracker/constants"
)

func TestMatchers_Order(t *testing.T) {
	want := []constants.EquipmentType{
		constants.EquipmentFireDoor,
		constants.EquipmentInterlockedDoor,
		constants.EquipmentRollupCurtain,
		constants.EquipmentDamper,
		constants.EquipmentSmokeExtraction,
		constants.EquipmentHVAC,
		constants.EquipmentElevator,
		constants.EquipmentEvacuation,
		constants.EquipmentAlarm,
		constants.EquipmentAccessControl,
	}
	got := make([]constants.EquipmentType, 0, len(want))
	for _, m := range Matchers() {
		got = append(got, m.Type)
	}
	assert.Equal(t, want, got)
}

func TestZoneMatchers_Order(t *testing.T) {
	var names []string
	for _, m := range ZoneMatchers() {
		names = append(names, m.Name)
	}
	assert.Equal(t, []string{ZoneMatcherName, ZoneNumberMatcherName, LoopNumberMatcherName}, names)
}

func TestMatchZone(t *testing.T) {
	tests := []struct {
		text     string
		ok       bool
		wantCode string
		matcher  string
	}{
		{"Hall accès 1: 10-12", true, "", ZoneMatcherName},
		{"Zone 4: 40-42", true, "Z04", ZoneMatcherName},
		{"Zone 12", true, "Z12", ZoneNumberMatcherName},
		{"Zone n° 3 parking", true, "Z03", ZoneNumberMatcherName},
		{"Z.7", true, "Z07", ZoneNumberMatcherName},
		{"Zone 2.1", true, "Z2.1", ZoneNumberMatcherName},
		{"Boucle 3", true, "L03", LoopNumberMatcherName},
		{"Loop 11 east wing", true, "L11", LoopNumberMatcherName},
		{"Page: 3", false, "", ""},
		{"Date: 12/03/2024", false, "", ""},
		{"Indice B: 2", false, "", ""},
		{"Zone", false, "", ""},
		{"PCF B20.001", false, "", ""},
	}
	for _, tt := range tests {
		zl, ok := matchZone(tt.text)
		assert.Equal(t, tt.ok, ok, tt.text)
		assert.Equal(t, tt.wantCode, zl.Code, tt.text)
		assert.Equal(t, tt.matcher, zl.Matcher, tt.text)
	}
}

func TestMatchEquipment(t *testing.T) {
	tests := []struct {
		line string
		want constants.EquipmentType
		ok   bool
	}{
		{line: "PCF B24.006", want: constants.EquipmentFireDoor, ok: true},
		{line: "Portes coupe-feu niveau 2", want: constants.EquipmentFireDoor, ok: true},
		{line: "Ventouse porte hall", want: constants.EquipmentInterlockedDoor, ok: true},
		{line: "Rideau métallique quai", want: constants.EquipmentRollupCurtain, ok: true},
		{line: "Clapet CF-12", want: constants.EquipmentDamper, ok: true},
		{line: "Volet de désenfumage", want: constants.EquipmentSmokeExtraction, ok: true},
		{line: "Arrêt CTA-03", want: constants.EquipmentHVAC, ok: true},
		{line: "Rappel ascenseur", want: constants.EquipmentElevator, ok: true},
		{line: "Commande évacuation UGA", want: constants.EquipmentEvacuation, ok: true},
		{line: "Sirène extérieure", want: constants.EquipmentAlarm, ok: true},
		{line: "Contrôle d’accès déverrouillage", want: constants.EquipmentAccessControl, ok: true},
		{line: "Page 3 / 12", ok: false},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			m, ok := MatchEquipment(tt.line)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, m.Type)
				assert.True(t, m.Match(tt.line))
			}
		})
	}
}

func TestEmbeddedCode(t *testing.T) {
	assert.Equal(t, "B24.006", EmbeddedCode("PCF B24.006"))
	assert.Equal(t, "20.9.09", EmbeddedCode("Adresse 20.9.09 porte"))
	assert.Equal(t, "CTA-03", EmbeddedCode("arrêt cta-03"))
	assert.Equal(t, "", EmbeddedCode("Ascenseur principal"))
}

func TestAlarmLevelOf(t *testing.T) {
	tests := []struct {
		line string
		want constants.AlarmLevel
		ok   bool
	}{
		{"AL1", constants.AlarmLevel1, true},
		{"Alarme 2", constants.AlarmLevel2, true},
		{"Alarme locale", constants.AlarmLevel1, true},
		{"Alarme générale", constants.AlarmLevel2, true},
		{"AL 2 - évacuation", constants.AlarmLevel2, true},
		{"Clapet", 0, false},
	}
	for _, tt := range tests {
		lvl, ok := AlarmLevelOf(tt.line)
		assert.Equal(t, tt.ok, ok, tt.line)
		assert.Equal(t, tt.want, lvl, tt.line)
	}
}

func TestHints(t *testing.T) {
	assert.Equal(t, "RDC", FloorHint("Rez-de-chaussée"))
	assert.Equal(t, "R+2", FloorHint("2ème étage aile nord"))
	assert.Equal(t, "R+3", FloorHint("niveau R+3"))
	assert.Equal(t, "TOITURE", FloorHint("Toiture terrasse"))
	assert.Equal(t, "", FloorHint("Hall"))

	assert.Equal(t, "B24", BuildingHint("Bât. 24 hall"))
	assert.Equal(t, "B12", BuildingHint("B12 local"))
	assert.Equal(t, "", BuildingHint("Hall"))
	assert.Equal(t, "B20", BuildingHint("Zone 12 Bâtiment B20"))

	assert.Equal(t, constants.DetectorFalseCeiling, DetectorKindOf("Bureau faux plafond"))
	assert.Equal(t, constants.DetectorManual, DetectorKindOf("Hall DM"))
	assert.Equal(t, constants.DetectorSmoke, DetectorKindOf("Hall"))
}

func TestCanonicalCode(t *testing.T) {
	assert.Equal(t, "B24.006", CanonicalCode(" b24 .006 "))
	assert.Equal(t, "ZACCES", CanonicalCode("z accès"))
}
