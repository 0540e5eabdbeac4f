package matrix

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/interlock-tracker/constants"
	"github.com/joseph-ayodele/interlock-tracker/internal/textextract"
)

func pages(texts ...string) []textextract.Page {
	out := make([]textextract.Page, len(texts))
	for i, t := range texts {
		out[i] = textextract.Page{Number: i + 1, Text: t}
	}
	return out
}

func TestParse_AccessZoneWithFireDoor(t *testing.T) {
	c := Parse(pages("Rez de chaussée accès 3: 24001-24005\nPCF B24.006"))

	require.Len(t, c.Zones, 1)
	z := c.Zones[0]
	assert.Equal(t, "Z03", z.Code)
	assert.Equal(t, []int{24001, 24002, 24003, 24004, 24005}, z.Detectors())
	assert.Equal(t, "RDC", z.Floor)
	assert.Equal(t, "3", z.AccessPoint)
	assert.Equal(t, constants.DetectorSmoke, z.Kind)

	require.Len(t, c.Equipment, 1)
	e := c.Equipment[0]
	assert.Equal(t, constants.EquipmentFireDoor, e.Type)
	assert.Equal(t, "B24.006", e.Code)
	assert.Equal(t, "B24", e.Location)

	require.Len(t, c.Links, 1)
	assert.Equal(t, LinkCandidate{
		ZoneCode:      "Z03",
		EquipmentCode: "B24.006",
		AlarmLevel:    constants.AlarmLevel1,
		Action:        constants.ActionActivate,
	}, c.Links[0])
}

func TestParse_AlarmLevelsAndZoneReset(t *testing.T) {
	text := `Bâtiment A 1er étage: 100-102
AL1
Clapet coupe-feu (12)
AL2
Ascenseur principal
Sirène hall [3]
Sous-sol déclencheurs manuels: 200,201
Ventilation CTA-03`

	c := Parse(pages(text))
	require.Len(t, c.Zones, 2)
	assert.Equal(t, "Z01", c.Zones[0].Code)
	assert.Equal(t, "BA", c.Zones[0].Building)
	assert.Equal(t, "R+1", c.Zones[0].Floor)
	assert.Equal(t, "Z02", c.Zones[1].Code)
	assert.Equal(t, "SS", c.Zones[1].Floor)
	assert.Equal(t, constants.DetectorManual, c.Zones[1].Kind)

	require.Len(t, c.Equipment, 4)
	assert.Equal(t, "Clapet coupe-feu", c.Equipment[0].Name)
	assert.Equal(t, constants.EquipmentDamper, c.Equipment[0].Type)
	assert.Equal(t, "CLP-001", c.Equipment[0].Code)
	assert.Equal(t, constants.EquipmentElevator, c.Equipment[1].Type)
	assert.Equal(t, "Sirène hall", c.Equipment[2].Name)
	assert.Equal(t, constants.EquipmentAlarm, c.Equipment[2].Type)
	assert.Equal(t, "CTA-03", c.Equipment[3].Code)
	assert.Equal(t, constants.EquipmentHVAC, c.Equipment[3].Type)

	levels := map[string]constants.AlarmLevel{}
	for _, l := range c.Links {
		levels[l.ZoneCode+"/"+l.EquipmentCode] = l.AlarmLevel
	}
	assert.Equal(t, map[string]constants.AlarmLevel{
		"Z01/CLP-001": constants.AlarmLevel1,
		"Z01/ASC-001": constants.AlarmLevel2,
		"Z01/ALR-001": constants.AlarmLevel2,
		"Z02/CTA-03":  constants.AlarmLevel1, // new zone resets to level 1
	}, levels)
}

func TestParse_DeduplicatesZonesAndEquipment(t *testing.T) {
	c := Parse(pages(
		"Hall accès 1: 10-12\nPorte asservie hall\nPORTE  ASSERVIE HALL (2)",
		"Hall accès 1: 10 - 12\nporte asservie hall",
	))
	require.Len(t, c.Zones, 1)
	require.Len(t, c.Equipment, 1)
	assert.Equal(t, "PA-001", c.Equipment[0].Code)
	assert.Len(t, c.Links, 1)
}

func TestParse_ZoneCodeCollisionsAreSuffixed(t *testing.T) {
	c := Parse(pages("Hall accès 1: 10-12\nQuai accès 1: 20-22\nBureaux: 30"))
	require.Len(t, c.Zones, 3)
	assert.Equal(t, "Z01", c.Zones[0].Code)
	assert.Equal(t, "Z01-2", c.Zones[1].Code)
	assert.Equal(t, "Z03", c.Zones[2].Code)
}

func TestParse_EquipmentWithoutZoneIsNotLinked(t *testing.T) {
	c := Parse(pages("Désenfumage escalier\nsome unrelated text"))
	require.Len(t, c.Equipment, 1)
	assert.Equal(t, constants.EquipmentSmokeExtraction, c.Equipment[0].Type)
	assert.Equal(t, "DSF-001", c.Equipment[0].Code)
	assert.Empty(t, c.Links)
	assert.Empty(t, c.Zones)
}

func TestParse_SpreadsheetCellsSeparator(t *testing.T) {
	c := Parse(pages("Zone | Détecteurs\nRDC accès 1 | 20001-20005,20009"))
	require.Len(t, c.Zones, 1)
	assert.Equal(t, "20001-20005,20009", c.Zones[0].DetectorRange)
}

func TestParse_TitleBlockLinesAreNotZones(t *testing.T) {
	tests := []struct {
		name string
		line string
	}{
		{"phone", "Tél: 01 23 45 67 89"},
		{"page", "Page: 3"},
		{"revision", "Révision: 2"},
		{"date label", "Date: 12/03/2024"},
		{"date shape", "Émis le: 12/03/2024"},
		{"fax", "Fax: 01 23 45 67 90"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Parse(pages(tt.line + "\nHall accès 1: 10-12"))
			require.Len(t, c.Zones, 1)
			assert.Equal(t, "Z01", c.Zones[0].Code)
			assert.Equal(t, "Hall accès 1", c.Zones[0].Name)
		})
	}
}

func TestParse_EmbeddedCodesKeepPrecedence(t *testing.T) {
	tests := []struct {
		name      string
		text      string
		wantCodes []string
		wantLinks []string
	}{
		{
			name:      "made-up code first",
			text:      "Hall accès 1: 10-12\nPorte coupe-feu escalier nord\nQuai accès 2: 20-22\nPCF-001 local TGBT",
			wantCodes: []string{"PCF-001-2", "PCF-001"},
			wantLinks: []string{"Z01/PCF-001-2", "Z02/PCF-001"},
		},
		{
			name:      "embedded code first",
			text:      "Hall accès 1: 10-12\nPCF-001 local TGBT\nQuai accès 2: 20-22\nPorte coupe-feu escalier nord",
			wantCodes: []string{"PCF-001", "PCF-001-2"},
			wantLinks: []string{"Z01/PCF-001", "Z02/PCF-001-2"},
		},
		{
			name:      "same embedded code twice",
			text:      "Hall accès 1: 10-12\nPCF-001 local TGBT\nQuai accès 2: 20-22\nPorte PCF-001",
			wantCodes: []string{"PCF-001"},
			wantLinks: []string{"Z01/PCF-001", "Z02/PCF-001"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Parse(pages(tt.text))

			codes := make([]string, 0, len(c.Equipment))
			for _, e := range c.Equipment {
				codes = append(codes, e.Code)
			}
			assert.Equal(t, tt.wantCodes, codes)

			links := make([]string, 0, len(c.Links))
			for _, l := range c.Links {
				links = append(links, l.ZoneCode+"/"+l.EquipmentCode)
			}
			assert.Equal(t, tt.wantLinks, links)
		})
	}
}

func TestParse_TableRows(t *testing.T) {
	text := "Zone | Détecteurs | Asservissements\n" +
		"Rez de chaussée accès 3 | 24001-24005 | PCF B24.006\n" +
		"Quai accès 4 | 30-31 | AL2 | Ascenseur monte-charge"

	c := Parse(pages(text))
	require.Len(t, c.Zones, 2)
	assert.Equal(t, "Z03", c.Zones[0].Code)
	assert.Equal(t, "24001-24005", c.Zones[0].DetectorRange)
	assert.Equal(t, ZoneMatcherName, c.Zones[0].Matcher)
	assert.Equal(t, "Z04", c.Zones[1].Code)

	require.Len(t, c.Equipment, 2)
	assert.Equal(t, "B24.006", c.Equipment[0].Code)
	assert.Equal(t, "ASC-001", c.Equipment[1].Code)

	assert.Equal(t, []LinkCandidate{
		{ZoneCode: "Z03", EquipmentCode: "B24.006", AlarmLevel: constants.AlarmLevel1, Action: constants.ActionActivate},
		{ZoneCode: "Z04", EquipmentCode: "ASC-001", AlarmLevel: constants.AlarmLevel2, Action: constants.ActionActivate},
	}, c.Links)
}

func TestParse_NumberedZonesAndLoops(t *testing.T) {
	tests := []struct {
		name        string
		text        string
		wantZone    string
		wantMatcher string
		wantLink    LinkCandidate
		check       func(t *testing.T, z ZoneCandidate)
	}{
		{
			name:        "zone heading",
			text:        "Zone 12 Bâtiment B20\nAL1\nPCF B20.001",
			wantZone:    "Z12",
			wantMatcher: ZoneNumberMatcherName,
			wantLink:    LinkCandidate{ZoneCode: "Z12", EquipmentCode: "B20.001", AlarmLevel: constants.AlarmLevel1, Action: constants.ActionActivate},
			check: func(t *testing.T, z ZoneCandidate) {
				assert.Equal(t, "B20", z.Building)
				assert.Empty(t, z.DetectorRange)
			},
		},
		{
			name:        "loop heading",
			text:        "Boucle 3 Sous-sol\nSirène parking",
			wantZone:    "L03",
			wantMatcher: LoopNumberMatcherName,
			wantLink:    LinkCandidate{ZoneCode: "L03", EquipmentCode: "ALR-001", AlarmLevel: constants.AlarmLevel1, Action: constants.ActionActivate},
			check: func(t *testing.T, z ZoneCandidate) {
				assert.Equal(t, "SS", z.Floor)
			},
		},
		{
			name:        "zone number in a table cell",
			text:        "Z.7 | AL2 | Clapet gaine palière",
			wantZone:    "Z07",
			wantMatcher: ZoneNumberMatcherName,
			wantLink:    LinkCandidate{ZoneCode: "Z07", EquipmentCode: "CLP-001", AlarmLevel: constants.AlarmLevel2, Action: constants.ActionActivate},
			check:       func(t *testing.T, z ZoneCandidate) {},
		},
		{
			name:        "zone number with ranges keeps its number",
			text:        "Zone 5 parking: 500-504\nVentilation parking",
			wantZone:    "Z05",
			wantMatcher: ZoneMatcherName,
			wantLink:    LinkCandidate{ZoneCode: "Z05", EquipmentCode: "CVC-001", AlarmLevel: constants.AlarmLevel1, Action: constants.ActionActivate},
			check: func(t *testing.T, z ZoneCandidate) {
				assert.Equal(t, "500-504", z.DetectorRange)
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Parse(pages(tt.text))
			require.Len(t, c.Zones, 1)
			assert.Equal(t, tt.wantZone, c.Zones[0].Code)
			assert.Equal(t, tt.wantMatcher, c.Zones[0].Matcher)
			tt.check(t, c.Zones[0])
			require.Len(t, c.Links, 1)
			assert.Equal(t, tt.wantLink, c.Links[0])
		})
	}
}

func TestParse_RepeatedNumberedZoneIsDeduplicated(t *testing.T) {
	c := Parse(pages("Zone 12\nPCF B20.001", "Zone 12 (suite)\nPCF B20.002"))
	require.Len(t, c.Zones, 1)
	require.Len(t, c.Links, 2)
	assert.Equal(t, "Z12", c.Links[1].ZoneCode)
}
