package matrix

import (
	"github.com/joseph-ayodele/interlock-tracker/constants"
)

// ZoneCandidate is a detection zone proposed by the parser or by enrichment.
type ZoneCandidate struct {
	Code          string                 `json:"code"`
	Name          string                 `json:"name"`
	Building      string                 `json:"building,omitempty"`
	Floor         string                 `json:"floor,omitempty"`
	AccessPoint   string                 `json:"access_point,omitempty"`
	DetectorRange string                 `json:"detector_range,omitempty"`
	Kind          constants.DetectorKind `json:"kind"`
	Matcher       string                 `json:"matcher,omitempty"`
	Page          int                    `json:"page,omitempty"`
}

// Detectors expands DetectorRange.
func (z ZoneCandidate) Detectors() []int { return ExpandRange(z.DetectorRange) }

// EquipmentCandidate is a controlled device proposed by the parser or by enrichment.
type EquipmentCandidate struct {
	Code     string                  `json:"code"`
	Name     string                  `json:"name"`
	Type     constants.EquipmentType `json:"type"`
	Location string                  `json:"location,omitempty"`
	Matcher  string                  `json:"matcher,omitempty"`
	Page     int                     `json:"page,omitempty"`
}

// LinkCandidate references its endpoints by code; resolution to ids happens on persist.
type LinkCandidate struct {
	ZoneCode      string               `json:"zone_code"`
	EquipmentCode string               `json:"equipment_code"`
	AlarmLevel    constants.AlarmLevel `json:"alarm_level"`
	Action        constants.ActionType `json:"action"`
}

// LinkKey identifies a link by canonical endpoint codes and level.
type LinkKey struct {
	Zone      string
	Equipment string
	Level     constants.AlarmLevel
}

func (l LinkCandidate) Key() LinkKey {
	return LinkKey{Zone: CanonicalCode(l.ZoneCode), Equipment: CanonicalCode(l.EquipmentCode), Level: l.AlarmLevel}
}

// Candidates is the full proposal for one document.
type Candidates struct {
	Zones     []ZoneCandidate      `json:"zones"`
	Equipment []EquipmentCandidate `json:"equipment"`
	Links     []LinkCandidate      `json:"links"`
}

// Empty reports whether nothing was proposed.
func (c Candidates) Empty() bool {
	return len(c.Zones) == 0 && len(c.Equipment) == 0 && len(c.Links) == 0
}
