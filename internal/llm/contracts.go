package llm

import "context"

// Completer sends one system+user exchange to a chat model and returns the
// assistant message content, expected to be a JSON object.
type Completer interface {
	Complete(ctx context.Context, system, user string) ([]byte, error)
}

// MatrixProposal is the JSON shape the model must return for a text chunk.
// Unknown fields are ignored and missing ones decode to zero values.
type MatrixProposal struct {
	Zones     []ProposedZone      `json:"zones"`
	Equipment []ProposedEquipment `json:"equipment"`
	Links     []ProposedLink      `json:"links"`
}

type ProposedZone struct {
	Code          string `json:"code"`
	Name          string `json:"name,omitempty"`
	DetectorRange string `json:"detector_range,omitempty"`
	Building      string `json:"building,omitempty"`
	Floor         string `json:"floor,omitempty"`
	AccessPoint   string `json:"access_point,omitempty"`
	IsManual      bool   `json:"is_manual,omitempty"`
}

type ProposedEquipment struct {
	Code     string `json:"code"`
	Name     string `json:"name,omitempty"`
	Type     string `json:"type,omitempty"`
	Location string `json:"location,omitempty"`
}

type ProposedLink struct {
	ZoneCode      string `json:"zone_code"`
	EquipmentCode string `json:"equipment_code"`
	AlarmLevel    int    `json:"alarm_level,omitempty"`
}

// ChunkStats reports how many chunks were sent and how they ended.
type ChunkStats struct {
	Total     int `json:"total"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
}
