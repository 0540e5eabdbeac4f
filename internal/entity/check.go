package entity

import (
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/interlock-tracker/constants"
)

// CheckOutcome holds what the technician observed while stimulating the zone.
type CheckOutcome struct {
	AL1Triggered *bool  `json:"al1_triggered,omitempty"`
	AL2Triggered *bool  `json:"al2_triggered,omitempty"`
	DetectorUsed string `json:"detector_used,omitempty"`
	Notes        string `json:"notes,omitempty"`
}

// ZoneCheck is one verification of one zone within one campaign.
// Status is derived from Results and never set by callers.
type ZoneCheck struct {
	ID         uuid.UUID             `json:"id"`
	CampaignID uuid.UUID             `json:"campaign_id"`
	ZoneID     uuid.UUID             `json:"zone_id"`
	ZoneCode   string                `json:"zone_code,omitempty"`
	ZoneName   string                `json:"zone_name,omitempty"`
	Status     constants.CheckStatus `json:"status"`
	Outcome    CheckOutcome          `json:"outcome"`
	CheckedAt  *time.Time            `json:"checked_at,omitempty"`
	CreatedAt  time.Time             `json:"created_at"`
	UpdatedAt  time.Time             `json:"updated_at"`

	Results []EquipmentResult `json:"results,omitempty"`
	Counts  LevelCounts       `json:"counts,omitempty"`
}

// EquipmentResult is the observed outcome of one equipment item at one alarm level.
type EquipmentResult struct {
	ID            uuid.UUID             `json:"id"`
	CheckID       uuid.UUID             `json:"check_id"`
	EquipmentID   uuid.UUID             `json:"equipment_id"`
	EquipmentCode string                `json:"equipment_code,omitempty"`
	EquipmentName string                `json:"equipment_name,omitempty"`
	AlarmLevel    constants.AlarmLevel  `json:"alarm_level"`
	Result        constants.ResultValue `json:"result"`
	Comment       string                `json:"comment,omitempty"`
	UpdatedAt     time.Time             `json:"updated_at"`
}

// ResultCounts tallies result values.
type ResultCounts struct {
	Pending int `json:"pending"`
	OK      int `json:"ok"`
	NOK     int `json:"nok"`
	NA      int `json:"na"`
}

// Add increments the counter for v by n.
func (c *ResultCounts) Add(v constants.ResultValue, n int) {
	switch v {
	case constants.ResultOK:
		c.OK += n
	case constants.ResultNOK:
		c.NOK += n
	case constants.ResultNA:
		c.NA += n
	default:
		c.Pending += n
	}
}

// LevelCounts groups ResultCounts by alarm level.
type LevelCounts map[constants.AlarmLevel]ResultCounts

// CheckFilter narrows check listings; zero values are ignored.
type CheckFilter struct {
	Status   constants.CheckStatus
	Building string
	ZoneID   uuid.UUID
}
