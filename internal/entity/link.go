package entity

import (
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/interlock-tracker/constants"
)

// Link is the directed edge zone -> equipment for one alarm level.
type Link struct {
	ID            uuid.UUID            `json:"id"`
	ZoneID        uuid.UUID            `json:"zone_id"`
	EquipmentID   uuid.UUID            `json:"equipment_id"`
	ZoneCode      string               `json:"zone_code,omitempty"`
	EquipmentCode string               `json:"equipment_code,omitempty"`
	AlarmLevel    constants.AlarmLevel `json:"alarm_level"`
	Action        constants.ActionType `json:"action"`
	CreatedAt     time.Time            `json:"created_at"`
}

// LinkFilter narrows link listings; zero values are ignored.
type LinkFilter struct {
	ZoneID      uuid.UUID
	EquipmentID uuid.UUID
	AlarmLevel  constants.AlarmLevel
}
