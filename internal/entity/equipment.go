package entity

import (
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/interlock-tracker/constants"
)

// Equipment is a controllable interlock target, unique by code within a scope.
type Equipment struct {
	ID uuid.UUID `json:"id"`
	Scope
	Code     string                  `json:"code"`
	Name     string                  `json:"name"`
	Type     constants.EquipmentType `json:"type"`
	Location string                  `json:"location,omitempty"`
	// ExternalSystem/ExternalID reference a system of record (door control, switchboard).
	ExternalSystem string     `json:"external_system,omitempty"`
	ExternalID     string     `json:"external_id,omitempty"`
	DocumentID     *uuid.UUID `json:"document_id,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}
