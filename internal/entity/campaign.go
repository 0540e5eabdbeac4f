package entity

import (
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/interlock-tracker/constants"
)

// Campaign is a time-boxed verification cycle.
type Campaign struct {
	ID uuid.UUID `json:"id"`
	Scope
	Name      string                   `json:"name"`
	Year      int                      `json:"year"`
	StartsOn  *time.Time               `json:"starts_on,omitempty"`
	EndsOn    *time.Time               `json:"ends_on,omitempty"`
	Status    constants.CampaignStatus `json:"status"`
	CreatedAt time.Time                `json:"created_at"`
	UpdatedAt time.Time                `json:"updated_at"`
}
