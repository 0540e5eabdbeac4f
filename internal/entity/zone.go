package entity

import (
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/interlock-tracker/constants"
	"github.com/joseph-ayodele/interlock-tracker/internal/matrix"
)

// Zone is a named detection group, unique by code within a scope.
type Zone struct {
	ID uuid.UUID `json:"id"`
	Scope
	Code          string                 `json:"code"`
	Name          string                 `json:"name"`
	Building      string                 `json:"building,omitempty"`
	Floor         string                 `json:"floor,omitempty"`
	AccessPoint   string                 `json:"access_point,omitempty"`
	DetectorRange string                 `json:"detector_range,omitempty"`
	DetectorKind  constants.DetectorKind `json:"detector_kind"`
	DocumentID    *uuid.UUID             `json:"document_id,omitempty"`
	CreatedAt     time.Time              `json:"created_at"`
	UpdatedAt     time.Time              `json:"updated_at"`
}

// Detectors expands DetectorRange into explicit detector numbers.
func (z Zone) Detectors() []int {
	return matrix.ExpandRange(z.DetectorRange)
}
