package entity

import (
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/interlock-tracker/constants"
)

// ExtractJob is one run of the matrix extraction pipeline over a document.
type ExtractJob struct {
	ID         uuid.UUID `json:"id"`
	DocumentID uuid.UUID `json:"document_id"`
	Scope
	Status     constants.JobStatus `json:"status"`
	Progress   int                 `json:"progress"`
	Message    string              `json:"message"`
	Error      string              `json:"error,omitempty"`
	Result     *JobResult          `json:"result,omitempty"`
	CreatedAt  time.Time           `json:"created_at"`
	StartedAt  *time.Time          `json:"started_at,omitempty"`
	FinishedAt *time.Time          `json:"finished_at,omitempty"`
	UpdatedAt  time.Time           `json:"updated_at"`
}

// JobResult summarizes what a completed job persisted.
type JobResult struct {
	ZonesCreated     int      `json:"zones_created"`
	ZonesUpdated     int      `json:"zones_updated"`
	EquipmentCreated int      `json:"equipment_created"`
	EquipmentUpdated int      `json:"equipment_updated"`
	LinksCreated     int      `json:"links_created"`
	LinksSkipped     int      `json:"links_skipped"`
	Failed           int      `json:"failed"`
	Pages            int      `json:"pages"`
	ChunksTotal      int      `json:"chunks_total,omitempty"`
	ChunksFailed     int      `json:"chunks_failed,omitempty"`
	Enriched         bool     `json:"enriched"`
	Warnings         []string `json:"warnings,omitempty"`
}
