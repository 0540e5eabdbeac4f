package ingest

import (
	"github.com/google/uuid"
)

// Result is the per-file ingest outcome.
type Result struct {
	SourcePath   string    `json:"source_path"`
	DocumentID   uuid.UUID `json:"document_id"`
	Deduplicated bool      `json:"deduplicated"`
	HashHex      string    `json:"hash"`
	Format       string    `json:"format"`
	Err          string    `json:"error,omitempty"`
}

// DirStats summarizes a directory ingest.
type DirStats struct {
	Scanned      uint32 `json:"scanned"`
	Matched      uint32 `json:"matched"`
	Succeeded    uint32 `json:"succeeded"`
	Deduplicated uint32 `json:"deduplicated"`
	Failed       uint32 `json:"failed"`
}
