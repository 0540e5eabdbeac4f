package entity

import (
	"time"

	"github.com/google/uuid"
)

// Document is an uploaded interlock document stored on the local file system.
type Document struct {
	ID uuid.UUID `json:"id"`
	Scope
	Filename    string    `json:"filename"`
	Format      string    `json:"format"`
	ContentHash string    `json:"content_hash"`
	SizeBytes   int64     `json:"size_bytes"`
	StoragePath string    `json:"-"`
	UploadedAt  time.Time `json:"uploaded_at"`
}
