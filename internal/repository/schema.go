package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// Bootstrap DDL, valid for both Postgres and SQLite. Ids are text UUIDs and
// scope columns default to '' so they can take part in unique keys.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS documents (
		id TEXT PRIMARY KEY,
		company_id TEXT NOT NULL DEFAULT '',
		site_id TEXT NOT NULL DEFAULT '',
		filename TEXT NOT NULL,
		format TEXT NOT NULL,
		content_hash TEXT NOT NULL,
		size_bytes BIGINT NOT NULL DEFAULT 0,
		storage_path TEXT NOT NULL,
		uploaded_at TIMESTAMP NOT NULL,
		UNIQUE (company_id, site_id, content_hash)
	)`,
	`CREATE TABLE IF NOT EXISTS zones (
		id TEXT PRIMARY KEY,
		company_id TEXT NOT NULL DEFAULT '',
		site_id TEXT NOT NULL DEFAULT '',
		code TEXT NOT NULL,
		code_key TEXT NOT NULL,
		name TEXT NOT NULL DEFAULT '',
		building TEXT NOT NULL DEFAULT '',
		floor TEXT NOT NULL DEFAULT '',
		access_point TEXT NOT NULL DEFAULT '',
		detector_range TEXT NOT NULL DEFAULT '',
		detector_kind TEXT NOT NULL DEFAULT 'smoke',
		document_id TEXT REFERENCES documents(id) ON DELETE SET NULL,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL,
		UNIQUE (company_id, site_id, code_key)
	)`,
	`CREATE INDEX IF NOT EXISTS zones_building_idx ON zones (company_id, site_id, building)`,
	`CREATE TABLE IF NOT EXISTS equipment (
		id TEXT PRIMARY KEY,
		company_id TEXT NOT NULL DEFAULT '',
		site_id TEXT NOT NULL DEFAULT '',
		code TEXT NOT NULL,
		code_key TEXT NOT NULL,
		name TEXT NOT NULL DEFAULT '',
		type TEXT NOT NULL DEFAULT 'other',
		location TEXT NOT NULL DEFAULT '',
		external_system TEXT NOT NULL DEFAULT '',
		external_id TEXT NOT NULL DEFAULT '',
		document_id TEXT REFERENCES documents(id) ON DELETE SET NULL,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL,
		UNIQUE (company_id, site_id, code_key)
	)`,
	`CREATE TABLE IF NOT EXISTS zone_equipment_links (
		id TEXT PRIMARY KEY,
		zone_id TEXT NOT NULL REFERENCES zones(id) ON DELETE CASCADE,
		equipment_id TEXT NOT NULL REFERENCES equipment(id) ON DELETE CASCADE,
		alarm_level INTEGER NOT NULL,
		action TEXT NOT NULL DEFAULT 'activate',
		created_at TIMESTAMP NOT NULL,
		UNIQUE (zone_id, equipment_id, alarm_level)
	)`,
	`CREATE INDEX IF NOT EXISTS links_equipment_idx ON zone_equipment_links (equipment_id)`,
	`CREATE TABLE IF NOT EXISTS campaigns (
		id TEXT PRIMARY KEY,
		company_id TEXT NOT NULL DEFAULT '',
		site_id TEXT NOT NULL DEFAULT '',
		name TEXT NOT NULL,
		year INTEGER NOT NULL,
		starts_on TIMESTAMP,
		ends_on TIMESTAMP,
		status TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS zone_checks (
		id TEXT PRIMARY KEY,
		campaign_id TEXT NOT NULL REFERENCES campaigns(id) ON DELETE CASCADE,
		zone_id TEXT NOT NULL REFERENCES zones(id) ON DELETE CASCADE,
		status TEXT NOT NULL DEFAULT 'pending',
		al1_triggered BOOLEAN,
		al2_triggered BOOLEAN,
		detector_used TEXT NOT NULL DEFAULT '',
		notes TEXT NOT NULL DEFAULT '',
		checked_at TIMESTAMP,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL,
		UNIQUE (campaign_id, zone_id)
	)`,
	`CREATE TABLE IF NOT EXISTS equipment_results (
		id TEXT PRIMARY KEY,
		check_id TEXT NOT NULL REFERENCES zone_checks(id) ON DELETE CASCADE,
		equipment_id TEXT NOT NULL REFERENCES equipment(id) ON DELETE CASCADE,
		alarm_level INTEGER NOT NULL,
		result TEXT NOT NULL DEFAULT 'pending',
		comment TEXT NOT NULL DEFAULT '',
		updated_at TIMESTAMP NOT NULL,
		UNIQUE (check_id, equipment_id, alarm_level)
	)`,
	`CREATE TABLE IF NOT EXISTS extract_jobs (
		id TEXT PRIMARY KEY,
		document_id TEXT NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
		company_id TEXT NOT NULL DEFAULT '',
		site_id TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL,
		progress INTEGER NOT NULL DEFAULT 0,
		message TEXT NOT NULL DEFAULT '',
		error TEXT NOT NULL DEFAULT '',
		result TEXT,
		created_at TIMESTAMP NOT NULL,
		started_at TIMESTAMP,
		finished_at TIMESTAMP,
		updated_at TIMESTAMP NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS extract_jobs_status_idx ON extract_jobs (status)`,
}

// Bootstrap creates missing tables and indexes. It is safe to run on every start.
func Bootstrap(ctx context.Context, db *sql.DB, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	for i, stmt := range schemaStatements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			logger.Error("db.bootstrap.failed", "statement", i, "error", err)
			return fmt.Errorf("bootstrap statement %d: %w", i, err)
		}
	}
	logger.Info("db.bootstrap.ok", "statements", len(schemaStatements))
	return nil
}
