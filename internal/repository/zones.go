package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/interlock-tracker/constants"
	"github.com/joseph-ayodele/interlock-tracker/internal/common"
	"github.com/joseph-ayodele/interlock-tracker/internal/entity"
	"github.com/joseph-ayodele/interlock-tracker/internal/matrix"
)

// ZoneFilter narrows zone listings; zero values are ignored.
type ZoneFilter struct {
	Building   string
	Floor      string
	DocumentID uuid.UUID
}

type ZoneRepository interface {
	// Upsert inserts by (scope, code) or updates the existing row in place,
	// overwriting only fields for which z carries a non-empty value.
	Upsert(ctx context.Context, z entity.Zone) (id uuid.UUID, created bool, err error)
	Create(ctx context.Context, z entity.Zone) (entity.Zone, error)
	Get(ctx context.Context, scope entity.Scope, id uuid.UUID) (entity.Zone, error)
	GetByCode(ctx context.Context, scope entity.Scope, code string) (entity.Zone, error)
	List(ctx context.Context, scope entity.Scope, f ZoneFilter) ([]entity.Zone, error)
	Update(ctx context.Context, z entity.Zone) (entity.Zone, error)
	// Delete removes the zone and its links.
	Delete(ctx context.Context, scope entity.Scope, id uuid.UUID) error
}

type zoneRepo struct {
	db  *sql.DB
	log *slog.Logger
}

func NewZoneRepository(db *sql.DB, log *slog.Logger) ZoneRepository {
	if log == nil {
		log = slog.Default()
	}
	return &zoneRepo{db: db, log: log}
}

const zoneColumns = `id, company_id, site_id, code, name, building, floor, access_point, detector_range, detector_kind, document_id, created_at, updated_at`

func scanZone(s rowScanner) (entity.Zone, error) {
	var (
		z     entity.Zone
		kind  string
		docID sql.NullString
	)
	err := s.Scan(&z.ID, &z.CompanyID, &z.SiteID, &z.Code, &z.Name, &z.Building, &z.Floor, &z.AccessPoint,
		&z.DetectorRange, &kind, &docID, &z.CreatedAt, &z.UpdatedAt)
	z.DetectorKind = constants.DetectorKind(kind)
	z.DocumentID = parseNullableID(docID)
	return z, err
}

func (r *zoneRepo) Upsert(ctx context.Context, z entity.Zone) (uuid.UUID, bool, error) {
	now := time.Now().UTC()
	id := uuid.New()
	kind := z.DetectorKind
	if kind == "" {
		kind = constants.DetectorSmoke
	}
	var got uuid.UUID
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO zones (id, company_id, site_id, code, code_key, name, building, floor, access_point, detector_range, detector_kind, document_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $13)
		ON CONFLICT (company_id, site_id, code_key) DO NOTHING
		RETURNING id`,
		id, z.CompanyID, z.SiteID, z.Code, matrix.CanonicalCode(z.Code), z.Name, z.Building, z.Floor,
		z.AccessPoint, z.DetectorRange, string(kind), nullableID(z.DocumentID), now,
	).Scan(&got)
	if err == nil {
		return got, true, nil
	}
	if !isNoRows(err) {
		return uuid.Nil, false, fmt.Errorf("zones: insert %s: %w", z.Code, err)
	}

	err = r.db.QueryRowContext(ctx, `
		UPDATE zones SET
			name = COALESCE(NULLIF($1, ''), name),
			building = COALESCE(NULLIF($2, ''), building),
			floor = COALESCE(NULLIF($3, ''), floor),
			access_point = COALESCE(NULLIF($4, ''), access_point),
			detector_range = COALESCE(NULLIF($5, ''), detector_range),
			detector_kind = COALESCE(NULLIF($6, ''), detector_kind),
			document_id = COALESCE($7, document_id),
			updated_at = $8
		WHERE company_id = $9 AND site_id = $10 AND code_key = $11
		RETURNING id`,
		z.Name, z.Building, z.Floor, z.AccessPoint, z.DetectorRange, string(z.DetectorKind),
		nullableID(z.DocumentID), now, z.CompanyID, z.SiteID, matrix.CanonicalCode(z.Code),
	).Scan(&got)
	if err != nil {
		return uuid.Nil, false, fmt.Errorf("zones: update %s: %w", z.Code, err)
	}
	return got, false, nil
}

func (r *zoneRepo) Create(ctx context.Context, z entity.Zone) (entity.Zone, error) {
	if _, err := r.GetByCode(ctx, z.Scope, z.Code); err == nil {
		return entity.Zone{}, common.Validationf("zone code %q already exists", z.Code)
	} else if !common.IsNotFound(err) {
		return entity.Zone{}, err
	}
	id, _, err := r.Upsert(ctx, z)
	if err != nil {
		return entity.Zone{}, err
	}
	r.log.Info("zone.created", "zone_id", id, "code", z.Code)
	return r.Get(ctx, z.Scope, id)
}

func (r *zoneRepo) Get(ctx context.Context, scope entity.Scope, id uuid.UUID) (entity.Zone, error) {
	p := (&predicates{}).eq("id", id).scope("", scope)
	z, err := scanZone(r.db.QueryRowContext(ctx, `SELECT `+zoneColumns+` FROM zones`+p.where(), p.args...))
	if isNoRows(err) {
		return entity.Zone{}, common.NotFoundf("zone %s not found", id)
	}
	if err != nil {
		return entity.Zone{}, fmt.Errorf("zones: get: %w", err)
	}
	return z, nil
}

func (r *zoneRepo) GetByCode(ctx context.Context, scope entity.Scope, code string) (entity.Zone, error) {
	p := (&predicates{}).scope("", scope).eq("code_key", matrix.CanonicalCode(code))
	z, err := scanZone(r.db.QueryRowContext(ctx, `SELECT `+zoneColumns+` FROM zones`+p.where(), p.args...))
	if isNoRows(err) {
		return entity.Zone{}, common.NotFoundf("zone %q not found", code)
	}
	if err != nil {
		return entity.Zone{}, fmt.Errorf("zones: get by code: %w", err)
	}
	return z, nil
}

func (r *zoneRepo) List(ctx context.Context, scope entity.Scope, f ZoneFilter) ([]entity.Zone, error) {
	p := (&predicates{}).scope("", scope)
	if f.Building != "" {
		p.eq("building", f.Building)
	}
	if f.Floor != "" {
		p.eq("floor", f.Floor)
	}
	if f.DocumentID != uuid.Nil {
		p.eq("document_id", f.DocumentID)
	}
	rows, err := r.db.QueryContext(ctx, `SELECT `+zoneColumns+` FROM zones`+p.where()+` ORDER BY code`, p.args...)
	if err != nil {
		return nil, fmt.Errorf("zones: list: %w", err)
	}
	defer rows.Close()

	out := make([]entity.Zone, 0)
	for rows.Next() {
		z, err := scanZone(rows)
		if err != nil {
			return nil, fmt.Errorf("zones: scan: %w", err)
		}
		out = append(out, z)
	}
	return out, rows.Err()
}

// Update replaces the editable fields of a zone, including clearing them.
func (r *zoneRepo) Update(ctx context.Context, z entity.Zone) (entity.Zone, error) {
	if z.DetectorKind == "" {
		z.DetectorKind = constants.DetectorSmoke
	}
	res, err := r.db.ExecContext(ctx, `
		UPDATE zones SET code = $1, code_key = $2, name = $3, building = $4, floor = $5, access_point = $6,
			detector_range = $7, detector_kind = $8, updated_at = $9
		WHERE id = $10 AND company_id = $11 AND site_id = $12`,
		z.Code, matrix.CanonicalCode(z.Code), z.Name, z.Building, z.Floor, z.AccessPoint,
		z.DetectorRange, string(z.DetectorKind), time.Now().UTC(), z.ID, z.CompanyID, z.SiteID,
	)
	if err != nil {
		return entity.Zone{}, fmt.Errorf("zones: update: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return entity.Zone{}, common.NotFoundf("zone %s not found", z.ID)
	}
	return r.Get(ctx, z.Scope, z.ID)
}

func (r *zoneRepo) Delete(ctx context.Context, scope entity.Scope, id uuid.UUID) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("zones: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	p := (&predicates{}).eq("id", id).scope("", scope)
	var found uuid.UUID
	if err := tx.QueryRowContext(ctx, `SELECT id FROM zones`+p.where(), p.args...).Scan(&found); err != nil {
		if isNoRows(err) {
			return common.NotFoundf("zone %s not found", id)
		}
		return fmt.Errorf("zones: delete lookup: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM zone_equipment_links WHERE zone_id = $1`, id); err != nil {
		return fmt.Errorf("zones: delete links: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM zones WHERE id = $1`, id); err != nil {
		return fmt.Errorf("zones: delete: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("zones: commit: %w", err)
	}
	r.log.Info("zone.deleted", "zone_id", id)
	return nil
}
