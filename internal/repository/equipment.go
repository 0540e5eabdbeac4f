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

// EquipmentFilter narrows equipment listings; zero values are ignored.
type EquipmentFilter struct {
	Type           constants.EquipmentType
	ExternalSystem string
}

type EquipmentRepository interface {
	// Upsert inserts by (scope, code) or updates in place, keeping existing
	// values where e carries an empty one.
	Upsert(ctx context.Context, e entity.Equipment) (id uuid.UUID, created bool, err error)
	Create(ctx context.Context, e entity.Equipment) (entity.Equipment, error)
	Get(ctx context.Context, scope entity.Scope, id uuid.UUID) (entity.Equipment, error)
	GetByCode(ctx context.Context, scope entity.Scope, code string) (entity.Equipment, error)
	List(ctx context.Context, scope entity.Scope, f EquipmentFilter) ([]entity.Equipment, error)
	Update(ctx context.Context, e entity.Equipment) (entity.Equipment, error)
	Delete(ctx context.Context, scope entity.Scope, id uuid.UUID) error
}

type equipmentRepo struct {
	db  *sql.DB
	log *slog.Logger
}

func NewEquipmentRepository(db *sql.DB, log *slog.Logger) EquipmentRepository {
	if log == nil {
		log = slog.Default()
	}
	return &equipmentRepo{db: db, log: log}
}

const equipmentColumns = `id, company_id, site_id, code, name, type, location, external_system, external_id, document_id, created_at, updated_at`

func scanEquipment(s rowScanner) (entity.Equipment, error) {
	var (
		e     entity.Equipment
		typ   string
		docID sql.NullString
	)
	err := s.Scan(&e.ID, &e.CompanyID, &e.SiteID, &e.Code, &e.Name, &typ, &e.Location,
		&e.ExternalSystem, &e.ExternalID, &docID, &e.CreatedAt, &e.UpdatedAt)
	e.Type = constants.EquipmentType(typ)
	e.DocumentID = parseNullableID(docID)
	return e, err
}

func (r *equipmentRepo) Upsert(ctx context.Context, e entity.Equipment) (uuid.UUID, bool, error) {
	now := time.Now().UTC()
	insertType := e.Type
	if insertType == "" {
		insertType = constants.EquipmentOther
	}
	var got uuid.UUID
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO equipment (id, company_id, site_id, code, code_key, name, type, location, external_system, external_id, document_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $12)
		ON CONFLICT (company_id, site_id, code_key) DO NOTHING
		RETURNING id`,
		uuid.New(), e.CompanyID, e.SiteID, e.Code, matrix.CanonicalCode(e.Code), e.Name, string(insertType),
		e.Location, e.ExternalSystem, e.ExternalID, nullableID(e.DocumentID), now,
	).Scan(&got)
	if err == nil {
		return got, true, nil
	}
	if !isNoRows(err) {
		return uuid.Nil, false, fmt.Errorf("equipment: insert %s: %w", e.Code, err)
	}

	// "other" never overwrites a more specific type.
	updateType := string(e.Type)
	if e.Type == constants.EquipmentOther {
		updateType = ""
	}
	err = r.db.QueryRowContext(ctx, `
		UPDATE equipment SET
			name = COALESCE(NULLIF($1, ''), name),
			type = COALESCE(NULLIF($2, ''), type),
			location = COALESCE(NULLIF($3, ''), location),
			external_system = COALESCE(NULLIF($4, ''), external_system),
			external_id = COALESCE(NULLIF($5, ''), external_id),
			document_id = COALESCE($6, document_id),
			updated_at = $7
		WHERE company_id = $8 AND site_id = $9 AND code_key = $10
		RETURNING id`,
		e.Name, updateType, e.Location, e.ExternalSystem, e.ExternalID, nullableID(e.DocumentID), now,
		e.CompanyID, e.SiteID, matrix.CanonicalCode(e.Code),
	).Scan(&got)
	if err != nil {
		return uuid.Nil, false, fmt.Errorf("equipment: update %s: %w", e.Code, err)
	}
	return got, false, nil
}

func (r *equipmentRepo) Create(ctx context.Context, e entity.Equipment) (entity.Equipment, error) {
	if _, err := r.GetByCode(ctx, e.Scope, e.Code); err == nil {
		return entity.Equipment{}, common.Validationf("equipment code %q already exists", e.Code)
	} else if !common.IsNotFound(err) {
		return entity.Equipment{}, err
	}
	id, _, err := r.Upsert(ctx, e)
	if err != nil {
		return entity.Equipment{}, err
	}
	r.log.Info("equipment.created", "equipment_id", id, "code", e.Code)
	return r.Get(ctx, e.Scope, id)
}

func (r *equipmentRepo) Get(ctx context.Context, scope entity.Scope, id uuid.UUID) (entity.Equipment, error) {
	p := (&predicates{}).eq("id", id).scope("", scope)
	e, err := scanEquipment(r.db.QueryRowContext(ctx, `SELECT `+equipmentColumns+` FROM equipment`+p.where(), p.args...))
	if isNoRows(err) {
		return entity.Equipment{}, common.NotFoundf("equipment %s not found", id)
	}
	if err != nil {
		return entity.Equipment{}, fmt.Errorf("equipment: get: %w", err)
	}
	return e, nil
}

func (r *equipmentRepo) GetByCode(ctx context.Context, scope entity.Scope, code string) (entity.Equipment, error) {
	p := (&predicates{}).scope("", scope).eq("code_key", matrix.CanonicalCode(code))
	e, err := scanEquipment(r.db.QueryRowContext(ctx, `SELECT `+equipmentColumns+` FROM equipment`+p.where(), p.args...))
	if isNoRows(err) {
		return entity.Equipment{}, common.NotFoundf("equipment %q not found", code)
	}
	if err != nil {
		return entity.Equipment{}, fmt.Errorf("equipment: get by code: %w", err)
	}
	return e, nil
}

func (r *equipmentRepo) List(ctx context.Context, scope entity.Scope, f EquipmentFilter) ([]entity.Equipment, error) {
	p := (&predicates{}).scope("", scope)
	if f.Type != "" {
		p.eq("type", string(f.Type))
	}
	if f.ExternalSystem != "" {
		p.eq("external_system", f.ExternalSystem)
	}
	rows, err := r.db.QueryContext(ctx, `SELECT `+equipmentColumns+` FROM equipment`+p.where()+` ORDER BY code`, p.args...)
	if err != nil {
		return nil, fmt.Errorf("equipment: list: %w", err)
	}
	defer rows.Close()

	out := make([]entity.Equipment, 0)
	for rows.Next() {
		e, err := scanEquipment(rows)
		if err != nil {
			return nil, fmt.Errorf("equipment: scan: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *equipmentRepo) Update(ctx context.Context, e entity.Equipment) (entity.Equipment, error) {
	if e.Type == "" {
		e.Type = constants.EquipmentOther
	}
	res, err := r.db.ExecContext(ctx, `
		UPDATE equipment SET code = $1, code_key = $2, name = $3, type = $4, location = $5,
			external_system = $6, external_id = $7, updated_at = $8
		WHERE id = $9 AND company_id = $10 AND site_id = $11`,
		e.Code, matrix.CanonicalCode(e.Code), e.Name, string(e.Type), e.Location,
		e.ExternalSystem, e.ExternalID, time.Now().UTC(), e.ID, e.CompanyID, e.SiteID,
	)
	if err != nil {
		return entity.Equipment{}, fmt.Errorf("equipment: update: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return entity.Equipment{}, common.NotFoundf("equipment %s not found", e.ID)
	}
	return r.Get(ctx, e.Scope, e.ID)
}

func (r *equipmentRepo) Delete(ctx context.Context, scope entity.Scope, id uuid.UUID) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("equipment: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	p := (&predicates{}).eq("id", id).scope("", scope)
	var found uuid.UUID
	if err := tx.QueryRowContext(ctx, `SELECT id FROM equipment`+p.where(), p.args...).Scan(&found); err != nil {
		if isNoRows(err) {
			return common.NotFoundf("equipment %s not found", id)
		}
		return fmt.Errorf("equipment: delete lookup: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM zone_equipment_links WHERE equipment_id = $1`, id); err != nil {
		return fmt.Errorf("equipment: delete links: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM equipment WHERE id = $1`, id); err != nil {
		return fmt.Errorf("equipment: delete: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("equipment: commit: %w", err)
	}
	r.log.Info("equipment.deleted", "equipment_id", id)
	return nil
}
