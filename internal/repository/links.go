package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/interlock-tracker/constants"
	"github.com/joseph-ayodele/interlock-tracker/internal/common"
	"github.com/joseph-ayodele/interlock-tracker/internal/entity"
	"github.com/joseph-ayodele/interlock-tracker/internal/matrix"
)

type LinkRepository interface {
	// Upsert inserts by (zone, equipment, alarm_level); an existing link keeps
	// its id and only its action is refreshed.
	Upsert(ctx context.Context, l entity.Link) (created bool, err error)
	List(ctx context.Context, scope entity.Scope, f entity.LinkFilter) ([]entity.Link, error)
	// CreateByCodes resolves both endpoints by code within scope.
	CreateByCodes(ctx context.Context, scope entity.Scope, zoneCode, equipmentCode string, level constants.AlarmLevel, action constants.ActionType) (entity.Link, bool, error)
	DeleteByCodes(ctx context.Context, scope entity.Scope, zoneCode, equipmentCode string, level constants.AlarmLevel) error
}

type linkRepo struct {
	db  *sql.DB
	log *slog.Logger
}

func NewLinkRepository(db *sql.DB, log *slog.Logger) LinkRepository {
	if log == nil {
		log = slog.Default()
	}
	return &linkRepo{db: db, log: log}
}

func (r *linkRepo) Upsert(ctx context.Context, l entity.Link) (bool, error) {
	if !l.AlarmLevel.Valid() {
		return false, common.Validationf("alarm level %d is not 1 or 2", l.AlarmLevel)
	}
	if l.Action == "" {
		l.Action = constants.ActionActivate
	}
	var id uuid.UUID
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO zone_equipment_links (id, zone_id, equipment_id, alarm_level, action, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (zone_id, equipment_id, alarm_level) DO NOTHING
		RETURNING id`,
		uuid.New(), l.ZoneID, l.EquipmentID, int(l.AlarmLevel), string(l.Action), time.Now().UTC(),
	).Scan(&id)
	if err == nil {
		return true, nil
	}
	if !isNoRows(err) {
		return false, fmt.Errorf("links: insert: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, `
		UPDATE zone_equipment_links SET action = $1
		WHERE zone_id = $2 AND equipment_id = $3 AND alarm_level = $4`,
		string(l.Action), l.ZoneID, l.EquipmentID, int(l.AlarmLevel),
	); err != nil {
		return false, fmt.Errorf("links: update: %w", err)
	}
	return false, nil
}

func (r *linkRepo) List(ctx context.Context, scope entity.Scope, f entity.LinkFilter) ([]entity.Link, error) {
	p := (&predicates{}).scope("z.", scope)
	if f.ZoneID != uuid.Nil {
		p.eq("l.zone_id", f.ZoneID)
	}
	if f.EquipmentID != uuid.Nil {
		p.eq("l.equipment_id", f.EquipmentID)
	}
	if f.AlarmLevel != 0 {
		p.eq("l.alarm_level", int(f.AlarmLevel))
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT l.id, l.zone_id, l.equipment_id, z.code, e.code, l.alarm_level, l.action, l.created_at
		FROM zone_equipment_links l
		JOIN zones z ON z.id = l.zone_id
		JOIN equipment e ON e.id = l.equipment_id`+p.where()+`
		ORDER BY z.code, l.alarm_level, e.code`, p.args...)
	if err != nil {
		return nil, fmt.Errorf("links: list: %w", err)
	}
	defer rows.Close()

	out := make([]entity.Link, 0)
	for rows.Next() {
		var (
			l      entity.Link
			level  int
			action string
		)
		if err := rows.Scan(&l.ID, &l.ZoneID, &l.EquipmentID, &l.ZoneCode, &l.EquipmentCode, &level, &action, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("links: scan: %w", err)
		}
		l.AlarmLevel = constants.AlarmLevel(level)
		l.Action = constants.ActionType(action)
		out = append(out, l)
	}
	return out, rows.Err()
}

func (r *linkRepo) resolve(ctx context.Context, scope entity.Scope, zoneCode, equipmentCode string) (zoneID, equipmentID uuid.UUID, err error) {
	if strings.TrimSpace(zoneCode) == "" || strings.TrimSpace(equipmentCode) == "" {
		return uuid.Nil, uuid.Nil, common.Validationf("zone_code and equipment_code are required")
	}
	zp := (&predicates{}).scope("", scope).eq("code_key", matrix.CanonicalCode(zoneCode))
	if err := r.db.QueryRowContext(ctx, `SELECT id FROM zones`+zp.where(), zp.args...).Scan(&zoneID); err != nil {
		if isNoRows(err) {
			return uuid.Nil, uuid.Nil, common.NotFoundf("zone %q not found", zoneCode)
		}
		return uuid.Nil, uuid.Nil, fmt.Errorf("links: resolve zone: %w", err)
	}
	ep := (&predicates{}).scope("", scope).eq("code_key", matrix.CanonicalCode(equipmentCode))
	if err := r.db.QueryRowContext(ctx, `SELECT id FROM equipment`+ep.where(), ep.args...).Scan(&equipmentID); err != nil {
		if isNoRows(err) {
			return uuid.Nil, uuid.Nil, common.NotFoundf("equipment %q not found", equipmentCode)
		}
		return uuid.Nil, uuid.Nil, fmt.Errorf("links: resolve equipment: %w", err)
	}
	return zoneID, equipmentID, nil
}

func (r *linkRepo) CreateByCodes(ctx context.Context, scope entity.Scope, zoneCode, equipmentCode string, level constants.AlarmLevel, action constants.ActionType) (entity.Link, bool, error) {
	zoneID, equipmentID, err := r.resolve(ctx, scope, zoneCode, equipmentCode)
	if err != nil {
		return entity.Link{}, false, err
	}
	created, err := r.Upsert(ctx, entity.Link{ZoneID: zoneID, EquipmentID: equipmentID, AlarmLevel: level, Action: action})
	if err != nil {
		return entity.Link{}, false, err
	}
	links, err := r.List(ctx, scope, entity.LinkFilter{ZoneID: zoneID, EquipmentID: equipmentID, AlarmLevel: level})
	if err != nil {
		return entity.Link{}, false, err
	}
	if len(links) == 0 {
		return entity.Link{}, false, common.NotFoundf("link %s/%s not found after upsert", zoneCode, equipmentCode)
	}
	return links[0], created, nil
}

func (r *linkRepo) DeleteByCodes(ctx context.Context, scope entity.Scope, zoneCode, equipmentCode string, level constants.AlarmLevel) error {
	zoneID, equipmentID, err := r.resolve(ctx, scope, zoneCode, equipmentCode)
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM zone_equipment_links WHERE zone_id = $1 AND equipment_id = $2 AND alarm_level = $3`,
		zoneID, equipmentID, int(level))
	if err != nil {
		return fmt.Errorf("links: delete: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return common.NotFoundf("link %s/%s level %d not found", zoneCode, equipmentCode, level)
	}
	r.log.Info("link.deleted", "zone_code", zoneCode, "equipment_code", equipmentCode, "alarm_level", level)
	return nil
}
