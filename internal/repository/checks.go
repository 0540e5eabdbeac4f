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
)

type CheckRepository interface {
	// EnsureCheck creates the (campaign, zone) check when absent.
	EnsureCheck(ctx context.Context, campaignID, zoneID uuid.UUID) (id uuid.UUID, created bool, err error)
	// EnsureResult creates a pending (check, equipment, level) result when absent.
	EnsureResult(ctx context.Context, checkID, equipmentID uuid.UUID, level constants.AlarmLevel) (created bool, err error)
	Get(ctx context.Context, scope entity.Scope, id uuid.UUID) (entity.ZoneCheck, error)
	List(ctx context.Context, scope entity.Scope, campaignID uuid.UUID, f entity.CheckFilter) ([]entity.ZoneCheck, error)
	Results(ctx context.Context, checkID uuid.UUID) ([]entity.EquipmentResult, error)
	// Counts returns result tallies per check and alarm level for a campaign.
	Counts(ctx context.Context, campaignID uuid.UUID) (map[uuid.UUID]entity.LevelCounts, error)
	UpdateResult(ctx context.Context, checkID, equipmentID uuid.UUID, level constants.AlarmLevel, value constants.ResultValue, comment string) error
	UpdateOutcome(ctx context.Context, checkID uuid.UUID, o entity.CheckOutcome) error
	SetStatus(ctx context.Context, checkID uuid.UUID, status constants.CheckStatus) error
}

type checkRepo struct {
	db  *sql.DB
	log *slog.Logger
}

func NewCheckRepository(db *sql.DB, log *slog.Logger) CheckRepository {
	if log == nil {
		log = slog.Default()
	}
	return &checkRepo{db: db, log: log}
}

func (r *checkRepo) EnsureCheck(ctx context.Context, campaignID, zoneID uuid.UUID) (uuid.UUID, bool, error) {
	now := time.Now().UTC()
	var id uuid.UUID
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO zone_checks (id, campaign_id, zone_id, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $5)
		ON CONFLICT (campaign_id, zone_id) DO NOTHING
		RETURNING id`,
		uuid.New(), campaignID, zoneID, string(constants.CheckPending), now,
	).Scan(&id)
	if err == nil {
		return id, true, nil
	}
	if !isNoRows(err) {
		return uuid.Nil, false, fmt.Errorf("checks: insert: %w", err)
	}
	if err := r.db.QueryRowContext(ctx,
		`SELECT id FROM zone_checks WHERE campaign_id = $1 AND zone_id = $2`, campaignID, zoneID,
	).Scan(&id); err != nil {
		return uuid.Nil, false, fmt.Errorf("checks: lookup: %w", err)
	}
	return id, false, nil
}

func (r *checkRepo) EnsureResult(ctx context.Context, checkID, equipmentID uuid.UUID, level constants.AlarmLevel) (bool, error) {
	var id uuid.UUID
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO equipment_results (id, check_id, equipment_id, alarm_level, result, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (check_id, equipment_id, alarm_level) DO NOTHING
		RETURNING id`,
		uuid.New(), checkID, equipmentID, int(level), string(constants.ResultPending), time.Now().UTC(),
	).Scan(&id)
	if isNoRows(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("results: insert: %w", err)
	}
	return true, nil
}

const checkSelect = `
	SELECT zc.id, zc.campaign_id, zc.zone_id, z.code, z.name, zc.status, zc.al1_triggered, zc.al2_triggered,
		zc.detector_used, zc.notes, zc.checked_at, zc.created_at, zc.updated_at
	FROM zone_checks zc
	JOIN zones z ON z.id = zc.zone_id
	JOIN campaigns c ON c.id = zc.campaign_id`

func scanCheck(s rowScanner) (entity.ZoneCheck, error) {
	var (
		c        entity.ZoneCheck
		status   string
		al1, al2 sql.NullBool
		checked  sql.NullTime
	)
	err := s.Scan(&c.ID, &c.CampaignID, &c.ZoneID, &c.ZoneCode, &c.ZoneName, &status, &al1, &al2,
		&c.Outcome.DetectorUsed, &c.Outcome.Notes, &checked, &c.CreatedAt, &c.UpdatedAt)
	c.Status = constants.CheckStatus(status)
	if al1.Valid {
		c.Outcome.AL1Triggered = &al1.Bool
	}
	if al2.Valid {
		c.Outcome.AL2Triggered = &al2.Bool
	}
	if checked.Valid {
		c.CheckedAt = &checked.Time
	}
	return c, err
}

func (r *checkRepo) Get(ctx context.Context, scope entity.Scope, id uuid.UUID) (entity.ZoneCheck, error) {
	p := (&predicates{}).eq("zc.id", id).scope("c.", scope)
	c, err := scanCheck(r.db.QueryRowContext(ctx, checkSelect+p.where(), p.args...))
	if isNoRows(err) {
		return entity.ZoneCheck{}, common.NotFoundf("zone check %s not found", id)
	}
	if err != nil {
		return entity.ZoneCheck{}, fmt.Errorf("checks: get: %w", err)
	}
	return c, nil
}

func (r *checkRepo) List(ctx context.Context, scope entity.Scope, campaignID uuid.UUID, f entity.CheckFilter) ([]entity.ZoneCheck, error) {
	p := (&predicates{}).eq("zc.campaign_id", campaignID).scope("c.", scope)
	if f.Status != "" {
		p.eq("zc.status", string(f.Status))
	}
	if f.Building != "" {
		p.eq("z.building", f.Building)
	}
	if f.ZoneID != uuid.Nil {
		p.eq("zc.zone_id", f.ZoneID)
	}
	rows, err := r.db.QueryContext(ctx, checkSelect+p.where()+` ORDER BY z.code`, p.args...)
	if err != nil {
		return nil, fmt.Errorf("checks: list: %w", err)
	}
	defer rows.Close()

	out := make([]entity.ZoneCheck, 0)
	for rows.Next() {
		c, err := scanCheck(rows)
		if err != nil {
			return nil, fmt.Errorf("checks: scan: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *checkRepo) Results(ctx context.Context, checkID uuid.UUID) ([]entity.EquipmentResult, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT r.id, r.check_id, r.equipment_id, e.code, e.name, r.alarm_level, r.result, r.comment, r.updated_at
		FROM equipment_results r
		JOIN equipment e ON e.id = r.equipment_id
		WHERE r.check_id = $1
		ORDER BY r.alarm_level, e.code`, checkID)
	if err != nil {
		return nil, fmt.Errorf("results: list: %w", err)
	}
	defer rows.Close()

	out := make([]entity.EquipmentResult, 0)
	for rows.Next() {
		var (
			res    entity.EquipmentResult
			level  int
			result string
		)
		if err := rows.Scan(&res.ID, &res.CheckID, &res.EquipmentID, &res.EquipmentCode, &res.EquipmentName,
			&level, &result, &res.Comment, &res.UpdatedAt); err != nil {
			return nil, fmt.Errorf("results: scan: %w", err)
		}
		res.AlarmLevel = constants.AlarmLevel(level)
		res.Result = constants.ResultValue(result)
		out = append(out, res)
	}
	return out, rows.Err()
}

func (r *checkRepo) Counts(ctx context.Context, campaignID uuid.UUID) (map[uuid.UUID]entity.LevelCounts, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT r.check_id, r.alarm_level, r.result, COUNT(*)
		FROM equipment_results r
		JOIN zone_checks zc ON zc.id = r.check_id
		WHERE zc.campaign_id = $1
		GROUP BY r.check_id, r.alarm_level, r.result`, campaignID)
	if err != nil {
		return nil, fmt.Errorf("results: counts: %w", err)
	}
	defer rows.Close()

	out := make(map[uuid.UUID]entity.LevelCounts)
	for rows.Next() {
		var (
			checkID uuid.UUID
			level   int
			result  string
			n       int
		)
		if err := rows.Scan(&checkID, &level, &result, &n); err != nil {
			return nil, fmt.Errorf("results: counts scan: %w", err)
		}
		lc, ok := out[checkID]
		if !ok {
			lc = entity.LevelCounts{}
			out[checkID] = lc
		}
		rc := lc[constants.AlarmLevel(level)]
		rc.Add(constants.ResultValue(result), n)
		lc[constants.AlarmLevel(level)] = rc
	}
	return out, rows.Err()
}

func (r *checkRepo) UpdateResult(ctx context.Context, checkID, equipmentID uuid.UUID, level constants.AlarmLevel, value constants.ResultValue, comment string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE equipment_results SET result = $1, comment = COALESCE(NULLIF($2, ''), comment), updated_at = $3
		WHERE check_id = $4 AND equipment_id = $5 AND alarm_level = $6`,
		string(value), comment, time.Now().UTC(), checkID, equipmentID, int(level))
	if err != nil {
		return fmt.Errorf("results: update: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return common.NotFoundf("result for equipment %s level %d not found in check %s", equipmentID, level, checkID)
	}
	return nil
}

func (r *checkRepo) UpdateOutcome(ctx context.Context, checkID uuid.UUID, o entity.CheckOutcome) error {
	now := time.Now().UTC()
	var al1, al2 any
	if o.AL1Triggered != nil {
		al1 = *o.AL1Triggered
	}
	if o.AL2Triggered != nil {
		al2 = *o.AL2Triggered
	}
	res, err := r.db.ExecContext(ctx, `
		UPDATE zone_checks SET al1_triggered = COALESCE($1, al1_triggered), al2_triggered = COALESCE($2, al2_triggered),
			detector_used = COALESCE(NULLIF($3, ''), detector_used), notes = COALESCE(NULLIF($4, ''), notes),
			checked_at = $5, updated_at = $5
		WHERE id = $6`,
		al1, al2, o.DetectorUsed, o.Notes, now, checkID)
	if err != nil {
		return fmt.Errorf("checks: update outcome: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return common.NotFoundf("zone check %s not found", checkID)
	}
	return nil
}

func (r *checkRepo) SetStatus(ctx context.Context, checkID uuid.UUID, status constants.CheckStatus) error {
	_, err := r.db.ExecContext(ctx, `UPDATE zone_checks SET status = $1, updated_at = $2 WHERE id = $3`,
		string(status), time.Now().UTC(), checkID)
	if err != nil {
		return fmt.Errorf("checks: set status: %w", err)
	}
	return nil
}
