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

type CampaignRepository interface {
	Create(ctx context.Context, c entity.Campaign) (entity.Campaign, error)
	Get(ctx context.Context, scope entity.Scope, id uuid.UUID) (entity.Campaign, error)
	List(ctx context.Context, scope entity.Scope, year int) ([]entity.Campaign, error)
	UpdateStatus(ctx context.Context, scope entity.Scope, id uuid.UUID, status constants.CampaignStatus) error
}

type campaignRepo struct {
	db  *sql.DB
	log *slog.Logger
}

func NewCampaignRepository(db *sql.DB, log *slog.Logger) CampaignRepository {
	if log == nil {
		log = slog.Default()
	}
	return &campaignRepo{db: db, log: log}
}

const campaignColumns = `id, company_id, site_id, name, year, starts_on, ends_on, status, created_at, updated_at`

func scanCampaign(s rowScanner) (entity.Campaign, error) {
	var (
		c            entity.Campaign
		starts, ends sql.NullTime
		status       string
	)
	err := s.Scan(&c.ID, &c.CompanyID, &c.SiteID, &c.Name, &c.Year, &starts, &ends, &status, &c.CreatedAt, &c.UpdatedAt)
	if starts.Valid {
		c.StartsOn = &starts.Time
	}
	if ends.Valid {
		c.EndsOn = &ends.Time
	}
	c.Status = constants.CampaignStatus(status)
	return c, err
}

func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC()
}

func (r *campaignRepo) Create(ctx context.Context, c entity.Campaign) (entity.Campaign, error) {
	now := time.Now().UTC()
	c.ID = uuid.New()
	c.CreatedAt, c.UpdatedAt = now, now
	if c.Status == "" {
		c.Status = constants.CampaignPlanned
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO campaigns (`+campaignColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		c.ID, c.CompanyID, c.SiteID, c.Name, c.Year, nullableTime(c.StartsOn), nullableTime(c.EndsOn),
		string(c.Status), c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		r.log.Error("campaign.create.failed", "error", err)
		return entity.Campaign{}, fmt.Errorf("campaigns: create: %w", err)
	}
	r.log.Info("campaign.created", "campaign_id", c.ID, "name", c.Name, "year", c.Year)
	return c, nil
}

func (r *campaignRepo) Get(ctx context.Context, scope entity.Scope, id uuid.UUID) (entity.Campaign, error) {
	p := (&predicates{}).eq("id", id).scope("", scope)
	c, err := scanCampaign(r.db.QueryRowContext(ctx, `SELECT `+campaignColumns+` FROM campaigns`+p.where(), p.args...))
	if isNoRows(err) {
		return entity.Campaign{}, common.NotFoundf("campaign %s not found", id)
	}
	if err != nil {
		return entity.Campaign{}, fmt.Errorf("campaigns: get: %w", err)
	}
	return c, nil
}

func (r *campaignRepo) List(ctx context.Context, scope entity.Scope, year int) ([]entity.Campaign, error) {
	p := (&predicates{}).scope("", scope)
	if year > 0 {
		p.eq("year", year)
	}
	rows, err := r.db.QueryContext(ctx, `SELECT `+campaignColumns+` FROM campaigns`+p.where()+` ORDER BY year DESC, name`, p.args...)
	if err != nil {
		return nil, fmt.Errorf("campaigns: list: %w", err)
	}
	defer rows.Close()

	out := make([]entity.Campaign, 0)
	for rows.Next() {
		c, err := scanCampaign(rows)
		if err != nil {
			return nil, fmt.Errorf("campaigns: scan: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *campaignRepo) UpdateStatus(ctx context.Context, scope entity.Scope, id uuid.UUID, status constants.CampaignStatus) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE campaigns SET status = $1, updated_at = $2
		WHERE id = $3 AND company_id = $4 AND site_id = $5`,
		string(status), time.Now().UTC(), id, scope.CompanyID, scope.SiteID)
	if err != nil {
		return fmt.Errorf("campaigns: update status: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return common.NotFoundf("campaign %s not found", id)
	}
	return nil
}
