package verification

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/joseph-ayodele/interlock-tracker/constants"
	"github.com/joseph-ayodele/interlock-tracker/internal/common"
	"github.com/joseph-ayodele/interlock-tracker/internal/entity"
	"github.com/joseph-ayodele/interlock-tracker/internal/repository"
)

// Service runs verification campaigns over the persisted zone/equipment graph.
type Service struct {
	campaigns repository.CampaignRepository
	checks    repository.CheckRepository
	zones     repository.ZoneRepository
	links     repository.LinkRepository
	updates   *prometheus.CounterVec
	logger    *slog.Logger
}

// NewService wires the repositories. reg may be nil.
func NewService(campaigns repository.CampaignRepository, checks repository.CheckRepository, zones repository.ZoneRepository, links repository.LinkRepository, reg prometheus.Registerer, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	updates := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "interlock",
		Name:      "verification_results_total",
		Help:      "Equipment result updates by recorded value.",
	}, []string{"result"})
	if reg != nil {
		reg.MustRegister(updates)
	}
	return &Service{campaigns: campaigns, checks: checks, zones: zones, links: links, updates: updates, logger: logger}
}

// CreateCampaignRequest represents campaign creation parameters.
type CreateCampaignRequest struct {
	Name     string     `json:"name"`
	Year     int        `json:"year"`
	StartsOn *time.Time `json:"starts_on,omitempty"`
	EndsOn   *time.Time `json:"ends_on,omitempty"`
}

func (s *Service) CreateCampaign(ctx context.Context, scope entity.Scope, req CreateCampaignRequest) (entity.Campaign, error) {
	v := common.NewValidator()
	v.Field("name", req.Name, common.Required, common.MaxLength(200))
	if req.Year < 2000 || req.Year > 2100 {
		v.Field("year", req.Year, func(field string, value interface{}) *common.ValidationError {
			return &common.ValidationError{Field: field, Value: value, Message: "must be between 2000 and 2100"}
		})
	}
	if req.StartsOn != nil && req.EndsOn != nil && req.EndsOn.Before(*req.StartsOn) {
		v.Field("ends_on", *req.EndsOn, func(field string, value interface{}) *common.ValidationError {
			return &common.ValidationError{Field: field, Value: value, Message: "must not be before starts_on"}
		})
	}
	if err := v.Err(); err != nil {
		return entity.Campaign{}, err
	}
	return s.campaigns.Create(ctx, entity.Campaign{
		Scope:    scope,
		Name:     strings.TrimSpace(req.Name),
		Year:     req.Year,
		StartsOn: req.StartsOn,
		EndsOn:   req.EndsOn,
		Status:   constants.CampaignPlanned,
	})
}

func (s *Service) GetCampaign(ctx context.Context, scope entity.Scope, id uuid.UUID) (entity.Campaign, error) {
	return s.campaigns.Get(ctx, scope, id)
}

// ListCampaigns lists a scope's campaigns; year 0 lists all years.
func (s *Service) ListCampaigns(ctx context.Context, scope entity.Scope, year int) ([]entity.Campaign, error) {
	return s.campaigns.List(ctx, scope, year)
}

// UpdateCampaignStatus moves a campaign along planned -> active -> closed.
func (s *Service) UpdateCampaignStatus(ctx context.Context, scope entity.Scope, id uuid.UUID, status string) (entity.Campaign, error) {
	to, ok := constants.ParseCampaignStatus(status)
	if !ok {
		return entity.Campaign{}, common.Validationf("unknown campaign status %q", status)
	}
	c, err := s.campaigns.Get(ctx, scope, id)
	if err != nil {
		return entity.Campaign{}, err
	}
	if !c.Status.CanTransition(to) {
		return entity.Campaign{}, common.Validationf("campaign cannot go from %s to %s", c.Status, to)
	}
	if err := s.campaigns.UpdateStatus(ctx, scope, id, to); err != nil {
		return entity.Campaign{}, err
	}
	s.logger.Info("campaign.status", "campaign_id", id, "from", c.Status, "to", to)
	return s.campaigns.Get(ctx, scope, id)
}

// GenerateResult is the outcome of GenerateChecks.
type GenerateResult struct {
	CreatedCount int `json:"created_count"`
	TotalZones   int `json:"total_zones"`
}

// GenerateChecks creates a check for every zone of scope (optionally one
// building) that the campaign lacks, and one pending result per linked
// (equipment, alarm level). Running it again only fills what is missing.
func (s *Service) GenerateChecks(ctx context.Context, campaignID uuid.UUID, scope entity.Scope, building string) (GenerateResult, error) {
	var out GenerateResult
	c, err := s.campaigns.Get(ctx, scope, campaignID)
	if err != nil {
		return out, err
	}
	if c.Status == constants.CampaignClosed {
		return out, common.Validationf("campaign %s is closed", campaignID)
	}

	zones, err := s.zones.List(ctx, scope, repository.ZoneFilter{Building: building})
	if err != nil {
		return out, err
	}
	links, err := s.links.List(ctx, scope, entity.LinkFilter{})
	if err != nil {
		return out, err
	}
	byZone := make(map[uuid.UUID][]entity.Link, len(zones))
	for _, l := range links {
		byZone[l.ZoneID] = append(byZone[l.ZoneID], l)
	}

	out.TotalZones = len(zones)
	for _, z := range zones {
		checkID, created, err := s.checks.EnsureCheck(ctx, campaignID, z.ID)
		if err != nil {
			return out, err
		}
		if created {
			out.CreatedCount++
		}
		seeded := 0
		for _, l := range byZone[z.ID] {
			ok, err := s.checks.EnsureResult(ctx, checkID, l.EquipmentID, l.AlarmLevel)
			if err != nil {
				return out, err
			}
			if ok {
				seeded++
			}
		}
		if created || seeded > 0 {
			if _, err := s.recompute(ctx, checkID); err != nil {
				return out, err
			}
		}
	}
	s.logger.Info("campaign.checks.generated",
		"campaign_id", campaignID, "building", building,
		"created", out.CreatedCount, "total_zones", out.TotalZones)
	return out, nil
}

// ListChecks returns a campaign's checks with per-level result counts.
func (s *Service) ListChecks(ctx context.Context, scope entity.Scope, campaignID uuid.UUID, f entity.CheckFilter) ([]entity.ZoneCheck, error) {
	if _, err := s.campaigns.Get(ctx, scope, campaignID); err != nil {
		return nil, err
	}
	checks, err := s.checks.List(ctx, scope, campaignID, f)
	if err != nil {
		return nil, err
	}
	counts, err := s.checks.Counts(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	for i := range checks {
		if lc, ok := counts[checks[i].ID]; ok {
			checks[i].Counts = lc
		} else {
			checks[i].Counts = entity.LevelCounts{}
		}
	}
	return checks, nil
}

// GetCheck returns one check with its results and counts.
func (s *Service) GetCheck(ctx context.Context, scope entity.Scope, id uuid.UUID) (entity.ZoneCheck, error) {
	c, err := s.checks.Get(ctx, scope, id)
	if err != nil {
		return entity.ZoneCheck{}, err
	}
	results, err := s.checks.Results(ctx, id)
	if err != nil {
		return entity.ZoneCheck{}, err
	}
	c.Results = results
	c.Counts = countByLevel(results)
	return c, nil
}

// ResultUpdate sets one equipment result of a check.
type ResultUpdate struct {
	EquipmentID uuid.UUID `json:"equipment_id"`
	AlarmLevel  int       `json:"alarm_level"`
	Result      string    `json:"result"`
	Comment     string    `json:"comment,omitempty"`
}

func (u ResultUpdate) validate() (constants.AlarmLevel, constants.ResultValue, error) {
	v := common.NewValidator()
	v.Field("equipment_id", u.EquipmentID, common.Required)
	v.Field("result", u.Result, common.Required, common.OneOf("pending", "ok", "nok", "na"))
	v.Field("comment", u.Comment, common.MaxLength(2000))
	level := constants.AlarmLevel(u.AlarmLevel)
	if !level.Valid() {
		v.Field("alarm_level", u.AlarmLevel, func(field string, value interface{}) *common.ValidationError {
			return &common.ValidationError{Field: field, Value: value, Message: "must be 1 or 2"}
		})
	}
	if err := v.Err(); err != nil {
		return 0, "", err
	}
	value, _ := constants.ParseResultValue(u.Result)
	return level, value, nil
}

// UpdateResult records one result and returns the check with its new status.
func (s *Service) UpdateResult(ctx context.Context, scope entity.Scope, checkID uuid.UUID, u ResultUpdate) (entity.ZoneCheck, error) {
	if _, err := s.checks.Get(ctx, scope, checkID); err != nil {
		return entity.ZoneCheck{}, err
	}
	if err := s.apply(ctx, checkID, u); err != nil {
		return entity.ZoneCheck{}, err
	}
	if _, err := s.recompute(ctx, checkID); err != nil {
		return entity.ZoneCheck{}, err
	}
	return s.GetCheck(ctx, scope, checkID)
}

func (s *Service) apply(ctx context.Context, checkID uuid.UUID, u ResultUpdate) error {
	level, value, err := u.validate()
	if err != nil {
		return err
	}
	if err := s.checks.UpdateResult(ctx, checkID, u.EquipmentID, level, value, u.Comment); err != nil {
		return err
	}
	s.updates.WithLabelValues(string(value)).Inc()
	return nil
}

// BatchUpdate carries field observations for one check.
type BatchUpdate struct {
	Outcome *entity.CheckOutcome `json:"outcome,omitempty"`
	Results []ResultUpdate       `json:"results"`
}

// BatchSummary counts applied and rejected result updates.
type BatchSummary struct {
	Succeeded int      `json:"succeeded"`
	Failed    int      `json:"failed"`
	Errors    []string `json:"errors,omitempty"`
}

// BatchUpdate applies every result it can, then recomputes the status once.
// A bad item is reported in the summary and never rejects the batch.
func (s *Service) BatchUpdate(ctx context.Context, scope entity.Scope, checkID uuid.UUID, b BatchUpdate) (entity.ZoneCheck, BatchSummary, error) {
	var sum BatchSummary
	if _, err := s.checks.Get(ctx, scope, checkID); err != nil {
		return entity.ZoneCheck{}, sum, err
	}
	if b.Outcome != nil {
		if err := s.checks.UpdateOutcome(ctx, checkID, *b.Outcome); err != nil {
			return entity.ZoneCheck{}, sum, err
		}
	}
	for i, u := range b.Results {
		if err := s.apply(ctx, checkID, u); err != nil {
			sum.Failed++
			sum.Errors = append(sum.Errors, fmt.Sprintf("results[%d]: %v", i, err))
			s.logger.Warn("check.result.rejected", "check_id", checkID, "index", i, "error", err)
			continue
		}
		sum.Succeeded++
	}
	status, err := s.recompute(ctx, checkID)
	if err != nil {
		return entity.ZoneCheck{}, sum, err
	}
	s.logger.Info("check.batch.ok", "check_id", checkID, "succeeded", sum.Succeeded, "failed", sum.Failed, "status", status)
	c, err := s.GetCheck(ctx, scope, checkID)
	return c, sum, err
}

// recompute is the only writer of a check's status.
func (s *Service) recompute(ctx context.Context, checkID uuid.UUID) (constants.CheckStatus, error) {
	results, err := s.checks.Results(ctx, checkID)
	if err != nil {
		return "", err
	}
	status := StatusOf(results)
	if err := s.checks.SetStatus(ctx, checkID, status); err != nil {
		return "", err
	}
	return status, nil
}
