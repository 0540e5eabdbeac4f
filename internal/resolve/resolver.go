package resolve

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/interlock-tracker/constants"
	"github.com/joseph-ayodele/interlock-tracker/internal/common"
	"github.com/joseph-ayodele/interlock-tracker/internal/entity"
	"github.com/joseph-ayodele/interlock-tracker/internal/matrix"
	"github.com/joseph-ayodele/interlock-tracker/internal/repository"
)

// Result counts what one Persist call wrote.
type Result struct {
	ZonesCreated     int
	ZonesUpdated     int
	EquipmentCreated int
	EquipmentUpdated int
	LinksCreated     int
	LinksSkipped     int
	Failed           int
}

// ProgressFunc receives the number of persisted items out of total.
type ProgressFunc func(done, total int)

// Pinger is satisfied by *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type Resolver struct {
	zones     repository.ZoneRepository
	equipment repository.EquipmentRepository
	links     repository.LinkRepository
	db        Pinger
	log       *slog.Logger
}

func NewResolver(db Pinger, zones repository.ZoneRepository, equipment repository.EquipmentRepository, links repository.LinkRepository, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{zones: zones, equipment: equipment, links: links, db: db, log: logger}
}

// Persist upserts zones and equipment by code, then links whose endpoints both
// belong to this batch.
func (r *Resolver) Persist(ctx context.Context, scope entity.Scope, documentID uuid.UUID, c matrix.Candidates) (Result, error) {
	return r.PersistWithProgress(ctx, scope, documentID, c, nil)
}

func (r *Resolver) PersistWithProgress(ctx context.Context, scope entity.Scope, documentID uuid.UUID, c matrix.Candidates, progress ProgressFunc) (Result, error) {
	var res Result
	log := common.JobLogger(ctx, r.log)
	if r.db != nil {
		if err := r.db.PingContext(ctx); err != nil {
			log.Error("resolve.ping.failed", "error", err)
			return res, common.NewAppError("DB_UNAVAILABLE", "datastore unreachable", fmt.Errorf("%w: %v", common.ErrDatabase, err))
		}
	}

	var docRef *uuid.UUID
	if documentID != uuid.Nil {
		docRef = &documentID
	}
	total := len(c.Zones) + len(c.Equipment) + len(c.Links)
	done := 0
	step := func() {
		done++
		if progress != nil {
			progress(done, total)
		}
	}

	zoneIDs := make(map[string]uuid.UUID, len(c.Zones))
	for _, z := range c.Zones {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		id, created, err := r.zones.Upsert(ctx, entity.Zone{
			Scope:         scope,
			Code:          z.Code,
			Name:          z.Name,
			Building:      z.Building,
			Floor:         z.Floor,
			AccessPoint:   z.AccessPoint,
			DetectorRange: z.DetectorRange,
			DetectorKind:  z.Kind,
			DocumentID:    docRef,
		})
		step()
		if err != nil {
			res.Failed++
			log.Warn("resolve.zone.failed", "code", z.Code, "error", err)
			continue
		}
		zoneIDs[matrix.CanonicalCode(z.Code)] = id
		if created {
			res.ZonesCreated++
		} else {
			res.ZonesUpdated++
		}
	}

	equipmentIDs := make(map[string]uuid.UUID, len(c.Equipment))
	for _, e := range c.Equipment {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		typ := e.Type
		if typ == "" {
			typ = constants.EquipmentOther
		}
		id, created, err := r.equipment.Upsert(ctx, entity.Equipment{
			Scope:      scope,
			Code:       e.Code,
			Name:       e.Name,
			Type:       typ,
			Location:   e.Location,
			DocumentID: docRef,
		})
		step()
		if err != nil {
			res.Failed++
			log.Warn("resolve.equipment.failed", "code", e.Code, "error", err)
			continue
		}
		equipmentIDs[matrix.CanonicalCode(e.Code)] = id
		if created {
			res.EquipmentCreated++
		} else {
			res.EquipmentUpdated++
		}
	}

	for _, l := range c.Links {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		zoneID, zok := zoneIDs[matrix.CanonicalCode(l.ZoneCode)]
		eqID, eok := equipmentIDs[matrix.CanonicalCode(l.EquipmentCode)]
		if !zok || !eok {
			step()
			res.LinksSkipped++
			log.Info("resolve.link.dropped",
				"zone_code", l.ZoneCode, "equipment_code", l.EquipmentCode,
				"alarm_level", int(l.AlarmLevel), "error", common.ErrUnresolvableLink)
			continue
		}
		created, err := r.links.Upsert(ctx, entity.Link{
			ZoneID:      zoneID,
			EquipmentID: eqID,
			AlarmLevel:  l.AlarmLevel,
			Action:      l.Action,
		})
		step()
		switch {
		case errors.Is(err, common.ErrValidation):
			res.LinksSkipped++
			log.Info("resolve.link.invalid", "zone_code", l.ZoneCode, "equipment_code", l.EquipmentCode, "error", err)
		case err != nil:
			res.Failed++
			log.Warn("resolve.link.failed", "zone_code", l.ZoneCode, "equipment_code", l.EquipmentCode, "error", err)
		case created:
			res.LinksCreated++
		}
	}

	log.Info("resolve.persist.ok",
		"zones_created", res.ZonesCreated, "zones_updated", res.ZonesUpdated,
		"equipment_created", res.EquipmentCreated, "equipment_updated", res.EquipmentUpdated,
		"links_created", res.LinksCreated, "links_skipped", res.LinksSkipped, "failed", res.Failed)
	return res, nil
}
