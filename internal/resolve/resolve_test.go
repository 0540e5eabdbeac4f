package resolve

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/interlock-tracker/constants"
	"github.com/joseph-ayodele/interlock-tracker/internal/common"
	"github.com/joseph-ayodele/interlock-tracker/internal/entity"
	"github.com/joseph-ayodele/interlock-tracker/internal/matrix"
	"github.com/joseph-ayodele/interlock-tracker/internal/repository"
)

var scope = entity.Scope{CompanyID: "acme", SiteID: "north"}

func newResolver(t *testing.T) (*Resolver, *sql.DB) {
	t.Helper()
	ctx := context.Background()
	db, err := repository.OpenSQLite(ctx, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, repository.Bootstrap(ctx, db, nil))
	return NewResolver(db,
		repository.NewZoneRepository(db, nil),
		repository.NewEquipmentRepository(db, nil),
		repository.NewLinkRepository(db, nil),
		nil), db
}

func sample() matrix.Candidates {
	return matrix.Candidates{
		Zones: []matrix.ZoneCandidate{
			{Code: "Z03", Name: "Rez de chaussée accès 3", DetectorRange: "24001-24005", Floor: "RDC", Kind: constants.DetectorSmoke},
		},
		Equipment: []matrix.EquipmentCandidate{
			{Code: "B24.006", Name: "PCF B24.006", Type: constants.EquipmentFireDoor, Location: "B24"},
		},
		Links: []matrix.LinkCandidate{
			{ZoneCode: "Z03", EquipmentCode: "B24.006", AlarmLevel: constants.AlarmLevel1, Action: constants.ActionActivate},
		},
	}
}

func TestPersist_RerunCreatesNothingNew(t *testing.T) {
	r, _ := newResolver(t)
	ctx := context.Background()

	first, err := r.Persist(ctx, scope, uuid.Nil, sample())
	require.NoError(t, err)
	assert.Equal(t, Result{ZonesCreated: 1, EquipmentCreated: 1, LinksCreated: 1}, first)

	second, err := r.Persist(ctx, scope, uuid.Nil, sample())
	require.NoError(t, err)
	assert.Equal(t, Result{ZonesUpdated: 1, EquipmentUpdated: 1}, second)
}

func TestPersist_DropsLinkWithUnknownEndpoint(t *testing.T) {
	r, db := newResolver(t)
	ctx := context.Background()

	c := sample()
	c.Links = append(c.Links,
		matrix.LinkCandidate{ZoneCode: "Z99", EquipmentCode: "B24.006", AlarmLevel: constants.AlarmLevel1},
		matrix.LinkCandidate{ZoneCode: "z03", EquipmentCode: "CTA-01", AlarmLevel: constants.AlarmLevel2},
	)
	res, err := r.Persist(ctx, scope, uuid.Nil, c)
	require.NoError(t, err)
	assert.Equal(t, 1, res.LinksCreated)
	assert.Equal(t, 2, res.LinksSkipped)

	links, err := repository.NewLinkRepository(db, nil).List(ctx, scope, entity.LinkFilter{})
	require.NoError(t, err)
	assert.Len(t, links, 1)
}

func TestPersist_ResolvesCodesCaseInsensitively(t *testing.T) {
	r, _ := newResolver(t)
	c := sample()
	c.Links[0].ZoneCode = " z03"
	c.Links[0].EquipmentCode = "b24.006"

	res, err := r.Persist(context.Background(), scope, uuid.Nil, c)
	require.NoError(t, err)
	assert.Equal(t, 1, res.LinksCreated)
}

func TestPersist_ReportsProgress(t *testing.T) {
	r, _ := newResolver(t)
	var last, calls int
	_, err := r.PersistWithProgress(context.Background(), scope, uuid.Nil, sample(), func(done, total int) {
		calls++
		assert.Equal(t, 3, total)
		assert.GreaterOrEqual(t, done, last)
		last = done
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, 3, last)
}

type downPinger struct{}

func (downPinger) PingContext(context.Context) error { return errors.New("connection refused") }

func TestPersist_LogsCarryJobID(t *testing.T) {
	_, db := newResolver(t)
	var buf bytes.Buffer
	r := NewResolver(db,
		repository.NewZoneRepository(db, nil),
		repository.NewEquipmentRepository(db, nil),
		repository.NewLinkRepository(db, nil),
		slog.New(slog.NewTextHandler(&buf, nil)))

	ctx := common.WithJobID(context.Background(), "job-7")
	_, err := r.Persist(ctx, scope, uuid.Nil, sample())
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "msg=resolve.persist.ok")
	assert.Contains(t, buf.String(), "job_id=job-7")
}

func TestPersist_FailedPingAborts(t *testing.T) {
	r := NewResolver(downPinger{}, nil, nil, nil, nil)
	_, err := r.Persist(context.Background(), scope, uuid.Nil, sample())
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrDatabase)
}

func TestReconcile(t *testing.T) {
	heuristic := matrix.Candidates{
		Zones: []matrix.ZoneCandidate{
			{Code: "Z01", Name: "Hall", Floor: "RDC", DetectorRange: "1-3", Kind: constants.DetectorManual},
			{Code: "Z02", Name: "Stock", Kind: constants.DetectorSmoke},
		},
		Equipment: []matrix.EquipmentCandidate{
			{Code: "PCF-001", Name: "PCF hall", Type: constants.EquipmentFireDoor},
			{Code: "EQ-001", Name: "Armoire", Type: constants.EquipmentOther},
		},
		Links: []matrix.LinkCandidate{{ZoneCode: "Z01", EquipmentCode: "PCF-001", AlarmLevel: 1}},
	}
	enriched := matrix.Candidates{
		Zones: []matrix.ZoneCandidate{
			{Code: "z01", Name: "Hall d'entrée", Kind: constants.DetectorSmoke},
			{Code: "Z05", Name: "Parking"},
		},
		Equipment: []matrix.EquipmentCandidate{
			{Code: "pcf-001", Type: constants.EquipmentOther, Location: "B24"},
			{Code: "EQ-001", Type: constants.EquipmentHVAC},
		},
		Links: []matrix.LinkCandidate{
			{ZoneCode: "z01", EquipmentCode: "pcf-001", AlarmLevel: 1},
			{ZoneCode: "Z05", EquipmentCode: "EQ-001", AlarmLevel: 2},
		},
	}

	got := Reconcile(heuristic, enriched)

	require.Len(t, got.Zones, 3)
	t.Run("enriched non-empty fields win", func(t *testing.T) {
		z := got.Zones[0]
		assert.Equal(t, "Z01", z.Code)
		assert.Equal(t, "Hall d'entrée", z.Name)
		assert.Equal(t, "RDC", z.Floor)
		assert.Equal(t, "1-3", z.DetectorRange)
		assert.Equal(t, constants.DetectorManual, z.Kind, "smoke is a fallback and never overrides")
	})
	t.Run("one-sided codes are kept", func(t *testing.T) {
		assert.Equal(t, "Z02", got.Zones[1].Code)
		assert.Equal(t, "Z05", got.Zones[2].Code)
	})
	t.Run("equipment type", func(t *testing.T) {
		require.Len(t, got.Equipment, 2)
		assert.Equal(t, constants.EquipmentFireDoor, got.Equipment[0].Type)
		assert.Equal(t, "B24", got.Equipment[0].Location)
		assert.Equal(t, "PCF hall", got.Equipment[0].Name)
		assert.Equal(t, constants.EquipmentHVAC, got.Equipment[1].Type)
	})
	t.Run("links are unioned without duplicates", func(t *testing.T) {
		assert.Len(t, got.Links, 2)
	})
}
