package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/interlock-tracker/internal/common"
)

func TestHealthCheck_PingFailureIsDatabaseError(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectPing().WillReturnError(errors.New("connection refused"))

	err = HealthCheck(context.Background(), db, time.Second)
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrDatabase)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestZoneGet_QueryErrorIsWrapped(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	id := uuid.New()
	mock.ExpectQuery(`SELECT .* FROM zones WHERE id = \$1 AND company_id = \$2 AND site_id = \$3`).
		WithArgs(id, "acme", "north").
		WillReturnError(errors.New("boom"))

	_, err = NewZoneRepository(db, nil).Get(context.Background(), siteA, id)
	require.Error(t, err)
	assert.False(t, common.IsNotFound(err))
	assert.Contains(t, err.Error(), "zones: get")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCampaignUpdateStatus_MissingRowIsNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(`UPDATE campaigns SET status`).WillReturnResult(sqlmock.NewResult(0, 0))

	err = NewCampaignRepository(db, nil).UpdateStatus(context.Background(), siteA, uuid.New(), "active")
	assert.True(t, common.IsNotFound(err))
	require.NoError(t, mock.ExpectationsWereMet())
}
