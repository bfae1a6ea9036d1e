package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"netclub/internal/apperr"
	"netclub/internal/models"
)

func machineRows(id int64, number string, rate float64) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{
		"id", "machine_number", "status", "member_id", "session_start",
		"hourly_rate", "created_at", "updated_at",
	}).AddRow(id, number, models.MachineStatusFree, nil, nil, rate, now, now)
}

func TestMachineGetForUpdateLocksRow(t *testing.T) {
	db, mock := newMock(t)
	repo := NewMachineRepository(db)

	mock.ExpectQuery("SELECT .* FROM machines WHERE id = .+ FOR UPDATE").
		WithArgs(int64(2)).
		WillReturnRows(machineRows(2, "A-01", 10))

	machine, err := repo.GetForUpdate(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, int64(2), machine.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMachineCreateLosesUniqueRace(t *testing.T) {
	db, mock := newMock(t)
	repo := NewMachineRepository(db)

	// Two concurrent creates can both pass the service pre-check; the
	// loser hits the unique constraint and must still see a conflict.
	mock.ExpectQuery("INSERT INTO machines").
		WithArgs("A-01", models.MachineStatusFree, 10.0).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "machines_machine_number_key"})

	machine := &models.Machine{MachineNumber: "A-01", Status: models.MachineStatusFree, HourlyRate: 10}
	err := repo.Create(context.Background(), machine)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperr.Conflict(apperr.CodeMachineNumberTaken, "")))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMachineSetRateBatch(t *testing.T) {
	db, mock := newMock(t)
	repo := NewMachineRepository(db)

	mock.ExpectExec("UPDATE machines SET hourly_rate = .+ WHERE id IN").
		WithArgs(15.0, int64(1), int64(2), int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 2))

	updated, err := repo.SetRateBatch(context.Background(), []int64{1, 2, 3}, 15)
	require.NoError(t, err)
	assert.Equal(t, int64(2), updated)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMachineSetRateBatchEmpty(t *testing.T) {
	db, _ := newMock(t)
	repo := NewMachineRepository(db)

	updated, err := repo.SetRateBatch(context.Background(), nil, 15)
	require.NoError(t, err)
	assert.Zero(t, updated)
}

func TestMachineSetRateByType(t *testing.T) {
	db, mock := newMock(t)
	repo := NewMachineRepository(db)

	mock.ExpectExec("UPDATE machines SET hourly_rate = .+ WHERE machine_number LIKE").
		WithArgs("A", 20.0).
		WillReturnResult(sqlmock.NewResult(0, 4))

	updated, err := repo.SetRateByType(context.Background(), "A", 20)
	require.NoError(t, err)
	assert.Equal(t, int64(4), updated)
	require.NoError(t, mock.ExpectationsWereMet())
}
