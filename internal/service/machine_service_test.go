package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"netclub/internal/apperr"
	"netclub/internal/models"
)

func newMachineService(db *fakeDB) *MachineService {
	return NewMachineService(&fakeMachineStore{db}, db, zap.NewNop())
}

func TestMachineCreateRejectsDuplicateNumber(t *testing.T) {
	db := newFakeDB()
	svc := newMachineService(db)

	machine, err := svc.Create(context.Background(), CreateMachineInput{MachineNumber: "A-01", HourlyRate: 10})
	require.NoError(t, err)
	assert.Equal(t, models.MachineStatusFree, machine.Status)

	_, err = svc.Create(context.Background(), CreateMachineInput{MachineNumber: "A-01", HourlyRate: 12})
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperr.Conflict(apperr.CodeMachineNumberTaken, "")))

	_, err = svc.Create(context.Background(), CreateMachineInput{MachineNumber: "", HourlyRate: 10})
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	_, err = svc.Create(context.Background(), CreateMachineInput{MachineNumber: "A-02", HourlyRate: -1})
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestMachineDeleteRefusedWhileBusy(t *testing.T) {
	db := newFakeDB()
	db.addMember(1, 100)
	db.addMachine(2, 10)

	sessions := newSessionService(db)
	_, err := sessions.Start(context.Background(), StartSessionInput{MemberID: 1, MachineID: 2})
	require.NoError(t, err)

	svc := newMachineService(db)
	err = svc.Delete(context.Background(), 2)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperr.Conflict(apperr.CodeSessionMustEnd, "")))
	assert.Contains(t, db.machines, int64(2))
}

func TestMachineUpdateRateAllowedMidSession(t *testing.T) {
	db := newFakeDB()
	db.addMember(1, 100)
	db.addMachine(2, 10)

	sessions := newSessionService(db)
	_, err := sessions.Start(context.Background(), StartSessionInput{MemberID: 1, MachineID: 2})
	require.NoError(t, err)

	svc := newMachineService(db)
	rate := 25.0
	updated, err := svc.Update(context.Background(), 2, UpdateMachineInput{HourlyRate: &rate})
	require.NoError(t, err)
	assert.Equal(t, 25.0, updated.HourlyRate)
	assert.Equal(t, 25.0, db.machines[2].HourlyRate)
	// The open session is untouched.
	assert.Equal(t, models.MachineStatusInUse, db.machines[2].Status)
}

func TestMachineUpdateStateRefusedMidSession(t *testing.T) {
	db := newFakeDB()
	db.addMember(1, 100)
	db.addMachine(2, 10)

	sessions := newSessionService(db)
	_, err := sessions.Start(context.Background(), StartSessionInput{MemberID: 1, MachineID: 2})
	require.NoError(t, err)

	svc := newMachineService(db)
	free := models.MachineStatusFree
	_, err = svc.Update(context.Background(), 2, UpdateMachineInput{Status: &free})
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperr.Conflict(apperr.CodeSessionMustEnd, "")))
	assert.Equal(t, models.MachineStatusInUse, db.machines[2].Status)
}

func TestMachineSetRateBatch(t *testing.T) {
	db := newFakeDB()
	db.addMachine(1, 10)
	db.addMachine(2, 12)
	db.addMachine(3, 14)
	svc := newMachineService(db)

	// Machine 9 does not exist; missing ids are skipped, not an error.
	updated, err := svc.SetRateBatch(context.Background(), []int64{1, 3, 9}, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(2), updated)
	assert.Equal(t, 20.0, db.machines[1].HourlyRate)
	assert.Equal(t, 12.0, db.machines[2].HourlyRate)
	assert.Equal(t, 20.0, db.machines[3].HourlyRate)

	_, err = svc.SetRateBatch(context.Background(), nil, 20)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	_, err = svc.SetRateBatch(context.Background(), []int64{1}, -1)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestMachineSetRateByType(t *testing.T) {
	db := newFakeDB()
	db.addMachine(1, 10).MachineNumber = "A01"
	db.addMachine(2, 12).MachineNumber = "A02"
	db.addMachine(3, 14).MachineNumber = "B01"
	svc := newMachineService(db)

	updated, err := svc.SetRateByType(context.Background(), "A", 25)
	require.NoError(t, err)
	assert.Equal(t, int64(2), updated)
	assert.Equal(t, 25.0, db.machines[1].HourlyRate)
	assert.Equal(t, 25.0, db.machines[2].HourlyRate)
	assert.Equal(t, 14.0, db.machines[3].HourlyRate)

	_, err = svc.SetRateByType(context.Background(), "  ", 25)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	_, err = svc.SetRateByType(context.Background(), "A", -5)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestMachineUpdateStateOverride(t *testing.T) {
	db := newFakeDB()
	db.addMember(1, 100)
	db.addMachine(2, 10)
	svc := newMachineService(db)

	inUse := models.MachineStatusInUse
	occupant := int64(1)
	updated, err := svc.Update(context.Background(), 2, UpdateMachineInput{Status: &inUse, OccupantID: &occupant})
	require.NoError(t, err)
	assert.Equal(t, models.MachineStatusInUse, updated.Status)
	require.NotNil(t, updated.OccupantID)
	assert.Equal(t, int64(1), *updated.OccupantID)
	assert.NotNil(t, updated.SessionStart)

	free := models.MachineStatusFree
	updated, err = svc.Update(context.Background(), 2, UpdateMachineInput{Status: &free})
	require.NoError(t, err)
	assert.Equal(t, models.MachineStatusFree, updated.Status)
	assert.Nil(t, updated.OccupantID)
	assert.Nil(t, updated.SessionStart)
}
