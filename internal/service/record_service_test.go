package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"netclub/internal/apperr"
)

func newRecordService(db *fakeDB) *RecordService {
	return NewRecordService(&fakeRecordStore{db}, db, zap.NewNop())
}

func TestRecordBatchDeleteRefusesActive(t *testing.T) {
	db := newFakeDB()
	db.addMember(1, 100)
	db.addMember(2, 100)
	db.addMachine(3, 10)
	db.addMachine(4, 10)

	sessions := newSessionService(db)
	start := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	sessions.now = func() time.Time { return start }

	// One finalized record, one still open.
	closed, err := sessions.Start(context.Background(), StartSessionInput{MemberID: 1, MachineID: 3})
	require.NoError(t, err)
	sessions.now = func() time.Time { return start.Add(time.Hour) }
	_, err = sessions.End(context.Background(), EndSessionInput{MachineID: 3})
	require.NoError(t, err)

	open, err := sessions.Start(context.Background(), StartSessionInput{MemberID: 2, MachineID: 4})
	require.NoError(t, err)

	svc := newRecordService(db)

	_, err = svc.BatchDelete(context.Background(), nil)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	// Any open record in the batch refuses the whole batch.
	_, err = svc.BatchDelete(context.Background(), []int64{closed.ID, open.ID})
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperr.Conflict(apperr.CodeRecordActive, "")))
	assert.Len(t, db.records, 2)

	deleted, err := svc.BatchDelete(context.Background(), []int64{closed.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)
	assert.Len(t, db.records, 1)
}

func TestRecordListFilters(t *testing.T) {
	db := newFakeDB()
	db.addMember(1, 100)
	db.addMember(2, 100)
	db.addMachine(3, 10)
	db.addMachine(4, 10)

	sessions := newSessionService(db)
	start := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	sessions.now = func() time.Time { return start }

	_, err := sessions.Start(context.Background(), StartSessionInput{MemberID: 1, MachineID: 3})
	require.NoError(t, err)
	sessions.now = func() time.Time { return start.Add(time.Hour) }
	_, err = sessions.End(context.Background(), EndSessionInput{MachineID: 3})
	require.NoError(t, err)
	_, err = sessions.Start(context.Background(), StartSessionInput{MemberID: 2, MachineID: 4})
	require.NoError(t, err)

	svc := newRecordService(db)

	all, err := svc.List(context.Background(), RecordFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	active, err := svc.List(context.Background(), RecordFilter{Status: "active"})
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, int64(2), active[0].MemberID)

	completed, err := svc.List(context.Background(), RecordFilter{Status: "completed"})
	require.NoError(t, err)
	require.Len(t, completed, 1)
	assert.Equal(t, int64(1), completed[0].MemberID)

	byMember, err := svc.ListByMember(context.Background(), 1)
	require.NoError(t, err)
	assert.Len(t, byMember, 1)
}
