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

func newMemberService(db *fakeDB) *MemberService {
	return NewMemberService(&fakeMemberStore{db}, db, zap.NewNop())
}

func TestMemberCreateValidation(t *testing.T) {
	svc := newMemberService(newFakeDB())

	_, err := svc.Create(context.Background(), CreateMemberInput{Name: "  "})
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	_, err = svc.Create(context.Background(), CreateMemberInput{Name: "alice", Balance: -1})
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	member, err := svc.Create(context.Background(), CreateMemberInput{Name: " alice ", Phone: "123", Balance: 20})
	require.NoError(t, err)
	assert.Equal(t, "alice", member.Name)
	assert.Equal(t, 20.0, member.Balance)
	assert.NotZero(t, member.ID)
}

func TestMemberUpdateMergesFields(t *testing.T) {
	db := newFakeDB()
	db.addMember(1, 10)
	svc := newMemberService(db)

	_, err := svc.Update(context.Background(), 1, UpdateMemberInput{})
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	phone := "555"
	updated, err := svc.Update(context.Background(), 1, UpdateMemberInput{Phone: &phone})
	require.NoError(t, err)
	assert.Equal(t, "555", updated.Phone)
	assert.Equal(t, 10.0, updated.Balance)
	assert.Equal(t, "555", db.members[1].Phone)
}

func TestMemberDeleteRefusedWhileInSession(t *testing.T) {
	db := newFakeDB()
	db.addMember(1, 100)
	db.addMachine(2, 10)

	sessions := newSessionService(db)
	_, err := sessions.Start(context.Background(), StartSessionInput{MemberID: 1, MachineID: 2})
	require.NoError(t, err)

	svc := newMemberService(db)
	err = svc.Delete(context.Background(), 1)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperr.Conflict(apperr.CodeMemberInSession, "")))
	assert.Contains(t, db.members, int64(1))
}

func TestMemberDeleteRemovesRecords(t *testing.T) {
	db := newFakeDB()
	db.addMember(1, 100)
	db.addMachine(2, 10)

	sessions := newSessionService(db)
	start := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	sessions.now = func() time.Time { return start }
	_, err := sessions.Start(context.Background(), StartSessionInput{MemberID: 1, MachineID: 2})
	require.NoError(t, err)
	sessions.now = func() time.Time { return start.Add(time.Hour) }
	_, err = sessions.End(context.Background(), EndSessionInput{MachineID: 2})
	require.NoError(t, err)

	svc := newMemberService(db)
	require.NoError(t, svc.Delete(context.Background(), 1))
	assert.NotContains(t, db.members, int64(1))
	assert.Empty(t, db.records)
}

func TestMemberRecharge(t *testing.T) {
	db := newFakeDB()
	db.addMember(1, 5)
	svc := newMemberService(db)

	_, err := svc.Recharge(context.Background(), 1, 0)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	_, err = svc.Recharge(context.Background(), 1, -10)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	result, err := svc.Recharge(context.Background(), 1, 45)
	require.NoError(t, err)
	assert.Equal(t, 5.0, result.PreviousBalance)
	assert.Equal(t, 45.0, result.Amount)
	assert.InDelta(t, 50.0, result.Member.Balance, 1e-9)
	assert.InDelta(t, 50.0, db.members[1].Balance, 1e-9)

	_, err = svc.Recharge(context.Background(), 99, 10)
	assert.True(t, errors.Is(err, apperr.NotFound(apperr.CodeMemberNotFound, "")))
}
