package service

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"netclub/internal/apperr"
	"netclub/internal/models"
)

// fakeDB is an in-memory backing store for service tests. Its WithinTx
// mirrors the real transaction manager: calls serialize, and every
// mutation made by a failed closure is rolled back.
type fakeDB struct {
	mu       sync.Mutex
	members  map[int64]*models.Member
	machines map[int64]*models.Machine
	records  map[int64]*models.UsageRecord
	nextID   int64
}

func newFakeDB() *fakeDB {
	return &fakeDB{
		members:  map[int64]*models.Member{},
		machines: map[int64]*models.Machine{},
		records:  map[int64]*models.UsageRecord{},
		nextID:   1,
	}
}

func (db *fakeDB) addMember(id int64, balance float64) *models.Member {
	m := &models.Member{ID: id, Name: "member", Balance: balance}
	db.members[id] = m
	return m
}

func (db *fakeDB) addMachine(id int64, rate float64) *models.Machine {
	m := &models.Machine{ID: id, MachineNumber: "M", Status: models.MachineStatusFree, HourlyRate: rate}
	db.machines[id] = m
	return m
}

type fakeSnapshot struct {
	members  map[int64]*models.Member
	machines map[int64]*models.Machine
	records  map[int64]*models.UsageRecord
	nextID   int64
}

func (db *fakeDB) snapshot() fakeSnapshot {
	snap := fakeSnapshot{
		members:  map[int64]*models.Member{},
		machines: map[int64]*models.Machine{},
		records:  map[int64]*models.UsageRecord{},
		nextID:   db.nextID,
	}
	for id, m := range db.members {
		c := *m
		snap.members[id] = &c
	}
	for id, m := range db.machines {
		c := *m
		snap.machines[id] = &c
	}
	for id, r := range db.records {
		c := *r
		snap.records[id] = &c
	}
	return snap
}

func (db *fakeDB) restore(snap fakeSnapshot) {
	db.members = snap.members
	db.machines = snap.machines
	db.records = snap.records
	db.nextID = snap.nextID
}

func (db *fakeDB) stores() Stores {
	return Stores{
		Members:  &fakeMemberStore{db},
		Machines: &fakeMachineStore{db},
		Records:  &fakeRecordStore{db},
	}
}

// WithinTx implements TxRunner. The mutex serializes whole
// transactions, which is the outcome row locks give the real manager
// once both contenders touch the same member and machine rows. It does
// not model finer interleavings between transactions on disjoint rows;
// the locking clauses themselves are asserted by the repository tests.
func (db *fakeDB) WithinTx(ctx context.Context, fn func(ctx context.Context, s Stores) error) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	snap := db.snapshot()
	if err := fn(ctx, db.stores()); err != nil {
		db.restore(snap)
		return err
	}
	return nil
}

type fakeMemberStore struct{ db *fakeDB }

func (s *fakeMemberStore) Get(ctx context.Context, id int64) (*models.Member, error) {
	m, ok := s.db.members[id]
	if !ok {
		return nil, apperr.NotFound(apperr.CodeMemberNotFound, "member not found").With("member_id", id)
	}
	c := *m
	return &c, nil
}

func (s *fakeMemberStore) GetForUpdate(ctx context.Context, id int64) (*models.Member, error) {
	return s.Get(ctx, id)
}

func (s *fakeMemberStore) List(ctx context.Context) ([]models.Member, error) {
	var out []models.Member
	for _, m := range s.db.members {
		out = append(out, *m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *fakeMemberStore) Create(ctx context.Context, member *models.Member) error {
	member.ID = s.db.nextID
	s.db.nextID++
	c := *member
	s.db.members[member.ID] = &c
	return nil
}

func (s *fakeMemberStore) Update(ctx context.Context, member *models.Member) error {
	if _, ok := s.db.members[member.ID]; !ok {
		return apperr.NotFound(apperr.CodeMemberNotFound, "member not found").With("member_id", member.ID)
	}
	c := *member
	s.db.members[member.ID] = &c
	return nil
}

func (s *fakeMemberStore) Delete(ctx context.Context, id int64) error {
	if _, ok := s.db.members[id]; !ok {
		return apperr.NotFound(apperr.CodeMemberNotFound, "member not found").With("member_id", id)
	}
	delete(s.db.members, id)
	return nil
}

func (s *fakeMemberStore) AdjustBalance(ctx context.Context, id int64, delta float64) (*models.Member, error) {
	m, ok := s.db.members[id]
	if !ok {
		return nil, apperr.NotFound(apperr.CodeMemberNotFound, "member not found").With("member_id", id)
	}
	if m.Balance+delta < 0 {
		return nil, apperr.Conflict(apperr.CodeInsufficientBalance, "balance adjustment would go negative").
			With("member_id", id).
			With("delta", delta)
	}
	m.Balance += delta
	c := *m
	return &c, nil
}

type fakeMachineStore struct{ db *fakeDB }

func (s *fakeMachineStore) Get(ctx context.Context, id int64) (*models.Machine, error) {
	m, ok := s.db.machines[id]
	if !ok {
		return nil, apperr.NotFound(apperr.CodeMachineNotFound, "machine not found").With("machine_id", id)
	}
	c := *m
	return &c, nil
}

func (s *fakeMachineStore) GetForUpdate(ctx context.Context, id int64) (*models.Machine, error) {
	return s.Get(ctx, id)
}

func (s *fakeMachineStore) GetByNumber(ctx context.Context, number string) (*models.Machine, error) {
	for _, m := range s.db.machines {
		if m.MachineNumber == number {
			c := *m
			return &c, nil
		}
	}
	return nil, apperr.NotFound(apperr.CodeMachineNotFound, "machine not found").With("machine_number", number)
}

func (s *fakeMachineStore) List(ctx context.Context) ([]models.MachineWithOccupant, error) {
	var out []models.MachineWithOccupant
	for _, m := range s.db.machines {
		out = append(out, models.MachineWithOccupant{Machine: *m})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *fakeMachineStore) Create(ctx context.Context, machine *models.Machine) error {
	machine.ID = s.db.nextID
	s.db.nextID++
	c := *machine
	s.db.machines[machine.ID] = &c
	return nil
}

func (s *fakeMachineStore) Delete(ctx context.Context, id int64) error {
	if _, ok := s.db.machines[id]; !ok {
		return apperr.NotFound(apperr.CodeMachineNotFound, "machine not found").With("machine_id", id)
	}
	delete(s.db.machines, id)
	return nil
}

func (s *fakeMachineStore) SetOccupied(ctx context.Context, id, memberID int64, start time.Time) error {
	m, ok := s.db.machines[id]
	if !ok {
		return apperr.NotFound(apperr.CodeMachineNotFound, "machine not found").With("machine_id", id)
	}
	m.Status = models.MachineStatusInUse
	m.OccupantID = &memberID
	m.SessionStart = &start
	return nil
}

func (s *fakeMachineStore) SetFree(ctx context.Context, id int64) error {
	m, ok := s.db.machines[id]
	if !ok {
		return apperr.NotFound(apperr.CodeMachineNotFound, "machine not found").With("machine_id", id)
	}
	m.Status = models.MachineStatusFree
	m.OccupantID = nil
	m.SessionStart = nil
	return nil
}

func (s *fakeMachineStore) SetRate(ctx context.Context, id int64, rate float64) error {
	m, ok := s.db.machines[id]
	if !ok {
		return apperr.NotFound(apperr.CodeMachineNotFound, "machine not found").With("machine_id", id)
	}
	m.HourlyRate = rate
	return nil
}

func (s *fakeMachineStore) SetRateBatch(ctx context.Context, ids []int64, rate float64) (int64, error) {
	var updated int64
	for _, id := range ids {
		if m, ok := s.db.machines[id]; ok {
			m.HourlyRate = rate
			updated++
		}
	}
	return updated, nil
}

func (s *fakeMachineStore) SetRateByType(ctx context.Context, machineType string, rate float64) (int64, error) {
	var updated int64
	for _, m := range s.db.machines {
		if strings.HasPrefix(m.MachineNumber, machineType) {
			m.HourlyRate = rate
			updated++
		}
	}
	return updated, nil
}

func (s *fakeMachineStore) OverrideState(ctx context.Context, id int64, status string, occupantID *int64, sessionStart *time.Time) error {
	m, ok := s.db.machines[id]
	if !ok {
		return apperr.NotFound(apperr.CodeMachineNotFound, "machine not found").With("machine_id", id)
	}
	m.Status = status
	m.OccupantID = occupantID
	m.SessionStart = sessionStart
	return nil
}

type fakeRecordStore struct{ db *fakeDB }

func (s *fakeRecordStore) CreateActive(ctx context.Context, memberID, machineID int64, start time.Time) (*models.UsageRecord, error) {
	rec := &models.UsageRecord{
		ID:        s.db.nextID,
		MemberID:  memberID,
		MachineID: machineID,
		StartTime: start,
		CreatedAt: start,
	}
	s.db.nextID++
	s.db.records[rec.ID] = rec
	c := *rec
	return &c, nil
}

func (s *fakeRecordStore) findActive(match func(*models.UsageRecord) bool, idField string, id int64) (*models.UsageRecord, error) {
	var found []*models.UsageRecord
	for _, r := range s.db.records {
		if r.Active() && match(r) {
			found = append(found, r)
		}
	}
	switch len(found) {
	case 0:
		return nil, nil
	case 1:
		c := *found[0]
		return &c, nil
	default:
		return nil, apperr.Internal(apperr.CodeInvariantViolation, "multiple active records for one "+idField, nil).
			With(idField, id)
	}
}

func (s *fakeRecordStore) FindActiveByMachine(ctx context.Context, machineID int64) (*models.UsageRecord, error) {
	return s.findActive(func(r *models.UsageRecord) bool { return r.MachineID == machineID }, "machine_id", machineID)
}

func (s *fakeRecordStore) FindActiveByMember(ctx context.Context, memberID int64) (*models.UsageRecord, error) {
	return s.findActive(func(r *models.UsageRecord) bool { return r.MemberID == memberID }, "member_id", memberID)
}

func (s *fakeRecordStore) Finalize(ctx context.Context, recordID int64, end time.Time, fee float64) (*models.UsageRecord, error) {
	r, ok := s.db.records[recordID]
	if !ok || !r.Active() {
		return nil, apperr.Conflict(apperr.CodeNoActiveSession, "record is not open").With("record_id", recordID)
	}
	r.EndTime = &end
	r.Fee = &fee
	c := *r
	return &c, nil
}

func (s *fakeRecordStore) Get(ctx context.Context, id int64) (*models.UsageRecordDetail, error) {
	r, ok := s.db.records[id]
	if !ok {
		return nil, apperr.NotFound(apperr.CodeRecordNotFound, "usage record not found").With("record_id", id)
	}
	return &models.UsageRecordDetail{UsageRecord: *r}, nil
}

func (s *fakeRecordStore) List(ctx context.Context, filter RecordFilter) ([]models.UsageRecordWithNames, error) {
	var out []models.UsageRecordWithNames
	for _, r := range s.db.records {
		if filter.MemberID > 0 && r.MemberID != filter.MemberID {
			continue
		}
		if filter.Status == "active" && !r.Active() {
			continue
		}
		if filter.Status == "completed" && r.Active() {
			continue
		}
		out = append(out, models.UsageRecordWithNames{UsageRecord: *r})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *fakeRecordStore) ListByMember(ctx context.Context, memberID int64) ([]models.UsageRecordWithNames, error) {
	return s.List(ctx, RecordFilter{MemberID: memberID})
}

func (s *fakeRecordStore) ActiveIDs(ctx context.Context, ids []int64) ([]int64, error) {
	var active []int64
	for _, id := range ids {
		if r, ok := s.db.records[id]; ok && r.Active() {
			active = append(active, id)
		}
	}
	return active, nil
}

func (s *fakeRecordStore) DeleteBatch(ctx context.Context, ids []int64) (int64, error) {
	var deleted int64
	for _, id := range ids {
		if _, ok := s.db.records[id]; ok {
			delete(s.db.records, id)
			deleted++
		}
	}
	return deleted, nil
}

func (s *fakeRecordStore) DeleteByMember(ctx context.Context, memberID int64) (int64, error) {
	var deleted int64
	for id, r := range s.db.records {
		if r.MemberID == memberID {
			delete(s.db.records, id)
			deleted++
		}
	}
	return deleted, nil
}
