package service

import (
	"context"
	"time"

	"netclub/internal/models"
)

// MemberStore reads and mutates members. AdjustBalance is the single
// ledger entry point and must never let a balance go negative.
type MemberStore interface {
	Get(ctx context.Context, id int64) (*models.Member, error)
	GetForUpdate(ctx context.Context, id int64) (*models.Member, error)
	List(ctx context.Context) ([]models.Member, error)
	Create(ctx context.Context, member *models.Member) error
	Update(ctx context.Context, member *models.Member) error
	Delete(ctx context.Context, id int64) error
	AdjustBalance(ctx context.Context, id int64, delta float64) (*models.Member, error)
}

// MachineStore reads and mutates machine occupancy state.
type MachineStore interface {
	Get(ctx context.Context, id int64) (*models.Machine, error)
	GetForUpdate(ctx context.Context, id int64) (*models.Machine, error)
	GetByNumber(ctx context.Context, number string) (*models.Machine, error)
	List(ctx context.Context) ([]models.MachineWithOccupant, error)
	Create(ctx context.Context, machine *models.Machine) error
	Delete(ctx context.Context, id int64) error
	SetOccupied(ctx context.Context, id, memberID int64, start time.Time) error
	SetFree(ctx context.Context, id int64) error
	SetRate(ctx context.Context, id int64, rate float64) error
	SetRateBatch(ctx context.Context, ids []int64, rate float64) (int64, error)
	SetRateByType(ctx context.Context, machineType string, rate float64) (int64, error)
	OverrideState(ctx context.Context, id int64, status string, occupantID *int64, sessionStart *time.Time) error
}

// RecordFilter narrows usage record listings.
type RecordFilter struct {
	MemberID  int64
	StartDate *time.Time
	EndDate   *time.Time
	// Status is "", "active" or "completed".
	Status string
}

// UsageRecordStore persists sessions. FindActive* return (nil, nil) when no
// active record exists and an internal invariant-violation error when more
// than one does.
type UsageRecordStore interface {
	CreateActive(ctx context.Context, memberID, machineID int64, start time.Time) (*models.UsageRecord, error)
	FindActiveByMachine(ctx context.Context, machineID int64) (*models.UsageRecord, error)
	FindActiveByMember(ctx context.Context, memberID int64) (*models.UsageRecord, error)
	Finalize(ctx context.Context, recordID int64, end time.Time, fee float64) (*models.UsageRecord, error)
	Get(ctx context.Context, id int64) (*models.UsageRecordDetail, error)
	List(ctx context.Context, filter RecordFilter) ([]models.UsageRecordWithNames, error)
	ListByMember(ctx context.Context, memberID int64) ([]models.UsageRecordWithNames, error)
	ActiveIDs(ctx context.Context, ids []int64) ([]int64, error)
	DeleteBatch(ctx context.Context, ids []int64) (int64, error)
	DeleteByMember(ctx context.Context, memberID int64) (int64, error)
}

// Stores is the transaction-scoped set of collaborators handed to a
// WithinTx closure. Every store call through it runs on the same
// underlying transaction.
type Stores struct {
	Members  MemberStore
	Machines MachineStore
	Records  UsageRecordStore
}

// TxRunner executes fn inside one atomic transaction: commit only when fn
// returns nil, full rollback on any error or panic.
type TxRunner interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, s Stores) error) error
}
