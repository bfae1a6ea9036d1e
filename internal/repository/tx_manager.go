package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"netclub/internal/apperr"
	"netclub/internal/service"
)

const defaultTxTimeout = 10 * time.Second

// TxManager runs closures inside one database transaction. The closure
// receives repositories bound to the transaction, so every read and write
// in it commits or rolls back as a unit. Exclusivity relies on the
// repositories' SELECT ... FOR UPDATE readers: the row locks taken at the
// first read are held until commit.
type TxManager struct {
	db      *sql.DB
	timeout time.Duration
}

// NewTxManager returns a runner over the given pool.
func NewTxManager(db *sql.DB) *TxManager {
	return &TxManager{db: db, timeout: defaultTxTimeout}
}

// WithinTx implements service.TxRunner.
func (m *TxManager) WithinTx(ctx context.Context, fn func(ctx context.Context, s service.Stores) error) error {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return txError(ctx, err)
	}
	// No-op after a successful commit.
	defer func() { _ = tx.Rollback() }()

	stores := service.Stores{
		Members:  NewMemberRepository(tx),
		Machines: NewMachineRepository(tx),
		Records:  NewUsageRecordRepository(tx),
	}
	if err := fn(ctx, stores); err != nil {
		return txError(ctx, err)
	}
	if err := tx.Commit(); err != nil {
		return txError(ctx, err)
	}
	return nil
}

func txError(ctx context.Context, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return apperr.Internal(apperr.CodeTransactionTimeout, "transaction timed out", err)
	}
	return err
}
