package service

import (
	"context"

	"go.uber.org/zap"

	"netclub/internal/apperr"
	"netclub/internal/models"
)

// RecordService serves usage record queries and administrative cleanup.
type RecordService struct {
	records UsageRecordStore
	tx      TxRunner
	logger  *zap.Logger
}

// NewRecordService builds the service.
func NewRecordService(records UsageRecordStore, tx TxRunner, logger *zap.Logger) *RecordService {
	return &RecordService{records: records, tx: tx, logger: logger}
}

// List returns filtered records.
func (s *RecordService) List(ctx context.Context, filter RecordFilter) ([]models.UsageRecordWithNames, error) {
	return s.records.List(ctx, filter)
}

// Get returns one record with member/machine context.
func (s *RecordService) Get(ctx context.Context, id int64) (*models.UsageRecordDetail, error) {
	return s.records.Get(ctx, id)
}

// ListByMember returns a member's records.
func (s *RecordService) ListByMember(ctx context.Context, memberID int64) ([]models.UsageRecordWithNames, error) {
	return s.records.ListByMember(ctx, memberID)
}

// BatchDelete removes finalized records. If any requested record is still
// open the whole batch is refused.
func (s *RecordService) BatchDelete(ctx context.Context, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, apperr.Validation("ids must not be empty")
	}

	var deleted int64
	err := s.tx.WithinTx(ctx, func(ctx context.Context, st Stores) error {
		active, err := st.Records.ActiveIDs(ctx, ids)
		if err != nil {
			return err
		}
		if len(active) > 0 {
			return apperr.Conflict(apperr.CodeRecordActive, "cannot delete records of open sessions").
				With("active_ids", active)
		}
		deleted, err = st.Records.DeleteBatch(ctx, ids)
		return err
	})
	if err != nil {
		return 0, err
	}

	s.logger.Info("usage records deleted", zap.Int64("count", deleted))
	return deleted, nil
}
