package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"netclub/internal/apperr"
	"netclub/internal/metrics"
	"netclub/internal/models"
	redisstore "netclub/internal/redis"
)

// SessionService is the sole writer of session-coupled state: machine
// status/occupant/session_start and record end_time/fee change only
// through Start and End, each inside one atomic transaction.
type SessionService struct {
	tx          TxRunner
	activeCache *redisstore.Store
	logger      *zap.Logger
	now         func() time.Time
}

// NewSessionService builds the session engine. activeCache may be nil.
func NewSessionService(tx TxRunner, activeCache *redisstore.Store, logger *zap.Logger) *SessionService {
	return &SessionService{
		tx:          tx,
		activeCache: activeCache,
		logger:      logger,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// StartSessionInput identifies who sits down where.
type StartSessionInput struct {
	MemberID  int64
	MachineID int64
}

// EndSessionInput identifies the machine being vacated.
type EndSessionInput struct {
	MachineID int64
}

// EndSessionResult is the finalized record plus its billing breakdown.
type EndSessionResult struct {
	Record          *models.UsageRecord `json:"record"`
	DurationMinutes int64               `json:"duration_minutes"`
	HourlyRate      float64             `json:"hourly_rate"`
	Fee             float64             `json:"fee"`
}

// Start opens a session: the member must exist and be idle, the machine
// must exist and be free. On success one active record exists and the
// machine is marked occupied; on any failure nothing changed.
func (s *SessionService) Start(ctx context.Context, input StartSessionInput) (*models.UsageRecord, error) {
	if input.MemberID <= 0 {
		return nil, apperr.Validation("member_id is required")
	}
	if input.MachineID <= 0 {
		return nil, apperr.Validation("machine_id is required")
	}

	var record *models.UsageRecord
	err := s.tx.WithinTx(ctx, func(ctx context.Context, st Stores) error {
		member, err := st.Members.GetForUpdate(ctx, input.MemberID)
		if err != nil {
			return err
		}

		active, err := st.Records.FindActiveByMember(ctx, member.ID)
		if err != nil {
			return err
		}
		if active != nil {
			return apperr.Conflict(apperr.CodeMemberAlreadyActive, "member already has an open session").
				With("member_id", member.ID).
				With("record_id", active.ID).
				With("machine_id", active.MachineID)
		}

		machine, err := st.Machines.GetForUpdate(ctx, input.MachineID)
		if err != nil {
			return err
		}
		if machine.Status != models.MachineStatusFree {
			return apperr.Conflict(apperr.CodeMachineBusy, "machine is not available").
				With("machine_id", machine.ID).
				With("status", machine.Status)
		}

		start := s.now()
		record, err = st.Records.CreateActive(ctx, member.ID, machine.ID, start)
		if err != nil {
			return err
		}
		return st.Machines.SetOccupied(ctx, machine.ID, member.ID, start)
	})
	if err != nil {
		metrics.SessionFailures.WithLabelValues("start", apperr.From(err).Code).Inc()
		return nil, err
	}

	metrics.SessionsStarted.Inc()
	s.cacheActive(ctx, record)
	s.logger.Info("session started",
		zap.Int64("record_id", record.ID),
		zap.Int64("member_id", record.MemberID),
		zap.Int64("machine_id", record.MachineID),
	)
	return record, nil
}

// End closes the machine's active session, billing at the rate in effect
// now, not the rate at start time. The balance check, the record
// finalization, the deduction and the machine release commit together or
// not at all.
func (s *SessionService) End(ctx context.Context, input EndSessionInput) (*EndSessionResult, error) {
	if input.MachineID <= 0 {
		return nil, apperr.Validation("machine_id is required")
	}

	var result *EndSessionResult
	err := s.tx.WithinTx(ctx, func(ctx context.Context, st Stores) error {
		// Plain read first to learn the member, so locks are always taken
		// member-first then machine, the same order Start uses.
		active, err := st.Records.FindActiveByMachine(ctx, input.MachineID)
		if err != nil {
			return err
		}
		if active == nil {
			if _, err := st.Machines.Get(ctx, input.MachineID); err != nil {
				return err
			}
			return apperr.Conflict(apperr.CodeNoActiveSession, "machine has no open session").
				With("machine_id", input.MachineID)
		}

		member, err := st.Members.GetForUpdate(ctx, active.MemberID)
		if err != nil {
			return err
		}
		machine, err := st.Machines.GetForUpdate(ctx, input.MachineID)
		if err != nil {
			return err
		}

		// Re-check under the lock: the session may have been closed
		// between the unlocked read and lock acquisition.
		record, err := st.Records.FindActiveByMachine(ctx, input.MachineID)
		if err != nil {
			return err
		}
		if record == nil || record.ID != active.ID {
			return apperr.Conflict(apperr.CodeNoActiveSession, "machine has no open session").
				With("machine_id", input.MachineID)
		}

		end := s.now()
		minutes, err := DurationMinutes(record.StartTime, end)
		if err != nil {
			return err
		}
		fee := Fee(minutes, machine.HourlyRate)

		if member.Balance < fee {
			return apperr.Conflict(apperr.CodeInsufficientBalance, "member balance does not cover the fee").
				With("member_id", member.ID).
				With("balance", member.Balance).
				With("fee", fee)
		}

		finalized, err := st.Records.Finalize(ctx, record.ID, end, fee)
		if err != nil {
			return err
		}
		if _, err := st.Members.AdjustBalance(ctx, member.ID, -fee); err != nil {
			return err
		}
		if err := st.Machines.SetFree(ctx, machine.ID); err != nil {
			return err
		}

		result = &EndSessionResult{
			Record:          finalized,
			DurationMinutes: minutes,
			HourlyRate:      machine.HourlyRate,
			Fee:             fee,
		}
		return nil
	})
	if err != nil {
		metrics.SessionFailures.WithLabelValues("end", apperr.From(err).Code).Inc()
		return nil, err
	}

	metrics.SessionsEnded.Inc()
	s.dropActive(ctx, input.MachineID)
	s.logger.Info("session ended",
		zap.Int64("record_id", result.Record.ID),
		zap.Int64("member_id", result.Record.MemberID),
		zap.Int64("machine_id", result.Record.MachineID),
		zap.Int64("duration_minutes", result.DurationMinutes),
		zap.Float64("fee", result.Fee),
	)
	return result, nil
}

func (s *SessionService) cacheActive(ctx context.Context, record *models.UsageRecord) {
	if s.activeCache == nil {
		return
	}
	err := s.activeCache.Save(ctx, redisstore.ActiveSession{
		RecordID:  record.ID,
		MemberID:  record.MemberID,
		MachineID: record.MachineID,
		StartTime: record.StartTime,
	})
	if err != nil {
		s.logger.Warn("failed to cache active session", zap.Error(err))
	}
}

func (s *SessionService) dropActive(ctx context.Context, machineID int64) {
	if s.activeCache == nil {
		return
	}
	if err := s.activeCache.Delete(ctx, machineID); err != nil {
		s.logger.Warn("failed to drop active session cache", zap.Error(err))
	}
}
