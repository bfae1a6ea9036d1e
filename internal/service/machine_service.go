package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"netclub/internal/apperr"
	"netclub/internal/models"
)

// MachineService handles machine CRUD and the administrative state edit.
// It never touches session-coupled fields while an active record exists;
// that path belongs to the session engine alone.
type MachineService struct {
	machines MachineStore
	tx       TxRunner
	logger   *zap.Logger
	now      func() time.Time
}

// NewMachineService builds the service.
func NewMachineService(machines MachineStore, tx TxRunner, logger *zap.Logger) *MachineService {
	return &MachineService{
		machines: machines,
		tx:       tx,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// List returns all machines with occupant names.
func (s *MachineService) List(ctx context.Context) ([]models.MachineWithOccupant, error) {
	return s.machines.List(ctx)
}

// Get returns one machine.
func (s *MachineService) Get(ctx context.Context, id int64) (*models.Machine, error) {
	return s.machines.Get(ctx, id)
}

// CreateMachineInput is the add-machine payload.
type CreateMachineInput struct {
	MachineNumber string
	HourlyRate    float64
}

// Create adds a free machine with a unique number.
func (s *MachineService) Create(ctx context.Context, input CreateMachineInput) (*models.Machine, error) {
	input.MachineNumber = strings.TrimSpace(input.MachineNumber)
	if input.MachineNumber == "" {
		return nil, apperr.Validation("machine_number is required")
	}
	if input.HourlyRate < 0 {
		return nil, apperr.Validation("hourly_rate must not be negative")
	}

	if _, err := s.machines.GetByNumber(ctx, input.MachineNumber); err == nil {
		return nil, apperr.Conflict(apperr.CodeMachineNumberTaken, "machine number already exists").
			With("machine_number", input.MachineNumber)
	} else if !errors.Is(err, apperr.NotFound(apperr.CodeMachineNotFound, "")) {
		return nil, err
	}

	machine := &models.Machine{
		MachineNumber: input.MachineNumber,
		Status:        models.MachineStatusFree,
		HourlyRate:    input.HourlyRate,
	}
	if err := s.machines.Create(ctx, machine); err != nil {
		return nil, err
	}
	return machine, nil
}

// Delete removes a machine. A machine with an open session must be ended
// first.
func (s *MachineService) Delete(ctx context.Context, id int64) error {
	return s.tx.WithinTx(ctx, func(ctx context.Context, st Stores) error {
		machine, err := st.Machines.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		active, err := st.Records.FindActiveByMachine(ctx, id)
		if err != nil {
			return err
		}
		if machine.Status == models.MachineStatusInUse || active != nil {
			return apperr.Conflict(apperr.CodeSessionMustEnd, "end the session before deleting the machine").
				With("machine_id", id)
		}
		return st.Machines.Delete(ctx, id)
	})
}

// SetRateBatch changes the hourly rate of the listed machines in one
// statement and returns how many rows were updated. Missing ids are
// skipped silently, matching the single-machine rate edit semantics of
// applying at the next end computation.
func (s *MachineService) SetRateBatch(ctx context.Context, ids []int64, rate float64) (int64, error) {
	if len(ids) == 0 {
		return 0, apperr.Validation("ids must not be empty")
	}
	if rate < 0 {
		return 0, apperr.Validation("hourly_rate must not be negative")
	}
	updated, err := s.machines.SetRateBatch(ctx, ids, rate)
	if err != nil {
		return 0, err
	}
	s.logger.Info("machine rates updated", zap.Int("requested", len(ids)), zap.Int64("updated", updated))
	return updated, nil
}

// SetRateByType changes the hourly rate of every machine of one type.
// The type is the leading letter of the machine number.
func (s *MachineService) SetRateByType(ctx context.Context, machineType string, rate float64) (int64, error) {
	machineType = strings.TrimSpace(machineType)
	if machineType == "" {
		return 0, apperr.Validation("machine type is required")
	}
	if rate < 0 {
		return 0, apperr.Validation("hourly_rate must not be negative")
	}
	updated, err := s.machines.SetRateByType(ctx, machineType, rate)
	if err != nil {
		return 0, err
	}
	s.logger.Info("machine type rate updated", zap.String("machine_type", machineType), zap.Int64("updated", updated))
	return updated, nil
}

// UpdateMachineInput carries optional administrative edits.
type UpdateMachineInput struct {
	Status     *string
	OccupantID *int64
	HourlyRate *float64
}

// Update applies administrative edits. The rate is editable at any time,
// including mid-session (the next end computation picks it up). Rewriting
// status or occupant requires that no active record exists for the
// machine; otherwise the edit is rejected and the session must be ended
// first.
func (s *MachineService) Update(ctx context.Context, id int64, input UpdateMachineInput) (*models.Machine, error) {
	if input.Status == nil && input.OccupantID == nil && input.HourlyRate == nil {
		return nil, apperr.Validation("nothing to update")
	}
	if input.HourlyRate != nil && *input.HourlyRate < 0 {
		return nil, apperr.Validation("hourly_rate must not be negative")
	}
	if input.Status != nil && *input.Status != models.MachineStatusFree && *input.Status != models.MachineStatusInUse {
		return nil, apperr.Validation("status must be free or in_use")
	}

	var updated *models.Machine
	err := s.tx.WithinTx(ctx, func(ctx context.Context, st Stores) error {
		machine, err := st.Machines.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}

		if input.HourlyRate != nil {
			if err := st.Machines.SetRate(ctx, id, *input.HourlyRate); err != nil {
				return err
			}
			machine.HourlyRate = *input.HourlyRate
		}

		if input.Status != nil || input.OccupantID != nil {
			active, err := st.Records.FindActiveByMachine(ctx, id)
			if err != nil {
				return err
			}
			if active != nil {
				return apperr.Conflict(apperr.CodeSessionMustEnd, "end the session before changing machine state").
					With("machine_id", id).
					With("record_id", active.ID)
			}

			status := machine.Status
			if input.Status != nil {
				status = *input.Status
			}
			occupant := input.OccupantID
			var sessionStart *time.Time
			if status == models.MachineStatusInUse {
				start := s.now()
				sessionStart = &start
			} else {
				occupant = nil
			}
			if err := st.Machines.OverrideState(ctx, id, status, occupant, sessionStart); err != nil {
				return err
			}
			machine.Status = status
			machine.OccupantID = occupant
			machine.SessionStart = sessionStart
		}

		updated = machine
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("machine updated", zap.Int64("machine_id", id))
	return updated, nil
}
