package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"netclub/internal/apperr"
	"netclub/internal/models"
)

// MemberService handles member CRUD and balance top-ups. Balance
// deductions happen only in the session engine; both paths go through the
// same AdjustBalance ledger contract.
type MemberService struct {
	members MemberStore
	tx      TxRunner
	logger  *zap.Logger
}

// NewMemberService builds the service.
func NewMemberService(members MemberStore, tx TxRunner, logger *zap.Logger) *MemberService {
	return &MemberService{members: members, tx: tx, logger: logger}
}

// List returns all members.
func (s *MemberService) List(ctx context.Context) ([]models.Member, error) {
	return s.members.List(ctx)
}

// Get returns one member.
func (s *MemberService) Get(ctx context.Context, id int64) (*models.Member, error) {
	return s.members.Get(ctx, id)
}

// CreateMemberInput is the registration payload.
type CreateMemberInput struct {
	Name    string
	Phone   string
	Balance float64
}

// Create registers a new member with an optional opening balance.
func (s *MemberService) Create(ctx context.Context, input CreateMemberInput) (*models.Member, error) {
	input.Name = strings.TrimSpace(input.Name)
	if input.Name == "" {
		return nil, apperr.Validation("name is required")
	}
	if input.Balance < 0 {
		return nil, apperr.Validation("balance must not be negative")
	}

	member := &models.Member{
		Name:    input.Name,
		Phone:   strings.TrimSpace(input.Phone),
		Balance: input.Balance,
	}
	if err := s.members.Create(ctx, member); err != nil {
		return nil, err
	}
	return member, nil
}

// UpdateMemberInput carries optional field rewrites.
type UpdateMemberInput struct {
	Name    *string
	Phone   *string
	Balance *float64
}

// Update merges the provided fields into the stored member.
func (s *MemberService) Update(ctx context.Context, id int64, input UpdateMemberInput) (*models.Member, error) {
	if input.Name == nil && input.Phone == nil && input.Balance == nil {
		return nil, apperr.Validation("nothing to update")
	}
	if input.Balance != nil && *input.Balance < 0 {
		return nil, apperr.Validation("balance must not be negative")
	}
	if input.Name != nil && strings.TrimSpace(*input.Name) == "" {
		return nil, apperr.Validation("name must not be empty")
	}

	var updated *models.Member
	err := s.tx.WithinTx(ctx, func(ctx context.Context, st Stores) error {
		member, err := st.Members.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if input.Name != nil {
			member.Name = strings.TrimSpace(*input.Name)
		}
		if input.Phone != nil {
			member.Phone = strings.TrimSpace(*input.Phone)
		}
		if input.Balance != nil {
			member.Balance = *input.Balance
		}
		if err := st.Members.Update(ctx, member); err != nil {
			return err
		}
		updated = member
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete removes a member and their finalized usage records. A member
// currently on a machine cannot be deleted.
func (s *MemberService) Delete(ctx context.Context, id int64) error {
	return s.tx.WithinTx(ctx, func(ctx context.Context, st Stores) error {
		if _, err := st.Members.GetForUpdate(ctx, id); err != nil {
			return err
		}
		active, err := st.Records.FindActiveByMember(ctx, id)
		if err != nil {
			return err
		}
		if active != nil {
			return apperr.Conflict(apperr.CodeMemberInSession, "member has an open session").
				With("member_id", id).
				With("machine_id", active.MachineID)
		}
		if _, err := st.Records.DeleteByMember(ctx, id); err != nil {
			return err
		}
		return st.Members.Delete(ctx, id)
	})
}

// RechargeResult reports a top-up with before/after balances.
type RechargeResult struct {
	Member          *models.Member `json:"member"`
	PreviousBalance float64        `json:"previous_balance"`
	Amount          float64        `json:"amount"`
}

// Recharge tops up a member's balance. Amount must be positive.
func (s *MemberService) Recharge(ctx context.Context, id int64, amount float64) (*RechargeResult, error) {
	if amount <= 0 {
		return nil, apperr.Validation("recharge amount must be positive")
	}

	var result *RechargeResult
	err := s.tx.WithinTx(ctx, func(ctx context.Context, st Stores) error {
		member, err := st.Members.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		previous := member.Balance
		updated, err := st.Members.AdjustBalance(ctx, id, amount)
		if err != nil {
			return err
		}
		result = &RechargeResult{Member: updated, PreviousBalance: previous, Amount: amount}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("member recharged",
		zap.Int64("member_id", id),
		zap.Float64("amount", amount),
		zap.Float64("balance", result.Member.Balance),
	)
	return result, nil
}
