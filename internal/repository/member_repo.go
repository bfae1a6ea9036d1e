package repository

import (
	"context"
	"database/sql"
	"errors"

	"netclub/internal/apperr"
	"netclub/internal/models"
)

const memberColumns = "id, name, phone, balance, created_at, updated_at"

// MemberRepository handles persistence of members and their balances.
type MemberRepository struct {
	q Querier
}

// NewMemberRepository returns a repository over the given querier.
func NewMemberRepository(q Querier) *MemberRepository {
	return &MemberRepository{q: q}
}

// Get fetches a member by id.
func (r *MemberRepository) Get(ctx context.Context, id int64) (*models.Member, error) {
	const query = `SELECT ` + memberColumns + ` FROM members WHERE id = $1`
	return r.scanOne(r.q.QueryRowContext(ctx, query, id), id)
}

// GetForUpdate fetches a member and locks its row until the surrounding
// transaction commits.
func (r *MemberRepository) GetForUpdate(ctx context.Context, id int64) (*models.Member, error) {
	const query = `SELECT ` + memberColumns + ` FROM members WHERE id = $1 FOR UPDATE`
	return r.scanOne(r.q.QueryRowContext(ctx, query, id), id)
}

// List returns all members ordered by id.
func (r *MemberRepository) List(ctx context.Context) ([]models.Member, error) {
	const query = `SELECT ` + memberColumns + ` FROM members ORDER BY id`
	rows, err := r.q.QueryContext(ctx, query)
	if err != nil {
		return nil, storage(err)
	}
	defer rows.Close()

	var members []models.Member
	for rows.Next() {
		var m models.Member
		if err := rows.Scan(&m.ID, &m.Name, &m.Phone, &m.Balance, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, storage(err)
		}
		members = append(members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, storage(err)
	}
	return members, nil
}

// Create inserts a new member.
func (r *MemberRepository) Create(ctx context.Context, member *models.Member) error {
	const query = `
		INSERT INTO members (name, phone, balance, created_at, updated_at)
		VALUES ($1, $2, $3, NOW(), NOW())
		RETURNING id, created_at, updated_at
	`
	err := r.q.QueryRowContext(ctx, query, member.Name, member.Phone, member.Balance).
		Scan(&member.ID, &member.CreatedAt, &member.UpdatedAt)
	if err != nil {
		return storage(err)
	}
	return nil
}

// Update rewrites name, phone and balance.
func (r *MemberRepository) Update(ctx context.Context, member *models.Member) error {
	const query = `
		UPDATE members
		SET name = $2, phone = $3, balance = $4, updated_at = NOW()
		WHERE id = $1
	`
	result, err := r.q.ExecContext(ctx, query, member.ID, member.Name, member.Phone, member.Balance)
	if err != nil {
		return storage(err)
	}
	return requireAffected(result, notFoundMember(member.ID))
}

// Delete removes a member row.
func (r *MemberRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.q.ExecContext(ctx, `DELETE FROM members WHERE id = $1`, id)
	if err != nil {
		return storage(err)
	}
	return requireAffected(result, notFoundMember(id))
}

// AdjustBalance applies delta to the member's balance. The guard in the
// WHERE clause makes a negative result impossible regardless of what the
// caller checked beforehand.
func (r *MemberRepository) AdjustBalance(ctx context.Context, id int64, delta float64) (*models.Member, error) {
	const query = `
		UPDATE members
		SET balance = balance + $2, updated_at = NOW()
		WHERE id = $1 AND balance + $2 >= 0
		RETURNING ` + memberColumns
	member, err := r.scanOneErr(r.q.QueryRowContext(ctx, query, id, delta), id)
	if err == nil {
		return member, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, storage(err)
	}
	// Zero rows: missing member or the guard fired.
	if _, getErr := r.Get(ctx, id); getErr != nil {
		return nil, getErr
	}
	return nil, apperr.Conflict(apperr.CodeInsufficientBalance, "balance adjustment would go negative").
		With("member_id", id).
		With("delta", delta)
}

func (r *MemberRepository) scanOne(row *sql.Row, id int64) (*models.Member, error) {
	member, err := r.scanOneErr(row, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, notFoundMember(id)
		}
		return nil, storage(err)
	}
	return member, nil
}

func (r *MemberRepository) scanOneErr(row *sql.Row, id int64) (*models.Member, error) {
	var m models.Member
	if err := row.Scan(&m.ID, &m.Name, &m.Phone, &m.Balance, &m.CreatedAt, &m.UpdatedAt); err != nil {
		return nil, err
	}
	return &m, nil
}

func notFoundMember(id int64) *apperr.Error {
	return apperr.NotFound(apperr.CodeMemberNotFound, "member not found").With("member_id", id)
}

func storage(err error) error {
	return apperr.Internal(apperr.CodeStorage, "storage failure", err)
}

func requireAffected(result sql.Result, missing error) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return storage(err)
	}
	if affected == 0 {
		return missing
	}
	return nil
}
