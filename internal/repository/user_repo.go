package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"netclub/internal/apperr"
	"netclub/internal/models"
)

// UserRepository handles CRUD for staff accounts.
type UserRepository struct {
	q Querier
}

// NewUserRepository returns a repository over the given querier.
func NewUserRepository(q Querier) *UserRepository {
	return &UserRepository{q: q}
}

// Create inserts a new staff user.
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	user.Username = strings.TrimSpace(user.Username)
	const query = `
		INSERT INTO users (username, password_hash, role, created_at)
		VALUES ($1, $2, $3, NOW())
		RETURNING id, created_at
	`
	err := r.q.QueryRowContext(ctx, query, user.Username, user.PasswordHash, user.Role).
		Scan(&user.ID, &user.CreatedAt)
	if err != nil {
		if uniqueViolation(err, "users_username_key") {
			return apperr.Conflict(apperr.CodeUsernameTaken, "username already exists").
				With("username", user.Username)
		}
		return storage(err)
	}
	return nil
}

// Get fetches a user by id.
func (r *UserRepository) Get(ctx context.Context, id int64) (*models.User, error) {
	const query = `SELECT id, username, password_hash, role, created_at FROM users WHERE id = $1`
	return r.scanOne(r.q.QueryRowContext(ctx, query, id))
}

// GetByUsername fetches a user by username.
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	const query = `SELECT id, username, password_hash, role, created_at FROM users WHERE username = $1 LIMIT 1`
	return r.scanOne(r.q.QueryRowContext(ctx, query, strings.TrimSpace(username)))
}

// List returns all staff users ordered by id.
func (r *UserRepository) List(ctx context.Context) ([]models.User, error) {
	const query = `SELECT id, username, password_hash, role, created_at FROM users ORDER BY id`
	rows, err := r.q.QueryContext(ctx, query)
	if err != nil {
		return nil, storage(err)
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Role, &u.CreatedAt); err != nil {
			return nil, storage(err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, storage(err)
	}
	return users, nil
}

// Update rewrites username, password hash and role.
func (r *UserRepository) Update(ctx context.Context, user *models.User) error {
	const query = `
		UPDATE users
		SET username = $2, password_hash = $3, role = $4
		WHERE id = $1
	`
	result, err := r.q.ExecContext(ctx, query, user.ID, user.Username, user.PasswordHash, user.Role)
	if err != nil {
		if uniqueViolation(err, "users_username_key") {
			return apperr.Conflict(apperr.CodeUsernameTaken, "username already exists").
				With("username", user.Username)
		}
		return storage(err)
	}
	return requireAffected(result, notFoundUser(user.ID))
}

// Delete removes a user row.
func (r *UserRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.q.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return storage(err)
	}
	return requireAffected(result, notFoundUser(id))
}

func (r *UserRepository) scanOne(row *sql.Row) (*models.User, error) {
	var u models.User
	if err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Role, &u.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound(apperr.CodeUserNotFound, "user not found")
		}
		return nil, storage(err)
	}
	return &u, nil
}

func notFoundUser(id int64) *apperr.Error {
	return apperr.NotFound(apperr.CodeUserNotFound, "user not found").With("user_id", id)
}
