package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"netclub/internal/apperr"
	"netclub/internal/models"
)

const machineColumns = "id, machine_number, status, member_id, session_start, hourly_rate, created_at, updated_at"

// MachineRepository handles persistence of machine occupancy state.
type MachineRepository struct {
	q Querier
}

// NewMachineRepository returns a repository over the given querier.
func NewMachineRepository(q Querier) *MachineRepository {
	return &MachineRepository{q: q}
}

// Get fetches a machine by id.
func (r *MachineRepository) Get(ctx context.Context, id int64) (*models.Machine, error) {
	const query = `SELECT ` + machineColumns + ` FROM machines WHERE id = $1`
	return r.scanOne(r.q.QueryRowContext(ctx, query, id), id)
}

// GetForUpdate fetches a machine and locks its row until the surrounding
// transaction commits.
func (r *MachineRepository) GetForUpdate(ctx context.Context, id int64) (*models.Machine, error) {
	const query = `SELECT ` + machineColumns + ` FROM machines WHERE id = $1 FOR UPDATE`
	return r.scanOne(r.q.QueryRowContext(ctx, query, id), id)
}

// GetByNumber fetches a machine by its human-readable number.
func (r *MachineRepository) GetByNumber(ctx context.Context, number string) (*models.Machine, error) {
	const query = `SELECT ` + machineColumns + ` FROM machines WHERE machine_number = $1`
	var m models.Machine
	err := r.q.QueryRowContext(ctx, query, number).Scan(
		&m.ID, &m.MachineNumber, &m.Status, &m.OccupantID, &m.SessionStart,
		&m.HourlyRate, &m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound(apperr.CodeMachineNotFound, "machine not found").
				With("machine_number", number)
		}
		return nil, storage(err)
	}
	return &m, nil
}

// List returns all machines joined with the occupant's name.
func (r *MachineRepository) List(ctx context.Context) ([]models.MachineWithOccupant, error) {
	const query = `
		SELECT m.id, m.machine_number, m.status, m.member_id, m.session_start,
		       m.hourly_rate, m.created_at, m.updated_at, mem.name AS member_name
		FROM machines m
		LEFT JOIN members mem ON m.member_id = mem.id
		ORDER BY m.machine_number
	`
	rows, err := r.q.QueryContext(ctx, query)
	if err != nil {
		return nil, storage(err)
	}
	defer rows.Close()

	var machines []models.MachineWithOccupant
	for rows.Next() {
		var m models.MachineWithOccupant
		if err := rows.Scan(
			&m.ID, &m.MachineNumber, &m.Status, &m.OccupantID, &m.SessionStart,
			&m.HourlyRate, &m.CreatedAt, &m.UpdatedAt, &m.OccupantName,
		); err != nil {
			return nil, storage(err)
		}
		machines = append(machines, m)
	}
	if err := rows.Err(); err != nil {
		return nil, storage(err)
	}
	return machines, nil
}

// Create inserts a new free machine.
func (r *MachineRepository) Create(ctx context.Context, machine *models.Machine) error {
	const query = `
		INSERT INTO machines (machine_number, status, hourly_rate, created_at, updated_at)
		VALUES ($1, $2, $3, NOW(), NOW())
		RETURNING id, created_at, updated_at
	`
	err := r.q.QueryRowContext(ctx, query, machine.MachineNumber, machine.Status, machine.HourlyRate).
		Scan(&machine.ID, &machine.CreatedAt, &machine.UpdatedAt)
	if err != nil {
		if uniqueViolation(err, "machines_machine_number_key") {
			return apperr.Conflict(apperr.CodeMachineNumberTaken, "machine number already exists").
				With("machine_number", machine.MachineNumber)
		}
		return storage(err)
	}
	return nil
}

// Delete removes a machine row.
func (r *MachineRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.q.ExecContext(ctx, `DELETE FROM machines WHERE id = $1`, id)
	if err != nil {
		return storage(err)
	}
	return requireAffected(result, notFoundMachine(id))
}

// SetOccupied marks the machine in use by the member since start.
func (r *MachineRepository) SetOccupied(ctx context.Context, id, memberID int64, start time.Time) error {
	const query = `
		UPDATE machines
		SET status = $2, member_id = $3, session_start = $4, updated_at = NOW()
		WHERE id = $1
	`
	result, err := r.q.ExecContext(ctx, query, id, models.MachineStatusInUse, memberID, start)
	if err != nil {
		return storage(err)
	}
	return requireAffected(result, notFoundMachine(id))
}

// SetFree releases the machine, clearing occupant and session start.
func (r *MachineRepository) SetFree(ctx context.Context, id int64) error {
	const query = `
		UPDATE machines
		SET status = $2, member_id = NULL, session_start = NULL, updated_at = NOW()
		WHERE id = $1
	`
	result, err := r.q.ExecContext(ctx, query, id, models.MachineStatusFree)
	if err != nil {
		return storage(err)
	}
	return requireAffected(result, notFoundMachine(id))
}

// SetRate changes the hourly rate. Allowed at any time, including while a
// session is open; the new rate applies to the next end computation.
func (r *MachineRepository) SetRate(ctx context.Context, id int64, rate float64) error {
	const query = `UPDATE machines SET hourly_rate = $2, updated_at = NOW() WHERE id = $1`
	result, err := r.q.ExecContext(ctx, query, id, rate)
	if err != nil {
		return storage(err)
	}
	return requireAffected(result, notFoundMachine(id))
}

// SetRateBatch changes the hourly rate of every machine in ids and
// returns how many rows were touched.
func (r *MachineRepository) SetRateBatch(ctx context.Context, ids []int64, rate float64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	placeholders := make([]string, len(ids))
	args := make([]interface{}, 0, len(ids)+1)
	args = append(args, rate)
	for i, id := range ids {
		placeholders[i] = fmt.Sprintf("$%d", i+2)
		args = append(args, id)
	}
	query := fmt.Sprintf(
		`UPDATE machines SET hourly_rate = $1, updated_at = NOW() WHERE id IN (%s)`,
		strings.Join(placeholders, ", "),
	)
	result, err := r.q.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, storage(err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, storage(err)
	}
	return affected, nil
}

// SetRateByType changes the hourly rate of every machine whose number
// starts with the given type prefix and returns how many rows matched.
func (r *MachineRepository) SetRateByType(ctx context.Context, machineType string, rate float64) (int64, error) {
	const query = `UPDATE machines SET hourly_rate = $2, updated_at = NOW() WHERE machine_number LIKE $1 || '%'`
	result, err := r.q.ExecContext(ctx, query, machineType, rate)
	if err != nil {
		return 0, storage(err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, storage(err)
	}
	return affected, nil
}

// OverrideState rewrites status, occupant and session start directly.
// Callers must have verified there is no active record for the machine.
func (r *MachineRepository) OverrideState(ctx context.Context, id int64, status string, occupantID *int64, sessionStart *time.Time) error {
	const query = `
		UPDATE machines
		SET status = $2, member_id = $3, session_start = $4, updated_at = NOW()
		WHERE id = $1
	`
	result, err := r.q.ExecContext(ctx, query, id, status, occupantID, sessionStart)
	if err != nil {
		return storage(err)
	}
	return requireAffected(result, notFoundMachine(id))
}

func (r *MachineRepository) scanOne(row *sql.Row, id int64) (*models.Machine, error) {
	var m models.Machine
	err := row.Scan(
		&m.ID, &m.MachineNumber, &m.Status, &m.OccupantID, &m.SessionStart,
		&m.HourlyRate, &m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, notFoundMachine(id)
		}
		return nil, storage(err)
	}
	return &m, nil
}

func notFoundMachine(id int64) *apperr.Error {
	return apperr.NotFound(apperr.CodeMachineNotFound, "machine not found").With("machine_id", id)
}
