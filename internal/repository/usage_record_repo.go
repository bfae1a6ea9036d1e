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
	"netclub/internal/service"
)

const recordColumns = "id, member_id, machine_id, start_time, end_time, fee, created_at"

// UsageRecordRepository persists machine sessions.
type UsageRecordRepository struct {
	q Querier
}

// NewUsageRecordRepository returns a repository over the given querier.
func NewUsageRecordRepository(q Querier) *UsageRecordRepository {
	return &UsageRecordRepository{q: q}
}

// CreateActive inserts an open record: end_time and fee stay NULL until
// Finalize.
func (r *UsageRecordRepository) CreateActive(ctx context.Context, memberID, machineID int64, start time.Time) (*models.UsageRecord, error) {
	const query = `
		INSERT INTO usage_records (member_id, machine_id, start_time, created_at)
		VALUES ($1, $2, $3, NOW())
		RETURNING ` + recordColumns
	record, err := scanRecord(r.q.QueryRowContext(ctx, query, memberID, machineID, start))
	if err != nil {
		if uniqueViolation(err, "usage_records_active_machine") {
			return nil, apperr.Conflict(apperr.CodeMachineBusy, "machine already has an open session").
				With("machine_id", machineID)
		}
		if uniqueViolation(err, "usage_records_active_member") {
			return nil, apperr.Conflict(apperr.CodeMemberAlreadyActive, "member already has an open session").
				With("member_id", memberID)
		}
		return nil, storage(err)
	}
	return record, nil
}

// FindActiveByMachine returns the machine's open record, (nil, nil) when
// there is none. Two or more open records for one machine is a broken
// invariant and reported as an internal error, never silently resolved.
func (r *UsageRecordRepository) FindActiveByMachine(ctx context.Context, machineID int64) (*models.UsageRecord, error) {
	const query = `SELECT ` + recordColumns + ` FROM usage_records WHERE machine_id = $1 AND end_time IS NULL`
	return r.findActive(ctx, query, machineID, "machine_id")
}

// FindActiveByMember returns the member's open record, (nil, nil) when
// there is none.
func (r *UsageRecordRepository) FindActiveByMember(ctx context.Context, memberID int64) (*models.UsageRecord, error) {
	const query = `SELECT ` + recordColumns + ` FROM usage_records WHERE member_id = $1 AND end_time IS NULL`
	return r.findActive(ctx, query, memberID, "member_id")
}

func (r *UsageRecordRepository) findActive(ctx context.Context, query string, id int64, idField string) (*models.UsageRecord, error) {
	rows, err := r.q.QueryContext(ctx, query, id)
	if err != nil {
		return nil, storage(err)
	}
	defer rows.Close()

	var records []*models.UsageRecord
	for rows.Next() {
		var rec models.UsageRecord
		if err := rows.Scan(&rec.ID, &rec.MemberID, &rec.MachineID, &rec.StartTime, &rec.EndTime, &rec.Fee, &rec.CreatedAt); err != nil {
			return nil, storage(err)
		}
		records = append(records, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, storage(err)
	}
	switch len(records) {
	case 0:
		return nil, nil
	case 1:
		return records[0], nil
	default:
		return nil, apperr.Internal(apperr.CodeInvariantViolation, "multiple active records for one "+idField, nil).
			With(idField, id).
			With("active_count", len(records))
	}
}

// Finalize sets end_time and fee on an open record. A record that is
// already closed or missing yields a conflict: records are finalized
// exactly once.
func (r *UsageRecordRepository) Finalize(ctx context.Context, recordID int64, end time.Time, fee float64) (*models.UsageRecord, error) {
	const query = `
		UPDATE usage_records
		SET end_time = $2, fee = $3
		WHERE id = $1 AND end_time IS NULL
		RETURNING ` + recordColumns
	record, err := scanRecord(r.q.QueryRowContext(ctx, query, recordID, end, fee))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.Conflict(apperr.CodeNoActiveSession, "record is not open").
				With("record_id", recordID)
		}
		return nil, storage(err)
	}
	return record, nil
}

// Get returns the single-record view with member/machine context and a
// computed duration: elapsed-to-now for active records, final duration
// otherwise.
func (r *UsageRecordRepository) Get(ctx context.Context, id int64) (*models.UsageRecordDetail, error) {
	const query = `
		SELECT ur.id, ur.member_id, ur.machine_id, ur.start_time, ur.end_time, ur.fee, ur.created_at,
		       m.name AS member_name, m.phone AS member_phone,
		       mc.machine_number, mc.status AS machine_status, mc.hourly_rate,
		       CEIL(EXTRACT(EPOCH FROM (COALESCE(ur.end_time, NOW()) - ur.start_time)) / 60)::bigint AS duration_minutes
		FROM usage_records ur
		JOIN members m ON ur.member_id = m.id
		JOIN machines mc ON ur.machine_id = mc.id
		WHERE ur.id = $1
	`
	var d models.UsageRecordDetail
	err := r.q.QueryRowContext(ctx, query, id).Scan(
		&d.ID, &d.MemberID, &d.MachineID, &d.StartTime, &d.EndTime, &d.Fee, &d.CreatedAt,
		&d.MemberName, &d.MemberPhone,
		&d.MachineNumber, &d.MachineStatus, &d.HourlyRate,
		&d.DurationMinutes,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound(apperr.CodeRecordNotFound, "usage record not found").
				With("record_id", id)
		}
		return nil, storage(err)
	}
	return &d, nil
}

// List returns records newest first, optionally filtered by member, start
// date range and open/closed status.
func (r *UsageRecordRepository) List(ctx context.Context, filter service.RecordFilter) ([]models.UsageRecordWithNames, error) {
	var b strings.Builder
	b.WriteString(`
		SELECT ur.id, ur.member_id, ur.machine_id, ur.start_time, ur.end_time, ur.fee, ur.created_at,
		       m.name AS member_name, mc.machine_number
		FROM usage_records ur
		LEFT JOIN members m ON ur.member_id = m.id
		LEFT JOIN machines mc ON ur.machine_id = mc.id
	`)

	var conditions []string
	var args []interface{}
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.MemberID > 0 {
		conditions = append(conditions, "ur.member_id = "+arg(filter.MemberID))
	}
	if filter.StartDate != nil {
		conditions = append(conditions, "ur.start_time >= "+arg(*filter.StartDate))
	}
	if filter.EndDate != nil {
		conditions = append(conditions, "ur.start_time < "+arg(*filter.EndDate))
	}
	switch filter.Status {
	case "active":
		conditions = append(conditions, "ur.end_time IS NULL")
	case "completed":
		conditions = append(conditions, "ur.end_time IS NOT NULL")
	}

	if len(conditions) > 0 {
		b.WriteString(" WHERE " + strings.Join(conditions, " AND "))
	}
	b.WriteString(" ORDER BY ur.start_time DESC")

	return r.queryWithNames(ctx, b.String(), args...)
}

// ListByMember returns the member's records newest first.
func (r *UsageRecordRepository) ListByMember(ctx context.Context, memberID int64) ([]models.UsageRecordWithNames, error) {
	const query = `
		SELECT ur.id, ur.member_id, ur.machine_id, ur.start_time, ur.end_time, ur.fee, ur.created_at,
		       m.name AS member_name, mc.machine_number
		FROM usage_records ur
		LEFT JOIN members m ON ur.member_id = m.id
		LEFT JOIN machines mc ON ur.machine_id = mc.id
		WHERE ur.member_id = $1
		ORDER BY ur.start_time DESC
	`
	return r.queryWithNames(ctx, query, memberID)
}

// ActiveIDs returns which of the given ids belong to open records.
func (r *UsageRecordRepository) ActiveIDs(ctx context.Context, ids []int64) ([]int64, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	placeholders, args := placeholderList(ids)
	query := `SELECT id FROM usage_records WHERE id IN (` + placeholders + `) AND end_time IS NULL`

	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storage(err)
	}
	defer rows.Close()

	var active []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, storage(err)
		}
		active = append(active, id)
	}
	if err := rows.Err(); err != nil {
		return nil, storage(err)
	}
	return active, nil
}

// DeleteBatch removes the given records and reports how many were deleted.
// Callers must have refused active ids first.
func (r *UsageRecordRepository) DeleteBatch(ctx context.Context, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	placeholders, args := placeholderList(ids)
	query := `DELETE FROM usage_records WHERE id IN (` + placeholders + `)`

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

// DeleteByMember removes all of a member's records (administrative member
// deletion cleanup).
func (r *UsageRecordRepository) DeleteByMember(ctx context.Context, memberID int64) (int64, error) {
	result, err := r.q.ExecContext(ctx, `DELETE FROM usage_records WHERE member_id = $1`, memberID)
	if err != nil {
		return 0, storage(err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, storage(err)
	}
	return affected, nil
}

func (r *UsageRecordRepository) queryWithNames(ctx context.Context, query string, args ...interface{}) ([]models.UsageRecordWithNames, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storage(err)
	}
	defer rows.Close()

	var records []models.UsageRecordWithNames
	for rows.Next() {
		var rec models.UsageRecordWithNames
		if err := rows.Scan(
			&rec.ID, &rec.MemberID, &rec.MachineID, &rec.StartTime, &rec.EndTime, &rec.Fee, &rec.CreatedAt,
			&rec.MemberName, &rec.MachineNumber,
		); err != nil {
			return nil, storage(err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, storage(err)
	}
	return records, nil
}

func scanRecord(row *sql.Row) (*models.UsageRecord, error) {
	var rec models.UsageRecord
	if err := row.Scan(&rec.ID, &rec.MemberID, &rec.MachineID, &rec.StartTime, &rec.EndTime, &rec.Fee, &rec.CreatedAt); err != nil {
		return nil, err
	}
	return &rec, nil
}

func placeholderList(ids []int64) (string, []interface{}) {
	placeholders := make([]string, len(ids))
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = id
	}
	return strings.Join(placeholders, ", "), args
}
