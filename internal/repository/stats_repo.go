package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"netclub/internal/models"
)

// StatsRepository serves income and usage aggregation queries over
// finalized usage records.
type StatsRepository struct {
	q Querier
}

// NewStatsRepository returns a repository over the given querier.
func NewStatsRepository(q Querier) *StatsRepository {
	return &StatsRepository{q: q}
}

// TotalIncome sums fees of finalized records, optionally bounded by start
// date (inclusive) and end date (exclusive) on start_time.
func (r *StatsRepository) TotalIncome(ctx context.Context, from, to *time.Time) (float64, error) {
	var b strings.Builder
	b.WriteString(`SELECT COALESCE(SUM(fee), 0) FROM usage_records WHERE end_time IS NOT NULL`)
	args := appendRange(&b, from, to, "start_time")

	var total float64
	if err := r.q.QueryRowContext(ctx, b.String(), args...).Scan(&total); err != nil {
		return 0, storage(err)
	}
	return total, nil
}

// DailyIncome groups finalized-session revenue by day, newest first.
func (r *StatsRepository) DailyIncome(ctx context.Context, from, to *time.Time) ([]models.DailyIncome, error) {
	var b strings.Builder
	b.WriteString(`
		SELECT TO_CHAR(start_time::date, 'YYYY-MM-DD') AS date,
		       COALESCE(SUM(fee), 0) AS income,
		       COUNT(*) AS record_count
		FROM usage_records
		WHERE end_time IS NOT NULL
	`)
	args := appendRange(&b, from, to, "start_time")
	b.WriteString(" GROUP BY start_time::date ORDER BY start_time::date DESC")

	rows, err := r.q.QueryContext(ctx, b.String(), args...)
	if err != nil {
		return nil, storage(err)
	}
	defer rows.Close()

	var days []models.DailyIncome
	for rows.Next() {
		var d models.DailyIncome
		if err := rows.Scan(&d.Date, &d.Income, &d.RecordCount); err != nil {
			return nil, storage(err)
		}
		days = append(days, d)
	}
	if err := rows.Err(); err != nil {
		return nil, storage(err)
	}
	return days, nil
}

// MonthlyIncome groups finalized-session revenue by calendar month,
// newest first.
func (r *StatsRepository) MonthlyIncome(ctx context.Context, from, to *time.Time) ([]models.MonthlyIncome, error) {
	var b strings.Builder
	b.WriteString(`
		SELECT TO_CHAR(start_time, 'YYYY-MM') AS month,
		       COALESCE(SUM(fee), 0) AS income,
		       COUNT(*) AS record_count
		FROM usage_records
		WHERE end_time IS NOT NULL
	`)
	args := appendRange(&b, from, to, "start_time")
	b.WriteString(" GROUP BY TO_CHAR(start_time, 'YYYY-MM') ORDER BY month DESC")

	rows, err := r.q.QueryContext(ctx, b.String(), args...)
	if err != nil {
		return nil, storage(err)
	}
	defer rows.Close()

	var months []models.MonthlyIncome
	for rows.Next() {
		var m models.MonthlyIncome
		if err := rows.Scan(&m.Month, &m.Income, &m.RecordCount); err != nil {
			return nil, storage(err)
		}
		months = append(months, m)
	}
	if err := rows.Err(); err != nil {
		return nil, storage(err)
	}
	return months, nil
}

// MachineTypeIncome groups finalized-session revenue by machine type.
// Machine numbers encode the type as their leading letter, so "A01"
// and "A02" land in type "A".
func (r *StatsRepository) MachineTypeIncome(ctx context.Context, from, to *time.Time) ([]models.MachineTypeIncome, error) {
	var b strings.Builder
	b.WriteString(`
		SELECT LEFT(m.machine_number, 1) AS machine_type,
		       COALESCE(SUM(ur.fee), 0) AS income,
		       COUNT(*) AS record_count
		FROM usage_records ur
		JOIN machines m ON m.id = ur.machine_id
		WHERE ur.end_time IS NOT NULL
	`)
	args := appendRange(&b, from, to, "ur.start_time")
	b.WriteString(" GROUP BY LEFT(m.machine_number, 1) ORDER BY machine_type")

	rows, err := r.q.QueryContext(ctx, b.String(), args...)
	if err != nil {
		return nil, storage(err)
	}
	defer rows.Close()

	var types []models.MachineTypeIncome
	for rows.Next() {
		var t models.MachineTypeIncome
		if err := rows.Scan(&t.MachineType, &t.Income, &t.RecordCount); err != nil {
			return nil, storage(err)
		}
		types = append(types, t)
	}
	if err := rows.Err(); err != nil {
		return nil, storage(err)
	}
	return types, nil
}

// MachineUsage aggregates session counts, revenue and minutes per machine,
// most used first. Open sessions count elapsed-to-now minutes.
func (r *StatsRepository) MachineUsage(ctx context.Context, from, to *time.Time) ([]models.MachineUsage, error) {
	var b strings.Builder
	b.WriteString(`
		SELECT m.id AS machine_id, m.machine_number,
		       COUNT(ur.id) AS usage_count,
		       COALESCE(SUM(ur.fee), 0) AS total_revenue,
		       COALESCE(SUM(CEIL(EXTRACT(EPOCH FROM (COALESCE(ur.end_time, NOW()) - ur.start_time)) / 60)), 0)::bigint AS total_minutes
		FROM machines m
		LEFT JOIN usage_records ur ON m.id = ur.machine_id
	`)
	args := appendJoinRange(&b, from, to)
	b.WriteString(" GROUP BY m.id, m.machine_number ORDER BY usage_count DESC")

	rows, err := r.q.QueryContext(ctx, b.String(), args...)
	if err != nil {
		return nil, storage(err)
	}
	defer rows.Close()

	var usage []models.MachineUsage
	for rows.Next() {
		var u models.MachineUsage
		if err := rows.Scan(&u.MachineID, &u.MachineNumber, &u.UsageCount, &u.TotalRevenue, &u.TotalMinutes); err != nil {
			return nil, storage(err)
		}
		usage = append(usage, u)
	}
	if err := rows.Err(); err != nil {
		return nil, storage(err)
	}
	return usage, nil
}

// MemberUsage aggregates session counts, spend and minutes per member,
// most active first.
func (r *StatsRepository) MemberUsage(ctx context.Context, from, to *time.Time) ([]models.MemberUsage, error) {
	var b strings.Builder
	b.WriteString(`
		SELECT m.id AS member_id, m.name AS member_name, m.phone AS member_phone,
		       COUNT(ur.id) AS usage_count,
		       COALESCE(SUM(ur.fee), 0) AS total_spent,
		       COALESCE(SUM(CEIL(EXTRACT(EPOCH FROM (COALESCE(ur.end_time, NOW()) - ur.start_time)) / 60)), 0)::bigint AS total_minutes
		FROM members m
		LEFT JOIN usage_records ur ON m.id = ur.member_id
	`)
	args := appendJoinRange(&b, from, to)
	b.WriteString(" GROUP BY m.id, m.name, m.phone ORDER BY usage_count DESC")

	rows, err := r.q.QueryContext(ctx, b.String(), args...)
	if err != nil {
		return nil, storage(err)
	}
	defer rows.Close()

	var usage []models.MemberUsage
	for rows.Next() {
		var u models.MemberUsage
		if err := rows.Scan(&u.MemberID, &u.MemberName, &u.MemberPhone, &u.UsageCount, &u.TotalSpent, &u.TotalMinutes); err != nil {
			return nil, storage(err)
		}
		usage = append(usage, u)
	}
	if err := rows.Err(); err != nil {
		return nil, storage(err)
	}
	return usage, nil
}

// appendRange adds AND-ed date bounds to a query that already has a WHERE.
func appendRange(b *strings.Builder, from, to *time.Time, column string) []interface{} {
	var args []interface{}
	if from != nil {
		args = append(args, *from)
		fmt.Fprintf(b, " AND %s >= $%d", column, len(args))
	}
	if to != nil {
		args = append(args, *to)
		fmt.Fprintf(b, " AND %s < $%d", column, len(args))
	}
	return args
}

// appendJoinRange moves date bounds into the LEFT JOIN so machines and
// members with no sessions in range still appear with zero counts.
func appendJoinRange(b *strings.Builder, from, to *time.Time) []interface{} {
	var args []interface{}
	if from != nil {
		args = append(args, *from)
		fmt.Fprintf(b, " AND ur.start_time >= $%d", len(args))
	}
	if to != nil {
		args = append(args, *to)
		fmt.Fprintf(b, " AND ur.start_time < $%d", len(args))
	}
	return args
}
