package models

import "time"

// UsageRecord is one machine session. A record is active while EndTime is
// nil; Fee is set exactly when EndTime is set.
type UsageRecord struct {
	ID        int64      `db:"id" json:"id"`
	MemberID  int64      `db:"member_id" json:"member_id"`
	MachineID int64      `db:"machine_id" json:"machine_id"`
	StartTime time.Time  `db:"start_time" json:"start_time"`
	EndTime   *time.Time `db:"end_time" json:"end_time,omitempty"`
	Fee       *float64   `db:"fee" json:"fee,omitempty"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
}

// Active reports whether the session is still open.
func (r *UsageRecord) Active() bool { return r.EndTime == nil }

// UsageRecordWithNames is the listing shape joined with member and machine
// labels. Pointers because the joins are LEFT and the referenced rows may
// have been deleted.
type UsageRecordWithNames struct {
	UsageRecord
	MemberName    *string `db:"member_name" json:"member_name,omitempty"`
	MachineNumber *string `db:"machine_number" json:"machine_number,omitempty"`
}

// UsageRecordDetail is the single-record view joined with member and
// machine context plus a computed duration (running duration for active
// records).
type UsageRecordDetail struct {
	UsageRecord
	MemberName      string  `db:"member_name" json:"member_name"`
	MemberPhone     string  `db:"member_phone" json:"member_phone"`
	MachineNumber   string  `db:"machine_number" json:"machine_number"`
	MachineStatus   string  `db:"machine_status" json:"machine_status"`
	HourlyRate      float64 `db:"hourly_rate" json:"hourly_rate"`
	DurationMinutes int64   `db:"duration_minutes" json:"duration_minutes"`
}
