package models

import "time"

// Machine status values.
const (
	MachineStatusFree  = "free"
	MachineStatusInUse = "in_use"
)

// Machine is a rentable terminal billed per hour.
// OccupantID and SessionStart are set iff Status is in_use.
type Machine struct {
	ID            int64      `db:"id" json:"id"`
	MachineNumber string     `db:"machine_number" json:"machine_number"`
	Status        string     `db:"status" json:"status"`
	OccupantID    *int64     `db:"member_id" json:"member_id,omitempty"`
	SessionStart  *time.Time `db:"session_start" json:"session_start,omitempty"`
	HourlyRate    float64    `db:"hourly_rate" json:"hourly_rate"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time  `db:"updated_at" json:"updated_at"`
}

// MachineWithOccupant is the listing shape joined with the occupant's name.
type MachineWithOccupant struct {
	Machine
	OccupantName *string `db:"member_name" json:"member_name,omitempty"`
}
