package models

// DailyIncome is one day's revenue from finalized sessions.
type DailyIncome struct {
	Date        string  `db:"date" json:"date"`
	Income      float64 `db:"income" json:"income"`
	RecordCount int64   `db:"record_count" json:"record_count"`
}

// MonthlyIncome is one calendar month's revenue from finalized sessions.
type MonthlyIncome struct {
	Month       string  `db:"month" json:"month"`
	Income      float64 `db:"income" json:"income"`
	RecordCount int64   `db:"record_count" json:"record_count"`
}

// MachineTypeIncome groups revenue by machine type, the leading letter
// of the machine number.
type MachineTypeIncome struct {
	MachineType string  `db:"machine_type" json:"machine_type"`
	Income      float64 `db:"income" json:"income"`
	RecordCount int64   `db:"record_count" json:"record_count"`
}

// MachineUsage aggregates sessions per machine.
type MachineUsage struct {
	MachineID     int64   `db:"machine_id" json:"machine_id"`
	MachineNumber string  `db:"machine_number" json:"machine_number"`
	UsageCount    int64   `db:"usage_count" json:"usage_count"`
	TotalRevenue  float64 `db:"total_revenue" json:"total_revenue"`
	TotalMinutes  int64   `db:"total_minutes" json:"total_minutes"`
}

// MemberUsage aggregates sessions per member.
type MemberUsage struct {
	MemberID     int64   `db:"member_id" json:"member_id"`
	MemberName   string  `db:"member_name" json:"member_name"`
	MemberPhone  string  `db:"member_phone" json:"member_phone"`
	UsageCount   int64   `db:"usage_count" json:"usage_count"`
	TotalSpent   float64 `db:"total_spent" json:"total_spent"`
	TotalMinutes int64   `db:"total_minutes" json:"total_minutes"`
}
