package models

import "time"

// Staff roles.
const (
	RoleStaff = "staff"
	RoleAdmin = "admin"
)

// User is a staff account operating the club, not a member.
type User struct {
	ID           int64     `db:"id" json:"id"`
	Username     string    `db:"username" json:"username"`
	PasswordHash string    `db:"password_hash" json:"-"`
	Role         string    `db:"role" json:"role"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}
