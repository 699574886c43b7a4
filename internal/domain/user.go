package domain

import "time"

const (
	RoleAdmin    = "admin"
	RoleEmployee = "employee"
)

// User is an employee account; calculations and onboardings may be attributed to one.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	Role         string    `json:"role"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// Identity is the verified caller attached to a request.
type Identity struct {
	UserID string `json:"id"`
	Name   string `json:"name"`
	Role   string `json:"role"`
}
