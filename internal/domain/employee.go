package domain

import "time"

// Employee mirrors the upstream employee resource.
type Employee struct {
	ID         int64     `json:"id"`
	FirstName  string    `json:"first_name"`
	LastName   string    `json:"last_name"`
	Email      string    `json:"email"`
	Phone      *string   `json:"phone"`
	Department string    `json:"department"`
	Position   string    `json:"position"`
	Role       string    `json:"role"`
	JoinedAt   time.Time `json:"joined_at"`
	Active     bool      `json:"active"`
}

// CreateEmployeeRequest is the POST /employees input.
type CreateEmployeeRequest struct {
	FirstName  string  `json:"first_name" validate:"required"`
	LastName   string  `json:"last_name" validate:"required"`
	Email      string  `json:"email" validate:"required,email"`
	Phone      *string `json:"phone"`
	Department string  `json:"department" validate:"required"`
	Position   string  `json:"position"`
	Role       string  `json:"role" validate:"omitempty,oneof=admin hr employee team_lead"`
}

// UpdateEmployeeRequest carries partial employee updates; nil fields are
// left unchanged upstream.
type UpdateEmployeeRequest struct {
	FirstName  *string `json:"first_name"`
	LastName   *string `json:"last_name"`
	Email      *string `json:"email" validate:"omitempty,email"`
	Phone      *string `json:"phone"`
	Department *string `json:"department"`
	Position   *string `json:"position"`
	Role       *string `json:"role" validate:"omitempty,oneof=admin hr employee team_lead"`
	Active     *bool   `json:"active"`
}
