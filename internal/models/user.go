package models

import "time"

const (
	RoleOwner    = "owner"
	RoleEmployee = "employee"
)

// User is the local shadow of an identity provider account
type User struct {
	ID       int64  `json:"id" db:"id"`
	Email    string `json:"email" db:"email"`
	Password string `json:"-" db:"password"` // bcrypt hash
	Role     string `json:"user_role" db:"user_role"`
	TenantID int64  `json:"tenant_id" db:"tenant_id"`
}

// Plan is a tenant's subscription plan
type Plan struct {
	ID        int64     `json:"id" db:"id"`
	TenantID  int64     `json:"tenant_id" db:"tenant_id"`
	Name      string    `json:"name" db:"name"`
	Price     float64   `json:"price" db:"price"`
	StartedAt time.Time `json:"started_at" db:"started_at"`
	ExpiresAt time.Time `json:"expires_at" db:"expires_at"`
}

// Active reports whether the plan covers t
func (p Plan) Active(t time.Time) bool {
	return !t.Before(p.StartedAt) && t.Before(p.ExpiresAt)
}

// Registration is a new account request
type Registration struct {
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=6,max=72"`
	Role     string `json:"user_role" validate:"omitempty,oneof=owner employee"`
}

// Validate checks the request and returns an ErrValidation-wrapped error
func (r Registration) Validate() error {
	return validateStruct(r)
}
