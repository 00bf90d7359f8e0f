package users

import (
	"context"

	"github.com/dshinde1318/Milk-Management-System-backend/internal/auth"
)

// ListFilter narrows directory queries. Search matches name, mobile, or email
// case-insensitively.
type ListFilter struct {
	Role     auth.Role
	Search   string
	IsActive *bool
	Page     int
	Limit    int
}

// Repository persists user accounts.
type Repository interface {
	// GetByID loads a user, nil when absent.
	GetByID(ctx context.Context, id string) (*User, error)
	// GetByMobile loads a user by mobile number, nil when absent.
	GetByMobile(ctx context.Context, mobile string) (*User, error)
	// Insert persists a new user. ErrMobileConflict on a taken mobile.
	Insert(ctx context.Context, user *User) error
	// Update persists field changes. ErrNotFound when the id is absent,
	// ErrMobileConflict on a taken mobile.
	Update(ctx context.Context, user *User) error
	// Delete removes a user. ErrNotFound when no row was affected.
	Delete(ctx context.Context, id string) error
	// List returns matching users, newest first.
	List(ctx context.Context, filter ListFilter) ([]User, error)
}
