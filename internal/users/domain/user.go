package users

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/dshinde1318/Milk-Management-System-backend/internal/auth"
)

// User is an account in the directory: admin, seller, or buyer.
// OpeningAmount and PendingAmount are carried balances from before the ledger
// took over; the billing view does not consume them yet.
type User struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	Mobile        string          `json:"mobile"`
	Email         string          `json:"email,omitempty"`
	Address       string          `json:"address,omitempty"`
	Role          auth.Role       `json:"role"`
	PasswordHash  string          `json:"-"`
	IsActive      bool            `json:"isActive"`
	OpeningAmount decimal.Decimal `json:"openingAmount"`
	PendingAmount decimal.Decimal `json:"pendingAmount"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

// Sanitized returns a copy safe for responses.
func (u User) Sanitized() User {
	u.PasswordHash = ""
	return u
}
