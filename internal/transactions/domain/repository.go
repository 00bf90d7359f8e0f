package transactions

import (
	"context"
	"time"
)

// Filter narrows ledger queries. Zero values mean "no filter"; From/To are
// inclusive calendar dates and may be supplied independently.
type Filter struct {
	SellerID string
	BuyerID  string
	Status   Status
	From     time.Time
	To       time.Time
}

// Repository persists delivery records.
type Repository interface {
	// GetByID loads a transaction, nil when absent.
	GetByID(ctx context.Context, id string) (*Transaction, error)
	// Insert persists a new transaction.
	Insert(ctx context.Context, tx *Transaction) error
	// Update persists field changes. ErrNotFound when the id is absent.
	Update(ctx context.Context, tx *Transaction) error
	// Delete removes a transaction. ErrNotFound when no row was affected.
	Delete(ctx context.Context, id string) error
	// Query returns matching transactions ordered by date descending.
	Query(ctx context.Context, filter Filter) ([]Transaction, error)
	// GroupedSellerStats aggregates per seller, joined to seller identity,
	// ordered by total quantity descending. Zero bounds leave the range
	// open; empty status matches all.
	GroupedSellerStats(ctx context.Context, from, to time.Time, status Status) ([]SellerStatsRow, error)
}
