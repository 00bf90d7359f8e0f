package supply

import (
	"context"
	"time"
)

// Repository persists supply entries.
type Repository interface {
	// Insert persists a new entry.
	Insert(ctx context.Context, entry *Entry) error
	// Query returns matching entries ordered by date descending.
	Query(ctx context.Context, filter Filter) ([]Entry, error)
	// SellerSummaries aggregates per seller, joined to seller identity,
	// ordered by total quantity descending. Zero bounds leave the range open.
	SellerSummaries(ctx context.Context, from, to time.Time) ([]SellerSummary, error)
}
