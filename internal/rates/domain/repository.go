package rates

import (
	"context"
	"time"
)

// ListFilter narrows the administrative rate listing.
type ListFilter struct {
	MilkType MilkType
	// Session filters on a concrete session. When HasSession is false the
	// listing hides session-less rows unless IncludeAnySession is set.
	Session           Session
	HasSession        bool
	IncludeAnySession bool
	AsOfDate          time.Time
	IsActive          *bool
	Page              int
	Limit             int
}

// Repository persists rates and enforces the key uniqueness invariant.
type Repository interface {
	// FindByKey loads the rate for an exact key, nil when absent.
	FindByKey(ctx context.Context, key Key) (*Rate, error)
	// GetByID loads a rate, nil when absent.
	GetByID(ctx context.Context, id string) (*Rate, error)
	// Insert persists a new rate. Returns ErrConflict when the key is taken.
	Insert(ctx context.Context, rate *Rate) error
	// Update persists field changes. Returns ErrConflict when the new key is
	// taken, ErrNotFound when the id is absent.
	Update(ctx context.Context, rate *Rate) error
	// Delete removes a rate, ErrNotFound when the id is absent.
	Delete(ctx context.Context, id string) error
	// List returns rates ordered by effectiveFrom DESC, updatedAt DESC,
	// createdAt DESC.
	List(ctx context.Context, filter ListFilter) ([]Rate, error)
	// CandidatesFor returns active rates for the milk type whose
	// effective-from is on or before the date and whose session is the
	// requested one or session-less.
	CandidatesFor(ctx context.Context, milkType MilkType, session Session, onOrBefore time.Time) ([]Rate, error)
}
