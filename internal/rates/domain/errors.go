package rates

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrRateNotFound is returned when no active rate matches a lookup key.
	// This is a business data gap, not a system fault.
	ErrRateNotFound = errors.New("rates: no applicable rate")
	// ErrNotFound is returned when a referenced rate id is absent.
	ErrNotFound = errors.New("rates: rate not found")
	// ErrConflict is returned when a rate key collides with an existing rate.
	ErrConflict = errors.New("rates: rate already exists for this milkType/session/effectiveFrom combination")
	// ErrNegativePrice is returned when a rate price is negative.
	ErrNegativePrice = errors.New("rates: negative price")
)

// ResolutionError carries the lookup key that failed to resolve.
type ResolutionError struct {
	MilkType MilkType
	Session  Session
	Date     time.Time
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("rates: no active rate for milkType=%s, session=%s, date=%s",
		e.MilkType, e.Session, e.Date.Format("2006-01-02"))
}

// Is lets callers match the error with errors.Is(err, ErrRateNotFound).
func (e *ResolutionError) Is(target error) bool { return target == ErrRateNotFound }

// ConflictError names the pre-existing rate a mutation collided with.
// ConflictingRateID is empty when the collision surfaced as a storage
// constraint violation (race resolved by the unique index).
type ConflictError struct {
	ConflictingRateID string
}

func (e *ConflictError) Error() string {
	if e.ConflictingRateID == "" {
		return ErrConflict.Error()
	}
	return fmt.Sprintf("%s (conflicting rate %s)", ErrConflict.Error(), e.ConflictingRateID)
}

// Is lets callers match the error with errors.Is(err, ErrConflict).
func (e *ConflictError) Is(target error) bool { return target == ErrConflict }
