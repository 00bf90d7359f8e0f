package rates

import "time"

// Lookup is the key a delivery is priced against.
type Lookup struct {
	MilkType MilkType
	Session  Session
	Date     time.Time
}

// Resolve picks the single applicable rate from a candidate set.
//
// Total order, first criterion wins:
//  1. exact session match ranks above a session-less (any) match
//  2. later effective-from wins (most recent applicable rate)
//  3. later created-at wins (newest entry among same-day rates)
//
// Reversing (2) and (3) changes historical pricing results; the order is part
// of the business rule, not an implementation detail. The result does not
// depend on the input ordering of candidates.
func Resolve(lookup Lookup, candidates []Rate) (*Rate, error) {
	if len(candidates) == 0 {
		return nil, &ResolutionError{
			MilkType: lookup.MilkType,
			Session:  lookup.Session,
			Date:     DateOnly(lookup.Date),
		}
	}

	winner := candidates[0]
	for _, candidate := range candidates[1:] {
		if outranks(candidate, winner, lookup.Session) {
			winner = candidate
		}
	}
	return &winner, nil
}

func outranks(a, b Rate, requested Session) bool {
	aExact := a.Session == requested
	bExact := b.Session == requested
	if aExact != bExact {
		return aExact
	}
	aFrom := DateOnly(a.EffectiveFrom)
	bFrom := DateOnly(b.EffectiveFrom)
	if !aFrom.Equal(bFrom) {
		return aFrom.After(bFrom)
	}
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	// Full tie: fall back to id so the winner is input-order independent.
	return a.ID > b.ID
}
