package rates

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func rate(id string, session Session, effectiveFrom, createdAt time.Time, price string) Rate {
	return Rate{
		ID:            id,
		MilkType:      MilkTypeCow,
		Session:       session,
		PricePerUnit:  decimal.RequireFromString(price),
		EffectiveFrom: effectiveFrom,
		IsActive:      true,
		CreatedAt:     createdAt,
	}
}

func TestResolve_ExactSessionBeatsLaterGeneralRate(t *testing.T) {
	created := date(2024, time.January, 1)
	candidates := []Rate{
		rate("r-evening", SessionEvening, date(2024, time.January, 1), created, "52.00"),
		rate("r-any", SessionAny, date(2024, time.January, 5), created, "48.00"),
	}
	lookup := Lookup{MilkType: MilkTypeCow, Session: SessionEvening, Date: date(2024, time.January, 10)}

	winner, err := Resolve(lookup, candidates)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if winner.ID != "r-evening" {
		t.Fatalf("expected session-specific rate to win, got %s", winner.ID)
	}
}

func TestResolve_LaterEffectiveFromWinsAmongGeneralRates(t *testing.T) {
	created := date(2024, time.January, 1)
	candidates := []Rate{
		rate("r-old", SessionAny, date(2024, time.January, 1), created, "45.00"),
		rate("r-new", SessionAny, date(2024, time.January, 5), created, "47.00"),
	}
	lookup := Lookup{MilkType: MilkTypeCow, Session: SessionMorning, Date: date(2024, time.January, 10)}

	winner, err := Resolve(lookup, candidates)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if winner.ID != "r-new" {
		t.Fatalf("expected later effective-from to win, got %s", winner.ID)
	}
}

func TestResolve_LaterCreatedAtWinsAmongSameDayRates(t *testing.T) {
	from := date(2024, time.March, 1)
	candidates := []Rate{
		rate("r-first", SessionMorning, from, time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC), "50.00"),
		rate("r-second", SessionMorning, from, time.Date(2024, 3, 1, 17, 0, 0, 0, time.UTC), "51.00"),
	}
	lookup := Lookup{MilkType: MilkTypeCow, Session: SessionMorning, Date: date(2024, time.March, 2)}

	winner, err := Resolve(lookup, candidates)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if winner.ID != "r-second" {
		t.Fatalf("expected newest same-day entry to win, got %s", winner.ID)
	}
}

func TestResolve_OrderIndependentAndDeterministic(t *testing.T) {
	created := date(2024, time.January, 2)
	candidates := []Rate{
		rate("r-a", SessionAny, date(2024, time.January, 5), created, "48.00"),
		rate("r-b", SessionEvening, date(2024, time.January, 1), created, "52.00"),
		rate("r-c", SessionAny, date(2024, time.January, 3), created, "46.00"),
	}
	lookup := Lookup{MilkType: MilkTypeCow, Session: SessionEvening, Date: date(2024, time.January, 10)}

	first, err := Resolve(lookup, candidates)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	reversed := []Rate{candidates[2], candidates[1], candidates[0]}
	for i := 0; i < 5; i++ {
		winner, err := Resolve(lookup, reversed)
		if err != nil {
			t.Fatalf("resolve: %v", err)
		}
		if winner.ID != first.ID {
			t.Fatalf("resolution depends on candidate order: %s vs %s", winner.ID, first.ID)
		}
	}
}

func TestResolve_EmptyCandidatesCarriesLookupKey(t *testing.T) {
	lookup := Lookup{MilkType: MilkTypeBuffalo, Session: SessionMorning, Date: date(2024, time.June, 1)}

	_, err := Resolve(lookup, nil)
	if !errors.Is(err, ErrRateNotFound) {
		t.Fatalf("expected ErrRateNotFound, got %v", err)
	}
	var resErr *ResolutionError
	if !errors.As(err, &resErr) {
		t.Fatalf("expected ResolutionError, got %T", err)
	}
	if resErr.MilkType != MilkTypeBuffalo || resErr.Session != SessionMorning {
		t.Fatalf("resolution error lost lookup key: %+v", resErr)
	}
	if !resErr.Date.Equal(date(2024, time.June, 1)) {
		t.Fatalf("resolution error lost lookup date: %v", resErr.Date)
	}
}
