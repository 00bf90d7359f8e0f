package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	rates "github.com/dshinde1318/Milk-Management-System-backend/internal/rates/domain"
	supply "github.com/dshinde1318/Milk-Management-System-backend/internal/supply/domain"
	"github.com/dshinde1318/Milk-Management-System-backend/internal/supply/infrastructure/memory"
)

type stubIdentities struct {
	sellers map[string]bool
}

func (s *stubIdentities) SellerExists(ctx context.Context, id string) (bool, error) {
	_ = ctx
	return s.sellers[id], nil
}

func newService(t *testing.T, repo *memory.SupplyRepository) *Service {
	t.Helper()
	identities := &stubIdentities{sellers: map[string]bool{"seller-1": true, "seller-2": true}}
	svc, err := NewService(repo, identities)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func qty(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestCreate_AppliesDefaults(t *testing.T) {
	svc := newService(t, memory.NewSupplyRepository())

	entry, err := svc.Create(context.Background(), CreateInput{
		SellerID: "seller-1",
		Date:     time.Date(2026, time.February, 3, 15, 30, 0, 0, time.UTC),
		Quantity: qty("12.5"),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if entry.Unit != supply.UnitLiter || entry.Session != rates.SessionMorning || entry.MilkType != rates.MilkTypeCow {
		t.Fatalf("defaults not applied: %+v", entry)
	}
	if entry.Date.Hour() != 0 || entry.Date.Location() != time.UTC {
		t.Fatalf("date not normalized to UTC calendar day: %v", entry.Date)
	}
}

func TestCreate_UnknownSeller(t *testing.T) {
	svc := newService(t, memory.NewSupplyRepository())

	_, err := svc.Create(context.Background(), CreateInput{SellerID: "ghost", Quantity: qty("5")})
	if !errors.Is(err, supply.ErrSellerNotFound) {
		t.Fatalf("expected ErrSellerNotFound, got %v", err)
	}
}

func TestCreate_RequiresPositiveQuantity(t *testing.T) {
	svc := newService(t, memory.NewSupplyRepository())

	_, err := svc.Create(context.Background(), CreateInput{SellerID: "seller-1", Quantity: decimal.Zero})
	if !errors.Is(err, supply.ErrInvalidQuantity) {
		t.Fatalf("expected ErrInvalidQuantity, got %v", err)
	}
}

func TestQuery_FiltersAndOrders(t *testing.T) {
	repo := memory.NewSupplyRepository()
	svc := newService(t, repo)
	ctx := context.Background()

	day := func(d int) time.Time { return time.Date(2026, time.March, d, 0, 0, 0, 0, time.UTC) }
	for _, in := range []CreateInput{
		{SellerID: "seller-1", Date: day(1), Quantity: qty("10")},
		{SellerID: "seller-1", Date: day(3), Quantity: qty("8")},
		{SellerID: "seller-2", Date: day(2), Quantity: qty("6")},
	} {
		if _, err := svc.Create(ctx, in); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	list, err := svc.Query(ctx, supply.Filter{SellerID: "seller-1"})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(list))
	}
	if !list[0].Date.After(list[1].Date) {
		t.Fatalf("entries not newest first: %v then %v", list[0].Date, list[1].Date)
	}

	ranged, err := svc.Query(ctx, supply.Filter{From: day(2), To: day(3)})
	if err != nil {
		t.Fatalf("ranged query: %v", err)
	}
	if len(ranged) != 2 {
		t.Fatalf("range filter kept %d entries, want 2", len(ranged))
	}
}

func TestSellersSummary_BucketsAndOrder(t *testing.T) {
	repo := memory.NewSupplyRepository()
	svc := newService(t, repo)
	ctx := context.Background()

	repo.RegisterSeller("seller-1", "Asha", "9000000001")
	repo.RegisterSeller("seller-2", "Ravi", "9000000002")

	day := time.Date(2026, time.March, 5, 0, 0, 0, 0, time.UTC)
	for _, in := range []CreateInput{
		{SellerID: "seller-1", Date: day, Quantity: qty("10")},
		{SellerID: "seller-1", Date: day, Quantity: qty("4"), Unit: supply.UnitKilogram,
			Session: rates.SessionEvening, MilkType: rates.MilkTypeBuffalo},
		{SellerID: "seller-2", Date: day, Quantity: qty("20")},
	} {
		if _, err := svc.Create(ctx, in); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	rows, err := svc.SellersSummary(ctx, time.Time{}, time.Time{})
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 sellers, got %d", len(rows))
	}
	if rows[0].SellerID != "seller-2" || rows[0].SellerName != "Ravi" {
		t.Fatalf("largest volume seller not first: %+v", rows[0])
	}

	var asha supply.SellerSummary
	for _, row := range rows {
		if row.SellerID == "seller-1" {
			asha = row
		}
	}
	if asha.TotalEntries != 2 || asha.MorningEntries != 1 || asha.EveningEntries != 1 {
		t.Fatalf("entry buckets wrong: %+v", asha)
	}
	if asha.CowEntries != 1 || asha.BuffaloEntries != 1 {
		t.Fatalf("milk type buckets wrong: %+v", asha)
	}
	if !asha.TotalLiters.Equal(qty("10")) || !asha.TotalKg.Equal(qty("4")) {
		t.Fatalf("unit buckets wrong: L=%s kg=%s", asha.TotalLiters, asha.TotalKg)
	}
	if !asha.TotalQuantity.Equal(qty("14")) {
		t.Fatalf("total quantity = %s, want 14", asha.TotalQuantity)
	}
}
