package application

import (
	"context"
	"errors"
	"log"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	rates "github.com/dshinde1318/Milk-Management-System-backend/internal/rates/domain"
	transactions "github.com/dshinde1318/Milk-Management-System-backend/internal/transactions/domain"
	"github.com/dshinde1318/Milk-Management-System-backend/internal/transactions/infrastructure/memory"
)

type stubPricer struct {
	price    decimal.Decimal
	err      error
	resolves atomic.Int64
}

func (p *stubPricer) Resolve(ctx context.Context, lookup rates.Lookup) (decimal.Decimal, error) {
	_ = ctx
	_ = lookup
	p.resolves.Add(1)
	if p.err != nil {
		return decimal.Zero, p.err
	}
	return p.price, nil
}

type stubIdentities struct {
	sellers map[string]bool
	buyers  map[string]bool
}

func (s *stubIdentities) SellerExists(ctx context.Context, id string) (bool, error) {
	_ = ctx
	return s.sellers[id], nil
}

func (s *stubIdentities) BuyerExists(ctx context.Context, id string) (bool, error) {
	_ = ctx
	return s.buyers[id], nil
}

type delivered struct {
	sellerID string
	quantity decimal.Decimal
}

type chanNotifier struct {
	delivered chan delivered
}

func (n *chanNotifier) NotifyDelivery(ctx context.Context, sellerID, buyerID string, quantity decimal.Decimal) {
	_ = ctx
	_ = buyerID
	n.delivered <- delivered{sellerID: sellerID, quantity: quantity}
}

type fixture struct {
	svc      *Service
	repo     *memory.TransactionRepository
	pricer   *stubPricer
	notifier *chanNotifier
}

func newFixture(t *testing.T, price string) *fixture {
	t.Helper()
	repo := memory.NewTransactionRepository()
	pricer := &stubPricer{price: decimal.RequireFromString(price)}
	identities := &stubIdentities{
		sellers: map[string]bool{"seller-1": true},
		buyers:  map[string]bool{"buyer-1": true},
	}
	notifier := &chanNotifier{delivered: make(chan delivered, 1)}
	svc, err := NewService(repo, pricer, identities, notifier, log.New(log.Writer(), "", 0))
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return &fixture{svc: svc, repo: repo, pricer: pricer, notifier: notifier}
}

func qty(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestCreate_AppliesDefaultsAndPrices(t *testing.T) {
	f := newFixture(t, "50.00")

	tx, err := f.svc.Create(context.Background(), "seller-1", CreateInput{
		BuyerID:  "buyer-1",
		Quantity: qty("2"),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if tx.Unit != transactions.UnitLiter || tx.Session != rates.SessionMorning ||
		tx.MilkType != rates.MilkTypeCow || tx.Status != transactions.StatusDelivered {
		t.Fatalf("defaults not applied: %+v", tx)
	}
	if !tx.PricePerUnit.Equal(qty("50.00")) || !tx.TotalAmount.Equal(qty("100.00")) {
		t.Fatalf("pricing snapshot wrong: price=%s total=%s", tx.PricePerUnit, tx.TotalAmount)
	}
	if tx.Date.Hour() != 0 || tx.Date.Location() != time.UTC {
		t.Fatalf("date not normalized to UTC calendar day: %v", tx.Date)
	}
}

func TestCreate_DeliveredRequiresPositiveQuantity(t *testing.T) {
	f := newFixture(t, "50.00")

	_, err := f.svc.Create(context.Background(), "seller-1", CreateInput{
		BuyerID:  "buyer-1",
		Quantity: decimal.Zero,
	})
	if !errors.Is(err, transactions.ErrInvalidQuantity) {
		t.Fatalf("expected ErrInvalidQuantity, got %v", err)
	}
}

func TestCreate_PendingStaysUnpriced(t *testing.T) {
	f := newFixture(t, "50.00")

	tx, err := f.svc.Create(context.Background(), "seller-1", CreateInput{
		BuyerID:  "buyer-1",
		Quantity: qty("3"),
		Status:   transactions.StatusPending,
	})
	if err != nil {
		t.Fatalf("create pending: %v", err)
	}
	if !tx.Quantity.IsZero() || !tx.PricePerUnit.IsZero() || !tx.TotalAmount.IsZero() {
		t.Fatalf("pending entry carries economic fields: %+v", tx)
	}
	if f.pricer.resolves.Load() != 0 {
		t.Fatalf("resolver consulted for a pending entry")
	}
}

func TestCreate_UnknownParties(t *testing.T) {
	f := newFixture(t, "50.00")
	ctx := context.Background()

	_, err := f.svc.Create(ctx, "ghost", CreateInput{BuyerID: "buyer-1", Quantity: qty("1")})
	if !errors.Is(err, transactions.ErrSellerNotFound) {
		t.Fatalf("expected ErrSellerNotFound, got %v", err)
	}
	_, err = f.svc.Create(ctx, "seller-1", CreateInput{BuyerID: "ghost", Quantity: qty("1")})
	if !errors.Is(err, transactions.ErrBuyerNotFound) {
		t.Fatalf("expected ErrBuyerNotFound, got %v", err)
	}
}

func TestCreate_MissingRatePropagates(t *testing.T) {
	f := newFixture(t, "0")
	f.pricer.err = &rates.ResolutionError{MilkType: rates.MilkTypeCow, Session: rates.SessionMorning}

	_, err := f.svc.Create(context.Background(), "seller-1", CreateInput{
		BuyerID:  "buyer-1",
		Quantity: qty("2"),
	})
	if !errors.Is(err, rates.ErrRateNotFound) {
		t.Fatalf("expected rate resolution failure to surface, got %v", err)
	}
}

func TestCreate_NotifiesBuyerOnDelivery(t *testing.T) {
	f := newFixture(t, "50.00")

	if _, err := f.svc.Create(context.Background(), "seller-1", CreateInput{
		BuyerID:  "buyer-1",
		Quantity: qty("2.5"),
	}); err != nil {
		t.Fatalf("create: %v", err)
	}

	select {
	case got := <-f.notifier.delivered:
		if !got.quantity.Equal(qty("2.5")) {
			t.Fatalf("notified quantity = %s, want 2.5", got.quantity)
		}
		if got.sellerID != "seller-1" {
			t.Fatalf("notified seller = %q, want seller-1", got.sellerID)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("delivery notification never sent")
	}
}

func TestUpdate_QuantityOnlyKeepsSnapshot(t *testing.T) {
	f := newFixture(t, "50.00")
	ctx := context.Background()

	tx, err := f.svc.Create(ctx, "seller-1", CreateInput{BuyerID: "buyer-1", Quantity: qty("2")})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	before := f.pricer.resolves.Load()

	newQty := qty("4")
	updated, err := f.svc.Update(ctx, tx.ID, UpdatePatch{Quantity: &newQty})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if f.pricer.resolves.Load() != before {
		t.Fatalf("quantity-only change re-resolved the rate")
	}
	if !updated.PricePerUnit.Equal(qty("50.00")) || !updated.TotalAmount.Equal(qty("200.00")) {
		t.Fatalf("snapshot arithmetic wrong: price=%s total=%s", updated.PricePerUnit, updated.TotalAmount)
	}
}

func TestUpdate_DateChangeReprices(t *testing.T) {
	f := newFixture(t, "50.00")
	ctx := context.Background()

	tx, err := f.svc.Create(ctx, "seller-1", CreateInput{BuyerID: "buyer-1", Quantity: qty("2")})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	f.pricer.price = qty("60.00")
	moved := time.Date(2024, time.March, 10, 0, 0, 0, 0, time.UTC)
	updated, err := f.svc.Update(ctx, tx.ID, UpdatePatch{Date: &moved})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if !updated.PricePerUnit.Equal(qty("60.00")) || !updated.TotalAmount.Equal(qty("120.00")) {
		t.Fatalf("date move did not reprice: price=%s total=%s", updated.PricePerUnit, updated.TotalAmount)
	}
}

func TestUpdate_CancellationZeroesEconomicFields(t *testing.T) {
	f := newFixture(t, "50.00")
	ctx := context.Background()

	tx, err := f.svc.Create(ctx, "seller-1", CreateInput{BuyerID: "buyer-1", Quantity: qty("2")})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	cancelled := transactions.StatusCancelled
	updated, err := f.svc.Update(ctx, tx.ID, UpdatePatch{Status: &cancelled})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if !updated.Quantity.IsZero() || !updated.PricePerUnit.IsZero() || !updated.TotalAmount.IsZero() {
		t.Fatalf("cancelled entry keeps economic fields: %+v", updated)
	}
}

func TestUpdate_RedeliveryRepricesFromZero(t *testing.T) {
	f := newFixture(t, "50.00")
	ctx := context.Background()

	tx, err := f.svc.Create(ctx, "seller-1", CreateInput{BuyerID: "buyer-1", Quantity: qty("2")})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	cancelled := transactions.StatusCancelled
	if _, err := f.svc.Update(ctx, tx.ID, UpdatePatch{Status: &cancelled}); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	delivered := transactions.StatusDelivered
	restored := qty("3")
	updated, err := f.svc.Update(ctx, tx.ID, UpdatePatch{Status: &delivered, Quantity: &restored})
	if err != nil {
		t.Fatalf("redeliver: %v", err)
	}
	if !updated.PricePerUnit.Equal(qty("50.00")) || !updated.TotalAmount.Equal(qty("150.00")) {
		t.Fatalf("redelivery not repriced: price=%s total=%s", updated.PricePerUnit, updated.TotalAmount)
	}
}

func TestUpdate_AbsentTransaction(t *testing.T) {
	f := newFixture(t, "50.00")
	_, err := f.svc.Update(context.Background(), "missing", UpdatePatch{})
	if !errors.Is(err, transactions.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestStats_BucketsByUnit(t *testing.T) {
	f := newFixture(t, "50.00")
	ctx := context.Background()

	if _, err := f.svc.Create(ctx, "seller-1", CreateInput{BuyerID: "buyer-1", Quantity: qty("2")}); err != nil {
		t.Fatalf("create liters: %v", err)
	}
	if _, err := f.svc.Create(ctx, "seller-1", CreateInput{
		BuyerID: "buyer-1", Quantity: qty("1.5"), Unit: transactions.UnitKilogram,
	}); err != nil {
		t.Fatalf("create kg: %v", err)
	}
	if _, err := f.svc.Create(ctx, "seller-1", CreateInput{
		BuyerID: "buyer-1", Quantity: qty("9"), Status: transactions.StatusCancelled,
	}); err != nil {
		t.Fatalf("create cancelled: %v", err)
	}

	stats, err := f.svc.StatsForSeller(ctx, "seller-1", time.Time{}, time.Time{})
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.TotalTransactions != 3 || stats.DeliveredCount != 2 {
		t.Fatalf("counts wrong: %+v", stats)
	}
	if !stats.TotalLiters.Equal(qty("2")) || !stats.TotalKg.Equal(qty("1.5")) {
		t.Fatalf("unit buckets wrong: L=%s kg=%s", stats.TotalLiters, stats.TotalKg)
	}
	if !stats.TotalAmount.Equal(qty("175.00")) {
		t.Fatalf("total amount = %s, want 175.00", stats.TotalAmount)
	}
}

func TestAllSellersStats_OrderedByVolume(t *testing.T) {
	f := newFixture(t, "50.00")
	ctx := context.Background()

	f.repo.RegisterSeller("seller-1", "Asha", "9000000001")
	f.repo.RegisterSeller("seller-2", "Ravi", "9000000002")

	now := rates.DateOnly(time.Now())
	insert := func(seller string, quantity string) {
		t.Helper()
		err := f.repo.Insert(ctx, &transactions.Transaction{
			ID: seller + "-" + quantity, SellerID: seller, BuyerID: "buyer-1",
			Date: now, Quantity: qty(quantity), Unit: transactions.UnitLiter,
			Status: transactions.StatusDelivered, Session: rates.SessionMorning,
			MilkType:     rates.MilkTypeCow,
			PricePerUnit: qty("50"), TotalAmount: qty(quantity).Mul(qty("50")),
			CreatedAt: time.Now(), UpdatedAt: time.Now(),
		})
		if err != nil {
			t.Fatalf("insert: %v", err)
		}
	}
	insert("seller-1", "2")
	insert("seller-2", "7")

	rows, err := f.svc.AllSellersStats(ctx, now.AddDate(0, 0, -1), now.AddDate(0, 0, 1), transactions.StatusDelivered)
	if err != nil {
		t.Fatalf("grouped stats: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 sellers, got %d", len(rows))
	}
	if rows[0].SellerID != "seller-2" || rows[0].SellerName != "Ravi" {
		t.Fatalf("largest volume seller not first: %+v", rows[0])
	}
}
