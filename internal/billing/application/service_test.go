package application

import (
	"context"
	"errors"
	"log"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dshinde1318/Milk-Management-System-backend/internal/auth"
	billing "github.com/dshinde1318/Milk-Management-System-backend/internal/billing/domain"
	rates "github.com/dshinde1318/Milk-Management-System-backend/internal/rates/domain"
	transactions "github.com/dshinde1318/Milk-Management-System-backend/internal/transactions/domain"
	"github.com/dshinde1318/Milk-Management-System-backend/internal/transactions/infrastructure/memory"
)

type chanNotifier struct {
	reminders chan decimal.Decimal
}

func (n *chanNotifier) NotifyPendingPayment(ctx context.Context, buyerID string, amount decimal.Decimal) {
	_ = ctx
	_ = buyerID
	n.reminders <- amount
}

func money(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func seedLedger(t *testing.T, repo *memory.TransactionRepository) {
	t.Helper()
	entries := []struct {
		id       string
		day      int
		quantity string
		status   transactions.Status
	}{
		{"tx-1", 3, "2", transactions.StatusDelivered},
		{"tx-2", 9, "3", transactions.StatusDelivered},
		{"tx-3", 12, "4", transactions.StatusCancelled},
	}
	for _, e := range entries {
		quantity := money(e.quantity)
		total := quantity.Mul(money("50"))
		if e.status != transactions.StatusDelivered {
			quantity, total = decimal.Zero, decimal.Zero
		}
		err := repo.Insert(context.Background(), &transactions.Transaction{
			ID:       e.id,
			SellerID: "seller-1", BuyerID: "buyer-1",
			Date:     time.Date(2024, time.April, e.day, 0, 0, 0, 0, time.UTC),
			Quantity: quantity, Unit: transactions.UnitLiter,
			Status: e.status, Session: rates.SessionMorning, MilkType: rates.MilkTypeCow,
			PricePerUnit: money("50"), TotalAmount: total,
			CreatedAt: time.Now(), UpdatedAt: time.Now(),
		})
		if err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
}

func newBillingService(t *testing.T, repo *memory.TransactionRepository, notifier Notifier) *Service {
	t.Helper()
	svc, err := NewService(repo, notifier, log.New(log.Writer(), "", 0))
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	svc.now = func() time.Time {
		return time.Date(2024, time.April, 20, 12, 0, 0, 0, time.UTC)
	}
	return svc
}

func TestStatement_AggregatesDeliveredOnly(t *testing.T) {
	repo := memory.NewTransactionRepository()
	seedLedger(t, repo)
	svc := newBillingService(t, repo, nil)

	stmt, err := svc.Statement(context.Background(), auth.RoleAdmin, "buyer-1", billing.PeriodInput{Month: "2024-04"})
	if err != nil {
		t.Fatalf("statement: %v", err)
	}
	if stmt.TotalTransactions != 2 {
		t.Fatalf("entry count = %d, want 2 (cancelled excluded)", stmt.TotalTransactions)
	}
	if !stmt.TotalQuantity.Equal(money("5")) || !stmt.TotalAmount.Equal(money("250")) {
		t.Fatalf("sums wrong: qty=%s amount=%s", stmt.TotalQuantity, stmt.TotalAmount)
	}
	if !stmt.PaymentsApplied.IsZero() || !stmt.NetPayable.Equal(stmt.TotalAmount) {
		t.Fatalf("payments=%s net=%s, want 0 and %s", stmt.PaymentsApplied, stmt.NetPayable, stmt.TotalAmount)
	}
	if len(stmt.Transactions) != 2 || !stmt.Transactions[0].Date.After(stmt.Transactions[1].Date) {
		t.Fatalf("entries not newest first")
	}
}

func TestStatement_DefaultsToCurrentMonth(t *testing.T) {
	repo := memory.NewTransactionRepository()
	seedLedger(t, repo)
	svc := newBillingService(t, repo, nil)

	stmt, err := svc.Statement(context.Background(), auth.RoleAdmin, "buyer-1", billing.PeriodInput{})
	if err != nil {
		t.Fatalf("statement: %v", err)
	}
	if stmt.Period.Month != "2024-04" {
		t.Fatalf("default period = %q, want clock month", stmt.Period.Month)
	}
	if stmt.TotalTransactions != 2 {
		t.Fatalf("entry count = %d", stmt.TotalTransactions)
	}
}

func TestStatement_RequiresAdmin(t *testing.T) {
	repo := memory.NewTransactionRepository()
	svc := newBillingService(t, repo, nil)

	_, err := svc.Statement(context.Background(), auth.RoleBuyer, "buyer-1", billing.PeriodInput{})
	if !errors.Is(err, auth.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestStatement_InvalidPeriodSurfaces(t *testing.T) {
	repo := memory.NewTransactionRepository()
	svc := newBillingService(t, repo, nil)

	_, err := svc.Statement(context.Background(), auth.RoleAdmin, "buyer-1", billing.PeriodInput{
		From: time.Date(2024, time.April, 1, 0, 0, 0, 0, time.UTC),
	})
	if !errors.Is(err, billing.ErrInvalidPeriod) {
		t.Fatalf("expected ErrInvalidPeriod, got %v", err)
	}
}

func TestStatement_RemindsWhenPayable(t *testing.T) {
	repo := memory.NewTransactionRepository()
	seedLedger(t, repo)
	notifier := &chanNotifier{reminders: make(chan decimal.Decimal, 1)}
	svc := newBillingService(t, repo, notifier)

	if _, err := svc.Statement(context.Background(), auth.RoleAdmin, "buyer-1", billing.PeriodInput{Month: "2024-04"}); err != nil {
		t.Fatalf("statement: %v", err)
	}

	select {
	case got := <-notifier.reminders:
		if !got.Equal(money("250")) {
			t.Fatalf("reminded amount = %s, want 250", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("payment reminder never sent")
	}
}

func TestStatement_NoReminderForEmptyPeriod(t *testing.T) {
	repo := memory.NewTransactionRepository()
	seedLedger(t, repo)
	notifier := &chanNotifier{reminders: make(chan decimal.Decimal, 1)}
	svc := newBillingService(t, repo, notifier)

	if _, err := svc.Statement(context.Background(), auth.RoleAdmin, "buyer-1", billing.PeriodInput{Month: "2023-01"}); err != nil {
		t.Fatalf("statement: %v", err)
	}

	select {
	case amount := <-notifier.reminders:
		t.Fatalf("unexpected reminder for zero balance: %s", amount)
	case <-time.After(100 * time.Millisecond):
	}
}
