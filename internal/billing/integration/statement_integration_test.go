package integration_test

import (
	"context"
	"database/sql"
	"io"
	"log"
	"os"
	"path/filepath"
	"testing"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/shopspring/decimal"

	"github.com/dshinde1318/Milk-Management-System-backend/internal/auth"
	billingapp "github.com/dshinde1318/Milk-Management-System-backend/internal/billing/application"
	billing "github.com/dshinde1318/Milk-Management-System-backend/internal/billing/domain"
	rateapp "github.com/dshinde1318/Milk-Management-System-backend/internal/rates/application"
	rates "github.com/dshinde1318/Milk-Management-System-backend/internal/rates/domain"
	raterepo "github.com/dshinde1318/Milk-Management-System-backend/internal/rates/infrastructure/postgres"
	txapp "github.com/dshinde1318/Milk-Management-System-backend/internal/transactions/application"
	transactions "github.com/dshinde1318/Milk-Management-System-backend/internal/transactions/domain"
	txrepo "github.com/dshinde1318/Milk-Management-System-backend/internal/transactions/infrastructure/postgres"
	userapp "github.com/dshinde1318/Milk-Management-System-backend/internal/users/application"
	userrepo "github.com/dshinde1318/Milk-Management-System-backend/internal/users/infrastructure/postgres"
)

// Walks the full path a delivery takes: register accounts, publish a rate,
// record deliveries priced off that rate, then build the monthly statement.
func TestStatement_CreatePriceBillLoop(t *testing.T) {
	dsn := os.Getenv("PG_DSN")
	if dsn == "" {
		t.Skip("PG_DSN not set")
	}

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer db.Close()

	if err := applyMigrations(db, "001_users.sql", "002_milk_rates.sql", "003_milk_transactions.sql"); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}

	ctx := context.Background()
	for _, table := range []string{"milk_transactions", "milk_rates", "users"} {
		if _, err := db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			t.Fatalf("truncate %s: %v", table, err)
		}
	}

	logger := log.New(io.Discard, "", 0)

	userService, err := userapp.NewService(userrepo.NewUserRepository(db), []byte("integration-secret"), time.Hour)
	if err != nil {
		t.Fatalf("user service: %v", err)
	}
	rateService, err := rateapp.NewService(raterepo.NewRateRepository(db))
	if err != nil {
		t.Fatalf("rate service: %v", err)
	}
	transactionRepo := txrepo.NewTransactionRepository(db)
	ledger, err := txapp.NewService(transactionRepo, rateService, userService, nil, logger)
	if err != nil {
		t.Fatalf("ledger service: %v", err)
	}
	billingService, err := billingapp.NewService(transactionRepo, nil, logger)
	if err != nil {
		t.Fatalf("billing service: %v", err)
	}

	seller, err := userService.Create(ctx, auth.RoleAdmin, userapp.CreateInput{
		Name:     "Dairy Seller",
		Mobile:   "9100000001",
		Role:     auth.RoleSeller,
		Password: "seller-pass",
	})
	if err != nil {
		t.Fatalf("create seller: %v", err)
	}
	buyer, err := userService.CreateBuyer(ctx, auth.RoleAdmin, userapp.CreateInput{
		Name:     "Daily Buyer",
		Mobile:   "9100000002",
		Password: "buyer-pass",
	})
	if err != nil {
		t.Fatalf("create buyer: %v", err)
	}

	_, err = rateService.Upsert(ctx, auth.RoleAdmin, rateapp.UpsertInput{
		MilkType:      rates.MilkTypeBuffalo,
		Session:       rates.SessionEvening,
		PricePerUnit:  decimal.RequireFromString("65.00"),
		EffectiveFrom: time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("upsert rate: %v", err)
	}

	for day := 5; day <= 7; day++ {
		_, err := ledger.Create(ctx, seller.ID, txapp.CreateInput{
			BuyerID:  buyer.ID,
			Date:     time.Date(2026, time.January, day, 0, 0, 0, 0, time.UTC),
			Quantity: decimal.RequireFromString("2"),
			Status:   transactions.StatusDelivered,
			Session:  rates.SessionEvening,
			MilkType: rates.MilkTypeBuffalo,
		})
		if err != nil {
			t.Fatalf("create delivery day %d: %v", day, err)
		}
	}
	// Cancelled entries must not bill.
	_, err = ledger.Create(ctx, seller.ID, txapp.CreateInput{
		BuyerID:  buyer.ID,
		Date:     time.Date(2026, time.January, 8, 0, 0, 0, 0, time.UTC),
		Status:   transactions.StatusCancelled,
		Session:  rates.SessionEvening,
		MilkType: rates.MilkTypeBuffalo,
	})
	if err != nil {
		t.Fatalf("create cancelled entry: %v", err)
	}

	stmt, err := billingService.Statement(ctx, auth.RoleAdmin, buyer.ID, billing.PeriodInput{Month: "2026-01"})
	if err != nil {
		t.Fatalf("statement: %v", err)
	}

	if stmt.TotalTransactions != 3 {
		t.Fatalf("TotalTransactions = %d, want 3", stmt.TotalTransactions)
	}
	if !stmt.TotalQuantity.Equal(decimal.RequireFromString("6")) {
		t.Fatalf("TotalQuantity = %s, want 6", stmt.TotalQuantity)
	}
	if !stmt.TotalAmount.Equal(decimal.RequireFromString("390.00")) {
		t.Fatalf("TotalAmount = %s, want 390.00", stmt.TotalAmount)
	}
	if !stmt.NetPayable.Equal(stmt.TotalAmount) {
		t.Fatalf("NetPayable = %s, want %s", stmt.NetPayable, stmt.TotalAmount)
	}

	stats, err := ledger.AllSellersStats(ctx, time.Time{}, time.Time{}, transactions.StatusDelivered)
	if err != nil {
		t.Fatalf("seller stats: %v", err)
	}
	if len(stats) != 1 || stats[0].SellerID != seller.ID {
		t.Fatalf("unexpected seller stats: %+v", stats)
	}
	if !stats[0].TotalQuantity.Equal(decimal.RequireFromString("6")) {
		t.Fatalf("stats quantity = %s, want 6", stats[0].TotalQuantity)
	}
}

func applyMigrations(db *sql.DB, files ...string) error {
	root := projectRoot()
	for _, file := range files {
		content, err := os.ReadFile(filepath.Join(root, "migrations", file))
		if err != nil {
			return err
		}
		if _, err := db.Exec(string(content)); err != nil {
			return err
		}
	}
	return nil
}

func projectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return "."
	}
	return filepath.Clean(filepath.Join(dir, "..", "..", ".."))
}
