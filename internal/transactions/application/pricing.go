package application

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	rates "github.com/dshinde1318/Milk-Management-System-backend/internal/rates/domain"
	transactions "github.com/dshinde1318/Milk-Management-System-backend/internal/transactions/domain"
)

// Pricer resolves the applicable price per unit for a lookup key.
// The rate schedule service satisfies this.
type Pricer interface {
	Resolve(ctx context.Context, lookup rates.Lookup) (decimal.Decimal, error)
}

// priceForDelivery snapshots a price onto a delivery. Non-delivered entries
// are never priced; resolution failures propagate so a delivery is not
// silently stored unpriced. The lookup uses the calendar date only.
func priceForDelivery(ctx context.Context, pricer Pricer, status transactions.Status, milkType rates.MilkType, session rates.Session, date time.Time, quantity decimal.Decimal) (decimal.Decimal, decimal.Decimal, error) {
	if status != transactions.StatusDelivered {
		return decimal.Zero, decimal.Zero, nil
	}
	pricePerUnit, err := pricer.Resolve(ctx, rates.Lookup{
		MilkType: milkType,
		Session:  session,
		Date:     rates.DateOnly(date),
	})
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	return pricePerUnit, quantity.Mul(pricePerUnit), nil
}

// repriceNeeded decides whether a stored transaction must consult the
// resolver again. Date is part of the trigger set: the delivery date selects
// the rate, so moving it invalidates the cached snapshot.
func repriceNeeded(tx *transactions.Transaction, patch UpdatePatch) bool {
	if !tx.PricePerUnit.IsPositive() {
		return true
	}
	return patch.MilkType != nil || patch.Session != nil || patch.Status != nil || patch.Date != nil
}
