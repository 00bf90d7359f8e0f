package billing

import (
	"github.com/shopspring/decimal"

	transactions "github.com/dshinde1318/Milk-Management-System-backend/internal/transactions/domain"
)

// Statement is a buyer's billing view over a period. It is a read-side
// projection built on demand, never persisted; PaymentsApplied stays zero
// until a payment ledger exists, so NetPayable equals TotalAmount.
type Statement struct {
	BuyerID           string                     `json:"buyerId"`
	Period            Period                     `json:"period"`
	TotalTransactions int                        `json:"totalTransactions"`
	TotalQuantity     decimal.Decimal            `json:"totalQuantity"`
	TotalAmount       decimal.Decimal            `json:"totalAmount"`
	PaymentsApplied   decimal.Decimal            `json:"paymentsApplied"`
	NetPayable        decimal.Decimal            `json:"netPayable"`
	Transactions      []transactions.Transaction `json:"transactions"`
}

// BuildStatement aggregates delivered entries into a statement. The entries
// are expected pre-filtered to the period and ordered by date descending.
func BuildStatement(buyerID string, period Period, entries []transactions.Transaction) *Statement {
	stmt := &Statement{
		BuyerID:         buyerID,
		Period:          period,
		TotalQuantity:   decimal.Zero,
		TotalAmount:     decimal.Zero,
		PaymentsApplied: decimal.Zero,
		Transactions:    entries,
	}
	for _, tx := range entries {
		stmt.TotalTransactions++
		stmt.TotalQuantity = stmt.TotalQuantity.Add(tx.Quantity)
		stmt.TotalAmount = stmt.TotalAmount.Add(tx.TotalAmount)
	}
	stmt.NetPayable = stmt.TotalAmount.Sub(stmt.PaymentsApplied)
	return stmt
}
