package transactions

import (
	"time"

	"github.com/shopspring/decimal"

	rates "github.com/dshinde1318/Milk-Management-System-backend/internal/rates/domain"
)

// Status is the lifecycle state of a delivery record.
type Status string

const (
	StatusPending   Status = "pending"
	StatusDelivered Status = "delivered"
	StatusCancelled Status = "cancelled"
)

// NormalizeStatus validates a status string.
func NormalizeStatus(value string) (Status, bool) {
	switch Status(value) {
	case StatusPending, StatusDelivered, StatusCancelled:
		return Status(value), true
	default:
		return "", false
	}
}

// Unit tokens recognized by the quantity buckets in stats.
const (
	UnitLiter    = "L"
	UnitKilogram = "kg"
)

// Transaction is one seller to buyer delivery event. PricePerUnit and
// TotalAmount are snapshots taken when the record was last priced; later rate
// changes never touch them.
type Transaction struct {
	ID           string          `json:"id"`
	SellerID     string          `json:"sellerId"`
	BuyerID      string          `json:"buyerId"`
	Date         time.Time       `json:"date"`
	Quantity     decimal.Decimal `json:"quantity"`
	Unit         string          `json:"unit"`
	Status       Status          `json:"status"`
	Session      rates.Session   `json:"deliverySession"`
	MilkType     rates.MilkType  `json:"milkType"`
	Remarks      string          `json:"remarks,omitempty"`
	PricePerUnit decimal.Decimal `json:"pricePerUnit"`
	TotalAmount  decimal.Decimal `json:"totalAmount"`
	CreatedAt    time.Time       `json:"createdAt"`
	UpdatedAt    time.Time       `json:"updatedAt"`
}

// Stats aggregates a party's transactions over a range.
type Stats struct {
	TotalTransactions int             `json:"totalTransactions"`
	TotalQuantity     decimal.Decimal `json:"totalQuantity"`
	TotalLiters       decimal.Decimal `json:"totalLiters"`
	TotalKg           decimal.Decimal `json:"totalKg"`
	TotalAmount       decimal.Decimal `json:"totalAmount"`
	DeliveredCount    int             `json:"deliveredCount"`
	Transactions      []Transaction   `json:"transactions"`
}

// SellerStatsRow is one seller's aggregate in the grouped dashboard view,
// joined to the seller's display identity.
type SellerStatsRow struct {
	SellerID          string          `json:"sellerId"`
	SellerName        string          `json:"sellerName"`
	SellerMobile      string          `json:"sellerMobile"`
	TotalTransactions int             `json:"totalTransactions"`
	TotalQuantity     decimal.Decimal `json:"totalQuantity"`
	TotalLiters       decimal.Decimal `json:"totalLiters"`
	TotalKg           decimal.Decimal `json:"totalKg"`
	TotalAmount       decimal.Decimal `json:"totalAmount"`
	DeliveredCount    int             `json:"deliveredCount"`
}
