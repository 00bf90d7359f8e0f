package supply

import (
	"time"

	"github.com/shopspring/decimal"

	rates "github.com/dshinde1318/Milk-Management-System-backend/internal/rates/domain"
)

// Unit tokens recognized by the quantity buckets in the seller summary.
const (
	UnitLiter    = "L"
	UnitKilogram = "kg"
)

// Entry is one raw milk intake from a seller. Supply entries are unpriced;
// they feed the procurement summary only.
type Entry struct {
	ID        string          `json:"id"`
	SellerID  string          `json:"sellerId"`
	Date      time.Time       `json:"date"`
	Quantity  decimal.Decimal `json:"quantity"`
	Unit      string          `json:"unit"`
	Session   rates.Session   `json:"deliverySession"`
	MilkType  rates.MilkType  `json:"milkType"`
	Remarks   string          `json:"remarks,omitempty"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// SellerSummary is one seller's intake aggregate, joined to the seller's
// display identity. The session and milk type buckets count entries, not
// quantity.
type SellerSummary struct {
	SellerID       string          `json:"sellerId"`
	SellerName     string          `json:"sellerName"`
	SellerMobile   string          `json:"sellerMobile"`
	TotalEntries   int             `json:"totalEntries"`
	TotalQuantity  decimal.Decimal `json:"totalQuantity"`
	TotalLiters    decimal.Decimal `json:"totalLiters"`
	TotalKg        decimal.Decimal `json:"totalKg"`
	MorningEntries int             `json:"morningEntries"`
	EveningEntries int             `json:"eveningEntries"`
	CowEntries     int             `json:"cowEntries"`
	BuffaloEntries int             `json:"buffaloEntries"`
}

// Filter narrows entry listings. Zero values mean "no filter"; From/To are
// inclusive calendar dates. Pagination applies only when Page or Limit is set.
type Filter struct {
	SellerID string
	From     time.Time
	To       time.Time
	Page     int
	Limit    int
}
