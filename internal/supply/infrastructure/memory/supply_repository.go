package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	rates "github.com/dshinde1318/Milk-Management-System-backend/internal/rates/domain"
	supply "github.com/dshinde1318/Milk-Management-System-backend/internal/supply/domain"
)

// SupplyRepository is an in-memory supply store for tests.
type SupplyRepository struct {
	mu      sync.RWMutex
	data    map[string]supply.Entry
	sellers map[string]sellerIdentity
}

type sellerIdentity struct {
	name   string
	mobile string
}

// NewSupplyRepository constructs a repository.
func NewSupplyRepository() *SupplyRepository {
	return &SupplyRepository{
		data:    make(map[string]supply.Entry),
		sellers: make(map[string]sellerIdentity),
	}
}

// RegisterSeller records the identity joined into seller summaries.
func (r *SupplyRepository) RegisterSeller(id, name, mobile string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sellers[id] = sellerIdentity{name: name, mobile: mobile}
}

// Insert persists a new entry.
func (r *SupplyRepository) Insert(ctx context.Context, entry *supply.Entry) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data[entry.ID] = *entry
	return nil
}

// Query returns matching entries, newest date first.
func (r *SupplyRepository) Query(ctx context.Context, filter supply.Filter) ([]supply.Entry, error) {
	_ = ctx
	r.mu.RLock()
	var result []supply.Entry
	for _, entry := range r.data {
		if !matches(entry, filter.SellerID, filter.From, filter.To) {
			continue
		}
		result = append(result, entry)
	}
	r.mu.RUnlock()

	sort.Slice(result, func(i, j int) bool {
		a, b := result[i], result[j]
		if !a.Date.Equal(b.Date) {
			return a.Date.After(b.Date)
		}
		return a.CreatedAt.After(b.CreatedAt)
	})

	if filter.Page > 0 || filter.Limit > 0 {
		page := filter.Page
		if page < 1 {
			page = 1
		}
		limit := filter.Limit
		if limit < 1 {
			limit = 50
		}
		offset := (page - 1) * limit
		if offset >= len(result) {
			return nil, nil
		}
		end := offset + limit
		if end > len(result) {
			end = len(result)
		}
		result = result[offset:end]
	}
	return result, nil
}

// SellerSummaries aggregates intake per seller, largest total quantity first.
func (r *SupplyRepository) SellerSummaries(ctx context.Context, from, to time.Time) ([]supply.SellerSummary, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()

	grouped := make(map[string]*supply.SellerSummary)
	for _, entry := range r.data {
		if !matches(entry, "", from, to) {
			continue
		}
		row, ok := grouped[entry.SellerID]
		if !ok {
			identity := r.sellers[entry.SellerID]
			row = &supply.SellerSummary{
				SellerID:      entry.SellerID,
				SellerName:    identity.name,
				SellerMobile:  identity.mobile,
				TotalQuantity: decimal.Zero,
				TotalLiters:   decimal.Zero,
				TotalKg:       decimal.Zero,
			}
			grouped[entry.SellerID] = row
		}
		row.TotalEntries++
		row.TotalQuantity = row.TotalQuantity.Add(entry.Quantity)
		switch entry.Unit {
		case supply.UnitKilogram:
			row.TotalKg = row.TotalKg.Add(entry.Quantity)
		default:
			row.TotalLiters = row.TotalLiters.Add(entry.Quantity)
		}
		switch entry.Session {
		case rates.SessionMorning:
			row.MorningEntries++
		case rates.SessionEvening:
			row.EveningEntries++
		}
		switch entry.MilkType {
		case rates.MilkTypeCow:
			row.CowEntries++
		case rates.MilkTypeBuffalo:
			row.BuffaloEntries++
		}
	}

	var result []supply.SellerSummary
	for _, row := range grouped {
		result = append(result, *row)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].TotalQuantity.GreaterThan(result[j].TotalQuantity)
	})
	return result, nil
}

func matches(entry supply.Entry, sellerID string, from, to time.Time) bool {
	if sellerID != "" && entry.SellerID != sellerID {
		return false
	}
	date := rates.DateOnly(entry.Date)
	if !from.IsZero() && date.Before(rates.DateOnly(from)) {
		return false
	}
	if !to.IsZero() && date.After(rates.DateOnly(to)) {
		return false
	}
	return true
}
