package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	rates "github.com/dshinde1318/Milk-Management-System-backend/internal/rates/domain"
	transactions "github.com/dshinde1318/Milk-Management-System-backend/internal/transactions/domain"
)

// TransactionRepository is an in-memory ledger store for tests.
type TransactionRepository struct {
	mu      sync.RWMutex
	data    map[string]transactions.Transaction
	sellers map[string]sellerIdentity
}

type sellerIdentity struct {
	name   string
	mobile string
}

// NewTransactionRepository constructs a repository.
func NewTransactionRepository() *TransactionRepository {
	return &TransactionRepository{
		data:    make(map[string]transactions.Transaction),
		sellers: make(map[string]sellerIdentity),
	}
}

// RegisterSeller records the identity joined into grouped stats.
func (r *TransactionRepository) RegisterSeller(id, name, mobile string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sellers[id] = sellerIdentity{name: name, mobile: mobile}
}

// GetByID loads a transaction by id.
func (r *TransactionRepository) GetByID(ctx context.Context, id string) (*transactions.Transaction, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	tx, ok := r.data[id]
	if !ok {
		return nil, nil
	}
	copy := tx
	return &copy, nil
}

// Insert persists a new transaction.
func (r *TransactionRepository) Insert(ctx context.Context, tx *transactions.Transaction) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data[tx.ID] = *tx
	return nil
}

// Update persists field changes.
func (r *TransactionRepository) Update(ctx context.Context, tx *transactions.Transaction) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.data[tx.ID]; !ok {
		return transactions.ErrNotFound
	}
	r.data[tx.ID] = *tx
	return nil
}

// Delete removes a transaction.
func (r *TransactionRepository) Delete(ctx context.Context, id string) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.data[id]; !ok {
		return transactions.ErrNotFound
	}
	delete(r.data, id)
	return nil
}

// Query returns matching transactions, newest delivery date first.
func (r *TransactionRepository) Query(ctx context.Context, filter transactions.Filter) ([]transactions.Transaction, error) {
	_ = ctx
	r.mu.RLock()
	var result []transactions.Transaction
	for _, tx := range r.data {
		if !matches(tx, filter) {
			continue
		}
		result = append(result, tx)
	}
	r.mu.RUnlock()

	sort.Slice(result, func(i, j int) bool {
		a, b := result[i], result[j]
		if !a.Date.Equal(b.Date) {
			return a.Date.After(b.Date)
		}
		return a.CreatedAt.After(b.CreatedAt)
	})
	return result, nil
}

// GroupedSellerStats aggregates per seller, largest total quantity first.
func (r *TransactionRepository) GroupedSellerStats(ctx context.Context, from, to time.Time, status transactions.Status) ([]transactions.SellerStatsRow, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()

	grouped := make(map[string]*transactions.SellerStatsRow)
	for _, tx := range r.data {
		if !matches(tx, transactions.Filter{Status: status, From: from, To: to}) {
			continue
		}
		row, ok := grouped[tx.SellerID]
		if !ok {
			identity := r.sellers[tx.SellerID]
			row = &transactions.SellerStatsRow{
				SellerID:      tx.SellerID,
				SellerName:    identity.name,
				SellerMobile:  identity.mobile,
				TotalQuantity: decimal.Zero,
				TotalLiters:   decimal.Zero,
				TotalKg:       decimal.Zero,
				TotalAmount:   decimal.Zero,
			}
			grouped[tx.SellerID] = row
		}
		row.TotalTransactions++
		row.TotalQuantity = row.TotalQuantity.Add(tx.Quantity)
		row.TotalAmount = row.TotalAmount.Add(tx.TotalAmount)
		switch tx.Unit {
		case transactions.UnitKilogram:
			row.TotalKg = row.TotalKg.Add(tx.Quantity)
		default:
			row.TotalLiters = row.TotalLiters.Add(tx.Quantity)
		}
		if tx.Status == transactions.StatusDelivered {
			row.DeliveredCount++
		}
	}

	var result []transactions.SellerStatsRow
	for _, row := range grouped {
		result = append(result, *row)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].TotalQuantity.GreaterThan(result[j].TotalQuantity)
	})
	return result, nil
}

func matches(tx transactions.Transaction, filter transactions.Filter) bool {
	if filter.SellerID != "" && tx.SellerID != filter.SellerID {
		return false
	}
	if filter.BuyerID != "" && tx.BuyerID != filter.BuyerID {
		return false
	}
	if filter.Status != "" && tx.Status != filter.Status {
		return false
	}
	date := rates.DateOnly(tx.Date)
	if !filter.From.IsZero() && date.Before(rates.DateOnly(filter.From)) {
		return false
	}
	if !filter.To.IsZero() && date.After(rates.DateOnly(filter.To)) {
		return false
	}
	return true
}
