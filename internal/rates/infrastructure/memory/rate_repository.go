package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	rates "github.com/dshinde1318/Milk-Management-System-backend/internal/rates/domain"
)

// RateRepository is an in-memory rate store for tests.
type RateRepository struct {
	mu   sync.RWMutex
	data map[string]rates.Rate
}

// NewRateRepository constructs a repository.
func NewRateRepository() *RateRepository {
	return &RateRepository{data: make(map[string]rates.Rate)}
}

// FindByKey loads the rate for an exact key.
func (r *RateRepository) FindByKey(ctx context.Context, key rates.Key) (*rates.Rate, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, rate := range r.data {
		if rate.Key() == key {
			copy := rate
			return &copy, nil
		}
	}
	return nil, nil
}

// GetByID loads a rate by id.
func (r *RateRepository) GetByID(ctx context.Context, id string) (*rates.Rate, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	rate, ok := r.data[id]
	if !ok {
		return nil, nil
	}
	copy := rate
	return &copy, nil
}

// Insert persists a new rate, enforcing key uniqueness.
func (r *RateRepository) Insert(ctx context.Context, rate *rates.Rate) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.data {
		if existing.Key() == rate.Key() {
			return &rates.ConflictError{ConflictingRateID: existing.ID}
		}
	}
	r.data[rate.ID] = *rate
	return nil
}

// Update persists field changes, enforcing key uniqueness.
func (r *RateRepository) Update(ctx context.Context, rate *rates.Rate) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.data[rate.ID]; !ok {
		return rates.ErrNotFound
	}
	for _, existing := range r.data {
		if existing.ID != rate.ID && existing.Key() == rate.Key() {
			return &rates.ConflictError{ConflictingRateID: existing.ID}
		}
	}
	r.data[rate.ID] = *rate
	return nil
}

// Delete removes a rate.
func (r *RateRepository) Delete(ctx context.Context, id string) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.data[id]; !ok {
		return rates.ErrNotFound
	}
	delete(r.data, id)
	return nil
}

// List returns rates most recent first, mirroring the SQL ordering.
func (r *RateRepository) List(ctx context.Context, filter rates.ListFilter) ([]rates.Rate, error) {
	_ = ctx
	r.mu.RLock()
	var result []rates.Rate
	for _, rate := range r.data {
		if filter.MilkType != "" && rate.MilkType != filter.MilkType {
			continue
		}
		if filter.HasSession {
			if rate.Session != filter.Session {
				continue
			}
		} else if !filter.IncludeAnySession && rate.Session == rates.SessionAny {
			continue
		}
		if !filter.AsOfDate.IsZero() && rates.DateOnly(rate.EffectiveFrom).After(rates.DateOnly(filter.AsOfDate)) {
			continue
		}
		if filter.IsActive != nil && rate.IsActive != *filter.IsActive {
			continue
		}
		result = append(result, rate)
	}
	r.mu.RUnlock()

	sort.Slice(result, func(i, j int) bool {
		a, b := result[i], result[j]
		if !a.EffectiveFrom.Equal(b.EffectiveFrom) {
			return a.EffectiveFrom.After(b.EffectiveFrom)
		}
		if !a.UpdatedAt.Equal(b.UpdatedAt) {
			return a.UpdatedAt.After(b.UpdatedAt)
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

// CandidatesFor returns active rates matching the lookup.
func (r *RateRepository) CandidatesFor(ctx context.Context, milkType rates.MilkType, session rates.Session, onOrBefore time.Time) ([]rates.Rate, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	cutoff := rates.DateOnly(onOrBefore)
	var result []rates.Rate
	for _, rate := range r.data {
		if rate.MilkType != milkType || !rate.IsActive {
			continue
		}
		if rates.DateOnly(rate.EffectiveFrom).After(cutoff) {
			continue
		}
		if rate.Session != session && rate.Session != rates.SessionAny {
			continue
		}
		result = append(result, rate)
	}
	return result, nil
}
