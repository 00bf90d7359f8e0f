package application

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dshinde1318/Milk-Management-System-backend/internal/auth"
	"github.com/dshinde1318/Milk-Management-System-backend/internal/observability/metrics"
	rates "github.com/dshinde1318/Milk-Management-System-backend/internal/rates/domain"
)

// Service owns the rate schedule workflows.
type Service struct {
	repo rates.Repository
}

// NewService constructs a service.
func NewService(repo rates.Repository) (*Service, error) {
	if repo == nil {
		return nil, errors.New("rate service: nil repo")
	}
	return &Service{repo: repo}, nil
}

// UpsertInput creates or merges a rate. Session aliases are resolved at the
// HTTP boundary; the core only sees the canonical session.
type UpsertInput struct {
	MilkType      rates.MilkType
	Session       rates.Session
	PricePerUnit  decimal.Decimal
	EffectiveFrom time.Time
	IsActive      *bool
}

// UpdatePatch applies partial field changes to a rate.
type UpdatePatch struct {
	MilkType      *rates.MilkType
	Session       *rates.Session
	PricePerUnit  *decimal.Decimal
	EffectiveFrom *time.Time
	IsActive      *bool
}

// Upsert creates a rate, or overwrites price/active in place when a rate
// already exists for the exact key. Repeated admin submissions for the same
// calendar day must not create duplicate history.
func (s *Service) Upsert(ctx context.Context, role auth.Role, input UpsertInput) (*rates.Rate, error) {
	if err := auth.RequireAdmin(role); err != nil {
		return nil, err
	}
	if input.PricePerUnit.IsNegative() {
		return nil, rates.ErrNegativePrice
	}

	key := rates.Key{
		MilkType:      input.MilkType,
		Session:       input.Session,
		EffectiveFrom: rates.DateOnly(input.EffectiveFrom),
	}
	existing, err := s.repo.FindByKey(ctx, key)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	if existing != nil {
		existing.PricePerUnit = input.PricePerUnit
		if input.IsActive != nil {
			existing.IsActive = *input.IsActive
		}
		existing.UpdatedAt = now
		if err := s.repo.Update(ctx, existing); err != nil {
			return nil, err
		}
		return existing, nil
	}

	rate := &rates.Rate{
		ID:            uuid.NewString(),
		MilkType:      input.MilkType,
		Session:       input.Session,
		PricePerUnit:  input.PricePerUnit,
		EffectiveFrom: key.EffectiveFrom,
		IsActive:      true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if input.IsActive != nil {
		rate.IsActive = *input.IsActive
	}
	if err := s.repo.Insert(ctx, rate); err != nil {
		return nil, err
	}
	return rate, nil
}

// Update applies field changes and re-checks the uniqueness invariant against
// the new key before committing.
func (s *Service) Update(ctx context.Context, role auth.Role, id string, patch UpdatePatch) (*rates.Rate, error) {
	if err := auth.RequireAdmin(role); err != nil {
		return nil, err
	}

	rate, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if rate == nil {
		return nil, rates.ErrNotFound
	}

	if patch.MilkType != nil {
		rate.MilkType = *patch.MilkType
	}
	if patch.Session != nil {
		rate.Session = *patch.Session
	}
	if patch.PricePerUnit != nil {
		if patch.PricePerUnit.IsNegative() {
			return nil, rates.ErrNegativePrice
		}
		rate.PricePerUnit = *patch.PricePerUnit
	}
	if patch.EffectiveFrom != nil {
		rate.EffectiveFrom = rates.DateOnly(*patch.EffectiveFrom)
	}
	if patch.IsActive != nil {
		rate.IsActive = *patch.IsActive
	}

	colliding, err := s.repo.FindByKey(ctx, rate.Key())
	if err != nil {
		return nil, err
	}
	if colliding != nil && colliding.ID != rate.ID {
		return nil, &rates.ConflictError{ConflictingRateID: colliding.ID}
	}

	rate.UpdatedAt = time.Now().UTC()
	if err := s.repo.Update(ctx, rate); err != nil {
		return nil, err
	}
	return rate, nil
}

// Remove hard-deletes a rate. Already-priced deliveries keep their snapshot.
func (s *Service) Remove(ctx context.Context, role auth.Role, id string) error {
	if err := auth.RequireAdmin(role); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

// List returns rates for the administrative listing.
func (s *Service) List(ctx context.Context, filter rates.ListFilter) ([]rates.Rate, error) {
	return s.repo.List(ctx, filter)
}

// Resolve returns the price per unit applicable to a lookup key.
func (s *Service) Resolve(ctx context.Context, lookup rates.Lookup) (decimal.Decimal, error) {
	start := time.Now()
	result := metrics.ResultSuccess
	defer func() {
		metrics.ObserveRateResolve(result, time.Since(start))
	}()

	candidates, err := s.repo.CandidatesFor(ctx, lookup.MilkType, lookup.Session, lookup.Date)
	if err != nil {
		result = metrics.ResultError
		return decimal.Zero, err
	}
	winner, err := rates.Resolve(lookup, candidates)
	if err != nil {
		result = metrics.ResultError
		return decimal.Zero, err
	}
	return winner.PricePerUnit, nil
}
