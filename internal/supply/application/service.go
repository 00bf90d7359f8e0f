package application

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dshinde1318/Milk-Management-System-backend/internal/observability/metrics"
	rates "github.com/dshinde1318/Milk-Management-System-backend/internal/rates/domain"
	supply "github.com/dshinde1318/Milk-Management-System-backend/internal/supply/domain"
)

// IdentityReader answers seller existence checks against the user directory.
type IdentityReader interface {
	SellerExists(ctx context.Context, id string) (bool, error)
}

// Service owns the procurement-side supply workflows.
type Service struct {
	repo       supply.Repository
	identities IdentityReader
}

// NewService constructs a supply service.
func NewService(repo supply.Repository, identities IdentityReader) (*Service, error) {
	if repo == nil {
		return nil, errors.New("supply service: nil repo")
	}
	if identities == nil {
		return nil, errors.New("supply service: nil identity reader")
	}
	return &Service{repo: repo, identities: identities}, nil
}

// CreateInput records a new supply entry. Zero values take the defaults:
// unit liters, morning session, cow milk, date now.
type CreateInput struct {
	SellerID string
	Date     time.Time
	Quantity decimal.Decimal
	Unit     string
	Session  rates.Session
	MilkType rates.MilkType
	Remarks  string
}

// Create records a seller's intake entry.
func (s *Service) Create(ctx context.Context, input CreateInput) (*supply.Entry, error) {
	start := time.Now()
	result := metrics.ResultSuccess
	defer func() {
		metrics.ObserveDeliveryWrite("supply_create", result, time.Since(start))
	}()

	entry, err := s.create(ctx, input)
	if err != nil {
		result = metrics.ResultError
		return nil, err
	}
	return entry, nil
}

func (s *Service) create(ctx context.Context, input CreateInput) (*supply.Entry, error) {
	ok, err := s.identities.SellerExists(ctx, input.SellerID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, supply.ErrSellerNotFound
	}
	if !input.Quantity.IsPositive() {
		return nil, supply.ErrInvalidQuantity
	}

	session := input.Session
	if session == rates.SessionAny {
		session = rates.SessionMorning
	}
	milkType := input.MilkType
	if milkType == "" {
		milkType = rates.MilkTypeCow
	}
	unit := input.Unit
	if unit == "" {
		unit = supply.UnitLiter
	}
	date := input.Date
	if date.IsZero() {
		date = time.Now()
	}

	now := time.Now().UTC()
	entry := &supply.Entry{
		ID:        uuid.NewString(),
		SellerID:  input.SellerID,
		Date:      rates.DateOnly(date),
		Quantity:  input.Quantity,
		Unit:      unit,
		Session:   session,
		MilkType:  milkType,
		Remarks:   input.Remarks,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Insert(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// Query lists supply entries matching the filter, newest date first.
func (s *Service) Query(ctx context.Context, filter supply.Filter) ([]supply.Entry, error) {
	return s.repo.Query(ctx, filter)
}

// SellersSummary returns the per-seller intake aggregates, largest volume
// first. Either range bound may be zero for an open-ended half.
func (s *Service) SellersSummary(ctx context.Context, from, to time.Time) ([]supply.SellerSummary, error) {
	return s.repo.SellerSummaries(ctx, from, to)
}
