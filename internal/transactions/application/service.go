package application

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dshinde1318/Milk-Management-System-backend/internal/observability/metrics"
	rates "github.com/dshinde1318/Milk-Management-System-backend/internal/rates/domain"
	transactions "github.com/dshinde1318/Milk-Management-System-backend/internal/transactions/domain"
)

// IdentityReader answers existence checks against the user directory.
type IdentityReader interface {
	SellerExists(ctx context.Context, id string) (bool, error)
	BuyerExists(ctx context.Context, id string) (bool, error)
}

// Notifier delivers buyer-facing messages. Implementations must not block the
// caller longer than the context allows.
type Notifier interface {
	NotifyDelivery(ctx context.Context, sellerID, buyerID string, quantity decimal.Decimal)
}

const defaultNotifyTimeout = 5 * time.Second

// Service owns the delivery ledger workflows.
type Service struct {
	repo          transactions.Repository
	pricer        Pricer
	identities    IdentityReader
	notifier      Notifier
	logger        *log.Logger
	notifyTimeout time.Duration
}

// NewService constructs a ledger service. The notifier may be nil, in which
// case delivery notifications are skipped.
func NewService(repo transactions.Repository, pricer Pricer, identities IdentityReader, notifier Notifier, logger *log.Logger) (*Service, error) {
	if repo == nil {
		return nil, errors.New("transaction service: nil repo")
	}
	if pricer == nil {
		return nil, errors.New("transaction service: nil pricer")
	}
	if identities == nil {
		return nil, errors.New("transaction service: nil identity reader")
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Service{
		repo:          repo,
		pricer:        pricer,
		identities:    identities,
		notifier:      notifier,
		logger:        logger,
		notifyTimeout: defaultNotifyTimeout,
	}, nil
}

// CreateInput records a new delivery. Zero values take the ledger defaults:
// unit liters, morning session, cow milk, delivered status, date now.
type CreateInput struct {
	BuyerID  string
	Date     time.Time
	Quantity decimal.Decimal
	Unit     string
	Status   transactions.Status
	Session  rates.Session
	MilkType rates.MilkType
	Remarks  string
}

// UpdatePatch applies partial field changes to a delivery record.
type UpdatePatch struct {
	Date     *time.Time
	Quantity *decimal.Decimal
	Unit     *string
	Status   *transactions.Status
	Session  *rates.Session
	MilkType *rates.MilkType
	Remarks  *string
}

// Create records a delivery for a seller, pricing it from the rate schedule
// when the status is delivered.
func (s *Service) Create(ctx context.Context, sellerID string, input CreateInput) (*transactions.Transaction, error) {
	start := time.Now()
	result := metrics.ResultSuccess
	defer func() {
		metrics.ObserveDeliveryWrite("create", result, time.Since(start))
	}()

	tx, err := s.create(ctx, sellerID, input)
	if err != nil {
		result = metrics.ResultError
		return nil, err
	}
	return tx, nil
}

func (s *Service) create(ctx context.Context, sellerID string, input CreateInput) (*transactions.Transaction, error) {
	ok, err := s.identities.SellerExists(ctx, sellerID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, transactions.ErrSellerNotFound
	}
	ok, err = s.identities.BuyerExists(ctx, input.BuyerID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, transactions.ErrBuyerNotFound
	}

	status := input.Status
	if status == "" {
		status = transactions.StatusDelivered
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
		unit = transactions.UnitLiter
	}
	date := input.Date
	if date.IsZero() {
		date = time.Now()
	}
	date = rates.DateOnly(date)

	quantity := input.Quantity
	if status == transactions.StatusDelivered {
		if !quantity.IsPositive() {
			return nil, transactions.ErrInvalidQuantity
		}
	} else {
		// Undelivered entries carry no economic weight.
		quantity = decimal.Zero
	}

	pricePerUnit, total, err := priceForDelivery(ctx, s.pricer, status, milkType, session, date, quantity)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	tx := &transactions.Transaction{
		ID:           uuid.NewString(),
		SellerID:     sellerID,
		BuyerID:      input.BuyerID,
		Date:         date,
		Quantity:     quantity,
		Unit:         unit,
		Status:       status,
		Session:      session,
		MilkType:     milkType,
		Remarks:      input.Remarks,
		PricePerUnit: pricePerUnit,
		TotalAmount:  total,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.Insert(ctx, tx); err != nil {
		return nil, err
	}

	if s.notifier != nil && status == transactions.StatusDelivered && quantity.IsPositive() {
		// Fire and forget: a notification failure never fails the write.
		go func(sellerID, buyerID string, quantity decimal.Decimal) {
			notifyCtx, cancel := context.WithTimeout(context.Background(), s.notifyTimeout)
			defer cancel()
			s.notifier.NotifyDelivery(notifyCtx, sellerID, buyerID, quantity)
		}(tx.SellerID, tx.BuyerID, tx.Quantity)
	}
	return tx, nil
}

// Update applies field changes to an existing delivery. Moving anything the
// rate schedule keys on, or any status change, discards the cached price and
// resolves afresh.
func (s *Service) Update(ctx context.Context, id string, patch UpdatePatch) (*transactions.Transaction, error) {
	start := time.Now()
	result := metrics.ResultSuccess
	defer func() {
		metrics.ObserveDeliveryWrite("update", result, time.Since(start))
	}()

	tx, err := s.update(ctx, id, patch)
	if err != nil {
		result = metrics.ResultError
		return nil, err
	}
	return tx, nil
}

func (s *Service) update(ctx context.Context, id string, patch UpdatePatch) (*transactions.Transaction, error) {
	tx, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if tx == nil {
		return nil, transactions.ErrNotFound
	}

	reprice := repriceNeeded(tx, patch)

	if patch.Date != nil {
		tx.Date = rates.DateOnly(*patch.Date)
	}
	if patch.Quantity != nil {
		tx.Quantity = *patch.Quantity
	}
	if patch.Unit != nil {
		tx.Unit = *patch.Unit
	}
	if patch.Status != nil {
		tx.Status = *patch.Status
	}
	if patch.Session != nil {
		tx.Session = *patch.Session
	}
	if patch.MilkType != nil {
		tx.MilkType = *patch.MilkType
	}
	if patch.Remarks != nil {
		tx.Remarks = *patch.Remarks
	}

	if tx.Status == transactions.StatusDelivered {
		if !tx.Quantity.IsPositive() {
			return nil, transactions.ErrInvalidQuantity
		}
		if reprice {
			pricePerUnit, total, err := priceForDelivery(ctx, s.pricer, tx.Status, tx.MilkType, tx.Session, tx.Date, tx.Quantity)
			if err != nil {
				return nil, err
			}
			tx.PricePerUnit = pricePerUnit
			tx.TotalAmount = total
		} else {
			tx.TotalAmount = tx.Quantity.Mul(tx.PricePerUnit)
		}
	} else {
		tx.Quantity = decimal.Zero
		tx.PricePerUnit = decimal.Zero
		tx.TotalAmount = decimal.Zero
	}

	tx.UpdatedAt = time.Now().UTC()
	if err := s.repo.Update(ctx, tx); err != nil {
		return nil, err
	}
	return tx, nil
}

// Delete removes a delivery record.
func (s *Service) Delete(ctx context.Context, id string) error {
	start := time.Now()
	result := metrics.ResultSuccess
	defer func() {
		metrics.ObserveDeliveryWrite("delete", result, time.Since(start))
	}()

	if err := s.repo.Delete(ctx, id); err != nil {
		result = metrics.ResultError
		return err
	}
	return nil
}

// Get loads a single delivery record.
func (s *Service) Get(ctx context.Context, id string) (*transactions.Transaction, error) {
	tx, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if tx == nil {
		return nil, transactions.ErrNotFound
	}
	return tx, nil
}

// Query lists deliveries matching the filter, newest delivery date first.
func (s *Service) Query(ctx context.Context, filter transactions.Filter) ([]transactions.Transaction, error) {
	return s.repo.Query(ctx, filter)
}

// StatsForSeller aggregates a seller's deliveries over a date range.
func (s *Service) StatsForSeller(ctx context.Context, sellerID string, from, to time.Time) (*transactions.Stats, error) {
	return s.stats(ctx, transactions.Filter{SellerID: sellerID, From: from, To: to})
}

// StatsForBuyer aggregates a buyer's deliveries over a date range.
func (s *Service) StatsForBuyer(ctx context.Context, buyerID string, from, to time.Time) (*transactions.Stats, error) {
	return s.stats(ctx, transactions.Filter{BuyerID: buyerID, From: from, To: to})
}

func (s *Service) stats(ctx context.Context, filter transactions.Filter) (*transactions.Stats, error) {
	list, err := s.repo.Query(ctx, filter)
	if err != nil {
		return nil, err
	}

	stats := &transactions.Stats{
		TotalQuantity: decimal.Zero,
		TotalLiters:   decimal.Zero,
		TotalKg:       decimal.Zero,
		TotalAmount:   decimal.Zero,
		Transactions:  list,
	}
	for _, tx := range list {
		stats.TotalTransactions++
		stats.TotalQuantity = stats.TotalQuantity.Add(tx.Quantity)
		stats.TotalAmount = stats.TotalAmount.Add(tx.TotalAmount)
		switch tx.Unit {
		case transactions.UnitKilogram:
			stats.TotalKg = stats.TotalKg.Add(tx.Quantity)
		default:
			stats.TotalLiters = stats.TotalLiters.Add(tx.Quantity)
		}
		if tx.Status == transactions.StatusDelivered {
			stats.DeliveredCount++
		}
	}
	return stats, nil
}

// AllSellersStats returns the per-seller aggregates for the administrative
// dashboard, largest volume first. Empty status means all statuses; either
// range bound may be zero for an open-ended half.
func (s *Service) AllSellersStats(ctx context.Context, from, to time.Time, status transactions.Status) ([]transactions.SellerStatsRow, error) {
	return s.repo.GroupedSellerStats(ctx, from, to, status)
}
