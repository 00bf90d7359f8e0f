package application

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dshinde1318/Milk-Management-System-backend/internal/auth"
	billing "github.com/dshinde1318/Milk-Management-System-backend/internal/billing/domain"
	"github.com/dshinde1318/Milk-Management-System-backend/internal/observability/metrics"
	transactions "github.com/dshinde1318/Milk-Management-System-backend/internal/transactions/domain"
)

// LedgerReader is the slice of the transaction store the billing view needs.
type LedgerReader interface {
	Query(ctx context.Context, filter transactions.Filter) ([]transactions.Transaction, error)
}

// Notifier delivers buyer-facing payment reminders.
type Notifier interface {
	NotifyPendingPayment(ctx context.Context, buyerID string, amount decimal.Decimal)
}

const defaultNotifyTimeout = 5 * time.Second

// Service builds buyer billing statements.
type Service struct {
	ledger        LedgerReader
	notifier      Notifier
	logger        *log.Logger
	now           func() time.Time
	notifyTimeout time.Duration
}

// NewService constructs a billing service. The notifier may be nil, in which
// case payment reminders are skipped.
func NewService(ledger LedgerReader, notifier Notifier, logger *log.Logger) (*Service, error) {
	if ledger == nil {
		return nil, errors.New("billing service: nil ledger reader")
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Service{
		ledger:        ledger,
		notifier:      notifier,
		logger:        logger,
		now:           time.Now,
		notifyTimeout: defaultNotifyTimeout,
	}, nil
}

// Statement builds the buyer's statement for the requested period. Only
// delivered entries count; the result is computed fresh on every call.
func (s *Service) Statement(ctx context.Context, role auth.Role, buyerID string, input billing.PeriodInput) (*billing.Statement, error) {
	start := time.Now()
	result := metrics.ResultSuccess
	defer func() {
		metrics.ObserveStatementBuild(result, time.Since(start))
	}()

	stmt, err := s.statement(ctx, role, buyerID, input)
	if err != nil {
		result = metrics.ResultError
		return nil, err
	}
	return stmt, nil
}

func (s *Service) statement(ctx context.Context, role auth.Role, buyerID string, input billing.PeriodInput) (*billing.Statement, error) {
	if err := auth.RequireAdmin(role); err != nil {
		return nil, err
	}

	period, err := billing.ResolvePeriod(input, s.now())
	if err != nil {
		return nil, err
	}

	entries, err := s.ledger.Query(ctx, transactions.Filter{
		BuyerID: buyerID,
		Status:  transactions.StatusDelivered,
		From:    period.Start,
		To:      period.End,
	})
	if err != nil {
		return nil, err
	}

	stmt := billing.BuildStatement(buyerID, period, entries)

	if s.notifier != nil && stmt.NetPayable.IsPositive() {
		// Fire and forget: a reminder failure never fails the read.
		go func(buyerID string, amount decimal.Decimal) {
			notifyCtx, cancel := context.WithTimeout(context.Background(), s.notifyTimeout)
			defer cancel()
			s.notifier.NotifyPendingPayment(notifyCtx, buyerID, amount)
		}(buyerID, stmt.NetPayable)
	}
	return stmt, nil
}
