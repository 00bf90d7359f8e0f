package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	rates "github.com/dshinde1318/Milk-Management-System-backend/internal/rates/domain"
)

const defaultRateTable = "milk_rates"

// pgUniqueViolation is the Postgres error code for unique constraint violations.
const pgUniqueViolation = "23505"

// RateRepository is a Postgres implementation of the rate store.
type RateRepository struct {
	db    *sql.DB
	table string
}

// RepositoryOption configures the repository.
type RepositoryOption func(*RateRepository)

// WithTable overrides the default table name.
func WithTable(table string) RepositoryOption {
	return func(repo *RateRepository) {
		if table != "" {
			repo.table = table
		}
	}
}

// NewRateRepository constructs a repository with defaults.
func NewRateRepository(db *sql.DB, opts ...RepositoryOption) *RateRepository {
	repo := &RateRepository{db: db, table: defaultRateTable}
	for _, opt := range opts {
		opt(repo)
	}
	return repo
}

const rateColumns = "id, milk_type, delivery_session, price_per_unit, effective_from, is_active, created_at, updated_at"

// FindByKey loads the rate for an exact (milkType, session, effectiveFrom) key.
func (r *RateRepository) FindByKey(ctx context.Context, key rates.Key) (*rates.Rate, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("rate repo: nil db")
	}

	sessionClause := "delivery_session = $3"
	args := []any{string(key.MilkType), key.EffectiveFrom, string(key.Session)}
	if key.Session == rates.SessionAny {
		sessionClause = "delivery_session IS NULL"
		args = args[:2]
	}
	query := fmt.Sprintf(`
SELECT %s
FROM %s
WHERE milk_type = $1 AND effective_from = $2 AND %s
ORDER BY updated_at DESC
LIMIT 1`, rateColumns, r.table, sessionClause)

	row := r.db.QueryRowContext(ctx, query, args...)
	rate, err := scanRate(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return rate, nil
}

// GetByID loads a rate by id, nil when absent.
func (r *RateRepository) GetByID(ctx context.Context, id string) (*rates.Rate, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("rate repo: nil db")
	}
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1`, rateColumns, r.table)
	row := r.db.QueryRowContext(ctx, query, id)
	rate, err := scanRate(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return rate, nil
}

// Insert persists a new rate. A unique-index race surfaces as ErrConflict.
func (r *RateRepository) Insert(ctx context.Context, rate *rates.Rate) error {
	if r == nil || r.db == nil {
		return errors.New("rate repo: nil db")
	}
	if rate == nil {
		return errors.New("rate repo: nil rate")
	}

	query := fmt.Sprintf(`
INSERT INTO %s (id, milk_type, delivery_session, price_per_unit, effective_from, is_active, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`, r.table)

	_, err := r.db.ExecContext(ctx, query,
		rate.ID,
		string(rate.MilkType),
		nullSession(rate.Session),
		rate.PricePerUnit,
		rates.DateOnly(rate.EffectiveFrom),
		rate.IsActive,
		rate.CreatedAt,
		rate.UpdatedAt,
	)
	return translateConflict(err)
}

// Update persists field changes for an existing rate.
func (r *RateRepository) Update(ctx context.Context, rate *rates.Rate) error {
	if r == nil || r.db == nil {
		return errors.New("rate repo: nil db")
	}
	if rate == nil {
		return errors.New("rate repo: nil rate")
	}

	query := fmt.Sprintf(`
UPDATE %s
SET milk_type = $2,
	delivery_session = $3,
	price_per_unit = $4,
	effective_from = $5,
	is_active = $6,
	updated_at = $7
WHERE id = $1`, r.table)

	res, err := r.db.ExecContext(ctx, query,
		rate.ID,
		string(rate.MilkType),
		nullSession(rate.Session),
		rate.PricePerUnit,
		rates.DateOnly(rate.EffectiveFrom),
		rate.IsActive,
		rate.UpdatedAt,
	)
	if err != nil {
		return translateConflict(err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return rates.ErrNotFound
	}
	return nil
}

// Delete removes a rate by id.
func (r *RateRepository) Delete(ctx context.Context, id string) error {
	if r == nil || r.db == nil {
		return errors.New("rate repo: nil db")
	}
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, r.table)
	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return rates.ErrNotFound
	}
	return nil
}

// List returns rates for the administrative listing, most recent first.
func (r *RateRepository) List(ctx context.Context, filter rates.ListFilter) ([]rates.Rate, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("rate repo: nil db")
	}

	var clauses []string
	var args []any
	arg := func(value any) string {
		args = append(args, value)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.MilkType != "" {
		clauses = append(clauses, "milk_type = "+arg(string(filter.MilkType)))
	}
	if filter.HasSession {
		clauses = append(clauses, "delivery_session = "+arg(string(filter.Session)))
	} else if !filter.IncludeAnySession {
		// Hide legacy session-less rows from the admin listing by default.
		clauses = append(clauses, "delivery_session IS NOT NULL")
	}
	if !filter.AsOfDate.IsZero() {
		clauses = append(clauses, "effective_from <= "+arg(rates.DateOnly(filter.AsOfDate)))
	}
	if filter.IsActive != nil {
		clauses = append(clauses, "is_active = "+arg(*filter.IsActive))
	}

	where := ""
	if len(clauses) > 0 {
		where = "WHERE " + strings.Join(clauses, " AND ")
	}

	query := fmt.Sprintf(`
SELECT %s
FROM %s
%s
ORDER BY effective_from DESC, updated_at DESC, created_at DESC`, rateColumns, r.table, where)

	if filter.Page > 0 || filter.Limit > 0 {
		page := filter.Page
		if page < 1 {
			page = 1
		}
		limit := filter.Limit
		if limit < 1 {
			limit = 50
		}
		query += fmt.Sprintf(" LIMIT %s OFFSET %s", arg(limit), arg((page-1)*limit))
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectRates(rows)
}

// CandidatesFor returns the active rates a delivery could be priced against.
func (r *RateRepository) CandidatesFor(ctx context.Context, milkType rates.MilkType, session rates.Session, onOrBefore time.Time) ([]rates.Rate, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("rate repo: nil db")
	}

	query := fmt.Sprintf(`
SELECT %s
FROM %s
WHERE milk_type = $1
  AND is_active = TRUE
  AND effective_from <= $2
  AND (delivery_session = $3 OR delivery_session IS NULL)`, rateColumns, r.table)

	rows, err := r.db.QueryContext(ctx, query, string(milkType), rates.DateOnly(onOrBefore), string(session))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectRates(rows)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRate(row rowScanner) (*rates.Rate, error) {
	var rate rates.Rate
	var milkType string
	var session sql.NullString
	if err := row.Scan(
		&rate.ID,
		&milkType,
		&session,
		&rate.PricePerUnit,
		&rate.EffectiveFrom,
		&rate.IsActive,
		&rate.CreatedAt,
		&rate.UpdatedAt,
	); err != nil {
		return nil, err
	}
	rate.MilkType = rates.MilkType(milkType)
	if session.Valid {
		rate.Session = rates.Session(session.String)
	} else {
		rate.Session = rates.SessionAny
	}
	return &rate, nil
}

func collectRates(rows *sql.Rows) ([]rates.Rate, error) {
	var result []rates.Rate
	for rows.Next() {
		rate, err := scanRate(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *rate)
	}
	return result, rows.Err()
}

func nullSession(session rates.Session) any {
	if session == rates.SessionAny {
		return nil
	}
	return string(session)
}

func translateConflict(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return &rates.ConflictError{}
	}
	return err
}
