package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	rates "github.com/dshinde1318/Milk-Management-System-backend/internal/rates/domain"
	supply "github.com/dshinde1318/Milk-Management-System-backend/internal/supply/domain"
)

const (
	defaultSupplyTable = "milk_supply"
	defaultUserTable   = "users"
)

// SupplyRepository is a Postgres implementation of the supply store.
type SupplyRepository struct {
	db        *sql.DB
	table     string
	userTable string
}

// RepositoryOption configures the repository.
type RepositoryOption func(*SupplyRepository)

// WithTable overrides the default supply table name.
func WithTable(table string) RepositoryOption {
	return func(repo *SupplyRepository) {
		if table != "" {
			repo.table = table
		}
	}
}

// WithUserTable overrides the user table joined for the seller summary.
func WithUserTable(table string) RepositoryOption {
	return func(repo *SupplyRepository) {
		if table != "" {
			repo.userTable = table
		}
	}
}

// NewSupplyRepository constructs a repository with defaults.
func NewSupplyRepository(db *sql.DB, opts ...RepositoryOption) *SupplyRepository {
	repo := &SupplyRepository{db: db, table: defaultSupplyTable, userTable: defaultUserTable}
	for _, opt := range opts {
		opt(repo)
	}
	return repo
}

const supplyColumns = "id, seller_id, date, quantity, unit, delivery_session, milk_type, remarks, created_at, updated_at"

// Insert persists a new supply entry.
func (r *SupplyRepository) Insert(ctx context.Context, entry *supply.Entry) error {
	if r == nil || r.db == nil {
		return errors.New("supply repo: nil db")
	}
	if entry == nil {
		return errors.New("supply repo: nil entry")
	}

	query := fmt.Sprintf(`
INSERT INTO %s (id, seller_id, date, quantity, unit, delivery_session, milk_type, remarks, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`, r.table)

	_, err := r.db.ExecContext(ctx, query,
		entry.ID,
		entry.SellerID,
		rates.DateOnly(entry.Date),
		entry.Quantity,
		entry.Unit,
		string(entry.Session),
		string(entry.MilkType),
		entry.Remarks,
		entry.CreatedAt,
		entry.UpdatedAt,
	)
	return err
}

// Query returns matching supply entries, newest date first.
func (r *SupplyRepository) Query(ctx context.Context, filter supply.Filter) ([]supply.Entry, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("supply repo: nil db")
	}

	var clauses []string
	var args []any
	arg := func(value any) string {
		args = append(args, value)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.SellerID != "" {
		clauses = append(clauses, "seller_id = "+arg(filter.SellerID))
	}
	if !filter.From.IsZero() {
		clauses = append(clauses, "date >= "+arg(rates.DateOnly(filter.From)))
	}
	if !filter.To.IsZero() {
		clauses = append(clauses, "date <= "+arg(rates.DateOnly(filter.To)))
	}

	where := ""
	if len(clauses) > 0 {
		where = "WHERE " + strings.Join(clauses, " AND ")
	}

	query := fmt.Sprintf(`
SELECT %s
FROM %s
%s
ORDER BY date DESC, created_at DESC`, supplyColumns, r.table, where)

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
	return collectEntries(rows)
}

// SellerSummaries aggregates intake per seller over a date range, joined to
// the seller identity, largest total quantity first.
func (r *SupplyRepository) SellerSummaries(ctx context.Context, from, to time.Time) ([]supply.SellerSummary, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("supply repo: nil db")
	}

	var clauses []string
	var args []any
	arg := func(value any) string {
		args = append(args, value)
		return fmt.Sprintf("$%d", len(args))
	}
	if !from.IsZero() {
		clauses = append(clauses, "s.date >= "+arg(rates.DateOnly(from)))
	}
	if !to.IsZero() {
		clauses = append(clauses, "s.date <= "+arg(rates.DateOnly(to)))
	}
	where := ""
	if len(clauses) > 0 {
		where = "WHERE " + strings.Join(clauses, " AND ")
	}

	query := fmt.Sprintf(`
SELECT s.seller_id,
	COALESCE(u.name, ''),
	COALESCE(u.mobile, ''),
	COUNT(*),
	COALESCE(SUM(s.quantity), 0),
	COALESCE(SUM(CASE WHEN s.unit = 'kg' THEN 0 ELSE s.quantity END), 0),
	COALESCE(SUM(CASE WHEN s.unit = 'kg' THEN s.quantity ELSE 0 END), 0),
	COUNT(*) FILTER (WHERE s.delivery_session = 'morning'),
	COUNT(*) FILTER (WHERE s.delivery_session = 'evening'),
	COUNT(*) FILTER (WHERE s.milk_type = 'cow'),
	COUNT(*) FILTER (WHERE s.milk_type = 'buffalo')
FROM %s s
LEFT JOIN %s u ON u.id = s.seller_id
%s
GROUP BY s.seller_id, u.name, u.mobile
ORDER BY SUM(s.quantity) DESC`, r.table, r.userTable, where)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []supply.SellerSummary
	for rows.Next() {
		var row supply.SellerSummary
		if err := rows.Scan(
			&row.SellerID,
			&row.SellerName,
			&row.SellerMobile,
			&row.TotalEntries,
			&row.TotalQuantity,
			&row.TotalLiters,
			&row.TotalKg,
			&row.MorningEntries,
			&row.EveningEntries,
			&row.CowEntries,
			&row.BuffaloEntries,
		); err != nil {
			return nil, err
		}
		result = append(result, row)
	}
	return result, rows.Err()
}

func collectEntries(rows *sql.Rows) ([]supply.Entry, error) {
	var result []supply.Entry
	for rows.Next() {
		var entry supply.Entry
		var session, milkType string
		var remarks sql.NullString
		if err := rows.Scan(
			&entry.ID,
			&entry.SellerID,
			&entry.Date,
			&entry.Quantity,
			&entry.Unit,
			&session,
			&milkType,
			&remarks,
			&entry.CreatedAt,
			&entry.UpdatedAt,
		); err != nil {
			return nil, err
		}
		entry.Session = rates.Session(session)
		entry.MilkType = rates.MilkType(milkType)
		entry.Remarks = remarks.String
		result = append(result, entry)
	}
	return result, rows.Err()
}
