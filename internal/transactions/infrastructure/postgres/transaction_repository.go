package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	rates "github.com/dshinde1318/Milk-Management-System-backend/internal/rates/domain"
	transactions "github.com/dshinde1318/Milk-Management-System-backend/internal/transactions/domain"
)

const (
	defaultTransactionTable = "milk_transactions"
	defaultUserTable        = "users"
)

// TransactionRepository is a Postgres implementation of the ledger store.
type TransactionRepository struct {
	db        *sql.DB
	table     string
	userTable string
}

// RepositoryOption configures the repository.
type RepositoryOption func(*TransactionRepository)

// WithTable overrides the default transaction table name.
func WithTable(table string) RepositoryOption {
	return func(repo *TransactionRepository) {
		if table != "" {
			repo.table = table
		}
	}
}

// WithUserTable overrides the user table joined for seller stats.
func WithUserTable(table string) RepositoryOption {
	return func(repo *TransactionRepository) {
		if table != "" {
			repo.userTable = table
		}
	}
}

// NewTransactionRepository constructs a repository with defaults.
func NewTransactionRepository(db *sql.DB, opts ...RepositoryOption) *TransactionRepository {
	repo := &TransactionRepository{db: db, table: defaultTransactionTable, userTable: defaultUserTable}
	for _, opt := range opts {
		opt(repo)
	}
	return repo
}

const transactionColumns = "id, seller_id, buyer_id, date, quantity, unit, status, delivery_session, milk_type, remarks, price_per_unit, total_amount, created_at, updated_at"

// GetByID loads a transaction by id, nil when absent.
func (r *TransactionRepository) GetByID(ctx context.Context, id string) (*transactions.Transaction, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("transaction repo: nil db")
	}
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1`, transactionColumns, r.table)
	row := r.db.QueryRowContext(ctx, query, id)
	tx, err := scanTransaction(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return tx, nil
}

// Insert persists a new transaction.
func (r *TransactionRepository) Insert(ctx context.Context, tx *transactions.Transaction) error {
	if r == nil || r.db == nil {
		return errors.New("transaction repo: nil db")
	}
	if tx == nil {
		return errors.New("transaction repo: nil transaction")
	}

	query := fmt.Sprintf(`
INSERT INTO %s (id, seller_id, buyer_id, date, quantity, unit, status, delivery_session, milk_type, remarks, price_per_unit, total_amount, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`, r.table)

	_, err := r.db.ExecContext(ctx, query,
		tx.ID,
		tx.SellerID,
		tx.BuyerID,
		rates.DateOnly(tx.Date),
		tx.Quantity,
		tx.Unit,
		string(tx.Status),
		string(tx.Session),
		string(tx.MilkType),
		tx.Remarks,
		tx.PricePerUnit,
		tx.TotalAmount,
		tx.CreatedAt,
		tx.UpdatedAt,
	)
	return err
}

// Update persists field changes for an existing transaction.
func (r *TransactionRepository) Update(ctx context.Context, tx *transactions.Transaction) error {
	if r == nil || r.db == nil {
		return errors.New("transaction repo: nil db")
	}
	if tx == nil {
		return errors.New("transaction repo: nil transaction")
	}

	query := fmt.Sprintf(`
UPDATE %s
SET date = $2,
	quantity = $3,
	unit = $4,
	status = $5,
	delivery_session = $6,
	milk_type = $7,
	remarks = $8,
	price_per_unit = $9,
	total_amount = $10,
	updated_at = $11
WHERE id = $1`, r.table)

	res, err := r.db.ExecContext(ctx, query,
		tx.ID,
		rates.DateOnly(tx.Date),
		tx.Quantity,
		tx.Unit,
		string(tx.Status),
		string(tx.Session),
		string(tx.MilkType),
		tx.Remarks,
		tx.PricePerUnit,
		tx.TotalAmount,
		tx.UpdatedAt,
	)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return transactions.ErrNotFound
	}
	return nil
}

// Delete removes a transaction by id.
func (r *TransactionRepository) Delete(ctx context.Context, id string) error {
	if r == nil || r.db == nil {
		return errors.New("transaction repo: nil db")
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
		return transactions.ErrNotFound
	}
	return nil
}

// Query returns matching transactions, newest delivery date first.
func (r *TransactionRepository) Query(ctx context.Context, filter transactions.Filter) ([]transactions.Transaction, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("transaction repo: nil db")
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
	if filter.BuyerID != "" {
		clauses = append(clauses, "buyer_id = "+arg(filter.BuyerID))
	}
	if filter.Status != "" {
		clauses = append(clauses, "status = "+arg(string(filter.Status)))
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
ORDER BY date DESC, created_at DESC`, transactionColumns, r.table, where)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectTransactions(rows)
}

// GroupedSellerStats aggregates per seller over a date range, joined to the
// seller identity, largest total quantity first.
func (r *TransactionRepository) GroupedSellerStats(ctx context.Context, from, to time.Time, status transactions.Status) ([]transactions.SellerStatsRow, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("transaction repo: nil db")
	}

	var clauses []string
	var args []any
	arg := func(value any) string {
		args = append(args, value)
		return fmt.Sprintf("$%d", len(args))
	}
	if status != "" {
		clauses = append(clauses, "t.status = "+arg(string(status)))
	}
	if !from.IsZero() {
		clauses = append(clauses, "t.date >= "+arg(rates.DateOnly(from)))
	}
	if !to.IsZero() {
		clauses = append(clauses, "t.date <= "+arg(rates.DateOnly(to)))
	}
	where := ""
	if len(clauses) > 0 {
		where = "WHERE " + strings.Join(clauses, " AND ")
	}

	query := fmt.Sprintf(`
SELECT t.seller_id,
	COALESCE(u.name, ''),
	COALESCE(u.mobile, ''),
	COUNT(*),
	COALESCE(SUM(t.quantity), 0),
	COALESCE(SUM(CASE WHEN t.unit = 'kg' THEN 0 ELSE t.quantity END), 0),
	COALESCE(SUM(CASE WHEN t.unit = 'kg' THEN t.quantity ELSE 0 END), 0),
	COALESCE(SUM(t.total_amount), 0),
	COUNT(*) FILTER (WHERE t.status = 'delivered')
FROM %s t
LEFT JOIN %s u ON u.id = t.seller_id
%s
GROUP BY t.seller_id, u.name, u.mobile
ORDER BY SUM(t.quantity) DESC`, r.table, r.userTable, where)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []transactions.SellerStatsRow
	for rows.Next() {
		var row transactions.SellerStatsRow
		if err := rows.Scan(
			&row.SellerID,
			&row.SellerName,
			&row.SellerMobile,
			&row.TotalTransactions,
			&row.TotalQuantity,
			&row.TotalLiters,
			&row.TotalKg,
			&row.TotalAmount,
			&row.DeliveredCount,
		); err != nil {
			return nil, err
		}
		result = append(result, row)
	}
	return result, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (*transactions.Transaction, error) {
	var tx transactions.Transaction
	var status, session, milkType string
	var remarks sql.NullString
	if err := row.Scan(
		&tx.ID,
		&tx.SellerID,
		&tx.BuyerID,
		&tx.Date,
		&tx.Quantity,
		&tx.Unit,
		&status,
		&session,
		&milkType,
		&remarks,
		&tx.PricePerUnit,
		&tx.TotalAmount,
		&tx.CreatedAt,
		&tx.UpdatedAt,
	); err != nil {
		return nil, err
	}
	tx.Status = transactions.Status(status)
	tx.Session = rates.Session(session)
	tx.MilkType = rates.MilkType(milkType)
	tx.Remarks = remarks.String
	return &tx, nil
}

func collectTransactions(rows *sql.Rows) ([]transactions.Transaction, error) {
	var result []transactions.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *tx)
	}
	return result, rows.Err()
}
