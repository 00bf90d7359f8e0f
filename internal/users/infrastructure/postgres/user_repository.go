package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/dshinde1318/Milk-Management-System-backend/internal/auth"
	users "github.com/dshinde1318/Milk-Management-System-backend/internal/users/domain"
)

const defaultUserTable = "users"

// pgUniqueViolation is the Postgres error code for unique constraint violations.
const pgUniqueViolation = "23505"

// UserRepository is a Postgres implementation of the directory store.
type UserRepository struct {
	db    *sql.DB
	table string
}

// RepositoryOption configures the repository.
type RepositoryOption func(*UserRepository)

// WithTable overrides the default table name.
func WithTable(table string) RepositoryOption {
	return func(repo *UserRepository) {
		if table != "" {
			repo.table = table
		}
	}
}

// NewUserRepository constructs a repository with defaults.
func NewUserRepository(db *sql.DB, opts ...RepositoryOption) *UserRepository {
	repo := &UserRepository{db: db, table: defaultUserTable}
	for _, opt := range opts {
		opt(repo)
	}
	return repo
}

const userColumns = "id, name, mobile, email, address, role, password_hash, is_active, opening_amount, pending_amount, created_at, updated_at"

// GetByID loads a user by id, nil when absent.
func (r *UserRepository) GetByID(ctx context.Context, id string) (*users.User, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("user repo: nil db")
	}
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1`, userColumns, r.table)
	return r.getOne(ctx, query, id)
}

// GetByMobile loads a user by mobile number, nil when absent.
func (r *UserRepository) GetByMobile(ctx context.Context, mobile string) (*users.User, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("user repo: nil db")
	}
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE mobile = $1`, userColumns, r.table)
	return r.getOne(ctx, query, mobile)
}

func (r *UserRepository) getOne(ctx context.Context, query string, arg any) (*users.User, error) {
	row := r.db.QueryRowContext(ctx, query, arg)
	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return user, nil
}

// Insert persists a new user. A unique-index race on mobile surfaces as
// ErrMobileConflict.
func (r *UserRepository) Insert(ctx context.Context, user *users.User) error {
	if r == nil || r.db == nil {
		return errors.New("user repo: nil db")
	}
	if user == nil {
		return errors.New("user repo: nil user")
	}

	query := fmt.Sprintf(`
INSERT INTO %s (id, name, mobile, email, address, role, password_hash, is_active, opening_amount, pending_amount, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`, r.table)

	_, err := r.db.ExecContext(ctx, query,
		user.ID,
		user.Name,
		user.Mobile,
		user.Email,
		user.Address,
		string(user.Role),
		user.PasswordHash,
		user.IsActive,
		user.OpeningAmount,
		user.PendingAmount,
		user.CreatedAt,
		user.UpdatedAt,
	)
	return translateConflict(err)
}

// Update persists field changes for an existing user.
func (r *UserRepository) Update(ctx context.Context, user *users.User) error {
	if r == nil || r.db == nil {
		return errors.New("user repo: nil db")
	}
	if user == nil {
		return errors.New("user repo: nil user")
	}

	query := fmt.Sprintf(`
UPDATE %s
SET name = $2,
	mobile = $3,
	email = $4,
	address = $5,
	role = $6,
	password_hash = $7,
	is_active = $8,
	opening_amount = $9,
	pending_amount = $10,
	updated_at = $11
WHERE id = $1`, r.table)

	res, err := r.db.ExecContext(ctx, query,
		user.ID,
		user.Name,
		user.Mobile,
		user.Email,
		user.Address,
		string(user.Role),
		user.PasswordHash,
		user.IsActive,
		user.OpeningAmount,
		user.PendingAmount,
		user.UpdatedAt,
	)
	if err != nil {
		return translateConflict(err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return users.ErrNotFound
	}
	return nil
}

// Delete removes a user by id.
func (r *UserRepository) Delete(ctx context.Context, id string) error {
	if r == nil || r.db == nil {
		return errors.New("user repo: nil db")
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
		return users.ErrNotFound
	}
	return nil
}

// List returns users matching the filter, newest first.
func (r *UserRepository) List(ctx context.Context, filter users.ListFilter) ([]users.User, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("user repo: nil db")
	}

	var clauses []string
	var args []any
	arg := func(value any) string {
		args = append(args, value)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.Role != "" {
		clauses = append(clauses, "role = "+arg(string(filter.Role)))
	}
	if filter.Search != "" {
		pattern := arg("%" + strings.ToLower(filter.Search) + "%")
		clauses = append(clauses, fmt.Sprintf("(LOWER(name) LIKE %s OR mobile LIKE %s OR LOWER(email) LIKE %s)", pattern, pattern, pattern))
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
ORDER BY created_at DESC`, userColumns, r.table, where)

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

	var result []users.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *user)
	}
	return result, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*users.User, error) {
	var user users.User
	var role string
	var email, address sql.NullString
	if err := row.Scan(
		&user.ID,
		&user.Name,
		&user.Mobile,
		&email,
		&address,
		&role,
		&user.PasswordHash,
		&user.IsActive,
		&user.OpeningAmount,
		&user.PendingAmount,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		return nil, err
	}
	user.Role = auth.Role(role)
	user.Email = email.String
	user.Address = address.String
	return &user, nil
}

func translateConflict(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return users.ErrMobileConflict
	}
	return err
}
