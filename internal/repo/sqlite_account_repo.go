package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"time"

	dom "Directory/internal/domain"

	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"
)

const sqliteDateLayout = "2006-01-02"

// SQLiteAccountRepo implements AccountRepo with SQLite.
type SQLiteAccountRepo struct {
	db *sql.DB
}

// NewSQLiteAccountRepo returns a new SQLiteAccountRepo. The schema must already be migrated.
func NewSQLiteAccountRepo(db *sql.DB) *SQLiteAccountRepo {
	return &SQLiteAccountRepo{db: db}
}

// Insert creates the account and returns it with its assigned id.
func (r *SQLiteAccountRepo) Insert(ctx context.Context, a dom.Account) (dom.Account, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO accounts (username, email, display_name, location, joined_on)
		 VALUES (?, ?, ?, ?, ?)`,
		a.Username, a.Email, a.DisplayName, a.Location, a.JoinedOn.UTC().Format(sqliteDateLayout),
	)
	if err != nil {
		if cv, ok := sqliteConstraintViolation(err); ok {
			return dom.Account{}, cv
		}
		return dom.Account{}, fmt.Errorf("insert account: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return dom.Account{}, fmt.Errorf("insert account: %w", err)
	}
	return r.GetByID(ctx, id)
}

// GetByID returns the account by id.
func (r *SQLiteAccountRepo) GetByID(ctx context.Context, id int64) (dom.Account, error) {
	return r.getOne(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = ?`, id)
}

// GetByUsername returns the account by username.
func (r *SQLiteAccountRepo) GetByUsername(ctx context.Context, username string) (dom.Account, error) {
	return r.getOne(ctx, `SELECT `+accountColumns+` FROM accounts WHERE username = ?`, username)
}

// GetByEmail returns the account by email.
func (r *SQLiteAccountRepo) GetByEmail(ctx context.Context, email string) (dom.Account, error) {
	return r.getOne(ctx, `SELECT `+accountColumns+` FROM accounts WHERE email = ?`, email)
}

// List returns all accounts ordered by id.
func (r *SQLiteAccountRepo) List(ctx context.Context) ([]dom.Account, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+accountColumns+` FROM accounts ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()
	list := []dom.Account{}
	for rows.Next() {
		a, err := scanSQLiteAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("list accounts: %w", err)
		}
		list = append(list, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	return list, nil
}

func (r *SQLiteAccountRepo) getOne(ctx context.Context, query string, arg any) (dom.Account, error) {
	a, err := scanSQLiteAccount(r.db.QueryRowContext(ctx, query, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return dom.Account{}, ErrNotFound
	}
	if err != nil {
		return dom.Account{}, fmt.Errorf("get account: %w", err)
	}
	return a, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSQLiteAccount(row rowScanner) (dom.Account, error) {
	var (
		a        dom.Account
		joinedOn string
	)
	if err := row.Scan(&a.ID, &a.Username, &a.Email, &a.DisplayName, &a.Location, &joinedOn); err != nil {
		return dom.Account{}, err
	}
	t, err := time.Parse(sqliteDateLayout, joinedOn)
	if err != nil {
		return dom.Account{}, fmt.Errorf("parse joined_on %q: %w", joinedOn, err)
	}
	a.JoinedOn = t
	return a, nil
}

var sqliteUniqueColumn = regexp.MustCompile(`UNIQUE constraint failed: ([A-Za-z0-9_]+)\.([A-Za-z0-9_]+)`)

func sqliteConstraintViolation(err error) (*ConstraintViolation, bool) {
	var sqliteErr *msqlite.Error
	if !errors.As(err, &sqliteErr) {
		return nil, false
	}
	if sqliteErr.Code() != sqlite3lib.SQLITE_CONSTRAINT_UNIQUE {
		return nil, false
	}
	cv := &ConstraintViolation{Detail: err.Error(), Err: err}
	if m := sqliteUniqueColumn.FindStringSubmatch(cv.Detail); m != nil {
		cv.Constraint = m[1] + "." + m[2]
		cv.Field = fieldForConstraint(m[2])
	}
	return cv, true
}

var _ AccountRepo = (*SQLiteAccountRepo)(nil)
