package repo

import (
	"context"
	"errors"

	dom "Directory/internal/domain"
	"Directory/internal/utils"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const accountColumns = `id, username, email, display_name, location, joined_on`

// PGAccountRepo implements AccountRepo with Postgres.
type PGAccountRepo struct {
	db *pgxpool.Pool
}

// NewPGAccountRepo returns a new PGAccountRepo.
func NewPGAccountRepo(db *pgxpool.Pool) *PGAccountRepo {
	return &PGAccountRepo{db: db}
}

// Insert creates the account and returns it with its assigned id.
func (r *PGAccountRepo) Insert(ctx context.Context, a dom.Account) (dom.Account, error) {
	query := `
		INSERT INTO accounts (username, email, display_name, location, joined_on)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + accountColumns
	out, err := scanAccount(r.db.QueryRow(ctx, query,
		a.Username, a.Email, a.DisplayName, a.Location, a.JoinedOn,
	))
	if err != nil {
		if pge, ok := utils.AsPGUniqueViolation(err); ok {
			field := fieldForConstraint(pge.ConstraintName)
			if field == "" {
				field = fieldForConstraint(utils.PGDetailColumn(pge.Detail))
			}
			return dom.Account{}, &ConstraintViolation{
				Constraint: pge.ConstraintName,
				Field:      field,
				Detail:     pge.Detail,
				Err:        err,
			}
		}
		return dom.Account{}, err
	}
	return out, nil
}

// GetByID returns the account by id.
func (r *PGAccountRepo) GetByID(ctx context.Context, id int64) (dom.Account, error) {
	return r.getOne(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = $1`, id)
}

// GetByUsername returns the account by username.
func (r *PGAccountRepo) GetByUsername(ctx context.Context, username string) (dom.Account, error) {
	return r.getOne(ctx, `SELECT `+accountColumns+` FROM accounts WHERE username = $1`, username)
}

// GetByEmail returns the account by email.
func (r *PGAccountRepo) GetByEmail(ctx context.Context, email string) (dom.Account, error) {
	return r.getOne(ctx, `SELECT `+accountColumns+` FROM accounts WHERE email = $1`, email)
}

// List returns all accounts ordered by id.
func (r *PGAccountRepo) List(ctx context.Context) ([]dom.Account, error) {
	rows, err := r.db.Query(ctx, `SELECT `+accountColumns+` FROM accounts ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	list := []dom.Account{}
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, a)
	}
	return list, rows.Err()
}

func (r *PGAccountRepo) getOne(ctx context.Context, query string, arg any) (dom.Account, error) {
	a, err := scanAccount(r.db.QueryRow(ctx, query, arg))
	if errors.Is(err, pgx.ErrNoRows) {
		return dom.Account{}, ErrNotFound
	}
	return a, err
}

func scanAccount(row pgx.Row) (dom.Account, error) {
	var a dom.Account
	err := row.Scan(&a.ID, &a.Username, &a.Email, &a.DisplayName, &a.Location, &a.JoinedOn)
	if err != nil {
		return dom.Account{}, err
	}
	a.JoinedOn = dom.DateOnly(a.JoinedOn)
	return a, nil
}

var _ AccountRepo = (*PGAccountRepo)(nil)
