package repo

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	dom "Directory/internal/domain"
	"Directory/migrations"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// openPG connects to PG_TEST_DSN, migrates and truncates the accounts table.
func openPG(t *testing.T) *PGAccountRepo {
	t.Helper()
	dsn := os.Getenv("PG_TEST_DSN")
	if dsn == "" {
		t.Skip("PG_TEST_DSN not set")
	}
	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	db := stdlib.OpenDBFromPool(pool)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, migrations.Up(ctx, db, goose.DialectPostgres))

	_, err = pool.Exec(ctx, `TRUNCATE accounts`)
	require.NoError(t, err)
	return NewPGAccountRepo(pool)
}

func TestPGInsertAndLookups(t *testing.T) {
	r := openPG(t)
	ctx := context.Background()

	created, err := r.Insert(ctx, dom.Account{
		Username: "alice",
		Email:    "alice@x.com",
		JoinedOn: time.Date(2026, time.January, 5, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	assert.NotZero(t, created.ID)

	got, err := r.GetByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, created, got)

	_, err = r.GetByEmail(ctx, "nobody@x.com")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPGUniqueViolationUsesConstraintName(t *testing.T) {
	r := openPG(t)
	ctx := context.Background()
	now := time.Now().UTC()

	_, err := r.Insert(ctx, dom.Account{Username: "alice", Email: "alice@x.com", JoinedOn: now})
	require.NoError(t, err)

	_, err = r.Insert(ctx, dom.Account{Username: "bob", Email: "alice@x.com", JoinedOn: now})
	var cv *ConstraintViolation
	require.True(t, errors.As(err, &cv), "err = %v", err)
	assert.Equal(t, "accounts_email_key", cv.Constraint)
	assert.Equal(t, dom.FieldEmail, cv.Field)
}

func TestPGListReturnsInsertOrder(t *testing.T) {
	r := openPG(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		name := fmt.Sprintf("user%d", i)
		_, err := r.Insert(ctx, dom.Account{Username: name, Email: name + "@x.com", JoinedOn: time.Now()})
		require.NoError(t, err)
	}
	list, err := r.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "user0", list[0].Username)
}
