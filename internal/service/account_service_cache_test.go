package service

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	dom "Directory/internal/domain"
	"Directory/internal/repo"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCache struct {
	list        []dom.Account
	gen         int64
	accounts    map[string]dom.Account
	invalidated int
	failReads   bool
}

func newFakeCache() *fakeCache {
	return &fakeCache{accounts: map[string]dom.Account{}}
}

var errCacheDown = errors.New("cache down")

func (c *fakeCache) GetList(context.Context) ([]dom.Account, error) {
	if c.failReads {
		return nil, errCacheDown
	}
	return c.list, nil
}

func (c *fakeCache) ListGeneration(context.Context) (int64, error) {
	return c.gen, nil
}

func (c *fakeCache) SetList(_ context.Context, list []dom.Account, gen int64) error {
	if gen == c.gen {
		c.list = list
	}
	return nil
}

func (c *fakeCache) InvalidateList(context.Context) error {
	c.invalidated++
	c.gen++
	c.list = nil
	return nil
}

func (c *fakeCache) GetByID(_ context.Context, id int64) (dom.Account, bool, error) {
	if c.failReads {
		return dom.Account{}, false, errCacheDown
	}
	for _, a := range c.accounts {
		if a.ID == id {
			return a, true, nil
		}
	}
	return dom.Account{}, false, nil
}

func (c *fakeCache) GetByUsername(_ context.Context, username string) (dom.Account, bool, error) {
	if c.failReads {
		return dom.Account{}, false, errCacheDown
	}
	a, ok := c.accounts["u:"+username]
	return a, ok, nil
}

func (c *fakeCache) GetByEmail(_ context.Context, email string) (dom.Account, bool, error) {
	if c.failReads {
		return dom.Account{}, false, errCacheDown
	}
	a, ok := c.accounts["e:"+email]
	return a, ok, nil
}

func (c *fakeCache) SetAccount(_ context.Context, a dom.Account) error {
	c.accounts["u:"+a.Username] = a
	c.accounts["e:"+a.Email] = a
	return nil
}

// countingRepo counts reads that reach the store.
type countingRepo struct {
	*repo.MemoryAccountRepo
	lists int
	gets  int
}

func (r *countingRepo) List(ctx context.Context) ([]dom.Account, error) {
	r.lists++
	return r.MemoryAccountRepo.List(ctx)
}

func (r *countingRepo) GetByUsername(ctx context.Context, username string) (dom.Account, error) {
	r.gets++
	return r.MemoryAccountRepo.GetByUsername(ctx, username)
}

func TestListServedFromCacheUntilCreate(t *testing.T) {
	r := &countingRepo{MemoryAccountRepo: repo.NewMemoryAccountRepo()}
	c := newFakeCache()
	svc := newTestService(r, WithCache(c))
	ctx := context.Background()

	_, err := svc.Create(ctx, dom.Account{Username: "a", Email: "a@x.com"})
	require.NoError(t, err)
	assert.Equal(t, 1, c.invalidated)

	list, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
	list, err = svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
	assert.Equal(t, 1, r.lists)

	_, err = svc.Create(ctx, dom.Account{Username: "b", Email: "b@x.com"})
	require.NoError(t, err)
	list, err = svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 2)
	assert.Equal(t, 2, r.lists)
}

func TestLookupCacheHitSkipsStore(t *testing.T) {
	r := &countingRepo{MemoryAccountRepo: repo.NewMemoryAccountRepo()}
	c := newFakeCache()
	svc := newTestService(r, WithCache(c))
	ctx := context.Background()

	created, err := svc.Create(ctx, dom.Account{Username: "alice", Email: "alice@x.com"})
	require.NoError(t, err)

	got, err := svc.GetByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, created, got)
	assert.Zero(t, r.gets)
}

func TestCacheFailureFallsBackToStore(t *testing.T) {
	r := &countingRepo{MemoryAccountRepo: repo.NewMemoryAccountRepo()}
	c := newFakeCache()
	svc := newTestService(r, WithCache(c))
	ctx := context.Background()

	_, err := svc.Create(ctx, dom.Account{Username: "alice", Email: "alice@x.com"})
	require.NoError(t, err)
	c.failReads = true

	got, err := svc.GetByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "alice", got.Username)
	assert.Equal(t, 1, r.gets)

	list, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestNotFoundIsNotCached(t *testing.T) {
	r := &countingRepo{MemoryAccountRepo: repo.NewMemoryAccountRepo()}
	c := newFakeCache()
	svc := newTestService(r, WithCache(c))
	ctx := context.Background()

	_, err := svc.GetByUsername(ctx, "ghost")
	require.True(t, dom.IsKind(err, dom.KindNotFound))
	assert.Empty(t, c.accounts)

	_, err = svc.Create(ctx, dom.Account{Username: "ghost", Email: "ghost@x.com"})
	require.NoError(t, err)
	_, err = svc.GetByUsername(ctx, "ghost")
	require.NoError(t, err)
}

// pausingRepo holds List after the store read until release is closed.
type pausingRepo struct {
	*repo.MemoryAccountRepo
	listed  chan struct{}
	release chan struct{}
}

func (r *pausingRepo) List(ctx context.Context) ([]dom.Account, error) {
	list, err := r.MemoryAccountRepo.List(ctx)
	close(r.listed)
	<-r.release
	return list, err
}

func TestCreateDuringListDoesNotLeaveStaleListing(t *testing.T) {
	r := &pausingRepo{
		MemoryAccountRepo: repo.NewMemoryAccountRepo(),
		listed:            make(chan struct{}),
		release:           make(chan struct{}),
	}
	c := newFakeCache()
	svc := newTestService(r, WithCache(c))
	ctx := context.Background()

	done := make(chan []dom.Account)
	go func() {
		list, err := svc.List(ctx)
		assert.NoError(t, err)
		done <- list
	}()
	<-r.listed

	_, err := svc.Create(ctx, dom.Account{Username: "alice", Email: "alice@x.com"})
	require.NoError(t, err)
	close(r.release)
	assert.Empty(t, <-done)

	// The pre-create read must not have been cached.
	assert.Nil(t, c.list)
	r.listed = make(chan struct{})
	list, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
	assert.Len(t, c.list, 1)
}

// blockingRepo holds GetByUsername until release is closed.
type blockingRepo struct {
	*repo.MemoryAccountRepo
	calls   atomic.Int32
	entered chan struct{}
	release chan struct{}
}

func (r *blockingRepo) GetByUsername(ctx context.Context, username string) (dom.Account, error) {
	if r.calls.Add(1) == 1 {
		close(r.entered)
	}
	<-r.release
	return r.MemoryAccountRepo.GetByUsername(ctx, username)
}

func TestCancelledCallerDoesNotFailCoalescedLookup(t *testing.T) {
	r := &blockingRepo{
		MemoryAccountRepo: repo.NewMemoryAccountRepo(),
		entered:           make(chan struct{}),
		release:           make(chan struct{}),
	}
	ctx := context.Background()
	_, err := r.MemoryAccountRepo.Insert(ctx, dom.Account{Username: "alice", Email: "alice@x.com"})
	require.NoError(t, err)
	svc := newTestService(r)

	first, cancel := context.WithCancel(ctx)
	firstErr := make(chan error)
	go func() {
		_, err := svc.GetByUsername(first, "alice")
		firstErr <- err
	}()
	<-r.entered
	cancel()
	err = <-firstErr
	assert.True(t, dom.IsKind(err, dom.KindUnavailable))
	assert.ErrorIs(t, err, context.Canceled)

	second := make(chan error)
	go func() {
		a, err := svc.GetByUsername(ctx, "alice")
		if err == nil && a.Username != "alice" {
			err = errors.New("wrong account")
		}
		second <- err
	}()
	time.Sleep(20 * time.Millisecond)
	close(r.release)
	require.NoError(t, <-second)
	assert.LessOrEqual(t, r.calls.Load(), int32(2))
}
