package cache

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	dom "Directory/internal/domain"

	"github.com/redis/go-redis/v9"
)

const (
	keyList       = "account:list"
	keyListGen    = "account:list:gen"
	keyByID       = "account:id:"
	keyByUsername = "account:username:"
	keyByEmail    = "account:email:"
)

// AccountCache caches accounts and the full listing in Redis.
// Accounts are immutable once created, so per-account keys are never invalidated.
type AccountCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewAccountCache returns a new AccountCache.
func NewAccountCache(rdb *redis.Client, ttl time.Duration) *AccountCache {
	return &AccountCache{rdb: rdb, ttl: ttl}
}

// GetList returns cached list or nil if miss.
func (c *AccountCache) GetList(ctx context.Context) ([]dom.Account, error) {
	var list []dom.Account
	ok, err := c.get(ctx, keyList, &list)
	if err != nil || !ok {
		return nil, err
	}
	return list, nil
}

// ListGeneration returns the current listing generation. It changes on every InvalidateList.
func (c *AccountCache) ListGeneration(ctx context.Context) (int64, error) {
	gen, err := c.rdb.Get(ctx, keyListGen).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	return gen, err
}

// SetList stores the list only if the generation is still gen.
// A list read before a concurrent create is dropped instead of cached.
func (c *AccountCache) SetList(ctx context.Context, list []dom.Account, gen int64) error {
	b, err := json.Marshal(list)
	if err != nil {
		return err
	}
	err = c.rdb.Watch(ctx, func(tx *redis.Tx) error {
		cur, err := tx.Get(ctx, keyListGen).Int64()
		if err != nil && err != redis.Nil {
			return err
		}
		if cur != gen {
			return nil
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, keyList, b, c.ttl)
			return nil
		})
		return err
	}, keyListGen)
	if err == redis.TxFailedErr {
		return nil
	}
	return err
}

// InvalidateList bumps the generation and drops the cached listing.
func (c *AccountCache) InvalidateList(ctx context.Context) error {
	pipe := c.rdb.TxPipeline()
	pipe.Incr(ctx, keyListGen)
	pipe.Del(ctx, keyList)
	_, err := pipe.Exec(ctx)
	return err
}

// GetByID returns the cached account, reporting whether it was present.
func (c *AccountCache) GetByID(ctx context.Context, id int64) (dom.Account, bool, error) {
	return c.getAccount(ctx, keyByID+strconv.FormatInt(id, 10))
}

// GetByUsername returns the cached account, reporting whether it was present.
func (c *AccountCache) GetByUsername(ctx context.Context, username string) (dom.Account, bool, error) {
	return c.getAccount(ctx, keyByUsername+username)
}

// GetByEmail returns the cached account, reporting whether it was present.
func (c *AccountCache) GetByEmail(ctx context.Context, email string) (dom.Account, bool, error) {
	return c.getAccount(ctx, keyByEmail+email)
}

// SetAccount stores a under all three of its keys.
func (c *AccountCache) SetAccount(ctx context.Context, a dom.Account) error {
	b, err := json.Marshal(a)
	if err != nil {
		return err
	}
	pipe := c.rdb.TxPipeline()
	pipe.Set(ctx, keyByID+strconv.FormatInt(a.ID, 10), b, c.ttl)
	pipe.Set(ctx, keyByUsername+a.Username, b, c.ttl)
	pipe.Set(ctx, keyByEmail+a.Email, b, c.ttl)
	_, err = pipe.Exec(ctx)
	return err
}

func (c *AccountCache) getAccount(ctx context.Context, key string) (dom.Account, bool, error) {
	var a dom.Account
	ok, err := c.get(ctx, key, &a)
	if err != nil || !ok {
		return dom.Account{}, false, err
	}
	return a, true, nil
}

func (c *AccountCache) get(ctx context.Context, key string, dst any) (bool, error) {
	b, err := c.rdb.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(b, dst); err != nil {
		return false, err
	}
	return true, nil
}
