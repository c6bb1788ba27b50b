package service

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	dom "Directory/internal/domain"
	"Directory/internal/repo"

	"golang.org/x/sync/singleflight"
)

// AccountCache is the read-through cache consulted by AccountService.
// *cache.AccountCache satisfies it.
type AccountCache interface {
	GetList(ctx context.Context) ([]dom.Account, error)
	ListGeneration(ctx context.Context) (int64, error)
	SetList(ctx context.Context, list []dom.Account, gen int64) error
	InvalidateList(ctx context.Context) error
	GetByID(ctx context.Context, id int64) (dom.Account, bool, error)
	GetByUsername(ctx context.Context, username string) (dom.Account, bool, error)
	GetByEmail(ctx context.Context, email string) (dom.Account, bool, error)
	SetAccount(ctx context.Context, a dom.Account) error
}

// AccountService enforces the directory rules on top of an AccountRepo.
// It keeps no mutable state; uniqueness under contention is decided by the repo.
type AccountService struct {
	repo  repo.AccountRepo
	cache AccountCache
	sf    singleflight.Group
	now   func() time.Time
}

// Option configures an AccountService.
type Option func(*AccountService)

// WithCache enables read-through caching. A nil cache leaves caching disabled.
func WithCache(c AccountCache) Option {
	return func(s *AccountService) { s.cache = c }
}

// WithClock overrides the clock used to default JoinedOn.
func WithClock(now func() time.Time) Option {
	return func(s *AccountService) {
		if now != nil {
			s.now = now
		}
	}
}

// NewAccountService creates an AccountService.
func NewAccountService(r repo.AccountRepo, opts ...Option) *AccountService {
	s := &AccountService{repo: r, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create persists a new account. The id must be unset; JoinedOn defaults to today.
func (s *AccountService) Create(ctx context.Context, a dom.Account) (dom.Account, error) {
	if a.ID != 0 {
		return dom.Account{}, &dom.ValidationError{Field: dom.FieldID, Reason: "must not be set on create"}
	}
	// Username and email are stored exactly as given; uniqueness is byte-exact.
	if strings.TrimSpace(a.Username) == "" {
		return dom.Account{}, &dom.ValidationError{Field: dom.FieldUsername, Reason: "is required"}
	}
	if strings.TrimSpace(a.Email) == "" {
		return dom.Account{}, &dom.ValidationError{Field: dom.FieldEmail, Reason: "is required"}
	}
	a.DisplayName = strings.TrimSpace(a.DisplayName)
	a.Location = strings.TrimSpace(a.Location)
	if a.JoinedOn.IsZero() {
		a.JoinedOn = s.now()
	}
	a.JoinedOn = dom.DateOnly(a.JoinedOn)

	created, err := s.repo.Insert(ctx, a)
	if err != nil {
		var cv *repo.ConstraintViolation
		if errors.As(err, &cv) {
			return dom.Account{}, duplicateFieldFor(cv, a)
		}
		return dom.Account{}, &dom.Unavailable{Op: "create account", Err: err}
	}
	if s.cache != nil {
		_ = s.cache.InvalidateList(ctx)
		_ = s.cache.SetAccount(ctx, created)
	}
	return created, nil
}

// GetByID returns the account and true, or false when no account has that id.
func (s *AccountService) GetByID(ctx context.Context, id int64) (dom.Account, bool, error) {
	if s.cache != nil {
		if a, ok, err := s.cache.GetByID(ctx, id); err == nil && ok {
			return a, true, nil
		}
	}
	v, err := s.shared(ctx, "id:"+strconv.FormatInt(id, 10), func(ctx context.Context) (interface{}, error) {
		return s.repo.GetByID(ctx, id)
	})
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return dom.Account{}, false, nil
		}
		return dom.Account{}, false, &dom.Unavailable{Op: "get account by id", Err: err}
	}
	a := v.(dom.Account)
	s.remember(ctx, a)
	return a, true, nil
}

// GetByUsername returns the account or a *domain.NotFound naming the username.
func (s *AccountService) GetByUsername(ctx context.Context, username string) (dom.Account, error) {
	if s.cache != nil {
		if a, ok, err := s.cache.GetByUsername(ctx, username); err == nil && ok {
			return a, nil
		}
	}
	return s.lookup(ctx, dom.FieldUsername, username, s.repo.GetByUsername)
}

// GetByEmail returns the account or a *domain.NotFound naming the email.
func (s *AccountService) GetByEmail(ctx context.Context, email string) (dom.Account, error) {
	if s.cache != nil {
		if a, ok, err := s.cache.GetByEmail(ctx, email); err == nil && ok {
			return a, nil
		}
	}
	return s.lookup(ctx, dom.FieldEmail, email, s.repo.GetByEmail)
}

// List returns every account in store order.
func (s *AccountService) List(ctx context.Context) ([]dom.Account, error) {
	v, err := s.shared(ctx, "list", func(ctx context.Context) (interface{}, error) {
		var (
			gen       int64
			cacheable bool
		)
		if s.cache != nil {
			if list, err := s.cache.GetList(ctx); err == nil && list != nil {
				return list, nil
			}
			// Read the generation before the store so a create landing in
			// between makes SetList a no-op.
			var err error
			gen, err = s.cache.ListGeneration(ctx)
			cacheable = err == nil
		}
		list, err := s.repo.List(ctx)
		if err != nil {
			return nil, err
		}
		if list == nil {
			list = []dom.Account{}
		}
		if cacheable {
			_ = s.cache.SetList(ctx, list, gen)
		}
		return list, nil
	})
	if err != nil {
		return nil, &dom.Unavailable{Op: "list accounts", Err: err}
	}
	return v.([]dom.Account), nil
}

func (s *AccountService) lookup(ctx context.Context, field, value string, get func(context.Context, string) (dom.Account, error)) (dom.Account, error) {
	v, err := s.shared(ctx, field+":"+value, func(ctx context.Context) (interface{}, error) {
		return get(ctx, value)
	})
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return dom.Account{}, &dom.NotFound{Entity: dom.EntityAccount, Field: field, Value: value}
		}
		return dom.Account{}, &dom.Unavailable{Op: "get account by " + field, Err: err}
	}
	a := v.(dom.Account)
	s.remember(ctx, a)
	return a, nil
}

// shared runs fn once per key across concurrent callers. The shared call is
// detached from any single caller's cancellation; each caller still stops
// waiting when its own ctx is done.
func (s *AccountService) shared(ctx context.Context, key string, fn func(context.Context) (interface{}, error)) (interface{}, error) {
	detached := context.WithoutCancel(ctx)
	ch := s.sf.DoChan(key, func() (interface{}, error) {
		return fn(detached)
	})
	select {
	case res := <-ch:
		return res.Val, res.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (s *AccountService) remember(ctx context.Context, a dom.Account) {
	if s.cache != nil {
		_ = s.cache.SetAccount(ctx, a)
	}
}
