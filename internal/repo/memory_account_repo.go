package repo

import (
	"context"
	"fmt"
	"sync"

	dom "Directory/internal/domain"
)

// MemoryAccountRepo implements AccountRepo in process memory.
// Ids come from a monotonic counter and are never reused.
type MemoryAccountRepo struct {
	mu         sync.RWMutex
	nextID     int64
	byID       map[int64]dom.Account
	order      []int64
	byUsername map[string]int64
	byEmail    map[string]int64
}

// NewMemoryAccountRepo returns an empty MemoryAccountRepo.
func NewMemoryAccountRepo() *MemoryAccountRepo {
	return &MemoryAccountRepo{
		byID:       make(map[int64]dom.Account),
		byUsername: make(map[string]int64),
		byEmail:    make(map[string]int64),
	}
}

// Insert checks both unique keys and stores the account under one lock.
func (r *MemoryAccountRepo) Insert(ctx context.Context, a dom.Account) (dom.Account, error) {
	if err := ctx.Err(); err != nil {
		return dom.Account{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byEmail[a.Email]; ok {
		return dom.Account{}, &ConstraintViolation{
			Constraint: "accounts_email_key",
			Field:      dom.FieldEmail,
			Detail:     fmt.Sprintf("Key (email)=(%s) already exists.", a.Email),
		}
	}
	if _, ok := r.byUsername[a.Username]; ok {
		return dom.Account{}, &ConstraintViolation{
			Constraint: "accounts_username_key",
			Field:      dom.FieldUsername,
			Detail:     fmt.Sprintf("Key (username)=(%s) already exists.", a.Username),
		}
	}

	r.nextID++
	a.ID = r.nextID
	a.JoinedOn = dom.DateOnly(a.JoinedOn)
	r.byID[a.ID] = a
	r.order = append(r.order, a.ID)
	r.byUsername[a.Username] = a.ID
	r.byEmail[a.Email] = a.ID
	return a, nil
}

// GetByID returns the account by id.
func (r *MemoryAccountRepo) GetByID(ctx context.Context, id int64) (dom.Account, error) {
	if err := ctx.Err(); err != nil {
		return dom.Account{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.byID[id]
	if !ok {
		return dom.Account{}, ErrNotFound
	}
	return a, nil
}

// GetByUsername returns the account by username.
func (r *MemoryAccountRepo) GetByUsername(ctx context.Context, username string) (dom.Account, error) {
	return r.getByKey(ctx, r.byUsername, username)
}

// GetByEmail returns the account by email.
func (r *MemoryAccountRepo) GetByEmail(ctx context.Context, email string) (dom.Account, error) {
	return r.getByKey(ctx, r.byEmail, email)
}

// List returns all accounts in insertion order.
func (r *MemoryAccountRepo) List(ctx context.Context) ([]dom.Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	list := make([]dom.Account, 0, len(r.order))
	for _, id := range r.order {
		list = append(list, r.byID[id])
	}
	return list, nil
}

func (r *MemoryAccountRepo) getByKey(ctx context.Context, index map[string]int64, key string) (dom.Account, error) {
	if err := ctx.Err(); err != nil {
		return dom.Account{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := index[key]
	if !ok {
		return dom.Account{}, ErrNotFound
	}
	return r.byID[id], nil
}

var _ AccountRepo = (*MemoryAccountRepo)(nil)
