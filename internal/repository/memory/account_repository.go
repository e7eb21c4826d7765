// Package memory provides the default in-process account store.
package memory

import (
	"context"
	"sync"

	"identity-service/internal/domain"
	"identity-service/internal/repository"
)

// AccountRepository keeps accounts in insertion order in process memory.
// All access goes through one mutex; Insert performs the uniqueness check,
// the id assignment and the append as a single critical section.
type AccountRepository struct {
	mu       sync.Mutex
	accounts []domain.Account
	byEmail  map[string]int
	byID     map[int64]int
	nextID   int64
}

func NewAccountRepository() *AccountRepository {
	return &AccountRepository{
		byEmail: make(map[string]int),
		byID:    make(map[int64]int),
		nextID:  1,
	}
}

func (r *AccountRepository) Init(ctx context.Context) error {
	return nil
}

func (r *AccountRepository) Insert(ctx context.Context, account *domain.Account) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, taken := r.byEmail[account.Email]; taken {
		return 0, repository.ErrEmailTaken
	}

	account.ID = r.nextID
	r.nextID++

	r.accounts = append(r.accounts, *account)
	idx := len(r.accounts) - 1
	r.byEmail[account.Email] = idx
	r.byID[account.ID] = idx

	return account.ID, nil
}

func (r *AccountRepository) GetByEmail(ctx context.Context, email string) (*domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	idx, ok := r.byEmail[email]
	if !ok {
		return nil, repository.ErrNotFound
	}
	account := r.accounts[idx]
	return &account, nil
}

func (r *AccountRepository) GetByID(ctx context.Context, id int64) (*domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	idx, ok := r.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	account := r.accounts[idx]
	return &account, nil
}

func (r *AccountRepository) ListAll(ctx context.Context) ([]domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]domain.Account, len(r.accounts))
	copy(out, r.accounts)
	return out, nil
}
