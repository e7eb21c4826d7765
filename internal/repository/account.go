package repository

import (
	"context"
	"errors"

	"identity-service/internal/domain"
)

var (
	// ErrNotFound is returned when no account matches a lookup.
	ErrNotFound = errors.New("account not found")
	// ErrEmailTaken is returned by Insert when another account already owns
	// the email. Insert is the single uniqueness authority: the check and the
	// append happen in one critical section, so concurrent registrations for
	// the same email cannot both succeed.
	ErrEmailTaken = errors.New("email already registered")
)

// AccountRepository defines persistence operations for Account entities.
// ListAll returns accounts in insertion order. Insert assigns the id; ids are
// monotonically increasing and never reused.
type AccountRepository interface {
	Init(ctx context.Context) error
	Insert(ctx context.Context, account *domain.Account) (int64, error)
	GetByEmail(ctx context.Context, email string) (*domain.Account, error)
	GetByID(ctx context.Context, id int64) (*domain.Account, error)
	ListAll(ctx context.Context) ([]domain.Account, error)
}
