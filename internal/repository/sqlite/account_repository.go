package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"identity-service/internal/domain"
	"identity-service/internal/repository"
)

const createAccountsTable = `
CREATE TABLE IF NOT EXISTS accounts (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	full_name TEXT NOT NULL,
	email TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	bio TEXT,
	dob DATE,
	created_at DATETIME NOT NULL
);
`

// AccountRepository persists accounts in sqlite. Uniqueness is enforced by
// the UNIQUE column, so a lost insert race surfaces as ErrEmailTaken. Email
// comparison is sqlite's default BINARY collation, i.e. case-sensitive.
type AccountRepository struct {
	db *sql.DB
}

func NewAccountRepository(db *sql.DB) repository.AccountRepository {
	return &AccountRepository{db: db}
}

func (r *AccountRepository) Init(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createAccountsTable); err != nil {
		return fmt.Errorf("create accounts table: %w", err)
	}
	return nil
}

func (r *AccountRepository) Insert(ctx context.Context, account *domain.Account) (int64, error) {
	if account.CreatedAt.IsZero() {
		account.CreatedAt = time.Now().UTC()
	}

	var dob *string
	if account.DOB != nil {
		v := account.DOB.Format("2006-01-02")
		dob = &v
	}

	res, err := r.db.ExecContext(ctx, `
INSERT INTO accounts (full_name, email, password_hash, bio, dob, created_at)
VALUES (?, ?, ?, ?, ?, ?)`,
		account.FullName,
		account.Email,
		account.PasswordHash,
		account.Bio,
		dob,
		account.CreatedAt,
	)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "unique") {
			return 0, repository.ErrEmailTaken
		}
		return 0, fmt.Errorf("insert account: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("account last insert id: %w", err)
	}
	account.ID = id
	return id, nil
}

func (r *AccountRepository) GetByEmail(ctx context.Context, email string) (*domain.Account, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, full_name, email, password_hash, bio, dob, created_at
FROM accounts
WHERE email = ?`,
		email,
	)
	return scanAccount(row)
}

func (r *AccountRepository) GetByID(ctx context.Context, id int64) (*domain.Account, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, full_name, email, password_hash, bio, dob, created_at
FROM accounts
WHERE id = ?`,
		id,
	)
	return scanAccount(row)
}

func (r *AccountRepository) ListAll(ctx context.Context) ([]domain.Account, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, full_name, email, password_hash, bio, dob, created_at
FROM accounts
ORDER BY id`,
	)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	var accounts []domain.Account
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, *account)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate accounts: %w", err)
	}
	return accounts, nil
}

func scanAccount(row interface {
	Scan(dest ...any) error
}) (*domain.Account, error) {
	var (
		account domain.Account
		bio     sql.NullString
		dob     sql.NullString
	)
	if err := row.Scan(
		&account.ID,
		&account.FullName,
		&account.Email,
		&account.PasswordHash,
		&bio,
		&dob,
		&account.CreatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan account: %w", err)
	}

	if bio.Valid {
		account.Bio = &bio.String
	}
	if dob.Valid {
		parsed, err := time.Parse("2006-01-02", dob.String)
		if err != nil {
			return nil, fmt.Errorf("parse account dob: %w", err)
		}
		account.DOB = &parsed
	}
	return &account, nil
}
