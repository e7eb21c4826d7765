package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"identity-service/internal/domain"
	"identity-service/internal/password"
	"identity-service/internal/repository"
	"identity-service/internal/token"
)

// ErrLoginFailed is returned for any failed authentication. Unknown email and
// wrong password map to this same value so callers cannot tell which factor
// failed.
var ErrLoginFailed = errors.New("login failed")

const (
	msgFullNameEmpty    = "Full name must not be empty"
	msgEmailEmpty       = "Email must not be empty"
	msgEmailInvalid     = "Invalid email format"
	msgEmailTaken       = "Email is already registered"
	msgPasswordEmpty    = "Password must not be empty"
	msgPasswordTooShort = "Password must be at least 8 characters long"
	msgPasswordNoSymbol = "Password must contain at least 1 symbol"
	msgDOBInvalid       = "Date of birth must be a valid date (YYYY-MM-DD)"
)

var (
	emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
	// a digit or any character outside [A-Za-z0-9_]
	passwordSymbolPattern = regexp.MustCompile(`[\d\W]`)
)

// FieldError names one violated validation rule.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError carries every violated rule of a registration attempt.
type ValidationError []FieldError

func (e ValidationError) Error() string {
	msgs := make([]string, len(e))
	for i, fe := range e {
		msgs[i] = fmt.Sprintf("%s: %s", fe.Field, fe.Message)
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

// RegisterInput is a registration candidate. Bio and DOB are optional; DOB is
// the raw YYYY-MM-DD string from the request.
type RegisterInput struct {
	FullName string
	Email    string
	Password string
	Bio      *string
	DOB      *string
}

// AccountService describes the account lifecycle operations.
type AccountService interface {
	Register(ctx context.Context, in RegisterInput) error
	Login(ctx context.Context, email, pass string) (string, error)
	GetByID(ctx context.Context, id int64) (*domain.Account, error)
	ListAll(ctx context.Context) ([]domain.Account, error)
}

type accountService struct {
	accounts repository.AccountRepository
	hasher   password.Hasher
	issuer   *token.Issuer
}

func NewAccountService(accounts repository.AccountRepository, hasher password.Hasher, issuer *token.Issuer) AccountService {
	return &accountService{
		accounts: accounts,
		hasher:   hasher,
		issuer:   issuer,
	}
}

// Register validates the candidate, hashes the password and persists the
// account. On any rule violation it returns a ValidationError listing every
// violated rule and persists nothing. A concurrent registration that wins the
// same email is reported like any other taken email.
func (s *accountService) Register(ctx context.Context, in RegisterInput) error {
	dob, verrs := s.validate(ctx, in)
	if len(verrs) > 0 {
		return verrs
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	account := &domain.Account{
		FullName:     in.FullName,
		Email:        in.Email,
		PasswordHash: hash,
		Bio:          in.Bio,
		DOB:          dob,
		CreatedAt:    time.Now().UTC(),
	}

	if _, err := s.accounts.Insert(ctx, account); err != nil {
		if errors.Is(err, repository.ErrEmailTaken) {
			return ValidationError{{Field: "email", Message: msgEmailTaken}}
		}
		return fmt.Errorf("insert account: %w", err)
	}

	return nil
}

// validate applies every registration rule and collects the violations. Rules
// for a single field are checked in order and stop at the first violation of
// that field; violations across fields accumulate.
func (s *accountService) validate(ctx context.Context, in RegisterInput) (*time.Time, ValidationError) {
	var verrs ValidationError

	if in.FullName == "" {
		verrs = append(verrs, FieldError{Field: "fullName", Message: msgFullNameEmpty})
	}

	switch {
	case in.Email == "":
		verrs = append(verrs, FieldError{Field: "email", Message: msgEmailEmpty})
	case !emailPattern.MatchString(in.Email):
		verrs = append(verrs, FieldError{Field: "email", Message: msgEmailInvalid})
	default:
		if _, err := s.accounts.GetByEmail(ctx, in.Email); err == nil {
			verrs = append(verrs, FieldError{Field: "email", Message: msgEmailTaken})
		}
	}

	switch {
	case in.Password == "":
		verrs = append(verrs, FieldError{Field: "password", Message: msgPasswordEmpty})
	case len(in.Password) < 8:
		verrs = append(verrs, FieldError{Field: "password", Message: msgPasswordTooShort})
	case !passwordSymbolPattern.MatchString(in.Password):
		verrs = append(verrs, FieldError{Field: "password", Message: msgPasswordNoSymbol})
	}

	var dob *time.Time
	if in.DOB != nil {
		parsed, err := time.Parse("2006-01-02", *in.DOB)
		if err != nil {
			verrs = append(verrs, FieldError{Field: "dob", Message: msgDOBInvalid})
		} else {
			dob = &parsed
		}
	}

	return dob, verrs
}

// Login authenticates the credentials and returns a signed bearer token.
func (s *accountService) Login(ctx context.Context, email, pass string) (string, error) {
	account, err := s.accounts.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", ErrLoginFailed
		}
		return "", fmt.Errorf("lookup account: %w", err)
	}

	if !s.hasher.Verify(pass, account.PasswordHash) {
		return "", ErrLoginFailed
	}

	tok, err := s.issuer.Issue(account.ID, account.Email)
	if err != nil {
		return "", fmt.Errorf("issue token: %w", err)
	}

	return tok, nil
}

func (s *accountService) GetByID(ctx context.Context, id int64) (*domain.Account, error) {
	account, err := s.accounts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return sanitizeAccount(account), nil
}

func (s *accountService) ListAll(ctx context.Context) ([]domain.Account, error) {
	accounts, err := s.accounts.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	for i := range accounts {
		accounts[i].PasswordHash = ""
	}
	return accounts, nil
}

// sanitizeAccount strips the password hash before the account leaves the core.
func sanitizeAccount(account *domain.Account) *domain.Account {
	if account == nil {
		return nil
	}
	clean := *account
	clean.PasswordHash = ""
	return &clean
}
