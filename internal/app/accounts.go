package app

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"quizhost-service/internal/domain"
)

// CentralAccount is the slice of the external account record the quiz
// core cares about.
type CentralAccount struct {
	ID     string `json:"id"`
	Email  string `json:"email"`
	Name   string `json:"name"`
	Coins  int    `json:"coins"`
	Tokens int    `json:"tokens"`
	XP     int    `json:"xp"`
	Level  int    `json:"level"`
}

// AccountDirectory is the central-account API surface used for account
// resolution. FindAccount returns nil when no account matches.
type AccountDirectory interface {
	FindAccount(ctx context.Context, email string) (*CentralAccount, error)
	CreateAccount(ctx context.Context, email, name, password string) (string, error)
}

// UserStore persists the local email → accountId cache.
type UserStore interface {
	GetUserByEmail(ctx context.Context, email string) (domain.User, error)
	CreateUser(ctx context.Context, user domain.User) error
}

// AccountService maps local players to central ledger accounts, caching
// the mapping lazily in the User table to avoid repeated lookups.
type AccountService struct {
	users     UserStore
	directory AccountDirectory
	now       func() time.Time
}

func NewAccountService(users UserStore, directory AccountDirectory) *AccountService {
	return &AccountService{users: users, directory: directory, now: time.Now}
}

// Signup creates the central account (idempotent when the email already
// exists there) and caches the mapping locally. A cache write failure is
// logged but does not fail the signup.
func (s *AccountService) Signup(ctx context.Context, email, name, password string) (string, error) {
	email = normalizeEmail(email)
	accountID, err := s.directory.CreateAccount(ctx, email, name, password)
	if err != nil {
		return "", err
	}
	s.cache(ctx, email, name, accountID)
	return accountID, nil
}

// ResolveAccountID returns the ledger account id for an email, or ""
// when no account exists. Central hits are backfilled into the cache.
func (s *AccountService) ResolveAccountID(ctx context.Context, email, name string) (string, error) {
	email = normalizeEmail(email)

	user, err := s.users.GetUserByEmail(ctx, email)
	if err == nil && user.AccountID != "" {
		return user.AccountID, nil
	}
	if err != nil && !errors.Is(err, domain.ErrUserNotFound) {
		return "", err
	}

	account, err := s.directory.FindAccount(ctx, email)
	if err != nil {
		return "", err
	}
	if account == nil {
		return "", nil
	}
	if name == "" {
		name = account.Name
	}
	s.cache(ctx, email, name, account.ID)
	return account.ID, nil
}

// Balance returns the account's coin/token/xp balances, or nil when the
// email has no account.
func (s *AccountService) Balance(ctx context.Context, email string) (*CentralAccount, error) {
	return s.directory.FindAccount(ctx, normalizeEmail(email))
}

func (s *AccountService) cache(ctx context.Context, email, name, accountID string) {
	if _, err := s.users.GetUserByEmail(ctx, email); err == nil {
		return
	}
	user := domain.User{
		ID:        domain.NewID(domain.PrefixUser),
		Email:     email,
		Name:      name,
		AccountID: accountID,
		CreatedAt: s.now(),
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		log.Printf("account cache: create user record for account %s: %v", accountID, err)
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
