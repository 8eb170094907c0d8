package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/majesticmotors/dealerauth/internal/auth/domain"
	"github.com/majesticmotors/dealerauth/internal/auth/store"
	"github.com/majesticmotors/dealerauth/pkg/cryptox"
	"github.com/majesticmotors/dealerauth/pkg/slogx"
)

// ErrInvalidCredentials covers both unknown email and wrong password. The
// two cases are never distinguishable to the caller; logs may tell them
// apart.
var ErrInvalidCredentials = errors.New("invalid_credentials")

type CredentialsService struct {
	Store store.Store
}

// Verify checks an email/password pair against the stored hash and returns
// the user on success. Read-only: no lockout or counter state is touched
// here (the rate limiter guards the endpoint).
func (s *CredentialsService) Verify(ctx context.Context, email, password string) (domain.User, error) {
	l := slogx.FromContext(ctx)

	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.Store.Users().GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// Burn the same hashing cost as the found-user path so timing
			// does not reveal whether the account exists.
			_ = cryptox.VerifyPassword(password, cryptox.DummyHash())
			l.Info("credential check failed", "reason", "unknown_email")
			return domain.User{}, ErrInvalidCredentials
		}
		return domain.User{}, fmt.Errorf("load user by email: %w", err)
	}

	if err := cryptox.VerifyPassword(password, user.PasswordHash); err != nil {
		if errors.Is(err, cryptox.ErrMismatch) {
			l.Info("credential check failed", "reason", "password_mismatch", "user_id", user.ID)
			return domain.User{}, ErrInvalidCredentials
		}
		// Malformed stored hash: an internal fault, not a user error.
		return domain.User{}, fmt.Errorf("verify password hash: %w", err)
	}

	return user, nil
}
