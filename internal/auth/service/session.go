package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/majesticmotors/dealerauth/internal/auth/domain"
	"github.com/majesticmotors/dealerauth/internal/auth/store"
	"github.com/majesticmotors/dealerauth/pkg/cryptox"
)

// DefaultSessionTTL matches the original product's 7-day session lifetime.
const DefaultSessionTTL = 7 * 24 * time.Hour

var (
	ErrSessionCreate   = errors.New("session_create_failed")
	ErrSessionNotFound = errors.New("session_not_found")
)

type SessionService struct {
	Store store.Store
	TTL   time.Duration
}

func (s *SessionService) ttl() time.Duration {
	if s.TTL == 0 {
		return DefaultSessionTTL
	}
	return s.TTL
}

// Issue creates a new session for an already-verified user and returns the
// opaque bearer token. Only the token's SHA-256 fingerprint is persisted.
// pending2FA is set per the second-factor policy: true until a second factor
// succeeds.
func (s *SessionService) Issue(ctx context.Context, userID string, pending2FA bool) (string, error) {
	token, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrSessionCreate, err)
	}

	session := domain.Session{
		TokenHash:  cryptox.FingerprintToken(token),
		UserID:     userID,
		Pending2FA: pending2FA,
		ExpiresAt:  time.Now().Add(s.ttl()),
	}

	if err := s.Store.Sessions().CreateSession(ctx, session); err != nil {
		// The caller must not treat the user as signed in.
		return "", fmt.Errorf("%w: %w", ErrSessionCreate, err)
	}

	return token, nil
}

// Resolve maps a bearer token to its live session. Expired or unknown
// tokens both come back as ErrSessionNotFound.
func (s *SessionService) Resolve(ctx context.Context, token string) (domain.Session, error) {
	session, err := s.Store.Sessions().GetSessionByTokenHash(ctx, cryptox.FingerprintToken(token))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Session{}, ErrSessionNotFound
		}
		return domain.Session{}, fmt.Errorf("load session: %w", err)
	}

	if session.Expired(time.Now()) {
		return domain.Session{}, ErrSessionNotFound
	}

	return session, nil
}

// SignOutAll is mass logout: every session for the user, on every device,
// becomes invalid at once.
func (s *SessionService) SignOutAll(ctx context.Context, userID string) error {
	if err := s.Store.Sessions().DeleteAllUserSessions(ctx, userID); err != nil {
		return fmt.Errorf("delete user sessions: %w", err)
	}
	return nil
}
