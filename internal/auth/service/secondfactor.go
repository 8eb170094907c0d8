package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/majesticmotors/dealerauth/internal/auth/store"
)

// SecondFactorService coordinates which second factor applies to a sign-in.
// Policy: an enabled TOTP always wins; emailed codes are the fallback for
// everyone else.
type SecondFactorService struct {
	Store      store.Store
	TOTP       *TOTPService
	Challenges *ChallengeService
}

// Begin starts the second-factor step right after a successful password
// check. When the user is on TOTP it does nothing (their authenticator
// already has the code) and reports usesTotp=true; otherwise it issues and
// emails a fresh challenge.
func (s *SecondFactorService) Begin(ctx context.Context, userID string) (usesTotp bool, err error) {
	user, err := s.Store.Users().GetUserByID(ctx, userID)
	if err != nil {
		return false, fmt.Errorf("load user: %w", err)
	}

	if user.TOTPEnabled {
		return true, nil
	}

	if err := s.Challenges.Issue(ctx, userID, user.Email); err != nil {
		return false, err
	}
	return false, nil
}

// Resend re-issues the emailed code, invalidating the previous one. For a
// TOTP user there is nothing to send; the handler uses usesTotp to tell
// them to open their authenticator instead.
func (s *SecondFactorService) Resend(ctx context.Context, userID string) (usesTotp bool, err error) {
	return s.Begin(ctx, userID)
}

// Verify completes the second-factor step with whichever factor the user is
// on. Success flips the pending session to fully authenticated exactly once.
func (s *SecondFactorService) Verify(ctx context.Context, userID, code string) error {
	user, err := s.Store.Users().GetUserByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("load user: %w", err)
	}

	if !user.TOTPEnabled {
		return s.Challenges.Complete(ctx, userID, code)
	}

	// TOTP path: no stored challenge, so the pending flip happens here.
	if err := s.TOTP.VerifyForLogin(ctx, userID, code); err != nil {
		return err
	}

	session, err := s.Store.Sessions().GetPendingSessionByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrSessionNotFound
		}
		return fmt.Errorf("load pending session: %w", err)
	}

	flipped, err := s.Store.Sessions().ClearSessionPending(ctx, session.TokenHash)
	if err != nil {
		return fmt.Errorf("clear session pending: %w", err)
	}
	if !flipped {
		return ErrSessionNotFound
	}
	return nil
}
