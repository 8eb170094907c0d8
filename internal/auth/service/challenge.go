package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/majesticmotors/dealerauth/internal/auth/domain"
	"github.com/majesticmotors/dealerauth/internal/auth/mailer"
	"github.com/majesticmotors/dealerauth/internal/auth/store"
	"github.com/majesticmotors/dealerauth/pkg/cryptox"
	"github.com/majesticmotors/dealerauth/pkg/slogx"
)

// DefaultChallengeTTL is how long an emailed code stays valid.
const DefaultChallengeTTL = 10 * time.Minute

var (
	// ErrChallengeNotFound covers both "no outstanding challenge" and
	// "challenge expired": the caller should re-request a code either way.
	ErrChallengeNotFound = errors.New("challenge_not_found")

	// ErrInvalidCode is a wrong second-factor code, emailed or TOTP. The
	// challenge stays valid so the user can retry.
	ErrInvalidCode = errors.New("invalid_code")

	ErrEmailDelivery = errors.New("email_delivery_failed")
)

// ChallengeService owns the emailed one-time-code flow. At most one
// challenge exists per user; issuing a new one invalidates the old.
type ChallengeService struct {
	Store  store.Store
	Mailer mailer.Sender
	TTL    time.Duration
}

func (s *ChallengeService) ttl() time.Duration {
	if s.TTL == 0 {
		return DefaultChallengeTTL
	}
	return s.TTL
}

// Issue generates a fresh 6-digit code, stores only its hash, and emails the
// plaintext to the user. A delivery failure comes back as ErrEmailDelivery
// but leaves the stored challenge in place: the code was generated and could
// still arrive late, so it must remain verifiable until it expires.
func (s *ChallengeService) Issue(ctx context.Context, userID, email string) error {
	l := slogx.FromContext(ctx)

	code, err := cryptox.GenerateOTPCode()
	if err != nil {
		return fmt.Errorf("generate otp code: %w", err)
	}

	codeHash, err := cryptox.HashPassword(code)
	if err != nil {
		return fmt.Errorf("hash otp code: %w", err)
	}

	challenge := domain.OTPChallenge{
		UserID:    userID,
		CodeHash:  codeHash,
		Email:     email,
		ExpiresAt: time.Now().Add(s.ttl()),
	}
	if err := s.Store.Challenges().UpsertChallenge(ctx, challenge); err != nil {
		return fmt.Errorf("store challenge: %w", err)
	}

	msg := mailer.ChallengeEmail(email, code, s.ttl())
	if err := s.Mailer.Send(ctx, msg); err != nil {
		l.Error("challenge email failed", "user_id", userID, "error", err)
		return fmt.Errorf("%w: %w", ErrEmailDelivery, err)
	}

	l.Info("challenge issued", "user_id", userID)
	return nil
}

// Complete verifies a submitted code and, on success, atomically flips the
// user's pending session to fully authenticated and consumes the challenge.
// A wrong code mutates nothing. A missing pending session leaves the
// challenge intact so a retry with a live session can still succeed.
func (s *ChallengeService) Complete(ctx context.Context, userID, code string) error {
	challenge, err := s.Store.Challenges().GetChallengeByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrChallengeNotFound
		}
		return fmt.Errorf("load challenge: %w", err)
	}

	if challenge.Expired(time.Now()) {
		return ErrChallengeNotFound
	}

	if err := cryptox.VerifyPassword(code, challenge.CodeHash); err != nil {
		if errors.Is(err, cryptox.ErrMismatch) {
			return ErrInvalidCode
		}
		return fmt.Errorf("verify challenge code: %w", err)
	}

	return s.Store.WithTx(ctx, func(tx store.Tx) error {
		session, err := tx.Sessions().GetPendingSessionByUser(ctx, userID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrSessionNotFound
			}
			return fmt.Errorf("load pending session: %w", err)
		}

		flipped, err := tx.Sessions().ClearSessionPending(ctx, session.TokenHash)
		if err != nil {
			return fmt.Errorf("clear session pending: %w", err)
		}
		if !flipped {
			// Lost a race with another verification attempt.
			return ErrSessionNotFound
		}

		consumed, err := tx.Challenges().ConsumeChallenge(ctx, userID)
		if err != nil {
			return fmt.Errorf("consume challenge: %w", err)
		}
		if !consumed {
			return ErrChallengeNotFound
		}
		return nil
	})
}
