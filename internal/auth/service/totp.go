package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"

	"github.com/majesticmotors/dealerauth/internal/auth/domain"
	"github.com/majesticmotors/dealerauth/internal/auth/store"
	"github.com/majesticmotors/dealerauth/pkg/qr"
	"github.com/majesticmotors/dealerauth/pkg/slogx"
)

var (
	ErrTOTPNotSetUp       = errors.New("totp_not_set_up")
	ErrTOTPNotEnabled     = errors.New("totp_not_enabled")
	ErrTOTPAlreadyEnabled = errors.New("totp_already_enabled")
)

// totpSecretSize is 20 bytes (160 bits), the RFC 4226 recommended minimum.
const totpSecretSize = 20

// TOTPService manages authenticator-app enrolment and verification. Enabling
// is two-step: Setup provisions a secret, Enable proves the authenticator
// actually holds it.
type TOTPService struct {
	Store  store.Store
	Issuer string
}

// validateCode checks a 6-digit code against a secret, accepting one 30s
// period of clock skew either side.
func validateCode(code, secret string) bool {
	ok, err := totp.ValidateCustom(code, secret, time.Now().UTC(), totp.ValidateOpts{
		Period:    30,
		Skew:      1,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	})
	return err == nil && ok
}

// Setup generates a fresh secret for the user and returns it with an
// otpauth QR code. The secret is provisional until Enable confirms it; a
// repeat Setup simply rotates the provisional secret. Once TOTP is enabled,
// Setup refuses: the user must disable first.
func (s *TOTPService) Setup(ctx context.Context, userID string) (domain.TOTPSetupResponse, error) {
	user, err := s.Store.Users().GetUserByID(ctx, userID)
	if err != nil {
		return domain.TOTPSetupResponse{}, fmt.Errorf("load user: %w", err)
	}
	if user.TOTPEnabled {
		return domain.TOTPSetupResponse{}, ErrTOTPAlreadyEnabled
	}

	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      s.Issuer,
		AccountName: user.Email,
		SecretSize:  totpSecretSize,
		Period:      30,
		Digits:      otp.DigitsSix,
		Algorithm:   otp.AlgorithmSHA1,
	})
	if err != nil {
		return domain.TOTPSetupResponse{}, fmt.Errorf("generate totp key: %w", err)
	}

	if err := s.Store.Users().SetTOTPSecret(ctx, userID, key.Secret()); err != nil {
		return domain.TOTPSetupResponse{}, fmt.Errorf("store totp secret: %w", err)
	}

	qrURI, err := qr.RenderDataURI(key.URL())
	if err != nil {
		return domain.TOTPSetupResponse{}, fmt.Errorf("render qr code: %w", err)
	}

	return domain.TOTPSetupResponse{
		Secret:  key.Secret(),
		QRCode:  qrURI,
		Issuer:  s.Issuer,
		Account: user.Email,
	}, nil
}

// Enable confirms the provisional secret by checking a live code from the
// user's authenticator, then turns TOTP on.
func (s *TOTPService) Enable(ctx context.Context, userID, code string) error {
	l := slogx.FromContext(ctx)

	user, err := s.Store.Users().GetUserByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("load user: %w", err)
	}
	if user.TOTPEnabled {
		return ErrTOTPAlreadyEnabled
	}
	if user.TOTPSecret == nil {
		return ErrTOTPNotSetUp
	}

	if !validateCode(code, *user.TOTPSecret) {
		return ErrInvalidCode
	}

	if err := s.Store.Users().EnableTOTP(ctx, userID); err != nil {
		return fmt.Errorf("enable totp: %w", err)
	}

	l.Info("totp enabled", "user_id", userID)
	return nil
}

// Disable turns TOTP off and discards the secret. Sign-ins fall back to
// emailed codes from the next attempt.
func (s *TOTPService) Disable(ctx context.Context, userID string) error {
	if err := s.Store.Users().DisableTOTP(ctx, userID); err != nil {
		return fmt.Errorf("disable totp: %w", err)
	}
	slogx.FromContext(ctx).Info("totp disabled", "user_id", userID)
	return nil
}

// VerifyForLogin checks a sign-in code against the user's enabled TOTP
// secret. Stateless: codes are valid for their whole window and no
// challenge row is involved.
func (s *TOTPService) VerifyForLogin(ctx context.Context, userID, code string) error {
	user, err := s.Store.Users().GetUserByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("load user: %w", err)
	}
	if !user.TOTPEnabled || user.TOTPSecret == nil {
		return ErrTOTPNotEnabled
	}

	if !validateCode(code, *user.TOTPSecret) {
		return ErrInvalidCode
	}
	return nil
}

// Enabled reports whether the user has TOTP fully enabled (a provisional,
// unconfirmed secret does not count).
func (s *TOTPService) Enabled(ctx context.Context, userID string) (bool, error) {
	user, err := s.Store.Users().GetUserByID(ctx, userID)
	if err != nil {
		return false, fmt.Errorf("load user: %w", err)
	}
	return user.TOTPEnabled, nil
}
