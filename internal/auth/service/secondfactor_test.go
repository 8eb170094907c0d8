package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/majesticmotors/dealerauth/internal/auth/service"
)

type secondFactorFixture struct {
	mailer   *fakeMailer
	sessions *service.SessionService
	totp     *service.TOTPService
	svc      *service.SecondFactorService
}

func newSecondFactorFixture(t *testing.T) (*secondFactorFixture, string) {
	t.Helper()

	st := newTestStore(t)
	u := seedUser(t, st, "pw")

	fm := &fakeMailer{}
	totpSvc := &service.TOTPService{Store: st, Issuer: "Majestic Motors"}
	challenges := &service.ChallengeService{Store: st, Mailer: fm}

	return &secondFactorFixture{
		mailer:   fm,
		sessions: &service.SessionService{Store: st},
		totp:     totpSvc,
		svc: &service.SecondFactorService{
			Store:      st,
			TOTP:       totpSvc,
			Challenges: challenges,
		},
	}, u.ID
}

func enrolTOTP(t *testing.T, f *secondFactorFixture, userID string) string {
	t.Helper()
	resp, err := f.totp.Setup(context.Background(), userID)
	require.NoError(t, err)
	require.NoError(t, f.totp.Enable(context.Background(), userID, totpCode(t, resp.Secret, time.Now())))
	return resp.Secret
}

func TestSecondFactorBegin(t *testing.T) {
	ctx := context.Background()

	t.Run("email fallback issues a challenge", func(t *testing.T) {
		f, userID := newSecondFactorFixture(t)

		usesTotp, err := f.svc.Begin(ctx, userID)
		require.NoError(t, err)
		require.False(t, usesTotp)
		require.Equal(t, 1, f.mailer.count())
	})

	t.Run("totp user gets no email", func(t *testing.T) {
		f, userID := newSecondFactorFixture(t)
		enrolTOTP(t, f, userID)

		usesTotp, err := f.svc.Begin(ctx, userID)
		require.NoError(t, err)
		require.True(t, usesTotp)
		require.Zero(t, f.mailer.count())
	})
}

func TestSecondFactorVerify(t *testing.T) {
	ctx := context.Background()

	t.Run("email path", func(t *testing.T) {
		f, userID := newSecondFactorFixture(t)

		token, err := f.sessions.Issue(ctx, userID, true)
		require.NoError(t, err)

		_, err = f.svc.Begin(ctx, userID)
		require.NoError(t, err)
		code := codeFromMessage(t, f.mailer.lastMessage(t))

		require.NoError(t, f.svc.Verify(ctx, userID, code))

		session, err := f.sessions.Resolve(ctx, token)
		require.NoError(t, err)
		require.False(t, session.Pending2FA)
	})

	t.Run("totp path flips the pending session", func(t *testing.T) {
		f, userID := newSecondFactorFixture(t)
		secret := enrolTOTP(t, f, userID)

		token, err := f.sessions.Issue(ctx, userID, true)
		require.NoError(t, err)

		require.NoError(t, f.svc.Verify(ctx, userID, totpCode(t, secret, time.Now())))

		session, err := f.sessions.Resolve(ctx, token)
		require.NoError(t, err)
		require.False(t, session.Pending2FA)
	})

	t.Run("totp wins over a stale emailed code", func(t *testing.T) {
		f, userID := newSecondFactorFixture(t)

		// Challenge issued while the user was still on email codes.
		_, err := f.svc.Begin(ctx, userID)
		require.NoError(t, err)
		emailCode := codeFromMessage(t, f.mailer.lastMessage(t))

		secret := enrolTOTP(t, f, userID)
		token, err := f.sessions.Issue(ctx, userID, true)
		require.NoError(t, err)

		// The emailed code no longer verifies anything.
		require.ErrorIs(t, f.svc.Verify(ctx, userID, emailCode), service.ErrInvalidCode)

		require.NoError(t, f.svc.Verify(ctx, userID, totpCode(t, secret, time.Now())))
		session, err := f.sessions.Resolve(ctx, token)
		require.NoError(t, err)
		require.False(t, session.Pending2FA)
	})

	t.Run("totp path with no pending session", func(t *testing.T) {
		f, userID := newSecondFactorFixture(t)
		secret := enrolTOTP(t, f, userID)

		err := f.svc.Verify(ctx, userID, totpCode(t, secret, time.Now()))
		require.ErrorIs(t, err, service.ErrSessionNotFound)
	})
}

func TestSecondFactorResend(t *testing.T) {
	ctx := context.Background()
	f, userID := newSecondFactorFixture(t)

	_, err := f.svc.Begin(ctx, userID)
	require.NoError(t, err)
	first := codeFromMessage(t, f.mailer.lastMessage(t))

	usesTotp, err := f.svc.Resend(ctx, userID)
	require.NoError(t, err)
	require.False(t, usesTotp)
	require.Equal(t, 2, f.mailer.count())

	second := codeFromMessage(t, f.mailer.lastMessage(t))

	_, err = f.sessions.Issue(ctx, userID, true)
	require.NoError(t, err)

	if first != second {
		require.ErrorIs(t, f.svc.Verify(ctx, userID, first), service.ErrInvalidCode)
	}
	require.NoError(t, f.svc.Verify(ctx, userID, second))
}
