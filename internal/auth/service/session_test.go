package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/majesticmotors/dealerauth/internal/auth/service"
	"github.com/majesticmotors/dealerauth/pkg/cryptox"
)

func TestSessionIssueAndResolve(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	svc := &service.SessionService{Store: st}

	u := seedUser(t, st, "pw")

	token, err := svc.Issue(ctx, u.ID, true)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	session, err := svc.Resolve(ctx, token)
	require.NoError(t, err)
	require.Equal(t, u.ID, session.UserID)
	require.True(t, session.Pending2FA)

	// Only the fingerprint is persisted; the raw token never is.
	_, err = st.Sessions().GetSessionByTokenHash(ctx, token)
	require.Error(t, err)
	require.Equal(t, cryptox.FingerprintToken(token), session.TokenHash)
}

func TestSessionResolveRejects(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	u := seedUser(t, st, "pw")

	t.Run("unknown token", func(t *testing.T) {
		svc := &service.SessionService{Store: st}
		_, err := svc.Resolve(ctx, "no-such-token")
		require.ErrorIs(t, err, service.ErrSessionNotFound)
	})

	t.Run("expired session", func(t *testing.T) {
		svc := &service.SessionService{Store: st, TTL: -time.Minute}
		token, err := svc.Issue(ctx, u.ID, false)
		require.NoError(t, err)

		_, err = svc.Resolve(ctx, token)
		require.ErrorIs(t, err, service.ErrSessionNotFound)
	})
}

func TestSessionSignOutAll(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	svc := &service.SessionService{Store: st}
	u := seedUser(t, st, "pw")

	first, err := svc.Issue(ctx, u.ID, false)
	require.NoError(t, err)
	second, err := svc.Issue(ctx, u.ID, false)
	require.NoError(t, err)

	require.NoError(t, svc.SignOutAll(ctx, u.ID))

	_, err = svc.Resolve(ctx, first)
	require.ErrorIs(t, err, service.ErrSessionNotFound)
	_, err = svc.Resolve(ctx, second)
	require.ErrorIs(t, err, service.ErrSessionNotFound)
}
