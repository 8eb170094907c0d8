package sqlite_test

import (
	"context"
	"testing"
	"time"

	"github.com/majesticmotors/dealerauth/internal/auth/domain"
	"github.com/majesticmotors/dealerauth/internal/auth/store"
	"github.com/majesticmotors/dealerauth/internal/auth/store/drivers/sqlite"
	"github.com/majesticmotors/dealerauth/pkg/idx"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	require.NoError(t, st.ApplyMigrations())
	return st
}

func seedUser(t *testing.T, st store.Store) domain.User {
	t.Helper()

	u := domain.User{
		ID:           idx.New().String(),
		Email:        idx.New().String() + "@majesticmotors.test",
		PasswordHash: "$argon2id$v=19$m=19456,t=2,p=1$c2FsdHNhbHRzYWx0c2FsdA$aGFzaGhhc2hoYXNoaGFzaGhhc2hoYXNoaGFzaGhhc2g",
		Role:         domain.RoleUser,
	}
	require.NoError(t, st.Users().CreateUser(context.Background(), u))
	return u
}

func TestUsersRepo(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	u := seedUser(t, st)

	t.Run("lookup by id and email", func(t *testing.T) {
		got, err := st.Users().GetUserByID(ctx, u.ID)
		require.NoError(t, err)
		require.Equal(t, u.Email, got.Email)
		require.Equal(t, domain.RoleUser, got.Role)
		require.False(t, got.TOTPEnabled)
		require.Nil(t, got.TOTPSecret)

		got, err = st.Users().GetUserByEmail(ctx, u.Email)
		require.NoError(t, err)
		require.Equal(t, u.ID, got.ID)
	})

	t.Run("missing user maps to ErrNotFound", func(t *testing.T) {
		_, err := st.Users().GetUserByEmail(ctx, "nobody@majesticmotors.test")
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("duplicate email maps to ErrAlreadyExists", func(t *testing.T) {
		dup := domain.User{ID: idx.New().String(), Email: u.Email, PasswordHash: "x", Role: domain.RoleUser}
		require.ErrorIs(t, st.Users().CreateUser(ctx, dup), store.ErrAlreadyExists)
	})

	t.Run("totp lifecycle", func(t *testing.T) {
		require.NoError(t, st.Users().SetTOTPSecret(ctx, u.ID, "JBSWY3DPEHPK3PXP"))
		got, err := st.Users().GetUserByID(ctx, u.ID)
		require.NoError(t, err)
		require.NotNil(t, got.TOTPSecret)
		require.False(t, got.TOTPEnabled, "setup alone must not enable")

		require.NoError(t, st.Users().EnableTOTP(ctx, u.ID))
		got, err = st.Users().GetUserByID(ctx, u.ID)
		require.NoError(t, err)
		require.True(t, got.TOTPEnabled)

		require.NoError(t, st.Users().DisableTOTP(ctx, u.ID))
		got, err = st.Users().GetUserByID(ctx, u.ID)
		require.NoError(t, err)
		require.False(t, got.TOTPEnabled)
		require.Nil(t, got.TOTPSecret)
	})

	t.Run("role update", func(t *testing.T) {
		require.NoError(t, st.Users().UpdateUserRole(ctx, u.ID, domain.RoleAdmin))
		got, err := st.Users().GetUserByID(ctx, u.ID)
		require.NoError(t, err)
		require.Equal(t, domain.RoleAdmin, got.Role)

		require.ErrorIs(t,
			st.Users().UpdateUserRole(ctx, "missing", domain.RoleAdmin),
			store.ErrNotFound)
	})
}

func TestSessionsRepo(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	u := seedUser(t, st)

	mkSession := func(pending bool, ttl time.Duration) domain.Session {
		s := domain.Session{
			TokenHash:  idx.New().String(),
			UserID:     u.ID,
			Pending2FA: pending,
			ExpiresAt:  time.Now().Add(ttl),
		}
		require.NoError(t, st.Sessions().CreateSession(ctx, s))
		return s
	}

	t.Run("create and fetch", func(t *testing.T) {
		s := mkSession(true, time.Hour)
		got, err := st.Sessions().GetSessionByTokenHash(ctx, s.TokenHash)
		require.NoError(t, err)
		require.Equal(t, u.ID, got.UserID)
		require.True(t, got.Pending2FA)
	})

	t.Run("pending lookup skips expired sessions", func(t *testing.T) {
		_ = mkSession(true, -time.Minute) // already expired
		live := mkSession(true, time.Hour)

		got, err := st.Sessions().GetPendingSessionByUser(ctx, u.ID)
		require.NoError(t, err)
		require.Equal(t, live.TokenHash, got.TokenHash)
	})

	t.Run("pending flip is single-shot", func(t *testing.T) {
		s := mkSession(true, time.Hour)

		flipped, err := st.Sessions().ClearSessionPending(ctx, s.TokenHash)
		require.NoError(t, err)
		require.True(t, flipped)

		// Second attempt observes the already-cleared flag.
		flipped, err = st.Sessions().ClearSessionPending(ctx, s.TokenHash)
		require.NoError(t, err)
		require.False(t, flipped)

		got, err := st.Sessions().GetSessionByTokenHash(ctx, s.TokenHash)
		require.NoError(t, err)
		require.False(t, got.Pending2FA)
	})

	t.Run("mass logout removes every session", func(t *testing.T) {
		a := mkSession(false, time.Hour)
		b := mkSession(true, time.Hour)

		require.NoError(t, st.Sessions().DeleteAllUserSessions(ctx, u.ID))

		_, err := st.Sessions().GetSessionByTokenHash(ctx, a.TokenHash)
		require.ErrorIs(t, err, store.ErrNotFound)
		_, err = st.Sessions().GetSessionByTokenHash(ctx, b.TokenHash)
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("expired sweep", func(t *testing.T) {
		gone := mkSession(false, -time.Minute)
		kept := mkSession(false, time.Hour)

		require.NoError(t, st.Sessions().DeleteExpiredSessions(ctx))

		_, err := st.Sessions().GetSessionByTokenHash(ctx, gone.TokenHash)
		require.ErrorIs(t, err, store.ErrNotFound)
		_, err = st.Sessions().GetSessionByTokenHash(ctx, kept.TokenHash)
		require.NoError(t, err)
	})
}

func TestChallengesRepo(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	u := seedUser(t, st)

	t.Run("upsert keeps a single row per user", func(t *testing.T) {
		first := domain.OTPChallenge{
			UserID:    u.ID,
			CodeHash:  "hash-one",
			Email:     u.Email,
			ExpiresAt: time.Now().Add(10 * time.Minute),
		}
		require.NoError(t, st.Challenges().UpsertChallenge(ctx, first))

		second := first
		second.CodeHash = "hash-two"
		require.NoError(t, st.Challenges().UpsertChallenge(ctx, second))

		got, err := st.Challenges().GetChallengeByUser(ctx, u.ID)
		require.NoError(t, err)
		require.Equal(t, "hash-two", got.CodeHash, "re-issue overwrites the old code")
	})

	t.Run("consume is single-shot", func(t *testing.T) {
		consumed, err := st.Challenges().ConsumeChallenge(ctx, u.ID)
		require.NoError(t, err)
		require.True(t, consumed)

		consumed, err = st.Challenges().ConsumeChallenge(ctx, u.ID)
		require.NoError(t, err)
		require.False(t, consumed)

		_, err = st.Challenges().GetChallengeByUser(ctx, u.ID)
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("expired sweep", func(t *testing.T) {
		stale := domain.OTPChallenge{
			UserID:    u.ID,
			CodeHash:  "stale",
			Email:     u.Email,
			ExpiresAt: time.Now().Add(-time.Minute),
		}
		require.NoError(t, st.Challenges().UpsertChallenge(ctx, stale))
		require.NoError(t, st.Challenges().DeleteExpiredChallenges(ctx))

		_, err := st.Challenges().GetChallengeByUser(ctx, u.ID)
		require.ErrorIs(t, err, store.ErrNotFound)
	})
}

func TestWithTxRollsBackOnError(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	u := seedUser(t, st)

	errBoom := context.Canceled // any sentinel will do
	err := st.WithTx(ctx, func(tx store.Tx) error {
		require.NoError(t, tx.Sessions().CreateSession(ctx, domain.Session{
			TokenHash:  "tx-session",
			UserID:     u.ID,
			Pending2FA: true,
			ExpiresAt:  time.Now().Add(time.Hour),
		}))
		return errBoom
	})
	require.ErrorIs(t, err, errBoom)

	_, err = st.Sessions().GetSessionByTokenHash(ctx, "tx-session")
	require.ErrorIs(t, err, store.ErrNotFound)
}
