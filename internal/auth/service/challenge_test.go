package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/majesticmotors/dealerauth/internal/auth/service"
	"github.com/majesticmotors/dealerauth/internal/auth/store"
)

func TestChallengeIssue(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	u := seedUser(t, st, "pw")

	t.Run("stores a hashed code and emails the plaintext", func(t *testing.T) {
		fm := &fakeMailer{}
		svc := &service.ChallengeService{Store: st, Mailer: fm}

		require.NoError(t, svc.Issue(ctx, u.ID, u.Email))

		msg := fm.lastMessage(t)
		require.Equal(t, u.Email, msg.To)
		code := codeFromMessage(t, msg)

		challenge, err := st.Challenges().GetChallengeByUser(ctx, u.ID)
		require.NoError(t, err)
		require.NotContains(t, challenge.CodeHash, code, "plaintext code must not be stored")
		require.True(t, challenge.ExpiresAt.After(time.Now()))
	})

	t.Run("delivery failure reports ErrEmailDelivery but keeps the challenge", func(t *testing.T) {
		fm := &fakeMailer{fail: errors.New("smtp down")}
		svc := &service.ChallengeService{Store: st, Mailer: fm}

		err := svc.Issue(ctx, u.ID, u.Email)
		require.ErrorIs(t, err, service.ErrEmailDelivery)

		_, err = st.Challenges().GetChallengeByUser(ctx, u.ID)
		require.NoError(t, err, "challenge must survive a failed send")
	})
}

func TestChallengeComplete(t *testing.T) {
	ctx := context.Background()

	setup := func(t *testing.T) (*service.ChallengeService, *service.SessionService, *fakeMailer, store.Store, string) {
		st := newTestStore(t)
		u := seedUser(t, st, "pw")
		fm := &fakeMailer{}
		challenges := &service.ChallengeService{Store: st, Mailer: fm}
		sessions := &service.SessionService{Store: st}
		return challenges, sessions, fm, st, u.ID
	}

	t.Run("correct code flips the pending session and consumes the challenge", func(t *testing.T) {
		challenges, sessions, fm, st, userID := setup(t)

		token, err := sessions.Issue(ctx, userID, true)
		require.NoError(t, err)
		require.NoError(t, challenges.Issue(ctx, userID, "u@majesticmotors.test"))
		code := codeFromMessage(t, fm.lastMessage(t))

		require.NoError(t, challenges.Complete(ctx, userID, code))

		session, err := sessions.Resolve(ctx, token)
		require.NoError(t, err)
		require.False(t, session.Pending2FA)

		_, err = st.Challenges().GetChallengeByUser(ctx, userID)
		require.ErrorIs(t, err, store.ErrNotFound)

		// The code is single-use.
		require.ErrorIs(t, challenges.Complete(ctx, userID, code), service.ErrChallengeNotFound)
	})

	t.Run("wrong code mutates nothing", func(t *testing.T) {
		challenges, sessions, fm, _, userID := setup(t)

		token, err := sessions.Issue(ctx, userID, true)
		require.NoError(t, err)
		require.NoError(t, challenges.Issue(ctx, userID, "u@majesticmotors.test"))

		require.ErrorIs(t, challenges.Complete(ctx, userID, "000000"), service.ErrInvalidCode)

		session, err := sessions.Resolve(ctx, token)
		require.NoError(t, err)
		require.True(t, session.Pending2FA, "failed attempt must not flip the session")

		// The real code still works afterwards.
		code := codeFromMessage(t, fm.lastMessage(t))
		require.NoError(t, challenges.Complete(ctx, userID, code))
	})

	t.Run("expired challenge", func(t *testing.T) {
		challenges, sessions, fm, _, userID := setup(t)
		challenges.TTL = -time.Minute

		_, err := sessions.Issue(ctx, userID, true)
		require.NoError(t, err)
		require.NoError(t, challenges.Issue(ctx, userID, "u@majesticmotors.test"))
		code := codeFromMessage(t, fm.lastMessage(t))

		require.ErrorIs(t, challenges.Complete(ctx, userID, code), service.ErrChallengeNotFound)
	})

	t.Run("no outstanding challenge", func(t *testing.T) {
		challenges, _, _, _, userID := setup(t)
		require.ErrorIs(t, challenges.Complete(ctx, userID, "123456"), service.ErrChallengeNotFound)
	})

	t.Run("no pending session leaves the challenge intact", func(t *testing.T) {
		challenges, _, fm, st, userID := setup(t)

		require.NoError(t, challenges.Issue(ctx, userID, "u@majesticmotors.test"))
		code := codeFromMessage(t, fm.lastMessage(t))

		require.ErrorIs(t, challenges.Complete(ctx, userID, code), service.ErrSessionNotFound)

		_, err := st.Challenges().GetChallengeByUser(ctx, userID)
		require.NoError(t, err, "challenge must survive until a live session exists")
	})

	t.Run("re-issue invalidates the previous code", func(t *testing.T) {
		challenges, sessions, fm, _, userID := setup(t)

		_, err := sessions.Issue(ctx, userID, true)
		require.NoError(t, err)

		require.NoError(t, challenges.Issue(ctx, userID, "u@majesticmotors.test"))
		oldCode := codeFromMessage(t, fm.lastMessage(t))

		require.NoError(t, challenges.Issue(ctx, userID, "u@majesticmotors.test"))
		newCode := codeFromMessage(t, fm.lastMessage(t))

		if oldCode != newCode {
			require.ErrorIs(t, challenges.Complete(ctx, userID, oldCode), service.ErrInvalidCode)
		}
		require.NoError(t, challenges.Complete(ctx, userID, newCode))
	})
}
