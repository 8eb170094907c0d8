package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/majesticmotors/dealerauth/internal/auth/ratelimit"
	"github.com/majesticmotors/dealerauth/internal/auth/service"
	"github.com/majesticmotors/dealerauth/pkg/httpx"
	"github.com/majesticmotors/dealerauth/pkg/slogx"
)

// SigninHandler handles POST /v1/signin.
type SigninHandler struct {
	Credentials  *service.CredentialsService
	Sessions     *service.SessionService
	SecondFactor *service.SecondFactorService
	Limiter      *ratelimit.Limiter
}

// HandlePost verifies credentials and opens a pending session. Every
// sign-in goes through a second factor, so the returned token is not usable
// on protected routes until /v1/challenge/verify succeeds.
func (h *SigninHandler) HandlePost(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req SigninRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body")
		return
	}
	if req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "email and password are required")
		return
	}

	// Limit keys on the account, not the client IP: the attack this guards
	// against is password guessing on one account from many machines.
	limitKey := strings.ToLower(strings.TrimSpace(req.Email))
	if res := h.Limiter.Allow(ctx, "login", limitKey, ratelimit.LoginLimit); !res.Allowed {
		writeError(w, http.StatusTooManyRequests, "rate_limited", ratelimit.WaitMessage(res.ResetAt))
		return
	}

	user, err := h.Credentials.Verify(ctx, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			writeError(w, http.StatusUnauthorized, "invalid_credentials", "Incorrect email or password")
			return
		}
		log.Error("credential verification failed", "err", err)
		writeServerError(w)
		return
	}

	token, err := h.Sessions.Issue(ctx, user.ID, true)
	if err != nil {
		log.Error("session issue failed", "user_id", user.ID, "err", err)
		writeServerError(w)
		return
	}

	usesTotp, err := h.SecondFactor.Begin(ctx, user.ID)
	if err != nil {
		if errors.Is(err, service.ErrEmailDelivery) {
			// The pending session is live and the challenge row is stored,
			// so hand the token back: the client can hit /v1/challenge/resend
			// once the mail path recovers, without another password round.
			httpx.NoCache(w)
			httpx.WriteJSON(w, http.StatusOK, SigninResponse{
				Token:          token,
				SecondFactor:   secondFactorName(false),
				DeliveryFailed: true,
			})
			return
		}
		log.Error("second factor begin failed", "user_id", user.ID, "err", err)
		writeServerError(w)
		return
	}

	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, SigninResponse{
		Token:        token,
		SecondFactor: secondFactorName(usesTotp),
	})
}

func secondFactorName(usesTotp bool) string {
	if usesTotp {
		return "totp"
	}
	return "email"
}
