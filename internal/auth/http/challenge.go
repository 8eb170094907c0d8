package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/majesticmotors/dealerauth/internal/auth/ratelimit"
	"github.com/majesticmotors/dealerauth/internal/auth/service"
	"github.com/majesticmotors/dealerauth/pkg/httpx"
	"github.com/majesticmotors/dealerauth/pkg/slogx"
)

// ChallengeHandler handles the second-factor endpoints. Both run with a
// pending session: the whole point is that the session is not fully
// authenticated yet.
type ChallengeHandler struct {
	SecondFactor *service.SecondFactorService
	Limiter      *ratelimit.Limiter
}

// HandleResend handles POST /v1/challenge/resend.
func (h *ChallengeHandler) HandleResend(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	userID, ok := ctx.Value(httpx.CtxKeyUserID).(string)
	if !ok || userID == "" {
		writeError(w, http.StatusUnauthorized, "invalid_token", "Missing session")
		return
	}

	// Each resend sends a real email, so the budget is tight.
	if res := h.Limiter.Allow(ctx, "resend", userID, ratelimit.ResendLimit); !res.Allowed {
		writeError(w, http.StatusTooManyRequests, "rate_limited", ratelimit.WaitMessage(res.ResetAt))
		return
	}

	usesTotp, err := h.SecondFactor.Resend(ctx, userID)
	if err != nil {
		if errors.Is(err, service.ErrEmailDelivery) {
			writeError(w, http.StatusBadGateway, "email_delivery_failed", "Could not send the verification code")
			return
		}
		log.Error("challenge resend failed", "user_id", userID, "err", err)
		writeServerError(w)
		return
	}

	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, ResendResponse{
		SecondFactor: secondFactorName(usesTotp),
	})
}

// HandleVerify handles POST /v1/challenge/verify. On success the session
// transitions to fully authenticated; the client keeps using the same token.
func (h *ChallengeHandler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	userID, ok := ctx.Value(httpx.CtxKeyUserID).(string)
	if !ok || userID == "" {
		writeError(w, http.StatusUnauthorized, "invalid_token", "Missing session")
		return
	}

	var req VerifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body")
		return
	}
	if req.Code == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "code is required")
		return
	}

	if err := h.SecondFactor.Verify(ctx, userID, req.Code); err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidCode):
			writeError(w, http.StatusBadRequest, "invalid_code", "Incorrect verification code")
		case errors.Is(err, service.ErrChallengeNotFound):
			writeError(w, http.StatusNotFound, "challenge_not_found", "No active code; request a new one")
		case errors.Is(err, service.ErrTOTPNotEnabled):
			writeError(w, http.StatusConflict, "totp_not_enabled", "Authenticator verification is not available")
		case errors.Is(err, service.ErrSessionNotFound):
			writeError(w, http.StatusUnauthorized, "session_not_found", "No pending sign-in to verify")
		default:
			log.Error("challenge verify failed", "user_id", userID, "err", err)
			writeServerError(w)
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
