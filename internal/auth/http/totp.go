package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/majesticmotors/dealerauth/internal/auth/service"
	"github.com/majesticmotors/dealerauth/pkg/httpx"
	"github.com/majesticmotors/dealerauth/pkg/slogx"
)

// TOTPHandler handles authenticator enrolment for a fully signed-in user.
type TOTPHandler struct {
	TOTP *service.TOTPService
}

// HandleSetup handles POST /v1/totp/setup.
func (h *TOTPHandler) HandleSetup(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	userID, _ := ctx.Value(httpx.CtxKeyUserID).(string)

	resp, err := h.TOTP.Setup(ctx, userID)
	if err != nil {
		if errors.Is(err, service.ErrTOTPAlreadyEnabled) {
			writeError(w, http.StatusConflict, "totp_already_enabled", "Disable the authenticator before re-enrolling")
			return
		}
		log.Error("totp setup failed", "user_id", userID, "err", err)
		writeServerError(w)
		return
	}

	// The secret and QR are shown exactly once; make sure nothing caches
	// them.
	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, TOTPSetupResponse{
		Secret:  resp.Secret,
		QRCode:  resp.QRCode,
		Issuer:  resp.Issuer,
		Account: resp.Account,
	})
}

// HandleEnable handles POST /v1/totp/enable.
func (h *TOTPHandler) HandleEnable(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	userID, _ := ctx.Value(httpx.CtxKeyUserID).(string)

	var req VerifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body")
		return
	}

	if err := h.TOTP.Enable(ctx, userID, req.Code); err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidCode):
			writeError(w, http.StatusBadRequest, "invalid_code", "Incorrect authenticator code")
		case errors.Is(err, service.ErrTOTPNotSetUp):
			writeError(w, http.StatusConflict, "totp_not_set_up", "Run setup before enabling")
		case errors.Is(err, service.ErrTOTPAlreadyEnabled):
			writeError(w, http.StatusConflict, "totp_already_enabled", "Authenticator is already enabled")
		default:
			log.Error("totp enable failed", "user_id", userID, "err", err)
			writeServerError(w)
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// HandleDisable handles DELETE /v1/totp.
func (h *TOTPHandler) HandleDisable(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	userID, _ := ctx.Value(httpx.CtxKeyUserID).(string)

	if err := h.TOTP.Disable(ctx, userID); err != nil {
		log.Error("totp disable failed", "user_id", userID, "err", err)
		writeServerError(w)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// HandleStatus handles GET /v1/totp.
func (h *TOTPHandler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	userID, _ := ctx.Value(httpx.CtxKeyUserID).(string)

	enabled, err := h.TOTP.Enabled(ctx, userID)
	if err != nil {
		log.Error("totp status failed", "user_id", userID, "err", err)
		writeServerError(w)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, TOTPStatusResponse{Enabled: enabled})
}
