package http

import (
	"net/http"

	"github.com/majesticmotors/dealerauth/pkg/httpx"
)

// Request/response shapes for the JSON API.

type SigninRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SigninResponse carries the pending session token plus which second factor
// the client should prompt for: "totp" or "email". DeliveryFailed is set
// when the verification email could not be sent; the token is still valid
// and the client should offer resend rather than another password prompt.
type SigninResponse struct {
	Token          string `json:"token"`
	SecondFactor   string `json:"second_factor"`
	DeliveryFailed bool   `json:"delivery_failed,omitempty"`
}

type ResendResponse struct {
	SecondFactor string `json:"second_factor"`
}

type VerifyRequest struct {
	Code string `json:"code"`
}

type TOTPSetupResponse struct {
	Secret  string `json:"secret"`
	QRCode  string `json:"qr_code"`
	Issuer  string `json:"issuer"`
	Account string `json:"account"`
}

type TOTPStatusResponse struct {
	Enabled bool `json:"enabled"`
}

type RoleUpdateRequest struct {
	Role string `json:"role"`
}

type HealthResponse struct {
	Status  string        `json:"status"`
	Uptime  string        `json:"uptime"`
	Version string        `json:"version"`
	Checks  *HealthChecks `json:"checks,omitempty"`
}

type HealthChecks struct {
	Database string `json:"database"`
	Cache    string `json:"cache"`
}

type ErrorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description,omitempty"`
}

func writeError(w http.ResponseWriter, status int, code, description string) {
	httpx.WriteJSON(w, status, ErrorResponse{
		Error:            code,
		ErrorDescription: description,
	})
}

func writeServerError(w http.ResponseWriter) {
	writeError(w, http.StatusInternalServerError, "server_error", "Something went wrong")
}
