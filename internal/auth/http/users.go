package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/majesticmotors/dealerauth/internal/auth/domain"
	"github.com/majesticmotors/dealerauth/internal/auth/service"
	"github.com/majesticmotors/dealerauth/pkg/httpx"
	"github.com/majesticmotors/dealerauth/pkg/slogx"
)

// UsersHandler handles user administration and sign-out.
type UsersHandler struct {
	Roles    *service.RolesService
	Sessions *service.SessionService
}

// HandleRoleUpdate handles PUT /v1/users/{id}/role.
func (h *UsersHandler) HandleRoleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	actorID, _ := ctx.Value(httpx.CtxKeyUserID).(string)
	actorRole, _ := ctx.Value(httpx.CtxKeyRole).(domain.Role)
	targetID := r.PathValue("id")

	var req RoleUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body")
		return
	}

	newRole, err := domain.ParseRole(req.Role)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "Unknown role")
		return
	}

	if err := h.Roles.UpdateUserRole(ctx, actorID, actorRole, targetID, newRole); err != nil {
		switch {
		case errors.Is(err, service.ErrUnauthorized):
			writeError(w, http.StatusForbidden, "forbidden", "Only a super admin can change roles")
		case errors.Is(err, service.ErrSelfRoleChange):
			writeError(w, http.StatusForbidden, "self_role_change", "You cannot change your own role")
		case errors.Is(err, service.ErrUserNotFound):
			writeError(w, http.StatusNotFound, "user_not_found", "No such user")
		default:
			log.Error("role update failed", "actor_id", actorID, "target_id", targetID, "err", err)
			writeServerError(w)
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// HandleSignout handles POST /v1/signout. Mass logout: every session the
// user holds, on every device, is deleted.
func (h *UsersHandler) HandleSignout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	userID, _ := ctx.Value(httpx.CtxKeyUserID).(string)

	if err := h.Sessions.SignOutAll(ctx, userID); err != nil {
		log.Error("signout failed", "user_id", userID, "err", err)
		writeServerError(w)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
