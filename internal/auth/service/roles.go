package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/majesticmotors/dealerauth/internal/auth/domain"
	"github.com/majesticmotors/dealerauth/internal/auth/store"
	"github.com/majesticmotors/dealerauth/pkg/slogx"
)

var (
	ErrUnauthorized   = errors.New("unauthorized")
	ErrSelfRoleChange = errors.New("self_role_change")
	ErrUserNotFound   = errors.New("user_not_found")
)

type RolesService struct {
	Store store.Store
}

// UpdateUserRole changes the target user's role. Only SUPER_ADMIN may do
// this, and never to their own account: demoting yourself from the top role
// could leave the install with no one able to manage users.
func (s *RolesService) UpdateUserRole(ctx context.Context, actorID string, actorRole domain.Role, targetID string, newRole domain.Role) error {
	if !actorRole.CanManageUsers() {
		return ErrUnauthorized
	}
	if actorID == targetID {
		return ErrSelfRoleChange
	}

	if err := s.Store.Users().UpdateUserRole(ctx, targetID, newRole); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("update user role: %w", err)
	}

	slogx.FromContext(ctx).Info("role updated",
		"actor_id", actorID, "target_id", targetID, "role", newRole.String())
	return nil
}
