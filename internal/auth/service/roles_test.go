package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/majesticmotors/dealerauth/internal/auth/domain"
	"github.com/majesticmotors/dealerauth/internal/auth/service"
)

func TestUpdateUserRole(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	svc := &service.RolesService{Store: st}

	admin := seedUser(t, st, "pw")
	target := seedUser(t, st, "pw")

	t.Run("requires the top role", func(t *testing.T) {
		for _, role := range []domain.Role{domain.RoleUser, domain.RoleEditor, domain.RoleAdmin} {
			err := svc.UpdateUserRole(ctx, admin.ID, role, target.ID, domain.RoleEditor)
			require.ErrorIs(t, err, service.ErrUnauthorized, "role %s must not manage users", role)
		}
	})

	t.Run("super admin promotes and demotes", func(t *testing.T) {
		require.NoError(t, svc.UpdateUserRole(ctx, admin.ID, domain.RoleSuperAdmin, target.ID, domain.RoleAdmin))

		got, err := st.Users().GetUserByID(ctx, target.ID)
		require.NoError(t, err)
		require.Equal(t, domain.RoleAdmin, got.Role)

		require.NoError(t, svc.UpdateUserRole(ctx, admin.ID, domain.RoleSuperAdmin, target.ID, domain.RoleUser))

		got, err = st.Users().GetUserByID(ctx, target.ID)
		require.NoError(t, err)
		require.Equal(t, domain.RoleUser, got.Role)
	})

	t.Run("never on your own account", func(t *testing.T) {
		err := svc.UpdateUserRole(ctx, admin.ID, domain.RoleSuperAdmin, admin.ID, domain.RoleUser)
		require.ErrorIs(t, err, service.ErrSelfRoleChange)
	})

	t.Run("unknown target", func(t *testing.T) {
		err := svc.UpdateUserRole(ctx, admin.ID, domain.RoleSuperAdmin, "missing", domain.RoleUser)
		require.ErrorIs(t, err, service.ErrUserNotFound)
	})
}
