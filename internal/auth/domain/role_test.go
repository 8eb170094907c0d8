package domain_test

import (
	"testing"

	"github.com/majesticmotors/dealerauth/internal/auth/domain"
	"github.com/stretchr/testify/require"
)

func TestParseRoleRoundTrip(t *testing.T) {
	t.Parallel()

	for _, role := range []domain.Role{
		domain.RoleUser, domain.RoleEditor, domain.RoleAdmin, domain.RoleSuperAdmin,
	} {
		parsed, err := domain.ParseRole(role.String())
		require.NoError(t, err)
		require.Equal(t, role, parsed)
	}

	_, err := domain.ParseRole("OWNER")
	require.Error(t, err)
	_, err = domain.ParseRole("")
	require.Error(t, err)
}

func TestAtLeastIsMonotonic(t *testing.T) {
	t.Parallel()

	ordered := []domain.Role{
		domain.RoleUser, domain.RoleEditor, domain.RoleAdmin, domain.RoleSuperAdmin,
	}

	// If a role satisfies a requirement, every higher role must too.
	for i, required := range ordered {
		for j, role := range ordered {
			require.Equal(t, j >= i, role.AtLeast(required),
				"%s.AtLeast(%s)", role, required)
		}
	}
}

func TestAdminPanelPredicates(t *testing.T) {
	t.Parallel()

	require.False(t, domain.RoleUser.CanAccessAdmin())
	require.True(t, domain.RoleEditor.CanAccessAdmin())
	require.True(t, domain.RoleSuperAdmin.CanAccessAdmin())

	require.False(t, domain.RoleAdmin.CanManageUsers())
	require.True(t, domain.RoleSuperAdmin.CanManageUsers())
}
