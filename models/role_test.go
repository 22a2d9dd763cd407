package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCapabilityTable(t *testing.T) {
	assert.ElementsMatch(t, []Capability{
		CapView, CapCreateTask, CapEditTask, CapDeleteTask,
		CapInviteMember, CapManageRoles, CapDeleteProject, CapEditProject,
	}, Capabilities(RoleOwner))

	assert.ElementsMatch(t, []Capability{
		CapView, CapCreateTask, CapEditTask, CapDeleteTask, CapInviteMember,
	}, Capabilities(RoleManager))

	assert.ElementsMatch(t, []Capability{
		CapView, CapCreateTask, CapEditOwnTask,
	}, Capabilities(RoleMember))

	assert.ElementsMatch(t, []Capability{CapView}, Capabilities(RoleViewer))

	assert.ElementsMatch(t, AllCapabilities, Capabilities(RoleAdmin))
}

// Hijerarhija je neopadajuća: sve što sme manager sme i owner, a pravo
// pregleda imaju svi. edit_own_task je izuzetak rezervisan za member ulogu.
func TestCapabilityMonotonicity(t *testing.T) {
	for _, c := range Capabilities(RoleManager) {
		assert.Truef(t, RoleOwner.Can(c), "owner should inherit manager capability %q", c)
	}
	for _, role := range []Role{RoleOwner, RoleManager, RoleMember, RoleViewer, RoleAdmin} {
		assert.Truef(t, role.Can(CapView), "role %q should be able to view", role)
	}

	assert.True(t, RoleMember.Can(CapEditOwnTask))
	// Owner edituje sve zadatke kroz edit_task, pa mu edit_own_task ne treba.
	assert.False(t, RoleOwner.Can(CapEditOwnTask))
	assert.False(t, RoleViewer.Can(CapEditOwnTask))
}

func TestRoleCan(t *testing.T) {
	assert.True(t, RoleOwner.Can(CapDeleteProject))
	assert.False(t, RoleManager.Can(CapDeleteProject))
	assert.False(t, RoleManager.Can(CapManageRoles))
	assert.True(t, RoleManager.Can(CapInviteMember))
	assert.False(t, RoleMember.Can(CapInviteMember))
	assert.False(t, RoleViewer.Can(CapCreateTask))
}

func TestParseRole(t *testing.T) {
	for _, valid := range []string{"owner", "manager", "member", "viewer"} {
		role, err := ParseRole(valid)
		require.NoError(t, err)
		assert.Equal(t, Role(valid), role)
	}

	for _, invalid := range []string{"", "admin", "superuser", "Owner"} {
		_, err := ParseRole(invalid)
		assert.ErrorIsf(t, err, ErrInvalidRole, "input %q", invalid)
	}
}

func TestIsAssignable(t *testing.T) {
	assert.False(t, RoleOwner.IsAssignable())
	assert.False(t, RoleAdmin.IsAssignable())
	assert.True(t, RoleManager.IsAssignable())
	assert.True(t, RoleMember.IsAssignable())
	assert.True(t, RoleViewer.IsAssignable())
}
