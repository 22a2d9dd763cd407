package models

import "fmt"

// Role određuje nivo pristupa člana unutar jednog projekta.
type Role string

const (
	RoleOwner   Role = "owner"
	RoleManager Role = "manager"
	RoleMember  Role = "member"
	RoleViewer  Role = "viewer"

	// RoleAdmin is never stored on a project; it is only produced by the
	// access resolver for users carrying the global admin flag.
	RoleAdmin Role = "admin"
)

type Capability string

const (
	CapView          Capability = "view"
	CapCreateTask    Capability = "create_task"
	CapEditTask      Capability = "edit_task"
	CapDeleteTask    Capability = "delete_task"
	CapInviteMember  Capability = "invite_member"
	CapManageRoles   Capability = "manage_roles"
	CapEditProject   Capability = "edit_project"
	CapDeleteProject Capability = "delete_project"
	CapEditOwnTask   Capability = "edit_own_task"
)

// AllCapabilities is what a global admin resolves to, regardless of membership.
var AllCapabilities = []Capability{
	CapView, CapCreateTask, CapEditTask, CapDeleteTask,
	CapInviteMember, CapManageRoles, CapEditProject, CapDeleteProject, CapEditOwnTask,
}

// rolePermissions is fixed at build time; changing it is a deployment decision.
var rolePermissions = map[Role][]Capability{
	RoleOwner: {
		CapView, CapCreateTask, CapEditTask, CapDeleteTask,
		CapInviteMember, CapManageRoles, CapDeleteProject, CapEditProject,
	},
	RoleManager: {
		CapView, CapCreateTask, CapEditTask, CapDeleteTask, CapInviteMember,
	},
	RoleMember: {
		CapView, CapCreateTask, CapEditOwnTask,
	},
	RoleViewer: {
		CapView,
	},
	RoleAdmin: AllCapabilities,
}

// Capabilities vraća listu dozvoljenih akcija za datu ulogu.
func Capabilities(role Role) []Capability {
	return rolePermissions[role]
}

// Can reports whether the role grants the given capability.
func (r Role) Can(capability Capability) bool {
	for _, c := range rolePermissions[r] {
		if c == capability {
			return true
		}
	}
	return false
}

// ParseRole validates a role string coming from a request payload.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleOwner, RoleManager, RoleMember, RoleViewer:
		return Role(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidRole, s)
}

// AssignableRoles su uloge koje se mogu dodeliti preko pozivnice -
// vlasništvo se nikada ne dodeljuje pozivnicom.
var AssignableRoles = []Role{RoleManager, RoleMember, RoleViewer}

// IsAssignable reports whether the role may be handed out by invite or direct add.
func (r Role) IsAssignable() bool {
	for _, a := range AssignableRoles {
		if r == a {
			return true
		}
	}
	return false
}
