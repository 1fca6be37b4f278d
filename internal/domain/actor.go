package domain

// Role determines the identity rules applied to audit log entries.
// Contributor entries never carry an identity; the dispatcher never passes one in.
type Role string

const (
	RoleSystem      Role = "system"
	RoleBot         Role = "bot"
	RoleMaintainer  Role = "maintainer"
	RoleContributor Role = "contributor"
)

// Actor is the platform identity of whoever triggered an event.
type Actor struct {
	Login string
	ID    int64
}

// PermissionLevel is the collaborator permission reported by the platform.
type PermissionLevel string

const (
	PermissionRead     PermissionLevel = "read"
	PermissionTriage   PermissionLevel = "triage"
	PermissionWrite    PermissionLevel = "write"
	PermissionMaintain PermissionLevel = "maintain"
	PermissionAdmin    PermissionLevel = "admin"
)

// CanClassify reports whether the level grants maintainer commands.
func (p PermissionLevel) CanClassify() bool {
	switch p {
	case PermissionWrite, PermissionMaintain, PermissionAdmin:
		return true
	}
	return false
}
