package service

import (
	"todoshare/internal/model"
	"todoshare/internal/role"
)

// ListView is a list as seen by the caller.
type ListView struct {
	model.TaskList

	// Role is the caller's role in the list.
	Role role.Role
}

// Can reports whether the caller may perform a on the list.
func (v ListView) Can(a role.Action) bool {
	return role.CanPerform(v.Role, a)
}
