// Package role implements the permission policy for shared task lists.
package role

import "strings"

// Role is a participant's permission tier within one list.
type Role string

const (
	Owner  Role = "owner"
	Admin  Role = "admin"
	Member Role = "member"
)

// Action is an operation gated by the policy.
type Action string

const (
	CreateTask     Action = "createTask"
	EditTask       Action = "editTask"
	ToggleTask     Action = "toggleTask"
	DeleteTask     Action = "deleteTask"
	AddParticipant Action = "addParticipant"
	DeleteList     Action = "deleteList"
	EditListTitle  Action = "editListTitle"
	LeaveList      Action = "leaveList"
)

// Actions lists every gated action.
var Actions = []Action{
	CreateTask, EditTask, ToggleTask, DeleteTask,
	AddParticipant, DeleteList, EditListTitle, LeaveList,
}

// Roles lists the canonical roles from most to least privileged.
var Roles = []Role{Owner, Admin, Member}

var memberActions = map[Action]bool{
	EditTask:   true,
	ToggleTask: true,
	LeaveList:  true,
}

var adminActions = map[Action]bool{
	CreateTask:     true,
	EditTask:       true,
	ToggleTask:     true,
	DeleteTask:     true,
	AddParticipant: true,
	EditListTitle:  true,
	LeaveList:      true,
}

// Parse normalizes a stored role value. The legacy "viewer" and any unknown
// or empty value map to Member.
func Parse(s string) Role {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case Owner:
		return Owner
	case Admin:
		return Admin
	default:
		return Member
	}
}

// Valid reports whether s names a canonical role exactly.
func Valid(s string) bool {
	switch Role(s) {
	case Owner, Admin, Member:
		return true
	}
	return false
}

// CanPerform reports whether r may perform a. It is total and pure.
func CanPerform(r Role, a Action) bool {
	switch Parse(string(r)) {
	case Owner:
		return a == DeleteList || adminActions[a]
	case Admin:
		return adminActions[a]
	default:
		return memberActions[a]
	}
}

// RemoveAction returns what a "remove list" request means for r: owners
// delete the list, everyone else leaves it.
func RemoveAction(r Role) Action {
	if Parse(string(r)) == Owner {
		return DeleteList
	}
	return LeaveList
}

// Grantable reports whether r may be assigned through an invitation.
// Ownership is only ever assigned at list creation.
func Grantable(r Role) bool {
	return r == Admin || r == Member
}
