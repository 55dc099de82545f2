// Package model defines the records stored in the document store and their
// field encodings.
package model

import (
	"sort"
	"strings"
	"time"

	"todoshare/internal/role"
)

// Collection names.
const (
	UsersCollection     = "users"
	TaskListsCollection = "taskLists"
	TasksCollection     = "tasks"
)

// Field names shared by queries and partial updates.
const (
	FieldEmail           = "email"
	FieldTitle           = "title"
	FieldParticipants    = "participants"
	FieldParticipantsIDs = "participantsIds"
	FieldVersion         = "version"
	FieldTaskListID      = "taskListId"
	FieldChecked         = "checked"
	FieldUpdatedAt       = "updatedAt"
	FieldBody            = "body"
	FieldDueDate         = "dueDate"
	FieldPriority        = "priority"
	FieldAssignedTo      = "assignedTo"
)

// NoName is the display name of a user with no usable name or email.
const NoName = "No Name"

// User is a registered account's public profile.
type User struct {
	ID        string
	Name      string
	Email     string
	CreatedAt time.Time
}

// DisplayName is the single resolution order for a user's visible name:
// the first non-blank of name, displayName and email, else NoName.
func DisplayName(name, displayName, email string) string {
	for _, s := range []string{name, displayName, email} {
		if s = strings.TrimSpace(s); s != "" {
			return s
		}
	}
	return NoName
}

// Participant is a user's membership record within one list.
type Participant struct {
	ID   string
	Name string // snapshot taken when the participant was added
	Role role.Role
}

// TaskList is a shared list. Participants and ParticipantIDs are always
// written together; the second exists only so the store can query by member.
type TaskList struct {
	ID             string
	Title          string
	Participants   map[string]Participant
	ParticipantIDs []string
	CreatedAt      time.Time
	Version        int64
}

// RoleOf returns the role of userID and whether they are a participant.
func (l TaskList) RoleOf(userID string) (role.Role, bool) {
	p, ok := l.Participants[userID]
	if !ok {
		return "", false
	}
	return p.Role, true
}

// IsParticipant reports whether userID is a key of Participants.
func (l TaskList) IsParticipant(userID string) bool {
	_, ok := l.Participants[userID]
	return ok
}

// SortedParticipants returns participants ordered by role then name.
func (l TaskList) SortedParticipants() []Participant {
	rank := map[role.Role]int{role.Owner: 0, role.Admin: 1, role.Member: 2}
	out := make([]Participant, 0, len(l.Participants))
	for _, p := range l.Participants {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		ri, rj := rank[role.Parse(string(out[i].Role))], rank[role.Parse(string(out[j].Role))]
		if ri != rj {
			return ri < rj
		}
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// MembershipConsistent reports whether ParticipantIDs holds exactly the keys
// of Participants with no duplicates.
func (l TaskList) MembershipConsistent() bool {
	if len(l.ParticipantIDs) != len(l.Participants) {
		return false
	}
	seen := make(map[string]bool, len(l.ParticipantIDs))
	for _, id := range l.ParticipantIDs {
		if seen[id] || !l.IsParticipant(id) {
			return false
		}
		seen[id] = true
	}
	return true
}

// Priority of a task.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// ParsePriority accepts low, medium or high (case-insensitive).
func ParsePriority(s string) (Priority, bool) {
	switch p := Priority(strings.ToLower(strings.TrimSpace(s))); p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return p, true
	}
	return "", false
}

// Task is a unit of work belonging to exactly one list.
type Task struct {
	ID         string
	Title      string
	Body       string
	TaskListID string
	Checked    bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
	DueDate    *time.Time
	Priority   Priority
	AssignedTo string
}

// TaskDraft holds the fields of a new task.
type TaskDraft struct {
	Title      string
	Body       string
	DueDate    *time.Time
	Priority   Priority
	AssignedTo string
}

// TaskPatch is a partial update. Nil fields are left unchanged; ClearDueDate
// and an empty AssignedTo remove the value.
type TaskPatch struct {
	Title        *string
	Body         *string
	DueDate      *time.Time
	ClearDueDate bool
	Priority     *Priority
	AssignedTo   *string
}

// Empty reports whether the patch changes nothing.
func (p TaskPatch) Empty() bool {
	return p.Title == nil && p.Body == nil && p.DueDate == nil && !p.ClearDueDate &&
		p.Priority == nil && p.AssignedTo == nil
}

// SortTasks orders tasks by creation time, then id, for stable numbering.
// The store returns tasks unordered.
func SortTasks(tasks []Task) {
	sort.SliceStable(tasks, func(i, j int) bool {
		if !tasks[i].CreatedAt.Equal(tasks[j].CreatedAt) {
			return tasks[i].CreatedAt.Before(tasks[j].CreatedAt)
		}
		return tasks[i].ID < tasks[j].ID
	})
}
