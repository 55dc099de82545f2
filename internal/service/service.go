// Package service defines the backend-agnostic interface for shared task
// list operations.
package service

import (
	"context"

	"todoshare/internal/identity"
	"todoshare/internal/model"
	"todoshare/internal/role"
)

// Service defines the operations offered to the CLI and the HTTP API.
// Callers never import a backend SDK directly.
//
// Every list and task operation requires a signed-in caller who participates
// in the list; failures are classified with the apperr sentinels.
type Service interface {
	// Register creates an account and its users profile document.
	Register(ctx context.Context, email, password, name string) (identity.Session, error)

	// Login exchanges credentials for a session.
	Login(ctx context.Context, email, password string) (identity.Session, error)

	// Me returns the caller's profile.
	Me(ctx context.Context) (model.User, error)

	// UpdateProfile changes the caller's display name. Participant name
	// snapshots in existing lists are not updated.
	UpdateProfile(ctx context.Context, name string) (model.User, error)

	// ListLists returns the lists the caller participates in, oldest first.
	ListLists(ctx context.Context) ([]ListView, error)

	// GetList returns one list.
	GetList(ctx context.Context, listID string) (ListView, error)

	// ResolveList finds a list by id, 1-based position in ListLists, or
	// title (case-insensitive, trimmed). Returns an error if not found or
	// ambiguous.
	ResolveList(ctx context.Context, ref string) (ListView, error)

	// CreateList creates a list owned by the caller.
	CreateList(ctx context.Context, title string) (ListView, error)

	// RenameList sets a list's title.
	RenameList(ctx context.Context, listID, title string) (ListView, error)

	// DeleteList deletes a list and its tasks. Owner only.
	DeleteList(ctx context.Context, listID string) error

	// LeaveList removes the caller from a list. Owners cannot leave.
	LeaveList(ctx context.Context, listID string) error

	// RemoveList deletes the list for its owner and leaves it for everyone
	// else. It returns the action taken.
	RemoveList(ctx context.Context, listID string) (role.Action, error)

	// AddParticipant invites a registered user by email.
	AddParticipant(ctx context.Context, listID, email string, r role.Role) (model.Participant, error)

	// ListTasks returns a list's tasks ordered by createdAt, then id.
	ListTasks(ctx context.Context, listID string) ([]model.Task, error)

	// GetTask returns one task.
	GetTask(ctx context.Context, listID, taskID string) (model.Task, error)

	// CreateTask creates a task in the list.
	CreateTask(ctx context.Context, listID string, d model.TaskDraft) (model.Task, error)

	// UpdateTask merges p into a task.
	UpdateTask(ctx context.Context, listID, taskID string, p model.TaskPatch) (model.Task, error)

	// ToggleTask flips a task's completion flag.
	ToggleTask(ctx context.Context, listID, taskID string) (model.Task, error)

	// DeleteTask deletes a task.
	DeleteTask(ctx context.Context, listID, taskID string) error

	// ResolveNames maps user ids to display names ("Unknown" when missing).
	ResolveNames(ctx context.Context, ids []string) (map[string]string, error)
}
