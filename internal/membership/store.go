// Package membership manages task lists and their participant sets.
//
// A list's participants map and participantsIds array are denormalized
// copies of the same set. Every mutation writes both in one versioned
// update so readers never observe one without the other.
package membership

import (
	"context"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"todoshare/internal/apperr"
	"todoshare/internal/docstore"
	"todoshare/internal/model"
	"todoshare/internal/role"
)

// UserFinder resolves invitees by email.
type UserFinder interface {
	FindByEmail(ctx context.Context, email string) (model.User, error)
}

// Store reads and mutates task lists.
type Store struct {
	docs  docstore.Store
	users UserFinder
	now   func() time.Time
}

// New creates a Store.
func New(docs docstore.Store, users UserFinder) *Store {
	return &Store{docs: docs, users: users, now: time.Now}
}

// SetClock overrides the time source (for testing).
func (s *Store) SetClock(now func() time.Time) {
	s.now = now
}

// Get returns the list with id listID.
func (s *Store) Get(ctx context.Context, listID string) (model.TaskList, error) {
	doc, err := s.docs.Get(ctx, model.TaskListsCollection, listID)
	if err != nil {
		return model.TaskList{}, docstore.Wrap("get list", err)
	}
	return model.TaskListFromFields(doc.ID, doc.Fields), nil
}

// ListsFor returns every list userID participates in, in store order.
func (s *Store) ListsFor(ctx context.Context, userID string) ([]model.TaskList, error) {
	docs, err := s.docs.Query(ctx, model.TaskListsCollection, docstore.Contains(model.FieldParticipantsIDs, userID))
	if err != nil {
		return nil, docstore.Wrap("query lists", err)
	}
	lists := make([]model.TaskList, 0, len(docs))
	for _, doc := range docs {
		lists = append(lists, model.TaskListFromFields(doc.ID, doc.Fields))
	}
	return lists, nil
}

// Create stores a new list owned by creator.
func (s *Store) Create(ctx context.Context, creator model.User, title string) (model.TaskList, error) {
	title, err := validTitle(title)
	if err != nil {
		return model.TaskList{}, err
	}
	owner := model.Participant{
		ID:   creator.ID,
		Name: model.DisplayName(creator.Name, "", creator.Email),
		Role: role.Owner,
	}
	list := model.TaskList{
		Title:          title,
		Participants:   map[string]model.Participant{creator.ID: owner},
		ParticipantIDs: []string{creator.ID},
		CreatedAt:      s.now(),
	}
	id, err := s.docs.Add(ctx, model.TaskListsCollection, model.TaskListFields(list))
	if err != nil {
		return model.TaskList{}, docstore.Wrap("create list", err)
	}
	list.ID = id
	return list, nil
}

// Rename sets the title of listID. Blank titles are rejected before any
// store call. Concurrent renames are last-write-wins.
func (s *Store) Rename(ctx context.Context, listID, title string) (string, error) {
	title, err := validTitle(title)
	if err != nil {
		return "", err
	}
	if err := s.docs.Update(ctx, model.TaskListsCollection, listID, map[string]any{model.FieldTitle: title}); err != nil {
		return "", docstore.Wrap("rename list", err)
	}
	return title, nil
}

// AddParticipant invites the user registered under email to listID with r.
// The list is left untouched when the user is unknown or already a member.
func (s *Store) AddParticipant(ctx context.Context, listID, email string, r role.Role) (model.Participant, error) {
	email, err := validEmail(email)
	if err != nil {
		return model.Participant{}, err
	}
	if !role.Grantable(r) {
		return model.Participant{}, apperr.Validation("role", fmt.Sprintf("cannot grant %q (use admin or member)", r))
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return model.Participant{}, err
	}

	list, err := s.Get(ctx, listID)
	if err != nil {
		return model.Participant{}, err
	}
	if list.IsParticipant(user.ID) || contains(list.ParticipantIDs, user.ID) {
		return model.Participant{}, fmt.Errorf("%s: %w", email, apperr.ErrAlreadyMember)
	}

	p := model.Participant{
		ID:   user.ID,
		Name: model.DisplayName(user.Name, "", ""),
		Role: r,
	}
	list.Participants[user.ID] = p
	list.ParticipantIDs = append(list.ParticipantIDs, user.ID)

	if err := s.writeMembership(ctx, list); err != nil {
		return model.Participant{}, err
	}
	return p, nil
}

// RemoveParticipant removes userID from listID. Owners cannot be removed:
// a list always keeps its owner until it is deleted.
func (s *Store) RemoveParticipant(ctx context.Context, listID, userID string) error {
	list, err := s.Get(ctx, listID)
	if err != nil {
		return err
	}
	p, ok := list.Participants[userID]
	if !ok {
		return fmt.Errorf("participant %s: %w", userID, apperr.ErrNotFound)
	}
	if role.Parse(string(p.Role)) == role.Owner {
		return apperr.ErrOwnerCannotLeave
	}

	delete(list.Participants, userID)
	list.ParticipantIDs = without(list.ParticipantIDs, userID)

	return s.writeMembership(ctx, list)
}

// Delete removes the list document.
func (s *Store) Delete(ctx context.Context, listID string) error {
	if err := s.docs.Delete(ctx, model.TaskListsCollection, listID); err != nil {
		return docstore.Wrap("delete list", err)
	}
	return nil
}

// writeMembership stores both membership fields in one update, guarded by
// the version the list was read at.
func (s *Store) writeMembership(ctx context.Context, list model.TaskList) error {
	fields := map[string]any{
		model.FieldParticipants:    model.ParticipantsFields(list.Participants),
		model.FieldParticipantsIDs: append([]string{}, list.ParticipantIDs...),
	}
	err := s.docs.UpdateIfVersion(ctx, model.TaskListsCollection, list.ID, list.Version, fields)
	return docstore.Wrap("update participants", err)
}

func validTitle(title string) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", apperr.Validation("title", "list title must not be empty")
	}
	return title, nil
}

func validEmail(email string) (string, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return "", apperr.Validation("email", "email required")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", apperr.Validation("email", fmt.Sprintf("invalid email: %s", email))
	}
	return email, nil
}

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func without(ids []string, id string) []string {
	out := make([]string, 0, len(ids))
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
