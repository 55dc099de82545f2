// Package tasks stores tasks scoped to a task list.
package tasks

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"todoshare/internal/apperr"
	"todoshare/internal/docstore"
	"todoshare/internal/model"
)

// Repository performs task CRUD against the document store.
type Repository struct {
	docs docstore.Store
	now  func() time.Time
}

// New creates a Repository.
func New(docs docstore.Store) *Repository {
	return &Repository{docs: docs, now: time.Now}
}

// SetClock overrides the time source (for testing).
func (r *Repository) SetClock(now func() time.Time) {
	r.now = now
}

// ListForList returns every task of listID. The order is unspecified.
func (r *Repository) ListForList(ctx context.Context, listID string) ([]model.Task, error) {
	docs, err := r.docs.Query(ctx, model.TasksCollection, docstore.Eq(model.FieldTaskListID, listID))
	if err != nil {
		return nil, docstore.Wrap("list tasks", err)
	}
	out := make([]model.Task, 0, len(docs))
	for _, doc := range docs {
		out = append(out, model.TaskFromFields(doc.ID, doc.Fields))
	}
	return out, nil
}

// Get returns taskID, which must belong to listID.
func (r *Repository) Get(ctx context.Context, listID, taskID string) (model.Task, error) {
	doc, err := r.docs.Get(ctx, model.TasksCollection, taskID)
	if err != nil {
		return model.Task{}, docstore.Wrap("get task", err)
	}
	t := model.TaskFromFields(doc.ID, doc.Fields)
	if t.TaskListID != listID {
		return model.Task{}, fmt.Errorf("task %s in list %s: %w", taskID, listID, apperr.ErrNotFound)
	}
	return t, nil
}

// Create stores a new unchecked task in listID.
func (r *Repository) Create(ctx context.Context, listID string, d model.TaskDraft) (model.Task, error) {
	title := strings.TrimSpace(d.Title)
	if title == "" {
		return model.Task{}, apperr.Validation("title", "task title must not be empty")
	}
	priority := d.Priority
	if priority == "" {
		priority = model.PriorityMedium
	}
	now := r.now()
	t := model.Task{
		Title:      title,
		Body:       d.Body,
		TaskListID: listID,
		CreatedAt:  now,
		UpdatedAt:  now,
		DueDate:    d.DueDate,
		Priority:   priority,
		AssignedTo: d.AssignedTo,
	}
	id, err := r.docs.Add(ctx, model.TasksCollection, model.TaskFields(t))
	if err != nil {
		return model.Task{}, docstore.Wrap("create task", err)
	}
	t.ID = id
	return t, nil
}

// Update merges p into taskID. taskListId is never written. Concurrent
// updates to the same task are last-write-wins per field.
func (r *Repository) Update(ctx context.Context, listID, taskID string, p model.TaskPatch) (model.Task, error) {
	if p.Title != nil {
		title := strings.TrimSpace(*p.Title)
		if title == "" {
			return model.Task{}, apperr.Validation("title", "task title must not be empty")
		}
		p.Title = &title
	}
	t, err := r.Get(ctx, listID, taskID)
	if err != nil {
		return model.Task{}, err
	}
	fields := model.PatchFields(p, r.now())
	if err := r.docs.Update(ctx, model.TasksCollection, taskID, fields); err != nil {
		return model.Task{}, docstore.Wrap("update task", err)
	}
	return applyPatch(t, p, fields[model.FieldUpdatedAt].(time.Time)), nil
}

// ToggleChecked flips the completion flag and stamps updatedAt.
func (r *Repository) ToggleChecked(ctx context.Context, listID, taskID string) (model.Task, error) {
	t, err := r.Get(ctx, listID, taskID)
	if err != nil {
		return model.Task{}, err
	}
	t.Checked = !t.Checked
	t.UpdatedAt = r.now()
	fields := map[string]any{
		model.FieldChecked:   t.Checked,
		model.FieldUpdatedAt: t.UpdatedAt,
	}
	if err := r.docs.Update(ctx, model.TasksCollection, taskID, fields); err != nil {
		return model.Task{}, docstore.Wrap("toggle task", err)
	}
	return t, nil
}

// Delete removes taskID. A second delete of the same id fails with
// apperr.ErrNotFound.
func (r *Repository) Delete(ctx context.Context, listID, taskID string) error {
	if _, err := r.Get(ctx, listID, taskID); err != nil {
		return err
	}
	if err := r.docs.Delete(ctx, model.TasksCollection, taskID); err != nil {
		return docstore.Wrap("delete task", err)
	}
	return nil
}

// DeleteForList removes every task of listID and returns how many were
// deleted. Tasks that vanish concurrently are skipped.
func (r *Repository) DeleteForList(ctx context.Context, listID string) (int, error) {
	ts, err := r.ListForList(ctx, listID)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, t := range ts {
		err := r.docs.Delete(ctx, model.TasksCollection, t.ID)
		switch {
		case err == nil:
			n++
		case errors.Is(err, docstore.ErrNotFound):
		default:
			return n, docstore.Wrap("delete task", err)
		}
	}
	return n, nil
}

func applyPatch(t model.Task, p model.TaskPatch, now time.Time) model.Task {
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Body != nil {
		t.Body = *p.Body
	}
	if p.ClearDueDate {
		t.DueDate = nil
	} else if p.DueDate != nil {
		due := *p.DueDate
		t.DueDate = &due
	}
	if p.Priority != nil {
		t.Priority = *p.Priority
	}
	if p.AssignedTo != nil {
		t.AssignedTo = *p.AssignedTo
	}
	t.UpdatedAt = now
	return t
}
