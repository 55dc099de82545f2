package model

import (
	"time"

	"todoshare/internal/role"
)

// Fields is a document body as exchanged with the document store.
type Fields = map[string]any

// UserFields encodes u for the users collection.
func UserFields(u User) Fields {
	return Fields{
		"name":      u.Name,
		FieldEmail:  u.Email,
		"createdAt": u.CreatedAt,
	}
}

// UserFromFields decodes a users document. Legacy documents may carry
// displayName instead of name.
func UserFromFields(id string, f Fields) User {
	return User{
		ID:        id,
		Name:      DisplayName(str(f, "name"), str(f, "displayName"), str(f, FieldEmail)),
		Email:     str(f, FieldEmail),
		CreatedAt: timeOf(f, "createdAt"),
	}
}

// ParticipantFields encodes p as stored inside a list's participants map.
func ParticipantFields(p Participant) Fields {
	return Fields{"id": p.ID, "name": p.Name, "status": string(p.Role)}
}

// ParticipantsFields encodes a whole participants map.
func ParticipantsFields(ps map[string]Participant) Fields {
	out := make(Fields, len(ps))
	for id, p := range ps {
		out[id] = ParticipantFields(p)
	}
	return out
}

// TaskListFields encodes l for the taskLists collection.
func TaskListFields(l TaskList) Fields {
	return Fields{
		FieldTitle:           l.Title,
		FieldParticipants:    ParticipantsFields(l.Participants),
		FieldParticipantsIDs: append([]string{}, l.ParticipantIDs...),
		"createdAt":          l.CreatedAt,
		FieldVersion:         l.Version,
	}
}

// TaskListFromFields decodes a taskLists document.
func TaskListFromFields(id string, f Fields) TaskList {
	l := TaskList{
		ID:             id,
		Title:          str(f, FieldTitle),
		Participants:   make(map[string]Participant),
		ParticipantIDs: strs(f, FieldParticipantsIDs),
		CreatedAt:      timeOf(f, "createdAt"),
		Version:        integer(f, FieldVersion),
	}
	for uid, raw := range mapOf(f, FieldParticipants) {
		pf, _ := raw.(map[string]any)
		pid := str(pf, "id")
		if pid == "" {
			pid = uid
		}
		l.Participants[uid] = Participant{
			ID:   pid,
			Name: DisplayName(str(pf, "name"), "", ""),
			Role: role.Parse(str(pf, "status")),
		}
	}
	return l
}

// TaskFields encodes t for the tasks collection. Missing due date and
// assignee are stored as null.
func TaskFields(t Task) Fields {
	f := Fields{
		FieldTitle:      t.Title,
		FieldBody:       t.Body,
		FieldTaskListID: t.TaskListID,
		FieldChecked:    t.Checked,
		"createdAt":     t.CreatedAt,
		FieldUpdatedAt:  t.UpdatedAt,
		FieldDueDate:    nil,
		FieldPriority:   string(t.Priority),
		FieldAssignedTo: nil,
	}
	if t.DueDate != nil {
		f[FieldDueDate] = *t.DueDate
	}
	if t.AssignedTo != "" {
		f[FieldAssignedTo] = t.AssignedTo
	}
	return f
}

// TaskFromFields decodes a tasks document.
func TaskFromFields(id string, f Fields) Task {
	t := Task{
		ID:         id,
		Title:      str(f, FieldTitle),
		Body:       str(f, FieldBody),
		TaskListID: str(f, FieldTaskListID),
		Checked:    boolean(f, FieldChecked),
		CreatedAt:  timeOf(f, "createdAt"),
		UpdatedAt:  timeOf(f, FieldUpdatedAt),
		AssignedTo: str(f, FieldAssignedTo),
	}
	if p, ok := ParsePriority(str(f, FieldPriority)); ok {
		t.Priority = p
	} else {
		t.Priority = PriorityMedium
	}
	if due := timeOf(f, FieldDueDate); !due.IsZero() {
		t.DueDate = &due
	}
	return t
}

// PatchFields encodes a partial task update, stamping updatedAt.
func PatchFields(p TaskPatch, now time.Time) Fields {
	f := Fields{FieldUpdatedAt: now}
	if p.Title != nil {
		f[FieldTitle] = *p.Title
	}
	if p.Body != nil {
		f[FieldBody] = *p.Body
	}
	if p.ClearDueDate {
		f[FieldDueDate] = nil
	} else if p.DueDate != nil {
		f[FieldDueDate] = *p.DueDate
	}
	if p.Priority != nil {
		f[FieldPriority] = string(*p.Priority)
	}
	if p.AssignedTo != nil {
		if *p.AssignedTo == "" {
			f[FieldAssignedTo] = nil
		} else {
			f[FieldAssignedTo] = *p.AssignedTo
		}
	}
	return f
}

func str(f Fields, key string) string {
	s, _ := f[key].(string)
	return s
}

func boolean(f Fields, key string) bool {
	b, _ := f[key].(bool)
	return b
}

func integer(f Fields, key string) int64 {
	switch v := f[key].(type) {
	case int64:
		return v
	case int:
		return int64(v)
	case int32:
		return int64(v)
	case float64:
		return int64(v)
	}
	return 0
}

func timeOf(f Fields, key string) time.Time {
	switch v := f[key].(type) {
	case time.Time:
		return v
	case *time.Time:
		if v != nil {
			return *v
		}
	case string:
		if t, err := time.Parse(time.RFC3339Nano, v); err == nil {
			return t
		}
	}
	return time.Time{}
}

func strs(f Fields, key string) []string {
	switch v := f[key].(type) {
	case []string:
		return append([]string{}, v...)
	case []any:
		out := make([]string, 0, len(v))
		for _, e := range v {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

func mapOf(f Fields, key string) map[string]any {
	m, _ := f[key].(map[string]any)
	return m
}
