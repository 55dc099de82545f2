package httpapi

import (
	"encoding/json"
	"strings"
	"time"

	"todoshare/internal/apperr"
	"todoshare/internal/identity"
	"todoshare/internal/model"
	"todoshare/internal/role"
	"todoshare/internal/service"
)

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type sessionResponse struct {
	UID         string    `json:"uid"`
	Email       string    `json:"email"`
	DisplayName string    `json:"displayName"`
	Token       string    `json:"token"`
	ExpiresAt   time.Time `json:"expiresAt"`
}

type userJSON struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}

type profileRequest struct {
	Name string `json:"name"`
}

type participantJSON struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Role string `json:"status"`
}

type listJSON struct {
	ID           string            `json:"id"`
	Title        string            `json:"title"`
	Role         string            `json:"role"`
	Participants []participantJSON `json:"participants"`
	CreatedAt    time.Time         `json:"createdAt"`
}

type listRequest struct {
	Title string `json:"title"`
}

type participantRequest struct {
	Email string `json:"email"`
	Role  string `json:"role"`
}

type removeResponse struct {
	Action role.Action `json:"action"`
}

type taskJSON struct {
	ID           string     `json:"id"`
	Title        string     `json:"title"`
	Body         string     `json:"body"`
	TaskListID   string     `json:"taskListId"`
	Checked      bool       `json:"checked"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
	DueDate      *time.Time `json:"dueDate"`
	Priority     string     `json:"priority"`
	AssignedTo   *string    `json:"assignedTo"`
	AssigneeName string     `json:"assigneeName,omitempty"`
}

// taskRequest is the body of task create and update. Absent fields are left
// unchanged on update; "dueDate": null and "assignedTo": null clear them.
type taskRequest struct {
	Title      *string         `json:"title"`
	Body       *string         `json:"body"`
	DueDate    json.RawMessage `json:"dueDate"`
	Priority   *string         `json:"priority"`
	AssignedTo json.RawMessage `json:"assignedTo"`
}

func toSessionJSON(s identity.Session) sessionResponse {
	out := sessionResponse{UID: s.UID, Email: s.Email, DisplayName: s.DisplayName, Token: s.IDToken()}
	if s.Token != nil {
		out.ExpiresAt = s.Token.Expiry
	}
	return out
}

func toUserJSON(u model.User) userJSON {
	return userJSON{ID: u.ID, Name: u.Name, Email: u.Email, CreatedAt: u.CreatedAt}
}

func toListJSON(v service.ListView) listJSON {
	out := listJSON{
		ID:        v.ID,
		Title:     v.Title,
		Role:      roleName(v.Role),
		CreatedAt: v.CreatedAt,
	}
	for _, p := range v.SortedParticipants() {
		out.Participants = append(out.Participants, participantJSON{ID: p.ID, Name: p.Name, Role: string(p.Role)})
	}
	return out
}

func roleName(r role.Role) string {
	if r == "" {
		return "unknown"
	}
	return string(r)
}

func toTaskJSON(t model.Task, names map[string]string) taskJSON {
	out := taskJSON{
		ID:         t.ID,
		Title:      t.Title,
		Body:       t.Body,
		TaskListID: t.TaskListID,
		Checked:    t.Checked,
		CreatedAt:  t.CreatedAt,
		UpdatedAt:  t.UpdatedAt,
		DueDate:    t.DueDate,
		Priority:   string(t.Priority),
	}
	if t.AssignedTo != "" {
		a := t.AssignedTo
		out.AssignedTo = &a
		out.AssigneeName = names[a]
	}
	return out
}

func (r taskRequest) draft() (model.TaskDraft, error) {
	var d model.TaskDraft
	if r.Title != nil {
		d.Title = *r.Title
	}
	if r.Body != nil {
		d.Body = *r.Body
	}
	if r.Priority != nil {
		p, ok := model.ParsePriority(*r.Priority)
		if !ok {
			return d, apperr.Validation("priority", "must be low, medium or high")
		}
		d.Priority = p
	}
	due, _, err := parseDue(r.DueDate)
	if err != nil {
		return d, err
	}
	d.DueDate = due
	assignee, _, err := parseNullableString(r.AssignedTo, "assignedTo")
	if err != nil {
		return d, err
	}
	if assignee != nil {
		d.AssignedTo = *assignee
	}
	return d, nil
}

func (r taskRequest) patch() (model.TaskPatch, error) {
	p := model.TaskPatch{Title: r.Title, Body: r.Body}
	if r.Priority != nil {
		pr, ok := model.ParsePriority(*r.Priority)
		if !ok {
			return p, apperr.Validation("priority", "must be low, medium or high")
		}
		p.Priority = &pr
	}
	due, noDue, err := parseDue(r.DueDate)
	if err != nil {
		return p, err
	}
	p.DueDate, p.ClearDueDate = due, noDue
	assignee, cleared, err := parseNullableString(r.AssignedTo, "assignedTo")
	if err != nil {
		return p, err
	}
	if cleared {
		empty := ""
		assignee = &empty
	}
	p.AssignedTo = assignee
	return p, nil
}

// parseDue accepts RFC 3339 timestamps and YYYY-MM-DD dates. It reports
// cleared when the value is JSON null.
func parseDue(raw json.RawMessage) (due *time.Time, cleared bool, err error) {
	s, cleared, err := parseNullableString(raw, "dueDate")
	if err != nil || s == nil {
		return nil, cleared, err
	}
	t, err := model.ParseDate(*s)
	if err != nil {
		return nil, false, err
	}
	return &t, false, nil
}

func parseNullableString(raw json.RawMessage, field string) (*string, bool, error) {
	if len(raw) == 0 {
		return nil, false, nil
	}
	if strings.TrimSpace(string(raw)) == "null" {
		return nil, true, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, false, apperr.Validation(field, "must be a string")
	}
	return &s, false, nil
}
