// Package output provides formatters for CLI output.
package output

import (
	"fmt"
	"io"
	"strings"
	"time"

	"todoshare/internal/model"
	"todoshare/internal/role"
	"todoshare/internal/service"
)

const (
	// ListSeparator is the separator line for list sections.
	ListSeparator = "------------"

	// TimeLayout renders created/updated timestamps.
	TimeLayout = "2006-01-02 15:04"
)

// FormatListIndex formats one line of the lists command.
// Format: "{N:>4}  {TITLE}  ({ROLE})\n"
func FormatListIndex(w io.Writer, num int, v service.ListView) {
	fmt.Fprintf(w, "%4d  %s  (%s)\n", num, normalizeListTitle(v.Title), roleName(v))
}

// FormatListHeader formats a list section header with the caller's role.
func FormatListHeader(w io.Writer, v service.ListView) {
	fmt.Fprintln(w, ListSeparator)
	fmt.Fprintf(w, "%s [%s]\n", normalizeListTitle(v.Title), roleName(v))
	fmt.Fprintln(w, ListSeparator)
}

// FormatParticipants prints the participants of v, owners first.
func FormatParticipants(w io.Writer, v service.ListView) {
	ps := v.SortedParticipants()
	parts := make([]string, 0, len(ps))
	for _, p := range ps {
		parts = append(parts, fmt.Sprintf("%s (%s)", p.Name, p.Role))
	}
	fmt.Fprintf(w, "participants: %s\n", strings.Join(parts, ", "))
}

// FormatTask formats a task line inside a list section.
// Format: "    {N:>4}  [x] {TITLE}  ({ATTRS})\n"
func FormatTask(w io.Writer, num int, t model.Task, names map[string]string) {
	line := fmt.Sprintf("    %4d  %s %s", num, checkbox(t), normalizeTitle(t.Title))
	var attrs []string
	if t.Priority != "" && t.Priority != model.PriorityMedium {
		attrs = append(attrs, string(t.Priority))
	}
	if t.DueDate != nil {
		attrs = append(attrs, "due "+t.DueDate.Format(model.DateLayout))
	}
	if t.AssignedTo != "" {
		attrs = append(attrs, "@"+assignee(t, names))
	}
	if len(attrs) > 0 {
		line += "  (" + strings.Join(attrs, ", ") + ")"
	}
	fmt.Fprintln(w, line)
}

// FormatTaskDetail formats every field of a task.
func FormatTaskDetail(w io.Writer, num int, t model.Task, names map[string]string) {
	fmt.Fprintf(w, "    %4d  %s %s\n", num, checkbox(t), normalizeTitle(t.Title))
	field := func(name, value string) {
		fmt.Fprintf(w, "          %-9s %s\n", name+":", value)
	}
	if body := strings.TrimSpace(t.Body); body != "" {
		field("body", strings.ReplaceAll(body, "\n", " "))
	}
	field("priority", string(t.Priority))
	if t.AssignedTo != "" {
		field("assignee", assignee(t, names))
	}
	if t.DueDate != nil {
		field("due", t.DueDate.Format(model.DateLayout))
	}
	field("created", formatTime(t.CreatedAt))
	field("updated", formatTime(t.UpdatedAt))
}

// FormatEmptyList prints the hint shown for a list without tasks.
func FormatEmptyList(w io.Writer, v service.ListView) {
	fmt.Fprintln(w, "    no tasks yet")
	if v.Can(role.CreateTask) {
		fmt.Fprintln(w, "    add one with: todoshare add --list <list> <title>")
	}
	if v.Can(role.AddParticipant) {
		fmt.Fprintln(w, "    invite someone with: todoshare adduser --list <list> <email>")
	}
}

// FormatUser prints a profile.
func FormatUser(w io.Writer, u model.User) {
	fmt.Fprintf(w, "%s <%s>\n", u.Name, u.Email)
	fmt.Fprintf(w, "id: %s\n", u.ID)
	if !u.CreatedAt.IsZero() {
		fmt.Fprintf(w, "member since: %s\n", u.CreatedAt.UTC().Format(model.DateLayout))
	}
}

func checkbox(t model.Task) string {
	if t.Checked {
		return "[x]"
	}
	return "[ ]"
}

func assignee(t model.Task, names map[string]string) string {
	if n := names[t.AssignedTo]; n != "" {
		return n
	}
	return t.AssignedTo
}

func roleName(v service.ListView) string {
	if v.Role == "" {
		return "unknown"
	}
	return string(v.Role)
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.UTC().Format(TimeLayout)
}

// normalizeTitle normalizes a task title for display.
// - Empty or whitespace-only titles become "(untitled)"
// - Newlines are replaced with spaces
func normalizeTitle(title string) string {
	title = strings.ReplaceAll(title, "\r", " ")
	title = strings.ReplaceAll(title, "\n", " ")
	if strings.TrimSpace(title) == "" {
		return "(untitled)"
	}
	return title
}

// normalizeListTitle normalizes a list title for display.
// Empty or whitespace-only titles become "(untitled)".
func normalizeListTitle(title string) string {
	if strings.TrimSpace(title) == "" {
		return "(untitled)"
	}
	return title
}
