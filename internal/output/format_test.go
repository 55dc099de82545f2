package output_test

import (
	"bytes"
	"testing"
	"time"

	"todoshare/internal/model"
	"todoshare/internal/output"
	"todoshare/internal/role"
	"todoshare/internal/service"
)

func groceries(r role.Role) service.ListView {
	return service.ListView{
		TaskList: model.TaskList{
			ID:    "L1",
			Title: "Groceries",
			Participants: map[string]model.Participant{
				"U2": {ID: "U2", Name: "Sam", Role: role.Member},
				"U1": {ID: "U1", Name: "Una", Role: role.Owner},
				"U3": {ID: "U3", Name: "Ari", Role: role.Admin},
			},
			ParticipantIDs: []string{"U1", "U2", "U3"},
		},
		Role: r,
	}
}

func TestFormatListIndex(t *testing.T) {
	var buf bytes.Buffer
	output.FormatListIndex(&buf, 1, groceries(role.Owner))
	output.FormatListIndex(&buf, 12, service.ListView{TaskList: model.TaskList{Title: "  "}})

	want := "   1  Groceries  (owner)\n  12  (untitled)  (unknown)\n"
	if buf.String() != want {
		t.Errorf("expected %q, got %q", want, buf.String())
	}
}

func TestFormatListHeaderAndParticipants(t *testing.T) {
	var buf bytes.Buffer
	v := groceries(role.Member)
	output.FormatListHeader(&buf, v)
	output.FormatParticipants(&buf, v)

	want := "------------\nGroceries [member]\n------------\n" +
		"participants: Una (owner), Ari (admin), Sam (member)\n"
	if buf.String() != want {
		t.Errorf("expected %q, got %q", want, buf.String())
	}
}

func TestFormatTask(t *testing.T) {
	due := time.Date(2026, 10, 20, 0, 0, 0, 0, time.UTC)
	names := map[string]string{"U2": "Sam"}

	tests := []struct {
		name string
		task model.Task
		want string
	}{
		{
			name: "plain",
			task: model.Task{Title: "Bread", Priority: model.PriorityMedium},
			want: "       1  [ ] Bread\n",
		},
		{
			name: "all attributes",
			task: model.Task{Title: "Milk", Checked: true, Priority: model.PriorityHigh, DueDate: &due, AssignedTo: "U2"},
			want: "       1  [x] Milk  (high, due 2026-10-20, @Sam)\n",
		},
		{
			name: "unknown assignee shows id",
			task: model.Task{Title: "Eggs\nlarge", Priority: model.PriorityLow, AssignedTo: "U9"},
			want: "       1  [ ] Eggs large  (low, @U9)\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			output.FormatTask(&buf, 1, tt.task, names)
			if buf.String() != tt.want {
				t.Errorf("expected %q, got %q", tt.want, buf.String())
			}
		})
	}
}

func TestFormatTaskDetail(t *testing.T) {
	created := time.Date(2026, 10, 18, 9, 0, 1, 0, time.UTC)
	task := model.Task{
		Title:      "Milk",
		Body:       "oat",
		Priority:   model.PriorityMedium,
		AssignedTo: "U2",
		CreatedAt:  created,
		UpdatedAt:  created.Add(time.Hour),
	}
	var buf bytes.Buffer
	output.FormatTaskDetail(&buf, 2, task, map[string]string{"U2": "Sam"})

	want := "       2  [ ] Milk\n" +
		"          body:     oat\n" +
		"          priority: medium\n" +
		"          assignee: Sam\n" +
		"          created:  2026-10-18 09:00\n" +
		"          updated:  2026-10-18 10:00\n"
	if buf.String() != want {
		t.Errorf("expected %q, got %q", want, buf.String())
	}
}

func TestFormatEmptyList(t *testing.T) {
	var owner, member bytes.Buffer
	output.FormatEmptyList(&owner, groceries(role.Owner))
	output.FormatEmptyList(&member, groceries(role.Member))

	if !bytes.Contains(owner.Bytes(), []byte("todoshare add")) || !bytes.Contains(owner.Bytes(), []byte("todoshare adduser")) {
		t.Errorf("owner hint should mention add and adduser, got %q", owner.String())
	}
	if member.String() != "    no tasks yet\n" {
		t.Errorf("member hint should not offer actions, got %q", member.String())
	}
}
