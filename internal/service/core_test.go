package service_test

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"todoshare/internal/apperr"
	"todoshare/internal/backend/memory"
	"todoshare/internal/events"
	"todoshare/internal/identity"
	"todoshare/internal/model"
	"todoshare/internal/role"
	"todoshare/internal/service"
	"todoshare/internal/testutil"
)

// groceries sets up the list "Groceries" owned by U1 with U2 as member.
type groceries struct {
	f    *testutil.Fixture
	u1   identity.Session
	u2   identity.Session
	list service.ListView
}

func newGroceries(t *testing.T) *groceries {
	t.Helper()
	ctx := context.Background()
	f := testutil.NewFixture()
	u1 := f.SignUp(t, "una@example.com", "Una")
	u2 := f.SignUp(t, "shopper@example.com", "Sam")
	f.As(u1)

	l, err := f.Service.CreateList(ctx, "Groceries")
	require.NoError(t, err)
	_, err = f.Service.AddParticipant(ctx, l.ID, "shopper@example.com", role.Member)
	require.NoError(t, err)
	return &groceries{f: f, u1: u1, u2: u2, list: l}
}

func TestRegisterWritesProfile(t *testing.T) {
	f := testutil.NewFixture()
	ctx := context.Background()

	s, err := f.Service.Register(ctx, "una@example.com", testutil.Password, "  Una ")
	require.NoError(t, err)
	assert.Equal(t, "Una", s.DisplayName)

	f.As(s)
	me, err := f.Service.Me(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Una", me.Name)
	assert.Equal(t, "una@example.com", me.Email)
	assert.False(t, me.CreatedAt.IsZero())
}

// userTokenStore is a memory store that, like Firestore with user
// credentials, asks the signed-in user's token source before every write.
type userTokenStore struct {
	*memory.Store
	tokens func() (string, error)
	used   []string
}

func (s *userTokenStore) Set(ctx context.Context, collection, id string, fields map[string]any) error {
	tok, err := s.tokens()
	if err != nil {
		return err
	}
	s.used = append(s.used, tok)
	return s.Store.Set(ctx, collection, id, fields)
}

func TestRegisterWritesProfileAsNewUser(t *testing.T) {
	ctx := context.Background()
	auth := testutil.NewFakeAuth()
	client := identity.NewClient(auth, filepath.Join(t.TempDir(), "session.json"))
	docs := &userTokenStore{Store: memory.New()}
	docs.tokens = func() (string, error) {
		tok, err := client.TokenSource(ctx).Token()
		if err != nil {
			return "", err
		}
		return tok.AccessToken, nil
	}
	svc := service.New(service.Deps{Source: client, Auth: auth, Docs: docs})

	s, err := svc.Register(ctx, "new@example.com", testutil.Password, "Nia")
	require.NoError(t, err)
	assert.Equal(t, []string{"tok-" + s.UID}, docs.used)

	found, err := docs.Query(ctx, model.UsersCollection)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, s.UID, found[0].ID)

	me, err := svc.Me(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Nia", me.Name)
}

func TestRegisterValidation(t *testing.T) {
	f := testutil.NewFixture()
	ctx := context.Background()

	_, err := f.Service.Register(ctx, "", "pw", "Una")
	assert.ErrorIs(t, err, apperr.ErrValidation)
	_, err = f.Service.Register(ctx, "una@example.com", "pw", " ")
	assert.ErrorIs(t, err, apperr.ErrValidation)

	f.SignUp(t, "una@example.com", "Una")
	_, err = f.Service.Register(ctx, "una@example.com", "pw", "Again")
	assert.ErrorIs(t, err, apperr.ErrValidation)
	assert.Equal(t, 0, f.Docs.Count(model.TaskListsCollection))
}

func TestLogin(t *testing.T) {
	f := testutil.NewFixture()
	ctx := context.Background()
	f.SignUp(t, "una@example.com", "Una")

	s, err := f.Service.Login(ctx, "una@example.com", testutil.Password)
	require.NoError(t, err)
	assert.Equal(t, "U1", s.UID)

	_, err = f.Service.Login(ctx, "una@example.com", "nope")
	assert.ErrorIs(t, err, apperr.ErrInvalidCredentials)
	_, err = f.Service.Login(ctx, "", "")
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestSignedOutCallsDoNoStoreIO(t *testing.T) {
	g := newGroceries(t)
	g.f.SignOut()
	ctx := context.Background()
	before := g.f.Docs.Calls()
	svc := g.f.Service

	calls := map[string]func() error{
		"Me":             func() error { _, err := svc.Me(ctx); return err },
		"ListLists":      func() error { _, err := svc.ListLists(ctx); return err },
		"GetList":        func() error { _, err := svc.GetList(ctx, g.list.ID); return err },
		"CreateList":     func() error { _, err := svc.CreateList(ctx, "x"); return err },
		"RenameList":     func() error { _, err := svc.RenameList(ctx, g.list.ID, "x"); return err },
		"DeleteList":     func() error { return svc.DeleteList(ctx, g.list.ID) },
		"RemoveList":     func() error { _, err := svc.RemoveList(ctx, g.list.ID); return err },
		"AddParticipant": func() error { _, err := svc.AddParticipant(ctx, g.list.ID, "a@b.c", role.Member); return err },
		"ListTasks":      func() error { _, err := svc.ListTasks(ctx, g.list.ID); return err },
		"CreateTask":     func() error { _, err := svc.CreateTask(ctx, g.list.ID, model.TaskDraft{Title: "x"}); return err },
		"ToggleTask":     func() error { _, err := svc.ToggleTask(ctx, g.list.ID, "T"); return err },
		"DeleteTask":     func() error { return svc.DeleteTask(ctx, g.list.ID, "T") },
		"ResolveNames":   func() error { _, err := svc.ResolveNames(ctx, []string{"U1"}); return err },
	}
	for name, call := range calls {
		t.Run(name, func(t *testing.T) {
			assert.ErrorIs(t, call(), apperr.ErrAuthRequired)
		})
	}
	assert.Equal(t, before, g.f.Docs.Calls())
}

func TestGroceriesScenario(t *testing.T) {
	g := newGroceries(t)
	ctx := context.Background()

	l, err := g.f.Service.GetList(ctx, g.list.ID)
	require.NoError(t, err)
	assert.Equal(t, "Groceries", l.Title)
	assert.Equal(t, role.Owner, l.Role)
	assert.Equal(t, []string{"U1", "U2"}, l.ParticipantIDs)
	assert.Equal(t, role.Owner, l.Participants["U1"].Role)
	assert.Equal(t, role.Member, l.Participants["U2"].Role)
	assert.Equal(t, "Sam", l.Participants["U2"].Name)
	assert.True(t, l.MembershipConsistent())

	assert.Equal(t, []events.Type{events.ListCreated, events.ParticipantAdded}, g.f.Events.Types())
}

func TestAddParticipantTwiceIsNoop(t *testing.T) {
	g := newGroceries(t)
	ctx := context.Background()
	before, err := g.f.Service.GetList(ctx, g.list.ID)
	require.NoError(t, err)

	_, err = g.f.Service.AddParticipant(ctx, g.list.ID, "shopper@example.com", role.Admin)
	assert.ErrorIs(t, err, apperr.ErrAlreadyMember)

	after, err := g.f.Service.GetList(ctx, g.list.ID)
	require.NoError(t, err)
	assert.Equal(t, before.TaskList, after.TaskList)
}

func TestMemberDeleteListIsNotIssued(t *testing.T) {
	g := newGroceries(t)
	ctx := context.Background()
	g.f.As(g.u2)

	require.False(t, role.CanPerform(role.Member, role.DeleteList))
	g.f.Docs.DeleteErr = errors.New("delete must not be called")

	err := g.f.Service.DeleteList(ctx, g.list.ID)
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	g.f.Docs.DeleteErr = nil
	l, err := g.f.Service.GetList(ctx, g.list.ID)
	require.NoError(t, err)
	assert.True(t, l.IsParticipant("U2"))
}

func TestRemoveListLeavesForMember(t *testing.T) {
	g := newGroceries(t)
	ctx := context.Background()
	g.f.As(g.u2)

	a, err := g.f.Service.RemoveList(ctx, g.list.ID)
	require.NoError(t, err)
	assert.Equal(t, role.LeaveList, a)

	lists, err := g.f.Service.ListLists(ctx)
	require.NoError(t, err)
	assert.Empty(t, lists)

	g.f.As(g.u1)
	l, err := g.f.Service.GetList(ctx, g.list.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"U1"}, l.ParticipantIDs)
	assert.True(t, l.MembershipConsistent())
}

func TestRemoveListDeletesForOwner(t *testing.T) {
	g := newGroceries(t)
	ctx := context.Background()
	_, err := g.f.Service.CreateTask(ctx, g.list.ID, model.TaskDraft{Title: "Buy milk"})
	require.NoError(t, err)
	_, err = g.f.Service.CreateTask(ctx, g.list.ID, model.TaskDraft{Title: "Buy eggs"})
	require.NoError(t, err)

	a, err := g.f.Service.RemoveList(ctx, g.list.ID)
	require.NoError(t, err)
	assert.Equal(t, role.DeleteList, a)
	assert.Equal(t, 0, g.f.Docs.Count(model.TaskListsCollection))
	assert.Equal(t, 0, g.f.Docs.Count(model.TasksCollection))

	_, err = g.f.Service.GetList(ctx, g.list.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestOwnerCannotLeave(t *testing.T) {
	g := newGroceries(t)
	err := g.f.Service.LeaveList(context.Background(), g.list.ID)
	assert.ErrorIs(t, err, apperr.ErrOwnerCannotLeave)
}

func TestMemberPermissions(t *testing.T) {
	g := newGroceries(t)
	ctx := context.Background()
	task, err := g.f.Service.CreateTask(ctx, g.list.ID, model.TaskDraft{Title: "Buy milk", Priority: model.PriorityLow})
	require.NoError(t, err)

	g.f.As(g.u2)
	_, err = g.f.Service.CreateTask(ctx, g.list.ID, model.TaskDraft{Title: "Cake"})
	assert.ErrorIs(t, err, apperr.ErrForbidden)
	assert.ErrorIs(t, g.f.Service.DeleteTask(ctx, g.list.ID, task.ID), apperr.ErrForbidden)
	_, err = g.f.Service.RenameList(ctx, g.list.ID, "Mine")
	assert.ErrorIs(t, err, apperr.ErrForbidden)
	_, err = g.f.Service.AddParticipant(ctx, g.list.ID, "una@example.com", role.Member)
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	title := "Buy oat milk"
	edited, err := g.f.Service.UpdateTask(ctx, g.list.ID, task.ID, model.TaskPatch{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, "Buy oat milk", edited.Title)

	toggled, err := g.f.Service.ToggleTask(ctx, g.list.ID, task.ID)
	require.NoError(t, err)
	assert.True(t, toggled.Checked)
}

func TestToggleScenario(t *testing.T) {
	g := newGroceries(t)
	ctx := context.Background()
	task, err := g.f.Service.CreateTask(ctx, g.list.ID, model.TaskDraft{Title: "Buy milk", Priority: model.PriorityLow})
	require.NoError(t, err)
	require.False(t, task.Checked)

	once, err := g.f.Service.ToggleTask(ctx, g.list.ID, task.ID)
	require.NoError(t, err)
	assert.True(t, once.Checked)

	twice, err := g.f.Service.ToggleTask(ctx, g.list.ID, task.ID)
	require.NoError(t, err)
	assert.False(t, twice.Checked)
	assert.True(t, twice.UpdatedAt.After(once.UpdatedAt))
	assert.True(t, once.UpdatedAt.After(task.UpdatedAt))
}

func TestDeleteMissingTaskIsNotFound(t *testing.T) {
	g := newGroceries(t)
	ctx := context.Background()
	_, err := g.f.Service.CreateTask(ctx, g.list.ID, model.TaskDraft{Title: "Buy milk"})
	require.NoError(t, err)

	err = g.f.Service.DeleteTask(ctx, g.list.ID, "no-such-task")
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	ts, err := g.f.Service.ListTasks(ctx, g.list.ID)
	require.NoError(t, err)
	assert.Len(t, ts, 1)
}

func TestNonParticipantSeesNotFound(t *testing.T) {
	g := newGroceries(t)
	ctx := context.Background()
	g.f.SignUp(t, "outsider@example.com", "Olga")

	_, err := g.f.Service.GetList(ctx, g.list.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	_, err = g.f.Service.ListTasks(ctx, g.list.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestAssigneeMustParticipate(t *testing.T) {
	g := newGroceries(t)
	ctx := context.Background()

	_, err := g.f.Service.CreateTask(ctx, g.list.ID, model.TaskDraft{Title: "x", AssignedTo: "U9"})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	task, err := g.f.Service.CreateTask(ctx, g.list.ID, model.TaskDraft{Title: "x", AssignedTo: "U2"})
	require.NoError(t, err)
	assert.Equal(t, "U2", task.AssignedTo)

	nobody := ""
	task, err = g.f.Service.UpdateTask(ctx, g.list.ID, task.ID, model.TaskPatch{AssignedTo: &nobody})
	require.NoError(t, err)
	assert.Empty(t, task.AssignedTo)

	_, err = g.f.Service.UpdateTask(ctx, g.list.ID, task.ID, model.TaskPatch{})
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestListTasksSorted(t *testing.T) {
	g := newGroceries(t)
	ctx := context.Background()
	for _, title := range []string{"first", "second", "third"} {
		_, err := g.f.Service.CreateTask(ctx, g.list.ID, model.TaskDraft{Title: title})
		require.NoError(t, err)
	}
	ts, err := g.f.Service.ListTasks(ctx, g.list.ID)
	require.NoError(t, err)
	require.Len(t, ts, 3)
	assert.Equal(t, "first", ts[0].Title)
	assert.Equal(t, "third", ts[2].Title)
}

func TestResolveList(t *testing.T) {
	g := newGroceries(t)
	ctx := context.Background()
	second, err := g.f.Service.CreateList(ctx, "Chores")
	require.NoError(t, err)

	v, err := g.f.Service.ResolveList(ctx, "  groceries ")
	require.NoError(t, err)
	assert.Equal(t, g.list.ID, v.ID)

	v, err = g.f.Service.ResolveList(ctx, "2")
	require.NoError(t, err)
	assert.Equal(t, second.ID, v.ID)

	v, err = g.f.Service.ResolveList(ctx, second.ID)
	require.NoError(t, err)
	assert.Equal(t, "Chores", v.Title)

	_, err = g.f.Service.ResolveList(ctx, "Garden")
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = g.f.Service.CreateList(ctx, "chores")
	require.NoError(t, err)
	_, err = g.f.Service.ResolveList(ctx, "Chores")
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestRenameList(t *testing.T) {
	g := newGroceries(t)
	ctx := context.Background()

	v, err := g.f.Service.RenameList(ctx, g.list.ID, "  Food ")
	require.NoError(t, err)
	assert.Equal(t, "Food", v.Title)

	calls := g.f.Docs.Calls()
	_, err = g.f.Service.RenameList(ctx, g.list.ID, "   ")
	assert.ErrorIs(t, err, apperr.ErrValidation)
	// Guard and membership read only; no write.
	assert.Equal(t, calls+1, g.f.Docs.Calls())
}

func TestUpdateProfile(t *testing.T) {
	g := newGroceries(t)
	ctx := context.Background()

	u, err := g.f.Service.UpdateProfile(ctx, "Una B.")
	require.NoError(t, err)
	assert.Equal(t, "Una B.", u.Name)
	assert.Equal(t, "Una B.", g.f.Auth.DisplayName("una@example.com"))

	// Snapshots are not kept in sync.
	l, err := g.f.Service.GetList(ctx, g.list.ID)
	require.NoError(t, err)
	assert.Equal(t, "Una", l.Participants["U1"].Name)

	names, err := g.f.Service.ResolveNames(ctx, []string{"U1", "U2", "ghost"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"U1": "Una B.", "U2": "Sam", "ghost": "Unknown"}, names)
}

func TestListListsRoles(t *testing.T) {
	g := newGroceries(t)
	ctx := context.Background()
	_, err := g.f.Service.CreateList(ctx, "Chores")
	require.NoError(t, err)

	g.f.As(g.u2)
	lists, err := g.f.Service.ListLists(ctx)
	require.NoError(t, err)
	require.Len(t, lists, 1)
	assert.Equal(t, "Groceries", lists[0].Title)
	assert.Equal(t, role.Member, lists[0].Role)
	assert.False(t, lists[0].Can(role.DeleteList))
}

func TestStoreFailureIsLoggedAndClassified(t *testing.T) {
	var buf bytes.Buffer
	f := testutil.NewFixture()
	logger := log.New(&buf)
	svc := service.New(service.Deps{Source: f.Source, Auth: f.Auth, Docs: f.Docs, Logger: logger})
	ctx := context.Background()
	s, err := svc.Register(ctx, "una@example.com", testutil.Password, "Una")
	require.NoError(t, err)
	f.As(s)

	f.Docs.AddErr = errors.New("deadline exceeded")
	_, err = svc.CreateList(ctx, "Groceries")
	assert.ErrorIs(t, err, apperr.ErrStore)
	assert.Contains(t, buf.String(), "store failure")
	assert.Contains(t, buf.String(), "createList")
}

func TestEventFailureDoesNotFailAction(t *testing.T) {
	g := newGroceries(t)
	g.f.Events.Err = errors.New("nats down")
	_, err := g.f.Service.CreateTask(context.Background(), g.list.ID, model.TaskDraft{Title: "Buy milk"})
	assert.NoError(t, err)
}
