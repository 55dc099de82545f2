package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"todoshare/internal/apperr"
	"todoshare/internal/docstore"
	"todoshare/internal/events"
	"todoshare/internal/identity"
	"todoshare/internal/logging"
	"todoshare/internal/membership"
	"todoshare/internal/model"
	"todoshare/internal/role"
	"todoshare/internal/session"
	"todoshare/internal/tasks"
	"todoshare/internal/users"
)

// Deps are the collaborators of Core. Cache, Events and Logger are optional.
type Deps struct {
	Source identity.Source
	Auth   identity.Authenticator
	Docs   docstore.Store
	Cache  users.Cache
	Events events.Publisher
	Logger *log.Logger
	Now    func() time.Time
}

// Core implements Service on a document store and an identity provider.
type Core struct {
	source identity.Source
	guard  *session.Guard
	auth   identity.Authenticator
	users  *users.Directory
	lists  *membership.Store
	tasks  *tasks.Repository
	events events.Publisher
	log    *log.Logger
	now    func() time.Time
}

var _ Service = (*Core)(nil)

// New wires a Core from d.
func New(d Deps) *Core {
	now := d.Now
	if now == nil {
		now = time.Now
	}
	pub := d.Events
	if pub == nil {
		pub = events.Nop{}
	}
	logger := d.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	dir := users.New(d.Docs, d.Cache)
	dir.SetLogger(logger)
	lists := membership.New(d.Docs, dir)
	lists.SetClock(now)
	repo := tasks.New(d.Docs)
	repo.SetClock(now)
	return &Core{
		source: d.Source,
		guard:  session.NewGuard(d.Source),
		auth:   d.Auth,
		users:  dir,
		lists:  lists,
		tasks:  repo,
		events: pub,
		log:    logger,
		now:    now,
	}
}

// Register implements Service.
func (c *Core) Register(ctx context.Context, email, password, name string) (identity.Session, error) {
	email = strings.TrimSpace(email)
	name = strings.TrimSpace(name)
	if email == "" {
		return identity.Session{}, apperr.Validation("email", "email required")
	}
	if name == "" {
		return identity.Session{}, apperr.Validation("name", "name required")
	}
	if password == "" {
		return identity.Session{}, apperr.Validation("password", "password required")
	}
	s, err := c.auth.SignUp(ctx, email, password, name)
	if err != nil {
		return identity.Session{}, c.fail("register", "", "", apperr.Store("sign up", err))
	}
	s.DisplayName = name
	// Stores that authenticate as the signed-in user must see the new account.
	if a, ok := c.source.(identity.Adopter); ok {
		a.Adopt(s)
	}
	u := model.User{ID: s.UID, Name: name, Email: email, CreatedAt: c.now()}
	if err := c.users.Put(ctx, u); err != nil {
		return identity.Session{}, c.fail("register", "", "", err)
	}
	return s, nil
}

// Login implements Service.
func (c *Core) Login(ctx context.Context, email, password string) (identity.Session, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return identity.Session{}, apperr.Validation("credentials", "email and password required")
	}
	s, err := c.auth.SignIn(ctx, email, password)
	if err != nil {
		return identity.Session{}, c.fail("login", "", "", apperr.Store("sign in", err))
	}
	return s, nil
}

// Me implements Service.
func (c *Core) Me(ctx context.Context) (model.User, error) {
	s, err := c.guard.Require(ctx)
	if err != nil {
		return model.User{}, err
	}
	return c.profile(ctx, s)
}

// UpdateProfile implements Service.
func (c *Core) UpdateProfile(ctx context.Context, name string) (model.User, error) {
	s, err := c.guard.Require(ctx)
	if err != nil {
		return model.User{}, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return model.User{}, apperr.Validation("name", "must not be empty")
	}
	if err := c.auth.UpdateProfile(ctx, s.IDToken(), name); err != nil {
		return model.User{}, c.fail("updateProfile", "", "", apperr.Store("update provider profile", err))
	}
	if err := c.users.Rename(ctx, s.UID, name); err != nil {
		if !errors.Is(err, apperr.ErrNotFound) {
			return model.User{}, c.fail("updateProfile", "", "", err)
		}
		err = c.users.Put(ctx, model.User{ID: s.UID, Name: name, Email: s.Email, CreatedAt: c.now()})
		if err != nil {
			return model.User{}, c.fail("updateProfile", "", "", err)
		}
	}
	return c.profile(ctx, s)
}

// profile returns the users document of s, falling back to the identity
// when the document is missing.
func (c *Core) profile(ctx context.Context, s identity.Session) (model.User, error) {
	u, err := c.users.Get(ctx, s.UID)
	if errors.Is(err, apperr.ErrNotFound) {
		return model.User{ID: s.UID, Name: model.DisplayName("", s.DisplayName, s.Email), Email: s.Email}, nil
	}
	if err != nil {
		return model.User{}, c.fail("me", "", "", err)
	}
	return u, nil
}

// ListLists implements Service.
func (c *Core) ListLists(ctx context.Context) ([]ListView, error) {
	s, err := c.guard.Require(ctx)
	if err != nil {
		return nil, err
	}
	lists, err := c.lists.ListsFor(ctx, s.UID)
	if err != nil {
		return nil, c.fail("listLists", "", "", err)
	}
	sort.SliceStable(lists, func(i, j int) bool {
		if !lists[i].CreatedAt.Equal(lists[j].CreatedAt) {
			return lists[i].CreatedAt.Before(lists[j].CreatedAt)
		}
		return lists[i].ID < lists[j].ID
	})
	views := make([]ListView, 0, len(lists))
	for _, l := range lists {
		r, _ := l.RoleOf(s.UID)
		views = append(views, ListView{TaskList: l, Role: r})
	}
	return views, nil
}

// GetList implements Service.
func (c *Core) GetList(ctx context.Context, listID string) (ListView, error) {
	_, v, err := c.authorize(ctx, "getList", listID, "")
	return v, err
}

// ResolveList implements Service.
func (c *Core) ResolveList(ctx context.Context, ref string) (ListView, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return ListView{}, apperr.Validation("list", "list name required")
	}
	views, err := c.ListLists(ctx)
	if err != nil {
		return ListView{}, err
	}
	for _, v := range views {
		if v.ID == ref {
			return v, nil
		}
	}
	if n, err := strconv.Atoi(ref); err == nil && n >= 1 && n <= len(views) {
		return views[n-1], nil
	}
	var matches []ListView
	for _, v := range views {
		if strings.EqualFold(strings.TrimSpace(v.Title), ref) {
			matches = append(matches, v)
		}
	}
	switch len(matches) {
	case 0:
		return ListView{}, fmt.Errorf("list %s: %w", ref, apperr.ErrNotFound)
	case 1:
		return matches[0], nil
	}
	return ListView{}, apperr.Validation("list", fmt.Sprintf("ambiguous list name: %s", ref))
}

// CreateList implements Service.
func (c *Core) CreateList(ctx context.Context, title string) (ListView, error) {
	s, err := c.guard.Require(ctx)
	if err != nil {
		return ListView{}, err
	}
	creator, err := c.profile(ctx, s)
	if err != nil {
		return ListView{}, err
	}
	l, err := c.lists.Create(ctx, creator, title)
	if err != nil {
		return ListView{}, c.fail("createList", "", "", err)
	}
	c.publish(ctx, events.ListCreated, s.UID, l.ID, "")
	return ListView{TaskList: l, Role: role.Owner}, nil
}

// RenameList implements Service.
func (c *Core) RenameList(ctx context.Context, listID, title string) (ListView, error) {
	s, v, err := c.authorize(ctx, "renameList", listID, role.EditListTitle)
	if err != nil {
		return ListView{}, err
	}
	v.Title, err = c.lists.Rename(ctx, listID, title)
	if err != nil {
		return ListView{}, c.fail("renameList", listID, "", err)
	}
	c.publish(ctx, events.ListRenamed, s.UID, listID, "")
	return v, nil
}

// DeleteList implements Service. The list's tasks are deleted first so a
// partial failure never leaves tasks without a list document.
func (c *Core) DeleteList(ctx context.Context, listID string) error {
	s, _, err := c.authorize(ctx, "deleteList", listID, role.DeleteList)
	if err != nil {
		return err
	}
	n, err := c.tasks.DeleteForList(ctx, listID)
	if err != nil {
		return c.fail("deleteList", listID, "", err)
	}
	if err := c.lists.Delete(ctx, listID); err != nil {
		return c.fail("deleteList", listID, "", err)
	}
	c.log.Debug("deleted list", "list", listID, "tasks", n)
	c.publish(ctx, events.ListDeleted, s.UID, listID, "")
	return nil
}

// LeaveList implements Service.
func (c *Core) LeaveList(ctx context.Context, listID string) error {
	s, v, err := c.authorize(ctx, "leaveList", listID, role.LeaveList)
	if err != nil {
		return err
	}
	if v.Role == role.Owner {
		return apperr.ErrOwnerCannotLeave
	}
	if err := c.lists.RemoveParticipant(ctx, listID, s.UID); err != nil {
		return c.fail("leaveList", listID, "", err)
	}
	c.publish(ctx, events.ParticipantLeft, s.UID, listID, "")
	return nil
}

// RemoveList implements Service.
func (c *Core) RemoveList(ctx context.Context, listID string) (role.Action, error) {
	_, v, err := c.authorize(ctx, "removeList", listID, "")
	if err != nil {
		return "", err
	}
	a := role.RemoveAction(v.Role)
	if a == role.DeleteList {
		return a, c.DeleteList(ctx, listID)
	}
	return a, c.LeaveList(ctx, listID)
}

// AddParticipant implements Service.
func (c *Core) AddParticipant(ctx context.Context, listID, email string, r role.Role) (model.Participant, error) {
	s, _, err := c.authorize(ctx, "addParticipant", listID, role.AddParticipant)
	if err != nil {
		return model.Participant{}, err
	}
	p, err := c.lists.AddParticipant(ctx, listID, email, r)
	if err != nil {
		return model.Participant{}, c.fail("addParticipant", listID, "", err)
	}
	c.publish(ctx, events.ParticipantAdded, s.UID, listID, "")
	return p, nil
}

// ListTasks implements Service.
func (c *Core) ListTasks(ctx context.Context, listID string) ([]model.Task, error) {
	if _, _, err := c.authorize(ctx, "listTasks", listID, ""); err != nil {
		return nil, err
	}
	ts, err := c.tasks.ListForList(ctx, listID)
	if err != nil {
		return nil, c.fail("listTasks", listID, "", err)
	}
	model.SortTasks(ts)
	return ts, nil
}

// GetTask implements Service.
func (c *Core) GetTask(ctx context.Context, listID, taskID string) (model.Task, error) {
	if _, _, err := c.authorize(ctx, "getTask", listID, ""); err != nil {
		return model.Task{}, err
	}
	t, err := c.tasks.Get(ctx, listID, taskID)
	if err != nil {
		return model.Task{}, c.fail("getTask", listID, taskID, err)
	}
	return t, nil
}

// CreateTask implements Service.
func (c *Core) CreateTask(ctx context.Context, listID string, d model.TaskDraft) (model.Task, error) {
	s, v, err := c.authorize(ctx, "createTask", listID, role.CreateTask)
	if err != nil {
		return model.Task{}, err
	}
	if err := validAssignee(v.TaskList, d.AssignedTo); err != nil {
		return model.Task{}, err
	}
	t, err := c.tasks.Create(ctx, listID, d)
	if err != nil {
		return model.Task{}, c.fail("createTask", listID, "", err)
	}
	c.publish(ctx, events.TaskCreated, s.UID, listID, t.ID)
	return t, nil
}

// UpdateTask implements Service. Concurrent edits are last-write-wins.
func (c *Core) UpdateTask(ctx context.Context, listID, taskID string, p model.TaskPatch) (model.Task, error) {
	s, v, err := c.authorize(ctx, "updateTask", listID, role.EditTask)
	if err != nil {
		return model.Task{}, err
	}
	if p.Empty() {
		return model.Task{}, apperr.Validation("task", "nothing to update")
	}
	if p.AssignedTo != nil {
		if err := validAssignee(v.TaskList, *p.AssignedTo); err != nil {
			return model.Task{}, err
		}
	}
	t, err := c.tasks.Update(ctx, listID, taskID, p)
	if err != nil {
		return model.Task{}, c.fail("updateTask", listID, taskID, err)
	}
	c.publish(ctx, events.TaskUpdated, s.UID, listID, taskID)
	return t, nil
}

// ToggleTask implements Service.
func (c *Core) ToggleTask(ctx context.Context, listID, taskID string) (model.Task, error) {
	s, _, err := c.authorize(ctx, "toggleTask", listID, role.ToggleTask)
	if err != nil {
		return model.Task{}, err
	}
	t, err := c.tasks.ToggleChecked(ctx, listID, taskID)
	if err != nil {
		return model.Task{}, c.fail("toggleTask", listID, taskID, err)
	}
	c.publish(ctx, events.TaskToggled, s.UID, listID, taskID)
	return t, nil
}

// DeleteTask implements Service.
func (c *Core) DeleteTask(ctx context.Context, listID, taskID string) error {
	s, _, err := c.authorize(ctx, "deleteTask", listID, role.DeleteTask)
	if err != nil {
		return err
	}
	if err := c.tasks.Delete(ctx, listID, taskID); err != nil {
		return c.fail("deleteTask", listID, taskID, err)
	}
	c.publish(ctx, events.TaskDeleted, s.UID, listID, taskID)
	return nil
}

// ResolveNames implements Service.
func (c *Core) ResolveNames(ctx context.Context, ids []string) (map[string]string, error) {
	if _, err := c.guard.Require(ctx); err != nil {
		return nil, err
	}
	names, err := c.users.ResolveNames(ctx, ids)
	if err != nil {
		return nil, c.fail("resolveNames", "", "", err)
	}
	return names, nil
}

// authorize runs the session guard, loads the list and checks that the
// caller participates in it and, when a is set, may perform a.
// Non-participants get ErrNotFound so list ids are not disclosed.
func (c *Core) authorize(ctx context.Context, op, listID string, a role.Action) (identity.Session, ListView, error) {
	s, err := c.guard.Require(ctx)
	if err != nil {
		return identity.Session{}, ListView{}, err
	}
	l, err := c.lists.Get(ctx, listID)
	if err != nil {
		return identity.Session{}, ListView{}, c.fail(op, listID, "", err)
	}
	r, ok := l.RoleOf(s.UID)
	if !ok {
		return identity.Session{}, ListView{}, fmt.Errorf("list %s: %w", listID, apperr.ErrNotFound)
	}
	if a != "" && !role.CanPerform(r, a) {
		return identity.Session{}, ListView{}, fmt.Errorf("%s may not %s: %w", r, a, apperr.ErrForbidden)
	}
	return s, ListView{TaskList: l, Role: r}, nil
}

// fail logs store failures and returns err unchanged.
func (c *Core) fail(op, listID, taskID string, err error) error {
	if errors.Is(err, apperr.ErrStore) {
		c.log.Error("store failure", "op", op, "list", listID, "task", taskID, "err", err)
	}
	return err
}

// publish emits an event. Failures are logged and never fail the action.
func (c *Core) publish(ctx context.Context, t events.Type, actor, listID, taskID string) {
	e := events.New(t, actor, listID, taskID, c.now())
	if err := c.events.Publish(ctx, e); err != nil {
		c.log.Warn("event not published", "type", t, "list", listID, "err", err)
	}
}

func validAssignee(l model.TaskList, uid string) error {
	if uid == "" || l.IsParticipant(uid) {
		return nil
	}
	return apperr.Validation("assignedTo", "assignee must be a participant of the list")
}
