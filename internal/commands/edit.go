package commands

import (
	"context"
	"flag"
	"io"
	"strings"

	"todoshare/internal/config"
	"todoshare/internal/model"
	"todoshare/internal/service"
)

func init() {
	Register(&EditCmd{})
}

// EditCmd implements the edit command. Only the given fields change.
type EditCmd struct {
	listName string
	title    optString
	body     optString
	due      optString
	priority optString
	assign   optString
}

// SetListName sets the list name (for testing).
func (c *EditCmd) SetListName(name string) {
	c.listName = name
}

func (c *EditCmd) Name() string      { return "edit" }
func (c *EditCmd) Aliases() []string { return nil }
func (c *EditCmd) Synopsis() string  { return "Change fields of a task" }
func (c *EditCmd) Usage() string {
	return "todoshare edit [common flags] [--list <list>] [--title <t>] [--body <b>] [--due <date>|none] [--priority <p>] [--assign <user>|none] <ref>"
}
func (c *EditCmd) NeedsService() bool { return true }

func (c *EditCmd) RegisterFlags(fs *flag.FlagSet) {
	c.title, c.body, c.due, c.priority, c.assign = optString{}, optString{}, optString{}, optString{}, optString{}
	fs.StringVar(&c.listName, "list", "", "")
	fs.StringVar(&c.listName, "l", "", "")
	fs.Var(&c.title, "title", "")
	fs.Var(&c.body, "body", "")
	fs.Var(&c.due, "due", "")
	fs.Var(&c.priority, "priority", "")
	fs.Var(&c.assign, "assign", "")
}

func (c *EditCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, in io.Reader, out, errOut io.Writer) int {
	ref, err := parseRef(args)
	if err != nil {
		return report(errOut, err)
	}

	var p model.TaskPatch
	if c.title.set {
		p.Title = &c.title.value
	}
	if c.body.set {
		p.Body = &c.body.value
	}
	if c.priority.set {
		pr, ok := model.ParsePriority(c.priority.value)
		if !ok {
			return usageError(errOut, "invalid priority: "+c.priority.value+" (want low, medium or high)")
		}
		p.Priority = &pr
	}
	if c.due.set {
		if v := strings.TrimSpace(c.due.value); v == "" || strings.EqualFold(v, "none") {
			p.ClearDueDate = true
		} else {
			due, err := model.ParseDate(v)
			if err != nil {
				return report(errOut, err)
			}
			p.DueDate = &due
		}
	}
	if p.Empty() && !c.assign.set {
		return usageError(errOut, "nothing to change (use --title, --body, --due, --priority or --assign)")
	}

	v, err := resolveList(ctx, cfg, svc, c.listName)
	if err != nil {
		return report(errOut, err)
	}
	if c.assign.set {
		uid, err := resolveAssignee(v, c.assign.value)
		if err != nil {
			return report(errOut, err)
		}
		p.AssignedTo = &uid
	}
	t, err := findTask(ctx, svc, v.ID, ref)
	if err != nil {
		return report(errOut, err)
	}
	if _, err := svc.UpdateTask(ctx, v.ID, t.ID, p); err != nil {
		return report(errOut, err)
	}
	return ok(cfg, out)
}
