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
	Register(&AddCmd{})
}

// AddCmd implements the add command.
type AddCmd struct {
	listName string
	body     string
	due      string
	priority string
	assign   string
}

// SetListName sets the list name (for testing).
func (c *AddCmd) SetListName(name string) {
	c.listName = name
}

func (c *AddCmd) Name() string      { return "add" }
func (c *AddCmd) Aliases() []string { return []string{"create"} }
func (c *AddCmd) Synopsis() string  { return "Create a task" }
func (c *AddCmd) Usage() string {
	return "todoshare add [common flags] [--list <list>] [--body <text>] [--due <date>] [--priority low|medium|high] [--assign <user>] <title...>"
}
func (c *AddCmd) NeedsService() bool { return true }

func (c *AddCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.listName, "list", "", "")
	fs.StringVar(&c.listName, "l", "", "")
	fs.StringVar(&c.body, "body", "", "")
	fs.StringVar(&c.due, "due", "", "")
	fs.StringVar(&c.priority, "priority", "", "")
	fs.StringVar(&c.assign, "assign", "", "")
}

func (c *AddCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, in io.Reader, out, errOut io.Writer) int {
	title := strings.Join(args, " ")
	if strings.TrimSpace(title) == "" {
		return usageError(errOut, "title required")
	}

	d := model.TaskDraft{Title: title, Body: c.body}
	if c.priority != "" {
		p, ok := model.ParsePriority(c.priority)
		if !ok {
			return usageError(errOut, "invalid priority: "+c.priority+" (want low, medium or high)")
		}
		d.Priority = p
	}
	if c.due != "" {
		due, err := model.ParseDate(c.due)
		if err != nil {
			return report(errOut, err)
		}
		d.DueDate = &due
	}

	v, err := resolveList(ctx, cfg, svc, c.listName)
	if err != nil {
		return report(errOut, err)
	}
	if d.AssignedTo, err = resolveAssignee(v, c.assign); err != nil {
		return report(errOut, err)
	}

	if _, err := svc.CreateTask(ctx, v.ID, d); err != nil {
		return report(errOut, err)
	}
	return ok(cfg, out)
}
