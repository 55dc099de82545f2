package commands

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strings"

	"todoshare/internal/config"
	"todoshare/internal/exitcode"
	"todoshare/internal/model"
	"todoshare/internal/output"
	"todoshare/internal/service"
)

func init() {
	Register(&ShowCmd{})
}

// ShowCmd implements the show command.
// Handles both `todoshare` (no args) and `todoshare show <list>`.
type ShowCmd struct {
	long bool
}

// SetLong selects the detailed task format (for testing).
func (c *ShowCmd) SetLong(long bool) {
	c.long = long
}

func (c *ShowCmd) Name() string       { return "show" }
func (c *ShowCmd) Aliases() []string  { return []string{"list"} }
func (c *ShowCmd) Synopsis() string   { return "Show the tasks of a list" }
func (c *ShowCmd) Usage() string      { return "todoshare show [common flags] [--long] [<list>]" }
func (c *ShowCmd) NeedsService() bool { return true }

func (c *ShowCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.BoolVar(&c.long, "long", false, "")
}

func (c *ShowCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, in io.Reader, out, errOut io.Writer) int {
	ref := strings.TrimSpace(strings.Join(args, " "))
	if ref == "" && cfg.DefaultList == "" {
		return c.showAll(ctx, cfg, svc, out, errOut)
	}

	v, err := resolveList(ctx, cfg, svc, ref)
	if err != nil {
		return report(errOut, err)
	}
	return c.showOne(ctx, svc, v, out, errOut)
}

// showAll prints every list the user participates in.
func (c *ShowCmd) showAll(ctx context.Context, cfg *config.Config, svc service.Service, out, errOut io.Writer) int {
	lists, err := svc.ListLists(ctx)
	if err != nil {
		return report(errOut, err)
	}
	if len(lists) == 0 {
		if !cfg.Quiet {
			fmt.Fprintln(out, "no lists yet (run: todoshare createlist <name>)")
		}
		return exitcode.Success
	}
	for _, v := range lists {
		if code := c.showOne(ctx, svc, v, out, errOut); code != exitcode.Success {
			return code
		}
	}
	return exitcode.Success
}

// showOne prints a list section: header, participants and tasks.
func (c *ShowCmd) showOne(ctx context.Context, svc service.Service, v service.ListView, out, errOut io.Writer) int {
	tasks, err := svc.ListTasks(ctx, v.ID)
	if err != nil {
		return report(errOut, err)
	}
	names, err := svc.ResolveNames(ctx, assigneeIDs(tasks))
	if err != nil {
		return report(errOut, err)
	}

	output.FormatListHeader(out, v)
	output.FormatParticipants(out, v)
	if len(tasks) == 0 {
		output.FormatEmptyList(out, v)
		return exitcode.Success
	}
	for i, t := range tasks {
		if c.long {
			output.FormatTaskDetail(out, i+1, t, names)
		} else {
			output.FormatTask(out, i+1, t, names)
		}
	}
	return exitcode.Success
}

func assigneeIDs(tasks []model.Task) []string {
	var ids []string
	for _, t := range tasks {
		if t.AssignedTo != "" {
			ids = append(ids, t.AssignedTo)
		}
	}
	return ids
}
