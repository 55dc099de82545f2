package commands

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"

	"todoshare/internal/apperr"
	"todoshare/internal/config"
	"todoshare/internal/exitcode"
	"todoshare/internal/role"
	"todoshare/internal/service"
)

func init() {
	Register(&RmCmd{})
}

// RmCmd implements the rm command. Deleting a task id that is already gone
// succeeds.
type RmCmd struct {
	listName string
	yes      bool
}

// SetListName sets the list name (for testing).
func (c *RmCmd) SetListName(name string) {
	c.listName = name
}

// SetYes skips the confirmation prompt (for testing).
func (c *RmCmd) SetYes(yes bool) {
	c.yes = yes
}

func (c *RmCmd) Name() string       { return "rm" }
func (c *RmCmd) Aliases() []string  { return nil }
func (c *RmCmd) Synopsis() string   { return "Delete a task" }
func (c *RmCmd) Usage() string      { return "todoshare rm [common flags] [--list <list>] [--yes] <ref>" }
func (c *RmCmd) NeedsService() bool { return true }

func (c *RmCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.listName, "list", "", "")
	fs.StringVar(&c.listName, "l", "", "")
	fs.BoolVar(&c.yes, "yes", false, "")
	fs.BoolVar(&c.yes, "y", false, "")
}

func (c *RmCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, in io.Reader, out, errOut io.Writer) int {
	ref, err := parseRef(args)
	if err != nil {
		return report(errOut, err)
	}

	v, err := resolveList(ctx, cfg, svc, c.listName)
	if err != nil {
		return report(errOut, err)
	}
	if !v.Can(role.DeleteTask) {
		return report(errOut, fmt.Errorf("%s may not %s: %w", v.Role, role.DeleteTask, apperr.ErrForbidden))
	}
	t, err := findTask(ctx, svc, v.ID, ref)
	if ref.ID != "" && errors.Is(err, apperr.ErrNotFound) {
		return ok(cfg, out)
	}
	if err != nil {
		return report(errOut, err)
	}

	if !c.yes && !newPrompter(in, errOut).confirm(fmt.Sprintf("delete task %q?", t.Title)) {
		if !cfg.Quiet {
			fmt.Fprintln(out, "cancelled")
		}
		return exitcode.Success
	}

	if err := svc.DeleteTask(ctx, v.ID, t.ID); err != nil && !errors.Is(err, apperr.ErrNotFound) {
		return report(errOut, err)
	}
	return ok(cfg, out)
}
