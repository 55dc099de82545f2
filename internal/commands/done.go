package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"todoshare/internal/config"
	"todoshare/internal/exitcode"
	"todoshare/internal/service"
)

func init() {
	Register(&DoneCmd{})
}

// DoneCmd implements the done command. It flips the checked state, so
// running it twice reopens the task.
type DoneCmd struct {
	listName string
}

// SetListName sets the list name (for testing).
func (c *DoneCmd) SetListName(name string) {
	c.listName = name
}

func (c *DoneCmd) Name() string       { return "done" }
func (c *DoneCmd) Aliases() []string  { return []string{"toggle"} }
func (c *DoneCmd) Synopsis() string   { return "Check or uncheck a task" }
func (c *DoneCmd) Usage() string      { return "todoshare done [common flags] [--list <list>] <ref>" }
func (c *DoneCmd) NeedsService() bool { return true }

func (c *DoneCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.listName, "list", "", "")
	fs.StringVar(&c.listName, "l", "", "")
}

func (c *DoneCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, in io.Reader, out, errOut io.Writer) int {
	ref, err := parseRef(args)
	if err != nil {
		return report(errOut, err)
	}

	v, err := resolveList(ctx, cfg, svc, c.listName)
	if err != nil {
		return report(errOut, err)
	}
	t, err := findTask(ctx, svc, v.ID, ref)
	if err != nil {
		return report(errOut, err)
	}
	t, err = svc.ToggleTask(ctx, v.ID, t.ID)
	if err != nil {
		return report(errOut, err)
	}

	if !cfg.Quiet {
		if t.Checked {
			fmt.Fprintln(out, "checked")
		} else {
			fmt.Fprintln(out, "unchecked")
		}
	}
	return exitcode.Success
}
