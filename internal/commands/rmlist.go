package commands

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strings"

	"todoshare/internal/config"
	"todoshare/internal/exitcode"
	"todoshare/internal/role"
	"todoshare/internal/service"
)

func init() {
	Register(&RmListCmd{})
}

// RmListCmd implements the rmlist command. Owners delete the list, everyone
// else leaves it.
type RmListCmd struct {
	yes bool
}

// SetYes skips the confirmation prompt (for testing).
func (c *RmListCmd) SetYes(yes bool) {
	c.yes = yes
}

func (c *RmListCmd) Name() string       { return "rmlist" }
func (c *RmListCmd) Aliases() []string  { return []string{"leave"} }
func (c *RmListCmd) Synopsis() string   { return "Delete a list you own, or leave a shared one" }
func (c *RmListCmd) Usage() string      { return "todoshare rmlist [common flags] [--yes] <list>" }
func (c *RmListCmd) NeedsService() bool { return true }

func (c *RmListCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.BoolVar(&c.yes, "yes", false, "")
	fs.BoolVar(&c.yes, "y", false, "")
}

func (c *RmListCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, in io.Reader, out, errOut io.Writer) int {
	name := strings.TrimSpace(strings.Join(args, " "))
	if name == "" {
		return usageError(errOut, "list name required")
	}

	v, err := svc.ResolveList(ctx, name)
	if err != nil {
		return report(errOut, err)
	}

	question := "leave this list?"
	if role.RemoveAction(v.Role) == role.DeleteList {
		question = "delete this list entirely?"
	}
	if !c.yes && !newPrompter(in, errOut).confirm(fmt.Sprintf("%s: %s", v.Title, question)) {
		if !cfg.Quiet {
			fmt.Fprintln(out, "cancelled")
		}
		return exitcode.Success
	}

	action, err := svc.RemoveList(ctx, v.ID)
	if err != nil {
		return report(errOut, err)
	}
	if !cfg.Quiet {
		if action == role.DeleteList {
			fmt.Fprintln(out, "deleted")
		} else {
			fmt.Fprintln(out, "left")
		}
	}
	return exitcode.Success
}
