package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"todoshare/internal/config"
	"todoshare/internal/exitcode"
	"todoshare/internal/output"
	"todoshare/internal/service"
)

func init() {
	Register(&ListsCmd{})
}

// ListsCmd implements the lists command.
type ListsCmd struct{}

func (c *ListsCmd) Name() string       { return "lists" }
func (c *ListsCmd) Aliases() []string  { return nil }
func (c *ListsCmd) Synopsis() string   { return "Print the lists you participate in" }
func (c *ListsCmd) Usage() string      { return "todoshare lists [common flags]" }
func (c *ListsCmd) NeedsService() bool { return true }

func (c *ListsCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *ListsCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, in io.Reader, out, errOut io.Writer) int {
	lists, err := svc.ListLists(ctx)
	if err != nil {
		return report(errOut, err)
	}

	if len(lists) == 0 && !cfg.Quiet {
		fmt.Fprintln(out, "no lists yet (run: todoshare createlist <name>)")
	}
	for i, v := range lists {
		output.FormatListIndex(out, i+1, v)
	}
	return exitcode.Success
}
