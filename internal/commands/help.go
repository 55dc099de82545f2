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
	Register(&HelpCmd{})
}

// HelpCmd implements the help command.
type HelpCmd struct{}

func (c *HelpCmd) Name() string       { return "help" }
func (c *HelpCmd) Aliases() []string  { return nil }
func (c *HelpCmd) Synopsis() string   { return "Print usage" }
func (c *HelpCmd) Usage() string      { return "todoshare help [<command>]" }
func (c *HelpCmd) NeedsService() bool { return false }

func (c *HelpCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *HelpCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, in io.Reader, out, errOut io.Writer) int {
	if len(args) > 0 {
		cmd, ok := DefaultRegistry.Find(args[0])
		if !ok {
			return usageError(errOut, "unknown command: "+args[0])
		}
		fmt.Fprintf(out, "%s\n\nUsage:\n  %s\n", cmd.Synopsis(), cmd.Usage())
		if aliases := cmd.Aliases(); len(aliases) > 0 {
			fmt.Fprintf(out, "\nAliases: %v\n", aliases)
		}
		return exitcode.Success
	}

	fmt.Fprint(out, "Usage:\n  todoshare                    Show all your lists\n")
	for _, cmd := range DefaultRegistry.All() {
		fmt.Fprintf(out, "  todoshare %-18s %s\n", cmd.Name(), cmd.Synopsis())
	}
	fmt.Fprint(out, commonFlags)
	return exitcode.Success
}

const commonFlags = `
Common flags:
  --config <dir>   Override config directory
  --quiet          Suppress informational output
  --debug          Print debug logs to stderr

Run 'todoshare help <command>' for the flags of a command.
`
