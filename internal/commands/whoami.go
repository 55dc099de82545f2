package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"todoshare/internal/config"
	"todoshare/internal/exitcode"
	"todoshare/internal/model"
	"todoshare/internal/output"
	"todoshare/internal/service"
)

func init() {
	Register(&WhoamiCmd{})
	Register(&ProfileCmd{})
}

// WhoamiCmd implements the whoami command.
type WhoamiCmd struct{}

func (c *WhoamiCmd) Name() string       { return "whoami" }
func (c *WhoamiCmd) Aliases() []string  { return nil }
func (c *WhoamiCmd) Synopsis() string   { return "Print the signed-in user" }
func (c *WhoamiCmd) Usage() string      { return "todoshare whoami [common flags]" }
func (c *WhoamiCmd) NeedsService() bool { return true }

func (c *WhoamiCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *WhoamiCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, in io.Reader, out, errOut io.Writer) int {
	u, err := svc.Me(ctx)
	if err != nil {
		return report(errOut, err)
	}
	fmt.Fprintf(out, "%s <%s>\n", u.Name, u.Email)
	return exitcode.Success
}

// ProfileCmd implements the profile command.
type ProfileCmd struct {
	name string
}

// SetName sets the new display name (for testing).
func (c *ProfileCmd) SetName(name string) {
	c.name = name
}

func (c *ProfileCmd) Name() string       { return "profile" }
func (c *ProfileCmd) Aliases() []string  { return nil }
func (c *ProfileCmd) Synopsis() string   { return "Show or change your profile" }
func (c *ProfileCmd) Usage() string      { return "todoshare profile [common flags] [--name <name>]" }
func (c *ProfileCmd) NeedsService() bool { return true }

func (c *ProfileCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.name, "name", "", "")
}

func (c *ProfileCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, in io.Reader, out, errOut io.Writer) int {
	if len(args) > 0 {
		return usageError(errOut, "unexpected argument: "+args[0])
	}
	var u model.User
	var err error
	if c.name != "" {
		u, err = svc.UpdateProfile(ctx, c.name)
	} else {
		u, err = svc.Me(ctx)
	}
	if err != nil {
		return report(errOut, err)
	}
	output.FormatUser(out, u)
	return exitcode.Success
}
