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
	Register(&AddUserCmd{})
}

// AddUserCmd implements the adduser command.
type AddUserCmd struct {
	listName string
	role     string
}

// SetListName sets the list name (for testing).
func (c *AddUserCmd) SetListName(name string) {
	c.listName = name
}

// SetRole sets the granted role (for testing).
func (c *AddUserCmd) SetRole(r string) {
	c.role = r
}

func (c *AddUserCmd) Name() string      { return "adduser" }
func (c *AddUserCmd) Aliases() []string { return []string{"share"} }
func (c *AddUserCmd) Synopsis() string  { return "Share a list with a registered user" }
func (c *AddUserCmd) Usage() string {
	return "todoshare adduser [common flags] [--list <list>] [--role admin|member] <email>"
}
func (c *AddUserCmd) NeedsService() bool { return true }

func (c *AddUserCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.listName, "list", "", "")
	fs.StringVar(&c.listName, "l", "", "")
	fs.StringVar(&c.role, "role", string(role.Member), "")
}

func (c *AddUserCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, in io.Reader, out, errOut io.Writer) int {
	if len(args) != 1 || strings.TrimSpace(args[0]) == "" {
		return usageError(errOut, "email required")
	}
	r := role.Role(strings.ToLower(strings.TrimSpace(c.role)))
	if r == "" {
		r = role.Member
	}
	if !role.Grantable(r) {
		return usageError(errOut, "invalid role: "+c.role+" (want admin or member)")
	}

	v, err := resolveList(ctx, cfg, svc, c.listName)
	if err != nil {
		return report(errOut, err)
	}
	p, err := svc.AddParticipant(ctx, v.ID, strings.TrimSpace(args[0]), r)
	if err != nil {
		return report(errOut, err)
	}
	if !cfg.Quiet {
		fmt.Fprintf(out, "added %s to %s as %s\n", p.Name, v.Title, p.Role)
	}
	return exitcode.Success
}
