package commands

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strings"

	"todoshare/internal/config"
	"todoshare/internal/exitcode"
	"todoshare/internal/identity"
	"todoshare/internal/service"
)

func init() {
	Register(&LoginCmd{})
	Register(&RegisterCmd{})
}

// LoginCmd implements the login command.
type LoginCmd struct{}

func (c *LoginCmd) Name() string       { return "login" }
func (c *LoginCmd) Aliases() []string  { return nil }
func (c *LoginCmd) Synopsis() string   { return "Sign in with email and password" }
func (c *LoginCmd) Usage() string      { return "todoshare login [common flags] <email>" }
func (c *LoginCmd) NeedsService() bool { return true }

func (c *LoginCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *LoginCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, in io.Reader, out, errOut io.Writer) int {
	if len(args) != 1 || strings.TrimSpace(args[0]) == "" {
		return usageError(errOut, "email required")
	}
	email := strings.TrimSpace(args[0])

	// A valid session for the same account needs no new sign-in.
	if s, err := identity.LoadSession(cfg.SessionPath()); err == nil && s != nil &&
		strings.EqualFold(s.Email, email) && s.Token != nil && s.Token.Valid() {
		if !cfg.Quiet {
			fmt.Fprintln(out, "already logged in")
		}
		return exitcode.Success
	}

	password, err := newPrompter(in, errOut).password("Password: ")
	if err != nil {
		return usageError(errOut, "password required")
	}
	sess, err := svc.Login(ctx, email, password)
	if err != nil {
		return report(errOut, err)
	}
	return saveSession(cfg, sess, out, errOut)
}

// RegisterCmd implements the register command.
type RegisterCmd struct {
	name string
}

// SetName sets the display name (for testing).
func (c *RegisterCmd) SetName(name string) {
	c.name = name
}

func (c *RegisterCmd) Name() string       { return "register" }
func (c *RegisterCmd) Aliases() []string  { return nil }
func (c *RegisterCmd) Synopsis() string   { return "Create an account and sign in" }
func (c *RegisterCmd) Usage() string      { return "todoshare register [common flags] --name <name> <email>" }
func (c *RegisterCmd) NeedsService() bool { return true }

func (c *RegisterCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.name, "name", "", "")
}

func (c *RegisterCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, in io.Reader, out, errOut io.Writer) int {
	if len(args) != 1 || strings.TrimSpace(args[0]) == "" {
		return usageError(errOut, "email required")
	}
	if strings.TrimSpace(c.name) == "" {
		return usageError(errOut, "name required (use --name)")
	}

	password, err := newPrompter(in, errOut).password("Choose a password: ")
	if err != nil {
		return usageError(errOut, "password required")
	}
	sess, err := svc.Register(ctx, strings.TrimSpace(args[0]), password, strings.TrimSpace(c.name))
	if err != nil {
		return report(errOut, err)
	}
	return saveSession(cfg, sess, out, errOut)
}

// saveSession stores sess as the CLI's signed-in session.
func saveSession(cfg *config.Config, sess identity.Session, out, errOut io.Writer) int {
	if err := cfg.EnsureDir(); err != nil {
		fmt.Fprintf(errOut, "error: failed to create config directory: %v\n", err)
		return exitcode.AuthError
	}
	if err := identity.SaveSession(cfg.SessionPath(), sess); err != nil {
		fmt.Fprintf(errOut, "error: failed to save session: %v\n", err)
		return exitcode.AuthError
	}
	if !cfg.Quiet {
		fmt.Fprintf(out, "logged in as %s <%s>\n", sess.DisplayName, sess.Email)
	}
	return exitcode.Success
}
