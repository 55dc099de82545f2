package commands

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"

	"todoshare/internal/apperr"
	"todoshare/internal/config"
	"todoshare/internal/exitcode"
	"todoshare/internal/service"
)

func init() {
	Register(&CreateListCmd{})
	Register(&RenameListCmd{})
}

// CreateListCmd implements the createlist command.
type CreateListCmd struct{}

func (c *CreateListCmd) Name() string       { return "createlist" }
func (c *CreateListCmd) Aliases() []string  { return []string{"addlist"} }
func (c *CreateListCmd) Synopsis() string   { return "Create a new list you own" }
func (c *CreateListCmd) Usage() string      { return "todoshare createlist [common flags] <list-name>" }
func (c *CreateListCmd) NeedsService() bool { return true }

func (c *CreateListCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *CreateListCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, in io.Reader, out, errOut io.Writer) int {
	name := strings.TrimSpace(strings.Join(args, " "))
	if name == "" {
		return usageError(errOut, "list name required")
	}

	// Titles are how lists are addressed, so keep them unique per user.
	_, err := svc.ResolveList(ctx, name)
	if err == nil || errors.Is(err, apperr.ErrValidation) {
		return usageError(errOut, "list already exists: "+name)
	}
	if !errors.Is(err, apperr.ErrNotFound) {
		return report(errOut, err)
	}

	if _, err := svc.CreateList(ctx, name); err != nil {
		return report(errOut, err)
	}
	return ok(cfg, out)
}

// RenameListCmd implements the renamelist command.
type RenameListCmd struct {
	to string
}

// SetTo sets the new title (for testing).
func (c *RenameListCmd) SetTo(to string) {
	c.to = to
}

func (c *RenameListCmd) Name() string       { return "renamelist" }
func (c *RenameListCmd) Aliases() []string  { return nil }
func (c *RenameListCmd) Synopsis() string   { return "Rename a list" }
func (c *RenameListCmd) Usage() string      { return "todoshare renamelist [common flags] --to <new-name> <list>" }
func (c *RenameListCmd) NeedsService() bool { return true }

func (c *RenameListCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.to, "to", "", "")
}

func (c *RenameListCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, in io.Reader, out, errOut io.Writer) int {
	ref := strings.TrimSpace(strings.Join(args, " "))
	if ref == "" {
		return usageError(errOut, "list name required")
	}
	if strings.TrimSpace(c.to) == "" {
		return usageError(errOut, "new name required (use --to)")
	}

	v, err := svc.ResolveList(ctx, ref)
	if err != nil {
		return report(errOut, err)
	}
	renamed, err := svc.RenameList(ctx, v.ID, c.to)
	if err != nil {
		return report(errOut, err)
	}
	if !cfg.Quiet {
		fmt.Fprintf(out, "renamed to %s\n", renamed.Title)
	}
	return exitcode.Success
}
