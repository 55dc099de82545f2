package commands

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"todoshare/internal/apperr"
	"todoshare/internal/config"
	"todoshare/internal/exitcode"
	"todoshare/internal/service"
)

// report prints err and returns its exit code.
func report(errOut io.Writer, err error) int {
	fmt.Fprintf(errOut, "error: %s\n", exitcode.Message(err))
	return exitcode.FromError(err)
}

func usageError(errOut io.Writer, msg string) int {
	fmt.Fprintf(errOut, "error: %s\n", msg)
	return exitcode.UserError
}

func ok(cfg *config.Config, out io.Writer) int {
	if !cfg.Quiet {
		fmt.Fprintln(out, "ok")
	}
	return exitcode.Success
}

// resolveList resolves ref, falling back to the configured default list.
func resolveList(ctx context.Context, cfg *config.Config, svc service.Service, ref string) (service.ListView, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		ref = cfg.DefaultList
	}
	if ref == "" {
		return service.ListView{}, apperr.Validation("list", "list required (use --list or set default_list)")
	}
	return svc.ResolveList(ctx, ref)
}

// resolveAssignee maps a participant id or name to a user id. "none" and
// the empty string clear the assignment.
func resolveAssignee(v service.ListView, who string) (string, error) {
	who = strings.TrimSpace(who)
	if who == "" || strings.EqualFold(who, "none") {
		return "", nil
	}
	if v.IsParticipant(who) {
		return who, nil
	}
	var found []string
	for _, p := range v.Participants {
		if strings.EqualFold(p.Name, who) {
			found = append(found, p.ID)
		}
	}
	switch len(found) {
	case 0:
		return "", apperr.Validation("assign", "no participant named "+who)
	case 1:
		return found[0], nil
	}
	return "", apperr.Validation("assign", "ambiguous participant name: "+who+" (use the user id)")
}

// prompter reads answers from in, one line each. Passwords are read without
// echo when in is a terminal.
type prompter struct {
	in     io.Reader
	r      *bufio.Reader
	errOut io.Writer
}

func newPrompter(in io.Reader, errOut io.Writer) *prompter {
	if in == nil {
		in = strings.NewReader("")
	}
	return &prompter{in: in, r: bufio.NewReader(in), errOut: errOut}
}

var errNoInput = errors.New("no input")

func (p *prompter) line(prompt string) (string, error) {
	fmt.Fprint(p.errOut, prompt)
	s, err := p.r.ReadString('\n')
	if err != nil && (!errors.Is(err, io.EOF) || s == "") {
		return "", errNoInput
	}
	return strings.TrimRight(s, "\r\n"), nil
}

func (p *prompter) password(prompt string) (string, error) {
	if f, isFile := p.in.(*os.File); isFile && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(p.errOut, prompt)
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(p.errOut)
		if err != nil {
			return "", fmt.Errorf("read password: %w", err)
		}
		return string(b), nil
	}
	return p.line(prompt)
}

// confirm asks a yes/no question. Anything but y or yes is a no.
func (p *prompter) confirm(question string) bool {
	answer, err := p.line(question + " [y/N] ")
	if err != nil {
		fmt.Fprintln(p.errOut)
		return false
	}
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true
	}
	return false
}

// optString is a string flag that records whether it was given.
type optString struct {
	set   bool
	value string
}

func (o *optString) String() string { return o.value }

func (o *optString) Set(s string) error {
	o.set, o.value = true, s
	return nil
}
