package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"todoshare/internal/backend"
	"todoshare/internal/config"
	"todoshare/internal/exitcode"
	"todoshare/internal/httpapi"
	"todoshare/internal/logging"
	"todoshare/internal/service"
)

func init() {
	Register(&ServeCmd{})
}

// ServeCmd implements the serve command: the HTTP API on the configured
// backend.
type ServeCmd struct {
	addr string
}

func (c *ServeCmd) Name() string       { return "serve" }
func (c *ServeCmd) Aliases() []string  { return nil }
func (c *ServeCmd) Synopsis() string   { return "Serve the HTTP API" }
func (c *ServeCmd) Usage() string      { return "todoshare serve [common flags] [--addr <host:port>]" }
func (c *ServeCmd) NeedsService() bool { return false }

func (c *ServeCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.addr, "addr", "", "")
}

func (c *ServeCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, in io.Reader, out, errOut io.Writer) int {
	if len(args) > 0 {
		return usageError(errOut, "unexpected argument: "+args[0])
	}
	opts := logging.Options{Level: cfg.Log.Level, Format: cfg.Log.Format, Debug: cfg.Debug, Timestamps: true}
	// Request lines are logged at info level.
	if opts.Level == "" || opts.Level == "warn" {
		opts.Level = "info"
	}
	logger, err := logging.New(errOut, opts)
	if err != nil {
		return usageError(errOut, err.Error())
	}

	b, err := backend.Open(ctx, cfg, logger, backend.Server)
	if err != nil {
		fmt.Fprintf(errOut, "error: backend error: %v\n", err)
		return exitcode.BackendError
	}
	defer b.Close()

	addr := c.addr
	if addr == "" {
		addr = cfg.HTTP.Addr
	}
	srv := httpapi.New(b, b.Auth, logger, httpapi.Options{
		LoginRate:  cfg.HTTP.LoginRate,
		LoginBurst: cfg.HTTP.LoginBurst,
	})
	if err := srv.Run(ctx, addr); err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.BackendError
	}
	return exitcode.Success
}
