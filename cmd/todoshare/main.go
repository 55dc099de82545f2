// Package main is the entry point for the todoshare CLI.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"

	"todoshare/internal/backend"
	"todoshare/internal/cli"
	"todoshare/internal/commands"
	"todoshare/internal/config"
	"todoshare/internal/service"
)

func main() {
	// Cancel on interrupt so serve shuts down gracefully.
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	factory := func(ctx context.Context, cfg *config.Config, logger *log.Logger) (service.Service, error) {
		b, err := backend.Open(ctx, cfg, logger, backend.CLI)
		if err != nil {
			return nil, err
		}
		return b, nil
	}

	dispatcher := cli.NewDispatcher(commands.DefaultRegistry, factory)

	code := dispatcher.Run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	cancel()
	os.Exit(code)
}
