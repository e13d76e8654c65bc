// Package main is the entry point for lockres.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/grindlemire/graft"
	"go.trai.ch/lockres/cmd/lockres/commands"
	"go.trai.ch/lockres/internal/app"
	"go.trai.ch/lockres/internal/core/domain"
	_ "go.trai.ch/lockres/internal/wiring"
)

// ComponentProvider is a function that returns the application components.
type ComponentProvider func(context.Context) (*app.Components, func(), error)

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdout, os.Stderr, func(ctx context.Context) (*app.Components, func(), error) {
		c, _, err := graft.ExecuteFor[*app.Components](ctx)
		return c, func() {}, err
	}))
}

func run(
	ctx context.Context,
	args []string,
	stdout io.Writer,
	stderr io.Writer,
	provider ComponentProvider,
	opts ...func(*app.App),
) int {
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	components, cleanup, err := provider(ctx)
	if err != nil {
		// Logger is not available yet if initialization failed
		_, _ = fmt.Fprintln(stderr, "Error: "+err.Error())
		return 1
	}
	defer cleanup()

	for _, opt := range opts {
		opt(components.App)
	}

	cliOpts := []commands.Option{}
	if l, ok := components.Logger.(commands.LogSettings); ok {
		cliOpts = append(cliOpts, commands.WithLogSettings(l))
	}
	if m, ok := components.Metrics.(commands.MetricsExporter); ok {
		cliOpts = append(cliOpts, commands.WithMetricsExporter(m))
	}

	cli := commands.New(components.App, cliOpts...)
	cli.SetArgs(args)
	cli.SetOutput(stdout, stderr)

	err = cli.Execute(ctx)
	if components.Telemetry != nil {
		if tErr := components.Telemetry.Close(); tErr != nil {
			components.Logger.Warn("failed to close telemetry: " + tErr.Error())
		}
	}
	return exitCode(err, components.Logger)
}

func exitCode(err error, logger interface{ Error(error) }) int {
	if err == nil {
		return 0
	}

	var exitErr *commands.ExitError
	if errors.As(err, &exitErr) {
		if !exitErr.Reported {
			logger.Error(err)
		}
		return exitErr.Code
	}

	if errors.Is(err, domain.ErrInstallExecutionFailed) {
		return 1
	}
	logger.Error(err)
	return 1
}
