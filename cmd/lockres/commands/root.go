// Package commands implements the CLI commands for lockres.
package commands

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.trai.ch/lockres/internal/app"
	"go.trai.ch/lockres/internal/build"
	"go.trai.ch/lockres/internal/core/domain"
)

// Application represents the application logic interface.
type Application interface {
	Resolve(ctx context.Context, opts app.ResolveOptions) (*app.ResolveResult, error)
	Install(ctx context.Context, opts app.InstallOptions) (*app.InstallResult, error)
	Verify(ctx context.Context, lockPath string, key domain.Key, path string) (bool, error)
	Check(ctx context.Context, lockPath string) (*domain.Document, error)
	Lock(ctx context.Context, opts app.LockOptions) (*domain.Document, error)
}

// LogSettings is the part of the logger the global flags configure.
type LogSettings interface {
	SetVerbose(verbose bool)
	SetJSON(enabled bool)
}

// MetricsExporter writes the collected metrics to a file.
type MetricsExporter interface {
	WriteTextfile(path string) error
}

// ExitError carries a process exit code. Reported errors have already been
// shown to the user and need no further logging.
type ExitError struct {
	Code     int
	Err      error
	Reported bool
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("exit status %d", e.Code)
	}
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error { return e.Err }

// ExitCodeMismatch is returned when the only failures were digest mismatches.
const ExitCodeMismatch = 2

// CLI represents the command line interface for lockres.
type CLI struct {
	app     Application
	logs    LogSettings
	metrics MetricsExporter
	rootCmd *cobra.Command

	configPath  string
	metricsFile string
}

// Option configures a CLI.
type Option func(*CLI)

// WithLogSettings lets the global flags configure the logger.
func WithLogSettings(l LogSettings) Option {
	return func(c *CLI) { c.logs = l }
}

// WithMetricsExporter enables --metrics-file.
func WithMetricsExporter(m MetricsExporter) Option {
	return func(c *CLI) { c.metrics = m }
}

// New creates a new CLI instance with the given app.
func New(a Application, opts ...Option) *CLI {
	rootCmd := &cobra.Command{
		Use:           "lockres",
		Short:         "Resolve, verify and install pinned dependencies from a lock document",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       build.Version,
	}

	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"{{.Name}} version {{.Version}} (commit: %s, date: %s)\n",
		build.Commit,
		build.Date,
	))
	rootCmd.InitDefaultVersionFlag()
	rootCmd.Flags().Lookup("version").Usage = "Print the application version"

	rootCmd.InitDefaultHelpFlag()
	rootCmd.Flags().Lookup("help").Usage = "Show help for command"

	c := &CLI{
		app:     a,
		rootCmd: rootCmd,
	}
	for _, opt := range opts {
		opt(c)
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&c.configPath, "config", "c", "", "Path to the session configuration file (YAML or TOML)")
	flags.Bool("verbose", false, "Enable debug logging")
	flags.Bool("log-json", false, "Write logs as JSON")
	flags.StringVar(&c.metricsFile, "metrics-file", "", "Write Prometheus metrics to this file on exit")

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, _ []string) error {
		if c.logs == nil {
			return nil
		}
		verbose, err := cmd.Flags().GetBool("verbose")
		if err != nil {
			return err
		}
		logJSON, err := cmd.Flags().GetBool("log-json")
		if err != nil {
			return err
		}
		c.logs.SetVerbose(verbose)
		c.logs.SetJSON(logJSON)
		return nil
	}

	rootCmd.AddCommand(c.newResolveCmd())
	rootCmd.AddCommand(c.newInstallCmd())
	rootCmd.AddCommand(c.newVerifyCmd())
	rootCmd.AddCommand(c.newCheckCmd())
	rootCmd.AddCommand(c.newLockCmd())
	rootCmd.AddCommand(c.newVersionCmd())

	return c
}

// Execute runs the root command with the given context. Metrics are exported
// whether or not the command succeeded.
func (c *CLI) Execute(ctx context.Context) error {
	c.rootCmd.SetContext(ctx)
	err := c.rootCmd.Execute()

	if c.metricsFile != "" && c.metrics != nil {
		if mErr := c.metrics.WriteTextfile(c.metricsFile); mErr != nil {
			err = errors.Join(err, mErr)
		}
	}
	return err
}

// SetArgs sets the arguments for the root command. Used for testing.
func (c *CLI) SetArgs(args []string) {
	c.rootCmd.SetArgs(args)
}

// SetOutput sets the output and error streams for the root command. Used for testing.
func (c *CLI) SetOutput(out, err io.Writer) {
	c.rootCmd.SetOut(out)
	c.rootCmd.SetErr(err)
}
