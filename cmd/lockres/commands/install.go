package commands

import (
	"errors"

	"github.com/spf13/cobra"
	"go.trai.ch/lockres/internal/app"
	"go.trai.ch/lockres/internal/core/domain"
)

func (c *CLI) newInstallCmd() *cobra.Command {
	var (
		flags  sessionFlags
		python string
		force  bool
	)
	cmd := &cobra.Command{
		Use:   "install",
		Short: "Resolve, download, validate and install every node in dependency order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts, err := flags.options(c.configPath)
			if err != nil {
				return err
			}

			res, err := c.app.Install(cmd.Context(), app.InstallOptions{
				ResolveOptions: opts,
				Python:         python,
				Force:          force,
			})
			if res == nil {
				return err
			}

			out := cmd.OutOrStdout()
			if flags.json {
				if wErr := writeJSON(out, newResultView(res.ResolveResult, res.Report)); wErr != nil {
					return wErr
				}
			} else if wErr := writeSpecs(out, res.ResolveResult, res.Report); wErr != nil {
				return wErr
			}

			switch {
			case err == nil:
				return nil
			case res.Report != nil && res.Report.OnlyMismatches():
				return &ExitError{Code: ExitCodeMismatch, Err: err, Reported: true}
			case errors.Is(err, domain.ErrInstallExecutionFailed):
				return &ExitError{Code: 1, Err: err, Reported: true}
			default:
				return err
			}
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVar(&python, "python", "", "Python interpreter used to run pip")
	cmd.Flags().BoolVar(&force, "force", false, "Reinstall nodes even when their recorded inputs are unchanged")
	return cmd
}
