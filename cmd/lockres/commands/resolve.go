package commands

import (
	"errors"

	"github.com/spf13/cobra"
	"go.trai.ch/lockres/internal/core/domain"
)

func (c *CLI) newResolveCmd() *cobra.Command {
	var flags sessionFlags
	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Resolve the dependency graph and print the install spec of every node",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts, err := flags.options(c.configPath)
			if err != nil {
				return err
			}

			res, err := c.app.Resolve(cmd.Context(), opts)
			if res == nil {
				return err
			}

			out := cmd.OutOrStdout()
			if flags.json {
				if wErr := writeJSON(out, newResultView(res, nil)); wErr != nil {
					return wErr
				}
			} else if wErr := writeSpecs(out, res, nil); wErr != nil {
				return wErr
			}

			if errors.Is(err, domain.ErrResolutionFailed) {
				return &ExitError{Code: 1, Err: err, Reported: true}
			}
			return err
		},
	}
	flags.register(cmd)
	return cmd
}
