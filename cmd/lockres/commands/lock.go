package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.trai.ch/lockres/internal/app"
	"go.trai.ch/lockres/internal/core/domain"
)

func (c *CLI) newLockCmd() *cobra.Command {
	var opts app.LockOptions
	cmd := &cobra.Command{
		Use:   "lock <requirements>",
		Short: "Generate a lock document from compiled requirements",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.ConfigPath = c.configPath
			opts.Input = args[0]

			doc, err := c.app.Lock(cmd.Context(), opts)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%d dependencies)\n", opts.Output, len(doc.Nodes))
			return nil
		},
	}
	cmd.Flags().StringVarP(&opts.Output, "output", "o", domain.LockFileName, "Lock document to write")
	cmd.Flags().StringVar(&opts.IndexURL, "index-url", "", "Index the generated source points at (default https://pypi.org/simple)")
	cmd.Flags().BoolVar(&opts.Compile, "compile", false, "Compile the input with pip-tools first")
	return cmd
}
