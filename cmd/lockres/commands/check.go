package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.trai.ch/lockres/internal/core/domain"
)

func (c *CLI) newCheckCmd() *cobra.Command {
	var lock string
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Load and validate a lock document, reporting every violation",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			doc, err := c.app.Check(cmd.Context(), lock)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s: ok (%d dependencies, %d sources, fingerprint %s)\n",
				lock, len(doc.Nodes), len(doc.Sources), doc.Fingerprint)
			return nil
		},
	}
	cmd.Flags().StringVarP(&lock, "lock", "l", domain.LockFileName, "Path to the lock document")
	return cmd
}
