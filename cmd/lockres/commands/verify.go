package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.trai.ch/lockres/internal/core/domain"
	"go.trai.ch/zerr"
)

func (c *CLI) newVerifyCmd() *cobra.Command {
	var (
		lock string
		key  string
	)
	cmd := &cobra.Command{
		Use:   "verify --key <key> <artifact>",
		Short: "Check an artifact against the digests declared for a dependency",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			k := domain.Key(key)
			if !k.Valid() {
				return zerr.With(zerr.Wrap(domain.ErrInvalidKey, "invalid dependency key"), "key", key)
			}

			ok, err := c.app.Verify(cmd.Context(), lock, k, args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if !ok {
				_, _ = fmt.Fprintf(out, "%s: digest mismatch for %s\n", args[0], k)
				return &ExitError{
					Code:     ExitCodeMismatch,
					Err:      zerr.With(zerr.Wrap(domain.ErrDigestMismatch, "artifact rejected"), "key", key),
					Reported: true,
				}
			}
			_, _ = fmt.Fprintf(out, "%s: ok\n", args[0])
			return nil
		},
	}
	cmd.Flags().StringVarP(&lock, "lock", "l", domain.LockFileName, "Path to the lock document")
	cmd.Flags().StringVarP(&key, "key", "k", "", "Dependency key the artifact belongs to")
	_ = cmd.MarkFlagRequired("key")
	return cmd
}
