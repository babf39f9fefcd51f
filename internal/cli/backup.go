package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newBackupCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "backup",
		Short: "Write a timestamped copy of the document (admin)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.open()
			if err != nil {
				return err
			}
			defer s.Close()
			admin, err := s.requireAdmin()
			if err != nil {
				return err
			}

			path, err := admin.Backup(cmd.Context())
			if err != nil {
				return explain(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Backup written to %s\n", path)
			return nil
		},
	}
}
