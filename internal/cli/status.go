package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newStatusCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show where the document lives and who you are",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.open()
			if err != nil {
				return err
			}
			defer s.Close()
			out := cmd.OutOrStdout()

			role := "member " + s.viewer.UserID
			if s.viewer.Admin {
				role = "admin"
			}

			if s.client != nil {
				fmt.Fprintf(out, "Server:   %s\n", s.where)
				info, err := s.client.System(cmd.Context())
				if err != nil {
					fmt.Fprintf(out, "Status:   ❌ %v\n", err)
					return nil
				}
				fmt.Fprintf(out, "Status:   ✅ reachable (%s mode, data at %s)\n", info.Mode, info.DataPath)
			} else {
				fmt.Fprintf(out, "Data:     %s\n", s.where)
			}
			fmt.Fprintf(out, "Role:     %s\n", role)
			fmt.Fprintf(out, "Actor:    %s\n", s.actor)

			doc, version, err := s.load(cmd.Context())
			if err != nil {
				return explain(err)
			}
			fmt.Fprintf(out, "Version:  %s\n", version)
			fmt.Fprintf(out, "Tasks:    %d\n", len(doc.Tasks))
			fmt.Fprintf(out, "Users:    %d\n", len(doc.Users))
			return nil
		},
	}
}
