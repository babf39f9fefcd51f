package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newUserCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage collaborators",
	}

	listCmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List users",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.open()
			if err != nil {
				return err
			}
			defer s.Close()

			doc, _, err := s.load(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, u := range doc.Users {
				tasks := 0
				for _, t := range doc.Tasks {
					if t.Assignee() == u.ID {
						tasks++
					}
				}
				fmt.Fprintf(out, "%-6s %-24s %-7s %d tasks\n", u.ID, u.Name, u.Role, tasks)
			}
			return nil
		},
	}

	addCmd := &cobra.Command{
		Use:   "add [name]",
		Short: "Add a member (admin)",
		Args:  cobra.MinimumNArgs(1),
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

			_, version, err := s.load(cmd.Context())
			if err != nil {
				return err
			}
			user, version, err := admin.AddUser(cmd.Context(), strings.Join(args, " "), version)
			if err != nil {
				return explain(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added %s %q (version %s)\n", user.ID, user.Name, version)
			return nil
		},
	}

	deleteCmd := &cobra.Command{
		Use:     "delete [user-id]",
		Aliases: []string{"rm"},
		Short:   "Remove a member and unassign their tasks (admin)",
		Args:    cobra.ExactArgs(1),
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

			_, version, err := s.load(cmd.Context())
			if err != nil {
				return err
			}
			version, err = admin.DeleteUser(cmd.Context(), args[0], version)
			if err != nil {
				return explain(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %s (version %s)\n", args[0], version)
			return nil
		},
	}

	cmd.AddCommand(listCmd, addCmd, deleteCmd)
	return cmd
}
