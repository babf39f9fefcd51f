package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

func newConfigureCmd(opts *options) *cobra.Command {
	var server, actor, userID string

	cmd := &cobra.Command{
		Use:   "configure",
		Short: "Set the server and who you edit as",
		Long: `Persist client settings in ~/.wbs/client.json.

Examples:
  wbs configure --url http://wbs.internal:8080
  wbs configure --actor Mika --user u2`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			if !flags.Changed("url") && !flags.Changed("actor") && !flags.Changed("user") {
				return errors.New("nothing to change, see --help")
			}

			client := opts.newClient()
			if flags.Changed("url") {
				if err := client.SetServer(server); err != nil {
					return err
				}
			}
			if flags.Changed("actor") || flags.Changed("user") {
				current := client.Settings()
				if !flags.Changed("actor") {
					actor = current.Actor
				}
				if !flags.Changed("user") {
					userID = current.UserID
				}
				if err := client.SetIdentity(actor, userID); err != nil {
					return err
				}
			}

			s := client.Settings()
			fmt.Fprintf(cmd.OutOrStdout(), "Server %s, actor %q, user %q\n", s.ServerURL, s.Actor, s.UserID)
			return nil
		},
	}

	cmd.Flags().StringVar(&server, "url", "", "Server URL")
	cmd.Flags().StringVar(&actor, "actor", "", "Name recorded as updated_by")
	cmd.Flags().StringVar(&userID, "user", "", "Your user id, for member edits")
	return cmd
}
