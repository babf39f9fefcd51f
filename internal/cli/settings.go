package cli

import (
	"errors"
	"fmt"

	"github.com/existflow/wbsync/internal/api"
	"github.com/spf13/cobra"
)

func newSettingsCmd(opts *options) *cobra.Command {
	var (
		interval     int
		changeSecret bool
	)

	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Change the admin secret or polling interval (admin)",
		Long: `Change the document's settings. Without flags the current settings are shown.

Examples:
  wbs settings
  wbs settings --polling-interval 2000
  wbs settings --secret`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.open()
			if err != nil {
				return err
			}
			defer s.Close()

			doc, version, err := s.load(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			changed := cmd.Flags().Changed("polling-interval")
			if !changed && !changeSecret {
				fmt.Fprintf(out, "Polling interval: %s\n", doc.Config.Interval())
				fmt.Fprintf(out, "Version:          %s\n", version)
				return nil
			}

			admin, err := s.requireAdmin()
			if err != nil {
				return err
			}

			req := api.SettingsRequest{ExpectedVersion: version, UpdatedBy: opts.actor}
			if changed {
				req.PollingInterval = &interval
			}
			if changeSecret {
				secret, err := readSecret(cmd, "New admin secret: ")
				if err != nil {
					return err
				}
				if secret == "" {
					return errors.New("secret required")
				}
				req.AdminSecret = secret
			}

			res, err := admin.SaveSettings(cmd.Context(), req)
			if err != nil {
				return explain(err)
			}
			fmt.Fprintf(out, "Settings saved (version %s)\n", res.Version)
			return nil
		},
	}

	cmd.Flags().IntVar(&interval, "polling-interval", 0, "Polling interval in milliseconds (0 for the default)")
	cmd.Flags().BoolVar(&changeSecret, "secret", false, "Prompt for a new admin secret")
	return cmd
}
