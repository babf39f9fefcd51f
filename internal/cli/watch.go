package cli

import (
	"time"

	"github.com/existflow/wbsync/internal/sync"
	"github.com/existflow/wbsync/internal/tui"
	"github.com/spf13/cobra"
)

func newWatchCmd(opts *options) *cobra.Command {
	var interval time.Duration

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Live task list that follows other people's edits",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.watchInterval = interval
			return runWatch(cmd, opts)
		},
	}
	cmd.Flags().DurationVar(&interval, "interval", 0, "Poll interval (default: the document's polling_interval)")
	return cmd
}

func runWatch(cmd *cobra.Command, opts *options) error {
	s, err := opts.open()
	if err != nil {
		return err
	}
	defer s.Close()

	poller := sync.NewPoller(s.cache, opts.watchInterval)
	return tui.Run(cmd.Context(), s.cache, poller, s.viewer)
}
