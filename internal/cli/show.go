package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/existflow/wbsync/internal/model"
	"github.com/spf13/cobra"
)

func newShowCmd(opts *options) *cobra.Command {
	var mine bool

	cmd := &cobra.Command{
		Use:     "show",
		Aliases: []string{"ls"},
		Short:   "Print the task outline",
		Long: `Print every task as an indented outline.

Examples:
  wbs show
  wbs show --mine
  wbs show --data ~/.wbs/data.json`,
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

			userID := ""
			if mine {
				if s.viewer.UserID == "" {
					return fmt.Errorf("--mine needs a user id, set one with 'wbs configure --user'")
				}
				userID = s.viewer.UserID
			}
			printOutline(cmd.OutOrStdout(), doc, version, userID)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&mine, "mine", "m", false, "Only tasks assigned to me")
	return cmd
}

// printOutline writes the document as an indented list. A non-empty userID
// keeps only the tasks assigned to that user.
func printOutline(w io.Writer, doc *model.Document, version, userID string) {
	updated := "never"
	if doc.Meta.LastUpdated > 0 {
		updated = time.Unix(doc.Meta.LastUpdated, 0).Format("2006-01-02 15:04")
	}
	fmt.Fprintf(w, "Version %s (updated %s by %s)\n\n", version, updated, doc.Meta.UpdatedBy)

	today := model.Today()
	shown := 0
	for _, row := range doc.Outline() {
		t := row.Task
		if userID != "" && t.Assignee() != userID {
			continue
		}
		shown++

		status := "○"
		switch {
		case t.IsDone():
			status = "✓"
		case t.IsOverdue(today):
			status = "!"
		}
		if t.IsMilestone {
			status += "◆"
		}

		assignee := doc.UserName(t.Assignee())
		if assignee == "" {
			assignee = "-"
		}
		fmt.Fprintf(w, "%s%s %s  [%s]  %s..%s  %d%%  (%s)\n",
			strings.Repeat("  ", row.Depth), status, t.Name, assignee, t.Start, t.End, t.Progress, t.ID)
	}

	if shown == 0 {
		fmt.Fprintln(w, "No tasks.")
	}
}
