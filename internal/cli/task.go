package cli

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/existflow/wbsync/internal/edit"
	"github.com/existflow/wbsync/internal/model"
	"github.com/existflow/wbsync/internal/store"
	"github.com/existflow/wbsync/internal/sync"
	"github.com/spf13/cobra"
)

func newTaskCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "task",
		Short: "Change tasks",
		Long: `Add, change and delete tasks.

Members may only change tasks assigned to them; adding and deleting tasks is
reserved for the admin.`,
	}
	cmd.AddCommand(
		newTaskAddCmd(opts),
		newTaskSetCmd(opts),
		newTaskProgressCmd(opts),
		newTaskDoneCmd(opts),
		newTaskDeleteCmd(opts),
	)
	return cmd
}

func newTaskAddCmd(opts *options) *cobra.Command {
	var (
		start, end, parent, assignee string
		days                         int
		milestone                    bool
	)

	cmd := &cobra.Command{
		Use:   "add [name]",
		Short: "Add a task",
		Long: `Add a task, optionally under a parent.

Examples:
  wbs task add "Design review"
  wbs task add "Wireframes" --parent t-1234 --assignee u2 --start 2024-06-03 --days 5`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.open()
			if err != nil {
				return err
			}
			defer s.Close()
			if !s.viewer.Admin {
				return ErrAdminOnly
			}

			startDate := model.Today()
			if start != "" {
				if startDate, err = model.ParseDate(start); err != nil {
					return err
				}
			}
			endDate := startDate.AddDays(days)
			if end != "" {
				if endDate, err = model.ParseDate(end); err != nil {
					return err
				}
			}

			task := model.NewTask("", strings.Join(args, " "), startDate, endDate)
			task.ParentID = model.Ref(parent)
			task.AssigneeID = model.Ref(assignee)
			task.IsMilestone = milestone

			var added model.Task
			version, err := s.cache.Edit(cmd.Context(), func(doc *model.Document) (*model.Document, error) {
				next, t, err := edit.AddTask(doc, task)
				added = t
				return next, err
			})
			if err != nil {
				return explain(err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Added %s %q (version %s)\n", added.ID, added.Name, version)
			return nil
		},
	}

	cmd.Flags().StringVar(&start, "start", "", "Start date YYYY-MM-DD (default today)")
	cmd.Flags().StringVar(&end, "end", "", "End date YYYY-MM-DD")
	cmd.Flags().IntVar(&days, "days", 7, "Length in days when --end is not set")
	cmd.Flags().StringVarP(&parent, "parent", "p", "", "Parent task id")
	cmd.Flags().StringVarP(&assignee, "assignee", "a", "", "Assignee user id")
	cmd.Flags().BoolVar(&milestone, "milestone", false, "Mark as milestone")
	return cmd
}

func newTaskSetCmd(opts *options) *cobra.Command {
	var (
		name, start, end, parent, assignee string
		progress                           int
		milestone                          bool
		deps                               []string
	)

	cmd := &cobra.Command{
		Use:   "set [task-id]",
		Short: "Change task fields",
		Long: `Change any field of a task. Use an empty value to clear the parent or
assignee.

Examples:
  wbs task set t-1234 --name "Final review" --end 2024-06-20
  wbs task set t-1234 --parent ""`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			var patch edit.TaskPatch
			if flags.Changed("name") {
				patch.Name = &name
			}
			for _, f := range []struct {
				flag  string
				value string
				dst   **model.Date
			}{{"start", start, &patch.Start}, {"end", end, &patch.End}} {
				if !flags.Changed(f.flag) {
					continue
				}
				d, err := model.ParseDate(f.value)
				if err != nil {
					return fmt.Errorf("--%s: %w", f.flag, err)
				}
				*f.dst = &d
			}
			if flags.Changed("progress") {
				patch.Progress = &progress
			}
			if flags.Changed("parent") {
				patch.Parent = &parent
			}
			if flags.Changed("assignee") {
				patch.Assignee = &assignee
			}
			if flags.Changed("milestone") {
				patch.Milestone = &milestone
			}
			if flags.Changed("deps") {
				patch.Dependencies = append([]string{}, deps...)
			}
			if patch.IsEmpty() {
				return errors.New("nothing to change")
			}

			s, err := opts.open()
			if err != nil {
				return err
			}
			defer s.Close()

			id := args[0]
			version, err := s.editTask(cmd.Context(), id, func(doc *model.Document) (*model.Document, error) {
				return edit.UpdateTask(doc, id, patch)
			})
			if err != nil {
				return explain(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated %s (version %s)\n", id, version)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Task name")
	cmd.Flags().StringVar(&start, "start", "", "Start date YYYY-MM-DD")
	cmd.Flags().StringVar(&end, "end", "", "End date YYYY-MM-DD")
	cmd.Flags().IntVar(&progress, "progress", 0, "Progress 0-100")
	cmd.Flags().StringVarP(&parent, "parent", "p", "", "Parent task id")
	cmd.Flags().StringVarP(&assignee, "assignee", "a", "", "Assignee user id")
	cmd.Flags().BoolVar(&milestone, "milestone", false, "Mark as milestone")
	cmd.Flags().StringSliceVar(&deps, "deps", nil, "Task ids this task depends on")
	return cmd
}

func newTaskProgressCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "progress [task-id] [percent]",
		Short: "Set task progress",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			progress, err := strconv.Atoi(strings.TrimSuffix(args[1], "%"))
			if err != nil {
				return fmt.Errorf("invalid progress %q", args[1])
			}
			return setProgress(cmd, opts, args[0], progress)
		},
	}
}

func newTaskDoneCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "done [task-id]",
		Short: "Mark a task as complete",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return setProgress(cmd, opts, args[0], 100)
		},
	}
}

func setProgress(cmd *cobra.Command, opts *options, id string, progress int) error {
	s, err := opts.open()
	if err != nil {
		return err
	}
	defer s.Close()

	version, err := s.editTask(cmd.Context(), id, func(doc *model.Document) (*model.Document, error) {
		return edit.SetProgress(doc, id, progress)
	})
	if err != nil {
		return explain(err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s is %d%% done (version %s)\n", id, progress, version)
	return nil
}

func newTaskDeleteCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:     "delete [task-id]",
		Aliases: []string{"rm"},
		Short:   "Delete a task; its subtasks move to the top level",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.open()
			if err != nil {
				return err
			}
			defer s.Close()
			if !s.viewer.Admin {
				return ErrAdminOnly
			}

			id := args[0]
			version, err := s.cache.Edit(cmd.Context(), func(doc *model.Document) (*model.Document, error) {
				return edit.DeleteTask(doc, id)
			})
			if err != nil {
				return explain(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s (version %s)\n", id, version)
			return nil
		},
	}
}

// explain turns the write errors a user can act on into plain advice
func explain(err error) error {
	switch {
	case errors.Is(err, store.ErrConflict):
		return fmt.Errorf("someone else saved first; the latest version has been loaded, please run the command again: %w", err)
	case errors.Is(err, edit.ErrForbidden):
		return fmt.Errorf("members can only change tasks assigned to them: %w", err)
	case errors.Is(err, sync.ErrUnreachable):
		return fmt.Errorf("cannot reach the server, check 'wbs status': %w", err)
	}
	return err
}
