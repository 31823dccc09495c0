package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/quiltdb/quilt/internal/service"
	"github.com/quiltdb/quilt/internal/session"
	"github.com/quiltdb/quilt/internal/timeparsing"
	"github.com/quiltdb/quilt/internal/types"
)

// resolveTask expands a task id prefix to a full id. Ambiguous or unknown
// prefixes are errors.
func resolveTask(s *session.Session, prefix string) (types.Task, error) {
	tasks, err := s.ListTasks(types.TaskFilter{})
	if err != nil {
		return types.Task{}, err
	}
	var match *types.Task
	for i := range tasks {
		if tasks[i].ID == prefix {
			return tasks[i], nil
		}
		if strings.HasPrefix(tasks[i].ID, prefix) {
			if match != nil {
				return types.Task{}, fmt.Errorf("ambiguous task id %q", prefix)
			}
			match = &tasks[i]
		}
	}
	if match == nil {
		return types.Task{}, fmt.Errorf("no task matching %q", prefix)
	}
	return *match, nil
}

var doneCmd = &cobra.Command{
	Use:   "done <id>",
	Short: "Mark a task completed",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(true, func(ctx context.Context, s *session.Session) error {
			task, err := resolveTask(s, args[0])
			if err != nil {
				return err
			}
			updated, err := s.SetCompleted(ctx, task.ID, true)
			if err != nil {
				return err
			}
			fmt.Printf("Done: %s\n", updated.Title)
			return nil
		})
	},
}

var reopenCmd = &cobra.Command{
	Use:   "reopen <id>",
	Short: "Reopen a completed task",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(true, func(ctx context.Context, s *session.Session) error {
			task, err := resolveTask(s, args[0])
			if err != nil {
				return err
			}
			updated, err := s.SetCompleted(ctx, task.ID, false)
			if err != nil {
				return err
			}
			fmt.Printf("Reopened: %s\n", updated.Title)
			return nil
		})
	},
}

var rmCmd = &cobra.Command{
	Use:   "rm <id>",
	Short: "Delete a task",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(true, func(ctx context.Context, s *session.Session) error {
			task, err := resolveTask(s, args[0])
			if err != nil {
				return err
			}
			if err := s.DeleteTask(ctx, task.ID); err != nil {
				return err
			}
			fmt.Printf("Deleted: %s\n", task.Title)
			return nil
		})
	},
}

var dueCmd = &cobra.Command{
	Use:   "due <id> [date]",
	Short: "Set or clear a task's due date",
	Long:  "Set a task's due date. Omit the date to clear it. Accepts 2006-01-02, +2d, or natural language.",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		due := ""
		if len(args) == 2 {
			parsed, err := timeparsing.ParseDueDate(args[1], time.Now())
			if err != nil {
				return err
			}
			due = parsed
		}
		return withSession(true, func(ctx context.Context, s *session.Session) error {
			task, err := resolveTask(s, args[0])
			if err != nil {
				return err
			}
			updated, err := s.SetDueDate(ctx, task.ID, due)
			if err != nil {
				return err
			}
			if updated.DueDate == "" {
				fmt.Printf("Cleared due date: %s\n", updated.Title)
			} else {
				fmt.Printf("Due %s: %s\n", updated.DueDate, updated.Title)
			}
			return nil
		})
	},
}

var moveCmd = &cobra.Command{
	Use:   "move <id> <order>",
	Short: "Move a task to a new position within its group",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		var order int64
		if _, err := fmt.Sscanf(args[1], "%d", &order); err != nil {
			return fmt.Errorf("invalid order %q", args[1])
		}
		return withSession(true, func(ctx context.Context, s *session.Session) error {
			task, err := resolveTask(s, args[0])
			if err != nil {
				return err
			}
			items := []service.ReorderItem{{ID: task.ID, Order: order}}
			if err := s.ReorderTasks(ctx, items); err != nil {
				return err
			}
			fmt.Printf("Moved %s to position %d\n", task.Title, order)
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(doneCmd, reopenCmd, rmCmd, dueCmd, moveCmd)
}
