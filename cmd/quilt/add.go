package main

import (
	"context"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/quiltdb/quilt/internal/debug"
	"github.com/quiltdb/quilt/internal/service"
	"github.com/quiltdb/quilt/internal/session"
	"github.com/quiltdb/quilt/internal/timeparsing"
	"github.com/quiltdb/quilt/internal/types"
)

var (
	addDescription string
	addPriority    string
	addDue         string
)

var addCmd = &cobra.Command{
	Use:   "add <title>",
	Short: "Create a task",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		title := strings.Join(args, " ")
		due, err := timeparsing.ParseDueDate(addDue, time.Now())
		if err != nil {
			return err
		}
		return withSession(true, func(ctx context.Context, s *session.Session) error {
			task, err := s.CreateTask(ctx, service.CreateRequest{
				Title:       title,
				Description: addDescription,
				Priority:    types.Priority(addPriority),
				DueDate:     due,
			})
			if err != nil {
				return err
			}
			debug.PrintNormal("Created %s: %s\n", task.ID, task.Title)
			return nil
		})
	},
}

func init() {
	addCmd.Flags().StringVarP(&addDescription, "description", "d", "", "Task description")
	addCmd.Flags().StringVarP(&addPriority, "priority", "p", "", "Priority: low, normal, high")
	addCmd.Flags().StringVar(&addDue, "due", "", "Due date (2006-01-02, +2d, tomorrow, ...)")
	rootCmd.AddCommand(addCmd)
}
