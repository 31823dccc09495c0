package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/quiltdb/quilt/internal/session"
	"github.com/quiltdb/quilt/internal/types"
)

var (
	listStatus   string
	listDue      string
	listArchived bool
	listJSON     bool
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List tasks",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(true, func(ctx context.Context, s *session.Session) error {
			filter := types.TaskFilter{
				Status:  types.Status(listStatus),
				DueDate: listDue,
			}
			if !listArchived {
				archived := false
				filter.Archived = &archived
			}
			tasks, err := s.ListTasks(filter)
			if err != nil {
				return err
			}
			if listJSON {
				out, err := json.MarshalIndent(tasks, "", "  ")
				if err != nil {
					return err
				}
				fmt.Println(string(out))
				return nil
			}
			if len(tasks) == 0 {
				fmt.Println("No tasks.")
				return nil
			}
			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tSTATUS\tPRI\tDUE\tTITLE")
			for _, t := range tasks {
				due := t.DueDate
				if due == "" {
					due = "-"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
					shortID(t.ID), t.Status, t.Priority, due, t.Title)
			}
			return w.Flush()
		})
	},
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func init() {
	listCmd.Flags().StringVar(&listStatus, "status", "", "Filter by status: open, done")
	listCmd.Flags().StringVar(&listDue, "due", "", "Filter by due date (2006-01-02)")
	listCmd.Flags().BoolVarP(&listArchived, "archived", "a", false, "Include archived tasks")
	listCmd.Flags().BoolVar(&listJSON, "json", false, "Output JSON")
	rootCmd.AddCommand(listCmd)
}
