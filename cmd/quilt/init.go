package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/quiltdb/quilt/internal/session"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the store and initialize encryption keys",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(false, func(ctx context.Context, s *session.Session) error {
			pw, err := passphrase(settings(), true)
			if err != nil {
				return err
			}
			if err := s.InitKeys(ctx, pw); err != nil {
				return err
			}
			state, err := s.GetSyncState(ctx)
			if err != nil {
				return err
			}
			fmt.Printf("Initialized store (origin %s)\n", state.Origin)
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
