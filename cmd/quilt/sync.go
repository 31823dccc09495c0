package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/quiltdb/quilt/internal/bindings"
	"github.com/quiltdb/quilt/internal/debug"
	"github.com/quiltdb/quilt/internal/session"
)

var exportSince int64

var exportCmd = &cobra.Command{
	Use:   "export [file]",
	Short: "Export local events above a sequence watermark",
	Long:  "Export locally-originated events as JSON to a file or stdout. Ship the file to another device and import it there; transport is up to you.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(true, func(ctx context.Context, s *session.Session) error {
			events, err := s.ExportEvents(ctx, exportSince)
			if err != nil {
				return err
			}
			out, err := json.Marshal(bindings.EventsToDTO(events))
			if err != nil {
				return err
			}
			if len(args) == 1 {
				if err := os.WriteFile(args[0], out, 0o600); err != nil {
					return err
				}
				debug.PrintNormal("Exported %d events to %s\n", len(events), args[0])
				return nil
			}
			fmt.Println(string(out))
			return nil
		})
	},
}

var importCmd = &cobra.Command{
	Use:   "import [file]",
	Short: "Import events exported from another device",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var (
			data []byte
			err  error
		)
		if len(args) == 1 {
			data, err = os.ReadFile(args[0]) // #nosec G304 - user-supplied import file
		} else {
			data, err = io.ReadAll(os.Stdin)
		}
		if err != nil {
			return err
		}
		events, err := bindings.EventsFromJSON(data)
		if err != nil {
			return err
		}
		return withSession(true, func(ctx context.Context, s *session.Session) error {
			accepted, err := s.ImportEvents(ctx, events)
			if err != nil {
				return err
			}
			debug.PrintNormal("Imported %d new events (%d in batch)\n", accepted, len(events))
			return nil
		})
	},
}

var syncStateCmd = &cobra.Command{
	Use:   "sync-state",
	Short: "Show sync cursors",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(false, func(ctx context.Context, s *session.Session) error {
			state, err := s.GetSyncState(ctx)
			if err != nil {
				return err
			}
			out, err := json.MarshalIndent(state, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(out))
			return nil
		})
	},
}

var decryptCmd = &cobra.Command{
	Use:    "decrypt-event <base64-payload>",
	Short:  "Decrypt one event payload (support/debugging)",
	Hidden: true,
	Args:   cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(true, func(ctx context.Context, s *session.Session) error {
			plaintext, err := s.DebugDecryptEvent(args[0])
			if err != nil {
				return err
			}
			fmt.Println(plaintext)
			return nil
		})
	},
}

func init() {
	exportCmd.Flags().Int64Var(&exportSince, "since", 0, "Export events with sequence greater than this")
	rootCmd.AddCommand(exportCmd, importCmd, syncStateCmd, decryptCmd)
}
