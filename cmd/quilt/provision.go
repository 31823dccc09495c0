package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/quiltdb/quilt/internal/debug"
	"github.com/quiltdb/quilt/internal/session"
	"github.com/quiltdb/quilt/internal/types"
)

var provisionCmd = &cobra.Command{
	Use:   "provision",
	Short: "Share key metadata with a new device",
	Long: `Provision copies key metadata (salt, KDF parameters, verifier) from an
initialized store to a fresh one, so both devices derive the same key
from the same passphrase. The key itself never leaves either device.`,
}

var provisionExportCmd = &cobra.Command{
	Use:   "export [file]",
	Short: "Export key metadata from this store",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(false, func(ctx context.Context, s *session.Session) error {
			ks, err := s.ExportKeyState(ctx)
			if err != nil {
				return err
			}
			out, err := json.Marshal(ks)
			if err != nil {
				return err
			}
			if len(args) == 1 {
				if err := os.WriteFile(args[0], out, 0o600); err != nil {
					return err
				}
				fmt.Printf("Wrote key metadata to %s\n", args[0])
				return nil
			}
			fmt.Println(string(out))
			return nil
		})
	},
}

var provisionAdoptCmd = &cobra.Command{
	Use:   "adopt [file]",
	Short: "Adopt key metadata exported from another device",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var (
			data []byte
			err  error
		)
		if len(args) == 1 {
			data, err = os.ReadFile(args[0]) // #nosec G304 - user-supplied provisioning file
		} else {
			data, err = io.ReadAll(os.Stdin)
		}
		if err != nil {
			return err
		}
		var ks types.KeyState
		if err := json.Unmarshal(data, &ks); err != nil {
			return fmt.Errorf("decode key metadata: %w", err)
		}
		return withSession(false, func(ctx context.Context, s *session.Session) error {
			if err := s.AdoptKeyState(ctx, ks); err != nil {
				return err
			}
			debug.PrintlnNormal("Adopted key metadata; unlock with the shared passphrase")
			return nil
		})
	},
}

func init() {
	provisionCmd.AddCommand(provisionExportCmd, provisionAdoptCmd)
	rootCmd.AddCommand(provisionCmd)
}
