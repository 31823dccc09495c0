// quilt is the command-line front end for the encrypted task store.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/quiltdb/quilt/internal/config"
	"github.com/quiltdb/quilt/internal/crypto"
	"github.com/quiltdb/quilt/internal/debug"
	"github.com/quiltdb/quilt/internal/session"
)

var (
	storeFlag   string
	deviceFlag  string
	passFlag    string
	verboseFlag bool
	quietFlag   bool
)

var rootCmd = &cobra.Command{
	Use:           "quilt",
	Short:         "Encrypted, event-sourced, multi-device task list",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		debug.SetVerbose(verboseFlag)
		debug.SetQuiet(quietFlag)
		return config.Init()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&storeFlag, "store", "", "Store path (default: ~/.quilt/quilt.db)")
	rootCmd.PersistentFlags().StringVar(&deviceFlag, "device-id", "", "Device identifier for new stores")
	rootCmd.PersistentFlags().StringVar(&passFlag, "pass", "", "Passphrase (default: $QUILT_PASSPHRASE, else prompt)")
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "Enable verbose/debug output")
	rootCmd.PersistentFlags().BoolVarP(&quietFlag, "quiet", "q", false, "Suppress non-essential output")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// settings merges flags over the resolved config.
func settings() config.Settings {
	s := config.Load()
	if storeFlag != "" {
		s.StorePath = storeFlag
	}
	if deviceFlag != "" {
		s.DeviceID = deviceFlag
	}
	return s
}

// passphrase resolves the passphrase: flag, env, then interactive prompt.
func passphrase(s config.Settings, confirm bool) (string, error) {
	if passFlag != "" {
		return passFlag, nil
	}
	if env := s.Passphrase(); env != "" {
		return env, nil
	}
	if !term.IsTerminal(int(syscall.Stdin)) {
		return "", fmt.Errorf("no passphrase: set --pass or $%s", s.PassphraseEnv)
	}
	fmt.Fprint(os.Stderr, "Passphrase: ")
	pw, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("read passphrase: %w", err)
	}
	if confirm {
		fmt.Fprint(os.Stderr, "Confirm passphrase: ")
		again, err := term.ReadPassword(int(syscall.Stdin))
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return "", fmt.Errorf("read passphrase: %w", err)
		}
		if string(pw) != string(again) {
			return "", fmt.Errorf("passphrases do not match")
		}
	}
	return string(pw), nil
}

// withSession opens a session, optionally unlocks it, runs fn, and closes.
func withSession(unlock bool, fn func(ctx context.Context, s *session.Session) error) error {
	cfg := settings()
	ctx := context.Background()
	s := session.New(session.Config{StoragePath: cfg.StorePath, DeviceID: cfg.DeviceID})
	if err := s.Open(ctx); err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	if unlock {
		pw, err := passphrase(cfg, false)
		if err != nil {
			return err
		}
		if err := s.UnlockKeys(ctx, pw); err != nil {
			if errors.Is(err, crypto.ErrWrongPassphrase) {
				return fmt.Errorf("wrong passphrase")
			}
			if errors.Is(err, crypto.ErrNotInitialized) {
				return fmt.Errorf("store has no keys yet; run 'quilt init' first")
			}
			return err
		}
	}
	return fn(ctx, s)
}
