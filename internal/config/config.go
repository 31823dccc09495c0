// Package config resolves CLI configuration for quilt: where the store
// lives, which device identity to use, and how to obtain the passphrase.
//
// Resolution order (viper): flags > QUILT_* environment variables >
// .quilt/config.yaml > defaults.
package config

import (
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Settings is the resolved CLI configuration.
type Settings struct {
	StorePath     string
	DeviceID      string
	PassphraseEnv string
}

// Dir returns the quilt config directory, honoring QUILT_DIR.
func Dir() string {
	if dir := os.Getenv("QUILT_DIR"); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".quilt"
	}
	return filepath.Join(home, ".quilt")
}

// Init wires viper defaults, env binding, and the optional config file.
// A missing config file is not an error.
func Init() error {
	dir := Dir()
	viper.SetDefault("store", filepath.Join(dir, "quilt.db"))
	viper.SetDefault("device-id", "")
	viper.SetDefault("passphrase-env", "QUILT_PASSPHRASE")

	viper.SetEnvPrefix("QUILT")
	viper.AutomaticEnv()

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(dir)
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return err
		}
	}
	return nil
}

// Load returns the resolved settings after Init.
func Load() Settings {
	return Settings{
		StorePath:     viper.GetString("store"),
		DeviceID:      viper.GetString("device-id"),
		PassphraseEnv: viper.GetString("passphrase-env"),
	}
}

// Passphrase returns the passphrase from the configured environment
// variable, or "" if unset (the CLI then prompts).
func (s Settings) Passphrase() string {
	if s.PassphraseEnv == "" {
		return ""
	}
	return os.Getenv(s.PassphraseEnv)
}
