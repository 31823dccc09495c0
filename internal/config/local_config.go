package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// LocalConfig is the subset of config.yaml read directly from disk rather
// than through the viper singleton. Needed when checking config before
// viper is initialized (e.g. quilt doctor-style diagnostics, tests).
type LocalConfig struct {
	Store         string `yaml:"store"`
	DeviceID      string `yaml:"device-id"`
	PassphraseEnv string `yaml:"passphrase-env"`
}

// LoadLocalConfig reads and parses config.yaml from the given quilt
// directory. Returns an empty LocalConfig (not nil) if the file is
// missing or unparseable.
func LoadLocalConfig(quiltDir string) *LocalConfig {
	configPath := filepath.Join(quiltDir, "config.yaml")
	data, err := os.ReadFile(configPath) // #nosec G304 - config file path from quiltDir
	if err != nil {
		return &LocalConfig{}
	}
	var cfg LocalConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return &LocalConfig{}
	}
	return &cfg
}
