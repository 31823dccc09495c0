package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadLocalConfig(t *testing.T) {
	dir := t.TempDir()
	content := "store: /tmp/custom.db\ndevice-id: laptop\npassphrase-env: MY_PASS\n"
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg := LoadLocalConfig(dir)
	if cfg.Store != "/tmp/custom.db" {
		t.Errorf("store = %q", cfg.Store)
	}
	if cfg.DeviceID != "laptop" {
		t.Errorf("device-id = %q", cfg.DeviceID)
	}
	if cfg.PassphraseEnv != "MY_PASS" {
		t.Errorf("passphrase-env = %q", cfg.PassphraseEnv)
	}
}

func TestLoadLocalConfigMissing(t *testing.T) {
	cfg := LoadLocalConfig(t.TempDir())
	if cfg == nil {
		t.Fatal("missing config returned nil")
	}
	if cfg.Store != "" || cfg.DeviceID != "" {
		t.Fatalf("missing config not empty: %+v", cfg)
	}
}

func TestLoadLocalConfigUnparseable(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("{{nope"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg := LoadLocalConfig(dir)
	if cfg == nil || cfg.Store != "" {
		t.Fatalf("unparseable config = %+v", cfg)
	}
}

func TestDirHonorsEnv(t *testing.T) {
	t.Setenv("QUILT_DIR", "/tmp/quilt-test-dir")
	if got := Dir(); got != "/tmp/quilt-test-dir" {
		t.Fatalf("Dir = %q", got)
	}
}
