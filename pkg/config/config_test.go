package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
)

func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Chdir(wd) })
}

func TestLoadReadsDefaultYAMLFromWorkingDirectory(t *testing.T) {
	dir := t.TempDir()
	yaml := "node:\n  id: test-node\n  blockchain_mode: true\nstorage:\n  path: /tmp/data\n  genesis_file: genesis.json\n  snapshot_interval: 100\nlogging:\n  level: debug\n"
	if err := os.WriteFile(filepath.Join(dir, "default.yaml"), []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}
	chdir(t, dir)
	viper.Reset()

	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Node.ID != "test-node" {
		t.Fatalf("expected test-node, got %s", cfg.Node.ID)
	}
	if !cfg.Node.BlockchainMode {
		t.Fatal("expected blockchain_mode true")
	}
	if cfg.Storage.Path != "/tmp/data" {
		t.Fatalf("expected /tmp/data, got %s", cfg.Storage.Path)
	}
}

func TestLoadMergesEnvSpecificOverride(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "default.yaml"), []byte("node:\n  id: default-node\nstorage:\n  path: /default\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "dev.yaml"), []byte("node:\n  id: dev-node\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	chdir(t, dir)
	viper.Reset()

	cfg, err := Load("dev")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Node.ID != "dev-node" {
		t.Fatalf("expected dev-node override, got %s", cfg.Node.ID)
	}
	if cfg.Storage.Path != "/default" {
		t.Fatalf("expected merged default storage path, got %s", cfg.Storage.Path)
	}
}

func TestLoadReturnsErrorWhenConfigFileMissing(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	viper.Reset()

	if _, err := Load(""); err == nil {
		t.Fatal("expected error when no default.yaml is present")
	}
}
