package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTempConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "mangadexfs.toml")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadAppliesCLIMountOverride(t *testing.T) {
	path := writeTempConfig(t, `mountpoint = "/from/file"`)

	cfg, err := Load(path, "/from/cli")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.MountPoint != "/from/cli" {
		t.Fatalf("MountPoint = %q, want CLI override", cfg.MountPoint)
	}
}

func TestLoadMissingMountpointErrors(t *testing.T) {
	path := writeTempConfig(t, `socket = "/tmp/x.sock"`)

	if _, err := Load(path, ""); err == nil {
		t.Fatal("expected error for missing mountpoint")
	}
}

func TestLoadRejectsUnknownKey(t *testing.T) {
	path := writeTempConfig(t, "mountpoint = \"/m\"\nbogus = 1\n")

	if _, err := Load(path, ""); err == nil {
		t.Fatal("expected error for unrecognized key")
	}
}

func TestLoadDefaultsSocket(t *testing.T) {
	t.Setenv("XDG_RUNTIME_DIR", "/run/user/1000")
	path := writeTempConfig(t, `mountpoint = "/m"`)

	cfg, err := Load(path, "")
	if err != nil {
		t.Fatal(err)
	}
	want := "/run/user/1000/mangadexfs.sock"
	if cfg.Socket != want {
		t.Fatalf("Socket = %q, want %q", cfg.Socket, want)
	}
}
