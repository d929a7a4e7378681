// Package config loads the daemon's TOML configuration file (spec §6).
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	homedir "github.com/mitchellh/go-homedir"
)

// Config is the single recognized table (spec §6): "socket" and
// "mountpoint". Unknown keys are rejected with a diagnostic; missing
// optional keys take defaults.
type Config struct {
	Socket     string `toml:"socket"`
	MountPoint string `toml:"mountpoint"`
}

// Load decodes path into a Config, rejecting any key it doesn't
// recognize, then applies defaults for anything left unset. mountPathArg
// is the daemon's optional positional mount-path CLI argument, which
// takes precedence over the config file's "mountpoint" key (spec §6
// "required if not passed on the CLI").
func Load(path string, mountPathArg string) (Config, error) {
	var cfg Config

	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		if os.IsNotExist(err) && path == "" {
			// No config file at all is fine; everything falls back to defaults
			// or the CLI argument.
		} else {
			return Config{}, fmt.Errorf("config: decoding %s: %w", path, err)
		}
	}

	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return Config{}, fmt.Errorf("config: unrecognized key %q in %s", undecoded[0].String(), path)
	}

	if mountPathArg != "" {
		cfg.MountPoint = mountPathArg
	}
	if cfg.MountPoint == "" {
		return Config{}, fmt.Errorf("config: no mountpoint given on the command line or in %s", path)
	}

	if cfg.Socket == "" {
		sock, err := DefaultSocketPath()
		if err != nil {
			return Config{}, err
		}
		cfg.Socket = sock
	}

	return cfg, nil
}

// DefaultSocketPath is the per-user runtime location (spec §6): under
// $XDG_RUNTIME_DIR when set, falling back to the user's home directory
// the way the teacher's samples resolve paths via go-homedir rather than
// hand-rolling $HOME lookups. Exported so mangadexfsctl can default its
// --socket flag to the same path the daemon binds.
func DefaultSocketPath() (string, error) {
	if dir := os.Getenv("XDG_RUNTIME_DIR"); dir != "" {
		return filepath.Join(dir, "mangadexfs.sock"), nil
	}

	home, err := homedir.Dir()
	if err != nil {
		return "", fmt.Errorf("config: resolving home directory: %w", err)
	}
	return filepath.Join(home, ".mangadexfs", "mangadexfs.sock"), nil
}
