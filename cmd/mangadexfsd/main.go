// Command mangadexfsd mounts a read-only FUSE view of MangaDex onto a
// directory and serves the control socket used by mangadexfsctl (spec §6).
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/jacobsa/timeutil"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/mangadexfs/mangadexfs/internal/catalog"
	"github.com/mangadexfs/mangadexfs/internal/config"
	"github.com/mangadexfs/mangadexfs/internal/remote"
	"github.com/mangadexfs/mangadexfs/internal/supervisor"
)

func main() {
	root := newRootCommand()
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "mangadexfsd [mountpoint]",
		Short: "Mount a read-only FUSE view of MangaDex",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var mountArg string
			if len(args) == 1 {
				mountArg = args[0]
			}
			return run(cmd.Context(), configPath, mountArg)
		},
	}

	cmd.Flags().StringVar(&configPath, "config", defaultConfigPath(), "path to the TOML configuration file")
	return cmd
}

func defaultConfigPath() string {
	if dir, err := os.UserHomeDir(); err == nil {
		return dir + "/.config/mangadexfs/mangadexfs.toml"
	}
	return ""
}

func run(ctx context.Context, configPath, mountArg string) error {
	log := newLogger()

	cfg, err := config.Load(configPath, mountArg)
	if err != nil {
		return fmt.Errorf("mangadexfsd: %w", err)
	}

	remoteClient := remote.New()
	clock := timeutil.RealClock()
	cat := catalog.New(remoteClient, clock, uint32(os.Getuid()), uint32(os.Getgid()), log)

	log.WithFields(logrus.Fields{
		"mountpoint": cfg.MountPoint,
		"socket":     cfg.Socket,
	}).Info("starting mangadexfsd")

	return supervisor.Run(ctx, supervisor.Config{
		MountPoint: cfg.MountPoint,
		SocketPath: cfg.Socket,
	}, cat, log)
}

// newLogger builds a logrus.Entry whose level is driven by the standard
// MANGADEXFS_LOG_LEVEL environment variable (spec §6 "Standard log-level
// variable controls verbosity"), defaulting to Info.
func newLogger() *logrus.Entry {
	logger := logrus.New()

	level := logrus.InfoLevel
	if v := os.Getenv("MANGADEXFS_LOG_LEVEL"); v != "" {
		parsed, err := logrus.ParseLevel(v)
		if err == nil {
			level = parsed
		}
	}
	logger.SetLevel(level)

	return logrus.NewEntry(logger)
}
