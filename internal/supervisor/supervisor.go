// Package supervisor owns the daemon's main select loop: it mounts the
// FUSE tree, binds the Unix control socket, and runs until a shutdown
// trigger fires (spec §4.6).
package supervisor

import (
	"context"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/jacobsa/fuse"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sys/unix"

	"github.com/mangadexfs/mangadexfs/internal/catalog"
	"github.com/mangadexfs/mangadexfs/internal/fuseadapter"
	"github.com/mangadexfs/mangadexfs/internal/rpcserver"
)

// Config carries the daemon's runtime parameters (spec §6 "Configuration
// file" socket/mountpoint keys, resolved by internal/config).
type Config struct {
	MountPoint string
	SocketPath string
}

// Run mounts the FUSE file system, binds the control socket, and blocks
// until shutdown. It selects over four sources (spec §4.6):
//
//  1. SIGINT/SIGTERM from the OS.
//  2. An internal kill channel written to by any connection that received Kill.
//  3. New connection arrivals on the listening socket.
//  4. FUSE server termination.
//
// The four sources run as an errgroup (matching the teacher pack's own
// preference, per rclone-rclone's daemon supervisor, for a single error
// group over hand-rolled channel plumbing): whichever fires first cancels
// a shared context, which unwinds the rest.
func Run(ctx context.Context, cfg Config, cat *catalog.Catalog, log *logrus.Entry) error {
	fs := fuseadapter.New(cat, log)

	mfs, err := fuse.Mount(cfg.MountPoint, fs.Server(), &fuse.MountConfig{})
	if err != nil {
		return err
	}

	cat.SetInvalidateFunc(fs.InvalidateInode)

	listener, err := net.Listen("unix", cfg.SocketPath)
	if err != nil {
		_ = fuse.Unmount(cfg.MountPoint)
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	killCh := make(chan struct{}, 1)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		select {
		case <-sigCh:
			log.Info("received shutdown signal")
			cancel()
		case <-gctx.Done():
		}
		return nil
	})

	g.Go(func() error {
		select {
		case <-killCh:
			log.Info("received kill command")
			cancel()
		case <-gctx.Done():
		}
		return nil
	})

	g.Go(func() error {
		err := acceptLoop(gctx, listener, cat, log, killCh)
		cancel()
		return err
	})

	var joinErr error
	g.Go(func() error {
		joinErr = mfs.Join(gctx)
		cancel()
		return nil
	})

	<-ctx.Done()

	// Stop the FUSE server; this is what unblocks mfs.Join above, and is
	// the only part of shutdown that must happen before the rest (spec
	// §4.6: "send the stop signal to the FUSE server, await its
	// completion, unlink the Unix socket").
	unmountErr := fuse.Unmount(cfg.MountPoint)
	listener.Close()

	if err := g.Wait(); err != nil {
		return err
	}

	// unix.Unlink rather than os.Remove (spec's own domain-stack choice):
	// the control socket is a Unix-domain special file, not a plain file.
	_ = unix.Unlink(cfg.SocketPath)

	if unmountErr != nil {
		return unmountErr
	}
	return joinErr
}

// acceptLoop accepts connections until ctx is canceled (at which point the
// caller has already closed listener, so Accept's resulting error is
// expected and swallowed), spawning one rpcserver.Connection per socket
// (spec §5: "each incoming Unix-socket connection runs as an independent
// task").
func acceptLoop(ctx context.Context, listener net.Listener, cat *catalog.Catalog, log *logrus.Entry, killCh chan<- struct{}) error {
	for {
		conn, err := listener.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		go rpcserver.New(conn, cat, log, killCh).Serve(ctx)
	}
}
