package rpcserver

import (
	"context"
	"errors"
	"io"
	"net"

	"github.com/sirupsen/logrus"

	"github.com/mangadexfs/mangadexfs/internal/catalog"
	"github.com/mangadexfs/mangadexfs/internal/wire"
)

// Connection runs one read/eval/write loop over a single accepted socket
// (spec §4.6). "One connection = one read/eval loop." The loop terminates
// on EndConnection, EOF, or a codec error (spec §4.2 "unrecognized
// discriminators end the connection").
type Connection struct {
	conn    net.Conn
	catalog *catalog.Catalog
	log     *logrus.Entry

	// killCh is written to when this connection receives Kill, read by the
	// daemon supervisor's shutdown select loop (spec §4.6 item 2).
	killCh chan<- struct{}
}

// New wraps an accepted connection. killCh may be nil in tests that don't
// exercise Kill.
func New(conn net.Conn, cat *catalog.Catalog, log *logrus.Entry, killCh chan<- struct{}) *Connection {
	return &Connection{conn: conn, catalog: cat, log: log, killCh: killCh}
}

// Serve runs the loop until termination, then closes the underlying
// connection. Safe to call from its own goroutine per accepted socket
// (spec §5: "each incoming Unix-socket connection runs as an independent
// task").
func (c *Connection) Serve(ctx context.Context) {
	defer c.conn.Close()

	for {
		cmd, err := wire.DecodeCommand(c.conn)
		if err != nil {
			if !errors.Is(err, io.EOF) {
				c.log.WithError(err).Debug("connection closed on decode error")
			}
			return
		}

		if _, ok := cmd.(wire.EndConnectionCommand); ok {
			return
		}

		resp := dispatch(ctx, c.catalog, cmd)

		if err := wire.EncodeResponse(c.conn, resp); err != nil {
			c.log.WithError(err).Debug("connection closed on encode error")
			return
		}

		if _, ok := cmd.(wire.KillCommand); ok {
			c.notifyKill()
			return
		}
	}
}

func (c *Connection) notifyKill() {
	if c.killCh == nil {
		return
	}
	select {
	case c.killCh <- struct{}{}:
	default:
		// Already signaled by another connection; shutdown is already under way.
	}
}
