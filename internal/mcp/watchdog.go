package mcp

import (
	"context"
	"os"
	"time"

	"snapcheck/internal/logging"
)

// WatchParent monitors for parent process death in a background goroutine
// and calls cancelFn when the parent PID changes (the editor that spawned the
// stdio server disconnected). This prevents orphaned server processes.
//
// It must NOT read from stdin: the MCP StdioTransport owns stdin exclusively,
// and stealing bytes there corrupts the JSON-RPC stream.
func WatchParent(ctx context.Context, cancelFn context.CancelFunc) {
	ppid := os.Getppid()
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-time.After(2 * time.Second):
				if os.Getppid() != ppid {
					logging.New("mcp").Warn("parent process died, shutting down", "was_pid", ppid)
					cancelFn()
					return
				}
			}
		}
	}()
}
