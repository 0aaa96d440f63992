package mcp

import (
	"context"
	"os"
	"time"

	"x2ansible/internal/logging"
)

// WatchParent cancels the server when the parent process dies, so a
// disconnected editor does not leave zombie MCP processes behind.
//
// It must NOT read from stdin: the SDK's stdio transport owns stdin
// exclusively and stray reads would corrupt the JSON-RPC stream. Parent
// death is detected by polling the ppid instead.
func WatchParent(ctx context.Context, cancelFn context.CancelFunc) {
	ppid := os.Getppid()
	logger := logging.New("mcp")
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-time.After(2 * time.Second):
				if os.Getppid() != ppid {
					logger.Warn("parent process died, shutting down", "was_pid", ppid)
					cancelFn()
					return
				}
			}
		}
	}()
}
