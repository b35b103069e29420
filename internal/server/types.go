// Package server defines shared errors and utility helpers that are reused
// across client and hub logic.
package server

import (
	"errors"
	"strings"
)

var (
	// ErrShuttingDown is returned by Hub.Register once shutdown has begun.
	ErrShuttingDown = errors.New("server: shutting down")

	errClientClosed   = errors.New("server: client closed")
	errSendBufferFull = errors.New("server: send buffer full")
)

// isExpectedCloseError checks if an error is expected during connection closure.
func isExpectedCloseError(err error) bool {
	if err == nil {
		return true
	}
	errStr := err.Error()
	return strings.Contains(errStr, "use of closed network connection") ||
		strings.Contains(errStr, "websocket: close sent") ||
		strings.Contains(errStr, "broken pipe") ||
		strings.Contains(errStr, "connection reset by peer")
}
