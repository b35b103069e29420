// Package server exposes HTTP handlers, including the WebSocket line
// transport and health checks.
package server

import (
	"fmt"
	"net/http"
)

// HealthText is the body served by HealthHandler.
const HealthText = "linechat server is running!"

// WebSocketHandler handles WebSocket upgrade requests. It validates that the
// request uses the GET method, upgrades the HTTP connection, and hands the
// connection to the hub as a line transport: one text message per line.
func (s *Server) WebSocketHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed. WebSocket endpoint only accepts GET requests.", http.StatusMethodNotAllowed)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.WithError(err).Warn("WebSocket upgrade failed")
		return
	}

	lineConn := newWSConn(conn, r.RemoteAddr, s.cfg.MaxLineLength)
	if _, err := s.hub.Accept(lineConn); err != nil {
		s.log.WithError(err).Warn("Rejected WebSocket connection")
		_ = lineConn.Close()
	}
}

// HealthHandler provides a simple health check endpoint that returns server status.
// It responds with a plain text message indicating the server is running.
func HealthHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	_, _ = fmt.Fprint(w, HealthText)
}
