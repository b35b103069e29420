// Package server constructs and starts the linechat service: the TCP line
// listener, the optional HTTP/WebSocket listener, and their shutdown.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Server ties the listeners to a Hub.
type Server struct {
	cfg      Config
	hub      *Hub
	log      log.FieldLogger
	upgrader websocket.Upgrader
}

// New creates a Server for cfg. A nil cfg means defaults.
func New(cfg *Config, logger log.FieldLogger) *Server {
	if cfg == nil {
		cfg = NewConfig()
	}
	if logger == nil {
		logger = log.StandardLogger()
	}
	sanitized := sanitizeConfig(*cfg)
	origins := newOriginPolicy(sanitized.AllowedOrigins, logger)

	return &Server{
		cfg: sanitized,
		hub: NewHub(&sanitized, logger),
		log: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     origins.checkOrigin,
		},
	}
}

// Hub returns the server's hub.
func (s *Server) Hub() *Hub {
	return s.hub
}

// Config returns the effective configuration.
func (s *Server) Config() Config {
	return s.cfg
}

// CreateServer creates and configures an HTTP server with the specified address and handler.
// It sets reasonable timeout values for production use.
func CreateServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

// Run binds the configured TCP address and serves until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.TCPAddr())
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.cfg.TCPAddr(), err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts line connections on ln and, when WebSocketAddr is set, serves
// HTTP on it. When ctx is cancelled or either listener fails, both listeners
// are stopped and every client is disconnected.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	g, ctx := errgroup.WithContext(ctx)

	s.log.WithField("addr", ln.Addr().String()).Info("Listening for line connections")
	g.Go(func() error {
		return s.ServeTCP(ln)
	})

	var httpServer *http.Server
	if s.cfg.WebSocketAddr != "" {
		httpServer = CreateServer(s.cfg.WebSocketAddr, SetupRoutes(s))
		g.Go(func() error {
			s.log.WithField("addr", httpServer.Addr).Info("Listening for WebSocket connections")
			if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("http server: %w", err)
			}
			return nil
		})
	}

	g.Go(func() error {
		<-ctx.Done()
		if err := ln.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			s.log.WithError(err).Warn("Error closing listener")
		}
		if httpServer != nil {
			_ = ShutdownServer(httpServer, s.cfg.ShutdownTimeout, s.log)
		}
		return s.hub.Shutdown(s.cfg.ShutdownTimeout)
	})

	return g.Wait()
}

// ServeTCP accepts connections on ln until it is closed.
func (s *Server) ServeTCP(ln net.Listener) error {
	for {
		conn, err := ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			s.log.WithError(err).Warn("Error accepting connection")
			time.Sleep(50 * time.Millisecond)
			continue
		}

		lineConn := newTCPConn(conn, s.cfg.MaxLineLength)
		if _, err := s.hub.Accept(lineConn); err != nil {
			s.log.WithError(err).Warn("Rejected connection")
			_ = lineConn.Close()
		}
	}
}

// ShutdownServer gracefully shuts down the HTTP server without interrupting active connections.
// It waits for active connections to close or until the timeout is reached.
func ShutdownServer(server *http.Server, timeout time.Duration, logger log.FieldLogger) error {
	logger.Info("Shutting down HTTP server...")

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.WithError(err).Warn("HTTP server shutdown error")
		return err
	}

	logger.Info("HTTP server shutdown completed")
	return nil
}
