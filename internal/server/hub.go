// Package server coordinates client registration, the shared chat registries,
// and connection cleanup for linechat via the Hub type.
package server

import (
	"context"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/Tyrowin/linechat/internal/chat"
)

// Hub owns the process-wide chat state and tracks every live connection so
// they can be closed together on shutdown.
type Hub struct {
	cfg     Config
	rooms   *chat.RoomRegistry
	users   *chat.UserDirectory
	log     log.FieldLogger
	clients map[*Client]struct{}
	closing bool
	mutex   sync.RWMutex
	wg      sync.WaitGroup
}

// NewHub creates a Hub with empty registries.
func NewHub(cfg *Config, logger log.FieldLogger) *Hub {
	if cfg == nil {
		cfg = NewConfig()
	}
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &Hub{
		cfg:     sanitizeConfig(*cfg),
		rooms:   chat.NewRoomRegistry(),
		users:   chat.NewUserDirectory(),
		log:     logger,
		clients: make(map[*Client]struct{}),
	}
}

// Rooms returns the shared room registry.
func (h *Hub) Rooms() *chat.RoomRegistry {
	return h.rooms
}

// Users returns the shared user directory.
func (h *Hub) Users() *chat.UserDirectory {
	return h.users
}

// ClientCount returns the number of live connections.
func (h *Hub) ClientCount() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients)
}

// Accept wraps conn in a Client and registers it.
func (h *Hub) Accept(conn LineConn) (*Client, error) {
	client := NewClient(conn, h, h.cfg.SendBufferSize)
	if err := h.Register(client); err != nil {
		return nil, err
	}
	return client, nil
}

// Register adds client to the hub and starts its read and write pumps.
func (h *Hub) Register(client *Client) error {
	h.mutex.Lock()
	if h.closing {
		h.mutex.Unlock()
		return ErrShuttingDown
	}
	h.clients[client] = struct{}{}
	clientCount := len(h.clients)
	h.wg.Add(2)
	h.mutex.Unlock()

	client.log.WithField("clients", clientCount).Info("Client registered")

	go func() {
		defer h.wg.Done()
		client.writePump()
	}()
	go func() {
		defer h.wg.Done()
		client.readPump()
	}()
	return nil
}

func (h *Hub) unregister(client *Client) {
	h.mutex.Lock()
	_, ok := h.clients[client]
	delete(h.clients, client)
	clientCount := len(h.clients)
	h.mutex.Unlock()

	if ok {
		client.log.WithField("clients", clientCount).Info("Client unregistered")
	}
}

// shutdownClients closes every live connection. Each read pump then runs its
// session's disconnect path.
func (h *Hub) shutdownClients() {
	h.log.Info("Shutting down all client connections...")

	h.mutex.Lock()
	h.closing = true
	clients := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	h.mutex.Unlock()

	for _, client := range clients {
		client.closeConnection()
	}

	h.log.WithField("clients", len(clients)).Info("Closed client connections")
}

// Shutdown closes all client connections and waits for their goroutines to
// finish, or until the timeout is reached.
func (h *Hub) Shutdown(timeout time.Duration) error {
	h.log.Info("Initiating hub shutdown...")

	h.shutdownClients()

	done := make(chan struct{})
	go func() {
		h.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		h.log.Info("Hub shutdown completed successfully")
		return nil
	case <-time.After(timeout):
		h.log.Warn("Hub shutdown timeout reached, some goroutines may still be running")
		return context.DeadlineExceeded
	}
}
