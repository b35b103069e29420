// Package server manages individual chat connections, handling read/write
// pumps and lifecycle control for each one.
package server

import (
	"bufio"
	"errors"
	"io"
	"net"
	"sync"

	"github.com/gorilla/websocket"
	uuid "github.com/satori/go.uuid"
	log "github.com/sirupsen/logrus"

	"github.com/Tyrowin/linechat/internal/chat"
)

// Client represents one connection in the chat system. It owns the line
// transport, the outbound queue and the chat session the inbound lines feed.
type Client struct {
	conn    LineConn
	send    chan string
	hub     *Hub
	addr    string
	session *chat.Session
	log     *log.Entry

	mu     sync.Mutex // protects closed and the send channel's close
	closed bool
}

// NewClient creates a new Client for conn. The client's send channel is
// buffered to sendBuffer lines; a client whose buffer overflows is
// disconnected rather than slowing down its senders.
func NewClient(conn LineConn, hub *Hub, sendBuffer int) *Client {
	if sendBuffer <= 0 {
		sendBuffer = 1
	}

	id := uuid.NewV4()
	c := &Client{
		conn: conn,
		send: make(chan string, sendBuffer),
		hub:  hub,
		addr: conn.RemoteAddr(),
	}
	c.log = hub.log.WithFields(log.Fields{
		"conn_id":     id.String(),
		"remote_addr": c.addr,
	})
	c.session = chat.NewSession(c, hub.rooms, hub.users, c.log)
	return c
}

// Session returns the chat session driven by this connection.
func (c *Client) Session() *chat.Session {
	return c.session
}

// Send queues one line for the client. It never blocks.
func (c *Client) Send(line string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return errClientClosed
	}

	select {
	case c.send <- line:
		return nil
	default:
		c.log.WithField("buffer", cap(c.send)).Warn("Send buffer full; disconnecting client")
		c.closed = true
		close(c.send)
		return errSendBufferFull
	}
}

// Close stops accepting lines. Lines already queued are still written, then
// the connection is closed.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

// handleReadError logs the reason a read loop ended.
func (c *Client) handleReadError(err error) {
	switch {
	case errors.Is(err, bufio.ErrTooLong), errors.Is(err, websocket.ErrReadLimit):
		c.log.WithField("max_line_length", c.hub.cfg.MaxLineLength).Warn("Line exceeded maximum length")
	case errors.Is(err, io.EOF), errors.Is(err, net.ErrClosed), isExpectedCloseError(err):
		c.log.Debug("Connection closed")
	case websocket.IsCloseError(err,
		websocket.CloseNormalClosure,
		websocket.CloseGoingAway,
		websocket.CloseNoStatusReceived):
		c.log.WithError(err).Debug("Client disconnected")
	default:
		c.log.WithError(err).Warn("Read error")
	}
}

func (c *Client) readPump() {
	defer func() {
		c.session.Disconnect()
		c.Close()
		c.hub.unregister(c)
	}()

	c.session.Start()

	for {
		line, err := c.conn.ReadLine()
		if err != nil {
			c.handleReadError(err)
			return
		}

		if err := c.session.HandleLine(line); err != nil {
			if !errors.Is(err, chat.ErrQuit) {
				c.log.WithError(err).Error("Session failed")
			}
			return
		}
	}
}

func (c *Client) writePump() {
	defer c.closeConnection()

	for line := range c.send {
		if err := c.conn.WriteLine(line); err != nil {
			if !isExpectedCloseError(err) {
				c.log.WithError(err).Warn("Write error")
			}
			return
		}
	}
}

// closeConnection closes the transport, logging only unexpected failures.
func (c *Client) closeConnection() {
	if err := c.conn.Close(); err != nil && !isExpectedCloseError(err) {
		c.log.WithError(err).Warn("Error closing connection")
	}
}
