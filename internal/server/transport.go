// Package server adapts TCP streams and WebSocket connections to the single
// line-in/line-out contract the chat sessions consume.
package server

import (
	"bufio"
	"io"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second
)

// LineConn is a connection framed into lines. ReadLine returns one line with
// its terminator stripped. WriteLine frames and transmits one line; lines are
// written in the order submitted. Close may be called more than once.
type LineConn interface {
	ReadLine() (string, error)
	WriteLine(line string) error
	Close() error
	RemoteAddr() string
}

// tcpConn frames a stream socket. Input lines end in \n or \r\n; output lines
// end in \r\n, and embedded newlines are expanded the same way.
type tcpConn struct {
	conn      net.Conn
	scanner   *bufio.Scanner
	writer    *bufio.Writer
	closeOnce sync.Once
	closeErr  error
}

func newTCPConn(conn net.Conn, maxLineLength int) *tcpConn {
	scanner := bufio.NewScanner(conn)
	initial := 4096
	if maxLineLength < initial {
		initial = maxLineLength
	}
	scanner.Buffer(make([]byte, 0, initial), maxLineLength)

	return &tcpConn{
		conn:    conn,
		scanner: scanner,
		writer:  bufio.NewWriter(conn),
	}
}

func (c *tcpConn) ReadLine() (string, error) {
	if c.scanner.Scan() {
		return c.scanner.Text(), nil
	}
	if err := c.scanner.Err(); err != nil {
		return "", err
	}
	return "", io.EOF
}

func (c *tcpConn) WriteLine(line string) error {
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	if _, err := c.writer.WriteString(strings.ReplaceAll(line, "\n", "\r\n")); err != nil {
		return err
	}
	if _, err := c.writer.WriteString("\r\n"); err != nil {
		return err
	}
	return c.writer.Flush()
}

func (c *tcpConn) Close() error {
	c.closeOnce.Do(func() {
		c.closeErr = c.conn.Close()
	})
	return c.closeErr
}

func (c *tcpConn) RemoteAddr() string {
	return c.conn.RemoteAddr().String()
}

// wsConn frames a WebSocket. Each outbound line is one text message. An
// inbound text message may carry several newline separated lines.
type wsConn struct {
	conn      *websocket.Conn
	addr      string
	pending   []string
	done      chan struct{}
	closeOnce sync.Once
	closeErr  error
}

func newWSConn(conn *websocket.Conn, addr string, maxLineLength int) *wsConn {
	conn.SetReadLimit(int64(maxLineLength))

	c := &wsConn{
		conn: conn,
		addr: addr,
		done: make(chan struct{}),
	}
	c.setupReadConnection()
	go c.keepAlive()
	return c
}

// setupReadConnection configures read deadlines and the pong handler.
func (c *wsConn) setupReadConnection() {
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
}

// keepAlive pings the peer until the connection closes. WriteControl may run
// concurrently with WriteMessage.
func (c *wsConn) keepAlive() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				_ = c.Close()
				return
			}
		}
	}
}

func (c *wsConn) ReadLine() (string, error) {
	for len(c.pending) == 0 {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return "", err
		}
		text := strings.ReplaceAll(string(data), "\r\n", "\n")
		c.pending = strings.Split(strings.TrimSuffix(text, "\n"), "\n")
	}

	line := c.pending[0]
	c.pending = c.pending[1:]
	return line, nil
}

func (c *wsConn) WriteLine(line string) error {
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return c.conn.WriteMessage(websocket.TextMessage, []byte(line))
}

func (c *wsConn) Close() error {
	c.closeOnce.Do(func() {
		close(c.done)
		_ = c.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		c.closeErr = c.conn.Close()
	})
	return c.closeErr
}

func (c *wsConn) RemoteAddr() string {
	return c.addr
}
