// Package testhelpers provides common utilities and helper functions for testing the linechat server.
//
// This package contains reusable test utilities shared across package tests.
// It provides functions for making HTTP requests, asserting response
// properties, and driving line-oriented clients over TCP or WebSocket.
package testhelpers

import (
	"errors"
	"net"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

// DefaultTimeout bounds every read a LineClient performs.
const DefaultTimeout = 2 * time.Second

// AssertStatusCode checks if the HTTP response has the expected status code.
// It fails the test with a descriptive error message if the status codes don't match.
func AssertStatusCode(t *testing.T, resp *http.Response, expected int) {
	t.Helper()
	if resp.StatusCode != expected {
		t.Errorf("Expected status code %d, got %d", expected, resp.StatusCode)
	}
}

// AssertContentType checks if the HTTP response has the expected Content-Type header.
func AssertContentType(t *testing.T, resp *http.Response, expected string) {
	t.Helper()
	contentType := resp.Header.Get("Content-Type")
	if contentType != expected {
		t.Errorf("Expected content type %s, got %s", expected, contentType)
	}
}

// MakeRequest creates and executes an HTTP request, returning the response.
// It includes a 5-second timeout and fails the test if the request cannot be
// created or executed successfully.
func MakeRequest(t *testing.T, method, url string) *http.Response {
	t.Helper()

	client := &http.Client{
		Timeout: 5 * time.Second,
	}

	req, err := http.NewRequest(method, url, http.NoBody)
	if err != nil {
		t.Fatalf("Failed to create request: %v", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("Failed to make request: %v", err)
	}

	return resp
}

// BuildWebSocketURL turns an httptest server URL into its /ws endpoint.
func BuildWebSocketURL(serverURL string) string {
	return "ws" + strings.TrimPrefix(serverURL, "http") + "/ws"
}

// ConnectWebSocket creates a WebSocket connection to the specified URL with
// the given Origin header. The handshake response is returned so callers can
// inspect rejections.
func ConnectWebSocket(url, origin string) (*websocket.Conn, *http.Response, error) {
	dialer := websocket.Dialer{
		HandshakeTimeout: 5 * time.Second,
	}

	headers := http.Header{}
	if origin != "" {
		headers.Set("Origin", origin)
	}

	conn, resp, err := dialer.Dial(url, headers)
	if resp != nil {
		_ = resp.Body.Close()
	}
	return conn, resp, err
}

// LineClient is the client end of a line-oriented connection.
type LineClient struct {
	readChunk func(deadline time.Time) (string, error)
	writeLine func(line string) error
	close     func() error
	pending   []string
}

// DialTCP connects a LineClient to a TCP line listener.
func DialTCP(t *testing.T, addr string) *LineClient {
	t.Helper()

	conn, err := net.DialTimeout("tcp", addr, DefaultTimeout)
	if err != nil {
		t.Fatalf("Failed to dial %s: %v", addr, err)
	}

	var buf []byte
	c := &LineClient{
		writeLine: func(line string) error {
			_, err := conn.Write([]byte(line + "\r\n"))
			return err
		},
		close: conn.Close,
	}
	c.readChunk = func(deadline time.Time) (string, error) {
		if err := conn.SetReadDeadline(deadline); err != nil {
			return "", err
		}
		for {
			if i := strings.Index(string(buf), "\r\n"); i >= 0 {
				line := string(buf[:i])
				buf = buf[i+2:]
				return line, nil
			}
			chunk := make([]byte, 1024)
			n, err := conn.Read(chunk)
			buf = append(buf, chunk[:n]...)
			if err != nil && n == 0 {
				return "", err
			}
		}
	}
	t.Cleanup(func() { _ = c.Close() })
	return c
}

// DialWebSocket connects a LineClient to a /ws endpoint.
func DialWebSocket(t *testing.T, url, origin string) *LineClient {
	t.Helper()

	conn, _, err := ConnectWebSocket(url, origin)
	if err != nil {
		t.Fatalf("Failed to connect WebSocket %s: %v", url, err)
	}

	c := &LineClient{
		readChunk: func(deadline time.Time) (string, error) {
			if err := conn.SetReadDeadline(deadline); err != nil {
				return "", err
			}
			_, data, err := conn.ReadMessage()
			return string(data), err
		},
		writeLine: func(line string) error {
			return conn.WriteMessage(websocket.TextMessage, []byte(line))
		},
		close: conn.Close,
	}
	t.Cleanup(func() { _ = c.Close() })
	return c
}

// Send writes one line.
func (c *LineClient) Send(t *testing.T, line string) {
	t.Helper()
	if err := c.writeLine(line); err != nil {
		t.Fatalf("Failed to send %q: %v", line, err)
	}
}

// ReadLine returns the next line, splitting multi-line messages.
func (c *LineClient) ReadLine(timeout time.Duration) (string, error) {
	deadline := time.Now().Add(timeout)
	for len(c.pending) == 0 {
		chunk, err := c.readChunk(deadline)
		if err != nil {
			return "", err
		}
		c.pending = strings.Split(chunk, "\n")
	}
	line := c.pending[0]
	c.pending = c.pending[1:]
	return line, nil
}

// Expect reads len(want) lines and compares them in order.
func (c *LineClient) Expect(t *testing.T, want ...string) {
	t.Helper()
	for i, w := range want {
		got, err := c.ReadLine(DefaultTimeout)
		if err != nil {
			t.Fatalf("Reading line %d (want %q): %v", i, w, err)
		}
		if got != w {
			t.Fatalf("Line %d: got %q, want %q", i, got, w)
		}
	}
}

// ExpectNothing asserts that no line arrives within d.
func (c *LineClient) ExpectNothing(t *testing.T, d time.Duration) {
	t.Helper()
	line, err := c.ReadLine(d)
	if err == nil {
		t.Fatalf("Expected no message, got %q", line)
	}
	var netErr net.Error
	if !errors.As(err, &netErr) || !netErr.Timeout() {
		t.Fatalf("Expected a read timeout, got %v", err)
	}
}

// ExpectClosed reads until the connection reports an error other than a
// timeout, failing if that does not happen within DefaultTimeout.
func (c *LineClient) ExpectClosed(t *testing.T) {
	t.Helper()
	deadline := time.Now().Add(DefaultTimeout)
	for time.Now().Before(deadline) {
		_, err := c.ReadLine(time.Until(deadline))
		if err == nil {
			continue
		}
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			break
		}
		return
	}
	t.Fatal("Expected the server to close the connection")
}

// Login reads the banner and logs in as name.
func (c *LineClient) Login(t *testing.T, name string) {
	t.Helper()
	c.Expect(t, "Welcome to the fenfiresong chat server", "Login Name?")
	c.Send(t, name)
	c.Expect(t, "Welcome, "+name+"!")
}

// Close closes the connection.
func (c *LineClient) Close() error {
	return c.close()
}
