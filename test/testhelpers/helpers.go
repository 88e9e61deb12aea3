// Package testhelpers provides common utilities and helper functions for
// testing the linechat relay.
//
// This package contains reusable test utilities shared across package-level
// and integration tests: starting a throwaway relay on an ephemeral port,
// speaking the line protocol over TCP, and bridging through the WebSocket
// gateway.
package testhelpers

import (
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"linechat/internal/server"
)

// ReadTimeout bounds every protocol read in tests.
const ReadTimeout = 3 * time.Second

// DiscardLogger returns a logger that swallows relay diagnostics so test
// output stays readable.
func DiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// StartRelay starts a relay on an ephemeral local port and registers its
// shutdown with the test cleanup. It returns the running relay.
func StartRelay(t *testing.T) *server.Relay {
	t.Helper()

	cfg := server.NewConfig()
	cfg.Port = 0
	relay, err := server.NewRelay(cfg, DiscardLogger())
	if err != nil {
		t.Fatalf("Failed to start relay: %v", err)
	}
	go relay.Run()
	t.Cleanup(relay.Stop)
	return relay
}

// DialRelay opens a TCP connection to the relay and registers its close with
// the test cleanup.
func DialRelay(t *testing.T, addr string) net.Conn {
	t.Helper()

	conn, err := net.Dial("tcp", addr)
	if err != nil {
		t.Fatalf("Failed to dial relay at %s: %v", addr, err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

// SendLine writes one newline-terminated line to the connection.
func SendLine(t *testing.T, conn net.Conn, line string) {
	t.Helper()

	if _, err := conn.Write([]byte(line + "\n")); err != nil {
		t.Fatalf("Failed to send line %q: %v", line, err)
	}
}

// ReadUntil reads from the connection until the accumulated output contains
// want, and returns everything read. It fails the test on timeout so a
// missing message produces a useful diagnostic instead of a hang.
func ReadUntil(t *testing.T, conn net.Conn, want string) string {
	t.Helper()

	if err := conn.SetReadDeadline(time.Now().Add(ReadTimeout)); err != nil {
		t.Fatalf("Failed to set read deadline: %v", err)
	}

	var sb strings.Builder
	buf := make([]byte, 256)
	for !strings.Contains(sb.String(), want) {
		n, err := conn.Read(buf)
		if err != nil {
			t.Fatalf("Waiting for %q, got %q: %v", want, sb.String(), err)
		}
		sb.Write(buf[:n])
	}
	return sb.String()
}

// JoinChat drives one connection through registration: it waits for the
// nickname prompt, claims the nickname, and waits for the welcome message.
// It returns the welcome text.
func JoinChat(t *testing.T, conn net.Conn, nickname string) string {
	t.Helper()

	ReadUntil(t, conn, "Enter nickname")
	SendLine(t, conn, nickname)

	out := ReadUntil(t, conn, "Welcome!")
	// A non-alone welcome is two lines; keep reading until the user
	// listing arrives in case the read split the message.
	if !strings.Contains(out, "only user here") && !strings.Contains(out, "Users:") {
		out += ReadUntil(t, conn, "Users:")
	}
	return out
}

// ConnectWebSocket opens a WebSocket connection to the gateway with an
// allowed Origin header and registers its close with the test cleanup.
func ConnectWebSocket(t *testing.T, url, origin string) *websocket.Conn {
	t.Helper()

	dialer := websocket.Dialer{HandshakeTimeout: 5 * time.Second}
	headers := http.Header{}
	headers.Set("Origin", origin)

	conn, resp, err := dialer.Dial(url, headers)
	if resp != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		t.Fatalf("Failed to connect websocket to %s: %v", url, err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

// ReadWebSocketUntil reads text messages until the accumulated output
// contains want, and returns everything read.
func ReadWebSocketUntil(t *testing.T, conn *websocket.Conn, want string) string {
	t.Helper()

	if err := conn.SetReadDeadline(time.Now().Add(ReadTimeout)); err != nil {
		t.Fatalf("Failed to set websocket read deadline: %v", err)
	}

	var sb strings.Builder
	for !strings.Contains(sb.String(), want) {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("Waiting for %q, got %q: %v", want, sb.String(), err)
		}
		sb.Write(msg)
	}
	return sb.String()
}

// SendWebSocketLine sends one chat line as a text message.
func SendWebSocketLine(t *testing.T, conn *websocket.Conn, line string) {
	t.Helper()

	if err := conn.WriteMessage(websocket.TextMessage, []byte(line)); err != nil {
		t.Fatalf("Failed to send websocket line %q: %v", line, err)
	}
}
