// Package integration contains end-to-end tests for the WebSocket gateway,
// verifying that browser clients bridged onto the TCP relay take part in the
// same chat as native line-protocol clients.
package integration

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"linechat/internal/gateway"
	"linechat/test/testhelpers"
)

const testOrigin = "http://localhost:8080"

func startGatewayServer(t *testing.T, relayAddr string) *httptest.Server {
	t.Helper()

	gw := gateway.New(relayAddr, []string{testOrigin}, testhelpers.DiscardLogger())
	server := httptest.NewServer(gateway.SetupRoutes(gw))
	t.Cleanup(server.Close)
	return server
}

func websocketURL(httpURL string) string {
	return "ws" + strings.TrimPrefix(httpURL, "http") + "/ws"
}

// TestGatewayBridgesRegistration verifies that a WebSocket client is walked
// through the same nickname protocol as a TCP client.
func TestGatewayBridgesRegistration(t *testing.T) {
	relay := testhelpers.StartRelay(t)
	server := startGatewayServer(t, relay.Addr())

	ws := testhelpers.ConnectWebSocket(t, websocketURL(server.URL), testOrigin)
	testhelpers.ReadWebSocketUntil(t, ws, "Enter nickname")
	testhelpers.SendWebSocketLine(t, ws, "walter")
	welcome := testhelpers.ReadWebSocketUntil(t, ws, "Welcome!")
	if !strings.Contains(welcome, "only user here") {
		t.Errorf("WebSocket welcome %q is not the alone message", welcome)
	}
}

// TestGatewayAndTCPClientsShareTheChat verifies fan-out across transports
// in both directions.
func TestGatewayAndTCPClientsShareTheChat(t *testing.T) {
	relay := testhelpers.StartRelay(t)
	server := startGatewayServer(t, relay.Addr())

	ws := testhelpers.ConnectWebSocket(t, websocketURL(server.URL), testOrigin)
	testhelpers.ReadWebSocketUntil(t, ws, "Enter nickname")
	testhelpers.SendWebSocketLine(t, ws, "walter")
	testhelpers.ReadWebSocketUntil(t, ws, "Welcome!")

	bob := testhelpers.DialRelay(t, relay.Addr())
	welcome := testhelpers.JoinChat(t, bob, "bob")
	if !strings.Contains(welcome, "walter") {
		t.Fatalf("TCP welcome %q does not list the websocket user", welcome)
	}
	testhelpers.ReadWebSocketUntil(t, ws, "bob joined")

	testhelpers.SendLine(t, bob, "hello walter")
	got := testhelpers.ReadWebSocketUntil(t, ws, "bob: hello walter")
	if !strings.Contains(got, "bob: hello walter") {
		t.Fatalf("WebSocket client missed the TCP broadcast: %q", got)
	}

	testhelpers.SendWebSocketLine(t, ws, "hello bob")
	tcpView := testhelpers.ReadUntil(t, bob, "walter: hello bob")
	if !strings.Contains(tcpView, "walter: hello bob") {
		t.Fatalf("TCP client missed the websocket broadcast: %q", tcpView)
	}
}

// TestGatewayRejectsDisallowedOrigin verifies the origin policy blocks
// upgrades from origins outside the configured set.
func TestGatewayRejectsDisallowedOrigin(t *testing.T) {
	relay := testhelpers.StartRelay(t)
	server := startGatewayServer(t, relay.Addr())

	dialer := websocket.Dialer{HandshakeTimeout: 5 * time.Second}
	headers := http.Header{}
	headers.Set("Origin", "http://evil.example")

	conn, resp, err := dialer.Dial(websocketURL(server.URL), headers)
	if resp != nil {
		_ = resp.Body.Close()
	}
	if err == nil {
		_ = conn.Close()
		t.Fatal("Upgrade succeeded from a disallowed origin")
	}
}
