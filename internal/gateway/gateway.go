// Package gateway bridges WebSocket clients into the TCP chat relay. Each
// upgraded connection dials the relay and pumps bytes both ways; protocol
// state (nickname registration, broadcast) stays entirely in the relay.
package gateway

import (
	"log/slog"
	"net"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const bridgeBufferSize = 1024

// Gateway proxies WebSocket sessions onto the relay's line protocol.
type Gateway struct {
	relayAddr string
	log       *slog.Logger
	origins   *originPolicy
	upgrader  websocket.Upgrader
}

// New creates a gateway that bridges sessions to the relay at relayAddr,
// accepting upgrades only from the given origins ("*" allows all).
func New(relayAddr string, allowedOrigins []string, log *slog.Logger) *Gateway {
	g := &Gateway{
		relayAddr: relayAddr,
		log:       log,
		origins:   newOriginPolicy(allowedOrigins, log),
	}
	g.upgrader = websocket.Upgrader{
		ReadBufferSize:  bridgeBufferSize,
		WriteBufferSize: bridgeBufferSize,
		CheckOrigin:     g.origins.check,
	}
	return g
}

// ServeWS handles WebSocket upgrade requests. It validates the method,
// upgrades the connection, opens a TCP session to the relay, and starts the
// two bridge pumps.
func (g *Gateway) ServeWS(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed. WebSocket endpoint only accepts GET requests.", http.StatusMethodNotAllowed)
		return
	}

	ws, err := g.upgrader.Upgrade(w, r, nil)
	if err != nil {
		g.log.Error("websocket upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}

	relay, err := net.Dial("tcp", g.relayAddr)
	if err != nil {
		g.log.Error("gateway cannot reach relay", "relay", g.relayAddr, "error", err)
		ws.Close()
		return
	}

	session := uuid.NewString()
	g.log.Info("gateway session opened", "session", session, "remote", r.RemoteAddr)

	go g.pumpToRelay(session, ws, relay)
	go g.pumpFromRelay(session, ws, relay)
}

// pumpToRelay forwards each WebSocket message to the relay as one
// newline-terminated line. Closing the relay side on exit unblocks the
// opposite pump.
func (g *Gateway) pumpToRelay(session string, ws *websocket.Conn, relay net.Conn) {
	defer relay.Close()

	for {
		_, msg, err := ws.ReadMessage()
		if err != nil {
			if !isExpectedCloseError(err) {
				g.log.Info("gateway session closed by client", "session", session, "error", err)
			}
			return
		}
		if len(msg) == 0 || msg[len(msg)-1] != '\n' {
			msg = append(msg, '\n')
		}
		if _, err := relay.Write(msg); err != nil {
			g.log.Error("gateway write to relay failed", "session", session, "error", err)
			return
		}
	}
}

// pumpFromRelay forwards relay output to the WebSocket as text messages.
// Prompts are not line-terminated, so raw chunks are forwarded as read.
func (g *Gateway) pumpFromRelay(session string, ws *websocket.Conn, relay net.Conn) {
	defer ws.Close()

	buf := make([]byte, bridgeBufferSize)
	for {
		n, err := relay.Read(buf)
		if err != nil {
			g.log.Info("gateway session closed by relay", "session", session)
			_ = ws.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
		if err := ws.WriteMessage(websocket.TextMessage, buf[:n]); err != nil {
			if !isExpectedCloseError(err) {
				g.log.Error("gateway write to client failed", "session", session, "error", err)
			}
			return
		}
	}
}

// isExpectedCloseError checks if an error is expected during connection closure.
func isExpectedCloseError(err error) bool {
	if err == nil {
		return true
	}
	if websocket.IsCloseError(err,
		websocket.CloseNormalClosure,
		websocket.CloseGoingAway,
		websocket.CloseAbnormalClosure) {
		return true
	}
	errStr := err.Error()
	return strings.Contains(errStr, "use of closed network connection") ||
		strings.Contains(errStr, "websocket: close sent") ||
		strings.Contains(errStr, "broken pipe")
}
