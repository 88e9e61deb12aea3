// Package gateway wires HTTP handlers into a ServeMux via routing helpers.
package gateway

import (
	"fmt"
	"net/http"
)

// SetupRoutes configures and returns an HTTP ServeMux with the gateway
// routes: health check and the WebSocket bridge endpoint.
func SetupRoutes(g *Gateway) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/", HealthHandler)
	mux.HandleFunc("/ws", g.ServeWS)
	return mux
}

// HealthHandler provides a simple health check endpoint that returns service
// status as plain text.
func HealthHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	_, _ = fmt.Fprintf(w, "linechat relay is running!")
}
