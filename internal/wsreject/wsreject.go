// Package wsreject answers WebSocket upgrade attempts against any gateway
// path with a plain 404. Doorman proxies REST/SOAP/GraphQL/gRPC only;
// rejecting the upgrade handshake needs nothing beyond inspecting the
// Connection/Upgrade headers, so no WebSocket library is imported for a
// feature that does the opposite of accepting a connection.
package wsreject

import (
	"net/http"
	"strings"
)

// IsUpgradeRequest reports whether r is attempting a WebSocket handshake.
func IsUpgradeRequest(r *http.Request) bool {
	return strings.EqualFold(r.Header.Get("Upgrade"), "websocket") &&
		strings.Contains(strings.ToLower(r.Header.Get("Connection")), "upgrade")
}

// Middleware rejects any WebSocket upgrade attempt with 404 before it
// reaches a protocol dispatcher, and otherwise passes the request through.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if IsUpgradeRequest(r) {
			http.NotFound(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}
