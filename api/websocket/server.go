package websocket

import (
	"net"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

// ServeWS upgrades the request and attaches a client to the hub. Clients are
// limited per IP; the ID comes from client_id or is generated.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	ip := getClientIP(r)
	if h.clientsFromIP(ip) >= h.config.MaxClientsPerIP {
		http.Error(w, "Too many connections", http.StatusTooManyRequests)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Debug("websocket upgrade failed", "ip", ip, "error", err)
		return
	}

	clientID := r.URL.Query().Get("client_id")
	if clientID == "" {
		clientID = uuid.New().String()
	}

	client := NewClient(h, conn, clientID, ip)
	select {
	case h.register <- client:
	case <-h.done:
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}

// getClientIP extracts the client IP from the request
func getClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
