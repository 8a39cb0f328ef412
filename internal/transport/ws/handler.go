package ws

import (
	"log"
	"net/http"

	"nhooyr.io/websocket"

	"github.com/fisch192/beefactory/internal/transport/http/middleware"
)

// ServeWS returns an HTTP handler that upgrades to WebSocket.
// Auth is done via ?token=xxx query param (WebSocket can't send headers).
// A bad token terminates the handshake; no error event is ever emitted
// because no authenticated connection exists to carry one.
func ServeWS(hub *Hub, sender MessageSender, jwtSecret string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tokenStr := r.URL.Query().Get("token")
		if tokenStr == "" {
			http.Error(w, "missing token", http.StatusUnauthorized)
			return
		}

		principal, err := middleware.ParseToken(tokenStr, jwtSecret)
		if err != nil {
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}

		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			InsecureSkipVerify: true, // Allow any origin (dev mode)
		})
		if err != nil {
			log.Printf("ws: accept error: %v", err)
			return
		}

		log.Printf("ws: user %s connected", principal.ID)
		client := NewClient(hub, conn, principal, sender)

		go client.WritePump()
		go client.ReadPump()
	}
}
