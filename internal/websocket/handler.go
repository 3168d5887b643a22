package websocket

import (
	"net/http"

	ws "github.com/coder/websocket"

	"github.com/dukerupert/fridgly/internal/auth"
)

// HandleWebSocket upgrades an authenticated request and streams the
// caller's group events until the connection closes.
func HandleWebSocket(hub *Hub, originPatterns []string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		groupID := auth.GroupID(r.Context())
		if groupID == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		conn, err := ws.Accept(w, r, &ws.AcceptOptions{
			OriginPatterns: originPatterns,
		})
		if err != nil {
			hub.logger.Warn("websocket accept", "error", err)
			return
		}
		defer conn.CloseNow()

		NewClient(hub, conn, groupID).Run(r.Context())
	}
}
