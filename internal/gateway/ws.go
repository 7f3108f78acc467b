package gateway

import (
	"encoding/json"
	"net/http"

	"github.com/coder/websocket"
)

// handleEvents streams bank events over a WebSocket. One JSON-encoded
// memory.Event per text message. The stream ends when the client
// disconnects or the gateway shuts down.
func (g *Gateway) handleEvents() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if g.events == nil {
			http.Error(w, "event feed not available", http.StatusServiceUnavailable)
			return
		}

		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			g.logger.Error("websocket accept failed", "error", err)
			return
		}
		defer func() {
			_ = conn.Close(websocket.StatusInternalError, "unexpected close")
		}()

		events, cancel := g.events.Subscribe()
		defer cancel()

		// Drain client frames so pings and close frames are processed.
		readCtx := conn.CloseRead(r.Context())

		for {
			select {
			case <-readCtx.Done():
				_ = conn.Close(websocket.StatusNormalClosure, "client gone")
				return
			case evt, ok := <-events:
				if !ok {
					_ = conn.Close(websocket.StatusGoingAway, "feed closed")
					return
				}
				data, err := json.Marshal(evt)
				if err != nil {
					g.logger.Error("marshal event failed", "error", err)
					continue
				}
				if err := conn.Write(readCtx, websocket.MessageText, data); err != nil {
					return
				}
			}
		}
	}
}
