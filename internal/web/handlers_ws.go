package web

// handlers_ws.go mirrors the state stream over a WebSocket for clients that
// prefer a bidirectional connection. The server only writes; reads exist to
// notice the peer closing.

import (
	"context"
	"net/http"
	"time"

	"github.com/JonMunkholm/olympics/internal/logging"
	"github.com/JonMunkholm/olympics/internal/stream"
	"github.com/gorilla/websocket"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = (wsPongWait * 9) / 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
}

// WSMessage is the envelope written for every state change.
type WSMessage struct {
	Type  string        `json:"type"`
	State StateResponse `json:"state"`
}

func (s *Server) handleWebSocketState(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the HTTP error.
		logging.FromContext(r.Context()).Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	s.metrics.StreamOpened("websocket")
	defer s.metrics.StreamClosed("websocket")

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	logger := logging.WithFields(ctx, "stream", "ws-state")

	go s.wsReadLoop(conn, cancel)

	states := stream.Map(s.store.State(), newStateResponse).Subscribe(ctx)
	ticker := time.NewTicker(wsPingPeriod)
	defer ticker.Stop()

	for {
		select {
		case st, ok := <-states:
			if !ok {
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteJSON(WSMessage{Type: "state", State: st}); err != nil {
				logger.Debug("websocket write failed", "error", err)
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(wsWriteWait))
			return
		}
	}
}

// wsReadLoop discards client messages and cancels the connection context
// once the peer closes or stops answering pings.
func (s *Server) wsReadLoop(conn *websocket.Conn, cancel context.CancelFunc) {
	defer cancel()

	conn.SetReadLimit(512)
	_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
