package dashboard

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/gridswap/swapdash/internal/playback"
	"github.com/gridswap/swapdash/internal/store"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

const (
	wsWriteWait  = 10 * time.Second
	wsPingPeriod = 30 * time.Second
)

// wsMessage is the envelope pushed to dashboard WebSocket clients.
type wsMessage struct {
	Type     string             `json:"type"`
	Playback *playback.Snapshot `json:"playback,omitempty"`
	Event    *store.Event       `json:"event,omitempty"`
}

// SessionWebSocket upgrades the connection and pushes playback snapshots
// and store change events to the browser. Slow clients are disconnected
// rather than allowed to stall the playback engine: the engine's listener
// drops messages when the send buffer is full.
func (h *Handlers) SessionWebSocket(w http.ResponseWriter, r *http.Request) {
	session := sessionFrom(r)

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.controller.logger.Warnf("websocket upgrade failed: %v", err)
		return
	}

	send := make(chan wsMessage, 64)

	// Both registrations are removed when the connection ends, so reconnects
	// do not accumulate dead listeners on the session's engines.
	removePlayback := session.Playback.AddListener(func(snap playback.Snapshot) {
		msg := wsMessage{Type: "playback", Playback: &snap}
		select {
		case send <- msg:
		default:
		}
	})
	defer removePlayback()
	unsubscribe := session.Store.Subscribe(func(e store.Event) {
		msg := wsMessage{Type: "store", Event: &e}
		select {
		case send <- msg:
		default:
		}
	})
	defer unsubscribe()

	// Reader: we never expect client messages, but reading drives the close
	// handshake and detects dropped connections.
	done := make(chan struct{})
	go func() {
		defer close(done)
		conn.SetReadLimit(512)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(wsPingPeriod)
	defer ticker.Stop()
	defer conn.Close()

	for {
		select {
		case msg := <-send:
			conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			payload, err := json.Marshal(msg)
			if err != nil {
				h.controller.logger.Errorf("websocket marshal failed: %v", err)
				continue
			}
			if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-done:
			return
		case <-h.controller.ctx.Done():
			conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"))
			return
		}
	}
}
