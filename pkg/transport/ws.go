// Package transport bridges the Broadcast Hub to external streams.
package transport

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/service-weaver/probe-engine/pkg/hub"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// statusUpdateFrame is the wire shape for one StatusUpdate sent to a connected viewer.
type statusUpdateFrame struct {
	ServiceID int64  `json:"service_id"`
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

// WebsocketHandler upgrades inbound requests to the bidirectional stream that fans Hub
// publications out to one viewer.
type WebsocketHandler struct {
	hub *hub.Hub
}

// NewWebsocketHandler builds a handler that registers one Hub subscriber per connection.
func NewWebsocketHandler(h *hub.Hub) *WebsocketHandler {
	return &WebsocketHandler{hub: h}
}

// ServeHTTP upgrades the connection, registers a subscriber, and runs its read/write pumps
// until the client disconnects or a write fails.
func (w *WebsocketHandler) ServeHTTP(rw http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(rw, r, nil)
	if err != nil {
		log.Printf("transport: websocket upgrade failed: %v", err)
		return
	}

	sub := w.hub.Subscribe()
	go readPump(conn, sub)
	writePump(conn, sub)
}

// readPump drains inbound frames so client keep-alives don't stall the TCP connection; their
// content is ignored. On any read error (including client close) it closes the subscriber.
func readPump(conn *websocket.Conn, sub *hub.Subscriber) {
	defer sub.Close()
	defer conn.Close()

	conn.SetReadLimit(4096)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

// writePump encodes every StatusUpdate from the subscriber's inbox as one JSON frame. It sends
// periodic pings to detect dead connections and unregisters the subscriber on any write error.
func writePump(conn *websocket.Conn, sub *hub.Subscriber) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		sub.Close()
		conn.Close()
	}()

	messages := make(chan hub.StatusUpdate)
	done := make(chan struct{})
	go func() {
		defer close(messages)
		for {
			msg, ok := sub.NextMessage()
			if !ok {
				return
			}
			select {
			case messages <- msg:
			case <-done:
				return
			}
		}
	}()
	defer close(done)

	for {
		select {
		case msg, ok := <-messages:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			frame := statusUpdateFrame{ServiceID: msg.ServiceID, Status: msg.Status, Timestamp: msg.Timestamp}
			data, err := json.Marshal(frame)
			if err != nil {
				continue
			}
			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
