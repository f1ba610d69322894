package api

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

const hubWriteWait = 5 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Hub broadcasts engine events to websocket subscribers. It satisfies
// ports.EventEmitter, so the use cases stay unaware of transport.
type Hub struct {
	log *logrus.Logger

	mu    sync.Mutex
	conns map[*websocket.Conn]bool
}

func NewHub(log *logrus.Logger) *Hub {
	return &Hub{log: log, conns: map[*websocket.Conn]bool{}}
}

type hubFrame struct {
	Event   string    `json:"event"`
	Payload any       `json:"payload"`
	Time    time.Time `json:"time"`
}

// Emit fans the event out to every subscriber. A client that cannot
// take the write within the deadline is dropped, never waited on.
func (h *Hub) Emit(event string, payload any) {
	data, err := json.Marshal(hubFrame{Event: event, Payload: payload, Time: time.Now().UTC()})
	if err != nil {
		h.log.WithError(err).WithField("event", event).Warn("failed to encode event")
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.conns {
		conn.SetWriteDeadline(time.Now().Add(hubWriteWait))
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			delete(h.conns, conn)
			conn.Close()
		}
	}
}

func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.WithError(err).Warn("websocket upgrade failed")
		return
	}
	h.mu.Lock()
	h.conns[conn] = true
	count := len(h.conns)
	h.mu.Unlock()
	h.log.WithField("clients", count).Debug("event subscriber connected")
	go h.read(conn)
}

// read discards inbound messages and exists to notice the close.
func (h *Hub) read(conn *websocket.Conn) {
	defer h.drop(conn)
	conn.SetReadLimit(512)
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) drop(conn *websocket.Conn) {
	h.mu.Lock()
	delete(h.conns, conn)
	h.mu.Unlock()
	conn.Close()
}

// Close disconnects every subscriber, used on shutdown.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.conns {
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
			time.Now().Add(hubWriteWait))
		conn.Close()
		delete(h.conns, conn)
	}
}
