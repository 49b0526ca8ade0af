// Package notify pushes appointment events to connected patients and doctors
// over WebSocket.
package notify

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"clinicbook/internal/domain"
	"clinicbook/internal/pkg/logging"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	maxMsgSize = 4 * 1024
	sendBuffer = 64
)

// Event is the frame written to clients.
type Event struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload,omitempty"`
}

const EventPong = "pong"

type connection struct {
	subjectID string
	conn      *websocket.Conn
	send      chan []byte
}

// Hub tracks live sockets per subject. A subject may hold several sockets,
// one per open tab or device.
type Hub struct {
	mu          sync.RWMutex
	connections map[string]map[*connection]struct{}
	logger      *zap.Logger
}

func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		connections: make(map[string]map[*connection]struct{}),
		logger:      logging.OrNop(logger).Named("notify"),
	}
}

// Publish delivers an appointment event to its patient and doctor. Slow or
// offline clients miss the event; the ledger stays the source of truth.
func (h *Hub) Publish(_ context.Context, ev domain.AppointmentEvent) {
	data, err := json.Marshal(Event{Type: string(ev.Type), Payload: ev})
	if err != nil {
		h.logger.Warn("encode event failed", zap.Error(err))
		return
	}
	for _, id := range ev.Recipients() {
		h.send(id, data)
	}
}

func (h *Hub) send(subjectID string, data []byte) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	delivered := 0
	for c := range h.connections[subjectID] {
		select {
		case c.send <- data:
			delivered++
		default:
			h.logger.Warn("dropping event for slow client", zap.String("subject_id", subjectID))
		}
	}
	return delivered
}

// reply queues a frame for one socket unless it was already dropped.
func (h *Hub) reply(c *connection, data []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if _, ok := h.connections[c.subjectID][c]; !ok {
		return
	}
	select {
	case c.send <- data:
	default:
	}
}

// Online reports how many sockets the subject holds.
func (h *Hub) Online(subjectID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.connections[subjectID])
}

// Serve registers the socket and pumps it until the client disconnects.
func (h *Hub) Serve(conn *websocket.Conn, subjectID string) {
	c := &connection{
		subjectID: subjectID,
		conn:      conn,
		send:      make(chan []byte, sendBuffer),
	}
	h.register(c)

	go h.writePump(c)
	h.readPump(c)
}

// Close drops every socket.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, set := range h.connections {
		for c := range set {
			close(c.send)
		}
		delete(h.connections, id)
	}
}

func (h *Hub) register(c *connection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.connections[c.subjectID]
	if !ok {
		set = make(map[*connection]struct{})
		h.connections[c.subjectID] = set
	}
	set[c] = struct{}{}
}

func (h *Hub) unregister(c *connection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set := h.connections[c.subjectID]
	if _, ok := set[c]; !ok {
		return
	}
	delete(set, c)
	close(c.send)
	if len(set) == 0 {
		delete(h.connections, c.subjectID)
	}
}

func (h *Hub) readPump(c *connection) {
	defer func() {
		h.unregister(c)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMsgSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, msg, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Debug("socket closed", zap.String("subject_id", c.subjectID), zap.Error(err))
			}
			return
		}

		var in struct {
			Type string `json:"type"`
		}
		if json.Unmarshal(msg, &in) != nil || in.Type != "ping" {
			continue
		}
		if data, err := json.Marshal(Event{Type: EventPong}); err == nil {
			h.reply(c, data)
		}
	}
}

func (h *Hub) writePump(c *connection) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
