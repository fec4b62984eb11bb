package server

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/venkat-chanest/ofdm-chanest/internal/telemetry"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// WSMessage is the envelope for every message pushed to dashboard clients.
type WSMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// WSHub fans reports and status changes out to every connected dashboard.
type WSHub struct {
	clients map[*websocket.Conn]bool
	mu      sync.RWMutex
}

// NewWSHub creates an empty hub.
func NewWSHub() *WSHub {
	return &WSHub{clients: make(map[*websocket.Conn]bool)}
}

// AddClient registers a new websocket connection.
func (h *WSHub) AddClient(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[conn] = true
	log.Info("dashboard client connected", "total", len(h.clients))
}

// RemoveClient closes and forgets a connection.
func (h *WSHub) RemoveClient(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, conn)
	conn.Close()
	log.Info("dashboard client disconnected", "remaining", len(h.clients))
}

// Broadcast sends msg to every connected client, dropping ones that error.
func (h *WSHub) Broadcast(msg WSMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Error("marshal websocket message", "err", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for conn := range h.clients {
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			log.Warn("websocket write failed, dropping client", "err", err)
			go h.RemoveClient(conn)
		}
	}
}

// BroadcastReport pushes a freshly written channel report to every client.
func (h *WSHub) BroadcastReport(r telemetry.ChannelReport) {
	h.Broadcast(WSMessage{Type: "report", Payload: r})
}

// BroadcastStatus pushes a monitor lifecycle event (e.g. "packet_detected",
// "realign_failed") to every client.
func (h *WSHub) BroadcastStatus(status, message string) {
	h.Broadcast(WSMessage{
		Type: "status",
		Payload: map[string]string{
			"status":  status,
			"message": message,
		},
	})
}
