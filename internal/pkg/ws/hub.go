package ws

import (
	"encoding/json"
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Hub tracks admin dashboard connections. An admin may hold several
// (tabs, reconnects).
type Hub struct {
	clients map[string]map[*Client]struct{}
	mu      sync.RWMutex
	log     *zap.Logger
}

type Client struct {
	Username string
	Conn     *websocket.Conn
	mu       sync.Mutex // serializes writes
}

type Message struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

func NewHub(log *zap.Logger) *Hub {
	return &Hub{
		clients: make(map[string]map[*Client]struct{}),
		log:     log,
	}
}

func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.clients[client.Username] == nil {
		h.clients[client.Username] = make(map[*Client]struct{})
	}
	h.clients[client.Username][client] = struct{}{}

	h.log.Info("admin connected",
		zap.String("username", client.Username),
		zap.Int("user_conns", len(h.clients[client.Username])))
}

func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if conns, ok := h.clients[client.Username]; ok {
		delete(conns, client)
		if len(conns) == 0 {
			delete(h.clients, client.Username)
		}
	}
	h.log.Info("admin disconnected", zap.String("username", client.Username))
}

// Broadcast sends msg to every connection.
func (h *Hub) Broadcast(msg *Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	h.mu.RLock()
	clients := make([]*Client, 0)
	for _, conns := range h.clients {
		for c := range conns {
			clients = append(clients, c)
		}
	}
	h.mu.RUnlock()

	h.write(clients, data)
	return nil
}

// SendToUser sends msg to every connection of one admin.
func (h *Hub) SendToUser(username string, msg *Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	h.mu.RLock()
	conns := h.clients[username]
	clients := make([]*Client, 0, len(conns))
	for c := range conns {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	h.write(clients, data)
	return nil
}

// write runs outside the hub lock.
func (h *Hub) write(clients []*Client, data []byte) {
	for _, c := range clients {
		c.mu.Lock()
		err := c.Conn.WriteMessage(websocket.TextMessage, data)
		c.mu.Unlock()
		if err != nil {
			h.log.Warn("websocket write failed", zap.String("username", c.Username), zap.Error(err))
		}
	}
}

func (h *Hub) IsOnline(username string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	conns, ok := h.clients[username]
	return ok && len(conns) > 0
}

func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	total := 0
	for _, conns := range h.clients {
		total += len(conns)
	}
	return total
}
