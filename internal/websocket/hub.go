package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gausamvardhan/storefront-backend/internal/app/service"
	"github.com/gausamvardhan/storefront-backend/pkg/logger"
)

const (
	maxMessagesPerSecond = 10

	MessageCartUpdated = "cart_updated"
	MessageSync        = "sync"
)

// ClientMessage is what connected storefronts may send.
type ClientMessage struct {
	Type string `json:"type"`
}

// CartMessage is pushed to every open session of a user.
type CartMessage struct {
	Type string           `json:"type"`
	Cart service.CartView `json:"cart"`
}

// SnapshotFunc returns the current cart for a user.
type SnapshotFunc func(userID uint) service.CartView

type Client struct {
	Hub    *Hub
	Conn   *Conn
	UserID uint
	Send   chan []byte

	// sendMu guards Send against writes after close.
	sendMu sync.Mutex
	closed bool

	rateMu        sync.Mutex
	messageCount  int
	lastResetTime time.Time
}

func NewClient(hub *Hub, conn *Conn, userID uint) *Client {
	return &Client{
		Hub:    hub,
		Conn:   conn,
		UserID: userID,
		Send:   make(chan []byte, 32),
	}
}

// deliver queues data without blocking. It reports false when the buffer is
// full or the client has been closed.
func (c *Client) deliver(data []byte) bool {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.Send <- data:
		return true
	default:
		return false
	}
}

func (c *Client) close() {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.Send)
	}
}

type userMessage struct {
	userID uint
	data   []byte
}

// Hub fans cart changes out to all of a user's connected devices.
type Hub struct {
	clients   map[uint][]*Client
	register  chan *Client
	broadcast chan userMessage
	snapshot  SnapshotFunc

	mu sync.RWMutex
}

func NewHub(snapshot SnapshotFunc) *Hub {
	return &Hub{
		clients:   make(map[uint][]*Client),
		register:  make(chan *Client, 256),
		broadcast: make(chan userMessage, 1024),
		snapshot:  snapshot,
	}
}

// Run processes registrations and deliveries until ctx is done.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.UserID] = append(h.clients[client.UserID], client)
			sessions := len(h.clients[client.UserID])
			h.mu.Unlock()
			logger.Info("WebSocket client registered", map[string]interface{}{
				"user_id":        client.UserID,
				"total_sessions": sessions,
			})

		case msg := <-h.broadcast:
			var slow []*Client
			h.mu.RLock()
			for _, client := range h.clients[msg.userID] {
				if !client.deliver(msg.data) {
					slow = append(slow, client)
				}
			}
			h.mu.RUnlock()

			for _, client := range slow {
				logger.Warn("Client send buffer full, disconnecting", map[string]interface{}{
					"user_id": msg.userID,
				})
				h.remove(client)
			}
		}
	}
}

func (h *Hub) remove(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	list, ok := h.clients[client.UserID]
	if !ok {
		return
	}
	kept := make([]*Client, 0, len(list))
	found := false
	for _, c := range list {
		if c == client {
			found = true
			continue
		}
		kept = append(kept, c)
	}
	if !found {
		return
	}
	if len(kept) == 0 {
		delete(h.clients, client.UserID)
	} else {
		h.clients[client.UserID] = kept
	}
	client.close()

	logger.Info("WebSocket client unregistered", map[string]interface{}{
		"user_id":            client.UserID,
		"remaining_sessions": len(kept),
	})
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for userID, list := range h.clients {
		for _, c := range list {
			c.close()
		}
		delete(h.clients, userID)
	}
}

// SendToUser queues message for every session of userID. Messages are
// dropped when the hub is saturated.
func (h *Hub) SendToUser(userID uint, message interface{}) error {
	data, err := json.Marshal(message)
	if err != nil {
		logger.Error("Failed to marshal websocket message", err, nil)
		return err
	}

	select {
	case h.broadcast <- userMessage{userID: userID, data: data}:
	default:
		logger.Warn("Broadcast channel full, message dropped", map[string]interface{}{
			"user_id": userID,
		})
	}
	return nil
}

// NotifyCart pushes the new cart to the user's open sessions.
func (h *Hub) NotifyCart(userID uint, view service.CartView) {
	_ = h.SendToUser(userID, CartMessage{Type: MessageCartUpdated, Cart: view})
}

func (h *Hub) Register(client *Client) {
	h.register <- client
}

// Unregister drops client and closes its Send channel. It is safe to call
// more than once and after Run has returned.
func (h *Hub) Unregister(client *Client) {
	h.remove(client)
}

func (h *Hub) IsUserOnline(userID uint) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.clients[userID]
	return ok
}

// SessionCount returns how many sessions userID has open.
func (h *Hub) SessionCount(userID uint) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID])
}

func (c *Client) allow() bool {
	c.rateMu.Lock()
	defer c.rateMu.Unlock()
	now := time.Now()
	if now.Sub(c.lastResetTime) >= time.Second {
		c.messageCount = 0
		c.lastResetTime = now
	}
	c.messageCount++
	return c.messageCount <= maxMessagesPerSecond
}

// HandleClientMessage answers a sync request with the current cart.
func (h *Hub) HandleClientMessage(client *Client, message []byte) {
	if !client.allow() {
		logger.Warn("Rate limit exceeded", map[string]interface{}{
			"user_id": client.UserID,
		})
		return
	}

	var msg ClientMessage
	if err := json.Unmarshal(message, &msg); err != nil {
		logger.Warn("Failed to parse client message", map[string]interface{}{
			"user_id": client.UserID,
			"error":   err.Error(),
		})
		return
	}

	if msg.Type == MessageSync && h.snapshot != nil {
		data, err := json.Marshal(CartMessage{Type: MessageCartUpdated, Cart: h.snapshot(client.UserID)})
		if err != nil {
			return
		}
		client.deliver(data)
	}
}
