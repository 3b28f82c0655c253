package events

import (
	"encoding/json"
	"log"
	"time"

	websocket "github.com/gofiber/contrib/websocket"
)

// Hub fans change notifications out to every connected view. Clients
// and admin dashboards re-resolve availability when a frame for a
// table they render arrives; the hub carries no payload beyond the
// table, the action, and the affected date.
type Hub struct {
	clients    map[*Client]struct{}
	register   chan *Client
	unregister chan *Client
	broadcast  chan *Change
}

type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
}

type Change struct {
	Type   string `json:"type"`
	Table  string `json:"table"`
	Action string `json:"action"`
	Date   string `json:"date,omitempty"`
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *Change, 64),
	}
}

func NewClient(hub *Hub, conn *websocket.Conn) *Client {
	return &Client{
		hub:  hub,
		conn: conn,
		send: make(chan []byte, 32),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.clients[client] = struct{}{}
		case client := <-h.unregister:
			if _, exists := h.clients[client]; exists {
				delete(h.clients, client)
				close(client.send)
			}
		case change := <-h.broadcast:
			h.deliver(change)
		}
	}
}

func (h *Hub) Register(client *Client) {
	h.register <- client
}

func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// Publish enqueues a change notification without blocking the writer
// that committed it. A full queue drops the frame; viewers recover on
// their next explicit refresh.
func (h *Hub) Publish(table, action string, at time.Time) {
	change := &Change{Type: "change", Table: table, Action: action}
	if !at.IsZero() {
		change.Date = at.Format("2006-01-02")
	}
	select {
	case h.broadcast <- change:
	default:
		log.Printf("events hub: dropped %s/%s notification", table, action)
	}
}

func (h *Hub) deliver(change *Change) {
	encoded, err := json.Marshal(change)
	if err != nil {
		log.Printf("events hub encode change: %v", err)
		return
	}

	for client := range h.clients {
		select {
		case client.send <- encoded:
		default:
			delete(h.clients, client)
			close(client.send)
		}
	}
}

// ReadPump drains the connection so close frames are processed. The
// stream is one-way; incoming frames are ignored.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.Unregister(c)
		_ = c.conn.Close()
	}()

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *Client) WritePump() {
	defer func() {
		_ = c.conn.Close()
	}()

	for payload := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			return
		}
	}
}
