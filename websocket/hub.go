package websocket

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
)

// Conn is the part of a websocket connection the hub writes to.
type Conn interface {
	WriteJSON(v any) error
	Close() error
}

type Client struct {
	UserID uuid.UUID
	Role   string
	Conn   Conn
}

type envelope struct {
	userID  uuid.UUID
	role    string
	payload any
}

// Hub owns the live connections. All map access happens on the Run
// goroutine.
type Hub struct {
	clients    map[uuid.UUID]map[*Client]bool
	register   chan *Client
	unregister chan *Client
	outbound   chan envelope
	done       chan struct{}
	log        *slog.Logger
}

func NewHub(log *slog.Logger) *Hub {
	return &Hub{
		clients:    make(map[uuid.UUID]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		outbound:   make(chan envelope, 256),
		done:       make(chan struct{}),
		log:        log,
	}
}

func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			close(h.done)
			for _, conns := range h.clients {
				for c := range conns {
					c.Conn.Close()
				}
			}
			return
		case client := <-h.register:
			h.log.Debug("websocket client registered", slog.String("user_id", client.UserID.String()))
			if h.clients[client.UserID] == nil {
				h.clients[client.UserID] = make(map[*Client]bool)
			}
			h.clients[client.UserID][client] = true
		case client := <-h.unregister:
			h.log.Debug("websocket client unregistered", slog.String("user_id", client.UserID.String()))
			h.remove(client)
		case msg := <-h.outbound:
			for _, c := range h.targets(msg) {
				if err := c.Conn.WriteJSON(msg.payload); err != nil {
					h.log.Warn("websocket write failed", slog.String("user_id", c.UserID.String()), slog.Any("error", err))
					c.Conn.Close()
					h.remove(c)
				}
			}
		}
	}
}

func (h *Hub) targets(msg envelope) []*Client {
	var out []*Client
	if msg.userID != uuid.Nil {
		for c := range h.clients[msg.userID] {
			out = append(out, c)
		}
		return out
	}
	for _, conns := range h.clients {
		for c := range conns {
			if c.Role == msg.role {
				out = append(out, c)
			}
		}
	}
	return out
}

func (h *Hub) remove(c *Client) {
	conns, ok := h.clients[c.UserID]
	if !ok {
		return
	}
	delete(conns, c)
	if len(conns) == 0 {
		delete(h.clients, c.UserID)
	}
}

// Register and Unregister return immediately once Run has stopped.
func (h *Hub) Register(c *Client) {
	select {
	case h.register <- c:
	case <-h.done:
	}
}

func (h *Hub) Unregister(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// SendToUser queues payload for every connection of userID. It reports
// false when the queue is full and the message was dropped.
func (h *Hub) SendToUser(userID uuid.UUID, payload any) bool {
	return h.enqueue(envelope{userID: userID, payload: payload})
}

func (h *Hub) BroadcastToRole(role string, payload any) bool {
	return h.enqueue(envelope{role: role, payload: payload})
}

func (h *Hub) enqueue(e envelope) bool {
	select {
	case h.outbound <- e:
		return true
	default:
		return false
	}
}
