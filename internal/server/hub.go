package server

import (
	"context"
	"log/slog"
	"sort"

	"github.com/goccy/go-json"

	"github.com/mmcdole/cinetrack/internal/domain"
)

// MessageTypeSnapshot is the type of every message pushed to clients
const MessageTypeSnapshot = "snapshot"

// SnapshotMessage carries a user's full collection
type SnapshotMessage struct {
	Type    string         `json:"type"`
	Entries []domain.Entry `json:"entries"`
}

// SnapshotLoader loads a user's collection
type SnapshotLoader func(ctx context.Context, userID string) ([]domain.Entry, error)

// Hub fans collection snapshots out to each user's WebSocket connections.
// Snapshots are loaded on the hub goroutine, so every connection sees them
// in write order.
type Hub struct {
	load   SnapshotLoader
	logger *slog.Logger

	clients    map[string]map[*Client]bool
	register   chan *Client
	unregister chan *Client
	changed    chan string
	done       chan struct{}
}

// NewHub creates a hub that reads snapshots through load
func NewHub(load SnapshotLoader, logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		load:       load,
		logger:     logger,
		clients:    make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		changed:    make(chan string, 256),
		done:       make(chan struct{}),
	}
}

// Publish schedules a snapshot push to all of userID's connections
func (h *Hub) Publish(userID string) {
	select {
	case h.changed <- userID:
	case <-h.done:
	}
}

// Register adds a client and sends it the current snapshot
func (h *Hub) Register(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

// Unregister removes a client and closes its send channel
func (h *Hub) Unregister(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// RunWithContext processes hub events until ctx is cancelled
func (h *Hub) RunWithContext(ctx context.Context) error {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			n := h.closeAll()
			h.logger.Info("websocket hub stopped", "clients_closed", n)
			return ctx.Err()

		case c := <-h.register:
			if h.clients[c.userID] == nil {
				h.clients[c.userID] = make(map[*Client]bool)
			}
			h.clients[c.userID][c] = true
			wsConnections.Inc()
			h.logger.Debug("websocket client connected", "user", c.userID, "total_clients", h.count())
			h.push(ctx, c.userID, []*Client{c})

		case c := <-h.unregister:
			h.remove(c)
			h.logger.Debug("websocket client disconnected", "user", c.userID, "total_clients", h.count())

		case userID := <-h.changed:
			h.push(ctx, userID, h.sorted(userID))
		}
	}
}

func (h *Hub) push(ctx context.Context, userID string, clients []*Client) {
	if len(clients) == 0 {
		return
	}
	entries, err := h.load(ctx, userID)
	if err != nil {
		h.logger.Error("failed to load snapshot", "user", userID, "error", err)
		return
	}
	msg, err := json.Marshal(SnapshotMessage{Type: MessageTypeSnapshot, Entries: entries})
	if err != nil {
		h.logger.Error("failed to encode snapshot", "error", err)
		return
	}

	for _, c := range clients {
		select {
		case c.send <- msg:
		default:
			// Slow consumer; it reconnects and gets a fresh snapshot
			h.remove(c)
		}
	}
}

func (h *Hub) sorted(userID string) []*Client {
	clients := make([]*Client, 0, len(h.clients[userID]))
	for c := range h.clients[userID] {
		clients = append(clients, c)
	}
	sort.Slice(clients, func(i, j int) bool { return clients[i].id < clients[j].id })
	return clients
}

func (h *Hub) remove(c *Client) {
	set, ok := h.clients[c.userID]
	if !ok || !set[c] {
		return
	}
	delete(set, c)
	if len(set) == 0 {
		delete(h.clients, c.userID)
	}
	close(c.send)
	wsConnections.Dec()
}

func (h *Hub) closeAll() int {
	n := 0
	for userID := range h.clients {
		for _, c := range h.sorted(userID) {
			h.remove(c)
			n++
		}
	}
	return n
}

func (h *Hub) count() int {
	n := 0
	for _, set := range h.clients {
		n += len(set)
	}
	return n
}
