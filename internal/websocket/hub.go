package websocket

import (
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/dukerupert/fridgly/internal/model"
)

const entityItem = "item"

const (
	ActionCreated = "created"
	ActionUpdated = "updated"
	ActionDeleted = "deleted"
)

// Message is a realtime item event sent to the members of one group.
type Message struct {
	Type   string      `json:"type"`
	Entity string      `json:"entity"`
	Action string      `json:"action"`
	ID     string      `json:"id,omitempty"`
	Item   *model.Item `json:"item,omitempty"`
}

// ItemMessage builds an item event. Type is "item_<action>".
func ItemMessage(action, id string, item *model.Item) Message {
	return Message{
		Type:   entityItem + "_" + action,
		Entity: entityItem,
		Action: action,
		ID:     id,
		Item:   item,
	}
}

// Hub tracks connected clients per group and fans events out to them.
type Hub struct {
	mu     sync.RWMutex
	groups map[string]map[*Client]struct{}
	logger *slog.Logger
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		groups: make(map[string]map[*Client]struct{}),
		logger: logger.With("component", "websocket"),
	}
}

func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	members, ok := h.groups[c.groupID]
	if !ok {
		members = make(map[*Client]struct{})
		h.groups[c.groupID] = members
	}
	members[c] = struct{}{}
	h.mu.Unlock()
}

// Unregister removes a client and closes its send channel.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	if members, ok := h.groups[c.groupID]; ok {
		if _, ok := members[c]; ok {
			delete(members, c)
			close(c.send)
		}
		if len(members) == 0 {
			delete(h.groups, c.groupID)
		}
	}
	h.mu.Unlock()
}

// Broadcast sends msg to every client connected for groupID.
func (h *Hub) Broadcast(groupID string, msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("marshal broadcast", "error", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.groups[groupID] {
		select {
		case c.send <- data:
		default:
			h.logger.Warn("client buffer full, dropping message", "group_id", groupID, "type", msg.Type)
		}
	}
}

// ClientCount returns the number of clients connected for groupID.
func (h *Hub) ClientCount(groupID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.groups[groupID])
}
