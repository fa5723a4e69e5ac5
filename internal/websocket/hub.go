package websocket

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/PejmanG/chat-app/internal/logger"
)

// PresenceListener receives connect/disconnect notifications for every
// registered connection. connections is the user's live connection count
// after the change, so a listener can tell a first connection from an
// additional device.
type PresenceListener interface {
	Connected(userID uint, connections int)
	Disconnected(userID uint, connections int)
}

// Hub is the session registry: it maps user identities to their live
// connections and groups connections into per-chat rooms for broadcasts.
// A user may hold several connections (multi-device); a connection is in at
// most one room at a time.
type Hub struct {
	mu sync.RWMutex

	// clients maps a user ID to that user's live connections.
	clients map[uint]map[*Client]struct{}

	// rooms maps a chat ID to the connections currently joined to it.
	rooms map[uint]map[*Client]struct{}

	presence PresenceListener
	log      zerolog.Logger
}

// NewHub creates a new Hub. The presence listener may be nil.
func NewHub(presence PresenceListener) *Hub {
	return &Hub{
		clients:  make(map[uint]map[*Client]struct{}),
		rooms:    make(map[uint]map[*Client]struct{}),
		presence: presence,
		log:      logger.Module("hub"),
	}
}

// Register adds a connection under its bound user identity.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	if h.clients[c.UserID] == nil {
		h.clients[c.UserID] = make(map[*Client]struct{})
	}
	h.clients[c.UserID][c] = struct{}{}
	connections := len(h.clients[c.UserID])
	h.mu.Unlock()

	h.log.Debug().Uint("userId", c.UserID).Int("connections", connections).Msg("client registered")
	if h.presence != nil {
		h.presence.Connected(c.UserID, connections)
	}
}

// Unregister removes a connection from the registry and, crucially, from
// any room it is still joined to. Skipping the room cleanup would leak
// membership and keep broadcasting to a dead connection.
func (h *Hub) Unregister(c *Client) {
	var registered bool
	h.mu.Lock()
	if set, ok := h.clients[c.UserID]; ok {
		if _, registered = set[c]; registered {
			delete(set, c)
			c.closeSend()
		}
		if len(set) == 0 {
			delete(h.clients, c.UserID)
		}
	}
	h.removeFromRoomLocked(c)
	connections := len(h.clients[c.UserID])
	h.mu.Unlock()

	// Guards against a second Unregister for the same connection.
	if !registered {
		return
	}
	h.log.Debug().Uint("userId", c.UserID).Int("connections", connections).Msg("client unregistered")
	if h.presence != nil {
		h.presence.Disconnected(c.UserID, connections)
	}
}

// ConnectionsFor returns the user's live connections.
func (h *Hub) ConnectionsFor(userID uint) []*Client {
	h.mu.RLock()
	defer h.mu.RUnlock()

	set := h.clients[userID]
	clients := make([]*Client, 0, len(set))
	for c := range set {
		clients = append(clients, c)
	}
	return clients
}

// Join adds the connection to a chat room. A connection holds a single
// active chat view, so joining implicitly leaves the previous room.
func (h *Hub) Join(c *Client, chatID uint) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.removeFromRoomLocked(c)
	if h.rooms[chatID] == nil {
		h.rooms[chatID] = make(map[*Client]struct{})
	}
	h.rooms[chatID][c] = struct{}{}
	c.chatID = chatID
}

// Leave removes the connection from the given chat room. A stale chat ID
// (the connection has since joined elsewhere) is ignored.
func (h *Hub) Leave(c *Client, chatID uint) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if c.chatID != chatID {
		return
	}
	h.removeFromRoomLocked(c)
}

// removeFromRoomLocked detaches the connection from its current room.
// Callers must hold h.mu.
func (h *Hub) removeFromRoomLocked(c *Client) {
	if c.chatID == 0 {
		return
	}
	if room, ok := h.rooms[c.chatID]; ok {
		delete(room, c)
		if len(room) == 0 {
			delete(h.rooms, c.chatID)
		}
	}
	c.chatID = 0
}

// BroadcastToUser fans an event out to every live connection of a user.
func (h *Hub) BroadcastToUser(userID uint, event Event) {
	data, err := event.Encode()
	if err != nil {
		h.log.Error().Err(err).Str("type", event.Type).Msg("failed to encode event")
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients[userID] {
		h.sendLocked(c, data)
	}
}

// BroadcastToRoom delivers an event to every connection joined to the chat.
func (h *Hub) BroadcastToRoom(chatID uint, event Event) {
	data, err := event.Encode()
	if err != nil {
		h.log.Error().Err(err).Str("type", event.Type).Msg("failed to encode event")
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.rooms[chatID] {
		h.sendLocked(c, data)
	}
}

// ViewersInRoom returns the distinct user IDs with a connection currently
// joined to the chat.
func (h *Hub) ViewersInRoom(chatID uint) []uint {
	h.mu.RLock()
	defer h.mu.RUnlock()

	seen := make(map[uint]struct{})
	ids := make([]uint, 0, len(h.rooms[chatID]))
	for c := range h.rooms[chatID] {
		if _, ok := seen[c.UserID]; ok {
			continue
		}
		seen[c.UserID] = struct{}{}
		ids = append(ids, c.UserID)
	}
	return ids
}

// sendLocked queues data on a client's send channel. A full buffer means
// the client stopped draining; close its send channel so the pumps tear the
// connection down, which funnels cleanup through Unregister. The client
// stays in the maps until then, shielded by the dropped flag.
// Callers must hold h.mu.
func (h *Hub) sendLocked(c *Client, data []byte) {
	if c.dropped {
		return
	}
	select {
	case c.send <- data:
	default:
		h.log.Warn().Uint("userId", c.UserID).Msg("send buffer full, dropping client")
		c.dropped = true
		c.closeSend()
	}
}

// Send delivers an event to a single connection.
func (h *Hub) Send(c *Client, event Event) {
	data, err := event.Encode()
	if err != nil {
		h.log.Error().Err(err).Str("type", event.Type).Msg("failed to encode event")
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.sendLocked(c, data)
}
