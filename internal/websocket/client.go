package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/PejmanG/chat-app/internal/config"
	"github.com/PejmanG/chat-app/internal/logger"
)

// SessionState is a connection's position in the chat-session lifecycle.
type SessionState int

const (
	// StateIdle: not joined to any chat.
	StateIdle SessionState = iota
	// StateJoining: join received, snapshot pending.
	StateJoining
	// StateActive: snapshot delivered, live updates flowing.
	StateActive
)

// Client is a middleman between one websocket connection and the hub. It is
// bound to a single user identity for its whole lifetime.
type Client struct {
	hub *Hub

	// The websocket connection.
	conn *websocket.Conn

	// Buffered channel of outbound messages.
	send chan []byte

	// Authenticated user ID for this connection.
	UserID uint

	// chatID is the room this connection is joined to, 0 when idle.
	// Guarded by hub.mu.
	chatID uint

	// dropped is set when the hub gives up on a slow connection.
	// Guarded by hub.mu.
	dropped bool

	// state tracks the session lifecycle. Guarded by stateMu; the event
	// loop is the only writer but tests observe it concurrently.
	stateMu sync.RWMutex
	state   SessionState

	closeOnce sync.Once

	// handleEvent processes one decoded inbound event.
	handleEvent func(ctx context.Context, c *Client, event Event)
}

// State returns the connection's current session state.
func (c *Client) State() SessionState {
	c.stateMu.RLock()
	defer c.stateMu.RUnlock()
	return c.state
}

func (c *Client) setState(s SessionState) {
	c.stateMu.Lock()
	c.state = s
	c.stateMu.Unlock()
}

// closeSend closes the outbound channel exactly once.
func (c *Client) closeSend() {
	c.closeOnce.Do(func() { close(c.send) })
}

// readPump pumps events from the websocket connection into handleEvent.
// One goroutine per connection; it owns all reads and unregisters the
// client on exit.
func (c *Client) readPump(wsCfg config.WebSocketConfig) {
	log := logger.Module("ws").With().Uint("userId", c.UserID).Logger()

	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
	}()
	c.conn.SetReadLimit(int64(wsCfg.MaxMessageSizeBytes))
	c.conn.SetReadDeadline(time.Now().Add(time.Duration(wsCfg.PongWaitSeconds) * time.Second))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(time.Duration(wsCfg.PongWaitSeconds) * time.Second))
		return nil
	})

	for {
		messageType, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Warn().Err(err).Msg("websocket closed unexpectedly")
			}
			break
		}

		if messageType != websocket.TextMessage {
			log.Warn().Int("messageType", messageType).Msg("ignoring non-text message")
			continue
		}

		var event Event
		if err := json.Unmarshal(data, &event); err != nil {
			log.Warn().Err(err).Msg("failed to decode event")
			continue
		}

		if c.handleEvent != nil {
			c.handleEvent(context.Background(), c, event)
		}
	}
}

// writePump pumps queued messages from the hub to the websocket connection.
// One goroutine per connection; it owns all writes including pings.
func (c *Client) writePump(wsCfg config.WebSocketConfig) {
	ticker := time.NewTicker(time.Duration(wsCfg.PingPeriodSeconds) * time.Second)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(time.Duration(wsCfg.WriteWaitSeconds) * time.Second))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(time.Duration(wsCfg.WriteWaitSeconds) * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
