// Package gateway fans auction events out to WebSocket clients. Clients
// subscribe to a scope: a single lot's live feed, or the cross-lot activity
// feed. Delivery is at-most-once; slow consumers are dropped, never waited
// on.
package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/zigaf/car-auction/go/internal/auction/events"
)

// FeedScope is the subscription scope for the cross-lot activity feed.
const FeedScope = "feed"

// RecentFeedSize is how many recent feed entries are retained for replay to
// newly connected feed subscribers.
const RecentFeedSize = 100

// LotScope returns the subscription scope for a single lot.
func LotScope(lotID uuid.UUID) string {
	return "lot:" + lotID.String()
}

// ConnectionManager manages WebSocket connections grouped by scope.
type ConnectionManager struct {
	mu          sync.RWMutex
	connections map[string]map[*Connection]bool

	// recent is the replay buffer for the activity feed, oldest first.
	recent []json.RawMessage

	upgrader websocket.Upgrader
	config   ConnectionConfig

	broadcastCh chan broadcastMessage
}

// Connection represents one WebSocket client.
type Connection struct {
	ID      string
	UserID  string
	Scope   string
	Conn    *websocket.Conn
	Send    chan []byte
	Manager *ConnectionManager

	ConnectedAt time.Time
	LastPing    time.Time
}

// ConnectionConfig holds WebSocket connection tuning.
type ConnectionConfig struct {
	WriteTimeout    time.Duration
	ReadTimeout     time.Duration
	PingInterval    time.Duration
	MaxMessageSize  int64
	ReadBufferSize  int
	WriteBufferSize int
	CheckOrigin     func(r *http.Request) bool
}

type broadcastMessage struct {
	scope string
	data  []byte
}

// DefaultConnectionConfig returns default WebSocket configuration.
func DefaultConnectionConfig() ConnectionConfig {
	return ConnectionConfig{
		WriteTimeout:    10 * time.Second,
		ReadTimeout:     60 * time.Second,
		PingInterval:    30 * time.Second,
		MaxMessageSize:  1024,
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			// Open origin policy for local monitors; tighten behind a
			// proxy in production.
			return true
		},
	}
}

// NewConnectionManager creates a new WebSocket connection manager.
func NewConnectionManager(config ConnectionConfig) *ConnectionManager {
	return &ConnectionManager{
		connections: make(map[string]map[*Connection]bool),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  config.ReadBufferSize,
			WriteBufferSize: config.WriteBufferSize,
			CheckOrigin:     config.CheckOrigin,
		},
		config:      config,
		broadcastCh: make(chan broadcastMessage, 1000),
	}
}

// Start processes broadcast messages until the context is cancelled.
func (cm *ConnectionManager) Start(ctx context.Context) {
	log.Info().Msg("connection manager started")

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("connection manager stopping")
			return
		case message := <-cm.broadcastCh:
			cm.handleBroadcast(message)
		}
	}
}

// Deliver routes one event envelope to its lot's subscribers and to the
// activity feed. Feed updates are additionally recorded in the replay
// buffer.
func (cm *ConnectionManager) Deliver(env events.Envelope) {
	data, err := json.Marshal(env)
	if err != nil {
		log.Error().Err(err).Str("event_type", string(env.EventType)).Msg("failed to marshal event")
		return
	}

	if env.EventType == events.EventTypeFeedUpdate {
		cm.recordFeedEntry(data)
	}

	cm.broadcast("lot:"+env.LotID, data)
	cm.broadcast(FeedScope, data)
}

func (cm *ConnectionManager) broadcast(scope string, data []byte) {
	select {
	case cm.broadcastCh <- broadcastMessage{scope: scope, data: data}:
	default:
		log.Warn().Str("scope", scope).Msg("broadcast channel full, dropping message")
	}
}

func (cm *ConnectionManager) recordFeedEntry(data []byte) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	cm.recent = append(cm.recent, data)
	if len(cm.recent) > RecentFeedSize {
		cm.recent = cm.recent[len(cm.recent)-RecentFeedSize:]
	}
}

// RecentFeed returns the retained feed entries, newest first.
func (cm *ConnectionManager) RecentFeed() []json.RawMessage {
	cm.mu.RLock()
	defer cm.mu.RUnlock()

	out := make([]json.RawMessage, 0, len(cm.recent))
	for i := len(cm.recent) - 1; i >= 0; i-- {
		out = append(out, cm.recent[i])
	}
	return out
}

// UpgradeConnection upgrades an HTTP request to a WebSocket connection
// subscribed to the given scope.
func (cm *ConnectionManager) UpgradeConnection(w http.ResponseWriter, r *http.Request, userID, scope string) error {
	conn, err := cm.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("websocket upgrade failed")
		return err
	}

	connection := &Connection{
		ID:          uuid.New().String(),
		UserID:      userID,
		Scope:       scope,
		Conn:        conn,
		Send:        make(chan []byte, 256),
		Manager:     cm,
		ConnectedAt: time.Now(),
		LastPing:    time.Now(),
	}

	cm.registerConnection(connection)

	go connection.writePump()
	go connection.readPump()

	log.Info().
		Str("connection_id", connection.ID).
		Str("user_id", userID).
		Str("scope", scope).
		Msg("websocket client connected")

	return nil
}

// registerConnection adds a connection to its scope pool. Feed subscribers
// get the retained activity replayed, newest first, before live events.
func (cm *ConnectionManager) registerConnection(conn *Connection) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	if cm.connections[conn.Scope] == nil {
		cm.connections[conn.Scope] = make(map[*Connection]bool)
	}
	cm.connections[conn.Scope][conn] = true

	if conn.Scope == FeedScope {
		for i := len(cm.recent) - 1; i >= 0; i-- {
			select {
			case conn.Send <- cm.recent[i]:
			default:
			}
		}
	}

	log.Debug().
		Str("connection_id", conn.ID).
		Str("scope", conn.Scope).
		Int("scope_connections", len(cm.connections[conn.Scope])).
		Msg("subscriber registered")
}

func (cm *ConnectionManager) unregisterConnection(conn *Connection) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	if connections, exists := cm.connections[conn.Scope]; exists {
		if _, exists := connections[conn]; exists {
			delete(connections, conn)
			close(conn.Send)

			if len(connections) == 0 {
				delete(cm.connections, conn.Scope)
			}

			log.Info().
				Str("connection_id", conn.ID).
				Str("user_id", conn.UserID).
				Str("scope", conn.Scope).
				Msg("subscriber removed")
		}
	}
}

func (cm *ConnectionManager) handleBroadcast(message broadcastMessage) {
	cm.mu.RLock()
	connections, exists := cm.connections[message.scope]
	if !exists {
		cm.mu.RUnlock()
		return
	}

	targets := make([]*Connection, 0, len(connections))
	for conn := range connections {
		targets = append(targets, conn)
	}
	cm.mu.RUnlock()

	for _, conn := range targets {
		select {
		case conn.Send <- message.data:
		default:
			// Slow consumer; at-most-once delivery means we cut it loose
			// rather than block the fan-out.
			log.Warn().
				Str("connection_id", conn.ID).
				Str("user_id", conn.UserID).
				Msg("send buffer full, dropping slow subscriber")
			cm.unregisterConnection(conn)
			conn.Conn.Close()
		}
	}

	log.Debug().
		Str("scope", message.scope).
		Int("subscribers", len(targets)).
		Msg("event fanned out")
}

// GetConnectionStats returns statistics about active connections.
func (cm *ConnectionManager) GetConnectionStats() (total int, scopes map[string]int) {
	cm.mu.RLock()
	defer cm.mu.RUnlock()

	scopes = make(map[string]int, len(cm.connections))
	for scope, connections := range cm.connections {
		scopes[scope] = len(connections)
		total += len(connections)
	}
	return total, scopes
}

// writePump sends queued messages and pings to the client.
func (c *Connection) writePump() {
	ticker := time.NewTicker(c.Manager.config.PingInterval)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
		c.Manager.unregisterConnection(c)
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(c.Manager.config.WriteTimeout))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Error().
					Err(err).
					Str("connection_id", c.ID).
					Msg("websocket write failed")
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(c.Manager.config.WriteTimeout))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Error().
					Err(err).
					Str("connection_id", c.ID).
					Msg("ping write failed")
				return
			}
			c.LastPing = time.Now()
		}
	}
}

// readPump reads client frames, keeping the read deadline fresh.
func (c *Connection) readPump() {
	defer func() {
		c.Manager.unregisterConnection(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(c.Manager.config.MaxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(c.Manager.config.ReadTimeout))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(c.Manager.config.ReadTimeout))
		c.LastPing = time.Now()
		return nil
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Error().
					Err(err).
					Str("connection_id", c.ID).
					Msg("unexpected websocket close")
			}
			break
		}

		c.handleClientMessage(message)
		c.Conn.SetReadDeadline(time.Now().Add(c.Manager.config.ReadTimeout))
	}
}

// handleClientMessage processes messages received from the client. The
// gateway is broadcast-only; client frames are logged and ignored.
func (c *Connection) handleClientMessage(message []byte) {
	log.Debug().
		Str("connection_id", c.ID).
		Str("user_id", c.UserID).
		RawJSON("message", message).
		Msg("ignoring client frame")
}
