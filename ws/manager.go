package ws

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"darts/game"
)

// Manager owns all live websocket connections. Inbound messages are turned
// into engine events; the broadcasts the engine returns are fanned out by
// resolving each target player's connection in the registry at send time.
type Manager struct {
	engine   *game.Engine
	registry *Registry
	log      zerolog.Logger

	mu      sync.RWMutex
	clients map[string]*Client // connID -> client
}

func NewManager(engine *game.Engine, registry *Registry, logger zerolog.Logger) *Manager {
	return &Manager{
		engine:   engine,
		registry: registry,
		log:      logger,
		clients:  make(map[string]*Client),
	}
}

// HandleConnection binds the player to a fresh connection id, pushes any
// in-progress games to them, and starts the pumps. The previous connection
// for the same player, if any, is superseded in the registry.
func (m *Manager) HandleConnection(conn *websocket.Conn, playerID string) {
	client := &Client{
		conn:     conn,
		connID:   uuid.NewString(),
		playerID: playerID,
		send:     make(chan []byte, 256),
	}

	m.registry.Bind(playerID, client.connID)
	m.mu.Lock()
	m.clients[client.connID] = client
	m.mu.Unlock()

	go m.writePump(client)

	broadcasts, err := m.engine.Reconnect(playerID)
	if err != nil {
		m.log.Error().Err(err).Str("player_id", playerID).Msg("resync on connect failed")
	} else {
		m.deliver(broadcasts)
	}

	go m.readPump(client)
}

func (m *Manager) readPump(client *Client) {
	defer func() {
		m.dropClient(client)
		client.conn.Close()
	}()

	client.conn.SetReadDeadline(time.Now().Add(pongWait))
	client.conn.SetReadLimit(maxMessageSize)
	client.conn.SetPongHandler(func(string) error {
		client.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := client.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				m.log.Warn().Err(err).Str("player_id", client.playerID).Msg("websocket read error")
			}
			break
		}

		var inMsg IncomingMessage
		if err := json.Unmarshal(message, &inMsg); err != nil {
			m.log.Warn().Err(err).Msg("failed to unmarshal message")
			continue
		}

		m.handleMessage(client, &inMsg)
	}
}

func (m *Manager) writePump(client *Client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		client.conn.Close()
	}()

	for {
		select {
		case message, ok := <-client.send:
			client.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				client.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := client.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			client.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := client.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// dropClient tears down one connection. The engine only hears about the
// disconnect when this connection was still the player's current one; a
// stale close racing a reconnect unbinds nothing and stays silent.
func (m *Manager) dropClient(client *Client) {
	m.mu.Lock()
	if _, ok := m.clients[client.connID]; ok {
		delete(m.clients, client.connID)
		close(client.send)
	}
	m.mu.Unlock()

	playerID, wasCurrent := m.registry.UnbindConnection(client.connID)
	if !wasCurrent {
		return
	}

	broadcasts, err := m.engine.Disconnect(playerID)
	if err != nil {
		m.log.Error().Err(err).Str("player_id", playerID).Msg("disconnect handling failed")
		return
	}
	m.deliver(broadcasts)
}

func (m *Manager) handleMessage(client *Client, msg *IncomingMessage) {
	var broadcasts []game.Broadcast
	var err error

	switch msg.Type {
	case "join_queue":
		var p JoinQueuePayload
		if jsonErr := json.Unmarshal(msg.Payload, &p); jsonErr != nil {
			m.sendError(client, game.ErrInvalidSettings)
			return
		}
		broadcasts, err = m.engine.JoinQueue(client.playerID, p.Settings)

	case "leave_queue":
		broadcasts, err = m.engine.LeaveQueue(client.playerID)

	case "throw":
		var p ThrowPayload
		if jsonErr := json.Unmarshal(msg.Payload, &p); jsonErr != nil {
			m.sendError(client, game.ErrInvalidThrow)
			return
		}
		broadcasts, err = m.engine.Throw(p.GameID, client.playerID, p.Visit)

	default:
		m.log.Warn().Str("type", msg.Type).Msg("unknown message type")
		return
	}

	if err != nil {
		m.sendError(client, err)
		return
	}
	m.deliver(broadcasts)
}

// deliver resolves each target player's connection right before sending.
// Players without a live connection are skipped; they catch up through the
// resync push on their next connect. The read lock is held across the send:
// dropClient closes the channel under the write lock, so a send can never
// interleave with the close. The send is non-blocking, so holding the lock
// here cannot stall other deliveries.
func (m *Manager) deliver(broadcasts []game.Broadcast) {
	for _, b := range broadcasts {
		data, err := json.Marshal(b.Event)
		if err != nil {
			m.log.Error().Err(err).Str("type", b.Event.Type).Msg("failed to marshal event")
			continue
		}

		connID, ok := m.registry.Resolve(b.PlayerID)
		if !ok {
			continue
		}

		m.mu.RLock()
		if client, ok := m.clients[connID]; ok {
			select {
			case client.send <- data:
			default:
				m.log.Warn().Str("player_id", b.PlayerID).Msg("send buffer full, dropping message")
			}
		}
		m.mu.RUnlock()
	}
}

func (m *Manager) sendError(client *Client, err error) {
	event := game.Event{
		Type:    "error",
		Payload: ErrorPayload{Code: game.ErrorCode(err), Message: err.Error()},
	}
	data, marshalErr := json.Marshal(event)
	if marshalErr != nil {
		return
	}
	select {
	case client.send <- data:
	default:
	}
}
