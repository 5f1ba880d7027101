package handlers

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"wainbox/internal/auth"
	"wainbox/internal/repo"
	"wainbox/internal/webhook"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// WebSocketMessage represents a message sent through WebSocket
type WebSocketMessage struct {
	Type      string      `json:"type"`
	Data      interface{} `json:"data"`
	Timestamp time.Time   `json:"timestamp"`
}

// wsEvent is the hub's internal broadcast envelope. exclude suppresses
// delivery to the originating client (typing relay).
type wsEvent struct {
	message WebSocketMessage
	exclude *WebSocketClient
}

// WebSocketClient represents a connected agent session
type WebSocketClient struct {
	conn      *websocket.Conn
	agentID   uuid.UUID
	agentName string
	send      chan WebSocketMessage
	hub       *WebSocketHub
}

// WebSocketHub manages all WebSocket connections
type WebSocketHub struct {
	clients    map[*WebSocketClient]bool
	broadcast  chan wsEvent
	register   chan *WebSocketClient
	unregister chan *WebSocketClient
	agents     *repo.AgentRepository
	mu         sync.RWMutex
}

// WebSocketHandler handles WebSocket connections. It is the single
// broadcast channel behind the webhook.Notifier interface.
type WebSocketHandler struct {
	hub         *WebSocketHub
	authService *auth.Service
}

var _ webhook.Notifier = (*WebSocketHandler)(nil)

// NewWebSocketHandler creates a new WebSocket handler
func NewWebSocketHandler(agents *repo.AgentRepository, authService *auth.Service) *WebSocketHandler {
	hub := &WebSocketHub{
		clients:    make(map[*WebSocketClient]bool),
		broadcast:  make(chan wsEvent),
		register:   make(chan *WebSocketClient),
		unregister: make(chan *WebSocketClient),
		agents:     agents,
	}

	go hub.run()
	return &WebSocketHandler{
		hub:         hub,
		authService: authService,
	}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// HandleWebSocket authenticates and upgrades an agent connection.
// The session credential is taken from the token query parameter.
func (h *WebSocketHandler) HandleWebSocket(c echo.Context) error {
	token := c.QueryParam("token")
	if token == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "Missing authorization token")
	}

	claims, err := h.authService.ValidateToken(token)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid token")
	}

	agent, err := h.hub.agents.GetByID(claims.AgentID)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "Unknown agent")
	}

	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		log.Error().Err(err).Msg("WebSocket upgrade failed")
		return err
	}

	client := &WebSocketClient{
		conn:      conn,
		agentID:   agent.ID,
		agentName: agent.Name,
		send:      make(chan WebSocketMessage, 256),
		hub:       h.hub,
	}

	h.hub.register <- client

	go client.writePump()
	go client.readPump()

	return nil
}

// Broadcast publishes an event to every connected agent session
func (h *WebSocketHandler) Broadcast(event string, data interface{}) {
	h.hub.broadcast <- wsEvent{
		message: WebSocketMessage{
			Type:      event,
			Data:      data,
			Timestamp: time.Now(),
		},
	}
}

// ConnectedClients returns the number of connected sessions
func (h *WebSocketHandler) ConnectedClients() int {
	h.hub.mu.RLock()
	defer h.hub.mu.RUnlock()
	return len(h.hub.clients)
}

// run manages the WebSocket hub
func (hub *WebSocketHub) run() {
	for {
		select {
		case client := <-hub.register:
			hub.mu.Lock()
			hub.clients[client] = true
			hub.mu.Unlock()
			log.Info().Str("agent", client.agentName).Msg("Agent connected")

			hub.setPresence(client.agentID, true)

		case client := <-hub.unregister:
			hub.mu.Lock()
			if _, ok := hub.clients[client]; ok {
				delete(hub.clients, client)
				close(client.send)
			}
			remaining := hub.sessionsForLocked(client.agentID)
			hub.mu.Unlock()
			log.Info().Str("agent", client.agentName).Msg("Agent disconnected")

			// Presence flips offline only when the agent's last session closes
			if remaining == 0 {
				hub.setPresence(client.agentID, false)
			}

		case event := <-hub.broadcast:
			hub.mu.Lock()
			for client := range hub.clients {
				if client == event.exclude {
					continue
				}
				select {
				case client.send <- event.message:
				default:
					close(client.send)
					delete(hub.clients, client)
				}
			}
			hub.mu.Unlock()
		}
	}
}

// sessionsForLocked counts open sessions for an agent. Caller holds the lock.
func (hub *WebSocketHub) sessionsForLocked(agentID uuid.UUID) int {
	count := 0
	for client := range hub.clients {
		if client.agentID == agentID {
			count++
		}
	}
	return count
}

// setPresence updates the presence flag and broadcasts the change
func (hub *WebSocketHub) setPresence(agentID uuid.UUID, online bool) {
	if err := hub.agents.SetOnline(agentID, online); err != nil {
		log.Error().Err(err).Str("agent_id", agentID.String()).Msg("Failed to update presence")
	}

	go func() {
		hub.broadcast <- wsEvent{
			message: WebSocketMessage{
				Type: webhook.EventAgentStatus,
				Data: map[string]interface{}{
					"agent_id":  agentID.String(),
					"is_online": online,
				},
				Timestamp: time.Now(),
			},
		}
	}()
}

// readPump handles reading messages from the WebSocket
func (c *WebSocketClient) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	// 30s read deadline, pings every 20s
	c.conn.SetReadDeadline(time.Now().Add(30 * time.Second))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(30 * time.Second))
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Warn().Err(err).Msg("WebSocket read error")
			}
			break
		}

		var msg WebSocketMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			continue
		}

		switch msg.Type {
		case "ping":
			select {
			case c.send <- WebSocketMessage{Type: "pong", Timestamp: time.Now()}:
			default:
				return
			}

		case webhook.EventTyping:
			// Relay to all other sessions tagged with the sender's identity
			data := map[string]interface{}{
				"agent_id":   c.agentID.String(),
				"agent_name": c.agentName,
			}
			if fields, ok := msg.Data.(map[string]interface{}); ok {
				for k, v := range fields {
					if k != "agent_id" && k != "agent_name" {
						data[k] = v
					}
				}
			}
			c.hub.broadcast <- wsEvent{
				message: WebSocketMessage{
					Type:      webhook.EventTyping,
					Data:      data,
					Timestamp: time.Now(),
				},
				exclude: c,
			}
		}
	}
}

// writePump handles writing messages to the WebSocket
func (c *WebSocketClient) writePump() {
	ticker := time.NewTicker(20 * time.Second)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(message); err != nil {
				log.Warn().Err(err).Msg("WebSocket write error")
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
