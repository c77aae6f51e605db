package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"ai-character-chat/backend/internal/models"
	"ai-character-chat/backend/internal/service"
	"ai-character-chat/backend/pkg/jwt"
	"ai-character-chat/backend/pkg/logger"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 64 * 1024
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Origin filtering happens at the proxy layer
	},
	HandshakeTimeout: 10 * time.Second,
	ReadBufferSize:   1024,
	WriteBufferSize:  1024,
}

// Envelope is the framed message exchanged over the socket
type Envelope struct {
	Type    string      `json:"type"`
	Content interface{} `json:"content"`
}

// Client is one WebSocket connection bound to a single conversation
type Client struct {
	hub            *Hub
	conn           *websocket.Conn
	send           chan []byte
	userID         uint
	conversationID uint
}

// Hub tracks connected clients and routes conversation turns through the
// conversation service.
type Hub struct {
	clients       map[*Client]bool
	register      chan *Client
	unregister    chan *Client
	conversations *service.ConversationService
	jwtService    *jwt.Service
	log           *logger.Logger
	mu            sync.Mutex
}

// NewHub creates a WebSocket hub
func NewHub(conversations *service.ConversationService, jwtService *jwt.Service, log *logger.Logger) *Hub {
	return &Hub{
		clients:       make(map[*Client]bool),
		register:      make(chan *Client),
		unregister:    make(chan *Client),
		conversations: conversations,
		jwtService:    jwtService,
		log:           log,
	}
}

// Run processes client registration until the process exits
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			h.log.Debug("WebSocket client registered",
				"userID", client.userID,
				"conversationID", client.conversationID,
			)

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()
		}
	}
}

// ServeWs authenticates and upgrades a WebSocket request. The token and
// conversation ID arrive as query parameters because browsers cannot set
// headers on WebSocket dials.
func ServeWs(hub *Hub, c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "token is required"})
		return
	}

	claims, err := hub.jwtService.ValidateToken(token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
		return
	}

	parsed, err := strconv.ParseUint(c.Query("conversationId"), 10, 32)
	if err != nil || parsed == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "a valid conversationId is required"})
		return
	}
	conversationID := uint(parsed)

	// Ownership check before the upgrade so failures stay plain HTTP
	if _, err := hub.conversations.GetConversation(conversationID, claims.UserID); err != nil {
		switch {
		case errors.Is(err, service.ErrNotConversationOwner):
			c.JSON(http.StatusForbidden, gin.H{"error": "Not authorized for this conversation"})
		default:
			c.JSON(http.StatusNotFound, gin.H{"error": "Conversation not found"})
		}
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		hub.log.Warn("WebSocket upgrade failed", "error", err.Error())
		return
	}
	conn.EnableWriteCompression(true)

	client := &Client{
		hub:            hub,
		conn:           conn,
		send:           make(chan []byte, 256),
		userID:         claims.UserID,
		conversationID: conversationID,
	}

	hub.register <- client

	go client.writePump()
	go client.readPump()
}

func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.log.Warn("WebSocket read error", "error", err.Error())
			}
			break
		}

		var envelope Envelope
		if err := json.Unmarshal(data, &envelope); err != nil {
			c.sendError("Invalid message format")
			continue
		}

		go c.handleEnvelope(envelope)
	}
}

func (c *Client) handleEnvelope(envelope Envelope) {
	switch envelope.Type {
	case "chat":
		c.handleChat(envelope)
	case "ping":
		c.sendEnvelope("pong", nil)
	default:
		c.sendError("Unknown message type: " + envelope.Type)
	}
}

func (c *Client) handleChat(envelope Envelope) {
	var chat struct {
		Content string `json:"content"`
	}

	contentBytes, err := json.Marshal(envelope.Content)
	if err != nil {
		c.sendError("Invalid chat payload")
		return
	}
	if err := json.Unmarshal(contentBytes, &chat); err != nil || chat.Content == "" {
		c.sendError("Chat message content is required")
		return
	}

	c.sendEnvelope("typing", map[string]interface{}{"is_typing": true})

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	aiMessage, err := c.hub.conversations.SendMessage(ctx, c.conversationID, c.userID, chat.Content)
	if err != nil {
		c.hub.log.LogError(err, "WebSocket message exchange failed",
			"conversationID", c.conversationID,
		)
		c.sendError("Failed to process message")
		return
	}

	c.sendEnvelope("chat", messagePayload(aiMessage))
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

			// Drain queued messages as separate frames
			n := len(c.send)
			for i := 0; i < n; i++ {
				if err := c.conn.WriteMessage(websocket.TextMessage, <-c.send); err != nil {
					return
				}
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) sendEnvelope(messageType string, content interface{}) {
	data, err := json.Marshal(Envelope{Type: messageType, Content: content})
	if err != nil {
		c.hub.log.Warn("Failed to marshal WebSocket envelope", "error", err.Error())
		return
	}

	select {
	case c.send <- data:
	default:
		c.hub.log.Warn("WebSocket send buffer full, dropping message",
			"conversationID", c.conversationID,
		)
	}
}

func (c *Client) sendError(text string) {
	c.sendEnvelope("error", map[string]string{"message": text})
}

func messagePayload(msg *models.Message) map[string]interface{} {
	return map[string]interface{}{
		"id":              msg.ID,
		"conversation_id": msg.ConversationID,
		"sender":          msg.Sender,
		"content":         msg.Content,
		"timestamp":       msg.Timestamp,
	}
}
