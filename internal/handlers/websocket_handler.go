package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"apparel-backoffice/internal/logging"
	"apparel-backoffice/internal/middleware"
	"apparel-backoffice/internal/models"
	"apparel-backoffice/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait    = 10 * time.Second
	pongWait     = 60 * time.Second
	pingPeriod   = 30 * time.Second
	sendBuffer   = 16
	maxFrameSize = 4096
)

type feedClient struct {
	id      string
	subject string
	conn    *websocket.Conn
	send    chan []byte
	quit    chan struct{}
	once    sync.Once
}

func (c *feedClient) stop() {
	c.once.Do(func() { close(c.quit) })
}

// WebSocketHandler streams quote events to connected admin dashboards.
type WebSocketHandler struct {
	upgrader   websocket.Upgrader
	tokens     *services.TokenService
	clients    map[*feedClient]bool
	broadcast  chan []byte
	register   chan *feedClient
	unregister chan *feedClient
	done       chan struct{}
	logger     *zap.Logger
}

func NewWebSocketHandler(tokens *services.TokenService, allowedOrigins []string, logger *zap.Logger) *WebSocketHandler {
	return &WebSocketHandler{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
		tokens:     tokens,
		clients:    make(map[*feedClient]bool),
		broadcast:  make(chan []byte, 64),
		register:   make(chan *feedClient),
		unregister: make(chan *feedClient),
		done:       make(chan struct{}),
		logger:     logging.OrNop(logger),
	}
}

func originChecker(allowed []string) func(*http.Request) bool {
	set := make(map[string]bool, len(allowed))
	for _, o := range allowed {
		if o == "*" {
			return func(*http.Request) bool { return true }
		}
		set[strings.TrimRight(o, "/")] = true
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || set[origin]
	}
}

// HandleConnections upgrades an authenticated admin to the live feed
// @Summary Admin live feed
// @Description WebSocket stream of quote_submitted and status_updated events. Pass the session token as ?token=.
// @Tags admin
// @Param token query string true "Session token"
// @Success 101
// @Failure 401 {object} ErrorResponse
// @Router /ws/admin [get]
func (h *WebSocketHandler) HandleConnections(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		token = middleware.BearerToken(c)
	}
	subject, err := h.tokens.Subject(token)
	if err != nil {
		fail(c, http.StatusUnauthorized, "Invalid or expired token")
		return
	}

	ws, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	client := &feedClient{
		id:      uuid.NewString(),
		subject: subject,
		conn:    ws,
		send:    make(chan []byte, sendBuffer),
		quit:    make(chan struct{}),
	}
	select {
	case h.register <- client:
	case <-h.done:
		ws.Close()
		return
	}

	go h.writePump(client)
	h.readPump(client)
}

func (h *WebSocketHandler) readPump(client *feedClient) {
	defer func() {
		select {
		case h.unregister <- client:
		case <-h.done:
		}
		client.conn.Close()
	}()

	client.conn.SetReadLimit(maxFrameSize)
	_ = client.conn.SetReadDeadline(time.Now().Add(pongWait))
	client.conn.SetPongHandler(func(string) error {
		return client.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var msg map[string]interface{}
		if err := client.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Debug("websocket read error", zap.String("client", client.id), zap.Error(err))
			}
			return
		}

		var response map[string]interface{}
		switch msg["type"] {
		case "subscribe":
			response = map[string]interface{}{
				"type":      "subscribed",
				"message":   "Subscribed to quote events",
				"timestamp": time.Now().Unix(),
			}
		case "ping":
			response = map[string]interface{}{
				"type": "pong",
				"time": time.Now().Unix(),
			}
		default:
			response = map[string]interface{}{
				"type":      "error",
				"message":   "Unknown message type",
				"timestamp": time.Now().Unix(),
			}
		}
		h.enqueue(client, response)
	}
}

func (h *WebSocketHandler) enqueue(client *feedClient, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	select {
	case client.send <- data:
	default:
		h.logger.Warn("websocket client too slow, dropping message", zap.String("client", client.id))
	}
}

// writePump is the only goroutine writing to the connection.
func (h *WebSocketHandler) writePump(client *feedClient) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		client.conn.Close()
	}()

	for {
		select {
		case <-client.quit:
			_ = client.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = client.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		case message := <-client.send:
			_ = client.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := client.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			_ = client.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := client.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// RunHub owns the client set until ctx is cancelled.
func (h *WebSocketHandler) RunHub(ctx context.Context) error {
	h.logger.Info("websocket hub started")

	for {
		select {
		case <-ctx.Done():
			close(h.done)
			for client := range h.clients {
				client.stop()
				delete(h.clients, client)
			}
			h.logger.Info("websocket hub stopped")
			return nil

		case client := <-h.register:
			h.clients[client] = true
			h.logger.Info("admin feed client connected",
				zap.String("client", client.id),
				zap.String("subject", client.subject),
				zap.Int("clients", len(h.clients)),
			)

		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				client.stop()
				h.logger.Info("admin feed client disconnected", zap.String("client", client.id), zap.Int("clients", len(h.clients)))
			}

		case message := <-h.broadcast:
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					delete(h.clients, client)
					client.stop()
				}
			}
		}
	}
}

// BroadcastEvent queues a quote event for every connected admin. Events are dropped
// when the hub is backed up.
func (h *WebSocketHandler) BroadcastEvent(event models.QuoteEvent) {
	message := map[string]interface{}{
		"type":      event.Type,
		"quoteId":   event.QuoteID,
		"status":    event.Status,
		"timestamp": event.Timestamp,
	}

	jsonData, err := json.Marshal(message)
	if err != nil {
		h.logger.Warn("failed to marshal quote event", zap.Error(err))
		return
	}

	select {
	case h.broadcast <- jsonData:
	default:
		h.logger.Warn("admin feed backed up, dropping event", zap.String("quote_id", event.QuoteID))
	}
}
