// internal/handler/websocket_handler.go
package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// WebSocketHandler streams job-completion events to admin-surface
// subscribers, trimmed from the teacher's multi-topic device/operation/
// branch websocket surface to this driver's single job stream.
type WebSocketHandler struct {
	upgrader websocket.Upgrader
	eventBus *EventBus
	logger   *zap.Logger
}

// NewWebSocketHandler creates a websocket handler and starts its event bus.
func NewWebSocketHandler(logger *zap.Logger) *WebSocketHandler {
	h := &WebSocketHandler{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		eventBus: NewEventBus(logger),
		logger:   logger,
	}
	go h.eventBus.Start()
	return h
}

// RegisterRoutes registers the job-events websocket route.
func (h *WebSocketHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/jobs", h.HandleJobEvents)
}

// PublishJobEvent notifies subscribers that a job completed.
func (h *WebSocketHandler) PublishJobEvent(slot int, result string) {
	h.eventBus.Publish(Event{Slot: slot, Result: result, Timestamp: time.Now()})
}

// HandleJobEvents upgrades the connection and streams job events to it
// until the client disconnects.
func (h *WebSocketHandler) HandleJobEvents(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed", zap.Error(err))
		return
	}

	client := &Client{
		ID:          uuid.New().String(),
		Connection:  conn,
		Send:        make(chan []byte, 256),
		RemoteAddr:  c.Request.RemoteAddr,
		ConnectedAt: time.Now(),
	}
	h.logger.Info("job events client connected", zap.String("client_id", client.ID))

	sub := h.eventBus.Subscribe()
	go h.pump(client, sub)
	go h.discardReads(client, sub)
}

// pump forwards bus events and periodic pings to the client connection.
func (h *WebSocketHandler) pump(client *Client, sub chan Event) {
	ticker := time.NewTicker(54 * time.Second)
	defer func() {
		ticker.Stop()
		h.eventBus.Unsubscribe(sub)
		client.Connection.Close()
	}()

	for {
		select {
		case event, ok := <-sub:
			if !ok {
				return
			}
			payload, err := json.Marshal(event)
			if err != nil {
				continue
			}
			client.Connection.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := client.Connection.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			client.Connection.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := client.Connection.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// discardReads drains (and ignores) anything the client sends, keeping the
// connection's read deadline alive via pong handling until it closes.
func (h *WebSocketHandler) discardReads(client *Client, sub chan Event) {
	client.Connection.SetReadDeadline(time.Now().Add(60 * time.Second))
	client.Connection.SetPongHandler(func(string) error {
		client.Connection.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})
	for {
		if _, _, err := client.Connection.ReadMessage(); err != nil {
			return
		}
	}
}
