// internal/handler/websocket_types.go
package handler

import (
	"time"

	"github.com/gorilla/websocket"
)

// Client is one connected job-events websocket subscriber.
type Client struct {
	ID          string
	Connection  *websocket.Conn
	Send        chan []byte
	RemoteAddr  string
	ConnectedAt time.Time
}
