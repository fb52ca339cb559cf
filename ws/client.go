package ws

import (
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 1024
)

// Client is one live websocket connection for one player. A player may
// reconnect with a fresh connection at any time; the registry decides which
// connection is current.
type Client struct {
	conn     *websocket.Conn
	connID   string
	playerID string
	send     chan []byte
}
