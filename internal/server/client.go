package server

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingInterval   = (pongWait * 9) / 10
	maxMessageSize = 4096
)

// Client is the server-side session for one live websocket connection. The
// session id is distinct from the user identity: a user reconnecting gets a
// fresh session.
type Client struct {
	conn      *websocket.Conn
	hub       *RelayHub
	log       *log.Logger
	sessionId string
	userId    string
	userName  string
	send      chan *ServerMessage
	stop      chan struct{}

	// subs and typingIn are the session's channel subscriptions and the
	// channels it has an outstanding typing-start in. Only the hub
	// goroutine touches them.
	subs     map[string]struct{}
	typingIn map[string]struct{}

	cleanupOnce sync.Once
}

func NewClient(userId, userName string, conn *websocket.Conn, hub *RelayHub, l *log.Logger) *Client {
	return &Client{
		conn:      conn,
		hub:       hub,
		log:       l,
		sessionId: uuid.NewString(),
		userId:    userId,
		userName:  userName,
		send:      make(chan *ServerMessage, 256),
		stop:      make(chan struct{}),
		subs:      make(map[string]struct{}),
		typingIn:  make(map[string]struct{}),
	}
}

func (c *Client) SessionId() string {
	return c.sessionId
}

func (c *Client) Write() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				return
			}

			bytes, err := json.Marshal(msg)
			if err != nil {
				c.log.Println("failed to serialize message:", err)
				continue
			}

			if !c.sendMessage(websocket.TextMessage, bytes) {
				return
			}
		case <-c.stop:
			return
		case <-ticker.C:
			if !c.sendMessage(websocket.PingMessage, nil) {
				return
			}
		}
	}
}

func (c *Client) Read() {
	defer func() {
		c.conn.Close()
		c.cleanup()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(appData string) error { c.conn.SetReadDeadline(time.Now().Add(pongWait)); return nil })
	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure,
				websocket.CloseNormalClosure) {
				c.log.Printf("ws: read: %v", err)
			}
			break
		}

		var msg ClientMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			c.log.Println("error parsing message:", err)
			continue
		}

		if err := msg.validate(); err != nil {
			c.log.Printf("dropping invalid event from session %s: %v", c.sessionId, err)
			continue
		}

		msg.client = c
		c.hub.Submit(&msg)
	}
}

// cleanup delivers the disconnect event to the hub exactly once, even if the
// read pump races a hub-initiated shutdown.
func (c *Client) cleanup() {
	c.cleanupOnce.Do(func() {
		c.hub.Submit(&ClientMessage{disconnect: true, client: c})
	})
}

func (c *Client) queueMessage(msg *ServerMessage) bool {
	select {
	case c.send <- msg:
	default:
		c.log.Printf("send buffer full for session %s, dropping event", c.sessionId)
		return false
	}

	return true
}

func (c *Client) sendMessage(msgType int, msg []byte) bool {
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))

	if err := c.conn.WriteMessage(msgType, msg); err != nil {
		if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure,
			websocket.CloseNormalClosure) {
			c.log.Printf("write message: %s", err)
		}
		return false
	}

	return true
}

func (c *Client) stopClient() {
	select {
	case <-c.stop:
	default:
		close(c.stop)
	}
}
