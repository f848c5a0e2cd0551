package websocket

import (
	"bytes"
	"log"
	"time"

	"github.com/gorilla/websocket"
)

const sendBufferSize = 256

var frameSeparator = []byte{'\n'}

// Client is one feed subscriber. Everything the manager wants delivered goes
// through Send; closing Send ends the connection.
type Client struct {
	ID     string
	UserID string
	Send   chan []byte

	conn    *websocket.Conn
	manager *Manager
}

func NewClient(id, userID string, conn *websocket.Conn, manager *Manager) *Client {
	return &Client{
		ID:      id,
		UserID:  userID,
		Send:    make(chan []byte, sendBufferSize),
		conn:    conn,
		manager: manager,
	}
}

// Serve starts the connection's reader and writer. Both stop when the peer
// goes away or the manager shuts down.
func (c *Client) Serve() {
	go c.writeLoop()
	go c.readLoop()
}

func (c *Client) readLoop() {
	defer func() {
		c.manager.unsubscribe(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(c.manager.maxMessageSize)
	c.extendReadDeadline()
	c.conn.SetPongHandler(func(string) error {
		c.extendReadDeadline()
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("websocket read from client %s: %v", c.ID, err)
			}
			return
		}

		if !c.manager.deliver(&ClientMessage{Client: c, Message: data}) {
			return
		}
	}
}

func (c *Client) extendReadDeadline() {
	c.conn.SetReadDeadline(time.Now().Add(c.manager.pongWait))
}

// writeLoop is the only writer on the connection. Messages that queue up
// while a frame is in flight leave together in the next frame, one JSON
// document per line.
func (c *Client) writeLoop() {
	ticker := time.NewTicker(c.manager.pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case first, ok := <-c.Send:
			if !ok {
				c.writeControl(websocket.CloseMessage)
				return
			}
			if err := c.writeBatch(first); err != nil {
				return
			}

		case <-ticker.C:
			if err := c.writeControl(websocket.PingMessage); err != nil {
				return
			}
		}
	}
}

func (c *Client) writeBatch(first []byte) error {
	batch := [][]byte{first}
	for pending := len(c.Send); pending > 0; pending-- {
		msg, ok := <-c.Send
		if !ok {
			break
		}
		batch = append(batch, msg)
	}

	c.conn.SetWriteDeadline(time.Now().Add(c.manager.writeWait))
	return c.conn.WriteMessage(websocket.TextMessage, bytes.Join(batch, frameSeparator))
}

func (c *Client) writeControl(messageType int) error {
	return c.conn.WriteControl(messageType, nil, time.Now().Add(c.manager.writeWait))
}
