package services

import (
	"encoding/json"
	"sync"

	"github.com/squarespool/squares-backend/utils/logger"

	"github.com/gorilla/websocket"
)

// Client is one websocket connection subscribed to a game.
type Client struct {
	id            string
	gameCode      string
	participantID uint
	conn          *websocket.Conn
	engine        *Engine
	hub           *Hub
	send          chan []byte
	once          sync.Once
}

func (c *Client) Close() {
	c.once.Do(func() {
		close(c.send)
		if c.conn != nil {
			c.conn.Close()
		}
	})
}

// wsCommand is the inbound message shape. Row/col are pointers so a
// missing field is distinguishable from zero.
type wsCommand struct {
	Action string `json:"action"`
	Row    *int   `json:"row"`
	Col    *int   `json:"col"`
}

// --------------------
// Client read/write pumps
// --------------------
func (c *Client) readPump() {
	defer func() {
		c.hub.Unsubscribe(c.gameCode, c)
	}()

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.Debugf("[Client %s] disconnected normally", c.id)
			} else {
				logger.Debugf("[Client %s] read error: %v", c.id, err)
			}
			return
		}
		c.handleMessage(message)
	}
}

func (c *Client) handleMessage(msg []byte) {
	defer func() {
		if r := recover(); r != nil {
			logger.Errorf("[Client %s] recovered from panic: %v", c.id, r)
		}
	}()

	var cmd wsCommand
	if err := json.Unmarshal(msg, &cmd); err != nil {
		logger.Debugf("[Client %s] invalid message: %v", c.id, err)
		return
	}

	switch cmd.Action {
	case actionClaim, actionRelease:
		if cmd.Row == nil || cmd.Col == nil {
			c.notify("row and col are required")
			return
		}
		if err := c.engine.SelectCell(c.gameCode, c.participantID, *cmd.Row, *cmd.Col, cmd.Action); err != nil {
			c.notify(err.Error())
		}
	case "submit":
		if err := c.engine.SubmitPicks(c.gameCode, c.participantID); err != nil {
			c.notify(err.Error())
		}
	default:
		logger.Debugf("[Client %s] unknown action: %q", c.id, cmd.Action)
	}
}

// notify sends an error back to this client only. Peers learn about
// successful commands through the room broadcast instead.
func (c *Client) notify(message string) {
	payload, _ := json.Marshal(Event{
		Name: "notification",
		Data: map[string]string{"message": message},
	})
	select {
	case c.send <- payload:
	default:
		logger.Debugf("[Client %s] dropping notification", c.id)
	}
}

func (c *Client) writePump() {
	defer c.conn.Close()
	for msg := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			logger.Debugf("[Client %s] write error: %v", c.id, err)
			return
		}
	}
}
