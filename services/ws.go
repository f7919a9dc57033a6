package services

import (
	"net/http"
	"strconv"

	"github.com/squarespool/squares-backend/game"
	"github.com/squarespool/squares-backend/store"
	"github.com/squarespool/squares-backend/utils/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// WSHandler upgrades a connection and subscribes it to a game's room.
// The participant query param ties inbound commands to an identity;
// viewers without one still receive broadcasts.
func WSHandler(engine *Engine, hub *Hub, st *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		code := game.NormalizeCode(c.Param("code"))
		g, err := st.GameByCode(code)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "game not found"})
			return
		}

		var participantID uint
		if raw := c.Query("participant"); raw != "" {
			id64, err := strconv.ParseUint(raw, 10, 64)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid participant ID"})
				return
			}
			if _, err := st.ParticipantByID(g.ID, uint(id64)); err != nil {
				c.JSON(http.StatusNotFound, gin.H{"error": "participant not found"})
				return
			}
			participantID = uint(id64)
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			logger.Errorf("[WS] upgrade error: %v", err)
			return
		}

		client := &Client{
			id:            uuid.NewString(),
			gameCode:      code,
			participantID: participantID,
			conn:          conn,
			engine:        engine,
			hub:           hub,
			send:          make(chan []byte, 32),
		}
		logger.Infof("[WS] new client %s: game=%s participant=%d", client.id, code, participantID)

		hub.Subscribe(code, client)
		go client.writePump()
		go client.readPump()
	}
}
