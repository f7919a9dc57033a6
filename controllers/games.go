package controllers

import (
	"net/http"

	"github.com/squarespool/squares-backend/services"

	"github.com/gin-gonic/gin"
)

type createGameRequest struct {
	Name           string   `json:"name" binding:"required"`
	PricePerSquare *float64 `json:"pricePerSquare" binding:"required"`
	PayoutQ1       *float64 `json:"payoutQ1" binding:"required"`
	PayoutQ2       *float64 `json:"payoutQ2" binding:"required"`
	PayoutQ3       *float64 `json:"payoutQ3" binding:"required"`
	PayoutFinal    *float64 `json:"payoutFinal" binding:"required"`
	AdminName      string   `json:"adminName" binding:"required"`
}

// CreateGame creates a game with its admin and 100 empty cells.
func CreateGame(c *gin.Context) {
	var req createGameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	g, admin, err := engine.CreateGame(services.CreateGameSpec{
		Name:           req.Name,
		PricePerSquare: *req.PricePerSquare,
		PayoutQ1:       *req.PayoutQ1,
		PayoutQ2:       *req.PayoutQ2,
		PayoutQ3:       *req.PayoutQ3,
		PayoutFinal:    *req.PayoutFinal,
		AdminName:      req.AdminName,
	})
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"gameId":  g.ID,
		"code":    g.Code,
		"adminId": admin.ID,
		"message": "Game created successfully",
	})
}

// GetGame returns the game summary with participants and counts.
func GetGame(c *gin.Context) {
	info, err := engine.Info(c.Param("code"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, info)
}

// GetCells returns the authoritative grid snapshot (polling backstop).
func GetCells(c *gin.Context) {
	grid, err := engine.Snapshot(c.Param("code"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, grid)
}

type joinGameRequest struct {
	Name         string  `json:"name" binding:"required"`
	SquaresToBuy *int    `json:"squaresToBuy" binding:"required"`
	Phone        *string `json:"phone"`
	Email        *string `json:"email"`
}

// JoinGame adds a participant to a pending game.
func JoinGame(c *gin.Context) {
	var req joinGameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	p, err := engine.JoinGame(c.Param("code"), req.Name, *req.SquaresToBuy, req.Phone, req.Email)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"participantId": p.ID,
		"gameId":        p.GameID,
		"message":       "Joined game successfully",
	})
}

type selectCellRequest struct {
	ParticipantID uint   `json:"participantId" binding:"required"`
	Action        string `json:"action" binding:"required"`
	Row           *int   `json:"row" binding:"required"`
	Col           *int   `json:"col" binding:"required"`
}

// SelectCell claims or releases one cell.
func SelectCell(c *gin.Context) {
	var req selectCellRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := engine.SelectCell(c.Param("code"), req.ParticipantID, *req.Row, *req.Col, req.Action); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

type submitPicksRequest struct {
	ParticipantID uint `json:"participantId" binding:"required"`
}

// SubmitPicks locks a participant's selection.
func SubmitPicks(c *gin.Context) {
	var req submitPicksRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := engine.SubmitPicks(c.Param("code"), req.ParticipantID); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

type startGameRequest struct {
	AdminID uint `json:"adminId" binding:"required"`
}

// StartGame locks the board and assigns the row/column numbers.
func StartGame(c *gin.Context) {
	var req startGameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	rows, cols, err := engine.StartGame(c.Param("code"), req.AdminID)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"rowNumbers": rows,
		"colNumbers": cols,
		"message":    "Game started",
	})
}
