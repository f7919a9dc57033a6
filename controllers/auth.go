package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type sendOTPRequest struct {
	Phone string `json:"phone" binding:"required"`
}

// SendOTP asks the SMS provider to text a verification code.
func SendOTP(c *gin.Context) {
	var req sendOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := engine.SendOTP(req.Phone); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Verification code sent"})
}

type loginRequest struct {
	Phone   string `json:"phone" binding:"required"`
	OTPCode string `json:"otpCode" binding:"required"`
}

// Login resolves a participant by verified phone number.
func Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	p, err := engine.LoginWithOTP(c.Param("code"), req.Phone, req.OTPCode)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"participantId": p.ID,
		"gameId":        p.GameID,
		"isAdmin":       p.IsAdmin,
		"name":          p.Name,
		"squaresToBuy":  p.Quota,
	})
}

type sendMagicLinkRequest struct {
	Email    string `json:"email" binding:"required"`
	GameCode string `json:"gameCode" binding:"required"`
}

// SendMagicLink emails a single-use login link.
func SendMagicLink(c *gin.Context) {
	var req sendMagicLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := engine.SendMagicLink(req.GameCode, req.Email); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Check your email for a link to log in"})
}

type verifyMagicLinkRequest struct {
	Token string `json:"token" binding:"required"`
}

// VerifyMagicLink consumes a token and logs the participant in.
func VerifyMagicLink(c *gin.Context) {
	var req verifyMagicLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	p, g, err := engine.VerifyMagicLink(req.Token)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"participantId": p.ID,
		"gameId":        g.ID,
		"gameCode":      g.Code,
		"isAdmin":       p.IsAdmin,
		"name":          p.Name,
		"squaresToBuy":  p.Quota,
	})
}
