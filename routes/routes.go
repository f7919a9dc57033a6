package routes

import (
	"github.com/squarespool/squares-backend/controllers"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(r *gin.Engine) {
	api := r.Group("/api")

	// ----------------------
	// Game routes
	// ----------------------
	api.POST("/games", controllers.CreateGame)             // Create game + admin + 100 cells
	api.GET("/games/:code", controllers.GetGame)           // Game summary
	api.GET("/games/:code/cells", controllers.GetCells)    // Grid snapshot
	api.POST("/games/:code/join", controllers.JoinGame)    // Join a pending game
	api.POST("/games/:code/cells", controllers.SelectCell) // Claim or release a cell
	api.POST("/games/:code/submit", controllers.SubmitPicks)
	api.POST("/games/:code/start", controllers.StartGame)
	api.POST("/games/:code/login", controllers.Login) // OTP login

	// ----------------------
	// Auth routes
	// ----------------------
	api.POST("/auth/send-otp", controllers.SendOTP)
	api.POST("/auth/send-magic-link", controllers.SendMagicLink)
	api.POST("/auth/verify-magic-link", controllers.VerifyMagicLink)
}
