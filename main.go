package main

import (
	"log"
	"net/http"
	"os"
	"time"

	"github.com/squarespool/squares-backend/config"
	"github.com/squarespool/squares-backend/controllers"
	"github.com/squarespool/squares-backend/routes"
	"github.com/squarespool/squares-backend/services"
	"github.com/squarespool/squares-backend/store"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// setupRouter initializes Gin routes and middleware
func setupRouter(engine *services.Engine, hub *services.Hub, st *store.Store) *gin.Engine {
	r := gin.Default()

	// Middleware
	r.Use(gin.Logger())
	r.Use(gin.Recovery())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{config.Getenv("CORS_ORIGIN", "http://localhost:3000")},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Setup REST routes
	routes.SetupRoutes(r)

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "timestamp": time.Now()})
	})

	// WebSocket endpoint, one room per game code
	r.GET("/ws/:code", services.WSHandler(engine, hub, st))

	return r
}

func main() {
	// Load env variables
	config.LoadEnv()

	// Connect to database
	db := config.SetupDatabase()
	st := store.New(db)

	// Wire the game engine and broadcaster
	hub := services.NewHub()
	engine := services.NewEngine(st, hub, services.NewTwilioVerifier(), services.NewResendMailer())
	controllers.Init(engine)

	router := setupRouter(engine, hub, st)

	// Start server
	port := os.Getenv("PORT")
	if port == "" {
		port = "4000"
	}

	log.Printf("🚀 Squares backend starting on port %s", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatalf("[FATAL] Failed to start server: %v", err)
	}
}
