package routes

import (
	"net/http"
	"time"

	"academix/handlers"
	"academix/middleware"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// RegisterAuthRoutes registers the primary-session endpoints.
func RegisterAuthRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/auth")
	{
		api.POST("/register", hb.Auth.RegisterHandler)
		api.POST("/login", hb.Auth.LoginHandler)

		// Logout requires a live session to revoke.
		api.POST("/logout", middleware.JWTAuthUserMiddleware(hb.UserRepo), hb.Auth.LogoutHandler)
	}
}

// RegisterPinRoutes registers PIN management and the challenge entry point.
// These stay outside the gate so a blocked user can still validate.
func RegisterPinRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/pin")
	{
		api.Use(middleware.JWTAuthUserMiddleware(hb.UserRepo))
		api.POST("", hb.Pin.SetPinHandler)
		api.GET("", hb.Pin.PinStatusHandler)
		api.DELETE("", hb.Pin.DisablePinHandler)
		api.POST("/verify", hb.Pin.VerifyPinHandler)
	}

	r.GET("/pin/challenge", middleware.JWTAuthUserMiddleware(hb.UserRepo), hb.Pin.PinChallengeHandler)
}

// RegisterDashboardRoutes registers the protected dashboard surface behind
// both the primary auth middleware and the PIN session gate.
func RegisterDashboardRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/dashboard")
	{
		api.Use(middleware.JWTAuthUserMiddleware(hb.UserRepo))
		api.Use(middleware.PinGateMiddleware(hb.PinService))
		api.GET("/overview", hb.Dashboard.OverviewHandler)
		api.GET("/announcements", hb.Dashboard.AnnouncementsHandler)
	}
}

// RegisterHealthRoute registers a health-check endpoint.
func RegisterHealthRoute(r *gin.Engine) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "message": "Hi, I'm Academix"})
	})
}

// RegisterRoutes centralizes registration of all endpoints and middleware.
func RegisterRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	// Setup global middleware (e.g., CORS) here.
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	RegisterAuthRoutes(r, hb)
	RegisterPinRoutes(r, hb)
	RegisterDashboardRoutes(r, hb)
	RegisterHealthRoute(r)
}
