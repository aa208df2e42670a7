// File: academix/main.go
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"academix/config"
	"academix/cron"
	"academix/database"
	pinRepoPkg "academix/database/repository/pin"
	userRepoPkg "academix/database/repository/user"
	"academix/handlers"
	"academix/middleware"
	"academix/routes"
	"academix/services/pin"
	"academix/services/user"
	"academix/utils"

	"github.com/gin-gonic/gin"
)

func main() {
	config.LoadConfig()
	logger := utils.GetLogger()

	database.InitDB()
	utils.InitAuthCache()

	// The elevated handle is the only path authorized to write PIN
	// credentials. Without it the app still serves reads and the gate keeps
	// working; PIN setup and rotation abort instead of degrading to the
	// ordinary client.
	adminFactory, err := database.NewAdminConnFactory()
	if err != nil {
		if errors.Is(err, database.ErrAdminCredentialMissing) {
			logger.Sugar().Warn("main: ADMIN_DATABASE_URL not set; PIN setup disabled")
		} else {
			logger.Sugar().Fatalf("main: failed to initialize admin connection: %v", err)
		}
		adminFactory = nil
	}

	// Create the Gin router.
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.ErrorHandler())
	router.Use(gin.Logger())
	router.Use(middleware.RateLimitMiddleware())

	// repositories.
	userRepo := userRepoPkg.NewMongoUserRepo()
	pinRepo := pinRepoPkg.NewMongoPinRepo(adminFactory)

	// services.
	userService := &user.DefaultUserService{
		Repo: userRepo,
	}
	pinService := &pin.DefaultPinService{
		Repo:   pinRepo,
		Hasher: pin.NewBcryptPinHasher(),
	}

	// Assemble the handler bundle.
	handlerBundle := &handlers.HandlerBundle{
		UserRepo:   userRepo,
		PinService: pinService,
		Auth:       handlers.NewAuthHandler(userService),
		Pin:        handlers.NewPinHandler(pinService),
		Dashboard:  handlers.NewDashboardHandler(userService),
	}

	// Register routes with the assembled handler bundle.
	routes.RegisterRoutes(router, handlerBundle)

	// Background sweep of long-disabled PIN records; needs the elevated
	// write path, so skip it when that is unavailable.
	if adminFactory != nil {
		cron.InitPinMaintenanceWorker(pinRepo)
	}

	// Start the HTTP server.
	port := config.AppConfig.AppPort
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:    "0.0.0.0:" + port,
		Handler: router,
	}

	logger.Sugar().Infof("Starting server on %s...", srv.Addr)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Sugar().Fatalf("main: server failed to start: %v", err)
		}
	}()

	// Wait for an OS signal to gracefully shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Sugar().Info("main: server is shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Sugar().Fatalf("main: server forced to shutdown: %v", err)
	}

	logger.Sugar().Info("main: server stopped gracefully")
}
