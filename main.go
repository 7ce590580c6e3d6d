package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"namingthings/config"
	"namingthings/handlers"
	"namingthings/middleware"
	"namingthings/models"
	"namingthings/routes"
	"namingthings/services"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

func main() {
	if err := config.LoadDotEnv(".env"); err != nil {
		log.WithError(err).Warn("failed to load .env")
	}

	// Load configuration
	cfg := config.Load()
	config.InitLogging(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize database
	db, err := config.InitDB(cfg)
	if err != nil {
		log.WithError(err).Fatal("failed to connect to database")
	}

	if err := db.AutoMigrate(models.All()...); err != nil {
		log.WithError(err).Fatal("failed to migrate database")
	}

	// Initialize WebSocket hub
	hub := services.NewHub()
	go hub.Run()

	notifier, err := setupNotifier(ctx, cfg, hub)
	if err != nil {
		log.WithError(err).Fatal("failed to set up notifications")
	}

	// Initialize services
	sessionService := services.NewSessionService(db)
	gameService := services.NewGameService(db, notifier, services.GameDefaults{
		TimerSeconds:     cfg.DefaultTimerSeconds,
		TurnTimerSeconds: cfg.DefaultTurnTimerSeconds,
	})

	// Initialize handlers
	h := routes.Handlers{
		Session: handlers.NewSessionHandler(sessionService),
		Game:    handlers.NewGameHandler(gameService),
		Answer:  handlers.NewAnswerHandler(gameService),
	}

	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestLogger())
	routes.SetupRoutes(router, h, hub, gameService, sessionService)

	var handler http.Handler = router
	handler = middleware.RateLimit(cfg.RateLimitPerMinute, time.Minute)(handler)
	handler = middleware.CORS(cfg.CORSOrigins)(handler)

	server := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.WithField("addr", server.Addr).Info("server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("failed to start server")
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("server shutdown failed")
	}
}

// setupNotifier picks the invalidation transport. With a broker, mutations
// publish to it and a relay feeds the local hub, so every instance's
// sockets hear about every change.
func setupNotifier(ctx context.Context, cfg *config.Config, hub *services.Hub) (services.Notifier, error) {
	switch cfg.NotifyBackend {
	case "redis":
		client := config.InitRedis(cfg)
		if err := client.Ping(ctx).Err(); err != nil {
			return nil, err
		}
		relay := services.NewRedisRelay(client, hub)
		go func() {
			if err := relay.Run(ctx); err != nil {
				log.WithError(err).Error("redis relay stopped")
			}
		}()
		return services.NewRedisNotifier(client), nil

	case "nats":
		conn, err := config.InitNATS(cfg)
		if err != nil {
			return nil, err
		}
		if _, err := services.NewNATSRelay(conn, hub).Start(); err != nil {
			return nil, err
		}
		go func() {
			<-ctx.Done()
			conn.Drain()
		}()
		return services.NewNATSNotifier(conn), nil

	case "none":
		return services.NoopNotifier{}, nil

	default:
		return hub, nil
	}
}
