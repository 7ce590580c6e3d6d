package middleware

import (
	"net/http"
	"time"

	"namingthings/models"
	"namingthings/services"

	"github.com/gin-gonic/gin"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

const (
	SessionHeader   = "X-Session-Token"
	RequestIDHeader = "X-Request-ID"
	playerKey       = "player"
)

// CORS wraps the whole router so preflight requests never reach gin.
func CORS(origins []string) func(http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", SessionHeader, RequestIDHeader},
		ExposedHeaders:   []string{RequestIDHeader},
		AllowCredentials: false,
		MaxAge:           300,
	})
}

// RateLimit caps requests per client IP.
func RateLimit(requests int, window time.Duration) func(http.Handler) http.Handler {
	return httprate.LimitByIP(requests, window)
}

// RequestLogger tags each request with an id and logs it on completion.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Header(RequestIDHeader, requestID)

		c.Next()

		entry := log.WithFields(log.Fields{
			"request_id":  requestID,
			"method":      c.Request.Method,
			"path":        c.FullPath(),
			"status":      c.Writer.Status(),
			"duration_ms": time.Since(start).Milliseconds(),
		})
		if len(c.Errors) > 0 {
			entry.WithField("errors", c.Errors.String()).Warn("request completed with errors")
			return
		}
		entry.Info("request completed")
	}
}

// SessionAuth resolves the session token header to a player and stores it
// on the context.
func SessionAuth(sessions *services.SessionService) gin.HandlerFunc {
	return func(c *gin.Context) {
		player, err := sessions.Resolve(c.GetHeader(SessionHeader))
		if err != nil {
			status := http.StatusUnauthorized
			if !services.IsKind(err, services.KindUnauthorized) {
				status = http.StatusInternalServerError
				log.WithError(err).Error("session lookup failed")
			}
			c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
			return
		}
		c.Set(playerKey, player)
		c.Next()
	}
}

// CurrentPlayer returns the player stored by SessionAuth.
func CurrentPlayer(c *gin.Context) (*models.Player, bool) {
	value, exists := c.Get(playerKey)
	if !exists {
		return nil, false
	}
	player, ok := value.(*models.Player)
	return player, ok
}
