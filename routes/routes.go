package routes

import (
	"net/http"

	"namingthings/handlers"
	"namingthings/middleware"
	"namingthings/services"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
)

// Origin checks are done by the CORS layer in front of the router.
var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type Handlers struct {
	Session *handlers.SessionHandler
	Game    *handlers.GameHandler
	Answer  *handlers.AnswerHandler
}

func SetupRoutes(
	router *gin.Engine,
	h Handlers,
	hub *services.Hub,
	gameService *services.GameService,
	sessionService *services.SessionService,
) {
	api := router.Group("/api")
	{
		// Session bootstrap (public)
		api.POST("/session", h.Session.EnsureSession)

		protected := api.Group("/")
		protected.Use(middleware.SessionAuth(sessionService))
		{
			protected.GET("/session", h.Session.GetSession)

			protected.POST("/games", h.Game.CreateGame)

			codes := protected.Group("/codes")
			{
				codes.GET("/:code", h.Game.GetGameState)
				codes.POST("/:code/join", h.Game.JoinGame)
				codes.POST("/:code/spectate", h.Game.SpectateGame)
			}

			games := protected.Group("/games/:id")
			{
				games.POST("/join-as-player", h.Game.JoinAsPlayer)

				games.PUT("/category", h.Game.SetCategory)
				games.PUT("/timer", h.Game.SetTimer)
				games.PUT("/turn-timer", h.Game.SetTurnTimer)
				games.PUT("/mode", h.Game.SetMode)

				games.POST("/start", h.Game.StartRound)
				games.POST("/end-answering", h.Game.EndAnswering)
				games.POST("/pause", h.Game.PauseGame)
				games.POST("/resume", h.Game.ResumeGame)
				games.POST("/terminate", h.Game.TerminateGame)
				games.POST("/finish", h.Game.FinishGame)
				games.POST("/rematch", h.Game.CreateRematch)
				games.DELETE("/players/:playerId", h.Game.KickPlayer)

				games.POST("/turn-answer", h.Game.SubmitTurnAnswer)
				games.POST("/timeout-turn", h.Game.TimeoutTurn)

				games.POST("/answers", h.Answer.SubmitAnswer)
				games.POST("/answers/batch", h.Answer.SubmitAnswersBatch)
				games.GET("/answers", h.Answer.GetAllAnswers)
				games.GET("/answers/mine", h.Answer.GetMyAnswers)
				games.GET("/standings", h.Answer.GetStandings)
			}

			answers := protected.Group("/answers/:id")
			{
				answers.POST("/dispute", h.Answer.DisputeAnswer)
				answers.POST("/votes", h.Answer.CastVote)
			}
		}
	}

	// Invalidation pings for clients watching a join code
	router.GET("/ws", func(c *gin.Context) {
		code := services.NormalizeCode(c.Query("gameCode"))
		if code == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "gameCode is required"})
			return
		}

		exists, err := gameService.GameExists(code)
		if err != nil {
			log.WithError(err).WithField("code", code).Error("websocket game lookup failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}
		if !exists {
			c.JSON(http.StatusNotFound, gin.H{"error": "game not found"})
			return
		}

		// Identity is optional; anonymous sockets only receive pings.
		var playerID uint
		if token := sessionToken(c); token != "" {
			if player, err := sessionService.Resolve(token); err == nil {
				playerID = player.ID
			}
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			log.WithError(err).WithField("code", code).Warn("websocket upgrade failed")
			return
		}

		hub.RegisterClient(conn, code, playerID)
	})

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
}

func sessionToken(c *gin.Context) string {
	if token := c.GetHeader(middleware.SessionHeader); token != "" {
		return token
	}
	return c.Query("sessionToken")
}
