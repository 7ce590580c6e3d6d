package handlers

import (
	"net/http"

	"namingthings/middleware"
	"namingthings/services"

	"github.com/gin-gonic/gin"
)

type SessionHandler struct {
	sessionService *services.SessionService
}

func NewSessionHandler(sessionService *services.SessionService) *SessionHandler {
	return &SessionHandler{sessionService: sessionService}
}

type sessionResponse struct {
	SessionToken string `json:"session_token"`
	PlayerID     uint   `json:"player_id"`
	DisplayName  string `json:"display_name"`
}

// EnsureSession creates or refreshes the caller's identity. The token may
// come in the body or the session header.
func (h *SessionHandler) EnsureSession(c *gin.Context) {
	var req services.EnsureSessionRequest
	if c.Request.ContentLength != 0 && !bindJSON(c, &req) {
		return
	}
	if req.SessionToken == "" {
		req.SessionToken = c.GetHeader(middleware.SessionHeader)
	}

	player, err := h.sessionService.EnsureSession(&req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, sessionResponse{
		SessionToken: player.SessionToken,
		PlayerID:     player.ID,
		DisplayName:  player.DisplayName,
	})
}

func (h *SessionHandler) GetSession(c *gin.Context) {
	player, ok := currentPlayer(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, sessionResponse{
		SessionToken: player.SessionToken,
		PlayerID:     player.ID,
		DisplayName:  player.DisplayName,
	})
}
