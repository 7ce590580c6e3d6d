package handlers

import (
	"net/http"

	"namingthings/models"
	"namingthings/services"

	"github.com/gin-gonic/gin"
)

type GameHandler struct {
	gameService *services.GameService
}

func NewGameHandler(gameService *services.GameService) *GameHandler {
	return &GameHandler{gameService: gameService}
}

type codeResponse struct {
	Code   string `json:"code"`
	GameID uint   `json:"game_id"`
}

// gameAction resolves the caller and the :id param, then runs fn.
func gameAction(c *gin.Context, fn func(player *models.Player, gameID uint)) {
	player, authed := currentPlayer(c)
	if !authed {
		return
	}
	gameID, valid := uintParam(c, "id")
	if !valid {
		return
	}
	fn(player, gameID)
}

func (h *GameHandler) CreateGame(c *gin.Context) {
	player, authed := currentPlayer(c)
	if !authed {
		return
	}

	game, err := h.gameService.CreateGame(player)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, codeResponse{Code: game.Code, GameID: game.ID})
}

func (h *GameHandler) JoinGame(c *gin.Context) {
	player, authed := currentPlayer(c)
	if !authed {
		return
	}

	game, err := h.gameService.JoinGame(player, c.Param("code"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, codeResponse{Code: game.Code, GameID: game.ID})
}

func (h *GameHandler) SpectateGame(c *gin.Context) {
	player, authed := currentPlayer(c)
	if !authed {
		return
	}

	if _, err := h.gameService.SpectateGame(player, c.Param("code")); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c)
}

func (h *GameHandler) GetGameState(c *gin.Context) {
	player, authed := currentPlayer(c)
	if !authed {
		return
	}

	view, err := h.gameService.GetGameState(player, c.Param("code"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, view)
}

func (h *GameHandler) JoinAsPlayer(c *gin.Context) {
	gameAction(c, func(player *models.Player, gameID uint) {
		if err := h.gameService.JoinAsPlayer(player, gameID); err != nil {
			respondError(c, err)
			return
		}
		respondOK(c)
	})
}

func (h *GameHandler) SetCategory(c *gin.Context) {
	gameAction(c, func(player *models.Player, gameID uint) {
		var req services.SetCategoryRequest
		if !bindJSON(c, &req) {
			return
		}
		if err := h.gameService.SetCategory(player, gameID, req.Category); err != nil {
			respondError(c, err)
			return
		}
		respondOK(c)
	})
}

func (h *GameHandler) SetTimer(c *gin.Context) {
	gameAction(c, func(player *models.Player, gameID uint) {
		var req services.SetTimerRequest
		if !bindJSON(c, &req) {
			return
		}
		if err := h.gameService.SetTimer(player, gameID, req.Seconds); err != nil {
			respondError(c, err)
			return
		}
		respondOK(c)
	})
}

func (h *GameHandler) SetTurnTimer(c *gin.Context) {
	gameAction(c, func(player *models.Player, gameID uint) {
		var req services.SetTimerRequest
		if !bindJSON(c, &req) {
			return
		}
		if err := h.gameService.SetTurnTimer(player, gameID, req.Seconds); err != nil {
			respondError(c, err)
			return
		}
		respondOK(c)
	})
}

func (h *GameHandler) SetMode(c *gin.Context) {
	gameAction(c, func(player *models.Player, gameID uint) {
		var req services.SetModeRequest
		if !bindJSON(c, &req) {
			return
		}
		if err := h.gameService.SetMode(player, gameID, req.Mode); err != nil {
			respondError(c, err)
			return
		}
		respondOK(c)
	})
}

func (h *GameHandler) StartRound(c *gin.Context) {
	gameAction(c, func(player *models.Player, gameID uint) {
		result, err := h.gameService.StartRound(player, gameID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, result)
	})
}

// simpleAction adapts the host-only {ok} operations.
func (h *GameHandler) simpleAction(op func(*models.Player, uint) error) gin.HandlerFunc {
	return func(c *gin.Context) {
		gameAction(c, func(player *models.Player, gameID uint) {
			if err := op(player, gameID); err != nil {
				respondError(c, err)
				return
			}
			respondOK(c)
		})
	}
}

func (h *GameHandler) EndAnswering(c *gin.Context) {
	h.simpleAction(h.gameService.EndAnswering)(c)
}

func (h *GameHandler) PauseGame(c *gin.Context) {
	h.simpleAction(h.gameService.PauseGame)(c)
}

func (h *GameHandler) ResumeGame(c *gin.Context) {
	h.simpleAction(h.gameService.ResumeGame)(c)
}

func (h *GameHandler) TerminateGame(c *gin.Context) {
	h.simpleAction(h.gameService.TerminateGame)(c)
}

func (h *GameHandler) FinishGame(c *gin.Context) {
	h.simpleAction(h.gameService.FinishGame)(c)
}

func (h *GameHandler) CreateRematch(c *gin.Context) {
	gameAction(c, func(player *models.Player, gameID uint) {
		game, err := h.gameService.CreateRematch(player, gameID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, codeResponse{Code: game.Code, GameID: game.ID})
	})
}

func (h *GameHandler) KickPlayer(c *gin.Context) {
	gameAction(c, func(player *models.Player, gameID uint) {
		targetID, valid := uintParam(c, "playerId")
		if !valid {
			return
		}
		if err := h.gameService.KickPlayer(player, gameID, targetID); err != nil {
			respondError(c, err)
			return
		}
		respondOK(c)
	})
}

func (h *GameHandler) SubmitTurnAnswer(c *gin.Context) {
	gameAction(c, func(player *models.Player, gameID uint) {
		var req services.TurnAnswerRequest
		if !bindJSON(c, &req) {
			return
		}
		result, err := h.gameService.SubmitTurnAnswer(player, gameID, req.Text)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, result)
	})
}

func (h *GameHandler) TimeoutTurn(c *gin.Context) {
	gameAction(c, func(player *models.Player, gameID uint) {
		result, err := h.gameService.TimeoutTurn(player, gameID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, result)
	})
}
