package handlers

import (
	"net/http"

	"namingthings/models"
	"namingthings/services"

	"github.com/gin-gonic/gin"
)

type AnswerHandler struct {
	gameService *services.GameService
}

func NewAnswerHandler(gameService *services.GameService) *AnswerHandler {
	return &AnswerHandler{gameService: gameService}
}

func (h *AnswerHandler) SubmitAnswer(c *gin.Context) {
	gameAction(c, func(player *models.Player, gameID uint) {
		var req services.SubmitAnswerRequest
		if !bindJSON(c, &req) {
			return
		}
		answer, err := h.gameService.SubmitAnswer(player, gameID, req.Text)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, answer)
	})
}

func (h *AnswerHandler) SubmitAnswersBatch(c *gin.Context) {
	gameAction(c, func(player *models.Player, gameID uint) {
		var req services.SubmitBatchRequest
		if !bindJSON(c, &req) {
			return
		}
		texts := make([]string, 0, len(req.Answers))
		for _, a := range req.Answers {
			texts = append(texts, a.Text)
		}
		inserted, err := h.gameService.SubmitAnswersBatch(player, gameID, texts)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"inserted_count": inserted})
	})
}

func (h *AnswerHandler) GetAllAnswers(c *gin.Context) {
	gameAction(c, func(player *models.Player, gameID uint) {
		groups, err := h.gameService.GetAllAnswers(player, gameID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, groups)
	})
}

func (h *AnswerHandler) GetMyAnswers(c *gin.Context) {
	gameAction(c, func(player *models.Player, gameID uint) {
		answers, err := h.gameService.GetMyAnswers(player, gameID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, answers)
	})
}

func (h *AnswerHandler) GetStandings(c *gin.Context) {
	gameAction(c, func(player *models.Player, gameID uint) {
		standings, err := h.gameService.GetStandings(player, gameID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, standings)
	})
}

func (h *AnswerHandler) DisputeAnswer(c *gin.Context) {
	player, authed := currentPlayer(c)
	if !authed {
		return
	}
	answerID, valid := uintParam(c, "id")
	if !valid {
		return
	}

	if err := h.gameService.DisputeAnswer(player, answerID); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c)
}

func (h *AnswerHandler) CastVote(c *gin.Context) {
	player, authed := currentPlayer(c)
	if !authed {
		return
	}
	answerID, valid := uintParam(c, "id")
	if !valid {
		return
	}
	var req services.CastVoteRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := h.gameService.CastVote(player, answerID, *req.Accept); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c)
}
