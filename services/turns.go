package services

import (
	"strings"

	"namingthings/models"

	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const ReasonDuplicate = "duplicate"

type TurnAnswerRequest struct {
	Text string `json:"text" binding:"required,max=256"`
}

type TurnAnswerResult struct {
	Success bool   `json:"success"`
	Reason  string `json:"reason,omitempty"`
	TurnOutcome
}

type TimeoutResult struct {
	Success bool `json:"success"`
	TurnOutcome
}

// SubmitTurnAnswer plays the caller's turn. Repeating any answer already
// given in the game eliminates the caller instead of scoring.
func (s *GameService) SubmitTurnAnswer(player *models.Player, gameID uint, text string) (*TurnAnswerResult, error) {
	normalized := NormalizeText(text)
	if normalized == "" {
		return nil, BadRequest("answer text is required")
	}

	var (
		result TurnAnswerResult
		code   string
	)
	err := s.db.Transaction(func(tx *gorm.DB) error {
		game, err := lockGame(tx, gameID)
		if err != nil {
			return err
		}
		if err := requireStatus(game, models.StatusPlaying, "game is not in progress"); err != nil {
			return err
		}
		if !game.IsTurns() {
			return BadRequest("game is not in turns mode")
		}
		if game.IsPaused {
			return BadRequest("game is paused")
		}
		if game.CurrentTurnPlayerID == nil || *game.CurrentTurnPlayerID != player.ID {
			return BadRequest("it is not your turn")
		}
		code = game.Code

		now := s.now()
		var seen int64
		if err := tx.Model(&models.Answer{}).
			Where("game_id = ? AND normalized_text = ?", gameID, normalized).
			Count(&seen).Error; err != nil {
			return Internal("failed to check answer", err)
		}

		if seen > 0 {
			if err := eliminate(tx, gameID, player.ID, now); err != nil {
				return err
			}
			result.Reason = ReasonDuplicate
		} else {
			answer := models.Answer{
				GameID:         gameID,
				PlayerID:       player.ID,
				Text:           strings.TrimSpace(text),
				NormalizedText: normalized,
				Status:         models.AnswerAccepted,
			}
			if err := tx.Create(&answer).Error; err != nil {
				return Internal("failed to save answer", err)
			}
			if err := tx.Model(&models.GamePlayer{}).
				Where("game_id = ? AND player_id = ?", gameID, player.ID).
				Update("score", gorm.Expr("score + ?", 1)).Error; err != nil {
				return Internal("failed to update score", err)
			}
			result.Success = true
		}

		outcome, err := advanceTurn(tx, game, player.ID, now)
		if err != nil {
			return err
		}
		result.TurnOutcome = *outcome
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notify(code)
	return &result, nil
}

// TimeoutTurn eliminates the current player once their deadline has
// passed. Any client may call it; concurrent callers race on turn_version
// and only one of them applies the elimination.
func (s *GameService) TimeoutTurn(player *models.Player, gameID uint) (*TimeoutResult, error) {
	var (
		result TimeoutResult
		code   string
	)
	err := s.db.Transaction(func(tx *gorm.DB) error {
		game, err := findGame(tx, gameID)
		if err != nil {
			return err
		}

		now := s.now()
		if game.Status != models.StatusPlaying || !game.IsTurns() || game.IsPaused ||
			game.CurrentTurnDeadline == nil || game.CurrentTurnPlayerID == nil ||
			now.Before(*game.CurrentTurnDeadline) {
			return nil
		}
		timedOut := *game.CurrentTurnPlayerID

		// The version only moves when the turn changes, so an unchanged
		// version means the deadline read above is still the live one.
		res := tx.Model(&models.Game{}).
			Where("id = ? AND turn_version = ? AND current_turn_player_id = ? AND status = ? AND is_paused = ?",
				gameID, game.TurnVersion, timedOut, models.StatusPlaying, false).
			Update("turn_version", gorm.Expr("turn_version + 1"))
		if res.Error != nil {
			return Internal("failed to claim turn timeout", res.Error)
		}
		if res.RowsAffected != 1 {
			return nil
		}

		if err := eliminate(tx, gameID, timedOut, now); err != nil {
			return err
		}
		outcome, err := advanceTurn(tx, game, timedOut, now)
		if err != nil {
			return err
		}
		result.Success = true
		result.TurnOutcome = *outcome
		code = game.Code
		return nil
	})
	if err != nil {
		return nil, err
	}

	if result.Success {
		log.WithFields(log.Fields{"game_id": gameID, "caller": player.ID}).Info("turn timed out")
		s.notify(code)
	}
	return &result, nil
}
