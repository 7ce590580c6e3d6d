package services

import (
	"errors"
	"time"

	"namingthings/models"

	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type StartResult struct {
	StartedAt           time.Time  `json:"started_at"`
	EndedAt             *time.Time `json:"ended_at"`
	CurrentTurnPlayerID *uint      `json:"current_turn_player_id,omitempty"`
	CurrentTurnDeadline *time.Time `json:"current_turn_deadline,omitempty"`
}

func (s *GameService) StartRound(player *models.Player, gameID uint) (*StartResult, error) {
	var (
		result StartResult
		code   string
	)
	err := s.db.Transaction(func(tx *gorm.DB) error {
		game, err := lockGame(tx, gameID)
		if err != nil {
			return err
		}
		if err := requireHost(game, player); err != nil {
			return err
		}
		if err := requireStatus(game, models.StatusLobby, "game has already started"); err != nil {
			return err
		}
		if game.Category == nil || *game.Category == "" {
			return BadRequest("a category is required to start")
		}

		now := s.now()
		result.StartedAt = now
		updates := map[string]interface{}{
			"status":     models.StatusPlaying,
			"started_at": now,
			"is_paused":  false,
		}

		if game.IsTurns() {
			var members []models.GamePlayer
			if err := tx.Where("game_id = ?", gameID).Find(&members).Error; err != nil {
				return Internal("failed to load players", err)
			}
			if len(RotationOrder(members)) < 2 {
				return BadRequest("turns mode needs at least two players")
			}
			first, ok := FirstTurnPlayer(members)
			if !ok {
				return BadRequest("turns mode needs at least two players")
			}
			deadline := now.Add(time.Duration(game.TurnTimerSeconds) * time.Second)
			updates["current_turn_player_id"] = first
			updates["current_turn_deadline"] = deadline
			updates["turn_version"] = gorm.Expr("turn_version + 1")
			updates["ended_at"] = nil
			result.CurrentTurnPlayerID = &first
			result.CurrentTurnDeadline = &deadline
		} else {
			endedAt := now.Add(time.Duration(game.TimerSeconds) * time.Second)
			updates["ended_at"] = endedAt
			result.EndedAt = &endedAt
		}

		if err := tx.Model(&models.Game{}).Where("id = ?", gameID).Updates(updates).Error; err != nil {
			return Internal("failed to start game", err)
		}
		code = game.Code
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{"game_id": gameID, "code": code}).Info("round started")
	s.notify(code)
	return &result, nil
}

// EndAnswering moves a classic round into review. A second call finds the
// game already reviewing and is rejected.
func (s *GameService) EndAnswering(player *models.Player, gameID uint) error {
	var code string
	err := s.db.Transaction(func(tx *gorm.DB) error {
		game, err := lockGame(tx, gameID)
		if err != nil {
			return err
		}
		if err := requireHost(game, player); err != nil {
			return err
		}
		if err := requireStatus(game, models.StatusPlaying, "game is not in playing state"); err != nil {
			return err
		}
		if game.IsTurns() {
			return BadRequest("turns games end by elimination")
		}
		if game.IsPaused {
			return BadRequest("game is paused")
		}

		if err := tx.Model(&models.Game{}).Where("id = ?", gameID).Update("status", models.StatusReviewing).Error; err != nil {
			return Internal("failed to end answering", err)
		}
		code = game.Code
		return nil
	})
	if err != nil {
		return err
	}

	s.notify(code)
	return nil
}

// PauseGame freezes the active deadline. The remaining time is captured
// once here and handed back verbatim on resume.
func (s *GameService) PauseGame(player *models.Player, gameID uint) error {
	var code string
	err := s.db.Transaction(func(tx *gorm.DB) error {
		game, err := lockGame(tx, gameID)
		if err != nil {
			return err
		}
		if err := requireHost(game, player); err != nil {
			return err
		}
		if err := requireStatus(game, models.StatusPlaying, "only a game in progress can be paused"); err != nil {
			return err
		}
		if game.IsPaused {
			return BadRequest("game is already paused")
		}

		now := s.now()
		updates := map[string]interface{}{
			"is_paused": true,
			"paused_at": now,
		}

		if game.IsTurns() {
			if game.CurrentTurnDeadline == nil || game.CurrentTurnPlayerID == nil {
				return Internal("turns game has no active turn", nil)
			}
			updates["paused_time_remaining_ms"] = remainingMs(*game.CurrentTurnDeadline, now)
			updates["paused_turn_player_id"] = *game.CurrentTurnPlayerID
			updates["current_turn_deadline"] = nil
			updates["current_turn_player_id"] = nil
			updates["turn_version"] = gorm.Expr("turn_version + 1")
		} else {
			if game.EndedAt == nil {
				return Internal("classic game has no end time", nil)
			}
			updates["paused_time_remaining_ms"] = remainingMs(*game.EndedAt, now)
			updates["ended_at"] = nil
		}

		if err := tx.Model(&models.Game{}).Where("id = ?", gameID).Updates(updates).Error; err != nil {
			return Internal("failed to pause game", err)
		}
		code = game.Code
		return nil
	})
	if err != nil {
		return err
	}

	log.WithField("game_id", gameID).Info("game paused")
	s.notify(code)
	return nil
}

func remainingMs(deadline, now time.Time) int64 {
	remaining := deadline.Sub(now).Milliseconds()
	if remaining < 0 {
		return 0
	}
	return remaining
}

func (s *GameService) ResumeGame(player *models.Player, gameID uint) error {
	var code string
	err := s.db.Transaction(func(tx *gorm.DB) error {
		game, err := lockGame(tx, gameID)
		if err != nil {
			return err
		}
		if err := requireHost(game, player); err != nil {
			return err
		}
		if !game.IsPaused {
			return BadRequest("game is not paused")
		}

		var remaining int64
		if game.PausedTimeRemainingMs != nil {
			remaining = *game.PausedTimeRemainingMs
		}
		deadline := s.now().Add(time.Duration(remaining) * time.Millisecond)

		updates := map[string]interface{}{
			"is_paused":                false,
			"paused_at":                nil,
			"paused_time_remaining_ms": nil,
			"paused_turn_player_id":    nil,
		}
		if game.IsTurns() {
			if game.PausedTurnPlayerID == nil {
				return Internal("paused turns game lost its turn player", nil)
			}
			updates["current_turn_player_id"] = *game.PausedTurnPlayerID
			updates["current_turn_deadline"] = deadline
			updates["turn_version"] = gorm.Expr("turn_version + 1")
		} else {
			updates["ended_at"] = deadline
		}

		if err := tx.Model(&models.Game{}).Where("id = ?", gameID).Updates(updates).Error; err != nil {
			return Internal("failed to resume game", err)
		}
		code = game.Code
		return nil
	})
	if err != nil {
		return err
	}

	log.WithField("game_id", gameID).Info("game resumed")
	s.notify(code)
	return nil
}

// TerminateGame ends a round early. Classic games still go through review;
// turns games finish outright.
func (s *GameService) TerminateGame(player *models.Player, gameID uint) error {
	var code string
	err := s.db.Transaction(func(tx *gorm.DB) error {
		game, err := lockGame(tx, gameID)
		if err != nil {
			return err
		}
		if err := requireHost(game, player); err != nil {
			return err
		}
		if err := requireStatus(game, models.StatusPlaying, "only a game in progress can be terminated"); err != nil {
			return err
		}

		updates := finishedUpdates(s.now())
		if !game.IsTurns() {
			updates["status"] = models.StatusReviewing
		}
		if err := tx.Model(&models.Game{}).Where("id = ?", gameID).Updates(updates).Error; err != nil {
			return Internal("failed to terminate game", err)
		}
		code = game.Code
		return nil
	})
	if err != nil {
		return err
	}

	log.WithField("game_id", gameID).Info("game terminated")
	s.notify(code)
	return nil
}

// FinishGame settles disputes, scores every player and closes the game.
func (s *GameService) FinishGame(player *models.Player, gameID uint) error {
	var code string
	err := s.db.Transaction(func(tx *gorm.DB) error {
		game, err := lockGame(tx, gameID)
		if err != nil {
			return err
		}
		if err := requireHost(game, player); err != nil {
			return err
		}
		if err := requireStatus(game, models.StatusReviewing, "game is not in review"); err != nil {
			return err
		}

		var answers []models.Answer
		if err := tx.Preload("Votes").Where("game_id = ?", gameID).Order("id ASC").Find(&answers).Error; err != nil {
			return Internal("failed to load answers", err)
		}

		for i := range answers {
			if answers[i].Status != models.AnswerDisputed {
				continue
			}
			final := ResolveDispute(answers[i].Votes)
			if err := tx.Model(&models.Answer{}).Where("id = ?", answers[i].ID).Update("status", final).Error; err != nil {
				return Internal("failed to resolve dispute", err)
			}
			answers[i].Status = final
		}

		scores := TallyScores(answers)

		var members []models.GamePlayer
		if err := tx.Where("game_id = ? AND is_spectator = ?", gameID, false).Find(&members).Error; err != nil {
			return Internal("failed to load players", err)
		}
		for _, m := range members {
			if err := tx.Model(&models.GamePlayer{}).Where("id = ?", m.ID).Update("score", scores[m.PlayerID]).Error; err != nil {
				return Internal("failed to update score", err)
			}
		}

		if err := tx.Model(&models.Game{}).Where("id = ?", gameID).Update("status", models.StatusFinished).Error; err != nil {
			return Internal("failed to finish game", err)
		}
		code = game.Code
		return nil
	})
	if err != nil {
		return err
	}

	log.WithField("game_id", gameID).Info("game finished")
	s.notify(code)
	return nil
}

// CreateRematch opens a fresh lobby under the same join code. Calling it
// again returns the lobby already created.
func (s *GameService) CreateRematch(player *models.Player, gameID uint) (*models.Game, error) {
	var rematch models.Game
	created := false
	err := s.db.Transaction(func(tx *gorm.DB) error {
		game, err := lockGame(tx, gameID)
		if err != nil {
			return err
		}
		if err := requireHost(game, player); err != nil {
			return err
		}
		if err := requireStatus(game, models.StatusFinished, "game is not finished"); err != nil {
			return err
		}

		err = tx.Where("code = ? AND id > ?", game.Code, game.ID).Order("id DESC").First(&rematch).Error
		if err == nil {
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return Internal("failed to look up rematch", err)
		}

		rematch = models.Game{
			Code:             game.Code,
			HostPlayerID:     game.HostPlayerID,
			Status:           models.StatusLobby,
			Mode:             game.Mode,
			TimerSeconds:     s.defaults.TimerSeconds,
			TurnTimerSeconds: game.TurnTimerSeconds,
		}
		if err := tx.Create(&rematch).Error; err != nil {
			return Internal("failed to create rematch", err)
		}

		var members []models.GamePlayer
		if err := tx.Where("game_id = ?", game.ID).Order("id ASC").Find(&members).Error; err != nil {
			return Internal("failed to load players", err)
		}
		now := s.now()
		for _, m := range members {
			if err := upsertMembership(tx, rematch.ID, m.PlayerID, m.IsSpectator, now); err != nil {
				return err
			}
		}
		created = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	if created {
		log.WithFields(log.Fields{"game_id": rematch.ID, "previous": gameID, "code": rematch.Code}).Info("rematch created")
		s.notify(rematch.Code)
	}
	return &rematch, nil
}
