package services

import (
	"errors"
	"strings"

	"namingthings/models"

	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type BatchAnswer struct {
	Text string `json:"text" binding:"max=256"`
}

type SubmitBatchRequest struct {
	Answers []BatchAnswer `json:"answers" binding:"dive"`
}

type SubmitAnswerRequest struct {
	Text string `json:"text" binding:"required,max=256"`
}

type CastVoteRequest struct {
	Accept *bool `json:"accept" binding:"required"`
}

// requirePlayer returns the caller's membership when they play in the game.
func requirePlayer(tx *gorm.DB, gameID, playerID uint) (*models.GamePlayer, error) {
	member, err := findMembership(tx, gameID, playerID)
	if err != nil {
		return nil, err
	}
	if member == nil || member.IsSpectator {
		return nil, Forbidden("only players in this game can submit answers")
	}
	return member, nil
}

// SubmitAnswersBatch flushes a client's queued answers. Entries repeating
// each other or the player's earlier answers are dropped, so replaying an
// overlapping batch is harmless.
func (s *GameService) SubmitAnswersBatch(player *models.Player, gameID uint, texts []string) (int, error) {
	var (
		inserted int
		code     string
	)
	err := s.db.Transaction(func(tx *gorm.DB) error {
		game, err := findGame(tx, gameID)
		if err != nil {
			return err
		}
		if game.Status != models.StatusPlaying && game.Status != models.StatusReviewing {
			return BadRequest("game is not accepting answers")
		}
		if game.IsTurns() {
			return BadRequest("turns games take answers one turn at a time")
		}
		if _, err := requirePlayer(tx, gameID, player.ID); err != nil {
			return err
		}

		var existing []string
		if err := tx.Model(&models.Answer{}).
			Where("game_id = ? AND player_id = ?", gameID, player.ID).
			Pluck("normalized_text", &existing).Error; err != nil {
			return Internal("failed to load answers", err)
		}
		known := make(map[string]struct{}, len(existing))
		for _, text := range existing {
			known[text] = struct{}{}
		}

		for _, answer := range dedupeBatch(texts, known) {
			answer.GameID = gameID
			answer.PlayerID = player.ID
			res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&answer)
			if res.Error != nil {
				return Internal("failed to save answers", res.Error)
			}
			inserted += int(res.RowsAffected)
		}
		code = game.Code
		return nil
	})
	if err != nil {
		return 0, err
	}

	if inserted > 0 {
		log.WithFields(log.Fields{"game_id": gameID, "player_id": player.ID, "inserted": inserted}).Debug("answers submitted")
		s.notify(code)
	}
	return inserted, nil
}

// SubmitAnswer records one classic-mode answer while the round runs.
func (s *GameService) SubmitAnswer(player *models.Player, gameID uint, text string) (*models.Answer, error) {
	normalized := NormalizeText(text)
	if normalized == "" {
		return nil, BadRequest("answer text is required")
	}

	var (
		answer models.Answer
		code   string
	)
	err := s.db.Transaction(func(tx *gorm.DB) error {
		game, err := findGame(tx, gameID)
		if err != nil {
			return err
		}
		if err := requireStatus(game, models.StatusPlaying, "game is not accepting answers"); err != nil {
			return err
		}
		if game.IsTurns() {
			return BadRequest("turns games take answers one turn at a time")
		}
		if game.IsPaused {
			return BadRequest("game is paused")
		}
		if _, err := requirePlayer(tx, gameID, player.ID); err != nil {
			return err
		}

		var dup int64
		if err := tx.Model(&models.Answer{}).
			Where("game_id = ? AND player_id = ? AND normalized_text = ?", gameID, player.ID, normalized).
			Count(&dup).Error; err != nil {
			return Internal("failed to check answer", err)
		}
		if dup > 0 {
			return BadRequest("you already submitted that answer")
		}

		answer = models.Answer{
			GameID:         gameID,
			PlayerID:       player.ID,
			Text:           strings.TrimSpace(text),
			NormalizedText: normalized,
			Status:         models.AnswerAccepted,
		}
		if err := tx.Create(&answer).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return BadRequest("you already submitted that answer")
			}
			return Internal("failed to save answer", err)
		}
		code = game.Code
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notify(code)
	return &answer, nil
}

func (s *GameService) GetMyAnswers(player *models.Player, gameID uint) ([]models.Answer, error) {
	if _, err := findGame(s.db, gameID); err != nil {
		return nil, err
	}

	answers := []models.Answer{}
	if err := s.db.Where("game_id = ? AND player_id = ?", gameID, player.ID).
		Order("id ASC").
		Find(&answers).Error; err != nil {
		return nil, Internal("failed to load answers", err)
	}
	return answers, nil
}

func findAnswer(tx *gorm.DB, answerID uint) (*models.Answer, error) {
	var answer models.Answer
	if err := tx.First(&answer, answerID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NotFound("answer not found")
		}
		return nil, Internal("failed to load answer", err)
	}
	return &answer, nil
}

// DisputeAnswer flags an accepted answer for a vote. Disputing an answer
// that is already disputed is a no-op.
func (s *GameService) DisputeAnswer(player *models.Player, answerID uint) error {
	var code string
	changed := false
	err := s.db.Transaction(func(tx *gorm.DB) error {
		answer, err := findAnswer(tx, answerID)
		if err != nil {
			return err
		}
		member, err := findMembership(tx, answer.GameID, player.ID)
		if err != nil {
			return err
		}
		if member == nil {
			return Forbidden("not a member of this game")
		}

		res := tx.Model(&models.Answer{}).
			Where("id = ? AND status = ?", answerID, models.AnswerAccepted).
			Update("status", models.AnswerDisputed)
		if res.Error != nil {
			return Internal("failed to dispute answer", res.Error)
		}
		if res.RowsAffected == 0 {
			current, err := findAnswer(tx, answerID)
			if err != nil {
				return err
			}
			if current.Status == models.AnswerRejected {
				return BadRequest("answer was already rejected")
			}
			return nil
		}
		changed = true

		game, err := findGame(tx, answer.GameID)
		if err != nil {
			return err
		}
		code = game.Code
		return nil
	})
	if err != nil {
		return err
	}

	if changed {
		s.notify(code)
	}
	return nil
}

// CastVote records or replaces the caller's verdict on an answer.
func (s *GameService) CastVote(player *models.Player, answerID uint, accept bool) error {
	var code string
	err := s.db.Transaction(func(tx *gorm.DB) error {
		answer, err := findAnswer(tx, answerID)
		if err != nil {
			return err
		}
		if answer.PlayerID == player.ID {
			return Forbidden("cannot vote on your own answer")
		}
		member, err := findMembership(tx, answer.GameID, player.ID)
		if err != nil {
			return err
		}
		if member == nil {
			return Forbidden("not a member of this game")
		}

		vote := models.DisputeVote{
			AnswerID:      answerID,
			VoterPlayerID: player.ID,
			Accept:        accept,
		}
		err = tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "answer_id"}, {Name: "voter_player_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"accept", "updated_at"}),
		}).Create(&vote).Error
		if err != nil {
			return Internal("failed to record vote", err)
		}

		game, err := findGame(tx, answer.GameID)
		if err != nil {
			return err
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

// GetAllAnswers returns the review board: answers grouped by normalized
// text with their votes.
func (s *GameService) GetAllAnswers(player *models.Player, gameID uint) ([]AnswerGroup, error) {
	if _, err := findGame(s.db, gameID); err != nil {
		return nil, err
	}

	var answers []models.Answer
	if err := s.db.Preload("Votes").Where("game_id = ?", gameID).Order("id ASC").Find(&answers).Error; err != nil {
		return nil, Internal("failed to load answers", err)
	}

	names, err := s.displayNames(s.db, gameID)
	if err != nil {
		return nil, err
	}
	return GroupAnswers(answers, names), nil
}

// displayNames maps player ids to display names for everyone who ever
// answered or joined the game.
func (s *GameService) displayNames(tx *gorm.DB, gameID uint) (map[uint]string, error) {
	var players []models.Player
	err := tx.Where("id IN (?) OR id IN (?)",
		tx.Model(&models.GamePlayer{}).Select("player_id").Where("game_id = ?", gameID),
		tx.Model(&models.Answer{}).Select("player_id").Where("game_id = ?", gameID),
	).Find(&players).Error
	if err != nil {
		return nil, Internal("failed to load players", err)
	}

	names := make(map[uint]string, len(players))
	for _, p := range players {
		names[p.ID] = p.DisplayName
	}
	return names, nil
}
