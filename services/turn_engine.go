package services

import (
	"sort"
	"time"

	"namingthings/models"

	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// TurnOutcome is what a turn action leaves behind for the caller.
type TurnOutcome struct {
	NextPlayerID *uint      `json:"next_player_id"`
	NextDeadline *time.Time `json:"next_deadline"`
	GameFinished bool       `json:"game_finished"`
	WinnerID     *uint      `json:"winner_id,omitempty"`
}

// RotationOrder returns the non-spectator members in join order.
// Eliminated members keep their seat.
func RotationOrder(members []models.GamePlayer) []models.GamePlayer {
	order := make([]models.GamePlayer, 0, len(members))
	for _, m := range members {
		if !m.IsSpectator {
			order = append(order, m)
		}
	}
	sort.SliceStable(order, func(i, j int) bool { return order[i].ID < order[j].ID })
	return order
}

// AliveMembers filters order down to members still in the game.
func AliveMembers(order []models.GamePlayer) []models.GamePlayer {
	var alive []models.GamePlayer
	for _, m := range order {
		if !m.IsEliminated {
			alive = append(alive, m)
		}
	}
	return alive
}

// NextAlive scans cyclically from acted's seat and returns the first alive
// player strictly after it. If acted has no seat the scan starts at the top.
func NextAlive(order []models.GamePlayer, acted uint) (uint, bool) {
	n := len(order)
	start := 0
	for i, m := range order {
		if m.PlayerID == acted {
			start = i + 1
			break
		}
	}
	for k := 0; k < n; k++ {
		m := order[(start+k)%n]
		if m.IsEliminated || m.PlayerID == acted {
			continue
		}
		return m.PlayerID, true
	}
	return 0, false
}

// FirstTurnPlayer picks the opening player: lowest membership id among
// alive non-spectators.
func FirstTurnPlayer(members []models.GamePlayer) (uint, bool) {
	alive := AliveMembers(RotationOrder(members))
	if len(alive) == 0 {
		return 0, false
	}
	return alive[0].PlayerID, true
}

// advanceTurn hands the turn to the next alive player after acted, or
// finishes the game when at most one player is left standing. It must run
// inside the transaction that applied acted's move.
func advanceTurn(tx *gorm.DB, game *models.Game, acted uint, now time.Time) (*TurnOutcome, error) {
	var members []models.GamePlayer
	if err := tx.Where("game_id = ? AND is_spectator = ?", game.ID, false).
		Order("id ASC").
		Find(&members).Error; err != nil {
		return nil, Internal("failed to load rotation", err)
	}

	order := RotationOrder(members)
	alive := AliveMembers(order)

	if len(alive) <= 1 {
		updates := finishedUpdates(now)
		if err := tx.Model(&models.Game{}).Where("id = ?", game.ID).Updates(updates).Error; err != nil {
			return nil, Internal("failed to finish game", err)
		}
		outcome := &TurnOutcome{GameFinished: true}
		if len(alive) == 1 {
			winner := alive[0].PlayerID
			outcome.WinnerID = &winner
		}
		log.WithFields(log.Fields{"game_id": game.ID, "alive": len(alive)}).Info("turns game finished")
		return outcome, nil
	}

	next, ok := NextAlive(order, acted)
	if !ok {
		return nil, Internal("no alive player to take the turn", nil)
	}
	deadline := now.Add(time.Duration(game.TurnTimerSeconds) * time.Second)
	if err := tx.Model(&models.Game{}).Where("id = ?", game.ID).Updates(map[string]interface{}{
		"current_turn_player_id": next,
		"current_turn_deadline":  deadline,
		"turn_version":           gorm.Expr("turn_version + 1"),
	}).Error; err != nil {
		return nil, Internal("failed to advance turn", err)
	}

	return &TurnOutcome{NextPlayerID: &next, NextDeadline: &deadline}, nil
}

// finishedUpdates ends a turns game and clears every turn and pause field.
func finishedUpdates(now time.Time) map[string]interface{} {
	return map[string]interface{}{
		"status":                   models.StatusFinished,
		"ended_at":                 now,
		"current_turn_player_id":   nil,
		"current_turn_deadline":    nil,
		"is_paused":                false,
		"paused_at":                nil,
		"paused_time_remaining_ms": nil,
		"paused_turn_player_id":    nil,
		"turn_version":             gorm.Expr("turn_version + 1"),
	}
}

// eliminate marks a member out of the rotation. Eliminated members keep
// their score.
func eliminate(tx *gorm.DB, gameID, playerID uint, now time.Time) error {
	err := tx.Model(&models.GamePlayer{}).
		Where("game_id = ? AND player_id = ?", gameID, playerID).
		Updates(map[string]interface{}{
			"is_eliminated": true,
			"eliminated_at": now,
		}).Error
	if err != nil {
		return Internal("failed to eliminate player", err)
	}
	log.WithFields(log.Fields{"game_id": gameID, "player_id": playerID}).Info("player eliminated")
	return nil
}
