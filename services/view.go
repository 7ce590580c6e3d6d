package services

import (
	"sort"
	"time"

	"namingthings/models"

	"gorm.io/gorm"
)

type PlayerView struct {
	ID           uint       `json:"id"`
	DisplayName  string     `json:"display_name"`
	Score        int        `json:"score"`
	IsHost       bool       `json:"is_host"`
	IsEliminated bool       `json:"is_eliminated"`
	EliminatedAt *time.Time `json:"eliminated_at"`
}

type SpectatorView struct {
	ID          uint   `json:"id"`
	DisplayName string `json:"display_name"`
}

type TurnHistoryEntry struct {
	Text              string `json:"text"`
	PlayerDisplayName string `json:"player_display_name"`
}

// GameView is recomputed from stored state on every read.
type GameView struct {
	ID                    uint               `json:"id"`
	Code                  string             `json:"code"`
	Status                string             `json:"status"`
	Mode                  string             `json:"mode"`
	Category              *string            `json:"category"`
	TimerSeconds          int                `json:"timer_seconds"`
	TurnTimerSeconds      int                `json:"turn_timer_seconds"`
	CurrentTurnPlayerID   *uint              `json:"current_turn_player_id"`
	CurrentTurnDeadline   *time.Time         `json:"current_turn_deadline"`
	TurnsHistory          []TurnHistoryEntry `json:"turns_history"`
	StartedAt             *time.Time         `json:"started_at"`
	EndedAt               *time.Time         `json:"ended_at"`
	IsPaused              bool               `json:"is_paused"`
	PausedTimeRemainingMs *int64             `json:"paused_time_remaining_ms"`
	CallerIsHost          bool               `json:"caller_is_host"`
	CallerIsSpectator     bool               `json:"caller_is_spectator"`
	HostPlayerID          uint               `json:"host_player_id"`
	CallerPlayerID        uint               `json:"caller_player_id"`
	Players               []PlayerView       `json:"players"`
	Spectators            []SpectatorView    `json:"spectators"`
}

type Standing struct {
	Rank         int        `json:"rank"`
	PlayerID     uint       `json:"player_id"`
	DisplayName  string     `json:"display_name"`
	Score        int        `json:"score"`
	IsEliminated bool       `json:"is_eliminated"`
	EliminatedAt *time.Time `json:"eliminated_at"`
}

func loadMembers(tx *gorm.DB, gameID uint) ([]models.GamePlayer, error) {
	var members []models.GamePlayer
	if err := tx.Preload("Player").Where("game_id = ?", gameID).Order("id ASC").Find(&members).Error; err != nil {
		return nil, Internal("failed to load players", err)
	}
	return members, nil
}

// GetGameState resolves code to its newest game and projects it for the
// caller.
func (s *GameService) GetGameState(player *models.Player, code string) (*GameView, error) {
	game, err := latestByCode(s.db, code)
	if err != nil {
		return nil, err
	}
	members, err := loadMembers(s.db, game.ID)
	if err != nil {
		return nil, err
	}

	view := &GameView{
		ID:                    game.ID,
		Code:                  game.Code,
		Status:                game.Status,
		Mode:                  game.Mode,
		Category:              game.Category,
		TimerSeconds:          game.TimerSeconds,
		TurnTimerSeconds:      game.TurnTimerSeconds,
		CurrentTurnPlayerID:   game.CurrentTurnPlayerID,
		CurrentTurnDeadline:   game.CurrentTurnDeadline,
		StartedAt:             game.StartedAt,
		EndedAt:               game.EndedAt,
		IsPaused:              game.IsPaused,
		PausedTimeRemainingMs: game.PausedTimeRemainingMs,
		CallerIsHost:          game.HostPlayerID == player.ID,
		HostPlayerID:          game.HostPlayerID,
		CallerPlayerID:        player.ID,
		Players:               []PlayerView{},
		Spectators:            []SpectatorView{},
	}

	for _, m := range members {
		if m.PlayerID == player.ID {
			view.CallerIsSpectator = m.IsSpectator
		}
		if m.IsSpectator {
			view.Spectators = append(view.Spectators, SpectatorView{ID: m.PlayerID, DisplayName: m.Player.DisplayName})
			continue
		}
		view.Players = append(view.Players, PlayerView{
			ID:           m.PlayerID,
			DisplayName:  m.Player.DisplayName,
			Score:        m.Score,
			IsHost:       m.PlayerID == game.HostPlayerID,
			IsEliminated: m.IsEliminated,
			EliminatedAt: m.EliminatedAt,
		})
	}

	if game.IsTurns() && game.Status != models.StatusLobby {
		history, err := s.turnsHistory(game.ID)
		if err != nil {
			return nil, err
		}
		view.TurnsHistory = history
	}

	return view, nil
}

func (s *GameService) turnsHistory(gameID uint) ([]TurnHistoryEntry, error) {
	var answers []models.Answer
	if err := s.db.Where("game_id = ?", gameID).Order("id ASC").Find(&answers).Error; err != nil {
		return nil, Internal("failed to load turn history", err)
	}
	names, err := s.displayNames(s.db, gameID)
	if err != nil {
		return nil, err
	}

	history := make([]TurnHistoryEntry, 0, len(answers))
	for _, a := range answers {
		history = append(history, TurnHistoryEntry{Text: a.Text, PlayerDisplayName: names[a.PlayerID]})
	}
	return history, nil
}

// RankMembers orders non-spectators for the scoreboard. Classic ranks by
// score. Turns puts survivors first, then the eliminated with the most
// recent elimination first, so the winner leads.
func RankMembers(mode string, members []models.GamePlayer) []models.GamePlayer {
	ranked := RotationOrder(members)
	if mode != models.ModeTurns {
		sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Score > ranked[j].Score })
		return ranked
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.IsEliminated != b.IsEliminated {
			return !a.IsEliminated
		}
		if !a.IsEliminated {
			return a.Score > b.Score
		}
		if a.EliminatedAt == nil || b.EliminatedAt == nil {
			return b.EliminatedAt == nil && a.EliminatedAt != nil
		}
		return a.EliminatedAt.After(*b.EliminatedAt)
	})
	return ranked
}

func (s *GameService) GetStandings(player *models.Player, gameID uint) ([]Standing, error) {
	game, err := findGame(s.db, gameID)
	if err != nil {
		return nil, err
	}
	members, err := loadMembers(s.db, gameID)
	if err != nil {
		return nil, err
	}

	ranked := RankMembers(game.Mode, members)
	standings := make([]Standing, 0, len(ranked))
	for i, m := range ranked {
		standings = append(standings, Standing{
			Rank:         i + 1,
			PlayerID:     m.PlayerID,
			DisplayName:  m.Player.DisplayName,
			Score:        m.Score,
			IsEliminated: m.IsEliminated,
			EliminatedAt: m.EliminatedAt,
		})
	}
	return standings, nil
}
