package models

import "time"

// GamePlayer is a player's membership in one game. Score and elimination
// live here so a rematch starts from zero.
type GamePlayer struct {
	ID           uint       `json:"id" gorm:"primaryKey"`
	GameID       uint       `json:"game_id" gorm:"not null;uniqueIndex:idx_game_players_game_player"`
	PlayerID     uint       `json:"player_id" gorm:"not null;uniqueIndex:idx_game_players_game_player"`
	Score        int        `json:"score" gorm:"not null;default:0"`
	IsSpectator  bool       `json:"is_spectator" gorm:"not null;default:false"`
	IsEliminated bool       `json:"is_eliminated" gorm:"not null;default:false"`
	EliminatedAt *time.Time `json:"eliminated_at"`
	JoinedAt     time.Time  `json:"joined_at"`

	// Relationships
	Player Player `json:"player,omitempty"`
}
