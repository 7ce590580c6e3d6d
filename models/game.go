package models

import "time"

const (
	StatusLobby     = "lobby"
	StatusPlaying   = "playing"
	StatusReviewing = "reviewing"
	StatusFinished  = "finished"
)

const (
	ModeClassic = "classic"
	ModeTurns   = "turns"
)

type Game struct {
	ID                    uint       `json:"id" gorm:"primaryKey"`
	Code                  string     `json:"code" gorm:"size:6;not null;index"`
	HostPlayerID          uint       `json:"host_player_id" gorm:"not null"`
	Status                string     `json:"status" gorm:"size:16;not null;default:'lobby'"` // lobby, playing, reviewing, finished
	Mode                  string     `json:"mode" gorm:"size:16;not null;default:'classic'"` // classic, turns
	Category              *string    `json:"category" gorm:"size:256"`
	TimerSeconds          int        `json:"timer_seconds" gorm:"not null"`
	TurnTimerSeconds      int        `json:"turn_timer_seconds" gorm:"not null"`
	CurrentTurnPlayerID   *uint      `json:"current_turn_player_id"`
	CurrentTurnDeadline   *time.Time `json:"current_turn_deadline"`
	TurnVersion           int64      `json:"-" gorm:"not null;default:0"`
	IsPaused              bool       `json:"is_paused" gorm:"not null;default:false"`
	PausedAt              *time.Time `json:"paused_at"`
	PausedTimeRemainingMs *int64     `json:"paused_time_remaining_ms"`
	PausedTurnPlayerID    *uint      `json:"-"`
	StartedAt             *time.Time `json:"started_at"`
	EndedAt               *time.Time `json:"ended_at"`
	CreatedAt             time.Time  `json:"created_at"`
	UpdatedAt             time.Time  `json:"updated_at"`

	// Relationships
	Players []GamePlayer `json:"players,omitempty" gorm:"foreignKey:GameID"`
	Answers []Answer     `json:"answers,omitempty" gorm:"foreignKey:GameID"`
}

// IsTurns reports whether the game rotates turns between players.
func (g *Game) IsTurns() bool {
	return g.Mode == ModeTurns
}
