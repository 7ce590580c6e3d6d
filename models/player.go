package models

import "time"

// Player is a session-scoped identity. It outlives any single game.
type Player struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	SessionToken string    `json:"-" gorm:"size:256;not null;uniqueIndex"`
	DisplayName  string    `json:"display_name" gorm:"size:100;not null"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
