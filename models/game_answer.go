package models

import "time"

const (
	AnswerAccepted = "accepted"
	AnswerDisputed = "disputed"
	AnswerRejected = "rejected"
)

type Answer struct {
	ID             uint      `json:"id" gorm:"primaryKey"`
	GameID         uint      `json:"game_id" gorm:"not null;index;uniqueIndex:idx_answers_game_player_text"`
	PlayerID       uint      `json:"player_id" gorm:"not null;uniqueIndex:idx_answers_game_player_text"`
	Text           string    `json:"text" gorm:"size:256;not null"`
	NormalizedText string    `json:"normalized_text" gorm:"size:256;not null;uniqueIndex:idx_answers_game_player_text"`
	Status         string    `json:"status" gorm:"size:16;not null;default:'accepted'"` // accepted, disputed, rejected
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`

	// Relationships
	Votes []DisputeVote `json:"votes,omitempty" gorm:"foreignKey:AnswerID"`
}

// DisputeVote is one voter's verdict on a disputed answer. Recasting
// overwrites the previous verdict.
type DisputeVote struct {
	ID            uint      `json:"id" gorm:"primaryKey"`
	AnswerID      uint      `json:"answer_id" gorm:"not null;uniqueIndex:idx_dispute_votes_answer_voter"`
	VoterPlayerID uint      `json:"voter_player_id" gorm:"not null;uniqueIndex:idx_dispute_votes_answer_voter"`
	Accept        bool      `json:"accept" gorm:"not null"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// All lists every persisted model, in dependency order, for AutoMigrate.
func All() []interface{} {
	return []interface{}{
		&Player{},
		&Game{},
		&GamePlayer{},
		&Answer{},
		&DisputeVote{},
	}
}
