package services

import (
	"errors"
	"strings"

	"namingthings/models"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const defaultDisplayName = "Player"

type SessionService struct {
	db *gorm.DB
}

func NewSessionService(db *gorm.DB) *SessionService {
	return &SessionService{db: db}
}

type EnsureSessionRequest struct {
	SessionToken string `json:"session_token" binding:"max=256"`
	DisplayName  string `json:"display_name" binding:"max=100"`
}

// EnsureSession returns the player for the token, creating it on first
// contact. An empty token mints a new one. A changed display name is saved.
func (s *SessionService) EnsureSession(req *EnsureSessionRequest) (*models.Player, error) {
	token := strings.TrimSpace(req.SessionToken)
	if token == "" {
		token = uuid.NewString()
	}
	name := strings.TrimSpace(req.DisplayName)

	var player models.Player
	err := s.db.Where("session_token = ?", token).First(&player).Error
	switch {
	case err == nil:
		if name != "" && name != player.DisplayName {
			if err := s.db.Model(&player).Update("display_name", name).Error; err != nil {
				return nil, Internal("failed to update display name", err)
			}
			player.DisplayName = name
		}
		return &player, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
	default:
		return nil, Internal("failed to load session", err)
	}

	if name == "" {
		name = defaultDisplayName
	}
	player = models.Player{SessionToken: token, DisplayName: name}
	if err := s.db.Create(&player).Error; err != nil {
		// A concurrent first contact may have won the unique index.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return s.GetBySession(token)
		}
		return nil, Internal("failed to create session", err)
	}

	log.WithField("player_id", player.ID).Info("session created")
	return &player, nil
}

// GetBySession looks a player up without creating one.
func (s *SessionService) GetBySession(token string) (*models.Player, error) {
	var player models.Player
	err := s.db.Where("session_token = ?", token).First(&player).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NotFound("player not found for this session")
		}
		return nil, Internal("failed to load session", err)
	}
	return &player, nil
}

// Resolve maps a session token to its player for authenticated calls.
func (s *SessionService) Resolve(token string) (*models.Player, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, Unauthorized("missing session token")
	}
	player, err := s.GetBySession(token)
	if IsKind(err, KindNotFound) {
		return nil, Unauthorized("player not found for this session")
	}
	return player, err
}
