package services

import (
	"errors"
	"strings"
	"time"

	"namingthings/models"

	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	MinTimerSeconds     = 10
	MaxTimerSeconds     = 7200
	MinTurnTimerSeconds = 3
	MaxTurnTimerSeconds = 30
	MaxCategoryLength   = 256
)

// GameDefaults seeds new lobbies, including rematch lobbies.
type GameDefaults struct {
	TimerSeconds     int
	TurnTimerSeconds int
}

type GameService struct {
	db       *gorm.DB
	notifier Notifier
	defaults GameDefaults
	now      func() time.Time
}

func NewGameService(db *gorm.DB, notifier Notifier, defaults GameDefaults) *GameService {
	if notifier == nil {
		notifier = NoopNotifier{}
	}
	if defaults.TimerSeconds == 0 {
		defaults.TimerSeconds = 60
	}
	if defaults.TurnTimerSeconds == 0 {
		defaults.TurnTimerSeconds = 5
	}
	return &GameService{
		db:       db,
		notifier: notifier,
		defaults: defaults,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// SetClock replaces the time source. Tests use it to step time.
func (s *GameService) SetClock(now func() time.Time) {
	s.now = now
}

type SetCategoryRequest struct {
	Category string `json:"category" binding:"required"`
}

type SetTimerRequest struct {
	Seconds int `json:"seconds" binding:"required"`
}

type SetModeRequest struct {
	Mode string `json:"mode" binding:"required"`
}

type OKResponse struct {
	OK bool `json:"ok"`
}

// notify runs after commit. A failed signal never fails the operation.
func (s *GameService) notify(code string) {
	if code == "" {
		return
	}
	s.notifier.Notify(code)
}

func lockGame(tx *gorm.DB, gameID uint) (*models.Game, error) {
	var game models.Game
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&game, gameID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NotFound("game not found")
		}
		return nil, Internal("failed to load game", err)
	}
	return &game, nil
}

func findGame(tx *gorm.DB, gameID uint) (*models.Game, error) {
	var game models.Game
	if err := tx.First(&game, gameID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NotFound("game not found")
		}
		return nil, Internal("failed to load game", err)
	}
	return &game, nil
}

// latestByCode resolves a join code to the newest game using it.
func latestByCode(tx *gorm.DB, code string) (*models.Game, error) {
	var game models.Game
	err := tx.Where("code = ?", NormalizeCode(code)).Order("id DESC").First(&game).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NotFound("game not found")
		}
		return nil, Internal("failed to load game", err)
	}
	return &game, nil
}

func findMembership(tx *gorm.DB, gameID, playerID uint) (*models.GamePlayer, error) {
	var member models.GamePlayer
	err := tx.Where("game_id = ? AND player_id = ?", gameID, playerID).First(&member).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, Internal("failed to load membership", err)
	}
	return &member, nil
}

func requireHost(game *models.Game, player *models.Player) error {
	if game.HostPlayerID != player.ID {
		return Forbidden("only the host can perform this action")
	}
	return nil
}

func requireStatus(game *models.Game, status string, message string) error {
	if game.Status != status {
		return BadRequest(message)
	}
	return nil
}

// GameExists reports whether any game uses code.
func (s *GameService) GameExists(code string) (bool, error) {
	var count int64
	if err := s.db.Model(&models.Game{}).Where("code = ?", NormalizeCode(code)).Count(&count).Error; err != nil {
		return false, Internal("failed to look up game", err)
	}
	return count > 0, nil
}

func (s *GameService) CreateGame(player *models.Player) (*models.Game, error) {
	var game models.Game
	err := s.db.Transaction(func(tx *gorm.DB) error {
		code, err := uniqueJoinCode(tx)
		if err != nil {
			return err
		}

		game = models.Game{
			Code:             code,
			HostPlayerID:     player.ID,
			Status:           models.StatusLobby,
			Mode:             models.ModeClassic,
			TimerSeconds:     s.defaults.TimerSeconds,
			TurnTimerSeconds: s.defaults.TurnTimerSeconds,
		}
		if err := tx.Create(&game).Error; err != nil {
			return Internal("failed to create game", err)
		}

		return upsertMembership(tx, game.ID, player.ID, false, s.now())
	})
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{"game_id": game.ID, "code": game.Code, "host": player.ID}).Info("game created")
	s.notify(game.Code)
	return &game, nil
}

// upsertMembership creates the membership if it is missing. Joining as a
// player upgrades an existing spectator; spectating never downgrades.
func upsertMembership(tx *gorm.DB, gameID, playerID uint, spectator bool, now time.Time) error {
	member := models.GamePlayer{
		GameID:      gameID,
		PlayerID:    playerID,
		IsSpectator: spectator,
		JoinedAt:    now,
	}
	err := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "game_id"}, {Name: "player_id"}},
		DoNothing: true,
	}).Create(&member).Error
	if err != nil {
		return Internal("failed to add player to game", err)
	}

	if spectator {
		return nil
	}
	err = tx.Model(&models.GamePlayer{}).
		Where("game_id = ? AND player_id = ? AND is_spectator = ?", gameID, playerID, true).
		Update("is_spectator", false).Error
	if err != nil {
		return Internal("failed to upgrade spectator", err)
	}
	return nil
}

func acceptingPlayers(game *models.Game) error {
	if game.Status != models.StatusLobby && game.Status != models.StatusPlaying {
		return BadRequest("this game is no longer accepting players")
	}
	return nil
}

func (s *GameService) JoinGame(player *models.Player, code string) (*models.Game, error) {
	var game *models.Game
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var err error
		if game, err = latestByCode(tx, code); err != nil {
			return err
		}
		if err := acceptingPlayers(game); err != nil {
			return err
		}
		return upsertMembership(tx, game.ID, player.ID, false, s.now())
	})
	if err != nil {
		return nil, err
	}

	s.notify(game.Code)
	return game, nil
}

func (s *GameService) SpectateGame(player *models.Player, code string) (*models.Game, error) {
	var game *models.Game
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var err error
		if game, err = latestByCode(tx, code); err != nil {
			return err
		}
		return upsertMembership(tx, game.ID, player.ID, true, s.now())
	})
	if err != nil {
		return nil, err
	}

	s.notify(game.Code)
	return game, nil
}

func (s *GameService) JoinAsPlayer(player *models.Player, gameID uint) error {
	var code string
	err := s.db.Transaction(func(tx *gorm.DB) error {
		game, err := findGame(tx, gameID)
		if err != nil {
			return err
		}
		if err := acceptingPlayers(game); err != nil {
			return err
		}
		code = game.Code
		return upsertMembership(tx, game.ID, player.ID, false, s.now())
	})
	if err != nil {
		return err
	}

	s.notify(code)
	return nil
}

func (s *GameService) KickPlayer(player *models.Player, gameID, targetPlayerID uint) error {
	var code string
	err := s.db.Transaction(func(tx *gorm.DB) error {
		game, err := lockGame(tx, gameID)
		if err != nil {
			return err
		}
		if err := requireHost(game, player); err != nil {
			return err
		}
		if err := requireStatus(game, models.StatusLobby, "players can only be removed in the lobby"); err != nil {
			return err
		}
		if targetPlayerID == player.ID {
			return BadRequest("the host cannot remove themselves")
		}

		res := tx.Where("game_id = ? AND player_id = ?", gameID, targetPlayerID).Delete(&models.GamePlayer{})
		if res.Error != nil {
			return Internal("failed to remove player", res.Error)
		}
		if res.RowsAffected == 0 {
			return NotFound("player is not in this game")
		}
		code = game.Code
		return nil
	})
	if err != nil {
		return err
	}

	log.WithFields(log.Fields{"game_id": gameID, "player_id": targetPlayerID}).Info("player kicked")
	s.notify(code)
	return nil
}

// updateLobby applies a host-only settings change while the game is in
// the lobby.
func (s *GameService) updateLobby(player *models.Player, gameID uint, updates map[string]interface{}) error {
	var code string
	err := s.db.Transaction(func(tx *gorm.DB) error {
		game, err := lockGame(tx, gameID)
		if err != nil {
			return err
		}
		if err := requireHost(game, player); err != nil {
			return err
		}
		if err := requireStatus(game, models.StatusLobby, "settings can only be changed in the lobby"); err != nil {
			return err
		}
		if err := tx.Model(&models.Game{}).Where("id = ?", gameID).Updates(updates).Error; err != nil {
			return Internal("failed to update game", err)
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

func (s *GameService) SetCategory(player *models.Player, gameID uint, category string) error {
	category = strings.TrimSpace(category)
	if category == "" || len(category) > MaxCategoryLength {
		return BadRequest("category must be between 1 and 256 characters")
	}
	return s.updateLobby(player, gameID, map[string]interface{}{"category": category})
}

func (s *GameService) SetTimer(player *models.Player, gameID uint, seconds int) error {
	if seconds < MinTimerSeconds || seconds > MaxTimerSeconds {
		return BadRequest("timer must be between 10 and 7200 seconds")
	}
	return s.updateLobby(player, gameID, map[string]interface{}{"timer_seconds": seconds})
}

func (s *GameService) SetTurnTimer(player *models.Player, gameID uint, seconds int) error {
	if seconds < MinTurnTimerSeconds || seconds > MaxTurnTimerSeconds {
		return BadRequest("turn timer must be between 3 and 30 seconds")
	}
	return s.updateLobby(player, gameID, map[string]interface{}{"turn_timer_seconds": seconds})
}

func (s *GameService) SetMode(player *models.Player, gameID uint, mode string) error {
	mode = strings.ToLower(strings.TrimSpace(mode))
	if mode != models.ModeClassic && mode != models.ModeTurns {
		return BadRequest("mode must be classic or turns")
	}
	return s.updateLobby(player, gameID, map[string]interface{}{"mode": mode})
}
