package services

import (
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"namingthings/models"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type recordingNotifier struct {
	mu    sync.Mutex
	codes []string
}

func (n *recordingNotifier) Notify(code string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.codes = append(n.codes, code)
}

func (n *recordingNotifier) Count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.codes)
}

type testEnv struct {
	db       *gorm.DB
	games    *GameService
	sessions *SessionService
	clock    *fakeClock
	notifier *recordingNotifier
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(models.All()...))
	return db
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := newTestDB(t)
	clock := newFakeClock()
	notifier := &recordingNotifier{}
	games := NewGameService(db, notifier, GameDefaults{TimerSeconds: 60, TurnTimerSeconds: 5})
	games.SetClock(clock.Now)

	return &testEnv{
		db:       db,
		games:    games,
		sessions: NewSessionService(db),
		clock:    clock,
		notifier: notifier,
	}
}

func (e *testEnv) player(t *testing.T, name string) *models.Player {
	t.Helper()
	p, err := e.sessions.EnsureSession(&EnsureSessionRequest{SessionToken: "token-" + name, DisplayName: name})
	require.NoError(t, err)
	return p
}

func (e *testEnv) game(t *testing.T, id uint) *models.Game {
	t.Helper()
	var g models.Game
	require.NoError(t, e.db.First(&g, id).Error)
	return &g
}

func (e *testEnv) member(t *testing.T, gameID, playerID uint) *models.GamePlayer {
	t.Helper()
	var m models.GamePlayer
	require.NoError(t, e.db.Where("game_id = ? AND player_id = ?", gameID, playerID).First(&m).Error)
	return &m
}

// lobby creates a game hosted by host with the others joined in order.
func (e *testEnv) lobby(t *testing.T, host *models.Player, others ...*models.Player) *models.Game {
	t.Helper()
	g, err := e.games.CreateGame(host)
	require.NoError(t, err)
	for _, p := range others {
		_, err := e.games.JoinGame(p, g.Code)
		require.NoError(t, err)
	}
	return g
}

// startTurns configures and starts a turns game.
func (e *testEnv) startTurns(t *testing.T, host *models.Player, others ...*models.Player) *models.Game {
	t.Helper()
	g := e.lobby(t, host, others...)
	require.NoError(t, e.games.SetMode(host, g.ID, models.ModeTurns))
	require.NoError(t, e.games.SetCategory(host, g.ID, "fruits"))
	_, err := e.games.StartRound(host, g.ID)
	require.NoError(t, err)
	return e.game(t, g.ID)
}

// startClassic configures and starts a classic game.
func (e *testEnv) startClassic(t *testing.T, timer int, host *models.Player, others ...*models.Player) *models.Game {
	t.Helper()
	g := e.lobby(t, host, others...)
	require.NoError(t, e.games.SetCategory(host, g.ID, "fruits"))
	require.NoError(t, e.games.SetTimer(host, g.ID, timer))
	_, err := e.games.StartRound(host, g.ID)
	require.NoError(t, err)
	return e.game(t, g.ID)
}

// assertGameInvariants checks the turn and classic deadline invariants
// for a game in progress.
func assertGameInvariants(t *testing.T, g *models.Game) {
	t.Helper()
	if g.Status != models.StatusPlaying {
		require.Nil(t, g.CurrentTurnPlayerID, "turn player outside play")
		return
	}
	active := !g.IsPaused
	if g.IsTurns() {
		require.Equal(t, active, g.CurrentTurnPlayerID != nil, "turn player set iff active")
		require.Equal(t, active, g.CurrentTurnDeadline != nil, "turn deadline set iff active")
		return
	}
	require.Equal(t, active, g.EndedAt != nil, "classic end time set iff active")
}
