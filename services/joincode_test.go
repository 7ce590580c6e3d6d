package services

import (
	"strings"
	"testing"

	"namingthings/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewJoinCodeAlphabet(t *testing.T) {
	for i := 0; i < 200; i++ {
		code, err := newJoinCode()
		require.NoError(t, err)
		require.Len(t, code, joinCodeLength)
		for _, r := range code {
			assert.True(t, strings.ContainsRune(joinCodeAlphabet, r), "unexpected %q in %s", r, code)
		}
		assert.False(t, strings.ContainsAny(code, "I1O0"))
	}
}

func TestUniqueJoinCodeAvoidsExisting(t *testing.T) {
	db := newTestDB(t)
	host := models.Player{SessionToken: "t", DisplayName: "h"}
	require.NoError(t, db.Create(&host).Error)

	seen := map[string]bool{}
	for i := 0; i < 20; i++ {
		code, err := uniqueJoinCode(db)
		require.NoError(t, err)
		assert.False(t, seen[code])
		seen[code] = true
		require.NoError(t, db.Create(&models.Game{
			Code: code, HostPlayerID: host.ID, Status: models.StatusLobby, Mode: models.ModeClassic,
			TimerSeconds: 60, TurnTimerSeconds: 5,
		}).Error)
	}
}

func TestNormalizeCode(t *testing.T) {
	assert.Equal(t, "ABC234", NormalizeCode(" abc234 "))
}
