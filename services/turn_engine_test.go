package services

import (
	"testing"
	"time"

	"namingthings/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seats(ids ...uint) []models.GamePlayer {
	order := make([]models.GamePlayer, 0, len(ids))
	for i, id := range ids {
		order = append(order, models.GamePlayer{ID: uint(i + 1), PlayerID: id})
	}
	return order
}

func TestNextAliveSkipsEliminatedSeat(t *testing.T) {
	const a, b, c, d = 1, 2, 3, 4
	order := seats(a, b, c, d)
	order[1].IsEliminated = true

	var got []uint
	current := uint(a)
	for i := 0; i < 6; i++ {
		next, ok := NextAlive(order, current)
		require.True(t, ok)
		got = append(got, next)
		current = next
	}

	assert.Equal(t, []uint{c, d, a, c, d, a}, got)
}

func TestNextAliveFromEliminatedActor(t *testing.T) {
	order := seats(1, 2, 3)
	order[1].IsEliminated = true

	next, ok := NextAlive(order, 2)
	require.True(t, ok)
	assert.Equal(t, uint(3), next)

	order[2].IsEliminated = true
	next, ok = NextAlive(order, 3)
	require.True(t, ok)
	assert.Equal(t, uint(1), next)
}

func TestNextAliveUnknownActorStartsAtTop(t *testing.T) {
	next, ok := NextAlive(seats(5, 6, 7), 99)
	require.True(t, ok)
	assert.Equal(t, uint(5), next)
}

func TestNextAliveNobodyLeft(t *testing.T) {
	order := seats(1, 2)
	order[1].IsEliminated = true

	_, ok := NextAlive(order, 1)
	assert.False(t, ok)
}

func TestRotationOrderDropsSpectatorsAndSortsBySeat(t *testing.T) {
	members := []models.GamePlayer{
		{ID: 7, PlayerID: 30},
		{ID: 2, PlayerID: 10, IsSpectator: true},
		{ID: 3, PlayerID: 20},
	}

	order := RotationOrder(members)
	require.Len(t, order, 2)
	assert.Equal(t, uint(20), order[0].PlayerID)
	assert.Equal(t, uint(30), order[1].PlayerID)

	first, ok := FirstTurnPlayer(members)
	require.True(t, ok)
	assert.Equal(t, uint(20), first)
}

func TestRankMembersTurnsWinnerFirst(t *testing.T) {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	early, late := base, base.Add(time.Minute)

	members := []models.GamePlayer{
		{ID: 1, PlayerID: 1, Score: 3, IsEliminated: true, EliminatedAt: &early},
		{ID: 2, PlayerID: 2, Score: 1},
		{ID: 3, PlayerID: 3, Score: 2, IsEliminated: true, EliminatedAt: &late},
		{ID: 4, PlayerID: 4, IsSpectator: true},
	}

	ranked := RankMembers(models.ModeTurns, members)
	require.Len(t, ranked, 3)
	assert.Equal(t, []uint{2, 3, 1}, []uint{ranked[0].PlayerID, ranked[1].PlayerID, ranked[2].PlayerID})
}

func TestRankMembersClassicByScore(t *testing.T) {
	members := []models.GamePlayer{
		{ID: 1, PlayerID: 1, Score: 1},
		{ID: 2, PlayerID: 2, Score: 4},
		{ID: 3, PlayerID: 3, Score: 1},
	}

	ranked := RankMembers(models.ModeClassic, members)
	assert.Equal(t, []uint{2, 1, 3}, []uint{ranked[0].PlayerID, ranked[1].PlayerID, ranked[2].PlayerID})
}
