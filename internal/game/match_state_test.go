package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssignGroupsIsPairwiseAndOnce(t *testing.T) {
	s := NewMatchState()
	assert.False(t, s.GroupsAssigned())

	require.NoError(t, s.AssignGroups(Player2, GroupHigh))
	assert.Equal(t, GroupHigh, s.GroupOf(Player2))
	assert.Equal(t, GroupLow, s.GroupOf(Player1))
	assert.Equal(t, GroupHigh, s.CurrentGroupAssignment())

	assert.ErrorIs(t, s.AssignGroups(Player1, GroupHigh), ErrGroupsAlreadyAssigned)
	assert.Equal(t, GroupLow, s.GroupOf(Player1))
}

func TestAssignGroupsRejectsUngroupedBall(t *testing.T) {
	s := NewMatchState()
	assert.ErrorIs(t, s.AssignGroups(Player1, GroupOf(EightBallID)), ErrInvalidGroup)
	assert.False(t, s.GroupsAssigned())
}

func TestOwnerOf(t *testing.T) {
	s := NewMatchState()
	_, ok := s.OwnerOf(3)
	assert.False(t, ok)

	require.NoError(t, s.AssignGroups(Player1, GroupLow))
	p, ok := s.OwnerOf(3)
	assert.True(t, ok)
	assert.Equal(t, Player1, p)
	p, _ = s.OwnerOf(12)
	assert.Equal(t, Player2, p)
	_, ok = s.OwnerOf(EightBallID)
	assert.False(t, ok)
}

func TestAddScoreCapsAtGroupSize(t *testing.T) {
	s := NewMatchState()
	for i := 1; i <= GroupCapacity; i++ {
		n, err := s.AddScore(Player1)
		require.NoError(t, err)
		assert.Equal(t, i, n)
	}
	n, err := s.AddScore(Player1)
	assert.ErrorIs(t, err, ErrScoreCapacity)
	assert.Equal(t, GroupCapacity, n)
	assert.Equal(t, 0, s.Score(Player2))
}

func TestEndOnlyOnce(t *testing.T) {
	s := NewMatchState()
	require.NoError(t, s.End(Player2, WinIllegal8))
	assert.ErrorIs(t, s.End(Player1, WinPocket8), ErrMatchEnded)
	assert.True(t, s.Ended())
	assert.Equal(t, Player2, s.Winner())
	assert.Equal(t, WinIllegal8, s.WinType())
}

func TestGroupOf(t *testing.T) {
	assert.Equal(t, GroupUnassigned, GroupOf(CueBallID))
	assert.Equal(t, GroupLow, GroupOf(1))
	assert.Equal(t, GroupLow, GroupOf(7))
	assert.Equal(t, GroupUnassigned, GroupOf(EightBallID))
	assert.Equal(t, GroupHigh, GroupOf(9))
	assert.Equal(t, GroupHigh, GroupOf(15))

	_, err := NewBall(16)
	assert.ErrorIs(t, err, ErrUnknownBall)
}

func TestEventBusOrderAndUnsubscribe(t *testing.T) {
	bus := NewEventBus("m1")
	var got []string
	var unsubB func()
	bus.Subscribe(func(ev Event) {
		got = append(got, "a")
		unsubB()
	})
	unsubB = bus.Subscribe(func(ev Event) { got = append(got, "b") })
	bus.OnTurnChanged(func(p1 bool) {
		got = append(got, "turn")
		assert.False(t, p1)
	})

	bus.Publish(Event{Type: EventTurnChanged, Player: Player2})
	assert.Equal(t, []string{"a", "b", "turn"}, got)

	got = nil
	bus.Publish(Event{Type: EventBallsStopped})
	assert.Equal(t, []string{"a"}, got)
}

func TestEventBusStampsMatchID(t *testing.T) {
	bus := NewEventBus("m42")
	var ev Event
	bus.Subscribe(func(e Event) { ev = e })
	bus.Publish(Event{Type: EventFoul})
	assert.Equal(t, "m42", ev.MatchID)
}
