package game

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/playmatatu/eightball/internal/config"
)

func TestNewMatchRejectsInvalidConfig(t *testing.T) {
	cfg := config.DefaultMatchConfig()
	cfg.Cue.MaxPower = 0
	_, err := NewMatch(cfg, newFakePhysics(), Layout{})
	assert.Error(t, err)
}

func TestNoSwitchWhileABallIsAtThreshold(t *testing.T) {
	phys := newFakePhysics()
	m, rec := newLocalMatch(phys)
	m.Turn().StartTurnCheck()

	phys.vel[3] = Vec2{0.05, 0}
	tickFor(m, 3)
	assert.Equal(t, Player1, m.Turn().Active())
	assert.Empty(t, rec.ofType(EventBallsStopped))

	phys.vel[3] = Vec2{0.04, 0}
	tickFor(m, 0.4)
	assert.Equal(t, Player1, m.Turn().Active())

	tickFor(m, 0.2)
	assert.Equal(t, Player2, m.Turn().Active())
	assert.Len(t, rec.ofType(EventBallsStopped), 1)
}

func TestBusyGate(t *testing.T) {
	phys := newFakePhysics()
	m, _ := newLocalMatch(phys)
	assert.False(t, m.Busy())

	m.Turn().StartTurnCheck()
	assert.True(t, m.Busy(), "shot still resolving")
	tickFor(m, 0.6)
	assert.False(t, m.Busy())

	m.HandlePocketEnter(4, Vec2{0, 2})
	assert.True(t, m.Busy(), "capture in progress")
}

func TestStartAnnouncesOpeningTurnOnce(t *testing.T) {
	m, rec := newLocalMatch(newFakePhysics())
	m.Start()
	m.Start()
	changed := rec.ofType(EventTurnChanged)
	require.Len(t, changed, 1)
	assert.True(t, changed[0].Player1Turn())
}

func TestSnapshotReflectsState(t *testing.T) {
	phys := newFakePhysics()
	phys.pos[CueBallID] = Vec2{-2, 0}
	m, _ := newLocalMatch(phys)
	require.NoError(t, m.State().AssignGroups(Player2, GroupLow))
	_, err := m.State().AddScore(Player2)
	require.NoError(t, err)
	require.True(t, m.PointerDown(Vec2{-3, 0}))

	snap := m.Snapshot()
	assert.Equal(t, m.ID.String(), snap.MatchID)
	assert.True(t, snap.Player1Turn)
	assert.Equal(t, ShotAiming, snap.ShotPhase)
	require.NotNil(t, snap.Preview)
	require.Len(t, snap.Players, 2)
	assert.Equal(t, GroupHigh, snap.Players[0].Group)
	assert.Equal(t, 1, snap.Players[1].Score)
	require.Len(t, snap.Balls, NumBalls)
	assert.Equal(t, Vec2{-2, 0}, snap.Balls[CueBallID].Position)

	raw, err := json.Marshal(snap)
	require.NoError(t, err)
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, "aiming", decoded["shot_phase"])
	assert.Equal(t, "waiting_for_input", decoded["phase"])
	players := decoded["players"].([]any)
	assert.Equal(t, "high", players[0].(map[string]any)["group"])
}

func TestSnapshotDecodesBack(t *testing.T) {
	phys := newFakePhysics()
	m, _ := newLocalMatch(phys)
	m.Start()
	require.NoError(t, m.State().AssignGroups(Player1, GroupLow))
	m.Ball(3).Layer = SortInsidePocket

	raw, err := json.Marshal(m.Snapshot())
	require.NoError(t, err)

	var decoded MatchSnapshot
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, PhaseWaitingForInput, decoded.Phase)
	assert.Equal(t, ShotIdle, decoded.ShotPhase)
	assert.Equal(t, GroupLow, decoded.Players[0].Group)
	assert.Equal(t, GroupHigh, decoded.Players[1].Group)
	assert.Equal(t, SortInsidePocket, decoded.Balls[3].Layer)

	var phase TurnPhase
	assert.Error(t, phase.UnmarshalText([]byte("sleeping")))
}
