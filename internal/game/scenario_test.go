package game_test

import (
	"io"
	"math"
	"math/rand/v2"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/playmatatu/eightball/internal/config"
	"github.com/playmatatu/eightball/internal/game"
	"github.com/playmatatu/eightball/internal/physics"
)

const dt = 1.0 / 60

func silent() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}

// newTableMatch wires a match to a real physics world.
func newTableMatch(t *testing.T, cfg config.MatchConfig, seed uint64) (*game.Match, *physics.World) {
	t.Helper()
	table := physics.NewStandardTable()
	world := physics.NewWorld(table)
	m, err := game.NewMatch(cfg, world, table.Layout(),
		game.WithLogger(silent()),
		game.WithRand(rand.New(rand.NewPCG(seed, seed+1))))
	require.NoError(t, err)
	world.OnContact = m.HandleContact
	world.OnPocketEnter = m.HandlePocketEnter
	return m, world
}

// isolate leaves only the cue ball and the given balls in play.
func isolate(m *game.Match, w *physics.World, keep map[int]game.Vec2) {
	for id := 1; id < game.NumBalls; id++ {
		if p, ok := keep[id]; ok {
			w.SetPosition(id, p)
			continue
		}
		w.RemoveBody(id)
		m.Ball(id).Removed = true
	}
}

func TestHardAIShootsStraightAtLoneBall(t *testing.T) {
	cfg := config.DefaultMatchConfig()
	cfg.Difficulty = config.DifficultyHard
	cfg.Mode = config.ModeLocal
	cfg.AutoplayPlayer1 = true
	m, w := newTableMatch(t, cfg, 3)

	w.SetPosition(game.CueBallID, game.Vec2{-1, 0})
	isolate(m, w, map[int]game.Vec2{1: {1, 0}})

	var struck []game.Event
	m.Bus().Subscribe(func(ev game.Event) {
		if ev.Type == game.EventShotStruck {
			struck = append(struck, ev)
		}
	})
	m.Start()
	ai, ok := m.AI(game.Player1)
	require.True(t, ok)
	assert.InDelta(t, 0.9, ai.Accuracy(), 1e-12)

	elapsed := 0.0
	for len(struck) == 0 && elapsed < 10 {
		w.Step(dt)
		m.Tick(dt)
		elapsed += dt
	}
	require.Len(t, struck, 1)

	plan := ai.Plan()
	assert.Equal(t, 1, plan.Target)
	assert.False(t, plan.WallAvoided)
	bound := math.Asin((1-0.9)*0.2)*180/math.Pi + 1e-9
	assert.LessOrEqual(t, game.AngleBetween(plan.AimDirection, game.Vec2{1, 0}), bound)

	minTimeline := cfg.AI.ThinkingTime.Min + cfg.AI.AimingTime.Min + cfg.AI.ReleasePause.Min + cfg.AI.PowerTime.Min
	assert.GreaterOrEqual(t, elapsed, minTimeline)

	assert.GreaterOrEqual(t, struck[0].Impulse, 0.7*cfg.Cue.MaxPower-1e-9)
	assert.LessOrEqual(t, struck[0].Impulse, cfg.Cue.MaxPower+1e-9)
}

func TestAINoiseStaysWithinBound(t *testing.T) {
	for _, tc := range []struct {
		accuracy float64
	}{{0.5}, {0.75}, {1.0}} {
		cfg := config.DefaultMatchConfig()
		cfg.Difficulty = config.DifficultyHard
		cfg.AI.Accuracy.Hard = tc.accuracy
		m, w := newTableMatch(t, cfg, 9)
		w.SetPosition(game.CueBallID, game.Vec2{-1, 0})
		isolate(m, w, map[int]game.Vec2{1: {1, 0}})
		ai, _ := m.AI(game.Player2)

		bound := math.Asin((1-tc.accuracy)*0.2) * 180 / math.Pi
		worst, total := 0.0, 0.0
		const trials = 500
		for i := 0; i < trials; i++ {
			plan := ai.PlanShot()
			require.Equal(t, 1, plan.Target)
			dev := game.AngleBetween(plan.AimDirection, game.Vec2{1, 0})
			worst = math.Max(worst, dev)
			total += dev
		}
		assert.LessOrEqual(t, worst, bound+1e-6, "accuracy %v", tc.accuracy)
		if tc.accuracy == 1 {
			assert.InDelta(t, 0, worst, 1e-6)
		} else {
			assert.Greater(t, total/trials, 0.0)
		}
	}
}

func TestAutoplayMatchMakesProgress(t *testing.T) {
	cfg := config.DefaultMatchConfig()
	cfg.AutoplayPlayer1 = true
	m, w := newTableMatch(t, cfg, 42)

	shots := 0
	m.Bus().Subscribe(func(ev game.Event) {
		if ev.Type == game.EventShotStruck {
			shots++
		}
	})
	m.Start()
	for elapsed := 0.0; elapsed < 120 && !m.Ended(); elapsed += dt {
		w.Step(dt)
		m.Tick(dt)
	}

	assert.True(t, m.Ended() || shots >= 3, "shots=%d", shots)
	snap := m.Snapshot()
	for _, p := range snap.Players {
		assert.LessOrEqual(t, p.Score, game.GroupCapacity)
	}
	if snap.Players[0].Group != game.GroupUnassigned {
		assert.Equal(t, snap.Players[0].Group.Other(), snap.Players[1].Group)
	}
}
