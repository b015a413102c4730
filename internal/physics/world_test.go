package physics

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/playmatatu/eightball/internal/game"
)

// setupTwoBalls leaves only the cue ball and ball 1 on the table.
func setupTwoBalls(cue, target mgl64.Vec2) *World {
	w := NewWorld(NewStandardTable())
	for id := 2; id < game.NumBalls; id++ {
		w.RemoveBody(id)
	}
	w.SetPosition(game.CueBallID, cue)
	w.SetPosition(1, target)
	return w
}

func simulate(w *World, seconds float64) {
	const dt = 1.0 / 60
	for t := 0.0; t < seconds; t += dt {
		w.Step(dt)
	}
}

func TestStraightShotMovesCorrectDirection(t *testing.T) {
	w := setupTwoBalls(mgl64.Vec2{-1, 0}, mgl64.Vec2{0, 0})
	w.ApplyImpulse(game.CueBallID, mgl64.Vec2{3, 0})

	simulate(w, 1)

	if w.Position(1)[0] <= 0 {
		t.Errorf("target ball did not move right: x=%.3f", w.Position(1)[0])
	}
	if math.Abs(w.Position(1)[1]) > 1e-6 {
		t.Errorf("head-on hit drifted off axis: y=%.6f", w.Position(1)[1])
	}
}

func TestHeadOnCollisionTransfersMomentum(t *testing.T) {
	w := setupTwoBalls(mgl64.Vec2{-1, 0}, mgl64.Vec2{0, 0})
	w.ApplyImpulse(game.CueBallID, mgl64.Vec2{4, 0})

	contacts := 0
	w.OnContact = func(a, b int) { contacts++ }
	simulate(w, 0.4)

	if contacts != 1 {
		t.Fatalf("expected exactly one contact, got %d", contacts)
	}
	cue, obj := w.Velocity(game.CueBallID).Len(), w.Velocity(1).Len()
	if obj <= cue {
		t.Errorf("object ball should carry most of the speed: cue=%.3f object=%.3f", cue, obj)
	}
}

func TestFrictionStopsBalls(t *testing.T) {
	w := setupTwoBalls(mgl64.Vec2{-1, 0}, mgl64.Vec2{0, 1.5})
	w.ApplyImpulse(game.CueBallID, mgl64.Vec2{0.5, 0})

	simulate(w, 5)

	if !w.AllStopped() {
		t.Errorf("ball didn't stop: v=%v", w.Velocity(game.CueBallID))
	}
}

func TestCushionReflectsWithRestitution(t *testing.T) {
	w := setupTwoBalls(mgl64.Vec2{-1, 1.5}, mgl64.Vec2{3, -1.5})
	w.ApplyImpulse(game.CueBallID, mgl64.Vec2{0, 3})

	simulate(w, 0.5)

	v := w.Velocity(game.CueBallID)
	if v[1] >= 0 {
		t.Fatalf("ball should travel back down after the top rail, v=%v", v)
	}
	if v.Len() >= 3 {
		t.Errorf("cushion should absorb energy, speed=%.3f", v.Len())
	}
	found := false
	for _, ev := range w.DrainEvents() {
		if ev.Type == "cushion" && ev.BallID == game.CueBallID {
			found = true
		}
	}
	if !found {
		t.Errorf("no cushion event recorded")
	}
}

func TestPocketTriggerFiresOnce(t *testing.T) {
	w := setupTwoBalls(mgl64.Vec2{3.4, -1.4}, mgl64.Vec2{0, 0})
	entered := map[int]int{}
	w.OnPocketEnter = func(id int, center mgl64.Vec2) {
		entered[id]++
		if center != (mgl64.Vec2{HalfLength, -HalfWidth}) {
			t.Errorf("unexpected pocket center %v", center)
		}
	}
	w.ApplyImpulse(game.CueBallID, mgl64.Vec2{2, -2})

	simulate(w, 1)

	if entered[game.CueBallID] != 1 {
		t.Fatalf("expected one pocket entry, got %d", entered[game.CueBallID])
	}
	if !w.InPocket(game.CueBallID) {
		t.Errorf("ball should be held by the pocket")
	}

	w.SetPosition(game.CueBallID, w.Table.Layout().RespawnPoint)
	w.ReleaseFromPocket(game.CueBallID)
	if w.InPocket(game.CueBallID) {
		t.Errorf("release should return the ball to play")
	}
}

func TestRaycastSkipsBallContainingOrigin(t *testing.T) {
	w := setupTwoBalls(mgl64.Vec2{-1, 0}, mgl64.Vec2{1, 0})

	hit, ok := w.Raycast(mgl64.Vec2{-1, 0}, mgl64.Vec2{1, 0}, 10, game.LayerAll)
	if !ok {
		t.Fatal("expected a hit")
	}
	if hit.Kind != game.HitBall || hit.BallID != 1 {
		t.Fatalf("expected ball 1, got %v %d", hit.Kind, hit.BallID)
	}
	if math.Abs(hit.Distance-(2-BallRadius)) > 1e-9 {
		t.Errorf("distance = %.6f", hit.Distance)
	}
	if math.Abs(hit.Normal[0]+1) > 1e-9 {
		t.Errorf("normal should face the ray, got %v", hit.Normal)
	}
}

func TestRaycastWallNormalFacesRay(t *testing.T) {
	w := setupTwoBalls(mgl64.Vec2{-1, 0}, mgl64.Vec2{1, 1})

	hit, ok := w.Raycast(mgl64.Vec2{-1, 0}, mgl64.Vec2{0, -1}, 10, game.LayerAll)
	if !ok || hit.Kind != game.HitWall {
		t.Fatalf("expected wall hit, got ok=%v kind=%v", ok, hit.Kind)
	}
	if hit.Normal != (mgl64.Vec2{0, 1}) {
		t.Errorf("normal = %v", hit.Normal)
	}
	if math.Abs(hit.Distance-HalfWidth) > 1e-9 {
		t.Errorf("distance = %.6f", hit.Distance)
	}

	if _, ok := w.Raycast(mgl64.Vec2{-1, 0}, mgl64.Vec2{0, -1}, 1, game.LayerAll); ok {
		t.Errorf("hit beyond max distance")
	}
	if _, ok := w.Raycast(mgl64.Vec2{-1, 0}, mgl64.Vec2{0, -1}, 10, game.LayerBalls); ok {
		t.Errorf("walls should be masked out")
	}
}

func TestStandardRackDoesNotOverlap(t *testing.T) {
	table := NewStandardTable()
	pos := table.StandardRack()
	for i := 0; i < game.NumBalls; i++ {
		if !table.Contains(pos[i]) {
			t.Errorf("ball %d off the table at %v", i, pos[i])
		}
		for j := i + 1; j < game.NumBalls; j++ {
			if d := pos[i].Sub(pos[j]).Len(); d < 2*BallRadius {
				t.Errorf("balls %d and %d overlap: %.4f", i, j, d)
			}
		}
	}
	if pos[game.EightBallID][0] <= pos[1][0] {
		t.Errorf("8 ball should sit behind the apex")
	}
}
