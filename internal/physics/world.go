package physics

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/playmatatu/eightball/internal/game"
)

// CollisionEvent records a contact for rule checks and sound cues.
type CollisionEvent struct {
	Type     string  `json:"type"` // "ball", "cushion", "pocket"
	BallID   int     `json:"ball_id"`
	TargetID int     `json:"target_id"` // ball ID, cushion index or pocket ID
	Speed    float64 `json:"speed"`
}

type body struct {
	pos      mgl64.Vec2
	vel      mgl64.Vec2
	force    mgl64.Vec2
	damping  float64
	active   bool
	inPocket bool
}

// World is a small fixed-step rigid-body simulation of the balls on a Table.
// It implements game.PhysicsService along with its optional capabilities.
type World struct {
	Table  *Table
	bodies [game.NumBalls]*body
	events []CollisionEvent

	// OnContact fires after a ball-ball collision response.
	OnContact func(a, b int)
	// OnPocketEnter fires once when a ball drops into a pocket volume.
	OnPocketEnter func(ballID int, center mgl64.Vec2)
}

var (
	_ game.PhysicsService = (*World)(nil)
	_ game.Damper         = (*World)(nil)
	_ game.BodyRemover    = (*World)(nil)
	_ game.PocketReleaser = (*World)(nil)
)

// NewWorld creates a world with every ball racked.
func NewWorld(table *Table) *World {
	w := &World{Table: table}
	w.Rack()
	return w
}

// Rack puts every ball back on its opening spot at rest.
func (w *World) Rack() {
	for i, p := range w.Table.StandardRack() {
		w.bodies[i] = &body{pos: p, damping: LinearDamping, active: true}
	}
	w.events = nil
}

// Step advances the simulation by dt seconds in fixed substeps.
func (w *World) Step(dt float64) {
	if dt <= 0 {
		return
	}
	for _, b := range w.bodies {
		if b.active {
			b.vel = b.vel.Add(b.force.Mul(dt))
			b.force = mgl64.Vec2{}
		}
	}
	h := dt / Substeps
	for i := 0; i < Substeps; i++ {
		w.integrate(h)
		w.collideBalls()
		w.collideCushions()
		w.checkPockets()
	}
}

// DrainEvents returns and clears the collision events recorded since the
// last call.
func (w *World) DrainEvents() []CollisionEvent {
	ev := w.events
	w.events = nil
	return ev
}

func (w *World) integrate(h float64) {
	for _, b := range w.bodies {
		if !b.active {
			continue
		}
		b.vel = b.vel.Mul(1 / (1 + h*b.damping))
		if speed := b.vel.Len(); speed > 0 {
			slowed := speed - Friction*h
			if slowed < SleepSpeed {
				b.vel = mgl64.Vec2{}
			} else {
				b.vel = b.vel.Mul(slowed / speed)
			}
		}
		b.pos = b.pos.Add(b.vel.Mul(h))
	}
}

func (w *World) collideBalls() {
	r2 := 2 * w.Table.BallRadius
	for i := 0; i < game.NumBalls; i++ {
		a := w.bodies[i]
		if !a.active || a.inPocket {
			continue
		}
		for j := i + 1; j < game.NumBalls; j++ {
			b := w.bodies[j]
			if !b.active || b.inPocket {
				continue
			}
			d := b.pos.Sub(a.pos)
			dist := d.Len()
			if dist >= r2 {
				continue
			}
			n := mgl64.Vec2{1, 0}
			if dist > 1e-9 {
				n = d.Mul(1 / dist)
			}
			push := n.Mul((r2 - dist) / 2)
			a.pos = a.pos.Sub(push)
			b.pos = b.pos.Add(push)

			if !objectsConverging(a.pos, b.pos, a.vel, b.vel) {
				continue
			}
			// Exchange the normal components, keep the tangential ones.
			t := mgl64.Vec2{-n[1], n[0]}
			aNormal := n.Mul(a.vel.Dot(n))
			bNormal := n.Mul(b.vel.Dot(n))
			aTangent := t.Mul(a.vel.Dot(t))
			bTangent := t.Mul(b.vel.Dot(t))
			a.vel = aTangent.Add(bNormal.Mul(BallRestitution)).Add(aNormal.Mul(1 - BallRestitution))
			b.vel = bTangent.Add(aNormal.Mul(BallRestitution)).Add(bNormal.Mul(1 - BallRestitution))

			w.events = append(w.events,
				CollisionEvent{Type: "ball", BallID: i, TargetID: j, Speed: a.vel.Len()},
				CollisionEvent{Type: "ball", BallID: j, TargetID: i, Speed: b.vel.Len()},
			)
			if w.OnContact != nil {
				w.OnContact(i, j)
			}
		}
	}
}

func (w *World) collideCushions() {
	r := w.Table.BallRadius
	for id, b := range w.bodies {
		if !b.active || b.inPocket {
			continue
		}
		for ci, c := range w.Table.Cushions {
			cp := closestOnSegment(b.pos, c.A, c.B)
			d := b.pos.Sub(cp)
			dist := d.Len()
			if dist >= r {
				continue
			}
			n := c.Normal
			if dist > 1e-9 {
				n = d.Mul(1 / dist)
			}
			b.pos = cp.Add(n.Mul(r))
			vn := b.vel.Dot(n)
			if vn >= 0 {
				continue
			}
			b.vel = b.vel.Sub(n.Mul(vn * (1 + CushionRestitution)))
			w.events = append(w.events, CollisionEvent{Type: "cushion", BallID: id, TargetID: ci, Speed: math.Abs(vn)})
		}
	}
}

func (w *World) checkPockets() {
	for id, b := range w.bodies {
		if !b.active || b.inPocket {
			continue
		}
		for _, p := range w.Table.Pockets {
			if b.pos.Sub(p.Position).Len() < p.Radius {
				w.enterPocket(id, p)
				break
			}
		}
		// A ball that slipped past the jaws still belongs to a pocket.
		if !b.inPocket && !w.Table.Contains(b.pos) {
			w.enterPocket(id, w.Table.NearestPocket(b.pos))
		}
	}
}

func (w *World) enterPocket(id int, p Pocket) {
	b := w.bodies[id]
	b.inPocket = true
	w.events = append(w.events, CollisionEvent{Type: "pocket", BallID: id, TargetID: p.ID, Speed: b.vel.Len()})
	if w.OnPocketEnter != nil {
		w.OnPocketEnter(id, p.Position)
	}
}

// Raycast returns the nearest ball or cushion along the ray. Balls whose
// circle contains the origin are skipped.
func (w *World) Raycast(origin, direction mgl64.Vec2, maxDistance float64, mask game.LayerMask) (game.RaycastHit, bool) {
	dir := game.Normalize(direction)
	if game.IsZero(dir) {
		return game.RaycastHit{}, false
	}
	best := game.RaycastHit{Distance: math.Inf(1)}

	if mask&game.LayerBalls != 0 {
		for id, b := range w.bodies {
			if !b.active || b.inPocket {
				continue
			}
			t, ok := rayCircle(origin, dir, b.pos, w.Table.BallRadius)
			if !ok || t > maxDistance || t >= best.Distance {
				continue
			}
			point := origin.Add(dir.Mul(t))
			best = game.RaycastHit{
				Point:    point,
				Normal:   game.Normalize(point.Sub(b.pos)),
				Kind:     game.HitBall,
				BallID:   id,
				Distance: t,
			}
		}
	}
	if mask&game.LayerWalls != 0 {
		for _, c := range w.Table.Cushions {
			t, ok := raySegment(origin, dir, c.A, c.B)
			if !ok || t > maxDistance || t >= best.Distance {
				continue
			}
			n := c.Normal
			if n.Dot(dir) > 0 {
				n = n.Mul(-1)
			}
			best = game.RaycastHit{
				Point:    origin.Add(dir.Mul(t)),
				Normal:   n,
				Kind:     game.HitWall,
				BallID:   -1,
				Distance: t,
			}
		}
	}
	if best.Kind == game.HitNone {
		return game.RaycastHit{}, false
	}
	return best, true
}

func (w *World) Velocity(ballID int) mgl64.Vec2 {
	if b := w.body(ballID); b != nil && b.active {
		return b.vel
	}
	return mgl64.Vec2{}
}

func (w *World) SetVelocity(ballID int, v mgl64.Vec2) {
	if b := w.body(ballID); b != nil && b.active {
		b.vel = v
	}
}

// ApplyImpulse changes velocity immediately. Balls have unit mass.
func (w *World) ApplyImpulse(ballID int, impulse mgl64.Vec2) {
	if b := w.body(ballID); b != nil && b.active {
		b.vel = b.vel.Add(impulse)
	}
}

// AddForce accumulates a force applied over the next Step.
func (w *World) AddForce(ballID int, force mgl64.Vec2) {
	if b := w.body(ballID); b != nil && b.active {
		b.force = b.force.Add(force)
	}
}

func (w *World) Position(ballID int) mgl64.Vec2 {
	if b := w.body(ballID); b != nil {
		return b.pos
	}
	return mgl64.Vec2{}
}

func (w *World) SetPosition(ballID int, p mgl64.Vec2) {
	if b := w.body(ballID); b != nil {
		b.pos = p
	}
}

func (w *World) SetDamping(ballID int, linear, _ float64) {
	if b := w.body(ballID); b != nil {
		b.damping = linear
	}
}

func (w *World) RemoveBody(ballID int) {
	if b := w.body(ballID); b != nil {
		b.active = false
		b.vel = mgl64.Vec2{}
	}
}

// ReleaseFromPocket returns a pocketed body to normal collisions.
func (w *World) ReleaseFromPocket(ballID int) {
	if b := w.body(ballID); b != nil {
		b.inPocket = false
		b.damping = LinearDamping
	}
}

// InPocket reports whether ballID is currently held by a pocket.
func (w *World) InPocket(ballID int) bool {
	b := w.body(ballID)
	return b != nil && b.inPocket
}

func (w *World) body(id int) *body {
	if id < 0 || id >= len(w.bodies) {
		return nil
	}
	return w.bodies[id]
}

// AllStopped reports whether every body on the table is at rest.
func (w *World) AllStopped() bool {
	for _, b := range w.bodies {
		if b.active && !b.inPocket && b.vel.Len() > 0 {
			return false
		}
	}
	return true
}
