package physics

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/playmatatu/eightball/internal/game"
)

// Cushion is one straight rail segment. Normal points into the playing area.
type Cushion struct {
	A, B   mgl64.Vec2
	Normal mgl64.Vec2
}

type Pocket struct {
	ID       int
	Position mgl64.Vec2
	Radius   float64
}

// Table holds the static geometry of the playing surface, centered on the
// origin with the long axis along X.
type Table struct {
	HalfLength float64
	HalfWidth  float64
	BallRadius float64
	Cushions   []Cushion
	Pockets    []Pocket
}

// NewStandardTable builds a six-pocket table with rails broken at each pocket.
func NewStandardTable() *Table {
	l, w := HalfLength, HalfWidth
	t := &Table{HalfLength: l, HalfWidth: w, BallRadius: BallRadius}

	up, down := mgl64.Vec2{0, 1}, mgl64.Vec2{0, -1}
	left, right := mgl64.Vec2{-1, 0}, mgl64.Vec2{1, 0}
	t.Cushions = []Cushion{
		// Bottom rail, split by the side pocket.
		{A: mgl64.Vec2{-l + CornerGap, -w}, B: mgl64.Vec2{-SideGap, -w}, Normal: up},
		{A: mgl64.Vec2{SideGap, -w}, B: mgl64.Vec2{l - CornerGap, -w}, Normal: up},
		// Top rail.
		{A: mgl64.Vec2{-l + CornerGap, w}, B: mgl64.Vec2{-SideGap, w}, Normal: down},
		{A: mgl64.Vec2{SideGap, w}, B: mgl64.Vec2{l - CornerGap, w}, Normal: down},
		// End rails.
		{A: mgl64.Vec2{-l, -w + CornerGap}, B: mgl64.Vec2{-l, w - CornerGap}, Normal: right},
		{A: mgl64.Vec2{l, -w + CornerGap}, B: mgl64.Vec2{l, w - CornerGap}, Normal: left},
	}

	positions := []mgl64.Vec2{
		{-l, -w}, {0, -w}, {l, -w},
		{-l, w}, {0, w}, {l, w},
	}
	for i, p := range positions {
		t.Pockets = append(t.Pockets, Pocket{ID: i, Position: p, Radius: PocketRadius})
	}
	return t
}

// Layout returns the points the match needs: the cue ball respawn spot on
// the head string and the table center.
func (t *Table) Layout() game.Layout {
	return game.Layout{
		Center:       mgl64.Vec2{0, 0},
		RespawnPoint: mgl64.Vec2{-t.HalfLength / 2, 0},
	}
}

// Contains reports whether p lies within the rail rectangle.
func (t *Table) Contains(p mgl64.Vec2) bool {
	return p[0] >= -t.HalfLength && p[0] <= t.HalfLength &&
		p[1] >= -t.HalfWidth && p[1] <= t.HalfWidth
}

// NearestPocket returns the pocket closest to p.
func (t *Table) NearestPocket(p mgl64.Vec2) Pocket {
	best := t.Pockets[0]
	bestDist := p.Sub(best.Position).Len()
	for _, pk := range t.Pockets[1:] {
		if d := p.Sub(pk.Position).Len(); d < bestDist {
			best, bestDist = pk, d
		}
	}
	return best
}

// StandardRack returns the opening positions: cue ball on the head spot and
// a triangle behind the foot spot with the 8 in the middle of the third row.
func (t *Table) StandardRack() [game.NumBalls]mgl64.Vec2 {
	var pos [game.NumBalls]mgl64.Vec2

	apex := t.HalfLength / 2
	e := 1.782 // row spacing in radii, slightly loose
	s := 1.05  // column spacing in radii
	br := t.BallRadius

	pos[game.CueBallID] = t.Layout().RespawnPoint
	pos[1] = mgl64.Vec2{apex, 0}

	pos[2] = mgl64.Vec2{apex + e*br, br * s}
	pos[15] = mgl64.Vec2{apex + e*br, -br * s}

	pos[8] = mgl64.Vec2{apex + 2*e*br, 0}
	pos[5] = mgl64.Vec2{apex + 2*e*br, 2 * br * s}
	pos[10] = mgl64.Vec2{apex + 2*e*br, -2 * br * s}

	pos[7] = mgl64.Vec2{apex + 3*e*br, br * s}
	pos[4] = mgl64.Vec2{apex + 3*e*br, 3 * br * s}
	pos[9] = mgl64.Vec2{apex + 3*e*br, -br * s}
	pos[6] = mgl64.Vec2{apex + 3*e*br, -3 * br * s}

	pos[11] = mgl64.Vec2{apex + 4*e*br, 0}
	pos[12] = mgl64.Vec2{apex + 4*e*br, 2 * br * s}
	pos[13] = mgl64.Vec2{apex + 4*e*br, -2 * br * s}
	pos[14] = mgl64.Vec2{apex + 4*e*br, 4 * br * s}
	pos[3] = mgl64.Vec2{apex + 4*e*br, -4 * br * s}

	return pos
}
