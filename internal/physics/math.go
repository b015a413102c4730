package physics

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// rayCircle returns the distance along a unit ray to the first crossing of
// the circle. Rays starting inside the circle never hit it.
func rayCircle(origin, dir, center mgl64.Vec2, radius float64) (float64, bool) {
	f := origin.Sub(center)
	c := f.Dot(f) - radius*radius
	if c <= 0 {
		return 0, false
	}
	b := f.Dot(dir)
	if b > 0 {
		return 0, false
	}
	disc := b*b - c
	if disc < 0 {
		return 0, false
	}
	return -b - math.Sqrt(disc), true
}

// raySegment returns the distance along a unit ray to segment a-b.
func raySegment(origin, dir, a, b mgl64.Vec2) (float64, bool) {
	seg := b.Sub(a)
	denom := cross(dir, seg)
	if math.Abs(denom) < 1e-12 {
		return 0, false
	}
	ao := a.Sub(origin)
	t := cross(ao, seg) / denom
	u := cross(ao, dir) / denom
	if t < 0 || u < 0 || u > 1 {
		return 0, false
	}
	return t, true
}

func cross(a, b mgl64.Vec2) float64 {
	return a[0]*b[1] - a[1]*b[0]
}

// closestOnSegment projects p onto segment a-b.
func closestOnSegment(p, a, b mgl64.Vec2) mgl64.Vec2 {
	ab := b.Sub(a)
	l2 := ab.Dot(ab)
	if l2 == 0 {
		return a
	}
	t := mgl64.Clamp(p.Sub(a).Dot(ab)/l2, 0, 1)
	return a.Add(ab.Mul(t))
}

// objectsConverging reports whether two bodies are closing on each other.
func objectsConverging(posA, posB, velA, velB mgl64.Vec2) bool {
	return velA.Sub(velB).Dot(posB.Sub(posA)) > 0
}
