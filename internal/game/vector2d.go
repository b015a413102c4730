package game

import (
	"math"
	"math/rand/v2"

	"github.com/go-gl/mathgl/mgl64"
)

// Vec2 is the table-plane vector shared with the physics service.
type Vec2 = mgl64.Vec2

const epsilon = 1e-9

// Normalize returns the unit vector of v, or the zero vector when v has no length.
func Normalize(v Vec2) Vec2 {
	l := v.Len()
	if l < epsilon {
		return Vec2{}
	}
	return v.Mul(1 / l)
}

func IsZero(v Vec2) bool {
	return v.Len() < epsilon
}

// Reflect mirrors v across a surface with the given normal.
func Reflect(v, normal Vec2) Vec2 {
	n := Normalize(normal)
	return v.Sub(n.Mul(2 * v.Dot(n)))
}

// Perpendicular rotates v by +90 degrees.
func Perpendicular(v Vec2) Vec2 {
	return Vec2{-v[1], v[0]}
}

// AngleBetween returns the unsigned angle between a and b in degrees.
func AngleBetween(a, b Vec2) float64 {
	denom := a.Len() * b.Len()
	if denom < epsilon {
		return 0
	}
	cos := mgl64.Clamp(a.Dot(b)/denom, -1, 1)
	return mgl64.RadToDeg(math.Acos(cos))
}

func Clamp01(v float64) float64 {
	return mgl64.Clamp(v, 0, 1)
}

func Lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

func LerpVec(a, b Vec2, t float64) Vec2 {
	return a.Add(b.Sub(a).Mul(t))
}

// InverseLerp returns where v sits between a and b, clamped to [0,1].
func InverseLerp(a, b, v float64) float64 {
	if math.Abs(b-a) < epsilon {
		return 0
	}
	return Clamp01((v - a) / (b - a))
}

func EaseOutQuad(t float64) float64 {
	return t * (2 - t)
}

func EaseInBack(t float64) float64 {
	const c1 = 1.70158
	const c3 = c1 + 1
	return c3*t*t*t - c1*t*t
}

// InsideUnitCircle draws a point uniformly from the unit disk.
func InsideUnitCircle(rng *rand.Rand) Vec2 {
	r := math.Sqrt(rng.Float64())
	theta := rng.Float64() * 2 * math.Pi
	return Vec2{r * math.Cos(theta), r * math.Sin(theta)}
}

// SmoothDamp moves current toward target with a critically damped spring.
// velocity carries state between calls.
func SmoothDamp(current, target Vec2, velocity *Vec2, smoothTime, dt float64) Vec2 {
	if dt <= 0 {
		return current
	}
	smoothTime = math.Max(0.0001, smoothTime)
	omega := 2 / smoothTime
	x := omega * dt
	exp := 1 / (1 + x + 0.48*x*x + 0.235*x*x*x)

	change := current.Sub(target)
	temp := velocity.Add(change.Mul(omega)).Mul(dt)
	*velocity = velocity.Sub(temp.Mul(omega)).Mul(exp)
	out := target.Add(change.Add(temp).Mul(exp))

	// Do not overshoot.
	if target.Sub(current).Dot(out.Sub(target)) > 0 {
		out = target
		*velocity = Vec2{}
	}
	return out
}
