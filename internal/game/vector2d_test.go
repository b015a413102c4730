package game

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeZeroSafe(t *testing.T) {
	assert.Equal(t, Vec2{}, Normalize(Vec2{}))
	assert.InDelta(t, 1, Normalize(Vec2{3, 4}).Len(), 1e-12)
}

func TestReflect(t *testing.T) {
	got := Reflect(Vec2{1, -1}, Vec2{0, 2})
	assert.InDelta(t, 1, got[0], 1e-12)
	assert.InDelta(t, 1, got[1], 1e-12)
}

func TestAngleBetween(t *testing.T) {
	assert.InDelta(t, 90, AngleBetween(Vec2{1, 0}, Vec2{0, 5}), 1e-9)
	assert.InDelta(t, 180, AngleBetween(Vec2{1, 0}, Vec2{-1, 0}), 1e-9)
	assert.Equal(t, 0.0, AngleBetween(Vec2{}, Vec2{1, 0}))
}

func TestInverseLerpClamps(t *testing.T) {
	assert.Equal(t, 0.0, InverseLerp(0, 15, -3))
	assert.Equal(t, 1.0, InverseLerp(0, 15, 30))
	assert.InDelta(t, 0.5, InverseLerp(0, 15, 7.5), 1e-12)
	assert.Equal(t, 0.0, InverseLerp(2, 2, 5))
}

func TestEasing(t *testing.T) {
	assert.Equal(t, 0.0, EaseOutQuad(0))
	assert.Equal(t, 1.0, EaseOutQuad(1))
	assert.Greater(t, EaseOutQuad(0.5), 0.5)

	assert.InDelta(t, 0, EaseInBack(0), 1e-12)
	assert.InDelta(t, 1, EaseInBack(1), 1e-12)
	assert.Less(t, EaseInBack(0.2), 0.0)
}

func TestInsideUnitCircle(t *testing.T) {
	rng := testRand()
	for i := 0; i < 1000; i++ {
		assert.LessOrEqual(t, InsideUnitCircle(rng).Len(), 1.0)
	}
}

func TestSmoothDampConvergesWithoutOvershoot(t *testing.T) {
	var vel Vec2
	cur, target := Vec2{0, 0}, Vec2{1, 0}
	for i := 0; i < 120; i++ {
		cur = SmoothDamp(cur, target, &vel, 0.1, 1.0/60)
		assert.LessOrEqual(t, cur[0], 1.0)
	}
	assert.InDelta(t, 1, cur[0], 1e-3)
	assert.True(t, math.Abs(cur[1]) < 1e-12)
}
