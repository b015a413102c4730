package game

import "github.com/playmatatu/eightball/internal/config"

// AimPreview is the trajectory guide shown while aiming.
type AimPreview struct {
	Kind     HitKind `json:"kind"`
	Origin   Vec2    `json:"origin"`
	HitPoint Vec2    `json:"hit_point"`
	BallID   int     `json:"ball_id"`
	CutAngle float64 `json:"cut_angle"`

	// Ball hits: where the object ball goes and where the cue ball deflects.
	ObjectDirection     Vec2    `json:"object_direction"`
	ObjectLength        float64 `json:"object_length"`
	DeflectionDirection Vec2    `json:"deflection_direction"`
	DeflectionLength    float64 `json:"deflection_length"`

	// Wall hits: the cue ball's rebound.
	ReflectionDirection Vec2    `json:"reflection_direction"`
	ReflectionLength    float64 `json:"reflection_length"`
}

// ComputeAimPreview casts from origin along dir and predicts the first
// contact. pull is the current power fraction and only scales the wall
// rebound line.
func ComputeAimPreview(physics PhysicsService, cfg config.CueConfig, origin, dir Vec2, pull float64) AimPreview {
	p := AimPreview{Origin: origin, BallID: -1}
	dir = Normalize(dir)
	if IsZero(dir) {
		return p
	}
	hit, ok := physics.Raycast(origin, dir, cfg.PreviewDistance, LayerAll)
	if !ok {
		return p
	}
	p.Kind = hit.Kind
	p.HitPoint = hit.Point

	switch hit.Kind {
	case HitBall:
		p.BallID = hit.BallID
		// Ghost ball: the object ball leaves along the line of centers.
		objectDir := Normalize(physics.Position(hit.BallID).Sub(hit.Point))
		p.CutAngle = AngleBetween(dir, objectDir)
		f := Clamp01(p.CutAngle / cfg.CutAngleSpan)

		deflection := Perpendicular(objectDir)
		if deflection.Dot(dir) < 0 {
			deflection = deflection.Mul(-1)
		}
		p.ObjectDirection = objectDir
		p.ObjectLength = Lerp(cfg.TrajectoryLine.Max, cfg.TrajectoryLine.Min, f)
		p.DeflectionDirection = deflection
		p.DeflectionLength = cfg.DirectionLine.Lerp(f)
	case HitWall:
		p.ReflectionDirection = Normalize(Reflect(dir, hit.Normal))
		p.ReflectionLength = cfg.DirectionLine.Lerp(Clamp01(pull))
	}
	return p
}
