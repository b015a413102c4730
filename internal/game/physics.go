package game

// HitKind tells what a raycast struck.
type HitKind int

const (
	HitNone HitKind = iota
	HitBall
	HitWall
)

func (k HitKind) String() string {
	switch k {
	case HitBall:
		return "ball"
	case HitWall:
		return "wall"
	default:
		return "none"
	}
}

// RaycastHit describes the first collider along a ray. BallID is only
// meaningful when Kind is HitBall.
type RaycastHit struct {
	Point    Vec2
	Normal   Vec2
	Kind     HitKind
	BallID   int
	Distance float64
}

// PhysicsService is the rigid-body world the match drives. Bodies are
// addressed by ball number. Implementations must ignore a ball whose
// circle contains the ray origin.
type PhysicsService interface {
	Raycast(origin, direction Vec2, maxDistance float64, mask LayerMask) (RaycastHit, bool)
	Velocity(ballID int) Vec2
	SetVelocity(ballID int, v Vec2)
	ApplyImpulse(ballID int, impulse Vec2)
	AddForce(ballID int, force Vec2)
	Position(ballID int) Vec2
	SetPosition(ballID int, p Vec2)
}

// Damper is implemented by worlds that support per-body damping.
type Damper interface {
	SetDamping(ballID int, linear, angular float64)
}

// BodyRemover is implemented by worlds that can drop a body entirely.
type BodyRemover interface {
	RemoveBody(ballID int)
}

// PocketReleaser is implemented by worlds that hold a pocketed body out of
// play until it is explicitly returned to the table.
type PocketReleaser interface {
	ReleaseFromPocket(ballID int)
}

// Layout carries the table points the match needs.
type Layout struct {
	Center       Vec2
	RespawnPoint Vec2
}
