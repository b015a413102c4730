package physics

// Table and ball constants in table units (one unit is roughly 25 cm).
const (
	BallRadius   = 0.14
	PocketRadius = 0.22
	HalfLength   = 4.0
	HalfWidth    = 2.0

	CornerGap = 0.3  // cushion clearance either side of a corner pocket
	SideGap   = 0.26 // cushion clearance either side of a side pocket

	Friction           = 1.5  // rolling deceleration, units/s²
	LinearDamping      = 0.3  // default per-second damping
	SleepSpeed         = 0.01 // below this a body is put to rest
	CushionRestitution = 0.6
	BallRestitution    = 0.94
	Substeps           = 8
)
