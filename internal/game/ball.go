package game

import "fmt"

type BallGroup int

const (
	GroupUnassigned BallGroup = iota
	GroupLow                  // 1-7
	GroupHigh                 // 9-15
)

func (g BallGroup) String() string {
	switch g {
	case GroupLow:
		return "low"
	case GroupHigh:
		return "high"
	default:
		return "unassigned"
	}
}

func (g BallGroup) MarshalText() ([]byte, error) {
	return []byte(g.String()), nil
}

func (g *BallGroup) UnmarshalText(b []byte) error {
	switch string(b) {
	case "low":
		*g = GroupLow
	case "high":
		*g = GroupHigh
	case "unassigned", "":
		*g = GroupUnassigned
	default:
		return fmt.Errorf("unknown ball group %q", b)
	}
	return nil
}

// Other returns the complementary group.
func (g BallGroup) Other() BallGroup {
	switch g {
	case GroupLow:
		return GroupHigh
	case GroupHigh:
		return GroupLow
	default:
		return GroupUnassigned
	}
}

// GroupOf maps a ball number to its group. The cue ball and the 8 have none.
func GroupOf(ballID int) BallGroup {
	switch {
	case ballID >= 1 && ballID <= 7:
		return GroupLow
	case ballID >= 9 && ballID <= 15:
		return GroupHigh
	default:
		return GroupUnassigned
	}
}

// SortLayer is the presentation draw layer.
type SortLayer int

const (
	SortNormal SortLayer = iota
	SortInsidePocket
)

func (s SortLayer) MarshalText() ([]byte, error) {
	if s == SortInsidePocket {
		return []byte("inside_pocket"), nil
	}
	return []byte("normal"), nil
}

func (s *SortLayer) UnmarshalText(b []byte) error {
	switch string(b) {
	case "inside_pocket":
		*s = SortInsidePocket
	case "normal":
		*s = SortNormal
	default:
		return fmt.Errorf("unknown sort layer %q", b)
	}
	return nil
}

// Ball holds gameplay flags and presentation hints for one ball. Physical
// state lives in the PhysicsService.
type Ball struct {
	ID        int
	Pocketed  bool
	Falling   bool
	Removed   bool
	Layer     SortLayer
	Scale     float64
	ArcHeight float64
}

func NewBall(id int) (*Ball, error) {
	if id < 0 || id >= NumBalls {
		return nil, fmt.Errorf("%w: %d", ErrUnknownBall, id)
	}
	return &Ball{ID: id, Scale: 1}, nil
}

func (b *Ball) Group() BallGroup { return GroupOf(b.ID) }
func (b *Ball) IsCue() bool { return b.ID == CueBallID }
func (b *Ball) IsEight() bool { return b.ID == EightBallID }

// OnTable reports whether the ball still takes part in play.
func (b *Ball) OnTable() bool {
	return !b.Pocketed && !b.Removed
}

func newRack() []*Ball {
	balls := make([]*Ball, NumBalls)
	for i := range balls {
		balls[i] = &Ball{ID: i, Scale: 1}
	}
	return balls
}
