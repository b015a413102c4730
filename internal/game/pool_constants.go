package game

// Ball numbering for 8-ball pool.
const (
	NumBalls      = 16 // 0=cue, 1-7=low, 8=eight, 9-15=high
	CueBallID     = 0
	EightBallID   = 8
	GroupCapacity = 7
)

// LayerMask selects which colliders a raycast may hit.
type LayerMask uint8

const (
	LayerBalls LayerMask = 1 << iota
	LayerWalls
)

const LayerAll = LayerBalls | LayerWalls
