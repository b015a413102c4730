package game

import (
	"errors"
	"fmt"
)

var (
	ErrGroupsAlreadyAssigned = errors.New("groups already assigned")
	ErrInvalidGroup          = errors.New("ball has no group")
	ErrScoreCapacity         = errors.New("score already at group capacity")
	ErrUnknownBall           = errors.New("unknown ball")
	ErrMatchEnded            = errors.New("match already ended")
)

type Player int

const (
	Player1 Player = 1
	Player2 Player = 2
)

func (p Player) Opponent() Player {
	if p == Player1 {
		return Player2
	}
	return Player1
}

func (p Player) String() string {
	return fmt.Sprintf("player%d", int(p))
}

func (p Player) index() int {
	if p == Player2 {
		return 1
	}
	return 0
}

type WinType string

const (
	WinPocket8    WinType = "pocket_8"
	WinIllegal8   WinType = "illegal_8ball"
	WinScratchOn8 WinType = "scratch_on_8"
)

// MatchState is the per-match scoreboard: group ownership, scores and the
// terminal result.
type MatchState struct {
	currentGroup BallGroup
	groups       [2]BallGroup
	scores       [2]int
	ended        bool
	winner       Player
	winType      WinType
}

func NewMatchState() *MatchState {
	return &MatchState{}
}

func (s *MatchState) GroupsAssigned() bool {
	return s.currentGroup != GroupUnassigned
}

// CurrentGroupAssignment is the group claimed by the first legal scorer.
func (s *MatchState) CurrentGroupAssignment() BallGroup {
	return s.currentGroup
}

// AssignGroups gives g to shooter and the complementary group to the
// opponent. It succeeds once per match.
func (s *MatchState) AssignGroups(shooter Player, g BallGroup) error {
	if s.GroupsAssigned() {
		return ErrGroupsAlreadyAssigned
	}
	if g == GroupUnassigned {
		return ErrInvalidGroup
	}
	s.currentGroup = g
	s.groups[shooter.index()] = g
	s.groups[shooter.Opponent().index()] = g.Other()
	return nil
}

func (s *MatchState) GroupOf(p Player) BallGroup {
	return s.groups[p.index()]
}

// OwnerOf returns the player owning ballID's group, if groups are set.
func (s *MatchState) OwnerOf(ballID int) (Player, bool) {
	g := GroupOf(ballID)
	if g == GroupUnassigned || !s.GroupsAssigned() {
		return 0, false
	}
	if s.groups[0] == g {
		return Player1, true
	}
	return Player2, true
}

// AddScore credits p with one pocketed ball and returns the new total.
func (s *MatchState) AddScore(p Player) (int, error) {
	i := p.index()
	if s.scores[i] >= GroupCapacity {
		return s.scores[i], ErrScoreCapacity
	}
	s.scores[i]++
	return s.scores[i], nil
}

func (s *MatchState) Score(p Player) int {
	return s.scores[p.index()]
}

func (s *MatchState) End(winner Player, wt WinType) error {
	if s.ended {
		return ErrMatchEnded
	}
	s.ended = true
	s.winner = winner
	s.winType = wt
	return nil
}

func (s *MatchState) Ended() bool { return s.ended }
func (s *MatchState) Winner() Player { return s.winner }
func (s *MatchState) WinType() WinType { return s.winType }
