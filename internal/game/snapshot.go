package game

import "time"

type BallSnapshot struct {
	ID        int       `json:"id"`
	Position  Vec2      `json:"position"`
	Velocity  Vec2      `json:"velocity"`
	Group     BallGroup `json:"group"`
	Pocketed  bool      `json:"pocketed"`
	Falling   bool      `json:"falling"`
	Removed   bool      `json:"removed"`
	Layer     SortLayer `json:"layer"`
	Scale     float64   `json:"scale"`
	ArcHeight float64   `json:"arc_height"`
}

type PlayerSnapshot struct {
	Player Player    `json:"player"`
	Group  BallGroup `json:"group"`
	Score  int       `json:"score"`
	AI     bool      `json:"ai"`
}

// MatchSnapshot is a read-only view of a match for presentation and APIs.
type MatchSnapshot struct {
	MatchID     string           `json:"match_id"`
	TakenAt     time.Time        `json:"taken_at"`
	Elapsed     float64          `json:"elapsed"`
	Mode        string           `json:"mode"`
	Difficulty  string           `json:"difficulty"`
	Active      Player           `json:"active"`
	Player1Turn bool             `json:"player1_turn"`
	Phase       TurnPhase        `json:"phase"`
	ShotPhase   ShotPhase        `json:"shot_phase"`
	ShotsTaken  int              `json:"shots_taken"`
	Players     []PlayerSnapshot `json:"players"`
	Balls       []BallSnapshot   `json:"balls"`
	Cue         CueState         `json:"cue"`
	Preview     *AimPreview      `json:"preview,omitempty"`
	Ended       bool             `json:"ended"`
	Winner      Player           `json:"winner,omitempty"`
	WinType     WinType          `json:"win_type,omitempty"`
}

func (m *Match) Snapshot() MatchSnapshot {
	s := MatchSnapshot{
		MatchID:     m.ID.String(),
		TakenAt:     time.Now().UTC(),
		Elapsed:     m.elapsed,
		Mode:        string(m.cfg.Mode),
		Difficulty:  string(m.cfg.Difficulty),
		Active:      m.turn.Active(),
		Player1Turn: m.turn.IsPlayer1Turn(),
		Phase:       m.turn.Phase(),
		ShotPhase:   m.shot.Phase(),
		ShotsTaken:  m.turn.ShotsTaken(),
		Cue:         m.shot.Cue(),
		Ended:       m.state.Ended(),
		Winner:      m.state.Winner(),
		WinType:     m.state.WinType(),
	}
	for _, p := range []Player{Player1, Player2} {
		_, ai := m.AI(p)
		s.Players = append(s.Players, PlayerSnapshot{
			Player: p,
			Group:  m.state.GroupOf(p),
			Score:  m.state.Score(p),
			AI:     ai,
		})
	}
	for _, b := range m.balls {
		bs := BallSnapshot{
			ID:        b.ID,
			Group:     b.Group(),
			Pocketed:  b.Pocketed,
			Falling:   b.Falling,
			Removed:   b.Removed,
			Layer:     b.Layer,
			Scale:     b.Scale,
			ArcHeight: b.ArcHeight,
		}
		if !b.Removed {
			bs.Position = m.physics.Position(b.ID)
			bs.Velocity = m.physics.Velocity(b.ID)
		}
		s.Balls = append(s.Balls, bs)
	}
	if s.ShotPhase == ShotAiming || s.ShotPhase == ShotCharging {
		preview := m.shot.Preview()
		s.Preview = &preview
	}
	return s
}
