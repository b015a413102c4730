package game

import (
	"fmt"
	"slices"

	"github.com/sirupsen/logrus"
)

type TurnPhase int

const (
	PhaseWaitingForInput TurnPhase = iota
	PhaseBallsInMotion
	PhaseResolving
)

func (p TurnPhase) String() string {
	switch p {
	case PhaseBallsInMotion:
		return "balls_in_motion"
	case PhaseResolving:
		return "resolving"
	default:
		return "waiting_for_input"
	}
}

func (p TurnPhase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func (p *TurnPhase) UnmarshalText(b []byte) error {
	for _, v := range []TurnPhase{PhaseWaitingForInput, PhaseBallsInMotion, PhaseResolving} {
		if v.String() == string(b) {
			*p = v
			return nil
		}
	}
	return fmt.Errorf("unknown turn phase %q", b)
}

type FoulType string

const (
	FoulScratch    FoulType = "scratch"
	FoulWrongGroup FoulType = "wrong_group"
)

type ShotClass string

const (
	ShotEightBall  ShotClass = "eight_ball"
	ShotScratch    ShotClass = "scratch"
	ShotWrongGroup ShotClass = "wrong_group"
	ShotOwnGroup   ShotClass = "own_group"
	ShotNoPocket   ShotClass = "no_pocket"
)

// ShotSummary is the per-shot record attached to balls_stopped.
type ShotSummary struct {
	Number   int        `json:"number"`
	Shooter  Player     `json:"shooter"`
	Pocketed []int      `json:"pocketed"`
	Fouls    []FoulType `json:"fouls"`
	Switched bool       `json:"switched"`
	Class    ShotClass  `json:"class"`
}

func (s ShotSummary) HasFoul(f FoulType) bool {
	return slices.Contains(s.Fouls, f)
}

// ClassifyShot reduces a shot to its most significant outcome.
func ClassifyShot(s ShotSummary) ShotClass {
	switch {
	case slices.Contains(s.Pocketed, EightBallID):
		return ShotEightBall
	case s.HasFoul(FoulScratch):
		return ShotScratch
	case s.HasFoul(FoulWrongGroup):
		return ShotWrongGroup
	}
	for _, id := range s.Pocketed {
		if id != CueBallID {
			return ShotOwnGroup
		}
	}
	return ShotNoPocket
}

// motionProbe reports table quiescence to the turn watcher.
type motionProbe interface {
	AnyBallMoving() bool
	CaptureInProgress() bool
}

// TurnCoordinator owns the active seat and decides when a shot has settled.
type TurnCoordinator struct {
	settleDelay float64
	state       *MatchState
	bus         *EventBus
	probe       motionProbe
	log         *logrus.Entry

	active      Player
	phase       TurnPhase
	scored      bool
	settleTimer float64

	inShot   bool
	switched bool
	shots    int
	shot     ShotSummary
}

func NewTurnCoordinator(settleDelay float64, state *MatchState, bus *EventBus, probe motionProbe, log *logrus.Entry) *TurnCoordinator {
	return &TurnCoordinator{
		settleDelay: settleDelay,
		state:       state,
		bus:         bus,
		probe:       probe,
		log:         log,
		active:      Player1,
	}
}

func (t *TurnCoordinator) Active() Player { return t.active }
func (t *TurnCoordinator) IsPlayer1Turn() bool { return t.active == Player1 }
func (t *TurnCoordinator) Phase() TurnPhase { return t.phase }
func (t *TurnCoordinator) ScoredThisTurn() bool { return t.scored }
func (t *TurnCoordinator) ShotsTaken() int { return t.shots }
func (t *TurnCoordinator) ShotInProgress() bool { return t.inShot }
func (t *TurnCoordinator) ShotFouls() []FoulType { return slices.Clone(t.shot.Fouls) }

// Shooter is the seat that struck the current shot. Outside a shot it is the
// active seat.
func (t *TurnCoordinator) Shooter() Player {
	if t.inShot {
		return t.shot.Shooter
	}
	return t.active
}

// StartTurnCheck opens a shot for the active seat and arms the settle watcher.
func (t *TurnCoordinator) StartTurnCheck() {
	if t.state.Ended() {
		return
	}
	t.shots++
	t.shot = ShotSummary{Number: t.shots, Shooter: t.active}
	t.inShot = true
	t.switched = false
	t.phase = PhaseBallsInMotion
	t.settleTimer = 0
	t.log.WithFields(logrus.Fields{"shot": t.shots, "shooter": t.active}).Debug("shot started")
}

// SwitchTurn hands the table to the other seat. Within one shot only the
// first call has an effect.
func (t *TurnCoordinator) SwitchTurn() {
	if t.switchActive() {
		t.publishTurnChanged()
	}
}

func (t *TurnCoordinator) switchActive() bool {
	if t.state.Ended() {
		return false
	}
	if t.inShot && t.switched {
		t.log.WithField("shot", t.shot.Number).Debug("turn already switched this shot")
		return false
	}
	t.active = t.active.Opponent()
	t.scored = false
	if t.inShot {
		t.switched = true
	}
	return true
}

func (t *TurnCoordinator) publishTurnChanged() {
	t.log.WithField("active", t.active).Info("turn changed")
	t.bus.Publish(Event{Type: EventTurnChanged, Player: t.active})
}

// HandleFoul records f against the current shot and clears the scored flag.
// Callers switch the turn themselves.
func (t *TurnCoordinator) HandleFoul(f FoulType) {
	t.scored = false
	shooter := t.Shooter()
	if t.inShot {
		t.shot.Fouls = append(t.shot.Fouls, f)
	}
	t.log.WithFields(logrus.Fields{"foul": f, "shooter": shooter}).Info("foul")
	t.bus.Publish(Event{Type: EventFoul, Player: shooter, Foul: f})
}

// RegisterPocketedBall marks whether the shooter scored. A foul earlier in
// the same shot keeps the flag cleared.
func (t *TurnCoordinator) RegisterPocketedBall(own bool) {
	if t.inShot && len(t.shot.Fouls) > 0 {
		return
	}
	t.scored = own
}

// RecordPocket appends ballID to the current shot's pocket list.
func (t *TurnCoordinator) RecordPocket(ballID int) {
	if t.inShot {
		t.shot.Pocketed = append(t.shot.Pocketed, ballID)
	}
}

// EndMatch finishes the match once; later calls report false.
func (t *TurnCoordinator) EndMatch(winner Player, wt WinType) bool {
	if err := t.state.End(winner, wt); err != nil {
		return false
	}
	ev := Event{Type: EventMatchEnded, Winner: winner, WinType: wt, Shots: t.shots}
	if t.inShot {
		summary := t.closeShot()
		ev.Shot = &summary
	}
	t.phase = PhaseWaitingForInput
	t.inShot = false
	t.log.WithFields(logrus.Fields{"winner": winner, "win_type": wt}).Info("match ended")
	t.bus.Publish(ev)
	return true
}

// closeShot finalizes the summary of the shot in progress.
func (t *TurnCoordinator) closeShot() ShotSummary {
	summary := t.shot
	summary.Pocketed = slices.Clone(t.shot.Pocketed)
	summary.Fouls = slices.Clone(t.shot.Fouls)
	summary.Switched = t.switched
	summary.Class = ClassifyShot(summary)
	return summary
}

// Tick advances the settle watcher. Resolution happens once no ball is
// moving, no pocket capture is running, and the settle delay has elapsed
// without motion resuming.
func (t *TurnCoordinator) Tick(dt float64) {
	if t.state.Ended() || t.phase != PhaseBallsInMotion {
		return
	}
	if t.probe.AnyBallMoving() || t.probe.CaptureInProgress() {
		t.settleTimer = 0
		return
	}
	t.settleTimer += dt
	if t.settleTimer < t.settleDelay {
		return
	}
	t.resolve()
}

func (t *TurnCoordinator) resolve() {
	t.phase = PhaseResolving

	changed := false
	if !t.scored && !t.switched {
		changed = t.switchActive()
	}
	t.scored = false

	summary := t.closeShot()
	t.inShot = false
	t.phase = PhaseWaitingForInput

	if changed {
		t.publishTurnChanged()
	}
	t.log.WithFields(logrus.Fields{
		"shot":    summary.Number,
		"shooter": summary.Shooter,
		"class":   summary.Class,
	}).Info("balls stopped")
	t.bus.Publish(Event{Type: EventBallsStopped, Player: t.active, Shot: &summary})
}
