package game

import (
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/playmatatu/eightball/internal/config"
)

// Match wires the scoreboard, turn coordinator, pocket resolvers, shot
// controller and AI seats for one game of 8-ball. Every method must be called
// from the goroutine that drives Tick.
type Match struct {
	ID      uuid.UUID
	cfg     config.MatchConfig
	physics PhysicsService
	layout  Layout
	log     *logrus.Entry
	rng     *rand.Rand

	balls   []*Ball
	state   *MatchState
	bus     *EventBus
	turn    *TurnCoordinator
	pockets *PocketManager
	shot    *ShotController
	ais     []*AIPlanner

	started bool
	elapsed float64
}

type Option func(*Match)

func WithLogger(log *logrus.Entry) Option {
	return func(m *Match) { m.log = log }
}

func WithRand(rng *rand.Rand) Option {
	return func(m *Match) { m.rng = rng }
}

func WithID(id uuid.UUID) Option {
	return func(m *Match) { m.ID = id }
}

func NewMatch(cfg config.MatchConfig, physics PhysicsService, layout Layout, opts ...Option) (*Match, error) {
	if physics == nil {
		return nil, errors.New("physics service is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid match config: %w", err)
	}
	m := &Match{
		ID:      uuid.New(),
		cfg:     cfg,
		physics: physics,
		layout:  layout,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.log == nil {
		m.log = logrus.NewEntry(logrus.StandardLogger())
	}
	if m.rng == nil {
		m.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	m.log = m.log.WithField("match", m.ID.String())

	m.balls = newRack()
	m.state = NewMatchState()
	m.bus = NewEventBus(m.ID.String())
	m.turn = NewTurnCoordinator(cfg.Turn.SettleDelay, m.state, m.bus, m, m.log.WithField("component", "turn"))
	m.pockets = NewPocketManager(cfg.Pocket, physics, m.turn, m.state, m.bus, m.balls, layout, m.rng,
		m.log.WithField("component", "pocket"))
	m.shot = NewShotController(cfg.Cue, physics, m, m.log.WithField("component", "shot"), m.onStrike)

	if cfg.AutoplayPlayer1 {
		m.addAI(Player1)
	}
	if cfg.AgainstAI() {
		m.addAI(Player2)
	}
	m.bus.OnBallsStopped(m.shot.EndShot)
	return m, nil
}

func (m *Match) addAI(seat Player) {
	ai := NewAIPlanner(seat, m.cfg, m.shot, m.physics, m.turn, m, m.balls, m.layout, m.rng,
		m.log.WithField("component", "ai"))
	ai.Attach(m.bus)
	m.ais = append(m.ais, ai)
}

func (m *Match) Bus() *EventBus { return m.bus }
func (m *Match) State() *MatchState { return m.state }
func (m *Match) Turn() *TurnCoordinator { return m.turn }
func (m *Match) Shot() *ShotController { return m.shot }
func (m *Match) Pockets() *PocketManager { return m.pockets }
func (m *Match) Config() config.MatchConfig { return m.cfg }
func (m *Match) Ended() bool { return m.state.Ended() }
func (m *Match) Ball(id int) *Ball { return m.balls[id] }

// AI returns the planner for seat, if that seat is computer controlled.
func (m *Match) AI(seat Player) (*AIPlanner, bool) {
	for _, ai := range m.ais {
		if ai.Seat() == seat {
			return ai, true
		}
	}
	return nil, false
}

// Start announces the opening turn. AI seats react to it.
func (m *Match) Start() {
	if m.started {
		return
	}
	m.started = true
	m.log.WithFields(logrus.Fields{"mode": m.cfg.Mode, "difficulty": m.cfg.Difficulty}).Info("match started")
	m.bus.Publish(Event{Type: EventTurnChanged, Player: m.turn.Active()})
}

// Stop disables every AI seat.
func (m *Match) Stop() {
	for _, ai := range m.ais {
		ai.Disable()
	}
}

// Tick advances every timed sequence by dt seconds. Physics is stepped by
// the caller before Tick.
func (m *Match) Tick(dt float64) {
	m.elapsed += dt
	m.pockets.Tick(dt)
	if m.state.Ended() {
		return
	}
	m.shot.Tick(dt)
	for _, ai := range m.ais {
		ai.Tick(dt)
	}
	m.turn.Tick(dt)
}

// HandlePocketEnter is the physics trigger callback for pocket volumes.
func (m *Match) HandlePocketEnter(ballID int, center Vec2) {
	m.pockets.HandleTrigger(ballID, center)
}

// HandleContact is the physics callback for ball-ball contacts.
func (m *Match) HandleContact(a, b int) {
	m.shot.HandleContact(a, b)
}

func (m *Match) onStrike(impulse Vec2) {
	m.turn.StartTurnCheck()
	m.bus.Publish(Event{Type: EventShotStruck, Player: m.turn.Shooter(), Impulse: impulse.Len()})
}

// AnyBallMoving reports whether any ball still in play exceeds the motion
// threshold.
func (m *Match) AnyBallMoving() bool {
	for _, b := range m.balls {
		if b.Removed {
			continue
		}
		if m.physics.Velocity(b.ID).Len() >= m.cfg.Turn.MotionThreshold {
			return true
		}
	}
	return false
}

func (m *Match) CaptureInProgress() bool {
	return m.pockets.CaptureInProgress()
}

// Busy is true while the table cannot accept a new shot.
func (m *Match) Busy() bool {
	return m.state.Ended() ||
		m.turn.Phase() != PhaseWaitingForInput ||
		m.CaptureInProgress() ||
		m.AnyBallMoving()
}

// humanControls reports whether the active seat takes pointer input.
func (m *Match) humanControls() bool {
	if m.state.Ended() {
		return false
	}
	_, ai := m.AI(m.turn.Active())
	return !ai
}

// PointerDown starts aiming, or cancels a charged shot.
func (m *Match) PointerDown(p Vec2) bool {
	if !m.humanControls() {
		return false
	}
	if m.shot.Phase() == ShotCharging {
		m.shot.Cancel()
		return true
	}
	return m.shot.AimAt(p)
}

func (m *Match) PointerMove(p Vec2) bool {
	if !m.humanControls() || m.shot.Phase() != ShotAiming {
		return false
	}
	return m.shot.AimAt(p)
}

func (m *Match) PointerUp() bool {
	if !m.humanControls() {
		return false
	}
	return m.shot.ReleaseAim()
}

// PowerDrag sets the charge from the power surface, as a fraction of full pull.
func (m *Match) PowerDrag(fraction float64) {
	if m.humanControls() {
		m.shot.SetPowerFraction(fraction)
	}
}

// PowerRelease strikes with the current charge.
func (m *Match) PowerRelease() bool {
	if !m.humanControls() {
		return false
	}
	return m.shot.Strike(m.shot.PowerFraction())
}
