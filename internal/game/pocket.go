package game

import (
	"math/rand/v2"
	"slices"

	"github.com/sirupsen/logrus"

	"github.com/playmatatu/eightball/internal/config"
)

type captureKind int

const (
	captureNone captureKind = iota
	captureCueReturn
	captureSettle
	captureEightDelay
)

// PocketResolver animates one ball's capture by a pocket and applies the
// scoring consequences when the animation completes.
type PocketResolver struct {
	mgr  *PocketManager
	ball *Ball

	processing  bool
	kind        captureKind
	center      Vec2
	timer       float64
	duration    float64
	speedFactor float64
	bounce      float64
	attraction  float64
	jumpFrom    Vec2
}

// Capturing reports whether an animation or delayed verdict is still running.
func (r *PocketResolver) Capturing() bool {
	return r.kind != captureNone
}

// Enter starts the capture sequence. Re-entries while a capture runs, or for
// a ball already pocketed, are ignored.
func (r *PocketResolver) Enter(center Vec2) bool {
	if r.processing || r.ball.Pocketed || r.ball.Removed {
		return false
	}
	r.processing = true
	r.ball.Pocketed = true
	r.ball.Layer = SortInsidePocket
	r.center = center
	r.timer = 0

	m := r.mgr
	m.turn.RecordPocket(r.ball.ID)
	m.bus.Publish(Event{Type: EventBallPocketed, Player: m.turn.Shooter(), BallID: r.ball.ID})

	if r.ball.IsCue() {
		r.beginCueReturn()
	} else {
		r.beginSettle()
	}
	return true
}

func (r *PocketResolver) beginCueReturn() {
	m := r.mgr
	id := r.ball.ID
	m.physics.SetVelocity(id, Vec2{})
	r.jumpFrom = m.physics.Position(id)
	r.kind = captureCueReturn
	r.duration = m.cfg.RespawnJumpDuration

	m.log.WithField("shooter", m.turn.Shooter()).Info("cue ball pocketed")
	m.turn.HandleFoul(FoulScratch)
	m.turn.SwitchTurn()
}

func (r *PocketResolver) beginSettle() {
	m := r.mgr
	id := r.ball.ID
	r.ball.Falling = true

	impact := m.physics.Velocity(id).Len()
	r.speedFactor = InverseLerp(m.cfg.SpeedRange.Min, m.cfg.SpeedRange.Max, impact)
	r.bounce = m.cfg.Bounce.Lerp(r.speedFactor)
	r.attraction = m.cfg.Attraction.Lerp(r.speedFactor)
	r.duration = m.cfg.SettleDuration.Lerp(r.speedFactor)
	r.kind = captureSettle

	if d, ok := m.physics.(Damper); ok {
		damping := m.cfg.Damping.Lerp(r.speedFactor)
		d.SetDamping(id, damping, damping)
	}
	m.log.WithFields(logrus.Fields{
		"ball":         id,
		"impact_speed": impact,
		"speed_factor": r.speedFactor,
	}).Debug("ball settling in pocket")
}

func (r *PocketResolver) Tick(dt float64) {
	switch r.kind {
	case captureCueReturn:
		r.tickCueReturn(dt)
	case captureSettle:
		r.tickSettle(dt)
	case captureEightDelay:
		r.timer += dt
		// every other capture of the shot must score before the verdict
		if r.timer >= r.duration && !r.mgr.capturingExcept(r) {
			r.kind = captureNone
			r.mgr.finishEightBall()
		}
	}
}

func (r *PocketResolver) tickCueReturn(dt float64) {
	m := r.mgr
	r.timer += dt
	t := Clamp01(r.timer / r.duration)
	m.physics.SetVelocity(r.ball.ID, Vec2{})
	if t < 1 {
		m.physics.SetPosition(r.ball.ID, LerpVec(r.jumpFrom, m.layout.RespawnPoint, t))
		r.ball.ArcHeight = 4 * m.cfg.RespawnJumpHeight * t * (1 - t)
		return
	}
	m.physics.SetPosition(r.ball.ID, m.layout.RespawnPoint)
	if rel, ok := m.physics.(PocketReleaser); ok {
		rel.ReleaseFromPocket(r.ball.ID)
	}
	r.ball.ArcHeight = 0
	r.ball.Layer = SortNormal
	r.ball.Pocketed = false
	r.processing = false
	r.kind = captureNone
	m.log.Debug("cue ball respawned")
}

func (r *PocketResolver) tickSettle(dt float64) {
	m := r.mgr
	id := r.ball.ID
	settled := m.cfg.SettledRadius

	pos := m.physics.Position(id)
	toCenter := r.center.Sub(pos)
	dist := toCenter.Len()
	if dist > settled {
		scaled := dist * 10
		m.physics.AddForce(id, Normalize(toCenter).Mul(r.attraction*scaled*scaled*dt))
		if dist > settled*2 {
			m.physics.SetVelocity(id, m.physics.Velocity(id).Mul(0.5))
			m.physics.SetPosition(id, LerpVec(pos, r.center, 0.3))
		}
	} else if m.rng.Float64() > 0.9-r.speedFactor*0.2 {
		m.physics.ApplyImpulse(id, InsideUnitCircle(m.rng).Mul(r.bounce))
	}

	r.timer += dt
	r.ball.Scale = 1 - EaseInBack(Clamp01(r.timer/r.duration))
	if r.timer < r.duration {
		return
	}
	r.ball.Falling = false
	r.ball.Scale = 0

	if r.ball.IsEight() {
		r.kind = captureEightDelay
		r.timer = 0
		r.duration = m.cfg.FastScaleDuration + m.cfg.EightBallDelay
		m.physics.SetVelocity(id, Vec2{})
		return
	}
	r.kind = captureNone
	if m.state.Ended() {
		return
	}
	m.scoreObjectBall(r.ball)
	m.remove(r.ball)
}

// PocketManager routes pocket triggers to per-ball resolvers and owns the
// scoring rules applied when a capture completes.
type PocketManager struct {
	cfg     config.PocketConfig
	physics PhysicsService
	turn    *TurnCoordinator
	state   *MatchState
	bus     *EventBus
	balls   []*Ball
	layout  Layout
	rng     *rand.Rand
	log     *logrus.Entry

	resolvers []*PocketResolver
}

func NewPocketManager(cfg config.PocketConfig, physics PhysicsService, turn *TurnCoordinator, state *MatchState,
	bus *EventBus, balls []*Ball, layout Layout, rng *rand.Rand, log *logrus.Entry) *PocketManager {
	m := &PocketManager{
		cfg:     cfg,
		physics: physics,
		turn:    turn,
		state:   state,
		bus:     bus,
		balls:   balls,
		layout:  layout,
		rng:     rng,
		log:     log,
	}
	m.resolvers = make([]*PocketResolver, len(balls))
	for i, b := range balls {
		m.resolvers[i] = &PocketResolver{mgr: m, ball: b}
	}
	return m
}

// HandleTrigger is called when ballID's body enters a pocket volume.
func (m *PocketManager) HandleTrigger(ballID int, center Vec2) bool {
	if ballID < 0 || ballID >= len(m.resolvers) {
		m.log.WithField("ball", ballID).Warn("pocket trigger for unknown ball")
		return false
	}
	if m.state.Ended() {
		m.log.WithField("ball", ballID).Debug("pocket trigger after match end ignored")
		return false
	}
	return m.resolvers[ballID].Enter(center)
}

func (m *PocketManager) Tick(dt float64) {
	for _, r := range m.resolvers {
		r.Tick(dt)
	}
}

func (m *PocketManager) CaptureInProgress() bool {
	for _, r := range m.resolvers {
		if r.Capturing() {
			return true
		}
	}
	return false
}

func (m *PocketManager) capturingExcept(skip *PocketResolver) bool {
	for _, r := range m.resolvers {
		if r != skip && r.Capturing() {
			return true
		}
	}
	return false
}

// scoreObjectBall credits a settled object ball using the seat that struck
// the shot, assigning groups on the first legal pocket. A scratch shot never
// assigns groups; its balls go uncredited while the table is open.
func (m *PocketManager) scoreObjectBall(b *Ball) {
	if m.state.Ended() {
		return
	}
	shooter := m.turn.Shooter()
	scratched := slices.Contains(m.turn.ShotFouls(), FoulScratch)
	if !m.state.GroupsAssigned() && !scratched {
		if err := m.state.AssignGroups(shooter, b.Group()); err == nil {
			m.log.WithFields(logrus.Fields{"player": shooter, "group": b.Group()}).Info("groups assigned")
			m.bus.Publish(Event{Type: EventGroupsAssigned, Player: shooter, Group: b.Group()})
		}
	}

	owner, ok := m.state.OwnerOf(b.ID)
	if !ok {
		m.log.WithFields(logrus.Fields{"ball": b.ID, "shooter": shooter}).Info("ball pocketed on open table after scratch, not credited")
		return
	}
	if owner != shooter {
		m.addScore(owner, b.ID)
		m.turn.HandleFoul(FoulWrongGroup)
		m.turn.SwitchTurn()
		return
	}
	m.addScore(shooter, b.ID)
	m.turn.RegisterPocketedBall(true)
}

func (m *PocketManager) addScore(p Player, ballID int) {
	if m.state.Ended() {
		return
	}
	total, err := m.state.AddScore(p)
	if err != nil {
		m.log.WithError(err).WithFields(logrus.Fields{"player": p, "ball": ballID}).Warn("score not credited")
		return
	}
	m.log.WithFields(logrus.Fields{"player": p, "ball": ballID, "score": total}).Info("score updated")
	m.bus.Publish(Event{Type: EventScoreUpdated, Player: p, BallID: ballID})
}

func (m *PocketManager) remove(b *Ball) {
	b.Removed = true
	if r, ok := m.physics.(BodyRemover); ok {
		r.RemoveBody(b.ID)
	}
	m.bus.Publish(Event{Type: EventBallRemoved, BallID: b.ID})
}

// GroupCleared reports whether every ball of g has been pocketed.
func (m *PocketManager) GroupCleared(g BallGroup) bool {
	if g == GroupUnassigned {
		return false
	}
	for _, b := range m.balls {
		if b.Group() == g && !b.Pocketed {
			return false
		}
	}
	return true
}

// finishEightBall decides the match once the 8 has settled. The shooter wins
// only with their group cleared and no foul on the shot.
func (m *PocketManager) finishEightBall() {
	shooter := m.turn.Shooter()
	fouls := m.turn.ShotFouls()

	winner, wt := shooter.Opponent(), WinIllegal8
	switch {
	case len(fouls) == 0 && m.GroupCleared(m.state.GroupOf(shooter)):
		winner, wt = shooter, WinPocket8
	case slices.Contains(fouls, FoulScratch):
		wt = WinScratchOn8
	}
	m.turn.EndMatch(winner, wt)
}
