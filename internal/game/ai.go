package game

import (
	"math/rand/v2"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/playmatatu/eightball/internal/config"
)

type aiPhase int

const (
	aiIdle aiPhase = iota
	aiThinking
	aiAiming
	aiPausing
	aiCharging
	aiStriking
)

var aiPhaseNames = map[aiPhase]string{
	aiIdle:     "idle",
	aiThinking: "thinking",
	aiAiming:   "aiming",
	aiPausing:  "pausing",
	aiCharging: "charging",
	aiStriking: "striking",
}

func (p aiPhase) String() string { return aiPhaseNames[p] }

// AIShotPlan is computed once per AI turn.
type AIShotPlan struct {
	Target        int     `json:"target"`
	HasTarget     bool    `json:"has_target"`
	AimDirection  Vec2    `json:"aim_direction"`
	AccuracyNoise float64 `json:"accuracy_noise"`
	PlannedPower  float64 `json:"planned_power"`
	WallAvoided   bool    `json:"wall_avoided"`
}

// AIPlanner plays one seat by driving the ShotController through a timed
// think, aim, pause, charge, strike sequence.
type AIPlanner struct {
	seat     Player
	cfg      config.AIConfig
	accuracy float64
	shot     *ShotController
	physics  PhysicsService
	turn     *TurnCoordinator
	gate     shotGate
	balls    []*Ball
	layout   Layout
	rng      *rand.Rand
	log      *logrus.Entry

	enabled  bool
	active   bool
	phase    aiPhase
	timer    float64
	duration float64
	plan     AIShotPlan
	baseDir  Vec2

	unsubscribe []func()
}

func NewAIPlanner(seat Player, cfg config.MatchConfig, shot *ShotController, physics PhysicsService, turn *TurnCoordinator,
	gate shotGate, balls []*Ball, layout Layout, rng *rand.Rand, log *logrus.Entry) *AIPlanner {
	p := &AIPlanner{
		seat:     seat,
		cfg:      cfg.AI,
		accuracy: cfg.Accuracy(),
		shot:     shot,
		physics:  physics,
		turn:     turn,
		gate:     gate,
		balls:    balls,
		layout:   layout,
		rng:      rng,
		log:      log.WithField("seat", seat),
		enabled:  true,
	}
	if shot == nil || physics == nil || turn == nil {
		p.log.Warn("ai planner missing collaborators, disabled")
		p.enabled = false
	}
	return p
}

func (p *AIPlanner) Seat() Player { return p.seat }
func (p *AIPlanner) Active() bool { return p.active }
func (p *AIPlanner) Plan() AIShotPlan { return p.plan }
func (p *AIPlanner) Accuracy() float64 { return p.accuracy }

// Attach starts listening for the notifications that hand the AI its turn.
func (p *AIPlanner) Attach(bus *EventBus) {
	if !p.enabled {
		return
	}
	p.unsubscribe = append(p.unsubscribe,
		bus.OnTurnChanged(func(bool) {
			if p.turn.Active() == p.seat && !p.gate.Busy() {
				p.Start()
			}
		}),
		bus.OnBallsStopped(func() {
			if p.turn.Active() == p.seat && !p.active {
				p.Start()
			}
		}),
	)
}

// Start begins a new shot pipeline unless one is already running or the
// shot controller already holds a locked direction.
func (p *AIPlanner) Start() {
	if !p.enabled || p.active || p.shot.HasSelectedDirection() {
		return
	}
	p.active = true
	p.plan = AIShotPlan{Target: -1}
	p.enter(aiThinking, p.cfg.ThinkingTime.Sample(p.rng))
	p.log.Debug("ai turn started")
}

// Cancel aborts the pipeline and drops any shot it was preparing.
func (p *AIPlanner) Cancel() {
	if !p.active {
		return
	}
	if p.phase != aiStriking {
		p.shot.Cancel()
	}
	p.active = false
	p.phase = aiIdle
	p.log.Debug("ai turn cancelled")
}

// Disable cancels the pipeline and stops reacting to turn notifications.
func (p *AIPlanner) Disable() {
	p.Cancel()
	p.enabled = false
	for _, unsub := range p.unsubscribe {
		unsub()
	}
	p.unsubscribe = nil
}

func (p *AIPlanner) enter(phase aiPhase, duration float64) {
	p.phase = phase
	p.timer = 0
	p.duration = duration
}

func (p *AIPlanner) Tick(dt float64) {
	if !p.active {
		return
	}
	if p.phase != aiStriking && p.gate.Busy() {
		p.Cancel()
		return
	}
	p.timer += dt

	switch p.phase {
	case aiThinking:
		if p.timer < p.duration {
			return
		}
		p.plan = p.PlanShot()
		if !p.shot.SetAimDirection(p.plan.AimDirection) {
			p.Cancel()
			return
		}
		p.baseDir = p.plan.AimDirection
		p.enter(aiAiming, p.cfg.AimingTime.Sample(p.rng))
		p.log.WithFields(logrus.Fields{
			"target": p.plan.Target,
			"power":  p.plan.PlannedPower,
			"wall":   p.plan.WallAvoided,
		}).Info("ai shot planned")

	case aiAiming:
		if p.timer < p.duration {
			jitter := Lerp(p.cfg.AimJitterStart, p.cfg.AimJitterEnd, Clamp01(p.timer/p.duration))
			p.shot.SetAimDirection(p.baseDir.Add(InsideUnitCircle(p.rng).Mul(jitter)))
			return
		}
		p.shot.SetAimDirection(p.baseDir)
		if !p.shot.ReleaseAim() {
			p.Cancel()
			return
		}
		p.enter(aiPausing, p.cfg.ReleasePause.Sample(p.rng))

	case aiPausing:
		if p.timer >= p.duration {
			p.enter(aiCharging, p.cfg.PowerTime.Sample(p.rng))
		}

	case aiCharging:
		t := Clamp01(p.timer / p.duration)
		p.shot.SetPowerFraction(p.plan.PlannedPower * EaseOutQuad(t))
		if t >= 1 {
			p.shot.Strike(p.plan.PlannedPower)
			p.enter(aiStriking, 0)
		}

	case aiStriking:
		if !p.shot.IsStriking() {
			p.active = false
			p.phase = aiIdle
		}
	}
}

// PlanShot picks a target, a noisy aim direction and a power fraction.
func (p *AIPlanner) PlanShot() AIShotPlan {
	cue := p.physics.Position(CueBallID)
	plan := AIShotPlan{Target: -1, AccuracyNoise: (1 - p.accuracy) * p.cfg.AimNoiseScale}

	if target, ok := p.findTarget(cue); ok {
		plan.Target = target
		plan.HasTarget = true
		ideal := Normalize(p.physics.Position(target).Sub(cue))
		plan.AimDirection = Normalize(ideal.Add(InsideUnitCircle(p.rng).Mul(plan.AccuracyNoise)))
	} else {
		plan.AimDirection = Normalize(p.layout.Center.Sub(cue))
	}
	if IsZero(plan.AimDirection) {
		plan.AimDirection = Vec2{1, 0}
	}

	plan.AimDirection, plan.WallAvoided = p.avoidWalls(cue, plan.AimDirection)
	plan.PlannedPower = p.cfg.TargetPower.Sample(p.rng)
	return plan
}

// findTarget returns the nearest ball with a clear line from the cue ball,
// or the nearest ball when every line is blocked.
func (p *AIPlanner) findTarget(cue Vec2) (int, bool) {
	type candidate struct {
		id   int
		dist float64
	}
	var candidates []candidate
	for _, b := range p.balls {
		if b.IsCue() || !b.OnTable() {
			continue
		}
		candidates = append(candidates, candidate{b.ID, p.physics.Position(b.ID).Sub(cue).Len()})
	}
	if len(candidates) == 0 {
		return -1, false
	}
	sort.SliceStable(candidates, func(i, j int) bool { return candidates[i].dist < candidates[j].dist })

	offset := p.cfg.TargetProbeOffset
	for _, c := range candidates {
		dir := Normalize(p.physics.Position(c.id).Sub(cue))
		hit, ok := p.physics.Raycast(cue.Add(dir.Mul(offset)), dir, c.dist-offset, LayerAll)
		if !ok || (hit.Kind == HitBall && hit.BallID == c.id) {
			return c.id, true
		}
	}
	return candidates[0].id, true
}

// avoidWalls bounces a direction that would drive the cue ball nearly
// head-on into a cushion.
func (p *AIPlanner) avoidWalls(cue, dir Vec2) (Vec2, bool) {
	hit, ok := p.physics.Raycast(cue, dir, p.cfg.WallProbeDistance, LayerAll)
	if !ok || hit.Kind != HitWall {
		return dir, false
	}
	if AngleBetween(dir.Mul(-1), hit.Normal) >= p.cfg.WallAvoidAngle {
		return dir, false
	}
	bounced := Normalize(Reflect(dir, hit.Normal))
	bounced = Normalize(bounced.Add(InsideUnitCircle(p.rng).Mul(p.cfg.WallAvoidNoise)))
	if IsZero(bounced) {
		return dir, false
	}
	return bounced, true
}
