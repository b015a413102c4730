package game

import (
	"fmt"
	"math"

	"github.com/sirupsen/logrus"

	"github.com/playmatatu/eightball/internal/config"
)

type ShotPhase int

const (
	ShotIdle ShotPhase = iota
	ShotAiming
	ShotCharging
	ShotStriking
)

func (p ShotPhase) String() string {
	switch p {
	case ShotAiming:
		return "aiming"
	case ShotCharging:
		return "charging"
	case ShotStriking:
		return "striking"
	default:
		return "idle"
	}
}

func (p ShotPhase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func (p *ShotPhase) UnmarshalText(b []byte) error {
	for _, v := range []ShotPhase{ShotIdle, ShotAiming, ShotCharging, ShotStriking} {
		if v.String() == string(b) {
			*p = v
			return nil
		}
	}
	return fmt.Errorf("unknown shot phase %q", b)
}

// CueState is the cue stick as presentation should draw it.
type CueState struct {
	Visible   bool    `json:"visible"`
	Position  Vec2    `json:"position"`
	Direction Vec2    `json:"direction"`
	Pull      float64 `json:"pull"`
}

// shotGate reports whether the table accepts shot input.
type shotGate interface {
	Busy() bool
}

// ShotController runs one shot: aim, charge, strike. Both the human input
// surface and the AI planner drive it through the same methods.
type ShotController struct {
	cfg     config.CueConfig
	physics PhysicsService
	gate    shotGate
	log     *logrus.Entry
	// onStrike fires after the cue ball impulse is applied.
	onStrike func(impulse Vec2)

	phase     ShotPhase
	direction Vec2
	power     float64
	cue       CueState
	cueBase   Vec2
	preview   AimPreview

	pointerDriven bool
	pointer       Vec2
	smoothPointer Vec2
	pointerVel    Vec2

	strikeFrom     Vec2
	strikeTo       Vec2
	strikeProgress float64
	strikePower    float64
	predicted      Vec2

	shotLive      bool
	contactUsed   bool
	struckImpulse float64
}

func NewShotController(cfg config.CueConfig, physics PhysicsService, gate shotGate, log *logrus.Entry, onStrike func(impulse Vec2)) *ShotController {
	return &ShotController{
		cfg:      cfg,
		physics:  physics,
		gate:     gate,
		log:      log,
		onStrike: onStrike,
	}
}

func (s *ShotController) Phase() ShotPhase { return s.phase }
func (s *ShotController) Direction() Vec2 { return s.direction }
func (s *ShotController) PowerFraction() float64 { return s.power }
func (s *ShotController) Cue() CueState { return s.cue }
func (s *ShotController) Preview() AimPreview { return s.preview }
func (s *ShotController) IsStriking() bool { return s.phase == ShotStriking }

// HasSelectedDirection is true once aim is locked and power is being set.
func (s *ShotController) HasSelectedDirection() bool {
	return s.phase == ShotCharging
}

// AimAt steers the aim from a pointer position. The cue sits on the pointer
// side of the ball, so the shot travels from the pointer through the ball.
func (s *ShotController) AimAt(pointer Vec2) bool {
	if s.gate.Busy() {
		return false
	}
	switch s.phase {
	case ShotIdle:
		s.phase = ShotAiming
		s.smoothPointer = pointer
		s.pointerVel = Vec2{}
	case ShotAiming:
	default:
		return false
	}
	s.pointerDriven = true
	s.pointer = pointer
	s.steerFromPointer()
	s.updateAim()
	return true
}

// SetAimDirection aims along dir directly.
func (s *ShotController) SetAimDirection(dir Vec2) bool {
	if s.gate.Busy() || (s.phase != ShotIdle && s.phase != ShotAiming) {
		return false
	}
	dir = Normalize(dir)
	if IsZero(dir) {
		return false
	}
	s.phase = ShotAiming
	s.pointerDriven = false
	s.direction = dir
	s.updateAim()
	return true
}

// ReleaseAim locks the direction and begins charging.
func (s *ShotController) ReleaseAim() bool {
	if s.phase != ShotAiming || !s.cue.Visible || IsZero(s.direction) {
		return false
	}
	s.phase = ShotCharging
	s.cueBase = s.cue.Position
	s.setPower(0)
	return true
}

// Cancel drops an unstruck shot.
func (s *ShotController) Cancel() {
	if s.phase == ShotAiming || s.phase == ShotCharging {
		s.log.WithField("phase", s.phase).Debug("shot cancelled")
		s.reset()
	}
}

// SetPowerFraction sets the charge level while charging.
func (s *ShotController) SetPowerFraction(f float64) {
	if s.phase != ShotCharging {
		return
	}
	s.setPower(f)
}

// SetPullDistance is the drag-gesture form of SetPowerFraction.
func (s *ShotController) SetPullDistance(d float64) {
	s.SetPowerFraction(d / s.cfg.MaxPull)
}

func (s *ShotController) setPower(f float64) {
	s.power = Clamp01(f)
	s.cue.Pull = s.power * s.cfg.MaxPull
	s.cue.Position = s.cueBase.Sub(s.direction.Mul(s.cue.Pull))
	s.preview = ComputeAimPreview(s.physics, s.cfg, s.physics.Position(CueBallID), s.direction, s.power)
}

// Strike starts the lunge with the given power fraction.
func (s *ShotController) Strike(f float64) bool {
	if s.phase != ShotCharging {
		return false
	}
	s.strikePower = Clamp01(f)
	s.strikeFrom = s.cue.Position
	s.strikeTo = s.physics.Position(CueBallID).Sub(s.direction.Mul(s.cfg.StrikeOffset))
	s.strikeProgress = 0
	s.predicted = s.preview.ObjectDirection
	s.phase = ShotStriking
	return true
}

func (s *ShotController) Tick(dt float64) {
	if s.phase == ShotIdle {
		return
	}
	if s.phase != ShotStriking && s.gate.Busy() {
		s.log.WithField("phase", s.phase).Debug("shot interrupted")
		s.reset()
		return
	}
	switch s.phase {
	case ShotAiming:
		if s.pointerDriven {
			s.smoothPointer = SmoothDamp(s.smoothPointer, s.pointer, &s.pointerVel, s.cfg.SmoothTime, dt)
			s.steerFromPointer()
		}
		s.updateAim()
	case ShotStriking:
		s.strikeProgress = Clamp01(s.strikeProgress + dt*s.cfg.StrikeSpeed)
		s.cue.Position = LerpVec(s.strikeFrom, s.strikeTo, s.strikeProgress)
		if s.strikeProgress >= 1 {
			s.fire()
		}
	}
}

func (s *ShotController) steerFromPointer() {
	d := Normalize(s.physics.Position(CueBallID).Sub(s.smoothPointer))
	if !IsZero(d) {
		s.direction = d
	}
}

func (s *ShotController) updateAim() {
	if IsZero(s.direction) {
		s.cue.Visible = false
		return
	}
	ball := s.physics.Position(CueBallID)
	s.cue = CueState{
		Visible:   true,
		Position:  ball.Sub(s.direction.Mul(s.cfg.Distance)),
		Direction: s.direction,
	}
	s.preview = ComputeAimPreview(s.physics, s.cfg, ball, s.direction, s.power)
}

func (s *ShotController) fire() {
	impulse := s.direction.Mul(s.strikePower * s.cfg.MaxPower)
	s.physics.ApplyImpulse(CueBallID, impulse)
	if s.physics.Velocity(CueBallID).Len() < s.cfg.MinMotionSpeed {
		kick := s.direction.Mul(s.cfg.MinStrikeImpulse)
		s.physics.ApplyImpulse(CueBallID, kick)
		impulse = impulse.Add(kick)
		s.log.Debug("strike below motion threshold, applied minimum impulse")
	}
	s.struckImpulse = impulse.Len()
	s.shotLive = true
	s.contactUsed = false

	s.log.WithFields(logrus.Fields{"power": s.strikePower, "impulse": s.struckImpulse}).Info("cue strike")
	s.reset()
	if s.onStrike != nil {
		s.onStrike(impulse)
	}
}

func (s *ShotController) reset() {
	s.phase = ShotIdle
	s.power = 0
	s.cue = CueState{}
	s.preview = AimPreview{}
	s.pointerDriven = false
	s.strikeProgress = 0
}

// HandleContact applies the first-contact override: the first ball the cue
// ball touches after a strike leaves along the previewed direction at no less
// than half the struck impulse. Later contacts are left to the physics.
func (s *ShotController) HandleContact(a, b int) {
	if !s.shotLive || s.contactUsed {
		return
	}
	other := -1
	switch CueBallID {
	case a:
		other = b
	case b:
		other = a
	}
	if other < 0 {
		return
	}
	s.contactUsed = true
	if IsZero(s.predicted) {
		return
	}
	speed := math.Max(s.physics.Velocity(other).Len(), s.struckImpulse*0.5)
	s.physics.SetVelocity(other, s.predicted.Mul(speed))
	s.log.WithFields(logrus.Fields{"ball": other, "speed": speed}).Debug("first contact override")
}

// EndShot closes the contact window once the shot resolves.
func (s *ShotController) EndShot() {
	s.shotLive = false
}
