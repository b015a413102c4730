package config

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

type Mode string

const (
	ModeAI    Mode = "ai"
	ModeLocal Mode = "local"
)

func ParseDifficulty(s string) (Difficulty, error) {
	switch Difficulty(strings.ToLower(strings.TrimSpace(s))) {
	case DifficultyEasy:
		return DifficultyEasy, nil
	case DifficultyMedium, "":
		return DifficultyMedium, nil
	case DifficultyHard:
		return DifficultyHard, nil
	}
	return "", fmt.Errorf("unknown difficulty %q", s)
}

func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeAI, "":
		return ModeAI, nil
	case ModeLocal:
		return ModeLocal, nil
	}
	return "", fmt.Errorf("unknown match mode %q", s)
}

// Range is an inclusive [Min, Max] interval used for randomized timings and
// for speed-factor interpolation.
type Range struct {
	Min float64 `yaml:"min" json:"min"`
	Max float64 `yaml:"max" json:"max"`
}

// Sample draws uniformly from the range.
func (r Range) Sample(rng *rand.Rand) float64 {
	if r.Max <= r.Min {
		return r.Min
	}
	return r.Min + rng.Float64()*(r.Max-r.Min)
}

// Lerp maps t in [0,1] onto the range.
func (r Range) Lerp(t float64) float64 {
	return r.Min + (r.Max-r.Min)*t
}

func (r Range) validate(name string) error {
	if r.Min < 0 || r.Max < r.Min {
		return fmt.Errorf("%s: invalid range [%v, %v]", name, r.Min, r.Max)
	}
	return nil
}

type AccuracyTiers struct {
	Easy   float64 `yaml:"easy"`
	Medium float64 `yaml:"medium"`
	Hard   float64 `yaml:"hard"`
}

type AIConfig struct {
	Accuracy          AccuracyTiers `yaml:"accuracy"`
	ThinkingTime      Range         `yaml:"thinking_time"`
	AimingTime        Range         `yaml:"aiming_time"`
	ReleasePause      Range         `yaml:"release_pause"`
	PowerTime         Range         `yaml:"power_time"`
	TargetPower       Range         `yaml:"target_power"`
	AimNoiseScale     float64       `yaml:"aim_noise_scale"`
	AimJitterStart    float64       `yaml:"aim_jitter_start"`
	AimJitterEnd      float64       `yaml:"aim_jitter_end"`
	TargetProbeOffset float64       `yaml:"target_probe_offset"`
	WallProbeDistance float64       `yaml:"wall_probe_distance"`
	WallAvoidAngle    float64       `yaml:"wall_avoid_angle"`
	WallAvoidNoise    float64       `yaml:"wall_avoid_noise"`
}

type CueConfig struct {
	Distance         float64 `yaml:"distance"`
	MaxPull          float64 `yaml:"max_pull"`
	StrikeOffset     float64 `yaml:"strike_offset"`
	StrikeSpeed      float64 `yaml:"strike_speed"`
	MaxPower         float64 `yaml:"max_power"`
	MinStrikeImpulse float64 `yaml:"min_strike_impulse"`
	MinMotionSpeed   float64 `yaml:"min_motion_speed"`
	SmoothTime       float64 `yaml:"smooth_time"`
	PreviewDistance  float64 `yaml:"preview_distance"`
	CutAngleSpan     float64 `yaml:"cut_angle_span"`
	DirectionLine    Range   `yaml:"direction_line"`
	TrajectoryLine   Range   `yaml:"trajectory_line"`
}

type PocketConfig struct {
	SpeedRange          Range   `yaml:"speed_range"`
	Bounce              Range   `yaml:"bounce"`
	Attraction          Range   `yaml:"attraction"`
	SettleDuration      Range   `yaml:"settle_duration"`
	Damping             Range   `yaml:"damping"`
	SettledRadius       float64 `yaml:"settled_radius"`
	EightBallDelay      float64 `yaml:"eight_ball_delay"`
	FastScaleDuration   float64 `yaml:"fast_scale_duration"`
	RespawnJumpHeight   float64 `yaml:"respawn_jump_height"`
	RespawnJumpDuration float64 `yaml:"respawn_jump_duration"`
}

type TurnConfig struct {
	MotionThreshold float64 `yaml:"motion_threshold"`
	SettleDelay     float64 `yaml:"settle_delay"`
}

// MatchConfig is fixed at match setup and copied into each match.
type MatchConfig struct {
	Difficulty      Difficulty   `yaml:"difficulty"`
	Mode            Mode         `yaml:"mode"`
	AutoplayPlayer1 bool         `yaml:"autoplay_player1"`
	AI              AIConfig     `yaml:"ai"`
	Cue             CueConfig    `yaml:"cue"`
	Pocket          PocketConfig `yaml:"pocket"`
	Turn            TurnConfig   `yaml:"turn"`
}

func DefaultMatchConfig() MatchConfig {
	return MatchConfig{
		Difficulty: DifficultyMedium,
		Mode:       ModeAI,
		AI: AIConfig{
			Accuracy:          AccuracyTiers{Easy: 0.5, Medium: 0.75, Hard: 0.9},
			ThinkingTime:      Range{Min: 0.8, Max: 1.5},
			AimingTime:        Range{Min: 1, Max: 3},
			ReleasePause:      Range{Min: 0.3, Max: 0.7},
			PowerTime:         Range{Min: 0.5, Max: 2},
			TargetPower:       Range{Min: 0.7, Max: 1},
			AimNoiseScale:     0.2,
			AimJitterStart:    0.1,
			AimJitterEnd:      0.02,
			TargetProbeOffset: 0.1,
			WallProbeDistance: 5,
			WallAvoidAngle:    45,
			WallAvoidNoise:    0.1,
		},
		Cue: CueConfig{
			Distance:         0.7,
			MaxPull:          2,
			StrikeOffset:     0.3,
			StrikeSpeed:      15,
			MaxPower:         12,
			MinStrikeImpulse: 0.5,
			MinMotionSpeed:   0.1,
			SmoothTime:       0.1,
			PreviewDistance:  20,
			CutAngleSpan:     80,
			DirectionLine:    Range{Min: 0.3, Max: 1.5},
			TrajectoryLine:   Range{Min: 0.2, Max: 1},
		},
		Pocket: PocketConfig{
			SpeedRange:          Range{Min: 0, Max: 15},
			Bounce:              Range{Min: 0.1, Max: 2},
			Attraction:          Range{Min: 200, Max: 300},
			SettleDuration:      Range{Min: 0.3, Max: 1.2},
			Damping:             Range{Min: 1, Max: 3},
			SettledRadius:       0.13,
			EightBallDelay:      0.5,
			FastScaleDuration:   0.2,
			RespawnJumpHeight:   0.3,
			RespawnJumpDuration: 0.5,
		},
		Turn: TurnConfig{
			MotionThreshold: 0.05,
			SettleDelay:     0.5,
		},
	}
}

// Accuracy returns the aim accuracy constant for the configured difficulty.
func (m MatchConfig) Accuracy() float64 {
	switch m.Difficulty {
	case DifficultyEasy:
		return m.AI.Accuracy.Easy
	case DifficultyHard:
		return m.AI.Accuracy.Hard
	default:
		return m.AI.Accuracy.Medium
	}
}

func (m MatchConfig) AgainstAI() bool {
	return m.Mode == ModeAI
}

func (m MatchConfig) Validate() error {
	var errs []error
	for _, a := range []float64{m.AI.Accuracy.Easy, m.AI.Accuracy.Medium, m.AI.Accuracy.Hard} {
		if a < 0 || a > 1 {
			errs = append(errs, fmt.Errorf("accuracy %v outside [0,1]", a))
		}
	}
	ranges := map[string]Range{
		"ai.thinking_time":       m.AI.ThinkingTime,
		"ai.aiming_time":         m.AI.AimingTime,
		"ai.release_pause":       m.AI.ReleasePause,
		"ai.power_time":          m.AI.PowerTime,
		"ai.target_power":        m.AI.TargetPower,
		"cue.direction_line":     m.Cue.DirectionLine,
		"cue.trajectory_line":    m.Cue.TrajectoryLine,
		"pocket.speed_range":     m.Pocket.SpeedRange,
		"pocket.bounce":          m.Pocket.Bounce,
		"pocket.attraction":      m.Pocket.Attraction,
		"pocket.settle_duration": m.Pocket.SettleDuration,
		"pocket.damping":         m.Pocket.Damping,
	}
	for name, r := range ranges {
		if err := r.validate(name); err != nil {
			errs = append(errs, err)
		}
	}
	if m.AI.TargetPower.Max > 1 {
		errs = append(errs, errors.New("ai.target_power must stay within [0,1]"))
	}
	if m.Cue.MaxPower <= 0 || m.Cue.StrikeSpeed <= 0 || m.Cue.MaxPull <= 0 {
		errs = append(errs, errors.New("cue max_power, strike_speed and max_pull must be positive"))
	}
	if m.Cue.CutAngleSpan <= 0 {
		errs = append(errs, errors.New("cue.cut_angle_span must be positive"))
	}
	if m.Pocket.SettleDuration.Min <= 0 || m.Pocket.RespawnJumpDuration <= 0 {
		errs = append(errs, errors.New("pocket animation durations must be positive"))
	}
	if m.Turn.MotionThreshold <= 0 || m.Turn.SettleDelay < 0 {
		errs = append(errs, errors.New("turn.motion_threshold must be positive and settle_delay non-negative"))
	}
	return errors.Join(errs...)
}

// LoadTuning overlays a YAML file onto m. Keys missing from the file keep
// their current values.
func LoadTuning(path string, m *MatchConfig) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read tuning file: %w", err)
	}
	if err := yaml.Unmarshal(data, m); err != nil {
		return fmt.Errorf("parse tuning file %s: %w", path, err)
	}
	return nil
}
