package arena

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/playmatatu/eightball/internal/config"
	"github.com/playmatatu/eightball/internal/game"
	"github.com/playmatatu/eightball/internal/physics"
)

var ErrUnknownInput = errors.New("unknown input type")

// Input is a presentation-side control message for the human seat.
type Input struct {
	Type  string  `json:"type"` // pointer_down, pointer_move, pointer_up, power_drag, power_release
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Power float64 `json:"power"`
}

// Runner owns one physics world and the match played on it, and advances
// both on a fixed step. All match access goes through the runner's lock.
type Runner struct {
	cfg *config.Config
	log *logrus.Entry
	rng *rand.Rand

	mu           sync.Mutex
	world        *physics.World
	match        *game.Match
	sinks        []game.Handler
	restartTimer float64
	played       int
	collisions   int
}

type Option func(*Runner)

// WithSeed makes every match played by the runner reproducible.
func WithSeed(seed uint64) Option {
	return func(r *Runner) { r.rng = rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)) }
}

func NewRunner(cfg *config.Config, log *logrus.Logger, opts ...Option) (*Runner, error) {
	r := &Runner{
		cfg: cfg,
		log: log.WithField("component", "arena"),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.rng == nil {
		r.rng = rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), rand.Uint64()))
	}
	if err := r.newMatch(); err != nil {
		return nil, err
	}
	return r, nil
}

// newMatch racks a fresh table and starts a match on it. Caller holds mu or
// has exclusive access.
func (r *Runner) newMatch() error {
	if r.match != nil {
		r.match.Stop()
	}
	table := physics.NewStandardTable()
	world := physics.NewWorld(table)
	seed := r.rng.Uint64()
	m, err := game.NewMatch(r.cfg.Match, world, table.Layout(),
		game.WithLogger(r.log.Logger.WithField("component", "match")),
		game.WithRand(rand.New(rand.NewPCG(seed, seed+1))))
	if err != nil {
		return fmt.Errorf("create match: %w", err)
	}
	world.OnContact = m.HandleContact
	world.OnPocketEnter = m.HandlePocketEnter

	m.Bus().Subscribe(r.dispatch)
	m.Bus().OnMatchEnded(func(winner game.Player, wt game.WinType) {
		r.played++
		r.log.WithFields(logrus.Fields{
			"match":    m.ID.String(),
			"winner":   winner,
			"win_type": wt,
			"shots":    m.Turn().ShotsTaken(),
		}).Info("match finished")
	})

	r.world = world
	r.match = m
	r.collisions = 0
	r.restartTimer = 0
	m.Start()
	return nil
}

func (r *Runner) dispatch(ev game.Event) {
	for _, sink := range r.sinks {
		sink(ev)
	}
}

// Subscribe adds a sink that receives every event of every match the runner
// plays. Sinks run on the runner goroutine and must not block.
func (r *Runner) Subscribe(fn game.Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sinks = append(r.sinks, fn)
}

// Run steps the table at the configured tick rate until ctx is cancelled.
func (r *Runner) Run(ctx context.Context) error {
	interval := time.Second / time.Duration(r.cfg.TickRate)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	r.log.WithField("tick_rate", r.cfg.TickRate).Info("arena started")
	for {
		select {
		case <-ctx.Done():
			r.mu.Lock()
			r.match.Stop()
			r.mu.Unlock()
			r.log.Info("arena stopped")
			return ctx.Err()
		case <-ticker.C:
			if err := r.Step(r.cfg.TickSeconds()); err != nil {
				r.log.WithError(err).Error("arena step failed")
			}
		}
	}
}

// Step advances physics then the match by dt, restarting a finished autoplay
// match once the restart delay has passed.
func (r *Runner) Step(dt float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.world.Step(dt)
	r.collisions += len(r.world.DrainEvents())
	r.match.Tick(dt)

	if !r.match.Ended() || !r.cfg.Autoplay {
		return nil
	}
	r.restartTimer += dt
	if r.restartTimer < float64(r.cfg.RestartDelaySeconds) {
		return nil
	}
	return r.newMatch()
}

// Restart abandons the current match and racks a new one.
func (r *Runner) Restart() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.log.WithField("match", r.match.ID.String()).Info("match restart requested")
	return r.newMatch()
}

func (r *Runner) Snapshot() game.MatchSnapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.match.Snapshot()
}

// Stats summarises runner activity.
type Stats struct {
	MatchID       string `json:"match_id"`
	MatchesPlayed int    `json:"matches_played"`
	Collisions    int    `json:"collisions"`
}

func (r *Runner) Stats() Stats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return Stats{MatchID: r.match.ID.String(), MatchesPlayed: r.played, Collisions: r.collisions}
}

// HandleInput applies a human control message to the current match.
func (r *Runner) HandleInput(in Input) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p := game.Vec2{in.X, in.Y}
	switch in.Type {
	case "pointer_down":
		r.match.PointerDown(p)
	case "pointer_move":
		r.match.PointerMove(p)
	case "pointer_up":
		r.match.PointerUp()
	case "power_drag":
		r.match.PowerDrag(in.Power)
	case "power_release":
		r.match.PowerRelease()
	default:
		return fmt.Errorf("%w: %q", ErrUnknownInput, in.Type)
	}
	return nil
}

// Ended reports whether the current match has finished.
func (r *Runner) Ended() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.match.Ended()
}
