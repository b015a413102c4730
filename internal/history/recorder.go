package history

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/sirupsen/logrus"

	"github.com/playmatatu/eightball/internal/game"
)

const queueSize = 512

// MatchResult is one finished match.
type MatchResult struct {
	MatchID string    `db:"match_id" json:"match_id"`
	Winner  int       `db:"winner" json:"winner"`
	WinType string    `db:"win_type" json:"win_type"`
	Shots   int       `db:"shots" json:"shots"`
	EndedAt time.Time `db:"ended_at" json:"ended_at"`
}

// ShotOutcome is the resolved result of one shot.
type ShotOutcome struct {
	MatchID        string         `db:"match_id"`
	ShotNumber     int            `db:"shot_number"`
	Shooter        int            `db:"shooter"`
	Classification string         `db:"classification"`
	Pocketed       pq.Int64Array  `db:"pocketed"`
	Fouls          pq.StringArray `db:"fouls"`
	Switched       bool           `db:"switched"`
}

const insertMatchResult = `
INSERT INTO match_results (match_id, winner, win_type, shots, ended_at)
VALUES (:match_id, :winner, :win_type, :shots, :ended_at)
ON CONFLICT (match_id) DO NOTHING`

const insertShotOutcome = `
INSERT INTO shot_outcomes (match_id, shot_number, shooter, classification, pocketed, fouls, switched)
VALUES (:match_id, :shot_number, :shooter, :classification, :pocketed, :fouls, :switched)
ON CONFLICT (match_id, shot_number) DO NOTHING`

// Recorder persists match and shot outcomes off the simulation goroutine.
type Recorder struct {
	db    *sqlx.DB
	queue chan game.Event
	log   *logrus.Entry
	now   func() time.Time
}

func NewRecorder(db *sqlx.DB, log *logrus.Logger) *Recorder {
	return &Recorder{
		db:    db,
		queue: make(chan game.Event, queueSize),
		log:   log.WithField("component", "history"),
		now:   time.Now,
	}
}

// Handle is an event sink. Only shot resolutions and match ends are kept;
// when the queue is full the event is dropped.
func (r *Recorder) Handle(ev game.Event) {
	if ev.Type != game.EventMatchEnded && !(ev.Type == game.EventBallsStopped && ev.Shot != nil) {
		return
	}
	select {
	case r.queue <- ev:
	default:
		r.log.WithFields(logrus.Fields{"match": ev.MatchID, "event": ev.Type}).Warn("history queue full, dropping event")
	}
}

// Attach subscribes the recorder to a single match bus.
func (r *Recorder) Attach(bus *game.EventBus) func() {
	return bus.Subscribe(r.Handle)
}

// Run writes queued events until ctx is cancelled.
func (r *Recorder) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-r.queue:
			if err := r.write(ctx, ev); err != nil {
				r.log.WithError(err).WithField("match", ev.MatchID).Error("record outcome")
			}
		}
	}
}

func (r *Recorder) write(ctx context.Context, ev game.Event) error {
	switch ev.Type {
	case game.EventMatchEnded:
		if _, err := r.db.NamedExecContext(ctx, insertMatchResult, r.matchResult(ev)); err != nil {
			return fmt.Errorf("insert match result: %w", err)
		}
		// the deciding shot is summarized on the match end, not a balls_stopped
		if ev.Shot != nil {
			if _, err := r.db.NamedExecContext(ctx, insertShotOutcome, shotOutcome(ev)); err != nil {
				return fmt.Errorf("insert final shot outcome: %w", err)
			}
		}
	case game.EventBallsStopped:
		if _, err := r.db.NamedExecContext(ctx, insertShotOutcome, shotOutcome(ev)); err != nil {
			return fmt.Errorf("insert shot outcome: %w", err)
		}
	}
	return nil
}

func (r *Recorder) matchResult(ev game.Event) MatchResult {
	return MatchResult{
		MatchID: ev.MatchID,
		Winner:  int(ev.Winner),
		WinType: string(ev.WinType),
		Shots:   ev.Shots,
		EndedAt: r.now().UTC(),
	}
}

func shotOutcome(ev game.Event) ShotOutcome {
	s := ev.Shot
	out := ShotOutcome{
		MatchID:        ev.MatchID,
		ShotNumber:     s.Number,
		Shooter:        int(s.Shooter),
		Classification: string(s.Class),
		Pocketed:       pq.Int64Array{},
		Fouls:          pq.StringArray{},
		Switched:       s.Switched,
	}
	for _, id := range s.Pocketed {
		out.Pocketed = append(out.Pocketed, int64(id))
	}
	for _, f := range s.Fouls {
		out.Fouls = append(out.Fouls, string(f))
	}
	return out
}

// Recent returns the latest finished matches, newest first.
func (r *Recorder) Recent(ctx context.Context, limit int) ([]MatchResult, error) {
	var rows []MatchResult
	err := r.db.SelectContext(ctx, &rows,
		`SELECT match_id, winner, win_type, shots, ended_at FROM match_results ORDER BY ended_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("select match results: %w", err)
	}
	return rows, nil
}
