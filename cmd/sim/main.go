package main

import (
	"flag"
	"os"
	"sort"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/playmatatu/eightball/internal/arena"
	"github.com/playmatatu/eightball/internal/config"
	"github.com/playmatatu/eightball/internal/game"
)

type result struct {
	winner  game.Player
	winType game.WinType
	shots   int
	fouls   int
}

func main() {
	matches := flag.Int("matches", 10, "number of matches to play")
	seed := flag.Uint64("seed", uint64(time.Now().UnixNano()), "base random seed")
	difficulty := flag.String("difficulty", "medium", "AI difficulty: easy, medium, hard")
	maxSeconds := flag.Float64("max-seconds", 1800, "simulated time limit per match")
	tuning := flag.String("tuning", "", "optional YAML tuning file")
	verbose := flag.Bool("v", false, "log gameplay at debug level")
	flag.Parse()

	log := logrus.New()
	log.SetOutput(os.Stdout)
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	// gameplay logs stay quiet unless -v
	gameLog := logrus.New()
	gameLog.SetOutput(os.Stderr)
	gameLog.SetLevel(logrus.WarnLevel)
	if *verbose {
		gameLog.SetLevel(logrus.DebugLevel)
	}

	match := config.DefaultMatchConfig()
	if *tuning != "" {
		if err := config.LoadTuning(*tuning, &match); err != nil {
			log.Fatalf("Failed to load tuning: %v", err)
		}
	}
	d, err := config.ParseDifficulty(*difficulty)
	if err != nil {
		log.Fatalf("Invalid difficulty: %v", err)
	}
	match.Difficulty = d
	match.Mode = config.ModeAI
	match.AutoplayPlayer1 = true

	cfg := &config.Config{TickRate: 60, Match: match}
	dt := cfg.TickSeconds()
	out := log.WithField("component", "sim")

	wins := map[game.WinType]int{}
	seats := map[game.Player]int{}
	var unfinished, totalShots int
	started := time.Now()

	for i := 0; i < *matches; i++ {
		runner, err := arena.NewRunner(cfg, gameLog, arena.WithSeed(*seed+uint64(i)))
		if err != nil {
			log.Fatalf("Failed to create match: %v", err)
		}

		var res result
		runner.Subscribe(func(ev game.Event) {
			switch ev.Type {
			case game.EventFoul:
				res.fouls++
			case game.EventMatchEnded:
				res.winner, res.winType, res.shots = ev.Winner, ev.WinType, ev.Shots
			}
		})

		for elapsed := 0.0; elapsed < *maxSeconds && !runner.Ended(); elapsed += dt {
			if err := runner.Step(dt); err != nil {
				log.Fatalf("Step failed: %v", err)
			}
		}

		if !runner.Ended() {
			unfinished++
			out.WithFields(logrus.Fields{"match": i + 1, "shots": runner.Snapshot().ShotsTaken}).Warn("match hit time limit")
			continue
		}
		wins[res.winType]++
		seats[res.winner]++
		totalShots += res.shots
		out.WithFields(logrus.Fields{
			"match":    i + 1,
			"winner":   res.winner,
			"win_type": res.winType,
			"shots":    res.shots,
			"fouls":    res.fouls,
		}).Info("match finished")
	}

	finished := *matches - unfinished
	summary := logrus.Fields{
		"matches":    *matches,
		"finished":   finished,
		"unfinished": unfinished,
		"player1":    seats[game.Player1],
		"player2":    seats[game.Player2],
		"wall_time":  time.Since(started).Round(time.Millisecond).String(),
	}
	if finished > 0 {
		summary["avg_shots"] = float64(totalShots) / float64(finished)
	}
	types := make([]string, 0, len(wins))
	for wt := range wins {
		types = append(types, string(wt))
	}
	sort.Strings(types)
	for _, wt := range types {
		summary["win_"+wt] = wins[game.WinType(wt)]
	}
	out.WithFields(summary).Info("simulation complete")
}
