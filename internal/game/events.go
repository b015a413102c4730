package game

type EventType string

const (
	EventTurnChanged    EventType = "turn_changed"
	EventBallsStopped   EventType = "balls_stopped"
	EventScoreUpdated   EventType = "score_updated"
	EventMatchEnded     EventType = "match_ended"
	EventFoul           EventType = "foul"
	EventBallPocketed   EventType = "ball_pocketed"
	EventBallRemoved    EventType = "ball_removed"
	EventGroupsAssigned EventType = "groups_assigned"
	EventShotStruck     EventType = "shot_struck"
)

// Event is the single notification shape emitted by a match. Fields not
// relevant to Type are left zero.
type Event struct {
	Type    EventType    `json:"type"`
	MatchID string       `json:"match_id"`
	Player  Player       `json:"player,omitempty"`
	BallID  int          `json:"ball_id"`
	Group   BallGroup    `json:"group,omitempty"`
	Foul    FoulType     `json:"foul,omitempty"`
	Winner  Player       `json:"winner,omitempty"`
	WinType WinType      `json:"win_type,omitempty"`
	Impulse float64      `json:"impulse,omitempty"`
	Shots   int          `json:"shots,omitempty"`
	Shot    *ShotSummary `json:"shot,omitempty"`
}

// Player1Turn reports the active seat carried by a turn_changed event.
func (e Event) Player1Turn() bool {
	return e.Player == Player1
}

type Handler func(Event)

// EventBus fans match events out to subscribers in subscription order. It is
// driven from the match tick and is not safe for concurrent use.
type EventBus struct {
	matchID  string
	next     int
	handlers []subscription
}

type subscription struct {
	id int
	fn Handler
}

func NewEventBus(matchID string) *EventBus {
	return &EventBus{matchID: matchID}
}

// Subscribe registers fn and returns a function that removes it.
func (b *EventBus) Subscribe(fn Handler) func() {
	b.next++
	id := b.next
	b.handlers = append(b.handlers, subscription{id: id, fn: fn})
	return func() {
		for i, s := range b.handlers {
			if s.id == id {
				b.handlers = append(b.handlers[:i:i], b.handlers[i+1:]...)
				return
			}
		}
	}
}

func (b *EventBus) Publish(ev Event) {
	ev.MatchID = b.matchID
	subs := append([]subscription(nil), b.handlers...)
	for _, s := range subs {
		s.fn(ev)
	}
}

func (b *EventBus) OnTurnChanged(fn func(player1Turn bool)) func() {
	return b.Subscribe(func(ev Event) {
		if ev.Type == EventTurnChanged {
			fn(ev.Player1Turn())
		}
	})
}

func (b *EventBus) OnBallsStopped(fn func()) func() {
	return b.Subscribe(func(ev Event) {
		if ev.Type == EventBallsStopped {
			fn()
		}
	})
}

func (b *EventBus) OnScoreUpdated(fn func(p Player, ballID int)) func() {
	return b.Subscribe(func(ev Event) {
		if ev.Type == EventScoreUpdated {
			fn(ev.Player, ev.BallID)
		}
	})
}

func (b *EventBus) OnMatchEnded(fn func(winner Player, wt WinType)) func() {
	return b.Subscribe(func(ev Event) {
		if ev.Type == EventMatchEnded {
			fn(ev.Winner, ev.WinType)
		}
	})
}
