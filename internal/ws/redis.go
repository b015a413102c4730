package ws

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/playmatatu/eightball/internal/game"
)

const publishQueue = 1024

// RedisPublisher fans match events out over a redis channel so every server
// instance can relay them to its own spectators.
type RedisPublisher struct {
	rdb     *redis.Client
	channel string
	queue   chan []byte
	log     *logrus.Entry
}

func NewRedisPublisher(rdb *redis.Client, channel string, log *logrus.Logger) *RedisPublisher {
	return &RedisPublisher{
		rdb:     rdb,
		channel: channel,
		queue:   make(chan []byte, publishQueue),
		log:     log.WithFields(logrus.Fields{"component": "redis_publisher", "channel": channel}),
	}
}

// Publish queues ev without blocking. It is safe to use as an event sink.
func (p *RedisPublisher) Publish(ev game.Event) {
	data, err := json.Marshal(EventMessage(ev))
	if err != nil {
		p.log.WithError(err).Error("marshal event")
		return
	}
	select {
	case p.queue <- data:
	default:
		p.log.WithField("event", ev.Type).Warn("publish queue full, dropping event")
	}
}

// Run drains the queue into redis until ctx is cancelled.
func (p *RedisPublisher) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case data := <-p.queue:
			if err := p.rdb.Publish(ctx, p.channel, data).Err(); err != nil {
				p.log.WithError(err).Warn("publish failed")
			}
		}
	}
}

// StartRelay subscribes to channel and forwards every payload to the hub.
func StartRelay(ctx context.Context, rdb *redis.Client, channel string, hub *Hub) {
	if rdb == nil {
		hub.log.Info("redis not configured; event relay not started")
		return
	}

	pubsub := rdb.Subscribe(ctx, channel)
	ch := pubsub.Channel()
	go func() {
		<-ctx.Done()
		pubsub.Close()
	}()
	go func() {
		hub.log.WithField("channel", channel).Info("event relay started")
		for msg := range ch {
			if !json.Valid([]byte(msg.Payload)) {
				hub.log.WithField("channel", channel).Warn("invalid event payload")
				continue
			}
			hub.BroadcastRaw([]byte(msg.Payload))
		}
	}()
}
