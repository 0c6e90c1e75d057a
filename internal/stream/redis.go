package stream

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// RedisBroker carries events over Redis pub/sub so every replica sees every
// event. Drop-in for MemoryBroker when REDIS_URL is configured.
type RedisBroker struct {
	rdb    *redis.Client
	logger zerolog.Logger

	mu   sync.Mutex
	subs map[chan Event]*redis.PubSub
}

func NewRedisBroker(redisURL string, logger zerolog.Logger) (*RedisBroker, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}
	return &RedisBroker{
		rdb:    redis.NewClient(opt),
		logger: logger,
		subs:   map[chan Event]*redis.PubSub{},
	}, nil
}

func (b *RedisBroker) Subscribe(topic string) chan Event {
	ch := make(chan Event, 16)
	ctx := context.Background()
	ps := b.rdb.Subscribe(ctx, channelName(topic))
	// First receive confirms the subscription before any publish can race it.
	_, _ = ps.Receive(ctx)

	b.mu.Lock()
	b.subs[ch] = ps
	b.mu.Unlock()

	go func() {
		defer close(ch)
		for msg := range ps.Channel() {
			var evt Event
			if err := json.Unmarshal([]byte(msg.Payload), &evt); err != nil {
				b.logger.Warn().Err(err).Str("topic", topic).Msg("dropping malformed stream event")
				continue
			}
			select {
			case ch <- evt:
			default:
			}
		}
	}()
	return ch
}

// Unsubscribe closes the underlying pub/sub; the reader goroutine drains and
// closes the channel on its way out.
func (b *RedisBroker) Unsubscribe(topic string, ch chan Event) {
	b.mu.Lock()
	ps := b.subs[ch]
	delete(b.subs, ch)
	b.mu.Unlock()
	if ps != nil {
		_ = ps.Close()
	}
}

func (b *RedisBroker) Publish(topic string, evt Event) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	data, err := json.Marshal(evt)
	if err != nil {
		b.logger.Error().Err(err).Str("type", evt.Type).Msg("marshal stream event")
		return
	}
	if err := b.rdb.Publish(ctx, channelName(topic), data).Err(); err != nil {
		b.logger.Warn().Err(err).Str("topic", topic).Msg("publish stream event")
	}
}

func (b *RedisBroker) Close() error {
	return b.rdb.Close()
}

func channelName(topic string) string {
	return "forge:" + topic
}
