package realtime

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

// RedisFanout publishes envelopes on a Redis channel so that every server
// instance delivers them to the sockets it holds.
type RedisFanout struct {
	client  *redis.Client
	channel string
	log     *slog.Logger
}

func NewRedisFanout(client *redis.Client, channel string, log *slog.Logger) *RedisFanout {
	return &RedisFanout{client: client, channel: channel, log: log}
}

func (f *RedisFanout) Publish(ctx context.Context, env Envelope) error {
	data, err := json.Marshal(env)
	if err != nil {
		return err
	}
	return f.client.Publish(ctx, f.channel, data).Err()
}

// Subscribe forwards every envelope published on the channel to deliver until
// ctx is cancelled.
func (f *RedisFanout) Subscribe(ctx context.Context, deliver func(Envelope)) {
	pubsub := f.client.Subscribe(ctx, f.channel)
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var env Envelope
			if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
				f.log.Warn("Discarding malformed envelope", "error", err)
				continue
			}
			deliver(env)
		}
	}
}
