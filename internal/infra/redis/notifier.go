package redis

import (
	"context"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"trivia-service/internal/infra/broadcast"
)

const updatesChannel = "quiz:updates"

// Notifier fans quiz updates out across instances. A local change is
// delivered to the in-process hub and published on a Redis channel;
// Run forwards messages published by other instances into the hub.
type Notifier struct {
	client *redis.Client
	hub    *broadcast.Hub
	log    zerolog.Logger
}

func NewNotifier(client *redis.Client, hub *broadcast.Hub, log zerolog.Logger) *Notifier {
	return &Notifier{client: client, hub: hub, log: log}
}

func (n *Notifier) Notify(ctx context.Context, quizID string) error {
	if err := n.hub.Notify(ctx, quizID); err != nil {
		n.log.Warn().Err(err).Str("quizId", quizID).Msg("local notify failed")
	}
	return n.client.Publish(ctx, updatesChannel, quizID).Err()
}

// Run subscribes to the updates channel and forwards remote
// notifications into the local hub until ctx is cancelled.
func (n *Notifier) Run(ctx context.Context) error {
	sub := n.client.Subscribe(ctx, updatesChannel)
	defer sub.Close()

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			if err := n.hub.Notify(ctx, msg.Payload); err != nil {
				n.log.Warn().Err(err).Str("quizId", msg.Payload).Msg("forward notify failed")
			}
		}
	}
}
