package redis

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"trivia-service/internal/infra/broadcast"
)

func TestNotifierWakesLocalSubscribers(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	hub := broadcast.NewHub()
	notifier := NewNotifier(client, hub, zerolog.Nop())

	updates, cancel := hub.Subscribe("quiz-1")
	defer cancel()

	if err := notifier.Notify(context.Background(), "quiz-1"); err != nil {
		t.Fatalf("notify: %v", err)
	}

	select {
	case <-updates:
	case <-time.After(time.Second):
		t.Fatalf("expected local subscriber to be woken")
	}
}

func TestNotifierForwardsRemoteMessages(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	hub := broadcast.NewHub()
	notifier := NewNotifier(client, hub, zerolog.Nop())

	ctx, stop := context.WithCancel(context.Background())
	defer stop()
	done := make(chan struct{})
	go func() {
		_ = notifier.Run(ctx)
		close(done)
	}()

	updates, cancel := hub.Subscribe("quiz-1")
	defer cancel()

	// Publishing directly stands in for another instance.
	deadline := time.After(2 * time.Second)
	for {
		if err := client.Publish(ctx, updatesChannel, "quiz-1").Err(); err != nil {
			t.Fatalf("publish: %v", err)
		}
		select {
		case <-updates:
			stop()
			<-done
			return
		case <-time.After(50 * time.Millisecond):
		}
		select {
		case <-deadline:
			t.Fatalf("expected remote message to wake subscriber")
		default:
		}
	}
}
