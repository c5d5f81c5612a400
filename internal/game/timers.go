package game

import (
	"time"

	"github.com/jonboulle/clockwork"

	"trivia-service/internal/config"
	"trivia-service/internal/domain"
)

// timerSet owns all deadline arithmetic for a quiz. Deadlines are
// wall-clock instants computed from an injected clock so tests can use
// clockwork.NewFakeClock.
type timerSet struct {
	clock clockwork.Clock
	cfg   config.Timers
}

func (t timerSet) now() time.Time {
	return t.clock.Now()
}

// deadline returns now + d as a settable quiz deadline.
func (t timerSet) deadline(d time.Duration) *time.Time {
	at := t.clock.Now().Add(d)
	return &at
}

// expired reports whether a deadline has passed. A nil deadline never
// expires; pausing clears deadlines for exactly this reason.
func (t timerSet) expired(deadline *time.Time) bool {
	return deadline != nil && !t.clock.Now().Before(*deadline)
}

// buzzResolutionReady implements the two-level buzzer gate: the buzz
// window must have fully expired AND every buzzed team must either
// have a queued answer or an individually expired answer timer. This
// keeps a fast wrong answer from being scored before a slower but
// correct one, without waiting forever on a team that never submits.
func (t timerSet) buzzResolutionReady(q *domain.Quiz) bool {
	if !t.expired(q.TimerEndsAt) {
		return false
	}
	now := t.clock.Now()
	for _, teamID := range q.BuzzSequence {
		if _, answered := q.PendingBuzzerAnswers[teamID]; answered {
			continue
		}
		deadline, ok := q.BuzzTimers[teamID]
		if !ok || now.Before(deadline) {
			return false
		}
	}
	return true
}

// buzzTimerExpired reports whether a single team's answer timer has
// passed. Teams without a recorded timer are treated as unexpired.
func (t timerSet) buzzTimerExpired(q *domain.Quiz, teamID string) bool {
	deadline, ok := q.BuzzTimers[teamID]
	return ok && !t.clock.Now().Before(deadline)
}
