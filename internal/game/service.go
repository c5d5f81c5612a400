package game

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"trivia-service/internal/config"
	"trivia-service/internal/domain"
)

// QuizStore abstracts how quiz aggregates are stored (in-memory,
// Postgres, Redis-cached). Save persists the whole aggregate in one
// write so phase transitions commit atomically with scores and
// question state.
type QuizStore interface {
	Create(ctx context.Context, quiz *domain.Quiz) error
	Get(ctx context.Context, quizID string) (*domain.Quiz, error)
	Save(ctx context.Context, quiz *domain.Quiz) error
	Delete(ctx context.Context, quizID string) error
	ActiveIDs(ctx context.Context) ([]string, error)
}

// SnapshotStore stores named point-in-time copies of quiz aggregates.
type SnapshotStore interface {
	Create(ctx context.Context, snapshot *domain.Snapshot) error
	List(ctx context.Context, quizID string) ([]*domain.Snapshot, error)
	Get(ctx context.Context, snapshotID string) (*domain.Snapshot, error)
	Delete(ctx context.Context, snapshotID string) error
}

// Notifier signals "re-fetch and re-render" to everyone watching a
// quiz. Delivery is best-effort: a notify failure never rolls back a
// committed state transition.
type Notifier interface {
	Notify(ctx context.Context, quizID string) error
}

// Options tune the service; zero values fall back to production
// defaults.
type Options struct {
	Clock             clockwork.Clock
	Timers            config.Timers
	AutoSnapshotLimit int
}

// GameService is the authoritative quiz state machine. Every external
// action and expiry tick is serialized per quiz through mutate, so two
// racing actions can never both commit from a stale read.
type GameService struct {
	store    QuizStore
	snaps    SnapshotStore
	notifier Notifier
	timers   timerSet
	autoKeep int

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewGameService(store QuizStore, snaps SnapshotStore, notifier Notifier, opts Options) *GameService {
	clock := opts.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	timers := opts.Timers
	if timers == (config.Timers{}) {
		timers = config.DefaultTimers()
	}
	keep := opts.AutoSnapshotLimit
	if keep <= 0 {
		keep = 10
	}
	return &GameService{
		store:    store,
		snaps:    snaps,
		notifier: notifier,
		timers:   timerSet{clock: clock, cfg: timers},
		autoKeep: keep,
		locks:    make(map[string]*sync.Mutex),
	}
}

// errNoChange marks a mutation callback that decided nothing needs to
// happen: a stale or duplicate expiry check. The call succeeds without
// a save or a notification.
var errNoChange = errors.New("no state change")

// lockQuiz acquires the per-quiz mutex, creating it on first use.
// Distinct quizzes share no mutable state and proceed in parallel.
func (s *GameService) lockQuiz(quizID string) func() {
	s.mu.Lock()
	lock, ok := s.locks[quizID]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[quizID] = lock
	}
	s.mu.Unlock()
	lock.Lock()
	return lock.Unlock
}

// mutate runs a serialized read-modify-write on one quiz aggregate.
// Rejected actions abort before the write; storage failures propagate;
// a successful write always triggers a best-effort notification.
func (s *GameService) mutate(ctx context.Context, quizID string, fn func(q *domain.Quiz) error) error {
	unlock := s.lockQuiz(quizID)
	defer unlock()

	quiz, err := s.store.Get(ctx, quizID)
	if err != nil {
		return err
	}
	quiz.SortTeams()

	if err := fn(quiz); err != nil {
		if errors.Is(err, errNoChange) {
			return nil
		}
		return err
	}

	if err := s.store.Save(ctx, quiz); err != nil {
		return fmt.Errorf("save quiz %s: %w", quizID, err)
	}
	s.notify(ctx, quizID)
	return nil
}

func (s *GameService) notify(ctx context.Context, quizID string) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Notify(ctx, quizID); err != nil {
		log.Warn().Err(err).Str("quiz_id", quizID).Msg("quiz update notification failed")
	}
}

// CreateQuiz creates an empty quiz in setup and returns its id.
func (s *GameService) CreateQuiz(ctx context.Context) (string, error) {
	quiz := domain.NewQuiz(uuid.NewString(), s.timers.now())
	if err := s.store.Create(ctx, quiz); err != nil {
		return "", fmt.Errorf("create quiz: %w", err)
	}
	return quiz.ID, nil
}

// GetQuiz returns the current aggregate with teams in turn order.
func (s *GameService) GetQuiz(ctx context.Context, quizID string) (*domain.Quiz, error) {
	quiz, err := s.store.Get(ctx, quizID)
	if err != nil {
		return nil, err
	}
	quiz.SortTeams()
	return quiz, nil
}

// DeleteQuiz removes the quiz and everything it owns.
func (s *GameService) DeleteQuiz(ctx context.Context, quizID string) error {
	unlock := s.lockQuiz(quizID)
	defer unlock()
	if err := s.store.Delete(ctx, quizID); err != nil {
		return err
	}
	s.notify(ctx, quizID)
	return nil
}

// ActiveQuizIDs lists quizzes with live deadlines for the expiry
// driver to sweep.
func (s *GameService) ActiveQuizIDs(ctx context.Context) ([]string, error) {
	return s.store.ActiveIDs(ctx)
}

// PauseQuiz freezes the quiz: status goes to paused and the active
// deadline is cleared so no expiry check can act on it.
func (s *GameService) PauseQuiz(ctx context.Context, quizID string) error {
	return s.mutate(ctx, quizID, func(q *domain.Quiz) error {
		if q.Status != domain.StatusActive {
			return domain.ErrWrongPhase
		}
		q.Status = domain.StatusPaused
		q.TimerEndsAt = nil
		return nil
	})
}

// ResumeQuiz reactivates a paused quiz with a fresh full-length
// deadline for the current phase. Remaining time from before the
// pause is not preserved.
func (s *GameService) ResumeQuiz(ctx context.Context, quizID string) error {
	return s.mutate(ctx, quizID, func(q *domain.Quiz) error {
		if q.Status != domain.StatusPaused {
			return domain.ErrWrongPhase
		}
		q.Status = domain.StatusActive
		q.TimerEndsAt = nil

		switch {
		case q.Round == domain.RoundDomain && (q.Phase == domain.PhaseAnswering || q.Phase == domain.PhaseAnsweringWithOptions):
			q.TimerEndsAt = s.timers.deadline(s.timers.cfg.ResumeDomainAnswer)
		case q.Round == domain.RoundDomain && q.Phase == domain.PhaseShowingResult:
			q.TimerEndsAt = s.timers.deadline(s.timers.cfg.ResultMidDomain)
		case q.Round == domain.RoundBuzzer && q.Phase == domain.PhaseBuzzing:
			q.TimerEndsAt = s.timers.deadline(s.timers.cfg.BuzzWindow)
		case q.Round == domain.RoundBuzzer && q.Phase == domain.PhaseAnswering:
			s.resumeBuzzerAnswering(q)
		case q.Phase == domain.PhaseShowingAnswer:
			q.TimerEndsAt = s.timers.deadline(s.timers.cfg.ShowAnswer)
		}
		return nil
	})
}

// resumeBuzzerAnswering rebuilds buzzer deadlines after a pause: the
// window restarts at the later-buzzer duration and each buzzed team
// that has not submitted gets a fresh answer timer, the first buzzer
// at its own tier.
func (s *GameService) resumeBuzzerAnswering(q *domain.Quiz) {
	q.TimerEndsAt = s.timers.deadline(s.timers.cfg.ResumeBuzzerLater)
	for i, teamID := range q.BuzzSequence {
		if _, answered := q.PendingBuzzerAnswers[teamID]; answered {
			continue
		}
		d := s.timers.cfg.ResumeBuzzerLater
		if i == 0 {
			d = s.timers.cfg.ResumeBuzzerFirst
		}
		if q.BuzzTimers == nil {
			q.BuzzTimers = make(map[string]time.Time)
		}
		q.BuzzTimers[teamID] = s.timers.now().Add(d)
	}
}

// ResetQuiz wipes all game progress back to setup while preserving
// team and question definitions. It is the hard cancellation of any
// in-progress round.
func (s *GameService) ResetQuiz(ctx context.Context, quizID string) error {
	return s.mutate(ctx, quizID, func(q *domain.Quiz) error {
		for _, team := range q.Teams {
			team.Score = 0
		}
		for _, d := range q.Domains {
			for _, question := range d.Questions {
				question.IsAnswered = false
				question.SelectedBy = ""
				question.AttemptedBy = nil
				question.PassedFrom = ""
				question.CorrectAnswer = ""
				question.OptionsViewed = false
			}
		}
		for _, bq := range q.BuzzerQuestions {
			bq.IsAnswered = false
		}

		q.Status = domain.StatusSetup
		q.Round = domain.RoundNotStarted
		q.Phase = domain.PhaseWaiting
		q.CurrentTeamID = ""
		q.CurrentQuestionID = ""
		q.SelectedDomainID = ""
		q.TimerEndsAt = nil
		q.BuzzSequence = nil
		q.PendingBuzzerAnswers = nil
		q.BuzzTimers = nil
		q.LastRoundResults = nil
		q.LastDomainAnswer = nil
		q.DomainIndex = 0
		q.QuestionSelectorIndex = 0
		q.AnswerTurnIndex = 0
		q.QuestionsInDomain = 0
		q.UsedDomains = nil
		q.TotalDomainRounds = 0
		q.CompletedDomainRounds = 0
		return nil
	})
}

// CheckTimers is the idempotent entry point the expiry driver polls.
// It dispatches to the expiry check for whatever deadline kind the
// quiz currently carries; a check that no longer applies is a silent
// no-op.
func (s *GameService) CheckTimers(ctx context.Context, quizID string) error {
	return s.mutate(ctx, quizID, func(q *domain.Quiz) error {
		if q.Status != domain.StatusActive {
			return errNoChange
		}
		switch {
		case q.Round == domain.RoundDomain && (q.Phase == domain.PhaseAnswering || q.Phase == domain.PhaseAnsweringWithOptions):
			return s.domainAnswerExpiry(q)
		case q.Round == domain.RoundDomain && q.Phase == domain.PhaseShowingResult:
			return s.showingResultExpiry(q)
		case q.Round == domain.RoundBuzzer && (q.Phase == domain.PhaseBuzzing || q.Phase == domain.PhaseAnswering):
			return s.buzzerTimersExpiry(q)
		case q.Round == domain.RoundBuzzer && q.Phase == domain.PhaseShowingAnswer:
			return s.showAnswerExpiry(q)
		}
		return errNoChange
	})
}

// CheckDomainAnswerExpiry times out the current domain answer.
func (s *GameService) CheckDomainAnswerExpiry(ctx context.Context, quizID string) error {
	return s.mutate(ctx, quizID, func(q *domain.Quiz) error {
		if q.Status != domain.StatusActive || q.Round != domain.RoundDomain {
			return errNoChange
		}
		if q.Phase != domain.PhaseAnswering && q.Phase != domain.PhaseAnsweringWithOptions {
			return errNoChange
		}
		return s.domainAnswerExpiry(q)
	})
}

// CheckShowingResultExpiry advances past the result display.
func (s *GameService) CheckShowingResultExpiry(ctx context.Context, quizID string) error {
	return s.mutate(ctx, quizID, func(q *domain.Quiz) error {
		if q.Status != domain.StatusActive || q.Phase != domain.PhaseShowingResult {
			return errNoChange
		}
		return s.showingResultExpiry(q)
	})
}

// CheckBuzzerTimers resolves the buzzer question once the two-level
// gate opens, or dismisses it when the window closes with no buzz.
func (s *GameService) CheckBuzzerTimers(ctx context.Context, quizID string) error {
	return s.mutate(ctx, quizID, func(q *domain.Quiz) error {
		if q.Status != domain.StatusActive || q.Round != domain.RoundBuzzer {
			return errNoChange
		}
		if q.Phase != domain.PhaseBuzzing && q.Phase != domain.PhaseAnswering {
			return errNoChange
		}
		return s.buzzerTimersExpiry(q)
	})
}

// CheckShowAnswerExpiry moves from the answer display to the next
// buzzer question.
func (s *GameService) CheckShowAnswerExpiry(ctx context.Context, quizID string) error {
	return s.mutate(ctx, quizID, func(q *domain.Quiz) error {
		if q.Status != domain.StatusActive || q.Phase != domain.PhaseShowingAnswer {
			return errNoChange
		}
		return s.showAnswerExpiry(q)
	})
}
