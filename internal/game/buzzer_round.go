package game

import (
	"context"
	"time"

	"trivia-service/internal/domain"
)

// Buzzer round controller: buzzing -> answering -> showing_answer ->
// buzzing | completed. At most one team wins each question; resolution
// walks the buzz sequence in arrival order.

// StartBuzzerRound transitions the quiz into the buzzer round on the
// first unanswered buzzer question and opens the buzz window.
func (s *GameService) StartBuzzerRound(ctx context.Context, quizID string) error {
	return s.mutate(ctx, quizID, func(q *domain.Quiz) error {
		next, ok := q.NextUnansweredBuzzerQuestion()
		if !ok {
			return domain.ErrQuestionNotFound
		}
		q.Status = domain.StatusActive
		q.Round = domain.RoundBuzzer
		q.Phase = domain.PhaseBuzzing
		q.CurrentQuestionID = next.ID
		q.CurrentTeamID = ""
		q.SelectedDomainID = ""
		q.BuzzSequence = nil
		q.PendingBuzzerAnswers = nil
		q.BuzzTimers = nil
		q.LastRoundResults = nil
		q.TimerEndsAt = s.timers.deadline(s.timers.cfg.BuzzWindow)
		return nil
	})
}

// Buzz appends the team to the buzz sequence and starts its personal
// answer timer. The first buzz opens answer submission but does not
// shorten the window; a buzz after the window truly closed is
// deterministically rejected.
func (s *GameService) Buzz(ctx context.Context, quizID, teamID string) error {
	return s.mutate(ctx, quizID, func(q *domain.Quiz) error {
		if q.Status != domain.StatusActive || q.Round != domain.RoundBuzzer {
			return domain.ErrWrongPhase
		}
		if q.Phase != domain.PhaseBuzzing && q.Phase != domain.PhaseAnswering {
			return domain.ErrWrongPhase
		}
		if s.timers.expired(q.TimerEndsAt) {
			return domain.ErrWrongPhase
		}
		if _, ok := q.Team(teamID); !ok {
			return domain.ErrTeamNotFound
		}
		if q.HasBuzzed(teamID) {
			return domain.ErrAlreadyBuzzed
		}

		q.BuzzSequence = append(q.BuzzSequence, teamID)
		if q.BuzzTimers == nil {
			q.BuzzTimers = make(map[string]time.Time)
		}
		q.BuzzTimers[teamID] = s.timers.now().Add(s.timers.cfg.BuzzerAnswer)
		q.Phase = domain.PhaseAnswering
		return nil
	})
}

// SubmitBuzzerAnswer queues exactly one answer for a buzzed team. The
// answer is scored now but applied only at resolution, so a fast wrong
// answer cannot beat a slower correct one out of turn.
func (s *GameService) SubmitBuzzerAnswer(ctx context.Context, quizID, teamID, questionID, answer string) error {
	return s.mutate(ctx, quizID, func(q *domain.Quiz) error {
		if q.Status != domain.StatusActive || q.Round != domain.RoundBuzzer || q.Phase != domain.PhaseAnswering {
			return domain.ErrWrongPhase
		}
		question, ok := q.BuzzerQuestion(questionID)
		if !ok {
			return domain.ErrQuestionNotFound
		}
		if questionID != q.CurrentQuestionID {
			return domain.ErrWrongPhase
		}
		if !q.HasBuzzed(teamID) {
			return domain.ErrNotYourTurn
		}
		if _, dup := q.PendingBuzzerAnswers[teamID]; dup {
			return domain.ErrAlreadySubmitted
		}
		if s.timers.buzzTimerExpired(q, teamID) {
			return domain.ErrWrongPhase
		}

		firstBuzzer := q.BuzzSequence[0] == teamID
		correct := matchAnswer(answer, question.Answer)
		if q.PendingBuzzerAnswers == nil {
			q.PendingBuzzerAnswers = make(map[string]domain.BuzzerAnswer)
		}
		q.PendingBuzzerAnswers[teamID] = domain.BuzzerAnswer{
			Answer:  answer,
			Correct: correct,
			Points:  buzzerPoints(correct, firstBuzzer),
		}
		return nil
	})
}

// buzzerTimersExpiry drives both buzzer deadline kinds: an empty
// window dismisses the question outright; otherwise resolution waits
// for the two-level gate.
func (s *GameService) buzzerTimersExpiry(q *domain.Quiz) error {
	if !s.timers.expired(q.TimerEndsAt) {
		return errNoChange
	}
	if len(q.BuzzSequence) == 0 {
		// Nobody buzzed: dismiss with no scoring.
		question, ok := q.BuzzerQuestion(q.CurrentQuestionID)
		if !ok {
			return errNoChange
		}
		question.IsAnswered = true
		q.LastRoundResults = nil
		s.enterShowAnswer(q)
		return nil
	}
	if !s.timers.buzzResolutionReady(q) {
		return errNoChange
	}
	return s.resolveBuzzerAnswers(q)
}

// resolveBuzzerAnswers walks the buzz sequence in arrival order,
// applying queued answers and timeout penalties. The first correct
// answer stops the walk; teams after it neither gain nor lose.
func (s *GameService) resolveBuzzerAnswers(q *domain.Quiz) error {
	question, ok := q.BuzzerQuestion(q.CurrentQuestionID)
	if !ok {
		return errNoChange
	}

	results := make(map[string]domain.BuzzerResult, len(q.BuzzSequence))
	for i, teamID := range q.BuzzSequence {
		team, ok := q.Team(teamID)
		if !ok {
			continue
		}
		firstBuzzer := i == 0

		if answer, submitted := q.PendingBuzzerAnswers[teamID]; submitted {
			results[teamID] = domain.BuzzerResult{
				Answer:  answer.Answer,
				Correct: answer.Correct,
				Points:  answer.Points,
			}
			team.Score += answer.Points
			if answer.Correct {
				break
			}
			continue
		}

		points := buzzerTimeoutPoints(firstBuzzer)
		results[teamID] = domain.BuzzerResult{Points: points, Timeout: true}
		team.Score += points
	}

	question.IsAnswered = true
	q.LastRoundResults = results
	s.enterShowAnswer(q)
	return nil
}

// enterShowAnswer clears the per-question buzzer state and shows the
// resolved answer, or completes the round when no questions remain.
// CurrentQuestionID stays on the resolved question so clients can
// display it.
func (s *GameService) enterShowAnswer(q *domain.Quiz) {
	q.BuzzSequence = nil
	q.PendingBuzzerAnswers = nil
	q.BuzzTimers = nil
	q.CurrentTeamID = ""

	if _, ok := q.NextUnansweredBuzzerQuestion(); ok {
		q.Phase = domain.PhaseShowingAnswer
		q.TimerEndsAt = s.timers.deadline(s.timers.cfg.ShowAnswer)
		return
	}
	q.Phase = domain.PhaseCompleted
	q.TimerEndsAt = nil
}

// showAnswerExpiry opens the buzz window on the next unanswered
// question.
func (s *GameService) showAnswerExpiry(q *domain.Quiz) error {
	if !s.timers.expired(q.TimerEndsAt) {
		return errNoChange
	}
	next, ok := q.NextUnansweredBuzzerQuestion()
	if !ok {
		q.Phase = domain.PhaseCompleted
		q.CurrentQuestionID = ""
		q.TimerEndsAt = nil
		return nil
	}
	q.Phase = domain.PhaseBuzzing
	q.CurrentQuestionID = next.ID
	q.BuzzSequence = nil
	q.PendingBuzzerAnswers = nil
	q.BuzzTimers = nil
	q.LastRoundResults = nil
	q.CurrentTeamID = ""
	q.TimerEndsAt = s.timers.deadline(s.timers.cfg.BuzzWindow)
	return nil
}
