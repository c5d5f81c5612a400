package game

import (
	"context"

	"trivia-service/internal/domain"
)

// Domain round controller: selecting_domain -> selecting_question ->
// answering (passing loops back into answering) -> showing_result ->
// selecting_question | selecting_domain | domain_round_ended.

// StartDomainRound transitions the quiz into the domain round. The
// total number of selection turns is fixed up front as
// floor(domainCount/teamCount)*teamCount so every team gets the same
// number of domain picks.
func (s *GameService) StartDomainRound(ctx context.Context, quizID string) error {
	return s.mutate(ctx, quizID, func(q *domain.Quiz) error {
		teamCount := len(q.Teams)
		if teamCount == 0 {
			return domain.ErrTeamNotFound
		}
		q.Status = domain.StatusActive
		q.Round = domain.RoundDomain
		q.Phase = domain.PhaseSelectingDomain
		q.CurrentTeamID = q.Teams[0].ID
		q.CurrentQuestionID = ""
		q.SelectedDomainID = ""
		q.TimerEndsAt = nil
		q.QuestionsInDomain = 0
		q.TotalDomainRounds = len(q.Domains) / teamCount * teamCount
		q.CompletedDomainRounds = 0
		q.DomainIndex = 0
		q.QuestionSelectorIndex = 0
		q.AnswerTurnIndex = 0
		return nil
	})
}

// SelectDomain lets the selector team pick an unused domain, which
// seeds both selection counters for the pass through that domain.
func (s *GameService) SelectDomain(ctx context.Context, quizID, teamID, domainID string) error {
	return s.mutate(ctx, quizID, func(q *domain.Quiz) error {
		if q.Status != domain.StatusActive || q.Round != domain.RoundDomain || q.Phase != domain.PhaseSelectingDomain {
			return domain.ErrWrongPhase
		}
		if _, ok := q.Domain(domainID); !ok {
			return domain.ErrDomainNotFound
		}
		if q.DomainUsed(domainID) {
			return domain.ErrDomainUsed
		}
		if selector := q.Teams[q.DomainIndex]; teamID != selector.ID {
			return domain.ErrNotYourTurn
		}

		q.SelectedDomainID = domainID
		q.Phase = domain.PhaseSelectingQuestion
		q.QuestionsInDomain = 0
		q.UsedDomains = append(q.UsedDomains, domainID)
		q.QuestionSelectorIndex = q.DomainIndex
		q.AnswerTurnIndex = q.DomainIndex
		return nil
	})
}

// SelectQuestion lets the selector team pick an unanswered question
// from the selected domain and starts the answer timer.
func (s *GameService) SelectQuestion(ctx context.Context, quizID, teamID, questionID string) error {
	return s.mutate(ctx, quizID, func(q *domain.Quiz) error {
		if q.Status != domain.StatusActive || q.Round != domain.RoundDomain || q.Phase != domain.PhaseSelectingQuestion {
			return domain.ErrWrongPhase
		}
		question, ok := q.Question(questionID)
		if !ok {
			return domain.ErrQuestionNotFound
		}
		if question.IsAnswered {
			return domain.ErrQuestionAnswered
		}
		selectedDomain, ok := q.Domain(q.SelectedDomainID)
		if !ok || !domainOwnsQuestion(selectedDomain, questionID) {
			return domain.ErrWrongPhase
		}
		if selector := q.Teams[q.QuestionSelectorIndex]; teamID != selector.ID {
			return domain.ErrNotYourTurn
		}

		question.SelectedBy = teamID
		question.MarkAttempted(teamID)
		q.CurrentQuestionID = questionID
		q.CurrentTeamID = teamID
		q.AnswerTurnIndex = q.QuestionSelectorIndex
		q.Phase = domain.PhaseAnswering
		q.TimerEndsAt = s.timers.deadline(s.timers.cfg.DomainAnswer)
		return nil
	})
}

// ShowOptions reveals the question's options. It is a one-way, one-time
// action: the answer timer keeps running and passing is blocked from
// here on.
func (s *GameService) ShowOptions(ctx context.Context, quizID, teamID, questionID string) error {
	return s.mutate(ctx, quizID, func(q *domain.Quiz) error {
		if q.Status != domain.StatusActive || q.Round != domain.RoundDomain || q.Phase != domain.PhaseAnswering {
			return domain.ErrWrongPhase
		}
		if teamID != q.CurrentTeamID {
			return domain.ErrNotYourTurn
		}
		question, ok := q.Question(questionID)
		if !ok {
			return domain.ErrQuestionNotFound
		}
		if questionID != q.CurrentQuestionID || len(question.Options) == 0 || question.OptionsViewed {
			return domain.ErrWrongPhase
		}

		question.OptionsViewed = true
		q.Phase = domain.PhaseAnsweringWithOptions
		return nil
	})
}

// PassQuestion hands the question to the next unattempted team, or
// dismisses it at zero points when none remain. Passing is disallowed
// once options have been revealed.
func (s *GameService) PassQuestion(ctx context.Context, quizID, teamID, questionID string) error {
	return s.mutate(ctx, quizID, func(q *domain.Quiz) error {
		if q.Status != domain.StatusActive || q.Round != domain.RoundDomain {
			return domain.ErrWrongPhase
		}
		if q.Phase != domain.PhaseAnswering && q.Phase != domain.PhaseAnsweringWithOptions {
			return domain.ErrWrongPhase
		}
		if teamID != q.CurrentTeamID {
			return domain.ErrNotYourTurn
		}
		question, ok := q.Question(questionID)
		if !ok {
			return domain.ErrQuestionNotFound
		}
		if questionID != q.CurrentQuestionID {
			return domain.ErrWrongPhase
		}
		if question.OptionsViewed {
			return domain.ErrCannotPass
		}

		result := &domain.DomainAnswerResult{
			TeamID:        teamID,
			WasTabActive:  true,
			QuestionText:  question.Text,
			CorrectAnswer: question.Answer,
		}
		s.passOrDismiss(q, question, teamID, result)
		return nil
	})
}

// SubmitDomainAnswer resolves the current team's answer. wasTabActive
// is the self-reported focus signal: a correct answer from an
// unfocused tab scores nothing and dismisses the question without
// penalty or passing.
func (s *GameService) SubmitDomainAnswer(ctx context.Context, quizID, teamID, questionID, answer string, wasTabActive bool) error {
	return s.mutate(ctx, quizID, func(q *domain.Quiz) error {
		if q.Status != domain.StatusActive || q.Round != domain.RoundDomain {
			return domain.ErrWrongPhase
		}
		if q.Phase != domain.PhaseAnswering && q.Phase != domain.PhaseAnsweringWithOptions {
			return domain.ErrWrongPhase
		}
		if teamID != q.CurrentTeamID {
			return domain.ErrNotYourTurn
		}
		question, ok := q.Question(questionID)
		if !ok {
			return domain.ErrQuestionNotFound
		}
		if questionID != q.CurrentQuestionID {
			return domain.ErrWrongPhase
		}
		return s.resolveDomainAnswer(q, question, teamID, answer, wasTabActive)
	})
}

// AdvanceResult is the manual host override for the showing_result
// phase; it takes the same transition the display timer would.
func (s *GameService) AdvanceResult(ctx context.Context, quizID string) error {
	return s.mutate(ctx, quizID, func(q *domain.Quiz) error {
		if q.Status != domain.StatusActive || q.Phase != domain.PhaseShowingResult {
			return domain.ErrWrongPhase
		}
		s.advanceAfterResult(q)
		return nil
	})
}

// resolveDomainAnswer applies the scoring matrix for a submitted (or
// timed-out, answer == "") domain answer.
func (s *GameService) resolveDomainAnswer(q *domain.Quiz, question *domain.Question, teamID, answer string, wasTabActive bool) error {
	withOptions := q.Phase == domain.PhaseAnsweringWithOptions
	actuallyCorrect := matchAnswer(answer, question.Answer)
	correct := wasTabActive && actuallyCorrect

	team, ok := q.Team(teamID)
	if !ok {
		return domain.ErrTeamNotFound
	}

	result := &domain.DomainAnswerResult{
		TeamID:        teamID,
		Answer:        answer,
		Correct:       correct,
		WithOptions:   withOptions,
		WasTabActive:  wasTabActive,
		QuestionText:  question.Text,
		CorrectAnswer: question.Answer,
	}

	switch {
	case correct:
		points := domainPoints(true, withOptions)
		result.Points = points
		result.QuestionCompleted = true
		team.Score += points
		question.IsAnswered = true
		// The literal submission is recorded; it may differ from the
		// canonical answer in case or spacing.
		question.CorrectAnswer = answer
		q.LastDomainAnswer = result
		s.dismissToShowingResult(q)

	case actuallyCorrect && !wasTabActive && !withOptions:
		// Anti-cheat: the answer would have matched, but the client
		// reports the tab was not focused. No points, no penalty, and
		// the question is fully dismissed rather than passed. The
		// result display is skipped entirely, but the selector still
		// rotates as if it had been shown.
		question.IsAnswered = true
		question.CorrectAnswer = question.Answer
		q.LastDomainAnswer = result
		q.QuestionsInDomain++
		if q.QuestionsInDomain < s.domainQuestionCap(q) {
			next := nextIndex(q.QuestionSelectorIndex, len(q.Teams))
			q.QuestionSelectorIndex = next
			q.AnswerTurnIndex = next
		}
		s.advanceAfterResult(q)

	case withOptions:
		points := domainPoints(false, true)
		result.Points = points
		result.QuestionCompleted = true
		team.Score += points
		question.IsAnswered = true
		question.CorrectAnswer = question.Answer
		q.LastDomainAnswer = result
		s.dismissToShowingResult(q)

	default:
		// Wrong without options: same path as an explicit pass.
		s.passOrDismiss(q, question, teamID, result)
	}
	return nil
}

// passOrDismiss moves the question to the next unattempted team, or
// dismisses it at zero points when the chain is exhausted.
func (s *GameService) passOrDismiss(q *domain.Quiz, question *domain.Question, teamID string, result *domain.DomainAnswerResult) {
	question.MarkAttempted(teamID)
	nextIdx, found := nextUnattempted(q.Teams, question.AttemptedBy, q.AnswerTurnIndex)

	if found {
		if question.PassedFrom == "" {
			question.PassedFrom = teamID
		}
		q.CurrentTeamID = q.Teams[nextIdx].ID
		q.AnswerTurnIndex = nextIdx
		q.Phase = domain.PhaseAnswering
		q.TimerEndsAt = s.timers.deadline(s.timers.cfg.PassedAnswer)
		q.LastDomainAnswer = result
		return
	}

	result.QuestionCompleted = true
	question.IsAnswered = true
	question.CorrectAnswer = question.Answer
	q.LastDomainAnswer = result
	s.dismissToShowingResult(q)
}

// dismissToShowingResult finishes the current question and enters the
// result display. When the domain still has turns left the selector
// rotates now so the display phase only has to flip back to
// selecting_question.
func (s *GameService) dismissToShowingResult(q *domain.Quiz) {
	q.QuestionsInDomain++
	if q.QuestionsInDomain >= s.domainQuestionCap(q) {
		q.Phase = domain.PhaseShowingResult
		q.TimerEndsAt = s.timers.deadline(s.timers.cfg.ResultDomainComplete)
		return
	}
	next := nextIndex(q.QuestionSelectorIndex, len(q.Teams))
	q.QuestionSelectorIndex = next
	q.AnswerTurnIndex = next
	q.Phase = domain.PhaseShowingResult
	q.TimerEndsAt = s.timers.deadline(s.timers.cfg.ResultMidDomain)
}

// advanceAfterResult leaves the result display: back to question
// selection inside the same domain, on to the next domain selector, or
// into the round-ended terminal state.
func (s *GameService) advanceAfterResult(q *domain.Quiz) {
	teamCount := len(q.Teams)
	if q.QuestionsInDomain >= s.domainQuestionCap(q) {
		completed := q.CompletedDomainRounds + 1
		if completed >= q.TotalDomainRounds {
			q.Phase = domain.PhaseDomainRoundEnded
			q.CurrentTeamID = ""
			q.CurrentQuestionID = ""
			q.SelectedDomainID = ""
			q.TimerEndsAt = nil
			q.CompletedDomainRounds = completed
			return
		}
		next := nextIndex(q.DomainIndex, teamCount)
		q.DomainIndex = next
		q.QuestionSelectorIndex = next
		q.AnswerTurnIndex = next
		q.CurrentTeamID = q.Teams[next].ID
		q.CurrentQuestionID = ""
		q.SelectedDomainID = ""
		q.TimerEndsAt = nil
		q.Phase = domain.PhaseSelectingDomain
		q.QuestionsInDomain = 0
		q.CompletedDomainRounds = completed
		return
	}

	// Same domain, selector was already rotated at dismissal.
	q.CurrentTeamID = q.Teams[q.QuestionSelectorIndex].ID
	q.CurrentQuestionID = ""
	q.TimerEndsAt = nil
	q.Phase = domain.PhaseSelectingQuestion
}

// domainQuestionCap rounds the selected domain's question count down
// to a multiple of the team count so each team gets an equal number of
// selection turns. Leftover questions are never played in this pass.
func (s *GameService) domainQuestionCap(q *domain.Quiz) int {
	teamCount := len(q.Teams)
	if teamCount == 0 {
		return 0
	}
	selected, ok := q.Domain(q.SelectedDomainID)
	if !ok {
		return 0
	}
	return len(selected.Questions) / teamCount * teamCount
}

// domainAnswerExpiry treats a timed-out answer as an empty submission
// from the current team: it follows the wrong-answer path, passing or
// dismissing as usual.
func (s *GameService) domainAnswerExpiry(q *domain.Quiz) error {
	if !s.timers.expired(q.TimerEndsAt) {
		return errNoChange
	}
	question, ok := q.Question(q.CurrentQuestionID)
	if !ok {
		return errNoChange
	}
	return s.resolveDomainAnswer(q, question, q.CurrentTeamID, "", true)
}

// showingResultExpiry advances the result display once its timer runs
// out.
func (s *GameService) showingResultExpiry(q *domain.Quiz) error {
	if !s.timers.expired(q.TimerEndsAt) {
		return errNoChange
	}
	s.advanceAfterResult(q)
	return nil
}

func domainOwnsQuestion(d *domain.Domain, questionID string) bool {
	for _, question := range d.Questions {
		if question.ID == questionID {
			return true
		}
	}
	return false
}
