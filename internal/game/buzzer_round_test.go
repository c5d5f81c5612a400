package game_test

import (
	"testing"
	"time"

	"trivia-service/internal/domain"
)

func startBuzzing(f *fixture) {
	f.t.Helper()
	if err := f.service.StartBuzzerRound(f.ctx, f.quizID); err != nil {
		f.t.Fatalf("start buzzer round: %v", err)
	}
}

func TestStartBuzzerRoundOpensWindow(t *testing.T) {
	f := newFixture(t)
	startBuzzing(f)

	quiz := f.mustPhase(domain.PhaseBuzzing)
	if quiz.Round != domain.RoundBuzzer || quiz.Status != domain.StatusActive {
		t.Fatalf("unexpected state %s/%s", quiz.Status, quiz.Round)
	}
	if quiz.CurrentQuestionID != f.buzzers[0] {
		t.Fatalf("round must start on the first unanswered question")
	}
	want := f.clock.Now().Add(10 * time.Second)
	if quiz.TimerEndsAt == nil || !quiz.TimerEndsAt.Equal(want) {
		t.Fatalf("expected 10s buzz window, got %v", quiz.TimerEndsAt)
	}
}

func TestBuzzOrderAndDuplicates(t *testing.T) {
	f := newFixture(t)
	startBuzzing(f)

	if err := f.service.Buzz(f.ctx, f.quizID, f.teams[1]); err != nil {
		t.Fatalf("buzz: %v", err)
	}
	f.mustPhase(domain.PhaseAnswering)
	if err := f.service.Buzz(f.ctx, f.quizID, f.teams[1]); err != domain.ErrAlreadyBuzzed {
		t.Fatalf("expected ErrAlreadyBuzzed, got %v", err)
	}

	// The first buzz must not shorten the window for the other team.
	f.clock.Advance(9 * time.Second)
	if err := f.service.Buzz(f.ctx, f.quizID, f.teams[0]); err != nil {
		t.Fatalf("late buzz inside window: %v", err)
	}

	quiz := f.quiz()
	if len(quiz.BuzzSequence) != 2 || quiz.BuzzSequence[0] != f.teams[1] || quiz.BuzzSequence[1] != f.teams[0] {
		t.Fatalf("buzz sequence must preserve arrival order, got %v", quiz.BuzzSequence)
	}
}

func TestBuzzAfterWindowRejected(t *testing.T) {
	f := newFixture(t)
	startBuzzing(f)

	f.clock.Advance(10 * time.Second)
	if err := f.service.Buzz(f.ctx, f.quizID, f.teams[0]); err != domain.ErrWrongPhase {
		t.Fatalf("expected deterministic rejection, got %v", err)
	}
}

func TestFirstCorrectAnswerWinsTen(t *testing.T) {
	f := newFixture(t)
	startBuzzing(f)

	for _, teamID := range f.teams {
		if err := f.service.Buzz(f.ctx, f.quizID, teamID); err != nil {
			t.Fatalf("buzz: %v", err)
		}
	}
	if err := f.service.SubmitBuzzerAnswer(f.ctx, f.quizID, f.teams[0], f.buzzers[0], "right"); err != nil {
		t.Fatalf("answer: %v", err)
	}
	if err := f.service.SubmitBuzzerAnswer(f.ctx, f.quizID, f.teams[1], f.buzzers[0], "wrong"); err != nil {
		t.Fatalf("answer: %v", err)
	}
	if err := f.service.SubmitBuzzerAnswer(f.ctx, f.quizID, f.teams[1], f.buzzers[0], "again"); err != domain.ErrAlreadySubmitted {
		t.Fatalf("expected ErrAlreadySubmitted, got %v", err)
	}

	// Scores apply only at resolution.
	if f.score(f.teams[0]) != 0 {
		t.Fatalf("answers must not score before resolution")
	}

	f.tick(10 * time.Second)

	quiz := f.mustPhase(domain.PhaseShowingAnswer)
	if f.score(f.teams[0]) != 10 {
		t.Fatalf("first correct buzzer scores +10, got %d", f.score(f.teams[0]))
	}
	// The walk stops at the first correct answer; later teams are
	// untouched even with a queued wrong answer.
	if f.score(f.teams[1]) != 0 {
		t.Fatalf("teams after the winner must not score, got %d", f.score(f.teams[1]))
	}
	if _, scored := quiz.LastRoundResults[f.teams[1]]; scored {
		t.Fatalf("results must stop at the first correct answer")
	}
	question, _ := quiz.BuzzerQuestion(f.buzzers[0])
	if !question.IsAnswered {
		t.Fatalf("resolved question must be marked answered")
	}
}

func TestWrongFirstBuzzerPenalizedCorrectSecondRewarded(t *testing.T) {
	f := newFixture(t)
	startBuzzing(f)

	for _, teamID := range f.teams {
		if err := f.service.Buzz(f.ctx, f.quizID, teamID); err != nil {
			t.Fatalf("buzz: %v", err)
		}
	}
	if err := f.service.SubmitBuzzerAnswer(f.ctx, f.quizID, f.teams[0], f.buzzers[0], "wrong"); err != nil {
		t.Fatalf("answer: %v", err)
	}
	if err := f.service.SubmitBuzzerAnswer(f.ctx, f.quizID, f.teams[1], f.buzzers[0], "right"); err != nil {
		t.Fatalf("answer: %v", err)
	}

	f.tick(10 * time.Second)

	if f.score(f.teams[0]) != -10 {
		t.Fatalf("wrong first buzzer scores -10, got %d", f.score(f.teams[0]))
	}
	if f.score(f.teams[1]) != 5 {
		t.Fatalf("correct later buzzer scores +5, got %d", f.score(f.teams[1]))
	}
}

func TestTimedOutFirstBuzzerCorrectSecondRewarded(t *testing.T) {
	f := newFixture(t)
	startBuzzing(f)

	for _, teamID := range f.teams {
		if err := f.service.Buzz(f.ctx, f.quizID, teamID); err != nil {
			t.Fatalf("buzz: %v", err)
		}
	}
	if err := f.service.SubmitBuzzerAnswer(f.ctx, f.quizID, f.teams[1], f.buzzers[0], "right"); err != nil {
		t.Fatalf("answer: %v", err)
	}

	// First buzzer never answers: window plus its personal timer elapse.
	f.tick(10 * time.Second)
	f.tick(10 * time.Second)

	quiz := f.mustPhase(domain.PhaseShowingAnswer)
	if f.score(f.teams[0]) != -10 {
		t.Fatalf("timed-out first buzzer scores -10, got %d", f.score(f.teams[0]))
	}
	if f.score(f.teams[1]) != 5 {
		t.Fatalf("correct later buzzer scores +5, got %d", f.score(f.teams[1]))
	}
	if result := quiz.LastRoundResults[f.teams[0]]; !result.Timeout {
		t.Fatalf("first buzzer result must be tagged as timeout, got %+v", result)
	}
}

func TestResolutionWaitsForSlowCorrectAnswer(t *testing.T) {
	f := newFixture(t)
	startBuzzing(f)

	for _, teamID := range f.teams {
		if err := f.service.Buzz(f.ctx, f.quizID, teamID); err != nil {
			t.Fatalf("buzz: %v", err)
		}
	}
	// The second buzzer submits a fast wrong answer; the first has not
	// answered yet when the window closes.
	if err := f.service.SubmitBuzzerAnswer(f.ctx, f.quizID, f.teams[1], f.buzzers[0], "wrong"); err != nil {
		t.Fatalf("answer: %v", err)
	}

	f.tick(10 * time.Second)
	f.mustPhase(domain.PhaseAnswering)
	if f.score(f.teams[1]) != 0 {
		t.Fatalf("resolution must wait for the first buzzer")
	}

	// Still inside the first buzzer's personal 20s timer.
	if err := f.service.SubmitBuzzerAnswer(f.ctx, f.quizID, f.teams[0], f.buzzers[0], "right"); err != nil {
		t.Fatalf("slow correct answer: %v", err)
	}
	f.tick(0)

	f.mustPhase(domain.PhaseShowingAnswer)
	if f.score(f.teams[0]) != 10 || f.score(f.teams[1]) != 0 {
		t.Fatalf("slow correct answer must win: %d, %d", f.score(f.teams[0]), f.score(f.teams[1]))
	}
}

func TestBuzzedTeamTimeoutPenalized(t *testing.T) {
	f := newFixture(t)
	startBuzzing(f)

	if err := f.service.Buzz(f.ctx, f.quizID, f.teams[0]); err != nil {
		t.Fatalf("buzz: %v", err)
	}

	// Window over, personal timer still running: no resolution yet.
	f.tick(10 * time.Second)
	f.mustPhase(domain.PhaseAnswering)

	// Personal timer over: timeout penalty at the first-buzzer tier.
	f.tick(10 * time.Second)
	quiz := f.mustPhase(domain.PhaseShowingAnswer)
	if f.score(f.teams[0]) != -10 {
		t.Fatalf("timed-out first buzzer scores -10, got %d", f.score(f.teams[0]))
	}
	result, ok := quiz.LastRoundResults[f.teams[0]]
	if !ok || !result.Timeout {
		t.Fatalf("timeout must be tagged in results, got %+v", result)
	}

	if err := f.service.SubmitBuzzerAnswer(f.ctx, f.quizID, f.teams[0], f.buzzers[0], "late"); err != domain.ErrWrongPhase {
		t.Fatalf("expected rejection after resolution, got %v", err)
	}
}

func TestEmptyWindowDismissesQuestion(t *testing.T) {
	f := newFixture(t)
	startBuzzing(f)

	f.tick(10 * time.Second)

	quiz := f.mustPhase(domain.PhaseShowingAnswer)
	question, _ := quiz.BuzzerQuestion(f.buzzers[0])
	if !question.IsAnswered {
		t.Fatalf("unbuzzed question must be dismissed")
	}
	if len(quiz.LastRoundResults) != 0 {
		t.Fatalf("no results expected, got %v", quiz.LastRoundResults)
	}
	if f.score(f.teams[0]) != 0 || f.score(f.teams[1]) != 0 {
		t.Fatalf("dismissal must not score")
	}
}

func TestShowAnswerAdvancesToNextQuestionThenCompletes(t *testing.T) {
	f := newFixture(t)
	startBuzzing(f)

	// Dismiss the first question, wait out the answer display.
	f.tick(10 * time.Second)
	f.tick(20 * time.Second)

	quiz := f.mustPhase(domain.PhaseBuzzing)
	if quiz.CurrentQuestionID != f.buzzers[1] {
		t.Fatalf("expected second buzzer question, got %s", quiz.CurrentQuestionID)
	}
	want := f.clock.Now().Add(10 * time.Second)
	if quiz.TimerEndsAt == nil || !quiz.TimerEndsAt.Equal(want) {
		t.Fatalf("expected fresh buzz window, got %v", quiz.TimerEndsAt)
	}

	// Win the final question and let the display run out.
	if err := f.service.Buzz(f.ctx, f.quizID, f.teams[0]); err != nil {
		t.Fatalf("buzz: %v", err)
	}
	if err := f.service.SubmitBuzzerAnswer(f.ctx, f.quizID, f.teams[0], f.buzzers[1], "right"); err != nil {
		t.Fatalf("answer: %v", err)
	}
	// With no questions left there is nothing to advance to: the round
	// completes as soon as the last question resolves.
	f.tick(10 * time.Second)
	quiz = f.mustPhase(domain.PhaseCompleted)
	if quiz.TimerEndsAt != nil {
		t.Fatalf("completed quiz must carry no deadline")
	}
}

func TestAnswerWithoutBuzzRejected(t *testing.T) {
	f := newFixture(t)
	startBuzzing(f)

	if err := f.service.Buzz(f.ctx, f.quizID, f.teams[0]); err != nil {
		t.Fatalf("buzz: %v", err)
	}
	if err := f.service.SubmitBuzzerAnswer(f.ctx, f.quizID, f.teams[1], f.buzzers[0], "right"); err != domain.ErrNotYourTurn {
		t.Fatalf("expected ErrNotYourTurn, got %v", err)
	}
}

func TestResumeRebuildsBuzzerTimers(t *testing.T) {
	f := newFixture(t)
	startBuzzing(f)

	for _, teamID := range f.teams {
		if err := f.service.Buzz(f.ctx, f.quizID, teamID); err != nil {
			t.Fatalf("buzz: %v", err)
		}
	}
	// Second buzzer answers before the pause.
	if err := f.service.SubmitBuzzerAnswer(f.ctx, f.quizID, f.teams[1], f.buzzers[0], "wrong"); err != nil {
		t.Fatalf("answer: %v", err)
	}

	if err := f.service.PauseQuiz(f.ctx, f.quizID); err != nil {
		t.Fatalf("pause: %v", err)
	}
	f.clock.Advance(time.Hour)
	if err := f.service.ResumeQuiz(f.ctx, f.quizID); err != nil {
		t.Fatalf("resume: %v", err)
	}

	quiz := f.mustPhase(domain.PhaseAnswering)
	wantWindow := f.clock.Now().Add(20 * time.Second)
	if quiz.TimerEndsAt == nil || !quiz.TimerEndsAt.Equal(wantWindow) {
		t.Fatalf("expected rebuilt 20s window, got %v", quiz.TimerEndsAt)
	}
	// First buzzer gets the longer fresh timer; the answered team keeps
	// its stale one since it no longer matters.
	wantFirst := f.clock.Now().Add(30 * time.Second)
	if got := quiz.BuzzTimers[f.teams[0]]; !got.Equal(wantFirst) {
		t.Fatalf("expected first buzzer timer %v, got %v", wantFirst, got)
	}

	// The unanswered first buzzer can still answer and win.
	if err := f.service.SubmitBuzzerAnswer(f.ctx, f.quizID, f.teams[0], f.buzzers[0], "right"); err != nil {
		t.Fatalf("answer after resume: %v", err)
	}
	f.tick(20 * time.Second)
	if f.score(f.teams[0]) != 10 {
		t.Fatalf("expected +10 after resume, got %d", f.score(f.teams[0]))
	}
}
