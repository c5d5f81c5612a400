package domain

import "errors"

// Not-found outcomes. These surface to callers distinctly and never
// mutate state.
var (
	// ErrQuizNotFound indicates the quiz aggregate could not be loaded.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrTeamNotFound indicates a referenced team does not exist.
	ErrTeamNotFound = errors.New("team not found")
	// ErrDomainNotFound indicates a referenced domain does not exist.
	ErrDomainNotFound = errors.New("domain not found")
	// ErrQuestionNotFound indicates a referenced question does not exist.
	ErrQuestionNotFound = errors.New("question not found")
	// ErrSnapshotNotFound indicates a referenced snapshot does not exist.
	ErrSnapshotNotFound = errors.New("snapshot not found")
)

// Rejected actions: game-logic violations recovered locally. The state
// machine performs no mutation when returning one of these.
var (
	// ErrNotYourTurn is returned when a team acts out of turn.
	ErrNotYourTurn = errors.New("not your turn")
	// ErrWrongPhase is returned when an action does not apply to the
	// current round or phase.
	ErrWrongPhase = errors.New("action not allowed in current phase")
	// ErrAlreadyBuzzed is returned on a duplicate buzz in one window.
	ErrAlreadyBuzzed = errors.New("team already buzzed")
	// ErrAlreadySubmitted is returned on a duplicate answer submission.
	ErrAlreadySubmitted = errors.New("answer already submitted")
	// ErrQuestionAnswered is returned when selecting a resolved question.
	ErrQuestionAnswered = errors.New("question already answered")
	// ErrDomainUsed is returned when selecting an already-played domain.
	ErrDomainUsed = errors.New("domain already used")
	// ErrCannotPass is returned when passing after options were revealed.
	ErrCannotPass = errors.New("cannot pass after options were revealed")
	// ErrTeamHasCaptain is returned when joining an occupied team.
	ErrTeamHasCaptain = errors.New("team already has a captain")
)

// IsRejected reports whether err is a recoverable game-logic rejection
// rather than a storage failure.
func IsRejected(err error) bool {
	for _, rejected := range []error{
		ErrNotYourTurn, ErrWrongPhase, ErrAlreadyBuzzed, ErrAlreadySubmitted,
		ErrQuestionAnswered, ErrDomainUsed, ErrCannotPass, ErrTeamHasCaptain,
	} {
		if errors.Is(err, rejected) {
			return true
		}
	}
	return false
}
