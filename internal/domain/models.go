package domain

import (
	"sort"
	"time"
)

// QuizStatus is the global lifecycle state of a quiz.
type QuizStatus string

const (
	StatusSetup     QuizStatus = "setup"
	StatusActive    QuizStatus = "active"
	StatusPaused    QuizStatus = "paused"
	StatusCompleted QuizStatus = "completed"
)

// Round identifies which round type currently governs the phase.
type Round string

const (
	RoundNotStarted Round = "not_started"
	RoundDomain     Round = "domain"
	RoundBuzzer     Round = "buzzer"
)

// Phase is the round-specific state machine position.
type Phase string

const (
	PhaseWaiting Phase = "waiting"

	// Domain round phases.
	PhaseSelectingDomain      Phase = "selecting_domain"
	PhaseSelectingQuestion    Phase = "selecting_question"
	PhaseAnswering            Phase = "answering"
	PhaseAnsweringWithOptions Phase = "answering_with_options"
	PhaseShowingResult        Phase = "showing_result"
	PhaseDomainRoundEnded     Phase = "domain_round_ended"

	// Buzzer round phases. PhaseAnswering is shared with the domain
	// round; Round disambiguates.
	PhaseBuzzing       Phase = "buzzing"
	PhaseShowingAnswer Phase = "showing_answer"
	PhaseCompleted     Phase = "completed"
)

// Team is a competing team. Sequence is the fixed ordinal that defines
// turn order and never changes after creation.
type Team struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	CaptainName string `json:"captainName,omitempty"`
	Score       int    `json:"score"`
	Sequence    int    `json:"sequence"`
}

// Question is a domain-round question.
type Question struct {
	ID            string   `json:"id"`
	Number        int      `json:"number"`
	Text          string   `json:"text"`
	Answer        string   `json:"answer"`
	Options       []string `json:"options"`
	IsAnswered    bool     `json:"isAnswered"`
	SelectedBy    string   `json:"selectedBy,omitempty"`
	AttemptedBy   []string `json:"attemptedBy"`
	PassedFrom    string   `json:"passedFrom,omitempty"`
	CorrectAnswer string   `json:"correctAnswer,omitempty"`
	OptionsViewed bool     `json:"optionsViewed"`
}

// Attempted reports whether teamID already had a shot at the question.
func (q *Question) Attempted(teamID string) bool {
	for _, id := range q.AttemptedBy {
		if id == teamID {
			return true
		}
	}
	return false
}

// MarkAttempted records an attempt, keeping AttemptedBy duplicate-free.
func (q *Question) MarkAttempted(teamID string) {
	if !q.Attempted(teamID) {
		q.AttemptedBy = append(q.AttemptedBy, teamID)
	}
}

// Domain is a themed bucket of questions for the rotating round.
type Domain struct {
	ID        string      `json:"id"`
	Name      string      `json:"name"`
	Questions []*Question `json:"questions"`
}

// BuzzerQuestion is a free-text question for the competitive round.
// Resolution is global per question via buzz order, so there is no
// per-team attempt tracking.
type BuzzerQuestion struct {
	ID         string   `json:"id"`
	Number     int      `json:"number"`
	Text       string   `json:"text"`
	Answer     string   `json:"answer"`
	Options    []string `json:"options"`
	IsAnswered bool     `json:"isAnswered"`
}

// BuzzerAnswer is a queued submission awaiting resolution.
type BuzzerAnswer struct {
	Answer  string `json:"answer"`
	Correct bool   `json:"isCorrect"`
	Points  int    `json:"points"`
}

// BuzzerResult is the per-team outcome of a resolved buzzer question,
// kept only for display until the next question starts.
type BuzzerResult struct {
	Answer  string `json:"answer"`
	Correct bool   `json:"isCorrect"`
	Points  int    `json:"points"`
	Timeout bool   `json:"timeout,omitempty"`
}

// DomainAnswerResult is the last domain-round resolution, transient
// display data carrying the full question text and canonical answer.
type DomainAnswerResult struct {
	TeamID            string `json:"teamId"`
	Answer            string `json:"answer"`
	Correct           bool   `json:"isCorrect"`
	Points            int    `json:"points"`
	WithOptions       bool   `json:"withOptions"`
	WasTabActive      bool   `json:"wasTabActive"`
	QuestionText      string `json:"questionText"`
	CorrectAnswer     string `json:"correctAnswer"`
	QuestionCompleted bool   `json:"questionCompleted"`
}

// Quiz is the root aggregate: the single source of truth mutated by
// every external action. Teams, domains and buzzer questions are owned
// by the aggregate so that scoring and phase transitions commit
// atomically with the data they depend on.
type Quiz struct {
	ID     string     `json:"id"`
	Status QuizStatus `json:"status"`
	Round  Round      `json:"round"`
	Phase  Phase      `json:"phase"`

	CurrentTeamID     string     `json:"currentTeamId,omitempty"`
	CurrentQuestionID string     `json:"currentQuestionId,omitempty"`
	SelectedDomainID  string     `json:"selectedDomainId,omitempty"`
	TimerEndsAt       *time.Time `json:"timerEndsAt,omitempty"`

	// Buzzer round state. BuzzSequence is insertion-ordered with unique
	// membership; BuzzTimers holds each buzzed team's answer deadline.
	BuzzSequence         []string                `json:"buzzSequence"`
	PendingBuzzerAnswers map[string]BuzzerAnswer `json:"pendingBuzzerAnswers,omitempty"`
	BuzzTimers           map[string]time.Time    `json:"buzzTimers,omitempty"`
	LastRoundResults     map[string]BuzzerResult `json:"lastRoundResults,omitempty"`

	// Domain round rotation counters. DomainIndex and
	// QuestionSelectorIndex advance only when a selection round fully
	// completes; AnswerTurnIndex advances within a single question as
	// teams pass or fail.
	DomainIndex           int      `json:"domainIndex"`
	QuestionSelectorIndex int      `json:"questionSelectorIndex"`
	AnswerTurnIndex       int      `json:"answerTurnIndex"`
	QuestionsInDomain     int      `json:"questionsInDomain"`
	TotalDomainRounds     int      `json:"totalDomainRounds"`
	CompletedDomainRounds int      `json:"completedDomainRounds"`
	UsedDomains           []string `json:"usedDomains"`

	LastDomainAnswer *DomainAnswerResult `json:"lastDomainAnswer,omitempty"`

	Teams           []*Team           `json:"teams"`
	Domains         []*Domain         `json:"domains"`
	BuzzerQuestions []*BuzzerQuestion `json:"buzzerQuestions"`

	CreatedAt time.Time `json:"createdAt"`
}

// NewQuiz returns an empty aggregate in setup.
func NewQuiz(id string, now time.Time) *Quiz {
	return &Quiz{
		ID:        id,
		Status:    StatusSetup,
		Round:     RoundNotStarted,
		Phase:     PhaseWaiting,
		CreatedAt: now,
	}
}

// SortTeams orders teams by sequence, then id as tiebreak. Turn order
// is always derived from this ordering.
func (q *Quiz) SortTeams() {
	sort.SliceStable(q.Teams, func(i, j int) bool {
		if q.Teams[i].Sequence != q.Teams[j].Sequence {
			return q.Teams[i].Sequence < q.Teams[j].Sequence
		}
		return q.Teams[i].ID < q.Teams[j].ID
	})
}

// Team finds a team by id.
func (q *Quiz) Team(teamID string) (*Team, bool) {
	for _, t := range q.Teams {
		if t.ID == teamID {
			return t, true
		}
	}
	return nil, false
}

// Domain finds a domain by id.
func (q *Quiz) Domain(domainID string) (*Domain, bool) {
	for _, d := range q.Domains {
		if d.ID == domainID {
			return d, true
		}
	}
	return nil, false
}

// Question finds a domain-round question by id across all domains.
func (q *Quiz) Question(questionID string) (*Question, bool) {
	for _, d := range q.Domains {
		for _, qu := range d.Questions {
			if qu.ID == questionID {
				return qu, true
			}
		}
	}
	return nil, false
}

// BuzzerQuestion finds a buzzer question by id.
func (q *Quiz) BuzzerQuestion(questionID string) (*BuzzerQuestion, bool) {
	for _, bq := range q.BuzzerQuestions {
		if bq.ID == questionID {
			return bq, true
		}
	}
	return nil, false
}

// NextUnansweredBuzzerQuestion returns the lowest-numbered buzzer
// question that has not been resolved yet.
func (q *Quiz) NextUnansweredBuzzerQuestion() (*BuzzerQuestion, bool) {
	var next *BuzzerQuestion
	for _, bq := range q.BuzzerQuestions {
		if bq.IsAnswered {
			continue
		}
		if next == nil || bq.Number < next.Number {
			next = bq
		}
	}
	return next, next != nil
}

// DomainUsed reports whether the domain was already played this round.
func (q *Quiz) DomainUsed(domainID string) bool {
	for _, id := range q.UsedDomains {
		if id == domainID {
			return true
		}
	}
	return false
}

// HasBuzzed reports whether the team is already in the buzz sequence.
func (q *Quiz) HasBuzzed(teamID string) bool {
	for _, id := range q.BuzzSequence {
		if id == teamID {
			return true
		}
	}
	return false
}

// Snapshot is a named point-in-time serialized copy of the whole
// aggregate, used for manual or automatic rollback.
type Snapshot struct {
	ID        string    `json:"id"`
	QuizID    string    `json:"quizId"`
	Name      string    `json:"name"`
	Data      []byte    `json:"data"`
	CreatedAt time.Time `json:"createdAt"`
}
