package game

import "strings"

// Point values per round and condition. These are the only magnitudes
// a team's score ever changes by.
const (
	domainCorrectPoints            = 10
	domainCorrectWithOptionsPoints = 5
	domainWrongWithOptionsPoints   = -5

	buzzerFirstCorrectPoints = 10
	buzzerLaterCorrectPoints = 5
	buzzerFirstPenaltyPoints = -10
	buzzerLaterPenaltyPoints = -5
)

// matchAnswer compares a submitted answer against the canonical one:
// case-insensitive, leading/trailing-whitespace-insensitive exact
// equality.
func matchAnswer(submitted, canonical string) bool {
	return strings.EqualFold(strings.TrimSpace(submitted), strings.TrimSpace(canonical))
}

// domainPoints maps a domain-round outcome to a score delta. A wrong
// answer without options scores zero; the question passes instead.
func domainPoints(correct, withOptions bool) int {
	switch {
	case correct && withOptions:
		return domainCorrectWithOptionsPoints
	case correct:
		return domainCorrectPoints
	case withOptions:
		return domainWrongWithOptionsPoints
	default:
		return 0
	}
}

// buzzerPoints maps a submitted buzzer answer to a score delta. The
// buzz-position tier affects magnitude only, never who wins.
func buzzerPoints(correct, firstBuzzer bool) int {
	if correct {
		if firstBuzzer {
			return buzzerFirstCorrectPoints
		}
		return buzzerLaterCorrectPoints
	}
	if firstBuzzer {
		return buzzerFirstPenaltyPoints
	}
	return buzzerLaterPenaltyPoints
}

// buzzerTimeoutPoints is the penalty for buzzing but never submitting.
// Identical magnitude to a wrong answer, tagged separately for display.
func buzzerTimeoutPoints(firstBuzzer bool) int {
	return buzzerPoints(false, firstBuzzer)
}
