package game

import "trivia-service/internal/domain"

// Turn sequencing over teams ordered by sequence then id. All three
// rotation counters (domainIndex, questionSelectorIndex,
// answerTurnIndex) advance only through these helpers so no call site
// hand-rolls modulo arithmetic.

// nextIndex advances a rotation counter one position, wrapping.
func nextIndex(current, teamCount int) int {
	if teamCount <= 0 {
		return 0
	}
	return (current + 1) % teamCount
}

// nextUnattempted scans forward circularly from fromIndex+1, wrapping
// once, and returns the index of the first team that has not attempted
// the question. The second result is false when every team has.
func nextUnattempted(teams []*domain.Team, attempted []string, fromIndex int) (int, bool) {
	idx := fromIndex
	for i := 0; i < len(teams); i++ {
		idx = nextIndex(idx, len(teams))
		if !containsID(attempted, teams[idx].ID) {
			return idx, true
		}
	}
	return 0, false
}

func containsID(ids []string, id string) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}
