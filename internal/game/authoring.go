package game

import (
	"context"

	"github.com/google/uuid"

	"trivia-service/internal/domain"
)

// Authoring surface: teams, domains and questions are edited while the
// quiz is in setup. Sequence and number ordinals are assigned at
// creation and never change afterwards.

// CreateTeam adds a team at the end of the turn order.
func (s *GameService) CreateTeam(ctx context.Context, quizID, name string) (string, error) {
	teamID := uuid.NewString()
	err := s.mutate(ctx, quizID, func(q *domain.Quiz) error {
		q.Teams = append(q.Teams, &domain.Team{
			ID:       teamID,
			Name:     name,
			Sequence: len(q.Teams),
		})
		return nil
	})
	if err != nil {
		return "", err
	}
	return teamID, nil
}

// UpdateTeam renames a team.
func (s *GameService) UpdateTeam(ctx context.Context, quizID, teamID, name string) error {
	return s.mutate(ctx, quizID, func(q *domain.Quiz) error {
		team, ok := q.Team(teamID)
		if !ok {
			return domain.ErrTeamNotFound
		}
		team.Name = name
		return nil
	})
}

// DeleteTeam removes a team from the quiz.
func (s *GameService) DeleteTeam(ctx context.Context, quizID, teamID string) error {
	return s.mutate(ctx, quizID, func(q *domain.Quiz) error {
		for i, team := range q.Teams {
			if team.ID == teamID {
				q.Teams = append(q.Teams[:i], q.Teams[i+1:]...)
				return nil
			}
		}
		return domain.ErrTeamNotFound
	})
}

// JoinTeam seats a captain on a team. A team holds at most one captain
// at a time.
func (s *GameService) JoinTeam(ctx context.Context, quizID, teamID, captainName string) error {
	return s.mutate(ctx, quizID, func(q *domain.Quiz) error {
		team, ok := q.Team(teamID)
		if !ok {
			return domain.ErrTeamNotFound
		}
		if team.CaptainName != "" {
			return domain.ErrTeamHasCaptain
		}
		team.CaptainName = captainName
		return nil
	})
}

// KickCaptain clears the captain seat back to empty.
func (s *GameService) KickCaptain(ctx context.Context, quizID, teamID string) error {
	return s.mutate(ctx, quizID, func(q *domain.Quiz) error {
		team, ok := q.Team(teamID)
		if !ok {
			return domain.ErrTeamNotFound
		}
		team.CaptainName = ""
		return nil
	})
}

// AdjustScore applies a manual host correction to a team's score.
func (s *GameService) AdjustScore(ctx context.Context, quizID, teamID string, delta int) error {
	return s.mutate(ctx, quizID, func(q *domain.Quiz) error {
		team, ok := q.Team(teamID)
		if !ok {
			return domain.ErrTeamNotFound
		}
		team.Score += delta
		return nil
	})
}

// CreateDomain adds an empty domain.
func (s *GameService) CreateDomain(ctx context.Context, quizID, name string) (string, error) {
	domainID := uuid.NewString()
	err := s.mutate(ctx, quizID, func(q *domain.Quiz) error {
		q.Domains = append(q.Domains, &domain.Domain{ID: domainID, Name: name})
		return nil
	})
	if err != nil {
		return "", err
	}
	return domainID, nil
}

// UpdateDomain renames a domain.
func (s *GameService) UpdateDomain(ctx context.Context, quizID, domainID, name string) error {
	return s.mutate(ctx, quizID, func(q *domain.Quiz) error {
		d, ok := q.Domain(domainID)
		if !ok {
			return domain.ErrDomainNotFound
		}
		d.Name = name
		return nil
	})
}

// DeleteDomain removes a domain and its questions.
func (s *GameService) DeleteDomain(ctx context.Context, quizID, domainID string) error {
	return s.mutate(ctx, quizID, func(q *domain.Quiz) error {
		for i, d := range q.Domains {
			if d.ID == domainID {
				q.Domains = append(q.Domains[:i], q.Domains[i+1:]...)
				return nil
			}
		}
		return domain.ErrDomainNotFound
	})
}

// CreateQuestion appends a question to a domain with the next ordinal
// number. An empty options list means free-text only.
func (s *GameService) CreateQuestion(ctx context.Context, quizID, domainID, text, answer string, options []string) (string, error) {
	questionID := uuid.NewString()
	err := s.mutate(ctx, quizID, func(q *domain.Quiz) error {
		d, ok := q.Domain(domainID)
		if !ok {
			return domain.ErrDomainNotFound
		}
		d.Questions = append(d.Questions, &domain.Question{
			ID:      questionID,
			Number:  len(d.Questions) + 1,
			Text:    text,
			Answer:  answer,
			Options: options,
		})
		return nil
	})
	if err != nil {
		return "", err
	}
	return questionID, nil
}

// UpdateQuestion edits a question's content, leaving game state alone.
func (s *GameService) UpdateQuestion(ctx context.Context, quizID, questionID, text, answer string, options []string) error {
	return s.mutate(ctx, quizID, func(q *domain.Quiz) error {
		question, ok := q.Question(questionID)
		if !ok {
			return domain.ErrQuestionNotFound
		}
		question.Text = text
		question.Answer = answer
		question.Options = options
		return nil
	})
}

// DeleteQuestion removes a question from its domain.
func (s *GameService) DeleteQuestion(ctx context.Context, quizID, questionID string) error {
	return s.mutate(ctx, quizID, func(q *domain.Quiz) error {
		for _, d := range q.Domains {
			for i, question := range d.Questions {
				if question.ID == questionID {
					d.Questions = append(d.Questions[:i], d.Questions[i+1:]...)
					return nil
				}
			}
		}
		return domain.ErrQuestionNotFound
	})
}

// CreateBuzzerQuestion appends a buzzer question with the next ordinal
// number.
func (s *GameService) CreateBuzzerQuestion(ctx context.Context, quizID, text, answer string, options []string) (string, error) {
	questionID := uuid.NewString()
	err := s.mutate(ctx, quizID, func(q *domain.Quiz) error {
		q.BuzzerQuestions = append(q.BuzzerQuestions, &domain.BuzzerQuestion{
			ID:      questionID,
			Number:  len(q.BuzzerQuestions) + 1,
			Text:    text,
			Answer:  answer,
			Options: options,
		})
		return nil
	})
	if err != nil {
		return "", err
	}
	return questionID, nil
}

// UpdateBuzzerQuestion edits a buzzer question's content.
func (s *GameService) UpdateBuzzerQuestion(ctx context.Context, quizID, questionID, text, answer string, options []string) error {
	return s.mutate(ctx, quizID, func(q *domain.Quiz) error {
		question, ok := q.BuzzerQuestion(questionID)
		if !ok {
			return domain.ErrQuestionNotFound
		}
		question.Text = text
		question.Answer = answer
		question.Options = options
		return nil
	})
}

// DeleteBuzzerQuestion removes a buzzer question.
func (s *GameService) DeleteBuzzerQuestion(ctx context.Context, quizID, questionID string) error {
	return s.mutate(ctx, quizID, func(q *domain.Quiz) error {
		for i, question := range q.BuzzerQuestions {
			if question.ID == questionID {
				q.BuzzerQuestions = append(q.BuzzerQuestions[:i], q.BuzzerQuestions[i+1:]...)
				return nil
			}
		}
		return domain.ErrQuestionNotFound
	})
}
