package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"trivia-service/internal/config"
	"trivia-service/internal/game"
	pgstore "trivia-service/internal/infra/postgres"
)

// NewSeedCmd loads a sample quiz into the database.
func NewSeedCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Create a sample quiz with teams, domains and questions",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeed(cmd.Context(), *configPath)
		},
	}
}

func runSeed(ctx context.Context, configPath string) error {
	log := zerolog.New(os.Stderr).With().Timestamp().Logger()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if cfg.Postgres.URL == "" {
		return fmt.Errorf("postgres url not configured")
	}

	pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
	if err != nil {
		return err
	}
	defer pool.Close()

	service := game.NewGameService(pgstore.NewQuizStore(pool), pgstore.NewSnapshotStore(pool), nil, game.Options{})

	quizID, err := service.CreateQuiz(ctx)
	if err != nil {
		return err
	}

	for _, name := range []string{"Team Alpha", "Team Beta", "Team Gamma", "Team Delta"} {
		if _, err := service.CreateTeam(ctx, quizID, name); err != nil {
			return err
		}
	}

	domains := map[string][]struct{ text, answer string }{
		"History": {
			{"In which year did World War II end?", "1945"},
			{"Who was the first President of the United States?", "George Washington"},
			{"Which empire built the Colosseum?", "Roman Empire"},
			{"In which year did the Berlin Wall fall?", "1989"},
		},
		"Science": {
			{"What is the chemical symbol for gold?", "Au"},
			{"What planet is known as the Red Planet?", "Mars"},
			{"What gas do plants absorb from the atmosphere?", "Carbon dioxide"},
			{"How many bones are in the adult human body?", "206"},
		},
		"Geography": {
			{"What is the capital of Australia?", "Canberra"},
			{"Which is the longest river in the world?", "Nile"},
			{"Which country has the most time zones?", "France"},
			{"What is the smallest country in the world?", "Vatican City"},
		},
		"Sports": {
			{"How many players are on a soccer team?", "11"},
			{"In which sport would you perform a slam dunk?", "Basketball"},
			{"How often are the Summer Olympics held?", "Every 4 years"},
			{"What is the maximum score in ten-pin bowling?", "300"},
		},
	}
	for name, questions := range domains {
		domainID, err := service.CreateDomain(ctx, quizID, name)
		if err != nil {
			return err
		}
		for _, q := range questions {
			if _, err := service.CreateQuestion(ctx, quizID, domainID, q.text, q.answer, nil); err != nil {
				return err
			}
		}
	}

	buzzers := []struct{ text, answer string }{
		{"What is the tallest mountain on Earth?", "Mount Everest"},
		{"Who painted the Mona Lisa?", "Leonardo da Vinci"},
		{"What is the largest ocean on Earth?", "Pacific Ocean"},
		{"How many continents are there?", "7"},
		{"What is the speed of light, in km/s, to the nearest thousand?", "300000"},
	}
	for _, q := range buzzers {
		if _, err := service.CreateBuzzerQuestion(ctx, quizID, q.text, q.answer, nil); err != nil {
			return err
		}
	}

	log.Info().Str("quizId", quizID).Msg("sample quiz created")
	return nil
}
