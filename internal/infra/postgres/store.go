package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"trivia-service/internal/domain"
)

// QuizStore persists each quiz aggregate as a single JSONB row. The
// whole document commits in one statement, so teams, questions and
// phase state never drift apart.
type QuizStore struct {
	pool *pgxpool.Pool
}

func NewQuizStore(pool *pgxpool.Pool) *QuizStore {
	return &QuizStore{pool: pool}
}

func (s *QuizStore) Create(ctx context.Context, quiz *domain.Quiz) error {
	data, err := json.Marshal(quiz)
	if err != nil {
		return fmt.Errorf("marshal quiz: %w", err)
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO quizzes (id, data, created_at) VALUES ($1, $2, $3)`,
		quiz.ID, data, quiz.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert quiz: %w", err)
	}
	return nil
}

func (s *QuizStore) Get(ctx context.Context, quizID string) (*domain.Quiz, error) {
	var raw []byte
	err := s.pool.QueryRow(ctx, `SELECT data FROM quizzes WHERE id=$1`, quizID).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrQuizNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load quiz: %w", err)
	}
	var quiz domain.Quiz
	if err := json.Unmarshal(raw, &quiz); err != nil {
		return nil, fmt.Errorf("unmarshal quiz: %w", err)
	}
	return &quiz, nil
}

func (s *QuizStore) Save(ctx context.Context, quiz *domain.Quiz) error {
	data, err := json.Marshal(quiz)
	if err != nil {
		return fmt.Errorf("marshal quiz: %w", err)
	}
	tag, err := s.pool.Exec(ctx, `UPDATE quizzes SET data=$2 WHERE id=$1`, quiz.ID, data)
	if err != nil {
		return fmt.Errorf("save quiz: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrQuizNotFound
	}
	return nil
}

func (s *QuizStore) Delete(ctx context.Context, quizID string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM quizzes WHERE id=$1`, quizID)
	if err != nil {
		return fmt.Errorf("delete quiz: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrQuizNotFound
	}
	return nil
}

func (s *QuizStore) ActiveIDs(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id FROM quizzes WHERE data->>'status' = $1 ORDER BY id`,
		string(domain.StatusActive))
	if err != nil {
		return nil, fmt.Errorf("list active quizzes: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan quiz id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// SnapshotStore persists point-in-time copies of quiz aggregates.
type SnapshotStore struct {
	pool *pgxpool.Pool
}

func NewSnapshotStore(pool *pgxpool.Pool) *SnapshotStore {
	return &SnapshotStore{pool: pool}
}

func (s *SnapshotStore) Create(ctx context.Context, snapshot *domain.Snapshot) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO quiz_snapshots (id, quiz_id, name, data, created_at) VALUES ($1, $2, $3, $4, $5)`,
		snapshot.ID, snapshot.QuizID, snapshot.Name, snapshot.Data, snapshot.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert snapshot: %w", err)
	}
	return nil
}

func (s *SnapshotStore) List(ctx context.Context, quizID string) ([]*domain.Snapshot, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, quiz_id, name, data, created_at FROM quiz_snapshots WHERE quiz_id=$1 ORDER BY created_at DESC, id DESC`,
		quizID)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	defer rows.Close()

	var snapshots []*domain.Snapshot
	for rows.Next() {
		var snap domain.Snapshot
		if err := rows.Scan(&snap.ID, &snap.QuizID, &snap.Name, &snap.Data, &snap.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		snapshots = append(snapshots, &snap)
	}
	return snapshots, rows.Err()
}

func (s *SnapshotStore) Get(ctx context.Context, snapshotID string) (*domain.Snapshot, error) {
	var snap domain.Snapshot
	err := s.pool.QueryRow(ctx,
		`SELECT id, quiz_id, name, data, created_at FROM quiz_snapshots WHERE id=$1`,
		snapshotID).Scan(&snap.ID, &snap.QuizID, &snap.Name, &snap.Data, &snap.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrSnapshotNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	return &snap, nil
}

func (s *SnapshotStore) Delete(ctx context.Context, snapshotID string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM quiz_snapshots WHERE id=$1`, snapshotID)
	if err != nil {
		return fmt.Errorf("delete snapshot: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrSnapshotNotFound
	}
	return nil
}
