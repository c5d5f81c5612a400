package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"trivia-service/internal/domain"
)

// QuizStore is an in-memory implementation of game.QuizStore. Get and
// Save exchange deep copies so callers mutate a private aggregate and
// commit it atomically, matching the read-modify-write contract of the
// persistent stores.
type QuizStore struct {
	mu      sync.RWMutex
	quizzes map[string]*domain.Quiz
}

func NewQuizStore() *QuizStore {
	return &QuizStore{quizzes: make(map[string]*domain.Quiz)}
}

func (s *QuizStore) Create(_ context.Context, quiz *domain.Quiz) error {
	clone, err := cloneQuiz(quiz)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.quizzes[quiz.ID] = clone
	return nil
}

func (s *QuizStore) Get(_ context.Context, quizID string) (*domain.Quiz, error) {
	s.mu.RLock()
	quiz, ok := s.quizzes[quizID]
	s.mu.RUnlock()
	if !ok {
		return nil, domain.ErrQuizNotFound
	}
	return cloneQuiz(quiz)
}

func (s *QuizStore) Save(_ context.Context, quiz *domain.Quiz) error {
	clone, err := cloneQuiz(quiz)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.quizzes[quiz.ID]; !ok {
		return domain.ErrQuizNotFound
	}
	s.quizzes[quiz.ID] = clone
	return nil
}

func (s *QuizStore) Delete(_ context.Context, quizID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.quizzes[quizID]; !ok {
		return domain.ErrQuizNotFound
	}
	delete(s.quizzes, quizID)
	return nil
}

func (s *QuizStore) ActiveIDs(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var ids []string
	for id, quiz := range s.quizzes {
		if quiz.Status == domain.StatusActive {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

// cloneQuiz deep-copies an aggregate through its JSON form, the same
// representation the persistent stores use.
func cloneQuiz(quiz *domain.Quiz) (*domain.Quiz, error) {
	data, err := json.Marshal(quiz)
	if err != nil {
		return nil, fmt.Errorf("clone quiz: %w", err)
	}
	var clone domain.Quiz
	if err := json.Unmarshal(data, &clone); err != nil {
		return nil, fmt.Errorf("clone quiz: %w", err)
	}
	return &clone, nil
}

// SnapshotStore is an in-memory implementation of game.SnapshotStore.
type SnapshotStore struct {
	mu        sync.RWMutex
	snapshots map[string]*domain.Snapshot
}

func NewSnapshotStore() *SnapshotStore {
	return &SnapshotStore{snapshots: make(map[string]*domain.Snapshot)}
}

func (s *SnapshotStore) Create(_ context.Context, snapshot *domain.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *snapshot
	s.snapshots[snapshot.ID] = &copied
	return nil
}

func (s *SnapshotStore) List(_ context.Context, quizID string) ([]*domain.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*domain.Snapshot
	for _, snapshot := range s.snapshots {
		if snapshot.QuizID == quizID {
			copied := *snapshot
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *SnapshotStore) Get(_ context.Context, snapshotID string) (*domain.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snapshot, ok := s.snapshots[snapshotID]
	if !ok {
		return nil, domain.ErrSnapshotNotFound
	}
	copied := *snapshot
	return &copied, nil
}

func (s *SnapshotStore) Delete(_ context.Context, snapshotID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.snapshots[snapshotID]; !ok {
		return domain.ErrSnapshotNotFound
	}
	delete(s.snapshots, snapshotID)
	return nil
}
