package game

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"trivia-service/internal/domain"
)

const autoSnapshotPrefix = "Auto: "

// CreateSnapshot stores a named serialized copy of the full aggregate.
func (s *GameService) CreateSnapshot(ctx context.Context, quizID, name string) (string, error) {
	unlock := s.lockQuiz(quizID)
	defer unlock()

	quiz, err := s.store.Get(ctx, quizID)
	if err != nil {
		return "", err
	}
	data, err := json.Marshal(quiz)
	if err != nil {
		return "", fmt.Errorf("marshal snapshot: %w", err)
	}
	snapshot := &domain.Snapshot{
		ID:        uuid.NewString(),
		QuizID:    quizID,
		Name:      name,
		Data:      data,
		CreatedAt: s.timers.now(),
	}
	if err := s.snaps.Create(ctx, snapshot); err != nil {
		return "", fmt.Errorf("store snapshot: %w", err)
	}
	return snapshot.ID, nil
}

// ListSnapshots returns a quiz's snapshots, newest first.
func (s *GameService) ListSnapshots(ctx context.Context, quizID string) ([]*domain.Snapshot, error) {
	return s.snaps.List(ctx, quizID)
}

// RestoreSnapshot replaces the live aggregate with the snapshot's
// copy. The restore is a lossless round trip of everything the
// aggregate holds.
func (s *GameService) RestoreSnapshot(ctx context.Context, snapshotID string) error {
	snapshot, err := s.snaps.Get(ctx, snapshotID)
	if err != nil {
		return err
	}

	unlock := s.lockQuiz(snapshot.QuizID)
	defer unlock()

	var quiz domain.Quiz
	if err := json.Unmarshal(snapshot.Data, &quiz); err != nil {
		return fmt.Errorf("unmarshal snapshot %s: %w", snapshotID, err)
	}
	if err := s.store.Save(ctx, &quiz); err != nil {
		return fmt.Errorf("restore quiz %s: %w", snapshot.QuizID, err)
	}
	s.notify(ctx, snapshot.QuizID)
	return nil
}

// DeleteSnapshot removes a stored snapshot.
func (s *GameService) DeleteSnapshot(ctx context.Context, snapshotID string) error {
	return s.snaps.Delete(ctx, snapshotID)
}

// AutoSnapshot records a rolling snapshot of an active quiz, pruning
// the oldest automatic one beyond the retention limit. Inactive
// quizzes are skipped.
func (s *GameService) AutoSnapshot(ctx context.Context, quizID string) error {
	quiz, err := s.store.Get(ctx, quizID)
	if err != nil {
		return err
	}
	if quiz.Status != domain.StatusActive {
		return nil
	}

	existing, err := s.snaps.List(ctx, quizID)
	if err != nil {
		return err
	}
	auto := make([]*domain.Snapshot, 0, len(existing))
	for _, snapshot := range existing {
		if strings.HasPrefix(snapshot.Name, autoSnapshotPrefix) {
			auto = append(auto, snapshot)
		}
	}
	// List is newest-first; drop the oldest to stay under the limit.
	if len(auto) >= s.autoKeep {
		if err := s.snaps.Delete(ctx, auto[len(auto)-1].ID); err != nil {
			return err
		}
	}

	name := autoSnapshotPrefix + s.timers.now().Format("15:04:05")
	_, err = s.CreateSnapshot(ctx, quizID, name)
	return err
}
