package memory

import (
	"context"
	"testing"
	"time"

	"trivia-service/internal/domain"
)

func TestQuizStoreLifecycle(t *testing.T) {
	ctx := context.Background()
	store := NewQuizStore()

	quiz := domain.NewQuiz("quiz-1", time.Now())
	if err := store.Create(ctx, quiz); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	loaded, err := store.Get(ctx, "quiz-1")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if loaded.Status != domain.StatusSetup {
		t.Fatalf("expected setup status, got %s", loaded.Status)
	}

	loaded.Status = domain.StatusActive
	if err := store.Save(ctx, loaded); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	ids, err := store.ActiveIDs(ctx)
	if err != nil {
		t.Fatalf("active ids failed: %v", err)
	}
	if len(ids) != 1 || ids[0] != "quiz-1" {
		t.Fatalf("expected [quiz-1], got %v", ids)
	}

	if err := store.Delete(ctx, "quiz-1"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if _, err := store.Get(ctx, "quiz-1"); err != domain.ErrQuizNotFound {
		t.Fatalf("expected not found after delete, got %v", err)
	}
}

func TestQuizStoreReturnsCopies(t *testing.T) {
	ctx := context.Background()
	store := NewQuizStore()

	quiz := domain.NewQuiz("quiz-1", time.Now())
	quiz.Teams = []*domain.Team{{ID: "t1", Name: "Alpha"}}
	if err := store.Create(ctx, quiz); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	loaded, _ := store.Get(ctx, "quiz-1")
	loaded.Teams[0].Score = 99

	again, _ := store.Get(ctx, "quiz-1")
	if again.Teams[0].Score != 0 {
		t.Fatalf("mutation leaked into stored aggregate: %d", again.Teams[0].Score)
	}
}

func TestSnapshotStoreOrdersNewestFirst(t *testing.T) {
	ctx := context.Background()
	store := NewSnapshotStore()

	base := time.Now()
	for i, id := range []string{"s1", "s2", "s3"} {
		err := store.Create(ctx, &domain.Snapshot{
			ID:        id,
			QuizID:    "quiz-1",
			Name:      id,
			CreatedAt: base.Add(time.Duration(i) * time.Second),
		})
		if err != nil {
			t.Fatalf("create failed: %v", err)
		}
	}

	listed, err := store.List(ctx, "quiz-1")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(listed) != 3 || listed[0].ID != "s3" || listed[2].ID != "s1" {
		t.Fatalf("unexpected order: %+v", listed)
	}

	if err := store.Delete(ctx, "s2"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if _, err := store.Get(ctx, "s2"); err != domain.ErrSnapshotNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}
