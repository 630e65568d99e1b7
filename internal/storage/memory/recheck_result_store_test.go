package memory

import (
	"context"
	"errors"
	"testing"

	"dog-scout/internal/domain"
	"dog-scout/internal/storage"
)

func TestRecheckResultStore_GetPreviousScore(t *testing.T) {
	store := NewRecheckResultStore()
	ctx := context.Background()

	prev, err := store.GetPreviousScore(ctx, 1, 5)
	if err != nil || prev != nil {
		t.Fatalf("no results: prev=%v err=%v", prev, err)
	}

	_, _ = store.Insert(ctx, &domain.RecheckResult{SourceAlertID: 1, HorizonMinutes: 5, CurrentScore: 72})
	_, _ = store.Insert(ctx, &domain.RecheckResult{SourceAlertID: 2, HorizonMinutes: 5, CurrentScore: 10})

	prev, _ = store.GetPreviousScore(ctx, 1, 15)
	if prev == nil || *prev != 72 {
		t.Errorf("previous for 15m: got %v, want 72", prev)
	}

	prev, _ = store.GetPreviousScore(ctx, 1, 5)
	if prev != nil {
		t.Errorf("5m has no earlier horizon, got %v", *prev)
	}
}

func TestRecheckResultStore_OneResultPerJob(t *testing.T) {
	store := NewRecheckResultStore()
	ctx := context.Background()

	if _, err := store.Insert(ctx, &domain.RecheckResult{JobID: 7, SourceAlertID: 1, HorizonMinutes: 5}); err != nil {
		t.Fatalf("first insert: %v", err)
	}
	_, err := store.Insert(ctx, &domain.RecheckResult{JobID: 7, SourceAlertID: 1, HorizonMinutes: 5})
	if !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("second insert: got %v, want ErrDuplicateKey", err)
	}
}
