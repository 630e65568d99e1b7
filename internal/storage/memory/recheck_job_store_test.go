package memory

import (
	"context"
	"errors"
	"testing"

	"dog-scout/internal/domain"
	"dog-scout/internal/storage"
)

func job(alertID int64, horizon int, dueAt int64) *domain.RecheckJob {
	return &domain.RecheckJob{
		SourceAlertID:  alertID,
		ChainID:        "base",
		PairAddress:    "0xpair",
		TokenAddress:   "0xtoken",
		TokenSymbol:    "DOG",
		HorizonMinutes: horizon,
		DueAt:          dueAt,
		Status:         domain.JobPending,
	}
}

func TestRecheckJobStore_EnqueueIdempotent(t *testing.T) {
	store := NewRecheckJobStore()
	ctx := context.Background()

	n, err := store.Enqueue(ctx, []*domain.RecheckJob{job(1, 5, 1000), job(1, 15, 2000)})
	if err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}
	if n != 2 {
		t.Errorf("inserted: got %d, want 2", n)
	}

	n, err = store.Enqueue(ctx, []*domain.RecheckJob{job(1, 5, 9999), job(1, 15, 9999)})
	if err != nil {
		t.Fatalf("second Enqueue failed: %v", err)
	}
	if n != 0 {
		t.Errorf("second insert: got %d, want 0", n)
	}

	jobs, _ := store.ListByAlert(ctx, 1)
	if len(jobs) != 2 {
		t.Fatalf("jobs for alert: got %d, want 2", len(jobs))
	}
	if jobs[0].DueAt != 1000 {
		t.Errorf("original due_at must be kept: got %d", jobs[0].DueAt)
	}
}

func TestRecheckJobStore_EnqueueInvalid(t *testing.T) {
	store := NewRecheckJobStore()
	_, err := store.Enqueue(context.Background(), []*domain.RecheckJob{job(0, 5, 1)})
	if !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}

func TestRecheckJobStore_ListDueOrdering(t *testing.T) {
	store := NewRecheckJobStore()
	ctx := context.Background()

	_, _ = store.Enqueue(ctx, []*domain.RecheckJob{job(1, 15, 3000), job(2, 5, 1000), job(3, 5, 2000), job(4, 5, 9000)})

	due, err := store.ListDue(ctx, 3000, 10)
	if err != nil {
		t.Fatalf("ListDue failed: %v", err)
	}
	if len(due) != 3 {
		t.Fatalf("due: got %d, want 3", len(due))
	}
	for i, want := range []int64{1000, 2000, 3000} {
		if due[i].DueAt != want {
			t.Errorf("due[%d].DueAt: got %d, want %d", i, due[i].DueAt, want)
		}
	}

	limited, _ := store.ListDue(ctx, 3000, 1)
	if len(limited) != 1 || limited[0].DueAt != 1000 {
		t.Errorf("limit not applied in due order: %+v", limited)
	}
}

func TestRecheckJobStore_CompareAndSwap(t *testing.T) {
	store := NewRecheckJobStore()
	ctx := context.Background()
	_, _ = store.Enqueue(ctx, []*domain.RecheckJob{job(1, 5, 1000)})

	ok, err := store.CompareAndSwapStatus(ctx, 1, domain.JobPending, domain.JobRunning, 1500)
	if err != nil || !ok {
		t.Fatalf("first swap: ok=%v err=%v", ok, err)
	}
	ok, err = store.CompareAndSwapStatus(ctx, 1, domain.JobPending, domain.JobRunning, 1600)
	if err != nil || ok {
		t.Fatalf("second swap must not apply: ok=%v err=%v", ok, err)
	}

	got, _ := store.GetByID(ctx, 1)
	if got.Status != domain.JobRunning || got.Attempts != 1 {
		t.Errorf("after claim: status=%s attempts=%d", got.Status, got.Attempts)
	}

	if _, err := store.CompareAndSwapStatus(ctx, 1, domain.JobDone, domain.JobPending, 1700); !errors.Is(err, storage.ErrInvalidTransition) {
		t.Errorf("expected ErrInvalidTransition, got %v", err)
	}
}

func TestRecheckJobStore_MarkDoneAndFailed(t *testing.T) {
	store := NewRecheckJobStore()
	ctx := context.Background()
	_, _ = store.Enqueue(ctx, []*domain.RecheckJob{job(1, 5, 1000), job(1, 15, 1000)})

	if err := store.MarkDone(ctx, 1, 2000); !errors.Is(err, storage.ErrInvalidTransition) {
		t.Errorf("MarkDone on pending: expected ErrInvalidTransition, got %v", err)
	}

	_, _ = store.CompareAndSwapStatus(ctx, 1, domain.JobPending, domain.JobRunning, 1500)
	_, _ = store.CompareAndSwapStatus(ctx, 2, domain.JobPending, domain.JobRunning, 1500)

	if err := store.MarkDone(ctx, 1, 2000); err != nil {
		t.Fatalf("MarkDone failed: %v", err)
	}
	if err := store.MarkFailed(ctx, 2, "no market data", 2000); err != nil {
		t.Fatalf("MarkFailed failed: %v", err)
	}

	failed, _ := store.ListByStatus(ctx, domain.JobFailed, 10)
	if len(failed) != 1 || failed[0].LastError != "no market data" {
		t.Errorf("failed jobs: %+v", failed)
	}

	if err := store.MarkFailed(ctx, 1, "late", 3000); !errors.Is(err, storage.ErrInvalidTransition) {
		t.Errorf("done job must be terminal, got %v", err)
	}
	if err := store.MarkDone(ctx, 99, 3000); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
