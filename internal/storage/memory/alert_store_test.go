package memory

import (
	"context"
	"errors"
	"testing"

	"dog-scout/internal/domain"
	"dog-scout/internal/storage"
)

func alert(token, pair string, score float64, createdAt int64) *domain.Alert {
	return &domain.Alert{
		Kind:         domain.AlertKindInitial,
		ChainID:      "base",
		TokenAddress: token,
		PairAddress:  pair,
		FinalScore:   score,
		Status:       domain.DeliveryDryRun,
		DryRun:       true,
		CreatedAt:    createdAt,
	}
}

func TestAlertStore_InsertAndGet(t *testing.T) {
	store := NewAlertStore()
	ctx := context.Background()

	id, err := store.Insert(ctx, alert("0xtoken", "0xpair", 81.5, 1000))
	if err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	got, err := store.GetByID(ctx, id)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.FinalScore != 81.5 {
		t.Errorf("FinalScore: got %v, want 81.5", got.FinalScore)
	}

	if _, err := store.GetByID(ctx, 42); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestAlertStore_HasRecentMatchesTokenOrPair(t *testing.T) {
	store := NewAlertStore()
	ctx := context.Background()
	_, _ = store.Insert(ctx, alert("0xtoken", "0xpair", 80, 10_000))

	tests := []struct {
		name  string
		token string
		pair  string
		since int64
		want  bool
	}{
		{"same token other pair", "0xtoken", "0xother", 5_000, true},
		{"same pair other token", "0xnew", "0xpair", 5_000, true},
		{"unrelated", "0xnew", "0xother", 5_000, false},
		{"outside window", "0xtoken", "0xpair", 10_001, false},
		{"window boundary inclusive", "0xtoken", "0xpair", 10_000, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := store.HasRecent(ctx, tt.token, tt.pair, tt.since)
			if err != nil {
				t.Fatalf("HasRecent failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAlertStore_ListRecent(t *testing.T) {
	store := NewAlertStore()
	ctx := context.Background()
	_, _ = store.Insert(ctx, alert("a", "pa", 1, 100))
	_, _ = store.Insert(ctx, alert("b", "pb", 2, 300))
	_, _ = store.Insert(ctx, alert("c", "pc", 3, 200))

	got, _ := store.ListRecent(ctx, 2)
	if len(got) != 2 {
		t.Fatalf("len: got %d, want 2", len(got))
	}
	if got[0].TokenAddress != "b" || got[1].TokenAddress != "c" {
		t.Errorf("order: got %s,%s", got[0].TokenAddress, got[1].TokenAddress)
	}
}
