package retention

import (
	"context"
	"fmt"
	"testing"
	"time"

	"mercator-hq/ladder/pkg/records"
	"mercator-hq/ladder/pkg/records/storage"
)

var now = time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)

func seedDays(t *testing.T, store records.Store, ages ...int) {
	t.Helper()
	for i, days := range ages {
		r := &records.Record{
			ID:          fmt.Sprintf("r-%d", i),
			Ladder:      "seasons",
			EvaluatedAt: now.AddDate(0, 0, -days),
		}
		if err := store.Store(context.Background(), r); err != nil {
			t.Fatal(err)
		}
	}
}

func newTestPruner(store records.Store, cfg *Config) *Pruner {
	p := NewPruner(store, cfg, nil)
	p.now = func() time.Time { return now }
	return p
}

func TestPruner_ByAge(t *testing.T) {
	store := storage.NewMemoryStore()
	seedDays(t, store, 0, 5, 29, 30, 31, 90)

	p := newTestPruner(store, &Config{RetentionDays: 30})
	deleted, err := p.Prune(context.Background())
	if err != nil {
		t.Fatalf("Prune() error = %v", err)
	}
	if deleted != 2 {
		t.Errorf("Prune() deleted %d, want 2 (31 and 90 days old)", deleted)
	}
	if n, _ := store.Count(context.Background(), nil); n != 4 {
		t.Errorf("remaining = %d, want 4", n)
	}
}

func TestPruner_ByCount(t *testing.T) {
	store := storage.NewMemoryStore()
	seedDays(t, store, 1, 2, 3, 4, 5)

	p := newTestPruner(store, &Config{MaxRecords: 3})
	deleted, err := p.Prune(context.Background())
	if err != nil {
		t.Fatalf("Prune() error = %v", err)
	}
	if deleted != 2 {
		t.Errorf("Prune() deleted %d, want 2", deleted)
	}

	left, _ := store.Query(context.Background(), &records.Query{Oldest: true})
	if len(left) != 3 || left[0].ID != "r-2" {
		t.Errorf("remaining = %v, want the three newest", left)
	}
}

func TestPruner_Disabled(t *testing.T) {
	store := storage.NewMemoryStore()
	seedDays(t, store, 1000)

	p := newTestPruner(store, &Config{})
	if deleted, err := p.Prune(context.Background()); err != nil || deleted != 0 {
		t.Errorf("Prune() = %d, %v; want 0, nil", deleted, err)
	}
}

func TestScheduler_StartStop(t *testing.T) {
	p := newTestPruner(storage.NewMemoryStore(), &Config{RetentionDays: 1, PruneSchedule: "0 3 * * *"})
	s := p.Scheduler()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := s.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if !s.IsRunning() {
		t.Error("scheduler should be running")
	}
	if err := s.Start(ctx); err == nil {
		t.Error("second Start() should fail")
	}
	if next := s.NextRun(); next == nil || next.Hour() != 3 {
		t.Errorf("NextRun() = %v, want 03:00", next)
	}

	s.Stop()
	if s.IsRunning() {
		t.Error("scheduler should be stopped")
	}
}

func TestScheduler_StopsOnCancel(t *testing.T) {
	p := newTestPruner(storage.NewMemoryStore(), &Config{PruneSchedule: "@every 1h"})
	s := p.Scheduler()

	ctx, cancel := context.WithCancel(context.Background())
	if err := s.Start(ctx); err != nil {
		t.Fatal(err)
	}
	cancel()

	deadline := time.Now().Add(2 * time.Second)
	for s.IsRunning() && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if s.IsRunning() {
		t.Error("scheduler still running after cancel")
	}
}

func TestScheduler_EmptyAndInvalid(t *testing.T) {
	p := newTestPruner(storage.NewMemoryStore(), &Config{})
	if err := p.Scheduler().Start(context.Background()); err != nil {
		t.Errorf("empty schedule: %v", err)
	}
	if p.Scheduler().IsRunning() {
		t.Error("empty schedule should not start")
	}

	p = newTestPruner(storage.NewMemoryStore(), &Config{PruneSchedule: "not cron"})
	if err := p.Scheduler().Start(context.Background()); err == nil {
		t.Error("expected error for invalid schedule")
	}
}
