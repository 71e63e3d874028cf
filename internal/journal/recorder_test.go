package journal

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/tbourn/go-gateway-errors/internal/domain"
	"github.com/tbourn/go-gateway-errors/internal/repo"
)

func newJournalDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := repo.OpenSQLite(filepath.Join(t.TempDir(), "journal.db"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("AutoMigrate: %v", err)
	}
	return db
}

func sample(code string) domain.ErrorEvent {
	return domain.ErrorEvent{Method: "GET", Path: "/users/*path", Tag: "connect", Code: code, Status: 200, Outcome: domain.OutcomeHandled}
}

func waitDone(t *testing.T, r *Recorder) {
	t.Helper()
	select {
	case <-r.Done():
	case <-time.After(5 * time.Second):
		t.Fatalf("recorder did not stop")
	}
}

func TestRecorder_WritesQueuedEventsOnClose(t *testing.T) {
	db := newJournalDB(t)
	r := NewRecorder(db, 16, WithLogger(zerolog.Nop()))

	for i := 0; i < 10; i++ {
		if !r.Record(sample("10002")) {
			t.Fatalf("event %d rejected", i)
		}
	}
	go r.Run(context.Background())
	r.Close()
	waitDone(t, r)

	n, err := repo.CountEvents(context.Background(), db, repo.EventFilter{})
	if err != nil || n != 10 {
		t.Fatalf("expected 10 events, got %d err=%v", n, err)
	}
}

func TestRecorder_DropsWhenFullOrClosed(t *testing.T) {
	r := NewRecorder(nil, 0, WithLogger(zerolog.Nop())) // buffer coerced to 1
	before := testutil.ToFloat64(journalEvents.WithLabelValues("dropped"))

	if !r.Record(sample("10002")) {
		t.Fatalf("first event should fit")
	}
	if r.Record(sample("10002")) {
		t.Fatalf("second event should be dropped on a full buffer")
	}
	r.Close()
	r.Close() // idempotent
	if r.Record(sample("10002")) {
		t.Fatalf("closed recorder must reject events")
	}
	if got := testutil.ToFloat64(journalEvents.WithLabelValues("dropped")); got != before+2 {
		t.Fatalf("dropped counter = %v; want %v", got, before+2)
	}
}

func TestRecorder_StopsOnContextCancel(t *testing.T) {
	r := NewRecorder(newJournalDB(t), 4, WithLogger(zerolog.Nop()))
	ctx, cancel := context.WithCancel(context.Background())
	go r.Run(ctx)
	cancel()
	waitDone(t, r)
}

func TestRecorder_PrunesOnTick(t *testing.T) {
	db := newJournalDB(t)
	old := sample("10002")
	old.CreatedAt = time.Now().UTC().Add(-48 * time.Hour)
	if err := repo.CreateEvent(context.Background(), db, &old); err != nil {
		t.Fatalf("seed: %v", err)
	}

	r := NewRecorder(db, 4, WithLogger(zerolog.Nop()), WithRetention(24*time.Hour))
	r.pruneEvery = 10 * time.Millisecond
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go r.Run(ctx)

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if n, _ := repo.CountEvents(context.Background(), db, repo.EventFilter{}); n == 0 {
			cancel()
			waitDone(t, r)
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("old event was not pruned")
}
