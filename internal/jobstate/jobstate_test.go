package jobstate

import (
	"context"
	"testing"
	"time"
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	snap := Snapshot{
		JobID:     "job-1",
		Sources:   []string{"pagine_gialle"},
		Status:    StatusQueued,
		CreatedAt: time.Now(),
	}
	if err := store.Save(ctx, snap); err != nil {
		t.Fatal(err)
	}

	got, found, err := store.Get(ctx, "job-1")
	if err != nil || !found {
		t.Fatalf("get: found=%v err=%v", found, err)
	}
	if got.Status != StatusQueued || len(got.Sources) != 1 {
		t.Errorf("snapshot = %+v", got)
	}

	// Saved snapshots are isolated from later mutation of the original.
	snap.Sources[0] = "mutated"
	got, _, _ = store.Get(ctx, "job-1")
	if got.Sources[0] != "pagine_gialle" {
		t.Error("store must copy source lists")
	}

	if err := store.Remove(ctx, "job-1"); err != nil {
		t.Fatal(err)
	}
	if _, found, _ := store.Get(ctx, "job-1"); found {
		t.Error("removed job should be gone")
	}
}

func TestMemoryStoreListNewestFirst(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	base := time.Now()

	for i, id := range []string{"job-a", "job-b", "job-c"} {
		snap := Snapshot{JobID: id, CreatedAt: base.Add(time.Duration(i) * time.Minute)}
		if err := store.Save(ctx, snap); err != nil {
			t.Fatal(err)
		}
	}

	jobs, err := store.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(jobs) != 3 {
		t.Fatalf("expected 3 jobs, got %d", len(jobs))
	}
	if jobs[0].JobID != "job-c" || jobs[2].JobID != "job-a" {
		t.Errorf("jobs not newest-first: %v, %v, %v", jobs[0].JobID, jobs[1].JobID, jobs[2].JobID)
	}
}

func TestSnapshotDone(t *testing.T) {
	tests := []struct {
		status string
		want   bool
	}{
		{StatusQueued, false},
		{StatusRunning, false},
		{StatusCompleted, true},
		{StatusFailed, true},
	}
	for _, tt := range tests {
		if got := (Snapshot{Status: tt.status}).Done(); got != tt.want {
			t.Errorf("Done(%s) = %v, want %v", tt.status, got, tt.want)
		}
	}
}
