// internal/api/job/store_test.go
package job

import (
	"errors"
	"testing"
	"time"
)

func TestStore_CreateAndGet(t *testing.T) {
	store := NewStore(100, time.Hour)

	job := store.Create("NVDA")
	if job.ID == "" {
		t.Error("expected job ID")
	}
	if job.Ticker != "NVDA" {
		t.Errorf("expected ticker NVDA, got %s", job.Ticker)
	}
	if job.Status != StatusPending {
		t.Errorf("expected pending, got %s", job.Status)
	}

	retrieved, err := store.Get(job.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if retrieved.ID != job.ID {
		t.Error("IDs don't match")
	}
}

func TestStore_UniqueIDs(t *testing.T) {
	store := NewStore(100, time.Hour)

	a := store.Create("NVDA")
	b := store.Create("NVDA")
	if a.ID == b.ID {
		t.Error("expected distinct job IDs")
	}
}

func TestStore_Update(t *testing.T) {
	store := NewStore(100, time.Hour)
	job := store.Create("NVDA")

	err := store.Update(job.ID, func(j *Job) {
		j.Status = StatusRunning
	})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	retrieved, _ := store.Get(job.ID)
	if retrieved.Status != StatusRunning {
		t.Errorf("expected running, got %s", retrieved.Status)
	}
}

func TestStore_MaxSize(t *testing.T) {
	store := NewStore(2, time.Hour)

	job1 := store.Create("NVDA")
	store.Create("AAPL")
	store.Create("MSFT") // Should evict job1

	_, err := store.Get(job1.ID)
	if err == nil {
		t.Error("expected job1 to be evicted")
	}
}

func TestStore_NotFound(t *testing.T) {
	store := NewStore(100, time.Hour)

	_, err := store.Get("nonexistent")
	if !errors.Is(err, ErrJobNotFound) {
		t.Errorf("expected ErrJobNotFound, got %v", err)
	}
}

func TestStore_FinishedJobsExpire(t *testing.T) {
	store := NewStore(100, time.Millisecond)

	job := store.Create("NVDA")
	store.Update(job.ID, func(j *Job) { j.Status = StatusComplete })

	time.Sleep(5 * time.Millisecond)

	if _, err := store.Get(job.ID); !errors.Is(err, ErrJobNotFound) {
		t.Errorf("expected expired job to be gone, got %v", err)
	}
}

func TestStore_RunningJobsNeverExpire(t *testing.T) {
	store := NewStore(100, time.Millisecond)

	job := store.Create("NVDA")
	store.Update(job.ID, func(j *Job) { j.Status = StatusRunning })

	time.Sleep(5 * time.Millisecond)

	if _, err := store.Get(job.ID); err != nil {
		t.Errorf("running job should survive the TTL, got %v", err)
	}
}

func TestStore_Active(t *testing.T) {
	store := NewStore(100, time.Hour)

	a := store.Create("NVDA")
	store.Create("AAPL")
	store.Update(a.ID, func(j *Job) { j.Status = StatusComplete })

	if got := store.Active(); got != 1 {
		t.Errorf("expected 1 active job, got %d", got)
	}
}
