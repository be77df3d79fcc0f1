package metrics

import (
	"sync"
	"testing"
	"time"
)

func TestInMemoryRecorder_Counters(t *testing.T) {
	t.Parallel()

	m := NewInMemory()
	m.IncUserCreated()
	m.IncUserCreated()
	m.IncExerciseAdded()
	m.IncLogCacheHit()
	m.IncLogCacheMiss()
	m.IncLogCacheMiss()
	m.ObserveLogQueryDuration(2 * time.Millisecond)
	m.ObserveLogQueryDuration(3 * time.Millisecond)

	snap := m.Snapshot()

	if snap.UsersCreated != 2 {
		t.Errorf("UsersCreated = %d, want 2", snap.UsersCreated)
	}
	if snap.ExercisesAdded != 1 {
		t.Errorf("ExercisesAdded = %d, want 1", snap.ExercisesAdded)
	}
	if snap.LogCacheHits != 1 || snap.LogCacheMisses != 2 {
		t.Errorf("cache hits/misses = %d/%d, want 1/2", snap.LogCacheHits, snap.LogCacheMisses)
	}
	if snap.LogQueryDurationCount != 2 {
		t.Errorf("LogQueryDurationCount = %d, want 2", snap.LogQueryDurationCount)
	}
	if snap.LogQueryDurationTotalNs != int64(5*time.Millisecond) {
		t.Errorf("LogQueryDurationTotalNs = %d, want %d", snap.LogQueryDurationTotalNs, int64(5*time.Millisecond))
	}
}

func TestInMemoryRecorder_Concurrent(t *testing.T) {
	t.Parallel()

	m := NewInMemory()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.IncExerciseAdded()
		}()
	}
	wg.Wait()

	if got := m.Snapshot().ExercisesAdded; got != 50 {
		t.Errorf("ExercisesAdded = %d, want 50", got)
	}
}

func TestNoopRecorder_ImplementsRecorder(t *testing.T) {
	t.Parallel()

	var r Recorder = NewNoop()
	r.IncUserCreated()
	r.IncExerciseAdded()
	r.IncLogCacheHit()
	r.IncLogCacheMiss()
	r.ObserveLogQueryDuration(time.Second)
}
