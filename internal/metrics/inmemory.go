package metrics

import (
	"sync/atomic"
	"time"
)

// Snapshot captures current in-memory counters.
type Snapshot struct {
	UsersCreated            uint64
	ExercisesAdded          uint64
	LogCacheHits            uint64
	LogCacheMisses          uint64
	LogQueryDurationCount   uint64
	LogQueryDurationTotalNs int64
}

// InMemoryRecorder keeps counters in process memory. It backs the
// /metrics endpoint and the tests.
type InMemoryRecorder struct {
	usersCreated            uint64
	exercisesAdded          uint64
	logCacheHits            uint64
	logCacheMisses          uint64
	logQueryDurationCount   uint64
	logQueryDurationTotalNs int64
}

// NewInMemory returns a Recorder that stores counters in memory.
func NewInMemory() *InMemoryRecorder {
	return &InMemoryRecorder{}
}

// Snapshot returns a copy of the counters.
func (m *InMemoryRecorder) Snapshot() Snapshot {
	return Snapshot{
		UsersCreated:            atomic.LoadUint64(&m.usersCreated),
		ExercisesAdded:          atomic.LoadUint64(&m.exercisesAdded),
		LogCacheHits:            atomic.LoadUint64(&m.logCacheHits),
		LogCacheMisses:          atomic.LoadUint64(&m.logCacheMisses),
		LogQueryDurationCount:   atomic.LoadUint64(&m.logQueryDurationCount),
		LogQueryDurationTotalNs: atomic.LoadInt64(&m.logQueryDurationTotalNs),
	}
}

// IncUserCreated increments the user created counter.
func (m *InMemoryRecorder) IncUserCreated() {
	atomic.AddUint64(&m.usersCreated, 1)
}

// IncExerciseAdded increments the exercise added counter.
func (m *InMemoryRecorder) IncExerciseAdded() {
	atomic.AddUint64(&m.exercisesAdded, 1)
}

// IncLogCacheHit increments cache hit counter.
func (m *InMemoryRecorder) IncLogCacheHit() {
	atomic.AddUint64(&m.logCacheHits, 1)
}

// IncLogCacheMiss increments cache miss counter.
func (m *InMemoryRecorder) IncLogCacheMiss() {
	atomic.AddUint64(&m.logCacheMisses, 1)
}

// ObserveLogQueryDuration records log query duration.
func (m *InMemoryRecorder) ObserveLogQueryDuration(duration time.Duration) {
	atomic.AddUint64(&m.logQueryDurationCount, 1)
	atomic.AddInt64(&m.logQueryDurationTotalNs, duration.Nanoseconds())
}
