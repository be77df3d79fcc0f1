// Package metrics provides lightweight hooks for instrumentation.
package metrics

import "time"

// Recorder captures metric events for the application.
// Implementations can expose these to Prometheus, StatsD, etc.
type Recorder interface {
	// User metrics
	IncUserCreated()
	IncExerciseAdded()

	// Log query metrics
	IncLogCacheHit()
	IncLogCacheMiss()
	ObserveLogQueryDuration(duration time.Duration)
}

// Snapshotter exposes a snapshot of current metrics.
type Snapshotter interface {
	Snapshot() Snapshot
}
