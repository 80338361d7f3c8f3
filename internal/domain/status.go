package domain

import "time"

// QuizStatus is derived from the clock and the IsActive latch; it is never
// stored directly.
type QuizStatus string

const (
	StatusScheduled QuizStatus = "Scheduled"
	StatusActive    QuizStatus = "Active"
	StatusCompleted QuizStatus = "Completed"
)

// StatusAt derives the lifecycle state of a quiz at the given instant.
// An explicit host deactivation (IsActive=false) forces Completed regardless
// of the clock; otherwise the declared time window decides. Callers must
// re-evaluate per operation rather than caching the result.
func StatusAt(q Quiz, now time.Time) QuizStatus {
	if !q.IsActive {
		return StatusCompleted
	}
	if now.Before(q.StartTime) {
		return StatusScheduled
	}
	if now.Before(q.EndTime) {
		return StatusActive
	}
	return StatusCompleted
}
