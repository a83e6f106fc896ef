package domain

import "time"

// HealthStatus represents the derived health of one integration.
type HealthStatus string

const (
	StatusHealthy   HealthStatus = "healthy"
	StatusDegraded  HealthStatus = "degraded"
	StatusUnhealthy HealthStatus = "unhealthy"
)

// ErrorClass partitions probe failures into those worth retrying soon and
// those that need human intervention.
type ErrorClass string

const (
	// ClassNone marks a state with no recorded failure.
	ClassNone ErrorClass = ""

	ClassTransient ErrorClass = "transient"
	ClassHard      ErrorClass = "hard"
)

// HealthState is the per-integration health record. A zero LastCheck means
// the integration has never been probed.
type HealthState struct {
	Failures       int
	Successes      int
	LastCheck      time.Time
	Status         HealthStatus
	Backoff        time.Duration
	LastErrorClass ErrorClass
}

// TransitionKind classifies the boundary crossing between two consecutive
// health snapshots. Only meaningful crossings trigger side effects.
type TransitionKind string

const (
	TransitionNone            TransitionKind = "no_change"
	TransitionInitialFailure  TransitionKind = "initial_failure"
	TransitionBecameUnhealthy TransitionKind = "became_unhealthy"
	TransitionBecameHealthy   TransitionKind = "became_healthy"
	TransitionBecameDegraded  TransitionKind = "became_degraded"
)

// Transition records a detected status change. Ephemeral: computed from two
// snapshots and consumed immediately by the response handler.
type Transition struct {
	Kind TransitionKind
	From HealthStatus
	To   HealthStatus
}
