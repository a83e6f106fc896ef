// Package health holds the per-integration health record, its transition
// rules, and the error classification policy.
//
// The state machine is deliberately small:
//
//	healthy --hard failure--> degraded --3rd hard failure--> unhealthy
//	unhealthy/degraded --2 consecutive successes--> healthy
//
// Transient failures stretch the backoff but never move status; only hard
// failures count toward the unhealthy threshold.
package health

import (
	"time"

	"github.com/meetsync/healthwatch/internal/core/domain"
)

const (
	// BaseInterval is the starting delay between checks for a healthy or
	// freshly reset integration.
	BaseInterval = 5 * time.Minute

	// MaxBackoff caps transient-failure backoff growth.
	MaxBackoff = time.Hour

	// FailureThreshold is the consecutive hard-failure count at which an
	// integration becomes unhealthy.
	FailureThreshold = 3

	// RecoveryThreshold is the consecutive success count required to return
	// to healthy.
	RecoveryThreshold = 2
)

// NewState returns the default record for a never-checked integration.
func NewState() domain.HealthState {
	return domain.HealthState{
		Status:  domain.StatusHealthy,
		Backoff: BaseInterval,
	}
}

// DetermineStatus derives status from the failure/success counters. Status is
// never stored independently of this derivation.
func DetermineStatus(failures, successes int) domain.HealthStatus {
	switch {
	case failures >= FailureThreshold:
		return domain.StatusUnhealthy
	case failures > 0:
		return domain.StatusDegraded
	case successes >= RecoveryThreshold:
		return domain.StatusHealthy
	default:
		// Zero failures but not enough successes yet: freshly recovering.
		return domain.StatusDegraded
	}
}

// NextBackoff doubles the larger of the current backoff and the base
// interval, capped at MaxBackoff. Never shrinks, even on stale or zero input.
func NextBackoff(current time.Duration) time.Duration {
	next := max(current, BaseInterval) * 2
	return min(next, MaxBackoff)
}

// DueForCheck reports whether an integration should be probed at now.
// Never-checked integrations are always due.
func DueForCheck(st domain.HealthState, now time.Time) bool {
	if st.LastCheck.IsZero() {
		return true
	}
	return !now.Before(st.LastCheck.Add(st.Backoff))
}

// Outcome is a probe result after classification.
type Outcome struct {
	OK    bool
	Class domain.ErrorClass // set when !OK
}

// Success marks a successful probe.
func Success() Outcome { return Outcome{OK: true} }

// Failure marks a failed probe with its classification.
func Failure(class domain.ErrorClass) Outcome { return Outcome{Class: class} }

// UpdateHealth applies one probe outcome to a state snapshot and returns the
// new snapshot.
//
// A transient failure only stamps LastCheck and the error class: status,
// counters and the stored backoff stay put, and the grown backoff is applied
// separately via NextBackoff. A single blip must not demote status, and a
// string of transient failures never triggers deactivation on its own.
func UpdateHealth(st domain.HealthState, out Outcome, now time.Time) domain.HealthState {
	next := st
	next.LastCheck = now

	switch {
	case out.OK:
		next.Failures = 0
		next.Successes = st.Successes + 1
		next.Backoff = BaseInterval
		next.LastErrorClass = domain.ClassNone
	case out.Class == domain.ClassTransient:
		next.LastErrorClass = domain.ClassTransient
		return next
	default:
		// Hard failures reset backoff to base: they are not retried on a
		// stretched cadence, they wait for manual re-activation.
		next.Failures = st.Failures + 1
		next.Successes = 0
		next.Backoff = BaseInterval
		next.LastErrorClass = domain.ClassHard
	}

	next.Status = DetermineStatus(next.Failures, next.Successes)
	return next
}

// DetectTransition classifies the boundary between two consecutive snapshots.
// An integration that fails hard on its very first probe reports
// initial_failure even though its counters have not reached the unhealthy
// threshold yet.
func DetectTransition(old, next domain.HealthState) domain.Transition {
	tr := domain.Transition{Kind: domain.TransitionNone, From: old.Status, To: next.Status}

	switch {
	case old.LastCheck.IsZero() && next.Failures > 0:
		tr.Kind = domain.TransitionInitialFailure
	case old.Status != domain.StatusUnhealthy && next.Status == domain.StatusUnhealthy:
		tr.Kind = domain.TransitionBecameUnhealthy
	case old.Status == domain.StatusUnhealthy && next.Status == domain.StatusHealthy:
		tr.Kind = domain.TransitionBecameHealthy
	case old.Status == domain.StatusHealthy && next.Status == domain.StatusDegraded:
		tr.Kind = domain.TransitionBecameDegraded
	}

	return tr
}
