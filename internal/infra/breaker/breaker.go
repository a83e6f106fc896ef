// Package breaker tracks broad per-provider failure rates behind the
// circuit-breaker status contract the scheduler consumes.
package breaker

import (
	"errors"
	"sync"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/meetsync/healthwatch/internal/core/domain"
)

// Status is the breaker state reported to the scheduler.
type Status string

const (
	StatusClosed   Status = "closed"
	StatusOpen     Status = "open"
	StatusHalfOpen Status = "half_open"
)

// ErrNotFound is returned when no breaker exists for a provider yet. The
// scheduler treats it as permission to proceed.
var ErrNotFound = errors.New("breaker not found")

// StatusReporter is the read side consumed by the scheduler.
type StatusReporter interface {
	Status(provider domain.Provider) (Status, error)
}

// Settings configures new per-provider breakers.
type Settings struct {
	// FailureThreshold is the consecutive-failure count that trips the breaker.
	FailureThreshold int
	// OpenFor is how long the breaker stays open before probing half-open.
	OpenFor time.Duration
	// HalfOpenRequests is how many requests may pass while half-open.
	HalfOpenRequests int
}

// DefaultSettings trips after 5 consecutive failures and stays open for a
// minute.
var DefaultSettings = Settings{
	FailureThreshold: 5,
	OpenFor:          time.Minute,
	HalfOpenRequests: 1,
}

// Registry holds one circuit breaker per provider, created lazily on the
// first recorded outcome. Providers nothing has probed yet report ErrNotFound.
type Registry struct {
	mu       sync.RWMutex
	breakers map[domain.Provider]*gobreaker.CircuitBreaker[struct{}]
	settings Settings
}

// NewRegistry creates an empty breaker registry.
func NewRegistry(settings Settings) *Registry {
	if settings.FailureThreshold <= 0 {
		settings = DefaultSettings
	}
	return &Registry{
		breakers: make(map[domain.Provider]*gobreaker.CircuitBreaker[struct{}]),
		settings: settings,
	}
}

// Status reports the breaker state for a provider.
func (r *Registry) Status(provider domain.Provider) (Status, error) {
	r.mu.RLock()
	cb, ok := r.breakers[provider]
	r.mu.RUnlock()
	if !ok {
		return "", ErrNotFound
	}

	switch cb.State() {
	case gobreaker.StateOpen:
		return StatusOpen, nil
	case gobreaker.StateHalfOpen:
		return StatusHalfOpen, nil
	default:
		return StatusClosed, nil
	}
}

// Record feeds one probe outcome into the provider's breaker.
func (r *Registry) Record(provider domain.Provider, err error) {
	if provider == domain.ProviderUnknown {
		return
	}
	cb := r.breaker(provider)
	_, _ = cb.Execute(func() (struct{}, error) {
		return struct{}{}, err
	})
}

func (r *Registry) breaker(provider domain.Provider) *gobreaker.CircuitBreaker[struct{}] {
	r.mu.RLock()
	cb, ok := r.breakers[provider]
	r.mu.RUnlock()
	if ok {
		return cb
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if cb, ok = r.breakers[provider]; ok {
		return cb
	}

	threshold := uint32(r.settings.FailureThreshold)
	cb = gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:        string(provider),
		MaxRequests: uint32(r.settings.HalfOpenRequests),
		Timeout:     r.settings.OpenFor,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
	})
	r.breakers[provider] = cb
	return cb
}
