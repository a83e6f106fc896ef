package health

import (
	"context"
	"fmt"
	"time"

	"github.com/meetsync/healthwatch/internal/core/domain"
	"github.com/meetsync/healthwatch/internal/infra/storage"
)

// StateView is the JSON shape of one health state in a report.
type StateView struct {
	Failures       int                 `json:"failures"`
	Successes      int                 `json:"successes"`
	LastCheck      *time.Time          `json:"last_check,omitempty"`
	Status         domain.HealthStatus `json:"status"`
	BackoffMS      int64               `json:"backoff_ms"`
	LastErrorClass domain.ErrorClass   `json:"last_error_class,omitempty"`
}

// ReportEntry pairs one integration's identity with its current health.
type ReportEntry struct {
	IntegrationID int64                  `json:"integration_id"`
	Type          domain.IntegrationType `json:"type"`
	Provider      string                 `json:"provider"`
	IsActive      bool                   `json:"is_active"`
	Health        StateView              `json:"health"`
}

// Report is the per-user health aggregate. Not persisted; recomputed on
// request.
type Report struct {
	UserID  int64                       `json:"user_id"`
	Entries []ReportEntry               `json:"integrations"`
	Counts  map[domain.HealthStatus]int `json:"counts"`
}

// BuildReport assembles the health report for every integration a user owns.
func BuildReport(ctx context.Context, repo storage.IntegrationRepository, states *Store, userID int64) (*Report, error) {
	integrations, err := repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list integrations for user %d: %w", userID, err)
	}

	report := &Report{
		UserID:  userID,
		Entries: make([]ReportEntry, 0, len(integrations)),
		Counts: map[domain.HealthStatus]int{
			domain.StatusHealthy:   0,
			domain.StatusDegraded:  0,
			domain.StatusUnhealthy: 0,
		},
	}

	for _, integ := range integrations {
		st := states.Get(integ.Key())
		report.Entries = append(report.Entries, ReportEntry{
			IntegrationID: integ.ID,
			Type:          integ.Type,
			Provider:      integ.Provider,
			IsActive:      integ.IsActive,
			Health:        viewOf(st),
		})
		report.Counts[st.Status]++
	}

	return report, nil
}

func viewOf(st domain.HealthState) StateView {
	v := StateView{
		Failures:       st.Failures,
		Successes:      st.Successes,
		Status:         st.Status,
		BackoffMS:      st.Backoff.Milliseconds(),
		LastErrorClass: st.LastErrorClass,
	}
	if !st.LastCheck.IsZero() {
		lc := st.LastCheck
		v.LastCheck = &lc
	}
	return v
}
