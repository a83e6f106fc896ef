package health

import (
	"testing"
	"time"

	"github.com/meetsync/healthwatch/internal/core/domain"
)

func TestStoreDefaultsLazily(t *testing.T) {
	store := NewStore()
	key := domain.CheckKey{Type: domain.TypeCalendar, IntegrationID: 1}

	st := store.Get(key)
	if st.Status != domain.StatusHealthy {
		t.Errorf("fresh state status = %s, want healthy", st.Status)
	}
	if st.Backoff != BaseInterval {
		t.Errorf("fresh state backoff = %v, want base interval", st.Backoff)
	}
	if !st.LastCheck.IsZero() {
		t.Errorf("fresh state has a last check: %v", st.LastCheck)
	}
	// Reading must not materialize an entry.
	if store.Len() != 0 {
		t.Errorf("store length = %d after read, want 0", store.Len())
	}
}

func TestStorePutGetDelete(t *testing.T) {
	store := NewStore()
	key := domain.CheckKey{Type: domain.TypeVideo, IntegrationID: 42}

	st := NewState()
	st.Failures = 2
	st.Status = domain.StatusDegraded
	st.LastCheck = time.Now()
	store.Put(key, st)

	got := store.Get(key)
	if got.Failures != 2 || got.Status != domain.StatusDegraded {
		t.Errorf("stored state = %+v, want stored snapshot", got)
	}

	store.Delete(key)
	if store.Len() != 0 {
		t.Errorf("store length = %d after delete, want 0", store.Len())
	}
	if got := store.Get(key); got.Failures != 0 {
		t.Errorf("deleted key did not reset to default: %+v", got)
	}
}

func TestStoreKeysAreIndependent(t *testing.T) {
	store := NewStore()
	calKey := domain.CheckKey{Type: domain.TypeCalendar, IntegrationID: 1}
	vidKey := domain.CheckKey{Type: domain.TypeVideo, IntegrationID: 1}

	st := NewState()
	st.Failures = 3
	st.Status = domain.StatusUnhealthy
	store.Put(calKey, st)

	if got := store.Get(vidKey); got.Status != domain.StatusHealthy {
		t.Errorf("same id under another type shares state: %+v", got)
	}
}
