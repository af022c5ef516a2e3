package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/pilotage-rh/analytics-backend-go/internal/domain/snapshot"
)

type SnapshotStore struct {
	mu        sync.RWMutex
	snapshots map[periodKey]snapshot.MonthlySnapshot

	// failInserts makes the next n inserts fail, for exercising the retry
	// and degraded paths in tests.
	failInserts int
}

func NewSnapshotStore() *SnapshotStore {
	return &SnapshotStore{snapshots: make(map[periodKey]snapshot.MonthlySnapshot)}
}

// FailNextInserts arms transient-failure injection for the next n inserts.
func (s *SnapshotStore) FailNextInserts(n int) {
	s.mu.Lock()
	s.failInserts = n
	s.mu.Unlock()
}

func (s *SnapshotStore) Get(_ context.Context, establishmentID string, period time.Time) (snapshot.MonthlySnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap, ok := s.snapshots[periodKey{establishmentID, period}]
	if !ok {
		return snapshot.MonthlySnapshot{}, snapshot.ErrSnapshotNotFound
	}
	return snap, nil
}

func (s *SnapshotStore) List(_ context.Context, establishmentID string, from, to time.Time) ([]snapshot.MonthlySnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []snapshot.MonthlySnapshot
	for k, snap := range s.snapshots {
		if k.establishmentID != establishmentID {
			continue
		}
		if !from.IsZero() && k.period.Before(from) {
			continue
		}
		if !to.IsZero() && k.period.After(to) {
			continue
		}
		out = append(out, snap)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Period.Before(out[j].Period) })
	return out, nil
}

func (s *SnapshotStore) Delete(_ context.Context, establishmentID string, period time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.snapshots, periodKey{establishmentID, period})
	return nil
}

func (s *SnapshotStore) Insert(_ context.Context, snap snapshot.MonthlySnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failInserts > 0 {
		s.failInserts--
		return errTransient
	}
	s.snapshots[periodKey{snap.EstablishmentID, snap.Period}] = snap
	return nil
}
