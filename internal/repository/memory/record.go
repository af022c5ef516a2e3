// Package memory provides in-memory repository implementations used by tests
// and local development. They mirror the postgres adapters' semantics:
// wholesale replacement by natural key, never partial updates.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/pilotage-rh/analytics-backend-go/internal/domain/record"
)

type periodKey struct {
	establishmentID string
	period          time.Time
}

type RecordStore struct {
	mu      sync.RWMutex
	periods map[periodKey]record.PeriodRecords
}

func NewRecordStore() *RecordStore {
	return &RecordStore{periods: make(map[periodKey]record.PeriodRecords)}
}

func (s *RecordStore) GetPeriodRecords(_ context.Context, establishmentID string, period time.Time) (record.PeriodRecords, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	recs, ok := s.periods[periodKey{establishmentID, period}]
	if !ok {
		return record.PeriodRecords{}, record.ErrPeriodNotFound
	}
	return recs, nil
}

func (s *RecordStore) ReplacePeriodRecords(_ context.Context, recs record.PeriodRecords) error {
	if recs.EstablishmentID == "" {
		return record.ErrInvalidEstablishment
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.periods[periodKey{recs.EstablishmentID, recs.Period}] = recs
	return nil
}

func (s *RecordStore) ListPeriods(_ context.Context, establishmentID string) ([]time.Time, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var periods []time.Time
	for k := range s.periods {
		if k.establishmentID == establishmentID {
			periods = append(periods, k.period)
		}
	}
	sort.Slice(periods, func(i, j int) bool { return periods[i].Before(periods[j]) })
	return periods, nil
}
