package readiness

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// rollupCache holds advisory day-before rollups. Readers may see a
// slightly stale copy; refresh=true bypasses it entirely.
type rollupCache struct {
	entries map[string]*DayBeforeResult
	ttl     time.Duration
	mu      sync.RWMutex
}

func newRollupCache(ttl time.Duration) *rollupCache {
	return &rollupCache{entries: make(map[string]*DayBeforeResult), ttl: ttl}
}

func rollupKey(facilityID uuid.UUID, date time.Time) string {
	return facilityID.String() + ":" + date.Format("2006-01-02")
}

func (c *rollupCache) get(facilityID uuid.UUID, date time.Time, now time.Time) *DayBeforeResult {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.entries[rollupKey(facilityID, date)]
	if !ok || now.Sub(entry.BuiltAt) > c.ttl {
		return nil
	}
	return entry
}

func (c *rollupCache) put(result *DayBeforeResult) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[rollupKey(result.FacilityID, result.Date)] = result
}

func (c *rollupCache) invalidate(facilityID uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	prefix := facilityID.String() + ":"
	for key := range c.entries {
		if len(key) >= len(prefix) && key[:len(prefix)] == prefix {
			delete(c.entries, key)
		}
	}
}

// Aggregate runs the calculator over every active case scheduled for
// the date. One case's failure marks that case and the batch proceeds;
// the summary counts only successful cases.
func (s *Service) Aggregate(ctx context.Context, facilityID uuid.UUID, date time.Time, refresh bool) (*DayBeforeResult, error) {
	now := s.now()

	if !refresh {
		if cached := s.cache.get(facilityID, date, now); cached != nil && !s.stale(ctx, cached) {
			copied := *cached
			copied.FromCache = true
			return &copied, nil
		}
	}

	caseInfos, err := s.cases.ListScheduled(ctx, facilityID, date)
	if err != nil {
		return nil, fmt.Errorf("list scheduled cases: %w", err)
	}

	result := &DayBeforeResult{
		FacilityID: facilityID,
		Date:       date,
		Cases:      []CaseResult{},
		BuiltAt:    now,
	}

	for _, info := range caseInfos {
		cr := s.aggregateOne(ctx, info, now)
		switch {
		case cr.Error != "":
			result.Summary.Failed++
		case cr.Snapshot.ReadinessState == StateGreen:
			result.Summary.Green++
		case cr.Snapshot.ReadinessState == StateOrange:
			result.Summary.Orange++
		default:
			result.Summary.Red++
		}
		if cr.Attested {
			result.Summary.Attested++
		}
		result.Cases = append(result.Cases, cr)
	}

	s.cache.put(result)
	return result, nil
}

// aggregateOne isolates one case's calculation: any failure, including
// a panic in a collaborator, becomes an error marker on that case.
func (s *Service) aggregateOne(ctx context.Context, info *CaseInfo, now time.Time) (cr CaseResult) {
	cr.CaseID = info.ID
	defer func() {
		if r := recover(); r != nil {
			log.Error().Str("case_id", info.ID.String()).Interface("panic", r).
				Msg("readiness calculation panicked")
			cr.Snapshot = nil
			cr.Error = fmt.Sprintf("calculation failed: %v", r)
		}
	}()

	snapshot, err := s.snapshotFor(ctx, info, now)
	if err != nil {
		cr.Error = err.Error()
		return cr
	}
	cr.Snapshot = snapshot

	active, err := s.attestations.GetActive(ctx, info.ID, TypeCaseReadiness)
	if err != nil {
		log.Warn().Err(err).Str("case_id", info.ID.String()).Msg("attestation lookup failed during rollup")
	}
	cr.Attested = active != nil
	return cr
}

// stale reports whether any inventory event or case mutation affecting
// the rollup landed after the cache entry was built.
func (s *Service) stale(ctx context.Context, cached *DayBeforeResult) bool {
	if ts, err := s.instances.LastMutationAt(ctx, cached.FacilityID); err == nil && ts != nil && ts.After(cached.BuiltAt) {
		return true
	}
	if ts, err := s.cases.LastMutationAt(ctx, cached.FacilityID, cached.Date); err == nil && ts != nil && ts.After(cached.BuiltAt) {
		return true
	}
	return false
}
