package readiness

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/asc/asc/internal/domain/inventory"
)

func TestAggregate_FailureIsolation(t *testing.T) {
	env := newTestEnv()
	date := asOf

	greenCase := env.addCase(date, true)
	greenReq := hipScrewRequirement(1)
	env.resolver.reqs[greenCase] = []Requirement{greenReq}
	inst := env.addInstance(greenReq.CatalogID, nil)
	inst.ReservedForCaseID = &greenCase

	brokenCase := env.addCase(date, true)
	env.resolver.errs[brokenCase] = errors.New("card link dangling")

	redCase := env.addCase(date, true)
	env.resolver.reqs[redCase] = []Requirement{hipScrewRequirement(2)}

	result, err := env.svc.Aggregate(context.Background(), env.facilityID, date, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Cases) != 3 {
		t.Fatalf("expected all three cases in the rollup, got %d", len(result.Cases))
	}

	byCase := make(map[uuid.UUID]CaseResult, len(result.Cases))
	for _, cr := range result.Cases {
		byCase[cr.CaseID] = cr
	}

	if cr := byCase[brokenCase]; cr.Error == "" || cr.Snapshot != nil {
		t.Errorf("broken case must carry an error marker and no snapshot: %+v", cr)
	}
	if cr := byCase[greenCase]; cr.Snapshot == nil || cr.Snapshot.ReadinessState != StateGreen {
		t.Errorf("green case miscomputed: %+v", cr)
	}
	if cr := byCase[redCase]; cr.Snapshot == nil || cr.Snapshot.ReadinessState != StateRed {
		t.Errorf("red case miscomputed: %+v", cr)
	}

	want := DayBeforeSummary{Green: 1, Red: 1, Failed: 1}
	if result.Summary != want {
		t.Errorf("summary counts wrong: got %+v want %+v", result.Summary, want)
	}
}

func TestAggregate_PanicBecomesErrorMarker(t *testing.T) {
	env := newTestEnv()
	date := asOf

	okCase := env.addCase(date, true)
	env.resolver.reqs[okCase] = nil

	panicCase := env.addCase(date, true)
	env.resolver.panics[panicCase] = true

	result, err := env.svc.Aggregate(context.Background(), env.facilityID, date, false)
	if err != nil {
		t.Fatalf("a panicking case must not fail the batch: %v", err)
	}
	if len(result.Cases) != 2 {
		t.Fatalf("expected both cases, got %d", len(result.Cases))
	}
	if result.Summary.Failed != 1 || result.Summary.Green != 1 {
		t.Errorf("summary counts wrong: %+v", result.Summary)
	}
	for _, cr := range result.Cases {
		if cr.CaseID == panicCase && cr.Error == "" {
			t.Error("panicking case must carry an error marker")
		}
	}
}

func TestAggregate_ExcludesInactiveAndOtherDates(t *testing.T) {
	env := newTestEnv()
	date := asOf

	included := env.addCase(date, true)
	env.resolver.reqs[included] = nil
	env.addCase(date, false)                 // cancelled
	env.addCase(date.AddDate(0, 0, 1), true) // tomorrow

	result, err := env.svc.Aggregate(context.Background(), env.facilityID, date, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Cases) != 1 || result.Cases[0].CaseID != included {
		t.Errorf("only active cases on the date belong in the rollup, got %+v", result.Cases)
	}
}

func TestAggregate_CountsAttested(t *testing.T) {
	env := newTestEnv()
	date := asOf
	caseID := env.addCase(date, true)
	env.resolver.reqs[caseID] = nil

	if _, err := env.svc.Attest(context.Background(), caseID, TypeCaseReadiness, uuid.New(), nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	result, err := env.svc.Aggregate(context.Background(), env.facilityID, date, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Summary.Attested != 1 {
		t.Errorf("expected one attested case, got %d", result.Summary.Attested)
	}
	if !result.Cases[0].Attested {
		t.Error("case result should be marked attested")
	}
}

func TestAggregate_CacheHitAndRefresh(t *testing.T) {
	env := newTestEnv()
	date := asOf
	caseID := env.addCase(date, true)
	env.resolver.reqs[caseID] = nil

	first, err := env.svc.Aggregate(context.Background(), env.facilityID, date, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first.FromCache {
		t.Fatal("first build must not come from cache")
	}

	second, err := env.svc.Aggregate(context.Background(), env.facilityID, date, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !second.FromCache {
		t.Fatal("second read should hit the cache")
	}

	forced, err := env.svc.Aggregate(context.Background(), env.facilityID, date, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if forced.FromCache {
		t.Error("refresh=true must bypass the cache")
	}
}

func TestAggregate_CacheStaleAfterInventoryMutation(t *testing.T) {
	env := newTestEnv()
	date := asOf
	caseID := env.addCase(date, true)
	req := hipScrewRequirement(1)
	env.resolver.reqs[caseID] = []Requirement{req}
	inst := env.addInstance(req.CatalogID, nil)
	inst.ReservedForCaseID = &caseID

	first, err := env.svc.Aggregate(context.Background(), env.facilityID, date, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first.Summary.Green != 1 {
		t.Fatalf("expected GREEN rollup, got %+v", first.Summary)
	}

	// An inventory event lands after the rollup was built: the cached
	// copy must be discarded, not served.
	inst.AvailabilityStatus = inventory.StatusMissing
	later := asOf.Add(time.Second)
	env.instances.lastMut = &later

	second, err := env.svc.Aggregate(context.Background(), env.facilityID, date, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if second.FromCache {
		t.Fatal("stale cache entry must not be served")
	}
	if second.Summary.Red != 1 {
		t.Errorf("rebuilt rollup should reflect the mutation, got %+v", second.Summary)
	}
}

func TestAggregate_CacheInvalidatedByVerify(t *testing.T) {
	env := newTestEnv()
	date := asOf
	caseID := env.addCase(date, true)
	req := hipScrewRequirement(1)
	env.resolver.reqs[caseID] = []Requirement{req}
	inst := env.addInstance(req.CatalogID, nil)

	first, err := env.svc.Aggregate(context.Background(), env.facilityID, date, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first.Summary.Orange != 1 {
		t.Fatalf("available but unverified should roll up ORANGE, got %+v", first.Summary)
	}

	if err := env.svc.Verify(context.Background(), caseID, req.CatalogID, inst.ID, uuid.New()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	second, err := env.svc.Aggregate(context.Background(), env.facilityID, date, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if second.FromCache {
		t.Fatal("verification must invalidate the facility's cached rollups")
	}
	if second.Summary.Green != 1 {
		t.Errorf("rebuilt rollup should be GREEN, got %+v", second.Summary)
	}
}

func TestAggregate_EmptyDay(t *testing.T) {
	env := newTestEnv()
	result, err := env.svc.Aggregate(context.Background(), env.facilityID, asOf, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Cases) != 0 {
		t.Errorf("expected empty rollup, got %d cases", len(result.Cases))
	}
	if result.Summary != (DayBeforeSummary{}) {
		t.Errorf("expected zero summary, got %+v", result.Summary)
	}
}
