package cases

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
)

// -- Mock Repository --

type mockRepo struct {
	cases     map[uuid.UUID]*SurgicalCase
	checklist map[uuid.UUID]*ChecklistItem
}

func newMockRepo() *mockRepo {
	return &mockRepo{
		cases:     make(map[uuid.UUID]*SurgicalCase),
		checklist: make(map[uuid.UUID]*ChecklistItem),
	}
}

// The mock stores and returns copies so callers mutating their own
// structs cannot rewrite the "persisted" rows behind the service's
// back.
func (m *mockRepo) Create(_ context.Context, sc *SurgicalCase) error {
	sc.ID = uuid.New()
	sc.CreatedAt = time.Now()
	sc.UpdatedAt = time.Now()
	copied := *sc
	m.cases[sc.ID] = &copied
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id uuid.UUID) (*SurgicalCase, error) {
	sc, ok := m.cases[id]
	if !ok {
		return nil, fmt.Errorf("not found")
	}
	copied := *sc
	return &copied, nil
}

func (m *mockRepo) Update(_ context.Context, sc *SurgicalCase) error {
	copied := *sc
	m.cases[sc.ID] = &copied
	return nil
}

func (m *mockRepo) List(_ context.Context, limit, offset int) ([]*SurgicalCase, int, error) {
	var result []*SurgicalCase
	for _, sc := range m.cases {
		result = append(result, sc)
	}
	return result, len(result), nil
}

func (m *mockRepo) Search(_ context.Context, _ map[string]string, limit, offset int) ([]*SurgicalCase, int, error) {
	return m.List(context.Background(), limit, offset)
}

func (m *mockRepo) ListScheduled(_ context.Context, facilityID uuid.UUID, date time.Time) ([]*SurgicalCase, error) {
	var result []*SurgicalCase
	for _, sc := range m.cases {
		if sc.FacilityID == facilityID && sc.ScheduledDate.Equal(date) && sc.Status != StatusCancelled && sc.Status != StatusCompleted {
			result = append(result, sc)
		}
	}
	return result, nil
}

func (m *mockRepo) LastMutationAt(_ context.Context, _ uuid.UUID, _ time.Time) (*time.Time, error) {
	return nil, nil
}

func (m *mockRepo) AddChecklistItem(_ context.Context, item *ChecklistItem) error {
	item.ID = uuid.New()
	copied := *item
	m.checklist[item.ID] = &copied
	return nil
}

func (m *mockRepo) GetChecklist(_ context.Context, caseID uuid.UUID) ([]*ChecklistItem, error) {
	var result []*ChecklistItem
	for _, item := range m.checklist {
		if item.CaseID == caseID {
			copied := *item
			result = append(result, &copied)
		}
	}
	return result, nil
}

func (m *mockRepo) UpdateChecklistItem(_ context.Context, item *ChecklistItem) error {
	copied := *item
	m.checklist[item.ID] = &copied
	return nil
}

func (m *mockRepo) RemoveChecklistItem(_ context.Context, id uuid.UUID) error {
	delete(m.checklist, id)
	return nil
}

type mockReleaser struct {
	released map[uuid.UUID]int
}

func newMockReleaser() *mockReleaser {
	return &mockReleaser{released: make(map[uuid.UUID]int)}
}

func (m *mockReleaser) ReleaseAllForCase(_ context.Context, caseID uuid.UUID) (int, error) {
	m.released[caseID]++
	return 2, nil
}

func newTestService() (*Service, *mockRepo, *mockReleaser) {
	repo := newMockRepo()
	releaser := newMockReleaser()
	return NewService(repo, releaser), repo, releaser
}

func validCase() *SurgicalCase {
	return &SurgicalCase{
		FacilityID:    uuid.New(),
		PatientRef:    "MRN-1042",
		SurgeonID:     uuid.New(),
		ScheduledDate: time.Date(2026, 4, 2, 0, 0, 0, 0, time.UTC),
	}
}

// -- Tests --

func TestCreate_Defaults(t *testing.T) {
	svc, _, _ := newTestService()
	sc := validCase()
	if err := svc.Create(context.Background(), sc); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sc.Status != StatusScheduled {
		t.Errorf("expected default status SCHEDULED, got %s", sc.Status)
	}
}

func TestCreate_MissingFields(t *testing.T) {
	svc, _, _ := newTestService()
	cases := []*SurgicalCase{
		{PatientRef: "p", SurgeonID: uuid.New(), ScheduledDate: time.Now()},
		{FacilityID: uuid.New(), SurgeonID: uuid.New(), ScheduledDate: time.Now()},
		{FacilityID: uuid.New(), PatientRef: "p", ScheduledDate: time.Now()},
		{FacilityID: uuid.New(), PatientRef: "p", SurgeonID: uuid.New()},
	}
	for i, sc := range cases {
		if err := svc.Create(context.Background(), sc); err == nil {
			t.Errorf("case %d: expected validation error", i)
		}
	}
}

func TestCancel_ReleasesReservations(t *testing.T) {
	svc, repo, releaser := newTestService()
	sc := validCase()
	_ = svc.Create(context.Background(), sc)

	cancelled, err := svc.Cancel(context.Background(), sc.ID, "patient rescheduled")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cancelled.Status != StatusCancelled {
		t.Errorf("expected CANCELLED, got %s", cancelled.Status)
	}
	if cancelled.CancelReason == nil || *cancelled.CancelReason != "patient rescheduled" {
		t.Error("expected cancel reason to be stored")
	}
	if releaser.released[sc.ID] != 1 {
		t.Error("expected inventory reservations to be released")
	}
	_ = repo
}

func TestCancel_RequiresReason(t *testing.T) {
	svc, _, _ := newTestService()
	sc := validCase()
	_ = svc.Create(context.Background(), sc)

	if _, err := svc.Cancel(context.Background(), sc.ID, ""); err == nil {
		t.Error("expected error for empty cancel reason")
	}
}

func TestCancel_Repeatable(t *testing.T) {
	svc, _, releaser := newTestService()
	sc := validCase()
	_ = svc.Create(context.Background(), sc)

	if _, err := svc.Cancel(context.Background(), sc.ID, "reason one"); err != nil {
		t.Fatalf("first cancel failed: %v", err)
	}
	if _, err := svc.Cancel(context.Background(), sc.ID, "reason two"); err != nil {
		t.Fatalf("repeated cancel must be safe: %v", err)
	}
	if releaser.released[sc.ID] != 2 {
		t.Errorf("release should run on each cancel, got %d", releaser.released[sc.ID])
	}
}

func TestUpdate_CancelledCaseLocked(t *testing.T) {
	svc, _, _ := newTestService()
	sc := validCase()
	_ = svc.Create(context.Background(), sc)
	_, _ = svc.Cancel(context.Background(), sc.ID, "gone")

	sc.Status = StatusScheduled
	if err := svc.Update(context.Background(), sc); err == nil {
		t.Error("expected error reactivating a cancelled case")
	}
}

func TestChecklist_CompleteStamps(t *testing.T) {
	svc, _, _ := newTestService()
	sc := validCase()
	_ = svc.Create(context.Background(), sc)

	item := &ChecklistItem{CaseID: sc.ID, Name: "Consent signed"}
	if err := svc.AddChecklistItem(context.Background(), item); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	userID := uuid.New()
	completed, err := svc.CompleteChecklistItem(context.Background(), sc.ID, item.ID, userID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !completed.Completed || completed.CompletedBy == nil || *completed.CompletedBy != userID {
		t.Errorf("completion not stamped: %+v", completed)
	}
	if completed.CompletedAt == nil {
		t.Error("expected completed_at timestamp")
	}
}

func TestChecklist_AddToMissingCase(t *testing.T) {
	svc, _, _ := newTestService()
	item := &ChecklistItem{CaseID: uuid.New(), Name: "Anything"}
	if err := svc.AddChecklistItem(context.Background(), item); err == nil {
		t.Error("expected error for missing case")
	}
}
