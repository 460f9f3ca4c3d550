package inventory

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/asc/asc/internal/domain/catalog"
)

var testNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

var testDefaults = RiskDefaults{WarningDays: 30, OrangeDays: 7}

func strPtr(s string) *string { return &s }

func timePtr(t time.Time) *time.Time { return &t }

func testItem(mutate func(*catalog.CatalogItem)) *catalog.CatalogItem {
	item := &catalog.CatalogItem{
		ID:          uuid.New(),
		Name:        "Hip Screw Kit",
		Category:    catalog.CategoryImplant,
		Criticality: catalog.CriticalityCritical,
		IsActive:    true,
	}
	if mutate != nil {
		mutate(item)
	}
	return item
}

func testInstance(catalogID uuid.UUID, mutate func(*InventoryInstance)) *InventoryInstance {
	inst := &InventoryInstance{
		ID:                 uuid.New(),
		CatalogID:          catalogID,
		FacilityID:         uuid.New(),
		AvailabilityStatus: StatusAvailable,
		SterilityStatus:    SterilitySterile,
	}
	if mutate != nil {
		mutate(inst)
	}
	return inst
}

func TestEvaluateInstance_MissingLot(t *testing.T) {
	item := testItem(func(i *catalog.CatalogItem) { i.RequiresLotTracking = true })
	inst := testInstance(item.ID, nil)

	entries := EvaluateInstance(inst, item, testNow, testDefaults)
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if entries[0].Rule != RiskMissingLot || entries[0].Severity != SeverityRed {
		t.Errorf("expected MISSING_LOT/RED, got %s/%s", entries[0].Rule, entries[0].Severity)
	}
}

func TestEvaluateInstance_MissingSerialAndExpiration(t *testing.T) {
	item := testItem(func(i *catalog.CatalogItem) {
		i.RequiresSerialTracking = true
		i.RequiresExpirationTracking = true
	})
	inst := testInstance(item.ID, nil)

	entries := EvaluateInstance(inst, item, testNow, testDefaults)
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	rules := map[string]bool{}
	for _, e := range entries {
		rules[e.Rule] = true
		if e.Severity != SeverityRed {
			t.Errorf("expected RED for %s, got %s", e.Rule, e.Severity)
		}
	}
	if !rules[RiskMissingSerial] || !rules[RiskMissingExpiration] {
		t.Errorf("expected MISSING_SERIAL and MISSING_EXPIRATION, got %v", rules)
	}
}

func TestEvaluateInstance_Expired(t *testing.T) {
	item := testItem(nil)
	inst := testInstance(item.ID, func(i *InventoryInstance) {
		i.SterilityExpiresAt = timePtr(testNow.AddDate(0, 0, -2))
	})

	entries := EvaluateInstance(inst, item, testNow, testDefaults)
	if len(entries) != 1 || entries[0].Rule != RiskExpired || entries[0].Severity != SeverityRed {
		t.Fatalf("expected single EXPIRED/RED entry, got %+v", entries)
	}
}

func TestEvaluateInstance_ExpiringSoonYellow(t *testing.T) {
	item := testItem(nil)
	inst := testInstance(item.ID, func(i *InventoryInstance) {
		i.SterilityExpiresAt = timePtr(testNow.AddDate(0, 0, 20))
	})

	entries := EvaluateInstance(inst, item, testNow, testDefaults)
	if len(entries) != 1 || entries[0].Rule != RiskExpiringSoon {
		t.Fatalf("expected EXPIRING_SOON, got %+v", entries)
	}
	if entries[0].Severity != SeverityYellow {
		t.Errorf("20 days out should be YELLOW, got %s", entries[0].Severity)
	}
}

func TestEvaluateInstance_ExpiringSoonOrange(t *testing.T) {
	item := testItem(nil)
	inst := testInstance(item.ID, func(i *InventoryInstance) {
		i.SterilityExpiresAt = timePtr(testNow.AddDate(0, 0, 3))
	})

	entries := EvaluateInstance(inst, item, testNow, testDefaults)
	if len(entries) != 1 || entries[0].Severity != SeverityOrange {
		t.Fatalf("3 days out should be ORANGE, got %+v", entries)
	}
	if entries[0].DaysToExpire == nil || *entries[0].DaysToExpire != 3 {
		t.Errorf("expected days_to_expire 3, got %v", entries[0].DaysToExpire)
	}
}

func TestEvaluateInstance_ItemWarningDaysOverride(t *testing.T) {
	days := 5
	item := testItem(func(i *catalog.CatalogItem) { i.ExpirationWarningDays = &days })
	inst := testInstance(item.ID, func(i *InventoryInstance) {
		i.SterilityExpiresAt = timePtr(testNow.AddDate(0, 0, 10))
	})

	// 10 days out is inside the facility default window but outside
	// the item's own 5-day window.
	entries := EvaluateInstance(inst, item, testNow, testDefaults)
	if len(entries) != 0 {
		t.Fatalf("expected no entries with item-level window of 5 days, got %+v", entries)
	}
}

func TestEvaluateInstance_OutsideWarningWindow(t *testing.T) {
	item := testItem(nil)
	inst := testInstance(item.ID, func(i *InventoryInstance) {
		i.SterilityExpiresAt = timePtr(testNow.AddDate(0, 0, 90))
	})

	entries := EvaluateInstance(inst, item, testNow, testDefaults)
	if len(entries) != 0 {
		t.Fatalf("expected no entries for far-future expiration, got %+v", entries)
	}
}

func TestEvaluateInstance_DisposedExcluded(t *testing.T) {
	item := testItem(func(i *catalog.CatalogItem) { i.RequiresLotTracking = true })
	inst := testInstance(item.ID, func(i *InventoryInstance) {
		i.AvailabilityStatus = StatusDisposed
	})

	if entries := EvaluateInstance(inst, item, testNow, testDefaults); len(entries) != 0 {
		t.Fatalf("disposed instances must be excluded, got %+v", entries)
	}
}

func TestEvaluateInstance_MultipleRisks(t *testing.T) {
	item := testItem(func(i *catalog.CatalogItem) { i.RequiresLotTracking = true })
	inst := testInstance(item.ID, func(i *InventoryInstance) {
		i.SterilityExpiresAt = timePtr(testNow.AddDate(0, 0, 2))
	})

	entries := EvaluateInstance(inst, item, testNow, testDefaults)
	if len(entries) != 2 {
		t.Fatalf("expected MISSING_LOT and EXPIRING_SOON together, got %+v", entries)
	}
}

func TestSortRiskEntries_Ordering(t *testing.T) {
	d2, d5 := 2, 5
	entries := []RiskEntry{
		{Rule: RiskExpiringSoon, Severity: SeverityYellow, CatalogName: "B Item", DaysToExpire: &d5},
		{Rule: RiskMissingLot, Severity: SeverityRed, CatalogName: "Z Item"},
		{Rule: RiskExpiringSoon, Severity: SeverityOrange, CatalogName: "A Item", DaysToExpire: &d2},
		{Rule: RiskMissingLot, Severity: SeverityRed, CatalogName: "A Item"},
	}
	SortRiskEntries(entries)

	if entries[0].Severity != SeverityRed || entries[0].CatalogName != "A Item" {
		t.Errorf("expected RED/A Item first, got %s/%s", entries[0].Severity, entries[0].CatalogName)
	}
	if entries[1].Severity != SeverityRed || entries[1].CatalogName != "Z Item" {
		t.Errorf("expected RED/Z Item second, got %s/%s", entries[1].Severity, entries[1].CatalogName)
	}
	if entries[2].Severity != SeverityOrange {
		t.Errorf("expected ORANGE third, got %s", entries[2].Severity)
	}
	if entries[3].Severity != SeverityYellow {
		t.Errorf("expected YELLOW last, got %s", entries[3].Severity)
	}
}
