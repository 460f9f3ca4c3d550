package inventory

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/asc/asc/internal/domain/catalog"
)

// Risk rules.
const (
	RiskMissingLot        = "MISSING_LOT"
	RiskMissingSerial     = "MISSING_SERIAL"
	RiskMissingExpiration = "MISSING_EXPIRATION"
	RiskExpired           = "EXPIRED"
	RiskExpiringSoon      = "EXPIRING_SOON"
)

// Risk severities, ordered.
const (
	SeverityRed    = "RED"
	SeverityOrange = "ORANGE"
	SeverityYellow = "YELLOW"
)

var severityRank = map[string]int{
	SeverityRed:    3,
	SeverityOrange: 2,
	SeverityYellow: 1,
}

// RiskEntry is one detected problem on one instance. Entries are
// derived on every query and never persisted.
type RiskEntry struct {
	Rule         string    `json:"rule"`
	Severity     string    `json:"severity"`
	InstanceID   uuid.UUID `json:"instance_id"`
	CatalogID    uuid.UUID `json:"catalog_id"`
	CatalogName  string    `json:"catalog_name"`
	DaysToExpire *int      `json:"days_to_expire,omitempty"`
	Explanation  string    `json:"explanation"`
}

// RiskDefaults carries facility-level thresholds: WarningDays applies
// when the catalog item has no expiration_warning_days of its own,
// OrangeDays is the escalation cutoff within the warning window.
type RiskDefaults struct {
	WarningDays int
	OrangeDays  int
}

// EvaluateInstance checks one instance against its catalog item's
// tracking requirements. An instance can carry several risks at once.
// Disposed instances are excluded entirely.
func EvaluateInstance(inst *InventoryInstance, item *catalog.CatalogItem, now time.Time, defaults RiskDefaults) []RiskEntry {
	if inst == nil || item == nil || inst.Terminal() {
		return nil
	}

	var entries []RiskEntry
	add := func(rule, severity, explanation string, daysToExpire *int) {
		entries = append(entries, RiskEntry{
			Rule:         rule,
			Severity:     severity,
			InstanceID:   inst.ID,
			CatalogID:    item.ID,
			CatalogName:  item.Name,
			DaysToExpire: daysToExpire,
			Explanation:  explanation,
		})
	}

	if item.RequiresLotTracking && inst.LotNumber == nil {
		add(RiskMissingLot, SeverityRed, fmt.Sprintf("%s requires lot tracking but instance has no lot number", item.Name), nil)
	}
	if item.RequiresSerialTracking && inst.SerialNumber == nil {
		add(RiskMissingSerial, SeverityRed, fmt.Sprintf("%s requires serial tracking but instance has no serial number", item.Name), nil)
	}
	if item.RequiresExpirationTracking && inst.SterilityExpiresAt == nil {
		add(RiskMissingExpiration, SeverityRed, fmt.Sprintf("%s requires expiration tracking but instance has no expiration date", item.Name), nil)
	}

	if inst.SterilityExpiresAt != nil {
		if inst.SterilityExpiresAt.Before(now) {
			days := int(now.Sub(*inst.SterilityExpiresAt).Hours() / 24)
			add(RiskExpired, SeverityRed, fmt.Sprintf("expired %d day(s) ago", days), nil)
		} else {
			warningDays := defaults.WarningDays
			if item.ExpirationWarningDays != nil {
				warningDays = *item.ExpirationWarningDays
			}
			daysToExpire := int(inst.SterilityExpiresAt.Sub(now).Hours() / 24)
			if daysToExpire <= warningDays {
				// The shorter threshold wins: inside the orange cutoff
				// the entry escalates past yellow.
				severity := SeverityYellow
				if daysToExpire <= defaults.OrangeDays {
					severity = SeverityOrange
				}
				d := daysToExpire
				add(RiskExpiringSoon, severity, fmt.Sprintf("expires in %d day(s)", daysToExpire), &d)
			}
		}
	}

	return entries
}

// SortRiskEntries orders a facility sweep: severity desc, then
// days-to-expire asc (soonest first, entries without a date last),
// then catalog name asc.
func SortRiskEntries(entries []RiskEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if severityRank[a.Severity] != severityRank[b.Severity] {
			return severityRank[a.Severity] > severityRank[b.Severity]
		}
		switch {
		case a.DaysToExpire != nil && b.DaysToExpire != nil:
			if *a.DaysToExpire != *b.DaysToExpire {
				return *a.DaysToExpire < *b.DaysToExpire
			}
		case a.DaysToExpire != nil:
			return true
		case b.DaysToExpire != nil:
			return false
		}
		return a.CatalogName < b.CatalogName
	})
}
