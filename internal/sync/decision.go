package sync

import (
	"bytes"
	"encoding/json"

	"github.com/nortide/catalog-sync/internal/gateway"
	"github.com/nortide/catalog-sync/internal/model"
)

// Action is the reconciliation decision for a price that may already exist
// remotely.
type Action int

const (
	// ActionCreate means no usable remote object exists; create a fresh one.
	ActionCreate Action = iota

	// ActionSoftUpdate means only mutable fields (active, metadata) changed;
	// the existing remote object is patched in place and keeps its id.
	ActionSoftUpdate

	// ActionHardReplace means a pricing-relevant field changed; the remote
	// provider forbids mutating those, so the existing object is archived and
	// a replacement is created under a new remote id.
	ActionHardReplace
)

// String implements fmt.Stringer for log output.
func (a Action) String() string {
	switch a {
	case ActionCreate:
		return "create"
	case ActionSoftUpdate:
		return "soft_update"
	case ActionHardReplace:
		return "hard_replace"
	default:
		return "unknown"
	}
}

// DecideAction compares the existing remote price object against the desired
// payload and decides whether the remote object can be patched in place or
// must be replaced. Pure function, no I/O.
func DecideAction(existing *gateway.RemotePrice, desired gateway.PricePayload) Action {
	if existing == nil {
		return ActionCreate
	}
	if pricingChanged(existing, desired) {
		return ActionHardReplace
	}
	return ActionSoftUpdate
}

// pricingChanged reports whether any pricing-relevant field differs between
// the remote object and the desired payload. Deep structures are compared via
// canonical JSON serialization, not reference equality.
func pricingChanged(existing *gateway.RemotePrice, desired gateway.PricePayload) bool {
	if existing.UnitAmount != desired.UnitAmount {
		return true
	}
	if existing.Currency != desired.Currency {
		return true
	}
	if desired.Recurring != nil {
		if existing.Recurring == nil {
			return true
		}
		if existing.Recurring.Interval != desired.Recurring.Interval {
			return true
		}
		wantCount := desired.Recurring.IntervalCount
		if wantCount <= 0 {
			wantCount = 1
		}
		if existing.Recurring.IntervalCount != wantCount {
			return true
		}
		if orDefault(existing.Recurring.UsageType, usageTypeLicensed) != orDefault(desired.Recurring.UsageType, usageTypeLicensed) {
			return true
		}
	}
	if orDefault(existing.BillingScheme, model.BillingSchemePerUnit) != orDefault(desired.BillingScheme, model.BillingSchemePerUnit) {
		return true
	}
	if existing.TiersMode != desired.TiersMode {
		return true
	}
	if !jsonEqual(tiersOrEmpty(existing.Tiers), tiersOrEmpty(desired.Tiers)) {
		return true
	}
	if !jsonEqual(existing.TransformQuantity, desired.TransformQuantity) {
		return true
	}
	if !jsonEqual(existing.CustomUnitAmount, desired.CustomUnitAmount) {
		return true
	}
	return false
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

func tiersOrEmpty(tiers []model.PriceTier) []model.PriceTier {
	if tiers == nil {
		return []model.PriceTier{}
	}
	return tiers
}

// jsonEqual compares two values by their canonical JSON form so that nil
// pointers, map ordering and zero values do not trigger spurious replacements.
func jsonEqual(a, b any) bool {
	aJSON, errA := json.Marshal(a)
	bJSON, errB := json.Marshal(b)
	if errA != nil || errB != nil {
		return false
	}
	return bytes.Equal(aJSON, bJSON)
}
