package model

import (
	"time"

	"github.com/google/uuid"
)

// PriceType distinguishes recurring subscription prices from one-time prices.
type PriceType string

const (
	// PriceTypeRecurring is a subscription price billed on an interval.
	PriceTypeRecurring PriceType = "recurring"
	// PriceTypeOneTime is a price charged once.
	PriceTypeOneTime PriceType = "one_time"
)

// Pricing models encode the provider-style pricing configuration for a price
// so it can be mapped into the remote payload (usage type, tiers, packages).
const (
	PricingModelFlatRecurring         = "flat_recurring"
	PricingModelPerSeatRecurring      = "per_seat_recurring"
	PricingModelTieredRecurring       = "tiered_recurring"
	PricingModelUsageRecurring        = "usage_recurring"
	PricingModelFlatOneTime           = "flat_one_time"
	PricingModelPackageOneTime        = "package_one_time"
	PricingModelCustomerChoiceOneTime = "customer_choice_one_time"
)

// Billing schemes supported by the remote provider.
const (
	BillingSchemePerUnit = "per_unit"
	BillingSchemeTiered  = "tiered"
)

// PriceTier is one row of a tiered pricing table. The final tier is open-ended
// and marked with UpToInf instead of an upper bound.
type PriceTier struct {
	UpTo       int64 `json:"up_to,omitempty"`
	UpToInf    bool  `json:"up_to_inf,omitempty"`
	UnitAmount int64 `json:"unit_amount,omitempty"`
	FlatAmount int64 `json:"flat_amount,omitempty"`
}

// TransformQuantity divides the purchased quantity before applying the unit amount.
type TransformQuantity struct {
	DivideBy int64  `json:"divide_by"`
	Round    string `json:"round"` // up or down
}

// CustomUnitAmount lets the customer choose the amount within the given bounds.
type CustomUnitAmount struct {
	Minimum int64 `json:"minimum,omitempty"`
	Maximum int64 `json:"maximum,omitempty"`
	Preset  int64 `json:"preset,omitempty"`
}

// Price mirrors the remote provider's Price object and belongs to a Product.
// Pricing-relevant fields are logically immutable once synced remotely:
// changing them triggers replacement of the remote object, not mutation.
// Prices are soft deleted to mirror the provider's archiving behavior.
type Price struct {
	ID                       uuid.UUID
	ProductID                uuid.UUID
	Active                   bool
	Currency                 string
	UnitAmount               int64
	Type                     PriceType
	RecurringInterval        string
	RecurringIntervalCount   int64
	RecurringTrialPeriodDays int64
	PricingModel             string
	BillingScheme            string
	Tiers                    []PriceTier
	TiersMode                string
	TransformQuantity        *TransformQuantity
	CustomUnitAmount         *CustomUnitAmount
	Nickname                 string
	LookupKey                string
	DisplayOrder             int
	Metadata                 map[string]string
	ExternalID               string
	LastSyncedAt             *time.Time
	CreatedAt                time.Time
	UpdatedAt                time.Time
	DeletedAt                *time.Time
}

// InitMeta initializes the price metadata including ID and timestamps.
func (p *Price) InitMeta() {
	p.ID = uuid.New()
	now := time.Now()
	p.CreatedAt = now
	p.UpdatedAt = now
	if p.RecurringIntervalCount <= 0 {
		p.RecurringIntervalCount = 1
	}
}

// SharedPriceID is the stable token carried in remote metadata so that
// replacement remote price objects stay traceable to this logical price.
// The remote id changes across replacements; this one never does.
func (p *Price) SharedPriceID() string {
	return p.ID.String()
}

// IsRecurring reports whether this is a subscription price.
func (p *Price) IsRecurring() bool {
	return p.Type == PriceTypeRecurring
}

// IsOneTime reports whether this price is charged once.
func (p *Price) IsOneTime() bool {
	return p.Type == PriceTypeOneTime
}
