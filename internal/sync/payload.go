package sync

import (
	"strings"

	"github.com/nortide/catalog-sync/internal/gateway"
	"github.com/nortide/catalog-sync/internal/model"
)

// Metadata keys injected into every remote payload so remote objects can be
// traced back to local records across replacements.
const (
	// MetaProductID carries the local product id on remote products and prices.
	MetaProductID = "product_id"

	// MetaProductLookupKey carries the product lookup key in metadata because
	// the provider's product object has no native lookup key support.
	MetaProductLookupKey = "product_lookup_key"

	// MetaPriceID carries the shared price id linking successive remote price
	// generations to one logical local price.
	MetaPriceID = "price_id"

	// MetaPriceLookupKey carries the price lookup key.
	MetaPriceLookupKey = "lookup_key"
)

// Usage types reported to the provider for recurring prices.
const (
	usageTypeLicensed = "licensed"
	usageTypeMetered  = "metered"
)

// buildProductPayload assembles the remote representation of a product from
// its current local attributes. Payloads are always built fresh from row
// state, which keeps concurrent retries self-correcting.
func buildProductPayload(product *model.Product) gateway.ProductPayload {
	metadata := make(map[string]string, len(product.Metadata)+2)
	for k, v := range product.Metadata {
		metadata[k] = v
	}
	metadata[MetaProductID] = product.ID.String()
	metadata[MetaProductLookupKey] = product.LookupKey

	return gateway.ProductPayload{
		Name:                product.Name,
		Active:              product.Active,
		Description:         product.Description,
		StatementDescriptor: product.StatementDescriptor,
		UnitLabel:           product.UnitLabel,
		Images:              product.Images,
		Metadata:            metadata,
	}
}

// buildPricePayload assembles the remote representation of a price. The parent
// product must already carry a remote id.
func buildPricePayload(price *model.Price, product *model.Product) gateway.PricePayload {
	metadata := make(map[string]string, len(price.Metadata)+3)
	for k, v := range price.Metadata {
		metadata[k] = v
	}
	metadata[MetaPriceID] = price.SharedPriceID()
	metadata[MetaProductID] = price.ProductID.String()
	metadata[MetaPriceLookupKey] = price.LookupKey

	payload := gateway.PricePayload{
		Product:       product.ExternalID,
		Currency:      strings.ToLower(price.Currency),
		UnitAmount:    price.UnitAmount,
		Active:        price.Active,
		Nickname:      price.Nickname,
		Metadata:      metadata,
		BillingScheme: price.BillingScheme,
	}

	if price.BillingScheme == model.BillingSchemeTiered && len(price.Tiers) > 0 {
		payload.Tiers = price.Tiers
		payload.TiersMode = price.TiersMode
	}
	payload.TransformQuantity = price.TransformQuantity
	payload.CustomUnitAmount = price.CustomUnitAmount

	if price.Type == model.PriceTypeRecurring {
		recurring := &gateway.RecurringPayload{
			Interval:      price.RecurringInterval,
			IntervalCount: price.RecurringIntervalCount,
		}
		if recurring.IntervalCount <= 0 {
			recurring.IntervalCount = 1
		}
		if price.RecurringTrialPeriodDays > 0 {
			recurring.TrialPeriodDays = price.RecurringTrialPeriodDays
		}
		if price.PricingModel == model.PricingModelUsageRecurring {
			recurring.UsageType = usageTypeMetered
		} else {
			recurring.UsageType = usageTypeLicensed
		}
		payload.Recurring = recurring
		payload.Type = string(model.PriceTypeRecurring)
	} else {
		payload.Type = string(model.PriceTypeOneTime)
	}

	return payload
}
