package stripegw

import (
	"context"
	"errors"
	"fmt"

	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/client"

	"github.com/nortide/catalog-sync/internal/gateway"
	"github.com/nortide/catalog-sync/internal/model"
)

// Client implements gateway.Gateway against the Stripe API.
type Client struct {
	api *client.API
}

// New creates a Stripe-backed gateway using the given API secret key.
func New(secretKey string) *Client {
	return &Client{api: client.New(secretKey, nil)}
}

// CreateProduct creates a new Stripe product.
func (c *Client) CreateProduct(ctx context.Context, payload gateway.ProductPayload) (*gateway.RemoteProduct, error) {
	params := productParams(payload)
	params.Context = ctx

	prod, err := c.api.Products.New(params)
	if err != nil {
		return nil, mapErr(err)
	}
	return toRemoteProduct(prod), nil
}

// UpdateProduct updates an existing Stripe product in place. Product fields,
// unlike price fields, are all mutable remotely.
func (c *Client) UpdateProduct(ctx context.Context, remoteID string, payload gateway.ProductPayload) (*gateway.RemoteProduct, error) {
	params := productParams(payload)
	params.Context = ctx

	prod, err := c.api.Products.Update(remoteID, params)
	if err != nil {
		return nil, mapErr(err)
	}
	return toRemoteProduct(prod), nil
}

// CreatePrice creates a new Stripe price.
func (c *Client) CreatePrice(ctx context.Context, payload gateway.PricePayload) (*gateway.RemotePrice, error) {
	params := priceParams(payload)
	params.Context = ctx

	price, err := c.api.Prices.New(params)
	if err != nil {
		return nil, mapErr(err)
	}
	return toRemotePrice(price), nil
}

// UpdatePrice pushes only the mutable fields (active, metadata) to an
// existing Stripe price.
func (c *Client) UpdatePrice(ctx context.Context, remoteID string, update gateway.PriceUpdate) (*gateway.RemotePrice, error) {
	params := &stripe.PriceParams{}
	params.Context = ctx
	if update.Active != nil {
		params.Active = stripe.Bool(*update.Active)
	}
	for k, v := range update.Metadata {
		params.AddMetadata(k, v)
	}

	price, err := c.api.Prices.Update(remoteID, params)
	if err != nil {
		return nil, mapErr(err)
	}
	return toRemotePrice(price), nil
}

// RetrievePrice fetches the current state of a Stripe price. Returns
// gateway.ErrNotFound if the id no longer resolves.
func (c *Client) RetrievePrice(ctx context.Context, remoteID string) (*gateway.RemotePrice, error) {
	params := &stripe.PriceParams{}
	params.Context = ctx

	price, err := c.api.Prices.Get(remoteID, params)
	if err != nil {
		return nil, mapErr(err)
	}
	return toRemotePrice(price), nil
}

func productParams(p gateway.ProductPayload) *stripe.ProductParams {
	params := &stripe.ProductParams{
		Name:   stripe.String(p.Name),
		Active: stripe.Bool(p.Active),
	}
	if p.Description != "" {
		params.Description = stripe.String(p.Description)
	}
	if p.StatementDescriptor != "" {
		params.StatementDescriptor = stripe.String(p.StatementDescriptor)
	}
	if p.UnitLabel != "" {
		params.UnitLabel = stripe.String(p.UnitLabel)
	}
	if len(p.Images) > 0 {
		params.Images = stripe.StringSlice(p.Images)
	}
	for k, v := range p.Metadata {
		params.AddMetadata(k, v)
	}
	return params
}

func priceParams(p gateway.PricePayload) *stripe.PriceParams {
	params := &stripe.PriceParams{
		Product:    stripe.String(p.Product),
		Currency:   stripe.String(p.Currency),
		UnitAmount: stripe.Int64(p.UnitAmount),
		Active:     stripe.Bool(p.Active),
	}
	if p.Nickname != "" {
		params.Nickname = stripe.String(p.Nickname)
	}
	if p.BillingScheme != "" {
		params.BillingScheme = stripe.String(p.BillingScheme)
	}
	if p.TiersMode != "" {
		params.TiersMode = stripe.String(p.TiersMode)
	}
	for _, tier := range p.Tiers {
		tierParams := &stripe.PriceTierParams{}
		if tier.UpToInf {
			tierParams.UpToInf = stripe.Bool(true)
		} else {
			tierParams.UpTo = stripe.Int64(tier.UpTo)
		}
		if tier.UnitAmount != 0 {
			tierParams.UnitAmount = stripe.Int64(tier.UnitAmount)
		}
		if tier.FlatAmount != 0 {
			tierParams.FlatAmount = stripe.Int64(tier.FlatAmount)
		}
		params.Tiers = append(params.Tiers, tierParams)
	}
	if p.TransformQuantity != nil {
		params.TransformQuantity = &stripe.PriceTransformQuantityParams{
			DivideBy: stripe.Int64(p.TransformQuantity.DivideBy),
			Round:    stripe.String(p.TransformQuantity.Round),
		}
	}
	if p.CustomUnitAmount != nil {
		customParams := &stripe.PriceCustomUnitAmountParams{
			Enabled: stripe.Bool(true),
		}
		if p.CustomUnitAmount.Minimum != 0 {
			customParams.Minimum = stripe.Int64(p.CustomUnitAmount.Minimum)
		}
		if p.CustomUnitAmount.Maximum != 0 {
			customParams.Maximum = stripe.Int64(p.CustomUnitAmount.Maximum)
		}
		if p.CustomUnitAmount.Preset != 0 {
			customParams.Preset = stripe.Int64(p.CustomUnitAmount.Preset)
		}
		params.CustomUnitAmount = customParams
	}
	if p.Recurring != nil {
		recurringParams := &stripe.PriceRecurringParams{
			Interval:      stripe.String(p.Recurring.Interval),
			IntervalCount: stripe.Int64(p.Recurring.IntervalCount),
		}
		if p.Recurring.TrialPeriodDays > 0 {
			recurringParams.TrialPeriodDays = stripe.Int64(p.Recurring.TrialPeriodDays)
		}
		if p.Recurring.UsageType != "" {
			recurringParams.UsageType = stripe.String(p.Recurring.UsageType)
		}
		params.Recurring = recurringParams
	}
	for k, v := range p.Metadata {
		params.AddMetadata(k, v)
	}
	return params
}

func toRemoteProduct(prod *stripe.Product) *gateway.RemoteProduct {
	return &gateway.RemoteProduct{
		ID:       prod.ID,
		Name:     prod.Name,
		Active:   prod.Active,
		Metadata: prod.Metadata,
	}
}

func toRemotePrice(price *stripe.Price) *gateway.RemotePrice {
	remote := &gateway.RemotePrice{
		ID:            price.ID,
		Active:        price.Active,
		Currency:      string(price.Currency),
		UnitAmount:    price.UnitAmount,
		Type:          string(price.Type),
		BillingScheme: string(price.BillingScheme),
		TiersMode:     string(price.TiersMode),
		Metadata:      price.Metadata,
	}
	for _, tier := range price.Tiers {
		remote.Tiers = append(remote.Tiers, model.PriceTier{
			// Stripe returns a null upper bound for the open-ended tier.
			UpTo:       tier.UpTo,
			UpToInf:    tier.UpTo == 0,
			UnitAmount: tier.UnitAmount,
			FlatAmount: tier.FlatAmount,
		})
	}
	if price.TransformQuantity != nil {
		remote.TransformQuantity = &model.TransformQuantity{
			DivideBy: price.TransformQuantity.DivideBy,
			Round:    string(price.TransformQuantity.Round),
		}
	}
	if price.CustomUnitAmount != nil {
		remote.CustomUnitAmount = &model.CustomUnitAmount{
			Minimum: price.CustomUnitAmount.Minimum,
			Maximum: price.CustomUnitAmount.Maximum,
			Preset:  price.CustomUnitAmount.Preset,
		}
	}
	if price.Recurring != nil {
		remote.Recurring = &gateway.RemoteRecurring{
			Interval:        string(price.Recurring.Interval),
			IntervalCount:   price.Recurring.IntervalCount,
			UsageType:       string(price.Recurring.UsageType),
			TrialPeriodDays: price.Recurring.TrialPeriodDays,
		}
	}
	return remote
}

// mapErr translates Stripe missing-resource errors into gateway.ErrNotFound so
// the engine can recover from stale remote references; other provider errors
// pass through with their message intact.
func mapErr(err error) error {
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) && stripeErr.Code == stripe.ErrorCodeResourceMissing {
		return fmt.Errorf("%w: %s", gateway.ErrNotFound, stripeErr.Msg)
	}
	return err
}
