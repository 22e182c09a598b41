package controller

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/nortide/catalog-sync/internal/model"
	"github.com/nortide/catalog-sync/internal/service"
)

// PriceController handles HTTP requests for price operations.
type PriceController struct {
	catalogService *service.CatalogService
}

// NewPriceController creates a new PriceController with the given catalog service.
func NewPriceController(catalogService *service.CatalogService) *PriceController {
	return &PriceController{
		catalogService: catalogService,
	}
}

// PriceRequest represents the request body for creating or updating a price.
type PriceRequest struct {
	Active                   *bool                    `json:"active"`
	Currency                 string                   `json:"currency" binding:"required,len=3"`
	UnitAmount               int64                    `json:"unit_amount"`
	Type                     string                   `json:"type" binding:"required,oneof=recurring one_time"`
	RecurringInterval        string                   `json:"recurring_interval" binding:"omitempty,oneof=day week month year"`
	RecurringIntervalCount   int64                    `json:"recurring_interval_count"`
	RecurringTrialPeriodDays int64                    `json:"recurring_trial_period_days"`
	PricingModel             string                   `json:"pricing_model"`
	BillingScheme            string                   `json:"billing_scheme" binding:"omitempty,oneof=per_unit tiered"`
	Tiers                    []model.PriceTier        `json:"tiers"`
	TiersMode                string                   `json:"tiers_mode" binding:"omitempty,oneof=graduated volume"`
	TransformQuantity        *model.TransformQuantity `json:"transform_quantity"`
	CustomUnitAmount         *model.CustomUnitAmount  `json:"custom_unit_amount"`
	Nickname                 string                   `json:"nickname"`
	LookupKey                string                   `json:"lookup_key"`
	DisplayOrder             int                      `json:"display_order"`
	Metadata                 map[string]string        `json:"metadata"`
}

// PriceResponse represents the response body for a price.
type PriceResponse struct {
	ID                       string                   `json:"id"`
	ProductID                string                   `json:"product_id"`
	Active                   bool                     `json:"active"`
	Currency                 string                   `json:"currency"`
	UnitAmount               int64                    `json:"unit_amount"`
	Type                     string                   `json:"type"`
	RecurringInterval        string                   `json:"recurring_interval,omitempty"`
	RecurringIntervalCount   int64                    `json:"recurring_interval_count,omitempty"`
	RecurringTrialPeriodDays int64                    `json:"recurring_trial_period_days,omitempty"`
	PricingModel             string                   `json:"pricing_model,omitempty"`
	BillingScheme            string                   `json:"billing_scheme,omitempty"`
	Tiers                    []model.PriceTier        `json:"tiers,omitempty"`
	TiersMode                string                   `json:"tiers_mode,omitempty"`
	TransformQuantity        *model.TransformQuantity `json:"transform_quantity,omitempty"`
	CustomUnitAmount         *model.CustomUnitAmount  `json:"custom_unit_amount,omitempty"`
	Nickname                 string                   `json:"nickname,omitempty"`
	LookupKey                string                   `json:"lookup_key,omitempty"`
	DisplayOrder             int                      `json:"display_order"`
	Metadata                 map[string]string        `json:"metadata,omitempty"`
	ExternalID               string                   `json:"external_id,omitempty"`
	LastSyncedAt             *time.Time               `json:"last_synced_at,omitempty"`
	CreatedAt                string                   `json:"created_at"`
	UpdatedAt                string                   `json:"updated_at"`
}

// CreatePrice handles the HTTP POST request for adding a price to a product.
func (pc *PriceController) CreatePrice(c *gin.Context) {
	productID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid product ID"})
		return
	}

	var req PriceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	price := req.toModel()
	price.ProductID = productID

	created, err := pc.catalogService.CreatePrice(c.Request.Context(), price)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, toPriceResponse(created))
}

// GetPrice handles the HTTP GET request for a single price.
func (pc *PriceController) GetPrice(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid price ID"})
		return
	}

	price, err := pc.catalogService.GetPrice(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, toPriceResponse(price))
}

// UpdatePrice handles the HTTP PUT request for updating a price.
func (pc *PriceController) UpdatePrice(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid price ID"})
		return
	}

	var req PriceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	existing, err := pc.catalogService.GetPrice(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	price := req.toModel()
	price.ID = existing.ID
	price.ProductID = existing.ProductID

	updated, err := pc.catalogService.UpdatePrice(c.Request.Context(), price)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, toPriceResponse(updated))
}

// DeletePrice handles the HTTP DELETE request for soft-deleting a price.
func (pc *PriceController) DeletePrice(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid price ID"})
		return
	}

	if err := pc.catalogService.DeletePrice(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "price deleted successfully"})
}

func (req *PriceRequest) toModel() *model.Price {
	active := true
	if req.Active != nil {
		active = *req.Active
	}
	return &model.Price{
		Active:                   active,
		Currency:                 req.Currency,
		UnitAmount:               req.UnitAmount,
		Type:                     model.PriceType(req.Type),
		RecurringInterval:        req.RecurringInterval,
		RecurringIntervalCount:   req.RecurringIntervalCount,
		RecurringTrialPeriodDays: req.RecurringTrialPeriodDays,
		PricingModel:             req.PricingModel,
		BillingScheme:            req.BillingScheme,
		Tiers:                    req.Tiers,
		TiersMode:                req.TiersMode,
		TransformQuantity:        req.TransformQuantity,
		CustomUnitAmount:         req.CustomUnitAmount,
		Nickname:                 req.Nickname,
		LookupKey:                req.LookupKey,
		DisplayOrder:             req.DisplayOrder,
		Metadata:                 req.Metadata,
	}
}

func toPriceResponse(price *model.Price) PriceResponse {
	return PriceResponse{
		ID:                       price.ID.String(),
		ProductID:                price.ProductID.String(),
		Active:                   price.Active,
		Currency:                 price.Currency,
		UnitAmount:               price.UnitAmount,
		Type:                     string(price.Type),
		RecurringInterval:        price.RecurringInterval,
		RecurringIntervalCount:   price.RecurringIntervalCount,
		RecurringTrialPeriodDays: price.RecurringTrialPeriodDays,
		PricingModel:             price.PricingModel,
		BillingScheme:            price.BillingScheme,
		Tiers:                    price.Tiers,
		TiersMode:                price.TiersMode,
		TransformQuantity:        price.TransformQuantity,
		CustomUnitAmount:         price.CustomUnitAmount,
		Nickname:                 price.Nickname,
		LookupKey:                price.LookupKey,
		DisplayOrder:             price.DisplayOrder,
		Metadata:                 price.Metadata,
		ExternalID:               price.ExternalID,
		LastSyncedAt:             price.LastSyncedAt,
		CreatedAt:                price.CreatedAt.Format(time.RFC3339),
		UpdatedAt:                price.UpdatedAt.Format(time.RFC3339),
	}
}
