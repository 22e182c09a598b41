package controller

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/nortide/catalog-sync/internal/model"
	"github.com/nortide/catalog-sync/internal/service"
)

// FeatureController handles HTTP requests for feature definitions and
// per-product entitlement configs.
type FeatureController struct {
	featureService *service.FeatureService
}

// NewFeatureController creates a new FeatureController with the given feature service.
func NewFeatureController(featureService *service.FeatureService) *FeatureController {
	return &FeatureController{
		featureService: featureService,
	}
}

// FeatureRequest represents the request body for creating a feature definition.
type FeatureRequest struct {
	Key         string `json:"key" binding:"required"`
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	Type        string `json:"type" binding:"omitempty,oneof=boolean resource"`
}

// FeatureResponse represents the response body for a feature definition.
type FeatureResponse struct {
	ID          string `json:"id"`
	Key         string `json:"key"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Type        string `json:"type"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}

// FeatureConfigRequest represents the request body for attaching a feature to a product.
type FeatureConfigRequest struct {
	Enabled          bool  `json:"enabled"`
	IncludedQuantity int64 `json:"included_quantity"`
	OverageLimit     int64 `json:"overage_limit"`
}

// ProductFeatureResponse represents one feature attached to a product.
type ProductFeatureResponse struct {
	Feature          FeatureResponse `json:"feature"`
	Enabled          bool            `json:"enabled"`
	IncludedQuantity int64           `json:"included_quantity"`
	OverageLimit     int64           `json:"overage_limit"`
}

// CreateFeature handles the HTTP POST request for creating a feature definition.
func (fc *FeatureController) CreateFeature(c *gin.Context) {
	var req FeatureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	created, err := fc.featureService.CreateFeature(c.Request.Context(), &model.ProductFeature{
		Key:         req.Key,
		Name:        req.Name,
		Description: req.Description,
		Type:        req.Type,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, toFeatureResponse(created))
}

// ListFeatures handles the HTTP GET request for listing feature definitions.
func (fc *FeatureController) ListFeatures(c *gin.Context) {
	features, err := fc.featureService.ListFeatures(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	var responses []FeatureResponse
	for _, feature := range features {
		responses = append(responses, toFeatureResponse(feature))
	}

	c.JSON(http.StatusOK, gin.H{"features": responses})
}

// SetProductFeature handles the HTTP PUT request for attaching a feature to a product.
func (fc *FeatureController) SetProductFeature(c *gin.Context) {
	productID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid product ID"})
		return
	}

	var req FeatureConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	view, err := fc.featureService.SetProductFeature(c.Request.Context(), productID, c.Param("key"), &model.ProductFeatureConfig{
		Enabled:          req.Enabled,
		IncludedQuantity: req.IncludedQuantity,
		OverageLimit:     req.OverageLimit,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, toProductFeatureResponse(view))
}

// ListProductFeatures handles the HTTP GET request for a product's feature configs.
func (fc *FeatureController) ListProductFeatures(c *gin.Context) {
	productID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid product ID"})
		return
	}

	views, err := fc.featureService.ProductFeatures(c.Request.Context(), productID)
	if err != nil {
		respondError(c, err)
		return
	}

	var responses []ProductFeatureResponse
	for _, view := range views {
		responses = append(responses, toProductFeatureResponse(view))
	}

	c.JSON(http.StatusOK, gin.H{"features": responses})
}

func toFeatureResponse(feature *model.ProductFeature) FeatureResponse {
	return FeatureResponse{
		ID:          feature.ID.String(),
		Key:         feature.Key,
		Name:        feature.Name,
		Description: feature.Description,
		Type:        feature.Type,
		CreatedAt:   feature.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   feature.UpdatedAt.Format(time.RFC3339),
	}
}

func toProductFeatureResponse(view *service.ProductFeatureView) ProductFeatureResponse {
	resp := ProductFeatureResponse{
		Enabled:          view.Config.Enabled,
		IncludedQuantity: view.Config.IncludedQuantity,
		OverageLimit:     view.Config.OverageLimit,
	}
	if view.Feature != nil {
		resp.Feature = toFeatureResponse(view.Feature)
	}
	return resp
}
