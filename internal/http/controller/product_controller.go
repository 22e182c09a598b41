package controller

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/nortide/catalog-sync/internal/model"
	"github.com/nortide/catalog-sync/internal/repository"
	"github.com/nortide/catalog-sync/internal/service"
)

// ProductController handles HTTP requests for product and sync operations.
type ProductController struct {
	catalogService *service.CatalogService
}

// NewProductController creates a new ProductController with the given catalog service.
func NewProductController(catalogService *service.CatalogService) *ProductController {
	return &ProductController{
		catalogService: catalogService,
	}
}

// ProductRequest represents the request body for creating or updating a product.
type ProductRequest struct {
	Name                string            `json:"name" binding:"required"`
	Description         string            `json:"description"`
	Active              *bool             `json:"active"`
	Images              []string          `json:"images" binding:"max=8"`
	Metadata            map[string]string `json:"metadata"`
	StatementDescriptor string            `json:"statement_descriptor" binding:"max=22"`
	UnitLabel           string            `json:"unit_label" binding:"max=12"`
	LookupKey           string            `json:"lookup_key"`
	DisplayOrder        int               `json:"display_order"`
}

// ProductResponse represents the response body for a product.
type ProductResponse struct {
	ID                  string            `json:"id"`
	Name                string            `json:"name"`
	Description         string            `json:"description,omitempty"`
	Active              bool              `json:"active"`
	Images              []string          `json:"images,omitempty"`
	Metadata            map[string]string `json:"metadata,omitempty"`
	StatementDescriptor string            `json:"statement_descriptor,omitempty"`
	UnitLabel           string            `json:"unit_label,omitempty"`
	LookupKey           string            `json:"lookup_key,omitempty"`
	DisplayOrder        int               `json:"display_order"`
	ExternalID          string            `json:"external_id,omitempty"`
	LastSyncedAt        *time.Time        `json:"last_synced_at,omitempty"`
	OutOfSync           *bool             `json:"out_of_sync,omitempty"`
	Prices              []PriceResponse   `json:"prices,omitempty"`
	CreatedAt           string            `json:"created_at"`
	UpdatedAt           string            `json:"updated_at"`
}

// CreateProduct handles the HTTP POST request for creating a new product.
func (pc *ProductController) CreateProduct(c *gin.Context) {
	var req ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	created, err := pc.catalogService.CreateProduct(c.Request.Context(), req.toModel())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, toProductResponse(created, false))
}

// GetProduct handles the HTTP GET request for a single product with its
// prices and sync status.
func (pc *ProductController) GetProduct(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid product ID"})
		return
	}

	product, err := pc.catalogService.GetProduct(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, toProductResponse(product, true))
}

// UpdateProduct handles the HTTP PUT request for updating a product.
func (pc *ProductController) UpdateProduct(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid product ID"})
		return
	}

	var req ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	product := req.toModel()
	product.ID = id

	updated, err := pc.catalogService.UpdateProduct(c.Request.Context(), product)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, toProductResponse(updated, false))
}

// DeleteProduct handles the HTTP DELETE request for soft-deleting a product.
func (pc *ProductController) DeleteProduct(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid product ID"})
		return
	}

	if err := pc.catalogService.DeleteProduct(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "product deleted successfully"})
}

// ListProductsRequest represents the query parameters for listing products.
type ListProductsRequest struct {
	Limit int32  `form:"limit"`
	Token string `form:"token"`
}

// ListProductsResponse represents the response body for listing products.
type ListProductsResponse struct {
	Products      []ProductResponse `json:"products"`
	NextPageToken string            `json:"next_page_token,omitempty"`
}

// ListProducts handles the HTTP GET request for listing products with pagination.
func (pc *ProductController) ListProducts(c *gin.Context) {
	var req ListProductsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	query := repository.NewQuery()
	if err := query.ApplyPagination(req.Limit, req.Token); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	products, err := pc.catalogService.ListProducts(c.Request.Context(), *query)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list products"})
		return
	}

	var productResponses []ProductResponse
	for _, product := range products {
		productResponses = append(productResponses, toProductResponse(product, true))
	}

	response := ListProductsResponse{
		Products: productResponses,
	}

	// Generate next page token if we have results
	if len(products) > 0 {
		lastProduct := products[len(products)-1]
		paginator := repository.Paginator{
			LastID:        lastProduct.ID,
			LastCreatedAt: lastProduct.CreatedAt,
		}
		response.NextPageToken = paginator.Encode()
	}

	c.JSON(http.StatusOK, response)
}

// SyncProduct handles the HTTP POST request for queueing a product sync.
func (pc *ProductController) SyncProduct(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid product ID"})
		return
	}

	job, err := pc.catalogService.EnqueueSync(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	if job == nil {
		c.JSON(http.StatusOK, gin.H{"message": "sync already pending"})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"job_id": job.ID.String()})
}

// SyncAllProducts handles the HTTP POST request for queueing a full catalog sync.
func (pc *ProductController) SyncAllProducts(c *gin.Context) {
	enqueued, err := pc.catalogService.SyncAllProducts(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"enqueued": enqueued})
}

func (req *ProductRequest) toModel() *model.Product {
	active := true
	if req.Active != nil {
		active = *req.Active
	}
	return &model.Product{
		Name:                req.Name,
		Description:         req.Description,
		Active:              active,
		Images:              req.Images,
		Metadata:            req.Metadata,
		StatementDescriptor: req.StatementDescriptor,
		UnitLabel:           req.UnitLabel,
		LookupKey:           req.LookupKey,
		DisplayOrder:        req.DisplayOrder,
	}
}

func toProductResponse(product *model.Product, withSyncState bool) ProductResponse {
	resp := ProductResponse{
		ID:                  product.ID.String(),
		Name:                product.Name,
		Description:         product.Description,
		Active:              product.Active,
		Images:              product.Images,
		Metadata:            product.Metadata,
		StatementDescriptor: product.StatementDescriptor,
		UnitLabel:           product.UnitLabel,
		LookupKey:           product.LookupKey,
		DisplayOrder:        product.DisplayOrder,
		ExternalID:          product.ExternalID,
		LastSyncedAt:        product.LastSyncedAt,
		CreatedAt:           product.CreatedAt.Format(time.RFC3339),
		UpdatedAt:           product.UpdatedAt.Format(time.RFC3339),
	}
	for _, price := range product.Prices {
		resp.Prices = append(resp.Prices, toPriceResponse(price))
	}
	// Out-of-sync is only meaningful when prices were loaded with the product.
	if withSyncState {
		outOfSync := product.IsOutOfSync()
		resp.OutOfSync = &outOfSync
	}
	return resp
}
