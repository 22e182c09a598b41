package controller

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nortide/catalog-sync/internal/repository"
	"github.com/nortide/catalog-sync/internal/service"
)

// Controller handles general HTTP requests.
type Controller struct{}

// New creates a new Controller.
func New() *Controller {
	return &Controller{}
}

// Ping handles the HTTP GET request for health check endpoint.
func (con *Controller) Ping(c *gin.Context) {
	c.JSON(200, gin.H{
		"message": "pong",
	})
}

// respondError maps service and repository errors onto HTTP statuses.
func respondError(c *gin.Context, err error) {
	var uniqueErr *repository.UniqueConstraintError

	switch {
	case errors.Is(err, repository.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "resource not found"})
	case errors.As(err, &uniqueErr):
		c.JSON(http.StatusConflict, gin.H{"error": uniqueErr.Error()})
	case isValidationError(err):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func isValidationError(err error) bool {
	for _, validationErr := range []error{
		service.ErrNameRequired,
		service.ErrTooManyImages,
		service.ErrStatementDescriptorTooLong,
		service.ErrUnitLabelTooLong,
		service.ErrCurrencyRequired,
		service.ErrInvalidPriceType,
		service.ErrIntervalRequired,
		service.ErrTiersRequired,
		service.ErrFeatureKeyRequired,
		service.ErrFeatureNameRequired,
		service.ErrInvalidFeatureType,
	} {
		if errors.Is(err, validationErr) {
			return true
		}
	}
	return false
}
