package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/tm-acme-shop/acme-shop-warehouse-service/internal/errors"
	"github.com/tm-acme-shop/acme-shop-warehouse-service/internal/logging"
	"github.com/tm-acme-shop/acme-shop-warehouse-service/internal/middleware"
	"github.com/tm-acme-shop/acme-shop-warehouse-service/internal/models"
	"github.com/tm-acme-shop/acme-shop-warehouse-service/internal/service"
)

// Pinger reports whether a backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handlers holds all HTTP handlers for the warehouse service.
type Handlers struct {
	productService *service.ProductService
	orderService   *service.OrderService
	db             Pinger
	logger         *logging.Logger
}

// NewHandlers creates a new handlers instance. db may be nil, in which case
// readiness only reports that the process is up.
func NewHandlers(
	productService *service.ProductService,
	orderService *service.OrderService,
	db Pinger,
) *Handlers {
	return &Handlers{
		productService: productService,
		orderService:   orderService,
		db:             db,
		logger:         logging.New("handlers"),
	}
}

var errorLogger = logging.New("handlers")

// handleError maps error kinds to HTTP responses.
func handleError(c *gin.Context, err error) {
	var (
		notFound     *errors.ProductNotFoundError
		insufficient *errors.InsufficientStockError
		validation   *errors.ValidationError
	)

	switch {
	case errors.As(err, &notFound):
		c.JSON(http.StatusNotFound, gin.H{
			"error":      notFound.Error(),
			"product_id": notFound.ProductID,
		})
	case errors.As(err, &insufficient):
		c.JSON(http.StatusBadRequest, gin.H{
			"error":      insufficient.Error(),
			"product_id": insufficient.ProductID,
			"available":  insufficient.Available,
			"requested":  insufficient.Requested,
		})
	case errors.As(err, &validation):
		c.JSON(http.StatusBadRequest, gin.H{
			"error": validation.Message,
			"field": validation.Field,
		})
	case errors.Is(err, errors.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, errors.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		errorLogger.Error("Request failed", logging.Fields{
			"path":       c.Request.URL.Path,
			"request_id": middleware.GetRequestID(c.Request.Context()),
			"error":      err.Error(),
		})
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

// parseID reads a positive integer path parameter.
func parseID(c *gin.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.NewValidationError(name, name+" must be a positive integer")
	}
	return id, nil
}

// parsePage reads the page and limit query parameters.
func parsePage(c *gin.Context) (models.Page, error) {
	p := models.Page{Page: models.DefaultPage, Limit: models.DefaultLimit}

	if raw, ok := c.GetQuery("page"); ok {
		v, err := strconv.Atoi(raw)
		if err != nil {
			return p, errors.NewValidationError("page", "page must be an integer")
		}
		p.Page = v
	}

	if raw, ok := c.GetQuery("limit"); ok {
		v, err := strconv.Atoi(raw)
		if err != nil {
			return p, errors.NewValidationError("limit", "limit must be an integer")
		}
		p.Limit = v
	}

	if err := service.ValidatePage(&p); err != nil {
		return p, err
	}
	return p, nil
}
