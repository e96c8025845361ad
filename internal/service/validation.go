package service

import (
	"fmt"
	"math"
	"strings"

	"github.com/tm-acme-shop/acme-shop-warehouse-service/internal/errors"
	"github.com/tm-acme-shop/acme-shop-warehouse-service/internal/models"
)

// ValidateCreateProductRequest validates a product creation request.
func ValidateCreateProductRequest(req *models.CreateProductRequest) error {
	if strings.TrimSpace(req.Name) == "" {
		return errors.NewValidationError("name", "name is required")
	}

	if req.Price.IsNegative() {
		return errors.NewValidationError("price", "price cannot be negative")
	}

	if req.Stock < 0 {
		return errors.NewValidationError("stock", "stock cannot be negative")
	}

	return nil
}

// ValidateUpdateProductRequest validates the fields present in a partial update.
func ValidateUpdateProductRequest(req *models.UpdateProductRequest) error {
	if req.Name != nil && strings.TrimSpace(*req.Name) == "" {
		return errors.NewValidationError("name", "name cannot be empty")
	}

	if req.Price != nil && req.Price.IsNegative() {
		return errors.NewValidationError("price", "price cannot be negative")
	}

	if req.Stock != nil && *req.Stock < 0 {
		return errors.NewValidationError("stock", "stock cannot be negative")
	}

	return nil
}

// ValidateCreateOrderRequest validates an order placement request.
func ValidateCreateOrderRequest(req *models.CreateOrderRequest) error {
	if len(req.Items) == 0 {
		return errors.NewValidationError("items", "at least one item is required")
	}

	for i, item := range req.Items {
		if item.ProductID <= 0 {
			return errors.NewValidationError(fmt.Sprintf("items[%d].product_id", i), "product ID must be positive")
		}
		if item.Amount <= 0 {
			return errors.NewValidationError(fmt.Sprintf("items[%d].amount", i), "amount must be positive")
		}
	}

	return nil
}

// ValidateUpdateOrderStatusRequest validates a status update request. Any
// non-empty status is accepted.
func ValidateUpdateOrderStatusRequest(req *models.UpdateOrderStatusRequest) error {
	if strings.TrimSpace(req.Status) == "" {
		return errors.NewValidationError("status", "status is required")
	}
	return nil
}

// ValidatePage checks 1-based paging parameters and clamps the limit.
func ValidatePage(p *models.Page) error {
	if p.Page < 1 {
		return errors.NewValidationError("page", "page must be at least 1")
	}

	if p.Limit < 1 {
		return errors.NewValidationError("limit", "limit must be at least 1")
	}

	if p.Limit > models.MaxLimit {
		p.Limit = models.MaxLimit
	}

	// Offset must fit in an int.
	if p.Page > math.MaxInt/p.Limit {
		return errors.NewValidationError("page", "page is out of range")
	}

	return nil
}
