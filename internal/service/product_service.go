package service

import (
	"context"

	"github.com/tm-acme-shop/acme-shop-warehouse-service/internal/logging"
	"github.com/tm-acme-shop/acme-shop-warehouse-service/internal/models"
	"github.com/tm-acme-shop/acme-shop-warehouse-service/internal/repository"
)

// ProductService handles catalog operations.
type ProductService struct {
	store  repository.Store
	cache  repository.Cache
	logger *logging.Logger
}

// NewProductService creates a new product service. cache may be nil.
func NewProductService(store repository.Store, cache repository.Cache) *ProductService {
	return &ProductService{
		store:  store,
		cache:  cache,
		logger: logging.New("product-service"),
	}
}

// CreateProduct validates and stores a new product.
func (s *ProductService) CreateProduct(ctx context.Context, req *models.CreateProductRequest) (*models.Product, error) {
	if err := ValidateCreateProductRequest(req); err != nil {
		return nil, err
	}

	product, err := s.store.Products().Create(ctx, req)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Product created", logging.Fields{
		"product_id": product.ID,
		"name":       product.Name,
	})
	return product, nil
}

// ListProducts returns one page of products ordered by id.
func (s *ProductService) ListProducts(ctx context.Context, limit, offset int) ([]*models.Product, error) {
	return s.store.Products().List(ctx, limit, offset)
}

// GetProduct retrieves a product, preferring the cache.
func (s *ProductService) GetProduct(ctx context.Context, id int64) (*models.Product, error) {
	if s.cache != nil {
		if product, err := s.cache.GetProduct(ctx, id); err == nil && product != nil {
			return product, nil
		}
	}

	product, err := s.store.Products().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.SetProduct(ctx, product); err != nil {
			s.logger.Warn("Failed to cache product", logging.Fields{
				"product_id": id,
				"error":      err.Error(),
			})
		}
	}
	return product, nil
}

// UpdateProduct applies a partial update.
func (s *ProductService) UpdateProduct(ctx context.Context, id int64, req *models.UpdateProductRequest) (*models.Product, error) {
	if err := ValidateUpdateProductRequest(req); err != nil {
		return nil, err
	}

	// Nothing to write; keep the cached copy.
	if req.IsEmpty() {
		return s.GetProduct(ctx, id)
	}

	product, err := s.store.Products().Update(ctx, id, req)
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, id)
	s.logger.Info("Product updated", logging.Fields{"product_id": id})
	return product, nil
}

// DeleteProduct removes a product. Products that orders still reference
// cannot be deleted.
func (s *ProductService) DeleteProduct(ctx context.Context, id int64) error {
	if err := s.store.Products().Delete(ctx, id); err != nil {
		return err
	}

	s.invalidate(ctx, id)
	s.logger.Info("Product deleted", logging.Fields{"product_id": id})
	return nil
}

func (s *ProductService) invalidate(ctx context.Context, id int64) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteProducts(ctx, id); err != nil {
		s.logger.Error("Failed to invalidate cached product", logging.Fields{
			"product_id": id,
			"error":      err.Error(),
		})
	}
}
