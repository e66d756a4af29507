package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/raineandseaweb/raineandsea-sub003/internal/domain"
	"github.com/raineandseaweb/raineandsea-sub003/internal/dto"
	"github.com/raineandseaweb/raineandsea-sub003/internal/repository"
	"github.com/raineandseaweb/raineandsea-sub003/pkg/telemetry"
)

// CatalogService serves the public product views
type CatalogService interface {
	List(ctx context.Context, query *dto.ProductListQuery) ([]*domain.Product, int, error)
	// Get returns an active product; inactive products are invisible to
	// the public catalog
	Get(ctx context.Context, id string) (*domain.Product, error)
	Categories(ctx context.Context) ([]string, error)
	// NotifyWhenInStock registers a restock subscription for a product
	// that is currently out of stock
	NotifyWhenInStock(ctx context.Context, req *dto.StockNotifyRequest) error
}

// catalogService implements CatalogService
type catalogService struct {
	productRepo repository.ProductRepository
	stockRepo   repository.StockNotificationRepository
}

// NewCatalogService creates a new CatalogService
func NewCatalogService(productRepo repository.ProductRepository, stockRepo repository.StockNotificationRepository) CatalogService {
	return &catalogService{productRepo: productRepo, stockRepo: stockRepo}
}

// List lists active products with filters and pagination
func (s *catalogService) List(ctx context.Context, query *dto.ProductListQuery) ([]*domain.Product, int, error) {
	ctx, span := telemetry.StartSpan(ctx, "catalog.list")
	defer span.End()

	filter := &repository.ProductFilter{
		Category:   query.Category,
		Search:     query.Search,
		ActiveOnly: true,
	}
	offset := (query.Page - 1) * query.PageSize
	return s.productRepo.List(ctx, filter, query.PageSize, offset)
}

// Get returns an active product
func (s *catalogService) Get(ctx context.Context, id string) (*domain.Product, error) {
	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if product == nil || !product.IsActive {
		return nil, domain.ErrProductNotFound
	}
	return product, nil
}

// Categories lists the distinct categories of active products
func (s *catalogService) Categories(ctx context.Context) ([]string, error) {
	return s.productRepo.Categories(ctx)
}

// NotifyWhenInStock registers a restock subscription
func (s *catalogService) NotifyWhenInStock(ctx context.Context, req *dto.StockNotifyRequest) error {
	ctx, span := telemetry.StartSpan(ctx, "catalog.notify_stock")
	defer span.End()

	if !dto.ValidEmail(req.Email) {
		return domain.ErrInvalidEmail
	}

	product, err := s.productRepo.GetByID(ctx, req.ProductID)
	if err != nil {
		return err
	}
	if product == nil || !product.IsActive {
		return domain.ErrProductNotFound
	}

	return s.stockRepo.Create(ctx, &domain.StockNotification{
		ID:        uuid.New().String(),
		ProductID: req.ProductID,
		Email:     req.Email,
		CreatedAt: time.Now().UTC(),
	})
}
