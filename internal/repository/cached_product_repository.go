package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/raineandseaweb/raineandsea-sub003/internal/domain"
	"github.com/raineandseaweb/raineandsea-sub003/pkg/redis"
)

const (
	productDetailKeyPrefix = "product:detail:"
	productListVersionKey  = "product:list:version"
	productListKeyPrefix   = "product:list:"

	productCacheTTL = 5 * time.Minute
)

// CachedProductRepository wraps ProductRepository with Redis caching.
// Detail reads are cached per id; list reads are cached under a version
// number that every write bumps, so invalidation never has to enumerate
// list key permutations.
type CachedProductRepository struct {
	repo  ProductRepository
	cache *redis.Client
}

// NewCachedProductRepository creates a new CachedProductRepository
func NewCachedProductRepository(repo ProductRepository, cache *redis.Client) *CachedProductRepository {
	return &CachedProductRepository{repo: repo, cache: cache}
}

func (r *CachedProductRepository) Create(ctx context.Context, product *domain.Product) error {
	if err := r.repo.Create(ctx, product); err != nil {
		return err
	}
	r.bumpListVersion(ctx)
	return nil
}

func (r *CachedProductRepository) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	cacheKey := productDetailKeyPrefix + id
	cached, err := r.cache.Get(ctx, cacheKey).Result()
	if err == nil && cached != "" {
		var product domain.Product
		if err := json.Unmarshal([]byte(cached), &product); err == nil {
			return &product, nil
		}
	}

	product, err := r.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, nil
	}

	if data, err := json.Marshal(product); err == nil {
		r.cache.Set(ctx, cacheKey, data, productCacheTTL)
	}
	return product, nil
}

// GetByIDs bypasses the cache: it is only used on the checkout path,
// which must price against current stock.
func (r *CachedProductRepository) GetByIDs(ctx context.Context, ids []string) (map[string]*domain.Product, error) {
	return r.repo.GetByIDs(ctx, ids)
}

type cachedProductList struct {
	Products []*domain.Product `json:"products"`
	Total    int               `json:"total"`
}

func (r *CachedProductRepository) List(ctx context.Context, filter *ProductFilter, limit, offset int) ([]*domain.Product, int, error) {
	version, _ := r.cache.Get(ctx, productListVersionKey).Result()
	var cacheKey string
	if filter != nil {
		cacheKey = fmt.Sprintf("%s%s:%s:%s:%t:%d:%d",
			productListKeyPrefix, version, filter.Category, filter.Search, filter.ActiveOnly, limit, offset)
	} else {
		cacheKey = fmt.Sprintf("%s%s:::false:%d:%d", productListKeyPrefix, version, limit, offset)
	}

	cached, err := r.cache.Get(ctx, cacheKey).Result()
	if err == nil && cached != "" {
		var list cachedProductList
		if err := json.Unmarshal([]byte(cached), &list); err == nil {
			return list.Products, list.Total, nil
		}
	}

	products, total, err := r.repo.List(ctx, filter, limit, offset)
	if err != nil {
		return nil, 0, err
	}

	if data, err := json.Marshal(cachedProductList{Products: products, Total: total}); err == nil {
		r.cache.Set(ctx, cacheKey, data, productCacheTTL)
	}
	return products, total, nil
}

func (r *CachedProductRepository) Update(ctx context.Context, product *domain.Product) error {
	if err := r.repo.Update(ctx, product); err != nil {
		return err
	}
	r.invalidateProduct(ctx, product.ID)
	return nil
}

func (r *CachedProductRepository) UpdateMany(ctx context.Context, products []*domain.Product) error {
	if err := r.repo.UpdateMany(ctx, products); err != nil {
		return err
	}
	for _, product := range products {
		r.invalidateProduct(ctx, product.ID)
	}
	return nil
}

func (r *CachedProductRepository) Delete(ctx context.Context, id string) error {
	if err := r.repo.Delete(ctx, id); err != nil {
		return err
	}
	r.invalidateProduct(ctx, id)
	return nil
}

// Categories is cheap and changes rarely; serve it straight from the
// database to keep this wrapper simple.
func (r *CachedProductRepository) Categories(ctx context.Context) ([]string, error) {
	return r.repo.Categories(ctx)
}

func (r *CachedProductRepository) invalidateProduct(ctx context.Context, id string) {
	r.cache.Del(ctx, productDetailKeyPrefix+id)
	r.bumpListVersion(ctx)
}

func (r *CachedProductRepository) bumpListVersion(ctx context.Context) {
	// cache failures degrade to database reads, never to errors
	r.cache.Incr(ctx, productListVersionKey)
}
