package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/raineandseaweb/raineandsea-sub003/internal/domain"
	"github.com/raineandseaweb/raineandsea-sub003/internal/dto"
	"github.com/raineandseaweb/raineandsea-sub003/internal/pricing"
	"github.com/raineandseaweb/raineandsea-sub003/internal/repository"
	"github.com/raineandseaweb/raineandsea-sub003/pkg/telemetry"
)

// CartService defines the interface for cart operations. All prices in
// the returned views are computed server-side against the current
// catalog; client-sent prices are never consulted.
type CartService interface {
	// GetOrCreate returns the cart for the given id, provisioning a
	// fresh one when the id is empty or stale
	GetOrCreate(ctx context.Context, cartID string) (*domain.Cart, error)
	// View prices the cart and computes totals
	View(ctx context.Context, cartID string) (*dto.CartResponse, error)
	// AddItem adds a line, merging with an existing line that has the
	// same product and options
	AddItem(ctx context.Context, cartID string, req *dto.AddToCartRequest) (*dto.CartResponse, error)
	// UpdateItemQuantity sets a line's quantity; zero or negative
	// removes the line
	UpdateItemQuantity(ctx context.Context, cartID, itemID string, quantity int) (*dto.CartResponse, error)
	// RemoveItem deletes a line
	RemoveItem(ctx context.Context, cartID, itemID string) (*dto.CartResponse, error)
	// Sync replaces the whole cart with the client's local copy,
	// re-merging duplicate lines
	Sync(ctx context.Context, cartID string, req *dto.SyncCartRequest) (*dto.CartResponse, error)
	// Clear removes every line from the cart
	Clear(ctx context.Context, cartID string) (*dto.CartResponse, error)
	// AttachUser binds a guest cart to a user after login
	AttachUser(ctx context.Context, cartID, userID string) error
}

// cartService implements CartService
type cartService struct {
	cartRepo    repository.CartRepository
	productRepo repository.ProductRepository
}

// NewCartService creates a new CartService
func NewCartService(cartRepo repository.CartRepository, productRepo repository.ProductRepository) CartService {
	return &cartService{cartRepo: cartRepo, productRepo: productRepo}
}

// GetOrCreate returns the cart for the given id, provisioning a fresh
// one when needed
func (s *cartService) GetOrCreate(ctx context.Context, cartID string) (*domain.Cart, error) {
	if cartID != "" {
		cart, err := s.cartRepo.GetCart(ctx, cartID)
		if err != nil {
			return nil, err
		}
		if cart != nil {
			return cart, nil
		}
	}

	now := time.Now().UTC()
	cart := &domain.Cart{ID: uuid.New().String(), CreatedAt: now, UpdatedAt: now}
	if err := s.cartRepo.CreateCart(ctx, cart); err != nil {
		return nil, err
	}
	return cart, nil
}

// View prices the cart and computes totals
func (s *cartService) View(ctx context.Context, cartID string) (*dto.CartResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "cart.view")
	defer span.End()
	return s.buildView(ctx, cartID)
}

// AddItem adds a line, merging by (product, options) identity
func (s *cartService) AddItem(ctx context.Context, cartID string, req *dto.AddToCartRequest) (*dto.CartResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "cart.add_item")
	defer span.End()

	if req.Quantity <= 0 {
		return nil, domain.ErrInvalidQuantity
	}

	product, err := s.productRepo.GetByID(ctx, req.ProductID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, domain.ErrProductNotFound
	}
	if !product.IsActive {
		return nil, domain.ErrProductInactive
	}

	mergeKey := pricing.MergeKey(req.ProductID, req.SelectedOptions)
	existing, err := s.cartRepo.GetItemByMergeKey(ctx, cartID, mergeKey)
	if err != nil {
		return nil, err
	}

	if existing != nil {
		if err := s.cartRepo.UpdateItemQuantity(ctx, existing.ID, existing.Quantity+req.Quantity); err != nil {
			return nil, err
		}
	} else {
		now := time.Now().UTC()
		item := &domain.CartItem{
			ID:              uuid.New().String(),
			CartID:          cartID,
			ProductID:       req.ProductID,
			Quantity:        req.Quantity,
			SelectedOptions: req.SelectedOptions,
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		if err := s.cartRepo.InsertItem(ctx, item, mergeKey); err != nil {
			return nil, err
		}
	}

	return s.buildView(ctx, cartID)
}

// UpdateItemQuantity sets a line's quantity; zero or negative removes it
func (s *cartService) UpdateItemQuantity(ctx context.Context, cartID, itemID string, quantity int) (*dto.CartResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "cart.update_item")
	defer span.End()

	item, err := s.cartRepo.GetItem(ctx, cartID, itemID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, domain.ErrCartItemNotFound
	}

	if quantity <= 0 {
		if err := s.cartRepo.DeleteItem(ctx, itemID); err != nil {
			return nil, err
		}
	} else {
		if err := s.cartRepo.UpdateItemQuantity(ctx, itemID, quantity); err != nil {
			return nil, err
		}
	}

	return s.buildView(ctx, cartID)
}

// RemoveItem deletes a line
func (s *cartService) RemoveItem(ctx context.Context, cartID, itemID string) (*dto.CartResponse, error) {
	item, err := s.cartRepo.GetItem(ctx, cartID, itemID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, domain.ErrCartItemNotFound
	}
	if err := s.cartRepo.DeleteItem(ctx, itemID); err != nil {
		return nil, err
	}
	return s.buildView(ctx, cartID)
}

// Sync replaces the whole cart with the client's local copy
func (s *cartService) Sync(ctx context.Context, cartID string, req *dto.SyncCartRequest) (*dto.CartResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "cart.sync")
	defer span.End()

	// merge duplicate lines in the incoming payload first
	type pending struct {
		item     *domain.CartItem
		mergeKey string
	}
	var order []string
	byKey := map[string]*pending{}

	now := time.Now().UTC()
	for _, line := range req.Items {
		if line.Quantity <= 0 {
			continue
		}
		key := pricing.MergeKey(line.ProductID, line.SelectedOptions)
		if p, ok := byKey[key]; ok {
			p.item.Quantity += line.Quantity
			continue
		}
		byKey[key] = &pending{
			item: &domain.CartItem{
				ID:              uuid.New().String(),
				CartID:          cartID,
				ProductID:       line.ProductID,
				Quantity:        line.Quantity,
				SelectedOptions: line.SelectedOptions,
				CreatedAt:       now,
				UpdatedAt:       now,
			},
			mergeKey: key,
		}
		order = append(order, key)
	}

	// drop lines whose product no longer exists or is inactive
	ids := make([]string, 0, len(order))
	for _, key := range order {
		ids = append(ids, byKey[key].item.ProductID)
	}
	products, err := s.productRepo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	var items []*domain.CartItem
	var mergeKeys []string
	for _, key := range order {
		p := byKey[key]
		if product, ok := products[p.item.ProductID]; ok && product.IsActive {
			items = append(items, p.item)
			mergeKeys = append(mergeKeys, p.mergeKey)
		}
	}

	if err := s.cartRepo.ReplaceItems(ctx, cartID, items, mergeKeys); err != nil {
		return nil, err
	}
	return s.buildView(ctx, cartID)
}

// Clear removes every line from the cart
func (s *cartService) Clear(ctx context.Context, cartID string) (*dto.CartResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "cart.clear")
	defer span.End()

	if err := s.cartRepo.ReplaceItems(ctx, cartID, nil, nil); err != nil {
		return nil, err
	}
	return s.buildView(ctx, cartID)
}

// AttachUser binds a guest cart to a user after login
func (s *cartService) AttachUser(ctx context.Context, cartID, userID string) error {
	return s.cartRepo.AttachUser(ctx, cartID, userID)
}

// buildView loads the cart lines, prices each against the current
// catalog, and aggregates totals. Lines whose product has vanished stay
// visible but unpriced.
func (s *cartService) buildView(ctx context.Context, cartID string) (*dto.CartResponse, error) {
	items, err := s.cartRepo.GetItems(ctx, cartID)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ProductID)
	}
	products, err := s.productRepo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	view := &dto.CartResponse{ID: cartID, Items: make([]dto.CartItemResponse, 0, len(items))}
	priced := make([]pricing.PricedItem, 0, len(items))

	for _, item := range items {
		line := dto.CartItemResponse{
			ID:              item.ID,
			ProductID:       item.ProductID,
			Quantity:        item.Quantity,
			SelectedOptions: item.SelectedOptions,
		}

		if product, ok := products[item.ProductID]; ok {
			unit := pricing.UnitPrice(product.BasePrice, item.SelectedOptions, product.Options)
			line.Title = pricing.LineTitle(product.Name, item.SelectedOptions)
			line.UnitPrice = unit
			line.LineTotal = unit * float64(item.Quantity)
			line.Resolved = true
			priced = append(priced, pricing.PricedItem{Quantity: item.Quantity, UnitPrice: unit, Resolved: true})
		} else {
			priced = append(priced, pricing.PricedItem{Quantity: item.Quantity})
		}

		view.Items = append(view.Items, line)
	}

	totals := pricing.Totals(priced)
	view.TotalItems = totals.TotalItems
	view.TotalPrice = totals.TotalPrice
	view.Incomplete = totals.Incomplete
	return view, nil
}
