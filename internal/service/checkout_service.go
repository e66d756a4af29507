package service

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/raineandseaweb/raineandsea-sub003/internal/domain"
	"github.com/raineandseaweb/raineandsea-sub003/internal/dto"
	"github.com/raineandseaweb/raineandsea-sub003/internal/events"
	"github.com/raineandseaweb/raineandsea-sub003/internal/pricing"
	"github.com/raineandseaweb/raineandsea-sub003/internal/repository"
	"github.com/raineandseaweb/raineandsea-sub003/pkg/logger"
	"github.com/raineandseaweb/raineandsea-sub003/pkg/metrics"
	"github.com/raineandseaweb/raineandsea-sub003/pkg/telemetry"
)

// CheckoutService converts carts into orders. Guests check out with an
// email address; authenticated users with their account email.
type CheckoutService interface {
	Checkout(ctx context.Context, cartID string, user *domain.User, req *dto.CheckoutRequest) (*domain.Order, error)
}

// checkoutService implements CheckoutService
type checkoutService struct {
	cartRepo    repository.CartRepository
	productRepo repository.ProductRepository
	orderRepo   repository.OrderRepository
	publisher   events.Publisher
	log         *logger.Logger
}

// NewCheckoutService creates a new CheckoutService
func NewCheckoutService(
	cartRepo repository.CartRepository,
	productRepo repository.ProductRepository,
	orderRepo repository.OrderRepository,
	publisher events.Publisher,
) CheckoutService {
	return &checkoutService{
		cartRepo:    cartRepo,
		productRepo: productRepo,
		orderRepo:   orderRepo,
		publisher:   publisher,
		log:         logger.Get(),
	}
}

// Checkout validates the cart against the live catalog, prices every
// line server-side, and places the order in a single transaction that
// also decrements stock and clears the cart.
func (s *checkoutService) Checkout(ctx context.Context, cartID string, user *domain.User, req *dto.CheckoutRequest) (*domain.Order, error) {
	ctx, span := telemetry.StartSpan(ctx, "checkout.place_order")
	defer span.End()

	email := req.Email
	var userID *string
	if user != nil {
		email = user.Email
		userID = &user.ID
	}
	if !dto.ValidEmail(email) {
		return nil, domain.ErrInvalidEmail
	}

	items, err := s.cartRepo.GetItems(ctx, cartID)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, domain.ErrEmptyCart
	}

	ids := make([]string, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ProductID)
	}
	products, err := s.productRepo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	order := &domain.Order{
		ID:          uuid.New().String(),
		OrderNumber: generateOrderNumber(now),
		UserID:      userID,
		Email:       email,
		Status:      domain.OrderStatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	for _, item := range items {
		product, ok := products[item.ProductID]
		if !ok || !product.IsActive {
			return nil, fmt.Errorf("cart line %s: %w", item.ID, domain.ErrProductNotFound)
		}
		if product.Stock < item.Quantity {
			return nil, fmt.Errorf("%s: %w", product.Name, domain.ErrInsufficientStock)
		}
		// options with no matching definition are tolerated for
		// pricing, but a selected value marked sold out blocks checkout
		for name, valueName := range item.SelectedOptions {
			if value := product.OptionValueFor(name, valueName); value != nil && value.SoldOut {
				return nil, fmt.Errorf("%s (%s: %s): %w", product.Name, name, valueName, domain.ErrOptionSoldOut)
			}
		}

		unit := pricing.UnitPrice(product.BasePrice, item.SelectedOptions, product.Options)
		order.Items = append(order.Items, domain.OrderItem{
			ID:              uuid.New().String(),
			OrderID:         order.ID,
			ProductID:       item.ProductID,
			Title:           pricing.LineTitle(product.Name, item.SelectedOptions),
			Quantity:        item.Quantity,
			UnitPrice:       unit,
			SelectedOptions: item.SelectedOptions,
		})
		order.TotalAmount += unit * float64(item.Quantity)
	}

	if err := s.orderRepo.PlaceOrder(ctx, order, cartID); err != nil {
		return nil, err
	}
	metrics.OrdersPlaced.Inc()

	event := &events.OrderPlacedEvent{
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		Email:       order.Email,
		TotalAmount: order.TotalAmount,
		ItemCount:   len(order.Items),
	}
	if userID != nil {
		event.UserID = *userID
	}
	if err := s.publisher.PublishOrderPlaced(ctx, event); err != nil {
		// the order is already committed; event delivery is best effort
		s.log.Error("order.placed publish failed", zap.String("order_id", order.ID), zap.Error(err))
	}

	return order, nil
}

// generateOrderNumber builds a customer-facing order reference:
// RS-YYYYMMDD-XXXXXX. Not an identifier: uniqueness is enforced by the
// orders table, and placement retries on the rare collision are left to
// the client.
func generateOrderNumber(now time.Time) string {
	const alphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"
	var b strings.Builder
	for i := 0; i < 6; i++ {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(alphabet))))
		if err != nil {
			n = big.NewInt(int64(i))
		}
		b.WriteByte(alphabet[n.Int64()])
	}
	return fmt.Sprintf("RS-%s-%s", now.Format("20060102"), b.String())
}
