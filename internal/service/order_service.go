package service

import (
	"context"

	"github.com/raineandseaweb/raineandsea-sub003/internal/domain"
	"github.com/raineandseaweb/raineandsea-sub003/internal/repository"
)

// OrderService serves order history and guest order lookup
type OrderService interface {
	// ListMine lists the caller's orders
	ListMine(ctx context.Context, userID string, page, pageSize int) ([]*domain.Order, int, error)
	// GetMine fetches one order, enforcing ownership
	GetMine(ctx context.Context, userID, orderID string) (*domain.Order, error)
	// GuestLookup fetches an order by number and email. Both must match;
	// a wrong email behaves exactly like a missing order.
	GuestLookup(ctx context.Context, orderNumber, email string) (*domain.Order, error)
}

// orderService implements OrderService
type orderService struct {
	orderRepo repository.OrderRepository
}

// NewOrderService creates a new OrderService
func NewOrderService(orderRepo repository.OrderRepository) OrderService {
	return &orderService{orderRepo: orderRepo}
}

// ListMine lists the caller's orders, newest first
func (s *orderService) ListMine(ctx context.Context, userID string, page, pageSize int) ([]*domain.Order, int, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	return s.orderRepo.ListByUser(ctx, userID, pageSize, (page-1)*pageSize)
}

// GetMine fetches one order, enforcing ownership
func (s *orderService) GetMine(ctx context.Context, userID, orderID string) (*domain.Order, error) {
	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	// an order that exists but belongs to someone else is reported
	// exactly like a missing one
	if order == nil || order.UserID == nil || *order.UserID != userID {
		return nil, domain.ErrOrderNotFound
	}
	return order, nil
}

// GuestLookup fetches an order by number and email
func (s *orderService) GuestLookup(ctx context.Context, orderNumber, email string) (*domain.Order, error) {
	order, err := s.orderRepo.GetByNumberAndEmail(ctx, orderNumber, email)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, domain.ErrOrderNotFound
	}
	return order, nil
}
