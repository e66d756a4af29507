package handler

import (
	"context"

	"github.com/raineandseaweb/raineandsea-sub003/internal/domain"
	"github.com/raineandseaweb/raineandsea-sub003/internal/dto"
)

// MockAuthService is a func-field mock of service.AuthService
type MockAuthService struct {
	RegisterFunc       func(ctx context.Context, req *dto.RegisterRequest, userAgent, ip string) (*dto.AuthResponse, error)
	LoginFunc          func(ctx context.Context, req *dto.LoginRequest, userAgent, ip string) (*dto.AuthResponse, error)
	LogoutFunc         func(ctx context.Context, tokenString, sessionID string) error
	LogoutAllFunc      func(ctx context.Context, userID string) error
	UpdateProfileFunc  func(ctx context.Context, tokenString, userID string, req *dto.UpdateProfileRequest) (*domain.User, error)
	ChangePasswordFunc func(ctx context.Context, userID, sessionID string, req *dto.ChangePasswordRequest) error
	ListSessionsFunc   func(ctx context.Context, userID string) ([]*domain.Session, error)
	ForgotPasswordFunc func(ctx context.Context, email string) error
	ResetPasswordFunc  func(ctx context.Context, req *dto.ResetPasswordRequest) error
}

func (m *MockAuthService) Register(ctx context.Context, req *dto.RegisterRequest, userAgent, ip string) (*dto.AuthResponse, error) {
	if m.RegisterFunc != nil {
		return m.RegisterFunc(ctx, req, userAgent, ip)
	}
	return nil, nil
}

func (m *MockAuthService) Login(ctx context.Context, req *dto.LoginRequest, userAgent, ip string) (*dto.AuthResponse, error) {
	if m.LoginFunc != nil {
		return m.LoginFunc(ctx, req, userAgent, ip)
	}
	return nil, nil
}

func (m *MockAuthService) Logout(ctx context.Context, tokenString, sessionID string) error {
	if m.LogoutFunc != nil {
		return m.LogoutFunc(ctx, tokenString, sessionID)
	}
	return nil
}

func (m *MockAuthService) LogoutAll(ctx context.Context, userID string) error {
	if m.LogoutAllFunc != nil {
		return m.LogoutAllFunc(ctx, userID)
	}
	return nil
}

func (m *MockAuthService) UpdateProfile(ctx context.Context, tokenString, userID string, req *dto.UpdateProfileRequest) (*domain.User, error) {
	if m.UpdateProfileFunc != nil {
		return m.UpdateProfileFunc(ctx, tokenString, userID, req)
	}
	return nil, nil
}

func (m *MockAuthService) ChangePassword(ctx context.Context, userID, sessionID string, req *dto.ChangePasswordRequest) error {
	if m.ChangePasswordFunc != nil {
		return m.ChangePasswordFunc(ctx, userID, sessionID, req)
	}
	return nil
}

func (m *MockAuthService) ListSessions(ctx context.Context, userID string) ([]*domain.Session, error) {
	if m.ListSessionsFunc != nil {
		return m.ListSessionsFunc(ctx, userID)
	}
	return nil, nil
}

func (m *MockAuthService) ForgotPassword(ctx context.Context, email string) error {
	if m.ForgotPasswordFunc != nil {
		return m.ForgotPasswordFunc(ctx, email)
	}
	return nil
}

func (m *MockAuthService) ResetPassword(ctx context.Context, req *dto.ResetPasswordRequest) error {
	if m.ResetPasswordFunc != nil {
		return m.ResetPasswordFunc(ctx, req)
	}
	return nil
}

// MockCartService is a func-field mock of service.CartService
type MockCartService struct {
	GetOrCreateFunc        func(ctx context.Context, cartID string) (*domain.Cart, error)
	ViewFunc               func(ctx context.Context, cartID string) (*dto.CartResponse, error)
	AddItemFunc            func(ctx context.Context, cartID string, req *dto.AddToCartRequest) (*dto.CartResponse, error)
	UpdateItemQuantityFunc func(ctx context.Context, cartID, itemID string, quantity int) (*dto.CartResponse, error)
	RemoveItemFunc         func(ctx context.Context, cartID, itemID string) (*dto.CartResponse, error)
	SyncFunc               func(ctx context.Context, cartID string, req *dto.SyncCartRequest) (*dto.CartResponse, error)
	ClearFunc              func(ctx context.Context, cartID string) (*dto.CartResponse, error)
	AttachUserFunc         func(ctx context.Context, cartID, userID string) error
}

func (m *MockCartService) GetOrCreate(ctx context.Context, cartID string) (*domain.Cart, error) {
	if m.GetOrCreateFunc != nil {
		return m.GetOrCreateFunc(ctx, cartID)
	}
	return &domain.Cart{ID: cartID}, nil
}

func (m *MockCartService) View(ctx context.Context, cartID string) (*dto.CartResponse, error) {
	if m.ViewFunc != nil {
		return m.ViewFunc(ctx, cartID)
	}
	return &dto.CartResponse{ID: cartID, Items: []dto.CartItemResponse{}}, nil
}

func (m *MockCartService) AddItem(ctx context.Context, cartID string, req *dto.AddToCartRequest) (*dto.CartResponse, error) {
	if m.AddItemFunc != nil {
		return m.AddItemFunc(ctx, cartID, req)
	}
	return &dto.CartResponse{ID: cartID}, nil
}

func (m *MockCartService) UpdateItemQuantity(ctx context.Context, cartID, itemID string, quantity int) (*dto.CartResponse, error) {
	if m.UpdateItemQuantityFunc != nil {
		return m.UpdateItemQuantityFunc(ctx, cartID, itemID, quantity)
	}
	return &dto.CartResponse{ID: cartID}, nil
}

func (m *MockCartService) RemoveItem(ctx context.Context, cartID, itemID string) (*dto.CartResponse, error) {
	if m.RemoveItemFunc != nil {
		return m.RemoveItemFunc(ctx, cartID, itemID)
	}
	return &dto.CartResponse{ID: cartID}, nil
}

func (m *MockCartService) Sync(ctx context.Context, cartID string, req *dto.SyncCartRequest) (*dto.CartResponse, error) {
	if m.SyncFunc != nil {
		return m.SyncFunc(ctx, cartID, req)
	}
	return &dto.CartResponse{ID: cartID}, nil
}

func (m *MockCartService) Clear(ctx context.Context, cartID string) (*dto.CartResponse, error) {
	if m.ClearFunc != nil {
		return m.ClearFunc(ctx, cartID)
	}
	return &dto.CartResponse{ID: cartID, Items: []dto.CartItemResponse{}}, nil
}

func (m *MockCartService) AttachUser(ctx context.Context, cartID, userID string) error {
	if m.AttachUserFunc != nil {
		return m.AttachUserFunc(ctx, cartID, userID)
	}
	return nil
}

// MockCatalogService is a func-field mock of service.CatalogService
type MockCatalogService struct {
	ListFunc              func(ctx context.Context, query *dto.ProductListQuery) ([]*domain.Product, int, error)
	GetFunc               func(ctx context.Context, id string) (*domain.Product, error)
	CategoriesFunc        func(ctx context.Context) ([]string, error)
	NotifyWhenInStockFunc func(ctx context.Context, req *dto.StockNotifyRequest) error
}

func (m *MockCatalogService) List(ctx context.Context, query *dto.ProductListQuery) ([]*domain.Product, int, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, query)
	}
	return nil, 0, nil
}

func (m *MockCatalogService) Get(ctx context.Context, id string) (*domain.Product, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, id)
	}
	return nil, domain.ErrProductNotFound
}

func (m *MockCatalogService) Categories(ctx context.Context) ([]string, error) {
	if m.CategoriesFunc != nil {
		return m.CategoriesFunc(ctx)
	}
	return nil, nil
}

func (m *MockCatalogService) NotifyWhenInStock(ctx context.Context, req *dto.StockNotifyRequest) error {
	if m.NotifyWhenInStockFunc != nil {
		return m.NotifyWhenInStockFunc(ctx, req)
	}
	return nil
}

// MockCheckoutService is a func-field mock of service.CheckoutService
type MockCheckoutService struct {
	CheckoutFunc func(ctx context.Context, cartID string, user *domain.User, req *dto.CheckoutRequest) (*domain.Order, error)
}

func (m *MockCheckoutService) Checkout(ctx context.Context, cartID string, user *domain.User, req *dto.CheckoutRequest) (*domain.Order, error) {
	if m.CheckoutFunc != nil {
		return m.CheckoutFunc(ctx, cartID, user, req)
	}
	return nil, domain.ErrEmptyCart
}

// MockOrderService is a func-field mock of service.OrderService
type MockOrderService struct {
	ListMineFunc    func(ctx context.Context, userID string, page, pageSize int) ([]*domain.Order, int, error)
	GetMineFunc     func(ctx context.Context, userID, orderID string) (*domain.Order, error)
	GuestLookupFunc func(ctx context.Context, orderNumber, email string) (*domain.Order, error)
}

func (m *MockOrderService) ListMine(ctx context.Context, userID string, page, pageSize int) ([]*domain.Order, int, error) {
	if m.ListMineFunc != nil {
		return m.ListMineFunc(ctx, userID, page, pageSize)
	}
	return nil, 0, nil
}

func (m *MockOrderService) GetMine(ctx context.Context, userID, orderID string) (*domain.Order, error) {
	if m.GetMineFunc != nil {
		return m.GetMineFunc(ctx, userID, orderID)
	}
	return nil, domain.ErrOrderNotFound
}

func (m *MockOrderService) GuestLookup(ctx context.Context, orderNumber, email string) (*domain.Order, error) {
	if m.GuestLookupFunc != nil {
		return m.GuestLookupFunc(ctx, orderNumber, email)
	}
	return nil, domain.ErrOrderNotFound
}

// MockAdminService is a func-field mock of service.AdminService
type MockAdminService struct {
	CreateProductFunc      func(ctx context.Context, req *dto.CreateProductRequest) (*domain.Product, error)
	UpdateProductFunc      func(ctx context.Context, id string, req *dto.UpdateProductRequest) (*domain.Product, error)
	BulkUpdateProductsFunc func(ctx context.Context, req *dto.BulkUpdateProductsRequest) ([]*domain.Product, error)
	DeleteProductFunc      func(ctx context.Context, id string) error
	ListProductsFunc       func(ctx context.Context, query *dto.ProductListQuery) ([]*domain.Product, int, error)
	ListOrdersFunc         func(ctx context.Context, page, pageSize int) ([]*domain.Order, int, error)
	GetOrderFunc           func(ctx context.Context, id string) (*domain.Order, error)
	UpdateOrderStatusFunc  func(ctx context.Context, id string, status domain.OrderStatus) error
	ListAuditLogsFunc      func(ctx context.Context, filter *domain.AuditLogFilter) ([]*domain.AuditLog, int, error)
	AnalyticsFunc          func(ctx context.Context, period string) (*dto.AnalyticsResponse, error)
}

func (m *MockAdminService) CreateProduct(ctx context.Context, req *dto.CreateProductRequest) (*domain.Product, error) {
	if m.CreateProductFunc != nil {
		return m.CreateProductFunc(ctx, req)
	}
	return nil, nil
}

func (m *MockAdminService) UpdateProduct(ctx context.Context, id string, req *dto.UpdateProductRequest) (*domain.Product, error) {
	if m.UpdateProductFunc != nil {
		return m.UpdateProductFunc(ctx, id, req)
	}
	return nil, nil
}

func (m *MockAdminService) BulkUpdateProducts(ctx context.Context, req *dto.BulkUpdateProductsRequest) ([]*domain.Product, error) {
	if m.BulkUpdateProductsFunc != nil {
		return m.BulkUpdateProductsFunc(ctx, req)
	}
	return nil, nil
}

func (m *MockAdminService) DeleteProduct(ctx context.Context, id string) error {
	if m.DeleteProductFunc != nil {
		return m.DeleteProductFunc(ctx, id)
	}
	return nil
}

func (m *MockAdminService) ListProducts(ctx context.Context, query *dto.ProductListQuery) ([]*domain.Product, int, error) {
	if m.ListProductsFunc != nil {
		return m.ListProductsFunc(ctx, query)
	}
	return nil, 0, nil
}

func (m *MockAdminService) ListOrders(ctx context.Context, page, pageSize int) ([]*domain.Order, int, error) {
	if m.ListOrdersFunc != nil {
		return m.ListOrdersFunc(ctx, page, pageSize)
	}
	return nil, 0, nil
}

func (m *MockAdminService) GetOrder(ctx context.Context, id string) (*domain.Order, error) {
	if m.GetOrderFunc != nil {
		return m.GetOrderFunc(ctx, id)
	}
	return nil, domain.ErrOrderNotFound
}

func (m *MockAdminService) UpdateOrderStatus(ctx context.Context, id string, status domain.OrderStatus) error {
	if m.UpdateOrderStatusFunc != nil {
		return m.UpdateOrderStatusFunc(ctx, id, status)
	}
	return nil
}

func (m *MockAdminService) ListAuditLogs(ctx context.Context, filter *domain.AuditLogFilter) ([]*domain.AuditLog, int, error) {
	if m.ListAuditLogsFunc != nil {
		return m.ListAuditLogsFunc(ctx, filter)
	}
	return nil, 0, nil
}

func (m *MockAdminService) Analytics(ctx context.Context, period string) (*dto.AnalyticsResponse, error) {
	if m.AnalyticsFunc != nil {
		return m.AnalyticsFunc(ctx, period)
	}
	return nil, nil
}
