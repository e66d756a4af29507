package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/raineandseaweb/raineandsea-sub003/internal/domain"
	"github.com/raineandseaweb/raineandsea-sub003/internal/events"
	"github.com/raineandseaweb/raineandsea-sub003/internal/pricing"
	"github.com/raineandseaweb/raineandsea-sub003/internal/repository"
)

// in-memory fakes for the repository interfaces

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[string]*domain.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[string]*domain.User{}}
}

func (r *fakeUserRepo) Create(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[user.ID] = user
	return nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.users[id], nil
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return nil, nil
}

func (r *fakeUserRepo) Update(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[user.ID]; !ok {
		return domain.ErrUserNotFound
	}
	r.users[user.ID] = user
	return nil
}

func (r *fakeUserRepo) UpdatePassword(_ context.Context, userID, passwordHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[userID]
	if !ok {
		return domain.ErrUserNotFound
	}
	user.PasswordHash = passwordHash
	return nil
}

func (r *fakeUserRepo) EmailExists(ctx context.Context, email string) (bool, error) {
	user, err := r.GetByEmail(ctx, email)
	return user != nil, err
}

type fakeSessionRepo struct {
	mu       sync.Mutex
	sessions map[string]*domain.Session
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{sessions: map[string]*domain.Session{}}
}

func (r *fakeSessionRepo) Create(_ context.Context, s *domain.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[s.ID] = s
	return nil
}

func (r *fakeSessionRepo) GetByID(_ context.Context, id string) (*domain.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sessions[id], nil
}

func (r *fakeSessionRepo) ListByUser(_ context.Context, userID string) ([]*domain.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Session
	for _, s := range r.sessions {
		if s.UserID == userID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *fakeSessionRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
	return nil
}

func (r *fakeSessionRepo) DeleteByUser(_ context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, s := range r.sessions {
		if s.UserID == userID {
			delete(r.sessions, id)
		}
	}
	return nil
}

func (r *fakeSessionRepo) DeleteByUserExcept(_ context.Context, userID, keepID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, s := range r.sessions {
		if s.UserID == userID && id != keepID {
			delete(r.sessions, id)
		}
	}
	return nil
}

func (r *fakeSessionRepo) DeleteExpired(context.Context) (int64, error) { return 0, nil }

type fakeResetRepo struct {
	mu     sync.Mutex
	resets map[string]*domain.PasswordReset
}

func newFakeResetRepo() *fakeResetRepo {
	return &fakeResetRepo{resets: map[string]*domain.PasswordReset{}}
}

func (r *fakeResetRepo) Create(_ context.Context, reset *domain.PasswordReset) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.resets[reset.ID] = reset
	return nil
}

func (r *fakeResetRepo) GetValidByTokenHash(_ context.Context, tokenHash string) (*domain.PasswordReset, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, reset := range r.resets {
		if reset.TokenHash == tokenHash && reset.UsedAt == nil && reset.ExpiresAt.After(time.Now()) {
			return reset, nil
		}
	}
	return nil, nil
}

func (r *fakeResetRepo) MarkUsed(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	reset, ok := r.resets[id]
	if !ok || reset.UsedAt != nil {
		return domain.ErrInvalidToken
	}
	now := time.Now()
	reset.UsedAt = &now
	return nil
}

type fakeProductRepo struct {
	mu       sync.Mutex
	products map[string]*domain.Product
}

func newFakeProductRepo(products ...*domain.Product) *fakeProductRepo {
	r := &fakeProductRepo{products: map[string]*domain.Product{}}
	for _, p := range products {
		r.products[p.ID] = p
	}
	return r
}

func (r *fakeProductRepo) Create(_ context.Context, p *domain.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.products[p.ID] = p
	return nil
}

func (r *fakeProductRepo) GetByID(_ context.Context, id string) (*domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.products[id], nil
}

func (r *fakeProductRepo) GetByIDs(_ context.Context, ids []string) (map[string]*domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := map[string]*domain.Product{}
	for _, id := range ids {
		if p, ok := r.products[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

func (r *fakeProductRepo) List(_ context.Context, filter *repository.ProductFilter, limit, offset int) ([]*domain.Product, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var all []*domain.Product
	for _, p := range r.products {
		if filter != nil && filter.ActiveOnly && !p.IsActive {
			continue
		}
		if filter != nil && filter.Category != "" && p.Category != filter.Category {
			continue
		}
		all = append(all, p)
	}
	return all, len(all), nil
}

func (r *fakeProductRepo) Update(_ context.Context, p *domain.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.products[p.ID]; !ok {
		return domain.ErrProductNotFound
	}
	r.products[p.ID] = p
	return nil
}

func (r *fakeProductRepo) UpdateMany(ctx context.Context, products []*domain.Product) error {
	for _, p := range products {
		if _, ok := r.products[p.ID]; !ok {
			return domain.ErrProductNotFound
		}
	}
	for _, p := range products {
		if err := r.Update(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

func (r *fakeProductRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.products, id)
	return nil
}

func (r *fakeProductRepo) Categories(context.Context) ([]string, error) { return nil, nil }

type fakeCartRepo struct {
	mu        sync.Mutex
	carts     map[string]*domain.Cart
	items     map[string]*domain.CartItem
	mergeKeys map[string]string // item id -> merge key
}

func newFakeCartRepo() *fakeCartRepo {
	return &fakeCartRepo{
		carts:     map[string]*domain.Cart{},
		items:     map[string]*domain.CartItem{},
		mergeKeys: map[string]string{},
	}
}

func (r *fakeCartRepo) CreateCart(_ context.Context, cart *domain.Cart) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.carts[cart.ID] = cart
	return nil
}

func (r *fakeCartRepo) GetCart(_ context.Context, id string) (*domain.Cart, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.carts[id], nil
}

func (r *fakeCartRepo) AttachUser(_ context.Context, cartID, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cart, ok := r.carts[cartID]
	if !ok {
		return domain.ErrCartNotFound
	}
	cart.UserID = &userID
	return nil
}

func (r *fakeCartRepo) GetItems(_ context.Context, cartID string) ([]*domain.CartItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.CartItem
	for _, item := range r.items {
		if item.CartID == cartID {
			out = append(out, item)
		}
	}
	return out, nil
}

func (r *fakeCartRepo) GetItemByMergeKey(_ context.Context, cartID, mergeKey string) (*domain.CartItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, key := range r.mergeKeys {
		if key == mergeKey {
			if item := r.items[id]; item != nil && item.CartID == cartID {
				return item, nil
			}
		}
	}
	return nil, nil
}

func (r *fakeCartRepo) GetItem(_ context.Context, cartID, itemID string) (*domain.CartItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	item := r.items[itemID]
	if item == nil || item.CartID != cartID {
		return nil, nil
	}
	return item, nil
}

func (r *fakeCartRepo) InsertItem(_ context.Context, item *domain.CartItem, mergeKey string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[item.ID] = item
	r.mergeKeys[item.ID] = mergeKey
	return nil
}

func (r *fakeCartRepo) UpdateItemQuantity(_ context.Context, itemID string, quantity int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	item, ok := r.items[itemID]
	if !ok {
		return domain.ErrCartItemNotFound
	}
	item.Quantity = quantity
	return nil
}

func (r *fakeCartRepo) DeleteItem(_ context.Context, itemID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.items, itemID)
	delete(r.mergeKeys, itemID)
	return nil
}

func (r *fakeCartRepo) ReplaceItems(ctx context.Context, cartID string, items []*domain.CartItem, mergeKeys []string) error {
	if err := r.ClearItems(ctx, cartID); err != nil {
		return err
	}
	for i, item := range items {
		if err := r.InsertItem(ctx, item, mergeKeys[i]); err != nil {
			return err
		}
	}
	return nil
}

func (r *fakeCartRepo) ClearItems(_ context.Context, cartID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, item := range r.items {
		if item.CartID == cartID {
			delete(r.items, id)
			delete(r.mergeKeys, id)
		}
	}
	return nil
}

type fakeOrderRepo struct {
	mu     sync.Mutex
	orders map[string]*domain.Order
	// PlaceOrder mirrors the real repository's transactional contract
	// against these collaborators
	products *fakeProductRepo
	carts    *fakeCartRepo
}

func newFakeOrderRepo(products *fakeProductRepo, carts *fakeCartRepo) *fakeOrderRepo {
	return &fakeOrderRepo{
		orders:   map[string]*domain.Order{},
		products: products,
		carts:    carts,
	}
}

func (r *fakeOrderRepo) PlaceOrder(ctx context.Context, order *domain.Order, cartID string) error {
	for _, item := range order.Items {
		product, _ := r.products.GetByID(ctx, item.ProductID)
		if product == nil || product.Stock < item.Quantity {
			return domain.ErrInsufficientStock
		}
	}
	for _, item := range order.Items {
		product, _ := r.products.GetByID(ctx, item.ProductID)
		product.Stock -= item.Quantity
	}
	r.mu.Lock()
	r.orders[order.ID] = order
	r.mu.Unlock()
	return r.carts.ClearItems(ctx, cartID)
}

func (r *fakeOrderRepo) GetByID(_ context.Context, id string) (*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.orders[id], nil
}

func (r *fakeOrderRepo) GetByNumberAndEmail(_ context.Context, orderNumber, email string) (*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, o := range r.orders {
		if o.OrderNumber == orderNumber && strings.EqualFold(o.Email, email) {
			return o, nil
		}
	}
	return nil, nil
}

func (r *fakeOrderRepo) ListByUser(_ context.Context, userID string, limit, offset int) ([]*domain.Order, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Order
	for _, o := range r.orders {
		if o.UserID != nil && *o.UserID == userID {
			out = append(out, o)
		}
	}
	return out, len(out), nil
}

func (r *fakeOrderRepo) List(_ context.Context, limit, offset int) ([]*domain.Order, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Order
	for _, o := range r.orders {
		out = append(out, o)
	}
	return out, len(out), nil
}

func (r *fakeOrderRepo) UpdateStatus(_ context.Context, id string, status domain.OrderStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	order, ok := r.orders[id]
	if !ok {
		return domain.ErrOrderNotFound
	}
	order.Status = status
	return nil
}

func (r *fakeOrderRepo) Summary(_ context.Context, from, to time.Time) (int, float64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var count int
	var revenue float64
	for _, o := range r.orders {
		if o.Status == domain.OrderStatusCancelled {
			continue
		}
		if !o.CreatedAt.Before(from) && o.CreatedAt.Before(to) {
			count++
			revenue += o.TotalAmount
		}
	}
	return count, revenue, nil
}

func (r *fakeOrderRepo) Series(_ context.Context, from, to time.Time, bucket string) ([]repository.SeriesPoint, error) {
	return nil, nil
}

type fakeStockRepo struct {
	mu            sync.Mutex
	notifications map[string]*domain.StockNotification
}

func newFakeStockRepo() *fakeStockRepo {
	return &fakeStockRepo{notifications: map[string]*domain.StockNotification{}}
}

func (r *fakeStockRepo) Create(_ context.Context, n *domain.StockNotification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.notifications {
		if existing.ProductID == n.ProductID && strings.EqualFold(existing.Email, n.Email) {
			return nil
		}
	}
	r.notifications[n.ID] = n
	return nil
}

func (r *fakeStockRepo) ListPendingByProduct(_ context.Context, productID string) ([]*domain.StockNotification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.StockNotification
	for _, n := range r.notifications {
		if n.ProductID == productID && n.NotifiedAt == nil {
			out = append(out, n)
		}
	}
	return out, nil
}

func (r *fakeStockRepo) MarkNotified(_ context.Context, ids []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	for _, id := range ids {
		if n, ok := r.notifications[id]; ok {
			n.NotifiedAt = &now
		}
	}
	return nil
}

type fakeAuditRepo struct {
	mu      sync.Mutex
	entries []*domain.AuditLog
}

func (r *fakeAuditRepo) Insert(_ context.Context, entry *domain.AuditLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, entry)
	return nil
}

func (r *fakeAuditRepo) List(_ context.Context, filter *domain.AuditLogFilter) ([]*domain.AuditLog, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.entries, len(r.entries), nil
}

type capturePublisher struct {
	mu        sync.Mutex
	placed    []*events.OrderPlacedEvent
	restocked []*events.StockRestockedEvent
}

func (p *capturePublisher) PublishOrderPlaced(_ context.Context, e *events.OrderPlacedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.placed = append(p.placed, e)
	return nil
}

func (p *capturePublisher) PublishStockRestocked(_ context.Context, e *events.StockRestockedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.restocked = append(p.restocked, e)
	return nil
}

func (p *capturePublisher) Close() {}

// helper for building cart items in a fake repo with correct merge keys
func addCartLine(repo *fakeCartRepo, cartID, itemID, productID string, qty int, opts map[string]string) {
	item := &domain.CartItem{
		ID:              itemID,
		CartID:          cartID,
		ProductID:       productID,
		Quantity:        qty,
		SelectedOptions: opts,
		CreatedAt:       time.Now(),
		UpdatedAt:       time.Now(),
	}
	repo.InsertItem(context.Background(), item, pricing.MergeKey(productID, opts))
}
