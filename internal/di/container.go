// Package di wires repositories, services, and handlers together and
// registers the HTTP routes with their pipeline options.
package di

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/raineandseaweb/raineandsea-sub003/internal/audit"
	"github.com/raineandseaweb/raineandsea-sub003/internal/authcache"
	"github.com/raineandseaweb/raineandsea-sub003/internal/authz"
	"github.com/raineandseaweb/raineandsea-sub003/internal/domain"
	"github.com/raineandseaweb/raineandsea-sub003/internal/events"
	"github.com/raineandseaweb/raineandsea-sub003/internal/handler"
	"github.com/raineandseaweb/raineandsea-sub003/internal/ratelimit"
	"github.com/raineandseaweb/raineandsea-sub003/internal/repository"
	"github.com/raineandseaweb/raineandsea-sub003/internal/service"
	"github.com/raineandseaweb/raineandsea-sub003/internal/session"
	"github.com/raineandseaweb/raineandsea-sub003/internal/token"
	"github.com/raineandseaweb/raineandsea-sub003/pkg/config"
	"github.com/raineandseaweb/raineandsea-sub003/pkg/database"
	pkgredis "github.com/raineandseaweb/raineandsea-sub003/pkg/redis"
)

// Container holds all dependencies for the storefront API
type Container struct {
	// Infrastructure
	DB       *database.PostgresDB
	Redis    *pkgredis.Client
	Cookies  *session.Manager
	Cache    *authcache.Cache
	Verifier *token.Verifier
	Limiter  ratelimit.Limiter
	Recorder *audit.Recorder

	// Repositories
	UserRepo    repository.UserRepository
	SessionRepo repository.SessionRepository
	ResetRepo   repository.PasswordResetRepository
	ProductRepo repository.ProductRepository
	CartRepo    repository.CartRepository
	OrderRepo   repository.OrderRepository
	AuditRepo   repository.AuditRepository
	StockRepo   repository.StockNotificationRepository

	// Services
	AuthService     service.AuthService
	CatalogService  service.CatalogService
	CartService     service.CartService
	CheckoutService service.CheckoutService
	OrderService    service.OrderService
	AdminService    service.AdminService

	// Handlers
	Authorizer      *authz.Authorizer
	HealthHandler   *handler.HealthHandler
	AuthHandler     *handler.AuthHandler
	CatalogHandler  *handler.CatalogHandler
	CartHandler     *handler.CartHandler
	CheckoutHandler *handler.CheckoutHandler
	OrderHandler    *handler.OrderHandler
	AdminHandler    *handler.AdminHandler
}

// ContainerConfig contains configuration for building the container
type ContainerConfig struct {
	Config    *config.Config
	DB        *database.PostgresDB
	Redis     *pkgredis.Client // nil disables caching and the shared limiter
	Publisher events.Publisher
}

// NewContainer creates a new dependency injection container
func NewContainer(cfg *ContainerConfig) *Container {
	c := &Container{
		DB:    cfg.DB,
		Redis: cfg.Redis,
	}
	pool := cfg.DB.Pool()

	// Repositories
	c.UserRepo = repository.NewPostgresUserRepository(pool)
	c.SessionRepo = repository.NewPostgresSessionRepository(pool)
	c.ResetRepo = repository.NewPostgresPasswordResetRepository(pool)
	c.CartRepo = repository.NewPostgresCartRepository(pool)
	c.OrderRepo = repository.NewPostgresOrderRepository(pool)
	c.AuditRepo = repository.NewPostgresAuditRepository(pool)
	c.StockRepo = repository.NewPostgresStockNotificationRepository(pool)

	c.ProductRepo = repository.NewPostgresProductRepository(pool)
	if cfg.Redis != nil {
		c.ProductRepo = repository.NewCachedProductRepository(c.ProductRepo, cfg.Redis)
	}

	// Request pipeline pieces
	c.Cookies = session.NewManager(cfg.Config.Auth.SecureCookie)
	c.Cache = authcache.New()
	c.Verifier = token.NewVerifier(token.Config{
		Secrets: token.StaticSecret(cfg.Config.Auth.TokenSecret),
		Issuer:  cfg.Config.Auth.Issuer,
		TTL:     cfg.Config.Auth.TokenTTL,
	})
	c.Limiter = buildLimiter(cfg.Config.RateLimit, cfg.Redis)
	c.Recorder = audit.NewRecorder(c.AuditRepo)
	c.Authorizer = authz.New(c.Cache, c.Verifier, c.UserRepo, c.Limiter, c.Recorder)

	// Services
	c.AuthService = service.NewAuthService(
		c.UserRepo, c.SessionRepo, c.ResetRepo,
		c.Verifier, c.Cache, cfg.Config.Auth.BcryptCost,
	)
	c.CatalogService = service.NewCatalogService(c.ProductRepo, c.StockRepo)
	c.CartService = service.NewCartService(c.CartRepo, c.ProductRepo)
	c.CheckoutService = service.NewCheckoutService(c.CartRepo, c.ProductRepo, c.OrderRepo, cfg.Publisher)
	c.OrderService = service.NewOrderService(c.OrderRepo)
	c.AdminService = service.NewAdminService(c.ProductRepo, c.OrderRepo, c.AuditRepo, c.StockRepo, cfg.Publisher)

	// Handlers
	c.HealthHandler = handler.NewHealthHandler(cfg.DB, cfg.Redis, cfg.Config.App.Version)
	c.AuthHandler = handler.NewAuthHandler(c.AuthService, c.CartService, c.Cookies)
	c.CatalogHandler = handler.NewCatalogHandler(c.CatalogService)
	c.CartHandler = handler.NewCartHandler(c.CartService, c.Cookies)
	c.CheckoutHandler = handler.NewCheckoutHandler(c.CheckoutService, c.Cookies)
	c.OrderHandler = handler.NewOrderHandler(c.OrderService)
	c.AdminHandler = handler.NewAdminHandler(c.AdminService)

	return c
}

func buildLimiter(cfg config.RateLimitConfig, redisClient *pkgredis.Client) ratelimit.Limiter {
	limits := map[ratelimit.Policy]ratelimit.Limit{
		ratelimit.PolicyAPI:      {PerMinute: cfg.APIPerMinute, Burst: cfg.Burst},
		ratelimit.PolicyAuth:     {PerMinute: cfg.AuthPerMinute, Burst: cfg.Burst},
		ratelimit.PolicyCheckout: {PerMinute: cfg.CheckoutPerMinute, Burst: cfg.Burst},
	}
	if redisClient != nil {
		return ratelimit.NewRedisLimiter(redisClient, limits)
	}
	return ratelimit.NewLocalLimiter(limits)
}

// Close flushes the audit queue. Call during shutdown, after the HTTP
// server has stopped accepting requests.
func (c *Container) Close(timeout time.Duration) {
	done := make(chan struct{})
	go func() {
		c.Recorder.Close()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(timeout):
	}
	if l, ok := c.Limiter.(*ratelimit.LocalLimiter); ok {
		l.Stop()
	}
}

// RegisterRoutes attaches every API route with its pipeline options.
func (c *Container) RegisterRoutes(router *gin.Engine) {
	wrap := c.Authorizer.Wrap

	v1 := router.Group("/api")

	// Accounts and sessions
	auth := v1.Group("/auth")
	{
		auth.POST("/register", wrap(authz.Options{
			EndpointType: "auth", Action: "auth.register", RateLimit: ratelimit.PolicyAuth,
		}, c.AuthHandler.Register))
		auth.POST("/login", wrap(authz.Options{
			EndpointType: "auth", Action: "auth.login", RateLimit: ratelimit.PolicyAuth,
		}, c.AuthHandler.Login))
		auth.POST("/logout", wrap(authz.Options{
			EndpointType: "auth", Action: "auth.logout",
		}, c.AuthHandler.Logout))
		auth.POST("/logout-all", wrap(authz.Options{
			EndpointType: "auth", Action: "auth.logout_all", RequireAuth: true,
		}, c.AuthHandler.LogoutAll))
		auth.GET("/me", wrap(authz.Options{
			EndpointType: "user", Action: "auth.me", RequireAuth: true,
		}, c.AuthHandler.Me))
		auth.PUT("/me", wrap(authz.Options{
			EndpointType: "user", Action: "auth.update_profile", RequireAuth: true,
		}, c.AuthHandler.UpdateProfile))
		auth.GET("/sessions", wrap(authz.Options{
			EndpointType: "user", Action: "auth.sessions", RequireAuth: true,
		}, c.AuthHandler.Sessions))
		auth.PUT("/password", wrap(authz.Options{
			EndpointType: "user", Action: "auth.change_password", RequireAuth: true, RateLimit: ratelimit.PolicyAuth,
		}, c.AuthHandler.ChangePassword))
		auth.POST("/forgot-password", wrap(authz.Options{
			EndpointType: "auth", Action: "auth.forgot_password", RateLimit: ratelimit.PolicyAuth,
		}, c.AuthHandler.ForgotPassword))
		auth.POST("/reset-password", wrap(authz.Options{
			EndpointType: "auth", Action: "auth.reset_password", RateLimit: ratelimit.PolicyAuth,
		}, c.AuthHandler.ResetPassword))
		auth.GET("/csrf", wrap(authz.Options{
			EndpointType: "public", Action: "auth.csrf",
		}, c.AuthHandler.CSRF))
	}

	// Public catalog
	products := v1.Group("/products")
	{
		products.GET("", wrap(authz.Options{
			EndpointType: "public", Action: "catalog.list",
		}, c.CatalogHandler.ListProducts))
		products.GET("/categories", wrap(authz.Options{
			EndpointType: "public", Action: "catalog.categories",
		}, c.CatalogHandler.Categories))
		products.GET("/:id", wrap(authz.Options{
			EndpointType: "public", Action: "catalog.get",
		}, c.CatalogHandler.GetProduct))
		products.POST("/notify-stock", wrap(authz.Options{
			EndpointType: "public", Action: "catalog.notify_stock",
		}, c.CatalogHandler.NotifyStock))
	}

	// Cart, shared by guests and users. GET and POST both provision and
	// return the cart; POST exists for clients that refuse side effects
	// on GET.
	cart := v1.Group("/cart")
	{
		cart.GET("", wrap(authz.Options{
			EndpointType: "public", Action: "cart.view",
		}, c.CartHandler.GetCart))
		cart.POST("", wrap(authz.Options{
			EndpointType: "public", Action: "cart.view",
		}, c.CartHandler.GetCart))
		cart.DELETE("", wrap(authz.Options{
			EndpointType: "public", Action: "cart.clear",
		}, c.CartHandler.ClearCart))
		cart.POST("/sync", wrap(authz.Options{
			EndpointType: "user", Action: "cart.sync", RequireAuth: true,
		}, c.CartHandler.Sync))
		cart.POST("/items", wrap(authz.Options{
			EndpointType: "public", Action: "cart.add",
		}, c.CartHandler.AddItem))
		cart.PATCH("/items/:id", wrap(authz.Options{
			EndpointType: "public", Action: "cart.update_item",
		}, c.CartHandler.UpdateItem))
		cart.DELETE("/items/:id", wrap(authz.Options{
			EndpointType: "public", Action: "cart.remove_item",
		}, c.CartHandler.RemoveItem))
	}

	// Checkout and orders
	v1.POST("/checkout", wrap(authz.Options{
		EndpointType: "checkout", Action: "checkout.place", RateLimit: ratelimit.PolicyCheckout,
	}, c.CheckoutHandler.Checkout))

	orders := v1.Group("/orders")
	{
		orders.GET("", wrap(authz.Options{
			EndpointType: "user", Action: "order.list", RequireAuth: true,
		}, c.OrderHandler.ListMine))
		orders.POST("/lookup", wrap(authz.Options{
			EndpointType: "public", Action: "order.guest_lookup",
		}, c.OrderHandler.GuestLookup))
		orders.GET("/:id", wrap(authz.Options{
			EndpointType: "user", Action: "order.get", RequireAuth: true,
		}, c.OrderHandler.GetMine))
	}

	// Admin surface
	admin := v1.Group("/admin")
	adminOpts := func(action string) authz.Options {
		return authz.Options{
			EndpointType: "admin",
			Action:       action,
			RequireAuth:  true,
			RequiredRole: domain.RoleAdmin,
		}
	}
	{
		admin.GET("/products", wrap(adminOpts("admin.products.list"), c.AdminHandler.ListProducts))
		admin.POST("/products", wrap(adminOpts("admin.products.create"), c.AdminHandler.CreateProduct))
		admin.PATCH("/products", wrap(adminOpts("admin.products.bulk_update"), c.AdminHandler.BulkUpdateProducts))
		admin.PATCH("/products/:id", wrap(adminOpts("admin.products.update"), c.AdminHandler.UpdateProduct))
		admin.DELETE("/products/:id", wrap(adminOpts("admin.products.delete"), c.AdminHandler.DeleteProduct))

		admin.GET("/orders", wrap(adminOpts("admin.orders.list"), c.AdminHandler.ListOrders))
		admin.GET("/orders/:id", wrap(adminOpts("admin.orders.get"), c.AdminHandler.GetOrder))
		admin.PATCH("/orders/:id/status", wrap(adminOpts("admin.orders.update_status"), c.AdminHandler.UpdateOrderStatus))

		admin.GET("/audit-logs", wrap(adminOpts("admin.audit_logs"), c.AdminHandler.ListAuditLogs))
		admin.GET("/analytics", wrap(adminOpts("admin.analytics"), c.AdminHandler.Analytics))
	}
}
