package provider

import (
	"strings"
	"time"

	"github.com/kuajing-shop/internal/authz"
	"github.com/kuajing-shop/internal/cache"
	"github.com/kuajing-shop/internal/cart"
	"github.com/kuajing-shop/internal/config"
	"github.com/kuajing-shop/internal/events"
	"github.com/kuajing-shop/internal/logger"
	"github.com/kuajing-shop/internal/metrics"
	"github.com/kuajing-shop/internal/models"
	"github.com/kuajing-shop/internal/queue"
	"github.com/kuajing-shop/internal/repository"
	"github.com/kuajing-shop/internal/service"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Container 依赖注入容器
type Container struct {
	Config      *config.Config
	QueueClient *queue.Client
	Registry    *prometheus.Registry
	Metrics     *metrics.OrderMetrics
	EventHub    *events.Hub

	// Repositories
	UserRepo         repository.UserRepository
	ProductRepo      repository.ProductRepository
	OrderRepo        repository.OrderRepository
	SettingRepo      repository.SettingRepository
	CartSnapshotRepo *repository.CartSnapshotRepository

	// Services
	AuthzService        *authz.Service
	UserService         *service.UserService
	SettingService      *service.SettingService
	ProductService      *service.ProductService
	CartService         *service.CartService
	CheckoutService     *service.CheckoutService
	OrderService        *service.OrderService
	OrderStateService   *service.OrderStateService
	NotificationService *service.NotificationService
}

// NewContainer 初始化容器
func NewContainer(cfg *config.Config) *Container {
	// 初始化缓存
	if err := cache.InitRedis(&cfg.Redis); err != nil {
		logger.Warnw("provider_init_redis_failed", "error", err)
	}

	// 初始化队列客户端
	var queueClient *queue.Client
	if cfg.Queue.Enabled {
		qc, err := queue.NewClient(&cfg.Queue)
		if err != nil {
			logger.Errorw("provider_init_queue_client_failed", "error", err)
		} else {
			queueClient = qc
		}
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	c := &Container{
		Config:      cfg,
		QueueClient: queueClient,
		Registry:    registry,
		Metrics:     metrics.NewOrderMetrics(registry),
		EventHub:    events.NewHub(),
	}

	// 1. 初始化 Repositories
	c.initRepositories()

	// 2. 初始化 Services
	c.initServices()

	return c
}

func (c *Container) initRepositories() {
	db := models.DB
	c.UserRepo = repository.NewUserRepository(db)
	c.ProductRepo = repository.NewProductRepository(db)
	c.OrderRepo = repository.NewOrderRepository(db)
	c.SettingRepo = repository.NewSettingRepository(db)
	c.CartSnapshotRepo = repository.NewCartSnapshotRepository(db)
}

func (c *Container) initServices() {
	authzService, err := authz.NewService(models.DB)
	if err != nil {
		logger.Errorw("provider_init_authz_failed", "error", err)
		panic(err)
	}
	c.AuthzService = authzService
	if err := c.AuthzService.BootstrapBuiltinRoles(); err != nil {
		logger.Errorw("provider_bootstrap_builtin_roles_failed", "error", err)
		panic(err)
	}

	notifyTimeout := time.Duration(c.Config.Notify.TimeoutMS) * time.Millisecond
	confirmTTL := time.Duration(c.Config.Order.CancelConfirmTTLSeconds) * time.Second

	c.SettingService = service.NewSettingService(c.SettingRepo)
	c.UserService = service.NewUserService(c.Config, c.UserRepo, c.AuthzService)
	c.ProductService = service.NewProductService(c.ProductRepo, c.SettingService)
	c.CartService = service.NewCartService(c.cartStorage(), c.ProductRepo, c.UserRepo)
	c.CheckoutService = service.NewCheckoutService(c.CartService, c.ProductRepo, c.UserRepo, c.SettingService, c.Config.Order.TrustClientPricing)
	c.NotificationService = service.NewNotificationService(c.QueueClient, c.Config.Notify.WebhookURL, notifyTimeout, c.Metrics)
	c.OrderService = service.NewOrderService(
		c.OrderRepo,
		c.ProductRepo,
		c.UserRepo,
		c.SettingService,
		service.NewOrderNoAllocator(c.Config.Order.Location()),
		c.CartService,
		c.NotificationService,
		c.EventHub,
		c.Metrics,
		service.OrderOptions{
			TrustClientPricing: c.Config.Order.TrustClientPricing,
			OrderNoMaxRetries:  c.Config.Order.OrderNoMaxRetries,
		},
	)
	c.OrderStateService = service.NewOrderStateService(c.OrderRepo, c.UserRepo, c.NotificationService, c.EventHub, c.Metrics, confirmTTL)
}

// cartStorage 购物车存储：配置为 redis 且 Redis 可用时使用 Redis，否则落库
func (c *Container) cartStorage() cart.Storage {
	if strings.EqualFold(strings.TrimSpace(c.Config.Cart.Storage), "redis") {
		if cache.Enabled() {
			return cart.NewRedisStorage(time.Duration(c.Config.Cart.TTLSeconds) * time.Second)
		}
		logger.Warnw("provider_cart_redis_unavailable", "fallback", "database")
	}
	return c.CartSnapshotRepo
}
