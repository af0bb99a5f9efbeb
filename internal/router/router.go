package router

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/kuajing-shop/internal/cache"
	"github.com/kuajing-shop/internal/config"
	adminhandlers "github.com/kuajing-shop/internal/http/handlers/admin"
	publichandlers "github.com/kuajing-shop/internal/http/handlers/public"
	"github.com/kuajing-shop/internal/http/handlers/shared"
	"github.com/kuajing-shop/internal/logger"
	"github.com/kuajing-shop/internal/metrics"
	"github.com/kuajing-shop/internal/provider"

	"github.com/gin-gonic/gin"
)

// SetupRouter 初始化路由
func SetupRouter(cfg *config.Config, c *provider.Container) *gin.Engine {
	log := logger.L
	if log == nil {
		log = logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	}
	if err := shared.RegisterValidators(); err != nil {
		logger.Errorw("router_register_validators_failed", "error", err)
	}
	r := gin.New()

	// 初始化 Handler（按前台/后台分组）
	publicHandler := publichandlers.New(c)
	adminHandler := adminhandlers.New(c)
	redisPrefix := strings.TrimSpace(cfg.Redis.Prefix)
	if redisPrefix == "" {
		redisPrefix = "shop"
	}
	redisClient := cache.Client()
	loginRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:login", redisPrefix),
		WindowSeconds: cfg.Security.LoginRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.LoginRateLimit.MaxRequests,
		MessageKey:    "error.login_too_many",
	}
	orderRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:order", redisPrefix),
		WindowSeconds: cfg.Security.OrderRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.OrderRateLimit.MaxRequests,
		MessageKey:    "error.order_too_frequent",
	}

	// 中间件
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware(log))
	r.Use(CORSMiddleware(cfg.CORS))

	// API 路由组
	apiV1 := r.Group("/api/v1")
	{
		// 公开接口
		public := apiV1.Group("/public")
		{
			public.GET("/config", publicHandler.GetConfig)
			public.GET("/products", publicHandler.GetProducts)
			public.GET("/products/:id", publicHandler.GetProduct)
		}

		// 用户认证接口
		auth := apiV1.Group("/auth")
		{
			auth.POST("/identity", RateLimitMiddleware(redisClient, loginRule, KeyByIP), publicHandler.IdentityLogin)
		}

		// 用户接口（需鉴权）
		user := apiV1.Group("")
		user.Use(UserJWTAuthMiddleware(c.UserService))
		{
			user.GET("/me", publicHandler.GetCurrentUser)
			user.GET("/cart", publicHandler.GetCart)
			user.POST("/cart/lines", publicHandler.AddCartLine)
			user.PATCH("/cart/lines/:index", publicHandler.UpdateCartLine)
			user.DELETE("/cart/lines/:index", publicHandler.DeleteCartLine)
			user.DELETE("/cart", publicHandler.ClearCart)
			user.POST("/checkout/options", publicHandler.CheckoutOptions)
			user.POST("/checkout/quote", publicHandler.CheckoutQuote)
			user.POST("/orders", RateLimitMiddleware(redisClient, orderRule, KeyByUserID), publicHandler.CreateOrder)
			user.GET("/orders", publicHandler.ListOrders)
			user.GET("/orders/:order_no", publicHandler.GetOrder)
			user.POST("/orders/:order_no/payment-report", publicHandler.ReportPayment)
		}

		// 管理员接口
		admin := apiV1.Group("/admin")
		admin.Use(UserJWTAuthMiddleware(c.UserService), AdminRBACMiddleware(c.AuthzService))
		{
			// 订单管理
			admin.GET("/orders", adminHandler.AdminListOrders)
			admin.GET("/orders/stream", adminHandler.AdminStreamOrders)
			admin.GET("/orders/:order_no", adminHandler.AdminGetOrder)
			admin.POST("/orders/:order_no/transitions", adminHandler.AdminTransitionOrder)
			admin.POST("/orders/:order_no/cancel", adminHandler.AdminRequestCancel)
			admin.POST("/orders/:order_no/cancel/confirm", adminHandler.AdminConfirmCancel)
			admin.DELETE("/orders/:order_no", adminHandler.AdminDeleteOrder)

			// 商品管理
			admin.GET("/products", adminHandler.AdminListProducts)
			admin.POST("/products", adminHandler.AdminCreateProduct)
			admin.GET("/products/:id", adminHandler.AdminGetProduct)
			admin.PUT("/products/:id", adminHandler.AdminUpdateProduct)

			// 设置管理
			admin.GET("/settings/store", adminHandler.AdminGetStoreSettings)
			admin.PUT("/settings/store", adminHandler.AdminUpdateStoreSettings)
		}
	}

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	if cfg.Metrics.Enabled {
		path := strings.TrimSpace(cfg.Metrics.Path)
		if path == "" {
			path = "/metrics"
		}
		r.GET(path, gin.WrapH(metrics.Handler(c.Registry)))
	}

	return r
}
