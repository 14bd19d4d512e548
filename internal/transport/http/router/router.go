// file: internal/transport/http/router/router.go
package router

import (
	"context"
	"net/http"
	"time"

	"ShopAegis/internal/adapter/datasource/sqlite"
	"ShopAegis/internal/aegmiddleware"
	"ShopAegis/internal/aegobserve"
	"ShopAegis/internal/service"
	"ShopAegis/internal/transport/http/middleware"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
)

// Pinger 用于健康检查，*sql.DB 满足该接口
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Dependencies 结构体用于将所有依赖项注入到路由器中
type Dependencies struct {
	Orders    *service.OrderService
	Products  *service.ProductService
	Lookups   *service.Lookups
	Accounts  *service.AccountService
	Tokens    aegmiddleware.TokenParser
	Limiter   *aegmiddleware.RateLimiter
	LoginLock *aegmiddleware.LoginFailureLock
	DB        Pinger
	// AllowOrigins 为空时允许任意来源
	AllowOrigins []string
}

// New 创建并配置基于 Gin 的 HTTP 路由器
func New(deps Dependencies) http.Handler {
	router := gin.New()

	// --- 配置全局中间件 ---
	router.Use(
		gin.Recovery(),
		middleware.RequestID(),
		middleware.RequestLogger(),
		aegobserve.PrometheusMiddleware(),
		gzip.Gzip(gzip.DefaultCompression),
		cors.New(corsConfig(deps.AllowOrigins)),
		middleware.ErrorHandlingMiddleware(),
	)

	router.GET("/healthz", healthHandler(deps.DB))
	router.GET("/metrics", gin.WrapH(aegobserve.Handler()))

	v1 := router.Group("/api/v1")
	if deps.Limiter != nil {
		v1.Use(deps.Limiter.Global(), deps.Limiter.PerIP())
	}
	v1.Use(aegmiddleware.Authenticate(deps.Tokens))
	if deps.Limiter != nil {
		v1.Use(deps.Limiter.PerSubject())
	}

	// --- 认证 ---
	authGroup := v1.Group("/auth")
	{
		login := []gin.HandlerFunc{loginHandler(deps.Accounts)}
		if deps.LoginLock != nil {
			login = append([]gin.HandlerFunc{deps.LoginLock.Middleware()}, login...)
		}
		authGroup.POST("/login", login...)
		authGroup.POST("/register", registerHandler(deps.Accounts))
	}

	// --- 订单 ---
	orders := v1.Group("/orders")
	{
		orders.POST("", createOrderHandler(deps.Orders))
		orders.POST("/search", searchOrdersHandler(deps.Orders))
		orders.GET("/:id", getOrderHandler(deps.Orders))
		orders.PUT("/:id", updateOrderHandler(deps.Orders))
		orders.DELETE("/:id", deleteOrderHandler(deps.Orders))

		orders.POST("/:id/items", addOrderItemHandler(deps.Orders))
		orders.PUT("/:id/items/:productId", updateOrderItemHandler(deps.Orders))
		orders.DELETE("/:id/items/:productId", removeOrderItemHandler(deps.Orders))
	}

	// --- 商品 ---
	products := v1.Group("/products")
	{
		products.POST("", createProductHandler(deps.Products))
		products.POST("/search", searchProductsHandler(deps.Products))
		products.GET("/:id", getProductHandler(deps.Products))
		products.PUT("/:id", updateProductHandler(deps.Products))
		products.DELETE("/:id", deleteProductHandler(deps.Products))
	}

	// --- 字典 ---
	registerLookup(v1, deps.Lookups.Privileges)
	registerLookup(v1, deps.Lookups.Customers)
	registerLookup(v1, deps.Lookups.ProductCategories)
	registerLookup(v1, deps.Lookups.ProductStatuses)
	registerLookup(v1, deps.Lookups.OrderStatuses)
	registerLookup(v1, deps.Lookups.DeliveryTypes)

	return router
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization", "Accept", middleware.RequestIDHeader},
		ExposeHeaders: []string{"Content-Length", middleware.RequestIDHeader},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
		cfg.AllowCredentials = true
	}
	return cfg
}

// registerLookup 为一个字典控制器注册 GET /<name>/:id 与 POST /<name>/search
func registerLookup[T any, P sqlite.Entity[T]](g *gin.RouterGroup, svc *service.LookupService[T, P]) {
	grp := g.Group("/" + svc.Name())
	grp.POST("/search", func(c *gin.Context) {
		in, ok := bindList(c)
		if !ok {
			return
		}
		page, err := svc.GetAll(c.Request.Context(), claimOf(c), in)
		respond(c, http.StatusOK, page, err)
	})
	grp.GET("/:id", func(c *gin.Context) {
		id, ok := pathID(c, "id")
		if !ok {
			return
		}
		e, err := svc.Get(c.Request.Context(), claimOf(c), id)
		if err == nil && e == nil {
			notFound(c, "Cannot find "+svc.Name()+" entry")
			return
		}
		respond(c, http.StatusOK, e, err)
	})
}

func healthHandler(db Pinger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if db != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			if err := db.PingContext(ctx); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}
