// Package server exposes the point of sale over a JSON HTTP API.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/matthieukhl/pocketpos/internal/analytics"
	"github.com/matthieukhl/pocketpos/internal/database"
	"github.com/matthieukhl/pocketpos/internal/inventory"
	"github.com/matthieukhl/pocketpos/internal/logger"
	"github.com/matthieukhl/pocketpos/internal/media"
	"github.com/matthieukhl/pocketpos/internal/reconcile"
	"github.com/matthieukhl/pocketpos/internal/sales"
	"github.com/matthieukhl/pocketpos/internal/users"
)

const version = "0.1.0"

// Deps are the components the API serves. Images and Sync may be nil when
// those features are disabled.
type Deps struct {
	DB        *database.DB
	Products  *inventory.Store
	Sales     *sales.Recorder
	Analytics *analytics.Engine
	Users     *users.Store
	Sync      *reconcile.Watcher
	Images    *media.ImageStore

	LowStockThreshold int
	AllowOrigins      []string
	Log               *zap.Logger
}

type Server struct {
	router *gin.Engine
	deps   Deps
	log    *zap.Logger
}

// NewServer creates a new server instance
func NewServer(deps Deps) *Server {
	router := gin.New()

	server := &Server{
		router: router,
		deps:   deps,
		log:    logger.OrNop(deps.Log).Named("http"),
	}

	server.setupMiddleware()
	server.setupRoutes()
	return server
}

func (s *Server) setupMiddleware() {
	origins := s.deps.AllowOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	s.router.Use(gin.Recovery())
	s.router.Use(requestID(s.log))
	s.router.Use(accessLog())
	s.router.Use(metricsMiddleware())
	s.router.Use(cors.New(cors.Config{
		AllowOrigins:  origins,
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization", requestIDHeader},
		ExposeHeaders: []string{"Content-Length", requestIDHeader},
		MaxAge:        12 * time.Hour,
	}))
}

// setupRoutes configures all API routes
func (s *Server) setupRoutes() {
	api := s.router.Group("/api")
	{
		api.GET("/health", s.healthCheck)
		api.GET("/metrics", gin.WrapH(promhttp.Handler()))

		u := api.Group("/users")
		u.POST("/register", s.register)
		u.POST("/login", s.login)
		u.POST("/link", s.linkTenant)

		t := api.Group("/tenants/:tenant", tenantParam())

		t.GET("/products", s.listProducts)
		t.POST("/products", s.createProduct)
		t.GET("/products/low-stock", s.lowStock)
		t.GET("/products/:id", s.getProduct)
		t.PUT("/products/:id", s.updateProduct)
		t.DELETE("/products/:id", s.deleteProduct)
		t.POST("/products/:id/stock", s.adjustStock)
		t.POST("/products/:id/image", s.uploadImage)

		t.GET("/sales", s.listSales)
		t.POST("/sales", s.createSale)
		t.GET("/sales/:id", s.getSale)
		t.POST("/scan", s.scan)
		t.POST("/cart/quote", s.quoteCart)

		a := t.Group("/analytics")
		a.GET("/daily", s.dailyTotals)
		a.GET("/most-sold", s.mostSold)
		a.GET("/week-delta", s.weekDelta)
		a.GET("/week-series", s.weekSeries)
		a.GET("/dashboard", s.dashboard)

		t.GET("/plan", s.currentPlan)
		t.POST("/plan", s.setPlan)

		t.POST("/sync", s.syncTenant)
	}
}

// Handler exposes the router, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.router
}

// healthCheck endpoint for monitoring
func (s *Server) healthCheck(c *gin.Context) {
	if err := s.deps.DB.HealthCheck(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "error",
			"error":  "database connection failed",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": "pocketpos",
		"version": version,
	})
}

// Start serves on addr until ctx is cancelled, then drains connections
func (s *Server) Start(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
