package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tm-acme-shop/acme-shop-warehouse-service/internal/config"
	"github.com/tm-acme-shop/acme-shop-warehouse-service/internal/handlers"
	"github.com/tm-acme-shop/acme-shop-warehouse-service/internal/logging"
	"github.com/tm-acme-shop/acme-shop-warehouse-service/internal/metrics"
	"github.com/tm-acme-shop/acme-shop-warehouse-service/internal/middleware"
)

type Server struct {
	config     *config.Config
	router     *gin.Engine
	httpServer *http.Server
	handlers   *handlers.Handlers
	metrics    *metrics.Metrics
	logger     *logging.Logger
}

func NewServer(cfg *config.Config, h *handlers.Handlers, m *metrics.Metrics) *Server {
	router := gin.New()
	logger := logging.New("server")

	router.Use(
		gin.Recovery(),
		middleware.RequestID(),
		middleware.RequestLogger(logger.With("http")),
		m.Middleware(),
	)

	s := &Server{
		config:   cfg,
		router:   router,
		handlers: h,
		metrics:  m,
		logger:   logger,
	}

	s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	return s
}

func (s *Server) setupRoutes() {
	s.router.GET("/health", s.handlers.Health)
	s.router.GET("/ready", s.handlers.Ready)
	s.router.GET("/live", s.handlers.Live)
	s.router.GET("/metrics", gin.WrapH(s.metrics.Handler()))

	api := s.router.Group("/", middleware.APIKeyAuth(s.config.Auth.APIKey))
	{
		api.POST("/products", s.handlers.CreateProduct)
		api.GET("/products", s.handlers.ListProducts)
		api.GET("/products/:id", s.handlers.GetProduct)
		api.PUT("/products/:id", s.handlers.UpdateProduct)
		api.DELETE("/products/:id", s.handlers.DeleteProduct)

		api.POST("/orders", s.handlers.CreateOrder)
		api.GET("/orders", s.handlers.ListOrders)
		api.GET("/orders/:id", s.handlers.GetOrder)
		api.PATCH("/orders/:id/status", s.handlers.UpdateOrderStatus)
	}
}

// Router exposes the engine for in-process tests.
func (s *Server) Router() http.Handler {
	return s.router
}

// Run serves until Shutdown is called.
func (s *Server) Run() error {
	s.logger.Info("Starting server", logging.Fields{"addr": s.httpServer.Addr})

	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down server")
	return s.httpServer.Shutdown(ctx)
}
