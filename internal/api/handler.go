package api

import (
	"context"
	"net/http"
	"time"

	"duck-storefront/internal/notify"
	"duck-storefront/internal/service"
	"duck-storefront/internal/session"
	"duck-storefront/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Pinger is a dependency the readiness check probes
type Pinger interface {
	Ping(ctx context.Context) error
}

// Dependencies are the services the HTTP surface drives
type Dependencies struct {
	Storefront *service.StorefrontService
	Pages      *service.PageLoader
	Checkout   *service.CheckoutEngine
	Receipts   *service.ReceiptService
	Sessions   session.Store
	Tokens     *session.Tokens
	Inbox      notify.Inbox
	// SecureCookies marks the session cookie Secure
	SecureCookies bool
	Ready         map[string]Pinger
}

// Handler contains HTTP handlers
type Handler struct {
	deps   Dependencies
	logger *zap.Logger
}

// NewHandler creates a new HTTP handler
func NewHandler(deps Dependencies) *Handler {
	return &Handler{
		deps:   deps,
		logger: util.GetLogger(),
	}
}

// SetupRoutes sets up HTTP routes
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.Use(gin.Recovery())
	router.Use(prometheusMiddleware())

	router.GET("/health", h.healthCheck)
	router.GET("/ready", h.readinessCheck)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	v1.Use(h.sessionMiddleware())
	{
		v1.POST("/session", h.login)
		v1.DELETE("/session", h.logout)
		v1.POST("/accounts", h.register)
		v1.PUT("/accounts/password", h.resetPassword)

		v1.GET("/profile", h.getProfile)
		v1.PUT("/profile", h.updateProfile)

		v1.GET("/catalog", h.catalog)
		v1.POST("/cart/items", h.addToCart)
		v1.POST("/checkout", h.checkout)

		v1.GET("/inventory", h.inventory)
		v1.DELETE("/inventory/:id", h.deleteProduct)

		v1.GET("/notifications", h.notifications)
		v1.GET("/receipts", h.receipts)
	}
}

// healthCheck handles health check requests
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

// readinessCheck probes every registered dependency
func (h *Handler) readinessCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	failing := gin.H{}
	for name, p := range h.deps.Ready {
		if err := p.Ping(ctx); err != nil {
			failing[name] = err.Error()
		}
	}
	if len(failing) > 0 {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":  "not ready",
			"failing": failing,
			"time":    time.Now().Unix(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"time":   time.Now().Unix(),
	})
}
