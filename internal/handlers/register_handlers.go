package handlers

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ulule/limiter/v3"

	portssvc "github.com/vouchly/voucher_ledger/internal/core/ports/services"
	"github.com/vouchly/voucher_ledger/internal/middleware"
	"github.com/vouchly/voucher_ledger/pkg/config"
)

// claimRate is the per-requester budget for claim creation. One claim per
// second is generous for a human-driven flow and starves nobody.
var claimRate = limiter.Rate{Period: time.Minute, Limit: 60}

// RegisterRoutes sets up all application routes, injecting dependencies using
// interfaces. feed may be nil when no pollable feed is configured.
func RegisterRoutes(
	r *gin.Engine,
	cfg *config.Config,
	services *portssvc.ServiceContainer,
	feed portssvc.VoucherFeed,
) {
	r.GET("/", getHome)

	// Add health check route
	r.GET("/health", func(c *gin.Context) {
		c.String(200, "OK")
	})

	// Register public authentication routes
	registerAuthRoutes(r, services.Auth)

	// Setup API v1 routes with Auth Middleware, passing service interfaces
	setupAPIV1Routes(r, cfg, services, feed)
}

// setupAPIV1Routes configures the /api/v1 group and delegates to specific
// entity route registrations.
func setupAPIV1Routes(
	r *gin.Engine,
	cfg *config.Config,
	services *portssvc.ServiceContainer,
	feed portssvc.VoucherFeed,
) {
	// Apply requester auth to the entire v1 group
	v1 := r.Group("/api/v1", middleware.RequesterAuthMiddleware(cfg.JWTSecret, services.Auth.IsAllowedRequester))

	claimLimiter := middleware.RateLimit(middleware.NewClaimRateLimiter(claimRate))

	registerClaimRoutes(v1, services.Claim, claimLimiter)
	registerInventoryRoutes(v1, services.Inventory)
	registerIngestionRoutes(v1, services.Ingestion, feed)
	registerSessionRoutes(v1, services.Session)
}
