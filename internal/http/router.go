// Package http is the JSON API the front-end drives.
package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"nfticket-backend/internal/catalog"
	"nfticket-backend/internal/common/middleware"
	"nfticket-backend/internal/metrics"
	rplatform "nfticket-backend/internal/platform/redis"
	"nfticket-backend/internal/service/identity"
	"nfticket-backend/internal/service/notifications"
	"nfticket-backend/internal/service/purchase"
	"nfticket-backend/internal/service/wallet"
)

// Deps is everything the router serves. Accounts, Redis, Metrics and Ready
// are optional.
type Deps struct {
	Identity  *identity.Session
	Accounts  *identity.PasswordAuth
	Wallet    *wallet.Session
	Catalog   *catalog.Catalog
	Purchases *purchase.Service
	Feed      *notifications.Feed
	Notifier  notifications.Notifier
	Redis     *rplatform.Client
	Metrics   *metrics.Recorder
	Ready     func(ctx context.Context) error
	Origin    string
	Debug     bool
}

func NewRouter(d Deps) *gin.Engine {
	if !d.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	var rec middleware.RequestRecorder
	if d.Metrics != nil {
		rec = d.Metrics
	}
	r.Use(middleware.RequestID(), middleware.Recovery(), middleware.Logger(rec), middleware.ErrorHandler())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{d.Origin},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID", middleware.InitDataHeader},
		ExposeHeaders:    []string{"X-Request-ID", "X-Cache"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/ready", func(c *gin.Context) {
		if d.Ready != nil {
			if err := d.Ready(c.Request.Context()); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	if d.Metrics != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(d.Metrics.Registry(), promhttp.HandlerOpts{})))
	}

	v1 := r.Group("/api/v1", middleware.TelegramAutoLogin(d.Identity))
	authed := v1.Group("", middleware.RequireAuth(d.Identity))

	NewAuthHandlers(d.Identity, d.Accounts, d.Purchases).RegisterRoutes(v1, authed)
	NewWalletHandlers(d.Wallet).RegisterRoutes(v1)
	NewEventHandlers(d.Catalog).RegisterRoutes(v1.Group("", middleware.RedisCache(d.Redis, 30*time.Second)))
	NewPurchaseHandlers(d.Purchases).RegisterRoutes(authed)
	NewTicketHandlers(d.Identity, d.Notifier).RegisterRoutes(authed)
	NewNotificationHandlers(d.Feed).RegisterRoutes(v1)

	return r
}
