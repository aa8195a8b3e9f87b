package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"nfticket-backend/internal/catalog"
	"nfticket-backend/internal/common/config"
	"nfticket-backend/internal/common/logger"
	"nfticket-backend/internal/events"
	apphttp "nfticket-backend/internal/http"
	"nfticket-backend/internal/kvstore"
	"nfticket-backend/internal/metrics"
	redisplatform "nfticket-backend/internal/platform/redis"
	"nfticket-backend/internal/service/identity"
	"nfticket-backend/internal/service/notifications"
	"nfticket-backend/internal/service/purchase"
	"nfticket-backend/internal/service/settlement"
	"nfticket-backend/internal/service/wallet"
	"nfticket-backend/internal/service/wallet/simwallet"
	"nfticket-backend/internal/workers"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("config load: %v", err))
	}
	logger.Init("nfticket-backend", cfg.Debug)

	var (
		rdb   *redisplatform.Client
		store kvstore.Store = kvstore.NewMemory()
	)
	if !cfg.Redis.Disabled {
		rdb, err = redisplatform.Open(ctx, redisplatform.Options{
			Addr:        cfg.Redis.Addr,
			Password:    cfg.Redis.Password,
			DB:          cfg.Redis.DB,
			PoolSize:    cfg.Redis.PoolSize,
			DialTimeout: cfg.Redis.DialTimeout,
		})
		if err != nil {
			logger.Fatal().Err(err).Str("addr", cfg.Redis.Addr).Msg("Failed to connect to Redis")
		}
		defer rdb.Close()
		store = kvstore.NewRedis(rdb, cfg.Redis.KeyPrefix)
		logger.Info().Str("addr", cfg.Redis.Addr).Msg("Redis connection established")
	} else {
		logger.Warn().Msg("Redis disabled, state is kept in memory only")
	}

	cat, err := catalog.Load(cfg.CatalogPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to load event catalog")
	}

	rec := metrics.New()
	feed := notifications.NewFeed(100)
	notifier := notifications.NewService(feed, rdb, cfg.Redis.NotificationsStream)

	accounts := identity.NewPasswordAuth(store, cfg.Auth.BcryptCost)
	auth := identity.Router{Password: accounts}
	if cfg.Auth.TelegramBotToken != "" {
		auth.Telegram = identity.NewTelegramAuth(cfg.Auth.TelegramBotToken, cfg.Auth.InitDataTTL)
	}
	session := identity.NewSession(store, auth, notifier)
	if err := session.Init(ctx); err != nil {
		logger.Fatal().Err(err).Msg("Failed to restore session")
	}

	walletSession := wallet.NewSession(
		simwallet.New(simwallet.Options{
			Address:          cfg.Wallet.Address,
			InitialNetworkID: cfg.Wallet.InitialChainID,
			RejectConnect:    cfg.Wallet.RejectConnect,
			RejectSwitch:     cfg.Wallet.RejectSwitch,
		}),
		wallet.Network{ID: cfg.Wallet.TargetChainID, Name: cfg.Wallet.TargetChainName},
		notifier,
	).WithObserver(rec)

	var publisher events.Publisher = events.Nop{}
	if cfg.AMQP.URL != "" {
		p := events.NewAMQPPublisher(cfg.AMQP.URL, cfg.AMQP.Queue)
		defer p.Close()
		publisher = p
	}

	purchases := purchase.NewService(cat, purchase.Deps{
		Wallet:            walletSession,
		Identity:          session,
		Mint:              settlement.NewMint(cfg.Settlement.MintDelay, cfg.Settlement.FailureRate),
		Card:              settlement.NewCard(cfg.Settlement.CardDelay, cfg.Settlement.FailureRate),
		Notifier:          notifier,
		Publisher:         publisher,
		Observer:          rec,
		SettlementTimeout: cfg.Settlement.Timeout,
		RetainFinished:    cfg.Settlement.RetainFinished,
	})
	defer purchases.CloseAll()

	if rdb != nil && cfg.Redis.TicketEventsStream != "" {
		worker := workers.NewTicketEventWorker(rdb, cfg.Redis.TicketEventsStream, session, notifier).WithObserver(rec)
		go worker.Start(ctx)
	}

	router := apphttp.NewRouter(apphttp.Deps{
		Identity:  session,
		Accounts:  accounts,
		Wallet:    walletSession,
		Catalog:   cat,
		Purchases: purchases,
		Feed:      feed,
		Notifier:  notifier,
		Redis:     rdb,
		Metrics:   rec,
		Origin:    cfg.Server.Origin,
		Debug:     cfg.Debug,
		Ready:     rdb.Ready,
	})

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 45 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info().Int("port", cfg.Server.Port).Msg("Starting HTTP server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	<-ctx.Done()
	stop()
	logger.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Server forced to shutdown")
	}
	logger.Info().Msg("Server exited")
}
