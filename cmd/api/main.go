package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cloud.google.com/go/firestore"
	"cloud.google.com/go/pubsub"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"github.com/storefront-kit/engine/internal/cartsync"
	"github.com/storefront-kit/engine/internal/catalog"
	"github.com/storefront-kit/engine/internal/domain"
	"github.com/storefront-kit/engine/internal/handlers"
	"github.com/storefront-kit/engine/internal/payments"
	"github.com/storefront-kit/engine/internal/platform/config"
	"github.com/storefront-kit/engine/internal/platform/observability"
	"github.com/storefront-kit/engine/internal/services"
)

const shutdownTimeout = 15 * time.Second

func main() {
	ctx := context.Background()

	logger, err := observability.NewLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialise logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync()
	}()
	logger = logger.Named("engine")

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("failed to load configuration", zap.Error(err))
	}

	events := observability.EventLogger(logger)
	metrics, err := observability.NewEngineMetrics(otel.GetMeterProvider().Meter("storefront-kit/engine"))
	if err != nil {
		logger.Fatal("failed to initialise metrics", zap.Error(err))
	}

	source, cleanup, err := newCatalogSource(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("failed to initialise catalog source", zap.Error(err))
	}
	defer cleanup()

	catalogSvc := services.NewCatalogService(services.CatalogServiceDeps{Source: source, Logger: events})
	if err := catalogSvc.Initialize(ctx); err != nil {
		logger.Fatal("failed to load catalog", zap.Error(err))
	}

	cartSvc := services.NewCartService(services.CartServiceDeps{Logger: events})
	wishlistSvc := services.NewWishlistService(services.WishlistServiceDeps{Logger: events})

	deps := handlers.RouterDeps{
		Cart:     handlers.NewCartHandlers(cartSvc, catalogSvc, metrics),
		Wishlist: handlers.NewWishlistHandlers(wishlistSvc, catalogSvc),
		Products: handlers.NewProductHandlers(catalogSvc, metrics),
	}

	if cfg.Stripe.APIKey != "" {
		provider, err := payments.NewStripeProvider(payments.StripeProviderConfig{
			APIKey:   cfg.Stripe.APIKey,
			Currency: cfg.Stripe.Currency,
			Logger:   payments.StripeLogger(events),
		})
		if err != nil {
			logger.Fatal("failed to initialise stripe provider", zap.Error(err))
		}
		checkoutSvc, err := services.NewCheckoutService(services.CheckoutServiceDeps{
			Provider: provider,
			Currency: cfg.Stripe.Currency,
			Logger:   events,
		})
		if err != nil {
			logger.Fatal("failed to initialise checkout service", zap.Error(err))
		}
		deps.Checkout = handlers.NewCheckoutHandlers(checkoutSvc, metrics)
	} else {
		logger.Warn("STRIPE_API_KEY not set; checkout endpoints disabled")
	}

	if cfg.SyncEnabled() {
		stopSync, err := startCartSync(ctx, cfg, cartSvc, events)
		if err != nil {
			logger.Fatal("failed to start cart sync", zap.Error(err))
		}
		defer stopSync()
		logger.Info("cart sync active",
			zap.String("topic", cfg.Sync.Topic),
			zap.String("subscription", cfg.Sync.Subscription))
	}

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      handlers.NewRouter(deps),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", zap.String("port", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		logger.Fatal("server error", zap.Error(err))
	case sig := <-sigCh:
		logger.Info("shutting down", zap.String("signal", sig.String()))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}

// newCatalogSource picks the Firestore catalog when configured and falls back
// to the embedded demo catalog otherwise.
func newCatalogSource(ctx context.Context, cfg config.Config, logger *zap.Logger) (services.CatalogSource, func(), error) {
	if cfg.Catalog.ProjectID == "" {
		logger.Info("using embedded demo catalog")
		return catalog.NewStaticSource(demoCatalog()), func() {}, nil
	}

	client, err := firestore.NewClient(ctx, cfg.Catalog.ProjectID)
	if err != nil {
		return nil, nil, fmt.Errorf("firestore client: %w", err)
	}
	source, err := catalog.NewFirestoreSource(client, cfg.Catalog.Collection)
	if err != nil {
		_ = client.Close()
		return nil, nil, err
	}
	return source, func() { _ = client.Close() }, nil
}

func startCartSync(ctx context.Context, cfg config.Config, cart services.CartService, events services.EventLogger) (func(), error) {
	client, err := pubsub.NewClient(ctx, cfg.Sync.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("pubsub client: %w", err)
	}

	medium, err := cartsync.NewPubSubMedium(client.Topic(cfg.Sync.Topic), client.Subscription(cfg.Sync.Subscription))
	if err != nil {
		_ = client.Close()
		return nil, err
	}

	sync, err := cartsync.NewCartSync(cartsync.CartSyncDeps{
		Cart:   cart,
		Medium: medium,
		Key:    cfg.Sync.Key,
		Logger: events,
	})
	if err != nil {
		_ = client.Close()
		return nil, err
	}
	if err := sync.Initialize(ctx); err != nil {
		_ = client.Close()
		return nil, err
	}

	return func() {
		sync.Stop()
		_ = client.Close()
	}, nil
}

func demoCatalog() []domain.Product {
	stock := func(n int) *int { return &n }
	return []domain.Product{
		{
			ID:          "prod-espresso-cup",
			SKU:         "CUP-ESP-01",
			Name:        "Espresso Cup",
			Description: "Stoneware espresso cup, 90ml",
			Price:       12.5,
			CategoryID:  "kitchen",
			Tags:        []string{"ceramics", "coffee"},
			Stock:       stock(120),
		},
		{
			ID:          "prod-pour-over-kettle",
			SKU:         "KET-PO-02",
			Name:        "Pour Over Kettle",
			Description: "Gooseneck kettle, 1l, brushed steel",
			Price:       48,
			CategoryID:  "kitchen",
			Tags:        []string{"coffee"},
			Stock:       stock(35),
		},
		{
			ID:          "prod-linen-apron",
			SKU:         "APR-LN-03",
			Name:        "Linen Apron",
			Description: "Washed linen apron with leather straps",
			Price:       39,
			CategoryID:  "apparel",
			Tags:        []string{"linen"},
			Stock:       stock(60),
		},
	}
}
