package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	_ "github.com/go-sql-driver/mysql"
	"github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"

	"github.com/aq2208/storefront-checkout/configs"
	"github.com/aq2208/storefront-checkout/internal/adapter/cache"
	"github.com/aq2208/storefront-checkout/internal/adapter/http"
	"github.com/aq2208/storefront-checkout/internal/adapter/http/middleware"
	"github.com/aq2208/storefront-checkout/internal/adapter/kafka"
	"github.com/aq2208/storefront-checkout/internal/adapter/queue"
	"github.com/aq2208/storefront-checkout/internal/adapter/repo"
	"github.com/aq2208/storefront-checkout/internal/catalog"
	"github.com/aq2208/storefront-checkout/internal/logging"
	"github.com/aq2208/storefront-checkout/internal/observ"
	"github.com/aq2208/storefront-checkout/internal/pricing"
	"github.com/aq2208/storefront-checkout/internal/promo"
	"github.com/aq2208/storefront-checkout/internal/security"
	"github.com/aq2208/storefront-checkout/internal/usecase"
)

type App struct {
	Router *gin.Engine
	Log    *slog.Logger
}

// InitWithConfig connects every backing service and wires the HTTP API.
// Background consumers stop when ctx is cancelled.
func InitWithConfig(ctx context.Context, cfg configs.Config) (*App, func(), error) {
	// init logger
	base := logging.Init(logging.Options{
		Component: cfg.App.Name,
		FilePath:  cfg.App.LogFile,
		Level:     cfg.App.LogLevel,
	})
	log := base.With("scope", "startup")

	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}
	fail := func(err error) (*App, func(), error) {
		cleanup()
		return nil, nil, err
	}

	// init database
	db, err := sql.Open("mysql", cfg.MySQL.DSN)
	if err != nil {
		return fail(err)
	}
	closers = append(closers, func() { _ = db.Close() })
	db.SetConnMaxLifetime(cfg.MySQL.ConnMaxLifetime)
	db.SetMaxOpenConns(cfg.MySQL.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MySQL.MaxIdleConns)

	pingCtx, cancel := context.WithTimeout(ctx, 60*time.Second)
	err = db.PingContext(pingCtx)
	cancel()
	if err != nil {
		return fail(fmt.Errorf("mysql ping: %w", err))
	}
	if cfg.MySQL.Migrate {
		if err := repo.RunMigrations(db, log); err != nil {
			return fail(err)
		}
	}

	// init redis
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	closers = append(closers, func() { _ = rdb.Close() })
	if err := rdb.Ping(ctx).Err(); err != nil {
		return fail(fmt.Errorf("redis ping: %w", err))
	}

	// init rabbitmq: one channel publishes with confirms, one consumes
	conn, err := amqp091.Dial(cfg.Rabbit.URL)
	if err != nil {
		return fail(fmt.Errorf("rabbitmq dial: %w", err))
	}
	closers = append(closers, func() { _ = conn.Close() })
	pubCh, err := conn.Channel()
	if err != nil {
		return fail(err)
	}
	subCh, err := conn.Channel()
	if err != nil {
		return fail(err)
	}

	// domain
	rates, err := cfg.Pricing.Rates()
	if err != nil {
		return fail(err)
	}
	promos, err := cfg.PromoCatalog()
	if err != nil {
		return fail(err)
	}
	registry, err := promo.NewRegistry(promos)
	if err != nil {
		return fail(err)
	}
	products, err := cfg.ProductCatalog()
	if err != nil {
		return fail(err)
	}
	cat, err := catalog.New(products)
	if err != nil {
		return fail(err)
	}
	engine := pricing.NewEngine(rates)

	// infra
	orderRepo := repo.NewMySQLOrderRepo(db)
	sessions := cache.NewRedisSessionStore(rdb, cfg.Session.TTL)
	idem := cache.NewRedisIdempotencyStore(rdb, cfg.Idempotency.TTL)
	statusCache := cache.NewRedisStatusCache(rdb, cfg.StatusCache.TTL)
	producer, err := queue.NewRabbitProducer(pubCh, queue.Topology{
		Exchange:   cfg.Rabbit.Exchange,
		RoutingKey: cfg.Rabbit.RoutingKey,
		Queue:      cfg.Rabbit.Queue,
	})
	if err != nil {
		return fail(err)
	}

	tracker := usecase.NewDeliveryTracker(orderRepo, statusCache)

	// register queue-handler
	if err := setupQueue(subCh, cfg, tracker); err != nil {
		return fail(err)
	}

	// register kafka-listener
	stopKafka, err := setupKafkaListener(ctx, cfg, tracker)
	if err != nil {
		return fail(err)
	}
	closers = append(closers, stopKafka)

	// use cases
	locks := usecase.NewUserLocks()
	cartSvc := usecase.NewCartService(sessions, cat, locks)
	promoSvc := usecase.NewPromoService(sessions, registry, engine, locks)
	promoSvc.OnApply(observ.PromoApplied)
	checkoutSvc := usecase.NewCheckoutService(sessions, engine, registry, orderRepo, idem, producer, locks,
		usecase.CheckoutConfig{
			PaymentDelay: cfg.Checkout.PaymentDelay,
			DeliveryDays: cfg.Checkout.DeliveryDays,
		})
	checkoutSvc.OnPlaced(observ.OrderPlaced)

	// init handlers + routers + middleware
	if cfg.App.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	tokens := security.NewTokens(security.TokenConfig{
		Secret:   cfg.Security.JWTSecret,
		Issuer:   cfg.Security.Issuer,
		Audience: cfg.Security.Audience,
		TTL:      cfg.Security.TTL,
	})
	router := http.NewRouter(http.Handlers{
		Token:    http.NewTokenHandler(tokens),
		Catalog:  http.NewCatalogHandler(cat, promoSvc),
		Cart:     http.NewCartHandler(cartSvc, promoSvc),
		Checkout: http.NewCheckoutHandler(checkoutSvc, cfg.Checkout.PaymentDelay+5*time.Second),
		Orders:   http.NewOrderHandler(usecase.NewOrderQuery(orderRepo, statusCache)),
	}, middleware.NewAuthz(tokens), logging.New("http"))

	log.Info("checkout-api: started", "promos", len(promos), "products", len(products))

	return &App{Router: router, Log: base}, cleanup, nil
}

func setupQueue(ch *amqp091.Channel, cfg configs.Config, tracker *usecase.DeliveryTracker) error {
	router := queue.NewRouter(ch, queue.WithPrefetch(cfg.Rabbit.Prefetch))
	router.Register(cfg.Rabbit.Queue, queue.NewOrderPlacedHandler(tracker))
	return router.Start()
}

func setupKafkaListener(ctx context.Context, cfg configs.Config, tracker *usecase.DeliveryTracker) (func(), error) {
	grp, err := kafka.NewGroup(cfg.Kafka.Brokers, cfg.Kafka.GroupID)
	if err != nil {
		return nil, err
	}

	h := kafka.NewShipmentDeliveredHandler(tracker)
	consumer := kafka.NewConsumer(grp, []string{cfg.Kafka.TopicShipments}, h.Handle)

	go func() {
		if err := consumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			consumer.Logger.Error("shipment consumer stopped", "err", err)
		}
	}()
	return func() { _ = grp.Close() }, nil
}
