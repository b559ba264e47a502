package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	_ "shopbackend/docs"
	"shopbackend/internal/app"
	"shopbackend/internal/config"
	"shopbackend/internal/events"
	"shopbackend/internal/handler"
	"shopbackend/internal/postgres"
	"shopbackend/internal/pricing"
	"shopbackend/internal/repo"
	"shopbackend/internal/service"
	"shopbackend/pkg/cache"
	"shopbackend/pkg/trm"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// @title           Shop Backend API
// @version         1.0
// @description     Order management HTTP API
func main() {
	conf := config.New()
	logger := newLogger(conf.Env)
	panicIfErr("invalid config", conf.Validate())

	db, err := postgres.New(conf.Postgres)
	panicIfErr("failed to connect to db", err)
	defer db.Close()
	logger.Info("postgres connected")

	ordersRepo := repo.NewOrdersRepo(db)
	productsRepo := repo.NewProductsRepo(db)
	txManager := trm.NewManager(db)
	orderCache := cache.NewLRUCache(conf.Cache.Capacity, conf.Cache.TTL)

	engine := pricing.NewEngine(pricing.Config{
		TaxRate:               decimal.NewFromFloat(conf.Pricing.TaxRate),
		FreeShippingThreshold: decimal.NewFromFloat(conf.Pricing.FreeShippingThreshold),
		ShippingFee:           decimal.NewFromFloat(conf.Pricing.ShippingFee),
	})

	publisher := events.NewKafkaPublisher(conf.Kafka)
	defer publisher.Close()

	orderService := service.NewOrderService(logger, txManager, ordersRepo, productsRepo, engine, orderCache, publisher)

	kafkaHandler := handler.NewKafkaHandler(logger, conf.Kafka, orderService)
	httpHandler := handler.NewHTTPHandler(logger, orderService)
	handler.RegisterMetrics()

	app := app.New(logger, conf)

	app.SetHTTPHandlers(httpHandler)
	app.SetConsumers(kafkaHandler)
	app.SetStarters(orderCache, cacheWarmUpAdapter{svc: orderService, count: conf.Cache.Capacity})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	panicIfErr("failed to start app", app.Start(ctx))
	<-ctx.Done()
	panicIfErr("failed to stop app", app.Stop())
}

func init() {
	godotenv.Load()
}

func newLogger(env string) *slog.Logger {
	switch env {
	case "production":
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	default:
		return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
}

func panicIfErr(prefix string, err error) {
	if err != nil {
		panic(prefix + ": " + err.Error())
	}
}

type warmUpper interface {
	WarmUpCache(ctx context.Context, count int) error
}

type cacheWarmUpAdapter struct {
	svc   warmUpper
	count int
}

func (a cacheWarmUpAdapter) Start(ctx context.Context) error {
	return a.svc.WarmUpCache(ctx, a.count)
}
