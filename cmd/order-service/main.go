// cmd/order-service/main.go
package main

import (
	"context"
	"flag"
	"net/http"

	"go.opentelemetry.io/otel"

	"primeshop/internal/pkg/bootstrap"
	"primeshop/internal/pkg/config"
	"primeshop/internal/pkg/database"
	"primeshop/internal/pkg/logger"
	"primeshop/internal/pkg/mq"
	"primeshop/internal/pkg/redis"
	orderapp "primeshop/internal/service/order/application"
	orderinfra "primeshop/internal/service/order/infrastructure"
	"primeshop/internal/service/order/infrastructure/adapter"
	orderhttp "primeshop/internal/service/order/interfaces"
	promoapp "primeshop/internal/service/promotion/application"
	promoinfra "primeshop/internal/service/promotion/infrastructure"
	"primeshop/internal/service/promotion/infrastructure/rule"
)

const serviceName = "order-service"

func main() {
	configPath := flag.String("config", "", "path to config file")
	port := flag.Int("port", 8081, "http listen port")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Ctx(context.Background()).Fatal().Err(err).Msg("failed to load config")
	}

	db, err := database.Open(cfg)
	if err != nil {
		logger.Ctx(context.Background()).Fatal().Err(err).Msg("failed to connect database")
	}
	if err := db.AutoMigrate(
		&orderinfra.OrderModel{},
		&orderinfra.OrderItemModel{},
		&orderinfra.OrderVoucherModel{},
		&orderinfra.ProductModel{},
		&orderinfra.CartModel{},
		&orderinfra.CartItemModel{},
		&promoinfra.VoucherModel{},
	); err != nil {
		logger.Ctx(context.Background()).Fatal().Err(err).Msg("failed to migrate schema")
	}

	redisClient := redis.NewClient(cfg.Redis.Addr)
	statusWriter := mq.NewWriter(cfg.Kafka.Brokers, cfg.Kafka.OrderStatusTopic)

	txm := database.NewTxManager(db)
	tracer := otel.Tracer(serviceName)

	// 券台账与订单共库部署，核销直接走进程内调用并加入下单事务
	ruleEngine, err := rule.NewCELRuleEngine()
	if err != nil {
		logger.Ctx(context.Background()).Fatal().Err(err).Msg("failed to build rule engine")
	}
	voucherService := promoapp.NewVoucherService(promoinfra.NewGormVoucherRepository(db), ruleEngine, txm, tracer)

	orderRepo := orderinfra.NewGormOrderRepository(db)
	productRepo := orderinfra.NewGormProductRepository(db)
	cartRepo := orderinfra.NewGormCartRepository(db)
	statusEvents := adapter.NewStatusEventKafkaAdapter(statusWriter)

	orderService := orderapp.NewOrderApplicationService(
		orderRepo,
		cartRepo,
		productRepo,
		orderapp.NewInventoryReserver(productRepo),
		adapter.NewVoucherLedgerAdapter(voucherService),
		statusEvents,
		txm,
		tracer,
	)

	handler := orderhttp.NewOrderHandler(orderService, redisClient)

	bootstrap.StartService(bootstrap.AppInfo{
		ServiceName:    serviceName,
		Port:           *port,
		JaegerEndpoint: cfg.Jaeger.Endpoint,
		RegisterHandlers: func(mux *http.ServeMux) {
			handler.RegisterRoutes(mux)
		},
		OnShutdown: func(ctx context.Context) {
			if err := statusEvents.Close(); err != nil {
				logger.Ctx(ctx).Error().Err(err).Msg("error closing kafka writer")
			}
			if err := redisClient.Close(); err != nil {
				logger.Ctx(ctx).Error().Err(err).Msg("error closing redis client")
			}
		},
	})
}
