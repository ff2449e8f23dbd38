// cmd/promotion-service/main.go
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
	"primeshop/internal/service/promotion/application"
	"primeshop/internal/service/promotion/infrastructure"
	"primeshop/internal/service/promotion/infrastructure/rule"
	promohttp "primeshop/internal/service/promotion/interfaces"
)

const serviceName = "promotion-service"

func main() {
	configPath := flag.String("config", "", "path to config file")
	port := flag.Int("port", 8082, "http listen port")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Ctx(context.Background()).Fatal().Err(err).Msg("failed to load config")
	}

	db, err := database.Open(cfg)
	if err != nil {
		logger.Ctx(context.Background()).Fatal().Err(err).Msg("failed to connect database")
	}
	if err := db.AutoMigrate(&infrastructure.VoucherModel{}); err != nil {
		logger.Ctx(context.Background()).Fatal().Err(err).Msg("failed to migrate schema")
	}

	ruleEngine, err := rule.NewCELRuleEngine()
	if err != nil {
		logger.Ctx(context.Background()).Fatal().Err(err).Msg("failed to build rule engine")
	}

	voucherService := application.NewVoucherService(
		infrastructure.NewGormVoucherRepository(db),
		ruleEngine,
		database.NewTxManager(db),
		otel.Tracer(serviceName),
	)
	handler := promohttp.NewVoucherHandler(voucherService)

	bootstrap.StartService(bootstrap.AppInfo{
		ServiceName:    serviceName,
		Port:           *port,
		JaegerEndpoint: cfg.Jaeger.Endpoint,
		RegisterHandlers: func(mux *http.ServeMux) {
			handler.RegisterRoutes(mux)
		},
	})
}
