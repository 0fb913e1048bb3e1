// cmd/shipping-service/main.go
package main

import (
	"context"

	"github.com/aytugcavdar/e-commerce-platform-sub000/internal/pkg/bootstrap"
	"github.com/aytugcavdar/e-commerce-platform-sub000/internal/pkg/database"
	"github.com/aytugcavdar/e-commerce-platform-sub000/internal/pkg/httpclient"
	"github.com/aytugcavdar/e-commerce-platform-sub000/internal/pkg/inbox"
	"github.com/aytugcavdar/e-commerce-platform-sub000/internal/pkg/nacos"
	"github.com/aytugcavdar/e-commerce-platform-sub000/internal/pkg/redis"
	"github.com/aytugcavdar/e-commerce-platform-sub000/internal/service/shipping/application"
	"github.com/aytugcavdar/e-commerce-platform-sub000/internal/service/shipping/domain/port"
	"github.com/aytugcavdar/e-commerce-platform-sub000/internal/service/shipping/infrastructure"
	"github.com/aytugcavdar/e-commerce-platform-sub000/internal/service/shipping/infrastructure/carrier"
	"github.com/aytugcavdar/e-commerce-platform-sub000/internal/service/shipping/interfaces"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

const serviceName = "shipping-service"

func main() {
	cfg, err := bootstrap.Init(serviceName)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	tracer := otel.Tracer(serviceName)

	db, err := database.Open(cfg.Infra.MySQL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect mysql")
	}
	repo := infrastructure.NewGormShipmentRepository(db)
	if err := repo.AutoMigrate(); err != nil {
		log.Fatal().Err(err).Msg("failed to migrate shipment tables")
	}

	rdb, err := redis.NewClient(context.Background(), cfg.Infra.Redis)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect redis")
	}
	messaging := bootstrap.NewMessaging(cfg, serviceName, inbox.NewRedisInbox(rdb.GetClient(), cfg.Consumer.InboxTTL))

	relay, closeRelay, err := bootstrap.NewOutboxRelay(cfg, serviceName, db, messaging.Publisher)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create outbox relay")
	}

	nc, err := bootstrap.NewNacosClient(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create nacos client")
	}
	c, err := newCarrier(cfg.Shipping.Carrier, tracer, nc)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create carrier")
	}

	svc := application.NewShippingService(repo, c, tracer)

	workers := interfaces.Consumers(messaging.Consumers, svc)
	workers = append(workers, relay.Run)

	bootstrap.StartService(bootstrap.AppInfo{
		ServiceName: serviceName,
		Port:        cfg.App.Port,
		Nacos:       nc,
		RegisterHandlers: func(appCtx bootstrap.AppCtx) {
			interfaces.NewShipmentHandler(svc).RegisterRoutes(appCtx.Mux)
		},
		Workers: workers,
		Closers: []func() error{messaging.Close, closeRelay, rdb.Close, func() error { return database.Close(db) }},
	})
}

func newCarrier(cfg bootstrap.CarrierConfig, tracer trace.Tracer, nc *nacos.Client) (port.Carrier, error) {
	switch cfg.Type {
	case "", "fake":
		return carrier.NewFakeCarrier(cfg.Name, cfg.RejectCountries), nil
	case "http":
		client := httpclient.NewClient(tracer, bootstrap.NewResolver(nc, cfg.Endpoints))
		return carrier.NewHTTPCarrier(client, cfg.Service, cfg.Name, cfg.Timeout), nil
	default:
		return nil, errors.Errorf("unknown carrier type %q", cfg.Type)
	}
}
