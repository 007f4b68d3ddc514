package main

import (
	"imovia/internal/notify"
	"imovia/internal/requests/handler"
	"imovia/internal/requests/repository"
	"imovia/internal/requests/service"
	"imovia/internal/requests/validator"
	"imovia/pkg/app"
	"imovia/pkg/config"
	"imovia/pkg/kafka"
	kafka_config "imovia/pkg/kafka/config"
	"imovia/pkg/middleware"
)

const ServiceName = "requests"

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetMongo()
	defer cfg.Client.GracefulShutdown()

	cfg.Log.Info("Starting Requests service")

	dispatcher := initDispatcher(cfg)
	defer dispatcher.Close()

	requestHandler := initHandler(cfg, dispatcher)
	serverApp := app.NewApplication(cfg)
	serverApp.SetApp(requestHandler, middleware.RoleClient)
	serverApp.Run()
}

func initDispatcher(cfg *config.Config) notify.Dispatcher {
	kafkaCfg := kafka_config.Load()
	if len(kafkaCfg.Brokers) == 0 {
		cfg.Log.Warn("KAFKA_BROKERS not set, lifecycle events will not be published")
		return notify.NopDispatcher{}
	}

	producer, err := kafka.NewProducer(kafkaCfg, cfg.NotifyTopic, "")
	if err != nil {
		cfg.Log.Fatal("Failed to initialize Kafka producer", "error", err)
	}
	return notify.NewKafkaDispatcher(cfg, producer)
}

func initHandler(cfg *config.Config, dispatcher notify.Dispatcher) *handler.RequestHandler {
	visitRepo := repository.NewMongoVisitRequestRepository(cfg)
	reservationRepo := repository.NewMongoReservationRequestRepository(cfg)
	unitRepo := repository.NewMongoUnitRepository(cfg)

	requestValidator := validator.NewRequestValidator(cfg.Log)

	intakeService := service.NewIntakeService(
		visitRepo,
		reservationRepo,
		unitRepo,
		requestValidator,
		dispatcher,
		cfg,
	)
	accountService := service.NewAccountService(
		visitRepo,
		reservationRepo,
		dispatcher,
		cfg,
	)

	cfg.Log.Info("Request services initialized", "database", cfg.MongoDatabaseName)
	return handler.NewRequestHandler(intakeService, accountService, cfg.Log)
}
