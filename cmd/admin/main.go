package main

import (
	"imovia/internal/notify"
	"imovia/internal/requests/handler"
	"imovia/internal/requests/repository"
	"imovia/internal/requests/service"
	"imovia/pkg/app"
	"imovia/pkg/config"
	"imovia/pkg/kafka"
	kafka_config "imovia/pkg/kafka/config"
	"imovia/pkg/middleware"
)

const ServiceName = "admin"

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetMongo()
	defer cfg.Client.GracefulShutdown()

	cfg.Log.Info("Starting Admin service")

	dispatcher := initDispatcher(cfg)
	defer dispatcher.Close()

	adminHandler := initHandler(cfg, dispatcher)
	serverApp := app.NewApplication(cfg)
	serverApp.SetApp(adminHandler, middleware.RoleAdmin)
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

func initHandler(cfg *config.Config, dispatcher notify.Dispatcher) *handler.AdminHandler {
	visitRepo := repository.NewMongoVisitRequestRepository(cfg)
	reservationRepo := repository.NewMongoReservationRequestRepository(cfg)
	unitRepo := repository.NewMongoUnitRepository(cfg)
	agentRepo := repository.NewMongoAgentRepository(cfg)

	transitionService := service.NewTransitionService(
		visitRepo,
		reservationRepo,
		unitRepo,
		agentRepo,
		dispatcher,
		cfg,
	)

	cfg.Log.Info("Transition service initialized", "database", cfg.MongoDatabaseName)
	return handler.NewAdminHandler(transitionService, cfg.Log)
}
