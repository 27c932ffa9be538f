package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"consultly/internal/appointments/calendar"
	"consultly/internal/notifications"
	partyrepo "consultly/internal/parties/repository"
	"consultly/pkg/config"
	"consultly/pkg/kafka"
	kafka_config "consultly/pkg/kafka/config"
	kafka_middleware "consultly/pkg/kafka/middleware"
)

const ServiceName = "appointment-notifier"

// The notifier consumes appointment events and mails the affected party.
func main() {
	cfg := config.Load(ServiceName)
	if cfg.SMTPHost == "" || cfg.SMTPFrom == "" {
		cfg.Log.Fatal("SMTP_HOST and SMTP_FROM are required by the notifier")
	}
	if cfg.UsesSQL() {
		cfg.SetSQL()
	} else {
		cfg.SetMongo()
	}
	defer cfg.GracefulShutdown()

	kafkaCfg, err := kafka_config.Load()
	if err != nil {
		cfg.Log.Fatal("Invalid Kafka configuration", "error", err)
	}
	kafkaCfg.LogConfiguration(cfg.Log)

	cal := calendar.New(cfg.BusinessOffset, cfg.BusinessOpenHour, cfg.BusinessCloseHour, cfg.BusinessClosedWeekday)
	mailer := notifications.NewSMTPMailer(notifications.SMTPConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUser,
		Password: cfg.SMTPPass,
		From:     cfg.SMTPFrom,
	})
	deliverer := notifications.NewEventMailer(newPartyRepository(cfg), mailer, cal, cfg.Log)

	consumer, err := kafka.NewConsumer(
		kafkaCfg,
		cfg.Log,
		kafkaCfg.EventsTopic,
		kafkaCfg.NotifierGroupID,
		kafkaCfg.EventsDLQTopic,
		notifications.NewEventHandler(deliverer, cfg.Log),
	)
	if err != nil {
		cfg.Log.Fatal("Failed to create Kafka consumer", "error", err)
	}

	metrics := kafka_middleware.NewMetrics()
	consumer.Use(kafka_middleware.MetricsConsumerMiddleware(metrics))
	if kafkaCfg.EnableMiddleware {
		consumer.Use(kafka_middleware.LoggingConsumerMiddleware(cfg.Log))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg.Log.Info("Starting appointment notifier",
		"topic", kafkaCfg.EventsTopic,
		"group_id", kafkaCfg.NotifierGroupID,
		"dlq_topic", kafkaCfg.EventsDLQTopic,
	)
	if err := consumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		cfg.Log.Error("Kafka consumer stopped", "error", err)
	}

	if err := consumer.Close(); err != nil {
		cfg.Log.Error("Failed to close Kafka consumer", "error", err)
	}
	cfg.Log.Info("Appointment notifier stopped", metrics.Snapshot().LogAttrs()...)
}

func newPartyRepository(cfg *config.Config) partyrepo.PartyRepository {
	if cfg.UsesSQL() {
		return partyrepo.NewGormPartyRepository(cfg)
	}
	return partyrepo.NewMongoPartyRepository(cfg)
}
