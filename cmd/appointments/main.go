package main

import (
	"context"
	"time"

	appointmenthandler "consultly/internal/appointments/handler"
	"consultly/internal/appointments/calendar"
	appointmentrepo "consultly/internal/appointments/repository"
	appointmentservice "consultly/internal/appointments/service"
	"consultly/internal/appointments/validator"
	"consultly/internal/notifications"
	partyhandler "consultly/internal/parties/handler"
	partyrepo "consultly/internal/parties/repository"
	partyservice "consultly/internal/parties/service"
	"consultly/pkg/app"
	"consultly/pkg/config"
	"consultly/pkg/kafka"
	kafka_config "consultly/pkg/kafka/config"
	kafka_middleware "consultly/pkg/kafka/middleware"
)

const (
	ServiceName = "appointments"

	memoryLockCleanupInterval = time.Minute
	mailQueueSize             = 256
)

func main() {
	cfg := config.Load(ServiceName)
	if cfg.JWTSecret == "" {
		cfg.Log.Fatal("JWT_HMAC_SECRET is required")
	}
	connectStores(cfg)

	cfg.Log.Info("Starting Appointments service")
	serverApp := app.NewApplication(cfg)
	cal := calendar.New(cfg.BusinessOffset, cfg.BusinessOpenHour, cfg.BusinessCloseHour, cfg.BusinessClosedWeekday)

	directory := newPartyRepository(cfg)
	parties := partyservice.NewPartyService(directory, cfg.Log)
	appointments := appointmentservice.NewAppointmentService(
		newAppointmentRepository(cfg),
		newSlotLockRepository(cfg),
		validator.NewAppointmentValidator(cfg.Log),
		newNotifier(cfg, serverApp, directory, cal),
		cal,
		cfg,
	)
	cfg.Log.Info("Appointment service initialized",
		"store_driver", cfg.StoreDriver,
		"lock_store_driver", cfg.LockStoreDriver,
		"notifier_driver", cfg.NotifierDriver,
	)

	health := appointmenthandler.NewHealthHandler(map[string]appointmenthandler.ReadinessCheck{
		"appointments": appointments.Ready,
		"directory":    parties.Ready,
	}, cfg.Log)

	serverApp.SetApp(health,
		appointmenthandler.NewAppointmentHandler(appointments, cfg.Log),
		partyhandler.NewPartyHandler(parties, cfg.Log),
	)
	serverApp.Run()
}

func connectStores(cfg *config.Config) {
	if cfg.UsesMongo() {
		cfg.SetMongo()
	}
	if cfg.UsesSQL() {
		cfg.SetSQL()
	}
	if cfg.LockStoreDriver == config.LockStoreRedis {
		cfg.SetRedis()
	}
}

func newAppointmentRepository(cfg *config.Config) appointmentrepo.AppointmentRepository {
	if cfg.UsesSQL() {
		return appointmentrepo.NewGormAppointmentRepository(cfg)
	}
	return appointmentrepo.NewMongoAppointmentRepository(cfg)
}

func newPartyRepository(cfg *config.Config) partyrepo.PartyRepository {
	if cfg.UsesSQL() {
		return partyrepo.NewGormPartyRepository(cfg)
	}
	return partyrepo.NewMongoPartyRepository(cfg)
}

func newSlotLockRepository(cfg *config.Config) appointmentrepo.SlotLockRepository {
	switch cfg.LockStoreDriver {
	case config.LockStoreMongo:
		return appointmentrepo.NewMongoSlotLockRepository(cfg)
	case config.LockStoreMemory:
		cfg.Log.Warn("Using in-process slot locks, do not run more than one replica")
		return appointmentrepo.NewMemorySlotLockRepository(memoryLockCleanupInterval)
	default:
		return appointmentrepo.NewRedisSlotLockRepository(cfg.Client.Redis)
	}
}

func newNotifier(cfg *config.Config, serverApp *app.Application, directory notifications.PartyDirectory, cal *calendar.Calendar) notifications.Notifier {
	switch cfg.NotifierDriver {
	case config.NotifierMail:
		mailer := notifications.NewSMTPMailer(notifications.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUser,
			Password: cfg.SMTPPass,
			From:     cfg.SMTPFrom,
		})
		deliverer := notifications.NewEventMailer(directory, mailer, cal, cfg.Log)
		return startDispatcher(cfg, serverApp, "mail dispatcher", deliverer, mailQueueSize, cfg.RequestTimeout)

	case config.NotifierLog:
		return notifications.NewLogNotifier(cfg.Log)

	default:
		kafkaCfg, err := kafka_config.Load()
		if err != nil {
			cfg.Log.Fatal("Invalid Kafka configuration", "error", err)
		}
		kafkaCfg.LogConfiguration(cfg.Log)

		producer, err := kafka.NewProducer(kafkaCfg, cfg.Log, kafkaCfg.EventsTopic, kafkaCfg.EventsDLQTopic)
		if err != nil {
			cfg.Log.Fatal("Failed to create Kafka producer", "error", err)
		}

		// Hooks run in registration order: drain queued events before the
		// producer closes.
		dispatcher := startDispatcher(cfg, serverApp, "event publisher", notifications.NewKafkaNotifier(producer),
			kafkaCfg.PublishQueueSize, kafkaCfg.PublishTimeout)

		if kafkaCfg.EnableMiddleware {
			metrics := kafka_middleware.NewMetrics()
			producer.Use(kafka_middleware.LoggingProducerMiddleware(cfg.Log))
			producer.Use(kafka_middleware.MetricsProducerMiddleware(metrics))
			serverApp.OnShutdown("kafka metrics", func(context.Context) error {
				cfg.Log.Info("Kafka producer metrics", metrics.Snapshot().LogAttrs()...)
				return nil
			})
		}
		serverApp.OnShutdown("kafka producer", func(context.Context) error {
			return producer.Close()
		})
		cfg.Log.Info("Publishing appointment events", "topic", producer.Topic())
		return dispatcher
	}
}

// startDispatcher runs deliverer on the notifier worker pool and stops the
// pool on shutdown.
func startDispatcher(
	cfg *config.Config,
	serverApp *app.Application,
	name string,
	deliverer notifications.EventDeliverer,
	queueSize int,
	timeout time.Duration,
) *notifications.Dispatcher {
	dispatcher := notifications.NewDispatcher(cfg.NotifierWorkers, queueSize, deliverer, timeout, cfg.Log)
	dispatcher.Start(context.Background())
	serverApp.OnShutdown(name, func(context.Context) error {
		dispatcher.Stop()
		return nil
	})
	return dispatcher
}
