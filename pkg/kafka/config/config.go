package kafka_config

import (
	"fmt"
	"strings"
	"time"

	"consultly/pkg/logger"
)

// Config describes how the appointment event stream is produced and consumed.
type Config struct {
	Brokers []string

	// Appointment event stream
	EventsTopic      string
	EventsDLQTopic   string
	NotifierGroupID  string
	PublishTimeout   time.Duration // per event, independent of the request that raised it
	PublishQueueSize int           // events buffered in the API before new ones are dropped

	ProducerMaxAttempts  int
	ProducerBatchTimeout time.Duration
	ProducerRequireAcks  int    // -1 = all, 0 = none, 1 = leader only
	ProducerCompression  string // "none", "gzip", "snappy", "lz4", "zstd"
	ProducerAsync        bool

	ConsumerStartOffset       int64 // -1 = newest, -2 = oldest
	ConsumerMinBytes          int
	ConsumerMaxBytes          int
	ConsumerMaxWait           time.Duration
	ConsumerCommitInterval    time.Duration
	ConsumerHeartbeatInterval time.Duration
	ConsumerSessionTimeout    time.Duration
	ConsumerRebalanceTimeout  time.Duration
	ConsumerMaxRetries        int
	ConsumerRetryBackoff      time.Duration

	EnableMiddleware bool
}

// Load reads the event stream settings from the environment and validates them.
func Load() (*Config, error) {
	cfg := &Config{
		Brokers: splitBrokers(getEnvStr(EnvKafkaBrokers, DefaultKafkaBrokers)),

		EventsTopic:      getEnvStr(EnvAppointmentEventsTopic, DefaultAppointmentEventsTopic),
		EventsDLQTopic:   getEnvStr(EnvAppointmentEventsDLQTopic, DefaultAppointmentEventsDLQTopic),
		NotifierGroupID:  getEnvStr(EnvNotifierGroupID, DefaultNotifierGroupID),
		PublishTimeout:   getEnvDuration(EnvEventPublishTimeout, DefaultEventPublishTimeout),
		PublishQueueSize: getEnvInt(EnvEventPublishQueueSize, DefaultEventPublishQueueSize),

		ProducerMaxAttempts:  getEnvInt(EnvKafkaProducerMaxAttempts, DefaultProducerMaxAttempts),
		ProducerBatchTimeout: getEnvDuration(EnvKafkaProducerBatchTimeout, DefaultProducerBatchTimeout),
		ProducerRequireAcks:  getEnvInt(EnvKafkaProducerRequireAcks, DefaultProducerRequireAcks),
		ProducerCompression:  strings.ToLower(getEnvStr(EnvKafkaProducerCompression, DefaultProducerCompression)),
		ProducerAsync:        getEnvBool(EnvKafkaProducerAsync, DefaultProducerAsync),

		ConsumerStartOffset:       getEnvInt64(EnvKafkaConsumerStartOffset, DefaultConsumerStartOffset),
		ConsumerMinBytes:          getEnvInt(EnvKafkaConsumerMinBytes, DefaultConsumerMinBytes),
		ConsumerMaxBytes:          getEnvInt(EnvKafkaConsumerMaxBytes, DefaultConsumerMaxBytes),
		ConsumerMaxWait:           getEnvDuration(EnvKafkaConsumerMaxWait, DefaultConsumerMaxWait),
		ConsumerCommitInterval:    getEnvDuration(EnvKafkaConsumerCommitInterval, DefaultConsumerCommitInterval),
		ConsumerHeartbeatInterval: getEnvDuration(EnvKafkaConsumerHeartbeatInterval, DefaultConsumerHeartbeatInterval),
		ConsumerSessionTimeout:    getEnvDuration(EnvKafkaConsumerSessionTimeout, DefaultConsumerSessionTimeout),
		ConsumerRebalanceTimeout:  getEnvDuration(EnvKafkaConsumerRebalanceTimeout, DefaultConsumerRebalanceTimeout),
		ConsumerMaxRetries:        getEnvInt(EnvKafkaConsumerMaxRetries, DefaultConsumerMaxRetries),
		ConsumerRetryBackoff:      getEnvDuration(EnvKafkaConsumerRetryBackoff, DefaultConsumerRetryBackoff),

		EnableMiddleware: getEnvBool(EnvKafkaEnableMiddleware, DefaultEnableMiddleware),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("kafka configuration validation failed: %w", err)
	}
	return cfg, nil
}

func splitBrokers(raw string) []string {
	var brokers []string
	for _, broker := range strings.Split(raw, ",") {
		brokers = append(brokers, strings.TrimSpace(broker))
	}
	return brokers
}

// problems collects every invalid setting so one run reports all of them.
type problems []string

func (p *problems) addf(format string, args ...any) {
	*p = append(*p, fmt.Sprintf(format, args...))
}

func (p *problems) positive(name string, value time.Duration) {
	if value <= 0 {
		p.addf("%s must be positive, got: %s", name, value)
	}
}

func (p *problems) positiveInt(name string, value int) {
	if value <= 0 {
		p.addf("%s must be positive, got: %d", name, value)
	}
}

func (cfg *Config) Validate() error {
	var p problems

	if len(cfg.Brokers) == 0 {
		p.addf("At least one Kafka broker is required")
	}
	for i, broker := range cfg.Brokers {
		if broker == "" {
			p.addf("Broker %d cannot be empty", i)
		}
	}

	if cfg.EventsTopic == "" {
		p.addf("EventsTopic cannot be empty")
	}
	if cfg.EventsDLQTopic != "" && cfg.EventsDLQTopic == cfg.EventsTopic {
		p.addf("EventsDLQTopic must differ from EventsTopic, got: %s", cfg.EventsDLQTopic)
	}
	if cfg.NotifierGroupID == "" {
		p.addf("NotifierGroupID cannot be empty")
	}
	p.positive("PublishTimeout", cfg.PublishTimeout)
	p.positiveInt("PublishQueueSize", cfg.PublishQueueSize)

	p.positiveInt("ProducerMaxAttempts", cfg.ProducerMaxAttempts)
	p.positive("ProducerBatchTimeout", cfg.ProducerBatchTimeout)
	switch cfg.ProducerCompression {
	case "none", "gzip", "snappy", "lz4", "zstd":
	default:
		p.addf("ProducerCompression must be one of [none, gzip, snappy, lz4, zstd], got: %s", cfg.ProducerCompression)
	}
	if cfg.ProducerRequireAcks < -1 || cfg.ProducerRequireAcks > 1 {
		p.addf("ProducerRequireAcks must be -1, 0, or 1, got: %d", cfg.ProducerRequireAcks)
	}

	if cfg.ConsumerStartOffset < -2 {
		p.addf("ConsumerStartOffset must be -1 (newest), -2 (oldest), or >= 0, got: %d", cfg.ConsumerStartOffset)
	}
	p.positiveInt("ConsumerMinBytes", cfg.ConsumerMinBytes)
	if cfg.ConsumerMaxBytes < cfg.ConsumerMinBytes {
		p.addf("ConsumerMaxBytes must be at least ConsumerMinBytes, got: %d", cfg.ConsumerMaxBytes)
	}
	p.positive("ConsumerMaxWait", cfg.ConsumerMaxWait)
	p.positive("ConsumerCommitInterval", cfg.ConsumerCommitInterval)
	p.positive("ConsumerHeartbeatInterval", cfg.ConsumerHeartbeatInterval)
	p.positive("ConsumerSessionTimeout", cfg.ConsumerSessionTimeout)
	p.positive("ConsumerRebalanceTimeout", cfg.ConsumerRebalanceTimeout)
	if cfg.ConsumerRetryBackoff < 0 {
		p.addf("ConsumerRetryBackoff cannot be negative, got: %s", cfg.ConsumerRetryBackoff)
	}
	if cfg.ConsumerMaxRetries < 0 {
		p.addf("ConsumerMaxRetries cannot be negative, got: %d", cfg.ConsumerMaxRetries)
	}

	if len(p) == 0 {
		return nil
	}
	var msg strings.Builder
	msg.WriteString("Configuration validation failed:\n")
	for i, problem := range p {
		fmt.Fprintf(&msg, "  %d. %s\n", i+1, problem)
	}
	return fmt.Errorf("%s", msg.String())
}

func (cfg *Config) LogConfiguration(log *logger.Logger) {
	log.Info("Kafka configuration loaded successfully",
		"brokers", cfg.Brokers,
		"events_topic", cfg.EventsTopic,
		"events_dlq_topic", cfg.EventsDLQTopic,
		"notifier_group_id", cfg.NotifierGroupID,
		"publish_timeout", cfg.PublishTimeout,
		"publish_queue_size", cfg.PublishQueueSize,
		"producer_max_attempts", cfg.ProducerMaxAttempts,
		"producer_require_acks", cfg.ProducerRequireAcks,
		"producer_compression", cfg.ProducerCompression,
		"consumer_start_offset", cfg.ConsumerStartOffset,
		"consumer_max_retries", cfg.ConsumerMaxRetries,
		"consumer_retry_backoff", cfg.ConsumerRetryBackoff,
		"enable_middleware", cfg.EnableMiddleware,
	)
}
