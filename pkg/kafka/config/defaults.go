package kafka_config

import "time"

const (
	DefaultKafkaBrokers = "localhost:9092"

	DefaultAppointmentEventsTopic    = "appointment-events"
	DefaultAppointmentEventsDLQTopic = "dlq-appointment-events"
	DefaultNotifierGroupID           = "appointment-notifier"
	DefaultEventPublishTimeout       = 5 * time.Second
	DefaultEventPublishQueueSize     = 256

	DefaultProducerMaxAttempts  = 3
	DefaultProducerBatchTimeout = 10 * time.Millisecond
	DefaultProducerRequireAcks  = -1
	DefaultProducerCompression  = "snappy"
	DefaultProducerAsync        = false

	DefaultConsumerStartOffset       = -1 // newest
	DefaultConsumerMinBytes          = 1
	DefaultConsumerMaxBytes          = 1024 * 1024
	DefaultConsumerMaxWait           = 500 * time.Millisecond
	DefaultConsumerCommitInterval    = time.Second
	DefaultConsumerHeartbeatInterval = 3 * time.Second
	DefaultConsumerSessionTimeout    = 10 * time.Second
	DefaultConsumerRebalanceTimeout  = 60 * time.Second
	DefaultConsumerMaxRetries        = 3
	DefaultConsumerRetryBackoff      = 500 * time.Millisecond

	DefaultEnableMiddleware = true
)
