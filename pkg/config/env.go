package config

const (
	EnvMongoURI          = "MONGO_URI"
	EnvMongoDatabaseName = "MONGO_DATABASE_NAME"
	EnvMongoConnTimeout  = "MONGO_CONN_TIMEOUT"

	EnvStoreDriver        = "STORE_DRIVER"
	EnvPostgresDSN        = "POSTGRES_DSN"
	EnvSQLitePath         = "SQLITE_PATH"
	EnvSQLMaxOpenConns    = "SQL_MAX_OPEN_CONNS"
	EnvSQLMaxIdleConns    = "SQL_MAX_IDLE_CONNS"
	EnvSQLConnMaxLifetime = "SQL_CONN_MAX_LIFETIME"

	EnvLockStoreDriver  = "LOCK_STORE_DRIVER"
	EnvRedisURL         = "REDIS_URL"
	EnvRedisConnTimeout = "REDIS_CONN_TIMEOUT"
	EnvSlotLockTTL      = "SLOT_LOCK_TTL"

	EnvBusinessUTCOffset     = "BUSINESS_UTC_OFFSET"
	EnvBusinessOpenHour      = "BUSINESS_OPEN_HOUR"
	EnvBusinessCloseHour     = "BUSINESS_CLOSE_HOUR"
	EnvBusinessClosedWeekday = "BUSINESS_CLOSED_WEEKDAY"

	EnvJWTSecret = "JWT_HMAC_SECRET"

	EnvNotifierDriver  = "NOTIFIER_DRIVER"
	EnvNotifierWorkers = "NOTIFIER_WORKERS"

	EnvSMTPHost = "SMTP_HOST"
	EnvSMTPPort = "SMTP_PORT"
	EnvSMTPUser = "SMTP_USER"
	EnvSMTPPass = "SMTP_PASS"
	EnvSMTPFrom = "SMTP_FROM"

	EnvPort     = "PORT"
	EnvLogLevel = "LOG_LEVEL"

	EnvRateLimitRequests = "RATE_LIMIT_REQUESTS"
	EnvRateLimitWindow   = "RATE_LIMIT_WINDOW"

	EnvRequestTimeout = "REQUEST_TIMEOUT"
	EnvIdempotencyTTL = "IDEMPOTENCY_TTL"
	EnvMaxRequestSize = "MAX_REQUEST_SIZE"

	EnvReadTimeout     = "READ_TIMEOUT"
	EnvWriteTimeout    = "WRITE_TIMEOUT"
	EnvIdleTimeout     = "IDLE_TIMEOUT"
	EnvShutdownTimeout = "SHUTDOWN_TIMEOUT"
)
