package config

import "time"

const (
	StoreDriverMongo    = "mongo"
	StoreDriverPostgres = "postgres"
	StoreDriverSQLite   = "sqlite"

	LockStoreRedis  = "redis"
	LockStoreMongo  = "mongo"
	LockStoreMemory = "memory"

	NotifierKafka = "kafka"
	NotifierMail  = "mail"
	NotifierLog   = "log"
)

const (
	DefaultMongoURI          = "mongodb://localhost:27017"
	DefaultMongoDatabaseName = "consultly"
	DefaultMongoConnTimeout  = 10 * time.Second

	DefaultStoreDriver        = StoreDriverMongo
	DefaultSQLitePath         = "consultly.db"
	DefaultSQLMaxOpenConns    = 20
	DefaultSQLMaxIdleConns    = 5
	DefaultSQLConnMaxLifetime = 30 * time.Minute

	DefaultLockStoreDriver  = LockStoreRedis
	DefaultRedisURL         = "redis://localhost:6379/0"
	DefaultRedisConnTimeout = 5 * time.Second
	DefaultSlotLockTTL      = 300 * time.Second

	DefaultBusinessUTCOffset     = "+05:30"
	DefaultBusinessOpenHour      = 10
	DefaultBusinessCloseHour     = 19
	DefaultBusinessClosedWeekday = "sunday"

	DefaultNotifierDriver  = NotifierKafka
	DefaultNotifierWorkers = 4

	DefaultSMTPPort = 587

	DefaultPort     = "8080"
	DefaultLogLevel = "info"

	DefaultRateLimitRequests = 60
	DefaultRateLimitWindow   = 1 * time.Minute

	DefaultRequestTimeout = 30 * time.Second
	DefaultIdempotencyTTL = 24 * time.Hour
	DefaultMaxRequestSize = 1 * 1024 * 1024 // 1MB

	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 15 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 30 * time.Second
)
