package config

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"consultly/pkg/client"
	"consultly/pkg/logger"
)

type Config struct {
	MongoURI          string
	MongoDatabaseName string
	MongoConnTimeout  time.Duration

	StoreDriver        string
	PostgresDSN        string
	SQLitePath         string
	SQLMaxOpenConns    int
	SQLMaxIdleConns    int
	SQLConnMaxLifetime time.Duration

	LockStoreDriver  string
	RedisURL         string
	RedisConnTimeout time.Duration
	SlotLockTTL      time.Duration

	BusinessUTCOffset     string
	BusinessOffset        time.Duration
	BusinessOpenHour      int
	BusinessCloseHour     int
	BusinessClosedWeekday time.Weekday

	JWTSecret string

	NotifierDriver  string
	NotifierWorkers int

	SMTPHost string
	SMTPPort int
	SMTPUser string
	SMTPPass string
	SMTPFrom string

	Port string

	RateLimitRequests int
	RateLimitWindow   time.Duration

	RequestTimeout time.Duration
	IdempotencyTTL time.Duration
	MaxRequestSize int

	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	Log    *logger.Logger
	Client *client.Client

	parseErrors []string
}

func Load(serviceName string) *Config {
	cfg := FromEnv(serviceName)

	err := cfg.Validate()
	if err != nil {
		cfg.Log.Fatal(err.Error())
	}
	cfg.LogConfiguration()
	return cfg
}

// FromEnv reads the configuration without validating it.
func FromEnv(serviceName string) *Config {
	cfg := &Config{
		MongoURI:          getEnvStr(EnvMongoURI, DefaultMongoURI),
		MongoDatabaseName: getEnvStr(EnvMongoDatabaseName, DefaultMongoDatabaseName),
		MongoConnTimeout:  getEnvDuration(EnvMongoConnTimeout, DefaultMongoConnTimeout),

		StoreDriver:        strings.ToLower(getEnvStr(EnvStoreDriver, DefaultStoreDriver)),
		PostgresDSN:        getEnvStr(EnvPostgresDSN, ""),
		SQLitePath:         getEnvStr(EnvSQLitePath, DefaultSQLitePath),
		SQLMaxOpenConns:    getEnvNum(EnvSQLMaxOpenConns, DefaultSQLMaxOpenConns),
		SQLMaxIdleConns:    getEnvNum(EnvSQLMaxIdleConns, DefaultSQLMaxIdleConns),
		SQLConnMaxLifetime: getEnvDuration(EnvSQLConnMaxLifetime, DefaultSQLConnMaxLifetime),

		LockStoreDriver:  strings.ToLower(getEnvStr(EnvLockStoreDriver, DefaultLockStoreDriver)),
		RedisURL:         getEnvStr(EnvRedisURL, DefaultRedisURL),
		RedisConnTimeout: getEnvDuration(EnvRedisConnTimeout, DefaultRedisConnTimeout),
		SlotLockTTL:      getEnvDuration(EnvSlotLockTTL, DefaultSlotLockTTL),

		BusinessUTCOffset: getEnvStr(EnvBusinessUTCOffset, DefaultBusinessUTCOffset),
		BusinessOpenHour:  getEnvNum(EnvBusinessOpenHour, DefaultBusinessOpenHour),
		BusinessCloseHour: getEnvNum(EnvBusinessCloseHour, DefaultBusinessCloseHour),

		JWTSecret: getEnvStr(EnvJWTSecret, ""),

		NotifierDriver:  strings.ToLower(getEnvStr(EnvNotifierDriver, DefaultNotifierDriver)),
		NotifierWorkers: getEnvNum(EnvNotifierWorkers, DefaultNotifierWorkers),

		SMTPHost: getEnvStr(EnvSMTPHost, ""),
		SMTPPort: getEnvNum(EnvSMTPPort, DefaultSMTPPort),
		SMTPUser: getEnvStr(EnvSMTPUser, ""),
		SMTPPass: getEnvStr(EnvSMTPPass, ""),
		SMTPFrom: getEnvStr(EnvSMTPFrom, ""),

		Port: getEnvStr(EnvPort, DefaultPort),

		RateLimitRequests: getEnvNum(EnvRateLimitRequests, DefaultRateLimitRequests),
		RateLimitWindow:   getEnvDuration(EnvRateLimitWindow, DefaultRateLimitWindow),

		RequestTimeout: getEnvDuration(EnvRequestTimeout, DefaultRequestTimeout),
		IdempotencyTTL: getEnvDuration(EnvIdempotencyTTL, DefaultIdempotencyTTL),
		MaxRequestSize: getEnvNum(EnvMaxRequestSize, DefaultMaxRequestSize),

		ReadTimeout:     getEnvDuration(EnvReadTimeout, DefaultReadTimeout),
		WriteTimeout:    getEnvDuration(EnvWriteTimeout, DefaultWriteTimeout),
		IdleTimeout:     getEnvDuration(EnvIdleTimeout, DefaultIdleTimeout),
		ShutdownTimeout: getEnvDuration(EnvShutdownTimeout, DefaultShutdownTimeout),

		Log: logger.New(logger.Config{
			Level:     getEnvStr(EnvLogLevel, DefaultLogLevel),
			Format:    logger.JSON,
			AddSource: true,
			Service:   serviceName,
		}),
		Client: client.NewClient(),
	}

	offset, err := ParseUTCOffset(cfg.BusinessUTCOffset)
	if err != nil {
		cfg.parseErrors = append(cfg.parseErrors, err.Error())
	}
	cfg.BusinessOffset = offset

	weekday, err := ParseWeekday(getEnvStr(EnvBusinessClosedWeekday, DefaultBusinessClosedWeekday))
	if err != nil {
		cfg.parseErrors = append(cfg.parseErrors, err.Error())
	}
	cfg.BusinessClosedWeekday = weekday

	return cfg
}

func (cfg *Config) SetMongo() {
	cfg.Client.SetMongo(cfg.Log, cfg.MongoURI, cfg.MongoConnTimeout)
}

func (cfg *Config) SetRedis() {
	cfg.Client.SetRedis(cfg.Log, cfg.RedisURL, cfg.RedisConnTimeout)
}

// SetSQL opens the relational store selected by StoreDriver.
func (cfg *Config) SetSQL() {
	dsn := cfg.PostgresDSN
	if cfg.StoreDriver == StoreDriverSQLite {
		dsn = cfg.SQLitePath
	}
	cfg.Client.SetSQL(cfg.Log, client.SQLOptions{
		Driver:          cfg.StoreDriver,
		DSN:             dsn,
		MaxOpenConns:    cfg.SQLMaxOpenConns,
		MaxIdleConns:    cfg.SQLMaxIdleConns,
		ConnMaxLifetime: cfg.SQLConnMaxLifetime,
	})
}

// UsesMongo reports whether any configured store is backed by MongoDB.
func (cfg *Config) UsesMongo() bool {
	return cfg.StoreDriver == StoreDriverMongo || cfg.LockStoreDriver == LockStoreMongo
}

func (cfg *Config) UsesSQL() bool {
	return cfg.StoreDriver == StoreDriverPostgres || cfg.StoreDriver == StoreDriverSQLite
}

func (cfg *Config) Validate() error {
	errors := append([]string{}, cfg.parseErrors...)

	if port, err := strconv.Atoi(cfg.Port); err != nil || port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("Port must be between 1 and 65535, got: %s", cfg.Port))
	}

	switch cfg.StoreDriver {
	case StoreDriverMongo, StoreDriverSQLite:
	case StoreDriverPostgres:
		if cfg.PostgresDSN == "" {
			errors = append(errors, "PostgresDSN cannot be empty when STORE_DRIVER=postgres")
		}
	default:
		errors = append(errors, fmt.Sprintf("StoreDriver must be one of [mongo, postgres, sqlite], got: %s", cfg.StoreDriver))
	}

	switch cfg.LockStoreDriver {
	case LockStoreMongo, LockStoreMemory:
	case LockStoreRedis:
		if !regexp.MustCompile(`^rediss?://`).MatchString(cfg.RedisURL) {
			errors = append(errors, fmt.Sprintf("RedisURL must start with 'redis://' or 'rediss://', got: %s", redactURL(cfg.RedisURL)))
		}
	default:
		errors = append(errors, fmt.Sprintf("LockStoreDriver must be one of [redis, mongo, memory], got: %s", cfg.LockStoreDriver))
	}

	if cfg.UsesMongo() {
		if cfg.MongoURI == "" {
			errors = append(errors, "MongoURI cannot be empty")
		} else if len(cfg.MongoURI) < 10 || !regexp.MustCompile(`^mongodb(\+srv)?://`).MatchString(cfg.MongoURI) {
			errors = append(errors, fmt.Sprintf("MongoURI must start with 'mongodb://' or 'mongodb+srv://', got: %s", redactURL(cfg.MongoURI)))
		}
		if cfg.MongoDatabaseName == "" {
			errors = append(errors, "MongoDatabaseName cannot be empty")
		}
		if cfg.MongoConnTimeout <= 0 {
			errors = append(errors, fmt.Sprintf("MongoConnTimeout must be positive, got: %s", cfg.MongoConnTimeout))
		}
	}

	if cfg.SlotLockTTL < time.Second {
		errors = append(errors, fmt.Sprintf("SlotLockTTL must be at least 1s, got: %s", cfg.SlotLockTTL))
	}
	if cfg.BusinessOpenHour < 0 || cfg.BusinessCloseHour > 24 || cfg.BusinessOpenHour >= cfg.BusinessCloseHour {
		errors = append(errors, fmt.Sprintf("Business hours must satisfy 0 <= open < close <= 24, got: %d-%d", cfg.BusinessOpenHour, cfg.BusinessCloseHour))
	}

	switch cfg.NotifierDriver {
	case NotifierKafka, NotifierLog:
	case NotifierMail:
		if cfg.SMTPHost == "" {
			errors = append(errors, "SMTPHost cannot be empty when NOTIFIER_DRIVER=mail")
		}
		if cfg.SMTPFrom == "" {
			errors = append(errors, "SMTPFrom cannot be empty when NOTIFIER_DRIVER=mail")
		}
	default:
		errors = append(errors, fmt.Sprintf("NotifierDriver must be one of [kafka, mail, log], got: %s", cfg.NotifierDriver))
	}
	if cfg.NotifierWorkers <= 0 {
		errors = append(errors, fmt.Sprintf("NotifierWorkers must be positive, got: %d", cfg.NotifierWorkers))
	}
	if cfg.SMTPPort < 1 || cfg.SMTPPort > 65535 {
		errors = append(errors, fmt.Sprintf("SMTPPort must be between 1 and 65535, got: %d", cfg.SMTPPort))
	}

	if cfg.RateLimitWindow <= 0 {
		errors = append(errors, fmt.Sprintf("RateLimitWindow must be positive, got: %s", cfg.RateLimitWindow))
	}
	if cfg.RequestTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("RequestTimeout must be positive, got: %s", cfg.RequestTimeout))
	}
	if cfg.IdempotencyTTL <= 0 {
		errors = append(errors, fmt.Sprintf("IdempotencyTTL must be positive, got: %s", cfg.IdempotencyTTL))
	}
	if cfg.ReadTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("ReadTimeout must be positive, got: %s", cfg.ReadTimeout))
	}
	if cfg.WriteTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("WriteTimeout must be positive, got: %s", cfg.WriteTimeout))
	}
	if cfg.IdleTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("IdleTimeout must be positive, got: %s", cfg.IdleTimeout))
	}
	if cfg.ShutdownTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("ShutdownTimeout must be positive, got: %s", cfg.ShutdownTimeout))
	}

	if cfg.RateLimitRequests <= 0 {
		errors = append(errors, fmt.Sprintf("RateLimitRequests must be positive, got: %d", cfg.RateLimitRequests))
	}
	if cfg.MaxRequestSize <= 0 {
		errors = append(errors, fmt.Sprintf("MaxRequestSize must be positive, got: %d", cfg.MaxRequestSize))
	}

	if len(errors) > 0 {
		errMsg := "Configuration validation failed:\n"
		for i, err := range errors {
			errMsg += fmt.Sprintf("  %d. %s\n", i+1, err)
		}
		return fmt.Errorf("%s", errMsg)
	}

	return nil
}

func (cfg *Config) LogConfiguration() {
	cfg.Log.Info("Configuration loaded successfully",
		"store_driver", cfg.StoreDriver,
		"mongo_uri", redactURL(cfg.MongoURI),
		"mongo_database", cfg.MongoDatabaseName,
		"mongo_conn_timeout", cfg.MongoConnTimeout,
		"postgres_dsn_set", cfg.PostgresDSN != "",
		"sqlite_path", cfg.SQLitePath,
		"lock_store_driver", cfg.LockStoreDriver,
		"redis_url", redactURL(cfg.RedisURL),
		"slot_lock_ttl", cfg.SlotLockTTL,
		"business_utc_offset", cfg.BusinessUTCOffset,
		"business_open_hour", cfg.BusinessOpenHour,
		"business_close_hour", cfg.BusinessCloseHour,
		"business_closed_weekday", cfg.BusinessClosedWeekday.String(),
		"jwt_secret_set", cfg.JWTSecret != "",
		"notifier_driver", cfg.NotifierDriver,
		"notifier_workers", cfg.NotifierWorkers,
		"smtp_host", cfg.SMTPHost,
		"smtp_port", cfg.SMTPPort,
		"smtp_user_set", cfg.SMTPUser != "",
		"port", cfg.Port,
		"rate_limit_requests", cfg.RateLimitRequests,
		"rate_limit_window", cfg.RateLimitWindow,
		"request_timeout", cfg.RequestTimeout,
		"idempotency_ttl", cfg.IdempotencyTTL,
		"max_request_size", cfg.MaxRequestSize,
		"read_timeout", cfg.ReadTimeout,
		"write_timeout", cfg.WriteTimeout,
		"idle_timeout", cfg.IdleTimeout,
		"shutdown_timeout", cfg.ShutdownTimeout,
	)
}

func (cfg *Config) GracefulShutdown() {
	cfg.Client.GracefulShutdown(cfg.Log, cfg.ShutdownTimeout)
}

var offsetRegex = regexp.MustCompile(`^([+-])([01][0-9]|2[0-3]):([0-5][0-9])$`)

// ParseUTCOffset parses a fixed offset such as "+05:30" or "-04:00".
func ParseUTCOffset(s string) (time.Duration, error) {
	m := offsetRegex.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return 0, fmt.Errorf("BusinessUTCOffset must be in ±HH:MM format, got: %s", s)
	}
	hours, _ := strconv.Atoi(m[2])
	minutes, _ := strconv.Atoi(m[3])
	offset := time.Duration(hours)*time.Hour + time.Duration(minutes)*time.Minute
	if m[1] == "-" {
		offset = -offset
	}
	return offset, nil
}

func ParseWeekday(s string) (time.Weekday, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for d := time.Sunday; d <= time.Saturday; d++ {
		full := strings.ToLower(d.String())
		if name == full || name == full[:3] {
			return d, nil
		}
	}
	return time.Sunday, fmt.Errorf("BusinessClosedWeekday must be a weekday name, got: %s", s)
}

var credentialRegex = regexp.MustCompile(`(://)[^:/@]+:[^@]+@`)

func redactURL(uri string) string {
	return credentialRegex.ReplaceAllString(uri, "${1}***:***@")
}

func getEnvStr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvNum(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}
