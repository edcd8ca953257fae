package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Upstream     UpstreamConfig
	Catalog      CatalogConfig
	Sync         SyncConfig
	Session      SessionConfig
	FeatureFlags FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"SOUQSYNC_APP_ENV" required:"true"`
	Port         string `envconfig:"SOUQSYNC_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"SOUQSYNC_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"SOUQSYNC_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"SOUQSYNC_DB_DSN"`
	Driver string `envconfig:"SOUQSYNC_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"SOUQSYNC_DB_HOST"`
	LegacyPort     int    `envconfig:"SOUQSYNC_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"SOUQSYNC_DB_USER"`
	LegacyPassword string `envconfig:"SOUQSYNC_DB_PASSWORD"`
	LegacyName     string `envconfig:"SOUQSYNC_DB_NAME"`
	LegacySSLMode  string `envconfig:"SOUQSYNC_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"SOUQSYNC_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"SOUQSYNC_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"SOUQSYNC_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"SOUQSYNC_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"SOUQSYNC_REDIS_URL" required:"true"`
	Address      string        `envconfig:"SOUQSYNC_REDIS_ADDR"`
	Password     string        `envconfig:"SOUQSYNC_REDIS_PASSWORD"`
	DB           int           `envconfig:"SOUQSYNC_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"SOUQSYNC_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"SOUQSYNC_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"SOUQSYNC_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"SOUQSYNC_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"SOUQSYNC_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret string `envconfig:"SOUQSYNC_JWT_SECRET" required:"true"`
	Issuer string `envconfig:"SOUQSYNC_JWT_ISSUER" required:"true"`
}

// UpstreamConfig points the gateway at the marketplace API it reconciles against.
type UpstreamConfig struct {
	BaseURL       string        `envconfig:"SOUQSYNC_UPSTREAM_BASE_URL" required:"true"`
	Timeout       time.Duration `envconfig:"SOUQSYNC_UPSTREAM_TIMEOUT" default:"10s"`
	RetryAttempts int           `envconfig:"SOUQSYNC_UPSTREAM_RETRY_ATTEMPTS" default:"3"`
	RetryBackoff  time.Duration `envconfig:"SOUQSYNC_UPSTREAM_RETRY_BACKOFF" default:"100ms"`
}

type CatalogConfig struct {
	CacheTTL time.Duration `envconfig:"SOUQSYNC_CATALOG_CACHE_TTL" default:"5m"`
}

type SyncConfig struct {
	QueueSize int `envconfig:"SOUQSYNC_SYNC_QUEUE_SIZE" default:"64"`
}

type SessionConfig struct {
	CookieName string        `envconfig:"SOUQSYNC_SESSION_COOKIE" default:"sq_session"`
	IdleTTL    time.Duration `envconfig:"SOUQSYNC_SESSION_IDLE_TTL" default:"24h"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"SOUQSYNC_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"SOUQSYNC_AUTO_MIGRATE" default:"false"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
