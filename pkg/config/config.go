package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix namespaces every environment variable the engine reads.
const EnvPrefix = "dms"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

type Config struct {
	App          AppConfig
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	FeatureFlags FeatureFlagsConfig
	Schemes      SchemesConfig
	Cron         CronConfig
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
	Env          string `envconfig:"DMS_APP_ENV" required:"true"`
	LogLevel     string `envconfig:"DMS_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"DMS_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"DMS_SERVICE_KIND" default:"worker"`
}

type DBConfig struct {
	DSN    string `envconfig:"DMS_DB_DSN"`
	Driver string `envconfig:"DMS_DB_DRIVER" default:"postgres"`

	Host     string `envconfig:"DMS_DB_HOST"`
	Port     int    `envconfig:"DMS_DB_PORT" default:"5432"`
	User     string `envconfig:"DMS_DB_USER"`
	Password string `envconfig:"DMS_DB_PASSWORD"`
	Name     string `envconfig:"DMS_DB_NAME"`
	SSLMode  string `envconfig:"DMS_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"DMS_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"DMS_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"DMS_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"DMS_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"DMS_REDIS_URL"`
	Address      string        `envconfig:"DMS_REDIS_ADDR"`
	Password     string        `envconfig:"DMS_REDIS_PASSWORD"`
	DB           int           `envconfig:"DMS_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"DMS_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"DMS_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"DMS_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"DMS_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"DMS_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"DMS_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"DMS_AUTO_MIGRATE" default:"false"`
}

// SchemesConfig tunes the read-through cache in front of the scheme
// catalog. A zero TTL disables caching.
type SchemesConfig struct {
	CacheTTL time.Duration `envconfig:"DMS_SCHEME_CACHE_TTL" default:"5m"`
}

type CronConfig struct {
	Interval time.Duration `envconfig:"DMS_CRON_INTERVAL" default:"24h"`
	LockTTL  time.Duration `envconfig:"DMS_CRON_LOCK_TTL" default:"25h"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}
	if strings.EqualFold(db.Driver, "sqlite") {
		return fmt.Errorf("DMS_DB_DSN is required for the sqlite driver")
	}

	missing := []string{}
	for _, pair := range [][2]string{
		{"DMS_DB_HOST", db.Host},
		{"DMS_DB_USER", db.User},
		{"DMS_DB_NAME", db.Name},
	} {
		if pair[1] == "" {
			missing = append(missing, pair[0])
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("either DMS_DB_DSN or %s are required", strings.Join(missing, ", "))
	}

	userInfo := url.User(db.User)
	if db.Password != "" {
		userInfo = url.UserPassword(db.User, db.Password)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.Host, db.Port),
		Path:   db.Name,
	}
	if db.SSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.SSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
