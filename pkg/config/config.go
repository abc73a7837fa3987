package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = "MODEMTRACK"

	AppEnvDev  = "development"
	AppEnvProd = "production"

	EnvAppEnv = "MODEMTRACK_APP_ENV"
	EnvDBDSN  = "MODEMTRACK_DB_DSN"
	EnvDBHost = "MODEMTRACK_DB_HOST"
	EnvDBUser = "MODEMTRACK_DB_USER"
	EnvDBName = "MODEMTRACK_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App           AppConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Engine        EngineConfig
	Retention     RetentionConfig
	ScanRateLimit ScanRateLimitConfig
	FeatureFlags  FeatureFlagsConfig
	GCP           GCPConfig
	PubSub        PubSubConfig
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
	Env          string `envconfig:"MODEMTRACK_APP_ENV" required:"true"`
	Port         string `envconfig:"MODEMTRACK_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"MODEMTRACK_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"MODEMTRACK_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"MODEMTRACK_DB_DSN"`
	Driver string `envconfig:"MODEMTRACK_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"MODEMTRACK_DB_HOST"`
	LegacyPort     int    `envconfig:"MODEMTRACK_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"MODEMTRACK_DB_USER"`
	LegacyPassword string `envconfig:"MODEMTRACK_DB_PASSWORD"`
	LegacyName     string `envconfig:"MODEMTRACK_DB_NAME"`
	LegacySSLMode  string `envconfig:"MODEMTRACK_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"MODEMTRACK_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"MODEMTRACK_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"MODEMTRACK_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"MODEMTRACK_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"MODEMTRACK_REDIS_URL" required:"true"`
	Address      string        `envconfig:"MODEMTRACK_REDIS_ADDR"`
	Password     string        `envconfig:"MODEMTRACK_REDIS_PASSWORD"`
	DB           int           `envconfig:"MODEMTRACK_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"MODEMTRACK_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"MODEMTRACK_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"MODEMTRACK_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"MODEMTRACK_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"MODEMTRACK_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"MODEMTRACK_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"MODEMTRACK_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"MODEMTRACK_JWT_EXPIRATION_MINUTES" default:"480"`
}

// EngineConfig tunes the transition engine runtime behavior.
type EngineConfig struct {
	// ScanDebounce is the window during which a repeated scan of the same
	// serial toward the same phase is rejected as a duplicate. Barcode guns
	// fire twice on a bad trigger; this is not business-level dedup.
	ScanDebounce time.Duration `envconfig:"MODEMTRACK_SCAN_DEBOUNCE" default:"5s"`
}

// ScanRateLimitConfig throttles the scan endpoints per station IP and per
// operator.
type ScanRateLimitConfig struct {
	Window        time.Duration `envconfig:"MODEMTRACK_SCAN_RATE_WINDOW" default:"1m"`
	IPLimit       int           `envconfig:"MODEMTRACK_SCAN_RATE_IP_LIMIT" default:"600"`
	OperatorLimit int           `envconfig:"MODEMTRACK_SCAN_RATE_OPERATOR_LIMIT" default:"120"`
}

// RetentionConfig tunes the audit retention worker.
type RetentionConfig struct {
	Interval  time.Duration `envconfig:"MODEMTRACK_RETENTION_INTERVAL" default:"24h"`
	BatchSize int           `envconfig:"MODEMTRACK_RETENTION_BATCH_SIZE" default:"500"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"MODEMTRACK_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"MODEMTRACK_AUTO_MIGRATE" default:"false"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"MODEMTRACK_GCP_PROJECT_ID"`
	CredentialsJSON        string `envconfig:"MODEMTRACK_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"MODEMTRACK_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	ActionsTopic        string `envconfig:"MODEMTRACK_PUBSUB_ACTIONS_TOPIC" default:"mt-action-events"`
	ActionsSubscription string `envconfig:"MODEMTRACK_PUBSUB_ACTIONS_SUBSCRIPTION"`
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
