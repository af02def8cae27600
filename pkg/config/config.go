package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const EnvPrefix = ""

const (
	AppEnvDev  = "dev"
	AppEnvProd = "production"
)

type Config struct {
	App          AppConfig
	Store        StoreConfig
	DB           DBConfig
	Sync         SyncConfig
	Route        RouteConfig
	GPS          GPSConfig
	JWT          JWTConfig
	Password     PasswordConfig
	AI           AIConfig
	FeatureFlags FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Store.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"FIELDOPS_APP_ENV" required:"true"`
	Port         string `envconfig:"FIELDOPS_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"FIELDOPS_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"FIELDOPS_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

const (
	StoreDriverBadger = "badger"
	StoreDriverSQL    = "sql"
)

// StoreConfig selects and tunes the durable key/value backend.
type StoreConfig struct {
	Driver     string `envconfig:"FIELDOPS_STORE_DRIVER" default:"badger"`
	BadgerPath string `envconfig:"FIELDOPS_STORE_BADGER_PATH" default:"fieldops.db"`
	InMemory   bool   `envconfig:"FIELDOPS_STORE_IN_MEMORY" default:"false"`
}

func (s StoreConfig) validate() error {
	switch s.Driver {
	case StoreDriverBadger, StoreDriverSQL:
		return nil
	}
	return fmt.Errorf("invalid store driver %q", s.Driver)
}

type DBConfig struct {
	DSN    string `envconfig:"FIELDOPS_DB_DSN" default:"fieldops.sqlite"`
	Driver string `envconfig:"FIELDOPS_DB_DRIVER" default:"sqlite"`

	MaxOpenConns    int           `envconfig:"FIELDOPS_DB_MAX_OPEN_CONNS" default:"5"`
	MaxIdleConns    int           `envconfig:"FIELDOPS_DB_MAX_IDLE_CONNS" default:"2"`
	ConnMaxLifetime time.Duration `envconfig:"FIELDOPS_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"FIELDOPS_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

// SyncConfig tunes the pending-record reconciliation pass.
type SyncConfig struct {
	UploadLatency time.Duration `envconfig:"FIELDOPS_SYNC_UPLOAD_LATENCY" default:"2s"`
	TargetURL     string        `envconfig:"FIELDOPS_SYNC_TARGET_URL"`
	RetryCount    int           `envconfig:"FIELDOPS_SYNC_RETRY_COUNT" default:"3"`
	RetryWait     time.Duration `envconfig:"FIELDOPS_SYNC_RETRY_WAIT" default:"500ms"`
	ProbeURL      string        `envconfig:"FIELDOPS_SYNC_PROBE_URL"`
	ProbeInterval time.Duration `envconfig:"FIELDOPS_SYNC_PROBE_INTERVAL" default:"30s"`
}

// RouteConfig tunes the per-day GPS archive.
type RouteConfig struct {
	// JitterThreshold is a Euclidean distance on raw coordinates,
	// roughly ten meters at city scale. Not geodesic.
	JitterThreshold float64 `envconfig:"FIELDOPS_ROUTE_JITTER_THRESHOLD" default:"0.0001"`
}

type GPSConfig struct {
	SampleBuffer int `envconfig:"FIELDOPS_GPS_SAMPLE_BUFFER" default:"16"`
}

type JWTConfig struct {
	Secret            string `envconfig:"FIELDOPS_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"FIELDOPS_JWT_ISSUER" default:"fieldops"`
	ExpirationMinutes int    `envconfig:"FIELDOPS_JWT_EXPIRATION_MINUTES" default:"720"`
}

type PasswordConfig struct {
	ArgonMemoryKB    uint32 `envconfig:"FIELDOPS_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        uint32 `envconfig:"FIELDOPS_ARGON_TIME" default:"1"`
	ArgonParallelism uint8  `envconfig:"FIELDOPS_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     uint32 `envconfig:"FIELDOPS_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      uint32 `envconfig:"FIELDOPS_ARGON_KEY_LEN" default:"32"`
}

// AIConfig configures the generative summary client.
type AIConfig struct {
	APIKey     string        `envconfig:"FIELDOPS_AI_API_KEY"`
	FlashModel string        `envconfig:"FIELDOPS_AI_FLASH_MODEL" default:"gemini-2.5-flash"`
	ProModel   string        `envconfig:"FIELDOPS_AI_PRO_MODEL" default:"gemini-3-pro-preview"`
	Timeout    time.Duration `envconfig:"FIELDOPS_AI_TIMEOUT" default:"60s"`
}

type FeatureFlagsConfig struct {
	AutoMigrate  bool `envconfig:"FIELDOPS_AUTO_MIGRATE" default:"true"`
	DemoAccounts bool `envconfig:"FIELDOPS_DEMO_ACCOUNTS" default:"false"`
}
