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
	Bot          BotConfig
	ChatAPI      ChatAPIConfig
	Session      SessionConfig
	Store        StoreConfig
	Password     PasswordConfig
	FeatureFlags FeatureFlagsConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	Outbox       OutboxConfig
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
	Env          string `envconfig:"CHATSTORE_APP_ENV" required:"true"`
	Port         string `envconfig:"CHATSTORE_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"CHATSTORE_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"CHATSTORE_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"CHATSTORE_DB_DSN"`
	Driver string `envconfig:"CHATSTORE_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"CHATSTORE_DB_HOST"`
	LegacyPort     int    `envconfig:"CHATSTORE_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"CHATSTORE_DB_USER"`
	LegacyPassword string `envconfig:"CHATSTORE_DB_PASSWORD"`
	LegacyName     string `envconfig:"CHATSTORE_DB_NAME"`
	LegacySSLMode  string `envconfig:"CHATSTORE_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"CHATSTORE_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"CHATSTORE_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"CHATSTORE_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"CHATSTORE_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"CHATSTORE_REDIS_URL" required:"true"`
	Address      string        `envconfig:"CHATSTORE_REDIS_ADDR"`
	Password     string        `envconfig:"CHATSTORE_REDIS_PASSWORD"`
	DB           int           `envconfig:"CHATSTORE_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"CHATSTORE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"CHATSTORE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"CHATSTORE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"CHATSTORE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"CHATSTORE_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// BotConfig carries the chat transport settings the core depends on.
type BotConfig struct {
	WebhookSecret   string        `envconfig:"CHATSTORE_BOT_WEBHOOK_SECRET" required:"true"`
	AdminUserIDs    []int64       `envconfig:"CHATSTORE_BOT_ADMIN_USER_IDS"`
	UpdateDedupeTTL time.Duration `envconfig:"CHATSTORE_BOT_UPDATE_DEDUPE_TTL" default:"10m"`
}

// IsAdmin reports whether the platform user id is in the configured admin list.
func (b BotConfig) IsAdmin(userID int64) bool {
	for _, id := range b.AdminUserIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// ChatAPIConfig points at the chat platform's outbound message API.
type ChatAPIConfig struct {
	BaseURL string        `envconfig:"CHATSTORE_CHAT_API_BASE_URL"`
	Token   string        `envconfig:"CHATSTORE_CHAT_API_TOKEN"`
	Timeout time.Duration `envconfig:"CHATSTORE_CHAT_API_TIMEOUT" default:"10s"`
}

type SessionConfig struct {
	TTL time.Duration `envconfig:"CHATSTORE_SESSION_TTL" default:"30m"`
}

// StoreConfig carries storefront policy defaults; runtime overrides live in
// the settings table.
type StoreConfig struct {
	MinOrderSubtotal string `envconfig:"CHATSTORE_MIN_ORDER_SUBTOTAL" default:"0"`
	Currency         string `envconfig:"CHATSTORE_CURRENCY" default:"USD"`
	PointsPerOrder   int    `envconfig:"CHATSTORE_POINTS_PER_ORDER" default:"1"`
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"CHATSTORE_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"CHATSTORE_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"CHATSTORE_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"CHATSTORE_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"CHATSTORE_ARGON_KEY_LEN" default:"32"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"CHATSTORE_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"CHATSTORE_AUTO_MIGRATE" default:"false"`
}

type GCPConfig struct {
	ProjectID string `envconfig:"CHATSTORE_GCP_PROJECT_ID"`
}

type PubSubConfig struct {
	DomainTopic        string `envconfig:"CHATSTORE_PUBSUB_DOMAIN_TOPIC" default:"cs-domain-events"`
	DomainSubscription string `envconfig:"CHATSTORE_PUBSUB_DOMAIN_SUBSCRIPTION"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"CHATSTORE_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"CHATSTORE_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"CHATSTORE_OUTBOX_MAX_ATTEMPTS" default:"10"`
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
