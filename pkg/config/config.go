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
	Telegram     TelegramConfig
	Admin        AdminConfig
	Pricing      PricingConfig
	Checkout     CheckoutConfig
	Wizard       WizardConfig
	Catalog      CatalogConfig
	CORS         CORSConfig
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
	Env          string `envconfig:"RATTANSTORE_APP_ENV" required:"true"`
	Port         string `envconfig:"RATTANSTORE_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"RATTANSTORE_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"RATTANSTORE_LOG_WARN_STACK" default:"false"`

	// TrustProxyHeaders is set only when the API runs behind a reverse proxy
	// that appends to X-Forwarded-For.
	TrustProxyHeaders bool `envconfig:"RATTANSTORE_TRUST_PROXY_HEADERS" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"RATTANSTORE_DB_DSN"`
	Driver string `envconfig:"RATTANSTORE_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"RATTANSTORE_DB_HOST"`
	LegacyPort     int    `envconfig:"RATTANSTORE_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"RATTANSTORE_DB_USER"`
	LegacyPassword string `envconfig:"RATTANSTORE_DB_PASSWORD"`
	LegacyName     string `envconfig:"RATTANSTORE_DB_NAME"`
	LegacySSLMode  string `envconfig:"RATTANSTORE_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"RATTANSTORE_DB_MAX_OPEN_CONNS" default:"10"`
	MaxIdleConns    int           `envconfig:"RATTANSTORE_DB_MAX_IDLE_CONNS" default:"5"`
	ConnMaxLifetime time.Duration `envconfig:"RATTANSTORE_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"RATTANSTORE_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

// IsSQLite reports whether the configured driver is the embedded sqlite engine.
func (db DBConfig) IsSQLite() bool {
	return strings.EqualFold(strings.TrimSpace(db.Driver), "sqlite")
}

type RedisConfig struct {
	URL          string        `envconfig:"RATTANSTORE_REDIS_URL" required:"true"`
	Address      string        `envconfig:"RATTANSTORE_REDIS_ADDR"`
	Password     string        `envconfig:"RATTANSTORE_REDIS_PASSWORD"`
	DB           int           `envconfig:"RATTANSTORE_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"RATTANSTORE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"RATTANSTORE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"RATTANSTORE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"RATTANSTORE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"RATTANSTORE_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// TelegramConfig is loaded once at start-up. The chat id is never rewritten in-process;
// the channel wizard only recommends a replacement value.
type TelegramConfig struct {
	BotToken  string        `envconfig:"RATTANSTORE_TELEGRAM_BOT_TOKEN" required:"true"`
	ChatID    string        `envconfig:"RATTANSTORE_TELEGRAM_CHAT_ID" required:"true"`
	BaseURL   string        `envconfig:"RATTANSTORE_TELEGRAM_BASE_URL" default:"https://api.telegram.org"`
	Timeout   time.Duration `envconfig:"RATTANSTORE_TELEGRAM_TIMEOUT" default:"10s"`
	ParseMode string        `envconfig:"RATTANSTORE_TELEGRAM_PARSE_MODE" default:"HTML"`
}

type AdminConfig struct {
	Token string `envconfig:"RATTANSTORE_ADMIN_TOKEN" required:"true"`
}

type PricingConfig struct {
	MaterialsPerKg string            `envconfig:"RATTANSTORE_PRICING_MATERIALS_PER_KG" default:"36000"`
	SizeTiers      map[string]string `envconfig:"RATTANSTORE_PRICING_SIZE_TIERS" default:"10л:187000,15л:237000,20л:287000"`
	DefaultTier    string            `envconfig:"RATTANSTORE_PRICING_DEFAULT_TIER" default:"187000"`
}

type CheckoutConfig struct {
	SendTimeout       time.Duration `envconfig:"RATTANSTORE_CHECKOUT_SEND_TIMEOUT" default:"15s"`
	IdempotencyTTL    time.Duration `envconfig:"RATTANSTORE_CHECKOUT_IDEMPOTENCY_TTL" default:"24h"`
	CartTTL           time.Duration `envconfig:"RATTANSTORE_CART_TTL" default:"168h"`
	RateLimitWindow   time.Duration `envconfig:"RATTANSTORE_CHECKOUT_RATE_LIMIT_WINDOW" default:"10m"`
	RateLimitIPLimit  int           `envconfig:"RATTANSTORE_CHECKOUT_RATE_LIMIT_IP_LIMIT" default:"20"`
	RateLimitPhoneMax int           `envconfig:"RATTANSTORE_CHECKOUT_RATE_LIMIT_PHONE_LIMIT" default:"5"`
}

type WizardConfig struct {
	SessionTTL time.Duration `envconfig:"RATTANSTORE_WIZARD_SESSION_TTL" default:"1h"`
}

type CatalogConfig struct {
	Path string `envconfig:"RATTANSTORE_CATALOG_PATH"`
}

type CORSConfig struct {
	AllowedOrigins []string `envconfig:"RATTANSTORE_CORS_ALLOWED_ORIGINS" default:"http://localhost:3000"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"RATTANSTORE_AUTO_MIGRATE" default:"false"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}
	if db.IsSQLite() {
		return fmt.Errorf("%s is required when %s=sqlite", EnvDBDSN, EnvDBDriver)
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
