package config

const (
	EnvPrefix = "RATTANSTORE"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvAppEnv   = "RATTANSTORE_APP_ENV"
	EnvPort     = "RATTANSTORE_APP_PORT"
	EnvLogLevel = "RATTANSTORE_LOG_LEVEL"

	EnvDBDSN    = "RATTANSTORE_DB_DSN"
	EnvDBDriver = "RATTANSTORE_DB_DRIVER"
	EnvDBHost   = "RATTANSTORE_DB_HOST"
	EnvDBUser   = "RATTANSTORE_DB_USER"
	EnvDBName   = "RATTANSTORE_DB_NAME"

	EnvRedisURL = "RATTANSTORE_REDIS_URL"

	EnvTelegramBotToken = "RATTANSTORE_TELEGRAM_BOT_TOKEN"
	EnvTelegramChatID   = "RATTANSTORE_TELEGRAM_CHAT_ID"
	EnvTelegramTimeout  = "RATTANSTORE_TELEGRAM_TIMEOUT"

	EnvAdminToken = "RATTANSTORE_ADMIN_TOKEN"

	EnvPricingMaterialsPerKg = "RATTANSTORE_PRICING_MATERIALS_PER_KG"
	EnvPricingSizeTiers      = "RATTANSTORE_PRICING_SIZE_TIERS"
	EnvPricingDefaultTier    = "RATTANSTORE_PRICING_DEFAULT_TIER"

	EnvCORSAllowedOrigins = "RATTANSTORE_CORS_ALLOWED_ORIGINS"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
