package config

const (
	EnvPrefix = "chatstore"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvAppEnv   = "CHATSTORE_APP_ENV"
	EnvPort     = "CHATSTORE_APP_PORT"
	EnvDBDSN    = "CHATSTORE_DB_DSN"
	EnvDBHost   = "CHATSTORE_DB_HOST"
	EnvDBUser   = "CHATSTORE_DB_USER"
	EnvDBName   = "CHATSTORE_DB_NAME"
	EnvRedisURL = "CHATSTORE_REDIS_URL"

	EnvBotWebhookSecret = "CHATSTORE_BOT_WEBHOOK_SECRET"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
