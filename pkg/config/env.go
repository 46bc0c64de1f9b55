package config

const (
	EnvPrefix = "STOREFRONT"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvAppEnv         = "STOREFRONT_APP_ENV"
	EnvPort           = "STOREFRONT_APP_PORT"
	EnvStorageBackend = "STOREFRONT_STORAGE_BACKEND"
	EnvCartKey        = "STOREFRONT_CART_KEY"
	EnvDBDSN          = "STOREFRONT_DB_DSN"
	EnvDBUseSQLite    = "STOREFRONT_DB_USE_SQLITE"
	EnvDBHost         = "STOREFRONT_DB_HOST"
	EnvDBUser         = "STOREFRONT_DB_USER"
	EnvDBPassword     = "STOREFRONT_DB_PASSWORD"
	EnvDBName         = "STOREFRONT_DB_NAME"
	EnvRedisURL       = "STOREFRONT_REDIS_URL"
	EnvRedisAddr      = "STOREFRONT_REDIS_ADDR"
	EnvBackendURL     = "STOREFRONT_BACKEND_URL"
	EnvBackendAnonKey = "STOREFRONT_BACKEND_ANON_KEY"
	EnvWhatsAppPhone  = "STOREFRONT_WHATSAPP_PHONE"
	EnvPaymentMethod  = "STOREFRONT_PAYMENT_METHOD"
)

var discreteDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
