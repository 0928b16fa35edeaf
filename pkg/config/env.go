package config

// EnvPrefix is handed to envconfig; every field carries a fully-qualified name.
const EnvPrefix = "STOREFRONT"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvAppEnv             = "STOREFRONT_APP_ENV"
	EnvPort               = "STOREFRONT_APP_PORT"
	EnvLogLevel           = "STOREFRONT_LOG_LEVEL"
	EnvStorageDir         = "STOREFRONT_STORAGE_DIR"
	EnvStorageLockTimeout = "STOREFRONT_STORAGE_LOCK_TIMEOUT"
	EnvJWTSecret          = "STOREFRONT_JWT_SECRET"
	EnvJWTIssuer          = "STOREFRONT_JWT_ISSUER"
	EnvJWTExpMins         = "STOREFRONT_JWT_EXPIRATION_MINUTES"
	EnvAdminEmail         = "STOREFRONT_ADMIN_EMAIL"
	EnvRedisURL           = "STOREFRONT_REDIS_URL"
)
