package config

// Environment variable names shared with tests and tooling.
const (
	EnvAppEnv          = "FIELDOPS_APP_ENV"
	EnvPort            = "FIELDOPS_APP_PORT"
	EnvStoreDriver     = "FIELDOPS_STORE_DRIVER"
	EnvStoreBadgerPath = "FIELDOPS_STORE_BADGER_PATH"
	EnvStoreInMemory   = "FIELDOPS_STORE_IN_MEMORY"
	EnvDBDSN           = "FIELDOPS_DB_DSN"
	EnvDBDriver        = "FIELDOPS_DB_DRIVER"
	EnvSyncLatency     = "FIELDOPS_SYNC_UPLOAD_LATENCY"
	EnvSyncTargetURL   = "FIELDOPS_SYNC_TARGET_URL"
	EnvJitterThreshold = "FIELDOPS_ROUTE_JITTER_THRESHOLD"
	EnvJWTSecret       = "FIELDOPS_JWT_SECRET"
	EnvJWTIssuer       = "FIELDOPS_JWT_ISSUER"
	EnvJWTExpMins      = "FIELDOPS_JWT_EXPIRATION_MINUTES"
	EnvAIAPIKey        = "FIELDOPS_AI_API_KEY"
)
