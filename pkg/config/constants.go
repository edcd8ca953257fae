package config

const (
	// EnvPrefix namespaces every environment variable consumed by the gateway.
	EnvPrefix = "souqsync"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvDBDSN  = "SOUQSYNC_DB_DSN"
	EnvDBHost = "SOUQSYNC_DB_HOST"
	EnvDBUser = "SOUQSYNC_DB_USER"
	EnvDBName = "SOUQSYNC_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
