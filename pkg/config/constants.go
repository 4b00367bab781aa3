package config

// EnvPrefix is the envconfig prefix shared by every service binary.
const EnvPrefix = "MCC"

const (
	AppEnvDev  = "development"
	AppEnvProd = "production"
)

const (
	EnvDBDSN  = "MCC_DB_DSN"
	EnvDBHost = "MCC_DB_HOST"
	EnvDBUser = "MCC_DB_USER"
	EnvDBName = "MCC_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
