package config

// EnvPrefix is passed to envconfig; every field carries an explicit name so it is informational.
const EnvPrefix = "PICKUPZ"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	DBDriverPostgres = "postgres"
	DBDriverSQLite   = "sqlite"

	NotifierSinkLog    = "log"
	NotifierSinkPubSub = "pubsub"
	NotifierSinkKafka  = "kafka"
)

const (
	EnvAppEnv            = "PICKUPZ_APP_ENV"
	EnvPort              = "PICKUPZ_APP_PORT"
	EnvDBDSN             = "PICKUPZ_DB_DSN"
	EnvDBHost            = "PICKUPZ_DB_HOST"
	EnvDBUser            = "PICKUPZ_DB_USER"
	EnvDBName            = "PICKUPZ_DB_NAME"
	EnvUseSQLite         = "PICKUPZ_USE_SQLITE"
	EnvRedisURL          = "PICKUPZ_REDIS_URL"
	EnvJWTSecret         = "PICKUPZ_JWT_SECRET"
	EnvJWTIssuer         = "PICKUPZ_JWT_ISSUER"
	EnvAckWindow         = "PICKUPZ_ORDER_ACK_WINDOW"
	EnvLowStockThreshold = "PICKUPZ_LOW_STOCK_THRESHOLD"
	EnvLowStockGrams     = "PICKUPZ_LOW_STOCK_WEIGHT_GRAMS"
	EnvTaxRatePercent    = "PICKUPZ_TAX_RATE_PERCENT"
	EnvPlatformFee       = "PICKUPZ_PLATFORM_FEE"
	EnvPlatformFeeTiers  = "PICKUPZ_PLATFORM_FEE_TIERS"
	EnvMoneyScale        = "PICKUPZ_MONEY_SCALE"
	EnvNotifierSink      = "PICKUPZ_NOTIFIER_SINK"
	EnvGCPProjectID      = "PICKUPZ_GCP_PROJECT_ID"
	EnvPubSubOrderTopic  = "PICKUPZ_PUBSUB_ORDER_EVENTS_TOPIC"
	EnvKafkaBrokers      = "PICKUPZ_KAFKA_BROKERS"
	EnvKafkaOrderTopic   = "PICKUPZ_KAFKA_ORDER_EVENTS_TOPIC"
)

var discreteDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
