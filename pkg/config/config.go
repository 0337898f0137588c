package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	FeatureFlags FeatureFlagsConfig
	Orders       OrdersConfig
	Pricing      PricingConfig
	Cron         CronConfig
	Notifier     NotifierConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	Kafka        KafkaConfig
	RateLimit    RateLimitConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(cfg.FeatureFlags.UseSQLite); err != nil {
		return nil, err
	}
	if err := cfg.Pricing.validate(); err != nil {
		return nil, err
	}
	if err := cfg.Notifier.validate(cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"PICKUPZ_APP_ENV" required:"true"`
	Port         string `envconfig:"PICKUPZ_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"PICKUPZ_LOG_LEVEL" default:"info"`
	LogFormat    string `envconfig:"PICKUPZ_LOG_FORMAT" default:"json"`
	LogWarnStack bool   `envconfig:"PICKUPZ_LOG_WARN_STACK" default:"false"`

	// CORSOrigins is a comma separated allow-list for browser clients.
	CORSOrigins []string `envconfig:"PICKUPZ_CORS_ORIGINS" default:"http://localhost:3000"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"PICKUPZ_DB_DSN"`
	Driver string `envconfig:"PICKUPZ_DB_DRIVER" default:"postgres"`

	Host     string `envconfig:"PICKUPZ_DB_HOST"`
	Port     int    `envconfig:"PICKUPZ_DB_PORT" default:"5432"`
	User     string `envconfig:"PICKUPZ_DB_USER"`
	Password string `envconfig:"PICKUPZ_DB_PASSWORD"`
	Name     string `envconfig:"PICKUPZ_DB_NAME"`
	SSLMode  string `envconfig:"PICKUPZ_DB_SSLMODE" default:"disable"`

	SQLitePath string `envconfig:"PICKUPZ_DB_SQLITE_PATH" default:"pickupz.db"`

	MaxOpenConns    int           `envconfig:"PICKUPZ_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"PICKUPZ_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"PICKUPZ_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"PICKUPZ_DB_CONN_MAX_IDLE_TIME" default:"10m"`

	// SlowQueryThreshold logs statements slower than this at warn level. Zero disables it.
	SlowQueryThreshold time.Duration `envconfig:"PICKUPZ_DB_SLOW_QUERY_THRESHOLD" default:"500ms"`
}

type RedisConfig struct {
	URL          string        `envconfig:"PICKUPZ_REDIS_URL" required:"true"`
	PoolSize     int           `envconfig:"PICKUPZ_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"PICKUPZ_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"PICKUPZ_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"PICKUPZ_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"PICKUPZ_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// JWTConfig verifies bearer tokens minted by the external identity provider.
type JWTConfig struct {
	Secret            string `envconfig:"PICKUPZ_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"PICKUPZ_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"PICKUPZ_JWT_EXPIRATION_MINUTES" default:"60"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"PICKUPZ_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"PICKUPZ_AUTO_MIGRATE" default:"false"`
}

// OrdersConfig holds the lifecycle engine knobs.
type OrdersConfig struct {
	AckWindow           time.Duration `envconfig:"PICKUPZ_ORDER_ACK_WINDOW" default:"300s"`
	LowStockThreshold   int           `envconfig:"PICKUPZ_LOW_STOCK_THRESHOLD" default:"10"`
	// Inventory for weight-priced SKUs is kept in grams.
	LowStockWeightGrams int           `envconfig:"PICKUPZ_LOW_STOCK_WEIGHT_GRAMS" default:"1000"`
	PickupMaxAttempts   int           `envconfig:"PICKUPZ_PICKUP_MAX_ATTEMPTS" default:"0"`
	NudgeBefore         time.Duration `envconfig:"PICKUPZ_ORDER_NUDGE_BEFORE" default:"60s"`
	NotificationBuffer  int           `envconfig:"PICKUPZ_NOTIFICATION_BUFFER" default:"256"`
}

type PricingConfig struct {
	TaxRatePercent string `envconfig:"PICKUPZ_TAX_RATE_PERCENT" default:"5"`
	PlatformFee    string `envconfig:"PICKUPZ_PLATFORM_FEE" default:"5"`
	// PlatformFeeTiers is a comma separated list of min_subtotal:fee pairs, e.g. "0:5,500:10".
	PlatformFeeTiers string `envconfig:"PICKUPZ_PLATFORM_FEE_TIERS"`
	MoneyScale       int32  `envconfig:"PICKUPZ_MONEY_SCALE" default:"2"`
}

// FeeTier is one parsed entry of PlatformFeeTiers.
type FeeTier struct {
	MinSubtotal decimal.Decimal
	Fee         decimal.Decimal
}

// TaxRate returns the configured tax percentage.
func (p PricingConfig) TaxRate() decimal.Decimal {
	rate, err := decimal.NewFromString(strings.TrimSpace(p.TaxRatePercent))
	if err != nil {
		return decimal.Zero
	}
	return rate
}

// FlatFee returns the configured flat platform fee.
func (p PricingConfig) FlatFee() decimal.Decimal {
	fee, err := decimal.NewFromString(strings.TrimSpace(p.PlatformFee))
	if err != nil {
		return decimal.Zero
	}
	return fee
}

// Tiers parses PlatformFeeTiers.
func (p PricingConfig) Tiers() ([]FeeTier, error) {
	raw := strings.TrimSpace(p.PlatformFeeTiers)
	if raw == "" {
		return nil, nil
	}
	var tiers []FeeTier
	for _, part := range strings.Split(raw, ",") {
		pieces := strings.SplitN(strings.TrimSpace(part), ":", 2)
		if len(pieces) != 2 {
			return nil, fmt.Errorf("invalid platform fee tier %q", part)
		}
		minSubtotal, err := decimal.NewFromString(strings.TrimSpace(pieces[0]))
		if err != nil {
			return nil, fmt.Errorf("invalid platform fee tier threshold %q: %w", pieces[0], err)
		}
		fee, err := decimal.NewFromString(strings.TrimSpace(pieces[1]))
		if err != nil {
			return nil, fmt.Errorf("invalid platform fee tier amount %q: %w", pieces[1], err)
		}
		tiers = append(tiers, FeeTier{MinSubtotal: minSubtotal, Fee: fee})
	}
	return tiers, nil
}

func (p PricingConfig) validate() error {
	if _, err := decimal.NewFromString(strings.TrimSpace(p.TaxRatePercent)); err != nil {
		return fmt.Errorf("%s must be numeric: %w", EnvTaxRatePercent, err)
	}
	if _, err := decimal.NewFromString(strings.TrimSpace(p.PlatformFee)); err != nil {
		return fmt.Errorf("%s must be numeric: %w", EnvPlatformFee, err)
	}
	if p.MoneyScale < 0 {
		return fmt.Errorf("%s must not be negative", EnvMoneyScale)
	}
	_, err := p.Tiers()
	return err
}

// RateLimitConfig throttles pickup verification on top of the per-order attempt cap.
type RateLimitConfig struct {
	VerifyWindow     time.Duration `envconfig:"PICKUPZ_VERIFY_RATE_WINDOW" default:"1m"`
	VerifyIPLimit    int           `envconfig:"PICKUPZ_VERIFY_RATE_IP_LIMIT" default:"30"`
	VerifyStoreLimit int           `envconfig:"PICKUPZ_VERIFY_RATE_STORE_LIMIT" default:"120"`
}

type CronConfig struct {
	Enabled  bool          `envconfig:"PICKUPZ_CRON_ENABLED" default:"true"`
	Interval time.Duration `envconfig:"PICKUPZ_CRON_INTERVAL" default:"15s"`
	LockTTL  time.Duration `envconfig:"PICKUPZ_CRON_LOCK_TTL" default:"1m"`
}

type NotifierConfig struct {
	Sink string `envconfig:"PICKUPZ_NOTIFIER_SINK" default:"log"`
}

func (n NotifierConfig) validate(cfg Config) error {
	switch strings.ToLower(strings.TrimSpace(n.Sink)) {
	case NotifierSinkLog:
		return nil
	case NotifierSinkPubSub:
		if strings.TrimSpace(cfg.GCP.ProjectID) == "" || strings.TrimSpace(cfg.PubSub.OrderEventsTopic) == "" {
			return fmt.Errorf("%s and %s are required for the pubsub sink", EnvGCPProjectID, EnvPubSubOrderTopic)
		}
		return nil
	case NotifierSinkKafka:
		if len(cfg.Kafka.Brokers) == 0 || strings.TrimSpace(cfg.Kafka.OrderEventsTopic) == "" {
			return fmt.Errorf("%s and %s are required for the kafka sink", EnvKafkaBrokers, EnvKafkaOrderTopic)
		}
		return nil
	default:
		return fmt.Errorf("unsupported notifier sink %q", n.Sink)
	}
}

type GCPConfig struct {
	ProjectID              string `envconfig:"PICKUPZ_GCP_PROJECT_ID"`
	CredentialsJSON        string `envconfig:"PICKUPZ_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"PICKUPZ_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	OrderEventsTopic string `envconfig:"PICKUPZ_PUBSUB_ORDER_EVENTS_TOPIC"`
	// OrderedDelivery keys messages by order id so subscribers see one order's events in sequence.
	OrderedDelivery bool `envconfig:"PICKUPZ_PUBSUB_ORDERED_DELIVERY" default:"true"`
}

type KafkaConfig struct {
	Brokers          []string      `envconfig:"PICKUPZ_KAFKA_BROKERS"`
	OrderEventsTopic string        `envconfig:"PICKUPZ_KAFKA_ORDER_EVENTS_TOPIC" default:"pickupz.order-events"`
	BatchTimeout     time.Duration `envconfig:"PICKUPZ_KAFKA_BATCH_TIMEOUT" default:"10ms"`
}

func (db *DBConfig) ensureDSN(useSQLite bool) error {
	if useSQLite {
		db.Driver = DBDriverSQLite
		if db.DSN == "" {
			db.DSN = db.SQLitePath
		}
		return nil
	}
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	values := map[string]string{
		EnvDBHost: db.Host,
		EnvDBUser: db.User,
		EnvDBName: db.Name,
	}
	for _, env := range discreteDBEnvVars {
		if values[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.User)
	if db.Password != "" {
		userInfo = url.UserPassword(db.User, db.Password)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.Host, db.Port),
		Path:   db.Name,
	}

	if db.SSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.SSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
