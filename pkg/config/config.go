package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App      AppConfig
	Service  ServiceConfig
	DB       DBConfig
	Redis    RedisConfig
	JWT      JWTConfig
	Checkout CheckoutConfig
	Pricing  PricingConfig
	GCP      GCPConfig
	GCS      GCSConfig
	PubSub   PubSubConfig
	Stripe   StripeConfig
	Square   SquareConfig
	Clover   CloverConfig
	Outbox   OutboxConfig
	Cron     CronConfig
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
	Env          string `envconfig:"MCC_APP_ENV" required:"true"`
	Port         string `envconfig:"MCC_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"MCC_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"MCC_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"MCC_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"MCC_DB_DSN"`
	Driver string `envconfig:"MCC_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"MCC_DB_HOST"`
	LegacyPort     int    `envconfig:"MCC_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"MCC_DB_USER"`
	LegacyPassword string `envconfig:"MCC_DB_PASSWORD"`
	LegacyName     string `envconfig:"MCC_DB_NAME"`
	LegacySSLMode  string `envconfig:"MCC_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"MCC_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"MCC_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"MCC_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"MCC_DB_CONN_MAX_IDLE_TIME" default:"10m"`

	AutoMigrate bool `envconfig:"MCC_AUTO_MIGRATE" default:"false"`
}

type RedisConfig struct {
	URL          string        `envconfig:"MCC_REDIS_URL" required:"true"`
	Address      string        `envconfig:"MCC_REDIS_ADDR"`
	Password     string        `envconfig:"MCC_REDIS_PASSWORD"`
	DB           int           `envconfig:"MCC_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"MCC_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"MCC_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"MCC_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"MCC_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"MCC_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"MCC_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"MCC_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"MCC_JWT_EXPIRATION_MINUTES" default:"60"`
}

type CheckoutConfig struct {
	OTPLength         int           `envconfig:"MCC_CHECKOUT_OTP_LENGTH" default:"4"`
	OTPTTL            time.Duration `envconfig:"MCC_CHECKOUT_OTP_TTL" default:"10m"`
	SessionStaleAfter time.Duration `envconfig:"MCC_CHECKOUT_SESSION_STALE_AFTER" default:"24h"`
}

type PricingConfig struct {
	PlatformFeePercent int `envconfig:"MCC_PRICING_PLATFORM_FEE_PERCENT" default:"10"`
	RushPercent        int `envconfig:"MCC_PRICING_RUSH_PERCENT" default:"25"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"MCC_GCP_PROJECT_ID" required:"true"`
	CredentialsJSON        string `envconfig:"MCC_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"MCC_GOOGLE_APPLICATION_CREDENTIALS"`
}

type GCSConfig struct {
	BucketName        string        `envconfig:"MCC_GCS_BUCKET_NAME" required:"true"`
	UploadURLExpiry   time.Duration `envconfig:"MCC_GCS_UPLOAD_URL_EXPIRY" default:"15m"`
	DownloadURLExpiry time.Duration `envconfig:"MCC_GCS_DOWNLOAD_URL_EXPIRY" default:"1h"`
	MaxUploadMB       int           `envconfig:"MCC_GCS_MAX_UPLOAD_MB" default:"25"`
}

type PubSubConfig struct {
	EventsTopic               string `envconfig:"MCC_PUBSUB_EVENTS_TOPIC" required:"true"`
	EventsSubscription        string `envconfig:"MCC_PUBSUB_EVENTS_SUBSCRIPTION" required:"true"`
	NotificationsTopic        string `envconfig:"MCC_PUBSUB_NOTIFICATIONS_TOPIC" default:"mcc-notification-events"`
	NotificationsSubscription string `envconfig:"MCC_PUBSUB_NOTIFICATIONS_SUBSCRIPTION" required:"true"`
}

type StripeConfig struct {
	APIKey string `envconfig:"MCC_STRIPE_API_KEY"`
	Secret string `envconfig:"MCC_STRIPE_SECRET"`
	Env    string `envconfig:"MCC_STRIPE_ENV" default:"test"`
}

// Environment returns the normalized Stripe environment (test/live).
func (s StripeConfig) Environment() string {
	env := strings.TrimSpace(strings.ToLower(s.Env))
	if env == "" {
		return "test"
	}
	return env
}

type SquareConfig struct {
	AccessToken   string `envconfig:"MCC_SQUARE_ACCESS_TOKEN"`
	WebhookSecret string `envconfig:"MCC_SQUARE_WEBHOOK_SECRET"`
	Env           string `envconfig:"MCC_SQUARE_ENV" default:"sandbox"`
}

// Environment returns the normalized Square environment (sandbox/production).
func (s SquareConfig) Environment() string {
	env := strings.TrimSpace(strings.ToLower(s.Env))
	if env == "" {
		return "sandbox"
	}
	return env
}

type CloverConfig struct {
	APIToken string `envconfig:"MCC_CLOVER_API_TOKEN"`
	BaseURL  string `envconfig:"MCC_CLOVER_BASE_URL" default:"https://api.clover.com"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"MCC_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"MCC_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"MCC_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

type CronConfig struct {
	Interval time.Duration `envconfig:"MCC_CRON_INTERVAL" default:"15m"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
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
