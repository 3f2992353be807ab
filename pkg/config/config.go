package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	RateLimit    RateLimitConfig
	FeatureFlags FeatureFlagsConfig
	Eventing     EventingConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	Outbox       OutboxConfig
	Orders       OrdersConfig
	Mail         MailConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if cfg.FeatureFlags.UseSQLite {
		cfg.DB.Driver = "sqlite"
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if err := cfg.Orders.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"STOREFRONT_APP_ENV" required:"true"`
	Port         string `envconfig:"STOREFRONT_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"STOREFRONT_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"STOREFRONT_LOG_WARN_STACK" default:"false"`

	AllowedOrigins []string `envconfig:"STOREFRONT_CORS_ALLOWED_ORIGINS" default:"http://localhost:3000"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd) || strings.EqualFold(a.Env, "production")
}

type ServiceConfig struct {
	Kind string `envconfig:"STOREFRONT_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"STOREFRONT_DB_DSN"`
	Driver string `envconfig:"STOREFRONT_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"STOREFRONT_DB_HOST"`
	LegacyPort     int    `envconfig:"STOREFRONT_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"STOREFRONT_DB_USER"`
	LegacyPassword string `envconfig:"STOREFRONT_DB_PASSWORD"`
	LegacyName     string `envconfig:"STOREFRONT_DB_NAME"`
	LegacySSLMode  string `envconfig:"STOREFRONT_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"STOREFRONT_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"STOREFRONT_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"STOREFRONT_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"STOREFRONT_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"STOREFRONT_REDIS_URL" required:"true"`
	Address      string        `envconfig:"STOREFRONT_REDIS_ADDR"`
	Password     string        `envconfig:"STOREFRONT_REDIS_PASSWORD"`
	DB           int           `envconfig:"STOREFRONT_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"STOREFRONT_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"STOREFRONT_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"STOREFRONT_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"STOREFRONT_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"STOREFRONT_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"STOREFRONT_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"STOREFRONT_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"STOREFRONT_JWT_EXPIRATION_MINUTES" required:"true"`
}

// TTL returns the access token lifetime.
func (j JWTConfig) TTL() time.Duration {
	if j.ExpirationMinutes <= 0 {
		return 0
	}
	return time.Duration(j.ExpirationMinutes) * time.Minute
}

type RateLimitConfig struct {
	CheckoutWindow time.Duration `envconfig:"STOREFRONT_RATE_LIMIT_CHECKOUT_WINDOW" default:"1m"`
	CheckoutLimit  int           `envconfig:"STOREFRONT_RATE_LIMIT_CHECKOUT_LIMIT" default:"10"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"STOREFRONT_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"STOREFRONT_AUTO_MIGRATE" default:"false"`
}

type EventingConfig struct {
	OutboxIdempotencyTTL  time.Duration `envconfig:"STOREFRONT_EVENTING_IDEMPOTENCY_TTL" default:"720h"`
	RequestIdempotencyTTL time.Duration `envconfig:"STOREFRONT_REQUEST_IDEMPOTENCY_TTL" default:"24h"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"STOREFRONT_GCP_PROJECT_ID" required:"true"`
	CredentialsJSON        string `envconfig:"STOREFRONT_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"STOREFRONT_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	DomainTopic              string `envconfig:"STOREFRONT_PUBSUB_DOMAIN_TOPIC" default:"storefront-domain-events"`
	NotificationSubscription string `envconfig:"STOREFRONT_PUBSUB_NOTIFICATION_SUBSCRIPTION" required:"true"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"STOREFRONT_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"STOREFRONT_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"STOREFRONT_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

// OrdersConfig carries the order lifecycle windows.
type OrdersConfig struct {
	DeliveryDays     int `envconfig:"STOREFRONT_ORDERS_DELIVERY_DAYS" default:"3"`
	RefundWindowDays int `envconfig:"STOREFRONT_ORDERS_REFUND_WINDOW_DAYS" default:"7"`
}

func (o OrdersConfig) DeliveryWindow() time.Duration {
	return time.Duration(o.DeliveryDays) * 24 * time.Hour
}

func (o OrdersConfig) RefundWindow() time.Duration {
	return time.Duration(o.RefundWindowDays) * 24 * time.Hour
}

func (o OrdersConfig) validate() error {
	if o.DeliveryDays < 0 {
		return fmt.Errorf("%s must be non-negative", EnvOrdersDeliveryDays)
	}
	if o.RefundWindowDays < 0 {
		return fmt.Errorf("%s must be non-negative", EnvOrdersRefundWindowDays)
	}
	return nil
}

type MailConfig struct {
	SMTPHost     string        `envconfig:"STOREFRONT_MAIL_SMTP_HOST"`
	SMTPPort     int           `envconfig:"STOREFRONT_MAIL_SMTP_PORT" default:"587"`
	Username     string        `envconfig:"STOREFRONT_MAIL_USERNAME"`
	Password     string        `envconfig:"STOREFRONT_MAIL_PASSWORD"`
	FromAddress  string        `envconfig:"STOREFRONT_MAIL_FROM_ADDRESS" default:"no-reply@storefront.local"`
	FromName     string        `envconfig:"STOREFRONT_MAIL_FROM_NAME" default:"Storefront"`
	SupportEmail string        `envconfig:"STOREFRONT_MAIL_SUPPORT_EMAIL" default:"support@storefront.local"`
	SendTimeout  time.Duration `envconfig:"STOREFRONT_MAIL_SEND_TIMEOUT" default:"10s"`
}

// Enabled reports whether an SMTP relay is configured.
func (m MailConfig) Enabled() bool {
	return strings.TrimSpace(m.SMTPHost) != ""
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
