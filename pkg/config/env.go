package config

const (
	EnvPrefix = "STOREFRONT"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvAppEnv = "STOREFRONT_APP_ENV"
	EnvPort   = "STOREFRONT_APP_PORT"

	EnvDBDSN  = "STOREFRONT_DB_DSN"
	EnvDBHost = "STOREFRONT_DB_HOST"
	EnvDBUser = "STOREFRONT_DB_USER"
	EnvDBName = "STOREFRONT_DB_NAME"

	EnvRedisURL   = "STOREFRONT_REDIS_URL"
	EnvJWTSecret  = "STOREFRONT_JWT_SECRET"
	EnvJWTIssuer  = "STOREFRONT_JWT_ISSUER"
	EnvJWTExpMins = "STOREFRONT_JWT_EXPIRATION_MINUTES"

	EnvGCPProjectID          = "STOREFRONT_GCP_PROJECT_ID"
	EnvPubSubDomainTopic     = "STOREFRONT_PUBSUB_DOMAIN_TOPIC"
	EnvPubSubNotificationSub = "STOREFRONT_PUBSUB_NOTIFICATION_SUBSCRIPTION"

	EnvOrdersDeliveryDays     = "STOREFRONT_ORDERS_DELIVERY_DAYS"
	EnvOrdersRefundWindowDays = "STOREFRONT_ORDERS_REFUND_WINDOW_DAYS"

	EnvMailSMTPHost = "STOREFRONT_MAIL_SMTP_HOST"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
