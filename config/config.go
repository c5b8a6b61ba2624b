package config

type AppConfig struct {
	APIPort     string `env:"PORT,required" envDefault:"12222"`
	ServiceName string `env:"MAILGATE_SERVICE_NAME" envDefault:"mailgate"`
}

type IngestConfig struct {
	WebhookSecret    string `env:"INBOUND_WEBHOOK_SECRET"`
	RequireSignature bool   `env:"INBOUND_REQUIRE_SIGNATURE" envDefault:"false"`
	SignatureHeader  string `env:"INBOUND_SIGNATURE_HEADER" envDefault:"X-Mailgate-Signature"`
	MaxBodyBytes     int64  `env:"INBOUND_MAX_BODY_BYTES" envDefault:"26214400"`
	MimeParser       string `env:"INBOUND_MIME_PARSER" envDefault:"enmime"`
}

type DatabaseConfig struct {
	Host            string `env:"MAILGATE_POSTGRES_HOST,required"`
	Port            string `env:"MAILGATE_POSTGRES_PORT,required"`
	User            string `env:"MAILGATE_POSTGRES_USER,required"`
	DBName          string `env:"MAILGATE_POSTGRES_DB_NAME,required"`
	Password        string `env:"MAILGATE_POSTGRES_PASSWORD,required"`
	MaxConn         int    `env:"MAILGATE_POSTGRES_DB_MAX_CONN" envDefault:"50"`
	MaxIdleConn     int    `env:"MAILGATE_POSTGRES_DB_MAX_IDLE_CONN" envDefault:"10"`
	ConnMaxLifetime int    `env:"MAILGATE_POSTGRES_DB_CONN_MAX_LIFETIME" envDefault:"60"`
	LogLevel        string `env:"MAILGATE_POSTGRES_LOG_LEVEL" envDefault:"WARN"`
	SSLMode         string `env:"MAILGATE_POSTGRES_SSL_MODE" envDefault:"require"`
}

type StorageConfig struct {
	Backend         string `env:"RAW_STORAGE_BACKEND" envDefault:"local"`
	LocalPath       string `env:"RAW_STORAGE_LOCAL_PATH" envDefault:"./data/raw"`
	Bucket          string `env:"RAW_STORAGE_BUCKET" envDefault:"inbound-raw"`
	Region          string `env:"RAW_STORAGE_REGION" envDefault:"us-east-1"`
	Endpoint        string `env:"RAW_STORAGE_ENDPOINT"`
	AccessKeyID     string `env:"RAW_STORAGE_ACCESS_KEY_ID"`
	AccessKeySecret string `env:"RAW_STORAGE_ACCESS_KEY_SECRET"`
	UseSSL          bool   `env:"RAW_STORAGE_USE_SSL" envDefault:"true"`
	R2AccountID     string `env:"CLOUDFLARE_R2_ACCOUNT_ID"`
}

type DeliveryConfig struct {
	Backend     string `env:"DELIVERY_BACKEND" envDefault:"none"`
	RabbitMQURL string `env:"RABBITMQ_URL"`
	RedisURL    string `env:"REDIS_URL"`
	RedisQueue  string `env:"DELIVERY_REDIS_QUEUE" envDefault:"mailgate:delivery"`
}

type AuditConfig struct {
	Enabled       bool `env:"ARTIFACT_AUDIT_ENABLED" envDefault:"true"`
	LookbackHours int  `env:"ARTIFACT_AUDIT_LOOKBACK_HOURS" envDefault:"24"`
	BatchSize     int  `env:"ARTIFACT_AUDIT_BATCH" envDefault:"500"`
}
