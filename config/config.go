package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

type Config struct {
	ServerPort int
	Storage    StorageConfig
	Minio      MinioConfig
	GCS        GCSConfig
	Database   DatabaseConfig
	Events     EventsConfig
	RabbitMQ   RabbitMQConfig
	PubSub     PubSubConfig
	Auth       AuthConfig
}

// StorageConfig selects and tunes the object-store backend.
type StorageConfig struct {
	// Backend is one of "minio", "gcs", or "memory".
	Backend string

	// URLExpirySeconds is the validity window of signed URLs for
	// protected assets.
	URLExpirySeconds int

	// MaxRenameCandidates bounds the rename conflict policy.
	MaxRenameCandidates int
}

type MinioConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

type GCSConfig struct {
	Bucket          string
	ProjectID       string
	CredentialsFile string
}

type DatabaseConfig struct {
	// CatalogEnabled turns the Postgres asset catalog on or off. With
	// the catalog off, listing is unavailable but every storage
	// operation still works against the object store alone.
	CatalogEnabled bool

	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	UseSSL   bool
}

// EventsConfig selects the asset-event broker.
type EventsConfig struct {
	// Backend is one of "rabbitmq", "pubsub", or "none".
	Backend string

	// Channel is the queue/topic asset events are published to.
	Channel string
}

type RabbitMQConfig struct {
	URL             string
	QueueDurable    bool
	QueueAutoDelete bool
	PrefetchCount   int
}

type PubSubConfig struct {
	ProjectID          string
	CredentialsFile    string
	SubscriptionSuffix string
}

// AuthConfig carries the API authentication settings. APIKeyHash is the
// bcrypt hash of the API key that may be exchanged for JWTs.
type AuthConfig struct {
	JWTSecret  string
	APIKeyHash string
}

func LoadConfig() Config {
	if os.Getenv("ENV") == "dev" {
		godotenv.Load()
	}

	return Config{
		ServerPort: getEnvInt("SERVER_PORT", 8080),
		Storage: StorageConfig{
			Backend:             getEnv("STORAGE_BACKEND", "minio"),
			URLExpirySeconds:    getEnvInt("STORAGE_URL_EXPIRY_SECONDS", 900),
			MaxRenameCandidates: getEnvInt("STORAGE_MAX_RENAME_CANDIDATES", 100),
		},
		Minio: MinioConfig{
			Endpoint:  getEnv("MINIO_ENDPOINT", "localhost:9000"),
			AccessKey: getEnv("MINIO_ACCESS_KEY", ""),
			SecretKey: getEnv("MINIO_SECRET_KEY", ""),
			Bucket:    getEnv("MINIO_BUCKET", "assets"),
			UseSSL:    getEnvBool("MINIO_USE_SSL", false),
		},
		GCS: GCSConfig{
			Bucket:          getEnv("GCS_BUCKET", ""),
			ProjectID:       getEnv("GCS_PROJECT_ID", ""),
			CredentialsFile: getEnv("GCS_CREDENTIALS_FILE", ""),
		},
		Database: DatabaseConfig{
			CatalogEnabled: getEnvBool("DB_CATALOG_ENABLED", true),
			Host:           getEnv("DB_HOST", "localhost"),
			Port:           getEnvInt("DB_PORT", 5432),
			User:           getEnv("DB_USER", "assetstore"),
			Password:       getEnv("DB_PASSWORD", "password"),
			DBName:         getEnv("DB_NAME", "assetstore_db"),
			UseSSL:         getEnvBool("DB_USE_SSL", false),
		},
		Events: EventsConfig{
			Backend: getEnv("EVENTS_BACKEND", "none"),
			Channel: getEnv("EVENTS_CHANNEL", "asset-events"),
		},
		RabbitMQ: RabbitMQConfig{
			URL:             getEnv("RABBITMQ_URL", ""),
			QueueDurable:    getEnvBool("RABBITMQ_QUEUE_DURABLE", true),
			QueueAutoDelete: getEnvBool("RABBITMQ_QUEUE_AUTO_DELETE", false),
			PrefetchCount:   getEnvInt("RABBITMQ_PREFETCH_COUNT", 0),
		},
		PubSub: PubSubConfig{
			ProjectID:          getEnv("PUBSUB_PROJECT_ID", ""),
			CredentialsFile:    getEnv("PUBSUB_CREDENTIALS_FILE", ""),
			SubscriptionSuffix: getEnv("PUBSUB_SUBSCRIPTION_SUFFIX", "-sub"),
		},
		Auth: AuthConfig{
			JWTSecret:  getEnv("JWT_SECRET", ""),
			APIKeyHash: getEnv("API_KEY_HASH", ""),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if valueStr, exists := os.LookupEnv(key); exists {
		var value int
		fmt.Sscanf(valueStr, "%d", &value)
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if valueStr, exists := os.LookupEnv(key); exists {
		return valueStr == "1" || valueStr == "true" || valueStr == "yes"
	}
	return defaultValue
}
