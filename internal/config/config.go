package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App          AppConfig
	Database     DatabaseConfig
	Store        StoreConfig
	Auth         AuthConfig
	Sentry       SentryConfig
	Polling      PollingConfig
	Predictor    PredictorConfig
	Fallback     FallbackConfig
	Orchestrator OrchestratorConfig
}

type AppConfig struct {
	Port               string
	Environment        string
	LogFilePath        string
	NotificationLog    string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
}

type DatabaseConfig struct {
	Connection string
}

// StoreConfig selects the key/value backend: "redis", "postgres" or "memory".
type StoreConfig struct {
	Driver    string
	KeyPrefix string
}

type AuthConfig struct {
	JWTSecret string
}

// SentryConfig holds the prediction heuristic thresholds.
type SentryConfig struct {
	MinSamples           int
	TrendWindow          int
	RemoteWindow         int
	HistoryCapacity      int
	PredictionThreshold  float64
	LowDownlinkMbps      float64
	CriticalDownlinkMbps float64
	HorizonSeconds       int
}

type PollingConfig struct {
	HighSpeedThresholdKmh float64
	FastInterval          time.Duration
	NormalInterval        time.Duration
	ProbeURL              string
}

type PredictorConfig struct {
	BaseURL        string
	Timeout        time.Duration
	HealthInterval time.Duration
}

type FallbackConfig struct {
	ProducerURL     string
	ProducerTimeout time.Duration
	S3Bucket        string
	S3Prefix        string
	S3Region        string
	S3Endpoint      string
	S3UsePathStyle  bool
}

type OrchestratorConfig struct {
	HistoryFlushInterval time.Duration
	PrewarmTimeout       time.Duration
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "8000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "logs/app.log"),
			NotificationLog:    getEnv("NOTIFICATION_LOG_FILE_PATH", "logs/notification.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000,chrome-extension://*"),
			NatsURL:            getEnv("NATS_URL", ""),
			RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379"),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		Store: StoreConfig{
			Driver:    strings.ToLower(getEnv("STORE_DRIVER", "redis")),
			KeyPrefix: getEnv("STORE_KEY_PREFIX", "sanchar:"),
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("JWT_SECRET", ""),
		},
		Sentry: SentryConfig{
			MinSamples:           getEnvAsInt("SENTRY_MIN_SAMPLES", 10),
			TrendWindow:          getEnvAsInt("SENTRY_TREND_WINDOW", 10),
			RemoteWindow:         getEnvAsInt("SENTRY_REMOTE_WINDOW", 20),
			HistoryCapacity:      getEnvAsInt("SENTRY_HISTORY_CAPACITY", 300),
			PredictionThreshold:  getEnvAsFloat("PREDICTION_THRESHOLD", 0.75),
			LowDownlinkMbps:      getEnvAsFloat("LOW_DOWNLINK_MBPS", 0.5),
			CriticalDownlinkMbps: getEnvAsFloat("CRITICAL_DOWNLINK_MBPS", 0.15),
			HorizonSeconds:       getEnvAsInt("PREDICTION_HORIZON_SECONDS", 5),
		},
		Polling: PollingConfig{
			HighSpeedThresholdKmh: getEnvAsFloat("HIGH_SPEED_THRESHOLD_KMH", 60),
			FastInterval:          getEnvAsDuration("POLLING_FAST_INTERVAL", 500*time.Millisecond),
			NormalInterval:        getEnvAsDuration("POLLING_NORMAL_INTERVAL", time.Second),
			ProbeURL:              getEnv("TELEMETRY_PROBE_URL", ""),
		},
		Predictor: PredictorConfig{
			BaseURL:        getEnv("PREDICTOR_BASE_URL", ""),
			Timeout:        getEnvAsDuration("PREDICTOR_TIMEOUT", 2*time.Second),
			HealthInterval: getEnvAsDuration("PREDICTOR_HEALTH_INTERVAL", 5*time.Minute),
		},
		Fallback: FallbackConfig{
			ProducerURL:     getEnv("FALLBACK_PRODUCER_URL", "http://localhost:8100"),
			ProducerTimeout: getEnvAsDuration("FALLBACK_PRODUCER_TIMEOUT", 30*time.Second),
			S3Bucket:        getEnv("S3_BUCKET_NAME", ""),
			S3Prefix:        getEnv("S3_CACHE_PREFIX", "cache/"),
			S3Region:        getEnv("AWS_REGION", ""),
			S3Endpoint:      getEnv("S3_ENDPOINT", ""),
			S3UsePathStyle:  getEnvAsBool("S3_USE_PATH_STYLE", false),
		},
		Orchestrator: OrchestratorConfig{
			HistoryFlushInterval: getEnvAsDuration("HISTORY_FLUSH_INTERVAL", 10*time.Second),
			PrewarmTimeout:       getEnvAsDuration("PREWARM_TIMEOUT", 60*time.Second),
		},
	}
}

// IsProduction reports whether GO_ENV is "production".
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsFloat(key string, fallback float64) float64 {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseFloat(strValue, 64); err == nil {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseBool(strValue); err == nil {
		return value
	}
	return fallback
}

// getEnvAsDuration accepts Go duration strings ("500ms", "5m").
func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	strValue := getEnv(key, "")
	if value, err := time.ParseDuration(strValue); err == nil {
		return value
	}
	return fallback
}
