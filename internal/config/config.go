package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// localJWTSecret signs session tokens when running locally without a configured secret.
const localJWTSecret = "local-dev-secret"

// Config holds every environment-driven setting of the api and worker binaries.
type Config struct {
	Port     string
	RunLocal bool

	AWSRegion        string
	EndpointOverride string
	StorageTable     string // empty -> in-memory storage
	SessionID        string
	HistorySessionID string // partition the worker projects order history into
	QueueURL         string // empty -> order events are not published
	MetricsNamespace string // empty -> no CloudWatch metrics

	FeeSchedule      string
	PreparingDelay   time.Duration
	AutoDeliverAfter time.Duration // 0 -> delivery is only marked externally

	PaymentTicks int
	PaymentTick  time.Duration

	JWTSecret    string
	MerchantVPA  string
	MerchantName string
}

// Load reads the api configuration from the environment. Outside RUN_LOCAL a session signing
// secret is required.
func Load() (*Config, error) {
	cfg, err := load()
	if err != nil {
		return nil, err
	}
	if cfg.JWTSecret == "" {
		if !cfg.RunLocal {
			return nil, errors.New("JWT_SECRET or JWT_SECRET_FILE is required outside RUN_LOCAL")
		}
		cfg.JWTSecret = localJWTSecret
	}
	return cfg, nil
}

// LoadWorker reads the configuration of the history worker, which never signs tokens.
func LoadWorker() (*Config, error) {
	return load()
}

func load() (*Config, error) {
	cfg := &Config{
		Port:             getEnv("PORT", ":8080"),
		RunLocal:         getEnv("RUN_LOCAL", "") == "true",
		AWSRegion:        getEnv("AWS_REGION", "us-east-1"),
		EndpointOverride: getEnv("AWS_ENDPOINT_OVERRIDE", ""),
		StorageTable:     getEnv("STORAGE_TABLE", ""),
		SessionID:        getEnv("SESSION_ID", "default"),
		HistorySessionID: getEnv("HISTORY_SESSION_ID", "restaurant"),
		QueueURL:         getEnv("ORDERS_QUEUE_URL", ""),
		MetricsNamespace: getEnv("METRICS_NAMESPACE", ""),
		FeeSchedule:      getEnv("FEE_SCHEDULE", "dine_in"),
		JWTSecret:        getEnvFromFile("JWT_SECRET_FILE", "JWT_SECRET", ""),
		MerchantVPA:      getEnv("MERCHANT_VPA", "foodieexpress@paytm"),
		MerchantName:     getEnv("MERCHANT_NAME", "FoodieExpress"),
	}

	var err error
	if cfg.PreparingDelay, err = getDuration("PREPARING_DELAY", 2*time.Second); err != nil {
		return nil, err
	}
	if cfg.AutoDeliverAfter, err = getDuration("AUTO_DELIVER_AFTER", 0); err != nil {
		return nil, err
	}
	if cfg.PaymentTick, err = getDuration("PAYMENT_TICK", time.Second); err != nil {
		return nil, err
	}
	if cfg.PaymentTicks, err = getInt("PAYMENT_TICKS", 5); err != nil {
		return nil, err
	}
	if cfg.PaymentTicks < 0 {
		return nil, fmt.Errorf("PAYMENT_TICKS must not be negative, got %d", cfg.PaymentTicks)
	}
	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvFromFile(fileKey, envKey, defaultValue string) string {
	if filePath := os.Getenv(fileKey); filePath != "" {
		if content, err := os.ReadFile(filePath); err == nil {
			return strings.TrimSpace(string(content))
		}
	}
	return getEnv(envKey, defaultValue)
}

func getDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return d, nil
}

func getInt(key string, defaultValue int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return n, nil
}
