package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// AppConfig holds all configuration for the application
type AppConfig struct {
	DatabaseURL     string
	KafkaBrokers    []string
	ImportTopic     string
	WelcomeTopic    string
	ConsumerGroupID string

	HTTPAddr       string
	MaxUploadBytes int64

	UploadDir           string
	UploadRetention     time.Duration
	CronSpecUploadSweep string

	ImportChunkSize int

	SMTPAddr     string // host:port of the mail submission endpoint
	SMTPFrom     string
	SMTPUsername string
	SMTPPassword string

	TelegramToken string // optional: ops alerts disabled when empty
	OpsChatID     int64

	LogLevel    string
	Environment string
}

// Load reads configuration from environment variables and .env file (if present).
func Load() (*AppConfig, error) {
	// Attempt to load .env file. Errors are ignored if the file doesn't exist.
	// godotenv.Load will not override existing env variables.
	_ = godotenv.Load()

	cfg := &AppConfig{}

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is not set")
	}

	brokers := os.Getenv("KAFKA_BROKERS")
	if brokers == "" {
		return nil, fmt.Errorf("KAFKA_BROKERS is not set")
	}
	for _, b := range strings.Split(brokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			cfg.KafkaBrokers = append(cfg.KafkaBrokers, b)
		}
	}
	if len(cfg.KafkaBrokers) == 0 {
		return nil, fmt.Errorf("KAFKA_BROKERS contains no usable broker address")
	}

	cfg.ImportTopic = os.Getenv("KAFKA_IMPORT_TOPIC")
	if cfg.ImportTopic == "" {
		cfg.ImportTopic = "user-imports"
	}
	cfg.WelcomeTopic = os.Getenv("KAFKA_WELCOME_TOPIC")
	if cfg.WelcomeTopic == "" {
		cfg.WelcomeTopic = "welcome-emails"
	}
	cfg.ConsumerGroupID = os.Getenv("KAFKA_GROUP_ID")
	if cfg.ConsumerGroupID == "" {
		cfg.ConsumerGroupID = "school-backend"
	}

	cfg.HTTPAddr = os.Getenv("HTTP_ADDR")
	if cfg.HTTPAddr == "" {
		cfg.HTTPAddr = ":8080"
	}

	maxUploadStr := os.Getenv("MAX_UPLOAD_BYTES")
	if maxUploadStr == "" {
		cfg.MaxUploadBytes = 5 << 20 // 5 MiB
	} else {
		v, err := strconv.ParseInt(maxUploadStr, 10, 64)
		if err != nil || v <= 0 {
			return nil, fmt.Errorf("invalid MAX_UPLOAD_BYTES: %q", maxUploadStr)
		}
		cfg.MaxUploadBytes = v
	}

	cfg.UploadDir = os.Getenv("UPLOAD_DIR")
	if cfg.UploadDir == "" {
		cfg.UploadDir = "./uploads"
	}

	retentionStr := os.Getenv("UPLOAD_RETENTION_HOURS")
	if retentionStr == "" {
		cfg.UploadRetention = 24 * time.Hour
	} else {
		hours, err := strconv.Atoi(retentionStr)
		if err != nil || hours <= 0 {
			return nil, fmt.Errorf("invalid UPLOAD_RETENTION_HOURS: %q", retentionStr)
		}
		cfg.UploadRetention = time.Duration(hours) * time.Hour
	}

	cfg.CronSpecUploadSweep = os.Getenv("CRON_SPEC_UPLOAD_SWEEP")
	if cfg.CronSpecUploadSweep == "" {
		cfg.CronSpecUploadSweep = "0 * * * *" // Default: hourly
	}

	chunkStr := os.Getenv("IMPORT_CHUNK_SIZE")
	if chunkStr == "" {
		cfg.ImportChunkSize = 500
	} else {
		v, err := strconv.Atoi(chunkStr)
		if err != nil || v <= 0 {
			return nil, fmt.Errorf("invalid IMPORT_CHUNK_SIZE: %q", chunkStr)
		}
		cfg.ImportChunkSize = v
	}

	cfg.SMTPAddr = os.Getenv("SMTP_ADDR")
	if cfg.SMTPAddr == "" {
		return nil, fmt.Errorf("SMTP_ADDR is not set")
	}
	cfg.SMTPFrom = os.Getenv("SMTP_FROM")
	if cfg.SMTPFrom == "" {
		return nil, fmt.Errorf("SMTP_FROM is not set")
	}
	cfg.SMTPUsername = os.Getenv("SMTP_USERNAME")
	cfg.SMTPPassword = os.Getenv("SMTP_PASSWORD")

	cfg.TelegramToken = os.Getenv("TELEGRAM_TOKEN")
	opsChatStr := os.Getenv("OPS_TELEGRAM_CHAT_ID")
	if opsChatStr != "" {
		var err error
		cfg.OpsChatID, err = strconv.ParseInt(opsChatStr, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid OPS_TELEGRAM_CHAT_ID: %w", err)
		}
	}
	if cfg.TelegramToken != "" && cfg.OpsChatID == 0 {
		return nil, fmt.Errorf("OPS_TELEGRAM_CHAT_ID is required when TELEGRAM_TOKEN is set")
	}

	cfg.LogLevel = strings.ToLower(os.Getenv("LOG_LEVEL"))
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info" // Default log level
	}

	cfg.Environment = strings.ToLower(os.Getenv("ENVIRONMENT"))
	if cfg.Environment == "" {
		cfg.Environment = "development" // Default environment
	}

	return cfg, nil
}
