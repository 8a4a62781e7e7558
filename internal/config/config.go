package config

import (
	"os"
	"strconv"
	"strings"
)

// Config holds runtime configuration loaded from environment variables.
type Config struct {
	Port                 string
	DatabaseURL          string
	MigrationsDir        string
	DataDir              string
	UploadDir            string
	JWTSecret            string
	JWTIssuer            string
	AdminTokenTTLSeconds int64
	OCREndpoint          string
	OCRTimeoutSeconds    int
	MetricsSampleSeconds int
	MetricsHistorySize   int
	CorsOrigins          []string
}

func Load() Config {
	return Config{
		Port:                 envOr("PORT", "5000"),
		DatabaseURL:          envOr("DATABASE_URL", ""),
		MigrationsDir:        envOr("MIGRATIONS_DIR", "migrations"),
		DataDir:              envOr("DATA_DIR", "storage/data"),
		UploadDir:            envOr("UPLOAD_DIR", "storage/uploads"),
		JWTSecret:            envOr("JWT_SECRET", ""),
		JWTIssuer:            envOr("JWT_ISSUER", "studyshare"),
		AdminTokenTTLSeconds: int64(envOrInt("ADMIN_TOKEN_TTL_SECONDS", 43200)),
		OCREndpoint:          envOr("OCR_ENDPOINT", ""),
		OCRTimeoutSeconds:    envOrInt("OCR_TIMEOUT_SECONDS", 60),
		MetricsSampleSeconds: envOrInt("METRICS_SAMPLE_INTERVAL", 5),
		MetricsHistorySize:   envOrInt("METRICS_HISTORY_SIZE", 720),
		CorsOrigins:          parseCSV(envOr("CORS_ORIGINS", "")),
	}
}

func envOr(key, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

func envOrInt(key string, fallback int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func parseCSV(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	items := make([]string, 0, len(parts))
	for _, part := range parts {
		value := strings.TrimSpace(part)
		if value != "" {
			items = append(items, value)
		}
	}
	return items
}
