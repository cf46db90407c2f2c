package config

import (
	"fmt"
	"os"
	"strings"
)

type Config struct {
	ListenAddr                 string
	Environment                string
	CORSAllowedOrigins         []string
	DatabaseURL                string
	RedisAddr                  string
	TransitionStreamName       string
	TransitionStreamMaxLen     int64
	StreamTrimIntervalMinutes  int
	GeminiAPIKey               string
	GeminiTextModel            string
	GeminiImageModel           string
	GeminiVideoModel           string
	GeminiRequestTimeoutSec    int
	VideoPollIntervalSeconds   int
	VideoPollTimeoutMinutes    int
	HealthProbeIntervalSeconds int
	StageDelayMillis           int
	OutageWebhookURL           string
	OutageWebhookAuthHeader    string
	OutageWebhookCooldownMin   int
	AssetTokenSecret           string
	AssetTokenTTLSeconds       int
	LoginEmail                 string
	LoginPassword              string
	RateLimitRequestsPerSec    float64
	RateLimitBurst             int
	S3Region                   string
	S3Endpoint                 string
	S3AccessKey                string
	S3SecretKey                string
	S3Bucket                   string
}

func Load() Config {
	port := envOrDefault("ORCHESTRATOR_PORT", "8080")

	return Config{
		ListenAddr:                 ":" + port,
		Environment:                envOrDefault("ENVIRONMENT", "development"),
		CORSAllowedOrigins:         parseCSV(envOrDefault("CORS_ALLOWED_ORIGINS", "*")),
		DatabaseURL:                os.Getenv("DATABASE_URL"),
		RedisAddr:                  redisAddr(),
		TransitionStreamName:       envOrDefault("TRANSITION_STREAM_NAME", "state-transitions"),
		TransitionStreamMaxLen:     int64(envOrDefaultInt("TRANSITION_STREAM_MAX_LEN", 10000)),
		StreamTrimIntervalMinutes:  envOrDefaultInt("STREAM_TRIM_INTERVAL_MINUTES", 0),
		GeminiAPIKey:               os.Getenv("GEMINI_API_KEY"),
		GeminiTextModel:            envOrDefault("GEMINI_TEXT_MODEL", "gemini-2.5-flash"),
		GeminiImageModel:           envOrDefault("GEMINI_IMAGE_MODEL", "imagen-4.0-generate-001"),
		GeminiVideoModel:           envOrDefault("GEMINI_VIDEO_MODEL", "veo-2.0-generate-001"),
		GeminiRequestTimeoutSec:    envOrDefaultInt("GEMINI_REQUEST_TIMEOUT_SECONDS", 120),
		VideoPollIntervalSeconds:   envOrDefaultInt("VIDEO_POLL_INTERVAL_SECONDS", 10),
		VideoPollTimeoutMinutes:    envOrDefaultInt("VIDEO_POLL_TIMEOUT_MINUTES", 15),
		HealthProbeIntervalSeconds: envOrDefaultInt("HEALTH_PROBE_INTERVAL_SECONDS", 60),
		StageDelayMillis:           envOrDefaultInt("STAGE_DELAY_MILLIS", 1500),
		OutageWebhookURL:           os.Getenv("OUTAGE_WEBHOOK_URL"),
		OutageWebhookAuthHeader:    os.Getenv("OUTAGE_WEBHOOK_AUTH_HEADER"),
		OutageWebhookCooldownMin:   envOrDefaultInt("OUTAGE_WEBHOOK_COOLDOWN_MINUTES", 10),
		AssetTokenSecret:           assetTokenSecret(),
		AssetTokenTTLSeconds:       envOrDefaultInt("ASSET_TOKEN_TTL_SECONDS", 3600),
		LoginEmail:                 envOrDefault("LOGIN_EMAIL", "admin@example.com"),
		LoginPassword:              envOrDefault("LOGIN_PASSWORD", "password"),
		RateLimitRequestsPerSec:    envOrDefaultFloat("RATE_LIMIT_REQUESTS_PER_SEC", 25),
		RateLimitBurst:             envOrDefaultInt("RATE_LIMIT_BURST", 50),
		S3Region:                   envOrDefault("S3_REGION", "us-east-1"),
		S3Endpoint:                 os.Getenv("S3_ENDPOINT"),
		S3AccessKey:                envOrDefault("S3_ACCESS_KEY", ""),
		S3SecretKey:                envOrDefault("S3_SECRET_KEY", ""),
		S3Bucket:                   envOrDefault("S3_BUCKET", ""),
	}
}

func assetTokenSecret() string {
	if value := strings.TrimSpace(os.Getenv("ASSET_TOKEN_SECRET")); value != "" {
		return value
	}
	return strings.TrimSpace(os.Getenv("GEMINI_API_KEY"))
}

func redisAddr() string {
	host := envOrDefault("REDIS_HOST", "localhost")
	port := envOrDefault("REDIS_PORT", "6379")
	return fmt.Sprintf("%s:%s", host, port)
}

func envOrDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func parseCSV(value string) []string {
	values := strings.Split(value, ",")
	result := make([]string, 0, len(values))
	for _, item := range values {
		trimmed := strings.TrimSpace(item)
		if trimmed == "" {
			continue
		}
		result = append(result, trimmed)
	}

	if len(result) == 0 {
		return []string{"*"}
	}
	return result
}

func envOrDefaultInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}

	var parsed int
	if _, err := fmt.Sscanf(value, "%d", &parsed); err != nil {
		return fallback
	}
	return parsed
}

func envOrDefaultFloat(key string, fallback float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}

	var parsed float64
	if _, err := fmt.Sscanf(value, "%f", &parsed); err != nil {
		return fallback
	}
	return parsed
}
