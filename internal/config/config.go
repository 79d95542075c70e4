package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Port         string
	GinMode      string
	LogMode      string
	LogRedaction bool

	RemoteBaseURL string
	RemoteTimeout time.Duration

	// NumQuestions is sent with every generation request.
	NumQuestions int

	WorkspaceTTL time.Duration
	JWTSecret    string

	CORSOrigins []string

	PreviewMaxWidth  int
	// PreviewMaxPixels caps width*height of an upload, checked from the header before decoding.
	PreviewMaxPixels int
	UploadMaxBytes   int64

	Otel OtelConfig
}

type OtelConfig struct {
	Enabled     bool
	ServiceName string
	Environment string
	Endpoint    string
	Insecure    bool
	SampleRatio float64
	OTLPHeaders map[string]string
}

var ErrMissingJWTSecret = errors.New("JWT_SECRET is required")

func FromEnv() (Config, error) {
	cfg := Config{
		Port:             getEnvWithDefault("PORT", "8080"),
		GinMode:          getEnvWithDefault("GIN_MODE", "debug"),
		LogMode:          getEnvWithDefault("LOG_MODE", "dev"),
		LogRedaction:     envBool("LOG_REDACTION_ENABLED", true),
		RemoteBaseURL:    strings.TrimRight(getEnvWithDefault("REMOTE_BASE_URL", "http://localhost:8000"), "/"),
		RemoteTimeout:    envDuration("REMOTE_TIMEOUT", 90*time.Second),
		NumQuestions:     envInt("NUM_QUESTIONS", 18),
		WorkspaceTTL:     envDuration("WORKSPACE_TTL", 2*time.Hour),
		JWTSecret:        strings.TrimSpace(os.Getenv("JWT_SECRET")),
		CORSOrigins:      csvOr("CORS_ORIGINS", "http://localhost:3000,http://127.0.0.1:3000"),
		PreviewMaxWidth:  envInt("PREVIEW_MAX_WIDTH", 480),
		PreviewMaxPixels: envInt("PREVIEW_MAX_PIXELS", 40_000_000),
		UploadMaxBytes:   int64(envInt("UPLOAD_MAX_BYTES", 10<<20)),
		Otel: OtelConfig{
			Enabled:     envBool("OTEL_ENABLED", false),
			ServiceName: getEnvWithDefault("OTEL_SERVICE_NAME", "socrat-gateway"),
			Environment: getEnvWithDefault("APP_ENV", "local"),
			Endpoint:    strings.TrimSpace(os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")),
			Insecure:    envBool("OTEL_EXPORTER_OTLP_INSECURE", false),
			SampleRatio: envRatio("OTEL_SAMPLER_RATIO", 0.1),
			OTLPHeaders: headersFromEnv("OTEL_EXPORTER_OTLP_HEADERS"),
		},
	}
	if cfg.JWTSecret == "" {
		return cfg, ErrMissingJWTSecret
	}
	if cfg.NumQuestions < 1 {
		cfg.NumQuestions = 18
	}
	return cfg, nil
}

func getEnvWithDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func envInt(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}

func envBool(key string, def bool) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(key))) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return def
	}
}

// envDuration accepts Go durations ("90s") or a bare number of seconds.
func envDuration(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	if d, err := time.ParseDuration(v); err == nil && d > 0 {
		return d
	}
	if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	return def
}

func envRatio(key string, def float64) float64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}

func csvOr(key, def string) []string {
	raw := getEnvWithDefault(key, def)
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func headersFromEnv(key string) map[string]string {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return nil
	}
	headers := map[string]string{}
	for _, part := range strings.Split(raw, ",") {
		kv := strings.SplitN(strings.TrimSpace(part), "=", 2)
		if len(kv) != 2 {
			continue
		}
		k, v := strings.TrimSpace(kv[0]), strings.TrimSpace(kv[1])
		if k == "" || v == "" {
			continue
		}
		headers[k] = v
	}
	if len(headers) == 0 {
		return nil
	}
	return headers
}
