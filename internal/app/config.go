package app

import (
	"strings"
	"time"

	"github.com/heraerp/platform/internal/platform/envutil"
)

type Config struct {
	Port             string
	LogMode          string
	ServiceName      string
	Environment      string
	Version          string
	AllowOrigins     []string
	RedisAddr        string
	SchemaCacheTTL   time.Duration
	PostingRulesPath string
}

func LoadConfig() Config {
	return Config{
		Port:             envutil.String("PORT", "8080"),
		LogMode:          envutil.String("LOG_MODE", "development"),
		ServiceName:      envutil.String("SERVICE_NAME", "hera-platform"),
		Environment:      envutil.String("ENVIRONMENT", "development"),
		Version:          envutil.String("SERVICE_VERSION", "dev"),
		AllowOrigins:     splitOrigins(envutil.String("CORS_ALLOW_ORIGINS", "")),
		RedisAddr:        envutil.String("REDIS_ADDR", ""),
		SchemaCacheTTL:   envutil.Duration("SCHEMA_CACHE_TTL", 5*time.Minute),
		PostingRulesPath: envutil.String("POSTING_RULES_PATH", ""),
	}
}

func splitOrigins(raw string) []string {
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
