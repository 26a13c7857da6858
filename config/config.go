package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port           string
	Env            string
	AllowedOrigins []string
	TrustedProxies []string
	RequestTimeout time.Duration
	MaxBodyBytes   int64

	JWTSecret string
	JWTAud    string
	JWTIss    string

	RedisAddr string
	RedisPass string
	RedisDB   int

	CronKey          string
	SignalExpiryCron string

	// LevelAllowDowngrade lets a re-evaluation store a lower tier than the
	// one on record.
	LevelAllowDowngrade bool
}

// Required lists variables the service cannot start without.
var Required = []string{"DB_HOST", "DB_USER", "DB_PASS", "DB_NAME", "JWT_SECRET"}

// LoadDotEnv copies .env entries into the process environment without
// overwriting variables that are already set.
func LoadDotEnv(filenames ...string) {
	envMap, err := godotenv.Read(filenames...)
	if err != nil {
		return
	}
	for k, v := range envMap {
		if os.Getenv(k) == "" {
			os.Setenv(k, v)
		}
	}
}

func Load() (*Config, error) {
	for _, key := range Required {
		if os.Getenv(key) == "" {
			return nil, fmt.Errorf("required environment variable %s is not set", key)
		}
	}

	cfg := &Config{
		Port:           getEnv("PORT", "8080"),
		Env:            strings.ToLower(getEnv("ENV", "development")),
		AllowedOrigins: getEnvAsSlice("CORS_ALLOWED_ORIGINS", nil),
		TrustedProxies: getEnvAsSlice("TRUSTED_PROXIES", nil),
		RequestTimeout: time.Duration(getEnvAsInt("REQ_TIMEOUT_SEC", 10)) * time.Second,
		MaxBodyBytes:   int64(getEnvAsInt("MAX_BODY_BYTES", 1<<20)),

		JWTSecret: os.Getenv("JWT_SECRET"),
		JWTAud:    getEnv("JWT_AUD", ""),
		JWTIss:    getEnv("JWT_ISS", ""),

		RedisAddr: strings.ReplaceAll(getEnv("REDIS_ADDR", ""), " ", ""),
		RedisPass: getEnv("REDIS_PASS", ""),
		RedisDB:   getEnvAsInt("REDIS_DB", 0),

		CronKey:          getEnv("CRON_KEY", ""),
		SignalExpiryCron: getEnv("SIGNAL_EXPIRY_CRON", "@every 5m"),

		LevelAllowDowngrade: getEnvAsBool("LEVEL_ALLOW_DOWNGRADE", true),
	}
	return cfg, nil
}

func (c *Config) Development() bool { return c.Env == "development" }

func getEnv(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if val, err := strconv.ParseBool(getEnv(key, "")); err == nil {
		return val
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if val, err := strconv.Atoi(getEnv(key, "")); err == nil && val > 0 {
		return val
	}
	return defaultValue
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	val := getEnv(key, "")
	if val == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(val, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
