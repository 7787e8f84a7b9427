package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	defaultJWTSecret    = "change-me-jwt-secret"
	defaultJWTAccessTTL = 30 * time.Minute
	defaultDatabaseURL  = "meetingrooms.db"
)

type Config struct {
	App      AppConfig      `koanf:"app"`
	HTTP     HTTPConfig     `koanf:"http"`
	Database DatabaseConfig `koanf:"database"`
	Auth     AuthConfig     `koanf:"auth"`
	Redis    RedisConfig    `koanf:"redis"`
	Kafka    KafkaConfig    `koanf:"kafka"`
	Tracing  TracingConfig  `koanf:"tracing"`
	Log      LogConfig      `koanf:"log"`
}

type AppConfig struct {
	Name string `koanf:"name"`
	Env  string `koanf:"env"`
}

type HTTPConfig struct {
	Addr            string        `koanf:"addr"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	AllowedOrigins  []string      `koanf:"allowed_origins"`
}

type DatabaseConfig struct {
	URL             string        `koanf:"url"`
	MaxOpenConns    int           `koanf:"max_open_conns"`
	MaxIdleConns    int           `koanf:"max_idle_conns"`
	ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime"`
	SlowThreshold   time.Duration `koanf:"slow_threshold"`
	AutoMigrate     bool          `koanf:"auto_migrate"`
}

type AuthConfig struct {
	JWTSecret    string        `koanf:"jwt_secret"`
	JWTAccessTTL time.Duration `koanf:"jwt_access_ttl"`
}

// RedisConfig enables the distributed room lock when Addr is set.
type RedisConfig struct {
	Addr      string        `koanf:"addr"`
	Password  string        `koanf:"password"`
	DB        int           `koanf:"db"`
	KeyPrefix string        `koanf:"key_prefix"`
	LockTTL   time.Duration `koanf:"lock_ttl"`
	LockRetry time.Duration `koanf:"lock_retry"`
}

// KafkaConfig enables reservation event publishing when Brokers is set.
type KafkaConfig struct {
	Brokers      []string      `koanf:"brokers"`
	Topic        string        `koanf:"topic"`
	BatchTimeout time.Duration `koanf:"batch_timeout"`
}

type TracingConfig struct {
	Endpoint    string  `koanf:"endpoint"`
	SampleRatio float64 `koanf:"sample_ratio"`
}

type LogConfig struct {
	Level    string `koanf:"level"`
	Encoding string `koanf:"encoding"`
}

// Load reads the YAML file at path (optional), fills defaults, applies
// environment overrides and validates the result.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	}

	applyDefaults(k)
	if err := applyEnvOverrides(k); err != nil {
		return nil, err
	}

	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.App.Env = strings.ToLower(strings.TrimSpace(cfg.App.Env))
	cfg.Auth.JWTSecret = strings.TrimSpace(cfg.Auth.JWTSecret)

	if err := validateConfig(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ResolvePath picks the config file: the explicit flag value, then
// MEETINGROOMS_CONFIG, then the first existing well-known location. An empty
// result means defaults and environment only.
func ResolvePath(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if p := getEnv("MEETINGROOMS_CONFIG", ""); p != "" {
		return p
	}
	for _, p := range []string{"./config.yaml", "./config.yml", "/etc/meetingrooms/config.yaml"} {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

func (c *Config) IsProduction() bool {
	return isProdLike(c.App.Env)
}

func applyDefaults(k *koanf.Koanf) {
	setDefault(k, "app.name", "meetingrooms-api")
	setDefault(k, "app.env", "dev")

	setDefault(k, "http.addr", ":8080")
	setDefault(k, "http.read_timeout", 10*time.Second)
	setDefault(k, "http.write_timeout", 30*time.Second)
	setDefault(k, "http.shutdown_timeout", 15*time.Second)
	setDefault(k, "http.allowed_origins", []string{"http://localhost:3000", "http://localhost:5173"})

	setDefault(k, "database.url", defaultDatabaseURL)
	setDefault(k, "database.max_open_conns", 25)
	setDefault(k, "database.max_idle_conns", 5)
	setDefault(k, "database.conn_max_lifetime", 30*time.Minute)
	setDefault(k, "database.slow_threshold", 200*time.Millisecond)
	setDefault(k, "database.auto_migrate", true)

	setDefault(k, "auth.jwt_secret", defaultJWTSecret)
	setDefault(k, "auth.jwt_access_ttl", defaultJWTAccessTTL)

	setDefault(k, "redis.key_prefix", "meetingrooms:")
	setDefault(k, "redis.lock_ttl", 10*time.Second)
	setDefault(k, "redis.lock_retry", 50*time.Millisecond)

	setDefault(k, "kafka.topic", "reservations")
	setDefault(k, "kafka.batch_timeout", 10*time.Millisecond)

	setDefault(k, "tracing.sample_ratio", 1.0)

	setDefault(k, "log.level", "info")
	setDefault(k, "log.encoding", "json")
}

func applyEnvOverrides(k *koanf.Koanf) error {
	strs := map[string]string{
		"APP_ENV":        "app.env",
		"HTTP_ADDR":      "http.addr",
		"DATABASE_URL":   "database.url",
		"JWT_SECRET":     "auth.jwt_secret",
		"REDIS_ADDR":     "redis.addr",
		"REDIS_PASSWORD": "redis.password",
		"KAFKA_TOPIC":    "kafka.topic",
		"OTEL_ENDPOINT":  "tracing.endpoint",
		"LOG_LEVEL":      "log.level",
		"LOG_ENCODING":   "log.encoding",
	}
	for env, key := range strs {
		if v := strings.TrimSpace(getEnv(env, "")); v != "" {
			k.Set(key, v)
		}
	}

	durations := map[string]string{
		"HTTP_READ_TIMEOUT":  "http.read_timeout",
		"HTTP_WRITE_TIMEOUT": "http.write_timeout",
		"JWT_ACCESS_TTL":     "auth.jwt_access_ttl",
		"REDIS_LOCK_TTL":     "redis.lock_ttl",
	}
	for env, key := range durations {
		if getEnv(env, "") == "" {
			continue
		}
		d, err := parseDurationEnv(env, "")
		if err != nil {
			return err
		}
		k.Set(key, d)
	}

	if v := getEnv("CORS_ALLOWED_ORIGINS", ""); v != "" {
		k.Set("http.allowed_origins", splitList(v))
	}
	if v := getEnv("KAFKA_BROKERS", ""); v != "" {
		k.Set("kafka.brokers", splitList(v))
	}
	if v := getEnv("REDIS_DB", ""); v != "" {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("invalid REDIS_DB value %q: %w", v, err)
		}
		k.Set("redis.db", n)
	}
	if v := getEnv("DATABASE_AUTO_MIGRATE", ""); v != "" {
		k.Set("database.auto_migrate", parseBoolEnv("DATABASE_AUTO_MIGRATE", "true"))
	}
	return nil
}

func validateConfig(cfg *Config) error {
	if cfg.HTTP.Addr == "" {
		return fmt.Errorf("http.addr must not be empty")
	}
	if cfg.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL must not be empty")
	}
	if cfg.Auth.JWTAccessTTL <= 0 {
		return fmt.Errorf("JWT_ACCESS_TTL must be > 0")
	}
	if cfg.Redis.Addr != "" && cfg.Redis.LockTTL <= 0 {
		return fmt.Errorf("REDIS_LOCK_TTL must be > 0")
	}
	if len(cfg.Kafka.Brokers) > 0 && cfg.Kafka.Topic == "" {
		return fmt.Errorf("KAFKA_TOPIC must be set when KAFKA_BROKERS is set")
	}
	if cfg.Tracing.SampleRatio < 0 || cfg.Tracing.SampleRatio > 1 {
		return fmt.Errorf("tracing.sample_ratio must be within [0, 1]")
	}

	if isProdLike(cfg.App.Env) {
		if isEmptyOrDefault(cfg.Auth.JWTSecret, defaultJWTSecret) {
			return fmt.Errorf("in prod/release JWT_SECRET must be set and not default")
		}
		if cfg.Database.URL == defaultDatabaseURL {
			return fmt.Errorf("in prod/release DATABASE_URL must be set")
		}
	}

	return nil
}

// setDefault only sets the value if the key doesn't already exist
func setDefault(k *koanf.Koanf, key string, value any) {
	if !k.Exists(key) {
		k.Set(key, value)
	}
}

func isProdLike(env string) bool {
	env = strings.ToLower(strings.TrimSpace(env))
	return env == "prod" || env == "production" || env == "release"
}

func isEmptyOrDefault(v, def string) bool {
	trimmed := strings.TrimSpace(v)
	return trimmed == "" || trimmed == def
}

func parseDurationEnv(name, fallback string) (time.Duration, error) {
	value := strings.TrimSpace(getEnv(name, fallback))
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", name, value, err)
	}
	return d, nil
}

func parseBoolEnv(name, fallback string) bool {
	value := strings.ToLower(strings.TrimSpace(getEnv(name, fallback)))
	return value == "1" || value == "true" || value == "yes" || value == "on"
}

func splitList(v string) []string {
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func getEnv(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}
