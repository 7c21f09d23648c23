package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultAddr            = ":8080"
	defaultShutdownTimeout = 5 * time.Second
	defaultAlgorithm       = "RS256"
)

// Config captures the runtime configuration for the application.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Logging  LoggingConfig  `yaml:"logging"`
	Auth     AuthConfig     `yaml:"auth"`
}

// ServerConfig configures the HTTP server runtime behavior.
type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	CORSOrigins     []string      `yaml:"cors_origins"`
}

// DatabaseConfig contains the database connection settings.
type DatabaseConfig struct {
	URL             string        `yaml:"url"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `yaml:"conn_max_idle_time"`
	UseMock         bool          `yaml:"use_mock"`
	Reset           bool          `yaml:"reset"`
}

// LoggingConfig controls the global logger.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// AuthConfig describes the external token issuer.
type AuthConfig struct {
	Domain     string   `yaml:"domain"`
	Audience   string   `yaml:"audience"`
	Issuer     string   `yaml:"issuer"`
	JWKSURL    string   `yaml:"jwks_url"`
	Algorithms []string `yaml:"algorithms"`
}

// Load reads the optional YAML file named by CONFIG_FILE and then applies the
// environment on top of it.
func Load() (Config, error) {
	file, err := loadFile(os.Getenv("CONFIG_FILE"))
	if err != nil {
		return Config{}, err
	}

	cfg := Config{}

	cfg.Server = ServerConfig{
		Addr: firstNonEmpty(
			os.Getenv("SERVER_ADDR"),
			os.Getenv("ADDR"),
			file.Server.Addr,
			defaultAddr,
		),
		ShutdownTimeout: parseDurationWithDefault(
			os.Getenv("SERVER_SHUTDOWN_TIMEOUT"),
			durationOr(file.Server.ShutdownTimeout, defaultShutdownTimeout),
		),
		CORSOrigins: listWithDefault(os.Getenv("CORS_ALLOWED_ORIGINS"), file.Server.CORSOrigins),
	}

	cfg.Database = DatabaseConfig{
		URL: firstNonEmpty(
			os.Getenv("DATABASE_URL"),
			os.Getenv("DB_URL"),
			file.Database.URL,
		),
		MaxIdleConns:    parseIntWithDefault(os.Getenv("DATABASE_MAX_IDLE_CONNS"), file.Database.MaxIdleConns),
		MaxOpenConns:    parseIntWithDefault(os.Getenv("DATABASE_MAX_OPEN_CONNS"), file.Database.MaxOpenConns),
		ConnMaxLifetime: parseDurationWithDefault(os.Getenv("DATABASE_CONN_MAX_LIFETIME"), file.Database.ConnMaxLifetime),
		ConnMaxIdleTime: parseDurationWithDefault(os.Getenv("DATABASE_CONN_MAX_IDLE_TIME"), file.Database.ConnMaxIdleTime),
		UseMock:         parseBoolWithDefault(os.Getenv("DATABASE_USE_MOCK"), file.Database.UseMock),
		Reset:           parseBoolWithDefault(os.Getenv("DATABASE_RESET"), file.Database.Reset),
	}

	cfg.Logging = LoggingConfig{
		Level: firstNonEmpty(os.Getenv("LOG_LEVEL"), file.Logging.Level, "info"),
	}

	domain := normalizeDomain(firstNonEmpty(
		os.Getenv("AUTH0_DOMAIN"),
		os.Getenv("AUTH_DOMAIN"),
		file.Auth.Domain,
	))
	cfg.Auth = AuthConfig{
		Domain: domain,
		Audience: firstNonEmpty(
			os.Getenv("API_AUDIENCE"),
			os.Getenv("AUTH_AUDIENCE"),
			file.Auth.Audience,
		),
		Issuer:     firstNonEmpty(os.Getenv("AUTH_ISSUER"), file.Auth.Issuer, issuerFor(domain)),
		JWKSURL:    firstNonEmpty(os.Getenv("AUTH_JWKS_URL"), file.Auth.JWKSURL, jwksURLFor(domain)),
		Algorithms: listWithDefault(os.Getenv("AUTH_ALGORITHMS"), file.Auth.Algorithms),
	}
	if len(cfg.Auth.Algorithms) == 0 {
		cfg.Auth.Algorithms = []string{defaultAlgorithm}
	}

	if strings.TrimSpace(cfg.Server.Addr) == "" {
		return Config{}, fmt.Errorf("server address must not be empty")
	}

	return cfg, nil
}

func loadFile(path string) (Config, error) {
	if strings.TrimSpace(path) == "" {
		return Config{}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config file: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config file %s: %w", path, err)
	}
	return cfg, nil
}

func normalizeDomain(domain string) string {
	domain = strings.TrimSpace(domain)
	domain = strings.TrimPrefix(domain, "https://")
	domain = strings.TrimPrefix(domain, "http://")
	return strings.TrimRight(domain, "/")
}

func issuerFor(domain string) string {
	if domain == "" {
		return ""
	}
	return "https://" + domain + "/"
}

func jwksURLFor(domain string) string {
	if domain == "" {
		return ""
	}
	return "https://" + domain + "/.well-known/jwks.json"
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if strings.TrimSpace(value) != "" {
			return value
		}
	}
	return ""
}

func parseIntWithDefault(value string, def int) int {
	if strings.TrimSpace(value) == "" {
		return def
	}
	parsed, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return def
	}
	return parsed
}

func parseDurationWithDefault(value string, def time.Duration) time.Duration {
	if strings.TrimSpace(value) == "" {
		return def
	}
	parsed, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil {
		return def
	}
	return parsed
}

func parseBoolWithDefault(value string, def bool) bool {
	if strings.TrimSpace(value) == "" {
		return def
	}
	parsed, err := strconv.ParseBool(strings.TrimSpace(value))
	if err != nil {
		return def
	}
	return parsed
}

func durationOr(value, def time.Duration) time.Duration {
	if value > 0 {
		return value
	}
	return def
}

// listWithDefault splits a comma separated value, falling back to def when the
// value is blank.
func listWithDefault(value string, def []string) []string {
	if strings.TrimSpace(value) == "" {
		return def
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
