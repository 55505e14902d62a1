package confs

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// Database types
const (
	SqliteDbType   = "sqlite"
	PostgresDbType = "postgres"
)

// ConfigPathEnvVar overrides the YAML config file location.
const ConfigPathEnvVar = "CONFIG_PATH"

// EnvPrefix marks environment variables that map onto config keys,
// e.g. HM_SERVER_PORT -> server.port.
const EnvPrefix = "HM_"

// DefaultSecretKey is a placeholder. Load never hands it out: when no key
// is configured a random one is generated for the process.
const DefaultSecretKey = "change-me-please-0000"

// DefaultConfigPaths are searched in order when CONFIG_PATH is unset.
var DefaultConfigPaths = []string{"config.yaml", "config.yml"}

// legacyEnv maps the plain variable names the server has always read.
var legacyEnv = map[string]string{
	"DB_URL":      "database.url",
	"DB_HOST":     "database.host",
	"DB_PORT":     "database.port",
	"DB_USER":     "database.user",
	"DB_PASSWORD": "database.password",
	"DB_NAME":     "database.name",
	"SECRET_KEY":  "security.secret_key",
	"PORT":        "server.port",
}

type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Database DatabaseConfig `koanf:"database"`
	Models   ModelsConfig   `koanf:"models"`
	Security SecurityConfig `koanf:"security"`
	Logging  LoggingConfig  `koanf:"logging"`
}

type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port" validate:"min=1,max=65535"`
	Mode            string        `koanf:"mode" validate:"oneof=debug release test"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" validate:"gt=0"`
}

// DatabaseConfig selects the store. For sqlite only Path is used; postgres
// takes URL or the individual connection fields.
type DatabaseConfig struct {
	Type         string `koanf:"type" validate:"oneof=sqlite postgres"`
	Path         string `koanf:"path"`
	URL          string `koanf:"url"`
	Host         string `koanf:"host"`
	Port         string `koanf:"port"`
	User         string `koanf:"user"`
	Password     string `koanf:"password"`
	Name         string `koanf:"name"`
	MaxIdleConns int    `koanf:"max_idle_conns" validate:"min=0"`
	MaxOpenConns int    `koanf:"max_open_conns" validate:"min=0"`
	LogLevel     string `koanf:"log_level" validate:"oneof=silent error warn info"`
}

type ModelsConfig struct {
	Dir string `koanf:"dir" validate:"required"`
}

type SecurityConfig struct {
	SecretKey        string        `koanf:"secret_key" validate:"required,min=16"`
	SessionTTL       time.Duration `koanf:"session_ttl" validate:"gt=0"`
	CookieName       string        `koanf:"cookie_name" validate:"required"`
	CookieSecure     bool          `koanf:"cookie_secure"`
	LoginRatePerMin  int           `koanf:"login_rate_per_min" validate:"min=0"`
	CORSAllowOrigins []string      `koanf:"cors_allow_origins"`
}

type LoggingConfig struct {
	Level      string `koanf:"level" validate:"oneof=trace debug info warn error"`
	Format     string `koanf:"format" validate:"oneof=json console"`
	FilePath   string `koanf:"file_path"`
	MaxSizeMB  int    `koanf:"max_size_mb" validate:"min=0"`
	MaxBackups int    `koanf:"max_backups" validate:"min=0"`
	MaxAgeDays int    `koanf:"max_age_days" validate:"min=0"`
}

// Default returns the configuration used when nothing overrides it.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            5000,
			Mode:            "release",
			ShutdownTimeout: 10 * time.Second,
		},
		Database: DatabaseConfig{
			Type:         SqliteDbType,
			Path:         "users.db",
			MaxIdleConns: 10,
			MaxOpenConns: 100,
			LogLevel:     "warn",
		},
		Models: ModelsConfig{
			Dir: ".",
		},
		Security: SecurityConfig{
			SecretKey:        DefaultSecretKey,
			SessionTTL:       24 * time.Hour,
			CookieName:       "session",
			LoginRatePerMin:  20,
			CORSAllowOrigins: []string{"*"},
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "json",
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
	}
}

// LoadConfig loads environment variables from a .env file if present, then
// layers defaults, an optional YAML file and the environment.
func LoadConfig() (*Config, error) {
	// Load .env if it exists; ignore error if file not found
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			log.Printf("warning: could not load .env: %v", err)
		}
	}
	return Load(findConfigFile())
}

// Load builds a Config from defaults, the YAML file at path (skipped when
// empty) and the process environment, in that order of precedence.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	// CORS origins arrive from the environment as one comma-separated string
	if raw, ok := k.Get("security.cors_allow_origins").(string); ok {
		if err := k.Set("security.cors_allow_origins", splitList(raw)); err != nil {
			return nil, fmt.Errorf("failed to parse cors origins: %w", err)
		}
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if cfg.Security.SecretKey == DefaultSecretKey {
		key, err := randomSecret()
		if err != nil {
			return nil, err
		}
		cfg.Security.SecretKey = key
		log.Printf("warning: no secret key configured (set SECRET_KEY); using a random key, sessions end on restart")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func randomSecret() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate secret key: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// Validate checks field constraints and cross-field rules.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("validation failed for Config: %w", err)
	}
	if c.Database.Type == PostgresDbType && c.Database.URL == "" {
		d := c.Database
		if d.Host == "" || d.Port == "" || d.User == "" || d.Password == "" || d.Name == "" {
			return fmt.Errorf("missing required database configuration: DB_URL or (DB_HOST, DB_PORT, DB_USER, DB_PASSWORD, DB_NAME)")
		}
	}
	if c.Database.Type == SqliteDbType && c.Database.Path == "" {
		return fmt.Errorf("database path is required for sqlite")
	}
	if c.Logging.FilePath != "" && c.Logging.MaxSizeMB < 1 {
		return fmt.Errorf("logging max size must be at least 1 MB when file output is enabled")
	}
	return nil
}

// Addr returns the listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

func envKey(s string) string {
	if key, ok := legacyEnv[s]; ok {
		return key
	}
	if !strings.HasPrefix(s, EnvPrefix) {
		return ""
	}
	rest := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	section, field, ok := strings.Cut(rest, "_")
	if !ok {
		return ""
	}
	return section + "." + field
}

func splitList(raw string) []string {
	out := []string{}
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func findConfigFile() string {
	if p := os.Getenv(ConfigPathEnvVar); p != "" {
		return p
	}
	for _, p := range DefaultConfigPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}
