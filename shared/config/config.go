package config

import (
	"fmt"
	"os"
	"path"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"
)

type Config struct {
	Public  Public
	Private Private
}

type Public struct {
	HTTPAddr      string   `yaml:"http_addr" validate:"required"`
	LogLevel      string   `yaml:"log_level"`
	LogJSON       bool     `yaml:"log_json"`
	CORSOrigins   []string `yaml:"cors_origins"`
	SecureCookies bool     `yaml:"secure_cookies"`
	JwtTTLSeconds int      `yaml:"jwt_ttl_seconds"` // lifetime of tokens minted by ledgerdesk-token

	MaxMessageLength int `yaml:"max_message_length" validate:"required,gt=0"`
	MaxNoteLength    int `yaml:"max_note_length" validate:"required,gt=0"`
	MaxFileRefLength int `yaml:"max_file_ref_length" validate:"required,gt=0"`

	MessageRatePerSecond float64 `yaml:"message_rate_per_second" validate:"required,gt=0"`
	MessageRateBurst     int     `yaml:"message_rate_burst" validate:"required,gt=0"`

	UnreadCacheTTLSeconds int    `yaml:"unread_cache_ttl_seconds"`
	NotificationStream    string `yaml:"notification_stream"`
	NotificationStreamLen int64  `yaml:"notification_stream_len"` // approximate MAXLEN for XADD
}

type Pg struct {
	Host     string `yaml:"host" validate:"required"`
	Port     int    `yaml:"port" validate:"required"`
	User     string `yaml:"user" validate:"required"`
	Password string `yaml:"password"`
	Dbname   string `yaml:"dbname" validate:"required"`
}

type Private struct {
	Pg       Pg     `yaml:"pg"`
	JwtKey   string `yaml:"jwt_key" validate:"required"`
	RedisURL string `yaml:"redis_url"` // empty disables the unread cache and the notification stream
}

func (c *Config) JwtKey() string {
	return c.Private.JwtKey
}

func (c *Config) JwtTTL() time.Duration {
	return time.Duration(c.Public.JwtTTLSeconds) * time.Second
}

func (c *Config) UnreadCacheTTL() time.Duration {
	return time.Duration(c.Public.UnreadCacheTTLSeconds) * time.Second
}

// secrets that may be supplied through the environment (or a .env file)
// instead of private.yaml
var envOverrides = map[string]func(*Config, string){
	"LEDGERDESK_JWT_KEY":     func(c *Config, v string) { c.Private.JwtKey = v },
	"LEDGERDESK_PG_PASSWORD": func(c *Config, v string) { c.Private.Pg.Password = v },
	"LEDGERDESK_REDIS_URL":   func(c *Config, v string) { c.Private.RedisURL = v },
}

func mustLoadPath(configPath string, output interface{}) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		panic("config file does not exist: " + configPath)
	}
	configFile, err := os.ReadFile(configPath)
	if err != nil {
		panic("can't read config file: " + configPath)
	}

	if err := yaml.UnmarshalStrict(configFile, output); err != nil {
		panic(fmt.Sprintf("can't unmarshal config file %s: %v", configPath, err))
	}
}

func applyEnv(cfg *Config) {
	for name, apply := range envOverrides {
		if v := strings.TrimSpace(os.Getenv(name)); v != "" {
			apply(cfg, v)
		}
	}
}

func setDefaults(cfg *Config) {
	if cfg.Public.LogLevel == "" {
		cfg.Public.LogLevel = "info"
	}
	if cfg.Public.JwtTTLSeconds == 0 {
		cfg.Public.JwtTTLSeconds = 24 * 60 * 60
	}
	if cfg.Public.UnreadCacheTTLSeconds == 0 {
		cfg.Public.UnreadCacheTTLSeconds = 60
	}
	if cfg.Public.NotificationStream == "" {
		cfg.Public.NotificationStream = "ledgerdesk:notifications"
	}
	if cfg.Public.NotificationStreamLen == 0 {
		cfg.Public.NotificationStreamLen = 100_000
	}
}

// MustLoad reads public.yaml and private.yaml from configFolder, applies
// environment overrides and panics if a required field is missing.
func MustLoad(configFolder string) *Config {
	// .env is optional
	_ = godotenv.Load(path.Join(configFolder, ".env"))

	var public Public
	mustLoadPath(path.Join(configFolder, "public.yaml"), &public)

	var private Private
	mustLoadPath(path.Join(configFolder, "private.yaml"), &private)

	cfg := &Config{Public: public, Private: private}
	applyEnv(cfg)
	setDefaults(cfg)

	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(cfg); err != nil {
		panic(fmt.Sprintf("invalid config: %v", err))
	}
	return cfg
}
