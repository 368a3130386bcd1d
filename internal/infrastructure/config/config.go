// Package config loads service configuration from the environment. Optional
// .env files are read first; real environment variables win.
package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
	"gopkg.in/yaml.v2"
)

const (
	DriverMongo    = "mongo"
	DriverPostgres = "postgres"
)

type Config struct {
	Port          string        `env:"PORT,            default=8080"`
	Env           string        `env:"ENV,             default=development"`
	JWTSecret     string        `env:"JWT_SECRET,      required"`
	TokenTTL      time.Duration `env:"JWT_TTL,         default=24h"`
	LogLevel      string        `env:"LOG_LEVEL,       default=info"`
	LogPretty     bool          `env:"LOG_PRETTY,      default=false"`
	StoreDriver   string        `env:"STORE_DRIVER,    default=mongo"`
	ResyncWorkers int           `env:"RESYNC_WORKERS,  default=4"`
	ShutdownGrace time.Duration `env:"SHUTDOWN_GRACE,  default=15s"`

	Mongo    MongoConfig
	Postgres PostgresConfig
	Redis    RedisConfig
	CRM      CRMConfig
	Mirror   MirrorConfig
	Media    MediaConfig
	Claims   ClaimsConfig
	Kafka    KafkaConfig
	Admin    AdminConfig
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017/?replicaSet=rs0"`
	Database string `env:"MONGO_DB,  default=profile_directory"`
}

type PostgresConfig struct {
	DSN          string `env:"POSTGRES_DSN"`
	MaxOpenConns int    `env:"POSTGRES_MAX_OPEN_CONNS, default=20"`
	MaxIdleConns int    `env:"POSTGRES_MAX_IDLE_CONNS, default=5"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR,     default=localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB,       default=0"`
}

type CRMConfig struct {
	BaseURL        string        `env:"CRM_BASE_URL,        default=https://api.followupboss.com"`
	System         string        `env:"CRM_SYSTEM,          default=ProfileDirectory"`
	SystemKey      string        `env:"CRM_SYSTEM_KEY"`
	Timeout        time.Duration `env:"CRM_TIMEOUT,         default=15s"`
	DebounceWindow time.Duration `env:"CRM_DEBOUNCE_WINDOW, default=5s"`
	Source         string        `env:"CRM_SOURCE,          default=Profile Directory"`
}

type MirrorConfig struct {
	KeyPrefix string `env:"MIRROR_KEY_PREFIX, default=lrh_"`
}

type MediaConfig struct {
	BaseURL       string `env:"MEDIA_BASE_URL"`
	DefaultAvatar string `env:"MEDIA_DEFAULT_AVATAR, default=mp"`
	PublicBaseURL string `env:"PUBLIC_BASE_URL"`
}

type ClaimsConfig struct {
	MappingFile string `env:"CLAIMS_MAPPING_FILE"`
}

type KafkaConfig struct {
	Brokers     []string `env:"KAFKA_BROKERS"`
	Topic       string   `env:"KAFKA_TOPIC,       default=profiles"`
	Partitions  int32    `env:"KAFKA_PARTITIONS,  default=3"`
	Replication int16    `env:"KAFKA_REPLICATION, default=1"`
}

// AdminConfig seeds an admin account at startup when both fields are set.
type AdminConfig struct {
	Email    string `env:"ADMIN_EMAIL"`
	Password string `env:"ADMIN_PASSWORD"`
}

// Enabled reports whether the event-stream sink is configured.
func (k KafkaConfig) Enabled() bool {
	return len(k.Brokers) > 0
}

// Load reads .env files (if any) and then the environment.
func Load(ctx context.Context, envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles, _ = filepath.Glob(".env*")
	}
	existing := envFiles[:0]
	for _, f := range envFiles {
		if _, err := os.Stat(f); err == nil {
			existing = append(existing, f)
		}
	}
	if len(existing) > 0 {
		if err := godotenv.Load(existing...); err != nil {
			return nil, fmt.Errorf("config: load env files: %w", err)
		}
	}

	var cfg Config
	if err := envconfig.Process(ctx, &cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	c.StoreDriver = strings.ToLower(strings.TrimSpace(c.StoreDriver))
	switch c.StoreDriver {
	case DriverMongo:
	case DriverPostgres:
		if c.Postgres.DSN == "" {
			return fmt.Errorf("config: POSTGRES_DSN is required when STORE_DRIVER=%s", DriverPostgres)
		}
	default:
		return fmt.Errorf("config: unknown STORE_DRIVER %q", c.StoreDriver)
	}
	return nil
}

// LoadClaimsMapping reads a scope → claim names mapping from a YAML file.
// Environment variables in the file are expanded.
//
//	profile: [name, given_name, family_name]
//	frs: [nmls, region]
func LoadClaimsMapping(path string) (map[string][]string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read claims mapping: %w", err)
	}

	var mapping map[string][]string
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(raw))), &mapping); err != nil {
		return nil, fmt.Errorf("config: parse claims mapping: %w", err)
	}
	if len(mapping) == 0 {
		return nil, fmt.Errorf("config: claims mapping %s is empty", path)
	}
	return mapping, nil
}
