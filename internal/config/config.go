package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"

	pkgconfig "github.com/weiawesome/wes-idgen/pkg/config"
	"github.com/weiawesome/wes-idgen/pkg/pubsub"
	"github.com/weiawesome/wes-idgen/pkg/storage"
)

type Config struct {
	Server   ServerConfig
	GRPC     GRPCConfig `mapstructure:"grpc"`
	Database DatabaseConfig
	Redis    RedisConfig
	Sequence SequenceConfig
	Cache    CacheConfig
	PubSub   pubsub.Config `mapstructure:"pubsub"`
	Storage  storage.Config
	Export   ExportConfig
	Auth     AuthConfig
	Log      LogConfig
	Sources  []SourceConfig
}

type ServerConfig struct {
	Host            string
	Port            int
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type GRPCConfig struct {
	Enabled bool
	Host    string
	Port    int
}

type DatabaseConfig struct {
	Driver          string `mapstructure:"driver"`
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	TimeZone        string `mapstructure:"timezone"`
	FilePath        string `mapstructure:"file_path"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"`
	LogLevel        string `mapstructure:"log_level"`
}

type RedisConfig struct {
	Address  string
	Password string
	DB       int
	Prefix   string
}

// SequenceConfig selects where sequence values live: "database" or "redis".
type SequenceConfig struct {
	Driver string
}

type CacheConfig struct {
	Enabled bool
	TTL     time.Duration
}

type ExportConfig struct {
	KeyPrefix string        `mapstructure:"key_prefix"`
	URLExpiry time.Duration `mapstructure:"url_expiry"`
}

type AuthConfig struct {
	Enabled       bool
	Secret        string
	Issuer        string
	TokenDuration time.Duration `mapstructure:"token_duration"`
}

type LogConfig struct {
	Level  string
	Pretty bool
}

// SourceConfig is an identifier source upserted at start-up.
type SourceConfig struct {
	Name                string
	Kind                string
	BaseCharacterSet    string `mapstructure:"base_character_set"`
	FirstIdentifierBase string `mapstructure:"first_identifier_base"`
	Prefix              string
	Suffix              string
	MinLength           int                   `mapstructure:"min_length"`
	MaxLength           int                   `mapstructure:"max_length"`
	LocationPrefixed    bool                  `mapstructure:"location_prefixed"`
	PrefixProvider      string                `mapstructure:"prefix_provider"`
	IdentifierType      *IdentifierTypeConfig `mapstructure:"identifier_type"`
}

type IdentifierTypeConfig struct {
	Name      string
	Format    string
	Validator string
}

func Load() (*Config, error) {
	v, err := pkgconfig.Load("./config", "config")
	if err != nil {
		return nil, err
	}
	return load(v)
}

func load(v *viper.Viper) (*Config, error) {
	setDefaults(v)

	if err := pkgconfig.BindEnvs(v, map[string]string{
		"server.port":                  "PORT",
		"grpc.enabled":                 "GRPC_ENABLED",
		"grpc.port":                    "GRPC_PORT",
		"database.driver":              "DB_DRIVER",
		"database.host":                "DB_HOST",
		"database.port":                "DB_PORT",
		"database.user":                "DB_USER",
		"database.password":            "DB_PASSWORD",
		"database.dbname":              "DB_NAME",
		"database.sslmode":             "DB_SSLMODE",
		"database.file_path":           "DB_FILE_PATH",
		"database.log_level":           "DB_LOG_LEVEL",
		"redis.address":                "REDIS_ADDRESS",
		"redis.password":               "REDIS_PASSWORD",
		"redis.db":                     "REDIS_DB",
		"sequence.driver":              "SEQUENCE_DRIVER",
		"cache.enabled":                "CACHE_ENABLED",
		"pubsub.driver":                "PUBSUB_DRIVER",
		"pubsub.redis.address":         "REDIS_ADDRESS",
		"pubsub.redis.password":        "REDIS_PASSWORD",
		"pubsub.kafka.brokers":         "KAFKA_BROKERS",
		"storage.driver":               "STORAGE_DRIVER",
		"storage.local.base_path":      "STORAGE_LOCAL_PATH",
		"storage.s3.endpoint":          "S3_ENDPOINT",
		"storage.s3.region":            "S3_REGION",
		"storage.s3.bucket":            "S3_BUCKET",
		"storage.s3.access_key_id":     "S3_ACCESS_KEY_ID",
		"storage.s3.secret_access_key": "S3_SECRET_ACCESS_KEY",
		"auth.enabled":                 "AUTH_ENABLED",
		"auth.secret":                  "JWT_SECRET",
		"auth.issuer":                  "JWT_ISSUER",
		"log.level":                    "LOG_LEVEL",
	}); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8091)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("grpc.enabled", true)
	v.SetDefault("grpc.host", "0.0.0.0")
	v.SetDefault("grpc.port", 50054)
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "postgres")
	v.SetDefault("database.dbname", "idgen")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.timezone", "UTC")
	v.SetDefault("database.file_path", "./data/idgen.db")
	v.SetDefault("database.max_idle_conns", 10)
	v.SetDefault("database.max_open_conns", 100)
	v.SetDefault("database.conn_max_lifetime", 60)
	v.SetDefault("database.log_level", "warn")
	v.SetDefault("redis.address", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.prefix", "idgen")
	v.SetDefault("sequence.driver", "database")
	v.SetDefault("cache.enabled", false)
	v.SetDefault("cache.ttl", 5*time.Minute)
	v.SetDefault("pubsub.driver", "none")
	v.SetDefault("pubsub.redis.address", "localhost:6379")
	v.SetDefault("pubsub.redis.pool_size", 10)
	v.SetDefault("pubsub.redis.read_timeout", 3*time.Second)
	v.SetDefault("pubsub.redis.write_timeout", 3*time.Second)
	v.SetDefault("pubsub.kafka.brokers", "localhost:9092")
	v.SetDefault("pubsub.kafka.partitions", 4)
	v.SetDefault("storage.driver", "local")
	v.SetDefault("storage.local.base_path", "./data/exports")
	v.SetDefault("storage.s3.region", "us-east-1")
	v.SetDefault("storage.s3.bucket", "idgen-exports")
	v.SetDefault("storage.s3.use_path_style", true)
	v.SetDefault("export.key_prefix", "exports")
	v.SetDefault("export.url_expiry", time.Hour)
	v.SetDefault("auth.enabled", false)
	v.SetDefault("auth.issuer", "wes-idgen")
	v.SetDefault("auth.token_duration", time.Hour)
	v.SetDefault("log.level", "info")
}

func (c *Config) validate() error {
	switch c.Sequence.Driver {
	case "database", "redis":
	default:
		return fmt.Errorf("unsupported sequence driver: %s", c.Sequence.Driver)
	}
	if c.Auth.Enabled && c.Auth.Secret == "" {
		return fmt.Errorf("auth.secret is required when auth is enabled")
	}
	seen := make(map[string]struct{}, len(c.Sources))
	for i, s := range c.Sources {
		if s.Name == "" {
			return fmt.Errorf("sources[%d]: name is required", i)
		}
		if _, ok := seen[s.Name]; ok {
			return fmt.Errorf("sources[%d]: duplicate source name %q", i, s.Name)
		}
		seen[s.Name] = struct{}{}
	}
	return nil
}
