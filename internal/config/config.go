package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix antepone las variables de entorno: SCAVHUNT_PORT, SCAVHUNT_DATABASE...
const EnvPrefix = "SCAVHUNT"

const passwordPlaceholder = "<PASSWORD>"

type Config struct {
	Env      string `mapstructure:"env"`
	Port     int    `mapstructure:"port"`
	LogLevel string `mapstructure:"log_level"`

	// Database es la URI de MongoDB; puede llevar <PASSWORD>. Vacía usa el almacén en memoria.
	Database         string `mapstructure:"database"`
	DatabasePassword string `mapstructure:"database_password"`
	MongoDB          string `mapstructure:"mongo_db"`

	SQLDriver string `mapstructure:"sql_driver"`
	SQLDSN    string `mapstructure:"sql_dsn"`

	RedisAddr string        `mapstructure:"redis_addr"`
	CacheTTL  time.Duration `mapstructure:"cache_ttl"`

	KafkaBrokers []string `mapstructure:"kafka_brokers"`
	KafkaGroup   string   `mapstructure:"kafka_group"`

	ClickHouseAddr     string `mapstructure:"clickhouse_addr"`
	ClickHouseDB       string `mapstructure:"clickhouse_db"`
	ClickHouseUser     string `mapstructure:"clickhouse_user"`
	ClickHousePassword string `mapstructure:"clickhouse_password"`

	OutboxInterval time.Duration `mapstructure:"outbox_interval"`
	OutboxBatch    int           `mapstructure:"outbox_batch"`

	RateLimitRPM   int `mapstructure:"rate_limit_rpm"`
	RateLimitBurst int `mapstructure:"rate_limit_burst"`

	PageSize    int `mapstructure:"page_size"`
	MaxPageSize int `mapstructure:"max_page_size"`
}

// SetDefaults registra un valor por defecto para cada clave; sin ellos
// AutomaticEnv no llega a Unmarshal.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("env", "development")
	v.SetDefault("port", 3005)
	v.SetDefault("log_level", "info")

	v.SetDefault("database", "")
	v.SetDefault("database_password", "")
	v.SetDefault("mongo_db", "scavhunt")

	v.SetDefault("sql_driver", "sqlite")
	v.SetDefault("sql_dsn", "./scavhunt_users.db")

	v.SetDefault("redis_addr", "")
	v.SetDefault("cache_ttl", 5*time.Minute)

	v.SetDefault("kafka_brokers", []string{})
	v.SetDefault("kafka_group", "scavhunt")

	v.SetDefault("clickhouse_addr", "")
	v.SetDefault("clickhouse_db", "default")
	v.SetDefault("clickhouse_user", "default")
	v.SetDefault("clickhouse_password", "")

	v.SetDefault("outbox_interval", time.Second)
	v.SetDefault("outbox_batch", 50)

	v.SetDefault("rate_limit_rpm", 100)
	v.SetDefault("rate_limit_burst", 20)

	v.SetDefault("page_size", 100)
	v.SetDefault("max_page_size", 1000)
}

// Load lee, por orden de prioridad: flags ya enlazados en v, variables con
// prefijo SCAVHUNT_, el fichero (.env si file está vacío) y los valores por defecto.
// El .env por defecto es opcional; un fichero indicado explícitamente debe existir.
func Load(v *viper.Viper, file string) (*Config, error) {
	SetDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	optional := file == ""
	if optional {
		file = ".env"
	}
	v.SetConfigFile(file)
	if strings.HasSuffix(file, ".env") {
		v.SetConfigType("env")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		missing := errors.As(err, &notFound) || errors.Is(err, fs.ErrNotExist)
		if !missing || !optional {
			return nil, fmt.Errorf("read config %s: %w", file, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	switch {
	case c.Port <= 0 || c.Port > 65535:
		return fmt.Errorf("invalid port %d", c.Port)
	case c.PageSize <= 0 || c.MaxPageSize < c.PageSize:
		return fmt.Errorf("invalid page sizes: default %d, max %d", c.PageSize, c.MaxPageSize)
	case c.OutboxInterval <= 0 || c.OutboxBatch <= 0:
		return errors.New("outbox interval and batch must be positive")
	}
	return nil
}

// MongoURI sustituye <PASSWORD> por DATABASE_PASSWORD.
func (c *Config) MongoURI() string {
	return strings.ReplaceAll(c.Database, passwordPlaceholder, c.DatabasePassword)
}

func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

func (c *Config) UseKafka() bool {
	return len(c.KafkaBrokers) > 0
}
