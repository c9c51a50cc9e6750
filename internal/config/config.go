package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

const (
	AuditStoreMongo  = "mongo"
	AuditStoreMemory = "memory"
)

type DB struct {
	URL             string        `env:"DATABASE_URL,required"`
	MaxOpenConns    int           `env:"DB_MAX_OPEN_CONNS" envDefault:"16"`
	MaxIdleConns    int           `env:"DB_MAX_IDLE_CONNS" envDefault:"8"`
	ConnMaxLifetime time.Duration `env:"DB_CONN_MAX_LIFETIME" envDefault:"1h"`
	ConnMaxIdleTime time.Duration `env:"DB_CONN_MAX_IDLE_TIME" envDefault:"15m"`
	MigrationsPath  string        `env:"MIGRATIONS_PATH" envDefault:"file://db/migrations"`
}

type HTTP struct {
	Port            string        `env:"PORT" envDefault:"8080"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"15s"`
}

type Mongo struct {
	URI             string `env:"MONGO_URI" envDefault:"mongodb://localhost:27017"`
	Database        string `env:"MONGO_DATABASE" envDefault:"project_tracker"`
	AuditCollection string `env:"MONGO_AUDIT_COLLECTION" envDefault:"audit_logs"`
}

type Kafka struct {
	BootstrapServers string `env:"KAFKA_BOOTSTRAP_SERVERS"`
	AuditTopic       string `env:"KAFKA_AUDIT_TOPIC" envDefault:"project-tracker.audit"`
}

type Audit struct {
	Store           string        `env:"AUDIT_STORE" envDefault:"mongo"`
	NotifyTimeout   time.Duration `env:"AUDIT_NOTIFY_TIMEOUT" envDefault:"10s"`
	Retention       time.Duration `env:"AUDIT_RETENTION" envDefault:"2160h"`
	CleanupInterval time.Duration `env:"AUDIT_CLEANUP_INTERVAL" envDefault:"24h"`
}

type Config struct {
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	DB    DB
	HTTP  HTTP
	Mongo Mongo
	Kafka Kafka
	Audit Audit
}

func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Audit.Store {
	case AuditStoreMongo, AuditStoreMemory:
	default:
		return fmt.Errorf("AUDIT_STORE must be %q or %q, got %q", AuditStoreMongo, AuditStoreMemory, c.Audit.Store)
	}
	if c.Audit.Retention < 0 {
		return fmt.Errorf("AUDIT_RETENTION must not be negative")
	}
	return nil
}
