package config

import (
	"time"

	"github.com/caarlos0/env/v11"
)

type DB struct {
	Driver            string        `env:"DB_DRIVER" envDefault:"postgres"`
	URL               string        `env:"DATABASE_URL,required,notEmpty"`
	MaxOpenConns      int           `env:"DB_MAX_OPEN_CONNS" envDefault:"16"`
	MaxIdleConns      int           `env:"DB_MAX_IDLE_CONNS" envDefault:"8"`
	ConnMaxLifetime   time.Duration `env:"DB_CONN_MAX_LIFETIME" envDefault:"1h"`
	ConnMaxIdleTime   time.Duration `env:"DB_CONN_MAX_IDLE_TIME" envDefault:"15m"`
	MigrationsEnabled bool          `env:"MIGRATIONS_ENABLED" envDefault:"true"`
}

type HTTP struct {
	Port string `env:"PORT" envDefault:"8080"`
}

type Log struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"text"`
}

// Bus configures the notification topics and in-process delivery.
type Bus struct {
	TopicPrefix string `env:"BUS_TOPIC_PREFIX" envDefault:"kb"`
	BufferSize  int    `env:"BUS_BUFFER" envDefault:"256"`
}

type Kafka struct {
	BootstrapServers string `env:"KAFKA_BOOTSTRAP_SERVERS"`
}

func (k Kafka) Enabled() bool {
	return k.BootstrapServers != ""
}

type Auth struct {
	JWTSecret string `env:"JWT_SECRET"`
}

type Config struct {
	DB    DB
	HTTP  HTTP
	Log   Log
	Bus   Bus
	Kafka Kafka
	Auth  Auth
}

func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
