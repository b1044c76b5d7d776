package config

import (
	"log"
	"sync"
	"time"

	"github.com/bookstack-dev/catalog-service/pkg/kafka"
	"github.com/bookstack-dev/catalog-service/pkg/logger"
	"github.com/bookstack-dev/catalog-service/pkg/postgres"
	"github.com/kelseyhightower/envconfig"
	"go.uber.org/zap/zapcore"
)

const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
)

type HTTPServer struct {
	Host         string        `yaml:"host" envconfig:"HTTP_HOST" default:"0.0.0.0"`
	Port         string        `yaml:"port" envconfig:"HTTP_PORT" default:"8080"`
	ReadTimeout  time.Duration `yaml:"readTimeout" envconfig:"HTTP_READ" default:"30s"`
	WriteTimeout time.Duration
}

// Auth holds the two static credential pairs the API is provisioned with.
type Auth struct {
	AdminUser     string `yaml:"adminUser" envconfig:"AUTH_ADMIN_USER" default:"admin"`
	AdminPassword string `yaml:"adminPassword" envconfig:"AUTH_ADMIN_PASSWORD" default:"admin123"`
	APIUser       string `yaml:"apiUser" envconfig:"AUTH_API_USER" default:"user"`
	APIPassword   string `yaml:"apiPassword" envconfig:"AUTH_API_PASSWORD" default:"user123"`
}

func (a Auth) Users() map[string]string {
	return map[string]string{
		a.AdminUser: a.AdminPassword,
		a.APIUser:   a.APIPassword,
	}
}

type Config struct {
	Server   HTTPServer   `yaml:"server"`
	Store    string       `yaml:"store" envconfig:"STORE" default:"memory"`
	Database postgres.DB  `yaml:"db"`
	Kafka    kafka.Config `yaml:"kafka"`
	Auth     Auth         `yaml:"auth"`
	Log      logger.Log   `yaml:"log"`
}

var (
	once sync.Once
	cfg  *Config
)

// NewConfig reads config from environment.
func NewConfig(ops ...Option) *Config {
	once.Do(func() {
		var config Config
		for _, op := range ops {
			op(&config)
		}
		err := envconfig.Process("", &config)
		if err != nil {
			log.Fatal("NewConfig ", err)
		}
		cfg = &config
	})

	return cfg
}

type Option func(*Config)

func WithLogLevel(level zapcore.Level) Option {
	return func(c *Config) {
		c.Log.LogLevel = level
	}
}

func WithWriteTimeout(d time.Duration) Option {
	return func(c *Config) {
		c.Server.WriteTimeout = d
	}
}
