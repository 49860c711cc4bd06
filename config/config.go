package config

import (
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/kelseyhightower/envconfig"
	"go.uber.org/zap/zapcore"

	"github.com/Astemirdum/library-manager/internal/server"
	"github.com/Astemirdum/library-manager/pkg/auth"
	"github.com/Astemirdum/library-manager/pkg/kafka"
	"github.com/Astemirdum/library-manager/pkg/logger"
	"github.com/Astemirdum/library-manager/pkg/postgres"
)

type LendingConfig struct {
	Period        time.Duration `yaml:"period" envconfig:"LENDING_PERIOD" default:"168h"`
	SweepInterval time.Duration `yaml:"sweepInterval" envconfig:"LENDING_SWEEP_INTERVAL" default:"1m"`
}

type Config struct {
	Server   server.Config   `yaml:"server"`
	Database postgres.Config `yaml:"database"`
	Auth     auth.Config     `yaml:"auth"`
	Lending  LendingConfig   `yaml:"lending"`
	Kafka    kafka.Config    `yaml:"kafka"`
	Log      logger.Log      `yaml:"log"`
}

type Option func(*Config)

func WithLogLevel(level zapcore.Level) Option {
	return func(c *Config) {
		c.Log.LogLevel = level
	}
}

func WithWriteTimeout(timeout time.Duration) Option {
	return func(c *Config) {
		c.Server.WriteTimeout = timeout
	}
}

var (
	once sync.Once
	cfg  Config
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
		cfg = config
		printConfig(cfg)
	})

	return &cfg
}

func printConfig(cfg Config) {
	jscfg, _ := json.MarshalIndent(cfg, "", "	") //nolint:errcheck
	fmt.Println(string(jscfg))
}
