// Package config loads the service configuration from an optional file and
// BLOG_* environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"blogapi/logging"

	"github.com/spf13/viper"
)

const (
	DriverMemory  = "memory"
	DriverMongoDB = "mongodb"
)

type Config struct {
	Server Server
	Store  Store
	Logger logging.Config
}

type Server struct {
	Host            string
	Port            int
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
}

// Addr is the listen address, host:port.
func (s Server) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

type Store struct {
	Driver  string
	Timeout time.Duration
	MongoDB MongoDB
}

type MongoDB struct {
	URI            string
	Database       string
	Collection     string
	ConnectTimeout time.Duration
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "")
	v.SetDefault("server.port", 5000)
	v.SetDefault("server.request_timeout", 10*time.Second)
	v.SetDefault("server.shutdown_timeout", 15*time.Second)

	v.SetDefault("store.driver", DriverMemory)
	v.SetDefault("store.timeout", 5*time.Second)
	v.SetDefault("store.mongodb.uri", "mongodb://localhost:27017")
	v.SetDefault("store.mongodb.database", "blog")
	v.SetDefault("store.mongodb.collection", "posts")
	v.SetDefault("store.mongodb.connect_timeout", 10*time.Second)

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "json")
	v.SetDefault("logger.output", "stdout")
	v.SetDefault("logger.output_file", "")
}

// LoadConfig reads configPath, or config.yaml from the working directory when
// configPath is empty. A missing default file is not an error.
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("BLOG")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configPath != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{
		Server: Server{
			Host:            v.GetString("server.host"),
			Port:            v.GetInt("server.port"),
			RequestTimeout:  v.GetDuration("server.request_timeout"),
			ShutdownTimeout: v.GetDuration("server.shutdown_timeout"),
		},
		Store: Store{
			Driver:  strings.ToLower(v.GetString("store.driver")),
			Timeout: v.GetDuration("store.timeout"),
			MongoDB: MongoDB{
				URI:            v.GetString("store.mongodb.uri"),
				Database:       v.GetString("store.mongodb.database"),
				Collection:     v.GetString("store.mongodb.collection"),
				ConnectTimeout: v.GetDuration("store.mongodb.connect_timeout"),
			},
		},
		Logger: logging.Config{
			Level:      v.GetString("logger.level"),
			Format:     v.GetString("logger.format"),
			Output:     v.GetString("logger.output"),
			OutputFile: v.GetString("logger.output_file"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("config: server.port %d out of range", c.Server.Port)
	}
	if c.Server.RequestTimeout < time.Second {
		return fmt.Errorf("config: server.request_timeout must be at least 1s")
	}
	if c.Server.ShutdownTimeout <= 0 {
		return fmt.Errorf("config: server.shutdown_timeout must be positive")
	}
	if c.Store.Timeout <= 0 {
		return fmt.Errorf("config: store.timeout must be positive")
	}

	switch c.Store.Driver {
	case DriverMemory:
	case DriverMongoDB:
		if c.Store.MongoDB.URI == "" || c.Store.MongoDB.Database == "" || c.Store.MongoDB.Collection == "" {
			return fmt.Errorf("config: store.mongodb uri, database and collection are required")
		}
		if c.Store.MongoDB.ConnectTimeout <= 0 {
			return fmt.Errorf("config: store.mongodb.connect_timeout must be positive")
		}
	default:
		return fmt.Errorf("config: unknown store.driver %q", c.Store.Driver)
	}
	return nil
}
