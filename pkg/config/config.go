package config

import "time"

// Config is the root configuration structure for the service
type Config struct {
	Service ServiceConfig
	HTTP    HTTPConfig
	Mongo   MongoConfig
	Auth    AuthConfig
	Logging LoggingConfig
}

// ServiceConfig configures service identity metadata.
type ServiceConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
}

// HTTPConfig configures the public API server
type HTTPConfig struct {
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
}

// MongoConfig configures the MongoDB document store
type MongoConfig struct {
	URL                string        `mapstructure:"url"`
	Database           string        `mapstructure:"database"`
	PlatformCollection string        `mapstructure:"platform_collection"`
	UserCollection     string        `mapstructure:"user_collection"`
	ConnectTimeout     time.Duration `mapstructure:"connect_timeout"`
	OperationTimeout   time.Duration `mapstructure:"operation_timeout"`
}

// AuthConfig configures bearer-token validation
type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret"`
}

// LoggingConfig configures structured logging output
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// DefaultConfig returns the configuration defaults used when neither
// the config file nor environment variables provide a value.
func DefaultConfig() *Config {
	return &Config{
		Service: ServiceConfig{
			Name:        "impact-profile-api",
			Environment: "development",
		},
		HTTP: HTTPConfig{
			Port:         8080,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		Mongo: MongoConfig{
			URL:                "mongodb://localhost:27017",
			Database:           "impact_profile",
			PlatformCollection: "platform",
			UserCollection:     "user",
			ConnectTimeout:     5 * time.Second,
			OperationTimeout:   5 * time.Second,
		},
		Auth: AuthConfig{
			JWTSecret: "",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}
