package mongodb

import "time"

// Config describes one MongoDB deployment.
type Config struct {
	// URI is the connection string, e.g. "mongodb://localhost:27017".
	// Default: "mongodb://localhost:27017"
	URI string `yaml:"uri"`

	// Databases lists the databases this deployment serves. The first entry
	// is used when a call names no database.
	Databases []string `yaml:"databases"`

	// AppName is reported to the server in the handshake.
	AppName string `yaml:"appName"`

	// ConnectTimeout bounds establishing new connections.
	// Default: 10 seconds
	ConnectTimeout time.Duration `yaml:"connectTimeout"`

	// ServerSelectionTimeout bounds how long an operation waits for a
	// suitable server.
	// Default: 10 seconds
	ServerSelectionTimeout time.Duration `yaml:"serverSelectionTimeout"`

	// MaxPoolSize is the maximum number of connections per server.
	// Default: 0 (driver default)
	MaxPoolSize uint64 `yaml:"maxPoolSize"`

	// MinPoolSize is the number of idle connections kept per server.
	MinPoolSize uint64 `yaml:"minPoolSize"`

	// LogCommands feeds every driver command into the logger at debug level.
	LogCommands bool `yaml:"logCommands"`

	// HealthCheckInterval is how often MonitorConnection pings the server.
	// Default: 10 seconds
	HealthCheckInterval time.Duration `yaml:"healthCheckInterval"`

	// Logger is optional. Without one the client logs nothing.
	Logger Logger `yaml:"-"`
}

// Logger matches v1/logger.Logger.
//
//go:generate mockgen -source=configs.go -destination=mock_logger.go -package=mongodb
type Logger interface {
	Debug(msg string, err error, fields ...map[string]interface{})
	Info(msg string, err error, fields ...map[string]interface{})
	Warn(msg string, err error, fields ...map[string]interface{})
	Error(msg string, err error, fields ...map[string]interface{})
}

// Default values for configuration
const (
	DefaultURI                    = "mongodb://localhost:27017"
	DefaultConnectTimeout         = 10 * time.Second
	DefaultServerSelectionTimeout = 10 * time.Second
	DefaultHealthCheckInterval    = 10 * time.Second
	DefaultPingTimeout            = 5 * time.Second
)

// WithDefaults returns cfg with unset fields filled in.
func (cfg Config) WithDefaults() Config {
	if cfg.URI == "" {
		cfg.URI = DefaultURI
	}
	if cfg.ConnectTimeout == 0 {
		cfg.ConnectTimeout = DefaultConnectTimeout
	}
	if cfg.ServerSelectionTimeout == 0 {
		cfg.ServerSelectionTimeout = DefaultServerSelectionTimeout
	}
	if cfg.HealthCheckInterval == 0 {
		cfg.HealthCheckInterval = DefaultHealthCheckInterval
	}
	return cfg
}

type nopLogger struct{}

func (nopLogger) Debug(string, error, ...map[string]interface{}) {}
func (nopLogger) Info(string, error, ...map[string]interface{})  {}
func (nopLogger) Warn(string, error, ...map[string]interface{})  {}
func (nopLogger) Error(string, error, ...map[string]interface{}) {}
