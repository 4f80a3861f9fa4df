// internal/config/config.go
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config represents the application configuration.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Admin   AdminConfig   `mapstructure:"admin"`
	Storage StorageConfig `mapstructure:"storage"`
	Serial  SerialConfig  `mapstructure:"serial"`
	Logging LoggingConfig `mapstructure:"logging"`
	Label   LabelConfig   `mapstructure:"label"`
}

// ServerConfig represents the label protocol's TCP listener.
type ServerConfig struct {
	Host string `mapstructure:"host" validate:"required"`
	Port string `mapstructure:"port" validate:"required"`
}

// AdminConfig represents the admin HTTP surface (health, counters,
// recent-jobs, job-event websocket).
type AdminConfig struct {
	Host           string        `mapstructure:"host" validate:"required"`
	Port           string        `mapstructure:"port" validate:"required"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	IdleTimeout    time.Duration `mapstructure:"idle_timeout"`
	AllowedOrigins []string      `mapstructure:"allowed_origins"`
}

// StorageConfig represents the SQLite label/barcode template store.
type StorageConfig struct {
	Path           string `mapstructure:"path" validate:"required"`
	MigrationsPath string `mapstructure:"migrations_path"`
}

// SerialConfig represents both device serial ports.
type SerialConfig struct {
	Printer SerialPortConfig `mapstructure:"printer"`
	Scale   SerialPortConfig `mapstructure:"scale"`
}

// SerialPortConfig represents one serial port's connection parameters.
type SerialPortConfig struct {
	Device   string        `mapstructure:"device" validate:"required"`
	BaudRate int           `mapstructure:"baud_rate"`
	DataBits int           `mapstructure:"data_bits"`
	StopBits int           `mapstructure:"stop_bits"`
	Parity   string        `mapstructure:"parity"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// LoggingConfig represents logging configuration.
type LoggingConfig struct {
	Level      string `mapstructure:"level" validate:"required"`
	Format     string `mapstructure:"format"`
	Output     string `mapstructure:"output"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"`
	Compress   bool   `mapstructure:"compress"`
}

// LabelConfig holds label geometry defaults read from configuration. The
// template interpreter does not consult it: label geometry comes only from
// the ~S directive.
type LabelConfig struct {
	DefaultWidthMM  float64 `mapstructure:"default_width_mm"`
	DefaultHeightMM float64 `mapstructure:"default_height_mm"`
}

// Load loads configuration from file and environment variables.
func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	viper.SetEnvPrefix("LABEL_DRIVER")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil, fmt.Errorf("config file not found: %w", err)
		}
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

func setDefaults() {
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", "8888")

	viper.SetDefault("admin.host", "0.0.0.0")
	viper.SetDefault("admin.port", "8084")
	viper.SetDefault("admin.read_timeout", "30s")
	viper.SetDefault("admin.write_timeout", "30s")
	viper.SetDefault("admin.idle_timeout", "120s")
	viper.SetDefault("admin.allowed_origins", []string{"*"})

	viper.SetDefault("storage.path", "./data/labels.db")
	viper.SetDefault("storage.migrations_path", "file://./migrations")

	viper.SetDefault("serial.printer.device", "/dev/ttyUSB0")
	viper.SetDefault("serial.printer.baud_rate", 115200)
	viper.SetDefault("serial.printer.data_bits", 8)
	viper.SetDefault("serial.printer.stop_bits", 1)
	viper.SetDefault("serial.printer.parity", "none")
	viper.SetDefault("serial.printer.timeout", "5s")

	viper.SetDefault("serial.scale.device", "/dev/ttyUSB1")
	viper.SetDefault("serial.scale.baud_rate", 9600)
	viper.SetDefault("serial.scale.data_bits", 8)
	viper.SetDefault("serial.scale.stop_bits", 1)
	viper.SetDefault("serial.scale.parity", "none")
	viper.SetDefault("serial.scale.timeout", "5s")

	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "json")
	viper.SetDefault("logging.output", "stdout")
	viper.SetDefault("logging.max_size", 100)
	viper.SetDefault("logging.max_backups", 3)
	viper.SetDefault("logging.max_age", 28)
	viper.SetDefault("logging.compress", true)

	viper.SetDefault("label.default_width_mm", 54.0)
	viper.SetDefault("label.default_height_mm", 32.0)
}

func validate(config *Config) error {
	if config.Server.Port == "" {
		return fmt.Errorf("server.port is required")
	}
	if config.Storage.Path == "" {
		return fmt.Errorf("storage.path is required")
	}
	if config.Serial.Printer.Device == "" {
		return fmt.Errorf("serial.printer.device is required")
	}

	validLevels := []string{"debug", "info", "warn", "error", "fatal"}
	isValidLevel := false
	for _, level := range validLevels {
		if config.Logging.Level == level {
			isValidLevel = true
			break
		}
	}
	if !isValidLevel {
		return fmt.Errorf("logging.level must be one of: %v", validLevels)
	}

	return nil
}

// ServerAddr returns the label protocol's listen address.
func (c *Config) ServerAddr() string {
	return fmt.Sprintf("%s:%s", c.Server.Host, c.Server.Port)
}

// AdminAddr returns the admin HTTP surface's listen address.
func (c *Config) AdminAddr() string {
	return fmt.Sprintf("%s:%s", c.Admin.Host, c.Admin.Port)
}
