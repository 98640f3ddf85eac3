package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	envPrefix              = "MATHLAB"
	defaultHTTPAddress     = "0.0.0.0:3001"
	defaultAdminPin        = "2026"
	defaultLogLevel        = "info"
	defaultTokenTTLMinutes = 30
	dataDirName            = ".jarvis-math-lab"
)

// AppConfig captures runtime configuration for the API server.
type AppConfig struct {
	HTTPAddress   string
	DataDir       string
	AdminPin      string
	SigningSecret string
	TokenTTL      time.Duration
	LogLevel      string
}

// NewViper returns a viper instance with defaults and env bindings configured.
func NewViper() *viper.Viper {
	configViper := viper.New()
	ApplyDefaults(configViper)
	return configViper
}

// ApplyDefaults configures defaults and env bindings on the provided viper
// instance.
func ApplyDefaults(configViper *viper.Viper) {
	configViper.SetEnvPrefix(envPrefix)
	configViper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	configViper.AutomaticEnv()

	configViper.SetDefault("http.address", defaultHTTPAddress)
	configViper.SetDefault("data.dir", defaultDataDir())
	configViper.SetDefault("admin.pin", defaultAdminPin)
	configViper.SetDefault("log.level", defaultLogLevel)
	configViper.SetDefault("token.ttl_minutes", defaultTokenTTLMinutes)
}

// defaultDataDir mirrors the original deployment layout under the home
// directory, falling back to a relative path when home is unavailable.
func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "data"
	}
	return filepath.Join(home, dataDirName, "data")
}

// Load parses runtime configuration from viper.
func Load(configViper *viper.Viper) (AppConfig, error) {
	cfg := AppConfig{
		HTTPAddress:   configViper.GetString("http.address"),
		DataDir:       configViper.GetString("data.dir"),
		AdminPin:      configViper.GetString("admin.pin"),
		SigningSecret: configViper.GetString("auth.signing_secret"),
		TokenTTL:      time.Duration(configViper.GetInt("token.ttl_minutes")) * time.Minute,
		LogLevel:      configViper.GetString("log.level"),
	}

	if err := cfg.validate(); err != nil {
		return AppConfig{}, err
	}

	return cfg, nil
}

func (c AppConfig) validate() error {
	if strings.TrimSpace(c.DataDir) == "" {
		return fmt.Errorf("data.dir is required")
	}
	if strings.TrimSpace(c.AdminPin) == "" {
		return fmt.Errorf("admin.pin is required")
	}
	return nil
}
