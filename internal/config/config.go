package config

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the configuration of the ucsmquery tool.  Every key can come from
// a flag, a UCSM_ prefixed environment variable or the config file, in that
// order of precedence.
type Config struct {
	Host     string        `mapstructure:"host"`
	Login    string        `mapstructure:"login"`
	Password string        `mapstructure:"password"`
	Secure   bool          `mapstructure:"secure"`
	Insecure bool          `mapstructure:"insecure"`
	Debug    bool          `mapstructure:"debug"`
	Timeout  time.Duration `mapstructure:"timeout"`

	Log struct {
		Level  string `mapstructure:"level"`
		Format string `mapstructure:"format"`
	} `mapstructure:"log"`
}

var ErrNoHost = errors.New("config: host is required")

// New returns a viper instance with the defaults and environment binding in
// place.  Flags are bound by the caller before Load.
func New() *viper.Viper {
	v := viper.New()

	v.SetDefault("host", "")
	v.SetDefault("login", "admin")
	v.SetDefault("password", "")
	v.SetDefault("secure", false)
	v.SetDefault("insecure", false)
	v.SetDefault("debug", false)
	v.SetDefault("timeout", "30s")
	v.SetDefault("log.level", "warn")
	v.SetDefault("log.format", "text")

	v.SetEnvPrefix("UCSM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v
}

// Load reads the optional config file and decodes the result.  An explicit
// file set under the "config" key must exist; otherwise ucsmquery.yaml is
// looked up in the working directory and the user's config directory.
func Load(v *viper.Viper) (*Config, error) {
	if file := v.GetString("config"); file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("ucsmquery")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/ucsmquery")
		v.AddConfigPath("/etc/ucsmquery/")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if cfg.Host == "" {
		return nil, ErrNoHost
	}
	return &cfg, nil
}

// HostPort splits Host into the host name and an optional port.  The port is
// 0 when none was given.
func (c *Config) HostPort() (string, int, error) {
	host, portStr, err := net.SplitHostPort(c.Host)
	if err != nil {
		// no port: plain name, IPv4 address, or bracketed/bare IPv6 address
		return strings.Trim(c.Host, "[]"), 0, nil
	}

	port, err := strconv.Atoi(portStr)
	if err != nil || port <= 0 || port > 65535 {
		return "", 0, fmt.Errorf("config: invalid port %q", portStr)
	}
	return host, port, nil
}
