package config

import (
	"fmt"
	"time"
)

// Config holds client configuration values.
type Config struct {
	Host           string        `mapstructure:"host" yaml:"host"`
	Port           int           `mapstructure:"port" yaml:"port"`
	SSL            bool          `mapstructure:"ssl" yaml:"ssl"`
	Username       string        `mapstructure:"username" yaml:"username"`
	Password       string        `mapstructure:"password" yaml:"password"`
	Autojoin       []string      `mapstructure:"autojoin" yaml:"autojoin"`
	Reconnect      bool          `mapstructure:"reconnect" yaml:"reconnect"`
	ReconnectDelay time.Duration `mapstructure:"reconnect_delay" yaml:"reconnect_delay"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout" yaml:"connect_timeout"`
	HeyFreq        time.Duration `mapstructure:"hey_freq" yaml:"hey_freq"`
	// StatusTimeout is accepted for compatibility but no stall watchdog
	// consumes it yet.
	StatusTimeout time.Duration `mapstructure:"status_timeout" yaml:"status_timeout"`
	LogLevel      string        `mapstructure:"log_level" yaml:"log_level"`
}

// Default returns configuration with reasonable starter defaults.
func Default() Config {
	return Config{
		Host:           "localhost",
		Port:           4480,
		SSL:            false,
		Autojoin:       []string{},
		Reconnect:      true,
		ReconnectDelay: 5 * time.Second,
		ConnectTimeout: 5 * time.Second,
		HeyFreq:        20 * time.Second,
		StatusTimeout:  5 * time.Second,
		LogLevel:       "info",
	}
}

// URL builds the websocket endpoint from host, port and the ssl flag.
func (c Config) URL() string {
	scheme := "ws"
	if c.SSL {
		scheme = "wss"
	}
	return fmt.Sprintf("%s://%s:%d/", scheme, c.Host, c.Port)
}

// UpdateFrom overwrites non-zero values from other config into receiver.
// Reconnect is left to the caller's flag handling since false is
// indistinguishable from unset here.
func (c *Config) UpdateFrom(other Config) {
	if other.Host != "" {
		c.Host = other.Host
	}
	if other.Port != 0 {
		c.Port = other.Port
	}
	if other.SSL {
		c.SSL = true
	}
	if other.Username != "" {
		c.Username = other.Username
	}
	if other.Password != "" {
		c.Password = other.Password
	}
	if len(other.Autojoin) > 0 {
		c.Autojoin = other.Autojoin
	}
	if other.ReconnectDelay != 0 {
		c.ReconnectDelay = other.ReconnectDelay
	}
	if other.ConnectTimeout != 0 {
		c.ConnectTimeout = other.ConnectTimeout
	}
	if other.HeyFreq != 0 {
		c.HeyFreq = other.HeyFreq
	}
	if other.StatusTimeout != 0 {
		c.StatusTimeout = other.StatusTimeout
	}
	if other.LogLevel != "" {
		c.LogLevel = other.LogLevel
	}
}
