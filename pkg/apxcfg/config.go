/*
MIT License

Copyright (c) 2026 cogu

Permission is hereby granted, free of charge, to any person obtaining a copy
of this software and associated documentation files (the "Software"), to deal
in the Software without restriction, including without limitation the rights
to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
copies of the Software, and to permit persons to whom the Software is
furnished to do so, subject to the following conditions:

The above copyright notice and this permission notice shall be included in all
copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
SOFTWARE.
*/

// Package apxcfg loads cmd/apxd's configuration through spf13/viper bound
// to spf13/cobra flags, the same stack the teacher's config/cobra/viper
// packages lean on, narrowed to the handful of settings this daemon needs.
package apxcfg

import (
	"errors"
	"io/fs"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config is cmd/apxd's full runtime configuration.
type Config struct {
	ListenAddress     string        `yaml:"listen_address" mapstructure:"listen_address"`
	MetricsAddress    string        `yaml:"metrics_address" mapstructure:"metrics_address"`
	LogLevel          string        `yaml:"log_level" mapstructure:"log_level"`
	GreetingTimeout   time.Duration `yaml:"greeting_timeout" mapstructure:"greeting_timeout"`
	HeartbeatInterval time.Duration `yaml:"heartbeat_interval" mapstructure:"heartbeat_interval"`
	MaxMessageSize    int           `yaml:"max_message_size" mapstructure:"max_message_size"`
	SendBufferSize    int           `yaml:"send_buffer_size" mapstructure:"send_buffer_size"`
}

// Defaults returns the configuration used when no flag, env var or config
// file overrides a setting.
func Defaults() Config {
	return Config{
		ListenAddress:     ":17341",
		MetricsAddress:    ":9100",
		LogLevel:          "info",
		GreetingTimeout:   5 * time.Second,
		HeartbeatInterval: 3 * time.Second,
		MaxMessageSize:    256 * 1024,
		SendBufferSize:    4 * 1024,
	}
}

// BindFlags registers cmd/apxd's flags on cmd and binds each one into v,
// so viper resolves precedence as flag > env > config file > default, the
// same layering the teacher's config package documents.
func BindFlags(cmd *cobra.Command, v *viper.Viper) error {
	d := Defaults()
	flags := cmd.PersistentFlags()
	flags.String("listen-address", d.ListenAddress, "TCP address the RMF server listens on")
	flags.String("metrics-address", d.MetricsAddress, "HTTP address serving Prometheus metrics")
	flags.String("log-level", d.LogLevel, "hclog level name (trace, debug, info, warn, error)")
	flags.Duration("greeting-timeout", d.GreetingTimeout, "time allowed for the greeting handshake")
	flags.Duration("heartbeat-interval", d.HeartbeatInterval, "interval between HEARTBEAT command frames")
	flags.Int("max-message-size", d.MaxMessageSize, "maximum accepted NumHeader-framed message size, in bytes")
	flags.Int("send-buffer-size", d.SendBufferSize, "per-connection send buffer size, in bytes")

	for _, name := range []string{
		"listen-address", "metrics-address", "log-level",
		"greeting-timeout", "heartbeat-interval", "max-message-size", "send-buffer-size",
	} {
		if err := v.BindPFlag(toConfigKey(name), flags.Lookup(name)); err != nil {
			return err
		}
	}
	return nil
}

func toConfigKey(flagName string) string {
	out := make([]byte, 0, len(flagName))
	for i := 0; i < len(flagName); i++ {
		if flagName[i] == '-' {
			out = append(out, '_')
			continue
		}
		out = append(out, flagName[i])
	}
	return string(out)
}

// Load reads an optional YAML config file at path (skipped if empty or
// missing) into v, applies environment variable overrides prefixed
// APXD_, and unmarshals the result over Defaults().
func Load(v *viper.Viper, path string) (Config, error) {
	cfg := Defaults()

	v.SetEnvPrefix("APXD")
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok && !errors.Is(err, fs.ErrNotExist) {
				return cfg, err
			}
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// WriteDefaultConfig renders cfg as YAML, for `apxd config init`-style
// scaffolding of a starter config file.
func WriteDefaultConfig(cfg Config) ([]byte, error) {
	return yaml.Marshal(cfg)
}
