package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rileyhilliard/hostwatch/internal/errors"
	"github.com/spf13/viper"
)

const (
	// ConfigFileName is the config file looked up in the working directory.
	ConfigFileName = "hostwatch.yaml"
	// GlobalConfigDir is the per-user config directory under $HOME.
	GlobalConfigDir = ".config/hostwatch"
	// GlobalConfigFile is the per-user config file name.
	GlobalConfigFile = "config.yaml"
	// EnvPrefix prefixes every environment override, e.g. HOSTWATCH_LISTEN_PORT.
	EnvPrefix = "HOSTWATCH"
)

// Load builds the configuration from defaults, an optional config file, a .env
// file in the working directory and HOSTWATCH_* environment variables, in
// increasing order of precedence.
//
// An explicit path must exist. With an empty path the file is searched for
// with Find and silently skipped when absent.
func Load(path string) (*Config, error) {
	// A missing .env is the normal case.
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	found, err := Find(path)
	if err != nil {
		return nil, err
	}

	if found != "" {
		v.SetConfigFile(found)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.WrapWithCode(err, errors.ErrConfig,
				"Failed to read config file "+found,
				"Check the file exists and is valid YAML")
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrConfig,
			"Invalid config format",
			"Check the value types in "+displayPath(found))
	}

	for i, m := range cfg.Agent.Metrics {
		cfg.Agent.Metrics[i] = strings.ToLower(strings.TrimSpace(m))
	}

	return cfg, nil
}

// Find locates the config file using the search order:
// 1. Explicit path (from --config flag)
// 2. hostwatch.yaml in current directory
// 3. ~/.config/hostwatch/config.yaml
//
// Returns the path to the config file, or empty string if not found.
func Find(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			if os.IsNotExist(err) {
				return "", errors.WrapWithCode(err, errors.ErrConfig,
					"Specified config file not found: "+explicit,
					"Check the path is correct")
			}
			return "", errors.WrapWithCode(err, errors.ErrConfig,
				"Cannot access config file: "+explicit,
				"Check file permissions")
		}
		return explicit, nil
	}

	if cwd, err := os.Getwd(); err == nil {
		local := filepath.Join(cwd, ConfigFileName)
		if _, err := os.Stat(local); err == nil {
			return local, nil
		}
	}

	if home, err := os.UserHomeDir(); err == nil && home != "" {
		global := filepath.Join(home, GlobalConfigDir, GlobalConfigFile)
		if _, err := os.Stat(global); err == nil {
			return global, nil
		}
	}

	return "", nil
}

// setDefaults registers every key with viper. AutomaticEnv only resolves keys
// viper already knows about, so each field needs a default here.
func setDefaults(v *viper.Viper) {
	d := DefaultConfig()

	v.SetDefault("listen.host", d.Listen.Host)
	v.SetDefault("listen.port", d.Listen.Port)
	v.SetDefault("listen.proxy_protocol", d.Listen.ProxyProtocol)

	v.SetDefault("collector.max_hosts", d.Collector.MaxHosts)
	v.SetDefault("collector.max_line_length", d.Collector.MaxLineLength)
	v.SetDefault("collector.idle_timeout", d.Collector.IdleTimeout)

	v.SetDefault("render.interval", d.Render.Interval)
	v.SetDefault("render.format", d.Render.Format)
	v.SetDefault("render.clear", d.Render.Clear)
	v.SetDefault("render.stats", d.Render.Stats)

	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)

	v.SetDefault("agent.interval", d.Agent.Interval)
	v.SetDefault("agent.retry_interval", d.Agent.RetryInterval)
	v.SetDefault("agent.dial_timeout", d.Agent.DialTimeout)
	v.SetDefault("agent.metrics", d.Agent.Metrics)
}

func displayPath(p string) string {
	if p == "" {
		return "your environment variables"
	}
	return p
}
