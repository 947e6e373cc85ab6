package config

import (
	"net"
	"strconv"
	"time"
)

// Render formats.
const (
	FormatTable = "table"
	FormatJSON  = "json"
	FormatYAML  = "yaml"
)

// Config is the complete hostwatch configuration shared by the collector and
// the agent. Each command reads only the sections it needs.
type Config struct {
	Listen    ListenConfig    `yaml:"listen" mapstructure:"listen"`
	Collector CollectorConfig `yaml:"collector" mapstructure:"collector"`
	Render    RenderConfig    `yaml:"render" mapstructure:"render"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
	Agent     AgentConfig     `yaml:"agent" mapstructure:"agent"`
}

// ListenConfig controls where the collector accepts agent connections.
type ListenConfig struct {
	// Host to bind. Empty binds all interfaces.
	Host string `yaml:"host" mapstructure:"host"`

	// Port to bind. 0 picks an ephemeral port.
	Port int `yaml:"port" mapstructure:"port"`

	// ProxyProtocol accepts a PROXY protocol header from a load balancer in
	// front of the collector.
	ProxyProtocol bool `yaml:"proxy_protocol" mapstructure:"proxy_protocol"`
}

// Address returns host:port for net.Listen.
func (l ListenConfig) Address() string {
	return net.JoinHostPort(l.Host, strconv.Itoa(l.Port))
}

// CollectorConfig bounds the collector's resource usage.
type CollectorConfig struct {
	// MaxHosts is the number of distinct host ids the registry will hold.
	MaxHosts int `yaml:"max_hosts" mapstructure:"max_hosts"`

	// MaxLineLength is the longest line, in bytes, a session will buffer
	// before dropping the connection.
	MaxLineLength int `yaml:"max_line_length" mapstructure:"max_line_length"`

	// IdleTimeout closes sessions that send nothing for this long. 0 disables it.
	IdleTimeout time.Duration `yaml:"idle_timeout" mapstructure:"idle_timeout"`
}

// RenderConfig controls the periodic snapshot output.
type RenderConfig struct {
	Interval time.Duration `yaml:"interval" mapstructure:"interval"`
	Format   string        `yaml:"format" mapstructure:"format"`

	// Clear redraws in place when stdout is a terminal.
	Clear bool `yaml:"clear" mapstructure:"clear"`

	// Stats adds an ingestion summary below the table.
	Stats bool `yaml:"stats" mapstructure:"stats"`
}

// LogConfig controls log verbosity and encoding.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// AgentConfig controls the metrics agent.
type AgentConfig struct {
	// Interval between samples.
	Interval time.Duration `yaml:"interval" mapstructure:"interval"`

	// RetryInterval is the fixed wait between reconnect attempts.
	RetryInterval time.Duration `yaml:"retry_interval" mapstructure:"retry_interval"`

	DialTimeout time.Duration `yaml:"dial_timeout" mapstructure:"dial_timeout"`

	// Metrics lists the groups to send: cpu, mem.
	Metrics []string `yaml:"metrics" mapstructure:"metrics"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Listen: ListenConfig{
			Port: 7070,
		},
		Collector: CollectorConfig{
			MaxHosts:      64,
			MaxLineLength: 4096,
		},
		Render: RenderConfig{
			Interval: 2 * time.Second,
			Format:   FormatTable,
			Clear:    true,
			Stats:    true,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Agent: AgentConfig{
			Interval:      time.Second,
			RetryInterval: 2 * time.Second,
			DialTimeout:   5 * time.Second,
			Metrics:       []string{"cpu", "mem"},
		},
	}
}
