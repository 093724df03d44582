package config

import (
	"io/ioutil"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/juju/errors"
	"gopkg.in/yaml.v3"

	"logevent/publisher"
	"logevent/sink"
)

const (
	DefaultLogLevel   = "info"
	DefaultLogDir     = "./logs"
	DefaultFilePath   = sink.DefaultFilePath
	DefaultTimeLayout = sink.DefaultTimeLayout
	DefaultAdminAddr  = "127.0.0.1:8090"
)

// LogEventConfig is the configuration of the logevent process.
type LogEventConfig struct {
	PublisherName string `toml:"publisher_name" yaml:"publisher_name"`
	FaultPolicy   string `toml:"fault_policy" yaml:"fault_policy"`
	TimeLayout    string `toml:"time_layout" yaml:"time_layout"`

	Console ConsoleSinkConfig `toml:"console" yaml:"console"`
	File    FileSinkConfig    `toml:"file" yaml:"file"`
	Mysql   MysqlSinkConfig   `toml:"mysql" yaml:"mysql"`

	AdminAddr   string `toml:"admin_addr" yaml:"admin_addr"`
	MetricsAddr string `toml:"metrics_addr" yaml:"metrics_addr"`
	MetricsFile string `toml:"metrics_file" yaml:"metrics_file"`
	LogDir      string `toml:"log_dir" yaml:"log_dir"`
	LogLevel    string `toml:"log_level" yaml:"log_level"`
}

// NewDefaultConfig returns the configuration of a run without a config file: console
// and file sinks enabled, file sink appending to log.txt.
func NewDefaultConfig() *LogEventConfig {
	return &LogEventConfig{
		PublisherName: "logevent",
		FaultPolicy:   publisher.Abort.String(),
		TimeLayout:    DefaultTimeLayout,
		Console:       ConsoleSinkConfig{Enabled: true},
		File:          FileSinkConfig{Enabled: true, Path: DefaultFilePath},
		Mysql:         MysqlSinkConfig{Table: "log_events"},
		AdminAddr:     DefaultAdminAddr,
		LogDir:        DefaultLogDir,
		LogLevel:      DefaultLogLevel,
	}
}

// NewLogEventConfig reads the config file at configPath. Files ending in .yaml or .yml
// are decoded as YAML, everything else as TOML.
func NewLogEventConfig(configPath string) (*LogEventConfig, error) {
	if len(configPath) == 0 {
		return nil, errors.New("config.NewLogEventConfig error, err: configpath is nil")
	}

	data, err := ioutil.ReadFile(configPath)
	if err != nil {
		return nil, errors.Trace(err)
	}

	switch strings.ToLower(filepath.Ext(configPath)) {
	case ".yaml", ".yml":
		return NewYAMLConfig(data)
	}
	return NewConfig(string(data))
}

// NewConfig creates a Config from TOML data, on top of the defaults.
func NewConfig(data string) (*LogEventConfig, error) {
	cfg := NewDefaultConfig()

	if _, err := toml.Decode(data, cfg); err != nil {
		return nil, errors.Trace(err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Trace(err)
	}
	return cfg, nil
}

// NewYAMLConfig creates a Config from YAML data, on top of the defaults.
func NewYAMLConfig(data []byte) (*LogEventConfig, error) {
	cfg := NewDefaultConfig()

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Trace(err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Trace(err)
	}
	return cfg, nil
}

// Validate checks settings that would otherwise only fail at dispatch time.
func (c *LogEventConfig) Validate() error {
	if _, err := c.Policy(); err != nil {
		return errors.Annotate(err, "fault_policy")
	}
	if c.File.Enabled && len(c.File.Path) == 0 {
		return errors.New("file sink enabled without path")
	}
	if c.Mysql.Enabled && len(c.Mysql.Addr) == 0 {
		return errors.New("mysql sink enabled without addr")
	}
	return nil
}

// Policy returns the parsed fault policy.
func (c *LogEventConfig) Policy() (publisher.FaultPolicy, error) {
	return publisher.ParseFaultPolicy(c.FaultPolicy)
}
