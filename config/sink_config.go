package config

import "logevent/sink"

type ConsoleSinkConfig struct {
	Enabled bool `toml:"enabled" yaml:"enabled"`
}

type FileSinkConfig struct {
	Enabled bool   `toml:"enabled" yaml:"enabled"`
	Path    string `toml:"path" yaml:"path"`
}

type MysqlSinkConfig struct {
	Enabled  bool   `toml:"enabled" yaml:"enabled"`
	Addr     string `toml:"addr" yaml:"addr"`
	User     string `toml:"user" yaml:"user"`
	Password string `toml:"pass" yaml:"pass"`
	Database string `toml:"database" yaml:"database"`
	Table    string `toml:"table" yaml:"table"`
}

// SinkConfig converts to the sink package's connection settings.
func (c MysqlSinkConfig) SinkConfig() sink.MysqlSinkConfig {
	return sink.MysqlSinkConfig{
		Addr:     c.Addr,
		User:     c.User,
		Password: c.Password,
		Database: c.Database,
		Table:    c.Table,
	}
}
