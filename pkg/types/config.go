package types

// ProjectConfig is the top-level guildmetrics.yaml configuration.
type ProjectConfig struct {
	Discord DiscordConfig `yaml:"discord" json:"discord"`
	Plugins PluginsConfig `yaml:"plugins" json:"plugins"`
	Log     LogConfig     `yaml:"log" json:"log"`
}

// DiscordConfig holds gateway connection settings.
type DiscordConfig struct {
	Token string `yaml:"token" json:"-"`
	// GuildReadyTimeout is how long, in seconds, to wait for the guilds listed
	// in the Ready payload to stream in before declaring the host ready.
	GuildReadyTimeout int `yaml:"guildReadyTimeout,omitempty" json:"guildReadyTimeout,omitempty"`
}

// PluginsConfig groups plugin sections. Only prometheus is recognised.
type PluginsConfig struct {
	Prometheus PrometheusConfig `yaml:"prometheus" json:"prometheus"`
}

// PrometheusConfig holds the exporter settings. Intervals are in seconds.
type PrometheusConfig struct {
	PollingInterval       int `yaml:"polling_interval" json:"pollingInterval"`
	RecalibrationInterval int `yaml:"recalibration_interval" json:"recalibrationInterval"`
	ExporterPort          int `yaml:"exporter_port" json:"exporterPort"`
	ReactionGrace         int `yaml:"reaction_grace,omitempty" json:"reactionGrace,omitempty"`
}

// LogConfig selects the process logger.
type LogConfig struct {
	Level  LogLevel  `yaml:"level,omitempty" json:"level,omitempty"`
	Format LogFormat `yaml:"format,omitempty" json:"format,omitempty"`
}
