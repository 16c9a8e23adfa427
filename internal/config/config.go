// Package config handles loading and validation of guildmetrics.yaml.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/dwsmith1983/guildmetrics/pkg/types"
)

// DefaultPath is the configuration file read when no path is given.
const DefaultPath = "guildmetrics.yaml"

// TokenEnv overrides discord.token when set.
const TokenEnv = "DISCORD_TOKEN"

const (
	defaultPollingInterval       = 60
	defaultRecalibrationInterval = 3600
	defaultReactionGrace         = 10
	defaultGuildReadyTimeout     = 2
)

// intOption decodes an integer that may be written as a YAML int or as a
// quoted string. Decode failures are recorded rather than returned so that
// validation can name the offending key.
type intOption struct {
	set   bool
	valid bool
	raw   string
	value int
}

func (o *intOption) UnmarshalYAML(node *yaml.Node) error {
	o.set = true
	o.raw = node.Value
	if node.Kind != yaml.ScalarNode {
		o.raw = fmt.Sprintf("<%s>", kindName(node.Kind))
		return nil
	}
	v, err := strconv.Atoi(strings.TrimSpace(node.Value))
	if err != nil {
		return nil
	}
	o.value = v
	o.valid = true
	return nil
}

func kindName(k yaml.Kind) string {
	switch k {
	case yaml.MappingNode:
		return "mapping"
	case yaml.SequenceNode:
		return "sequence"
	default:
		return "value"
	}
}

// rawConfig mirrors types.ProjectConfig with lenient integer fields.
type rawConfig struct {
	Discord struct {
		Token             string    `yaml:"token"`
		GuildReadyTimeout intOption `yaml:"guildReadyTimeout"`
	} `yaml:"discord"`
	Plugins struct {
		Prometheus struct {
			PollingInterval       intOption `yaml:"polling_interval"`
			RecalibrationInterval intOption `yaml:"recalibration_interval"`
			ExporterPort          intOption `yaml:"exporter_port"`
			ReactionGrace         intOption `yaml:"reaction_grace"`
		} `yaml:"prometheus"`
	} `yaml:"plugins"`
	Log types.LogConfig `yaml:"log"`
}

// Load reads and parses the configuration file at path.
func Load(path string) (*types.ProjectConfig, error) {
	if path == "" {
		path = DefaultPath
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates configuration bytes. DISCORD_TOKEN, when set,
// replaces discord.token.
func Parse(data []byte) (*types.ProjectConfig, error) {
	var raw rawConfig
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	cfg, err := resolve(&raw)
	if err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	if tok := os.Getenv(TokenEnv); tok != "" {
		cfg.Discord.Token = tok
	}
	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

func resolve(raw *rawConfig) (*types.ProjectConfig, error) {
	prom := raw.Plugins.Prometheus

	polling, err := intValue("plugins.prometheus.polling_interval", prom.PollingInterval, defaultPollingInterval)
	if err != nil {
		return nil, err
	}
	recal, err := intValue("plugins.prometheus.recalibration_interval", prom.RecalibrationInterval, defaultRecalibrationInterval)
	if err != nil {
		return nil, err
	}
	if !prom.ExporterPort.set {
		return nil, fmt.Errorf("plugins.prometheus.exporter_port is required")
	}
	port, err := intValue("plugins.prometheus.exporter_port", prom.ExporterPort, 0)
	if err != nil {
		return nil, err
	}
	grace, err := intValue("plugins.prometheus.reaction_grace", prom.ReactionGrace, defaultReactionGrace)
	if err != nil {
		return nil, err
	}
	readyTimeout, err := intValue("discord.guildReadyTimeout", raw.Discord.GuildReadyTimeout, defaultGuildReadyTimeout)
	if err != nil {
		return nil, err
	}

	cfg := &types.ProjectConfig{
		Discord: types.DiscordConfig{
			Token:             raw.Discord.Token,
			GuildReadyTimeout: readyTimeout,
		},
		Plugins: types.PluginsConfig{
			Prometheus: types.PrometheusConfig{
				PollingInterval:       polling,
				RecalibrationInterval: recal,
				ExporterPort:          port,
				ReactionGrace:         grace,
			},
		},
		Log: raw.Log,
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = types.LogInfo
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = types.LogText
	}
	return cfg, nil
}

func intValue(key string, o intOption, def int) (int, error) {
	if !o.set {
		return def, nil
	}
	if !o.valid {
		return 0, fmt.Errorf("%s must be an integer, got %q", key, o.raw)
	}
	return o.value, nil
}

func validate(cfg *types.ProjectConfig) error {
	prom := cfg.Plugins.Prometheus
	if prom.PollingInterval <= 0 {
		return fmt.Errorf("plugins.prometheus.polling_interval must be positive")
	}
	if prom.RecalibrationInterval <= 0 {
		return fmt.Errorf("plugins.prometheus.recalibration_interval must be positive")
	}
	if prom.ExporterPort < 1 || prom.ExporterPort > 65535 {
		return fmt.Errorf("plugins.prometheus.exporter_port must be between 1 and 65535")
	}
	if prom.ReactionGrace < 0 {
		return fmt.Errorf("plugins.prometheus.reaction_grace must not be negative")
	}
	if cfg.Discord.GuildReadyTimeout < 0 {
		return fmt.Errorf("discord.guildReadyTimeout must not be negative")
	}
	if cfg.Discord.Token == "" {
		return fmt.Errorf("discord.token is required (or set %s)", TokenEnv)
	}
	switch cfg.Log.Level {
	case types.LogDebug, types.LogInfo, types.LogWarn, types.LogError:
	default:
		return fmt.Errorf("unsupported log.level: %s", cfg.Log.Level)
	}
	switch cfg.Log.Format {
	case types.LogText, types.LogJSON:
	default:
		return fmt.Errorf("unsupported log.format: %s", cfg.Log.Format)
	}
	return nil
}
