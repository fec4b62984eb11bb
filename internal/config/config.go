// Package config loads the estimator's startup configuration: trigger and
// monitor parameters plus the training-sequence file paths, from YAML.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/venkat-chanest/ofdm-chanest/internal/monitor"
	"github.com/venkat-chanest/ofdm-chanest/internal/training"
	"github.com/venkat-chanest/ofdm-chanest/internal/trigger"
)

// Config is the full on-disk configuration shape.
type Config struct {
	Trigger TriggerConfig `yaml:"trigger"`
	Monitor MonitorSettings `yaml:"monitor"`
	STS     string        `yaml:"sts"`
	LTS     string        `yaml:"lts"`
}

// TriggerConfig mirrors trigger.Config for YAML decoding.
type TriggerConfig struct {
	StabilizeSamps uint64  `yaml:"stabilize_samps"`
	PowerTrig      float32 `yaml:"power_trig"`
	PktSpacing     uint64  `yaml:"pkt_spacing"`
}

// MonitorSettings mirrors the monitor-only knobs.
type MonitorSettings struct {
	NumRepeats uint64  `yaml:"num_repeats"`
	DutyCycle  float32 `yaml:"duty_cycle"`
}

// Load reads and validates a YAML config file. It does not load the
// training sequences themselves — call BuildStore for that, since it
// requires disk I/O a caller may want to defer or mock.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}

	if cfg.STS == "" {
		return nil, fmt.Errorf("config: sts path is required")
	}
	if cfg.LTS == "" {
		return nil, fmt.Errorf("config: lts path is required")
	}
	if cfg.Monitor.DutyCycle <= 0 || cfg.Monitor.DutyCycle > 1 {
		return nil, fmt.Errorf("config: duty_cycle %v must be in (0, 1]", cfg.Monitor.DutyCycle)
	}

	return &cfg, nil
}

// BuildStore loads the STS/LTS files named in the config and derives the
// shared training.Store.
func (c *Config) BuildStore() (*training.Store, error) {
	sts, err := training.LoadSequenceFile(c.STS)
	if err != nil {
		return nil, err
	}
	lts, err := training.LoadSequenceFile(c.LTS)
	if err != nil {
		return nil, err
	}
	return training.NewStore(sts, lts)
}

// TriggerParams converts the YAML trigger block to trigger.Config.
func (c *Config) TriggerParams() trigger.Config {
	return trigger.Config{
		StabilizeSamps: c.Trigger.StabilizeSamps,
		PowerTrig:      c.Trigger.PowerTrig,
		PktSpacing:     c.Trigger.PktSpacing,
	}
}

// MonitorConfig assembles a monitor.Config from the loaded settings and a
// previously built training.Store.
func (c *Config) MonitorConfig(store *training.Store) monitor.Config {
	return monitor.Config{
		Trigger:    c.TriggerParams(),
		Store:      store,
		NumRepeats: c.Monitor.NumRepeats,
		DutyCycle:  c.Monitor.DutyCycle,
	}
}
