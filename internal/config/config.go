// Package config loads the screener configuration file. Fields map
// 1:1 to configs/screener.yaml; SCREENER_* environment variables
// override the file, and absent fields fall back to defaults.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Default values applied when fields are absent from the config file.
const (
	DefaultDangerThresholdKm = 100.0
	DefaultSafetyMarginKm    = 25.0
	DefaultCadence           = time.Minute
	DefaultSamples           = 180
	DefaultMaxDeltaVMs       = 10.0
	DefaultMaxIterations     = 100
	DefaultMetricsAddr       = ":9090"
)

// Config is the top-level screener configuration.
type Config struct {
	Screening ScreeningConfig `yaml:"screening"`
	Maneuver  ManeuverConfig  `yaml:"maneuver"`
	Model     ModelConfig     `yaml:"model"`
	Metrics   MetricsConfig   `yaml:"metrics"`
}

// ScreeningConfig holds the propagation window and flagging threshold.
type ScreeningConfig struct {
	// DangerThresholdKm flags a pair when its minimum separation
	// falls below this distance.
	DangerThresholdKm float64 `yaml:"danger_threshold_km"`

	// Cadence is the spacing between trajectory samples.
	Cadence time.Duration `yaml:"cadence"`

	// Samples is the number of states propagated per object.
	Samples int `yaml:"samples"`

	// IncludeDebrisPairs also screens debris against debris. Off by
	// default: neither side of such a pair can maneuver.
	IncludeDebrisPairs bool `yaml:"include_debris_pairs"`
}

// ManeuverConfig holds the planner knobs.
type ManeuverConfig struct {
	// Enabled turns on avoidance planning for flagged events under
	// the safety margin.
	Enabled bool `yaml:"enabled"`

	// SafetyMarginKm is the miss distance a plan must restore.
	SafetyMarginKm float64 `yaml:"safety_margin_km"`

	// MaxDeltaVMs bounds the burn magnitude in m/s.
	MaxDeltaVMs float64 `yaml:"max_delta_v_ms"`

	// MaxIterations caps the optimizer.
	MaxIterations int `yaml:"max_iterations"`
}

// ModelConfig points at the trained risk artifact. An empty path
// selects the rule-based fallback classifier.
type ModelConfig struct {
	ArtifactPath string `yaml:"artifact_path"`

	// WatchArtifact reloads the artifact on change (watch mode only).
	WatchArtifact bool `yaml:"watch_artifact"`
}

// MetricsConfig controls the Prometheus listener.
type MetricsConfig struct {
	ListenAddr string `yaml:"listen_addr"`
}

// Default returns a fully populated configuration.
func Default() *Config {
	return &Config{
		Screening: ScreeningConfig{
			DangerThresholdKm: DefaultDangerThresholdKm,
			Cadence:           DefaultCadence,
			Samples:           DefaultSamples,
		},
		Maneuver: ManeuverConfig{
			SafetyMarginKm: DefaultSafetyMarginKm,
			MaxDeltaVMs:    DefaultMaxDeltaVMs,
			MaxIterations:  DefaultMaxIterations,
		},
		Metrics: MetricsConfig{ListenAddr: DefaultMetricsAddr},
	}
}

// Load reads and validates the YAML file at path, filling absent
// fields with defaults.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

// applyEnvOverrides lets SCREENER_* environment variables override the
// file, matching the prefix the tracing setup reads. An unset variable
// leaves the file value alone; a malformed one fails the load.
func (c *Config) applyEnvOverrides() error {
	if err := envFloat("SCREENER_DANGER_THRESHOLD_KM", &c.Screening.DangerThresholdKm); err != nil {
		return err
	}
	if err := envDuration("SCREENER_CADENCE", &c.Screening.Cadence); err != nil {
		return err
	}
	if err := envInt("SCREENER_SAMPLES", &c.Screening.Samples); err != nil {
		return err
	}
	if err := envFloat("SCREENER_SAFETY_MARGIN_KM", &c.Maneuver.SafetyMarginKm); err != nil {
		return err
	}
	if err := envFloat("SCREENER_MAX_DELTA_V_MS", &c.Maneuver.MaxDeltaVMs); err != nil {
		return err
	}
	if err := envInt("SCREENER_MAX_ITERATIONS", &c.Maneuver.MaxIterations); err != nil {
		return err
	}
	if v, ok := os.LookupEnv("SCREENER_MODEL_ARTIFACT"); ok {
		c.Model.ArtifactPath = v
	}
	if v, ok := os.LookupEnv("SCREENER_METRICS_ADDR"); ok {
		c.Metrics.ListenAddr = v
	}
	return nil
}

func envFloat(name string, dst *float64) error {
	v, ok := os.LookupEnv(name)
	if !ok {
		return nil
	}
	parsed, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fmt.Errorf("parse %s=%q: %v", name, v, err)
	}
	*dst = parsed
	return nil
}

func envInt(name string, dst *int) error {
	v, ok := os.LookupEnv(name)
	if !ok {
		return nil
	}
	parsed, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("parse %s=%q: %v", name, v, err)
	}
	*dst = parsed
	return nil
}

func envDuration(name string, dst *time.Duration) error {
	v, ok := os.LookupEnv(name)
	if !ok {
		return nil
	}
	parsed, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("parse %s=%q: %v", name, v, err)
	}
	*dst = parsed
	return nil
}

// applyDefaults restores defaults for fields explicitly zeroed in the
// file; a zero threshold or cadence is never a usable setting.
func (c *Config) applyDefaults() {
	if c.Screening.DangerThresholdKm == 0 {
		c.Screening.DangerThresholdKm = DefaultDangerThresholdKm
	}
	if c.Screening.Cadence == 0 {
		c.Screening.Cadence = DefaultCadence
	}
	if c.Screening.Samples == 0 {
		c.Screening.Samples = DefaultSamples
	}
	if c.Maneuver.SafetyMarginKm == 0 {
		c.Maneuver.SafetyMarginKm = DefaultSafetyMarginKm
	}
	if c.Maneuver.MaxDeltaVMs == 0 {
		c.Maneuver.MaxDeltaVMs = DefaultMaxDeltaVMs
	}
	if c.Maneuver.MaxIterations == 0 {
		c.Maneuver.MaxIterations = DefaultMaxIterations
	}
	if c.Metrics.ListenAddr == "" {
		c.Metrics.ListenAddr = DefaultMetricsAddr
	}
}

// Validate rejects settings no run could work with.
func (c *Config) Validate() error {
	if c.Screening.DangerThresholdKm < 0 {
		return fmt.Errorf("screening.danger_threshold_km must be non-negative, got %v", c.Screening.DangerThresholdKm)
	}
	if c.Screening.Cadence < 0 {
		return fmt.Errorf("screening.cadence must be non-negative, got %v", c.Screening.Cadence)
	}
	if c.Screening.Samples < 0 {
		return fmt.Errorf("screening.samples must be non-negative, got %d", c.Screening.Samples)
	}
	if c.Maneuver.SafetyMarginKm < 0 {
		return fmt.Errorf("maneuver.safety_margin_km must be non-negative, got %v", c.Maneuver.SafetyMarginKm)
	}
	if c.Maneuver.MaxDeltaVMs < 0 {
		return fmt.Errorf("maneuver.max_delta_v_ms must be non-negative, got %v", c.Maneuver.MaxDeltaVMs)
	}
	if c.Model.WatchArtifact && c.Model.ArtifactPath == "" {
		return fmt.Errorf("model.watch_artifact requires model.artifact_path")
	}
	return nil
}
