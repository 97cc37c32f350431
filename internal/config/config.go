// Package config loads and validates the engine's configuration
// (spec.md 6), and hosts the atomic station-position snapshot that
// message 1005/1006 updates at runtime.
package config

import (
	"fmt"
	"os"
	"sync/atomic"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/bramburn/gnssproc/internal/solver"
)

// Transport selects how the RTCM byte stream is obtained.
type Transport struct {
	Kind string `yaml:"kind" validate:"required,oneof=ntrip serial"`

	CasterURL  string `yaml:"caster_url,omitempty"`
	Mountpoint string `yaml:"mountpoint,omitempty"`
	Username   string `yaml:"username,omitempty"`
	Password   string `yaml:"password,omitempty"`

	PortName string `yaml:"port_name,omitempty"`
	BaudRate int    `yaml:"baud_rate,omitempty"`
}

// Config is the engine's full runtime configuration (spec.md 6's
// option table plus the ambient transport fields this design adds).
type Config struct {
	Transport Transport `yaml:"transport" validate:"required"`

	ApproxRecPosECEF   [3]float64 `yaml:"approx_rec_pos"`
	TargetSystems      string     `yaml:"target_systems" validate:"required"`
	CutoffElevationDeg float64    `yaml:"cutoff_elevation_deg" validate:"gte=0,lte=90"`
	MinSatellites      int        `yaml:"min_satellites" validate:"gte=4"`
	WeightMode         string     `yaml:"weight_mode" validate:"oneof=equal elevation snr"`
	SmoothingWindow    int        `yaml:"smoothing_window" validate:"gte=0"`

	RecorderPath string `yaml:"recorder_path,omitempty"`
	LogLevel     string `yaml:"log_level" validate:"omitempty,oneof=debug info warn error"`
	MetricsAddr  string `yaml:"metrics_addr,omitempty"`
}

// Default returns the spec-mandated defaults (spec.md 6).
func Default() Config {
	return Config{
		TargetSystems:      "GREC",
		CutoffElevationDeg: 10,
		MinSatellites:      4,
		WeightMode:         "equal",
		LogLevel:           "info",
	}
}

var validate = validator.New()

// Load reads and validates a YAML configuration file.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: reading %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	if err := validate.Struct(cfg); err != nil {
		return Config{}, fmt.Errorf("config: invalid configuration: %w", err)
	}
	return cfg, nil
}

// TargetSystemSet returns the configured systems as a lookup set keyed
// by the system letter (spec.md 6, target_systems).
func (c Config) TargetSystemSet() map[byte]bool {
	set := make(map[byte]bool, len(c.TargetSystems))
	for i := 0; i < len(c.TargetSystems); i++ {
		set[c.TargetSystems[i]] = true
	}
	return set
}

// SolverConfig projects the positioning-relevant fields into a
// solver.Config.
func (c Config) SolverConfig() solver.Config {
	return solver.Config{
		MinSatellites:      c.MinSatellites,
		CutoffElevationDeg: c.CutoffElevationDeg,
		WeightMode:         solver.WeightMode(c.WeightMode),
		ApproxRecPosECEF:   c.ApproxRecPosECEF,
	}
}

// Snapshot is an atomically-updatable cell holding the current
// approximate receiver position, replacing the teacher's (and the
// original Python global_config module's) shared mutable singleton
// with a value threaded explicitly through constructors (spec.md 9).
type Snapshot struct {
	v atomic.Value // holds [3]float64
}

// NewSnapshot creates a Snapshot seeded with the given ECEF position.
func NewSnapshot(initial [3]float64) *Snapshot {
	s := &Snapshot{}
	s.v.Store(initial)
	return s
}

// Set updates the approximate receiver position, e.g. on receipt of an
// RTCM message 1005/1006.
func (s *Snapshot) Set(ecef [3]float64) {
	s.v.Store(ecef)
}

// Get returns the current approximate receiver position.
func (s *Snapshot) Get() [3]float64 {
	return s.v.Load().([3]float64)
}

// HasFix reports whether the snapshot holds a non-zero position
// (spec.md 6: "solver refuses to run if all zeros and no station
// 1005/1006 received").
func (s *Snapshot) HasFix() bool {
	ecef := s.Get()
	return ecef[0] != 0 || ecef[1] != 0 || ecef[2] != 0
}
