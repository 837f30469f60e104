package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/san-kum/monte/internal/analysis"
	"github.com/san-kum/monte/internal/campaign"
	"github.com/san-kum/monte/internal/monte"
	"github.com/san-kum/monte/internal/sampling"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Model.Name != "chain" {
		t.Errorf("expected model chain, got %s", cfg.Model.Name)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
	if cfg.Campaign.NStates <= 0 {
		t.Error("n_states should be positive")
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")
	data := `
name: sweep
sampling:
  mode: by_time
  method: log
  schedule: [0, 2, 1]
  observables: [energy]
completion:
  check_begin: 10
  check_frequency: 10
  estimator: autocorrelation
  criteria:
    - observable: energy
      precision: 0.01
  cutoff:
    min_count: 100
    max_count: 1000000
    max_clocktime: 90s
campaign:
  initial_conditions:
    temperature: 2
    field: 0.5
  increment:
    temperature: -0.1
    field: 0
  n_states: 4
  dependent_runs: false
on_evaluation_error: skip
`
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	if cfg.Sampling.Mode != sampling.ByTime || cfg.Sampling.Method != sampling.Log {
		t.Errorf("sampling mode/method = %s/%s", cfg.Sampling.Mode, cfg.Sampling.Method)
	}
	if diff := cmp.Diff([]float64{0, 2, 1}, cfg.Sampling.Schedule); diff != "" {
		t.Errorf("schedule (-want +got):\n%s", diff)
	}
	if cfg.Completion.Estimator != analysis.IntegratedAutocorrelation {
		t.Errorf("estimator = %s", cfg.Completion.Estimator)
	}
	if cfg.Completion.Cutoff.MaxClocktime.Seconds() != 90 {
		t.Errorf("max_clocktime = %s, want 90s", cfg.Completion.Cutoff.MaxClocktime)
	}
	if got := cfg.Campaign.InitialConditions.Names(); !cmp.Equal(got, []string{"temperature", "field"}) {
		t.Errorf("condition order = %v", got)
	}
	if cfg.OnEvaluationError != campaign.Skip {
		t.Errorf("on_evaluation_error = %s, want skip", cfg.OnEvaluationError)
	}
	// Unset keys keep their defaults.
	if cfg.Model.Sites != DefaultSites || cfg.DataDir != DefaultDataDir {
		t.Errorf("defaults lost: sites=%d data_dir=%s", cfg.Model.Sites, cfg.DataDir)
	}
}

func TestSaveLoadPreservesConditions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "saved.yaml")
	cfg := GetPreset("chain", "field_sweep")
	if err := Save(path, cfg); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !got.Campaign.Increment.Equal(cfg.Campaign.Increment, 0) {
		t.Errorf("increment = %s, want %s", got.Campaign.Increment, cfg.Campaign.Increment)
	}
	if diff := cmp.Diff(cfg.Completion.Criteria, got.Completion.Criteria); diff != "" {
		t.Errorf("criteria (-want +got):\n%s", diff)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown model", func(c *Config) { c.Model.Name = "pendulum" }},
		{"no sites", func(c *Config) { c.Model.Sites = 0 }},
		{"bad schedule", func(c *Config) { c.Sampling.Schedule = []float64{1} }},
		{"no states", func(c *Config) { c.Campaign.NStates = 0 }},
		{"increment names", func(c *Config) {
			c.Campaign.Increment = monte.NewConditions(monte.Cond("temperature", 1))
		}},
		{"no temperature", func(c *Config) {
			c.Campaign.InitialConditions = monte.NewConditions(monte.Cond("field", 1))
			c.Campaign.Increment = monte.NewConditions(monte.Cond("field", 0))
		}},
		{"log level", func(c *Config) { c.LogLevel = "verbose" }},
		{"storage", func(c *Config) { c.Storage = "postgres" }},
		{"workers", func(c *Config) { c.Workers = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); !errors.Is(err, monte.ErrConfiguration) {
				t.Errorf("got %v, want ErrConfiguration", err)
			}
		})
	}
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("MONTE_DATA_DIR", "/tmp/monte")
	t.Setenv("MONTE_WORKERS", "4")
	t.Setenv("MONTE_STORAGE", StorageSQLite)

	cfg := DefaultConfig()
	if err := cfg.ApplyEnv(); err != nil {
		t.Fatalf("ApplyEnv: %v", err)
	}
	if cfg.DataDir != "/tmp/monte" || cfg.Workers != 4 || cfg.Storage != StorageSQLite {
		t.Errorf("overrides not applied: %+v", cfg)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("unset MONTE_LOG_LEVEL changed log level to %q", cfg.LogLevel)
	}

	t.Setenv("MONTE_WORKERS", "many")
	if err := DefaultConfig().ApplyEnv(); err == nil {
		t.Error("expected error for non-numeric MONTE_WORKERS")
	}
}

func TestGetPreset(t *testing.T) {
	cfg := GetPreset("chain", "quick")
	if cfg == nil {
		t.Fatal("expected preset, got nil")
	}
	if cfg.Model.Sites != 32 {
		t.Errorf("expected 32 sites, got %d", cfg.Model.Sites)
	}
	cfg.Model.Sites = 1
	if GetPreset("chain", "quick").Model.Sites != 32 {
		t.Error("preset shared between calls")
	}
}

func TestGetPreset_NotFound(t *testing.T) {
	if cfg := GetPreset("chain", "nonexistent"); cfg != nil {
		t.Error("expected nil for nonexistent preset")
	}
	if cfg := GetPreset("nonexistent", "quick"); cfg != nil {
		t.Error("expected nil for nonexistent model")
	}
}

func TestPresetsValid(t *testing.T) {
	for _, name := range ListPresets("chain") {
		t.Run(name, func(t *testing.T) {
			if err := GetPreset("chain", name).Validate(); err != nil {
				t.Errorf("preset %s invalid: %v", name, err)
			}
		})
	}
	if presets := ListPresets("nonexistent"); presets != nil {
		t.Error("expected nil for nonexistent model")
	}
}

func TestInitialState(t *testing.T) {
	cfg := DefaultConfig()
	s := cfg.InitialState()
	if s.Configuration.Len() != DefaultSites {
		t.Errorf("sites = %d", s.Configuration.Len())
	}
	if s.Configuration.Magnetization() != 1 {
		t.Error("ordered start should be all A")
	}
	s.Conditions = s.Conditions.With("temperature", 9)
	if cfg.Campaign.InitialConditions.Value("temperature") == 9 {
		t.Error("initial state shares conditions with config")
	}
}
