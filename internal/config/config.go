package config

import (
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/monte/internal/campaign"
	"github.com/san-kum/monte/internal/completion"
	"github.com/san-kum/monte/internal/models"
	"github.com/san-kum/monte/internal/monte"
	"github.com/san-kum/monte/internal/sampling"
)

const (
	DefaultSites    = 64
	DefaultCoupling = 1.0
	DefaultDataDir  = "./runs"
	DefaultStates   = 5
)

// Storage backends.
const (
	StorageFiles  = "files"
	StorageSQLite = "sqlite"
)

type Config struct {
	Name       string            `yaml:"name"`
	Model      ModelConfig       `yaml:"model"`
	Sampling   sampling.Params   `yaml:"sampling"`
	Completion completion.Params `yaml:"completion"`
	Campaign   CampaignConfig    `yaml:"campaign"`

	OnEvaluationError campaign.FailurePolicy `yaml:"on_evaluation_error"`

	LogLevel string `yaml:"log_level"`
	DataDir  string `yaml:"data_dir"`
	Storage  string `yaml:"storage"`
	Workers  int    `yaml:"workers"`
}

type ModelConfig struct {
	Name     string  `yaml:"name"`
	Sites    int     `yaml:"sites"`
	Coupling float64 `yaml:"coupling"`
	Seed     int64   `yaml:"seed"`
	// Random starts from a random chain instead of all A.
	Random bool `yaml:"random"`
}

type CampaignConfig struct {
	InitialConditions monte.Conditions `yaml:"initial_conditions"`
	Increment         monte.Conditions `yaml:"increment"`
	NStates           int              `yaml:"n_states"`
	DependentRuns     bool             `yaml:"dependent_runs"`
}

// envOverrides are read from the environment after the file is loaded.
type envOverrides struct {
	DataDir  string `env:"MONTE_DATA_DIR"`
	LogLevel string `env:"MONTE_LOG_LEVEL"`
	Storage  string `env:"MONTE_STORAGE"`
	Workers  int    `env:"MONTE_WORKERS"`
}

func DefaultConfig() *Config {
	sp := sampling.DefaultParams()
	sp.Names = []string{"energy", "magnetization", "occupation"}

	cp := completion.DefaultParams()
	cp.CheckBegin = 100
	cp.CheckFrequency = 100
	cp.Cutoff.MinCount = 100
	cp.Cutoff.MaxCount = 100000
	cp.Criteria = []completion.Criterion{
		{Observable: "energy", Precision: 0.001},
	}

	return &Config{
		Name: "chain",
		Model: ModelConfig{
			Name:     "chain",
			Sites:    DefaultSites,
			Coupling: DefaultCoupling,
			Seed:     1,
		},
		Sampling:   sp,
		Completion: cp,
		Campaign: CampaignConfig{
			InitialConditions: monte.NewConditions(
				monte.Cond(models.Temperature, 0.5), monte.Cond(models.Field, 0)),
			Increment: monte.NewConditions(
				monte.Cond(models.Temperature, 0.5), monte.Cond(models.Field, 0)),
			NStates:       DefaultStates,
			DependentRuns: true,
		},
		LogLevel: "info",
		DataDir:  DefaultDataDir,
		Storage:  StorageFiles,
		Workers:  1,
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// ApplyEnv overrides the data dir, log level, storage backend and worker
// count from MONTE_* environment variables when they are set.
func (c *Config) ApplyEnv() error {
	var o envOverrides
	if err := env.Parse(&o); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	if o.DataDir != "" {
		c.DataDir = o.DataDir
	}
	if o.LogLevel != "" {
		c.LogLevel = o.LogLevel
	}
	if o.Storage != "" {
		c.Storage = o.Storage
	}
	if o.Workers != 0 {
		c.Workers = o.Workers
	}
	return nil
}

// Validate reports the problems that do not need an observable registry.
// Observable names and component selectors are checked when the runner is
// built.
func (c *Config) Validate() error {
	if c.Model.Name != "chain" {
		return monte.Configf("model.name", "unknown model %q", c.Model.Name)
	}
	if c.Model.Sites <= 0 {
		return monte.Configf("model.sites", "must be > 0, got %d", c.Model.Sites)
	}
	if math.IsNaN(c.Model.Coupling) || math.IsInf(c.Model.Coupling, 0) {
		return monte.Configf("model.coupling", "must be finite")
	}
	if err := c.Sampling.Validate(nil); err != nil {
		return err
	}
	if c.Campaign.NStates <= 0 {
		return monte.Configf("campaign.n_states", "must be > 0, got %d", c.Campaign.NStates)
	}
	if !c.Campaign.InitialConditions.SameNames(c.Campaign.Increment) {
		return monte.Configf("campaign.increment", "names %v do not match initial conditions %v",
			c.Campaign.Increment.Names(), c.Campaign.InitialConditions.Names())
	}
	if _, ok := c.Campaign.InitialConditions.Get(models.Temperature); !ok {
		return monte.Configf("campaign.initial_conditions", "missing %q", models.Temperature)
	}
	switch strings.ToLower(c.LogLevel) {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		return monte.Configf("log_level", "unknown level %q", c.LogLevel)
	}
	if c.Storage != StorageFiles && c.Storage != StorageSQLite {
		return monte.Configf("storage", "want %q or %q, got %q", StorageFiles, StorageSQLite, c.Storage)
	}
	if c.Workers < 0 {
		return monte.Configf("workers", "must be >= 0, got %d", c.Workers)
	}
	return nil
}

// RunnerConfig returns the per-run setup for campaign.NewRunner.
func (c *Config) RunnerConfig() campaign.Config {
	return campaign.Config{
		Sampling:          c.Sampling,
		Completion:        c.Completion,
		OnEvaluationError: c.OnEvaluationError,
	}
}

// InitialState builds the first state of the campaign.
func (c *Config) InitialState() monte.State[*models.Chain] {
	chain := models.NewChain(c.Model.Sites)
	if c.Model.Random {
		chain = models.NewRandomChain(c.Model.Sites, c.Model.Seed)
	}
	return monte.NewState(chain, c.Campaign.InitialConditions.Clone())
}
