package config

import (
	"sort"

	"github.com/san-kum/monte/internal/analysis"
	"github.com/san-kum/monte/internal/completion"
	"github.com/san-kum/monte/internal/models"
	"github.com/san-kum/monte/internal/monte"
	"github.com/san-kum/monte/internal/sampling"
)

// Presets builds named configurations per model. Every call returns a fresh
// copy.
var Presets = map[string]map[string]func() *Config{
	"chain": {
		"quick": func() *Config {
			c := DefaultConfig()
			c.Name = "quick"
			c.Model.Sites = 32
			c.Completion.CheckBegin = 20
			c.Completion.CheckFrequency = 20
			c.Completion.Cutoff.MinCount = 20
			c.Completion.Cutoff.MaxCount = 2000
			c.Completion.Criteria[0].Precision = 0.01
			c.Campaign.NStates = 3
			return c
		},
		"anneal": func() *Config {
			c := DefaultConfig()
			c.Name = "anneal"
			c.Model.Sites = 128
			c.Model.Random = true
			c.Campaign.InitialConditions = monte.NewConditions(
				monte.Cond(models.Temperature, 4.0), monte.Cond(models.Field, 0))
			c.Campaign.Increment = monte.NewConditions(
				monte.Cond(models.Temperature, -0.35), monte.Cond(models.Field, 0))
			c.Campaign.NStates = 10
			c.Campaign.DependentRuns = true
			return c
		},
		"field_sweep": func() *Config {
			c := DefaultConfig()
			c.Name = "field_sweep"
			c.Campaign.InitialConditions = monte.NewConditions(
				monte.Cond(models.Temperature, 1.5), monte.Cond(models.Field, -1))
			c.Campaign.Increment = monte.NewConditions(
				monte.Cond(models.Temperature, 0), monte.Cond(models.Field, 0.25))
			c.Campaign.NStates = 9
			c.Completion.Criteria = []completion.Criterion{
				{Observable: "occupation", Component: "A", Precision: 0.005},
				{Observable: "energy", Precision: 0.002},
			}
			return c
		},
		"log_schedule": func() *Config {
			c := DefaultConfig()
			c.Name = "log_schedule"
			c.Sampling.Method = sampling.Log
			c.Sampling.Schedule = []float64{0, 1.1, 0}
			c.Completion.CheckBegin = 10
			c.Completion.CheckFrequency = 5
			c.Completion.Estimator = analysis.IntegratedAutocorrelation
			c.Completion.Cutoff.MaxCount = 1000000
			c.Campaign.NStates = 1
			return c
		},
	},
}

func GetPreset(model, preset string) *Config {
	modelPresets, ok := Presets[model]
	if !ok {
		return nil
	}
	build, ok := modelPresets[preset]
	if !ok {
		return nil
	}
	return build()
}

func ListPresets(model string) []string {
	modelPresets, ok := Presets[model]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(modelPresets))
	for name := range modelPresets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
