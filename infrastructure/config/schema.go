// Package config loads and persists deployment configuration for the
// adversary trainer: where promoted model checkpoints live and how the
// optional LLM advisor is reached.
package config

import (
	"errors"
	"fmt"
)

// Configuration errors.
var (
	// ErrConfigNotFound indicates the configuration file does not exist.
	ErrConfigNotFound = errors.New("config file not found")
	// ErrInvalidFormat indicates the configuration could not be parsed.
	ErrInvalidFormat = errors.New("invalid config format")
	// ErrUnsupportedFormat indicates an unrecognized file extension.
	ErrUnsupportedFormat = errors.New("unsupported config format")
)

// ModelPaths points at the promoted model checkpoints used in production.
type ModelPaths struct {
	// AttackerBest is the path of the promoted attacker checkpoint.
	AttackerBest string `json:"attacker_best" yaml:"attacker_best"`
	// DefenderBest is the path of the promoted defender checkpoint.
	DefenderBest string `json:"defender_best" yaml:"defender_best"`
	// ProductionDir is the directory holding promoted checkpoints.
	ProductionDir string `json:"production_dir" yaml:"production_dir"`
}

// LLM configures the optional language-model advisor.
type LLM struct {
	// Enabled turns advisory consultation on.
	Enabled bool `json:"enabled" yaml:"enabled"`
	// Provider selects the backend ("ollama" or "openai").
	Provider string `json:"provider" yaml:"provider"`
	// Model is the model identifier passed to the provider.
	Model string `json:"model" yaml:"model"`
	// APIBase is the provider's base URL.
	APIBase string `json:"api_base" yaml:"api_base"`
	// ConsultProbability is the per-step chance of consulting the advisor.
	ConsultProbability float64 `json:"consult_probability" yaml:"consult_probability"`
	// Temperature is the sampling temperature for advisor requests.
	Temperature float64 `json:"temperature" yaml:"temperature"`
}

// Config is the root configuration document.
type Config struct {
	Models ModelPaths `json:"models" yaml:"models"`
	LLM    LLM        `json:"llm" yaml:"llm"`
}

// Default returns the in-memory fallback configuration. The advisor is
// disabled so a missing config file never blocks training.
func Default() *Config {
	return &Config{
		Models: ModelPaths{
			AttackerBest:  "models/production/attacker_best.json",
			DefenderBest:  "models/production/defender_best.json",
			ProductionDir: "models/production",
		},
		LLM: LLM{
			Enabled:            false,
			Provider:           "ollama",
			Model:              "llama3",
			APIBase:            "http://localhost:11434",
			ConsultProbability: 0.2,
			Temperature:        0.7,
		},
	}
}

// Validate checks structural constraints on the configuration.
func (c *Config) Validate() error {
	if c.LLM.ConsultProbability < 0 || c.LLM.ConsultProbability > 1 {
		return fmt.Errorf("%w: consult_probability %.2f outside [0,1]",
			ErrInvalidFormat, c.LLM.ConsultProbability)
	}
	if c.LLM.Enabled && c.LLM.Provider == "" {
		return fmt.Errorf("%w: llm enabled without a provider", ErrInvalidFormat)
	}
	return nil
}

// UpdateBestModels rewrites the promoted checkpoint pointers.
func (c *Config) UpdateBestModels(attackerPath, defenderPath string) {
	c.Models.AttackerBest = attackerPath
	c.Models.DefenderBest = defenderPath
}
