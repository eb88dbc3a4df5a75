package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadFile(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
		check   func(t *testing.T, cfg *Config)
		wantErr error
	}{
		{
			name: "yaml document",
			file: "config.yaml",
			content: `models:
  attacker_best: models/production/attacker_best.json
  defender_best: models/production/defender_best.json
  production_dir: models/production
llm:
  enabled: true
  provider: ollama
  model: llama3
  api_base: http://localhost:11434
  consult_probability: 0.2
  temperature: 0.7
`,
			check: func(t *testing.T, cfg *Config) {
				if !cfg.LLM.Enabled {
					t.Error("LLM.Enabled = false, want true")
				}
				if cfg.Models.ProductionDir != "models/production" {
					t.Errorf("ProductionDir = %q", cfg.Models.ProductionDir)
				}
				if cfg.LLM.ConsultProbability != 0.2 {
					t.Errorf("ConsultProbability = %v, want 0.2", cfg.LLM.ConsultProbability)
				}
			},
		},
		{
			name: "json document",
			file: "config.json",
			content: `{
  "models": {"attacker_best": "a.json", "defender_best": "d.json", "production_dir": "models"},
  "llm": {"enabled": false, "provider": "openai", "consult_probability": 0.5}
}`,
			check: func(t *testing.T, cfg *Config) {
				if cfg.Models.AttackerBest != "a.json" {
					t.Errorf("AttackerBest = %q, want a.json", cfg.Models.AttackerBest)
				}
				if cfg.LLM.Provider != "openai" {
					t.Errorf("Provider = %q, want openai", cfg.LLM.Provider)
				}
			},
		},
		{
			name:    "unsupported extension",
			file:    "config.toml",
			content: "x = 1",
			wantErr: ErrUnsupportedFormat,
		},
		{
			name: "consult probability out of range",
			file: "bad.yaml",
			content: `llm:
  enabled: false
  consult_probability: 1.5
`,
			wantErr: ErrInvalidFormat,
		},
		{
			name: "enabled without provider",
			file: "bad2.yaml",
			content: `llm:
  enabled: true
  provider: ""
`,
			wantErr: ErrInvalidFormat,
		},
		{
			name:    "malformed yaml",
			file:    "broken.yaml",
			content: "models: [unclosed",
			wantErr: ErrInvalidFormat,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			path := filepath.Join(dir, tt.file)
			if err := os.WriteFile(path, []byte(tt.content), 0o644); err != nil {
				t.Fatalf("write fixture: %v", err)
			}

			cfg, err := NewLoader().LoadFile(path)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("LoadFile() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("LoadFile() error = %v", err)
			}
			tt.check(t, cfg)
		})
	}
}

func TestLoadFileNotFound(t *testing.T) {
	_, err := NewLoader().LoadFile(filepath.Join(t.TempDir(), "absent.yaml"))
	if !errors.Is(err, ErrConfigNotFound) {
		t.Fatalf("LoadFile() error = %v, want ErrConfigNotFound", err)
	}
}

func TestLoadOrDefault(t *testing.T) {
	cfg, err := NewLoader().LoadOrDefault(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("LoadOrDefault() error = %v", err)
	}
	if cfg.LLM.Enabled {
		t.Error("fallback config enables the advisor, want disabled")
	}
	if cfg.Models.ProductionDir == "" {
		t.Error("fallback config has empty production dir")
	}
}

func TestExpandEnv(t *testing.T) {
	t.Setenv("ADV_MODEL_DIR", "/srv/models")

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"set variable", "dir: ${ADV_MODEL_DIR}", "dir: /srv/models"},
		{"unset variable", "dir: ${ADV_UNSET_VAR}", "dir: "},
		{"unset with default", "dir: ${ADV_UNSET_VAR:-models}", "dir: models"},
		{"set with default", "dir: ${ADV_MODEL_DIR:-fallback}", "dir: /srv/models"},
		{"no reference", "dir: plain", "dir: plain"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := string(expandEnv([]byte(tt.input))); got != tt.want {
				t.Errorf("expandEnv(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestExpandEnvInDocument(t *testing.T) {
	t.Setenv("ADV_API_BASE", "http://llm.internal:8080")

	content := `llm:
  enabled: true
  provider: ollama
  api_base: ${ADV_API_BASE}
`
	cfg, err := NewLoader().Load(strings.NewReader(content), FormatYAML)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.LLM.APIBase != "http://llm.internal:8080" {
		t.Errorf("APIBase = %q, want expanded value", cfg.LLM.APIBase)
	}
}

func TestSaveFileRoundTrip(t *testing.T) {
	for _, ext := range []string{"yaml", "json"} {
		t.Run(ext, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config."+ext)

			cfg := Default()
			cfg.UpdateBestModels("models/production/attacker_iter_4.json", "models/production/defender_iter_4.json")
			if err := SaveFile(cfg, path); err != nil {
				t.Fatalf("SaveFile() error = %v", err)
			}

			got, err := NewLoader().LoadFile(path)
			if err != nil {
				t.Fatalf("LoadFile() error = %v", err)
			}
			if got.Models.AttackerBest != "models/production/attacker_iter_4.json" {
				t.Errorf("AttackerBest = %q after round trip", got.Models.AttackerBest)
			}
			if got.Models.DefenderBest != "models/production/defender_iter_4.json" {
				t.Errorf("DefenderBest = %q after round trip", got.Models.DefenderBest)
			}
		})
	}
}

func TestSaveFileLeavesNoTemp(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	if err := SaveFile(Default(), path); err != nil {
		t.Fatalf("SaveFile() error = %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir() error = %v", err)
	}
	if len(entries) != 1 || entries[0].Name() != "config.json" {
		t.Errorf("dir contents = %v, want only config.json", entries)
	}
}
