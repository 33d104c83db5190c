// Package config resolves Casewire settings from a YAML config file,
// environment variables, and CLI flags, with flags winning over env and env
// winning over the file. Each resolved value records where it came from.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

type ValueSource string

const (
	SourceUnknown ValueSource = "unknown"
	SourceConfig  ValueSource = "config"
	SourceEnv     ValueSource = "env"
	SourceCLI     ValueSource = "cli"
	SourceDefault ValueSource = "default"
)

type ResolvedValue struct {
	Value  string      `json:"value"`
	Source ValueSource `json:"source"`
	From   string      `json:"from,omitempty"`
}

type ResolveOptions struct {
	ConfigPath    string
	CLIDBPath     string
	CLIRulesPath  string
	CLIClaimsPath string
	CLIWorkers    string
}

type ResolvedConfig struct {
	ConfigPath string `json:"config_path"`

	DBPath     ResolvedValue `json:"db_path"`
	RulesPath  ResolvedValue `json:"rules_path"`
	ClaimsPath ResolvedValue `json:"claims_path"`
	Workers    ResolvedValue `json:"workers"`
}

type fileConfig struct {
	DBPath     string `yaml:"db_path"`
	RulesPath  string `yaml:"rules_path"`
	ClaimsPath string `yaml:"claims_path"`
	Workers    int    `yaml:"workers"`
}

// DefaultDBPath is the default evidence registry location.
const DefaultDBPath = "~/.casewire/casewire.db"

func DefaultConfigPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".casewire", "config.yaml")
}

func ResolveConfig(opts ResolveOptions) (ResolvedConfig, error) {
	path := strings.TrimSpace(opts.ConfigPath)
	if path == "" {
		path = DefaultConfigPath()
	}

	out := ResolvedConfig{
		ConfigPath: path,
		DBPath:     ResolvedValue{Value: DefaultDBPath, Source: SourceDefault, From: "built-in default"},
	}

	cfg, err := loadConfig(path)
	if err != nil {
		return out, err
	}

	if cfg != nil {
		apply(&out.DBPath, cfg.DBPath, SourceConfig, path)
		apply(&out.RulesPath, cfg.RulesPath, SourceConfig, path)
		apply(&out.ClaimsPath, cfg.ClaimsPath, SourceConfig, path)
		if cfg.Workers > 0 {
			out.Workers = ResolvedValue{Value: strconv.Itoa(cfg.Workers), Source: SourceConfig, From: path}
		}
	}

	applyEnv(&out.DBPath, "CASEWIRE_DB")
	applyEnv(&out.RulesPath, "CASEWIRE_RULES")
	applyEnv(&out.ClaimsPath, "CASEWIRE_CLAIMS")
	applyEnv(&out.Workers, "CASEWIRE_WORKERS")

	apply(&out.DBPath, opts.CLIDBPath, SourceCLI, "--db")
	apply(&out.RulesPath, opts.CLIRulesPath, SourceCLI, "--rules")
	apply(&out.ClaimsPath, opts.CLIClaimsPath, SourceCLI, "--claims")
	apply(&out.Workers, opts.CLIWorkers, SourceCLI, "--workers")

	if out.DBPath.Value != "" {
		out.DBPath.Value = expandUserPath(out.DBPath.Value)
	}

	return out, nil
}

// WorkerCount parses the resolved worker setting; zero means "let the
// caller pick" (one worker per CPU).
func (r ResolvedConfig) WorkerCount() int {
	n, err := strconv.Atoi(strings.TrimSpace(r.Workers.Value))
	if err != nil || n < 0 {
		return 0
	}
	return n
}

func apply(dst *ResolvedValue, raw string, source ValueSource, from string) {
	v := strings.TrimSpace(raw)
	if v == "" {
		return
	}
	*dst = ResolvedValue{Value: v, Source: source, From: from}
}

func applyEnv(dst *ResolvedValue, envKey string) {
	if v := strings.TrimSpace(os.Getenv(envKey)); v != "" {
		*dst = ResolvedValue{Value: v, Source: SourceEnv, From: envKey}
	}
}

func loadConfig(path string) (*fileConfig, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	var cfg fileConfig
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return &cfg, nil
}

func expandUserPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}
