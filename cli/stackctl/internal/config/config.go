package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Luiggi370z/local-ai-stack/cli/stackctl/internal/webhook"
)

const (
	DefaultProject  = "localai"
	DefaultLogLevel = "info"
	FileName        = "stackctl.yaml"
)

// Duration accepts either a Go duration string ("2s") or a number of
// seconds (2, 0.5).
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: duration must be a scalar", value.Line)
	}
	v := strings.TrimSpace(value.Value)
	if secs, err := strconv.ParseFloat(v, 64); err == nil {
		d.Duration = time.Duration(secs * float64(time.Second))
		return nil
	}
	parsed, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("line %d: invalid duration %q", value.Line, v)
	}
	d.Duration = parsed
	return nil
}

type StackConfig struct {
	Repo   string `yaml:"repo"`
	Branch string `yaml:"branch"`
	Dir    string `yaml:"dir"`
}

type N8NConfig struct {
	URL                   string    `yaml:"url"`
	BearerToken           string    `yaml:"bearer_token"`
	InputField            string    `yaml:"input_field"`
	ResponseField         string    `yaml:"response_field"`
	EmitInterval          *Duration `yaml:"emit_interval"`
	EnableStatusIndicator *bool     `yaml:"enable_status_indicator"`
	Timeout               Duration  `yaml:"timeout"`
}

// Valves converts the n8n section into forwarder settings, falling back to
// the forwarder defaults for anything unset.
func (c N8NConfig) Valves() webhook.Valves {
	v := webhook.DefaultValves()
	v.URL = c.URL
	v.BearerToken = c.BearerToken
	if c.InputField != "" {
		v.InputField = c.InputField
	}
	if c.ResponseField != "" {
		v.ResponseField = c.ResponseField
	}
	if c.EmitInterval != nil {
		v.EmitInterval = c.EmitInterval.Duration
	}
	if c.EnableStatusIndicator != nil {
		v.EnableStatusIndicator = *c.EnableStatusIndicator
	}
	return v
}

type Config struct {
	Project  string                 `yaml:"project"`
	LogLevel string                 `yaml:"log_level"`
	Stacks   map[string]StackConfig `yaml:"stacks"`
	N8N      N8NConfig              `yaml:"n8n"`
}

func Default() Config {
	return Config{
		Project:  DefaultProject,
		LogLevel: DefaultLogLevel,
		Stacks:   map[string]StackConfig{},
	}
}

// Path picks the configuration file: explicit, then STACKCTL_CONFIG, then
// stackctl.yaml under root.
func Path(explicit, root string) string {
	if p := strings.TrimSpace(explicit); p != "" {
		return p
	}
	if p := strings.TrimSpace(os.Getenv("STACKCTL_CONFIG")); p != "" {
		return p
	}
	return filepath.Join(root, FileName)
}

// Load reads the configuration at path on top of the defaults and applies
// environment overrides. A missing file yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", path, err)
		}
	case os.IsNotExist(err):
	default:
		return cfg, err
	}
	if cfg.Stacks == nil {
		cfg.Stacks = map[string]StackConfig{}
	}
	if strings.TrimSpace(cfg.Project) == "" {
		cfg.Project = DefaultProject
	}
	if strings.TrimSpace(cfg.LogLevel) == "" {
		cfg.LogLevel = DefaultLogLevel
	}
	ApplyEnv(&cfg)
	return cfg, nil
}

// ApplyEnv overrides cfg with STACKCTL_PROJECT, STACKCTL_LOG_LEVEL, N8N_URL
// and N8N_BEARER_TOKEN when they are set and non-empty.
func ApplyEnv(cfg *Config) {
	for env, dst := range map[string]*string{
		"STACKCTL_PROJECT":   &cfg.Project,
		"STACKCTL_LOG_LEVEL": &cfg.LogLevel,
		"N8N_URL":            &cfg.N8N.URL,
		"N8N_BEARER_TOKEN":   &cfg.N8N.BearerToken,
	} {
		if v := strings.TrimSpace(os.Getenv(env)); v != "" {
			*dst = v
		}
	}
}
