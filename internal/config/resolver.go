package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
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

// Built-in defaults.
const (
	DefaultTimezone = "Asia/Seoul"
	DefaultLogLevel = "info"
	DefaultOwner    = "local"
)

type ResolvedValue struct {
	Value  string      `json:"value"`
	Source ValueSource `json:"source"`
	From   string      `json:"from,omitempty"`
}

type ResolveOptions struct {
	ConfigPath string
	// EnvFiles are loaded before env resolution. Variables already set in
	// the process environment win. Missing files are ignored.
	EnvFiles    []string
	CLILLM      string
	CLIDBPath   string
	CLIOwner    string
	CLITimezone string
	CLILogLevel string
}

type ResolvedConfig struct {
	ConfigPath string `json:"config_path"`

	DBPath      ResolvedValue `json:"db_path"`
	LLMProvider ResolvedValue `json:"llm_provider"`
	LLMModel    ResolvedValue `json:"llm_model"`
	Timezone    ResolvedValue `json:"timezone"`
	LogLevel    ResolvedValue `json:"log_level"`
	LogPretty   ResolvedValue `json:"log_pretty"`
	Owner       ResolvedValue `json:"owner"`

	LLMKeys map[string]ResolvedValue `json:"llm_keys,omitempty"`
}

type fileConfig struct {
	DBPath string `yaml:"db_path"`
	LLM    struct {
		Provider string `yaml:"provider"`
		Model    string `yaml:"model"`
		APIKey   string `yaml:"api_key"`
	} `yaml:"llm"`
	Timezone string `yaml:"timezone"`
	Log      struct {
		Level  string `yaml:"level"`
		Pretty *bool  `yaml:"pretty"`
	} `yaml:"log"`
	Owner string `yaml:"owner"`
}

func DefaultConfigPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".chatmanage", "config.yaml")
}

// DefaultEnvFiles returns the .env files read when none are given: the
// working directory's, then the one next to the default config.
func DefaultEnvFiles() []string {
	return []string{".env", filepath.Join(filepath.Dir(DefaultConfigPath()), ".env")}
}

// ResolveConfig merges the YAML file, the environment and CLI flags, in
// increasing precedence, recording where each value came from.
func ResolveConfig(opts ResolveOptions) (ResolvedConfig, error) {
	path := strings.TrimSpace(opts.ConfigPath)
	if path == "" {
		path = DefaultConfigPath()
	}

	out := ResolvedConfig{
		ConfigPath: path,
		Timezone:   ResolvedValue{Value: DefaultTimezone, Source: SourceDefault, From: "built-in default"},
		LogLevel:   ResolvedValue{Value: DefaultLogLevel, Source: SourceDefault, From: "built-in default"},
		LogPretty:  ResolvedValue{Value: "false", Source: SourceDefault, From: "built-in default"},
		Owner:      ResolvedValue{Value: DefaultOwner, Source: SourceDefault, From: "built-in default"},
		LLMKeys:    map[string]ResolvedValue{},
	}

	if err := loadEnvFiles(opts.EnvFiles); err != nil {
		return out, err
	}

	cfg, err := loadConfig(path)
	if err != nil {
		return out, err
	}

	if cfg != nil {
		apply(&out.DBPath, cfg.DBPath, SourceConfig, path)
		apply(&out.LLMProvider, cfg.LLM.Provider, SourceConfig, path)
		apply(&out.LLMModel, cfg.LLM.Model, SourceConfig, path)
		apply(&out.Timezone, cfg.Timezone, SourceConfig, path)
		apply(&out.LogLevel, cfg.Log.Level, SourceConfig, path)
		apply(&out.Owner, cfg.Owner, SourceConfig, path)
		if cfg.Log.Pretty != nil {
			out.LogPretty = ResolvedValue{Value: strconv.FormatBool(*cfg.Log.Pretty), Source: SourceConfig, From: path}
		}

		if key := strings.TrimSpace(cfg.LLM.APIKey); key != "" {
			provider := providerOf(cfg.LLM.Provider)
			if provider == "" {
				provider = "default"
			}
			out.LLMKeys[provider] = ResolvedValue{Value: key, Source: SourceConfig, From: path}
		}
	}

	applyEnv(&out.DBPath, "CHATMANAGE_DB")
	applyEnv(&out.DBPath, "CHATMANAGE_DB_PATH")
	applyEnv(&out.LLMProvider, "CHATMANAGE_LLM")
	applyEnv(&out.Timezone, "CHATMANAGE_TZ")
	applyEnv(&out.LogLevel, "CHATMANAGE_LOG_LEVEL")
	applyEnv(&out.LogPretty, "CHATMANAGE_LOG_PRETTY")
	applyEnv(&out.Owner, "CHATMANAGE_OWNER")

	for env, provider := range map[string]string{
		"OPENROUTER_API_KEY": "openrouter",
		"OPENAI_API_KEY":     "openai",
		"GEMINI_API_KEY":     "google",
		"GOOGLE_API_KEY":     "google",
	} {
		if v := strings.TrimSpace(os.Getenv(env)); v != "" {
			out.LLMKeys[provider] = ResolvedValue{Value: v, Source: SourceEnv, From: env}
		}
	}

	apply(&out.LLMProvider, opts.CLILLM, SourceCLI, "--llm")
	apply(&out.DBPath, opts.CLIDBPath, SourceCLI, "--db")
	apply(&out.Owner, opts.CLIOwner, SourceCLI, "--owner")
	apply(&out.Timezone, opts.CLITimezone, SourceCLI, "--tz")
	apply(&out.LogLevel, opts.CLILogLevel, SourceCLI, "--log-level")

	if out.DBPath.Value != "" {
		out.DBPath.Value = expandUserPath(out.DBPath.Value)
	}

	return out, nil
}

// EffectiveLLM returns the "provider/model" to use. A provider without a
// model takes llm.model, or fallback's model when fallback names the same
// provider.
func (r ResolvedConfig) EffectiveLLM(fallback string) ResolvedValue {
	c := r.LLMProvider
	if v := strings.TrimSpace(c.Value); v != "" {
		if strings.Contains(v, "/") {
			return c
		}
		if m := strings.TrimSpace(r.LLMModel.Value); m != "" {
			return ResolvedValue{Value: v + "/" + m, Source: r.LLMModel.Source, From: r.LLMModel.From}
		}
		if fallback != "" && strings.HasPrefix(strings.ToLower(fallback), strings.ToLower(v)+"/") {
			return ResolvedValue{Value: fallback, Source: c.Source, From: c.From}
		}
	}

	if strings.TrimSpace(fallback) != "" {
		return ResolvedValue{Value: fallback, Source: SourceDefault, From: "built-in default"}
	}
	return ResolvedValue{}
}

func (r ResolvedConfig) APIKeyForProvider(providerOrModel string) ResolvedValue {
	provider := providerOf(providerOrModel)
	if provider == "" {
		return ResolvedValue{}
	}
	if v, ok := r.LLMKeys[provider]; ok && strings.TrimSpace(v.Value) != "" {
		return v
	}
	if v, ok := r.LLMKeys["default"]; ok && strings.TrimSpace(v.Value) != "" {
		return v
	}
	return ResolvedValue{}
}

// Location loads the configured time zone.
func (r ResolvedConfig) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(r.Timezone.Value)
	if err != nil {
		return nil, fmt.Errorf("loading timezone %q (from %s): %w", r.Timezone.Value, r.Timezone.From, err)
	}
	return loc, nil
}

// Pretty reports whether human-readable console logs were requested.
func (r ResolvedConfig) Pretty() bool {
	v, err := strconv.ParseBool(r.LogPretty.Value)
	return err == nil && v
}

func providerOf(providerOrModel string) string {
	v := strings.ToLower(strings.TrimSpace(providerOrModel))
	if v == "" {
		return ""
	}
	if idx := strings.Index(v, "/"); idx > 0 {
		return v[:idx]
	}
	return v
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

func loadEnvFiles(paths []string) error {
	for _, p := range paths {
		p = expandUserPath(strings.TrimSpace(p))
		if p == "" {
			continue
		}
		if _, err := os.Stat(p); os.IsNotExist(err) {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("loading %s: %w", p, err)
		}
	}
	return nil
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
