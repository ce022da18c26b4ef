package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Gobusters/ectologger"
	"github.com/spf13/cobra"

	"github.com/sth00619/chat-manage/internal/chat"
	"github.com/sth00619/chat-manage/internal/config"
	"github.com/sth00619/chat-manage/internal/llm"
	"github.com/sth00619/chat-manage/internal/logging"
	"github.com/sth00619/chat-manage/internal/store"
)

var (
	flagConfig   string
	flagDB       string
	flagLLM      string
	flagOwner    string
	flagTZ       string
	flagLogLevel string
)

var rootCmd = &cobra.Command{
	Use:           "chatmanage",
	Short:         "Chat with your personal records",
	SilenceUsage:  true,
	SilenceErrors: true,
	Version:       version,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flagConfig, "config", "", "Path to config.yaml (default ~/.chatmanage/config.yaml)")
	pf.StringVar(&flagDB, "db", "", "Path to the SQLite database")
	pf.StringVar(&flagLLM, "llm", "", "LLM as provider/model, e.g. openai/gpt-4o-mini")
	pf.StringVar(&flagOwner, "owner", "", "Owner whose records are read and written")
	pf.StringVar(&flagTZ, "tz", "", "IANA time zone for dates, e.g. Asia/Seoul")
	pf.StringVar(&flagLogLevel, "log-level", "", "debug, info, warn or error")
}

// app is the wired pipeline shared by the subcommands.
type app struct {
	cfg     config.ResolvedConfig
	store   *store.Store
	service *chat.Service
	logger  ectologger.Logger
}

func resolveConfig() (config.ResolvedConfig, error) {
	envFiles := config.DefaultEnvFiles()
	if flagConfig != "" {
		envFiles = append(envFiles, filepath.Join(filepath.Dir(flagConfig), ".env"))
	}
	return config.ResolveConfig(config.ResolveOptions{
		ConfigPath:  flagConfig,
		EnvFiles:    envFiles,
		CLILLM:      flagLLM,
		CLIDBPath:   flagDB,
		CLIOwner:    flagOwner,
		CLITimezone: flagTZ,
		CLILogLevel: flagLogLevel,
	})
}

// openApp resolves configuration and opens the store. A missing or invalid
// LLM setup does not fail here: queries still work, and extraction reports
// the problem when a message needs it.
func openApp(ctx context.Context) (*app, error) {
	cfg, err := resolveConfig()
	if err != nil {
		return nil, err
	}

	logger, err := logging.New(cfg.LogLevel.Value, cfg.Pretty())
	if err != nil {
		return nil, err
	}
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	s, err := store.New(store.Config{DBPath: cfg.DBPath.Value, Logger: logger})
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}

	provider := buildProvider(cfg)
	if u, ok := provider.(unavailableProvider); ok {
		logger.WithContext(ctx).WithError(u.err).Warn("LLM unavailable, extraction disabled")
	}

	return &app{
		cfg:   cfg,
		store: s,
		service: chat.NewService(s, provider, chat.Config{
			Location: loc,
			Logger:   logger,
		}),
		logger: logger,
	}, nil
}

func (a *app) Close() error {
	return a.store.Close()
}

func (a *app) owner() string {
	return a.cfg.Owner.Value
}

func buildProvider(cfg config.ResolvedConfig) llm.Provider {
	fallback := fmt.Sprintf("%s/%s", llm.DefaultProvider, defaultModel())
	model := cfg.EffectiveLLM(fallback)

	llmCfg, err := llm.ParseLLMFlag(model.Value)
	if err != nil {
		return unavailableProvider{err: err}
	}
	llmCfg.APIKey = cfg.APIKeyForProvider(llmCfg.Provider).Value

	p, err := llm.NewProvider(llmCfg)
	if err != nil {
		return unavailableProvider{err: err}
	}
	return p
}

func defaultModel() string {
	c, _ := llm.ParseLLMFlag("")
	return c.Model
}

// unavailableProvider stands in when no LLM could be configured.
type unavailableProvider struct {
	err error
}

func (u unavailableProvider) Complete(_ context.Context, _ string, _ llm.CompletionOpts) (string, error) {
	return "", u.err
}

func (u unavailableProvider) Name() string { return "unavailable" }
