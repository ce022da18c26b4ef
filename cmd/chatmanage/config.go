package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sth00619/chat-manage/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show the resolved configuration and where each value came from",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := resolveConfig()
		if err != nil {
			return err
		}
		return writeJSON(cmd.OutOrStdout(), redactKeys(cfg))
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "chatmanage %s\n", version)
	},
}

func init() {
	rootCmd.AddCommand(configCmd, versionCmd)
}

// redactKeys hides all but the last four characters of each API key.
func redactKeys(cfg config.ResolvedConfig) config.ResolvedConfig {
	keys := make(map[string]config.ResolvedValue, len(cfg.LLMKeys))
	for provider, v := range cfg.LLMKeys {
		v.Value = mask(v.Value)
		keys[provider] = v
	}
	cfg.LLMKeys = keys
	return cfg
}

func mask(secret string) string {
	if len(secret) <= 4 {
		return "****"
	}
	return "****" + secret[len(secret)-4:]
}
