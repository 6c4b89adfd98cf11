package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Ntrakiyski/agent-zero-telegram/internal"
)

var (
	verbose    bool
	configPath string
	version    string = "dev"
	commit     string = "unknown"
	date       string = "unknown"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "agent-zero-telegram",
	Short: "Multi-session router between a chat transport and an agent",
	Long: `Routes chat messages to named agent sessions.

Each chat can run several independent agent sessions side by side,
addressed by short tags ("@s1 run the tests"). Untagged messages go to
the chat's default session. Administrative commands (/new, /status,
/skills, /servers, /reset) manage sessions without interrupting
in-flight replies.

Quick Start:
  agent-zero-telegram serve --config config.yaml   # Run the webhook router
  agent-zero-telegram sessions                     # List persisted sessions
  agent-zero-telegram healthcheck                  # Verify config, store and agent`,
	Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		internal.SetVerbose(verbose)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to YAML config file")

	// Set version template to ensure --version flag works
	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)
}

// loadConfig loads the configured file or falls back to defaults.
func loadConfig() (internal.Config, error) {
	if configPath == "" {
		return internal.DefaultConfig(), nil
	}
	return internal.LoadConfig(configPath)
}

// buildStore constructs the directory store selected by cfg.
func buildStore(cfg internal.Config) (internal.Store, error) {
	switch internal.StoreDriver(cfg.Store.Driver) {
	case internal.StoreDriverSQLite:
		return internal.NewStore(internal.StoreDriverSQLite, internal.WithSQLitePath(cfg.Store.SQLitePath))
	case internal.StoreDriverRedis:
		client := redisClient(cfg)
		return internal.NewStore(internal.StoreDriverRedis,
			internal.WithRedisClient(client), internal.WithRedisTTL(cfg.Store.RedisTTL.Std()))
	default:
		return internal.NewStore(internal.StoreDriverMemory)
	}
}
