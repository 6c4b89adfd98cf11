package cmd

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/Ntrakiyski/agent-zero-telegram/internal"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the session router webhook",
	Long: `Run the session router until interrupted.

The external chat transport delivers messages by POSTing to /hook; the
reply comes back in the response body. Directory state is restored from
the configured store on startup, so sessions survive a restart with the
sqlite or redis drivers.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		store, err := buildStore(cfg)
		if err != nil {
			return fmt.Errorf("failed to open store: %w", err)
		}
		defer func() {
			if err := store.Close(); err != nil {
				internal.LogWarn("failed to close store: %v", err)
			}
		}()

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		agent := internal.NewAgentClient(cfg.Agent.BaseURL, cfg.Agent.Timeout.Std())
		directory, err := internal.NewDirectory(ctx, agent, store)
		if err != nil {
			return fmt.Errorf("failed to initialize directory: %w", err)
		}

		router := internal.NewRouter(cfg, directory, agent)
		commander := internal.NewCommander(cfg, directory, agent, agent, agent)
		server := internal.NewServer(cfg, router, commander)

		internal.LogInfo("routing for agent at %s, store driver %s", cfg.Agent.BaseURL, cfg.Store.Driver)
		return server.Run(ctx)
	},
}

// redisClient builds the client for the redis store driver.
func redisClient(cfg internal.Config) *redis.Client {
	return redis.NewClient(&redis.Options{Addr: cfg.Store.RedisAddr})
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
