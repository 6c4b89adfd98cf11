package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/Ntrakiyski/agent-zero-telegram/internal"
)

var (
	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true)

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39"))

	sectionStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("62")).
			Bold(true).
			Underline(true)
)

// healthcheckCmd represents the healthcheck command
var healthcheckCmd = &cobra.Command{
	Use:   "healthcheck",
	Short: "Check config, store and agent connectivity",
	Long: `Check the router's environment by verifying:
  • Configuration loads and validates
  • The directory store opens and is readable
  • The agent API answers

This command is useful for debugging deployments, especially container
startup ordering.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println(sectionStyle.Render("Session Router Health Check"))
		fmt.Println()

		// Step 1: configuration
		fmt.Println(infoStyle.Render("Step 1: Loading configuration..."))
		cfg, err := loadConfig()
		if err != nil {
			fmt.Println(errorStyle.Render("✗ Configuration failed:"), err)
			os.Exit(1)
		}
		fmt.Println(successStyle.Render("✓ Configuration OK"), fmt.Sprintf("(store: %s, agent: %s)", cfg.Store.Driver, cfg.Agent.BaseURL))

		// Step 2: store
		fmt.Println(infoStyle.Render("Step 2: Opening directory store..."))
		store, err := buildStore(cfg)
		if err != nil {
			fmt.Println(errorStyle.Render("✗ Store failed to open:"), err)
			os.Exit(1)
		}
		defer store.Close()
		chats, err := store.LoadAll(context.Background())
		if err != nil {
			fmt.Println(errorStyle.Render("✗ Store unreadable:"), err)
			os.Exit(1)
		}
		fmt.Println(successStyle.Render("✓ Store OK"), fmt.Sprintf("(%d chats persisted)", len(chats)))

		// Step 3: agent reachability. The skill registry is the cheapest
		// read-only probe the agent exposes.
		fmt.Println(infoStyle.Render("Step 3: Probing agent API..."))
		agent := internal.NewAgentClient(cfg.Agent.BaseURL, 5*time.Second)
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if skills, err := agent.Skills(ctx); err != nil {
			fmt.Println(warningStyle.Render("⚠ Agent unreachable:"), err)
			fmt.Println(warningStyle.Render("  Routing will fail until the agent is up."))
			os.Exit(2)
		} else {
			fmt.Println(successStyle.Render("✓ Agent OK"), fmt.Sprintf("(%d skills installed)", len(skills)))
		}

		fmt.Println()
		fmt.Println(successStyle.Render("All checks passed."))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(healthcheckCmd)
}
