package cmd

import (
	"context"
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/Ntrakiyski/agent-zero-telegram/internal"
)

var (
	// Styles
	chatStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("212"))

	tagStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true)

	sessionIDStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Italic(true)

	timestampStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243"))

	summaryStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("62")).
			Bold(true)
)

// sessionsCmd represents the sessions command
var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "List persisted sessions",
	Long: `List every chat's persisted sessions from the configured store.

Useful for inspecting what a restart would restore. The memory driver
persists nothing, so this only shows state for sqlite and redis.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		store, err := buildStore(cfg)
		if err != nil {
			return fmt.Errorf("failed to open store: %w", err)
		}
		defer store.Close()

		chats, err := store.LoadAll(context.Background())
		if err != nil {
			return fmt.Errorf("failed to load sessions: %w", err)
		}
		if len(chats) == 0 {
			fmt.Println("No persisted sessions found.")
			return nil
		}

		// Stable output: chats sorted by id, records in creation order.
		ids := make([]internal.ChatID, 0, len(chats))
		for id := range chats {
			ids = append(ids, id)
		}
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

		total := 0
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		for _, id := range ids {
			state := chats[id]
			fmt.Fprintf(w, "%s\t(next tag s%d)\n", chatStyle.Render("chat "+string(id)), state.NextSeq)
			for _, rec := range state.Records {
				fmt.Fprintf(w, "  %s\t%s\t%s\n",
					tagStyle.Render("@"+string(rec.Tag)),
					sessionIDStyle.Render(rec.SessionID),
					timestampStyle.Render("active "+rec.LastActive.Format("2006-01-02 15:04:05")))
				total++
			}
		}
		if err := w.Flush(); err != nil {
			return fmt.Errorf("failed to render table: %w", err)
		}

		fmt.Println()
		fmt.Println(summaryStyle.Render(fmt.Sprintf("%d sessions across %d chats", total, len(chats))))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(sessionsCmd)
}
