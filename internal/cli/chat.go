package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"ragchat/internal/retriever"
	"ragchat/internal/service"
	"ragchat/internal/tui"
)

var (
	chatTUI    bool
	chatRouter string
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive chat session",
	Long: `Ingest the configured sources and start a chat session.

Each question is routed to the configured retrievers, augmented with the
passages they return and answered by the language model. Type the exit
keyword (default "quit") to leave.

Examples:
  rag chat
  rag chat --tui
  rag chat --router classify --config docs.yaml`,
	Args: cobra.NoArgs,
	RunE: runChat,
}

func init() {
	for _, c := range []*cobra.Command{rootCmd, chatCmd} {
		c.Flags().BoolVar(&chatTUI, "tui", false, "use the full-screen terminal UI")
		c.Flags().StringVar(&chatRouter, "router", "", "override router.type (fixed, multi, classify, gate)")
	}
}

func runChat(cmd *cobra.Command, args []string) error {
	if chatRouter != "" {
		cfg.Router.Type = chatRouter
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	a, err := buildApp(ctx, cfg, logger)
	if err != nil {
		return err
	}

	if chatTUI {
		m := tui.New(ctx, a.chat, describeSources(a.catalog), cfg.Session.ExitKeyword, cfg.Session.Farewell)
		_, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
		if errors.Is(err, tea.ErrProgramKilled) && errors.Is(ctx.Err(), context.Canceled) {
			return nil
		}
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, describeSources(a.catalog))
	fmt.Fprintf(out, "Ask a question, or type %q to exit.\n", cfg.Session.ExitKeyword)
	session := service.NewSession(a.chat, "> ", cfg.Session.Farewell, logger.Named("session"))
	return session.Run(ctx, cmd.InOrStdin(), out)
}

func describeSources(c *retriever.Catalog) string {
	if c.Len() == 0 {
		return "No sources configured; answers come from the model alone."
	}
	names := make([]string, 0, c.Len())
	for _, s := range c.Sources() {
		names = append(names, s.Retriever.Name())
	}
	return "Sources: " + strings.Join(names, ", ")
}
