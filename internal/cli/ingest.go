package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"ragchat/internal/retriever"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Ingest the configured sources and report what was indexed",
	Long: `Read, chunk and embed every configured source without starting a chat.

Useful to check paths, segment counts and the descriptions the classifying
router will see. Web search is not contacted.`,
	Args: cobra.NoArgs,
	RunE: runIngest,
}

func runIngest(cmd *cobra.Command, args []string) error {
	embedder, err := newEmbedder(cfg.Embedder)
	if err != nil {
		return err
	}
	ingestor, err := newIngestor(cfg, embedder, logger)
	if err != nil {
		return err
	}
	catalog, err := ingestor.Ingest(cmd.Context(), cfg.Sources)
	if err != nil {
		return fmt.Errorf("ingest: %w", err)
	}
	printCatalog(cmd.OutOrStdout(), catalog)
	return nil
}

func printCatalog(w io.Writer, c *retriever.Catalog) {
	if c.Len() == 0 {
		fmt.Fprintln(w, "No sources configured.")
		return
	}
	for _, s := range c.Sources() {
		fmt.Fprintf(w, "%s: %d segments\n", s.Retriever.Name(), s.Segments)
		if s.Description != "" {
			fmt.Fprintf(w, "  %s\n", s.Description)
		}
	}
}
