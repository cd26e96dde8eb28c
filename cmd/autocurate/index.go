package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var indexLimit int

// indexCmd drains pending content through the indexing pipeline.
var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Index pending content into the vector store",
	Long: `Index chunks, embeds, and stores all pending content records.

Examples:
  # Index everything pending
  autocurate index

  # Index at most 20 records
  autocurate index --limit 20`,
	RunE: runIndex,
}

func init() {
	indexCmd.Flags().IntVar(&indexLimit, "limit", 0, "maximum records to index (0 = all)")
}

func runIndex(cmd *cobra.Command, _ []string) error {
	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.close()

	indexed, err := a.newIndexer().IndexPending(cmd.Context(), indexLimit)
	fmt.Fprintf(cmd.OutOrStdout(), "indexed %d records\n", indexed)
	if err != nil {
		return fmt.Errorf("some records failed: %w", err)
	}
	return nil
}
