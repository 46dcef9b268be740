package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	queryText string
	queryTopK int
)

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Query the semantic index",
	Args:  cobra.NoArgs,
	RunE:  runSearch,
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show the stored index artifacts",
	Args:  cobra.NoArgs,
	RunE:  runStats,
}

func init() {
	searchCmd.Flags().StringVarP(&queryText, "query", "q", "", "search text (required)")
	searchCmd.Flags().IntVarP(&queryTopK, "top", "k", 5, "number of results")
	_ = searchCmd.MarkFlagRequired("query")

	rootCmd.AddCommand(searchCmd, statsCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	svc, store, movies, err := openIndex()
	if err != nil {
		return err
	}
	defer store.Close()

	items, err := movies.Load(ctx)
	if err != nil {
		return err
	}
	if rebuilt, err := svc.Open(ctx, items); err != nil {
		return fmt.Errorf("failed to open index: %w", err)
	} else if rebuilt {
		fmt.Println("Stored index was stale and has been rebuilt")
	}

	hits, err := svc.Search(ctx, queryText, queryTopK)
	if err != nil {
		return err
	}
	if len(hits) == 0 {
		fmt.Println("No results")
		return nil
	}

	for i, hit := range hits {
		fmt.Printf("%2d. [%.3f] %s (id %d)\n", i+1, hit.Score, hit.Item.Title, hit.Item.ID)
		if genres := hit.Item.Genres.String(); genres != "" {
			fmt.Printf("    %s\n", genres)
		}
	}
	return nil
}

func runStats(cmd *cobra.Command, args []string) error {
	_, store, _, err := openIndex()
	if err != nil {
		return err
	}
	defer store.Close()

	snap, err := store.Load(cmd.Context())
	if err != nil {
		return err
	}
	if snap == nil {
		return errors.New("no index stored yet, run `indexer build` first")
	}

	fmt.Printf("Index file: %s\n", cfg.Index.BoltPath)
	fmt.Printf("Model:      %s\n", snap.Model)
	fmt.Printf("Dimension:  %d\n", snap.Dimension)
	fmt.Printf("Movies:     %d\n", len(snap.IDs))
	return nil
}
