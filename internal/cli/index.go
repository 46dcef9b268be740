package cli

import (
	"fmt"
	"sync"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Embed the whole catalog and replace the stored index",
	Args:  cobra.NoArgs,
	RunE:  runBuild,
}

var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Embed catalog movies that are not indexed yet",
	Long: `refresh loads the stored index, re-reads the catalog file and embeds only the
movies whose ids are not indexed yet. Running it twice adds nothing the second time.`,
	Args: cobra.NoArgs,
	RunE: runRefresh,
}

func init() {
	rootCmd.AddCommand(buildCmd, refreshCmd)
}

// newProgress returns a batch progress hook that drives a terminal bar.
// The hook may be called from several embedding workers.
func newProgress(label string) func(done, total int) {
	var (
		mu   sync.Mutex
		bar  *progressbar.ProgressBar
		seen int
	)

	return func(done, total int) {
		mu.Lock()
		defer mu.Unlock()

		if bar == nil {
			bar = progressbar.NewOptions(total,
				progressbar.OptionEnableColorCodes(true),
				progressbar.OptionSetWidth(40),
				progressbar.OptionShowCount(),
				progressbar.OptionSetDescription("[cyan]"+label+"[reset]"),
				progressbar.OptionSetTheme(progressbar.Theme{
					Saucer:        "[green]=[reset]",
					SaucerHead:    "[green]>[reset]",
					SaucerPadding: " ",
					BarStart:      "[",
					BarEnd:        "]",
				}),
				progressbar.OptionOnCompletion(func() {
					fmt.Println()
				}),
			)
		}
		if done > seen {
			seen = done
			_ = bar.Set(done)
		}
	}
}

func runBuild(cmd *cobra.Command, args []string) error {
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

	fmt.Printf("Embedding %d movies from %s...\n", len(items), movies.Path())
	svc.SetProgress(newProgress("Embedding"))

	start := time.Now()
	if err := svc.Build(ctx, items); err != nil {
		return fmt.Errorf("build failed: %w", err)
	}

	stats := svc.Stats()
	fmt.Printf("Indexed %d movies (model %s, dimension %d) in %s\n",
		stats.Items, stats.Model, stats.Dimension, time.Since(start).Round(time.Millisecond))
	return nil
}

func runRefresh(cmd *cobra.Command, args []string) error {
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

	// open against the stored subset so artifacts are reused even when the
	// catalog has grown
	snap, err := store.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to read index: %w", err)
	}
	stored := items
	if snap != nil {
		known := make(map[int64]struct{}, len(snap.IDs))
		for _, id := range snap.IDs {
			known[id] = struct{}{}
		}
		stored = stored[:0:0]
		for _, it := range items {
			if _, ok := known[it.ID]; ok {
				stored = append(stored, it)
			}
		}
	}

	svc.SetProgress(newProgress("Embedding"))

	rebuilt, err := svc.Open(ctx, stored)
	if err != nil {
		return fmt.Errorf("failed to open index: %w", err)
	}
	if rebuilt {
		fmt.Printf("Stored index did not match the catalog; rebuilt %d movies\n", svc.Len())
	}

	added, err := svc.Refresh(ctx, items)
	if err != nil {
		return fmt.Errorf("refresh failed: %w", err)
	}
	fmt.Printf("Added %d movies, index now holds %d\n", added, svc.Len())
	return nil
}
