package cli

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mvp-joe/cakevars/internal/indexer"
)

var (
	quietFlag bool
	watchFlag bool
)

// indexCmd represents the index command
var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Index controller view bindings",
	Long: `Index parses every controller of the project and records, per action,
the variables passed to the template through $this->set().

Only controller files that changed since the last run are parsed again.
The index lives in ~/.cakevars/cache/<project-key>/index.db unless
storage.cache_location is configured.

Examples:
  # Index the current directory
  cakevars index

  # Index without progress output
  cakevars index --quiet

  # Keep the index current while controllers are edited
  cakevars index --watch
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signalContext()
		defer cancel()
		return runIndex(ctx, cmd.OutOrStdout(), projectDir, quietFlag, watchFlag)
	},
}

func init() {
	rootCmd.AddCommand(indexCmd)
	indexCmd.Flags().BoolVarP(&quietFlag, "quiet", "q", false, "Disable progress bars and non-error output")
	indexCmd.Flags().BoolVarP(&watchFlag, "watch", "w", false, "Watch for file changes and reindex incrementally")
}

// signalContext is cancelled on Ctrl+C or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		select {
		case <-sigChan:
			fmt.Fprintln(os.Stderr, "\nInterrupted! Cancelling...")
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigChan)
	}()
	return ctx, cancel
}

func runIndex(ctx context.Context, out io.Writer, dir string, quiet, watch bool) error {
	p, err := loadProject(dir)
	if err != nil {
		return err
	}

	db, err := p.open(false)
	if err != nil {
		return err
	}
	defer db.Close()

	var progress indexer.ProgressReporter = &indexer.NoOpProgressReporter{}
	if !quiet {
		progress = NewCLIProgressReporter(out, false)
	}

	idx, err := p.newIndexer(db, progress, nil)
	if err != nil {
		return err
	}

	stats, err := idx.Index(ctx, nil)
	if err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("indexing cancelled")
		}
		return fmt.Errorf("indexing failed: %w", err)
	}

	if quiet {
		fmt.Fprintf(out, "Indexing complete: %d actions in %.2fs\n", stats.Actions, stats.Duration.Seconds())
	}

	if !watch {
		return nil
	}

	watcher, err := indexer.NewWatcher(idx, indexer.WatcherOptions{
		Debounce: p.debounce(),
		OnReindex: func(stats *indexer.Stats, err error) {
			if err != nil {
				log.Printf("[watcher] reindex failed: %v", err)
			}
		},
	})
	if err != nil {
		return fmt.Errorf("failed to start watch mode: %w", err)
	}

	if !quiet {
		log.Println("Starting watch mode...")
	}
	watcher.Start(ctx)
	<-ctx.Done()
	watcher.Stop()

	if !quiet {
		log.Println("Watch mode stopped")
	}
	return nil
}
