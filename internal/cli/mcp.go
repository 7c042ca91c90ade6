package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mvp-joe/cakevars/internal/indexer"
	"github.com/mvp-joe/cakevars/internal/mcp"
)

var mcpWatchFlag bool

// mcpCmd represents the mcp command
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the MCP server for view variable lookups",
	Long: `Start the Model Context Protocol (MCP) server so coding assistants can
ask which variables a CakePHP template receives.

The MCP server:
- Brings the index up to date on startup
- Keeps it current while controllers change (disable with --watch=false)
- Provides cakevars_view_variables, cakevars_variable_exists and
  cakevars_views_for_variable
- Communicates via stdio (standard MCP transport)

Example:
  cakevars mcp`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMCP(context.Background(), projectDir, mcpWatchFlag)
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
	mcpCmd.Flags().BoolVarP(&mcpWatchFlag, "watch", "w", true, "Reindex controllers as they change")
}

func runMCP(ctx context.Context, dir string, watch bool) error {
	p, err := loadProject(dir)
	if err != nil {
		return err
	}

	// stdout carries the protocol; everything else goes to stderr.
	fmt.Fprintf(os.Stderr, "cakevars MCP Server\n")
	fmt.Fprintf(os.Stderr, "Project: %s\n", p.root)
	fmt.Fprintf(os.Stderr, "Index Location: %s\n\n", p.dbPath)

	db, err := p.open(false)
	if err != nil {
		return err
	}
	defer db.Close()

	tracker := p.newTracker()
	var notifier indexer.ChangeNotifier
	if tracker != nil {
		notifier = tracker
	}

	idx, err := p.newIndexer(db, nil, notifier)
	if err != nil {
		return err
	}
	if _, err := idx.Index(ctx, nil); err != nil {
		return fmt.Errorf("indexing failed: %w", err)
	}

	service, err := p.newService(db, tracker)
	if err != nil {
		return err
	}
	defer service.Close()

	var watcher *indexer.Watcher
	if watch {
		watcher, err = indexer.NewWatcher(idx, indexer.WatcherOptions{
			Debounce: p.debounce(),
			Notifier: notifier,
		})
		if err != nil {
			return fmt.Errorf("failed to create file watcher: %w", err)
		}
	}

	server, err := mcp.NewServer(service, watcher)
	if err != nil {
		return fmt.Errorf("failed to create MCP server: %w", err)
	}
	defer server.Close()

	if err := server.Serve(ctx); err != nil {
		return fmt.Errorf("MCP server error: %w", err)
	}
	return nil
}
