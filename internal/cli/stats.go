package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/mvp-joe/cakevars/internal/storage"
)

// statsCmd represents the stats command
var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show index statistics",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runStats(cmd.OutOrStdout(), projectDir)
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)
}

func runStats(out io.Writer, dir string) error {
	p, err := loadProject(dir)
	if err != nil {
		return err
	}
	db, err := p.open(true)
	if err != nil {
		return err
	}
	defer db.Close()

	stats, err := storage.NewFileReader(db).Stats()
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Index:        %s\n", p.dbPath)
	fmt.Fprintf(out, "Files:        %d\n", stats.Files)
	fmt.Fprintf(out, "Actions:      %d\n", stats.Actions)
	fmt.Fprintf(out, "Bindings:     %d\n", stats.Bindings)
	if stats.LastIndexed != "" {
		fmt.Fprintf(out, "Last indexed: %s (run %s)\n", stats.LastIndexed, stats.LastRunID)
	}
	return nil
}
