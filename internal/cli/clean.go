package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

var cleanQuietFlag bool

// cleanCmd represents the clean command
var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Delete the index to force a full reindex",
	Long: `Clean removes the project's index database. The next 'cakevars index'
parses every controller again.

The configuration file (.cakevars/config.yml) is preserved.

Examples:
  cakevars clean
  cakevars clean --quiet
`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runClean(cmd.OutOrStdout(), projectDir, cleanQuietFlag)
	},
}

func init() {
	rootCmd.AddCommand(cleanCmd)
	cleanCmd.Flags().BoolVarP(&cleanQuietFlag, "quiet", "q", false, "Suppress output messages")
}

func runClean(out io.Writer, dir string, quiet bool) error {
	p, err := loadProject(dir)
	if err != nil {
		return err
	}

	indexDir := filepath.Dir(p.dbPath)
	if _, err := os.Stat(indexDir); os.IsNotExist(err) {
		if !quiet {
			fmt.Fprintln(out, "No index found for this project")
		}
		return nil
	}

	var sizeMB float64
	if info, err := os.Stat(p.dbPath); err == nil {
		sizeMB = float64(info.Size()) / (1024 * 1024)
	}

	if err := os.RemoveAll(indexDir); err != nil {
		return fmt.Errorf("failed to remove index: %w", err)
	}

	if !quiet {
		if sizeMB > 0 {
			fmt.Fprintf(out, "✓ Removed index (~%.1f MB)\n", sizeMB)
		} else {
			fmt.Fprintln(out, "✓ Removed index")
		}
		fmt.Fprintln(out, "Next 'cakevars index' will perform a full reindex")
	}
	return nil
}
