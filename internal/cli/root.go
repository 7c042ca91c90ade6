package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var projectDir string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "cakevars",
	Short: "cakevars - view variables of CakePHP controller actions",
	Long: `cakevars indexes the $this->set() calls of a CakePHP project's controllers
and answers which variables each template receives.

Run 'cakevars index' once in the project root, then query with
'cakevars show', 'cakevars has' and 'cakevars where', or serve the
same lookups to an editor with 'cakevars mcp'.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&projectDir, "project", "p", "", "project root (default is the working directory)")
}
