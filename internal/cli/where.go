package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
)

// whereCmd represents the where command
var whereCmd = &cobra.Command{
	Use:   "where <name>",
	Short: "List the actions that set a variable",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWhere(cmd.Context(), cmd.OutOrStdout(), projectDir, args[0])
	},
}

func init() {
	rootCmd.AddCommand(whereCmd)
}

func runWhere(ctx context.Context, out io.Writer, dir, name string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	name = strings.TrimPrefix(name, "$")

	p, err := loadProject(dir)
	if err != nil {
		return err
	}
	db, err := p.open(true)
	if err != nil {
		return err
	}
	defer db.Close()

	service, err := p.newService(db, nil)
	if err != nil {
		return err
	}
	defer service.Close()

	keys, err := service.ActionsForVariable(ctx, name)
	if err != nil {
		return err
	}
	if len(keys) == 0 {
		fmt.Fprintf(out, "No action sets $%s\n", name)
		return nil
	}
	for _, key := range keys {
		fmt.Fprintln(out, key)
	}
	return nil
}
