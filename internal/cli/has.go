package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
)

// errVariableMissing makes 'cakevars has' exit non-zero.
var errVariableMissing = errors.New("variable not set")

// hasCmd represents the has command
var hasCmd = &cobra.Command{
	Use:   "has <template-path> <name>",
	Short: "Check whether a template receives a variable",
	Long: `Has exits with status 0 when the action behind the template sets the
variable and 1 otherwise. The leading '$' of the name is optional.

Example:
  cakevars has templates/Movie/view.php movie
`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runHas(cmd.Context(), cmd.OutOrStdout(), projectDir, args[0], args[1])
	},
}

func init() {
	rootCmd.AddCommand(hasCmd)
}

func runHas(ctx context.Context, out io.Writer, dir, viewPath, name string) error {
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

	exists, err := service.VariableExists(ctx, viewPath, name)
	if err != nil {
		return err
	}
	if !exists {
		fmt.Fprintf(out, "✗ $%s is not set for %s\n", name, viewPath)
		return errVariableMissing
	}
	fmt.Fprintf(out, "✓ $%s is set for %s\n", name, viewPath)
	return nil
}
