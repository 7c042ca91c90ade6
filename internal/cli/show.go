package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mvp-joe/cakevars/internal/indexer/extraction"
	"github.com/mvp-joe/cakevars/internal/lookup"
)

var showJSONFlag bool

// showCmd represents the show command
var showCmd = &cobra.Command{
	Use:   "show <template-path|key>",
	Short: "List the variables a template receives",
	Long: `Show lists the variables the controller action behind a template passes
through $this->set(), with the kind of each binding and its inferred type.

The argument is either a template path relative to the project root or a
canonical action key.

Examples:
  cakevars show templates/Movie/view.php
  cakevars show Admin/Reports:Movie:view
  cakevars show templates/Movie/view.php --json
`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runShow(cmd.Context(), cmd.OutOrStdout(), projectDir, args[0], showJSONFlag)
	},
}

func init() {
	rootCmd.AddCommand(showCmd)
	showCmd.Flags().BoolVar(&showJSONFlag, "json", false, "Print variables as JSON")
}

// parseTarget decides whether arg names a template or an action key.
func parseTarget(arg string) (extraction.CanonicalKey, error) {
	if key, ok := lookup.ControllerKeyForView(arg); ok {
		return key, nil
	}
	if strings.Contains(arg, ":") && !strings.ContainsAny(arg, `\.`) {
		return extraction.CanonicalKey(arg), nil
	}
	return "", fmt.Errorf("%s is neither an action template nor an action key", arg)
}

func runShow(ctx context.Context, out io.Writer, dir, target string, asJSON bool) error {
	if ctx == nil {
		ctx = context.Background()
	}

	key, err := parseTarget(target)
	if err != nil {
		return err
	}

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

	vars, err := service.Variables(ctx, key)
	if err != nil {
		return err
	}

	if asJSON {
		if vars == nil {
			vars = []lookup.Variable{}
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(vars)
	}

	if len(vars) == 0 {
		fmt.Fprintf(out, "No variables for %s\n", key)
		return nil
	}

	fmt.Fprintf(out, "%s\n\n", key)
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tTYPE\tKIND\tSOURCE\tFILE")
	for _, v := range vars {
		kind := v.VarKind
		if v.Deferred {
			kind += " (unresolved)"
		}
		fmt.Fprintf(w, "$%s\t%s\t%s\t%s\t%s\n", v.Name, v.Type, kind, v.SourceKind, v.File)
	}
	return w.Flush()
}
