package cli

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/bnsearch/pkg/catalogue"
	"github.com/matzehuels/bnsearch/pkg/errors"
	"github.com/matzehuels/bnsearch/pkg/store"
)

// resultsCommand creates the result store management command.
func (c *CLI) resultsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "results",
		Short: "Manage the best known results",
	}

	cmd.AddCommand(c.resultsListCommand())
	cmd.AddCommand(c.resultsShowCommand())
	cmd.AddCommand(c.resultsClearCommand())
	cmd.AddCommand(c.resultsPathCommand())

	return cmd
}

// resultsListCommand creates the "results list" subcommand.
func (c *CLI) resultsListCommand() *cobra.Command {
	var (
		sf     storeFlags
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored results",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := c.openManagedStore(cmd, &sf)
			if err != nil {
				return err
			}
			defer st.Close()

			recs, err := st.List(cmd.Context())
			if err != nil {
				return err
			}
			if asJSON {
				if recs == nil {
					recs = []store.Record{}
				}
				return writeJSON(cmd, recs)
			}
			if len(recs) == 0 {
				printInfo("No stored results")
				return nil
			}
			printRecords(recs)
			return nil
		},
	}
	sf.register(cmd)
	cmd.Flags().BoolVar(&asJSON, "json", false, "print records as JSON")
	return cmd
}

// resultsShowCommand creates the "results show" subcommand.
func (c *CLI) resultsShowCommand() *cobra.Command {
	var sf storeFlags
	cmd := &cobra.Command{
		Use:   "show <instance|key>",
		Short: "Show the stored result for an instance file or key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := resultKey(args[0])
			if err != nil {
				return err
			}
			st, err := c.openManagedStore(cmd, &sf)
			if err != nil {
				return err
			}
			defer st.Close()

			rec, err := st.Get(cmd.Context(), key)
			if err != nil {
				if stderrors.Is(err, store.ErrNotFound) {
					return errors.New(errors.ErrCodeNotFound, "no stored result for %s", args[0])
				}
				return err
			}
			return writeJSON(cmd, rec)
		},
	}
	sf.register(cmd)
	return cmd
}

// resultsClearCommand creates the "results clear" subcommand.
func (c *CLI) resultsClearCommand() *cobra.Command {
	var sf storeFlags
	cmd := &cobra.Command{
		Use:   "clear [instance|key]...",
		Short: "Forget stored results, all of them when no argument is given",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := c.openManagedStore(cmd, &sf)
			if err != nil {
				return err
			}
			defer st.Close()

			var keys []string
			if len(args) == 0 {
				recs, err := st.List(cmd.Context())
				if err != nil {
					return err
				}
				for _, r := range recs {
					keys = append(keys, r.Key)
				}
			}
			for _, a := range args {
				key, err := resultKey(a)
				if err != nil {
					return err
				}
				keys = append(keys, key)
			}
			if len(keys) == 0 {
				printInfo("Result store is empty")
				return nil
			}

			for _, k := range keys {
				if err := st.Delete(cmd.Context(), k); err != nil {
					return err
				}
			}
			printSuccess("Cleared %d stored results", len(keys))
			return nil
		},
	}
	sf.register(cmd)
	return cmd
}

// resultsPathCommand creates the "results path" subcommand.
func (c *CLI) resultsPathCommand() *cobra.Command {
	var sf storeFlags
	cmd := &cobra.Command{
		Use:   "path",
		Short: "Print the file store directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			sc, err := sf.resolve()
			if err != nil {
				return err
			}
			dir, err := resultsDir(sc)
			if err != nil {
				return fmt.Errorf("get data dir: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), dir)
			return nil
		},
	}
	sf.register(cmd)
	return cmd
}

// openManagedStore opens the store selected by sf, defaulting to the
// file store.
func (c *CLI) openManagedStore(cmd *cobra.Command, sf *storeFlags) (store.Store, error) {
	sc, err := sf.resolve()
	if err != nil {
		return nil, err
	}
	return c.openStore(cmd.Context(), sc)
}

// resultKey returns arg when it is an instance key, or the key of the
// instance file at arg.
func resultKey(arg string) (string, error) {
	if errors.ValidateInstanceKey(arg) == nil {
		return arg, nil
	}
	if _, err := os.Stat(arg); err != nil {
		return "", errors.New(errors.ErrCodeInvalidKey, "%q is neither an instance key nor an instance file", arg)
	}
	cat, err := catalogue.ReadFile(arg)
	if err != nil {
		return "", err
	}
	return cat.Hash(), nil
}

// printRecords prints records as a table.
func printRecords(recs []store.Record) {
	rows := make([][]string, len(recs))
	for i, r := range recs {
		rows[i] = []string{
			r.Instance,
			shortKey(r.Key),
			r.Score.String(),
			r.Method,
			r.Elapsed.Round(time.Millisecond).String(),
			r.CreatedAt.Local().Format("2006-01-02 15:04"),
		}
	}
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("Instance", "Key", "Score", "Method", "Found after", "Stored").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == -1:
				return styleHeader
			case col == 1 || col == 5:
				return StyleDim
			case col == 2:
				return StyleNumber
			}
			return lipgloss.NewStyle()
		})
	printLine(t.Render())
	printDetail("%d results", len(recs))
}

func shortKey(key string) string {
	if len(key) > 12 {
		return key[:12]
	}
	return key
}

func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
