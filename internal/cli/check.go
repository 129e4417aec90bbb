package cli

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/bnsearch/pkg/order"
	"github.com/matzehuels/bnsearch/pkg/scoring"
)

type checkOpts struct {
	store storeFlags
	sort  bool
	json  bool
}

// checkCommand creates the check command.
func (c *CLI) checkCommand() *cobra.Command {
	var opts checkOpts

	cmd := &cobra.Command{
		Use:   "check <instance> <ordering|stored>",
		Short: "Score an ordering and show the network it induces",
		Long: `Score an ordering from scratch and list every variable's chosen parent set.

The ordering is a list of variable ids separated by spaces or commas, or
"stored" for the best stored ordering of the instance. With --sort the
ordering is first reordered by network depth, which keeps its score.`,
		Example: `  bnsearch check asia.txt "0 1 2 3 4 5 6 7"
  bnsearch check alarm.txt stored --sort`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cat, err := c.loadInstance(ctx, args[0])
			if err != nil {
				return err
			}
			sc, err := opts.store.resolve()
			if err != nil {
				return err
			}
			st, err := c.openStore(ctx, sc)
			if err != nil {
				return err
			}
			defer st.Close()

			o, err := resolveOrdering(ctx, st, cat, args[1])
			if err != nil {
				return err
			}
			eval := scoring.New(cat)
			if opts.sort {
				if o, err = eval.DepthSort(o); err != nil {
					return err
				}
			}
			rep, err := eval.Check(o)
			if err != nil {
				return err
			}

			if opts.json {
				return writeJSON(cmd, struct {
					Ordering order.Ordering `json:"ordering"`
					scoring.Report
				}{o, rep})
			}
			printReport(o, rep)
			return nil
		},
	}

	opts.store.register(cmd)
	cmd.Flags().BoolVar(&opts.sort, "sort", false, "reorder by network depth first")
	cmd.Flags().BoolVar(&opts.json, "json", false, "print the report as JSON")
	return cmd
}

// printReport prints a check report as a table.
func printReport(o order.Ordering, rep scoring.Report) {
	rows := make([][]string, len(rep.Entries))
	for i, e := range rep.Entries {
		parents := make([]string, len(e.Parents))
		for j, p := range e.Parents {
			parents[j] = strconv.Itoa(p)
		}
		valid := iconSuccess
		if !e.Valid {
			valid = iconError
		}
		rows[i] = []string{
			strconv.Itoa(e.Position),
			strconv.Itoa(e.Var),
			e.Score.String(),
			"{" + strings.Join(parents, ", ") + "}",
			valid,
		}
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("Pos", "Var", "Score", "Parents", "").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return styleHeader
			}
			if row < len(rep.Entries) && !rep.Entries[row].Valid {
				return styleInvalid
			}
			if col == 2 {
				return StyleNumber
			}
			return lipgloss.NewStyle()
		})

	printLine(t.Render())
	printKeyValue("Ordering", o.String())
	printKeyValue("Total", rep.Total.String())
	if rep.Valid {
		printSuccess("Every parent precedes its child")
	} else {
		printError("Some parents do not precede their child")
	}
}
