package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/bnsearch/pkg/buildinfo"
)

// RootCommand creates the root cobra command with all subcommands
// registered. The CLI's logger is attached to every command's context.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "bnsearch learns Bayesian network structures by ordering search",
		Long: `bnsearch searches variable orderings for high-scoring Bayesian network
structures. Given candidate parent sets per variable, each ordering induces
the best network consistent with it; local search, tabu search, annealing,
iterated local search and a memetic algorithm explore the orderings.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())

	root.AddCommand(c.searchCommand())
	root.AddCommand(c.checkCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.resultsCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.completionCommand())

	return root
}
