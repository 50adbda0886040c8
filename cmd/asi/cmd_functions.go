package main

import (
	"fmt"
	"text/tabwriter"

	"asi/internal/integrand"

	"github.com/spf13/cobra"
)

func newFunctionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "functions",
		Short: "List builtin integrands",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tEXPRESSION\tDESCRIPTION")
			for _, in := range integrand.Builtins() {
				expr := in.Expr
				if expr == "" {
					expr = "-"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\n", in.Name, expr, in.Description)
			}
			return w.Flush()
		},
	}
}
