// cmd/list.go
package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/xkilldash9x/uiflow/internal/flow"
)

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the built-in flows",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			for _, name := range flow.BuiltinNames() {
				f, err := flow.Builtin(name)
				if err != nil {
					return err
				}
				fmt.Fprintf(w, "%s\t%d actions\t%s\n", name, len(f.Actions), f.Description)
			}
			return w.Flush()
		},
	}
}
