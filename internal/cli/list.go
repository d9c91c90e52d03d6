package cli

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List installed extensions",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := newManager()
		if err != nil {
			return err
		}

		installed := m.Store().Installed()
		if len(installed) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No extensions installed.")
			return nil
		}

		names := make([]string, 0, len(installed))
		for name := range installed {
			names = append(names, name)
		}
		sort.Strings(names)

		for _, name := range names {
			rec := installed[name]
			optional := ""
			if rec.OptionalInstalled {
				optional = " (+optional)"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%-24s %s%s  %d file(s)\n", name, rec.Version, optional, len(rec.Files))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
}
