package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var uninstallCmd = &cobra.Command{
	Use:   "uninstall <extension>",
	Short: "Remove an installed extension",
	Long: `Remove an installed extension.

Every file attributed to the extension is deleted from the extension
directory (moved to the system trash where supported) and the installed
record is cleared.`,
	Args: cobra.ExactArgs(1),
	RunE: runUninstall,
}

func init() {
	rootCmd.AddCommand(uninstallCmd)
}

func runUninstall(cmd *cobra.Command, args []string) error {
	m, err := newManager()
	if err != nil {
		return err
	}

	task, err := m.Uninstall(cmd.Context(), args[0], nil)
	if err != nil {
		return err
	}

	if err := task.Wait(cmd.Context()); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "✓ Uninstalled %s\n", args[0])
	return nil
}
