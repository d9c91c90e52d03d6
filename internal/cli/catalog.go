package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/addonkit/addonkit/internal/registry"
)

var catalogAddDescription string

func init() {
	catalogAddCmd.Flags().StringVar(&catalogAddDescription, "description", "", "Short description of the catalog source")
	catalogCmd.AddCommand(catalogAddCmd)
	catalogCmd.AddCommand(catalogRemoveCmd)
	catalogCmd.AddCommand(catalogListCmd)
	catalogCmd.AddCommand(catalogShowCmd)
	rootCmd.AddCommand(catalogCmd)
}

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Manage catalog sources",
	Long: `Manage the persisted list of catalog sources.

A catalog source is a named pointer to a URI hosting a JSON catalog document.
The catalog content itself is fetched on demand and never cached.`,
}

var catalogAddCmd = &cobra.Command{
	Use:   "add <name> <uri>",
	Short: "Register a catalog source",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := newManager()
		if err != nil {
			return err
		}

		src := registry.Source{Name: args[0], Description: catalogAddDescription, URI: args[1]}
		if err := m.Registry().Add(src); err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Added catalog source %q (%s)\n", src.Name, src.URI)
		return nil
	},
}

var catalogRemoveCmd = &cobra.Command{
	Use:   "remove <name>...",
	Short: "Remove catalog sources",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := newManager()
		if err != nil {
			return err
		}

		if err := m.Registry().Remove(args...); err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", strings.Join(args, ", "))
		return nil
	},
}

var catalogListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered catalog sources",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := newManager()
		if err != nil {
			return err
		}

		sources := m.Registry().List()
		if len(sources) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No catalog sources registered.")
			return nil
		}

		for _, src := range sources {
			fmt.Fprintf(cmd.OutOrStdout(), "%-20s %s\n", src.Name, src.URI)
			if src.Description != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "%-20s %s\n", "", src.Description)
			}
		}
		return nil
	},
}

var catalogShowCmd = &cobra.Command{
	Use:   "show <name|uri>",
	Short: "Fetch a catalog and show its extensions",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := newManager()
		if err != nil {
			return err
		}

		uri := args[0]
		if src, ok := m.Registry().Find(args[0]); ok {
			uri = src.URI
		}

		cat, err := m.Fetcher().Fetch(cmd.Context(), uri)
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "%s - %s\n\n", cat.Name, cat.Description)
		for _, ext := range cat.Extensions {
			marker := " "
			if ext.Starred {
				marker = "*"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s", marker, ext.Name)
			if ext.Author != "" {
				fmt.Fprintf(cmd.OutOrStdout(), " (by %s)", ext.Author)
			}
			fmt.Fprintln(cmd.OutOrStdout())

			for _, rel := range ext.Releases {
				compat := ">= " + rel.Compatibility.Min
				if !rel.Compatibility.Open() {
					compat = rel.Compatibility.Min + " – " + rel.Compatibility.Max
				}
				fmt.Fprintf(cmd.OutOrStdout(), "    %-12s host %s\n", rel.Name, compat)
			}
		}
		return nil
	},
}
